package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hfiuc/uc-reservation-api/internal/dto"
	"github.com/hfiuc/uc-reservation-api/internal/models"
	appErrors "github.com/hfiuc/uc-reservation-api/pkg/errors"
)

const decisionScope = "decision"

type adminCrudStore interface {
	Create(ctx context.Context, admin *models.Admin) error
	GetByID(ctx context.Context, id int64) (*models.Admin, error)
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
	List(ctx context.Context) ([]models.Admin, error)
	Update(ctx context.Context, admin *models.Admin) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

// AuthService manages admin identities, session tokens and the one-time
// decision links embedded in approver mail.
type AuthService struct {
	admins     adminCrudStore
	secret     []byte
	sessionTTL time.Duration
	linkTTL    time.Duration
	baseURL    string
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService constructs the service.
func NewAuthService(admins adminCrudStore, secret string, sessionTTL, linkTTL time.Duration, baseURL string, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	if linkTTL <= 0 {
		linkTTL = 48 * time.Hour
	}
	return &AuthService{
		admins:     admins,
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		linkTTL:    linkTTL,
		baseURL:    baseURL,
		logger:     logger,
		now:        time.Now,
	}
}

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	admin, err := s.admins.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidLogin
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load admin")
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
		return nil, appErrors.ErrInvalidLogin
	}

	token, err := s.issueToken(*admin, "", s.sessionTTL)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "sign token")
	}
	return &dto.LoginResponse{Token: token, Admin: *admin}, nil
}

func (s *AuthService) issueToken(admin models.Admin, scope string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := models.SessionClaims{
		AdminID: admin.ID,
		Email:   admin.Email,
		Scope:   scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(admin.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken validates a token and resolves the admin it belongs to.
func (s *AuthService) ParseToken(ctx context.Context, token string) (*models.Admin, *models.SessionClaims, error) {
	claims := &models.SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, nil, appErrors.ErrUnauthorized
	}

	admin, err := s.admins.GetByID(ctx, claims.AdminID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.ErrUnauthorized
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load admin")
	}
	return admin, claims, nil
}

// DecisionLink builds the one-time review URL embedded in approver mail. The
// token carries a dedicated scope and a short expiry.
func (s *AuthService) DecisionLink(admin models.Admin, reservationID int64) (string, error) {
	token, err := s.issueToken(admin, decisionScope, s.linkTTL)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/reservations/%d?token=%s", s.baseURL, reservationID, token), nil
}

// CreateAdmin registers a staff identity.
func (s *AuthService) CreateAdmin(ctx context.Context, req dto.CreateAdminRequest) (*models.Admin, error) {
	if len(req.Password) < 6 {
		return nil, appErrors.Validation("password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "hash password")
	}
	admin := &models.Admin{Name: req.Name, Email: req.Email, PasswordHash: string(hash)}
	if err := s.admins.Create(ctx, admin); err != nil {
		if pqErrorCode(err) == pqUniqueViolation {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an admin with this email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create admin")
	}
	return admin, nil
}

// UpdateAdmin changes the name and, when provided, the password.
func (s *AuthService) UpdateAdmin(ctx context.Context, id int64, req dto.UpdateAdminRequest) (*models.Admin, error) {
	admin, err := s.admins.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "admin not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load admin")
	}

	if req.Name != "" {
		admin.Name = req.Name
	}
	if req.Password != "" {
		if len(req.Password) < 6 {
			return nil, appErrors.Validation("password must be at least 6 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "hash password")
		}
		admin.PasswordHash = string(hash)
	}

	if _, err := s.admins.Update(ctx, admin); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update admin")
	}
	return admin, nil
}

// ListAdmins returns every staff identity.
func (s *AuthService) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	return s.admins.List(ctx)
}

// DeleteAdmin removes a staff identity and its approver grants.
func (s *AuthService) DeleteAdmin(ctx context.Context, id int64) error {
	affected, err := s.admins.Delete(ctx, id)
	return requireAffected(affected, err, "admin")
}
