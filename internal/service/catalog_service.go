package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/hfiuc/uc-reservation-api/internal/dto"
	"github.com/hfiuc/uc-reservation-api/internal/models"
	appErrors "github.com/hfiuc/uc-reservation-api/pkg/errors"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

type catalogStore interface {
	CreateCampus(ctx context.Context, campus *models.Campus) error
	ListCampuses(ctx context.Context) ([]models.Campus, error)
	UpdateCampus(ctx context.Context, id int64, name string) (int64, error)
	DeleteCampus(ctx context.Context, id int64) (int64, error)
	CreateRoom(ctx context.Context, room *models.Room) error
	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	ListRooms(ctx context.Context, campusID int64) ([]models.Room, error)
	UpdateRoom(ctx context.Context, room *models.Room) (int64, error)
	DeleteRoom(ctx context.Context, id int64) (int64, error)
	CreateClass(ctx context.Context, class *models.Class) error
	ListClasses(ctx context.Context, campusID int64) ([]models.Class, error)
	UpdateClass(ctx context.Context, class *models.Class) (int64, error)
	DeleteClass(ctx context.Context, id int64) (int64, error)
}

type policyAdminStore interface {
	Create(ctx context.Context, policy *models.RoomPolicy) error
	GetByID(ctx context.Context, id int64) (*models.RoomPolicy, error)
	ListByRoom(ctx context.Context, roomID int64, onlyEnabled bool) ([]models.RoomPolicy, error)
	Update(ctx context.Context, policy *models.RoomPolicy) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

type approverAdminStore interface {
	Add(ctx context.Context, approver *models.RoomApprover) error
	ListByRoom(ctx context.Context, roomID int64) ([]models.RoomApprover, error)
	SetNotify(ctx context.Context, id int64, enabled bool) (int64, error)
	Remove(ctx context.Context, id int64) (int64, error)
}

// CatalogService manages campuses, rooms, classes, blackout policies and
// approver grants.
type CatalogService struct {
	catalog   catalogStore
	policies  policyAdminStore
	approvers approverAdminStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs the service.
func NewCatalogService(catalog catalogStore, policies policyAdminStore, approvers approverAdminStore, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		catalog:   catalog,
		policies:  policies,
		approvers: approvers,
		validator: validator.New(),
		logger:    logger,
	}
}

func (s *CatalogService) validate(req interface{}) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	return nil
}

func pqErrorCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func requireAffected(affected int64, err error, what string) error {
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, what)
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, what+" not found")
	}
	return nil
}

// CreateCampus adds a campus.
func (s *CatalogService) CreateCampus(ctx context.Context, req dto.UpsertCampusRequest) (*models.Campus, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	campus := &models.Campus{Name: req.Name}
	if err := s.catalog.CreateCampus(ctx, campus); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create campus")
	}
	return campus, nil
}

// ListCampuses returns every campus.
func (s *CatalogService) ListCampuses(ctx context.Context) ([]models.Campus, error) {
	return s.catalog.ListCampuses(ctx)
}

// UpdateCampus renames a campus.
func (s *CatalogService) UpdateCampus(ctx context.Context, id int64, req dto.UpsertCampusRequest) error {
	if err := s.validate(req); err != nil {
		return err
	}
	affected, err := s.catalog.UpdateCampus(ctx, id, req.Name)
	return requireAffected(affected, err, "campus")
}

// DeleteCampus removes a campus together with its rooms and classes.
// Reservation history is left untouched.
func (s *CatalogService) DeleteCampus(ctx context.Context, id int64) error {
	affected, err := s.catalog.DeleteCampus(ctx, id)
	return requireAffected(affected, err, "campus")
}

// CreateRoom adds a room to a campus.
func (s *CatalogService) CreateRoom(ctx context.Context, req dto.UpsertRoomRequest) (*models.Room, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	room := &models.Room{Name: req.Name, CampusID: req.CampusID, Enabled: true}
	if req.Enabled != nil {
		room.Enabled = *req.Enabled
	}
	if err := s.catalog.CreateRoom(ctx, room); err != nil {
		if pqErrorCode(err) == pqForeignKeyViolation {
			return nil, appErrors.Validation("campus does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create room")
	}
	return room, nil
}

// GetRoom returns one room with its policies and approver grants.
func (s *CatalogService) GetRoom(ctx context.Context, id int64) (*models.Room, []models.RoomPolicy, []models.RoomApprover, error) {
	room, err := s.catalog.GetRoom(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load room")
	}
	policies, err := s.policies.ListByRoom(ctx, id, false)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load policies")
	}
	approvers, err := s.approvers.ListByRoom(ctx, id)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load approvers")
	}
	return room, policies, approvers, nil
}

// ListRooms returns rooms, optionally scoped to one campus.
func (s *CatalogService) ListRooms(ctx context.Context, campusID int64) ([]models.Room, error) {
	return s.catalog.ListRooms(ctx, campusID)
}

// UpdateRoom rewrites a room.
func (s *CatalogService) UpdateRoom(ctx context.Context, id int64, req dto.UpsertRoomRequest) error {
	if err := s.validate(req); err != nil {
		return err
	}
	room := &models.Room{ID: id, Name: req.Name, CampusID: req.CampusID, Enabled: true}
	if req.Enabled != nil {
		room.Enabled = *req.Enabled
	}
	affected, err := s.catalog.UpdateRoom(ctx, room)
	if err != nil && pqErrorCode(err) == pqForeignKeyViolation {
		return appErrors.Validation("campus does not exist")
	}
	return requireAffected(affected, err, "room")
}

// DeleteRoom removes a room together with its policies and approver grants.
func (s *CatalogService) DeleteRoom(ctx context.Context, id int64) error {
	affected, err := s.catalog.DeleteRoom(ctx, id)
	return requireAffected(affected, err, "room")
}

// CreateClass adds a class to a campus.
func (s *CatalogService) CreateClass(ctx context.Context, req dto.UpsertClassRequest) (*models.Class, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	class := &models.Class{Name: req.Name, CampusID: req.CampusID}
	if err := s.catalog.CreateClass(ctx, class); err != nil {
		if pqErrorCode(err) == pqForeignKeyViolation {
			return nil, appErrors.Validation("campus does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create class")
	}
	return class, nil
}

// ListClasses returns classes, optionally scoped to one campus.
func (s *CatalogService) ListClasses(ctx context.Context, campusID int64) ([]models.Class, error) {
	return s.catalog.ListClasses(ctx, campusID)
}

// UpdateClass rewrites a class.
func (s *CatalogService) UpdateClass(ctx context.Context, id int64, req dto.UpsertClassRequest) error {
	if err := s.validate(req); err != nil {
		return err
	}
	class := &models.Class{ID: id, Name: req.Name, CampusID: req.CampusID}
	affected, err := s.catalog.UpdateClass(ctx, class)
	if err != nil && pqErrorCode(err) == pqForeignKeyViolation {
		return appErrors.Validation("campus does not exist")
	}
	return requireAffected(affected, err, "class")
}

// DeleteClass removes a class.
func (s *CatalogService) DeleteClass(ctx context.Context, id int64) error {
	affected, err := s.catalog.DeleteClass(ctx, id)
	return requireAffected(affected, err, "class")
}

// validatePolicy accumulates every violated rule of a blackout window.
func validatePolicy(req dto.UpsertPolicyRequest) []string {
	rules := []string{}
	if len(req.Days) == 0 {
		rules = append(rules, "days must not be empty")
	}
	if len(req.Days) > 7 {
		rules = append(rules, "days cannot contain more than 7 entries")
	}
	seen := map[int]bool{}
	for _, day := range req.Days {
		if day < 0 || day > 6 {
			rules = append(rules, fmt.Sprintf("day %d is out of range", day))
			continue
		}
		if seen[day] {
			rules = append(rules, fmt.Sprintf("day %d is listed twice", day))
		}
		seen[day] = true
	}
	if req.StartHour < 0 || req.StartHour > 23 || req.EndHour < 0 || req.EndHour > 23 {
		rules = append(rules, "hours must be between 0 and 23")
	}
	if req.StartMinute < 0 || req.StartMinute > 59 || req.EndMinute < 0 || req.EndMinute > 59 {
		rules = append(rules, "minutes must be between 0 and 59")
	}
	if req.StartHour*60+req.StartMinute >= req.EndHour*60+req.EndMinute {
		rules = append(rules, "the window start must be before its end")
	}
	return rules
}

func policyFromRequest(req dto.UpsertPolicyRequest) models.RoomPolicy {
	days := make([]int64, 0, len(req.Days))
	for _, day := range req.Days {
		days = append(days, int64(day))
	}
	policy := models.RoomPolicy{
		Days:        days,
		StartHour:   req.StartHour,
		StartMinute: req.StartMinute,
		EndHour:     req.EndHour,
		EndMinute:   req.EndMinute,
		Enabled:     true,
	}
	if req.Enabled != nil {
		policy.Enabled = *req.Enabled
	}
	return policy
}

// CreatePolicy adds a blackout window to a room.
func (s *CatalogService) CreatePolicy(ctx context.Context, roomID int64, req dto.UpsertPolicyRequest) (*models.RoomPolicy, error) {
	if rules := validatePolicy(req); len(rules) > 0 {
		return nil, appErrors.Validation(rules...)
	}
	if _, err := s.catalog.GetRoom(ctx, roomID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load room")
	}
	policy := policyFromRequest(req)
	policy.RoomID = roomID
	if err := s.policies.Create(ctx, &policy); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create policy")
	}
	return &policy, nil
}

// ListPolicies returns a room's blackout windows.
func (s *CatalogService) ListPolicies(ctx context.Context, roomID int64) ([]models.RoomPolicy, error) {
	return s.policies.ListByRoom(ctx, roomID, false)
}

// UpdatePolicy rewrites a blackout window.
func (s *CatalogService) UpdatePolicy(ctx context.Context, id int64, req dto.UpsertPolicyRequest) error {
	if rules := validatePolicy(req); len(rules) > 0 {
		return appErrors.Validation(rules...)
	}
	current, err := s.policies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "policy not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load policy")
	}
	policy := policyFromRequest(req)
	policy.ID = id
	policy.RoomID = current.RoomID
	affected, err := s.policies.Update(ctx, &policy)
	return requireAffected(affected, err, "policy")
}

// DeletePolicy removes a blackout window.
func (s *CatalogService) DeletePolicy(ctx context.Context, id int64) error {
	affected, err := s.policies.Delete(ctx, id)
	return requireAffected(affected, err, "policy")
}

// AddApprover grants an admin decision rights on a room.
func (s *CatalogService) AddApprover(ctx context.Context, roomID int64, req dto.AddApproverRequest) (*models.RoomApprover, error) {
	approver := &models.RoomApprover{RoomID: roomID, AdminID: req.AdminID, NotifyEnabled: true}
	if req.NotifyEnabled != nil {
		approver.NotifyEnabled = *req.NotifyEnabled
	}
	if err := s.approvers.Add(ctx, approver); err != nil {
		switch pqErrorCode(err) {
		case pqUniqueViolation:
			return nil, appErrors.Clone(appErrors.ErrConflict, "admin is already an approver for this room")
		case pqForeignKeyViolation:
			return nil, appErrors.Validation("room or admin does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "add approver")
	}
	return approver, nil
}

// ListApprovers returns a room's approver grants.
func (s *CatalogService) ListApprovers(ctx context.Context, roomID int64) ([]models.RoomApprover, error) {
	return s.approvers.ListByRoom(ctx, roomID)
}

// SetApproverNotify toggles the per-approver request email.
func (s *CatalogService) SetApproverNotify(ctx context.Context, id int64, enabled bool) error {
	affected, err := s.approvers.SetNotify(ctx, id, enabled)
	return requireAffected(affected, err, "approver")
}

// RemoveApprover revokes a grant.
func (s *CatalogService) RemoveApprover(ctx context.Context, id int64) error {
	affected, err := s.approvers.Remove(ctx, id)
	return requireAffected(affected, err, "approver")
}
