package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hfiuc/uc-reservation-api/internal/dto"
	"github.com/hfiuc/uc-reservation-api/internal/models"
	appErrors "github.com/hfiuc/uc-reservation-api/pkg/errors"
	"github.com/hfiuc/uc-reservation-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	CreateAdmin(ctx context.Context, req dto.CreateAdminRequest) (*models.Admin, error)
	UpdateAdmin(ctx context.Context, id int64, req dto.UpdateAdminRequest) (*models.Admin, error)
	ListAdmins(ctx context.Context) ([]models.Admin, error)
	DeleteAdmin(ctx context.Context, id int64) error
}

type oplogService interface {
	ListByReservation(ctx context.Context, reservationID int64) ([]models.OperationLog, error)
	List(ctx context.Context, limit int) ([]models.OperationLog, error)
}

// AuthHandler exposes login and admin management.
type AuthHandler struct {
	service authService
	oplog   oplogService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service authService, oplog oplogService) *AuthHandler {
	return &AuthHandler{service: service, oplog: oplog}
}

// Login godoc
// @Summary Authenticate an admin
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body dto.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid login payload"))
		return
	}
	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// CreateAdmin godoc
// @Summary Register a staff identity
// @Tags Admins
// @Router /admins [post]
func (h *AuthHandler) CreateAdmin(c *gin.Context) {
	var req dto.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid admin payload"))
		return
	}
	admin, err := h.service.CreateAdmin(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, admin)
}

// ListAdmins godoc
// @Summary List staff identities
// @Tags Admins
// @Router /admins [get]
func (h *AuthHandler) ListAdmins(c *gin.Context) {
	admins, err := h.service.ListAdmins(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, admins)
}

// UpdateAdmin godoc
// @Summary Update a staff identity
// @Tags Admins
// @Router /admins/{id} [put]
func (h *AuthHandler) UpdateAdmin(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid admin payload"))
		return
	}
	admin, err := h.service.UpdateAdmin(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, admin)
}

// DeleteAdmin godoc
// @Summary Remove a staff identity
// @Tags Admins
// @Router /admins/{id} [delete]
func (h *AuthHandler) DeleteAdmin(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteAdmin(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListOperations godoc
// @Summary List recent approval decisions
// @Tags Admins
// @Param reservation query int false "Scope to one reservation"
// @Param limit query int false "Maximum entries"
// @Router /operations [get]
func (h *AuthHandler) ListOperations(c *gin.Context) {
	if raw := c.Query("reservation"); raw != "" {
		reservationID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || reservationID <= 0 {
			response.Error(c, appErrors.Validation("reservation must be a positive integer"))
			return
		}
		entries, err := h.oplog.ListByReservation(c.Request.Context(), reservationID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, entries)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries, err := h.oplog.List(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, entries)
}
