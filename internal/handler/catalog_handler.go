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

type catalogService interface {
	CreateCampus(ctx context.Context, req dto.UpsertCampusRequest) (*models.Campus, error)
	ListCampuses(ctx context.Context) ([]models.Campus, error)
	UpdateCampus(ctx context.Context, id int64, req dto.UpsertCampusRequest) error
	DeleteCampus(ctx context.Context, id int64) error
	CreateRoom(ctx context.Context, req dto.UpsertRoomRequest) (*models.Room, error)
	GetRoom(ctx context.Context, id int64) (*models.Room, []models.RoomPolicy, []models.RoomApprover, error)
	ListRooms(ctx context.Context, campusID int64) ([]models.Room, error)
	UpdateRoom(ctx context.Context, id int64, req dto.UpsertRoomRequest) error
	DeleteRoom(ctx context.Context, id int64) error
	CreateClass(ctx context.Context, req dto.UpsertClassRequest) (*models.Class, error)
	ListClasses(ctx context.Context, campusID int64) ([]models.Class, error)
	UpdateClass(ctx context.Context, id int64, req dto.UpsertClassRequest) error
	DeleteClass(ctx context.Context, id int64) error
	CreatePolicy(ctx context.Context, roomID int64, req dto.UpsertPolicyRequest) (*models.RoomPolicy, error)
	ListPolicies(ctx context.Context, roomID int64) ([]models.RoomPolicy, error)
	UpdatePolicy(ctx context.Context, id int64, req dto.UpsertPolicyRequest) error
	DeletePolicy(ctx context.Context, id int64) error
	AddApprover(ctx context.Context, roomID int64, req dto.AddApproverRequest) (*models.RoomApprover, error)
	ListApprovers(ctx context.Context, roomID int64) ([]models.RoomApprover, error)
	SetApproverNotify(ctx context.Context, id int64, enabled bool) error
	RemoveApprover(ctx context.Context, id int64) error
}

// CatalogHandler exposes campus, room, class, policy and approver management.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func campusQuery(c *gin.Context) int64 {
	campusID, _ := strconv.ParseInt(c.Query("campus"), 10, 64)
	return campusID
}

// CreateCampus godoc
// @Summary Create a campus
// @Tags Catalog
// @Router /campuses [post]
func (h *CatalogHandler) CreateCampus(c *gin.Context) {
	var req dto.UpsertCampusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid campus payload"))
		return
	}
	campus, err := h.service.CreateCampus(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, campus)
}

// ListCampuses godoc
// @Summary List campuses
// @Tags Catalog
// @Router /campuses [get]
func (h *CatalogHandler) ListCampuses(c *gin.Context) {
	campuses, err := h.service.ListCampuses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, campuses)
}

// UpdateCampus godoc
// @Summary Rename a campus
// @Tags Catalog
// @Router /campuses/{id} [put]
func (h *CatalogHandler) UpdateCampus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpsertCampusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid campus payload"))
		return
	}
	if err := h.service.UpdateCampus(c.Request.Context(), id, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteCampus godoc
// @Summary Delete a campus and its rooms and classes
// @Tags Catalog
// @Router /campuses/{id} [delete]
func (h *CatalogHandler) DeleteCampus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteCampus(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateRoom godoc
// @Summary Create a room
// @Tags Catalog
// @Router /rooms [post]
func (h *CatalogHandler) CreateRoom(c *gin.Context) {
	var req dto.UpsertRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid room payload"))
		return
	}
	room, err := h.service.CreateRoom(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, room)
}

// GetRoom godoc
// @Summary Fetch a room with policies and approvers
// @Tags Catalog
// @Router /rooms/{id} [get]
func (h *CatalogHandler) GetRoom(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	room, policies, approvers, err := h.service.GetRoom(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"room": room, "policies": policies, "approvers": approvers})
}

// ListRooms godoc
// @Summary List rooms
// @Tags Catalog
// @Router /rooms [get]
func (h *CatalogHandler) ListRooms(c *gin.Context) {
	rooms, err := h.service.ListRooms(c.Request.Context(), campusQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rooms)
}

// UpdateRoom godoc
// @Summary Update a room
// @Tags Catalog
// @Router /rooms/{id} [put]
func (h *CatalogHandler) UpdateRoom(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpsertRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid room payload"))
		return
	}
	if err := h.service.UpdateRoom(c.Request.Context(), id, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteRoom godoc
// @Summary Delete a room with its policies and approver grants
// @Tags Catalog
// @Router /rooms/{id} [delete]
func (h *CatalogHandler) DeleteRoom(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteRoom(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateClass godoc
// @Summary Create a class
// @Tags Catalog
// @Router /classes [post]
func (h *CatalogHandler) CreateClass(c *gin.Context) {
	var req dto.UpsertClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid class payload"))
		return
	}
	class, err := h.service.CreateClass(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// ListClasses godoc
// @Summary List classes
// @Tags Catalog
// @Router /classes [get]
func (h *CatalogHandler) ListClasses(c *gin.Context) {
	classes, err := h.service.ListClasses(c.Request.Context(), campusQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, classes)
}

// UpdateClass godoc
// @Summary Update a class
// @Tags Catalog
// @Router /classes/{id} [put]
func (h *CatalogHandler) UpdateClass(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpsertClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid class payload"))
		return
	}
	if err := h.service.UpdateClass(c.Request.Context(), id, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteClass godoc
// @Summary Delete a class
// @Tags Catalog
// @Router /classes/{id} [delete]
func (h *CatalogHandler) DeleteClass(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteClass(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreatePolicy godoc
// @Summary Add a blackout window to a room
// @Tags Catalog
// @Router /rooms/{id}/policies [post]
func (h *CatalogHandler) CreatePolicy(c *gin.Context) {
	roomID, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpsertPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid policy payload"))
		return
	}
	policy, err := h.service.CreatePolicy(c.Request.Context(), roomID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, policy)
}

// ListPolicies godoc
// @Summary List a room's blackout windows
// @Tags Catalog
// @Router /rooms/{id}/policies [get]
func (h *CatalogHandler) ListPolicies(c *gin.Context) {
	roomID, ok := pathID(c)
	if !ok {
		return
	}
	policies, err := h.service.ListPolicies(c.Request.Context(), roomID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, policies)
}

// UpdatePolicy godoc
// @Summary Update a blackout window
// @Tags Catalog
// @Router /policies/{id} [put]
func (h *CatalogHandler) UpdatePolicy(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpsertPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid policy payload"))
		return
	}
	if err := h.service.UpdatePolicy(c.Request.Context(), id, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeletePolicy godoc
// @Summary Delete a blackout window
// @Tags Catalog
// @Router /policies/{id} [delete]
func (h *CatalogHandler) DeletePolicy(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeletePolicy(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddApprover godoc
// @Summary Grant an admin decision rights on a room
// @Tags Catalog
// @Router /rooms/{id}/approvers [post]
func (h *CatalogHandler) AddApprover(c *gin.Context) {
	roomID, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.AddApproverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid approver payload"))
		return
	}
	approver, err := h.service.AddApprover(c.Request.Context(), roomID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, approver)
}

// ListApprovers godoc
// @Summary List a room's approver grants
// @Tags Catalog
// @Router /rooms/{id}/approvers [get]
func (h *CatalogHandler) ListApprovers(c *gin.Context) {
	roomID, ok := pathID(c)
	if !ok {
		return
	}
	approvers, err := h.service.ListApprovers(c.Request.Context(), roomID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, approvers)
}

// SetApproverNotify godoc
// @Summary Toggle the per-approver request email
// @Tags Catalog
// @Router /approvers/{id}/notify [put]
func (h *CatalogHandler) SetApproverNotify(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid notify payload"))
		return
	}
	if err := h.service.SetApproverNotify(c.Request.Context(), id, *req.Enabled); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RemoveApprover godoc
// @Summary Revoke an approver grant
// @Tags Catalog
// @Router /approvers/{id} [delete]
func (h *CatalogHandler) RemoveApprover(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.RemoveApprover(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
