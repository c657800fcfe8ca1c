package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hfiuc/uc-reservation-api/internal/dto"
	"github.com/hfiuc/uc-reservation-api/internal/middleware"
	"github.com/hfiuc/uc-reservation-api/internal/models"
	appErrors "github.com/hfiuc/uc-reservation-api/pkg/errors"
	"github.com/hfiuc/uc-reservation-api/pkg/response"
)

type admissionService interface {
	Admit(ctx context.Context, req dto.CreateReservationRequest) (*dto.CreateReservationResponse, error)
	Get(ctx context.Context, id int64) (*models.Reservation, []models.OperationLog, error)
	List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, int64, error)
	Upcoming(ctx context.Context, actor models.Admin) ([]models.Reservation, error)
	Export(ctx context.Context, req dto.ReservationExportRequest) ([]byte, string, error)
}

type approvalService interface {
	Decide(ctx context.Context, reservationID int64, actor models.Admin, status models.ReservationStatus, reason string) (*models.Reservation, error)
}

// ReservationHandler exposes booking submission, reads and decisions.
type ReservationHandler struct {
	admissions admissionService
	approvals  approvalService
}

// NewReservationHandler constructs the handler.
func NewReservationHandler(admissions admissionService, approvals approvalService) *ReservationHandler {
	return &ReservationHandler{admissions: admissions, approvals: approvals}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Validation("id must be a positive integer"))
		return 0, false
	}
	return id, true
}

// Create godoc
// @Summary Submit a reservation
// @Tags Reservations
// @Accept json
// @Produce json
// @Param payload body dto.CreateReservationRequest true "Reservation payload"
// @Success 201 {object} response.Envelope
// @Router /reservations [post]
func (h *ReservationHandler) Create(c *gin.Context) {
	var req dto.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid reservation payload"))
		return
	}
	result, err := h.admissions.Admit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List reservations
// @Tags Reservations
// @Produce json
// @Param keyword query string false "Free-text filter"
// @Param room query int false "Room id"
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /reservations [get]
func (h *ReservationHandler) List(c *gin.Context) {
	var req dto.ReservationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	filter := models.ReservationFilter{
		Keyword:  req.Keyword,
		RoomID:   req.RoomID,
		Status:   models.ReservationStatus(req.Status),
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	reservations, total, err := h.admissions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, 200, reservations, &response.Pagination{
		Page:     req.Page,
		PageSize: req.PageSize,
		Total:    int(total),
	})
}

// Upcoming godoc
// @Summary Future reservations awaiting the acting approver
// @Tags Reservations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /reservations/upcoming [get]
func (h *ReservationHandler) Upcoming(c *gin.Context) {
	actor, ok := middleware.CurrentAdmin(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	reservations, err := h.admissions.Upcoming(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, reservations)
}

// Get godoc
// @Summary Fetch one reservation with its decision trail
// @Tags Reservations
// @Produce json
// @Param id path int true "Reservation id"
// @Success 200 {object} response.Envelope
// @Router /reservations/{id} [get]
func (h *ReservationHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	reservation, trail, err := h.admissions.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"reservation": reservation, "operations": trail})
}

// Decide godoc
// @Summary Approve or reject a reservation
// @Tags Reservations
// @Accept json
// @Produce json
// @Param id path int true "Reservation id"
// @Param payload body dto.DecideReservationRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Router /reservations/{id}/decision [post]
func (h *ReservationHandler) Decide(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.DecideReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid decision payload"))
		return
	}
	actor, ok := middleware.CurrentAdmin(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	reservation, err := h.approvals.Decide(c.Request.Context(), id, actor, req.Status, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, reservation)
}

// Export godoc
// @Summary Export reservations as CSV or PDF
// @Tags Reservations
// @Produce octet-stream
// @Param format query string false "csv or pdf"
// @Param byRoom query bool false "One section per room"
// @Success 200 {file} binary
// @Router /reservations/export [get]
func (h *ReservationHandler) Export(c *gin.Context) {
	var req dto.ReservationExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid export parameters"))
		return
	}
	payload, filename, err := h.admissions.Export(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	contentType := "text/csv"
	if req.Format == "pdf" {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(200, contentType, payload)
}
