package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/hfiuc/uc-reservation-api/internal/dto"
	"github.com/hfiuc/uc-reservation-api/pkg/response"
)

type analyticsService interface {
	Overview(ctx context.Context) (*dto.AnalyticsOverviewResponse, error)
	WeeklyReport(ctx context.Context) (*dto.WeeklyReportResponse, error)
}

// AnalyticsHandler exposes dashboard aggregates.
type AnalyticsHandler struct {
	service analyticsService
}

// NewAnalyticsHandler constructs the handler.
func NewAnalyticsHandler(service analyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// Overview godoc
// @Summary Daily and monthly reservation counters
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/overview [get]
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, overview)
}

// Weekly godoc
// @Summary Report for the last completed Monday-Sunday week
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/weekly [get]
func (h *AnalyticsHandler) Weekly(c *gin.Context) {
	report, err := h.service.WeeklyReport(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}
