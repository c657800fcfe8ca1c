package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/hfiuc/uc-reservation-api/internal/dto"
	"github.com/hfiuc/uc-reservation-api/internal/middleware"
	"github.com/hfiuc/uc-reservation-api/internal/models"
	appErrors "github.com/hfiuc/uc-reservation-api/pkg/errors"
)

type stubAdmissions struct {
	admitResp     *dto.CreateReservationResponse
	admitErr      error
	lastReq       dto.CreateReservationRequest
	upcoming      []models.Reservation
	upcomingActor models.Admin
}

func (s *stubAdmissions) Admit(_ context.Context, req dto.CreateReservationRequest) (*dto.CreateReservationResponse, error) {
	s.lastReq = req
	return s.admitResp, s.admitErr
}

func (s *stubAdmissions) Get(context.Context, int64) (*models.Reservation, []models.OperationLog, error) {
	return &models.Reservation{ID: 1}, nil, nil
}

func (s *stubAdmissions) List(context.Context, models.ReservationFilter) ([]models.Reservation, int64, error) {
	return []models.Reservation{{ID: 1}}, 1, nil
}

func (s *stubAdmissions) Upcoming(_ context.Context, actor models.Admin) ([]models.Reservation, error) {
	s.upcomingActor = actor
	return s.upcoming, nil
}

func (s *stubAdmissions) Export(context.Context, dto.ReservationExportRequest) ([]byte, string, error) {
	return []byte("csv"), "reservations.csv", nil
}

type stubApprovals struct {
	decided *models.Reservation
	err     error
	actor   models.Admin
	status  models.ReservationStatus
}

func (s *stubApprovals) Decide(_ context.Context, _ int64, actor models.Admin, status models.ReservationStatus, _ string) (*models.Reservation, error) {
	s.actor = actor
	s.status = status
	return s.decided, s.err
}

func newTestRouter(admissions *stubAdmissions, approvals *stubApprovals, admin *models.Admin) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if admin != nil {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.ContextAdminKey, *admin)
		})
	}
	h := NewReservationHandler(admissions, approvals)
	r.POST("/reservations", h.Create)
	r.GET("/reservations/upcoming", h.Upcoming)
	r.POST("/reservations/:id/decision", h.Decide)
	return r
}

func TestReservationHandlerUpcomingRequiresAdmin(t *testing.T) {
	admissions := &stubAdmissions{upcoming: []models.Reservation{{ID: 6, Status: models.StatusPending}}}
	router := newTestRouter(admissions, &stubApprovals{}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reservations/upcoming", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	admin := &models.Admin{ID: 9, Email: "staff@example.com"}
	router = newTestRouter(admissions, &stubApprovals{}, admin)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reservations/upcoming", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int64(9), admissions.upcomingActor.ID)

	var envelope struct {
		Data []models.Reservation `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
}

func TestReservationHandlerCreate(t *testing.T) {
	admissions := &stubAdmissions{
		admitResp: &dto.CreateReservationResponse{
			Reservation: models.Reservation{ID: 7, Status: models.StatusPending},
		},
	}
	router := newTestRouter(admissions, &stubApprovals{}, nil)

	payload := dto.CreateReservationRequest{
		RoomID:      1,
		ClassID:     2,
		StartTime:   time.Now().Add(24 * time.Hour),
		EndTime:     time.Now().Add(25 * time.Hour),
		StudentName: "Ana",
		StudentID:   "GJ2201",
		Email:       "ana@example.com",
		Reason:      "study group",
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/reservations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, int64(1), admissions.lastReq.RoomID)

	var envelope struct {
		Data dto.CreateReservationResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, int64(7), envelope.Data.Reservation.ID)
}

func TestReservationHandlerCreateValidationError(t *testing.T) {
	admissions := &stubAdmissions{
		admitErr: appErrors.Validation("reason is required", "startTime must be in the future"),
	}
	router := newTestRouter(admissions, &stubApprovals{}, nil)

	body, err := json.Marshal(dto.CreateReservationRequest{
		RoomID: 1, ClassID: 2,
		StartTime: time.Now(), EndTime: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/reservations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope struct {
		Error appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, appErrors.ErrValidation.Code, envelope.Error.Code)
	require.Len(t, envelope.Error.Rules, 2)
}

func TestReservationHandlerDecide(t *testing.T) {
	approvals := &stubApprovals{decided: &models.Reservation{ID: 4, Status: models.StatusApproved}}
	admin := &models.Admin{ID: 9, Email: "staff@example.com"}
	router := newTestRouter(&stubAdmissions{}, approvals, admin)

	body, err := json.Marshal(dto.DecideReservationRequest{Status: models.StatusApproved})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/reservations/4/decision", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int64(9), approvals.actor.ID)
	require.Equal(t, models.StatusApproved, approvals.status)
}

func TestReservationHandlerDecideConflict(t *testing.T) {
	approvals := &stubApprovals{err: appErrors.ErrAlreadyDecided}
	admin := &models.Admin{ID: 9}
	router := newTestRouter(&stubAdmissions{}, approvals, admin)

	body, err := json.Marshal(dto.DecideReservationRequest{Status: models.StatusRejected, Reason: "late"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/reservations/4/decision", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
}
