package dto

import (
	"time"

	"github.com/hfiuc/uc-reservation-api/internal/models"
)

// CreateReservationRequest is the public booking submission payload.
type CreateReservationRequest struct {
	RoomID       int64     `json:"room" binding:"required"`
	ClassID      int64     `json:"classId" binding:"required"`
	StartTime    time.Time `json:"startTime" binding:"required"`
	EndTime      time.Time `json:"endTime" binding:"required"`
	StudentName  string    `json:"studentName"`
	StudentID    string    `json:"studentId"`
	Email        string    `json:"email"`
	Reason       string    `json:"reason"`
	CaptchaToken string    `json:"captchaToken"`
}

// CreateReservationResponse reports the admitted reservation and whether it
// took the privileged auto-approved path.
type CreateReservationResponse struct {
	Reservation  models.Reservation `json:"reservation"`
	AutoApproved bool               `json:"autoApproved"`
	Superseded   []int64            `json:"superseded,omitempty"`
}

// DecideReservationRequest applies an approval decision.
type DecideReservationRequest struct {
	Status models.ReservationStatus `json:"status" binding:"required,oneof=approved rejected"`
	Reason string                   `json:"reason"`
}

// ReservationListRequest captures reservation query parameters.
type ReservationListRequest struct {
	Keyword  string `form:"keyword"`
	RoomID   int64  `form:"room"`
	Status   string `form:"status"`
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"pageSize,default=20"`
}

// ReservationExportRequest scopes the export endpoint.
type ReservationExportRequest struct {
	Format string     `form:"format,default=csv" binding:"oneof=csv pdf"`
	ByRoom bool       `form:"byRoom"`
	RoomID int64      `form:"room"`
	From   *time.Time `form:"from" time_format:"2006-01-02"`
	To     *time.Time `form:"to" time_format:"2006-01-02"`
}
