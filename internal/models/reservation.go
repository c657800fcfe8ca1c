package models

import "time"

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusPending  ReservationStatus = "pending"
	StatusApproved ReservationStatus = "approved"
	StatusRejected ReservationStatus = "rejected"
)

// Reservation is a requested time slot in a room. The window is half-open:
// [StartTime, EndTime). Back-to-back bookings therefore never conflict.
type Reservation struct {
	ID               int64             `db:"id" json:"id"`
	RoomID           int64             `db:"room_id" json:"room"`
	ClassID          int64             `db:"class_id" json:"classId"`
	StartTime        time.Time         `db:"start_time" json:"startTime"`
	EndTime          time.Time         `db:"end_time" json:"endTime"`
	StudentName      string            `db:"student_name" json:"studentName"`
	StudentID        string            `db:"student_id" json:"studentId"`
	Email            string            `db:"email" json:"email"`
	Reason           string            `db:"reason" json:"reason"`
	Status           ReservationStatus `db:"status" json:"status"`
	LatestExecutorID *int64            `db:"latest_executor_id" json:"latestExecutorId,omitempty"`
	CreatedAt        time.Time         `db:"created_at" json:"createdAt"`
}

// Overlaps reports whether the reservation's half-open window intersects
// [start, end).
func (r Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && r.EndTime.After(start)
}

// ReservationFilter scopes reservation queries. From and To bound the start
// time as [From, To) when set.
type ReservationFilter struct {
	Keyword  string
	RoomID   int64
	Status   ReservationStatus
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}
