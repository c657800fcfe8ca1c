package models

import "time"

// Analytic is one calendar day of counters. Date is truncated to midnight and
// unique per row; writes are additive merges so concurrent bumps never lose
// increments.
type Analytic struct {
	ID                   int64     `db:"id" json:"id"`
	Date                 time.Time `db:"date" json:"date"`
	Reservations         int64     `db:"reservations" json:"reservations"`
	ReservationCreations int64     `db:"reservation_creations" json:"reservationCreations"`
	Approvals            int64     `db:"approvals" json:"approvals"`
	Rejections           int64     `db:"rejections" json:"rejections"`
	Requests             int64     `db:"requests" json:"requests"`
}

// AnalyticDelta is a set of counter increments applied to a single day.
// Zero-valued fields leave the stored counter untouched.
type AnalyticDelta struct {
	Reservations         int64
	ReservationCreations int64
	Approvals            int64
	Rejections           int64
	Requests             int64
}
