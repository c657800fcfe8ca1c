package models

import "time"

// OperationLog records one admin decision applied to a reservation. Operation
// stores the resulting status.
type OperationLog struct {
	ID            int64             `db:"id" json:"id"`
	AdminID       int64             `db:"admin_id" json:"admin"`
	ReservationID int64             `db:"reservation_id" json:"reservation"`
	Operation     ReservationStatus `db:"operation" json:"operation"`
	Reason        *string           `db:"reason" json:"reason,omitempty"`
	CreatedAt     time.Time         `db:"created_at" json:"createdAt"`
}

// AccessLog records one handled HTTP request.
type AccessLog struct {
	ID        int64     `db:"id" json:"id"`
	RequestID string    `db:"request_id" json:"requestId"`
	IP        string    `db:"ip" json:"ip"`
	Method    string    `db:"method" json:"method"`
	Path      string    `db:"path" json:"path"`
	Status    int       `db:"status" json:"status"`
	UserAgent string    `db:"user_agent" json:"userAgent"`
	LatencyMS int64     `db:"latency_ms" json:"latencyMs"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// ErrorLog captures an unhandled panic or internal failure surfaced to a
// client as an opaque error carrying the request id.
type ErrorLog struct {
	ID        int64     `db:"id" json:"id"`
	RequestID string    `db:"request_id" json:"requestId"`
	Message   string    `db:"message" json:"message"`
	Stack     string    `db:"stack" json:"stack"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
