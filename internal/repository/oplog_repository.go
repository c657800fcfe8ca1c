package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hfiuc/uc-reservation-api/internal/models"
)

// OperationLogRepository persists the decision trail.
type OperationLogRepository struct {
	db *sqlx.DB
}

// NewOperationLogRepository constructs the repository.
func NewOperationLogRepository(db *sqlx.DB) *OperationLogRepository {
	return &OperationLogRepository{db: db}
}

// Create appends a decision entry.
func (r *OperationLogRepository) Create(ctx context.Context, entry *models.OperationLog) error {
	const query = `INSERT INTO operation_logs (admin_id, reservation_id, operation, reason)
	VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	row := ext(ctx, r.db).QueryRowxContext(ctx, query, entry.AdminID, entry.ReservationID, entry.Operation, entry.Reason)
	if err := row.Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return fmt.Errorf("create operation log: %w", err)
	}
	return nil
}

// ListByReservation returns a reservation's decision trail, newest first.
func (r *OperationLogRepository) ListByReservation(ctx context.Context, reservationID int64) ([]models.OperationLog, error) {
	entries := []models.OperationLog{}
	const query = `SELECT id, admin_id, reservation_id, operation, reason, created_at
	FROM operation_logs WHERE reservation_id = $1 ORDER BY created_at DESC, id DESC`
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &entries, query, reservationID); err != nil {
		return nil, fmt.Errorf("list operation logs: %w", err)
	}
	return entries, nil
}

// List returns the newest entries across all reservations.
func (r *OperationLogRepository) List(ctx context.Context, limit int) ([]models.OperationLog, error) {
	if limit <= 0 {
		limit = 100
	}
	entries := []models.OperationLog{}
	const query = `SELECT id, admin_id, reservation_id, operation, reason, created_at
	FROM operation_logs ORDER BY created_at DESC, id DESC LIMIT $1`
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &entries, query, limit); err != nil {
		return nil, fmt.Errorf("list operation logs: %w", err)
	}
	return entries, nil
}
