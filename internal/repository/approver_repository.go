package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hfiuc/uc-reservation-api/internal/models"
)

// ApproverRepository persists per-room decision grants.
type ApproverRepository struct {
	db *sqlx.DB
}

// NewApproverRepository constructs the repository.
func NewApproverRepository(db *sqlx.DB) *ApproverRepository {
	return &ApproverRepository{db: db}
}

// Add grants an admin decision rights on a room.
func (r *ApproverRepository) Add(ctx context.Context, approver *models.RoomApprover) error {
	const query = `INSERT INTO room_approvers (room_id, admin_id, notify_enabled)
	VALUES ($1, $2, $3) RETURNING id, created_at`
	row := ext(ctx, r.db).QueryRowxContext(ctx, query, approver.RoomID, approver.AdminID, approver.NotifyEnabled)
	if err := row.Scan(&approver.ID, &approver.CreatedAt); err != nil {
		return fmt.Errorf("add approver: %w", err)
	}
	return nil
}

// ListByRoom returns the room's approver grants.
func (r *ApproverRepository) ListByRoom(ctx context.Context, roomID int64) ([]models.RoomApprover, error) {
	approvers := []models.RoomApprover{}
	const query = `SELECT id, room_id, admin_id, notify_enabled, created_at
	FROM room_approvers WHERE room_id = $1 ORDER BY id`
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &approvers, query, roomID); err != nil {
		return nil, fmt.Errorf("list approvers: %w", err)
	}
	return approvers, nil
}

// NotifiableAdmins returns admins with an active request-notification grant
// on the room.
func (r *ApproverRepository) NotifiableAdmins(ctx context.Context, roomID int64) ([]models.Admin, error) {
	admins := []models.Admin{}
	const query = `SELECT a.id, a.name, a.email, a.password_hash, a.created_at
	FROM admins a JOIN room_approvers ra ON ra.admin_id = a.id
	WHERE ra.room_id = $1 AND ra.notify_enabled ORDER BY a.id`
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &admins, query, roomID); err != nil {
		return nil, fmt.Errorf("list notifiable approvers: %w", err)
	}
	return admins, nil
}

// IsApprover reports whether the admin holds a grant on the room.
func (r *ApproverRepository) IsApprover(ctx context.Context, roomID, adminID int64) (bool, error) {
	var count int64
	const query = `SELECT COUNT(*) FROM room_approvers WHERE room_id = $1 AND admin_id = $2`
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &count, query, roomID, adminID); err != nil {
		return false, fmt.Errorf("check approver: %w", err)
	}
	return count > 0, nil
}

// SetNotify toggles the per-approver request email. Returns rows affected.
func (r *ApproverRepository) SetNotify(ctx context.Context, id int64, enabled bool) (int64, error) {
	result, err := ext(ctx, r.db).ExecContext(ctx,
		`UPDATE room_approvers SET notify_enabled = $1 WHERE id = $2`, enabled, id)
	if err != nil {
		return 0, fmt.Errorf("update approver: %w", err)
	}
	return result.RowsAffected()
}

// Remove revokes a grant.
func (r *ApproverRepository) Remove(ctx context.Context, id int64) (int64, error) {
	result, err := ext(ctx, r.db).ExecContext(ctx, `DELETE FROM room_approvers WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("remove approver: %w", err)
	}
	return result.RowsAffected()
}
