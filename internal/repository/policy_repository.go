package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/hfiuc/uc-reservation-api/internal/models"
)

const policyColumns = `id, room_id, days, start_hour, start_minute, end_hour, end_minute, enabled, created_at`

// PolicyRepository persists recurring blackout windows.
type PolicyRepository struct {
	db *sqlx.DB
}

// NewPolicyRepository constructs the repository.
func NewPolicyRepository(db *sqlx.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

// Create inserts a policy.
func (r *PolicyRepository) Create(ctx context.Context, policy *models.RoomPolicy) error {
	const query = `INSERT INTO room_policies (room_id, days, start_hour, start_minute, end_hour, end_minute, enabled)
	VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`
	row := ext(ctx, r.db).QueryRowxContext(ctx, query,
		policy.RoomID, pq.Array(policy.Days), policy.StartHour, policy.StartMinute,
		policy.EndHour, policy.EndMinute, policy.Enabled)
	if err := row.Scan(&policy.ID, &policy.CreatedAt); err != nil {
		return fmt.Errorf("create policy: %w", err)
	}
	return nil
}

// GetByID fetches a policy by identifier.
func (r *PolicyRepository) GetByID(ctx context.Context, id int64) (*models.RoomPolicy, error) {
	query := fmt.Sprintf(`SELECT %s FROM room_policies WHERE id = $1`, policyColumns)
	var policy models.RoomPolicy
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &policy, query, id); err != nil {
		return nil, err
	}
	return &policy, nil
}

// ListByRoom returns the room's policies, optionally only the enabled ones.
func (r *PolicyRepository) ListByRoom(ctx context.Context, roomID int64, onlyEnabled bool) ([]models.RoomPolicy, error) {
	policies := []models.RoomPolicy{}
	query := fmt.Sprintf(`SELECT %s FROM room_policies WHERE room_id = $1`, policyColumns)
	if onlyEnabled {
		query += ` AND enabled`
	}
	query += ` ORDER BY id`
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &policies, query, roomID); err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	return policies, nil
}

// Update rewrites the policy fields. Returns rows affected.
func (r *PolicyRepository) Update(ctx context.Context, policy *models.RoomPolicy) (int64, error) {
	const query = `UPDATE room_policies
	SET days = $1, start_hour = $2, start_minute = $3, end_hour = $4, end_minute = $5, enabled = $6
	WHERE id = $7`
	result, err := ext(ctx, r.db).ExecContext(ctx, query,
		pq.Array(policy.Days), policy.StartHour, policy.StartMinute,
		policy.EndHour, policy.EndMinute, policy.Enabled, policy.ID)
	if err != nil {
		return 0, fmt.Errorf("update policy: %w", err)
	}
	return result.RowsAffected()
}

// Delete removes a policy.
func (r *PolicyRepository) Delete(ctx context.Context, id int64) (int64, error) {
	result, err := ext(ctx, r.db).ExecContext(ctx, `DELETE FROM room_policies WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete policy: %w", err)
	}
	return result.RowsAffected()
}
