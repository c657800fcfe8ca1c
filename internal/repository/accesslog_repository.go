package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hfiuc/uc-reservation-api/internal/models"
)

// AccessLogRepository persists request and error trails. Writes are
// best-effort side records; callers log failures instead of failing the
// request.
type AccessLogRepository struct {
	db *sqlx.DB
}

// NewAccessLogRepository constructs the repository.
func NewAccessLogRepository(db *sqlx.DB) *AccessLogRepository {
	return &AccessLogRepository{db: db}
}

// Create appends an access record.
func (r *AccessLogRepository) Create(ctx context.Context, entry *models.AccessLog) error {
	const query = `INSERT INTO access_logs (request_id, ip, method, path, status, user_agent, latency_ms)
	VALUES (:request_id, :ip, :method, :path, :status, :user_agent, :latency_ms)`
	if _, err := sqlx.NamedExecContext(ctx, ext(ctx, r.db), query, entry); err != nil {
		return fmt.Errorf("create access log: %w", err)
	}
	return nil
}

// CreateError appends an internal-failure record keyed by request id.
func (r *AccessLogRepository) CreateError(ctx context.Context, entry *models.ErrorLog) error {
	const query = `INSERT INTO error_logs (request_id, message, stack)
	VALUES (:request_id, :message, :stack)`
	if _, err := sqlx.NamedExecContext(ctx, ext(ctx, r.db), query, entry); err != nil {
		return fmt.Errorf("create error log: %w", err)
	}
	return nil
}
