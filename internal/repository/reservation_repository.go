package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hfiuc/uc-reservation-api/internal/models"
)

const reservationColumns = `id, room_id, class_id, start_time, end_time, student_name, student_id, email, reason, status, latest_executor_id, created_at`

// ReservationRepository persists reservations and their status transitions.
type ReservationRepository struct {
	db *sqlx.DB
}

// NewReservationRepository constructs the repository.
func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Create inserts a reservation and fills the generated id and timestamp.
func (r *ReservationRepository) Create(ctx context.Context, reservation *models.Reservation) error {
	if reservation.Status == "" {
		reservation.Status = models.StatusPending
	}
	const query = `INSERT INTO reservations
	(room_id, class_id, start_time, end_time, student_name, student_id, email, reason, status, latest_executor_id)
	VALUES (:room_id, :class_id, :start_time, :end_time, :student_name, :student_id, :email, :reason, :status, :latest_executor_id)
	RETURNING id, created_at`
	rows, err := sqlx.NamedQueryContext(ctx, ext(ctx, r.db), query, reservation)
	if err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&reservation.ID, &reservation.CreatedAt); err != nil {
			return fmt.Errorf("scan reservation id: %w", err)
		}
	}
	return rows.Err()
}

// GetByID fetches a reservation by identifier.
func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*models.Reservation, error) {
	query := fmt.Sprintf(`SELECT %s FROM reservations WHERE id = $1`, reservationColumns)
	var reservation models.Reservation
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &reservation, query, id); err != nil {
		return nil, err
	}
	return &reservation, nil
}

// List returns reservations matching the filter, latest start first, plus the
// unpaginated total.
func (r *ReservationRepository) List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, int64, error) {
	var builder strings.Builder
	args := make([]interface{}, 0, 4)
	builder.WriteString(" FROM reservations WHERE 1=1")
	if filter.RoomID != 0 {
		args = append(args, filter.RoomID)
		builder.WriteString(fmt.Sprintf(" AND room_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		builder.WriteString(fmt.Sprintf(" AND status = $%d", len(args)))
	}
	if filter.Keyword != "" {
		args = append(args, "%"+filter.Keyword+"%")
		builder.WriteString(fmt.Sprintf(" AND (student_name ILIKE $%d OR student_id ILIKE $%d OR email ILIKE $%d OR reason ILIKE $%d)",
			len(args), len(args), len(args), len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		builder.WriteString(fmt.Sprintf(" AND start_time >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		builder.WriteString(fmt.Sprintf(" AND start_time < $%d", len(args)))
	}

	var total int64
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &total, "SELECT COUNT(*)"+builder.String(), args...); err != nil {
		return nil, 0, fmt.Errorf("count reservations: %w", err)
	}

	builder.WriteString(" ORDER BY start_time DESC")
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		args = append(args, filter.PageSize)
		builder.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
		args = append(args, (page-1)*filter.PageSize)
		builder.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))
	}

	reservations := []models.Reservation{}
	query := "SELECT " + reservationColumns + builder.String()
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &reservations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list reservations: %w", err)
	}
	return reservations, total, nil
}

// ListOverlapping returns non-rejected reservations in the room whose
// half-open window intersects [start, end).
func (r *ReservationRepository) ListOverlapping(ctx context.Context, roomID int64, start, end time.Time) ([]models.Reservation, error) {
	query := fmt.Sprintf(`SELECT %s FROM reservations
	WHERE room_id = $1 AND status <> $2 AND start_time < $3 AND end_time > $4
	ORDER BY start_time`, reservationColumns)
	reservations := []models.Reservation{}
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &reservations, query, roomID, models.StatusRejected, end, start); err != nil {
		return nil, fmt.Errorf("list overlapping reservations: %w", err)
	}
	return reservations, nil
}

// ListStartingBetween returns reservations whose start falls in [from, to),
// optionally limited to one status, ordered by start time.
func (r *ReservationRepository) ListStartingBetween(ctx context.Context, from, to time.Time, status models.ReservationStatus) ([]models.Reservation, error) {
	var builder strings.Builder
	args := []interface{}{from, to}
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM reservations WHERE start_time >= $1 AND start_time < $2`, reservationColumns))
	if status != "" {
		args = append(args, status)
		builder.WriteString(fmt.Sprintf(" AND status = $%d", len(args)))
	}
	builder.WriteString(" ORDER BY start_time")
	reservations := []models.Reservation{}
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &reservations, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list reservations by window: %w", err)
	}
	return reservations, nil
}

// ListUpcomingForApprover returns reservations starting after the cutoff in
// rooms the admin approves for, skipping rows another admin already decided.
func (r *ReservationRepository) ListUpcomingForApprover(ctx context.Context, adminID int64, from time.Time) ([]models.Reservation, error) {
	const query = `SELECT v.id, v.room_id, v.class_id, v.start_time, v.end_time, v.student_name, v.student_id,
	v.email, v.reason, v.status, v.latest_executor_id, v.created_at
	FROM reservations v JOIN room_approvers a ON a.room_id = v.room_id
	WHERE a.admin_id = $1 AND v.start_time > $2
	AND (v.latest_executor_id IS NULL OR v.latest_executor_id = $1)
	ORDER BY v.start_time`
	reservations := []models.Reservation{}
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &reservations, query, adminID, from); err != nil {
		return nil, fmt.Errorf("list upcoming reservations for approver: %w", err)
	}
	return reservations, nil
}

// UpdateStatus applies a decision with a compare-and-set guard: the row must
// still hold the expected status, and any previously recorded executor must
// match the acting admin. Returns the number of rows changed; zero means a
// concurrent decision won.
func (r *ReservationRepository) UpdateStatus(ctx context.Context, id int64, expected, next models.ReservationStatus, executorID int64) (int64, error) {
	const query = `UPDATE reservations SET status = $1, latest_executor_id = $2
	WHERE id = $3 AND status = $4 AND (latest_executor_id IS NULL OR latest_executor_id = $2)`
	result, err := ext(ctx, r.db).ExecContext(ctx, query, next, executorID, id, expected)
	if err != nil {
		return 0, fmt.Errorf("update reservation status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update reservation status: %w", err)
	}
	return affected, nil
}

// SupersedeOverlapping rejects every non-rejected reservation in the room
// that intersects [start, end), excluding the winner, and returns the losers.
func (r *ReservationRepository) SupersedeOverlapping(ctx context.Context, roomID, excludeID, executorID int64, start, end time.Time) ([]models.Reservation, error) {
	query := fmt.Sprintf(`UPDATE reservations SET status = $1, latest_executor_id = $2
	WHERE room_id = $3 AND id <> $4 AND status <> $1 AND start_time < $5 AND end_time > $6
	RETURNING %s`, reservationColumns)
	superseded := []models.Reservation{}
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &superseded, query,
		models.StatusRejected, executorID, roomID, excludeID, end, start); err != nil {
		return nil, fmt.Errorf("supersede overlapping reservations: %w", err)
	}
	return superseded, nil
}

// RoomUsageBetween aggregates per-room weekly numbers: reservations starting
// inside [from, to) and rows created inside the same window.
func (r *ReservationRepository) RoomUsageBetween(ctx context.Context, from, to time.Time) ([]RoomUsageRow, error) {
	const query = `SELECT rm.id AS room_id, rm.name AS room_name,
	COUNT(v.id) FILTER (WHERE v.start_time >= $1 AND v.start_time < $2) AS reservations,
	COUNT(v.id) FILTER (WHERE v.created_at >= $1 AND v.created_at < $2) AS reservation_creations
	FROM rooms rm LEFT JOIN reservations v ON v.room_id = rm.id
	GROUP BY rm.id, rm.name
	ORDER BY reservations DESC, reservation_creations DESC, rm.id`
	rows := []RoomUsageRow{}
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &rows, query, from, to); err != nil {
		return nil, fmt.Errorf("aggregate room usage: %w", err)
	}
	return rows, nil
}

// RoomUsageRow is one aggregated room from RoomUsageBetween.
type RoomUsageRow struct {
	RoomID               int64  `db:"room_id"`
	RoomName             string `db:"room_name"`
	Reservations         int64  `db:"reservations"`
	ReservationCreations int64  `db:"reservation_creations"`
}
