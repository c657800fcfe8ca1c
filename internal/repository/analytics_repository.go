package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hfiuc/uc-reservation-api/internal/models"
)

// AnalyticsRepository persists daily counters. All writes are additive merges
// keyed on the calendar day, so concurrent bumps from parallel requests
// accumulate instead of overwriting each other.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository constructs the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// Bump adds the delta to the given day's counters, inserting the row on
// first touch. The date is truncated to midnight UTC before keying.
func (r *AnalyticsRepository) Bump(ctx context.Context, date time.Time, delta models.AnalyticDelta) error {
	day := date.UTC().Truncate(24 * time.Hour)
	const query = `INSERT INTO reservation_analytics
	(date, reservations, reservation_creations, approvals, rejections, requests)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (date) DO UPDATE SET
	reservations = reservation_analytics.reservations + EXCLUDED.reservations,
	reservation_creations = reservation_analytics.reservation_creations + EXCLUDED.reservation_creations,
	approvals = reservation_analytics.approvals + EXCLUDED.approvals,
	rejections = reservation_analytics.rejections + EXCLUDED.rejections,
	requests = reservation_analytics.requests + EXCLUDED.requests`
	if _, err := ext(ctx, r.db).ExecContext(ctx, query,
		day, delta.Reservations, delta.ReservationCreations,
		delta.Approvals, delta.Rejections, delta.Requests); err != nil {
		return fmt.Errorf("bump analytics: %w", err)
	}
	return nil
}

// Range returns the daily rows with date in [from, to), oldest first. Days
// with no activity have no row; callers zero-fill.
func (r *AnalyticsRepository) Range(ctx context.Context, from, to time.Time) ([]models.Analytic, error) {
	analytics := []models.Analytic{}
	const query = `SELECT id, date, reservations, reservation_creations, approvals, rejections, requests
	FROM reservation_analytics WHERE date >= $1 AND date < $2 ORDER BY date`
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &analytics, query, from, to); err != nil {
		return nil, fmt.Errorf("range analytics: %w", err)
	}
	return analytics, nil
}
