package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/hfiuc/uc-reservation-api/internal/models"
)

func TestAnalyticsRepositoryBumpTruncatesDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAnalyticsRepository(db)
	at := time.Date(2026, 8, 31, 15, 42, 7, 0, time.UTC)
	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservation_analytics")).
		WithArgs(day, int64(1), int64(1), int64(0), int64(0), int64(0)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Bump(context.Background(), at, models.AnalyticDelta{Reservations: 1, ReservationCreations: 1})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsRepositoryRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAnalyticsRepository(db)
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	rows := sqlmock.NewRows([]string{"id", "date", "reservations", "reservation_creations", "approvals", "rejections", "requests"}).
		AddRow(int64(1), from, int64(3), int64(5), int64(2), int64(1), int64(40)).
		AddRow(int64(2), from.AddDate(0, 0, 1), int64(0), int64(1), int64(0), int64(0), int64(12))
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservation_analytics")).
		WithArgs(from, to).
		WillReturnRows(rows)

	analytics, err := repo.Range(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, analytics, 2)
	require.Equal(t, int64(3), analytics[0].Reservations)
	require.NoError(t, mock.ExpectationsWereMet())
}
