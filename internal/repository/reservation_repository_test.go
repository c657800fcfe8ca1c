package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/hfiuc/uc-reservation-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestReservationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReservationRepository(db)
	created := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO reservations")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), created))

	reservation := &models.Reservation{
		RoomID:      1,
		ClassID:     2,
		StartTime:   created.Add(24 * time.Hour),
		EndTime:     created.Add(25 * time.Hour),
		StudentName: "Ana",
		StudentID:   "GJ12",
		Email:       "ana@example.com",
		Reason:      "study group",
	}
	require.NoError(t, repo.Create(context.Background(), reservation))
	require.Equal(t, int64(7), reservation.ID)
	require.Equal(t, models.StatusPending, reservation.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepositoryUpdateStatusGuard(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReservationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reservations SET status")).
		WithArgs(string(models.StatusApproved), int64(9), int64(4), string(models.StatusPending)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.UpdateStatus(context.Background(), 4, models.StatusPending, models.StatusApproved, 9)
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	// lost race: row no longer matches the expected status
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reservations SET status")).
		WithArgs(string(models.StatusApproved), int64(9), int64(4), string(models.StatusPending)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err = repo.UpdateStatus(context.Background(), 4, models.StatusPending, models.StatusApproved, 9)
	require.NoError(t, err)
	require.Zero(t, affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepositoryListUpcomingForApprover(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReservationRepository(db)
	from := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "room_id", "class_id", "start_time", "end_time",
		"student_name", "student_id", "email", "reason", "status", "latest_executor_id", "created_at"}).
		AddRow(int64(6), int64(1), int64(2), from.Add(time.Hour), from.Add(2*time.Hour), "Ana", "GJ12",
			"ana@example.com", "study group", "pending", nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("JOIN room_approvers a ON a.room_id = v.room_id")).
		WithArgs(int64(9), from).
		WillReturnRows(rows)

	upcoming, err := repo.ListUpcomingForApprover(context.Background(), 9, from)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	require.Equal(t, int64(6), upcoming[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepositoryRoomUsageBetween(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReservationRepository(db)
	from := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	rows := sqlmock.NewRows([]string{"room_id", "room_name", "reservations", "reservation_creations"}).
		AddRow(int64(1), "Studio A", int64(4), int64(5)).
		AddRow(int64(2), "Lab", int64(0), int64(1))
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(v.id) FILTER (WHERE v.start_time >= $1 AND v.start_time < $2) AS reservations")).
		WithArgs(from, to).
		WillReturnRows(rows)

	usage, err := repo.RoomUsageBetween(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, usage, 2)
	require.Equal(t, "Studio A", usage[0].RoomName)
	require.Equal(t, int64(4), usage[0].Reservations)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepositoryListOverlapping(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReservationRepository(db)
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	rows := sqlmock.NewRows([]string{"id", "room_id", "class_id", "start_time", "end_time",
		"student_name", "student_id", "email", "reason", "status", "latest_executor_id", "created_at"}).
		AddRow(int64(3), int64(1), int64(2), start, end, "Ben", "1234567890", "ben@example.com",
			"rehearsal", "pending", nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations")).
		WithArgs(int64(1), string(models.StatusRejected), end, start).
		WillReturnRows(rows)

	overlapping, err := repo.ListOverlapping(context.Background(), 1, start, end)
	require.NoError(t, err)
	require.Len(t, overlapping, 1)
	require.Equal(t, int64(3), overlapping[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
