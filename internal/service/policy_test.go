package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hfiuc/uc-reservation-api/internal/models"
)

func TestWeekdayIndexMondayIsZero(t *testing.T) {
	monday := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	require.Equal(t, time.Monday, monday.Weekday())
	require.Equal(t, 0, weekdayIndex(monday))
	require.Equal(t, 6, weekdayIndex(monday.AddDate(0, 0, 6)))
}

func TestViolatedPolicyMatchesWeekdayAndWindow(t *testing.T) {
	policy := models.RoomPolicy{
		Days:      []int64{0, 2}, // Monday and Wednesday
		StartHour: 9, StartMinute: 0,
		EndHour: 11, EndMinute: 30,
		Enabled: true,
	}
	policies := []models.RoomPolicy{policy}

	monday := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	// inside the window
	start := monday.Add(10 * time.Hour)
	require.NotNil(t, violatedPolicy(policies, start, start.Add(time.Hour)))

	// half-open: booking starting exactly at the window end is allowed
	start = monday.Add(11*time.Hour + 30*time.Minute)
	require.Nil(t, violatedPolicy(policies, start, start.Add(time.Hour)))

	// booking ending exactly at the window start is allowed
	start = monday.Add(8 * time.Hour)
	require.Nil(t, violatedPolicy(policies, start, start.Add(time.Hour)))

	// same clock time on a Tuesday passes
	tuesday := monday.AddDate(0, 0, 1).Add(10 * time.Hour)
	require.Nil(t, violatedPolicy(policies, tuesday, tuesday.Add(time.Hour)))
}

func TestViolatedPolicyIgnoresDisabled(t *testing.T) {
	policy := models.RoomPolicy{
		Days:      []int64{0},
		StartHour: 9, EndHour: 17,
		Enabled: false,
	}
	monday := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	require.Nil(t, violatedPolicy([]models.RoomPolicy{policy}, monday, monday.Add(time.Hour)))
}

func TestViolatedPolicyAnchorsToStartDay(t *testing.T) {
	// Window on Mondays 22:00-23:59; a booking that starts Monday 23:30 and
	// runs into Tuesday still trips the Monday window.
	policy := models.RoomPolicy{
		Days:      []int64{0},
		StartHour: 22, EndHour: 23, EndMinute: 59,
		Enabled: true,
	}
	start := time.Date(2026, 8, 31, 23, 30, 0, 0, time.UTC)
	require.NotNil(t, violatedPolicy([]models.RoomPolicy{policy}, start, start.Add(time.Hour)))

	// The same booking on Tuesday night is clear: the window anchors to the
	// booking's own start day, which the policy does not cover.
	start = start.AddDate(0, 0, 1)
	require.Nil(t, violatedPolicy([]models.RoomPolicy{policy}, start, start.Add(time.Hour)))
}

func TestFindConflictsSkipsRejected(t *testing.T) {
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	candidates := []models.Reservation{
		{ID: 1, Status: models.StatusRejected, StartTime: start, EndTime: end},
		{ID: 2, Status: models.StatusPending, StartTime: start.Add(time.Hour), EndTime: end.Add(time.Hour)},
		{ID: 3, Status: models.StatusApproved, StartTime: end, EndTime: end.Add(time.Hour)},
	}

	conflicts := findConflicts(candidates, start, end)
	require.Len(t, conflicts, 1)
	require.Equal(t, int64(2), conflicts[0].ID)
}
