package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hfiuc/uc-reservation-api/internal/models"
	"github.com/hfiuc/uc-reservation-api/internal/repository"
	appErrors "github.com/hfiuc/uc-reservation-api/pkg/errors"
)

type fakeAnalyticsRange struct {
	fakeAnalytics
	rows []models.Analytic
}

func (f *fakeAnalyticsRange) Range(context.Context, time.Time, time.Time) ([]models.Analytic, error) {
	return f.rows, nil
}

type fakeUsage struct {
	usage    []repository.RoomUsageRow
	approved []models.Reservation
	all      []models.Reservation
}

func (f *fakeUsage) RoomUsageBetween(context.Context, time.Time, time.Time) ([]repository.RoomUsageRow, error) {
	return f.usage, nil
}

func (f *fakeUsage) ListStartingBetween(_ context.Context, _, _ time.Time, status models.ReservationStatus) ([]models.Reservation, error) {
	if status == "" {
		return f.all, nil
	}
	return f.approved, nil
}

type memoryCache struct {
	values map[string][]byte
	sets   int
	purged []string
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	if c.values == nil {
		return appErrors.ErrCacheMiss
	}
	raw, ok := c.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if c.values == nil {
		c.values = map[string][]byte{}
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.values[key] = raw
	c.sets++
	return nil
}

func (c *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	c.purged = append(c.purged, pattern)
	c.values = nil
	return nil
}

func TestWeekBounds(t *testing.T) {
	// 2026-08-31 is a Monday; the last completed week is Aug 24 to Aug 30.
	now := time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC)
	start, end := weekBounds(now)
	require.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), start)
	require.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), end)

	// mid-week the same completed week is reported
	start2, end2 := weekBounds(now.AddDate(0, 0, 3))
	require.Equal(t, start, start2)
	require.Equal(t, end, end2)
}

func TestDailySeriesZeroFills(t *testing.T) {
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	rows := []models.Analytic{
		{Date: from.AddDate(0, 0, 2), Reservations: 4, Requests: 10},
	}

	series := dailySeries(rows, from, 7)
	require.Len(t, series, 7)
	require.Equal(t, "2026-08-01", series[0].Date)
	require.Zero(t, series[0].Reservations)
	require.Equal(t, int64(4), series[2].Reservations)
	require.Equal(t, int64(10), series[2].Requests)
	require.Zero(t, series[6].Reservations)
}

func TestHourlyHistogramWrapsPastMidnight(t *testing.T) {
	day := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	reservations := []models.Reservation{
		{StartTime: day.Add(23 * time.Hour), EndTime: day.Add(25 * time.Hour)},
		{StartTime: day.Add(10 * time.Hour), EndTime: day.Add(12 * time.Hour)},
		{StartTime: day.Add(10*time.Hour + 15*time.Minute), EndTime: day.Add(10*time.Hour + 45*time.Minute)},
	}

	buckets := hourlyHistogram(reservations)
	require.Equal(t, int64(1), buckets[23])
	require.Equal(t, int64(1), buckets[0])
	require.Zero(t, buckets[1])
	// the booking contained inside 10:00-11:00 touches no bucket
	require.Equal(t, int64(1), buckets[10])
	require.Equal(t, int64(1), buckets[11])
	require.Zero(t, buckets[12])
}

func newAnalyticsFixture(rows []models.Analytic, usage *fakeUsage, cache *memoryCache) *AnalyticsService {
	service := NewAnalyticsService(&fakeAnalyticsRange{rows: rows}, usage, cache, splitTokenizer{}, time.Hour, nil)
	service.now = func() time.Time { return time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC) }
	return service
}

func TestWeeklyReportBuildsAndCaches(t *testing.T) {
	weekStart := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	rows := []models.Analytic{
		{Date: weekStart, Reservations: 3, ReservationCreations: 5, Approvals: 2, Requests: 50},
		{Date: weekStart.AddDate(0, 0, 1), Reservations: 1, ReservationCreations: 2, Rejections: 1, Requests: 20},
	}
	approved := []models.Reservation{
		{StartTime: weekStart.Add(9 * time.Hour), EndTime: weekStart.Add(11 * time.Hour), Reason: "broken desk"},
		{StartTime: weekStart.Add(9 * time.Hour), EndTime: weekStart.Add(10 * time.Hour), Reason: "broken chair"},
	}
	rejected := models.Reservation{
		StartTime: weekStart.Add(14 * time.Hour), EndTime: weekStart.Add(15 * time.Hour),
		Status: models.StatusRejected, Reason: "projector rehearsal",
	}
	usage := &fakeUsage{
		usage: []repository.RoomUsageRow{
			{RoomID: 1, RoomName: "Studio A", Reservations: 3, ReservationCreations: 4},
			{RoomID: 2, RoomName: "Lab", Reservations: 1, ReservationCreations: 1},
		},
		approved: approved,
		all:      append(append([]models.Reservation{}, approved...), rejected),
	}
	cache := &memoryCache{}
	service := newAnalyticsFixture(rows, usage, cache)

	report, err := service.WeeklyReport(context.Background())
	require.NoError(t, err)
	require.Equal(t, "2026-08-24", report.WeekStart)
	require.Equal(t, "2026-08-30", report.WeekEnd)
	require.Equal(t, int64(4), report.Summary.Reservations)
	require.Equal(t, int64(2), report.Summary.Approvals)
	require.Equal(t, int64(70), report.Summary.Requests)
	require.Len(t, report.Rooms, 2)
	require.Equal(t, "Studio A", report.TopRooms[0].RoomName)
	require.Equal(t, []int64{3, 1, 0, 0, 0, 0, 0}, report.DailyReservations)
	require.Equal(t, []int64{5, 2, 0, 0, 0, 0, 0}, report.DailyReservationCreations)
	require.Equal(t, int64(2), report.HourlyUsage[9])
	require.Equal(t, int64(1), report.HourlyUsage[10])
	// histogram stays approved-only
	require.Zero(t, report.HourlyUsage[14])
	require.Equal(t, "broken", report.TopKeywords[0].Word)
	require.Equal(t, 2, report.TopKeywords[0].Count)
	words := make([]string, 0, len(report.TopKeywords))
	for _, keyword := range report.TopKeywords {
		words = append(words, keyword.Word)
	}
	require.Contains(t, words, "projector")
	require.Equal(t, 1, cache.sets)

	// second call is served from cache without recomputing
	again, err := service.WeeklyReport(context.Background())
	require.NoError(t, err)
	require.Equal(t, report.Summary, again.Summary)
	require.Equal(t, 1, cache.sets)
}

func TestPurgeCaches(t *testing.T) {
	cache := &memoryCache{}
	service := newAnalyticsFixture(nil, &fakeUsage{}, cache)

	require.NoError(t, service.PurgeCaches(context.Background()))
	require.Equal(t, []string{"analytics-*"}, cache.purged)
}

func TestOverviewSeriesShapes(t *testing.T) {
	today := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	rows := []models.Analytic{
		{Date: today, Reservations: 2, Requests: 9},
		{Date: today.AddDate(0, 0, -40), Reservations: 7},
	}
	service := newAnalyticsFixture(rows, &fakeUsage{}, &memoryCache{})

	overview, err := service.Overview(context.Background())
	require.NoError(t, err)
	require.Len(t, overview.Daily30, 30)
	require.Len(t, overview.Daily7, 7)
	require.Len(t, overview.Monthly, 12)
	require.Equal(t, "2026-08-31", overview.Today.Date)
	require.Equal(t, int64(2), overview.Today.Reservations)
	// the 40-day-old row is outside the daily window but inside the monthly one
	require.Equal(t, int64(7), overview.Monthly[10].Reservations)
	require.Equal(t, int64(2), overview.Monthly[11].Reservations)
}
