package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hfiuc/uc-reservation-api/internal/dto"
	"github.com/hfiuc/uc-reservation-api/internal/models"
	"github.com/hfiuc/uc-reservation-api/internal/repository"
)

const (
	weeklyCacheKeyFormat = "analytics-weekly-%s"
	cachePattern         = "analytics-*"
	topRoomLimit         = 5
	topKeywordLimit      = 150
)

type analyticsRangeStore interface {
	Bump(ctx context.Context, date time.Time, delta models.AnalyticDelta) error
	Range(ctx context.Context, from, to time.Time) ([]models.Analytic, error)
}

type usageStore interface {
	RoomUsageBetween(ctx context.Context, from, to time.Time) ([]repository.RoomUsageRow, error)
	ListStartingBetween(ctx context.Context, from, to time.Time, status models.ReservationStatus) ([]models.Reservation, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// AnalyticsService aggregates daily counters into dashboard and report
// payloads.
type AnalyticsService struct {
	analytics analyticsRangeStore
	usage     usageStore
	cache     reportCache
	tokenizer Tokenizer
	weeklyTTL time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(analytics analyticsRangeStore, usage usageStore, cache reportCache, tokenizer Tokenizer, weeklyTTL time.Duration, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if weeklyTTL <= 0 {
		weeklyTTL = 7 * 24 * time.Hour
	}
	return &AnalyticsService{
		analytics: analytics,
		usage:     usage,
		cache:     cache,
		tokenizer: tokenizer,
		weeklyTTL: weeklyTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// BumpRequests adds one to today's request counter. Best-effort: failures are
// logged and swallowed so accounting never breaks a request.
func (s *AnalyticsService) BumpRequests(ctx context.Context) {
	if err := s.analytics.Bump(ctx, s.now(), models.AnalyticDelta{Requests: 1}); err != nil {
		s.logger.Warn("bump request counter", zap.Error(err))
	}
}

func midnightUTC(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// weekBounds returns the most recently completed Monday-Sunday week as the
// half-open range [start, end).
func weekBounds(now time.Time) (time.Time, time.Time) {
	today := midnightUTC(now)
	start := today.AddDate(0, 0, -(weekdayIndex(today) + 7))
	return start, start.AddDate(0, 0, 7)
}

func pointFromAnalytic(row models.Analytic, label string) dto.AnalyticsPoint {
	return dto.AnalyticsPoint{
		Date:                 label,
		Reservations:         row.Reservations,
		ReservationCreations: row.ReservationCreations,
		Approvals:            row.Approvals,
		Rejections:           row.Rejections,
		Requests:             row.Requests,
	}
}

// dailySeries zero-fills one point per day over [from, from+days).
func dailySeries(rows []models.Analytic, from time.Time, days int) []dto.AnalyticsPoint {
	byDay := make(map[string]models.Analytic, len(rows))
	for _, row := range rows {
		byDay[row.Date.UTC().Format("2006-01-02")] = row
	}
	series := make([]dto.AnalyticsPoint, 0, days)
	for i := 0; i < days; i++ {
		label := from.AddDate(0, 0, i).Format("2006-01-02")
		series = append(series, pointFromAnalytic(byDay[label], label))
	}
	return series
}

// Overview builds the dashboard payload: trailing 30 and 7 day series, the
// last 12 calendar months, and today's counters.
func (s *AnalyticsService) Overview(ctx context.Context) (*dto.AnalyticsOverviewResponse, error) {
	today := midnightUTC(s.now())
	dailyFrom := today.AddDate(0, 0, -29)
	monthlyFrom := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)

	rows, err := s.analytics.Range(ctx, monthlyFrom, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	var dailyRows []models.Analytic
	for _, row := range rows {
		if !row.Date.Before(dailyFrom) {
			dailyRows = append(dailyRows, row)
		}
	}
	daily30 := dailySeries(dailyRows, dailyFrom, 30)

	monthly := make([]dto.AnalyticsPoint, 12)
	monthIndex := make(map[string]int, 12)
	for i := 0; i < 12; i++ {
		label := monthlyFrom.AddDate(0, i, 0).Format("2006-01")
		monthly[i] = dto.AnalyticsPoint{Date: label}
		monthIndex[label] = i
	}
	for _, row := range rows {
		i, ok := monthIndex[row.Date.UTC().Format("2006-01")]
		if !ok {
			continue
		}
		monthly[i].Reservations += row.Reservations
		monthly[i].ReservationCreations += row.ReservationCreations
		monthly[i].Approvals += row.Approvals
		monthly[i].Rejections += row.Rejections
		monthly[i].Requests += row.Requests
	}

	return &dto.AnalyticsOverviewResponse{
		Daily30: daily30,
		Daily7:  daily30[len(daily30)-7:],
		Monthly: monthly,
		Today:   daily30[len(daily30)-1],
	}, nil
}

// WeeklyReport builds the report for the last completed Monday-Sunday week.
// Results are cached per week start, so repeated dashboard loads and the
// scheduled mail job share one computation.
func (s *AnalyticsService) WeeklyReport(ctx context.Context) (*dto.WeeklyReportResponse, error) {
	weekStart, weekEnd := weekBounds(s.now())
	key := fmt.Sprintf(weeklyCacheKeyFormat, weekStart.Format("2006-01-02"))

	var cached dto.WeeklyReportResponse
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	rows, err := s.analytics.Range(ctx, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	summary := dto.AnalyticsPoint{Date: weekStart.Format("2006-01-02")}
	for _, row := range rows {
		summary.Reservations += row.Reservations
		summary.ReservationCreations += row.ReservationCreations
		summary.Approvals += row.Approvals
		summary.Rejections += row.Rejections
		summary.Requests += row.Requests
	}

	usageRows, err := s.usage.RoomUsageBetween(ctx, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	rooms := make([]dto.RoomUsage, 0, len(usageRows))
	for _, row := range usageRows {
		rooms = append(rooms, dto.RoomUsage{
			RoomID:               row.RoomID,
			RoomName:             row.RoomName,
			Reservations:         row.Reservations,
			ReservationCreations: row.ReservationCreations,
		})
	}
	topRooms := rooms
	if len(topRooms) > topRoomLimit {
		topRooms = topRooms[:topRoomLimit]
	}

	approved, err := s.usage.ListStartingBetween(ctx, weekStart, weekEnd, models.StatusApproved)
	if err != nil {
		return nil, err
	}

	days := dailySeries(rows, weekStart, 7)
	dailyReservations := make([]int64, 0, len(days))
	dailyCreations := make([]int64, 0, len(days))
	for _, day := range days {
		dailyReservations = append(dailyReservations, day.Reservations)
		dailyCreations = append(dailyCreations, day.ReservationCreations)
	}

	report := &dto.WeeklyReportResponse{
		WeekStart:                 weekStart.Format("2006-01-02"),
		WeekEnd:                   weekEnd.AddDate(0, 0, -1).Format("2006-01-02"),
		Summary:                   summary,
		Rooms:                     rooms,
		TopRooms:                  topRooms,
		DailyReservations:         dailyReservations,
		DailyReservationCreations: dailyCreations,
		HourlyUsage:               hourlyHistogram(approved),
	}

	if s.tokenizer != nil {
		// Keywords cover every booking filed for the week, whatever its fate.
		inWeek, err := s.usage.ListStartingBetween(ctx, weekStart, weekEnd, "")
		if err != nil {
			return nil, err
		}
		reasons := make([]string, 0, len(inWeek))
		for _, reservation := range inWeek {
			reasons = append(reasons, reservation.Reason)
		}
		report.TopKeywords = topKeywords(s.tokenizer, reasons, topKeywordLimit)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, report, s.weeklyTTL); err != nil {
			s.logger.Warn("cache weekly report", zap.String("key", key), zap.Error(err))
		}
	}
	return report, nil
}

// hourlyHistogram bumps the buckets in [startHour, endHour), wrapping past
// midnight. A booking that starts and ends inside the same clock hour touches
// no bucket.
func hourlyHistogram(reservations []models.Reservation) [24]int64 {
	var buckets [24]int64
	for _, reservation := range reservations {
		hour := reservation.StartTime.Hour()
		endHour := reservation.EndTime.Hour()
		for hour != endHour {
			buckets[hour]++
			hour = (hour + 1) % 24
		}
	}
	return buckets
}

// PurgeCaches drops every cached analytics payload. Runs on the first of the
// month so stale report snapshots never outlive their relevance.
func (s *AnalyticsService) PurgeCaches(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.DeleteByPattern(ctx, cachePattern)
}
