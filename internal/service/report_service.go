package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hfiuc/uc-reservation-api/internal/models"
	"github.com/hfiuc/uc-reservation-api/pkg/export"
	"github.com/hfiuc/uc-reservation-api/pkg/mailer"
)

// ReportService builds and mails the scheduled operational reports.
type ReportService struct {
	reservations reservationStore
	rooms        roomStore
	analytics    *AnalyticsService
	sender       mailSender
	recipients   []string
	logger       *zap.Logger
	now          func() time.Time
}

// NewReportService constructs the service.
func NewReportService(reservations reservationStore, rooms roomStore, analytics *AnalyticsService, sender mailSender, recipients []string, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		reservations: reservations,
		rooms:        rooms,
		analytics:    analytics,
		sender:       sender,
		recipients:   recipients,
		logger:       logger,
		now:          time.Now,
	}
}

// DailyReport mails tomorrow's approved reservations to the configured
// recipients, with a CSV attachment. An empty day still sends a short notice
// so recipients can tell silence from breakage.
func (s *ReportService) DailyReport(ctx context.Context) error {
	if len(s.recipients) == 0 {
		return nil
	}

	tomorrow := midnightUTC(s.now()).AddDate(0, 0, 1)
	reservations, err := s.reservations.ListStartingBetween(ctx, tomorrow, tomorrow.AddDate(0, 0, 1), models.StatusApproved)
	if err != nil {
		return fmt.Errorf("load tomorrow's reservations: %w", err)
	}

	dateLabel := tomorrow.Format("2006-01-02")
	subject := fmt.Sprintf("Reservations for %s", dateLabel)

	if len(reservations) == 0 {
		body := fmt.Sprintf("<p>No reservations are scheduled for %s.</p>", dateLabel)
		return s.deliver(subject, body)
	}

	rooms, err := s.rooms.ListRooms(ctx, 0)
	if err != nil {
		return fmt.Errorf("load rooms: %w", err)
	}
	roomNames := make(map[int64]string, len(rooms))
	for _, room := range rooms {
		roomNames[room.ID] = room.Name
	}

	tables := buildReservationTables(reservations, roomNames, true)
	payload, err := export.Render(export.FormatCSV, "", tables)
	if err != nil {
		return fmt.Errorf("render daily report: %w", err)
	}

	body := fmt.Sprintf("<p>%d approved reservation(s) are scheduled for %s. Details attached.</p>",
		len(reservations), dateLabel)
	attachment := mailer.Attachment{
		Filename: fmt.Sprintf("reservations-%s.csv", dateLabel),
		Content:  payload,
	}
	return s.deliver(subject, body, attachment)
}

func (s *ReportService) deliver(subject, body string, attachments ...mailer.Attachment) error {
	var firstErr error
	for _, recipient := range s.recipients {
		if err := s.sender.Send(recipient, subject, body, attachments...); err != nil {
			s.logger.Warn("send report", zap.String("to", recipient), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// PurgeAnalyticsCaches drops cached analytics snapshots. Scheduled monthly.
func (s *ReportService) PurgeAnalyticsCaches(ctx context.Context) error {
	return s.analytics.PurgeCaches(ctx)
}
