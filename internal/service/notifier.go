package service

import (
	"context"
	"fmt"
	"html"

	"go.uber.org/zap"

	"github.com/hfiuc/uc-reservation-api/internal/models"
	"github.com/hfiuc/uc-reservation-api/pkg/mailer"
)

// Notifier delivers reservation lifecycle mail. Every method is fire and
// forget: delivery problems are retried and logged by the dispatcher, never
// surfaced to the triggering request.
type Notifier interface {
	ReservationCreated(ctx context.Context, reservation models.Reservation)
	ReservationApproved(ctx context.Context, reservation models.Reservation)
	ReservationRejected(ctx context.Context, reservation models.Reservation, reason string)
	ReservationSuperseded(ctx context.Context, reservation models.Reservation)
	ReservationAutoApproved(ctx context.Context, reservation models.Reservation)
	ApprovalRequested(ctx context.Context, reservation models.Reservation, approvers []models.Admin)
}

type mailSender interface {
	Send(to, subject, htmlBody string, attachments ...mailer.Attachment) error
}

type taskSubmitter interface {
	Submit(name string, run func(context.Context) error) error
}

type decisionLinkBuilder interface {
	DecisionLink(admin models.Admin, reservationID int64) (string, error)
}

// MailNotifier sends HTML mail through the background dispatcher.
type MailNotifier struct {
	sender     mailSender
	dispatcher taskSubmitter
	links      decisionLinkBuilder
	logger     *zap.Logger
}

// NewMailNotifier constructs the notifier.
func NewMailNotifier(sender mailSender, dispatcher taskSubmitter, links decisionLinkBuilder, logger *zap.Logger) *MailNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MailNotifier{sender: sender, dispatcher: dispatcher, links: links, logger: logger}
}

func (n *MailNotifier) submit(name, to, subject, body string) {
	if to == "" {
		return
	}
	err := n.dispatcher.Submit(name, func(context.Context) error {
		return n.sender.Send(to, subject, body)
	})
	if err != nil {
		n.logger.Warn("drop notification", zap.String("task", name), zap.Error(err))
	}
}

func reservationSummary(reservation models.Reservation) string {
	return fmt.Sprintf("<p>Room %d, %s to %s.</p>",
		reservation.RoomID,
		reservation.StartTime.Format("2006-01-02 15:04"),
		reservation.EndTime.Format("15:04"))
}

// ReservationCreated acknowledges a submitted booking.
func (n *MailNotifier) ReservationCreated(_ context.Context, reservation models.Reservation) {
	body := fmt.Sprintf("<p>Hi %s, your reservation was received and is awaiting approval.</p>%s",
		html.EscapeString(reservation.StudentName), reservationSummary(reservation))
	n.submit("mail:reservation-created", reservation.Email, "Reservation received", body)
}

// ReservationApproved tells the requester the booking is confirmed.
func (n *MailNotifier) ReservationApproved(_ context.Context, reservation models.Reservation) {
	body := fmt.Sprintf("<p>Hi %s, your reservation was approved.</p>%s",
		html.EscapeString(reservation.StudentName), reservationSummary(reservation))
	n.submit("mail:reservation-approved", reservation.Email, "Reservation approved", body)
}

// ReservationRejected tells the requester the booking was refused and why.
func (n *MailNotifier) ReservationRejected(_ context.Context, reservation models.Reservation, reason string) {
	body := fmt.Sprintf("<p>Hi %s, your reservation was rejected.</p>%s<p>Reason: %s</p>",
		html.EscapeString(reservation.StudentName), reservationSummary(reservation), html.EscapeString(reason))
	n.submit("mail:reservation-rejected", reservation.Email, "Reservation rejected", body)
}

// ReservationSuperseded tells a requester their slot was taken over by a
// higher-priority booking.
func (n *MailNotifier) ReservationSuperseded(_ context.Context, reservation models.Reservation) {
	body := fmt.Sprintf("<p>Hi %s, your reservation was cancelled because the room was claimed by a staff booking.</p>%s",
		html.EscapeString(reservation.StudentName), reservationSummary(reservation))
	n.submit("mail:reservation-superseded", reservation.Email, "Reservation cancelled", body)
}

// ReservationAutoApproved acknowledges a staff booking that skipped review.
func (n *MailNotifier) ReservationAutoApproved(_ context.Context, reservation models.Reservation) {
	body := fmt.Sprintf("<p>Hi %s, your staff reservation was booked and approved automatically.</p>%s",
		html.EscapeString(reservation.StudentName), reservationSummary(reservation))
	n.submit("mail:reservation-auto-approved", reservation.Email, "Reservation booked", body)
}

// ApprovalRequested asks each notify-enabled approver to review the booking,
// embedding a one-time decision link.
func (n *MailNotifier) ApprovalRequested(_ context.Context, reservation models.Reservation, approvers []models.Admin) {
	for _, approver := range approvers {
		link, err := n.links.DecisionLink(approver, reservation.ID)
		if err != nil {
			n.logger.Warn("build decision link", zap.Int64("admin", approver.ID), zap.Error(err))
			continue
		}
		body := fmt.Sprintf("<p>Hi %s, a reservation needs your review.</p>%s<p>Requested by %s (%s).</p><p><a href=%q>Review this reservation</a></p>",
			html.EscapeString(approver.Name), reservationSummary(reservation),
			html.EscapeString(reservation.StudentName), html.EscapeString(reservation.Email), link)
		n.submit("mail:approval-requested", approver.Email, "Reservation awaiting review", body)
	}
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) ReservationCreated(context.Context, models.Reservation)          {}
func (NopNotifier) ReservationApproved(context.Context, models.Reservation)         {}
func (NopNotifier) ReservationRejected(context.Context, models.Reservation, string) {}
func (NopNotifier) ReservationSuperseded(context.Context, models.Reservation)       {}
func (NopNotifier) ReservationAutoApproved(context.Context, models.Reservation)     {}
func (NopNotifier) ApprovalRequested(context.Context, models.Reservation, []models.Admin) {
}
