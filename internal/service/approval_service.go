package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/hfiuc/uc-reservation-api/internal/models"
	appErrors "github.com/hfiuc/uc-reservation-api/pkg/errors"
)

// ApprovalService applies admin decisions to pending reservations. The final
// write is a compare-and-set on the stored status, so when two admins race
// the first commit wins and the loser gets a conflict.
type ApprovalService struct {
	reservations reservationStore
	approvers    approverStore
	analytics    analyticsStore
	oplog        oplogStore
	tx           txRunner
	notifier     Notifier
	metrics      *MetricsService
	logger       *zap.Logger
	now          func() time.Time
}

// NewApprovalService constructs the service.
func NewApprovalService(reservations reservationStore, approvers approverStore, analytics analyticsStore, oplog oplogStore, tx txRunner, notifier Notifier, metrics *MetricsService, logger *zap.Logger) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &ApprovalService{
		reservations: reservations,
		approvers:    approvers,
		analytics:    analytics,
		oplog:        oplog,
		tx:           tx,
		notifier:     notifier,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// Decide approves or rejects a reservation on behalf of the acting admin.
// Re-submitting the decision a reservation already carries is a no-op for the
// admin who made it; flipping a settled decision is allowed and logged.
func (s *ApprovalService) Decide(ctx context.Context, reservationID int64, actor models.Admin, status models.ReservationStatus, reason string) (*models.Reservation, error) {
	if status != models.StatusApproved && status != models.StatusRejected {
		return nil, appErrors.Validation("status must be approved or rejected")
	}

	reservation, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load reservation")
	}

	allowed, err := s.approvers.IsApprover(ctx, reservation.RoomID, actor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "check approver grant")
	}
	if !allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not an approver for this room")
	}

	if status == models.StatusRejected && reason == "" {
		return nil, appErrors.Validation("reason is required when rejecting")
	}

	if reservation.LatestExecutorID != nil && *reservation.LatestExecutorID != actor.ID {
		return nil, appErrors.ErrAlreadyDecided
	}

	if !reservation.StartTime.After(s.now()) {
		return nil, appErrors.Validation("the reservation has already started")
	}

	if reservation.Status != models.StatusPending && reservation.Status == status {
		// same admin re-submitting the decision already on record
		return reservation, nil
	}

	expected := reservation.Status
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		affected, err := s.reservations.UpdateStatus(ctx, reservationID, expected, status, actor.ID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return appErrors.ErrAlreadyDecided
		}

		entry := &models.OperationLog{
			AdminID:       actor.ID,
			ReservationID: reservationID,
			Operation:     status,
		}
		if reason != "" {
			entry.Reason = &reason
		}
		if err := s.oplog.Create(ctx, entry); err != nil {
			return err
		}

		delta := models.AnalyticDelta{}
		if status == models.StatusApproved {
			delta.Approvals = 1
		} else {
			delta.Rejections = 1
		}
		return s.analytics.Bump(ctx, s.now(), delta)
	})
	if err != nil {
		return nil, err
	}

	reservation.Status = status
	reservation.LatestExecutorID = &actor.ID
	if s.metrics != nil {
		s.metrics.CountDecision(string(status))
	}

	if status == models.StatusApproved {
		s.notifier.ReservationApproved(ctx, *reservation)
	} else {
		s.notifier.ReservationRejected(ctx, *reservation, reason)
	}
	return reservation, nil
}
