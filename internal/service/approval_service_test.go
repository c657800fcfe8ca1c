package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hfiuc/uc-reservation-api/internal/models"
	appErrors "github.com/hfiuc/uc-reservation-api/pkg/errors"
)

type approvalFixture struct {
	service      *ApprovalService
	reservations *fakeReservations
	approvers    *fakeApprovers
	analytics    *fakeAnalytics
	oplog        *fakeOplog
	notifier     *recordingNotifier
	now          time.Time
	actor        models.Admin
}

func newApprovalFixture(t *testing.T) *approvalFixture {
	t.Helper()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	fixture := &approvalFixture{
		reservations: &fakeReservations{affected: 1, byID: map[int64]models.Reservation{}},
		approvers:    &fakeApprovers{isApprover: true},
		analytics:    &fakeAnalytics{},
		oplog:        &fakeOplog{},
		notifier:     &recordingNotifier{},
		now:          now,
		actor:        models.Admin{ID: 9, Name: "Staff", Email: "staff@example.com"},
	}
	fixture.reservations.byID[1] = models.Reservation{
		ID: 1, RoomID: 1, Email: "ana@example.com", Status: models.StatusPending,
		StartTime: now.Add(24 * time.Hour), EndTime: now.Add(25 * time.Hour),
	}
	fixture.service = NewApprovalService(fixture.reservations, fixture.approvers,
		fixture.analytics, fixture.oplog, passthroughTx{}, fixture.notifier, nil, nil)
	fixture.service.now = func() time.Time { return fixture.now }
	return fixture
}

func TestDecideApprovesPending(t *testing.T) {
	fixture := newApprovalFixture(t)

	reservation, err := fixture.service.Decide(context.Background(), 1, fixture.actor, models.StatusApproved, "")
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, reservation.Status)
	require.Equal(t, int64(9), *reservation.LatestExecutorID)

	require.Len(t, fixture.reservations.statusCalls, 1)
	call := fixture.reservations.statusCalls[0]
	require.Equal(t, models.StatusPending, call.expected)
	require.Equal(t, models.StatusApproved, call.next)

	require.Len(t, fixture.oplog.entries, 1)
	require.Equal(t, models.StatusApproved, fixture.oplog.entries[0].Operation)
	require.Nil(t, fixture.oplog.entries[0].Reason)

	require.Len(t, fixture.analytics.bumps, 1)
	require.Equal(t, int64(1), fixture.analytics.bumps[0].delta.Approvals)
	require.Len(t, fixture.notifier.approved, 1)
}

func TestDecideUnknownReservation(t *testing.T) {
	fixture := newApprovalFixture(t)

	_, err := fixture.service.Decide(context.Background(), 99, fixture.actor, models.StatusApproved, "")
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDecideRequiresApproverGrant(t *testing.T) {
	fixture := newApprovalFixture(t)
	fixture.approvers.isApprover = false

	_, err := fixture.service.Decide(context.Background(), 1, fixture.actor, models.StatusApproved, "")
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestDecideRejectRequiresReason(t *testing.T) {
	fixture := newApprovalFixture(t)

	_, err := fixture.service.Decide(context.Background(), 1, fixture.actor, models.StatusRejected, "")
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Contains(t, appErr.Rules, "reason is required when rejecting")

	reservation, err := fixture.service.Decide(context.Background(), 1, fixture.actor, models.StatusRejected, "double booked")
	require.NoError(t, err)
	require.Equal(t, models.StatusRejected, reservation.Status)
	require.Equal(t, int64(1), fixture.analytics.bumps[0].delta.Rejections)
}

func TestDecideOtherAdminAlreadyDecided(t *testing.T) {
	fixture := newApprovalFixture(t)
	other := int64(4)
	reservation := fixture.reservations.byID[1]
	reservation.Status = models.StatusApproved
	reservation.LatestExecutorID = &other
	fixture.reservations.byID[1] = reservation

	_, err := fixture.service.Decide(context.Background(), 1, fixture.actor, models.StatusRejected, "nope")
	require.Equal(t, appErrors.ErrAlreadyDecided.Code, appErrors.FromError(err).Code)
}

func TestDecidePastStart(t *testing.T) {
	fixture := newApprovalFixture(t)
	reservation := fixture.reservations.byID[1]
	reservation.StartTime = fixture.now.Add(-time.Hour)
	fixture.reservations.byID[1] = reservation

	_, err := fixture.service.Decide(context.Background(), 1, fixture.actor, models.StatusApproved, "")
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Contains(t, appErr.Rules, "the reservation has already started")
}

func TestDecideSameDecisionResubmitIsNoOp(t *testing.T) {
	fixture := newApprovalFixture(t)
	actorID := fixture.actor.ID
	reservation := fixture.reservations.byID[1]
	reservation.Status = models.StatusApproved
	reservation.LatestExecutorID = &actorID
	fixture.reservations.byID[1] = reservation

	result, err := fixture.service.Decide(context.Background(), 1, fixture.actor, models.StatusApproved, "")
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, result.Status)
	require.Empty(t, fixture.reservations.statusCalls)
	require.Empty(t, fixture.oplog.entries)
	require.Empty(t, fixture.analytics.bumps)
}

func TestDecideFlipsSettledDecision(t *testing.T) {
	fixture := newApprovalFixture(t)
	actorID := fixture.actor.ID
	reservation := fixture.reservations.byID[1]
	reservation.Status = models.StatusApproved
	reservation.LatestExecutorID = &actorID
	fixture.reservations.byID[1] = reservation

	result, err := fixture.service.Decide(context.Background(), 1, fixture.actor, models.StatusRejected, "room needed")
	require.NoError(t, err)
	require.Equal(t, models.StatusRejected, result.Status)

	call := fixture.reservations.statusCalls[0]
	require.Equal(t, models.StatusApproved, call.expected)
	require.Equal(t, models.StatusRejected, call.next)
	require.Len(t, fixture.notifier.rejected, 1)
}

func TestDecideLosesRace(t *testing.T) {
	fixture := newApprovalFixture(t)
	fixture.reservations.affected = 0

	_, err := fixture.service.Decide(context.Background(), 1, fixture.actor, models.StatusApproved, "")
	require.Equal(t, appErrors.ErrAlreadyDecided.Code, appErrors.FromError(err).Code)
	require.Empty(t, fixture.oplog.entries)
}
