package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hfiuc/uc-reservation-api/internal/dto"
	"github.com/hfiuc/uc-reservation-api/internal/models"
	appErrors "github.com/hfiuc/uc-reservation-api/pkg/errors"
)

type statusCall struct {
	id       int64
	expected models.ReservationStatus
	next     models.ReservationStatus
	executor int64
}

type upcomingCall struct {
	adminID int64
	from    time.Time
}

type fakeReservations struct {
	byID          map[int64]models.Reservation
	overlapping   []models.Reservation
	superseded    []models.Reservation
	upcoming      []models.Reservation
	affected      int64
	created       []*models.Reservation
	statusCalls   []statusCall
	upcomingCalls []upcomingCall
}

func (f *fakeReservations) Create(_ context.Context, reservation *models.Reservation) error {
	reservation.ID = int64(len(f.created) + 1)
	reservation.CreatedAt = time.Now()
	f.created = append(f.created, reservation)
	return nil
}

func (f *fakeReservations) GetByID(_ context.Context, id int64) (*models.Reservation, error) {
	if reservation, ok := f.byID[id]; ok {
		return &reservation, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeReservations) List(context.Context, models.ReservationFilter) ([]models.Reservation, int64, error) {
	out := make([]models.Reservation, 0, len(f.created))
	for _, reservation := range f.created {
		out = append(out, *reservation)
	}
	return out, int64(len(out)), nil
}

func (f *fakeReservations) ListOverlapping(context.Context, int64, time.Time, time.Time) ([]models.Reservation, error) {
	return f.overlapping, nil
}

func (f *fakeReservations) ListUpcomingForApprover(_ context.Context, adminID int64, from time.Time) ([]models.Reservation, error) {
	f.upcomingCalls = append(f.upcomingCalls, upcomingCall{adminID: adminID, from: from})
	return f.upcoming, nil
}

func (f *fakeReservations) UpdateStatus(_ context.Context, id int64, expected, next models.ReservationStatus, executorID int64) (int64, error) {
	f.statusCalls = append(f.statusCalls, statusCall{id: id, expected: expected, next: next, executor: executorID})
	return f.affected, nil
}

func (f *fakeReservations) ListStartingBetween(context.Context, time.Time, time.Time, models.ReservationStatus) ([]models.Reservation, error) {
	return nil, nil
}

func (f *fakeReservations) SupersedeOverlapping(context.Context, int64, int64, int64, time.Time, time.Time) ([]models.Reservation, error) {
	return f.superseded, nil
}

type fakeRooms struct {
	rooms   map[int64]models.Room
	classes map[int64]models.Class
}

func (f *fakeRooms) GetRoom(_ context.Context, id int64) (*models.Room, error) {
	if room, ok := f.rooms[id]; ok {
		return &room, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRooms) ListRooms(context.Context, int64) ([]models.Room, error) {
	out := make([]models.Room, 0, len(f.rooms))
	for _, room := range f.rooms {
		out = append(out, room)
	}
	return out, nil
}

func (f *fakeRooms) LockRoom(context.Context, int64) error { return nil }

func (f *fakeRooms) GetClass(_ context.Context, id int64) (*models.Class, error) {
	if class, ok := f.classes[id]; ok {
		return &class, nil
	}
	return nil, sql.ErrNoRows
}

type fakePolicies struct {
	policies []models.RoomPolicy
}

func (f *fakePolicies) ListByRoom(context.Context, int64, bool) ([]models.RoomPolicy, error) {
	return f.policies, nil
}

type fakeApprovers struct {
	grants     []models.RoomApprover
	notifiable []models.Admin
	isApprover bool
}

func (f *fakeApprovers) ListByRoom(context.Context, int64) ([]models.RoomApprover, error) {
	return f.grants, nil
}

func (f *fakeApprovers) NotifiableAdmins(context.Context, int64) ([]models.Admin, error) {
	return f.notifiable, nil
}

func (f *fakeApprovers) IsApprover(context.Context, int64, int64) (bool, error) {
	return f.isApprover, nil
}

type fakeAdmins struct {
	byEmail map[string]models.Admin
}

func (f *fakeAdmins) GetByID(_ context.Context, id int64) (*models.Admin, error) {
	for _, admin := range f.byEmail {
		if admin.ID == id {
			return &admin, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAdmins) GetByEmail(_ context.Context, email string) (*models.Admin, error) {
	if admin, ok := f.byEmail[email]; ok {
		return &admin, nil
	}
	return nil, sql.ErrNoRows
}

type bumpRecord struct {
	date  time.Time
	delta models.AnalyticDelta
}

type fakeAnalytics struct {
	bumps []bumpRecord
}

func (f *fakeAnalytics) Bump(_ context.Context, date time.Time, delta models.AnalyticDelta) error {
	f.bumps = append(f.bumps, bumpRecord{date: date, delta: delta})
	return nil
}

type fakeOplog struct {
	entries []models.OperationLog
}

func (f *fakeOplog) Create(_ context.Context, entry *models.OperationLog) error {
	entry.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeOplog) ListByReservation(context.Context, int64) ([]models.OperationLog, error) {
	return f.entries, nil
}

type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeCaptcha struct {
	ok     bool
	called bool
}

func (f *fakeCaptcha) Verify(context.Context, string) bool {
	f.called = true
	return f.ok
}

type recordingNotifier struct {
	created      []models.Reservation
	approved     []models.Reservation
	rejected     []models.Reservation
	superseded   []models.Reservation
	autoApproved []models.Reservation
	requested    []models.Reservation
}

func (n *recordingNotifier) ReservationCreated(_ context.Context, r models.Reservation) {
	n.created = append(n.created, r)
}
func (n *recordingNotifier) ReservationApproved(_ context.Context, r models.Reservation) {
	n.approved = append(n.approved, r)
}
func (n *recordingNotifier) ReservationRejected(_ context.Context, r models.Reservation, _ string) {
	n.rejected = append(n.rejected, r)
}
func (n *recordingNotifier) ReservationSuperseded(_ context.Context, r models.Reservation) {
	n.superseded = append(n.superseded, r)
}
func (n *recordingNotifier) ReservationAutoApproved(_ context.Context, r models.Reservation) {
	n.autoApproved = append(n.autoApproved, r)
}
func (n *recordingNotifier) ApprovalRequested(_ context.Context, r models.Reservation, _ []models.Admin) {
	n.requested = append(n.requested, r)
}

type admissionFixture struct {
	service      *AdmissionService
	reservations *fakeReservations
	analytics    *fakeAnalytics
	oplog        *fakeOplog
	captcha      *fakeCaptcha
	notifier     *recordingNotifier
	now          time.Time
}

func newAdmissionFixture(t *testing.T) *admissionFixture {
	t.Helper()
	fixture := &admissionFixture{
		reservations: &fakeReservations{},
		analytics:    &fakeAnalytics{},
		oplog:        &fakeOplog{},
		captcha:      &fakeCaptcha{ok: true},
		notifier:     &recordingNotifier{},
		now:          time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
	}
	fixture.service = NewAdmissionService(AdmissionServiceDeps{
		Reservations: fixture.reservations,
		Rooms: &fakeRooms{
			rooms:   map[int64]models.Room{1: {ID: 1, Name: "Studio A", CampusID: 1, Enabled: true}},
			classes: map[int64]models.Class{2: {ID: 2, Name: "9B", CampusID: 1}},
		},
		Policies:  &fakePolicies{},
		Approvers: &fakeApprovers{grants: []models.RoomApprover{{ID: 1, RoomID: 1, AdminID: 9}}},
		Admins: &fakeAdmins{byEmail: map[string]models.Admin{
			"staff@example.com": {ID: 9, Name: "Staff", Email: "staff@example.com"},
		}},
		Analytics: fixture.analytics,
		Oplog:     fixture.oplog,
		Tx:        passthroughTx{},
		Captcha:   fixture.captcha,
		Notifier:  fixture.notifier,
	})
	fixture.service.now = func() time.Time { return fixture.now }
	return fixture
}

func validRequest(now time.Time) dto.CreateReservationRequest {
	return dto.CreateReservationRequest{
		RoomID:      1,
		ClassID:     2,
		StartTime:   now.Add(24 * time.Hour),
		EndTime:     now.Add(25 * time.Hour),
		StudentName: "Ana",
		StudentID:   "GJ2201",
		Email:       "ana@example.com",
		Reason:      "study group",
	}
}

func TestAdmitAccumulatesValidationFailures(t *testing.T) {
	fixture := newAdmissionFixture(t)

	req := validRequest(fixture.now)
	req.StudentID = "short"
	req.Reason = ""
	req.StartTime = fixture.now.Add(-time.Hour)
	req.EndTime = fixture.now

	_, err := fixture.service.Admit(context.Background(), req)
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Contains(t, appErr.Rules, "studentId must start with GJ or be 10 characters long")
	require.Contains(t, appErr.Rules, "reason is required")
	require.Contains(t, appErr.Rules, "startTime must be in the future")
	require.Contains(t, strings.Split(appErr.Message, "\n"), "reason is required")
	require.Empty(t, fixture.reservations.created)
}

func TestAdmitStudentIDFormats(t *testing.T) {
	require.True(t, validStudentID("GJ1"))
	require.True(t, validStudentID("1234567890"))
	require.False(t, validStudentID("12345"))
	require.False(t, validStudentID(""))
}

func TestAdmitRejectsOverlongAndFarFuture(t *testing.T) {
	fixture := newAdmissionFixture(t)

	req := validRequest(fixture.now)
	req.EndTime = req.StartTime.Add(3 * time.Hour)

	_, err := fixture.service.Admit(context.Background(), req)
	appErr := appErrors.FromError(err)
	require.Contains(t, appErr.Rules, "reservation cannot be longer than 2 hours")

	req = validRequest(fixture.now)
	req.StartTime = fixture.now.Add(31 * 24 * time.Hour)
	req.EndTime = req.StartTime.Add(time.Hour)

	_, err = fixture.service.Admit(context.Background(), req)
	appErr = appErrors.FromError(err)
	require.Contains(t, appErr.Rules, "reservations can be made at most 30 days in advance")
}

func TestAdmitStandardSuccess(t *testing.T) {
	fixture := newAdmissionFixture(t)

	resp, err := fixture.service.Admit(context.Background(), validRequest(fixture.now))
	require.NoError(t, err)
	require.False(t, resp.AutoApproved)
	require.Equal(t, models.StatusPending, resp.Reservation.Status)
	require.True(t, fixture.captcha.called)

	require.Len(t, fixture.analytics.bumps, 2)
	require.Equal(t, int64(1), fixture.analytics.bumps[0].delta.ReservationCreations)
	require.Equal(t, int64(1), fixture.analytics.bumps[1].delta.Reservations)

	require.Len(t, fixture.notifier.created, 1)
	require.Len(t, fixture.notifier.requested, 1)
	require.Empty(t, fixture.notifier.autoApproved)
}

func TestAdmitStandardConflict(t *testing.T) {
	fixture := newAdmissionFixture(t)
	req := validRequest(fixture.now)
	fixture.reservations.overlapping = []models.Reservation{{
		ID: 5, RoomID: 1, Status: models.StatusApproved,
		StartTime: req.StartTime.Add(-30 * time.Minute),
		EndTime:   req.StartTime.Add(30 * time.Minute),
	}}

	_, err := fixture.service.Admit(context.Background(), req)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	require.Empty(t, fixture.reservations.created)
}

func TestAdmitBackToBackIsNotAConflict(t *testing.T) {
	fixture := newAdmissionFixture(t)
	req := validRequest(fixture.now)
	fixture.reservations.overlapping = nil

	existing := models.Reservation{
		ID: 5, RoomID: 1, Status: models.StatusApproved,
		StartTime: req.EndTime,
		EndTime:   req.EndTime.Add(time.Hour),
	}
	require.Empty(t, findConflicts([]models.Reservation{existing}, req.StartTime, req.EndTime))

	_, err := fixture.service.Admit(context.Background(), req)
	require.NoError(t, err)
}

func TestAdmitCaptchaFailure(t *testing.T) {
	fixture := newAdmissionFixture(t)
	fixture.captcha.ok = false

	_, err := fixture.service.Admit(context.Background(), validRequest(fixture.now))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrCaptcha.Code, appErrors.FromError(err).Code)
}

func TestAdmitPrivilegedPreempts(t *testing.T) {
	fixture := newAdmissionFixture(t)

	req := validRequest(fixture.now)
	req.Email = "staff@example.com"
	loser := models.Reservation{
		ID: 3, RoomID: 1, Email: "student@example.com", Status: models.StatusPending,
		StartTime: req.StartTime, EndTime: req.EndTime,
	}
	fixture.reservations.overlapping = []models.Reservation{loser}
	fixture.reservations.superseded = []models.Reservation{loser}

	resp, err := fixture.service.Admit(context.Background(), req)
	require.NoError(t, err)
	require.True(t, resp.AutoApproved)
	require.Equal(t, models.StatusApproved, resp.Reservation.Status)
	require.Equal(t, []int64{3}, resp.Superseded)
	require.NotNil(t, resp.Reservation.LatestExecutorID)
	require.Equal(t, int64(9), *resp.Reservation.LatestExecutorID)

	// captcha is skipped for staff bookings
	require.False(t, fixture.captcha.called)

	require.Len(t, fixture.oplog.entries, 1)
	require.Equal(t, models.StatusRejected, fixture.oplog.entries[0].Operation)
	require.NotNil(t, fixture.oplog.entries[0].Reason)
	require.Equal(t, supersededReason, *fixture.oplog.entries[0].Reason)

	require.Len(t, fixture.notifier.autoApproved, 1)
	require.Len(t, fixture.notifier.superseded, 1)
	require.Empty(t, fixture.notifier.created)
}

type syncDispatcher struct {
	names []string
}

func (d *syncDispatcher) Submit(name string, run func(context.Context) error) error {
	d.names = append(d.names, name)
	return run(context.Background())
}

type recordingDecider struct {
	evaluated []models.Reservation
}

func (d *recordingDecider) Evaluate(_ context.Context, r models.Reservation) error {
	d.evaluated = append(d.evaluated, r)
	return nil
}

func TestAdmitWithAutoDeciderSkipsApproverMail(t *testing.T) {
	fixture := newAdmissionFixture(t)
	dispatcher := &syncDispatcher{}
	decider := &recordingDecider{}
	fixture.service.dispatcher = dispatcher
	fixture.service.autoDecider = decider

	resp, err := fixture.service.Admit(context.Background(), validRequest(fixture.now))
	require.NoError(t, err)
	require.False(t, resp.AutoApproved)

	require.Len(t, fixture.notifier.created, 1)
	require.Empty(t, fixture.notifier.requested)
	require.Equal(t, []string{"auto-decision"}, dispatcher.names)
	require.Len(t, decider.evaluated, 1)
	require.Equal(t, resp.Reservation.ID, decider.evaluated[0].ID)
}

func TestUpcomingScopedToActingApprover(t *testing.T) {
	fixture := newAdmissionFixture(t)
	fixture.reservations.upcoming = []models.Reservation{{ID: 7, RoomID: 1, Status: models.StatusPending}}

	out, err := fixture.service.Upcoming(context.Background(), models.Admin{ID: 9})
	require.NoError(t, err)
	require.Len(t, out, 1)

	require.Len(t, fixture.reservations.upcomingCalls, 1)
	require.Equal(t, int64(9), fixture.reservations.upcomingCalls[0].adminID)
	require.Equal(t, fixture.now, fixture.reservations.upcomingCalls[0].from)
}

func TestAdmitDisabledRoomBlocksOnlyStandard(t *testing.T) {
	fixture := newAdmissionFixture(t)
	rooms := &fakeRooms{
		rooms:   map[int64]models.Room{1: {ID: 1, Name: "Studio A", CampusID: 1, Enabled: false}},
		classes: map[int64]models.Class{2: {ID: 2, Name: "9B", CampusID: 1}},
	}
	fixture.service.rooms = rooms

	_, err := fixture.service.Admit(context.Background(), validRequest(fixture.now))
	require.Contains(t, appErrors.FromError(err).Rules, "room is closed for reservations")

	req := validRequest(fixture.now)
	req.Email = "staff@example.com"
	_, err = fixture.service.Admit(context.Background(), req)
	require.NoError(t, err)
}
