package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/hfiuc/uc-reservation-api/internal/dto"
	"github.com/hfiuc/uc-reservation-api/internal/models"
	appErrors "github.com/hfiuc/uc-reservation-api/pkg/errors"
	"github.com/hfiuc/uc-reservation-api/pkg/export"
)

const (
	maxReservationDuration = 2 * time.Hour
	maxAdvanceBooking      = 30 * 24 * time.Hour
	supersededReason       = "superseded by higher-priority booking"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type reservationStore interface {
	Create(ctx context.Context, reservation *models.Reservation) error
	GetByID(ctx context.Context, id int64) (*models.Reservation, error)
	List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, int64, error)
	ListOverlapping(ctx context.Context, roomID int64, start, end time.Time) ([]models.Reservation, error)
	ListUpcomingForApprover(ctx context.Context, adminID int64, from time.Time) ([]models.Reservation, error)
	ListStartingBetween(ctx context.Context, from, to time.Time, status models.ReservationStatus) ([]models.Reservation, error)
	UpdateStatus(ctx context.Context, id int64, expected, next models.ReservationStatus, executorID int64) (int64, error)
	SupersedeOverlapping(ctx context.Context, roomID, excludeID, executorID int64, start, end time.Time) ([]models.Reservation, error)
}

type roomStore interface {
	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	ListRooms(ctx context.Context, campusID int64) ([]models.Room, error)
	LockRoom(ctx context.Context, id int64) error
	GetClass(ctx context.Context, id int64) (*models.Class, error)
}

type policyStore interface {
	ListByRoom(ctx context.Context, roomID int64, onlyEnabled bool) ([]models.RoomPolicy, error)
}

type approverStore interface {
	ListByRoom(ctx context.Context, roomID int64) ([]models.RoomApprover, error)
	NotifiableAdmins(ctx context.Context, roomID int64) ([]models.Admin, error)
	IsApprover(ctx context.Context, roomID, adminID int64) (bool, error)
}

type adminStore interface {
	GetByID(ctx context.Context, id int64) (*models.Admin, error)
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
}

type analyticsStore interface {
	Bump(ctx context.Context, date time.Time, delta models.AnalyticDelta) error
}

type oplogStore interface {
	Create(ctx context.Context, entry *models.OperationLog) error
	ListByReservation(ctx context.Context, reservationID int64) ([]models.OperationLog, error)
}

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type captchaVerifier interface {
	Verify(ctx context.Context, token string) bool
}

// AutoDecider evaluates a freshly admitted pending reservation in the
// background and applies a decision on behalf of the system identity.
type AutoDecider interface {
	Evaluate(ctx context.Context, reservation models.Reservation) error
}

// AdmissionService validates and admits reservations, and serves reservation
// reads and exports.
type AdmissionService struct {
	reservations reservationStore
	rooms        roomStore
	policies     policyStore
	approvers    approverStore
	admins       adminStore
	analytics    analyticsStore
	oplog        oplogStore
	tx           txRunner
	captcha      captchaVerifier
	notifier     Notifier
	dispatcher   taskSubmitter
	autoDecider  AutoDecider
	metrics      *MetricsService
	logger       *zap.Logger
	now          func() time.Time
}

// AdmissionServiceDeps bundles the collaborators.
type AdmissionServiceDeps struct {
	Reservations reservationStore
	Rooms        roomStore
	Policies     policyStore
	Approvers    approverStore
	Admins       adminStore
	Analytics    analyticsStore
	Oplog        oplogStore
	Tx           txRunner
	Captcha      captchaVerifier
	Notifier     Notifier
	Dispatcher   taskSubmitter
	AutoDecider  AutoDecider
	Metrics      *MetricsService
	Logger       *zap.Logger
}

// NewAdmissionService constructs the service.
func NewAdmissionService(deps AdmissionServiceDeps) *AdmissionService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &AdmissionService{
		reservations: deps.Reservations,
		rooms:        deps.Rooms,
		policies:     deps.Policies,
		approvers:    deps.Approvers,
		admins:       deps.Admins,
		analytics:    deps.Analytics,
		oplog:        deps.Oplog,
		tx:           deps.Tx,
		captcha:      deps.Captcha,
		notifier:     notifier,
		dispatcher:   deps.Dispatcher,
		autoDecider:  deps.AutoDecider,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
		now:          time.Now,
	}
}

func validStudentID(id string) bool {
	return strings.HasPrefix(id, "GJ") || utf8.RuneCountInString(id) == 10
}

// Admit runs the full admission pipeline. Standard requesters end up pending
// review; requesters whose email belongs to a staff identity are approved
// immediately and pre-empt every overlapping non-rejected booking in the room.
func (s *AdmissionService) Admit(ctx context.Context, req dto.CreateReservationRequest) (*dto.CreateReservationResponse, error) {
	now := s.now()

	var requester *models.Admin
	if req.Email != "" && emailPattern.MatchString(req.Email) {
		admin, err := s.admins.GetByEmail(ctx, req.Email)
		switch {
		case err == nil:
			requester = admin
		case errors.Is(err, sql.ErrNoRows):
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "look up requester")
		}
	}
	privileged := requester != nil

	rules := make([]string, 0, 4)
	if strings.TrimSpace(req.StudentName) == "" {
		rules = append(rules, "studentName is required")
	}
	if !validStudentID(req.StudentID) {
		rules = append(rules, "studentId must start with GJ or be 10 characters long")
	}
	if !emailPattern.MatchString(req.Email) {
		rules = append(rules, "email is invalid")
	}
	if strings.TrimSpace(req.Reason) == "" {
		rules = append(rules, "reason is required")
	}

	if !req.StartTime.Before(req.EndTime) {
		rules = append(rules, "startTime must be before endTime")
	} else if req.EndTime.Sub(req.StartTime) > maxReservationDuration {
		rules = append(rules, "reservation cannot be longer than 2 hours")
	}
	if !req.StartTime.After(now) {
		rules = append(rules, "startTime must be in the future")
	}
	if req.StartTime.After(now.Add(maxAdvanceBooking)) {
		rules = append(rules, "reservations can be made at most 30 days in advance")
	}

	if _, err := s.rooms.GetClass(ctx, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			rules = append(rules, "class does not exist")
		} else {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "look up class")
		}
	}

	room, err := s.rooms.GetRoom(ctx, req.RoomID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		rules = append(rules, "room does not exist")
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "look up room")
	}

	if room != nil && !privileged {
		if !room.Enabled {
			rules = append(rules, "room is closed for reservations")
		}

		policies, err := s.policies.ListByRoom(ctx, room.ID, true)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load room policies")
		}
		if violated := violatedPolicy(policies, req.StartTime, req.EndTime); violated != nil {
			rules = append(rules, "the requested time falls inside a restricted window")
		}

		grants, err := s.approvers.ListByRoom(ctx, room.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load room approvers")
		}
		if len(grants) == 0 {
			rules = append(rules, "the room has no approver assigned")
		}
	}

	if len(rules) > 0 {
		s.countAdmission("rejected")
		return nil, appErrors.Validation(rules...)
	}

	if !privileged && s.captcha != nil && !s.captcha.Verify(ctx, req.CaptchaToken) {
		s.countAdmission("rejected")
		return nil, appErrors.ErrCaptcha
	}

	reservation := &models.Reservation{
		RoomID:      req.RoomID,
		ClassID:     req.ClassID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		StudentName: req.StudentName,
		StudentID:   req.StudentID,
		Email:       req.Email,
		Reason:      req.Reason,
		Status:      models.StatusPending,
	}
	if privileged {
		reservation.Status = models.StatusApproved
		reservation.LatestExecutorID = &requester.ID
	}

	var superseded []models.Reservation
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.rooms.LockRoom(ctx, req.RoomID); err != nil {
			return fmt.Errorf("lock room: %w", err)
		}

		overlapping, err := s.reservations.ListOverlapping(ctx, req.RoomID, req.StartTime, req.EndTime)
		if err != nil {
			return err
		}
		if !privileged {
			if conflicts := findConflicts(overlapping, req.StartTime, req.EndTime); len(conflicts) > 0 {
				s.countAdmission("conflict")
				return appErrors.Clone(appErrors.ErrConflict, "the room is already reserved for the requested time")
			}
		}

		if err := s.reservations.Create(ctx, reservation); err != nil {
			return err
		}

		if privileged {
			superseded, err = s.reservations.SupersedeOverlapping(ctx,
				req.RoomID, reservation.ID, requester.ID, req.StartTime, req.EndTime)
			if err != nil {
				return err
			}
			reason := supersededReason
			for _, loser := range superseded {
				entry := &models.OperationLog{
					AdminID:       requester.ID,
					ReservationID: loser.ID,
					Operation:     models.StatusRejected,
					Reason:        &reason,
				}
				if err := s.oplog.Create(ctx, entry); err != nil {
					return err
				}
			}
		}

		if err := s.analytics.Bump(ctx, now, models.AnalyticDelta{ReservationCreations: 1}); err != nil {
			return err
		}
		return s.analytics.Bump(ctx, reservation.StartTime, models.AnalyticDelta{Reservations: 1})
	})
	if err != nil {
		return nil, err
	}

	if privileged {
		s.countAdmission("auto_approved")
		s.notifier.ReservationAutoApproved(ctx, *reservation)
		for _, loser := range superseded {
			s.notifier.ReservationSuperseded(ctx, loser)
		}
	} else {
		s.countAdmission("admitted")
		s.notifier.ReservationCreated(ctx, *reservation)
		if s.autoDecider != nil {
			s.scheduleAutoDecision(*reservation)
		} else if approvers, err := s.approvers.NotifiableAdmins(ctx, reservation.RoomID); err != nil {
			s.logger.Warn("load notifiable approvers", zap.Int64("room", reservation.RoomID), zap.Error(err))
		} else {
			s.notifier.ApprovalRequested(ctx, *reservation, approvers)
		}
	}

	response := &dto.CreateReservationResponse{
		Reservation:  *reservation,
		AutoApproved: privileged,
	}
	for _, loser := range superseded {
		response.Superseded = append(response.Superseded, loser.ID)
	}
	return response, nil
}

func (s *AdmissionService) countAdmission(outcome string) {
	if s.metrics != nil {
		s.metrics.CountAdmission(outcome)
	}
}

func (s *AdmissionService) scheduleAutoDecision(reservation models.Reservation) {
	if s.autoDecider == nil || s.dispatcher == nil {
		return
	}
	err := s.dispatcher.Submit("auto-decision", func(ctx context.Context) error {
		return s.autoDecider.Evaluate(ctx, reservation)
	})
	if err != nil {
		s.logger.Warn("drop auto-decision task", zap.Int64("reservation", reservation.ID), zap.Error(err))
	}
}

// Get returns one reservation with its decision trail.
func (s *AdmissionService) Get(ctx context.Context, id int64) (*models.Reservation, []models.OperationLog, error) {
	reservation, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load reservation")
	}
	trail, err := s.oplog.ListByReservation(ctx, id)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load decision trail")
	}
	return reservation, trail, nil
}

// List returns reservations for the filter plus the total row count.
func (s *AdmissionService) List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, int64, error) {
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.PageSize > 200 {
		filter.PageSize = 200
	}
	return s.reservations.List(ctx, filter)
}

// Upcoming returns future reservations in rooms the acting admin approves
// for, limited to bookings still open to them: not yet decided, or last
// decided by the admin themselves.
func (s *AdmissionService) Upcoming(ctx context.Context, actor models.Admin) ([]models.Reservation, error) {
	return s.reservations.ListUpcomingForApprover(ctx, actor.ID, s.now())
}

// Export renders matching reservations as a CSV or PDF document, either as a
// single sheet or grouped per room.
func (s *AdmissionService) Export(ctx context.Context, req dto.ReservationExportRequest) ([]byte, string, error) {
	filter := models.ReservationFilter{RoomID: req.RoomID, From: req.From, To: req.To}
	reservations, _, err := s.reservations.List(ctx, filter)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load reservations")
	}

	rooms, err := s.rooms.ListRooms(ctx, 0)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load rooms")
	}
	roomNames := make(map[int64]string, len(rooms))
	for _, room := range rooms {
		roomNames[room.ID] = room.Name
	}

	tables := buildReservationTables(reservations, roomNames, req.ByRoom)
	payload, err := export.Render(export.Format(req.Format), "Reservations", tables)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render export")
	}
	filename := fmt.Sprintf("reservations-%s.%s", s.now().Format("2006-01-02"), req.Format)
	return payload, filename, nil
}

var exportHeaders = []string{"ID", "Room", "Start", "End", "Student", "Student ID", "Email", "Reason", "Status"}

func reservationRow(reservation models.Reservation, roomNames map[int64]string) []string {
	roomName := roomNames[reservation.RoomID]
	if roomName == "" {
		roomName = fmt.Sprintf("room %d", reservation.RoomID)
	}
	return []string{
		fmt.Sprintf("%d", reservation.ID),
		roomName,
		reservation.StartTime.Format("2006-01-02 15:04"),
		reservation.EndTime.Format("2006-01-02 15:04"),
		reservation.StudentName,
		reservation.StudentID,
		reservation.Email,
		reservation.Reason,
		string(reservation.Status),
	}
}

func buildReservationTables(reservations []models.Reservation, roomNames map[int64]string, byRoom bool) []export.Table {
	if !byRoom {
		table := export.Table{Title: "All reservations", Headers: exportHeaders}
		for _, reservation := range reservations {
			table.Rows = append(table.Rows, reservationRow(reservation, roomNames))
		}
		return []export.Table{table}
	}

	grouped := map[int64][]models.Reservation{}
	order := []int64{}
	for _, reservation := range reservations {
		if _, seen := grouped[reservation.RoomID]; !seen {
			order = append(order, reservation.RoomID)
		}
		grouped[reservation.RoomID] = append(grouped[reservation.RoomID], reservation)
	}

	tables := make([]export.Table, 0, len(order))
	for _, roomID := range order {
		title := roomNames[roomID]
		if title == "" {
			title = fmt.Sprintf("room %d", roomID)
		}
		table := export.Table{Title: title, Headers: exportHeaders}
		for _, reservation := range grouped[roomID] {
			table.Rows = append(table.Rows, reservationRow(reservation, roomNames))
		}
		tables = append(tables, table)
	}
	return tables
}
