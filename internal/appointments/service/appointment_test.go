package service

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	appointmentserrors "slotbook/internal/appointments/errors"
	"slotbook/internal/appointments/validator"
	"slotbook/internal/notify"
	"slotbook/pkg/config"
	mongotx "slotbook/pkg/db/mongo"
	apperrors "slotbook/pkg/errors"
	"slotbook/pkg/logger"
	"slotbook/pkg/model"
	"slotbook/pkg/sealer"
)

const (
	testEmployeeID = "507f1f77bcf86cd799439011"
	testServiceID  = "507f1f77bcf86cd799439022"
	otherClientID  = "507f1f77bcf86cd799439033"
)

type mockAppointmentRepository struct {
	createFunc            func(ctx context.Context, appt *model.Appointment) error
	findByIDFunc          func(ctx context.Context, id string) (*model.Appointment, error)
	findActiveInRangeFunc func(ctx context.Context, employeeID string, start, end time.Time) ([]*model.Appointment, error)
	rescheduleFunc        func(ctx context.Context, id string, start, end time.Time) error
	updateStatusFunc      func(ctx context.Context, id string, status string) error
}

func (m *mockAppointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, appt)
	}
	appt.ID = "665f1f77bcf86cd799439111"
	return nil
}

func (m *mockAppointmentRepository) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, fmt.Errorf("%w: %s", appointmentserrors.ErrNotFound, id)
}

func (m *mockAppointmentRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Appointment, error) {
	return []*model.Appointment{}, nil
}

func (m *mockAppointmentRepository) Count(ctx context.Context) (int64, error) { return 0, nil }

func (m *mockAppointmentRepository) FindActiveInRange(ctx context.Context, employeeID string, start, end time.Time) ([]*model.Appointment, error) {
	if m.findActiveInRangeFunc != nil {
		return m.findActiveInRangeFunc(ctx, employeeID, start, end)
	}
	return []*model.Appointment{}, nil
}

func (m *mockAppointmentRepository) FindByClient(ctx context.Context, clientID string, limit int, offset int64) ([]*model.Appointment, error) {
	return []*model.Appointment{}, nil
}

func (m *mockAppointmentRepository) CountByClient(ctx context.Context, clientID string) (int64, error) {
	return 0, nil
}

func (m *mockAppointmentRepository) Reschedule(ctx context.Context, id string, start, end time.Time) error {
	if m.rescheduleFunc != nil {
		return m.rescheduleFunc(ctx, id, start, end)
	}
	return nil
}

func (m *mockAppointmentRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockAppointmentRepository) CancelActiveByEmployee(ctx context.Context, employeeID string) (int64, error) {
	return 0, nil
}

func (m *mockAppointmentRepository) CancelActiveByService(ctx context.Context, serviceID string) (int64, error) {
	return 0, nil
}

func (m *mockAppointmentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockLockRepository struct {
	held      map[string]bool
	createErr error
}

func (m *mockLockRepository) Create(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.held == nil {
		m.held = map[string]bool{}
	}
	if m.held[lock.ID] {
		return nil, mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
	}
	m.held[lock.ID] = true
	return lock, nil
}

func (m *mockLockRepository) Delete(ctx context.Context, lockID string) error {
	delete(m.held, lockID)
	return nil
}

type stubWindows struct {
	windows []model.Window
	err     error
}

func (s *stubWindows) WindowsForDate(ctx context.Context, employeeID string, date string) ([]model.Window, error) {
	return s.windows, s.err
}

type stubCatalog struct {
	employee *model.Employee
	service  *model.Service
	err      error
}

func (s *stubCatalog) GetEmployee(ctx context.Context, id string) (*model.Employee, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.employee == nil {
		return nil, apperrors.NotFoundWithID("Employee", id)
	}
	return s.employee, nil
}

func (s *stubCatalog) GetService(ctx context.Context, id string) (*model.Service, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.service == nil {
		return nil, apperrors.NotFoundWithID("Service", id)
	}
	return s.service, nil
}

type recordingNotifier struct {
	events []string
}

func (r *recordingNotifier) AppointmentChanged(ctx context.Context, eventType string, appt *model.Appointment, actor model.Actor) {
	r.events = append(r.events, eventType)
}

type fixture struct {
	repo     *mockAppointmentRepository
	locks    *mockLockRepository
	windows  *stubWindows
	catalog  *stubCatalog
	accounts *stubAccounts
	notifier *recordingNotifier
	svc      AppointmentService
}

type stubAccounts struct {
	byEmail map[string]string
}

func (s *stubAccounts) FindClientIDByEmail(ctx context.Context, email string) (string, error) {
	return s.byEmail[email], nil
}

func newFixture(repo *mockAppointmentRepository) *fixture {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "appointments-test",
	})
	cfg := &config.Config{
		Log:            log,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		SlotStride:     30 * time.Minute,
		BookingLockTTL: 10 * time.Second,
	}

	f := &fixture{
		repo:  repo,
		locks: &mockLockRepository{},
		windows: &stubWindows{
			windows: []model.Window{{Start: "09:00", End: "17:00"}},
		},
		catalog: &stubCatalog{
			employee: &model.Employee{
				ID:         testEmployeeID,
				Name:       "Dana Levi",
				Active:     true,
				ServiceIDs: []string{testServiceID},
			},
			service: &model.Service{
				ID:          testServiceID,
				Title:       "Haircut",
				DurationMin: 60,
				Active:      true,
			},
		},
		accounts: &stubAccounts{},
		notifier: &recordingNotifier{},
	}
	f.svc = NewAppointmentService(
		f.repo, f.locks, f.windows, f.catalog, f.accounts, f.notifier,
		validator.NewAppointmentValidator(log), cfg,
	)
	return f
}

var clientActor = model.Actor{ID: "507f1f77bcf86cd799439044", Role: model.RoleClient, Verified: true}
var staffActor = model.Actor{ID: "507f1f77bcf86cd799439055", Role: model.RoleStaff}
var unverifiedActor = model.Actor{ID: "507f1f77bcf86cd799439066", Role: model.RoleClient}

func validRequest() *model.AppointmentRequest {
	return &model.AppointmentRequest{
		EmployeeID: testEmployeeID,
		ServiceID:  testServiceID,
		Date:       "2026-09-07",
		Start:      "10:00",
	}
}

func TestGetAvailableSlots(t *testing.T) {
	f := newFixture(&mockAppointmentRepository{
		findActiveInRangeFunc: func(ctx context.Context, employeeID string, start, end time.Time) ([]*model.Appointment, error) {
			return []*model.Appointment{
				{
					ID:        "a1",
					StartTime: time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
					EndTime:   time.Date(2026, 9, 7, 11, 0, 0, 0, time.UTC),
					Status:    model.StatusConfirmed,
				},
			}, nil
		},
	})

	slots, err := f.svc.GetAvailableSlots(context.Background(), testEmployeeID, testServiceID, "2026-09-07")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	set := map[string]bool{}
	for _, s := range slots {
		set[s] = true
	}
	if !set["09:00"] {
		t.Error("09:00 ends exactly when the booking starts and must be offered")
	}
	if set["09:30"] || set["10:00"] || set["10:30"] {
		t.Errorf("slots overlapping the 10:00-11:00 booking must be excluded, got %v", slots)
	}
	if !set["11:00"] {
		t.Error("11:00 starts exactly when the booking ends and must be offered")
	}
}

func TestGetAvailableSlots_EmployeeNotOfferingService(t *testing.T) {
	f := newFixture(&mockAppointmentRepository{})
	f.catalog.employee.ServiceIDs = nil

	slots, err := f.svc.GetAvailableSlots(context.Background(), testEmployeeID, testServiceID, "2026-09-07")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %v", slots)
	}
}

func TestGetAvailableSlots_DegradesToEmptyOnBackendFailure(t *testing.T) {
	f := newFixture(&mockAppointmentRepository{
		findActiveInRangeFunc: func(ctx context.Context, employeeID string, start, end time.Time) ([]*model.Appointment, error) {
			return nil, apperrors.Internal("store down", nil)
		},
	})

	slots, err := f.svc.GetAvailableSlots(context.Background(), testEmployeeID, testServiceID, "2026-09-07")
	if err != nil {
		t.Fatalf("slot reads must not surface backend failures, got %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %v", slots)
	}

	f.windows.err = apperrors.Internal("store down", nil)
	slots, err = f.svc.GetAvailableSlots(context.Background(), testEmployeeID, testServiceID, "2026-09-07")
	if err != nil {
		t.Fatalf("slot reads must not surface window lookup failures, got %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %v", slots)
	}
}

func TestGetAvailableSlots_DegradesToEmptyOnCatalogFailure(t *testing.T) {
	f := newFixture(&mockAppointmentRepository{})
	f.catalog.err = apperrors.Internal("store down", nil)

	slots, err := f.svc.GetAvailableSlots(context.Background(), testEmployeeID, testServiceID, "2026-09-07")
	if err != nil {
		t.Fatalf("slot reads must not surface catalog failures, got %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %v", slots)
	}

	// An unknown service is a caller mistake, not a backend failure.
	f.catalog.err = nil
	f.catalog.service = nil
	if _, err := f.svc.GetAvailableSlots(context.Background(), testEmployeeID, testServiceID, "2026-09-07"); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found error for an unknown service, got %v", err)
	}
}

func TestCreate_Succeeds(t *testing.T) {
	f := newFixture(&mockAppointmentRepository{})

	appt, err := f.svc.Create(context.Background(), clientActor, validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if appt.Status != model.StatusConfirmed {
		t.Errorf("client bookings persist confirmed, got %s", appt.Status)
	}
	if appt.ClientID != clientActor.ID {
		t.Errorf("appointment must belong to the booking client, got %s", appt.ClientID)
	}
	want := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	if !appt.StartTime.Equal(want) {
		t.Errorf("start time = %v, want %v", appt.StartTime, want)
	}
	if !appt.EndTime.Equal(want.Add(time.Hour)) {
		t.Errorf("end time must be start plus service duration, got %v", appt.EndTime)
	}
	if len(f.notifier.events) != 1 || f.notifier.events[0] != notify.EventAppointmentCreated {
		t.Errorf("expected one created event, got %v", f.notifier.events)
	}
	if len(f.locks.held) != 0 {
		t.Errorf("lock must be released after booking, still held: %v", f.locks.held)
	}
}

func TestCreate_UnverifiedClientRejected(t *testing.T) {
	f := newFixture(&mockAppointmentRepository{})

	_, err := f.svc.Create(context.Background(), unverifiedActor, validRequest())
	if !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
	if len(f.notifier.events) != 0 {
		t.Errorf("no event expected, got %v", f.notifier.events)
	}
}

func TestCreate_RejectsOverlap(t *testing.T) {
	existing := &model.Appointment{
		ID:        "665f1f77bcf86cd799439222",
		StartTime: time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 9, 7, 11, 0, 0, 0, time.UTC),
		Status:    model.StatusConfirmed,
	}
	f := newFixture(&mockAppointmentRepository{
		findActiveInRangeFunc: func(ctx context.Context, employeeID string, start, end time.Time) ([]*model.Appointment, error) {
			return []*model.Appointment{existing}, nil
		},
	})

	_, err := f.svc.Create(context.Background(), clientActor, validRequest())
	if !apperrors.IsCode(err, apperrors.CodeAvailability) {
		t.Fatalf("expected availability error for a taken slot, got %v", err)
	}
	if len(f.notifier.events) != 0 {
		t.Errorf("no event on failed booking, got %v", f.notifier.events)
	}
}

func TestCreate_LockContention(t *testing.T) {
	f := newFixture(&mockAppointmentRepository{})
	f.locks.createErr = fmt.Errorf("E11000 duplicate key error")

	// The lock repo surfaces a plain error here, not a mongo duplicate key
	// error, so the service maps it to internal rather than conflict.
	_, err := f.svc.Create(context.Background(), clientActor, validRequest())
	if !apperrors.IsCode(err, apperrors.CodeInternal) {
		t.Fatalf("expected internal error for unrecognized lock failure, got %v", err)
	}
}

func TestCreate_OutsideWorkingHours(t *testing.T) {
	f := newFixture(&mockAppointmentRepository{})

	req := validRequest()
	req.Start = "18:00"

	_, err := f.svc.Create(context.Background(), clientActor, req)
	if !apperrors.IsCode(err, apperrors.CodeAvailability) {
		t.Fatalf("expected availability error, got %v", err)
	}

	appErr := apperrors.AsAppError(err)
	if appErr.Details == nil || appErr.Details["windows"] != "09:00-17:00" {
		t.Errorf("availability error must quote the working windows, got %+v", appErr.Details)
	}
}

func TestCreate_DayOff(t *testing.T) {
	f := newFixture(&mockAppointmentRepository{})
	f.windows.windows = nil

	_, err := f.svc.Create(context.Background(), clientActor, validRequest())
	if !apperrors.IsCode(err, apperrors.CodeAvailability) {
		t.Fatalf("expected availability error, got %v", err)
	}
}

func TestCreate_SlotEndingAtClose(t *testing.T) {
	f := newFixture(&mockAppointmentRepository{})

	req := validRequest()
	req.Start = "16:00"

	if _, err := f.svc.Create(context.Background(), clientActor, req); err != nil {
		t.Fatalf("a booking ending exactly at closing time must succeed, got %v", err)
	}
}

// Two overlapping bookings racing each other must contend on one advisory
// lock. The in-transaction conflict check reads a snapshot, so if the lock
// were keyed any finer than employee plus date, both could commit.
func TestCreate_OverlappingRequestsShareDayLock(t *testing.T) {
	var interleaved bool
	var racerErr error
	repo := &mockAppointmentRepository{}
	f := newFixture(repo)

	repo.createFunc = func(ctx context.Context, appt *model.Appointment) error {
		appt.ID = "665f1f77bcf86cd799439111"
		if !interleaved {
			interleaved = true
			// A second request for an overlapping range arrives while the
			// first is still mid-transaction and holds the lock.
			racer := validRequest()
			racer.Start = "10:30"
			_, racerErr = f.svc.Create(context.Background(), clientActor, racer)
		}
		return nil
	}

	if _, err := f.svc.Create(context.Background(), clientActor, validRequest()); err != nil {
		t.Fatalf("first booking must succeed, got %v", err)
	}
	if !interleaved {
		t.Fatal("racing booking never ran")
	}
	if !apperrors.IsCode(racerErr, apperrors.CodeAvailability) {
		t.Fatalf("racing overlapping booking must be rejected as busy, got %v", racerErr)
	}
	if len(f.notifier.events) != 1 {
		t.Errorf("only the winning booking may emit an event, got %v", f.notifier.events)
	}
}

func TestBooking_SlotDisappearsAndCancelRestoresIt(t *testing.T) {
	store := map[string]*model.Appointment{}
	repo := &mockAppointmentRepository{
		createFunc: func(ctx context.Context, appt *model.Appointment) error {
			appt.ID = "665f1f77bcf86cd799439222"
			booked := *appt
			store[appt.ID] = &booked
			return nil
		},
		findByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
			appt, ok := store[id]
			if !ok {
				return nil, fmt.Errorf("%w: %s", appointmentserrors.ErrNotFound, id)
			}
			found := *appt
			return &found, nil
		},
		findActiveInRangeFunc: func(ctx context.Context, employeeID string, start, end time.Time) ([]*model.Appointment, error) {
			var active []*model.Appointment
			for _, a := range store {
				if a.IsActive() && a.StartTime.Before(end) && a.EndTime.After(start) {
					active = append(active, a)
				}
			}
			return active, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, status string) error {
			store[id].Status = status
			return nil
		},
	}
	f := newFixture(repo)

	before, err := f.svc.GetAvailableSlots(context.Background(), testEmployeeID, testServiceID, "2026-09-07")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	again, err := f.svc.GetAvailableSlots(context.Background(), testEmployeeID, testServiceID, "2026-09-07")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(before, again) {
		t.Fatalf("slot reads with no intervening writes must match: %v vs %v", before, again)
	}

	appt, err := f.svc.Create(context.Background(), clientActor, validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	afterBooking, err := f.svc.GetAvailableSlots(context.Background(), testEmployeeID, testServiceID, "2026-09-07")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, slot := range afterBooking {
		if slot == "09:30" || slot == "10:00" || slot == "10:30" {
			t.Errorf("slot %s overlaps the 10:00-11:00 booking and must disappear", slot)
		}
	}

	if err := f.svc.Cancel(context.Background(), staffActor, appt.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	restored, err := f.svc.GetAvailableSlots(context.Background(), testEmployeeID, testServiceID, "2026-09-07")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(before, restored) {
		t.Fatalf("cancelling the booking must restore the original slots: %v vs %v", before, restored)
	}
}

func TestCreateManual_RequiresStaff(t *testing.T) {
	f := newFixture(&mockAppointmentRepository{})

	_, err := f.svc.CreateManual(context.Background(), clientActor, &model.ManualAppointmentRequest{
		EmployeeID: testEmployeeID,
		ServiceID:  testServiceID,
		Date:       "2026-09-07",
		Start:      "10:00",
		GuestName:  "Walk In",
		GuestPhone: "+12125551234",
	})
	if !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestCreateManual_RequiresGuestContact(t *testing.T) {
	f := newFixture(&mockAppointmentRepository{})

	_, err := f.svc.CreateManual(context.Background(), staffActor, &model.ManualAppointmentRequest{
		EmployeeID: testEmployeeID,
		ServiceID:  testServiceID,
		Date:       "2026-09-07",
		Start:      "10:00",
		GuestName:  "Walk In",
	})
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateManual_Succeeds(t *testing.T) {
	f := newFixture(&mockAppointmentRepository{})

	appt, err := f.svc.CreateManual(context.Background(), staffActor, &model.ManualAppointmentRequest{
		EmployeeID: testEmployeeID,
		ServiceID:  testServiceID,
		Date:       "2026-09-07",
		Start:      "10:00",
		GuestName:  "Walk In",
		GuestEmail: "guest@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.Status != model.StatusConfirmed {
		t.Errorf("manual bookings are confirmed immediately, got %s", appt.Status)
	}
	if appt.ClientID != "" {
		t.Errorf("guest booking has no owner, got client %s", appt.ClientID)
	}
	if appt.ManageToken == "" {
		t.Error("guest booking must carry a manage token")
	}
}

func TestCreateManual_LinksGuestToAccountByEmail(t *testing.T) {
	f := newFixture(&mockAppointmentRepository{})
	f.accounts.byEmail = map[string]string{"guest@example.com": otherClientID}

	appt, err := f.svc.CreateManual(context.Background(), staffActor, &model.ManualAppointmentRequest{
		EmployeeID: testEmployeeID,
		ServiceID:  testServiceID,
		Date:       "2026-09-07",
		Start:      "10:00",
		GuestName:  "Walk In",
		GuestEmail: "guest@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.ClientID != otherClientID {
		t.Errorf("guest with a known account must be linked, got client %q", appt.ClientID)
	}
}

func existingAppointment(status string) *model.Appointment {
	return &model.Appointment{
		ID:         "665f1f77bcf86cd799439111",
		EmployeeID: testEmployeeID,
		ServiceID:  testServiceID,
		ClientID:   clientActor.ID,
		StartTime:  time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2026, 9, 7, 11, 0, 0, 0, time.UTC),
		Status:     status,
	}
}

func TestReschedule_OwnerMovesOwnAppointment(t *testing.T) {
	var movedTo time.Time
	f := newFixture(&mockAppointmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
			return existingAppointment(model.StatusConfirmed), nil
		},
		rescheduleFunc: func(ctx context.Context, id string, start, end time.Time) error {
			movedTo = start
			return nil
		},
	})

	appt, err := f.svc.Reschedule(context.Background(), clientActor, "665f1f77bcf86cd799439111", &model.RescheduleRequest{
		Date:  "2026-09-08",
		Start: "14:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2026, 9, 8, 14, 0, 0, 0, time.UTC)
	if !movedTo.Equal(want) {
		t.Errorf("moved to %v, want %v", movedTo, want)
	}
	if !appt.EndTime.Equal(want.Add(time.Hour)) {
		t.Errorf("end must track the service duration, got %v", appt.EndTime)
	}
	if len(f.notifier.events) != 1 || f.notifier.events[0] != notify.EventAppointmentRescheduled {
		t.Errorf("expected one rescheduled event, got %v", f.notifier.events)
	}
	if len(f.locks.held) != 0 {
		t.Errorf("locks must be released after rescheduling, still held: %v", f.locks.held)
	}
}

func TestReschedule_ForcesStatusBackToConfirmed(t *testing.T) {
	f := newFixture(&mockAppointmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
			return existingAppointment(model.StatusPending), nil
		},
	})

	appt, err := f.svc.Reschedule(context.Background(), clientActor, "665f1f77bcf86cd799439111", &model.RescheduleRequest{
		Date:  "2026-09-08",
		Start: "14:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.Status != model.StatusConfirmed {
		t.Errorf("rescheduling must force the status back to confirmed, got %s", appt.Status)
	}
}

func TestReschedule_StrangerForbidden(t *testing.T) {
	f := newFixture(&mockAppointmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
			return existingAppointment(model.StatusConfirmed), nil
		},
	})

	stranger := model.Actor{ID: otherClientID, Role: model.RoleClient}
	_, err := f.svc.Reschedule(context.Background(), stranger, "665f1f77bcf86cd799439111", &model.RescheduleRequest{
		Date:  "2026-09-08",
		Start: "14:00",
	})
	if !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestReschedule_CancelledAppointmentRejected(t *testing.T) {
	f := newFixture(&mockAppointmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
			return existingAppointment(model.StatusCancelled), nil
		},
	})

	_, err := f.svc.Reschedule(context.Background(), clientActor, "665f1f77bcf86cd799439111", &model.RescheduleRequest{
		Date:  "2026-09-08",
		Start: "14:00",
	})
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestReschedule_IgnoresItselfInConflictCheck(t *testing.T) {
	self := existingAppointment(model.StatusConfirmed)
	f := newFixture(&mockAppointmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
			return self, nil
		},
		findActiveInRangeFunc: func(ctx context.Context, employeeID string, start, end time.Time) ([]*model.Appointment, error) {
			return []*model.Appointment{self}, nil
		},
	})

	// Moving within its own current range must not conflict with itself.
	_, err := f.svc.Reschedule(context.Background(), clientActor, self.ID, &model.RescheduleRequest{
		Date:  "2026-09-07",
		Start: "10:30",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCancel_Idempotent(t *testing.T) {
	updateCalled := false
	f := newFixture(&mockAppointmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
			return existingAppointment(model.StatusCancelled), nil
		},
		updateStatusFunc: func(ctx context.Context, id string, status string) error {
			updateCalled = true
			return nil
		},
	})

	if err := f.svc.Cancel(context.Background(), clientActor, "665f1f77bcf86cd799439111"); err != nil {
		t.Fatalf("cancelling a cancelled appointment must succeed, got %v", err)
	}
	if updateCalled {
		t.Error("no write expected for an already cancelled appointment")
	}
}

func TestCancel_CompletedRejected(t *testing.T) {
	f := newFixture(&mockAppointmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
			return existingAppointment(model.StatusCompleted), nil
		},
	})

	err := f.svc.Cancel(context.Background(), clientActor, "665f1f77bcf86cd799439111")
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestUpdateStatus_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr bool
	}{
		{"pending to confirmed", model.StatusPending, model.StatusConfirmed, false},
		{"pending to cancelled", model.StatusPending, model.StatusCancelled, false},
		{"pending to completed", model.StatusPending, model.StatusCompleted, true},
		{"confirmed to completed", model.StatusConfirmed, model.StatusCompleted, false},
		{"confirmed to pending", model.StatusConfirmed, model.StatusPending, true},
		{"cancelled to confirmed", model.StatusCancelled, model.StatusConfirmed, true},
		{"completed to cancelled", model.StatusCompleted, model.StatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(&mockAppointmentRepository{
				findByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
					return existingAppointment(tt.from), nil
				},
			})

			err := f.svc.UpdateStatus(context.Background(), staffActor, "665f1f77bcf86cd799439111", tt.to)
			if tt.wantErr && !apperrors.IsCode(err, apperrors.CodeConflict) {
				t.Errorf("expected conflict error, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestUpdateStatus_OwnerCancelsOwn(t *testing.T) {
	var written string
	f := newFixture(&mockAppointmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
			return existingAppointment(model.StatusConfirmed), nil
		},
		updateStatusFunc: func(ctx context.Context, id string, status string) error {
			written = status
			return nil
		},
	})

	if err := f.svc.UpdateStatus(context.Background(), clientActor, "665f1f77bcf86cd799439111", model.StatusCancelled); err != nil {
		t.Fatalf("a client must be able to change their own appointment, got %v", err)
	}
	if written != model.StatusCancelled {
		t.Errorf("expected cancelled written, got %q", written)
	}
}

func TestUpdateStatus_StrangerForbidden(t *testing.T) {
	updateCalled := false
	f := newFixture(&mockAppointmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
			return existingAppointment(model.StatusConfirmed), nil
		},
		updateStatusFunc: func(ctx context.Context, id string, status string) error {
			updateCalled = true
			return nil
		},
	})

	stranger := model.Actor{ID: otherClientID, Role: model.RoleClient}
	err := f.svc.UpdateStatus(context.Background(), stranger, "665f1f77bcf86cd799439111", model.StatusCancelled)
	if !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
	if updateCalled {
		t.Error("no write expected for a forbidden actor")
	}
}

func TestCheckConflicts_WholeDay(t *testing.T) {
	var gotFrom, gotTo time.Time
	f := newFixture(&mockAppointmentRepository{
		findActiveInRangeFunc: func(ctx context.Context, employeeID string, start, end time.Time) ([]*model.Appointment, error) {
			gotFrom, gotTo = start, end
			return nil, nil
		},
	})

	_, err := f.svc.CheckConflicts(context.Background(), testEmployeeID, "2026-09-07", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotFrom != time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC) || gotTo != time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC) {
		t.Errorf("whole-day range wrong: %v - %v", gotFrom, gotTo)
	}
}

func TestCheckConflicts_PartialRangeValidation(t *testing.T) {
	f := newFixture(&mockAppointmentRepository{})

	if _, err := f.svc.CheckConflicts(context.Background(), testEmployeeID, "2026-09-07", "10:00", ""); !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("start without end must be rejected, got %v", err)
	}
	if _, err := f.svc.CheckConflicts(context.Background(), testEmployeeID, "2026-09-07", "14:00", "10:00"); !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("inverted range must be rejected, got %v", err)
	}
}

func TestCheckConflicts_WholeDayCountsOnlySameDayStarts(t *testing.T) {
	straddler := &model.Appointment{
		ID:        "665f1f77bcf86cd799439331",
		StartTime: time.Date(2026, 9, 6, 23, 30, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 9, 7, 0, 30, 0, 0, time.UTC),
		Status:    model.StatusConfirmed,
	}
	sameDay := &model.Appointment{
		ID:        "665f1f77bcf86cd799439332",
		StartTime: time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 9, 7, 11, 0, 0, 0, time.UTC),
		Status:    model.StatusConfirmed,
	}
	f := newFixture(&mockAppointmentRepository{
		findActiveInRangeFunc: func(ctx context.Context, employeeID string, start, end time.Time) ([]*model.Appointment, error) {
			return []*model.Appointment{straddler, sameDay}, nil
		},
	})

	conflicts, err := f.svc.CheckConflicts(context.Background(), testEmployeeID, "2026-09-07", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conflicts) != 1 || conflicts[0].ID != sameDay.ID {
		t.Fatalf("whole-day check must report only appointments starting on the date, got %v", conflicts)
	}
}

func guestAppointment() *model.Appointment {
	appt := existingAppointment(model.StatusConfirmed)
	appt.ClientID = ""
	appt.GuestName = "Walk In"
	appt.GuestEmail = "guest@example.com"
	return appt
}

func TestManageToken_GuestLookupAndCancel(t *testing.T) {
	var written string
	f := newFixture(&mockAppointmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
			return guestAppointment(), nil
		},
		updateStatusFunc: func(ctx context.Context, id string, status string) error {
			written = status
			return nil
		},
	})

	token, err := sealer.SealManageToken("665f1f77bcf86cd799439111", "guest@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	appt, err := f.svc.GetByToken(context.Background(), token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.GuestName != "Walk In" {
		t.Errorf("unexpected appointment: %+v", appt)
	}

	if err := f.svc.CancelByToken(context.Background(), token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if written != model.StatusCancelled {
		t.Errorf("expected cancelled write, got %q", written)
	}
	if len(f.notifier.events) != 1 || f.notifier.events[0] != notify.EventAppointmentCancelled {
		t.Errorf("expected one cancelled event, got %v", f.notifier.events)
	}
}

func TestManageToken_ContactMismatchRejected(t *testing.T) {
	f := newFixture(&mockAppointmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
			return guestAppointment(), nil
		},
	})

	token, err := sealer.SealManageToken("665f1f77bcf86cd799439111", "someone-else@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.svc.GetByToken(context.Background(), token); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestManageToken_GarbageRejected(t *testing.T) {
	f := newFixture(&mockAppointmentRepository{})

	if _, err := f.svc.GetByToken(context.Background(), "not-a-real-token"); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
