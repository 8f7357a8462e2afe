package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	appointmentserrors "slotbook/internal/appointments/errors"
	"slotbook/internal/appointments/repository"
	"slotbook/internal/appointments/validator"
	"slotbook/internal/availability"
	"slotbook/internal/notify"
	"slotbook/pkg/config"
	apperrors "slotbook/pkg/errors"
	"slotbook/pkg/model"
	"slotbook/pkg/sanitizer"
	"slotbook/pkg/sealer"
)

// WindowSource resolves an employee's working windows for one date. The
// roster service satisfies it.
type WindowSource interface {
	WindowsForDate(ctx context.Context, employeeID string, date string) ([]model.Window, error)
}

// Catalog looks up the employee and service rows a booking refers to. The
// catalog service satisfies it.
type Catalog interface {
	GetEmployee(ctx context.Context, id string) (*model.Employee, error)
	GetService(ctx context.Context, id string) (*model.Service, error)
}

// Accounts resolves a guest's email to an existing client account so manual
// bookings link back to the account when one exists. Identity lives outside
// this service; the lookup is best-effort and failures never block a
// booking.
type Accounts interface {
	FindClientIDByEmail(ctx context.Context, email string) (string, error)
}

// NoAccounts is the Accounts implementation used when no identity directory
// is wired. Every lookup misses.
type NoAccounts struct{}

func (NoAccounts) FindClientIDByEmail(context.Context, string) (string, error) {
	return "", nil
}

type AppointmentService interface {
	GetAvailableSlots(ctx context.Context, employeeID, serviceID, date string) ([]string, error)
	CheckConflicts(ctx context.Context, employeeID, date, start, end string) ([]*model.Appointment, error)
	Create(ctx context.Context, actor model.Actor, req *model.AppointmentRequest) (*model.Appointment, error)
	CreateManual(ctx context.Context, actor model.Actor, req *model.ManualAppointmentRequest) (*model.Appointment, error)
	Reschedule(ctx context.Context, actor model.Actor, id string, req *model.RescheduleRequest) (*model.Appointment, error)
	Cancel(ctx context.Context, actor model.Actor, id string) error
	UpdateStatus(ctx context.Context, actor model.Actor, id string, status string) error
	GetByID(ctx context.Context, actor model.Actor, id string) (*model.Appointment, error)
	GetByToken(ctx context.Context, token string) (*model.Appointment, error)
	CancelByToken(ctx context.Context, token string) error
	List(ctx context.Context, actor model.Actor, limit int, offset int64) ([]*model.Appointment, int64, error)
}

type appointmentService struct {
	repo      repository.AppointmentRepository
	lockRepo  repository.BookingLockRepository
	windows   WindowSource
	catalog   Catalog
	accounts  Accounts
	notifier  notify.Notifier
	validator *validator.AppointmentValidator
	cfg       *config.Config
}

func NewAppointmentService(
	repo repository.AppointmentRepository,
	lockRepo repository.BookingLockRepository,
	windows WindowSource,
	catalog Catalog,
	accounts Accounts,
	notifier notify.Notifier,
	validator *validator.AppointmentValidator,
	cfg *config.Config,
) AppointmentService {
	return &appointmentService{
		repo:      repo,
		lockRepo:  lockRepo,
		windows:   windows,
		catalog:   catalog,
		accounts:  accounts,
		notifier:  notifier,
		validator: validator,
		cfg:       cfg,
	}
}

// GetAvailableSlots lists the bookable start times for one employee, service
// and date, ascending. An employee who is inactive or not assigned the
// service yields an empty list rather than an error: the slot picker treats
// both the same way.
func (s *appointmentService) GetAvailableSlots(ctx context.Context, employeeID, serviceID, date string) ([]string, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, apperrors.InvalidInput("Date must be in YYYY-MM-DD format")
	}

	svc, err := s.catalog.GetService(ctx, serviceID)
	if err != nil {
		if !apperrors.IsCode(err, apperrors.CodeInternal) {
			return nil, err
		}
		s.cfg.Log.Warn("Failed to load service, returning no slots",
			"service_id", serviceID,
			"error", err,
		)
		return []string{}, nil
	}
	employee, err := s.catalog.GetEmployee(ctx, employeeID)
	if err != nil {
		if !apperrors.IsCode(err, apperrors.CodeInternal) {
			return nil, err
		}
		s.cfg.Log.Warn("Failed to load employee, returning no slots",
			"employee_id", employeeID,
			"error", err,
		)
		return []string{}, nil
	}

	if !employee.Active || !employee.Offers(serviceID) || !svc.Active {
		s.cfg.Log.Debug("No slots: employee does not currently offer the service",
			"employee_id", employeeID,
			"service_id", serviceID,
		)
		return []string{}, nil
	}

	// Slot reads degrade to "no availability" on a backend failure instead
	// of surfacing the error; the picker just shows an empty day.
	windows, err := s.windows.WindowsForDate(ctx, employeeID, date)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeInvalidInput) {
			return nil, err
		}
		s.cfg.Log.Warn("Failed to resolve windows, returning no slots",
			"employee_id", employeeID,
			"date", date,
			"error", err,
		)
		return []string{}, nil
	}
	if len(windows) == 0 {
		return []string{}, nil
	}

	busy, err := s.busyForDate(ctx, employeeID, date)
	if err != nil {
		s.cfg.Log.Warn("Failed to load appointments, returning no slots",
			"employee_id", employeeID,
			"date", date,
			"error", err,
		)
		return []string{}, nil
	}

	strideMin := int(s.cfg.SlotStride / time.Minute)
	return availability.GenerateSlots(windows, svc.DurationMin, strideMin, busy), nil
}

// CheckConflicts returns the active appointments of one employee that overlap
// the given range. Empty start and end mean the whole day.
func (s *appointmentService) CheckConflicts(ctx context.Context, employeeID, date, start, end string) ([]*model.Appointment, error) {
	if strings.TrimSpace(employeeID) == "" {
		return nil, apperrors.InvalidInput("Employee ID cannot be empty")
	}
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, apperrors.InvalidInput("Date must be in YYYY-MM-DD format")
	}
	if (start == "") != (end == "") {
		return nil, apperrors.InvalidInput("start and end must be provided together")
	}

	from := day.UTC()
	to := from.Add(24 * time.Hour)
	if start != "" {
		startMin, err := availability.ParseClock(start)
		if err != nil {
			return nil, apperrors.InvalidInput("start must be in HH:MM 24-hour format")
		}
		endMin, err := availability.ParseClock(end)
		if err != nil {
			return nil, apperrors.InvalidInput("end must be in HH:MM 24-hour format")
		}
		if startMin >= endMin {
			return nil, apperrors.InvalidInput("end must be after start")
		}
		from = day.Add(time.Duration(startMin) * time.Minute)
		to = day.Add(time.Duration(endMin) * time.Minute)
	}

	conflicts, err := s.repo.FindActiveInRange(ctx, employeeID, from, to)
	if err != nil {
		s.cfg.Log.Error("Failed to check conflicts",
			"employee_id", employeeID,
			"date", date,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to check conflicts", err)
	}

	// A whole-day check reports appointments that start on the date. One
	// straddling midnight from the previous day belongs to that day's report.
	if start == "" {
		sameDay := conflicts[:0]
		for _, c := range conflicts {
			if !c.StartTime.Before(from) && c.StartTime.Before(to) {
				sameDay = append(sameDay, c)
			}
		}
		conflicts = sameDay
	}
	return conflicts, nil
}

// Create books an appointment for the acting client. Non-staff actors must
// have a verified contact channel; the identity collaborator vouches for
// that, this core only checks the flag.
func (s *appointmentService) Create(ctx context.Context, actor model.Actor, req *model.AppointmentRequest) (*model.Appointment, error) {
	if !actor.IsStaff() && !actor.Verified {
		return nil, apperrors.Forbidden("A verified contact channel is required to book")
	}

	s.sanitizeRequest(req)
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Appointment request validation failed",
			"employee_id", req.EmployeeID,
			"error", err,
		)
		return nil, apperrors.Validation("Appointment request validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	appt := &model.Appointment{
		EmployeeID: req.EmployeeID,
		ServiceID:  req.ServiceID,
		ClientID:   actor.ID,
		Status:     model.StatusConfirmed,
		Notes:      req.Notes,
	}

	if err := s.bookSlot(ctx, appt, req.Date, req.Start); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Appointment created",
		"id", appt.ID,
		"employee_id", appt.EmployeeID,
		"service_id", appt.ServiceID,
		"start_time", appt.StartTime,
		"actor_id", actor.ID,
	)
	s.notifier.AppointmentChanged(ctx, notify.EventAppointmentCreated, appt, actor)
	return appt, nil
}

// CreateManual books on behalf of a walk-in or phone-in guest. Staff only.
// The guest's contact details ride on the appointment itself; when the staff
// member knows the guest's account, client_id links the two.
func (s *appointmentService) CreateManual(ctx context.Context, actor model.Actor, req *model.ManualAppointmentRequest) (*model.Appointment, error) {
	if !actor.IsStaff() {
		return nil, apperrors.Forbidden("Only staff may book for guests")
	}

	s.sanitizeManualRequest(req)
	if err := s.validator.ValidateManualRequest(req); err != nil {
		s.cfg.Log.Warn("Manual appointment validation failed",
			"employee_id", req.EmployeeID,
			"error", err,
		)
		return nil, apperrors.Validation("Manual appointment validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	appt := &model.Appointment{
		EmployeeID: req.EmployeeID,
		ServiceID:  req.ServiceID,
		ClientID:   req.ClientID,
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
		GuestPhone: req.GuestPhone,
		Status:     model.StatusConfirmed,
		Notes:      req.Notes,
	}

	if appt.ClientID == "" && appt.GuestEmail != "" {
		clientID, err := s.accounts.FindClientIDByEmail(ctx, appt.GuestEmail)
		if err != nil {
			s.cfg.Log.Debug("Account lookup for guest failed", "guest_email", appt.GuestEmail, "error", err)
		} else if clientID != "" {
			appt.ClientID = clientID
		}
	}

	if err := s.bookSlot(ctx, appt, req.Date, req.Start); err != nil {
		return nil, err
	}

	if contact := guestContact(appt); contact != "" {
		token, err := sealer.SealManageToken(appt.ID, contact)
		if err != nil {
			s.cfg.Log.Error("Failed to seal manage token", "id", appt.ID, "error", err)
		} else {
			appt.ManageToken = token
		}
	}

	s.cfg.Log.Info("Manual appointment created",
		"id", appt.ID,
		"employee_id", appt.EmployeeID,
		"guest_name", appt.GuestName,
		"start_time", appt.StartTime,
		"actor_id", actor.ID,
	)
	s.notifier.AppointmentChanged(ctx, notify.EventAppointmentCreated, appt, actor)
	return appt, nil
}

func (s *appointmentService) Reschedule(ctx context.Context, actor model.Actor, id string, req *model.RescheduleRequest) (*model.Appointment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}
	if err := s.validator.ValidateReschedule(req); err != nil {
		return nil, apperrors.Validation("Reschedule request validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, appt); err != nil {
		return nil, err
	}
	if !appt.IsActive() {
		return nil, apperrors.Conflict("Only pending or confirmed appointments can be rescheduled")
	}

	svc, err := s.catalog.GetService(ctx, appt.ServiceID)
	if err != nil {
		return nil, err
	}

	start, err := combineDateTime(req.Date, req.Start)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	end := start.Add(svc.Duration())

	if err := s.ensureInsideWindows(ctx, appt.EmployeeID, req.Date, req.Start, svc.DurationMin); err != nil {
		return nil, err
	}

	apptLockID, err := s.acquireAppointmentLock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer s.releaseLock(ctx, apptLockID)

	lockID, err := s.acquireSlotLock(ctx, appt.EmployeeID, start)
	if err != nil {
		return nil, err
	}
	defer s.releaseLock(ctx, lockID)

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.ensureNoConflict(sessCtx, appt.EmployeeID, start, end, id); err != nil {
			return err
		}
		if err := s.repo.Reschedule(sessCtx, id, start, end); err != nil {
			return apperrors.Internal("Failed to reschedule appointment", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to reschedule appointment", "id", id, "actor_id", actor.ID, "error", err)
		return nil, err
	}

	appt.StartTime = start
	appt.EndTime = end
	appt.Status = model.StatusConfirmed

	s.cfg.Log.Info("Appointment rescheduled",
		"id", id,
		"start_time", start,
		"actor_id", actor.ID,
	)
	s.notifier.AppointmentChanged(ctx, notify.EventAppointmentRescheduled, appt, actor)
	return appt, nil
}

// Cancel is idempotent: cancelling an already cancelled appointment succeeds
// without touching storage.
func (s *appointmentService) Cancel(ctx context.Context, actor model.Actor, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Appointment ID cannot be empty")
	}

	lockID, err := s.acquireAppointmentLock(ctx, id)
	if err != nil {
		return err
	}
	defer s.releaseLock(ctx, lockID)

	appt, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(actor, appt); err != nil {
		return err
	}
	if appt.Status == model.StatusCancelled {
		return nil
	}
	if appt.Status == model.StatusCompleted {
		return apperrors.Conflict("A completed appointment cannot be cancelled")
	}

	if err := s.repo.UpdateStatus(ctx, id, model.StatusCancelled); err != nil {
		s.cfg.Log.Error("Failed to cancel appointment", "id", id, "actor_id", actor.ID, "error", err)
		return apperrors.Internal("Failed to cancel appointment", err)
	}

	appt.Status = model.StatusCancelled
	s.cfg.Log.Info("Appointment cancelled", "id", id, "actor_id", actor.ID)
	s.notifier.AppointmentChanged(ctx, notify.EventAppointmentCancelled, appt, actor)
	return nil
}

// UpdateStatus moves an appointment through its lifecycle. Staff act on any
// appointment, a client only on their own.
func (s *appointmentService) UpdateStatus(ctx context.Context, actor model.Actor, id string, status string) error {
	if id == "" {
		return apperrors.InvalidInput("Appointment ID cannot be empty")
	}
	if err := s.validator.ValidateStatusUpdate(&model.StatusUpdateRequest{Status: status}); err != nil {
		return apperrors.Validation("Invalid status", map[string]any{"error": err.Error()})
	}

	lockID, err := s.acquireAppointmentLock(ctx, id)
	if err != nil {
		return err
	}
	defer s.releaseLock(ctx, lockID)

	appt, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(actor, appt); err != nil {
		return err
	}
	if appt.Status == status {
		return nil
	}
	if !validTransition(appt.Status, status) {
		return apperrors.Conflict(fmt.Sprintf(
			"Cannot transition appointment from %s to %s", appt.Status, status,
		))
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		s.cfg.Log.Error("Failed to update appointment status", "id", id, "status", status, "error", err)
		return apperrors.Internal("Failed to update appointment status", err)
	}

	appt.Status = status
	s.cfg.Log.Info("Appointment status updated",
		"id", id,
		"status", status,
		"actor_id", actor.ID,
	)
	event := notify.EventAppointmentStatus
	if status == model.StatusCancelled {
		event = notify.EventAppointmentCancelled
	}
	s.notifier.AppointmentChanged(ctx, event, appt, actor)
	return nil
}

func (s *appointmentService) GetByID(ctx context.Context, actor model.Actor, id string) (*model.Appointment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}

	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// GetByToken looks up a guest booking through its manage token. The sealed
// contact must still match the appointment, so a token issued for one
// booking never opens another.
func (s *appointmentService) GetByToken(ctx context.Context, token string) (*model.Appointment, error) {
	return s.loadByToken(ctx, token)
}

// CancelByToken lets a guest cancel without authenticating. Same lifecycle
// rules as Cancel: cancelling twice is a no-op, completed stays completed.
func (s *appointmentService) CancelByToken(ctx context.Context, token string) error {
	appt, err := s.loadByToken(ctx, token)
	if err != nil {
		return err
	}

	lockID, err := s.acquireAppointmentLock(ctx, appt.ID)
	if err != nil {
		return err
	}
	defer s.releaseLock(ctx, lockID)

	appt, err = s.load(ctx, appt.ID)
	if err != nil {
		return err
	}
	if appt.Status == model.StatusCancelled {
		return nil
	}
	if appt.Status == model.StatusCompleted {
		return apperrors.Conflict("A completed appointment cannot be cancelled")
	}

	if err := s.repo.UpdateStatus(ctx, appt.ID, model.StatusCancelled); err != nil {
		s.cfg.Log.Error("Failed to cancel appointment", "id", appt.ID, "error", err)
		return apperrors.Internal("Failed to cancel appointment", err)
	}

	appt.Status = model.StatusCancelled
	guest := model.Actor{ID: "guest", Role: model.RoleClient}
	s.cfg.Log.Info("Appointment cancelled by guest", "id", appt.ID)
	s.notifier.AppointmentChanged(ctx, notify.EventAppointmentCancelled, appt, guest)
	return nil
}

func (s *appointmentService) loadByToken(ctx context.Context, token string) (*model.Appointment, error) {
	if token == "" {
		return nil, apperrors.InvalidInput("Manage token cannot be empty")
	}

	id, contact, err := sealer.OpenManageToken(token)
	if err != nil {
		return nil, apperrors.NotFound("Appointment")
	}

	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if contact == "" || (contact != appt.GuestEmail && contact != appt.GuestPhone) {
		return nil, apperrors.NotFound("Appointment")
	}
	return appt, nil
}

// List shows staff the whole book; clients see only their own appointments.
func (s *appointmentService) List(ctx context.Context, actor model.Actor, limit int, offset int64) ([]*model.Appointment, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var appointments []*model.Appointment
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	if actor.IsStaff() {
		go func() {
			defer wg.Done()
			count, errCount = s.repo.Count(sharedCtx)
		}()
		go func() {
			defer wg.Done()
			appointments, errFind = s.repo.FindAll(sharedCtx, limit, offset)
		}()
	} else {
		go func() {
			defer wg.Done()
			count, errCount = s.repo.CountByClient(sharedCtx, actor.ID)
		}()
		go func() {
			defer wg.Done()
			appointments, errFind = s.repo.FindByClient(sharedCtx, actor.ID, limit, offset)
		}()
	}

	wg.Wait()
	if errCount != nil {
		s.cfg.Log.Error("Failed to count appointments", "error", errCount)
		return nil, 0, apperrors.Internal("Failed to count appointments", errCount)
	}
	if errFind != nil {
		s.cfg.Log.Error("Failed to list appointments", "error", errFind)
		return nil, 0, apperrors.Internal("Failed to list appointments", errFind)
	}
	return appointments, count, nil
}

// --- Helpers ---

// bookSlot fills in StartTime and EndTime, verifies the slot against the
// roster and the book, and inserts the appointment under the slot's advisory
// lock. The availability check and the insert run in one transaction so two
// requests that both pass the lock race still cannot double-book.
func (s *appointmentService) bookSlot(ctx context.Context, appt *model.Appointment, date, startClock string) error {
	svc, err := s.catalog.GetService(ctx, appt.ServiceID)
	if err != nil {
		return err
	}
	employee, err := s.catalog.GetEmployee(ctx, appt.EmployeeID)
	if err != nil {
		return err
	}
	if !employee.Active {
		return apperrors.Availability("Employee is not active", nil)
	}
	if !employee.Offers(appt.ServiceID) {
		return apperrors.Availability("Employee does not offer this service", nil)
	}
	if !svc.Active {
		return apperrors.Availability("Service is not bookable", nil)
	}

	start, err := combineDateTime(date, startClock)
	if err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	appt.StartTime = start
	appt.EndTime = start.Add(svc.Duration())

	if err := s.ensureInsideWindows(ctx, appt.EmployeeID, date, startClock, svc.DurationMin); err != nil {
		return err
	}

	lockID, err := s.acquireSlotLock(ctx, appt.EmployeeID, start)
	if err != nil {
		return err
	}
	defer s.releaseLock(ctx, lockID)

	return s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.ensureNoConflict(sessCtx, appt.EmployeeID, appt.StartTime, appt.EndTime, ""); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, appt); err != nil {
			return apperrors.Internal("Failed to create appointment", err)
		}
		return nil
	})
}

// ensureInsideWindows rejects a requested slot that is not fully contained in
// one of the employee's working windows, quoting the windows so the caller
// can offer alternatives.
func (s *appointmentService) ensureInsideWindows(ctx context.Context, employeeID, date, startClock string, durationMin int) error {
	windows, err := s.windows.WindowsForDate(ctx, employeeID, date)
	if err != nil {
		return err
	}
	if len(windows) == 0 {
		return apperrors.Availability("Employee is not working on "+date, nil)
	}

	startMin, err := availability.ParseClock(startClock)
	if err != nil {
		return apperrors.InvalidInput("start must be in HH:MM 24-hour format")
	}

	if _, ok := availability.WindowContaining(windows, startMin, startMin+durationMin); !ok {
		var parts []string
		for _, w := range windows {
			parts = append(parts, w.Start+"-"+w.End)
		}
		return apperrors.Availability(
			"Requested time is outside working hours",
			map[string]any{"windows": strings.Join(parts, ", ")},
		)
	}
	return nil
}

// ensureNoConflict enforces the half-open overlap rule against the active
// appointments on the book. excludeID skips the appointment being moved.
func (s *appointmentService) ensureNoConflict(ctx context.Context, employeeID string, start, end time.Time, excludeID string) error {
	existing, err := s.repo.FindActiveInRange(ctx, employeeID, start, end)
	if err != nil {
		return apperrors.Internal("Failed to check existing appointments", err)
	}

	for _, e := range existing {
		if e.ID == excludeID {
			continue
		}
		return apperrors.Availability(fmt.Sprintf(
			"This time slot is already taken (%s - %s)",
			e.StartTime.Format(time.RFC3339),
			e.EndTime.Format(time.RFC3339),
		), nil)
	}
	return nil
}

// acquireSlotLock takes the advisory lock for one employee and calendar
// date. The lock must be date-grained, not slot-grained: the transactional
// conflict check reads a snapshot and cannot see a concurrent insert that
// has not committed, so overlapping ranges on the same day have to contend
// on a single lock.
func (s *appointmentService) acquireSlotLock(ctx context.Context, employeeID string, start time.Time) (string, error) {
	lockID := fmt.Sprintf("slot_%s_%s", employeeID, start.UTC().Format("2006-01-02"))
	busy := apperrors.Availability("This time slot is currently being booked by another request. Please try again.", nil)
	return s.acquireLock(ctx, lockID, busy)
}

// acquireAppointmentLock serializes mutations on one appointment so two
// actors acting on it concurrently cannot lose each other's update.
func (s *appointmentService) acquireAppointmentLock(ctx context.Context, id string) (string, error) {
	lockID := fmt.Sprintf("appt_%s", id)
	busy := apperrors.Conflict("This appointment is being modified by another request. Please try again.")
	return s.acquireLock(ctx, lockID, busy)
}

func (s *appointmentService) acquireLock(ctx context.Context, lockID string, busy *apperrors.AppError) (string, error) {
	lock := &model.BookingLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(s.cfg.BookingLockTTL),
	}

	if _, err := s.lockRepo.Create(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", busy
		}
		return "", apperrors.Internal("Failed to acquire booking lock", err)
	}

	return lockID, nil
}

func (s *appointmentService) releaseLock(ctx context.Context, lockID string) {
	if err := s.lockRepo.Delete(ctx, lockID); err != nil {
		s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", err)
	}
}

func (s *appointmentService) busyForDate(ctx context.Context, employeeID, date string) ([]availability.Busy, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, apperrors.InvalidInput("Date must be in YYYY-MM-DD format")
	}
	from := day.UTC()
	to := from.Add(24 * time.Hour)

	appointments, err := s.repo.FindActiveInRange(ctx, employeeID, from, to)
	if err != nil {
		s.cfg.Log.Error("Failed to load appointments for slot generation",
			"employee_id", employeeID,
			"date", date,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to load appointments", err)
	}

	busy := make([]availability.Busy, 0, len(appointments))
	for _, a := range appointments {
		startMin := 0
		if !a.StartTime.Before(from) {
			startMin = availability.MinutesOf(a.StartTime.UTC())
		}
		endMin := 24 * 60
		if a.EndTime.Before(to) {
			endMin = availability.MinutesOf(a.EndTime.UTC())
		}
		busy = append(busy, availability.Busy{StartMin: startMin, EndMin: endMin})
	}
	return busy, nil
}

func (s *appointmentService) load(ctx context.Context, id string) (*model.Appointment, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmentserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Appointment", id)
		}
		if errors.Is(err, appointmentserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid appointment ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve appointment", err)
	}
	return appt, nil
}

// authorize lets staff act on anything and clients act only on their own
// appointments. Guest appointments have no owner, so only staff touch them.
func (s *appointmentService) authorize(actor model.Actor, appt *model.Appointment) error {
	if actor.IsStaff() {
		return nil
	}
	if appt.OwnedBy(actor.ID) {
		return nil
	}
	return apperrors.Forbidden("You may only manage your own appointments")
}

func (s *appointmentService) sanitizeRequest(req *model.AppointmentRequest) {
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.Date = strings.TrimSpace(req.Date)
	req.Start = strings.TrimSpace(req.Start)
	req.Notes = sanitizer.NormalizeNotes(req.Notes)
}

func (s *appointmentService) sanitizeManualRequest(req *model.ManualAppointmentRequest) {
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.Date = strings.TrimSpace(req.Date)
	req.Start = strings.TrimSpace(req.Start)
	req.GuestName = sanitizer.NormalizeName(req.GuestName)
	req.GuestEmail = sanitizer.NormalizeEmail(req.GuestEmail)
	if req.GuestPhone != "" {
		req.GuestPhone = sanitizer.NormalizePhone(req.GuestPhone)
	}
	req.ClientID = strings.TrimSpace(req.ClientID)
	req.Notes = sanitizer.NormalizeNotes(req.Notes)
}

// guestContact picks the contact the manage token is bound to. Email is
// preferred when both are present.
func guestContact(appt *model.Appointment) string {
	if appt.GuestEmail != "" {
		return appt.GuestEmail
	}
	return appt.GuestPhone
}

// validTransition encodes the appointment lifecycle: pending confirms or
// cancels, confirmed completes or cancels, terminal states never move.
func validTransition(from, to string) bool {
	switch from {
	case model.StatusPending:
		return to == model.StatusConfirmed || to == model.StatusCancelled
	case model.StatusConfirmed:
		return to == model.StatusCompleted || to == model.StatusCancelled
	default:
		return false
	}
}

func combineDateTime(date, clock string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04", date+" "+clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date or time: %s %s", date, clock)
	}
	return t.UTC(), nil
}
