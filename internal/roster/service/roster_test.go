package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	rostererrors "slotbook/internal/roster/errors"
	"slotbook/internal/roster/validator"
	"slotbook/pkg/config"
	mongotx "slotbook/pkg/db/mongo"
	apperrors "slotbook/pkg/errors"
	"slotbook/pkg/logger"
	"slotbook/pkg/model"
)

type mockRosterRepository struct {
	createWeeklySlotFunc          func(ctx context.Context, slot *model.WeeklyAvailabilitySlot) error
	findWeeklySlotByIDFunc        func(ctx context.Context, id string) (*model.WeeklyAvailabilitySlot, error)
	findWeeklySlotsFunc           func(ctx context.Context, employeeID string) ([]*model.WeeklyAvailabilitySlot, error)
	findWeeklySlotsForWeekdayFunc func(ctx context.Context, employeeID string, weekday int) ([]*model.WeeklyAvailabilitySlot, error)
	updateWeeklySlotFunc          func(ctx context.Context, id string, slot *model.WeeklyAvailabilitySlot) error
	deleteWeeklySlotFunc          func(ctx context.Context, id string) error
	createExceptionFunc           func(ctx context.Context, exc *model.AvailabilityException) error
	findExceptionsFunc            func(ctx context.Context, employeeID string) ([]*model.AvailabilityException, error)
	findExceptionByDateFunc       func(ctx context.Context, employeeID string, date string) (*model.AvailabilityException, error)
	deleteExceptionFunc           func(ctx context.Context, id string) error
}

func (m *mockRosterRepository) CreateWeeklySlot(ctx context.Context, slot *model.WeeklyAvailabilitySlot) error {
	if m.createWeeklySlotFunc != nil {
		return m.createWeeklySlotFunc(ctx, slot)
	}
	slot.ID = "665f1f77bcf86cd799439099"
	return nil
}

func (m *mockRosterRepository) FindWeeklySlotByID(ctx context.Context, id string) (*model.WeeklyAvailabilitySlot, error) {
	if m.findWeeklySlotByIDFunc != nil {
		return m.findWeeklySlotByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockRosterRepository) FindWeeklySlots(ctx context.Context, employeeID string) ([]*model.WeeklyAvailabilitySlot, error) {
	if m.findWeeklySlotsFunc != nil {
		return m.findWeeklySlotsFunc(ctx, employeeID)
	}
	return []*model.WeeklyAvailabilitySlot{}, nil
}

func (m *mockRosterRepository) FindWeeklySlotsForWeekday(ctx context.Context, employeeID string, weekday int) ([]*model.WeeklyAvailabilitySlot, error) {
	if m.findWeeklySlotsForWeekdayFunc != nil {
		return m.findWeeklySlotsForWeekdayFunc(ctx, employeeID, weekday)
	}
	return []*model.WeeklyAvailabilitySlot{}, nil
}

func (m *mockRosterRepository) UpdateWeeklySlot(ctx context.Context, id string, slot *model.WeeklyAvailabilitySlot) error {
	if m.updateWeeklySlotFunc != nil {
		return m.updateWeeklySlotFunc(ctx, id, slot)
	}
	return nil
}

func (m *mockRosterRepository) DeleteWeeklySlot(ctx context.Context, id string) error {
	if m.deleteWeeklySlotFunc != nil {
		return m.deleteWeeklySlotFunc(ctx, id)
	}
	return nil
}

func (m *mockRosterRepository) CreateException(ctx context.Context, exc *model.AvailabilityException) error {
	if m.createExceptionFunc != nil {
		return m.createExceptionFunc(ctx, exc)
	}
	exc.ID = "665f1f77bcf86cd799439098"
	return nil
}

func (m *mockRosterRepository) FindExceptions(ctx context.Context, employeeID string) ([]*model.AvailabilityException, error) {
	if m.findExceptionsFunc != nil {
		return m.findExceptionsFunc(ctx, employeeID)
	}
	return []*model.AvailabilityException{}, nil
}

func (m *mockRosterRepository) FindExceptionByDate(ctx context.Context, employeeID string, date string) (*model.AvailabilityException, error) {
	if m.findExceptionByDateFunc != nil {
		return m.findExceptionByDateFunc(ctx, employeeID, date)
	}
	return nil, nil
}

func (m *mockRosterRepository) DeleteException(ctx context.Context, id string) error {
	if m.deleteExceptionFunc != nil {
		return m.deleteExceptionFunc(ctx, id)
	}
	return nil
}

func (m *mockRosterRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

func newTestService(repo *mockRosterRepository) RosterService {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "roster-test",
	})
	cfg := &config.Config{
		Log:          log,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return NewRosterService(repo, validator.NewRosterValidator(log), cfg)
}

var staff = model.Actor{ID: "staff-1", Role: model.RoleStaff}
var client = model.Actor{ID: "client-1", Role: model.RoleClient}

func TestAddWeeklySlot_RejectsNonStaff(t *testing.T) {
	svc := newTestService(&mockRosterRepository{})

	slot := &model.WeeklyAvailabilitySlot{
		EmployeeID: "507f1f77bcf86cd799439011",
		Weekday:    1,
		StartTime:  "09:00",
		EndTime:    "17:00",
		Available:  true,
		Recurring:  true,
	}

	err := svc.AddWeeklySlot(context.Background(), client, slot)
	if !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestAddWeeklySlot_RejectsOverlap(t *testing.T) {
	repo := &mockRosterRepository{
		findWeeklySlotsForWeekdayFunc: func(ctx context.Context, employeeID string, weekday int) ([]*model.WeeklyAvailabilitySlot, error) {
			return []*model.WeeklyAvailabilitySlot{
				{ID: "aaaaaaaaaaaaaaaaaaaaaaaa", StartTime: "08:00", EndTime: "12:00"},
			}, nil
		},
	}
	svc := newTestService(repo)

	slot := &model.WeeklyAvailabilitySlot{
		EmployeeID: "507f1f77bcf86cd799439011",
		Weekday:    1,
		StartTime:  "11:00",
		EndTime:    "15:00",
		Available:  true,
		Recurring:  true,
	}

	err := svc.AddWeeklySlot(context.Background(), staff, slot)
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestAddWeeklySlot_AllowsTouchingSlots(t *testing.T) {
	created := false
	repo := &mockRosterRepository{
		findWeeklySlotsForWeekdayFunc: func(ctx context.Context, employeeID string, weekday int) ([]*model.WeeklyAvailabilitySlot, error) {
			return []*model.WeeklyAvailabilitySlot{
				{ID: "aaaaaaaaaaaaaaaaaaaaaaaa", StartTime: "08:00", EndTime: "12:00"},
			}, nil
		},
		createWeeklySlotFunc: func(ctx context.Context, slot *model.WeeklyAvailabilitySlot) error {
			created = true
			return nil
		},
	}
	svc := newTestService(repo)

	slot := &model.WeeklyAvailabilitySlot{
		EmployeeID: "507f1f77bcf86cd799439011",
		Weekday:    1,
		StartTime:  "12:00",
		EndTime:    "16:00",
		Available:  true,
		Recurring:  true,
	}

	if err := svc.AddWeeklySlot(context.Background(), staff, slot); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected the slot to be created")
	}
}

func TestAddWeeklySlot_RejectsInvertedTimes(t *testing.T) {
	svc := newTestService(&mockRosterRepository{})

	slot := &model.WeeklyAvailabilitySlot{
		EmployeeID: "507f1f77bcf86cd799439011",
		Weekday:    1,
		StartTime:  "17:00",
		EndTime:    "09:00",
		Available:  true,
		Recurring:  true,
	}

	err := svc.AddWeeklySlot(context.Background(), staff, slot)
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetException_DuplicateDateConflicts(t *testing.T) {
	repo := &mockRosterRepository{
		createExceptionFunc: func(ctx context.Context, exc *model.AvailabilityException) error {
			return rosterDuplicateErr()
		},
	}
	svc := newTestService(repo)

	exc := &model.AvailabilityException{
		EmployeeID: "507f1f77bcf86cd799439011",
		Date:       "2026-09-07",
		Available:  false,
	}

	err := svc.SetException(context.Background(), staff, exc)
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestSetException_UnavailableWithHoursRejected(t *testing.T) {
	svc := newTestService(&mockRosterRepository{})

	exc := &model.AvailabilityException{
		EmployeeID: "507f1f77bcf86cd799439011",
		Date:       "2026-09-07",
		Available:  false,
		StartTime:  "10:00",
		EndTime:    "14:00",
	}

	err := svc.SetException(context.Background(), staff, exc)
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestWindowsForDate_ExceptionOverridesWeekly(t *testing.T) {
	repo := &mockRosterRepository{
		findExceptionByDateFunc: func(ctx context.Context, employeeID string, date string) (*model.AvailabilityException, error) {
			return &model.AvailabilityException{
				EmployeeID: employeeID,
				Date:       date,
				Available:  false,
			}, nil
		},
		findWeeklySlotsForWeekdayFunc: func(ctx context.Context, employeeID string, weekday int) ([]*model.WeeklyAvailabilitySlot, error) {
			return []*model.WeeklyAvailabilitySlot{
				{StartTime: "09:00", EndTime: "17:00", Available: true, Recurring: true},
			}, nil
		},
	}
	svc := newTestService(repo)

	// 2026-09-07 is a Monday.
	windows, err := svc.WindowsForDate(context.Background(), "507f1f77bcf86cd799439011", "2026-09-07")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) != 0 {
		t.Fatalf("expected no windows on a day off, got %v", windows)
	}
}

func TestWindowsForDate_QueriesCorrectWeekday(t *testing.T) {
	var gotWeekday int
	repo := &mockRosterRepository{
		findExceptionByDateFunc: func(ctx context.Context, employeeID string, date string) (*model.AvailabilityException, error) {
			return nil, rosterNotFoundErr()
		},
		findWeeklySlotsForWeekdayFunc: func(ctx context.Context, employeeID string, weekday int) ([]*model.WeeklyAvailabilitySlot, error) {
			gotWeekday = weekday
			return nil, nil
		},
	}
	svc := newTestService(repo)

	// 2026-09-09 is a Wednesday.
	if _, err := svc.WindowsForDate(context.Background(), "507f1f77bcf86cd799439011", "2026-09-09"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotWeekday != 3 {
		t.Errorf("expected weekday 3, got %d", gotWeekday)
	}
}

func TestWindowsForDate_BadDate(t *testing.T) {
	svc := newTestService(&mockRosterRepository{})

	_, err := svc.WindowsForDate(context.Background(), "507f1f77bcf86cd799439011", "07/09/2026")
	if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestUpdateWeeklySlot_MergePreservesIdentity(t *testing.T) {
	var updated *model.WeeklyAvailabilitySlot
	repo := &mockRosterRepository{
		findWeeklySlotByIDFunc: func(ctx context.Context, id string) (*model.WeeklyAvailabilitySlot, error) {
			return &model.WeeklyAvailabilitySlot{
				ID:         id,
				EmployeeID: "507f1f77bcf86cd799439011",
				Weekday:    2,
				StartTime:  "09:00",
				EndTime:    "17:00",
				Available:  true,
				Recurring:  true,
			}, nil
		},
		updateWeeklySlotFunc: func(ctx context.Context, id string, slot *model.WeeklyAvailabilitySlot) error {
			updated = slot
			return nil
		},
	}
	svc := newTestService(repo)

	err := svc.UpdateWeeklySlot(context.Background(), staff, "665f1f77bcf86cd799439099", &model.WeeklySlotUpdate{
		EndTime: "13:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated == nil {
		t.Fatal("expected update to reach the repository")
	}
	if updated.StartTime != "09:00" || updated.EndTime != "13:00" {
		t.Errorf("unexpected merged times: %s-%s", updated.StartTime, updated.EndTime)
	}
	if updated.EmployeeID != "507f1f77bcf86cd799439011" || updated.Weekday != 2 {
		t.Errorf("identity fields must not change: %+v", updated)
	}
}

func rosterDuplicateErr() error {
	return fmt.Errorf("%w: 507f1f77bcf86cd799439011 on 2026-09-07", rostererrors.ErrDuplicateException)
}

func rosterNotFoundErr() error {
	return fmt.Errorf("%w: no exception", rostererrors.ErrNotFound)
}
