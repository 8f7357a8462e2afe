package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"slotbook/internal/availability"
	rostererrors "slotbook/internal/roster/errors"
	"slotbook/internal/roster/repository"
	"slotbook/internal/roster/validator"
	"slotbook/pkg/config"
	apperrors "slotbook/pkg/errors"
	"slotbook/pkg/model"
	"slotbook/pkg/sanitizer"
)

type RosterService interface {
	AddWeeklySlot(ctx context.Context, actor model.Actor, slot *model.WeeklyAvailabilitySlot) error
	GetWeeklySchedule(ctx context.Context, employeeID string) ([]*model.WeeklyAvailabilitySlot, error)
	UpdateWeeklySlot(ctx context.Context, actor model.Actor, id string, updates *model.WeeklySlotUpdate) error
	RemoveWeeklySlot(ctx context.Context, actor model.Actor, id string) error
	SetException(ctx context.Context, actor model.Actor, exc *model.AvailabilityException) error
	GetExceptions(ctx context.Context, employeeID string) ([]*model.AvailabilityException, error)
	RemoveException(ctx context.Context, actor model.Actor, id string) error
	WindowsForDate(ctx context.Context, employeeID string, date string) ([]model.Window, error)
}

type rosterService struct {
	repo      repository.RosterRepository
	validator *validator.RosterValidator
	cfg       *config.Config
}

func NewRosterService(
	repo repository.RosterRepository,
	validator *validator.RosterValidator,
	cfg *config.Config,
) RosterService {
	return &rosterService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *rosterService) AddWeeklySlot(ctx context.Context, actor model.Actor, slot *model.WeeklyAvailabilitySlot) error {
	if !actor.IsStaff() {
		return apperrors.Forbidden("Only staff may manage the roster")
	}

	s.sanitizeSlot(slot)
	if err := s.validator.ValidateWeeklySlot(slot); err != nil {
		s.cfg.Log.Warn("Weekly slot validation failed",
			"employee_id", slot.EmployeeID,
			"weekday", slot.Weekday,
			"error", err,
		)
		return apperrors.Validation("Weekly slot validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.ensureNoWeekdayOverlap(sessCtx, slot, ""); err != nil {
			return err
		}
		return s.repo.CreateWeeklySlot(sessCtx, slot)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to add weekly slot",
			"employee_id", slot.EmployeeID,
			"weekday", slot.Weekday,
			"actor_id", actor.ID,
			"error", err,
		)
		return err
	}

	s.cfg.Log.Info("Weekly slot added",
		"id", slot.ID,
		"employee_id", slot.EmployeeID,
		"weekday", slot.Weekday,
		"start_time", slot.StartTime,
		"end_time", slot.EndTime,
		"actor_id", actor.ID,
	)
	return nil
}

func (s *rosterService) GetWeeklySchedule(ctx context.Context, employeeID string) ([]*model.WeeklyAvailabilitySlot, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, apperrors.InvalidInput("Employee ID cannot be empty")
	}

	slots, err := s.repo.FindWeeklySlots(ctx, employeeID)
	if err != nil {
		s.cfg.Log.Error("Failed to get weekly schedule",
			"employee_id", employeeID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve weekly schedule", err)
	}
	return slots, nil
}

func (s *rosterService) UpdateWeeklySlot(ctx context.Context, actor model.Actor, id string, updates *model.WeeklySlotUpdate) error {
	if !actor.IsStaff() {
		return apperrors.Forbidden("Only staff may manage the roster")
	}
	if id == "" {
		return apperrors.InvalidInput("Slot ID cannot be empty")
	}

	existing, err := s.repo.FindWeeklySlotByID(ctx, id)
	if err != nil {
		return s.translateRepoError(err, "Weekly slot", id)
	}

	merged := s.mergeSlot(existing, updates)
	if err := s.validator.ValidateWeeklySlot(merged); err != nil {
		return apperrors.Validation("Weekly slot validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.ensureNoWeekdayOverlap(sessCtx, merged, id); err != nil {
			return err
		}
		if err := s.repo.UpdateWeeklySlot(sessCtx, id, merged); err != nil {
			return s.translateRepoError(err, "Weekly slot", id)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update weekly slot",
			"id", id,
			"actor_id", actor.ID,
			"error", err,
		)
		return err
	}

	s.cfg.Log.Info("Weekly slot updated", "id", id, "actor_id", actor.ID)
	return nil
}

func (s *rosterService) RemoveWeeklySlot(ctx context.Context, actor model.Actor, id string) error {
	if !actor.IsStaff() {
		return apperrors.Forbidden("Only staff may manage the roster")
	}
	if id == "" {
		return apperrors.InvalidInput("Slot ID cannot be empty")
	}

	if err := s.repo.DeleteWeeklySlot(ctx, id); err != nil {
		translated := s.translateRepoError(err, "Weekly slot", id)
		if apperrors.IsCode(translated, apperrors.CodeInternal) {
			s.cfg.Log.Error("Failed to remove weekly slot",
				"id", id,
				"actor_id", actor.ID,
				"error", err,
			)
		}
		return translated
	}

	s.cfg.Log.Info("Weekly slot removed", "id", id, "actor_id", actor.ID)
	return nil
}

func (s *rosterService) SetException(ctx context.Context, actor model.Actor, exc *model.AvailabilityException) error {
	if !actor.IsStaff() {
		return apperrors.Forbidden("Only staff may manage the roster")
	}

	s.sanitizeException(exc)
	if err := s.validator.ValidateException(exc); err != nil {
		s.cfg.Log.Warn("Exception validation failed",
			"employee_id", exc.EmployeeID,
			"date", exc.Date,
			"error", err,
		)
		return apperrors.Validation("Exception validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.CreateException(ctx, exc); err != nil {
		if errors.Is(err, rostererrors.ErrDuplicateException) {
			return apperrors.Conflict("An exception already exists for this employee and date")
		}
		s.cfg.Log.Error("Failed to set exception",
			"employee_id", exc.EmployeeID,
			"date", exc.Date,
			"actor_id", actor.ID,
			"error", err,
		)
		return apperrors.Internal("Failed to set exception", err)
	}

	s.cfg.Log.Info("Exception set",
		"id", exc.ID,
		"employee_id", exc.EmployeeID,
		"date", exc.Date,
		"available", exc.Available,
		"actor_id", actor.ID,
	)
	return nil
}

func (s *rosterService) GetExceptions(ctx context.Context, employeeID string) ([]*model.AvailabilityException, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, apperrors.InvalidInput("Employee ID cannot be empty")
	}

	excs, err := s.repo.FindExceptions(ctx, employeeID)
	if err != nil {
		s.cfg.Log.Error("Failed to get exceptions",
			"employee_id", employeeID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve exceptions", err)
	}
	return excs, nil
}

func (s *rosterService) RemoveException(ctx context.Context, actor model.Actor, id string) error {
	if !actor.IsStaff() {
		return apperrors.Forbidden("Only staff may manage the roster")
	}
	if id == "" {
		return apperrors.InvalidInput("Exception ID cannot be empty")
	}

	if err := s.repo.DeleteException(ctx, id); err != nil {
		translated := s.translateRepoError(err, "Exception", id)
		if apperrors.IsCode(translated, apperrors.CodeInternal) {
			s.cfg.Log.Error("Failed to remove exception",
				"id", id,
				"actor_id", actor.ID,
				"error", err,
			)
		}
		return translated
	}

	s.cfg.Log.Info("Exception removed", "id", id, "actor_id", actor.ID)
	return nil
}

// WindowsForDate resolves the working windows of one employee on one date.
// Reads go through the same rules the slot generator uses: a same-date
// exception wins over the recurring weekly rows.
func (s *rosterService) WindowsForDate(ctx context.Context, employeeID string, date string) ([]model.Window, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, apperrors.InvalidInput("Employee ID cannot be empty")
	}
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, apperrors.InvalidInput("Date must be in YYYY-MM-DD format")
	}

	exception, err := s.repo.FindExceptionByDate(ctx, employeeID, date)
	if err != nil && !errors.Is(err, rostererrors.ErrNotFound) {
		s.cfg.Log.Error("Failed to look up exception",
			"employee_id", employeeID,
			"date", date,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to resolve availability", err)
	}

	weekly, err := s.repo.FindWeeklySlotsForWeekday(ctx, employeeID, int(day.Weekday()))
	if err != nil {
		s.cfg.Log.Error("Failed to look up weekly slots",
			"employee_id", employeeID,
			"date", date,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to resolve availability", err)
	}

	return availability.ResolveWindows(exception, weekly), nil
}

// ensureNoWeekdayOverlap rejects a slot that overlaps another slot for the
// same employee and weekday. Touching end/start boundaries are allowed.
func (s *rosterService) ensureNoWeekdayOverlap(ctx context.Context, slot *model.WeeklyAvailabilitySlot, excludeID string) error {
	existing, err := s.repo.FindWeeklySlotsForWeekday(ctx, slot.EmployeeID, slot.Weekday)
	if err != nil {
		return apperrors.Internal("Failed to check for overlapping slots", err)
	}

	start, _ := availability.ParseClock(slot.StartTime)
	end, _ := availability.ParseClock(slot.EndTime)

	for _, e := range existing {
		if e.ID == excludeID {
			continue
		}
		eStart, err := availability.ParseClock(e.StartTime)
		if err != nil {
			continue
		}
		eEnd, err := availability.ParseClock(e.EndTime)
		if err != nil {
			continue
		}
		if availability.Overlaps(start, end, eStart, eEnd) {
			return apperrors.Conflict("Weekly slot overlaps an existing slot for this employee and weekday")
		}
	}
	return nil
}

func (s *rosterService) translateRepoError(err error, entity string, id string) error {
	if errors.Is(err, rostererrors.ErrNotFound) {
		return apperrors.NotFoundWithID(entity, id)
	}
	if errors.Is(err, rostererrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid " + strings.ToLower(entity) + " ID format")
	}
	return apperrors.Internal("Roster operation failed", err)
}

func (s *rosterService) sanitizeSlot(slot *model.WeeklyAvailabilitySlot) {
	slot.EmployeeID = strings.TrimSpace(slot.EmployeeID)
	slot.StartTime = strings.TrimSpace(slot.StartTime)
	slot.EndTime = strings.TrimSpace(slot.EndTime)
}

func (s *rosterService) sanitizeException(exc *model.AvailabilityException) {
	exc.EmployeeID = strings.TrimSpace(exc.EmployeeID)
	exc.Date = strings.TrimSpace(exc.Date)
	exc.StartTime = strings.TrimSpace(exc.StartTime)
	exc.EndTime = strings.TrimSpace(exc.EndTime)
	exc.Reason = sanitizer.NormalizeNotes(exc.Reason)
}

func (s *rosterService) mergeSlot(existing *model.WeeklyAvailabilitySlot, updates *model.WeeklySlotUpdate) *model.WeeklyAvailabilitySlot {
	merged := *existing

	if updates.StartTime != "" {
		merged.StartTime = strings.TrimSpace(updates.StartTime)
	}
	if updates.EndTime != "" {
		merged.EndTime = strings.TrimSpace(updates.EndTime)
	}
	if updates.Available != nil {
		merged.Available = *updates.Available
	}
	if updates.Recurring != nil {
		merged.Recurring = *updates.Recurring
	}

	merged.ID = existing.ID
	merged.EmployeeID = existing.EmployeeID
	merged.Weekday = existing.Weekday
	merged.CreatedAt = existing.CreatedAt
	return &merged
}
