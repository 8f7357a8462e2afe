package service

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	catalogerrors "slotbook/internal/catalog/errors"
	"slotbook/internal/catalog/repository"
	"slotbook/internal/catalog/validator"
	"slotbook/pkg/config"
	apperrors "slotbook/pkg/errors"
	"slotbook/pkg/model"
	"slotbook/pkg/sanitizer"
)

// AppointmentSweeper cancels the active appointments left dangling when an
// employee or service is removed from the catalog.
type AppointmentSweeper interface {
	CancelActiveByEmployee(ctx context.Context, employeeID string) (int64, error)
	CancelActiveByService(ctx context.Context, serviceID string) (int64, error)
}

type CatalogService interface {
	CreateEmployee(ctx context.Context, actor model.Actor, e *model.Employee) error
	GetEmployee(ctx context.Context, id string) (*model.Employee, error)
	ListEmployees(ctx context.Context, limit int, offset int) ([]*model.Employee, int64, error)
	UpdateEmployee(ctx context.Context, actor model.Actor, id string, e *model.Employee) error
	DeleteEmployee(ctx context.Context, actor model.Actor, id string) error

	CreateService(ctx context.Context, actor model.Actor, svc *model.Service) error
	GetService(ctx context.Context, id string) (*model.Service, error)
	ListServices(ctx context.Context, limit int, offset int) ([]*model.Service, int64, error)
	UpdateService(ctx context.Context, actor model.Actor, id string, svc *model.Service) error
	DeleteService(ctx context.Context, actor model.Actor, id string) error
}

type catalogService struct {
	employees repository.EmployeeRepository
	services  repository.ServiceRepository
	sweeper   AppointmentSweeper
	validator *validator.CatalogValidator
	cfg       *config.Config
}

func NewCatalogService(
	employees repository.EmployeeRepository,
	services repository.ServiceRepository,
	sweeper AppointmentSweeper,
	validator *validator.CatalogValidator,
	cfg *config.Config,
) CatalogService {
	return &catalogService{
		employees: employees,
		services:  services,
		sweeper:   sweeper,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *catalogService) CreateEmployee(ctx context.Context, actor model.Actor, e *model.Employee) error {
	if !actor.IsStaff() {
		return apperrors.Forbidden("Only staff may manage the catalog")
	}

	s.sanitizeEmployee(e)
	if err := s.validator.ValidateEmployee(e); err != nil {
		s.cfg.Log.Warn("Employee validation failed", "name", e.Name, "error", err)
		return apperrors.Validation("Employee validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.employees.Create(ctx, e); err != nil {
		s.cfg.Log.Error("Failed to create employee", "name", e.Name, "actor_id", actor.ID, "error", err)
		return apperrors.Internal("Failed to create employee", err)
	}

	s.cfg.Log.Info("Employee created", "id", e.ID, "name", e.Name, "actor_id", actor.ID)
	return nil
}

func (s *catalogService) GetEmployee(ctx context.Context, id string) (*model.Employee, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Employee ID cannot be empty")
	}

	e, err := s.employees.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateEmployeeError(err, id)
	}
	return e, nil
}

func (s *catalogService) ListEmployees(ctx context.Context, limit int, offset int) ([]*model.Employee, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	if offset < 0 {
		offset = 0
	}

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var employees []*model.Employee
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.employees.Count(sharedCtx)
	}()
	go func() {
		defer wg.Done()
		employees, errFind = s.employees.FindAll(sharedCtx, limit, offset)
	}()

	wg.Wait()
	if errCount != nil {
		s.cfg.Log.Error("Failed to count employees", "error", errCount)
		return nil, 0, apperrors.Internal("Failed to count employees", errCount)
	}
	if errFind != nil {
		s.cfg.Log.Error("Failed to list employees", "error", errFind)
		return nil, 0, apperrors.Internal("Failed to list employees", errFind)
	}
	return employees, count, nil
}

func (s *catalogService) UpdateEmployee(ctx context.Context, actor model.Actor, id string, e *model.Employee) error {
	if !actor.IsStaff() {
		return apperrors.Forbidden("Only staff may manage the catalog")
	}
	if id == "" {
		return apperrors.InvalidInput("Employee ID cannot be empty")
	}

	existing, err := s.employees.FindByID(ctx, id)
	if err != nil {
		return s.translateEmployeeError(err, id)
	}

	s.sanitizeEmployee(e)
	e.ID = existing.ID
	e.CreatedAt = existing.CreatedAt
	if err := s.validator.ValidateEmployee(e); err != nil {
		return apperrors.Validation("Employee validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.employees.Update(ctx, id, e); err != nil {
		s.cfg.Log.Error("Failed to update employee", "id", id, "actor_id", actor.ID, "error", err)
		return s.translateEmployeeError(err, id)
	}

	s.cfg.Log.Info("Employee updated", "id", id, "actor_id", actor.ID)
	return nil
}

// DeleteEmployee removes the employee and cancels their remaining active
// appointments in the same transaction, so no booking survives pointing at a
// missing employee.
func (s *catalogService) DeleteEmployee(ctx context.Context, actor model.Actor, id string) error {
	if !actor.IsStaff() {
		return apperrors.Forbidden("Only staff may manage the catalog")
	}
	if id == "" {
		return apperrors.InvalidInput("Employee ID cannot be empty")
	}

	var cancelled int64
	err := s.employees.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.employees.Delete(sessCtx, id); err != nil {
			return s.translateEmployeeError(err, id)
		}
		n, err := s.sweeper.CancelActiveByEmployee(sessCtx, id)
		if err != nil {
			return apperrors.Internal("Failed to cancel appointments for removed employee", err)
		}
		cancelled = n
		return nil
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeInternal) {
			s.cfg.Log.Error("Failed to delete employee", "id", id, "actor_id", actor.ID, "error", err)
		}
		return err
	}

	s.cfg.Log.Info("Employee deleted",
		"id", id,
		"cancelled_appointments", cancelled,
		"actor_id", actor.ID,
	)
	return nil
}

func (s *catalogService) CreateService(ctx context.Context, actor model.Actor, svc *model.Service) error {
	if !actor.IsStaff() {
		return apperrors.Forbidden("Only staff may manage the catalog")
	}

	s.sanitizeService(svc)
	if err := s.validator.ValidateService(svc); err != nil {
		s.cfg.Log.Warn("Service validation failed", "title", svc.Title, "error", err)
		return apperrors.Validation("Service validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.services.Create(ctx, svc); err != nil {
		s.cfg.Log.Error("Failed to create service", "title", svc.Title, "actor_id", actor.ID, "error", err)
		return apperrors.Internal("Failed to create service", err)
	}

	s.cfg.Log.Info("Service created", "id", svc.ID, "title", svc.Title, "actor_id", actor.ID)
	return nil
}

func (s *catalogService) GetService(ctx context.Context, id string) (*model.Service, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Service ID cannot be empty")
	}

	svc, err := s.services.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateServiceError(err, id)
	}
	return svc, nil
}

func (s *catalogService) ListServices(ctx context.Context, limit int, offset int) ([]*model.Service, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	if offset < 0 {
		offset = 0
	}

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var services []*model.Service
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.services.Count(sharedCtx)
	}()
	go func() {
		defer wg.Done()
		services, errFind = s.services.FindAll(sharedCtx, limit, offset)
	}()

	wg.Wait()
	if errCount != nil {
		s.cfg.Log.Error("Failed to count services", "error", errCount)
		return nil, 0, apperrors.Internal("Failed to count services", errCount)
	}
	if errFind != nil {
		s.cfg.Log.Error("Failed to list services", "error", errFind)
		return nil, 0, apperrors.Internal("Failed to list services", errFind)
	}
	return services, count, nil
}

func (s *catalogService) UpdateService(ctx context.Context, actor model.Actor, id string, svc *model.Service) error {
	if !actor.IsStaff() {
		return apperrors.Forbidden("Only staff may manage the catalog")
	}
	if id == "" {
		return apperrors.InvalidInput("Service ID cannot be empty")
	}

	existing, err := s.services.FindByID(ctx, id)
	if err != nil {
		return s.translateServiceError(err, id)
	}

	s.sanitizeService(svc)
	svc.ID = existing.ID
	svc.CreatedAt = existing.CreatedAt
	if err := s.validator.ValidateService(svc); err != nil {
		return apperrors.Validation("Service validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.services.Update(ctx, id, svc); err != nil {
		s.cfg.Log.Error("Failed to update service", "id", id, "actor_id", actor.ID, "error", err)
		return s.translateServiceError(err, id)
	}

	s.cfg.Log.Info("Service updated", "id", id, "actor_id", actor.ID)
	return nil
}

// DeleteService mirrors DeleteEmployee: the service row and its active
// appointments go together.
func (s *catalogService) DeleteService(ctx context.Context, actor model.Actor, id string) error {
	if !actor.IsStaff() {
		return apperrors.Forbidden("Only staff may manage the catalog")
	}
	if id == "" {
		return apperrors.InvalidInput("Service ID cannot be empty")
	}

	var cancelled int64
	err := s.services.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.services.Delete(sessCtx, id); err != nil {
			return s.translateServiceError(err, id)
		}
		n, err := s.sweeper.CancelActiveByService(sessCtx, id)
		if err != nil {
			return apperrors.Internal("Failed to cancel appointments for removed service", err)
		}
		cancelled = n
		return nil
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeInternal) {
			s.cfg.Log.Error("Failed to delete service", "id", id, "actor_id", actor.ID, "error", err)
		}
		return err
	}

	s.cfg.Log.Info("Service deleted",
		"id", id,
		"cancelled_appointments", cancelled,
		"actor_id", actor.ID,
	)
	return nil
}

func (s *catalogService) translateEmployeeError(err error, id string) error {
	if errors.Is(err, catalogerrors.ErrEmployeeNotFound) {
		return apperrors.NotFoundWithID("Employee", id)
	}
	if errors.Is(err, catalogerrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid employee ID format")
	}
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.Internal("Employee operation failed", err)
}

func (s *catalogService) translateServiceError(err error, id string) error {
	if errors.Is(err, catalogerrors.ErrServiceNotFound) {
		return apperrors.NotFoundWithID("Service", id)
	}
	if errors.Is(err, catalogerrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid service ID format")
	}
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.Internal("Service operation failed", err)
}

func (s *catalogService) sanitizeEmployee(e *model.Employee) {
	e.Name = sanitizer.NormalizeName(e.Name)
	e.Email = sanitizer.NormalizeEmail(e.Email)
	if e.Phone != "" {
		e.Phone = sanitizer.NormalizePhone(e.Phone)
	}
	e.ServiceIDs = sanitizer.DedupeIDs(e.ServiceIDs)
}

func (s *catalogService) sanitizeService(svc *model.Service) {
	svc.Title = sanitizer.NormalizeTitle(svc.Title)
}
