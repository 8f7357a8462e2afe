package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"slotbook/internal/availability"
	"slotbook/pkg/logger"
	"slotbook/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type AppointmentValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewAppointmentValidator(log *logger.Logger) *AppointmentValidator {
	v := validator.New()

	if err := v.RegisterValidation("time_of_day", validateTimeOfDay); err != nil {
		log.Fatal("Failed to register 'time_of_day' validator", "error", err)
	}
	if err := v.RegisterValidation("calendar_date", validateCalendarDate); err != nil {
		log.Fatal("Failed to register 'calendar_date' validator", "error", err)
	}

	log.Info("Appointment validator initialized successfully")

	return &AppointmentValidator{
		validate: v,
		logger:   log,
	}
}

func validateTimeOfDay(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return false
	}
	_, err := availability.ParseClock(value)
	return err == nil
}

func validateCalendarDate(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return false
	}
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}

func (v *AppointmentValidator) ValidateRequest(req *model.AppointmentRequest) error {
	return v.translate(v.validate.Struct(req))
}

func (v *AppointmentValidator) ValidateManualRequest(req *model.ManualAppointmentRequest) error {
	if err := v.translate(v.validate.Struct(req)); err != nil {
		return err
	}
	if req.GuestEmail == "" && req.GuestPhone == "" {
		return ValidationErrors{{
			Field:   "GuestEmail",
			Message: "at least one of guest_email or guest_phone is required",
		}}
	}
	return nil
}

func (v *AppointmentValidator) ValidateReschedule(req *model.RescheduleRequest) error {
	return v.translate(v.validate.Struct(req))
}

func (v *AppointmentValidator) ValidateStatusUpdate(req *model.StatusUpdateRequest) error {
	return v.translate(v.validate.Struct(req))
}

func (v *AppointmentValidator) ValidateAppointment(appt *model.Appointment) error {
	return v.translate(v.validate.Struct(appt))
}

func (v *AppointmentValidator) translate(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	var out ValidationErrors
	for _, e := range validationErrs {
		message := e.Error()
		switch e.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", e.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", e.Field(), e.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", e.Field())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid object ID", e.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param())
		case "time_of_day":
			message = fmt.Sprintf("%s must be in HH:MM 24-hour format", e.Field())
		case "calendar_date":
			message = fmt.Sprintf("%s must be in YYYY-MM-DD format", e.Field())
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", e.Field(), e.Param())
		}
		out = append(out, ValidationError{Field: e.Field(), Message: message})
	}
	return out
}
