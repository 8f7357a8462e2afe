package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

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

type CatalogValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewCatalogValidator(log *logger.Logger) *CatalogValidator {
	return &CatalogValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *CatalogValidator) ValidateEmployee(e *model.Employee) error {
	return v.translate(v.validate.Struct(e))
}

func (v *CatalogValidator) ValidateService(svc *model.Service) error {
	return v.translate(v.validate.Struct(svc))
}

func (v *CatalogValidator) translate(err error) error {
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
		case "e164":
			message = fmt.Sprintf("%s must be an E.164 phone number", e.Field())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid object ID", e.Field())
		}
		out = append(out, ValidationError{Field: e.Field(), Message: message})
	}
	return out
}
