package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"roomreserve/pkg/logger"
	"roomreserve/pkg/model"

	"github.com/go-playground/validator/v10"
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

// Details renders the errors as a field → message map for API responses.
func (v ValidationErrors) Details() map[string]any {
	details := make(map[string]any, len(v))
	for _, err := range v {
		details[err.Field] = err.Message
	}
	return details
}

type ReservationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	log.Debug("Reservation validator initialized successfully")

	return &ReservationValidator{
		validate: v,
		logger:   log,
	}
}

func (v *ReservationValidator) ValidateRequest(req *model.ReservationRequest) error {
	if err := v.structErrors(req); err != nil {
		return err
	}
	if req.Recurrence != nil && req.Recurrence.EndDate != nil {
		if req.Recurrence.EndDate.Before(req.StartTime) {
			return ValidationErrors{{
				Field:   "recurrence.end_date",
				Message: "end_date must not be before start_time",
			}}
		}
	}
	return nil
}

// ValidateGuest checks the fields a booking without an authenticated principal must carry.
func (v *ReservationValidator) ValidateGuest(req *model.ReservationRequest) error {
	var errs ValidationErrors
	if strings.TrimSpace(req.GuestName) == "" {
		errs = append(errs, ValidationError{Field: "guest_name", Message: "guest_name is required"})
	}
	if strings.TrimSpace(req.GuestEmail) == "" {
		errs = append(errs, ValidationError{Field: "guest_email", Message: "guest_email is required"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *ReservationValidator) ValidateUpdate(update *model.ReservationUpdate) error {
	return v.structErrors(update)
}

func (v *ReservationValidator) Validate(reservation *model.Reservation) error {
	return v.structErrors(reservation)
}

func (v *ReservationValidator) structErrors(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *ReservationValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "unique":
			message = fmt.Sprintf("%s must not contain duplicates", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   fieldPath(err),
			Message: message,
		})
	}

	return validationErrors
}

// fieldPath drops the top-level struct name from the namespace, e.g.
// "ReservationRequest.guest_emails[1]" becomes "guest_emails[1]".
func fieldPath(err validator.FieldError) string {
	ns := err.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return err.Field()
}
