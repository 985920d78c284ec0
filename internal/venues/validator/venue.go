package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"quickcourt/pkg/logger"
	"quickcourt/pkg/model"
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

type VenueValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewVenueValidator(log *logger.Logger) *VenueValidator {
	v := validator.New()

	if err := v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return model.IsClock(fl.Field().String())
	}); err != nil {
		log.Fatal("Failed to register 'hhmm' validator",
			"error", err,
		)
	}

	log.Info("Venue validator initialized successfully")

	return &VenueValidator{
		validate: v,
		logger:   log,
	}
}

// Validate checks a fully merged venue before it is written.
func (v *VenueValidator) Validate(venue *model.Venue) error {
	if err := v.check(venue); err != nil {
		return err
	}

	var errs ValidationErrors
	for i, court := range venue.Courts {
		if _, err := model.NewTimeSlot(court.OperatingHours.Start, court.OperatingHours.End); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("Courts[%d].OperatingHours", i),
				Message: "closing time must be after opening time",
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *VenueValidator) ValidateUpdate(update *model.VenueUpdate) error {
	return v.check(update)
}

func (v *VenueValidator) ValidateStatusUpdate(update *model.VenueStatusUpdate) error {
	return v.check(update)
}

func (v *VenueValidator) ValidateReview(req *model.ReviewRequest) error {
	return v.check(req)
}

func (v *VenueValidator) check(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *VenueValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
		case "url":
			message = fmt.Sprintf("%s must be a valid URL", err.Field())
		case "hhmm":
			message = fmt.Sprintf("%s must be a 24-hour time in HH:MM format", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Namespace(),
			Message: message,
		})
	}

	return validationErrors
}
