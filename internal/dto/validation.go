package dto

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/studymate-api/pkg/timeutil"
)

// Custom validation tags understood by the scheduling payloads.
const (
	TagClock   = "hhmm"
	TagDate    = "ymd"
	TagWeekday = "weekday"
)

// RegisterValidations installs the scheduling tags on v.
func RegisterValidations(v *validator.Validate) {
	_ = v.RegisterValidation(TagClock, func(fl validator.FieldLevel) bool {
		_, err := timeutil.ToMinutes(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation(TagDate, func(fl validator.FieldLevel) bool {
		_, err := timeutil.ParseDate(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation(TagWeekday, func(fl validator.FieldLevel) bool {
		return timeutil.Weekday(fl.Field().String()).Valid()
	})
}

// IsFormatError reports whether a validation failure came from a malformed
// date or clock value rather than a missing or out-of-range field.
func IsFormatError(err error) bool {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false
	}
	for _, fe := range verrs {
		if fe.Tag() == TagClock || fe.Tag() == TagDate {
			return true
		}
	}
	return false
}
