package bookings

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	phonePattern = regexp.MustCompile(`^[\d\s\-\+\(\)]+$`)
	hhmmPattern  = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

const minPhoneDigits = 10

var fieldMessages = map[string]string{
	"required":   "Questo campo è obbligatorio",
	"email":      "Inserisci un'email valida",
	"phone":      "Inserisci un numero di telefono valido",
	"futuredate": "Seleziona una data futura",
	"hhmm":       "Inserisci un orario valido (HH:MM)",
	"bookable":   "Seleziona un servizio disponibile",
	"uuid":       "Identificativo non valido",
	"min":        "Valore troppo corto",
	"max":        "Valore troppo lungo",
}

// newValidator builds the request validator. today returns the current day in the
// booking timezone; bookable reports whether a service may be booked.
func newValidator(today func() time.Time, bookable func(string) bool) (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	rules := []rule{
		{tag: "phone", fn: func(fl validator.FieldLevel) bool {
			return validPhone(fl.Field().String())
		}},
		{tag: "hhmm", fn: func(fl validator.FieldLevel) bool {
			return hhmmPattern.MatchString(fl.Field().String())
		}},
		{tag: "futuredate", fn: func(fl validator.FieldLevel) bool {
			day, err := parseDay(fl.Field().String(), today().Location())
			if err != nil {
				return false
			}
			return !day.Before(today())
		}},
		{tag: "bookable", fn: func(fl validator.FieldLevel) bool {
			return bookable(fl.Field().String())
		}},
	}
	if err := registerRules(v, rules); err != nil {
		return nil, err
	}
	return v, nil
}

type rule struct {
	tag string
	fn  validator.Func
}

func registerRules(v *validator.Validate, rules []rule) error {
	for _, r := range rules {
		if err := v.RegisterValidation(r.tag, r.fn); err != nil {
			return fmt.Errorf("register %q validation: %w", r.tag, err)
		}
	}
	return nil
}

func validPhone(raw string) bool {
	if !phonePattern.MatchString(raw) {
		return false
	}
	digits := 0
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= minPhoneDigits
}

func parseDay(raw string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dateLayout, raw, loc)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// toValidationError converts validator output into field errors.
func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Tag()]
		if !ok {
			msg = "Valore non valido"
		}
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: msg,
		})
	}
	return &ValidationError{Fields: fields}
}
