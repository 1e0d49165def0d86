// Package validation checks entity attributes with go-playground/validator.
//
// Besides the built-in tags it registers:
//
//	notblank     string contains at least one non-space character
//	nowhitespace string contains no whitespace at all
//	notfuture    time is not after the current moment
//	cinemaepoch  time is not before the first public film screening (1895-12-28)
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/filmorate/backend/internal/models"
)

// CinemaEpoch is the earliest release date a film may have.
var CinemaEpoch = time.Date(1895, time.December, 28, 0, 0, 0, 0, time.UTC)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	// nowFunc is the clock used by notfuture.
	nowFunc = time.Now
)

// FieldError describes a single failed constraint.
type FieldError struct {
	Field   string
	Tag     string
	Message string
}

// Error lists every constraint an entity failed. It unwraps to models.ErrValidation.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return models.ErrValidation.Error()
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return fmt.Sprintf("%s: %s", models.ErrValidation, strings.Join(msgs, "; "))
}

func (e *Error) Unwrap() error {
	return models.ErrValidation
}

// Failed builds an Error for a single field outside of struct validation.
func Failed(field, message string) *Error {
	return &Error{Fields: []FieldError{{Field: field, Tag: "custom", Message: message}}}
}

func instance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		mustRegister(v, "nowhitespace", func(fl validator.FieldLevel) bool {
			return strings.IndexFunc(fl.Field().String(), unicode.IsSpace) < 0
		})
		mustRegister(v, "notfuture", func(fl validator.FieldLevel) bool {
			t, ok := fl.Field().Interface().(time.Time)
			return ok && !t.After(nowFunc())
		})
		mustRegister(v, "cinemaepoch", func(fl validator.FieldLevel) bool {
			t, ok := fl.Field().Interface().(time.Time)
			return ok && !t.Before(CinemaEpoch)
		})
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

// User validates the attributes of a user.
func User(u models.User) error {
	return check(u)
}

// Film validates the attributes of a film.
func Film(f models.Film) error {
	return check(f)
}

func check(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fieldLabel(fe),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

// fieldLabel drops the root struct name, e.g. "Film.MPA.ID" becomes "MPA.ID".
func fieldLabel(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	field := fieldLabel(fe)
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s must not be blank", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "nowhitespace":
		return fmt.Sprintf("%s must not contain whitespace", field)
	case "notfuture":
		return fmt.Sprintf("%s must not be in the future", field)
	case "cinemaepoch":
		return fmt.Sprintf("%s must not be before %s", field, CinemaEpoch.Format(time.DateOnly))
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
