package service

import (
	"errors"
	"fmt"
	"strings"

	"slotbook/internal/database"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("time slot is already booked")
)

// ValidationError is a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidationErrors collects several field errors.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// orNil keeps a nil ValidationErrors from turning into a non-nil error interface.
func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Fields flattens err into field errors when it is a validation failure.
func Fields(err error) ([]*ValidationError, bool) {
	var many ValidationErrors
	if errors.As(err, &many) {
		return many, true
	}
	var one *ValidationError
	if errors.As(err, &one) {
		return []*ValidationError{one}, true
	}
	return nil, false
}

// translate maps store sentinels onto the service taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, err.Error())
	case errors.Is(err, database.ErrSlotTaken):
		return fmt.Errorf("%w: %s", ErrConflict, err.Error())
	default:
		return err
	}
}
