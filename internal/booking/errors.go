package booking

import (
	"errors"
	"fmt"
)

// Terminal booking failures, mapped to HTTP statuses at the handler
// boundary.
var (
	ErrTherapistNotFound = errors.New("therapist not found")
	ErrPatientNotFound   = errors.New("patient not found")
	ErrChildNotFound     = errors.New("child not found")
	ErrSlotUnavailable   = errors.New("slot unavailable")
	ErrSlotAlreadyBooked = errors.New("slot already booked")
)

// InvalidInputError reports a malformed date, time slot or meeting type.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

func invalidInput(format string, args ...interface{}) error {
	return &InvalidInputError{Reason: fmt.Sprintf(format, args...)}
}

// IsInvalidInput reports whether err is an InvalidInputError.
func IsInvalidInput(err error) bool {
	var e *InvalidInputError
	return errors.As(err, &e)
}
