package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
	ErrConflict      = errors.New("conflict")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidToken  = fmt.Errorf("%w: invalid token", ErrUnauthorized)
	ErrTokenExpired  = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrTokenMismatch = fmt.Errorf("%w: token mismatch", ErrUnauthorized)
	ErrRequestClosed = fmt.Errorf("%w: request closed", ErrForbidden)
)

// Error carries a user-facing message and optional details on top of one of
// the sentinel errors above.
type Error struct {
	Err     error
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func NotFound(entity string) error {
	return &Error{Err: ErrNotFound, Message: entity + " not found"}
}

func Validation(message string, details map[string]any) error {
	return &Error{Err: ErrValidation, Message: message, Details: details}
}

func Conflict(message string) error {
	return &Error{Err: ErrConflict, Message: message}
}

func Forbidden(message string) error {
	return &Error{Err: ErrForbidden, Message: message}
}

// AsError returns the detailed error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var derr *Error
	if errors.As(err, &derr) {
		return derr, true
	}
	return nil, false
}
