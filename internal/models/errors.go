package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure for callers deciding how to surface it.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindInvalidState
	KindInvalidInput
	KindPersistence
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindInvalidInput:
		return "invalid_input"
	case KindPersistence:
		return "persistence_failure"
	default:
		return "unknown"
	}
}

// Error is a business-rule failure returned by the lifecycle services.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Errors returned by the lifecycle services
var (
	ErrEventNotFound  = newError(KindNotFound, "event_not_found", "event not found")
	ErrUserNotFound   = newError(KindNotFound, "user_not_found", "user not found")
	ErrTicketNotFound = newError(KindNotFound, "ticket_not_found", "ticket not found")

	ErrEventNotActive          = newError(KindInvalidState, "event_not_active", "event is not active")
	ErrEventCancelled          = newError(KindInvalidState, "event_cancelled", "event is cancelled")
	ErrEventAlreadyOccurred    = newError(KindInvalidState, "event_already_occurred", "event already occurred or is in progress")
	ErrReservationWindowClosed = newError(KindInvalidState, "reservation_window_closed", "reservations are closed for this event")
	ErrValidationWindowNotOpen = newError(KindInvalidState, "validation_window_not_open", "ticket validation has not opened for this event")
	ErrInvalidTicketState      = newError(KindInvalidState, "invalid_ticket_state", "ticket is not in a state that allows this operation")
	ErrUserNotActive           = newError(KindInvalidState, "user_not_active", "user is not active")

	ErrInvalidUser          = newError(KindInvalidInput, "invalid_user", "user is not valid")
	ErrInvalidQuantity      = newError(KindInvalidInput, "invalid_quantity", "quantity must be greater than zero")
	ErrInsufficientCapacity = newError(KindInvalidInput, "insufficient_capacity", "not enough capacity available")
	ErrEmailInUse           = newError(KindInvalidInput, "email_in_use", "an active user with that email already exists")
	ErrInvalidInput         = newError(KindInvalidInput, "invalid_input", "invalid input")
)

// Errors returned by repositories
var (
	ErrRecordNotFound   = errors.New("record not found")
	ErrStatusConflict   = errors.New("record status changed concurrently")
	ErrInvalidEnumValue = errors.New("invalid enum value")
	ErrDuplicateCode    = errors.New("code already in use")
)

// CapacityError reports a rejected reservation together with the seats
// still available. It matches ErrInsufficientCapacity with errors.Is.
type CapacityError struct {
	Requested int
	Remaining int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("not enough capacity available (requested %d). Quedan %d lugares.", e.Requested, e.Remaining)
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrInsufficientCapacity
}

// ValidationError carries field-level messages for rejected input. It
// matches ErrInvalidInput with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Fields)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// PersistenceError wraps a storage failure that is neither a missing record
// nor a lost compare-and-update.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// WrapPersistence marks err as a storage failure. Nil and domain errors are
// returned unchanged.
func WrapPersistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var domainErr *Error
	var pe *PersistenceError
	if errors.As(err, &domainErr) || errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// KindOf reports the kind of err. Errors that carry no kind are treated as
// persistence failures.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}

	var capErr *CapacityError
	var valErr *ValidationError
	switch {
	case errors.As(err, &capErr), errors.As(err, &valErr):
		return KindInvalidInput
	case errors.Is(err, ErrRecordNotFound):
		return KindNotFound
	case errors.Is(err, ErrStatusConflict):
		return KindInvalidState
	default:
		return KindPersistence
	}
}

// CodeOf returns the stable machine-readable code for err.
func CodeOf(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}

	var capErr *CapacityError
	var valErr *ValidationError
	switch {
	case errors.As(err, &capErr):
		return ErrInsufficientCapacity.Code
	case errors.As(err, &valErr):
		return ErrInvalidInput.Code
	case errors.Is(err, ErrRecordNotFound):
		return "not_found"
	case errors.Is(err, ErrStatusConflict):
		return "status_conflict"
	default:
		return "persistence_failure"
	}
}
