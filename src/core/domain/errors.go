package domain

import (
	"errors"
	"fmt"
)

// Base error categories. Transport layers map these to status codes.
var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized is returned when the caller could not be identified.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller lacks permission for the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when the request does not fit the current game state.
	ErrConflict = errors.New("conflict")
)

// Game rejections. Each one wraps a base category so errors.Is works on both.
var (
	ErrNoGame             = &DomainError{Base: ErrNotFound, Message: "no active game in this group"}
	ErrAlreadyActive      = &DomainError{Base: ErrConflict, Message: "a game is already running in this group"}
	ErrAlreadyInOtherGame = &DomainError{Base: ErrConflict, Message: "user is already playing in another group"}
	ErrAlreadyJoined      = &DomainError{Base: ErrConflict, Message: "user already joined this game"}
	ErrPhaseClosed        = &DomainError{Base: ErrConflict, Message: "join phase is closed"}
	ErrFull               = &DomainError{Base: ErrConflict, Message: "game is full"}
	ErrNotMember          = &DomainError{Base: ErrNotFound, Message: "user is not part of this game"}
	ErrNotEnoughPlayers   = &DomainError{Base: ErrConflict, Message: "not enough players joined"}
	ErrNotInRound         = &DomainError{Base: ErrConflict, Message: "user cannot pick right now"}
	ErrNotAdmin           = &DomainError{Base: ErrForbidden, Message: "only group admins can do this"}
	ErrInvalidPick        = &DomainError{Base: ErrInvalidInput, Message: "pick must be a plain number between 0 and 100", Field: "value"}
	ErrInvalidExtension   = &DomainError{Base: ErrInvalidInput, Message: "extension must be a positive number of seconds within the cap", Field: "seconds"}
)

// DomainError wraps a base error with additional context.
type DomainError struct {
	// Base is the underlying error (a category or another DomainError).
	Base error

	// Message provides human-readable context
	Message string

	// Field indicates which field caused the error (for validation errors)
	Field string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	switch {
	case e.Message != "" && e.Field != "":
		return fmt.Sprintf("%s (field: %s)", e.Message, e.Field)
	case e.Message != "":
		return e.Message
	default:
		return e.Base.Error()
	}
}

// Unwrap returns the base error for errors.Is/As support.
func (e *DomainError) Unwrap() error {
	return e.Base
}

// Because narrows a rejection with a more specific reason while keeping it
// matchable against base.
func Because(base error, message string) *DomainError {
	de := &DomainError{Base: base, Message: message}
	var inner *DomainError
	if errors.As(base, &inner) {
		de.Field = inner.Field
	}
	return de
}

// NewNotFoundError creates a not found error with context.
func NewNotFoundError(resource string) *DomainError {
	return &DomainError{
		Base:    ErrNotFound,
		Message: resource + " not found",
	}
}

// NewValidationError creates a validation error for a specific field.
func NewValidationError(field, message string) *DomainError {
	return &DomainError{
		Base:    ErrInvalidInput,
		Message: message,
		Field:   field,
	}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConflict checks if an error is a conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsForbidden checks if an error is a forbidden error.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsUnauthorized checks if an error is unauthorized.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsRejection reports whether err is an expected user-facing rejection rather
// than an infrastructure failure.
func IsRejection(err error) bool {
	return IsNotFound(err) || IsValidationError(err) || IsConflict(err) || IsForbidden(err) || IsUnauthorized(err)
}
