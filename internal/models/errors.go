package models

import (
	"errors"
	"fmt"
	"time"
)

// Custom errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key violation")
)

// NotFoundError reports a missing entity by name and, when known, its ID.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	if e.ID > 0 {
		return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Entity)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError creates a NotFoundError for the given entity
func NewNotFoundError(entity string, id int64) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError reports a rejected input value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return "validation failed: " + e.Message
}

// NewValidationError creates a ValidationError for the given field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// WindowClosedReason distinguishes why a pick was refused on timing grounds.
type WindowClosedReason string

const (
	WindowTooEarly WindowClosedReason = "too_early"
	WindowTooLate  WindowClosedReason = "too_late"
)

// PickWindowClosedError is returned when a pick is submitted outside the race's
// pick window. OpensAt is only populated for too_early rejections.
type PickWindowClosedError struct {
	Reason  WindowClosedReason
	OpensAt *time.Time
}

func (e *PickWindowClosedError) Error() string {
	if e.Reason == WindowTooEarly && e.OpensAt != nil {
		return fmt.Sprintf("pick window not open yet, opens at %s", e.OpensAt.UTC().Format(time.RFC3339))
	}
	return fmt.Sprintf("pick window closed: %s", e.Reason)
}

// DriverUnavailableError is returned when the requested driver has already been
// used by the same user in a non-wild-card race this season.
type DriverUnavailableError struct {
	DriverID int64
}

func (e *DriverUnavailableError) Error() string {
	return fmt.Sprintf("driver %d already used this season", e.DriverID)
}

// ConflictError reports a state transition that the current entity state forbids.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return "conflict: " + e.Message }
