package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotPending   = errors.New("request is not pending")
	ErrConflict     = errors.New("conflict")
	ErrStore        = errors.New("store error")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	fields := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		fields = append(fields, fe.Field)
	}
	return fmt.Sprintf("validation: %d errors (%s)", len(e.Errors), strings.Join(fields, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// StageError is returned when an actor may not decide a request at its
// current stage. It always matches ErrUnauthorized; when the request has
// already left the pending state it also matches ErrNotPending.
type StageError struct {
	RequestID    string
	ActorID      string
	ActorStage   Stage
	CurrentStage Stage
	Status       LeaveStatus
}

func (e *StageError) Error() string {
	if e.Status != LeaveStatusPending {
		return fmt.Sprintf("unauthorized: leave %s is %s, not pending", e.RequestID, e.Status)
	}
	return fmt.Sprintf("unauthorized: actor %s acts at stage %q but leave %s is at stage %q",
		e.ActorID, e.ActorStage, e.RequestID, e.CurrentStage)
}

func (e *StageError) Unwrap() []error {
	if e.Status != LeaveStatusPending {
		return []error{ErrUnauthorized, ErrNotPending}
	}
	return []error{ErrUnauthorized}
}
