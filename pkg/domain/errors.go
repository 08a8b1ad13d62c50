package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnauthorized is returned when an administrative operation runs without a
// current user from the session collaborator.
var ErrUnauthorized = errors.New("operation requires an authenticated user")

// ValidationError reports one or more invalid or missing fields on a form
// submission. It blocks the mutation and is surfaced inline to the caller.
type ValidationError struct {
	Entity EntityType
	Fields map[string]string
}

func (e ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s validation failed", e.Entity)
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return fmt.Sprintf("%s validation failed (%s)", e.Entity, strings.Join(parts, "; "))
}

// NewValidationError builds a single-field validation error.
func NewValidationError(entity EntityType, field, msg string) ValidationError {
	return ValidationError{Entity: entity, Fields: map[string]string{field: msg}}
}

// NotFoundError is returned when an operation references an identifier that is
// no longer present, such as a double delete.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// PersistenceError wraps a storage read or write failure. Mutations that hit
// one keep their in-memory effect; the snapshot mirror is simply stale.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }

// ExternalServiceError reports a failure from a collaborator outside the core
// (text completion, code capture). Remediation, when set, is user-facing
// guidance such as camera permission instructions.
type ExternalServiceError struct {
	Service     string
	Err         error
	Remediation string
}

func (e ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e ExternalServiceError) Unwrap() error { return e.Err }

// GenerationFailedError is returned when the coupon code generator exhausts
// its collision attempt budget.
type GenerationFailedError struct {
	Attempts int
}

func (e GenerationFailedError) Error() string {
	return fmt.Sprintf("code generation failed after %d attempts", e.Attempts)
}
