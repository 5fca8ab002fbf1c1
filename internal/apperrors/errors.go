package apperrors

import (
	"errors"
	"fmt"
)

// Kind is the stable machine-readable classification attached to every
// error returned by the registry services.
type Kind string

const (
	KindValidation  Kind = "VALIDATION_ERROR"
	KindConflict    Kind = "CONFLICT_ERROR"
	KindNotFound    Kind = "NOT_FOUND_ERROR"
	KindMint        Kind = "MINT_ERROR"
	KindPersistence Kind = "PERSISTENCE_ERROR"
)

// ValidationError reports bad input. It is always detected before any
// external call, so the operation has no side effects.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// NewValidation creates a ValidationError naming the offending field.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError reports a duplicate batch identifier. The caller recovers
// by choosing a new identifier.
type ConflictError struct {
	BatchID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("batch '%s' already exists", e.BatchID)
}

// NotFoundError reports an unknown batch identifier on verification.
type NotFoundError struct {
	BatchID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("batch '%s' not found in records", e.BatchID)
}

// MintError reports a failed ledger mint operation, carrying the gateway's
// reason. Registration aborts with no record store write.
type MintError struct {
	Reason string
	Err    error
}

func (e *MintError) Error() string {
	return fmt.Sprintf("ledger mint failed: %s", e.Reason)
}

func (e *MintError) Unwrap() error { return e.Err }

// PersistenceError reports a record store write that failed after a
// successful mint, once retries are exhausted. An asset now exists on the
// ledger that the system cannot account for; manual reconciliation is
// required.
type PersistenceError struct {
	BatchID string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist batch '%s' after successful mint: %v", e.BatchID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// KindOf classifies err into the error taxonomy. Unclassified errors
// return an empty Kind.
func KindOf(err error) Kind {
	var (
		ve *ValidationError
		ce *ConflictError
		ne *NotFoundError
		me *MintError
		pe *PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &ce):
		return KindConflict
	case errors.As(err, &ne):
		return KindNotFound
	case errors.As(err, &me):
		return KindMint
	case errors.As(err, &pe):
		return KindPersistence
	default:
		return ""
	}
}
