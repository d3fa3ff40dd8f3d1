package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// Entity-specific variants (e.g., ErrUserNotFound) wrap it.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., a user with the same email). Resolvers treat it
	// as "already exists" and re-fetch by natural key.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored, or violates a storage constraint other than uniqueness.
	ErrInvalidEntity = errors.New("invalid entity")

	// Entity-specific "not found" errors

	ErrAgentNotFound            = fmt.Errorf("%w: agent", ErrNotFound)
	ErrUserNotFound             = fmt.Errorf("%w: user", ErrNotFound)
	ErrUserAccountNotFound      = fmt.Errorf("%w: user account", ErrNotFound)
	ErrPolicyCategoryNotFound   = fmt.Errorf("%w: policy category", ErrNotFound)
	ErrPolicyCarrierNotFound    = fmt.Errorf("%w: policy carrier", ErrNotFound)
	ErrPolicyNotFound           = fmt.Errorf("%w: policy", ErrNotFound)
	ErrScheduledMessageNotFound = fmt.Errorf("%w: scheduled message", ErrNotFound)

	// ErrScheduledMessageNotPending is returned by conditional transitions when
	// no pending message with the given job ID exists. The message is either
	// unknown or already terminal.
	ErrScheduledMessageNotPending = fmt.Errorf("%w: no pending scheduled message", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrEmailExists indicates that a user with the given email already exists.
	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)

	// ErrPolicyNumberExists indicates that a policy with the given number already exists.
	ErrPolicyNumberExists = fmt.Errorf("%w: policy number", ErrDuplicate)

	// ErrJobIDExists indicates that a scheduled message with the given job ID already exists.
	ErrJobIDExists = fmt.Errorf("%w: job id", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
// All entity-specific not found errors wrap ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
// All entity-specific duplicate errors wrap ErrDuplicate.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError records which entity and operation a storage failure came from.
// Err is the mapped cause, so errors.Is still matches the sentinels above.
type StoreError struct {
	Entity    string
	Operation string
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Operation, e.Entity, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err with the entity and operation that produced it.
// A nil err yields nil.
func NewStoreError(entity, operation string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Entity: entity, Operation: operation, Err: err}
}
