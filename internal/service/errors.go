// Package service holds the Topic Store and the Todo Tree Engine.
//
// Every error returned from this package wraps exactly one of the sentinels
// below, so callers can classify failures with errors.Is.
package service

import (
	"errors"
	"fmt"

	"workspace/internal/repository"
)

var (
	// ErrUnauthorized means no identity was resolved for the caller.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation means a required field was missing or malformed.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound covers both missing records and records owned by someone else.
	ErrNotFound = errors.New("not found")

	// ErrInvalidOperation rejects structural changes such as self parenting or cycles.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrTransaction means a multi-write operation failed and was rolled back.
	ErrTransaction = errors.New("transaction aborted")

	// ErrDependency means the storage layer could not serve the request.
	ErrDependency = errors.New("storage unavailable")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func invalidOperation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, fmt.Sprintf(format, args...))
}

func isDomainError(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidOperation) ||
		errors.Is(err, ErrTransaction) ||
		errors.Is(err, ErrDependency)
}

// storageError classifies an error coming out of a single-record repository call.
func storageError(err error) error {
	switch {
	case err == nil:
		return nil
	case isDomainError(err):
		return err
	case errors.Is(err, repository.ErrTodoNotFound):
		return fmt.Errorf("%w: todo", ErrNotFound)
	case errors.Is(err, repository.ErrTopicNotFound):
		return fmt.Errorf("%w: topic", ErrNotFound)
	default:
		return fmt.Errorf("%w: %w", ErrDependency, err)
	}
}

// txError classifies an error that aborted a structural transaction.
func txError(err error) error {
	switch {
	case err == nil:
		return nil
	case isDomainError(err), errors.Is(err, repository.ErrTodoNotFound), errors.Is(err, repository.ErrTopicNotFound):
		return storageError(err)
	default:
		return fmt.Errorf("%w: %w", ErrTransaction, err)
	}
}
