package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrFetch        ErrorType = "FETCH"
	ErrStore        ErrorType = "STORE"
	ErrNotFound     ErrorType = "NOT_FOUND"
	ErrInvalidInput ErrorType = "INVALID_INPUT"
)

// AppError represents an application error
type AppError struct {
	Type      ErrorType
	Message   string
	Cause     error
	Timestamp time.Time
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:      errType,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

func is(err error, errType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// IsFetch reports whether err is a network or decode failure from the search API.
func IsFetch(err error) bool {
	return is(err, ErrFetch)
}

// IsStore checks if the error came from the record store
func IsStore(err error) bool {
	return is(err, ErrStore)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return is(err, ErrNotFound)
}

// NewFetchError creates a new fetch error
func NewFetchError(message string, err error) *AppError {
	return New(ErrFetch, message, err)
}

// NewStoreError creates a new store error
func NewStoreError(message string, err error) *AppError {
	return New(ErrStore, message, err)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, err error) *AppError {
	return New(ErrNotFound, message, err)
}

// NewValidationError creates a new validation error
func NewValidationError(message string, err error) *AppError {
	return New(ErrInvalidInput, message, err)
}

// NotFoundError represents a lookup that matched no snapshot
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewResourceNotFoundError creates a NOT_FOUND AppError wrapping a NotFoundError
func NewResourceNotFoundError(resource, id string) error {
	return NewNotFoundError(fmt.Sprintf("%s %s", resource, id), &NotFoundError{
		Resource: resource,
		ID:       id,
	})
}
