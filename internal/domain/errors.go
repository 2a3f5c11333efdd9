package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery signals a malformed query or query parameter.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrUnsupportedOperation signals a method or operator outside the query vocabulary.
	ErrUnsupportedOperation = errors.New("unsupported operation")
	// ErrInvalidNestedWrapper signals a nested wrapper without exactly one child.
	ErrInvalidNestedWrapper = errors.New("invalid nested wrapper")
	// ErrMissingAggregateTarget signals an aggregate whose target is not a field.
	ErrMissingAggregateTarget = errors.New("missing aggregate target")
	// ErrAmbiguousProjection signals a projected name with no group field or aggregate.
	ErrAmbiguousProjection = errors.New("ambiguous projection")
)

// UnsupportedOperationError wraps ErrUnsupportedOperation with the offending name.
type UnsupportedOperationError struct {
	Name string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnsupportedOperation.Error(), e.Name)
}

func (e *UnsupportedOperationError) Unwrap() error { return ErrUnsupportedOperation }

// NewUnsupportedOperation creates an unsupported operation error.
func NewUnsupportedOperation(name string) error {
	return &UnsupportedOperationError{Name: name}
}

// MissingAggregateTargetError wraps ErrMissingAggregateTarget with the aggregate method.
type MissingAggregateTargetError struct {
	Method string
}

func (e *MissingAggregateTargetError) Error() string {
	return fmt.Sprintf("%s: %s needs a field selector", ErrMissingAggregateTarget.Error(), e.Method)
}

func (e *MissingAggregateTargetError) Unwrap() error { return ErrMissingAggregateTarget }

// NewMissingAggregateTarget creates a missing aggregate target error.
func NewMissingAggregateTarget(method string) error {
	return &MissingAggregateTargetError{Method: method}
}

// AmbiguousProjectionError wraps ErrAmbiguousProjection with the projected name.
type AmbiguousProjectionError struct {
	Name string
}

func (e *AmbiguousProjectionError) Error() string {
	return fmt.Sprintf("%s: %q matches no group field or aggregate", ErrAmbiguousProjection.Error(), e.Name)
}

func (e *AmbiguousProjectionError) Unwrap() error { return ErrAmbiguousProjection }

// NewAmbiguousProjection creates an ambiguous projection error.
func NewAmbiguousProjection(name string) error {
	return &AmbiguousProjectionError{Name: name}
}
