package repositories

import (
	"errors"
	"fmt"
)

// ErrNotFound marks every absent-document failure so callers can test with
// errors.Is regardless of which collection produced it.
var ErrNotFound = errors.New("document not found")

type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s/%s: document not found", e.Collection, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func NewNotFoundError(collection, id string) *NotFoundError {
	return &NotFoundError{Collection: collection, ID: id}
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ErrDuplicate marks unique-constraint violations so callers can test with
// errors.Is regardless of which collection produced them.
var ErrDuplicate = errors.New("duplicate document")

type DuplicateError struct {
	Collection string
	Field      string
	Value      string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s: duplicate %s %q", e.Collection, e.Field, e.Value)
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicate
}

func NewDuplicateError(collection, field, value string) *DuplicateError {
	return &DuplicateError{Collection: collection, Field: field, Value: value}
}

func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
