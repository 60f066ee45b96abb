package feature

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when no record exists for an entity and category.
	ErrNotFound = errors.New("featurestore: record not found")

	// ErrNothingFound is returned when a multi-category read found no record at all.
	ErrNothingFound = errors.New("featurestore: no items found for requested categories")

	// ErrCategoryNotAllowed is returned when a category is outside the allow-list.
	ErrCategoryNotAllowed = errors.New("featurestore: category not allowed")

	// ErrEmptyFeatures is returned when a write carries no features.
	ErrEmptyFeatures = errors.New("featurestore: features cannot be empty")

	// ErrEmptyRequest is returned when a batch write carries no categories.
	ErrEmptyRequest = errors.New("featurestore: request body cannot be empty")

	// ErrEmptySelection is returned when a read names no features.
	ErrEmptySelection = errors.New("featurestore: feature list cannot be empty")

	// ErrInvalidEntity is returned for an empty entity identifier.
	ErrInvalidEntity = errors.New("featurestore: invalid entity value")

	// ErrInvalidEntityKind is returned for an entity kind other than bright_uid or account_id.
	ErrInvalidEntityKind = errors.New("featurestore: invalid entity type")

	// ErrInvalidCategory is returned for an empty or overlong category name.
	ErrInvalidCategory = errors.New("featurestore: invalid category")

	// ErrInvalidFeatureToken is returned for a feature token not shaped like "category:name".
	ErrInvalidFeatureToken = errors.New("featurestore: invalid feature format")
)

// MarshalError reports a value that cannot be converted to or from the storage format.
type MarshalError struct {
	// Decode is true when the failure happened while reading a stored attribute.
	Decode bool

	// Path locates the offending value (e.g. "data.scores[2]").
	Path string

	// Reason describes the failure.
	Reason string
}

func (e *MarshalError) Error() string {
	op := "marshal"
	if e.Decode {
		op = "unmarshal"
	}
	if e.Path == "" {
		return fmt.Sprintf("featurestore: %s value: %s", op, e.Reason)
	}
	return fmt.Sprintf("featurestore: %s value at %s: %s", op, e.Path, e.Reason)
}

// StoreError wraps a failed DynamoDB call.
type StoreError struct {
	Op    string
	Table string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("featurestore: dynamodb %s on %s: %v", e.Op, e.Table, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// CategoryError is returned when a category fails the read or write allow-list.
type CategoryError struct {
	Category string
	Op       string
	Allowed  []string
}

func (e *CategoryError) Error() string {
	return fmt.Sprintf("featurestore: category %q not allowed for %s, allowed categories: [%s]",
		e.Category, e.Op, strings.Join(e.Allowed, ", "))
}

func (e *CategoryError) Unwrap() error { return ErrCategoryNotAllowed }
