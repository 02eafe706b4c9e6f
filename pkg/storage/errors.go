package storage

import (
	"fmt"

	"mercator-hq/magicbox/pkg/schema"
)

// StorageError represents an error from a storage backend.
type StorageError struct {
	Backend   string // Storage backend type ("sqlite", "memory")
	Operation string // Operation that failed ("list", "insert", "delete", etc.)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// CoercionError reports an operand that cannot be converted to the type of
// the field it is compared with.
type CoercionError struct {
	Field string
	Value string
	Type  string
	Cause error
}

// Error implements the error interface.
func (e *CoercionError) Error() string {
	return fmt.Sprintf("cannot use %q as %s for field %q: %v", e.Value, e.Type, e.Field, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *CoercionError) Unwrap() error {
	return e.Cause
}

// UnknownModelError reports a prefetch path or query naming something the
// schema does not have.
type UnknownModelError struct {
	Model string
	Name  string
}

// Error implements the error interface.
func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("model %q has no field or relation %q", e.Model, e.Name)
}

// MissingKeyError reports an insert without a primary key of a type no
// backend can generate.
type MissingKeyError struct {
	Model string
	Field string
	Type  schema.FieldType
}

// Error implements the error interface.
func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("primary key %q of type %s must be provided", e.Field, e.Type)
}

// CheckPrimaryKey returns a *MissingKeyError when rec has no primary key
// for m and the key is neither an integer nor a uuid.
func CheckPrimaryKey(m *schema.Model, rec Record) error {
	if rec[m.PrimaryKey] != nil {
		return nil
	}
	switch m.PrimaryKeyType {
	case schema.TypeInteger, schema.TypeUUID:
		return nil
	}
	return &MissingKeyError{Model: m.Name, Field: m.PrimaryKey, Type: m.PrimaryKeyType}
}
