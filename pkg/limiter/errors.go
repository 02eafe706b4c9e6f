package limiter

import (
	"errors"
	"fmt"
)

// ErrSyntax is matched by every *SyntaxError via errors.Is.
var ErrSyntax = errors.New("invalid filter syntax")

// SyntaxError reports a filter value without a recognized operator prefix.
type SyntaxError struct {
	Field string // Field the value was given for, empty when unknown
	Value string // Offending value
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid filter syntax: no operator in %q", e.Value)
	}
	return fmt.Sprintf("invalid filter syntax for field %q: no operator in %q", e.Field, e.Value)
}

// Is makes errors.Is(err, ErrSyntax) hold.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// NewSyntaxError creates a new SyntaxError.
func NewSyntaxError(field, value string) *SyntaxError {
	return &SyntaxError{Field: field, Value: value}
}

// StrategyError reports an unknown linearization strategy name.
type StrategyError struct {
	Name string
}

// Error implements the error interface.
func (e *StrategyError) Error() string {
	return fmt.Sprintf("unknown linearization strategy %q (expected %q or %q)", e.Name, Legacy, Grouped)
}
