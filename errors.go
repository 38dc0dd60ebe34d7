package gobang

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// Violation is a single failed column constraint.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s %s", v.Field, v.Message)
}

// ValidationError lists every constraint an entity violated.
type ValidationError struct {
	Entity     string
	Violations []*Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Error())
	}
	return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(parts, "; "))
}

// ForeignKeyError is returned when a referenced row does not exist, or when a
// row cannot be removed because other rows still reference it.
type ForeignKeyError struct {
	Table  string
	Column string
	ID     int64
	// Referenced is set when the failure is a restricted delete.
	Referenced bool
}

func (e *ForeignKeyError) Error() string {
	if e.Referenced {
		return fmt.Sprintf("%s %d is still referenced by %s", e.Table, e.ID, e.Column)
	}
	return fmt.Sprintf("%s references missing %s %d", e.Column, e.Table, e.ID)
}

// NotFoundError means the target of an operation does not exist.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

// StateError means the operation is not valid for the entity's lifecycle
// state, e.g. finalizing a game twice or joining a full room.
type StateError struct {
	Entity string
	ID     int64
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s %d: %s", e.Entity, e.ID, e.Reason)
}

// ConflictError is returned when concurrent modification kept winning after
// every retry attempt.
type ConflictError struct {
	Entity   string
	ID       int64
	Attempts int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %d: concurrent modification, gave up after %d attempts", e.Entity, e.ID, e.Attempts)
}

// NotFound builds a NotFoundError for a numeric id.
func NotFound(entity string, id int64) *NotFoundError {
	return &NotFoundError{Entity: entity, Key: fmt.Sprintf("%d", id)}
}

// validator accumulates violations for one entity.
type validator struct {
	entity string
	err    error
}

func newValidator(entity string) *validator {
	return &validator{entity: entity}
}

func (v *validator) add(field, format string, args ...interface{}) {
	v.err = multierr.Append(v.err, &Violation{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) check(ok bool, field, format string, args ...interface{}) {
	if !ok {
		v.add(field, format, args...)
	}
}

func (v *validator) required(field, value string, max int) {
	switch {
	case strings.TrimSpace(value) == "":
		v.add(field, "must not be empty")
	case max > 0 && len([]rune(value)) > max:
		v.add(field, "must be at most %d characters", max)
	}
}

func (v *validator) result() error {
	if v.err == nil {
		return nil
	}

	ve := &ValidationError{Entity: v.entity}
	for _, e := range multierr.Errors(v.err) {
		var violation *Violation
		if errors.As(e, &violation) {
			ve.Violations = append(ve.Violations, violation)
		}
	}
	return ve
}

// Invalid builds a ValidationError with a single violation. The store uses it
// for constraints that can only be checked against stored state.
func Invalid(entity, field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Entity:     entity,
		Violations: []*Violation{{Field: field, Message: fmt.Sprintf(format, args...)}},
	}
}
