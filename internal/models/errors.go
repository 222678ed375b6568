package models

import "fmt"

// ValidationError indicates malformed input to a mutating operation.
// It is returned synchronously and never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for a specific field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError indicates the referenced entity does not exist or is not
// owned by the requesting user. Handlers map it to 404.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// NewNotFoundError creates a NotFoundError for an entity
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ExecutionFault indicates a live call tried to step a flow or node that no
// longer exists. The session is finalized as exhausted and the fault is
// surfaced to the caller for logging.
type ExecutionFault struct {
	CallID string
	Reason string
}

func (e *ExecutionFault) Error() string {
	return fmt.Sprintf("call %s: %s", e.CallID, e.Reason)
}
