package domain

import "fmt"

// NotFoundError is returned when a referenced record does not exist.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ValidationError reports a structurally invalid submission. It is raised
// before any record is created and is never retried automatically.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string { return e.Message }

// InvalidStateError reports an operation attempted against a record that is
// not in the required source state.
type InvalidStateError struct {
	Entity EntityType
	ID     string
	Detail string
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Entity, e.ID, e.Detail)
}

// ConflictError reports an approval precondition violated by a concurrent
// change. The caller may retry or reject; the core never converts it into an
// automatic rejection.
type ConflictError struct {
	Entity EntityType
	ID     string
	Detail string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Entity, e.ID, e.Detail)
}

// PermissionError reports that the acting identity may not perform the
// operation. Role authorization lives with the caller; the core raises this
// only for ownership checks such as cancelling another requester's request.
type PermissionError struct {
	Actor  string
	Detail string
}

func (e PermissionError) Error() string {
	return fmt.Sprintf("actor %s: %s", e.Actor, e.Detail)
}
