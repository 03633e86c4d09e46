package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrPOINotFound          = errors.New("poi not found")
	ErrConversationNotFound = errors.New("conversation not found")
)

// TransitionError is returned when the requested status change is not
// an edge of the transition table.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition from %q to %q is not allowed", e.From, e.To)
}

// ReasonRequiredError is returned when a transition to rejected or
// blocked is attempted without a reason.
type ReasonRequiredError struct {
	Target Status
}

func (e *ReasonRequiredError) Error() string {
	return fmt.Sprintf("a reason is required to set status %q", e.Target)
}

// ValidationError is returned for other invalid input, such as posting
// a reserved message type.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return e.Detail
}

// ForbiddenError is returned when the acting identity lacks the role
// required for the requested action.
type ForbiddenError struct {
	ActorID string
	Action  string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("actor %q is not allowed to %s", e.ActorID, e.Action)
}

// ConflictError is returned when an optimistic-concurrency version
// check fails. It carries the current version and status so the caller
// can refetch and re-decide.
type ConflictError struct {
	ExpectedVersion int64
	CurrentVersion  int64
	CurrentStatus   Status
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version mismatch: expected %d, current %d (status %q)",
		e.ExpectedVersion, e.CurrentVersion, e.CurrentStatus)
}
