package domain_test

import (
	"testing"

	"github.com/voyara/poimod/internal/domain"
)

func TestTransitionError_Error(t *testing.T) {
	err := &domain.TransitionError{
		From: domain.StatusPendingValidation,
		To:   domain.StatusApproved,
	}
	want := `transition from "pending_validation" to "approved" is not allowed`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestReasonRequiredError_Error(t *testing.T) {
	err := &domain.ReasonRequiredError{Target: domain.StatusRejected}
	want := `a reason is required to set status "rejected"`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestForbiddenError_Error(t *testing.T) {
	err := &domain.ForbiddenError{ActorID: "u-1", Action: "approve poi p-1"}
	want := `actor "u-1" is not allowed to approve poi p-1`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestConflictError_Error(t *testing.T) {
	err := &domain.ConflictError{
		ExpectedVersion: 3,
		CurrentVersion:  5,
		CurrentStatus:   domain.StatusUnderReview,
	}
	want := `version mismatch: expected 3, current 5 (status "under_review")`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
