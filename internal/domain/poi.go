package domain

import "time"

// Status represents the moderation state of a point of interest.
type Status string

const (
	StatusDraft             Status = "draft"
	StatusPendingValidation Status = "pending_validation"
	StatusUnderReview       Status = "under_review"
	StatusApproved          Status = "approved"
	StatusRejected          Status = "rejected"
	StatusBlocked           Status = "blocked"
)

// Event represents an action that triggers a state transition.
type Event string

const (
	EventSubmit      Event = "submit"
	EventStartReview Event = "start_review"
	EventApprove     Event = "approve"
	EventReject      Event = "reject"
	EventBlock       Event = "block"
	EventResubmit    Event = "resubmit"
)

// Transition defines a valid state change: an event moves a POI from Src
// to Dst, may only be triggered by an actor holding Actor, and may
// require a non-empty moderation reason.
type Transition struct {
	Event       Event
	Src         Status
	Dst         Status
	Actor       Role
	NeedsReason bool
}

// Transitions defines all valid state changes in the moderation
// lifecycle. This is domain knowledge consumed by the FSM adapter and
// the authorization checks in the service layer. Approved is terminal:
// no edge leaves it.
var Transitions = []Transition{
	{Event: EventSubmit, Src: StatusDraft, Dst: StatusPendingValidation, Actor: RolePartner},
	{Event: EventStartReview, Src: StatusPendingValidation, Dst: StatusUnderReview, Actor: RoleAdmin},
	{Event: EventApprove, Src: StatusUnderReview, Dst: StatusApproved, Actor: RoleAdmin},
	{Event: EventReject, Src: StatusUnderReview, Dst: StatusRejected, Actor: RoleAdmin, NeedsReason: true},
	{Event: EventBlock, Src: StatusUnderReview, Dst: StatusBlocked, Actor: RoleAdmin, NeedsReason: true},
	{Event: EventResubmit, Src: StatusRejected, Dst: StatusPendingValidation, Actor: RolePartner},
	{Event: EventResubmit, Src: StatusBlocked, Dst: StatusPendingValidation, Actor: RolePartner},
}

// TransitionFor returns the table edge matching (from, to), or false if
// no such edge exists. Every (src, dst) pair appears at most once, so
// the engine can derive the triggering event from a target status.
func TransitionFor(from, to Status) (Transition, bool) {
	for _, tr := range Transitions {
		if tr.Src == from && tr.Dst == to {
			return tr, true
		}
	}
	return Transition{}, false
}

// StatusInfo is the server-owned display metadata for a status. Clients
// render from this catalog instead of recomputing labels locally.
type StatusInfo struct {
	Label       string
	Severity    string
	Description string
}

// StatusCatalog maps every status to its display metadata.
var StatusCatalog = map[Status]StatusInfo{
	StatusDraft: {
		Label:       "Brouillon",
		Severity:    "secondary",
		Description: "Ce point d'intérêt est en cours de création et n'a pas encore été soumis pour validation.",
	},
	StatusPendingValidation: {
		Label:       "En attente de validation",
		Severity:    "warning",
		Description: "Ce point d'intérêt a été soumis et est en attente de validation par notre équipe.",
	},
	StatusUnderReview: {
		Label:       "En cours de révision",
		Severity:    "info",
		Description: "Ce point d'intérêt est en cours de révision par notre équipe.",
	},
	StatusApproved: {
		Label:       "Approuvé",
		Severity:    "success",
		Description: "Ce point d'intérêt a été approuvé et est maintenant visible par le public.",
	},
	StatusRejected: {
		Label:       "Rejeté",
		Severity:    "destructive",
		Description: "Ce point d'intérêt a été rejeté. Veuillez vérifier les commentaires et le resoumettre après corrections.",
	},
	StatusBlocked: {
		Label:       "Bloqué",
		Severity:    "destructive",
		Description: "Ce point d'intérêt a été bloqué suite à une violation des conditions d'utilisation.",
	},
}

// POI is the core domain entity under moderation. Domain content beyond
// the display name is opaque to this service.
type POI struct {
	ID              string
	OwnerID         string
	PartnerID       string // optional second identity entitled to act as owner
	Name            string
	Status          Status
	SubmissionCount int
	RejectionReason string // non-empty iff Status == rejected
	BlockedReason   string // non-empty iff Status == blocked
	ConversationID  string // set on first moderation action or message
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ValidatedAt     *time.Time // set on first transition to approved
}

// NewPOI creates a POI in the initial "draft" state.
func NewPOI(id, ownerID, partnerID, name string) POI {
	now := time.Now().UTC()
	return POI{
		ID:              id,
		OwnerID:         ownerID,
		PartnerID:       partnerID,
		Name:            name,
		Status:          StatusDraft,
		SubmissionCount: 1,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
