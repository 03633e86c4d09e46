package domain

import "context"

// POIRepository defines the persistence contract for POIs. Mutations of
// an existing POI go through ApplyTransition, which commits the status
// change and its audit message as one atomic unit.
type POIRepository interface {
	Create(ctx context.Context, poi POI) error
	GetByID(ctx context.Context, id string) (POI, error)
	List(ctx context.Context, filter ListFilter) ([]POI, error)

	// ApplyTransition writes the new POI state guarded by an optimistic
	// version check. When msg is non-nil it creates the POI's
	// conversation if absent and appends msg in the same transaction,
	// filling in msg's conversation id. poi.Version must already be
	// expectedVersion+1. Returns the stored POI (with ConversationID
	// set), a ConflictError on version mismatch, or ErrPOINotFound.
	ApplyTransition(ctx context.Context, poi POI, expectedVersion int64, msg *Message) (POI, error)
}

// ListFilter holds optional criteria for listing POIs.
type ListFilter struct {
	Status  *Status
	OwnerID string
	Limit   int
	Offset  int
}

// ConversationRepository defines the persistence contract for the
// append-only conversation attached to each POI.
type ConversationRepository interface {
	// GetOrCreate returns the POI's conversation, creating it if absent.
	// Concurrent creators must converge on a single conversation.
	GetOrCreate(ctx context.Context, poiID string) (Conversation, error)
	GetByPOI(ctx context.Context, poiID string) (Conversation, error)
	AppendMessage(ctx context.Context, msg Message) error
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
}

// RoleResolver maps an acting identity to its operative roles for a
// given POI. There is no self-service escalation path.
type RoleResolver interface {
	Resolve(ctx context.Context, actorID string, poi POI) (RoleSet, error)
}

// TransitionValidator checks a status/event pair against the transition
// table and returns the destination status.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, event Event) (Status, error)
}

// StatusNotification is the event emitted after a committed transition.
// Delivery is at-least-once and best-effort from the engine's view.
type StatusNotification struct {
	POIID        string
	POIName      string
	OwnerID      string
	Status       Status
	Reason       string
	AdminMessage string
}

// NotificationPublisher defines the contract for dispatching
// status-change notifications.
type NotificationPublisher interface {
	Publish(ctx context.Context, n StatusNotification) error
}
