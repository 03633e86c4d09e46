package domain

import "time"

// MessageType classifies a conversation message.
type MessageType string

const (
	MessageComment      MessageType = "comment"
	MessageStatusChange MessageType = "status_change"
	MessageRequestInfo  MessageType = "request_info"
	MessageJustify      MessageType = "justification"
)

// FreeFormMessageTypes lists the types either party may post directly,
// without going through the moderation engine. status_change is
// reserved for the engine.
var FreeFormMessageTypes = []MessageType{
	MessageComment,
	MessageRequestInfo,
	MessageJustify,
}

// Conversation is the single message thread attached 1:1 to a POI.
// It is created lazily by the first moderation action or message post.
type Conversation struct {
	ID        string
	POIID     string
	CreatedAt time.Time
}

// Message is an immutable entry in a conversation. Messages are never
// updated or deleted; the thread is totally ordered by (CreatedAt, ID).
type Message struct {
	ID             string
	ConversationID string
	SenderRole     Role
	SenderID       string
	Type           MessageType
	Content        string
	CreatedAt      time.Time
}

// NewMessage creates a message stamped with the current time.
func NewMessage(id, conversationID string, role Role, senderID string, msgType MessageType, content string) Message {
	return Message{
		ID:             id,
		ConversationID: conversationID,
		SenderRole:     role,
		SenderID:       senderID,
		Type:           msgType,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
}
