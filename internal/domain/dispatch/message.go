package dispatch

import (
	"context"
	"time"
)

// MessageStatus is the delivery state of an outbound message.
type MessageStatus string

const (
	MessagePending MessageStatus = "pending"
	MessageSent    MessageStatus = "sent"
	MessageFailed  MessageStatus = "failed"
	MessageHeld    MessageStatus = "held"
)

// String returns the string representation of the status.
func (s MessageStatus) String() string {
	return string(s)
}

// OutboundMessage is the single outbound artifact a dispatch job releases.
// Its pending->sent transition is the double-send guard.
type OutboundMessage struct {
	ID                string        `json:"id"`
	TenantID          string        `json:"tenant_id"`
	ConversationID    string        `json:"conversation_id"`
	SuggestionID      string        `json:"suggestion_id"`
	Channel           string        `json:"channel"`
	RecipientID       string        `json:"recipient_id"`
	Text              string        `json:"text"`
	Status            MessageStatus `json:"status"`
	ExternalMessageID *string       `json:"external_message_id,omitempty"`
	FailureReason     *string       `json:"failure_reason,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// MessageStore persists outbound messages. MarkSent and MarkFailed are
// check-then-set against the pending status: false means another process
// already finalized the message, and the caller must not deliver again.
type MessageStore interface {
	Create(ctx context.Context, m *OutboundMessage) error
	Get(ctx context.Context, id string) (*OutboundMessage, error)
	FindPendingBySuggestion(ctx context.Context, suggestionID string) (*OutboundMessage, error)
	MarkSent(ctx context.Context, id string, externalMessageID string) (bool, error)
	MarkFailed(ctx context.Context, id string, reason string) (bool, error)
}
