package suggestion

import (
	"context"
	"errors"

	"replygate/internal/domain/decision"
	"replygate/internal/domain/delay"
)

// ErrNotFound is returned when a suggestion does not exist.
var ErrNotFound = errors.New("suggestion not found")

// ErrAlreadyResolved is returned when a terminal action hits a suggestion
// that was already resolved.
var ErrAlreadyResolved = errors.New("suggestion already resolved")

// Repository persists suggestions.
type Repository interface {
	Create(ctx context.Context, s *Suggestion) error
	FindByID(ctx context.Context, id string) (*Suggestion, error)
	ListByConversation(ctx context.Context, conversationID string) ([]*Suggestion, error)

	// Resolve flips status from pending to the target in one check-then-set
	// update; ErrAlreadyResolved when the pending precondition fails.
	Resolve(ctx context.Context, id string, target Status, text string) (*Suggestion, error)
}

// ActionRepository persists the immutable resolution audit records.
type ActionRepository interface {
	Create(ctx context.Context, rec *ActionRecord) error
	ListBySuggestion(ctx context.Context, suggestionID string) ([]*ActionRecord, error)
}

// PolicyProvider hands out point-in-time tenant policy snapshots. Reads are
// lock-free; admin writes never coordinate with in-flight classifications.
type PolicyProvider interface {
	DecisionPolicy(ctx context.Context, tenantID string) (decision.Policy, error)
	DelayPolicy(ctx context.Context, tenantID string) (delay.Policy, error)
	WorkingHours(ctx context.Context, tenantID string) (delay.WorkingHours, error)
}

// AuditLog records decisions and human actions for the analytics pipeline.
type AuditLog interface {
	RecordDecision(ctx context.Context, s *Suggestion)
	RecordHumanAction(ctx context.Context, rec *ActionRecord, s *Suggestion)
}

// Notifier pings operators about suggestions that need human eyes.
type Notifier interface {
	NotifyEscalation(ctx context.Context, s *Suggestion)
}
