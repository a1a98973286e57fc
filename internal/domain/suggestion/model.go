// Package suggestion implements the lifecycle of AI-generated reply
// candidates: classification on ingest, human resolution, and handoff to the
// delayed-send scheduler.
package suggestion

import (
	"time"

	"replygate/internal/domain/decision"
)

// Status is the suggestion's resolution state. A suggestion is mutated
// exactly once, by a terminal human action or by the autosend path.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusEdited   Status = "edited"
	StatusRejected Status = "rejected"
)

// IsTerminal returns true once the suggestion has been resolved.
func (s Status) IsTerminal() bool {
	return s != StatusPending
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Confidence is the persisted, analytics-queryable score breakdown.
type Confidence struct {
	Similarity float64 `json:"similarity"`
	Intent     float64 `json:"intent"`
	SelfCheck  float64 `json:"self_check"`
	Total      float64 `json:"total"`
}

// Suggestion is a candidate reply awaiting disposition.
type Suggestion struct {
	ID                   string                        `json:"id"`
	TenantID             string                        `json:"tenant_id"`
	ConversationID       string                        `json:"conversation_id"`
	SourceMessageID      string                        `json:"source_message_id"`
	Channel              string                        `json:"channel"`
	RecipientID          string                        `json:"recipient_id"`
	Text                 string                        `json:"text"`
	Intent               string                        `json:"intent"`
	Confidence           Confidence                    `json:"confidence"`
	Disposition          decision.Disposition          `json:"disposition"`
	AutosendEligible     bool                          `json:"autosend_eligible"`
	AutosendBlockReason  *decision.AutosendBlockReason `json:"autosend_block_reason,omitempty"`
	SelfCheckNeedHandoff bool                          `json:"self_check_need_handoff"`
	Penalties            []decision.Penalty            `json:"penalties,omitempty"`
	Explanations         []string                      `json:"explanations,omitempty"`
	Status               Status                        `json:"status"`
	CreatedAt            time.Time                     `json:"created_at"`
	UpdatedAt            time.Time                     `json:"updated_at"`
	ResolvedAt           *time.Time                    `json:"resolved_at,omitempty"`
}

// HumanAction identifies what an operator (or the autosend path) did.
type HumanAction string

const (
	ActionApprove  HumanAction = "approve"
	ActionEdit     HumanAction = "edit"
	ActionReject   HumanAction = "reject"
	ActionEscalate HumanAction = "escalate"
	ActionAutosend HumanAction = "autosend"
)

// ActionRecord is the immutable audit of a suggestion resolution. Created
// exactly once, never mutated.
type ActionRecord struct {
	ID           string      `json:"id"`
	SuggestionID string      `json:"suggestion_id"`
	Action       HumanAction `json:"action"`
	ActorID      string      `json:"actor_id,omitempty"`
	OriginalText string      `json:"original_text"`
	EditedText   *string     `json:"edited_text,omitempty"`
	Reason       *string     `json:"reason,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}
