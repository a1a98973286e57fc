package requests

// SignalsRequest carries the trust scores of the generation step. Missing
// scores stay nil and count against the suggestion.
type SignalsRequest struct {
	Similarity  *float64 `json:"similarity"`
	IntentScore *float64 `json:"intent_score"`
	SelfCheck   *float64 `json:"self_check"`
}

// PenaltyRequest is a named confidence deduction supplied by the caller.
type PenaltyRequest struct {
	Reason string  `json:"reason" binding:"required"`
	Weight float64 `json:"weight"`
}

// IngestSuggestionRequest submits a generated reply candidate for
// classification.
type IngestSuggestionRequest struct {
	TenantID             string           `json:"tenant_id" binding:"required"`
	ConversationID       string           `json:"conversation_id" binding:"required"`
	SourceMessageID      string           `json:"source_message_id" binding:"required"`
	Channel              string           `json:"channel" binding:"required"`
	RecipientID          string           `json:"recipient_id" binding:"required"`
	Text                 string           `json:"text" binding:"required"`
	Intent               string           `json:"intent" binding:"required"`
	Signals              SignalsRequest   `json:"signals"`
	SelfCheckNeedHandoff bool             `json:"self_check_need_handoff"`
	Penalties            []PenaltyRequest `json:"penalties,omitempty"`
}

// ResolveSuggestionRequest carries a human action against a pending
// suggestion. EditedText is required for the edit action only.
type ResolveSuggestionRequest struct {
	ActorID    string `json:"actor_id"`
	EditedText string `json:"edited_text,omitempty"`
	Reason     string `json:"reason,omitempty"`
}
