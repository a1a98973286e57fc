package responses

import (
	"time"

	"replygate/internal/domain/decision"
	"replygate/internal/domain/suggestion"
)

// SuggestionResponse is returned to clients.
type SuggestionResponse struct {
	ID                   string                `json:"id"`
	TenantID             string                `json:"tenant_id"`
	ConversationID       string                `json:"conversation_id"`
	SourceMessageID      string                `json:"source_message_id"`
	Channel              string                `json:"channel"`
	RecipientID          string                `json:"recipient_id"`
	Text                 string                `json:"text"`
	Intent               string                `json:"intent"`
	Confidence           suggestion.Confidence `json:"confidence"`
	Disposition          string                `json:"disposition"`
	AutosendEligible     bool                  `json:"autosend_eligible"`
	AutosendBlockReason  *string               `json:"autosend_block_reason,omitempty"`
	SelfCheckNeedHandoff bool                  `json:"self_check_need_handoff"`
	Penalties            []decision.Penalty    `json:"penalties,omitempty"`
	Explanations         []string              `json:"explanations,omitempty"`
	Status               string                `json:"status"`
	CreatedAt            time.Time             `json:"created_at"`
	ResolvedAt           *time.Time            `json:"resolved_at,omitempty"`
}

// MapSuggestionToResponse maps the domain suggestion to its DTO.
func MapSuggestionToResponse(s *suggestion.Suggestion) SuggestionResponse {
	resp := SuggestionResponse{
		ID:                   s.ID,
		TenantID:             s.TenantID,
		ConversationID:       s.ConversationID,
		SourceMessageID:      s.SourceMessageID,
		Channel:              s.Channel,
		RecipientID:          s.RecipientID,
		Text:                 s.Text,
		Intent:               s.Intent,
		Confidence:           s.Confidence,
		Disposition:          s.Disposition.String(),
		AutosendEligible:     s.AutosendEligible,
		SelfCheckNeedHandoff: s.SelfCheckNeedHandoff,
		Penalties:            s.Penalties,
		Explanations:         s.Explanations,
		Status:               s.Status.String(),
		CreatedAt:            s.CreatedAt,
		ResolvedAt:           s.ResolvedAt,
	}
	if s.AutosendBlockReason != nil {
		reason := string(*s.AutosendBlockReason)
		resp.AutosendBlockReason = &reason
	}
	return resp
}

// MapSuggestionsToResponse maps a slice of suggestions.
func MapSuggestionsToResponse(list []*suggestion.Suggestion) []SuggestionResponse {
	out := make([]SuggestionResponse, 0, len(list))
	for _, s := range list {
		out = append(out, MapSuggestionToResponse(s))
	}
	return out
}

// ActionResponse is one entry of a suggestion's audit trail.
type ActionResponse struct {
	ID           string    `json:"id"`
	SuggestionID string    `json:"suggestion_id"`
	Action       string    `json:"action"`
	ActorID      string    `json:"actor_id,omitempty"`
	OriginalText string    `json:"original_text"`
	EditedText   *string   `json:"edited_text,omitempty"`
	Reason       *string   `json:"reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// MapActionsToResponse maps the audit trail.
func MapActionsToResponse(list []*suggestion.ActionRecord) []ActionResponse {
	out := make([]ActionResponse, 0, len(list))
	for _, rec := range list {
		out = append(out, ActionResponse{
			ID:           rec.ID,
			SuggestionID: rec.SuggestionID,
			Action:       string(rec.Action),
			ActorID:      rec.ActorID,
			OriginalText: rec.OriginalText,
			EditedText:   rec.EditedText,
			Reason:       rec.Reason,
			CreatedAt:    rec.CreatedAt,
		})
	}
	return out
}

// DeliveryResponse reports what the send path did with a resolution.
type DeliveryResponse struct {
	Mode        string       `json:"mode"`
	MessageID   string       `json:"message_id,omitempty"`
	Job         *JobResponse `json:"job,omitempty"`
	AutoReply   bool         `json:"auto_reply,omitempty"`
	ScheduledAt *time.Time   `json:"scheduled_at,omitempty"`
}

// MapDeliveryToResponse maps the delivery outcome; nil means the suggestion
// stays pending.
func MapDeliveryToResponse(o *suggestion.DeliveryOutcome) *DeliveryResponse {
	if o == nil {
		return nil
	}
	resp := &DeliveryResponse{
		Mode:      string(o.Mode),
		MessageID: o.MessageID,
		AutoReply: o.AutoReply,
	}
	if o.Job != nil {
		job := MapJobToResponse(o.Job)
		resp.Job = &job
		resp.ScheduledAt = &o.Job.ScheduledAt
	}
	return resp
}

// IngestResponse wraps the classified suggestion with its autosend outcome.
type IngestResponse struct {
	Suggestion SuggestionResponse `json:"suggestion"`
	Delivery   *DeliveryResponse  `json:"delivery,omitempty"`
}
