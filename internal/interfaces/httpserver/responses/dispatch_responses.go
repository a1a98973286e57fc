package responses

import (
	"time"

	"replygate/internal/domain/dispatch"
)

// JobResponse is a dispatch job as returned to clients.
type JobResponse struct {
	ID             string     `json:"id"`
	MessageID      string     `json:"message_id"`
	ConversationID string     `json:"conversation_id"`
	SuggestionID   string     `json:"suggestion_id"`
	TenantID       string     `json:"tenant_id"`
	Channel        string     `json:"channel"`
	RecipientID    string     `json:"recipient_id"`
	TypingHint     bool       `json:"typing_hint"`
	DelayMs        int        `json:"delay_ms"`
	ScheduledAt    time.Time  `json:"scheduled_at"`
	Status         string     `json:"status"`
	CancelReason   *string    `json:"cancel_reason,omitempty"`
	FailureReason  *string    `json:"failure_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ClaimedAt      *time.Time `json:"claimed_at,omitempty"`
}

// MapJobToResponse maps the domain job to its DTO. The payload text is
// deliberately omitted from listings.
func MapJobToResponse(j *dispatch.Job) JobResponse {
	return JobResponse{
		ID:             j.ID,
		MessageID:      j.MessageID,
		ConversationID: j.ConversationID,
		SuggestionID:   j.SuggestionID,
		TenantID:       j.TenantID,
		Channel:        j.Channel,
		RecipientID:    j.RecipientID,
		TypingHint:     j.TypingHint,
		DelayMs:        j.DelayMs,
		ScheduledAt:    j.ScheduledAt,
		Status:         j.Status.String(),
		CancelReason:   j.CancelReason,
		FailureReason:  j.FailureReason,
		CreatedAt:      j.CreatedAt,
		ClaimedAt:      j.ClaimedAt,
	}
}

// MapJobsToResponse maps a slice of jobs.
func MapJobsToResponse(list []*dispatch.Job) []JobResponse {
	out := make([]JobResponse, 0, len(list))
	for _, j := range list {
		out = append(out, MapJobToResponse(j))
	}
	return out
}

// CancelJobResponse reports a cancellation attempt.
type CancelJobResponse struct {
	Cancelled bool `json:"cancelled"`
}

// DispatchMetricsResponse summarizes scheduler activity.
type DispatchMetricsResponse struct {
	ScheduledCount int64   `json:"scheduled_count"`
	CompletedCount int64   `json:"completed_count"`
	FailedCount    int64   `json:"failed_count"`
	CancelledCount int64   `json:"cancelled_count"`
	AvgDelayMs     float64 `json:"avg_delay_ms"`
}

// MapMetricsToResponse maps the scheduler counters.
func MapMetricsToResponse(m *dispatch.Metrics) DispatchMetricsResponse {
	return DispatchMetricsResponse{
		ScheduledCount: m.ScheduledCount,
		CompletedCount: m.CompletedCount,
		FailedCount:    m.FailedCount,
		CancelledCount: m.CancelledCount,
		AvgDelayMs:     m.AvgDelayMs,
	}
}
