// Package dispatch holds the delayed-send scheduler: durable one-shot jobs
// that release an outbound message after a humanized wait.
package dispatch

import (
	"errors"
	"time"
)

// JobStatus represents the lifecycle status of a dispatch job.
type JobStatus string

const (
	// StatusScheduled means the job is waiting for its due time.
	StatusScheduled JobStatus = "scheduled"
	// StatusDispatching means a worker has claimed the job.
	StatusDispatching JobStatus = "dispatching"

	// Terminal states (no further transitions allowed)
	StatusDispatched JobStatus = "dispatched"
	StatusCancelled  JobStatus = "cancelled"
	StatusFailed     JobStatus = "failed"
)

// ErrInvalidTransition is returned when a status transition is not allowed.
var ErrInvalidTransition = errors.New("invalid job status transition")

// ValidTransitions defines allowed job status transitions. Cancellation is
// only legal before a worker claims the job; a claimed job runs to
// dispatched or failed.
var ValidTransitions = map[JobStatus][]JobStatus{
	StatusScheduled:   {StatusDispatching, StatusCancelled},
	StatusDispatching: {StatusDispatched, StatusFailed, StatusScheduled},
	StatusDispatched:  {},
	StatusCancelled:   {},
	StatusFailed:      {},
}

// IsTerminal returns true if the status is a terminal state.
func (s JobStatus) IsTerminal() bool {
	return s == StatusDispatched || s == StatusCancelled || s == StatusFailed
}

// IsActive returns true if the job still occupies its message's slot.
func (s JobStatus) IsActive() bool {
	return s == StatusScheduled || s == StatusDispatching
}

// CanTransitionTo checks if a transition to the target status is valid.
func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	for _, t := range ValidTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// String returns the string representation of the status.
func (s JobStatus) String() string {
	return string(s)
}

// Job is a pending, timed release of exactly one outbound message. At most
// one active job may exist per MessageID.
type Job struct {
	ID             string     `json:"id"`
	MessageID      string     `json:"message_id"`
	ConversationID string     `json:"conversation_id"`
	SuggestionID   string     `json:"suggestion_id"`
	TenantID       string     `json:"tenant_id"`
	Channel        string     `json:"channel"`
	RecipientID    string     `json:"recipient_id"`
	PayloadText    string     `json:"payload_text"`
	TypingHint     bool       `json:"typing_hint"`
	DelayMs        int        `json:"delay_ms"`
	ScheduledAt    time.Time  `json:"scheduled_at"`
	Status         JobStatus  `json:"status"`
	ClaimedAt      *time.Time `json:"claimed_at,omitempty"`
	CancelReason   *string    `json:"cancel_reason,omitempty"`
	FailureReason  *string    `json:"failure_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Metrics summarizes scheduler activity for operational visibility.
type Metrics struct {
	ScheduledCount int64   `json:"scheduled_count"`
	CompletedCount int64   `json:"completed_count"`
	FailedCount    int64   `json:"failed_count"`
	CancelledCount int64   `json:"cancelled_count"`
	AvgDelayMs     float64 `json:"avg_delay_ms"`
}
