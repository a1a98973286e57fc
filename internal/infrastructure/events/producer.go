// Package events publishes decision and dispatch events to Kafka for the
// analytics pipeline. Publishing is best effort; the reply flow never blocks
// on the broker.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"replygate/internal/domain/decision"
	"replygate/internal/domain/dispatch"
	"replygate/internal/domain/suggestion"
)

// Producer writes events to the decisions and dispatches topics. A nil
// Producer is valid and drops everything, which is how deployments without a
// broker run.
type Producer struct {
	decisionsWriter  *kafka.Writer
	dispatchesWriter *kafka.Writer
	log              zerolog.Logger
}

// NewProducer creates a Kafka producer. Returns nil when brokers is empty.
func NewProducer(brokers []string, decisionsTopic, dispatchesTopic string, log zerolog.Logger) *Producer {
	if len(brokers) == 0 {
		return nil
	}
	return &Producer{
		decisionsWriter: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    decisionsTopic,
			Balancer: &kafka.LeastBytes{},
		},
		dispatchesWriter: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    dispatchesTopic,
			Balancer: &kafka.LeastBytes{},
		},
		log: log.With().Str("component", "events-producer").Logger(),
	}
}

type decisionEvent struct {
	Type                string                        `json:"type"`
	SuggestionID        string                        `json:"suggestion_id"`
	TenantID            string                        `json:"tenant_id"`
	ConversationID      string                        `json:"conversation_id"`
	Intent              string                        `json:"intent"`
	Confidence          suggestion.Confidence         `json:"confidence"`
	Disposition         decision.Disposition          `json:"disposition"`
	AutosendEligible    bool                          `json:"autosend_eligible"`
	AutosendBlockReason *decision.AutosendBlockReason `json:"autosend_block_reason,omitempty"`
	Penalties           []decision.Penalty            `json:"penalties,omitempty"`
	Action              *suggestion.HumanAction       `json:"action,omitempty"`
	ActorID             string                        `json:"actor_id,omitempty"`
	Edited              bool                          `json:"edited,omitempty"`
	OccurredAt          time.Time                     `json:"occurred_at"`
}

// RecordDecision publishes a classification outcome.
func (p *Producer) RecordDecision(ctx context.Context, s *suggestion.Suggestion) {
	if p == nil {
		return
	}
	p.publish(ctx, p.decisionsWriter, s.ID, decisionEvent{
		Type:                "decision",
		SuggestionID:        s.ID,
		TenantID:            s.TenantID,
		ConversationID:      s.ConversationID,
		Intent:              s.Intent,
		Confidence:          s.Confidence,
		Disposition:         s.Disposition,
		AutosendEligible:    s.AutosendEligible,
		AutosendBlockReason: s.AutosendBlockReason,
		Penalties:           s.Penalties,
		OccurredAt:          time.Now().UTC(),
	})
}

// RecordHumanAction publishes a suggestion resolution.
func (p *Producer) RecordHumanAction(ctx context.Context, rec *suggestion.ActionRecord, s *suggestion.Suggestion) {
	if p == nil {
		return
	}
	action := rec.Action
	p.publish(ctx, p.decisionsWriter, s.ID, decisionEvent{
		Type:           "human_action",
		SuggestionID:   s.ID,
		TenantID:       s.TenantID,
		ConversationID: s.ConversationID,
		Intent:         s.Intent,
		Confidence:     s.Confidence,
		Disposition:    s.Disposition,
		Action:         &action,
		ActorID:        rec.ActorID,
		Edited:         rec.EditedText != nil,
		OccurredAt:     time.Now().UTC(),
	})
}

type dispatchEvent struct {
	Type          string             `json:"type"`
	JobID         string             `json:"job_id"`
	TenantID      string             `json:"tenant_id"`
	SuggestionID  string             `json:"suggestion_id"`
	MessageID     string             `json:"message_id"`
	Status        dispatch.JobStatus `json:"status"`
	DelayMs       int                `json:"delay_ms"`
	FailureReason string             `json:"failure_reason,omitempty"`
	CancelReason  string             `json:"cancel_reason,omitempty"`
	OccurredAt    time.Time          `json:"occurred_at"`
}

// RecordDispatch publishes a dispatch job outcome.
func (p *Producer) RecordDispatch(ctx context.Context, job *dispatch.Job) {
	if p == nil {
		return
	}
	ev := dispatchEvent{
		Type:         "dispatch",
		JobID:        job.ID,
		TenantID:     job.TenantID,
		SuggestionID: job.SuggestionID,
		MessageID:    job.MessageID,
		Status:       job.Status,
		DelayMs:      job.DelayMs,
		OccurredAt:   time.Now().UTC(),
	}
	if job.FailureReason != nil {
		ev.FailureReason = *job.FailureReason
	}
	if job.CancelReason != nil {
		ev.CancelReason = *job.CancelReason
	}
	p.publish(ctx, p.dispatchesWriter, job.ID, ev)
}

// Close flushes and closes the writers. Safe on nil.
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	if err := p.decisionsWriter.Close(); err != nil {
		return err
	}
	return p.dispatchesWriter.Close()
}

func (p *Producer) publish(ctx context.Context, w *kafka.Writer, key string, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		p.log.Error().Err(err).Str("key", key).Msg("marshal event")
		return
	}
	if err := w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: data}); err != nil {
		p.log.Warn().Err(err).Str("key", key).Msg("publish event")
	}
}

var _ suggestion.AuditLog = (*Producer)(nil)
