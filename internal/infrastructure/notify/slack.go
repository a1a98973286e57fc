// Package notify pings operators over Slack when a suggestion escalates or a
// dispatch fails. Notifications are best effort.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"replygate/internal/domain/dispatch"
	"replygate/internal/domain/suggestion"
)

// SlackNotifier posts to an incoming webhook. A nil SlackNotifier drops
// everything, which is how deployments without Slack run.
type SlackNotifier struct {
	webhookURL string
	log        zerolog.Logger
}

// NewSlackNotifier constructs the notifier. Returns nil when webhookURL is
// empty.
func NewSlackNotifier(webhookURL string, log zerolog.Logger) *SlackNotifier {
	if webhookURL == "" {
		return nil
	}
	return &SlackNotifier{
		webhookURL: webhookURL,
		log:        log.With().Str("component", "slack-notifier").Logger(),
	}
}

// NotifyEscalation tells operators a conversation needs a human.
func (n *SlackNotifier) NotifyEscalation(ctx context.Context, s *suggestion.Suggestion) {
	if n == nil {
		return
	}
	text := fmt.Sprintf(":rotating_light: Escalated conversation `%s` (tenant `%s`)\nIntent: `%s`, confidence %.2f\n> %s",
		s.ConversationID, s.TenantID, s.Intent, s.Confidence.Total, s.Text)
	n.post(ctx, s.ID, text)
}

// NotifyDispatchFailure tells operators a delayed send could not be delivered.
func (n *SlackNotifier) NotifyDispatchFailure(ctx context.Context, job *dispatch.Job) {
	if n == nil {
		return
	}
	reason := "unknown"
	if job.FailureReason != nil {
		reason = *job.FailureReason
	}
	text := fmt.Sprintf(":warning: Dispatch failed for conversation `%s` (tenant `%s`, channel `%s`): %s",
		job.ConversationID, job.TenantID, job.Channel, reason)
	n.post(ctx, job.ID, text)
}

func (n *SlackNotifier) post(ctx context.Context, key, text string) {
	err := slack.PostWebhookContext(ctx, n.webhookURL, &slack.WebhookMessage{Text: text})
	if err != nil {
		n.log.Warn().Err(err).Str("key", key).Msg("slack webhook post failed")
	}
}

var _ suggestion.Notifier = (*SlackNotifier)(nil)
