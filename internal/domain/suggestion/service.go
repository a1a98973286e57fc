package suggestion

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"replygate/internal/domain/channel"
	"replygate/internal/domain/decision"
	"replygate/internal/domain/delay"
	"replygate/internal/domain/dispatch"
	"replygate/internal/utils/platformerrors"
)

// DeliveryMode says how a resolved suggestion left the building.
type DeliveryMode string

const (
	// DeliveryScheduled means a dispatch job holds the message.
	DeliveryScheduled DeliveryMode = "scheduled"
	// DeliveryImmediate means the message went straight to the adapter.
	DeliveryImmediate DeliveryMode = "immediate"
	// DeliveryHeld means night mode forbids sending; nothing went out.
	DeliveryHeld DeliveryMode = "held"
	// DeliveryFailed means the immediate send attempt failed.
	DeliveryFailed DeliveryMode = "failed"
)

// DeliveryOutcome reports what the send path did with a resolution.
type DeliveryOutcome struct {
	Mode      DeliveryMode  `json:"mode"`
	MessageID string        `json:"message_id,omitempty"`
	Job       *dispatch.Job `json:"job,omitempty"`
	AutoReply bool          `json:"auto_reply,omitempty"`
}

// IngestParams carries everything the generation step produced.
type IngestParams struct {
	TenantID             string
	ConversationID       string
	SourceMessageID      string
	Channel              string
	RecipientID          string
	Text                 string
	Intent               string
	Signals              decision.Signals
	SelfCheckNeedHandoff bool
	Penalties            []decision.Penalty
}

// ResolveParams carries a human action against a pending suggestion.
type ResolveParams struct {
	ActorID    string
	EditedText string
	Reason     string
}

// Service is the suggestion lifecycle orchestrator.
type Service interface {
	Ingest(ctx context.Context, params IngestParams) (*Suggestion, *DeliveryOutcome, error)
	Get(ctx context.Context, id string) (*Suggestion, error)
	ListByConversation(ctx context.Context, conversationID string) ([]*Suggestion, error)
	ListActions(ctx context.Context, suggestionID string) ([]*ActionRecord, error)

	Approve(ctx context.Context, id string, params ResolveParams) (*DeliveryOutcome, error)
	Edit(ctx context.Context, id string, params ResolveParams) (*DeliveryOutcome, error)
	Reject(ctx context.Context, id string, params ResolveParams) error
	Escalate(ctx context.Context, id string, params ResolveParams) error
}

// IDGenerator mints public identifiers for persisted records.
type IDGenerator func() string

// DefaultService implements Service. All collaborators are injected at
// construction; nothing is looked up lazily inside request handling.
type DefaultService struct {
	repo     Repository
	actions  ActionRepository
	policies PolicyProvider
	engine   *delay.Engine
	sched    dispatch.Scheduler
	messages dispatch.MessageStore
	channels channel.Registry
	audit    AuditLog
	notifier Notifier
	newID    IDGenerator
	clock    func() time.Time
	log      zerolog.Logger
}

// NewService constructs the orchestrator.
func NewService(
	repo Repository,
	actions ActionRepository,
	policies PolicyProvider,
	engine *delay.Engine,
	sched dispatch.Scheduler,
	messages dispatch.MessageStore,
	channels channel.Registry,
	audit AuditLog,
	notifier Notifier,
	newID IDGenerator,
	log zerolog.Logger,
) *DefaultService {
	return &DefaultService{
		repo:     repo,
		actions:  actions,
		policies: policies,
		engine:   engine,
		sched:    sched,
		messages: messages,
		channels: channels,
		audit:    audit,
		notifier: notifier,
		newID:    newID,
		clock:    time.Now,
		log:      log.With().Str("component", "suggestion-service").Logger(),
	}
}

// Ingest classifies a freshly generated suggestion, persists it with its
// decision fields, and runs the autosend path when every lock holds.
func (s *DefaultService) Ingest(ctx context.Context, params IngestParams) (*Suggestion, *DeliveryOutcome, error) {
	policy, err := s.policies.DecisionPolicy(ctx, params.TenantID)
	if err != nil {
		return nil, nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "load decision policy")
	}

	result := decision.Classify(params.Signals, policy, params.Intent, params.SelfCheckNeedHandoff, params.Penalties)

	now := s.clock().UTC()
	sugg := &Suggestion{
		ID:                   s.newID(),
		TenantID:             params.TenantID,
		ConversationID:       params.ConversationID,
		SourceMessageID:      params.SourceMessageID,
		Channel:              params.Channel,
		RecipientID:          params.RecipientID,
		Text:                 params.Text,
		Intent:               params.Intent,
		Confidence: Confidence{
			Similarity: deref(params.Signals.Similarity),
			Intent:     deref(params.Signals.IntentScore),
			SelfCheck:  deref(params.Signals.SelfCheck),
			Total:      result.Total,
		},
		Disposition:          result.Disposition,
		AutosendEligible:     result.AutosendEligible,
		AutosendBlockReason:  result.BlockReason,
		SelfCheckNeedHandoff: params.SelfCheckNeedHandoff,
		Penalties:            result.Penalties,
		Explanations:         result.Explanations,
		Status:               StatusPending,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.repo.Create(ctx, sugg); err != nil {
		return nil, nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "persist suggestion")
	}

	s.audit.RecordDecision(ctx, sugg)

	s.log.Info().
		Str("suggestion_id", sugg.ID).
		Str("tenant_id", sugg.TenantID).
		Str("disposition", sugg.Disposition.String()).
		Bool("autosend_eligible", sugg.AutosendEligible).
		Float64("confidence", sugg.Confidence.Total).
		Msg("suggestion classified")

	if sugg.Disposition == decision.DispositionEscalate {
		s.notifier.NotifyEscalation(ctx, sugg)
	}

	if sugg.AutosendEligible {
		outcome, err := s.resolveAndSend(ctx, sugg.ID, ActionAutosend, StatusApproved, ResolveParams{ActorID: "autosend"})
		if err != nil {
			return sugg, nil, err
		}
		return sugg, outcome, nil
	}

	return sugg, nil, nil
}

// Get returns one suggestion.
func (s *DefaultService) Get(ctx context.Context, id string) (*Suggestion, error) {
	return s.repo.FindByID(ctx, id)
}

// ListByConversation returns a conversation's suggestions, newest first.
func (s *DefaultService) ListByConversation(ctx context.Context, conversationID string) ([]*Suggestion, error) {
	return s.repo.ListByConversation(ctx, conversationID)
}

// ListActions returns the audit trail for a suggestion.
func (s *DefaultService) ListActions(ctx context.Context, suggestionID string) ([]*ActionRecord, error) {
	return s.actions.ListBySuggestion(ctx, suggestionID)
}

// Approve releases the suggestion text through the delay engine.
func (s *DefaultService) Approve(ctx context.Context, id string, params ResolveParams) (*DeliveryOutcome, error) {
	return s.resolveAndSend(ctx, id, ActionApprove, StatusApproved, params)
}

// Edit releases the operator's edited text through the delay engine.
func (s *DefaultService) Edit(ctx context.Context, id string, params ResolveParams) (*DeliveryOutcome, error) {
	return s.resolveAndSend(ctx, id, ActionEdit, StatusEdited, params)
}

// Reject discards the suggestion and cancels any pending dispatch job.
func (s *DefaultService) Reject(ctx context.Context, id string, params ResolveParams) error {
	_, err := s.resolveTerminal(ctx, id, ActionReject, params)
	return err
}

// Escalate hands the conversation to an operator, cancelling any pending
// dispatch and pinging the on-call channel.
func (s *DefaultService) Escalate(ctx context.Context, id string, params ResolveParams) error {
	sugg, err := s.resolveTerminal(ctx, id, ActionEscalate, params)
	if err != nil {
		return err
	}
	s.notifier.NotifyEscalation(ctx, sugg)
	return nil
}

// resolveTerminal handles reject/escalate: flip the status exactly once,
// write the audit record, and cancel the suggestion's pending dispatch job if
// one exists. Cancellation is best effort; a job already claimed for
// dispatch is a lost race and the message still goes out.
func (s *DefaultService) resolveTerminal(ctx context.Context, id string, action HumanAction, params ResolveParams) (*Suggestion, error) {
	sugg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resolved, err := s.repo.Resolve(ctx, id, StatusRejected, sugg.Text)
	if err != nil {
		return nil, err
	}

	s.recordAction(ctx, resolved, sugg.Text, action, params, nil)

	if msg, err := s.messages.FindPendingBySuggestion(ctx, id); err == nil && msg != nil {
		s.sched.Cancel(ctx, msg.ID, string(action))
	}

	return resolved, nil
}

// resolveAndSend handles approve/edit/autosend: flip the status exactly once,
// write the audit record, then run the delay engine and hand the message to
// the scheduler or the adapter.
func (s *DefaultService) resolveAndSend(ctx context.Context, id string, action HumanAction, target Status, params ResolveParams) (*DeliveryOutcome, error) {
	sugg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	text := sugg.Text
	var edited *string
	if action == ActionEdit {
		text = params.EditedText
		edited = &params.EditedText
	}

	resolved, err := s.repo.Resolve(ctx, id, target, text)
	if err != nil {
		return nil, err
	}

	s.recordAction(ctx, resolved, sugg.Text, action, params, edited)

	return s.send(ctx, resolved, text)
}

// send runs the delay engine against the tenant policy and routes the text
// to a dispatch job, or straight to the channel adapter when no delay
// applies or the scheduler is unavailable.
func (s *DefaultService) send(ctx context.Context, sugg *Suggestion, text string) (*DeliveryOutcome, error) {
	policy, err := s.policies.DelayPolicy(ctx, sugg.TenantID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "load delay policy")
	}
	hours, err := s.policies.WorkingHours(ctx, sugg.TenantID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "load working hours")
	}

	plan := s.engine.ComputeDelay(len([]rune(text)), policy, hours, s.clock())

	if !plan.ShouldSend {
		s.log.Info().
			Str("suggestion_id", sugg.ID).
			Msg("night mode disables sending, message held")
		return &DeliveryOutcome{Mode: DeliveryHeld}, nil
	}

	payload := text
	autoReply := false
	if plan.NightAction == delay.NightActionAutoReply {
		payload = plan.AutoReplyText
		autoReply = true
	}

	now := s.clock().UTC()
	msg := &dispatch.OutboundMessage{
		ID:             s.newID(),
		TenantID:       sugg.TenantID,
		ConversationID: sugg.ConversationID,
		SuggestionID:   sugg.ID,
		Channel:        sugg.Channel,
		RecipientID:    sugg.RecipientID,
		Text:           payload,
		Status:         dispatch.MessagePending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "persist outbound message")
	}

	if plan.DelayMs > 0 {
		job, err := s.sched.Schedule(ctx, dispatch.ScheduleRequest{
			MessageID:      msg.ID,
			ConversationID: sugg.ConversationID,
			SuggestionID:   sugg.ID,
			TenantID:       sugg.TenantID,
			Channel:        sugg.Channel,
			RecipientID:    sugg.RecipientID,
			PayloadText:    payload,
			TypingHint:     policy.TypingIndicatorEnabled,
			DelayMs:        plan.DelayMs,
		})
		if err != nil {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "schedule dispatch")
		}
		if job != nil {
			return &DeliveryOutcome{Mode: DeliveryScheduled, MessageID: msg.ID, Job: job, AutoReply: autoReply}, nil
		}
		// Scheduler unavailable: humanization is sacrificed, delivery is not.
	}

	return s.sendNow(ctx, msg, autoReply)
}

// sendNow delivers through the adapter immediately, guarding the message's
// pending->sent transition.
func (s *DefaultService) sendNow(ctx context.Context, msg *dispatch.OutboundMessage, autoReply bool) (*DeliveryOutcome, error) {
	adapter, err := s.channels.Adapter(ctx, msg.TenantID, msg.Channel)
	if err != nil {
		_, _ = s.messages.MarkFailed(ctx, msg.ID, err.Error())
		return &DeliveryOutcome{Mode: DeliveryFailed, MessageID: msg.ID}, nil
	}

	res, err := adapter.Send(ctx, msg.RecipientID, msg.Text)
	if err != nil || !res.Success {
		reason := "channel rejected message"
		if err != nil {
			reason = err.Error()
		} else if res.Error != "" {
			reason = res.Error
		}
		_, _ = s.messages.MarkFailed(ctx, msg.ID, reason)
		s.log.Warn().Str("message_id", msg.ID).Str("reason", reason).Msg("immediate dispatch failed")
		return &DeliveryOutcome{Mode: DeliveryFailed, MessageID: msg.ID}, nil
	}

	if _, err := s.messages.MarkSent(ctx, msg.ID, res.ExternalMessageID); err != nil {
		s.log.Error().Err(err).Str("message_id", msg.ID).Msg("mark message sent")
	}

	return &DeliveryOutcome{Mode: DeliveryImmediate, MessageID: msg.ID, AutoReply: autoReply}, nil
}

func (s *DefaultService) recordAction(ctx context.Context, sugg *Suggestion, originalText string, action HumanAction, params ResolveParams, edited *string) {
	rec := &ActionRecord{
		ID:           s.newID(),
		SuggestionID: sugg.ID,
		Action:       action,
		ActorID:      params.ActorID,
		OriginalText: originalText,
		EditedText:   edited,
		CreatedAt:    s.clock().UTC(),
	}
	if params.Reason != "" {
		rec.Reason = &params.Reason
	}

	if err := s.actions.Create(ctx, rec); err != nil {
		s.log.Error().Err(err).Str("suggestion_id", sugg.ID).Msg("persist action record")
	}
	s.audit.RecordHumanAction(ctx, rec, sugg)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
