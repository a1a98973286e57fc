// Package policy is the admin configuration surface for tenant decision and
// delay policies.
package policy

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"replygate/internal/domain/decision"
	"replygate/internal/domain/delay"
	"replygate/internal/domain/intent"
	"replygate/internal/utils/platformerrors"
)

// Repository persists tenant policies. Missing rows read as system defaults.
type Repository interface {
	GetDecisionPolicy(ctx context.Context, tenantID string) (decision.Policy, error)
	SaveDecisionPolicy(ctx context.Context, p decision.Policy) error
	GetDelayPolicy(ctx context.Context, tenantID string) (delay.Policy, error)
	SaveDelayPolicy(ctx context.Context, p delay.Policy) error
	GetWorkingHours(ctx context.Context, tenantID string) (delay.WorkingHours, error)
	SaveWorkingHours(ctx context.Context, tenantID string, h delay.WorkingHours) error
}

// ReadinessScorer gates enabling autosend on an external readiness check.
type ReadinessScorer interface {
	// Ready reports whether the tenant may turn autosend on. An
	// unreachable scorer must fail closed.
	Ready(ctx context.Context, tenantID string) (bool, string, error)
}

// DecisionPolicyPatch carries partial decision-policy updates.
type DecisionPolicyPatch struct {
	TAuto                  *float64  `json:"t_auto,omitempty"`
	TEscalate              *float64  `json:"t_escalate,omitempty"`
	AutosendAllowed        *bool     `json:"autosend_allowed,omitempty"`
	IntentsAutosendAllowed *[]string `json:"intents_autosend_allowed,omitempty"`
	IntentsForceHandoff    *[]string `json:"intents_force_handoff,omitempty"`
}

// DelayPolicyPatch carries partial delay-policy updates.
type DelayPolicyPatch struct {
	Enabled                *bool                                `json:"enabled,omitempty"`
	Profiles               *map[delay.ProfileName]delay.Profile `json:"profiles,omitempty"`
	NightMode              *delay.NightMode                     `json:"night_mode,omitempty"`
	NightDelayMultiplier   *float64                             `json:"night_delay_multiplier,omitempty"`
	NightAutoReplyText     *string                              `json:"night_auto_reply_text,omitempty"`
	MinDelayMs             *int                                 `json:"min_delay_ms,omitempty"`
	MaxDelayMs             *int                                 `json:"max_delay_ms,omitempty"`
	TypingIndicatorEnabled *bool                                `json:"typing_indicator_enabled,omitempty"`
	WorkingHours           *delay.WorkingHours                  `json:"working_hours,omitempty"`
}

// Service validates and applies tenant policy changes.
type Service struct {
	repo      Repository
	readiness ReadinessScorer
	vocab     intent.Vocabulary
	log       zerolog.Logger
}

// NewService constructs the policy service.
func NewService(repo Repository, readiness ReadinessScorer, vocab intent.Vocabulary, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		readiness: readiness,
		vocab:     vocab,
		log:       log.With().Str("component", "policy-service").Logger(),
	}
}

// GetDecisionPolicy returns the tenant's decision policy or defaults.
func (s *Service) GetDecisionPolicy(ctx context.Context, tenantID string) (decision.Policy, error) {
	return s.repo.GetDecisionPolicy(ctx, tenantID)
}

// PatchDecisionPolicy applies a partial update after full validation.
// Enabling autosend additionally requires the external readiness check.
func (s *Service) PatchDecisionPolicy(ctx context.Context, tenantID string, patch DecisionPolicyPatch) (decision.Policy, error) {
	current, err := s.repo.GetDecisionPolicy(ctx, tenantID)
	if err != nil {
		return decision.Policy{}, err
	}

	next := current
	if patch.TAuto != nil {
		next.TAuto = *patch.TAuto
	}
	if patch.TEscalate != nil {
		next.TEscalate = *patch.TEscalate
	}
	if patch.AutosendAllowed != nil {
		next.AutosendAllowed = *patch.AutosendAllowed
	}
	if patch.IntentsAutosendAllowed != nil {
		next.IntentsAutosendAllowed = *patch.IntentsAutosendAllowed
	}
	if patch.IntentsForceHandoff != nil {
		next.IntentsForceHandoff = *patch.IntentsForceHandoff
	}

	if err := next.Validate(s.vocab); err != nil {
		return decision.Policy{}, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, err.Error(), err, "policy-decision-validate-001")
	}

	if !current.AutosendAllowed && next.AutosendAllowed {
		ready, detail, err := s.readiness.Ready(ctx, tenantID)
		if err != nil {
			// Fail closed: an unreachable scorer never unlocks autosend.
			return decision.Policy{}, platformerrors.NewError(ctx, platformerrors.LayerDomain,
				platformerrors.ErrorTypeExternal, "readiness check unavailable", err, "policy-readiness-001")
		}
		if !ready {
			return decision.Policy{}, platformerrors.NewError(ctx, platformerrors.LayerDomain,
				platformerrors.ErrorTypeUnprocessable,
				fmt.Sprintf("tenant not ready for autosend: %s", detail), nil, "policy-readiness-002")
		}
	}

	if err := s.repo.SaveDecisionPolicy(ctx, next); err != nil {
		return decision.Policy{}, err
	}

	s.log.Info().Str("tenant_id", tenantID).Bool("autosend_allowed", next.AutosendAllowed).Msg("decision policy updated")
	return next, nil
}

// GetDelayPolicy returns the tenant's delay policy or defaults.
func (s *Service) GetDelayPolicy(ctx context.Context, tenantID string) (delay.Policy, error) {
	return s.repo.GetDelayPolicy(ctx, tenantID)
}

// PatchDelayPolicy applies a partial update after full validation.
func (s *Service) PatchDelayPolicy(ctx context.Context, tenantID string, patch DelayPolicyPatch) (delay.Policy, error) {
	current, err := s.repo.GetDelayPolicy(ctx, tenantID)
	if err != nil {
		return delay.Policy{}, err
	}

	next := current
	if patch.Enabled != nil {
		next.Enabled = *patch.Enabled
	}
	if patch.Profiles != nil {
		next.Profiles = *patch.Profiles
	}
	if patch.NightMode != nil {
		next.NightMode = *patch.NightMode
	}
	if patch.NightDelayMultiplier != nil {
		next.NightDelayMultiplier = *patch.NightDelayMultiplier
	}
	if patch.NightAutoReplyText != nil {
		next.NightAutoReplyText = *patch.NightAutoReplyText
	}
	if patch.MinDelayMs != nil {
		next.MinDelayMs = *patch.MinDelayMs
	}
	if patch.MaxDelayMs != nil {
		next.MaxDelayMs = *patch.MaxDelayMs
	}
	if patch.TypingIndicatorEnabled != nil {
		next.TypingIndicatorEnabled = *patch.TypingIndicatorEnabled
	}

	if err := next.Validate(); err != nil {
		return delay.Policy{}, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, err.Error(), err, "policy-delay-validate-001")
	}

	if patch.WorkingHours != nil {
		if err := s.repo.SaveWorkingHours(ctx, tenantID, *patch.WorkingHours); err != nil {
			return delay.Policy{}, err
		}
	}

	if err := s.repo.SaveDelayPolicy(ctx, next); err != nil {
		return delay.Policy{}, err
	}

	s.log.Info().Str("tenant_id", tenantID).Bool("enabled", next.Enabled).Msg("delay policy updated")
	return next, nil
}

// GetWorkingHours returns the tenant's working hours or defaults.
func (s *Service) GetWorkingHours(ctx context.Context, tenantID string) (delay.WorkingHours, error) {
	return s.repo.GetWorkingHours(ctx, tenantID)
}

// DecisionPolicy implements the suggestion.PolicyProvider read side.
func (s *Service) DecisionPolicy(ctx context.Context, tenantID string) (decision.Policy, error) {
	return s.repo.GetDecisionPolicy(ctx, tenantID)
}

// DelayPolicy implements the suggestion.PolicyProvider read side.
func (s *Service) DelayPolicy(ctx context.Context, tenantID string) (delay.Policy, error) {
	return s.repo.GetDelayPolicy(ctx, tenantID)
}

// WorkingHours implements the suggestion.PolicyProvider read side.
func (s *Service) WorkingHours(ctx context.Context, tenantID string) (delay.WorkingHours, error) {
	return s.repo.GetWorkingHours(ctx, tenantID)
}
