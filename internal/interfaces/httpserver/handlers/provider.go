package handlers

import (
	"github.com/rs/zerolog"

	"replygate/internal/domain/dispatch"
	"replygate/internal/domain/intent"
	"replygate/internal/domain/policy"
	"replygate/internal/domain/suggestion"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Suggestion *SuggestionHandler
	Policy     *PolicyHandler
	Dispatch   *DispatchHandler
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(
	suggestionService suggestion.Service,
	policyService *policy.Service,
	scheduler dispatch.Scheduler,
	vocab intent.Vocabulary,
	log zerolog.Logger,
) *Provider {
	return &Provider{
		Suggestion: NewSuggestionHandler(suggestionService, vocab, log),
		Policy:     NewPolicyHandler(policyService, log),
		Dispatch:   NewDispatchHandler(scheduler, log),
	}
}
