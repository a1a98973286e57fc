package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"replygate/internal/domain/decision"
	"replygate/internal/domain/intent"
	"replygate/internal/domain/suggestion"
	"replygate/internal/infrastructure/metrics"
	"replygate/internal/interfaces/httpserver/requests"
	"replygate/internal/interfaces/httpserver/responses"
	"replygate/internal/utils/platformerrors"
)

// SuggestionHandler exposes HTTP entrypoints for the suggestion lifecycle.
type SuggestionHandler struct {
	service suggestion.Service
	vocab   intent.Vocabulary
	log     zerolog.Logger
}

// NewSuggestionHandler constructs the handler.
func NewSuggestionHandler(service suggestion.Service, vocab intent.Vocabulary, log zerolog.Logger) *SuggestionHandler {
	return &SuggestionHandler{
		service: service,
		vocab:   vocab,
		log:     log.With().Str("handler", "suggestion").Logger(),
	}
}

// Ingest handles POST /v1/suggestions
func (h *SuggestionHandler) Ingest(c *gin.Context) {
	var req requests.IngestSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "suggestion-ingest-001")
		return
	}

	if err := h.vocab.Validate([]string{req.Intent}); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "suggestion-ingest-002")
		return
	}

	penalties := make([]decision.Penalty, 0, len(req.Penalties))
	for _, p := range req.Penalties {
		penalties = append(penalties, decision.Penalty{Reason: p.Reason, Weight: p.Weight})
	}

	sugg, outcome, err := h.service.Ingest(c.Request.Context(), suggestion.IngestParams{
		TenantID:        req.TenantID,
		ConversationID:  req.ConversationID,
		SourceMessageID: req.SourceMessageID,
		Channel:         req.Channel,
		RecipientID:     req.RecipientID,
		Text:            req.Text,
		Intent:          req.Intent,
		Signals: decision.Signals{
			Similarity:  req.Signals.Similarity,
			IntentScore: req.Signals.IntentScore,
			SelfCheck:   req.Signals.SelfCheck,
		},
		SelfCheckNeedHandoff: req.SelfCheckNeedHandoff,
		Penalties:            penalties,
	})
	if err != nil {
		responses.HandleError(c, err, "failed to ingest suggestion")
		return
	}

	recordDecision(sugg)

	c.JSON(http.StatusCreated, responses.IngestResponse{
		Suggestion: responses.MapSuggestionToResponse(sugg),
		Delivery:   responses.MapDeliveryToResponse(outcome),
	})
}

// Get handles GET /v1/suggestions/:suggestion_id
func (h *SuggestionHandler) Get(c *gin.Context) {
	sugg, err := h.service.Get(c.Request.Context(), c.Param("suggestion_id"))
	if err != nil {
		if errors.Is(err, suggestion.ErrNotFound) {
			responses.HandleNewError(c, platformerrors.ErrorTypeNotFound, "suggestion not found", "suggestion-get-001")
			return
		}
		responses.HandleError(c, err, "failed to get suggestion")
		return
	}

	c.JSON(http.StatusOK, responses.MapSuggestionToResponse(sugg))
}

// ListByConversation handles GET /v1/conversations/:conversation_id/suggestions
func (h *SuggestionHandler) ListByConversation(c *gin.Context) {
	list, err := h.service.ListByConversation(c.Request.Context(), c.Param("conversation_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to list suggestions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": responses.MapSuggestionsToResponse(list)})
}

// ListActions handles GET /v1/suggestions/:suggestion_id/actions
func (h *SuggestionHandler) ListActions(c *gin.Context) {
	list, err := h.service.ListActions(c.Request.Context(), c.Param("suggestion_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to list suggestion actions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": responses.MapActionsToResponse(list)})
}

// Approve handles POST /v1/suggestions/:suggestion_id/approve
func (h *SuggestionHandler) Approve(c *gin.Context) {
	params, ok := h.bindResolve(c)
	if !ok {
		return
	}

	outcome, err := h.service.Approve(c.Request.Context(), c.Param("suggestion_id"), params)
	if err != nil {
		h.handleResolveError(c, err, "failed to approve suggestion")
		return
	}

	metrics.ResolutionsTotal.WithLabelValues(string(suggestion.ActionApprove)).Inc()
	c.JSON(http.StatusOK, gin.H{"delivery": responses.MapDeliveryToResponse(outcome)})
}

// Edit handles POST /v1/suggestions/:suggestion_id/edit
func (h *SuggestionHandler) Edit(c *gin.Context) {
	params, ok := h.bindResolve(c)
	if !ok {
		return
	}
	if strings.TrimSpace(params.EditedText) == "" {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "edited_text is required", "suggestion-edit-001")
		return
	}

	outcome, err := h.service.Edit(c.Request.Context(), c.Param("suggestion_id"), params)
	if err != nil {
		h.handleResolveError(c, err, "failed to edit suggestion")
		return
	}

	metrics.ResolutionsTotal.WithLabelValues(string(suggestion.ActionEdit)).Inc()
	c.JSON(http.StatusOK, gin.H{"delivery": responses.MapDeliveryToResponse(outcome)})
}

// Reject handles POST /v1/suggestions/:suggestion_id/reject
func (h *SuggestionHandler) Reject(c *gin.Context) {
	params, ok := h.bindResolve(c)
	if !ok {
		return
	}

	if err := h.service.Reject(c.Request.Context(), c.Param("suggestion_id"), params); err != nil {
		h.handleResolveError(c, err, "failed to reject suggestion")
		return
	}

	metrics.ResolutionsTotal.WithLabelValues(string(suggestion.ActionReject)).Inc()
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}

// Escalate handles POST /v1/suggestions/:suggestion_id/escalate
func (h *SuggestionHandler) Escalate(c *gin.Context) {
	params, ok := h.bindResolve(c)
	if !ok {
		return
	}

	if err := h.service.Escalate(c.Request.Context(), c.Param("suggestion_id"), params); err != nil {
		h.handleResolveError(c, err, "failed to escalate suggestion")
		return
	}

	metrics.ResolutionsTotal.WithLabelValues(string(suggestion.ActionEscalate)).Inc()
	c.JSON(http.StatusOK, gin.H{"status": "escalated"})
}

func (h *SuggestionHandler) bindResolve(c *gin.Context) (suggestion.ResolveParams, bool) {
	var req requests.ResolveSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "suggestion-resolve-001")
		return suggestion.ResolveParams{}, false
	}
	return suggestion.ResolveParams{
		ActorID:    req.ActorID,
		EditedText: req.EditedText,
		Reason:     req.Reason,
	}, true
}

func (h *SuggestionHandler) handleResolveError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, suggestion.ErrNotFound):
		responses.HandleNewError(c, platformerrors.ErrorTypeNotFound, "suggestion not found", "suggestion-resolve-002")
	case errors.Is(err, suggestion.ErrAlreadyResolved):
		responses.HandleNewError(c, platformerrors.ErrorTypeConflict, "suggestion already resolved", "suggestion-resolve-003")
	default:
		responses.HandleError(c, err, message)
	}
}

func recordDecision(s *suggestion.Suggestion) {
	metrics.DecisionsTotal.WithLabelValues(s.Disposition.String(), boolLabel(s.AutosendEligible)).Inc()
	if s.AutosendBlockReason != nil {
		metrics.AutosendBlocksTotal.WithLabelValues(string(*s.AutosendBlockReason)).Inc()
	}
	if s.AutosendEligible {
		metrics.ResolutionsTotal.WithLabelValues(string(suggestion.ActionAutosend)).Inc()
	}
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
