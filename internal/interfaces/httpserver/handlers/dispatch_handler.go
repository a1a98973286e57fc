package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"replygate/internal/domain/dispatch"
	"replygate/internal/interfaces/httpserver/requests"
	"replygate/internal/interfaces/httpserver/responses"
	"replygate/internal/utils/platformerrors"
)

// DispatchHandler exposes the delayed-send operational surface.
type DispatchHandler struct {
	scheduler dispatch.Scheduler
	log       zerolog.Logger
}

// NewDispatchHandler constructs the handler.
func NewDispatchHandler(scheduler dispatch.Scheduler, log zerolog.Logger) *DispatchHandler {
	return &DispatchHandler{
		scheduler: scheduler,
		log:       log.With().Str("handler", "dispatch").Logger(),
	}
}

// ListPending handles GET /v1/dispatch/jobs
func (h *DispatchHandler) ListPending(c *gin.Context) {
	jobs, err := h.scheduler.ListPending(c.Request.Context())
	if err != nil {
		responses.HandleError(c, err, "failed to list pending jobs")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": responses.MapJobsToResponse(jobs)})
}

// Cancel handles POST /v1/dispatch/jobs/:message_id/cancel
func (h *DispatchHandler) Cancel(c *gin.Context) {
	var req requests.CancelJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "dispatch-cancel-001")
		return
	}
	if req.Reason == "" {
		req.Reason = "operator_cancel"
	}

	cancelled := h.scheduler.Cancel(c.Request.Context(), c.Param("message_id"), req.Reason)
	c.JSON(http.StatusOK, responses.CancelJobResponse{Cancelled: cancelled})
}

// Metrics handles GET /v1/dispatch/metrics
func (h *DispatchHandler) Metrics(c *gin.Context) {
	m, err := h.scheduler.Metrics(c.Request.Context())
	if err != nil {
		responses.HandleError(c, err, "failed to get dispatch metrics")
		return
	}

	c.JSON(http.StatusOK, responses.MapMetricsToResponse(m))
}
