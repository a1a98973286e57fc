package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"replygate/internal/domain/policy"
	"replygate/internal/interfaces/httpserver/responses"
	"replygate/internal/utils/platformerrors"
)

// PolicyHandler exposes the tenant policy admin surface.
type PolicyHandler struct {
	service *policy.Service
	log     zerolog.Logger
}

// NewPolicyHandler constructs the handler.
func NewPolicyHandler(service *policy.Service, log zerolog.Logger) *PolicyHandler {
	return &PolicyHandler{
		service: service,
		log:     log.With().Str("handler", "policy").Logger(),
	}
}

// GetDecisionPolicy handles GET /v1/tenants/:tenant_id/policies/decision
func (h *PolicyHandler) GetDecisionPolicy(c *gin.Context) {
	p, err := h.service.GetDecisionPolicy(c.Request.Context(), c.Param("tenant_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to get decision policy")
		return
	}

	c.JSON(http.StatusOK, p)
}

// PatchDecisionPolicy handles PATCH /v1/tenants/:tenant_id/policies/decision
func (h *PolicyHandler) PatchDecisionPolicy(c *gin.Context) {
	var patch policy.DecisionPolicyPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "policy-decision-patch-001")
		return
	}

	p, err := h.service.PatchDecisionPolicy(c.Request.Context(), c.Param("tenant_id"), patch)
	if err != nil {
		responses.HandleError(c, err, "failed to update decision policy")
		return
	}

	c.JSON(http.StatusOK, p)
}

// GetDelayPolicy handles GET /v1/tenants/:tenant_id/policies/delay
func (h *PolicyHandler) GetDelayPolicy(c *gin.Context) {
	p, err := h.service.GetDelayPolicy(c.Request.Context(), c.Param("tenant_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to get delay policy")
		return
	}

	c.JSON(http.StatusOK, p)
}

// PatchDelayPolicy handles PATCH /v1/tenants/:tenant_id/policies/delay
func (h *PolicyHandler) PatchDelayPolicy(c *gin.Context) {
	var patch policy.DelayPolicyPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "policy-delay-patch-001")
		return
	}

	p, err := h.service.PatchDelayPolicy(c.Request.Context(), c.Param("tenant_id"), patch)
	if err != nil {
		responses.HandleError(c, err, "failed to update delay policy")
		return
	}

	c.JSON(http.StatusOK, p)
}

// GetWorkingHours handles GET /v1/tenants/:tenant_id/policies/working-hours
func (h *PolicyHandler) GetWorkingHours(c *gin.Context) {
	hours, err := h.service.GetWorkingHours(c.Request.Context(), c.Param("tenant_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to get working hours")
		return
	}

	c.JSON(http.StatusOK, hours)
}
