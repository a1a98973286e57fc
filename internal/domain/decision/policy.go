// Package decision implements the confidence classification of generated
// replies into a delivery disposition.
package decision

import (
	"errors"
	"fmt"

	"replygate/internal/domain/intent"
)

// ErrInvalidPolicy is returned when a decision policy fails validation.
var ErrInvalidPolicy = errors.New("invalid decision policy")

// Policy holds the per-tenant thresholds and autosend gates.
type Policy struct {
	TenantID               string   `json:"tenant_id"`
	TAuto                  float64  `json:"t_auto"`
	TEscalate              float64  `json:"t_escalate"`
	AutosendAllowed        bool     `json:"autosend_allowed"`
	IntentsAutosendAllowed []string `json:"intents_autosend_allowed"`
	IntentsForceHandoff    []string `json:"intents_force_handoff"`
}

// DefaultPolicy returns the system default decision policy for a tenant.
// Autosend starts disabled; the admin surface flips it after the readiness
// check passes.
func DefaultPolicy(tenantID string) Policy {
	return Policy{
		TenantID:               tenantID,
		TAuto:                  0.85,
		TEscalate:              0.4,
		AutosendAllowed:        false,
		IntentsAutosendAllowed: []string{"order_status", "shipping", "product_question", "pricing", "greeting"},
		IntentsForceHandoff:    []string{"refund_request", "complaint", "legal"},
	}
}

// Validate rejects malformed policies at configuration time so classification
// never has to handle them.
func (p Policy) Validate(vocab intent.Vocabulary) error {
	if p.TAuto < 0 || p.TAuto > 1 {
		return fmt.Errorf("%w: tAuto %v outside [0,1]", ErrInvalidPolicy, p.TAuto)
	}
	if p.TEscalate < 0 || p.TEscalate > 1 {
		return fmt.Errorf("%w: tEscalate %v outside [0,1]", ErrInvalidPolicy, p.TEscalate)
	}
	if p.TEscalate > p.TAuto {
		return fmt.Errorf("%w: tEscalate %v exceeds tAuto %v", ErrInvalidPolicy, p.TEscalate, p.TAuto)
	}
	if err := vocab.Validate(p.IntentsAutosendAllowed); err != nil {
		return fmt.Errorf("%w: intentsAutosendAllowed: %v", ErrInvalidPolicy, err)
	}
	if err := vocab.Validate(p.IntentsForceHandoff); err != nil {
		return fmt.Errorf("%w: intentsForceHandoff: %v", ErrInvalidPolicy, err)
	}
	return nil
}

// AutosendAllowsIntent reports whether the intent is on the autosend allow-list.
func (p Policy) AutosendAllowsIntent(label string) bool {
	return containsLabel(p.IntentsAutosendAllowed, label)
}

// ForcesHandoff reports whether the intent is on the force-handoff list.
func (p Policy) ForcesHandoff(label string) bool {
	return containsLabel(p.IntentsForceHandoff, label)
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
