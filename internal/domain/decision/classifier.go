package decision

import "fmt"

// Disposition is the three-way classification of a suggestion.
type Disposition string

const (
	DispositionAutoSend     Disposition = "auto_send"
	DispositionNeedApproval Disposition = "need_approval"
	DispositionEscalate     Disposition = "escalate"
)

// String returns the string representation of the disposition.
func (d Disposition) String() string {
	return string(d)
}

// AutosendBlockReason records which autosend lock failed while the
// disposition was still AUTO_SEND.
type AutosendBlockReason string

const (
	BlockPolicyDisabled       AutosendBlockReason = "policy_disabled"
	BlockIntentNotAllowlisted AutosendBlockReason = "intent_not_allowlisted"
	BlockSelfCheckHandoff     AutosendBlockReason = "selfcheck_handoff"
)

// Signals carries the three independent trust scores. A nil score means the
// upstream step could not produce one.
type Signals struct {
	Similarity  *float64 `json:"similarity"`
	IntentScore *float64 `json:"intent_score"`
	SelfCheck   *float64 `json:"self_check"`
}

// Penalty is a named deduction applied to the aggregate confidence.
type Penalty struct {
	Reason string  `json:"reason"`
	Weight float64 `json:"weight"`
}

// Result is the full classification outcome persisted with the suggestion.
type Result struct {
	Total            float64              `json:"total"`
	Disposition      Disposition          `json:"disposition"`
	AutosendEligible bool                 `json:"autosend_eligible"`
	BlockReason      *AutosendBlockReason `json:"autosend_block_reason,omitempty"`
	Penalties        []Penalty            `json:"penalties,omitempty"`
	Explanations     []string             `json:"explanations,omitempty"`
}

// Classify turns the trust signals, tenant policy and intent into a delivery
// disposition plus the autosend eligibility gate. It is pure and never fails:
// missing signals count as 0 with a recorded penalty, degrading toward
// ESCALATE rather than AUTO_SEND.
func Classify(signals Signals, policy Policy, intentLabel string, selfCheckNeedHandoff bool, penalties []Penalty) Result {
	res := Result{Penalties: append([]Penalty(nil), penalties...)}

	similarity := signalValue(signals.Similarity, "similarity", &res)
	intentScore := signalValue(signals.IntentScore, "intent_score", &res)
	selfCheck := signalValue(signals.SelfCheck, "self_check", &res)

	total := (similarity + intentScore + selfCheck) / 3
	for _, p := range res.Penalties {
		total -= p.Weight
	}
	res.Total = clamp01(total)

	switch {
	case selfCheckNeedHandoff:
		res.Disposition = DispositionEscalate
		res.Explanations = append(res.Explanations, "self-check requested a human handoff")
	case policy.ForcesHandoff(intentLabel):
		res.Disposition = DispositionEscalate
		res.Explanations = append(res.Explanations, fmt.Sprintf("intent %q forces a handoff", intentLabel))
	case res.Total < policy.TEscalate:
		res.Disposition = DispositionEscalate
		res.Explanations = append(res.Explanations, fmt.Sprintf("confidence %.3f below escalation threshold %.3f", res.Total, policy.TEscalate))
	case res.Total >= policy.TAuto:
		res.Disposition = DispositionAutoSend
		res.Explanations = append(res.Explanations, fmt.Sprintf("confidence %.3f at or above autosend threshold %.3f", res.Total, policy.TAuto))
	default:
		res.Disposition = DispositionNeedApproval
		res.Explanations = append(res.Explanations, fmt.Sprintf("confidence %.3f between thresholds %.3f and %.3f", res.Total, policy.TEscalate, policy.TAuto))
	}

	res.AutosendEligible, res.BlockReason = autosendGate(res.Disposition, policy, intentLabel, selfCheckNeedHandoff)
	if res.BlockReason != nil {
		res.Explanations = append(res.Explanations, fmt.Sprintf("autosend blocked: %s", *res.BlockReason))
	}

	return res
}

// autosendGate evaluates the triple lock: policy allowed, intent
// allow-listed, no handoff flag. Only meaningful when the disposition is
// AUTO_SEND; the first failing lock is recorded.
func autosendGate(d Disposition, policy Policy, intentLabel string, handoff bool) (bool, *AutosendBlockReason) {
	if d != DispositionAutoSend {
		return false, nil
	}
	if !policy.AutosendAllowed {
		return false, blockReason(BlockPolicyDisabled)
	}
	if !policy.AutosendAllowsIntent(intentLabel) {
		return false, blockReason(BlockIntentNotAllowlisted)
	}
	if handoff {
		return false, blockReason(BlockSelfCheckHandoff)
	}
	return true, nil
}

func signalValue(v *float64, name string, res *Result) float64 {
	if v == nil {
		res.Penalties = append(res.Penalties, Penalty{Reason: "signal_unavailable:" + name})
		res.Explanations = append(res.Explanations, fmt.Sprintf("signal %s unavailable, treated as 0", name))
		return 0
	}
	return clamp01(*v)
}

func blockReason(r AutosendBlockReason) *AutosendBlockReason {
	return &r
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
