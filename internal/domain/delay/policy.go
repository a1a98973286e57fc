// Package delay implements the human-like timing engine that paces outbound
// replies according to tenant policy.
package delay

import (
	"errors"
	"fmt"
)

// ErrInvalidPolicy is returned when a delay policy fails validation.
var ErrInvalidPolicy = errors.New("invalid delay policy")

// ProfileName identifies a timing profile selected by message length.
type ProfileName string

const (
	ProfileShort  ProfileName = "short"
	ProfileMedium ProfileName = "medium"
	ProfileLong   ProfileName = "long"
)

// NightMode governs behavior outside the tenant's working hours.
type NightMode string

const (
	NightAutoReply NightMode = "auto_reply"
	NightDelay     NightMode = "delay"
	NightDisable   NightMode = "disable"
)

// Profile contributes the base wait, simulated typing time and jitter for one
// message-length band.
type Profile struct {
	BaseMinMs         int     `json:"base_min_ms"`
	BaseMaxMs         int     `json:"base_max_ms"`
	TypingCharsPerSec float64 `json:"typing_chars_per_sec"`
	JitterMs          int     `json:"jitter_ms"`
}

// Policy holds the per-tenant humanization settings.
type Policy struct {
	TenantID               string                  `json:"tenant_id"`
	Enabled                bool                    `json:"enabled"`
	Profiles               map[ProfileName]Profile `json:"profiles"`
	NightMode              NightMode               `json:"night_mode"`
	NightDelayMultiplier   float64                 `json:"night_delay_multiplier"`
	NightAutoReplyText     string                  `json:"night_auto_reply_text"`
	MinDelayMs             int                     `json:"min_delay_ms"`
	MaxDelayMs             int                     `json:"max_delay_ms"`
	TypingIndicatorEnabled bool                    `json:"typing_indicator_enabled"`
}

// WorkingHours is the tenant's daytime window. Start after End wraps past
// midnight.
type WorkingHours struct {
	Start    string `json:"start"` // "HH:MM"
	End      string `json:"end"`   // "HH:MM"
	Timezone string `json:"timezone"`
}

// DefaultWorkingHours covers a typical support desk day.
func DefaultWorkingHours() WorkingHours {
	return WorkingHours{Start: "09:00", End: "21:00", Timezone: "UTC"}
}

// DefaultPolicy returns the system default delay policy for a tenant.
func DefaultPolicy(tenantID string) Policy {
	return Policy{
		TenantID: tenantID,
		Enabled:  true,
		Profiles: map[ProfileName]Profile{
			ProfileShort:  {BaseMinMs: 2000, BaseMaxMs: 5000, TypingCharsPerSec: 15, JitterMs: 500},
			ProfileMedium: {BaseMinMs: 4000, BaseMaxMs: 9000, TypingCharsPerSec: 14, JitterMs: 1000},
			ProfileLong:   {BaseMinMs: 7000, BaseMaxMs: 15000, TypingCharsPerSec: 12, JitterMs: 2000},
		},
		NightMode:              NightDelay,
		NightDelayMultiplier:   2.5,
		NightAutoReplyText:     "Thanks for reaching out! Our team is offline right now and will reply in the morning.",
		MinDelayMs:             1500,
		MaxDelayMs:             120000,
		TypingIndicatorEnabled: true,
	}
}

// Validate rejects malformed policies at configuration time.
func (p Policy) Validate() error {
	if p.MinDelayMs < 0 {
		return fmt.Errorf("%w: minDelayMs %d is negative", ErrInvalidPolicy, p.MinDelayMs)
	}
	if p.MinDelayMs > p.MaxDelayMs {
		return fmt.Errorf("%w: minDelayMs %d exceeds maxDelayMs %d", ErrInvalidPolicy, p.MinDelayMs, p.MaxDelayMs)
	}
	switch p.NightMode {
	case NightAutoReply, NightDelay, NightDisable:
	default:
		return fmt.Errorf("%w: unknown night mode %q", ErrInvalidPolicy, p.NightMode)
	}
	if p.NightMode == NightDelay && p.NightDelayMultiplier < 1 {
		return fmt.Errorf("%w: nightDelayMultiplier %v below 1", ErrInvalidPolicy, p.NightDelayMultiplier)
	}
	for name, prof := range p.Profiles {
		if prof.BaseMinMs < 0 || prof.BaseMinMs > prof.BaseMaxMs {
			return fmt.Errorf("%w: profile %s base range [%d,%d]", ErrInvalidPolicy, name, prof.BaseMinMs, prof.BaseMaxMs)
		}
		if prof.TypingCharsPerSec <= 0 {
			return fmt.Errorf("%w: profile %s typingCharsPerSec must be positive", ErrInvalidPolicy, name)
		}
		if prof.JitterMs < 0 {
			return fmt.Errorf("%w: profile %s jitterMs %d is negative", ErrInvalidPolicy, name, prof.JitterMs)
		}
	}
	return nil
}

// ProfileFor returns the profile for the given name, falling back to the
// system default when the tenant has not configured one.
func (p Policy) ProfileFor(name ProfileName) Profile {
	if prof, ok := p.Profiles[name]; ok {
		return prof
	}
	return DefaultPolicy(p.TenantID).Profiles[name]
}
