package delay

import (
	"math"
	"math/rand"
	"time"
)

// ResolveProfile maps message length to a timing profile. Boundaries are
// exact: 99 is short, 100 is medium, 300 is long.
func ResolveProfile(length int) ProfileName {
	switch {
	case length < 100:
		return ProfileShort
	case length < 300:
		return ProfileMedium
	default:
		return ProfileLong
	}
}

// NightAction describes what the night-mode policy decided.
type NightAction string

const (
	NightActionNone      NightAction = "none"
	NightActionAutoReply NightAction = "auto_reply"
	NightActionDelayed   NightAction = "delayed"
	NightActionHold      NightAction = "hold"
)

// Plan is the outcome of ComputeDelay: whether the message may go out, after
// how long, and with which text substitution.
type Plan struct {
	DelayMs       int         `json:"delay_ms"`
	Profile       ProfileName `json:"profile"`
	IsNightMode   bool        `json:"is_night_mode"`
	ShouldSend    bool        `json:"should_send"`
	NightAction   NightAction `json:"night_action"`
	AutoReplyText string      `json:"auto_reply_text,omitempty"`
}

// Engine computes humanized delays. It is pure apart from its random source,
// which is injected so tests can seed it.
type Engine struct {
	rng *rand.Rand
}

// NewEngine creates an engine with its own random source.
func NewEngine() *Engine {
	return NewEngineWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewEngineWithSource creates an engine with a caller-provided seed source.
func NewEngineWithSource(src rand.Source) *Engine {
	return &Engine{rng: rand.New(src)}
}

// ComputeDelay turns a message length and tenant policy into a concrete wait.
// The night window is evaluated against the supplied clock reading; callers
// that hold a plan for a long time should re-check InNightWindow before
// delivering.
func (e *Engine) ComputeDelay(length int, policy Policy, hours WorkingHours, now time.Time) Plan {
	profile := ResolveProfile(length)

	if !policy.Enabled {
		return Plan{Profile: profile, ShouldSend: true, NightAction: NightActionNone}
	}

	night := InNightWindow(now, hours)

	if night {
		switch policy.NightMode {
		case NightDisable:
			return Plan{Profile: profile, IsNightMode: true, ShouldSend: false, NightAction: NightActionHold}
		case NightAutoReply:
			return Plan{
				Profile:       profile,
				IsNightMode:   true,
				ShouldSend:    true,
				NightAction:   NightActionAutoReply,
				AutoReplyText: policy.NightAutoReplyText,
			}
		}
	}

	prof := policy.ProfileFor(profile)
	base := e.uniform(float64(prof.BaseMinMs), float64(prof.BaseMaxMs))
	typing := math.Round(float64(length) / prof.TypingCharsPerSec * 1000)
	jitter := e.uniform(-float64(prof.JitterMs), float64(prof.JitterMs))

	total := base + typing + jitter
	action := NightActionNone
	if night {
		total *= policy.NightDelayMultiplier
		action = NightActionDelayed
	}

	delayMs := int(math.Round(clamp(total, float64(policy.MinDelayMs), float64(policy.MaxDelayMs))))

	return Plan{
		DelayMs:     delayMs,
		Profile:     profile,
		IsNightMode: night,
		ShouldSend:  true,
		NightAction: action,
	}
}

// InNightWindow reports whether t falls outside the tenant's working hours,
// handling windows that wrap past midnight.
func InNightWindow(t time.Time, hours WorkingHours) bool {
	loc, err := time.LoadLocation(hours.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := t.In(loc)
	minute := local.Hour()*60 + local.Minute()

	start, okStart := parseClock(hours.Start)
	end, okEnd := parseClock(hours.End)
	if !okStart || !okEnd || start == end {
		return false
	}

	if start < end {
		return minute < start || minute >= end
	}
	// Overnight working window, e.g. 22:00-06:00.
	return minute >= end && minute < start
}

// NextWindowStart returns the next moment the working window opens after t.
// Falls back to t when the window cannot be parsed.
func NextWindowStart(t time.Time, hours WorkingHours) time.Time {
	loc, err := time.LoadLocation(hours.Timezone)
	if err != nil {
		loc = time.UTC
	}
	start, ok := parseClock(hours.Start)
	if !ok {
		return t
	}

	local := t.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), start/60, start%60, 0, 0, loc)
	if !candidate.After(local) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate.UTC()
}

func parseClock(s string) (int, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

func (e *Engine) uniform(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + e.rng.Float64()*(max-min)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
