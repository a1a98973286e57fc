package delay_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replygate/internal/domain/delay"
)

func daytime() time.Time {
	return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
}

func nighttime() time.Time {
	return time.Date(2026, 1, 15, 23, 30, 0, 0, time.UTC)
}

func TestResolveProfile_Boundaries(t *testing.T) {
	tests := []struct {
		length int
		want   delay.ProfileName
	}{
		{0, delay.ProfileShort},
		{50, delay.ProfileShort},
		{99, delay.ProfileShort},
		{100, delay.ProfileMedium},
		{299, delay.ProfileMedium},
		{300, delay.ProfileLong},
		{5000, delay.ProfileLong},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, delay.ResolveProfile(tt.length), "length %d", tt.length)
	}
}

func TestComputeDelay_ShortMessageBounds(t *testing.T) {
	policy := delay.DefaultPolicy("tenant-1")
	hours := delay.DefaultWorkingHours()

	// 50 chars at 15 chars/sec adds a fixed 3333ms of typing time on top of
	// base [2000,5000] and jitter [-500,500].
	for seed := int64(0); seed < 200; seed++ {
		engine := delay.NewEngineWithSource(rand.NewSource(seed))
		plan := engine.ComputeDelay(50, policy, hours, daytime())

		require.True(t, plan.ShouldSend)
		assert.Equal(t, delay.ProfileShort, plan.Profile)
		assert.False(t, plan.IsNightMode)
		assert.Equal(t, delay.NightActionNone, plan.NightAction)
		assert.GreaterOrEqual(t, plan.DelayMs, 4833, "seed %d", seed)
		assert.LessOrEqual(t, plan.DelayMs, 8833, "seed %d", seed)
	}
}

func TestComputeDelay_AlwaysWithinClamp(t *testing.T) {
	policy := delay.DefaultPolicy("tenant-1")
	policy.MinDelayMs = 10000
	policy.MaxDelayMs = 11000
	hours := delay.DefaultWorkingHours()

	for seed := int64(0); seed < 200; seed++ {
		engine := delay.NewEngineWithSource(rand.NewSource(seed))
		for _, length := range []int{10, 150, 400} {
			plan := engine.ComputeDelay(length, policy, hours, daytime())
			assert.GreaterOrEqual(t, plan.DelayMs, 10000, "seed %d length %d", seed, length)
			assert.LessOrEqual(t, plan.DelayMs, 11000, "seed %d length %d", seed, length)
		}
	}
}

func TestComputeDelay_DisabledPolicySendsImmediately(t *testing.T) {
	policy := delay.DefaultPolicy("tenant-1")
	policy.Enabled = false
	engine := delay.NewEngineWithSource(rand.NewSource(1))

	plan := engine.ComputeDelay(50, policy, delay.DefaultWorkingHours(), nighttime())

	assert.True(t, plan.ShouldSend)
	assert.Equal(t, 0, plan.DelayMs)
	assert.False(t, plan.IsNightMode)
	assert.Equal(t, delay.NightActionNone, plan.NightAction)
}

func TestComputeDelay_NightModes(t *testing.T) {
	hours := delay.DefaultWorkingHours()

	t.Run("disable holds the message", func(t *testing.T) {
		policy := delay.DefaultPolicy("tenant-1")
		policy.NightMode = delay.NightDisable
		engine := delay.NewEngineWithSource(rand.NewSource(1))

		plan := engine.ComputeDelay(50, policy, hours, nighttime())

		assert.False(t, plan.ShouldSend)
		assert.True(t, plan.IsNightMode)
		assert.Equal(t, delay.NightActionHold, plan.NightAction)
		assert.Equal(t, 0, plan.DelayMs)
	})

	t.Run("auto reply substitutes text with zero delay", func(t *testing.T) {
		policy := delay.DefaultPolicy("tenant-1")
		policy.NightMode = delay.NightAutoReply
		policy.NightAutoReplyText = "We are closed, back tomorrow."
		engine := delay.NewEngineWithSource(rand.NewSource(1))

		plan := engine.ComputeDelay(50, policy, hours, nighttime())

		assert.True(t, plan.ShouldSend)
		assert.True(t, plan.IsNightMode)
		assert.Equal(t, delay.NightActionAutoReply, plan.NightAction)
		assert.Equal(t, 0, plan.DelayMs)
		assert.Equal(t, "We are closed, back tomorrow.", plan.AutoReplyText)
	})

	t.Run("delay multiplies the computed wait", func(t *testing.T) {
		policy := delay.DefaultPolicy("tenant-1")
		policy.NightMode = delay.NightDelay
		policy.NightDelayMultiplier = 2.5

		for seed := int64(0); seed < 50; seed++ {
			engine := delay.NewEngineWithSource(rand.NewSource(seed))
			plan := engine.ComputeDelay(50, policy, hours, nighttime())

			require.True(t, plan.ShouldSend)
			assert.True(t, plan.IsNightMode)
			assert.Equal(t, delay.NightActionDelayed, plan.NightAction)
			// Daytime bounds [4833, 8833] scaled by the 2.5 multiplier.
			assert.GreaterOrEqual(t, plan.DelayMs, 12082, "seed %d", seed)
			assert.LessOrEqual(t, plan.DelayMs, 22083, "seed %d", seed)
		}
	})

	t.Run("night mode respects the global max clamp", func(t *testing.T) {
		policy := delay.DefaultPolicy("tenant-1")
		policy.NightMode = delay.NightDelay
		policy.NightDelayMultiplier = 100
		policy.MaxDelayMs = 30000
		engine := delay.NewEngineWithSource(rand.NewSource(1))

		plan := engine.ComputeDelay(50, policy, hours, nighttime())

		assert.Equal(t, 30000, plan.DelayMs)
	})
}

func TestInNightWindow(t *testing.T) {
	tests := []struct {
		name  string
		hours delay.WorkingHours
		at    time.Time
		want  bool
	}{
		{
			name:  "midday inside a daytime window",
			hours: delay.WorkingHours{Start: "09:00", End: "21:00", Timezone: "UTC"},
			at:    time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
			want:  false,
		},
		{
			name:  "before the window opens",
			hours: delay.WorkingHours{Start: "09:00", End: "21:00", Timezone: "UTC"},
			at:    time.Date(2026, 1, 15, 8, 59, 0, 0, time.UTC),
			want:  true,
		},
		{
			name:  "closing minute is already night",
			hours: delay.WorkingHours{Start: "09:00", End: "21:00", Timezone: "UTC"},
			at:    time.Date(2026, 1, 15, 21, 0, 0, 0, time.UTC),
			want:  true,
		},
		{
			name:  "overnight window covers late evening",
			hours: delay.WorkingHours{Start: "22:00", End: "06:00", Timezone: "UTC"},
			at:    time.Date(2026, 1, 15, 23, 0, 0, 0, time.UTC),
			want:  false,
		},
		{
			name:  "overnight window covers early morning",
			hours: delay.WorkingHours{Start: "22:00", End: "06:00", Timezone: "UTC"},
			at:    time.Date(2026, 1, 15, 3, 0, 0, 0, time.UTC),
			want:  false,
		},
		{
			name:  "midday is night for an overnight window",
			hours: delay.WorkingHours{Start: "22:00", End: "06:00", Timezone: "UTC"},
			at:    time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
			want:  true,
		},
		{
			name:  "timezone offset shifts the window",
			hours: delay.WorkingHours{Start: "09:00", End: "21:00", Timezone: "America/New_York"},
			at:    time.Date(2026, 1, 15, 13, 0, 0, 0, time.UTC), // 08:00 in New York
			want:  true,
		},
		{
			name:  "unparseable hours never report night",
			hours: delay.WorkingHours{Start: "nine", End: "21:00", Timezone: "UTC"},
			at:    time.Date(2026, 1, 15, 3, 0, 0, 0, time.UTC),
			want:  false,
		},
		{
			name:  "degenerate equal window never reports night",
			hours: delay.WorkingHours{Start: "09:00", End: "09:00", Timezone: "UTC"},
			at:    time.Date(2026, 1, 15, 3, 0, 0, 0, time.UTC),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, delay.InNightWindow(tt.at, tt.hours))
		})
	}
}

func TestNextWindowStart(t *testing.T) {
	hours := delay.WorkingHours{Start: "09:00", End: "21:00", Timezone: "UTC"}

	t.Run("late evening rolls to the next morning", func(t *testing.T) {
		at := time.Date(2026, 1, 15, 23, 30, 0, 0, time.UTC)
		got := delay.NextWindowStart(at, hours)
		assert.Equal(t, time.Date(2026, 1, 16, 9, 0, 0, 0, time.UTC), got)
	})

	t.Run("early morning opens the same day", func(t *testing.T) {
		at := time.Date(2026, 1, 15, 5, 0, 0, 0, time.UTC)
		got := delay.NextWindowStart(at, hours)
		assert.Equal(t, time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC), got)
	})

	t.Run("exactly at opening rolls forward a day", func(t *testing.T) {
		at := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
		got := delay.NextWindowStart(at, hours)
		assert.Equal(t, time.Date(2026, 1, 16, 9, 0, 0, 0, time.UTC), got)
	})

	t.Run("unparseable start returns the input time", func(t *testing.T) {
		at := time.Date(2026, 1, 15, 5, 0, 0, 0, time.UTC)
		got := delay.NextWindowStart(at, delay.WorkingHours{Start: "soon", End: "21:00", Timezone: "UTC"})
		assert.Equal(t, at, got)
	})
}
