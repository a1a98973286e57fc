package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replygate/internal/domain/retry"
)

func TestCalculateDelay(t *testing.T) {
	tests := []struct {
		name    string
		policy  retry.Policy
		attempt int
		want    time.Duration
	}{
		{
			name:    "attempt zero has no delay",
			policy:  retry.Policy{InitialDelay: time.Second, MaxDelay: time.Minute, BackoffStrategy: retry.BackoffFixed},
			attempt: 0,
			want:    0,
		},
		{
			name:    "fixed backoff repeats the initial delay",
			policy:  retry.Policy{InitialDelay: time.Second, MaxDelay: time.Minute, BackoffStrategy: retry.BackoffFixed},
			attempt: 3,
			want:    time.Second,
		},
		{
			name:    "linear backoff scales with the attempt",
			policy:  retry.Policy{InitialDelay: time.Second, MaxDelay: time.Minute, BackoffStrategy: retry.BackoffLinear},
			attempt: 3,
			want:    3 * time.Second,
		},
		{
			name:    "exponential backoff doubles",
			policy:  retry.Policy{InitialDelay: time.Second, MaxDelay: time.Minute, BackoffStrategy: retry.BackoffExponential},
			attempt: 4,
			want:    8 * time.Second,
		},
		{
			name:    "max delay caps the growth",
			policy:  retry.Policy{InitialDelay: time.Second, MaxDelay: 5 * time.Second, BackoffStrategy: retry.BackoffExponential},
			attempt: 10,
			want:    5 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.CalculateDelay(tt.attempt))
		})
	}
}

func TestCalculateDelay_JitterStaysInRange(t *testing.T) {
	policy := retry.Policy{
		InitialDelay:    time.Second,
		MaxDelay:        time.Minute,
		BackoffStrategy: retry.BackoffFixed,
		JitterFactor:    0.25,
	}

	for i := 0; i < 100; i++ {
		d := policy.CalculateDelay(1)
		assert.GreaterOrEqual(t, d, 750*time.Millisecond)
		assert.LessOrEqual(t, d, 1250*time.Millisecond)
	}
}

func TestExecute(t *testing.T) {
	t.Run("succeeds on first attempt", func(t *testing.T) {
		executor := retry.NewExecutor(retry.NoRetryPolicy())

		calls := 0
		err := executor.Execute(context.Background(), func(ctx context.Context, attempt int) error {
			calls++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries until success", func(t *testing.T) {
		executor := retry.NewExecutor(retry.Policy{
			MaxRetries:      3,
			InitialDelay:    time.Millisecond,
			MaxDelay:        time.Millisecond,
			BackoffStrategy: retry.BackoffFixed,
		})

		calls := 0
		err := executor.Execute(context.Background(), func(ctx context.Context, attempt int) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns last error after exhausting retries", func(t *testing.T) {
		executor := retry.NewExecutor(retry.Policy{
			MaxRetries:      2,
			InitialDelay:    time.Millisecond,
			MaxDelay:        time.Millisecond,
			BackoffStrategy: retry.BackoffFixed,
		})

		wantErr := errors.New("still broken")
		calls := 0
		err := executor.Execute(context.Background(), func(ctx context.Context, attempt int) error {
			calls++
			return wantErr
		})

		assert.ErrorIs(t, err, wantErr)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		executor := retry.NewExecutor(retry.Policy{
			MaxRetries:      10,
			InitialDelay:    50 * time.Millisecond,
			MaxDelay:        50 * time.Millisecond,
			BackoffStrategy: retry.BackoffFixed,
		})

		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := executor.Execute(ctx, func(ctx context.Context, attempt int) error {
			calls++
			cancel()
			return errors.New("transient")
		})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("passes the attempt number through", func(t *testing.T) {
		executor := retry.NewExecutor(retry.Policy{
			MaxRetries:      2,
			InitialDelay:    time.Millisecond,
			MaxDelay:        time.Millisecond,
			BackoffStrategy: retry.BackoffFixed,
		})

		var attempts []int
		_ = executor.Execute(context.Background(), func(ctx context.Context, attempt int) error {
			attempts = append(attempts, attempt)
			return errors.New("transient")
		})

		assert.Equal(t, []int{0, 1, 2}, attempts)
	})
}

func TestGatewayPolicy(t *testing.T) {
	policy := retry.GatewayPolicy()

	assert.Equal(t, 2, policy.MaxRetries)
	assert.Equal(t, retry.BackoffExponential, policy.BackoffStrategy)
	assert.LessOrEqual(t, policy.MaxDelay, 5*time.Second)
}
