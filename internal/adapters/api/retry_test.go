package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicyDelayGrowsExponentiallyAndCaps(t *testing.T) {
	t.Parallel()

	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 4 * time.Second, Multiplier: 2}

	assert.Equal(t, time.Second, policy.Delay(0, 0))
	assert.Equal(t, 2*time.Second, policy.Delay(1, 0))
	assert.Equal(t, 4*time.Second, policy.Delay(2, 0))
	assert.Equal(t, 4*time.Second, policy.Delay(5, 0))
}

func TestRetryPolicyDelayHonorsRetryAfterWithinCap(t *testing.T) {
	t.Parallel()

	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 4 * time.Second, Multiplier: 2}

	assert.Equal(t, 3*time.Second, policy.Delay(0, 3*time.Second))
	assert.Equal(t, 4*time.Second, policy.Delay(0, time.Minute))
}

func TestRetryPolicyJitterStaysInBounds(t *testing.T) {
	t.Parallel()

	policy := DefaultRetryPolicy()
	for i := 0; i < 100; i++ {
		d := policy.Delay(0, 0)
		assert.GreaterOrEqual(t, d, 800*time.Millisecond)
		assert.LessOrEqual(t, d, 1200*time.Millisecond)
	}
}

func TestRetryPolicyWithDefaultsFillsZeroValues(t *testing.T) {
	t.Parallel()

	policy := RetryPolicy{}.withDefaults()
	assert.Equal(t, 3, policy.MaxAttempts)
	assert.Equal(t, 4*time.Second, policy.MaxDelay)
	assert.InDelta(t, 2.0, policy.Multiplier, 0.0001)
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "missing", value: "", want: 0},
		{name: "seconds", value: "2", want: 2 * time.Second},
		{name: "garbage", value: "soon", want: 0},
		{name: "negative", value: "-1", want: 0},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			header := http.Header{}
			if tc.value != "" {
				header.Set("Retry-After", tc.value)
			}
			assert.Equal(t, tc.want, parseRetryAfter(header))
		})
	}
}

func TestSleepContextReturnsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := sleepContext(ctx, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
