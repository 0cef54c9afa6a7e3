// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baylisoj/exposures/pkg/types"
)

// fakeClock advances only when the limiter sleeps.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func newTestLimiter(config RateLimiterConfig) *RateLimiter {
	rl, _ := newClockedLimiter(config)
	return rl
}

func newClockedLimiter(config RateLimiterConfig) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	rl := NewRateLimiter(config)
	rl.now = clock.Now
	rl.sleep = clock.Sleep
	rl.lastRefill = clock.now
	return rl, clock
}

func TestRateLimiter_Wait(t *testing.T) {
	rl, clock := newClockedLimiter(RateLimiterConfig{RequestsPerSecond: 2, BurstCapacity: 2})
	ctx := context.Background()

	// Burst is served immediately.
	require.NoError(t, rl.Wait(ctx))
	require.NoError(t, rl.Wait(ctx))
	assert.Empty(t, clock.sleeps)

	// Third request waits for one refill at 2/s.
	require.NoError(t, rl.Wait(ctx))
	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 500*time.Millisecond, clock.sleeps[0])
}

func TestRateLimiter_WaitUnpaced(t *testing.T) {
	rl, clock := newClockedLimiter(RateLimiterConfig{})
	for range 10 {
		require.NoError(t, rl.Wait(context.Background()))
	}
	assert.Empty(t, clock.sleeps)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, rl.Wait(ctx), context.Canceled)
}

func TestRateLimiter_Do(t *testing.T) {
	throttled := &types.APIError{StatusCode: 429, Message: "slow down"}
	other := errors.New("boom")

	tests := []struct {
		name       string
		errs       []error
		maxRetries int
		wantCalls  int
		wantErr    error
		wantSleeps []time.Duration
	}{
		{"first try", nil, 3, 1, nil, nil},
		{"non-throttling error is not retried", []error{other}, 3, 1, other, nil},
		{"retries with doubling backoff", []error{throttled, throttled}, 3, 3, nil,
			[]time.Duration{time.Second, 2 * time.Second}},
		{"gives up", []error{throttled, throttled, throttled}, 2, 3, throttled,
			[]time.Duration{time.Second, 2 * time.Second}},
		{"message match", []error{fmt.Errorf("status 429: rate limit exceeded")}, 1, 2, nil,
			[]time.Duration{time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl, clock := newClockedLimiter(RateLimiterConfig{MaxRetries: tt.maxRetries, RetryBackoff: time.Second})
			errs := append([]error(nil), tt.errs...)
			calls := 0

			resp, err := rl.Do(context.Background(), func(ctx context.Context) (*types.LLMResponse, error) {
				calls++
				if len(errs) > 0 {
					e := errs[0]
					errs = errs[1:]
					return nil, e
				}
				return &types.LLMResponse{Content: "ok"}, nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			assert.Equal(t, tt.wantSleeps, clock.sleeps)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ok", resp.Content)
		})
	}
}

func TestRateLimiter_DoCancelledDuringBackoff(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{MaxRetries: 3, RetryBackoff: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())

	_, err := rl.Do(ctx, func(ctx context.Context) (*types.LLMResponse, error) {
		cancel()
		return nil, &types.APIError{StatusCode: 429}
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig()
	assert.Positive(t, cfg.RequestsPerSecond)
	assert.Positive(t, cfg.BurstCapacity)
	assert.NotNil(t, cfg.Logger)
}
