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
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/baylisoj/exposures/pkg/types"
)

// RateLimiterConfig configures the LLM rate limiter.
type RateLimiterConfig struct {
	// RequestsPerSecond is the sustained request rate. Zero disables pacing.
	RequestsPerSecond float64

	// BurstCapacity is the maximum burst of requests allowed.
	BurstCapacity int

	// MaxRetries is the maximum number of retries for 429 throttling errors.
	MaxRetries int

	// RetryBackoff is the initial backoff duration for retries (doubles each retry).
	RetryBackoff time.Duration

	Logger *zap.Logger
}

// DefaultRateLimiterConfig returns defaults suited to a single interactive user.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 2.0,
		BurstCapacity:     4,
		MaxRetries:        3,
		RetryBackoff:      time.Second,
		Logger:            zap.NewNop(),
	}
}

// RateLimiter paces LLM requests with a token bucket and retries throttled ones.
type RateLimiter struct {
	config RateLimiterConfig

	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64
	lastRefill time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.BurstCapacity < 1 {
		config.BurstCapacity = 1
	}
	return &RateLimiter{
		config:     config,
		tokens:     float64(config.BurstCapacity),
		maxTokens:  float64(config.BurstCapacity),
		refillRate: config.RequestsPerSecond,
		lastRefill: time.Now(),
		now:        time.Now,
		sleep:      sleepContext,
	}
}

// Wait blocks until a request token is available or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.refillRate <= 0 {
		return ctx.Err()
	}
	for {
		wait := rl.reserve()
		if wait == 0 {
			return nil
		}
		if err := rl.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// reserve takes a token and returns 0, or returns how long until one is available.
func (rl *RateLimiter) reserve() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.tokens = min(rl.maxTokens, rl.tokens+elapsed*rl.refillRate)
	rl.lastRefill = now

	if rl.tokens >= 1.0 {
		rl.tokens -= 1.0
		return 0
	}
	return time.Duration((1.0 - rl.tokens) / rl.refillRate * float64(time.Second))
}

// Do paces call and retries it with exponential backoff while it is throttled.
func (rl *RateLimiter) Do(ctx context.Context, call func(context.Context) (*types.LLMResponse, error)) (*types.LLMResponse, error) {
	backoff := rl.config.RetryBackoff

	for attempt := 0; ; attempt++ {
		if err := rl.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := call(ctx)
		if err == nil || !isThrottlingError(err) {
			return resp, err
		}
		if attempt >= rl.config.MaxRetries {
			return nil, fmt.Errorf("LLM request failed after %d attempts due to throttling: %w", attempt+1, err)
		}

		rl.config.Logger.Warn("LLM request throttled, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", rl.config.MaxRetries),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		if err := rl.sleep(ctx, backoff); err != nil {
			return nil, err
		}
		backoff *= 2
	}
}

// isThrottlingError checks if an error is a throttling error (HTTP 429).
func isThrottlingError(err error) bool {
	var apiErr *types.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
