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

// Package llm holds wrappers shared by every LLM provider.
package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/baylisoj/exposures/pkg/types"
)

// InstrumentedProvider wraps any LLMProvider and logs every call with its
// latency, token usage and error type. An optional RateLimiter paces calls.
type InstrumentedProvider struct {
	provider types.LLMProvider
	limiter  *RateLimiter
	logger   *zap.Logger
}

// NewInstrumentedProvider creates a new instrumented LLM provider. limiter may be nil.
func NewInstrumentedProvider(provider types.LLMProvider, limiter *RateLimiter, logger *zap.Logger) *InstrumentedProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedProvider{
		provider: provider,
		limiter:  limiter,
		logger: logger.With(
			zap.String("provider", provider.Name()),
			zap.String("model", provider.Model())),
	}
}

// Name returns the underlying provider name.
func (p *InstrumentedProvider) Name() string {
	return p.provider.Name()
}

// Model returns the underlying model identifier.
func (p *InstrumentedProvider) Model() string {
	return p.provider.Model()
}

// Chat forwards to the underlying provider.
func (p *InstrumentedProvider) Chat(ctx context.Context, messages []types.Message, opts *types.ChatOptions) (*types.LLMResponse, error) {
	start := time.Now()

	call := func(ctx context.Context) (*types.LLMResponse, error) {
		return p.provider.Chat(ctx, messages, opts)
	}
	var (
		resp *types.LLMResponse
		err  error
	)
	if p.limiter != nil {
		resp, err = p.limiter.Do(ctx, call)
	} else {
		resp, err = call(ctx)
	}
	duration := time.Since(start)

	fields := []zap.Field{
		zap.Int("messages", len(messages)),
		zap.Duration("duration", duration),
	}
	if opts != nil && opts.Temperature != nil {
		fields = append(fields, zap.Float64("temperature", *opts.Temperature))
	}

	if err != nil {
		p.logger.Warn("llm call failed", append(fields,
			zap.String("error_type", fmt.Sprintf("%T", err)),
			zap.Error(err))...)
		return nil, err
	}

	p.logger.Debug("llm call completed", append(fields,
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Float64("cost_usd", resp.Usage.CostUSD),
		zap.String("stop_reason", resp.StopReason),
		zap.Int("content_length", len(resp.Content)))...)
	return resp, nil
}
