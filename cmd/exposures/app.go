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
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/baylisoj/exposures/pkg/backends/duckdb"
	"github.com/baylisoj/exposures/pkg/fabric"
	"github.com/baylisoj/exposures/pkg/llm"
	"github.com/baylisoj/exposures/pkg/llm/factory"
	"github.com/baylisoj/exposures/pkg/prompts"
	"github.com/baylisoj/exposures/pkg/rag"
	"github.com/baylisoj/exposures/pkg/types"
)

// newLLMProvider builds the text-generation client. Replaced in tests.
var newLLMProvider = createLLMProvider

// app is the wiring shared by ask, search and serve.
type app struct {
	config   *Config
	logger   *zap.Logger
	provider types.LLMProvider
	store    fabric.ExecutionBackend
	engine   *rag.Engine
}

// answerer returns an Answer Synthesizer configured like the engine's.
func (a *app) answerer() (*rag.AnswerSynthesizer, error) {
	cfg := a.engine.Config()
	tmpl, ok := cfg.Templates.Get(rag.AnswerPromptName)
	if !ok {
		return nil, fmt.Errorf("prompt %q not found", rag.AnswerPromptName)
	}
	return rag.NewAnswerSynthesizer(a.provider, cfg.SystemPrompt, tmpl, cfg.AnswerTemperature), nil
}

func createLLMProvider(cfg *Config, logger *zap.Logger) (types.LLMProvider, error) {
	provider, err := factory.NewProviderFactory(cfg.FactoryConfig()).CreateProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}

	var limiter *llm.RateLimiter
	if rl := cfg.LLM.RateLimit; rl.RequestsPerSecond > 0 || rl.MaxRetries > 0 {
		limiter = llm.NewRateLimiter(llm.RateLimiterConfig{
			RequestsPerSecond: rl.RequestsPerSecond,
			BurstCapacity:     rl.Burst,
			MaxRetries:        rl.MaxRetries,
			RetryBackoff:      time.Second,
			Logger:            logger,
		})
	}
	return llm.NewInstrumentedProvider(provider, limiter, logger), nil
}

// loadPrompts returns the built-in prompts with any configured overrides applied.
func loadPrompts(cfg *Config, logger *zap.Logger) (*prompts.Set, error) {
	set := rag.DefaultPrompts()
	if cfg.Prompts.File == "" {
		return set, nil
	}
	if err := set.LoadYAML(cfg.Prompts.File); err != nil {
		return nil, err
	}
	logger.Info("Loaded prompt overrides", zap.String("path", cfg.Prompts.File))
	return set, nil
}

// newApp validates cfg and builds the provider, store and turn engine.
func newApp(cfg *Config, logger *zap.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	provider, err := newLLMProvider(cfg, logger)
	if err != nil {
		return nil, err
	}

	backend, err := duckdb.NewBackend(duckdb.Config{Path: cfg.Dataset.Path})
	if err != nil {
		return nil, err
	}
	store := fabric.NewInstrumentedBackend(backend, logger)

	templates, err := loadPrompts(cfg, logger)
	if err != nil {
		return nil, err
	}

	ragCfg := rag.DefaultConfig(cfg.Dataset.Path)
	ragCfg.DefaultLimit = cfg.RAG.DefaultLimit
	ragCfg.FallbackLimit = cfg.RAG.FallbackLimit
	ragCfg.QueryTemperature = cfg.LLM.QueryTemperature
	ragCfg.AnswerTemperature = cfg.LLM.AnswerTemperature
	ragCfg.Templates = templates
	if cfg.RAG.SystemPrompt != "" {
		ragCfg.SystemPrompt = cfg.RAG.SystemPrompt
	}

	engine, err := rag.NewEngine(ragCfg, store, provider, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug("Application ready",
		zap.String("provider", provider.Name()),
		zap.String("model", provider.Model()),
		zap.String("dataset", cfg.Dataset.Path))

	return &app{config: cfg, logger: logger, provider: provider, store: store, engine: engine}, nil
}

// commandContext returns the command's context, or Background when run
// outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
