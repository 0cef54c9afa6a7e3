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

// Package rag answers natural-language questions about a tabular dataset by
// having an LLM write a query, running it (with a keyword fallback), and
// asking the LLM to answer from the formatted rows.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/baylisoj/exposures/pkg/fabric"
	"github.com/baylisoj/exposures/pkg/prompts"
	"github.com/baylisoj/exposures/pkg/types"
)

// ErrEmptyQuestion is returned for blank questions. No turn is started.
var ErrEmptyQuestion = errors.New("question is empty")

// State is a step of the turn state machine.
type State string

const (
	StateStart            State = "START"
	StateDescribeSchema   State = "DESCRIBE_SCHEMA"
	StateSynthesizeQuery  State = "SYNTHESIZE_QUERY"
	StateSanitize         State = "SANITIZE"
	StateExecutePrimary   State = "EXECUTE_PRIMARY"
	StateExecuteFallback  State = "EXECUTE_FALLBACK"
	StateFormat           State = "FORMAT"
	StateSynthesizeAnswer State = "SYNTHESIZE_ANSWER"
	StateAppend           State = "APPEND"
	StateSuccessEnd       State = "SUCCESS_END"
	StateFailEnd          State = "FAIL_END"
)

// ApologyPrefix starts the assistant turn appended when a turn fails.
const ApologyPrefix = "Sorry, an error occurred while answering your question: "

// Config holds engine settings.
type Config struct {
	// SourcePath is the dataset file every query reads from.
	SourcePath string

	// DefaultLimit is the row limit the model is told to apply to
	// non-aggregate queries.
	DefaultLimit int

	// FallbackLimit caps the keyword fallback query.
	FallbackLimit int

	QueryTemperature  float64
	AnswerTemperature float64

	// SystemPrompt is the grounding instruction. It is also the system turn
	// placed at the head of every conversation.
	SystemPrompt string

	// Templates supplies the rag.sql and rag.answer prompts. Nil means
	// DefaultPrompts().
	Templates *prompts.Set
}

// DefaultConfig returns the standard settings for a dataset file.
func DefaultConfig(sourcePath string) Config {
	return Config{
		SourcePath:        sourcePath,
		DefaultLimit:      10,
		FallbackLimit:     10,
		QueryTemperature:  0,
		AnswerTemperature: 0.3,
		SystemPrompt:      DefaultSystemPrompt,
	}
}

// TurnResult is the outcome of one turn. On success the query, rows and
// answer are set. On failure Error is set and the conversation ends with an
// apology.
type TurnResult struct {
	TurnID       string           `json:"turn_id"`
	Conversation []types.Message  `json:"conversation"`
	SQLQuery     string           `json:"sql_query,omitempty"`
	QueryArgs    []any            `json:"query_args,omitempty"`
	UsedFallback bool             `json:"used_fallback"`
	Columns      []string         `json:"columns,omitempty"`
	Rows         []map[string]any `json:"rows"`
	Sources      string           `json:"sources,omitempty"`
	Answer       string           `json:"answer,omitempty"`
	Success      bool             `json:"success"`
	Error        string           `json:"error,omitempty"`
	State        State            `json:"state"`
}

// Engine runs turns. It keeps no state between turns and is safe for
// concurrent use when its store and provider are.
type Engine struct {
	cfg     Config
	store   fabric.ExecutionBackend
	queries *QuerySynthesizer
	answers *AnswerSynthesizer
	logger  *zap.Logger
}

// NewEngine validates cfg and wires the components.
func NewEngine(cfg Config, store fabric.ExecutionBackend, llm types.LLMProvider, logger *zap.Logger) (*Engine, error) {
	if cfg.SourcePath == "" {
		return nil, fmt.Errorf("source path is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if llm == nil {
		return nil, fmt.Errorf("LLM provider is required")
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 10
	}
	if cfg.FallbackLimit <= 0 {
		cfg.FallbackLimit = 10
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Templates == nil {
		cfg.Templates = DefaultPrompts()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sqlTmpl, ok := cfg.Templates.Get(SQLPromptName)
	if !ok {
		return nil, fmt.Errorf("prompt %q not found", SQLPromptName)
	}
	answerTmpl, ok := cfg.Templates.Get(AnswerPromptName)
	if !ok {
		return nil, fmt.Errorf("prompt %q not found", AnswerPromptName)
	}

	return &Engine{
		cfg:     cfg,
		store:   store,
		queries: NewQuerySynthesizer(llm, sqlTmpl, cfg.SourcePath, cfg.DefaultLimit, cfg.QueryTemperature),
		answers: NewAnswerSynthesizer(llm, cfg.SystemPrompt, answerTmpl, cfg.AnswerTemperature),
		logger:  logger,
	}, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Schema returns the current dataset schema.
func (e *Engine) Schema(ctx context.Context) (*fabric.Schema, error) {
	return e.store.GetSchema(ctx, e.cfg.SourcePath)
}

// ProcessTurn answers one question. prior is never modified. A non-nil
// error is returned only for a blank question; every other failure is
// reported through the result.
func (e *Engine) ProcessTurn(ctx context.Context, question string, prior []types.Message) (*TurnResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	t := &turn{
		engine:   e,
		question: question,
		conv:     NewConversation(prior),
		result:   &TurnResult{TurnID: uuid.NewString()},
	}
	t.logger = e.logger.With(zap.String("turn_id", t.result.TurnID))
	return t.run(ctx), nil
}

// turn carries the state of one ProcessTurn call.
type turn struct {
	engine   *Engine
	question string
	conv     *Conversation
	result   *TurnResult
	logger   *zap.Logger
}

func (t *turn) enter(s State) {
	t.result.State = s
	t.logger.Debug("turn state", zap.String("state", string(s)))
}

func (t *turn) run(ctx context.Context) *TurnResult {
	e := t.engine

	t.enter(StateStart)
	t.conv.EnsureSystemFirst(e.cfg.SystemPrompt)

	t.enter(StateDescribeSchema)
	schema, err := e.store.GetSchema(ctx, e.cfg.SourcePath)
	if err != nil {
		return t.fail(fmt.Errorf("failed to describe dataset: %w", err))
	}

	t.enter(StateSynthesizeQuery)
	raw, err := e.queries.Synthesize(ctx, t.question, DescribeSchema(schema))
	if err != nil {
		return t.fail(fmt.Errorf("query generation failed: %w", err))
	}

	t.enter(StateSanitize)
	query := SanitizeQuery(raw)

	t.enter(StateExecutePrimary)
	t.result.SQLQuery = query
	var result *fabric.QueryResult
	if query == "" {
		err = &fabric.ExecutionError{Detail: "model returned an empty query"}
	} else {
		result, err = e.store.ExecuteQuery(ctx, query)
	}
	if err != nil {
		if _, ok := fabric.AsExecutionError(err); !ok {
			return t.fail(err)
		}
		t.logger.Info("generated query failed, falling back to keyword match",
			zap.String("query", query),
			zap.Error(err))

		t.enter(StateExecuteFallback)
		fallback, args, ferr := BuildFallbackQuery(e.cfg.SourcePath, schema, t.question, e.cfg.FallbackLimit)
		if ferr != nil {
			return t.fail(fmt.Errorf("fallback query failed: %w", ferr))
		}
		t.result.SQLQuery = fallback
		t.result.QueryArgs = args
		t.result.UsedFallback = true

		result, err = e.store.ExecuteQuery(ctx, fallback, args...)
		if err != nil {
			return t.fail(fmt.Errorf("fallback query failed: %w", err))
		}
	}

	if result == nil {
		result = &fabric.QueryResult{}
	}

	t.enter(StateFormat)
	sources := FormatResult(result)

	t.enter(StateSynthesizeAnswer)
	answer, err := e.answers.Answer(ctx, t.question, sources)
	if err != nil {
		return t.fail(fmt.Errorf("answer generation failed: %w", err))
	}

	t.enter(StateAppend)
	t.conv.Append(types.RoleUser, t.question)
	t.conv.Append(types.RoleAssistant, answer)

	t.result.Conversation = t.conv.Messages()
	t.result.Columns = result.ColumnNames()
	t.result.Rows = result.Rows
	if t.result.Rows == nil {
		t.result.Rows = []map[string]any{}
	}
	t.result.Sources = sources
	t.result.Answer = answer
	t.result.Success = true
	t.enter(StateSuccessEnd)

	t.logger.Info("turn completed",
		zap.Bool("used_fallback", t.result.UsedFallback),
		zap.Int("rows", len(t.result.Rows)))
	return t.result
}

// fail ends the turn with an apology in place of an answer.
func (t *turn) fail(err error) *TurnResult {
	t.conv.Append(types.RoleUser, t.question)
	t.conv.Append(types.RoleAssistant, ApologyPrefix+err.Error())

	t.result.Conversation = t.conv.Messages()
	t.result.Success = false
	t.result.Error = err.Error()
	t.result.Rows = nil
	t.result.Columns = nil
	t.enter(StateFailEnd)

	t.logger.Warn("turn failed", zap.Error(err))
	return t.result
}
