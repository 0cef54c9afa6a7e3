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
package rag

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/baylisoj/exposures/pkg/fabric"
	"github.com/baylisoj/exposures/pkg/types"
)

const testSource = "data/exposures.parquet"

type llmReply struct {
	content string
	err     error
}

type llmCall struct {
	messages []types.Message
	opts     *types.ChatOptions
}

// scriptedLLM returns its replies in order and records every request.
type scriptedLLM struct {
	mu      sync.Mutex
	replies []llmReply
	calls   []llmCall
}

func (s *scriptedLLM) Chat(ctx context.Context, messages []types.Message, opts *types.ChatOptions) (*types.LLMResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, llmCall{messages: append([]types.Message(nil), messages...), opts: opts})
	if len(s.replies) == 0 {
		return nil, errors.New("no scripted reply")
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	if r.err != nil {
		return nil, r.err
	}
	return &types.LLMResponse{Content: r.content, StopReason: "end_turn"}, nil
}

func (s *scriptedLLM) Name() string  { return "scripted" }
func (s *scriptedLLM) Model() string { return "test-model" }

type storeReply struct {
	result *fabric.QueryResult
	err    error
}

type storeCall struct {
	query string
	args  []any
}

// fakeStore serves a fixed schema and scripted query results.
type fakeStore struct {
	schema    *fabric.Schema
	schemaErr error
	replies   []storeReply
	calls     []storeCall
}

func (f *fakeStore) Name() string { return "fake" }

func (f *fakeStore) ExecuteQuery(ctx context.Context, query string, args ...any) (*fabric.QueryResult, error) {
	f.calls = append(f.calls, storeCall{query: query, args: args})
	if len(f.replies) == 0 {
		return nil, &fabric.ExecutionError{Query: query, Detail: "no scripted result"}
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r.result, r.err
}

func (f *fakeStore) GetSchema(ctx context.Context, resource string) (*fabric.Schema, error) {
	if f.schemaErr != nil {
		return nil, f.schemaErr
	}
	return f.schema, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                   { return nil }

func exposureSchema() *fabric.Schema {
	return &fabric.Schema{
		Name: testSource,
		Fields: []fabric.Field{
			{Name: "vesselId", Type: "VARCHAR"},
			{Name: "vessel", Type: "VARCHAR"},
			{Name: "operator", Type: "VARCHAR"},
			{Name: "year", Type: "BIGINT"},
			{Name: "tonnage", Type: "DOUBLE"},
		},
	}
}

func topTonnageResult() *fabric.QueryResult {
	return &fabric.QueryResult{
		Type:     "rows",
		Columns:  []fabric.Column{{Name: "vessel", Type: "VARCHAR"}, {Name: "tonnage", Type: "DOUBLE"}},
		Rows:     []map[string]any{{"vessel": "B", "tonnage": 5000.0}},
		RowCount: 1,
	}
}

func newTestEngine(t *testing.T, store *fakeStore, llm *scriptedLLM) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig(testSource), store, llm, zap.NewNop())
	require.NoError(t, err)
	return e
}

func roles(msgs []types.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Role
	}
	return out
}

func TestNewEngine_Validation(t *testing.T) {
	store := &fakeStore{schema: exposureSchema()}
	llm := &scriptedLLM{}

	_, err := NewEngine(Config{}, store, llm, nil)
	assert.Error(t, err)
	_, err = NewEngine(DefaultConfig(testSource), nil, llm, nil)
	assert.Error(t, err)
	_, err = NewEngine(DefaultConfig(testSource), store, nil, nil)
	assert.Error(t, err)

	e, err := NewEngine(Config{SourcePath: testSource}, store, llm, nil)
	require.NoError(t, err)
	cfg := e.Config()
	assert.Equal(t, 10, cfg.DefaultLimit)
	assert.Equal(t, 10, cfg.FallbackLimit)
	assert.Equal(t, DefaultSystemPrompt, cfg.SystemPrompt)
	assert.NotNil(t, cfg.Templates)
}

func TestProcessTurn_Success(t *testing.T) {
	question := "Which vessel has the highest tonnage?"
	store := &fakeStore{
		schema:  exposureSchema(),
		replies: []storeReply{{result: topTonnageResult()}},
	}
	llm := &scriptedLLM{replies: []llmReply{
		{content: "```sql\nSELECT vessel, tonnage FROM 'data/exposures.parquet' ORDER BY tonnage DESC LIMIT 1\n```"},
		{content: "Vessel B has the highest tonnage at 5000."},
	}}
	e := newTestEngine(t, store, llm)

	res, err := e.ProcessTurn(context.Background(), question, nil)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Empty(t, res.Error)
	assert.False(t, res.UsedFallback)
	assert.Equal(t, StateSuccessEnd, res.State)
	assert.NotEmpty(t, res.TurnID)
	assert.Equal(t, "SELECT vessel, tonnage FROM 'data/exposures.parquet' ORDER BY tonnage DESC LIMIT 1", res.SQLQuery)
	assert.Equal(t, []string{"vessel", "tonnage"}, res.Columns)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "B", res.Rows[0]["vessel"])
	assert.Equal(t, "Vessel B has the highest tonnage at 5000.", res.Answer)

	// The sanitized query is what reaches the store.
	require.Len(t, store.calls, 1)
	assert.Equal(t, res.SQLQuery, store.calls[0].query)
	assert.Empty(t, store.calls[0].args)

	// System turn inserted, then user and assistant.
	assert.Equal(t, []string{types.RoleSystem, types.RoleUser, types.RoleAssistant}, roles(res.Conversation))
	assert.Equal(t, DefaultSystemPrompt, res.Conversation[0].Content)
	assert.Equal(t, question, res.Conversation[1].Content)
	assert.Equal(t, res.Answer, res.Conversation[2].Content)

	require.Len(t, llm.calls, 2)

	gen := llm.calls[0]
	require.NotNil(t, gen.opts.Temperature)
	assert.Equal(t, 0.0, *gen.opts.Temperature)
	require.Len(t, gen.messages, 2)
	assert.Equal(t, types.RoleSystem, gen.messages[0].Role)
	assert.Contains(t, gen.messages[0].Content, "FROM 'data/exposures.parquet'")
	assert.Contains(t, gen.messages[0].Content, "- tonnage (DOUBLE)")
	assert.Contains(t, gen.messages[0].Content, "LIMIT 10")
	assert.Equal(t, types.Message{Role: types.RoleUser, Content: question}, gen.messages[1])

	ans := llm.calls[1]
	require.NotNil(t, ans.opts.Temperature)
	assert.Equal(t, 0.3, *ans.opts.Temperature)
	require.Len(t, ans.messages, 2)
	assert.Equal(t, types.Message{Role: types.RoleSystem, Content: DefaultSystemPrompt}, ans.messages[0])
	assert.Equal(t, question+"\nSources: "+FormatResult(topTonnageResult()), ans.messages[1].Content)
	assert.Equal(t, res.Sources, FormatResult(topTonnageResult()))
}

func TestProcessTurn_PriorConversation(t *testing.T) {
	prior := []types.Message{
		{Role: types.RoleSystem, Content: DefaultSystemPrompt},
		{Role: types.RoleUser, Content: "How many vessels are there?"},
		{Role: types.RoleAssistant, Content: "There are 3 vessels."},
	}
	snapshot := append([]types.Message(nil), prior...)

	store := &fakeStore{schema: exposureSchema(), replies: []storeReply{{result: topTonnageResult()}}}
	llm := &scriptedLLM{replies: []llmReply{{content: "SELECT 1"}, {content: "B"}}}
	e := newTestEngine(t, store, llm)

	res, err := e.ProcessTurn(context.Background(), "And the largest?", prior)
	require.NoError(t, err)
	require.True(t, res.Success)

	assert.Len(t, res.Conversation, len(prior)+2)
	assert.Equal(t, snapshot, prior, "caller's transcript must not be modified")
	assert.Equal(t, snapshot, res.Conversation[:len(prior)])

	// Prior turns are not sent to the model.
	require.Len(t, llm.calls, 2)
	assert.Len(t, llm.calls[1].messages, 2)
}

func TestProcessTurn_PriorWithoutSystemTurn(t *testing.T) {
	prior := []types.Message{
		{Role: types.RoleUser, Content: "hi"},
		{Role: types.RoleAssistant, Content: "hello"},
	}
	store := &fakeStore{schema: exposureSchema(), replies: []storeReply{{result: topTonnageResult()}}}
	llm := &scriptedLLM{replies: []llmReply{{content: "SELECT 1"}, {content: "B"}}}
	e := newTestEngine(t, store, llm)

	res, err := e.ProcessTurn(context.Background(), "largest?", prior)
	require.NoError(t, err)
	assert.Len(t, res.Conversation, len(prior)+3)
	assert.Equal(t, types.RoleSystem, res.Conversation[0].Role)
}

func TestProcessTurn_Fallback(t *testing.T) {
	question := "contoso"
	fallbackRows := &fabric.QueryResult{
		Columns: []fabric.Column{{Name: "vessel", Type: "VARCHAR"}, {Name: "operator", Type: "VARCHAR"}},
		Rows:    []map[string]any{{"vessel": "B", "operator": "Contoso"}},
	}
	store := &fakeStore{
		schema: exposureSchema(),
		replies: []storeReply{
			{err: &fabric.ExecutionError{Detail: "query failed", Err: errors.New(`Binder Error: column "nope" not found`)}},
			{result: fallbackRows},
		},
	}
	llm := &scriptedLLM{replies: []llmReply{{content: "SELECT nope FROM 'data/exposures.parquet'"}, {content: "Contoso operates B."}}}
	e := newTestEngine(t, store, llm)

	res, err := e.ProcessTurn(context.Background(), question, nil)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.True(t, res.UsedFallback)
	require.Len(t, store.calls, 2)

	fb := store.calls[1]
	assert.Equal(t, res.SQLQuery, fb.query)
	assert.Contains(t, fb.query, "contains(lower(CAST(\"vesselId\" AS VARCHAR)), lower(?))")
	assert.NotContains(t, fb.query, question)
	assert.NotContains(t, fb.query, `"year"`)
	require.Len(t, fb.args, 3)
	for _, a := range fb.args {
		assert.Equal(t, question, a)
	}
	assert.Equal(t, fb.args, res.QueryArgs)
	assert.True(t, strings.HasSuffix(fb.query, "LIMIT 10"))
	assert.Equal(t, []string{"vessel", "operator"}, res.Columns)
}

func TestProcessTurn_EmptyGeneratedQueryUsesFallback(t *testing.T) {
	store := &fakeStore{schema: exposureSchema(), replies: []storeReply{{result: topTonnageResult()}}}
	llm := &scriptedLLM{replies: []llmReply{{content: "```\n```"}, {content: "B"}}}
	e := newTestEngine(t, store, llm)

	res, err := e.ProcessTurn(context.Background(), "B", nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.UsedFallback)
	require.Len(t, store.calls, 1, "empty query never reaches the store")
	assert.Contains(t, store.calls[0].query, "contains(")
}

func TestProcessTurn_BothQueriesFail(t *testing.T) {
	store := &fakeStore{
		schema: exposureSchema(),
		replies: []storeReply{
			{err: &fabric.ExecutionError{Detail: "query failed"}},
			{err: &fabric.ExecutionError{Detail: "fallback broke"}},
		},
	}
	llm := &scriptedLLM{replies: []llmReply{{content: "SELECT nope"}}}
	e := newTestEngine(t, store, llm)

	res, err := e.ProcessTurn(context.Background(), "anything", nil)
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.True(t, res.UsedFallback)
	assert.Equal(t, StateFailEnd, res.State)
	assert.Contains(t, res.Error, "fallback broke")
	assert.Nil(t, res.Rows)
	assert.Len(t, llm.calls, 1, "no answer is synthesized after a failed fallback")

	require.Len(t, res.Conversation, 3)
	last := res.Conversation[2]
	assert.Equal(t, types.RoleAssistant, last.Role)
	assert.True(t, strings.HasPrefix(last.Content, ApologyPrefix))
	assert.Contains(t, last.Content, res.Error)
}

func TestProcessTurn_EmptyResult(t *testing.T) {
	store := &fakeStore{
		schema:  exposureSchema(),
		replies: []storeReply{{result: &fabric.QueryResult{Columns: []fabric.Column{{Name: "vessel", Type: "VARCHAR"}}}}},
	}
	llm := &scriptedLLM{replies: []llmReply{{content: "SELECT vessel FROM 'x' WHERE 1=0"}, {content: "Nothing matched."}}}
	e := newTestEngine(t, store, llm)

	res, err := e.ProcessTurn(context.Background(), "ghost ship", nil)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.False(t, res.UsedFallback)
	assert.NotNil(t, res.Rows)
	assert.Empty(t, res.Rows)
	assert.Equal(t, EmptyResultSentinel, res.Sources)
	require.Len(t, llm.calls, 2)
	assert.Equal(t, "ghost ship\nSources: No matching records found.", llm.calls[1].messages[1].Content)
}

func TestProcessTurn_Failures(t *testing.T) {
	tests := []struct {
		name         string
		store        *fakeStore
		replies      []llmReply
		wantErr      string
		wantStoreHit int
	}{
		{
			name:    "schema unavailable",
			store:   &fakeStore{schemaErr: errors.New("no such file")},
			wantErr: "failed to describe dataset",
		},
		{
			name:    "query generation fails",
			store:   &fakeStore{schema: exposureSchema()},
			replies: []llmReply{{err: &types.APIError{StatusCode: 401, Message: "bad key"}}},
			wantErr: "query generation failed",
		},
		{
			name:         "answer generation fails",
			store:        &fakeStore{schema: exposureSchema(), replies: []storeReply{{result: topTonnageResult()}}},
			replies:      []llmReply{{content: "SELECT 1"}, {err: errors.New("quota exceeded")}},
			wantErr:      "answer generation failed",
			wantStoreHit: 1,
		},
		{
			name:         "cancellation is not a query failure",
			store:        &fakeStore{schema: exposureSchema(), replies: []storeReply{{err: context.Canceled}}},
			replies:      []llmReply{{content: "SELECT 1"}},
			wantErr:      context.Canceled.Error(),
			wantStoreHit: 1,
		},
		{
			name:    "fallback impossible without columns",
			store:   &fakeStore{schema: &fabric.Schema{Name: testSource}},
			replies: []llmReply{{content: ""}},
			wantErr: ErrNoColumns.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &scriptedLLM{replies: tt.replies}
			e := newTestEngine(t, tt.store, llm)

			res, err := e.ProcessTurn(context.Background(), "question", nil)
			require.NoError(t, err)

			assert.False(t, res.Success)
			assert.False(t, res.UsedFallback)
			assert.Contains(t, res.Error, tt.wantErr)
			assert.Len(t, tt.store.calls, tt.wantStoreHit)
			assert.Equal(t, []string{types.RoleSystem, types.RoleUser, types.RoleAssistant}, roles(res.Conversation))
			assert.Equal(t, ApologyPrefix+res.Error, res.Conversation[2].Content)
		})
	}
}

func TestProcessTurn_EmptyQuestion(t *testing.T) {
	store := &fakeStore{schema: exposureSchema()}
	llm := &scriptedLLM{}
	e := newTestEngine(t, store, llm)

	for _, q := range []string{"", "   ", "\n\t"} {
		res, err := e.ProcessTurn(context.Background(), q, nil)
		assert.ErrorIs(t, err, ErrEmptyQuestion)
		assert.Nil(t, res)
	}
	assert.Empty(t, llm.calls)
	assert.Empty(t, store.calls)
}

func TestProcessTurn_ConversationAlternates(t *testing.T) {
	store := &fakeStore{
		schema: exposureSchema(),
		replies: []storeReply{
			{result: topTonnageResult()},
			{err: &fabric.ExecutionError{Detail: "bad"}},
			{err: &fabric.ExecutionError{Detail: "bad again"}},
			{result: topTonnageResult()},
		},
	}
	llm := &scriptedLLM{replies: []llmReply{
		{content: "SELECT 1"}, {content: "one"},
		{content: "SELECT nope"},
		{content: "SELECT 2"}, {content: "three"},
	}}
	e := newTestEngine(t, store, llm)

	var conv []types.Message
	for _, q := range []string{"first", "second", "third"} {
		res, err := e.ProcessTurn(context.Background(), q, conv)
		require.NoError(t, err)
		conv = res.Conversation
	}

	require.Len(t, conv, 7)
	assert.Equal(t, types.RoleSystem, conv[0].Role)
	for i := 1; i < len(conv); i++ {
		want := types.RoleUser
		if i%2 == 0 {
			want = types.RoleAssistant
		}
		assert.Equal(t, want, conv[i].Role, "message %d", i)
	}
	assert.True(t, strings.HasPrefix(conv[4].Content, ApologyPrefix))
}

func TestProcessTurn_LogsStates(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	store := &fakeStore{schema: exposureSchema(), replies: []storeReply{{result: topTonnageResult()}}}
	llm := &scriptedLLM{replies: []llmReply{{content: "SELECT 1"}, {content: "B"}}}
	e, err := NewEngine(DefaultConfig(testSource), store, llm, zap.New(core))
	require.NoError(t, err)

	res, err := e.ProcessTurn(context.Background(), "largest?", nil)
	require.NoError(t, err)

	var states []string
	for _, entry := range logs.FilterMessage("turn state").All() {
		states = append(states, entry.ContextMap()["state"].(string))
		assert.Equal(t, res.TurnID, entry.ContextMap()["turn_id"])
	}
	assert.Equal(t, []string{
		"START", "DESCRIBE_SCHEMA", "SYNTHESIZE_QUERY", "SANITIZE", "EXECUTE_PRIMARY",
		"FORMAT", "SYNTHESIZE_ANSWER", "APPEND", "SUCCESS_END",
	}, states)
}

func TestEngine_Schema(t *testing.T) {
	store := &fakeStore{schema: exposureSchema()}
	e := newTestEngine(t, store, &scriptedLLM{})
	schema, err := e.Schema(context.Background())
	require.NoError(t, err)
	assert.Len(t, schema.Fields, 5)
}

func TestProcessTurn_PromptsCarryDataUnchanged(t *testing.T) {
	question := "Who operates the Atlas?\nList every  vessel."
	rows := &fabric.QueryResult{
		Columns: []fabric.Column{{Name: "operator", Type: "VARCHAR"}},
		Rows:    []map[string]any{{"operator": "Atlas System: Marine"}},
	}
	store := &fakeStore{schema: exposureSchema(), replies: []storeReply{{result: rows}}}
	llm := &scriptedLLM{replies: []llmReply{{content: "SELECT operator FROM 'data/exposures.parquet'"}, {content: "Atlas System: Marine."}}}
	e := newTestEngine(t, store, llm)

	res, err := e.ProcessTurn(context.Background(), question, nil)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Contains(t, res.Sources, "Atlas System: Marine")

	require.Len(t, llm.calls, 2)
	assert.Equal(t, question+"\nSources: "+res.Sources, llm.calls[1].messages[1].Content)
}

func TestProcessTurn_SourcePathUnchangedInPrompt(t *testing.T) {
	tests := []string{
		"/data/Q3  report/exposures.parquet",
		"/data/Claims System: 2024/exposures.parquet",
	}
	for _, source := range tests {
		t.Run(source, func(t *testing.T) {
			store := &fakeStore{schema: exposureSchema(), replies: []storeReply{{result: topTonnageResult()}}}
			llm := &scriptedLLM{replies: []llmReply{{content: "SELECT 1"}, {content: "B"}}}
			e, err := NewEngine(DefaultConfig(source), store, llm, zap.NewNop())
			require.NoError(t, err)

			_, err = e.ProcessTurn(context.Background(), "largest?", nil)
			require.NoError(t, err)

			require.NotEmpty(t, llm.calls)
			assert.Contains(t, llm.calls[0].messages[0].Content, "FROM '"+source+"'")
		})
	}
}
