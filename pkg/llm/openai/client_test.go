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
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baylisoj/exposures/pkg/types"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   *Client
	}{
		{
			name: "with defaults",
			config: Config{
				APIKey: "test-key",
			},
			want: &Client{
				name:        "openai",
				apiKey:      "test-key",
				model:       "gpt-4.1",
				endpoint:    "https://api.openai.com/v1/chat/completions",
				maxTokens:   4096,
				temperature: 1.0,
			},
		},
		{
			name: "with custom config",
			config: Config{
				Name:        "ollama",
				Model:       "llama3.1",
				Endpoint:    "http://localhost:11434/v1/chat/completions",
				MaxTokens:   2000,
				Temperature: 0.5,
				Timeout:     30 * time.Second,
			},
			want: &Client{
				name:        "ollama",
				model:       "llama3.1",
				endpoint:    "http://localhost:11434/v1/chat/completions",
				maxTokens:   2000,
				temperature: 0.5,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewClient(tt.config)
			assert.Equal(t, tt.want.name, got.Name())
			assert.Equal(t, tt.want.apiKey, got.apiKey)
			assert.Equal(t, tt.want.model, got.Model())
			assert.Equal(t, tt.want.endpoint, got.endpoint)
			assert.Equal(t, tt.want.maxTokens, got.maxTokens)
			assert.Equal(t, tt.want.temperature, got.temperature)
			assert.NotNil(t, got.httpClient)
		})
	}
}

func TestResolveTemperature(t *testing.T) {
	got := ResolveTemperature(nil, 0.7)
	require.NotNil(t, got)
	assert.Equal(t, 0.7, *got)

	got = ResolveTemperature(types.Temperature(0), 0.7)
	require.NotNil(t, got)
	assert.Equal(t, 0.0, *got)

	got = ResolveTemperature(&types.ChatOptions{MaxTokens: 10}, 0.3)
	assert.Equal(t, 0.3, *got)
}

func TestClient_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		// Zero temperature must survive omitempty.
		assert.Contains(t, string(body), `"temperature":0`)

		var req ChatCompletionRequest
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "gpt-4o", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		resp := ChatCompletionResponse{
			ID:      "chatcmpl-123",
			Object:  "chat.completion",
			Created: time.Now().Unix(),
			Model:   "gpt-4o",
			Choices: []ChatCompletionChoice{
				{
					Index: 0,
					Message: ChatMessage{
						Role:    "assistant",
						Content: "SELECT 1",
					},
					FinishReason: "stop",
				},
			},
			Usage: ChatCompletionUsage{
				PromptTokens:     20,
				CompletionTokens: 10,
				TotalTokens:      30,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:   "test-key",
		Model:    "gpt-4o",
		Endpoint: server.URL,
	})

	resp, err := client.Chat(context.Background(), []types.Message{
		{Role: "system", Content: "Write SQL."},
		{Role: "user", Content: "count rows"},
	}, types.Temperature(0))

	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", resp.Content)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, 30, resp.Usage.TotalTokens)
	assert.Greater(t, resp.Usage.CostUSD, 0.0)
	assert.Equal(t, "gpt-4o", resp.Metadata["model"])
}

func TestClient_Chat_NoAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3.1","choices":[{"index":0,"message":{"role":"assistant","content":"hi"},"finish_reason":"length"}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{Name: "ollama", Model: "llama3.1", Endpoint: server.URL})
	resp, err := client.Chat(context.Background(), []types.Message{{Role: "user", Content: "hello"}}, nil)

	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Content)
	assert.Equal(t, "max_tokens", resp.StopReason)
	assert.Equal(t, 0.0, resp.Usage.CostUSD)
}

func TestClient_Chat_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "error payload",
			status:     http.StatusUnauthorized,
			body:       `{"error":{"message":"Invalid API key","type":"invalid_request_error"}}`,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Invalid API key",
		},
		{
			name:       "non-json failure",
			status:     http.StatusBadGateway,
			body:       "upstream down",
			wantStatus: http.StatusBadGateway,
			wantMsg:    "upstream down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(Config{APIKey: "k", Endpoint: server.URL})
			_, err := client.Chat(context.Background(), []types.Message{{Role: "user", Content: "x"}}, nil)
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), "API call failed"))

			var apiErr *types.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Contains(t, apiErr.Message, tt.wantMsg)
		})
	}
}

func TestConvertResponse_NoChoices(t *testing.T) {
	_, err := ConvertResponse(&ChatCompletionResponse{Model: "gpt-4o"}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestEstimateCost(t *testing.T) {
	assert.InDelta(t, 12.5, EstimateCost("gpt-4o", 1_000_000, 1_000_000), 1e-9)
	assert.Equal(t, 0.0, EstimateCost("llama3.1", 1000, 1000))
}
