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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/baylisoj/exposures/pkg/types"
)

// Client implements the LLMProvider interface for OpenAI-compatible chat completions
// endpoints (OpenAI itself, Ollama's /v1 endpoint, local gateways).
type Client struct {
	name        string
	apiKey      string
	model       string
	endpoint    string
	httpClient  *http.Client
	maxTokens   int
	temperature float64
}

// Config holds configuration for the OpenAI client.
type Config struct {
	// Name overrides the provider name reported by Name() (default: "openai")
	Name        string
	APIKey      string        // Optional for Ollama and other keyless gateways
	Model       string        // Default: gpt-4.1
	Endpoint    string        // Default: https://api.openai.com/v1/chat/completions
	Timeout     time.Duration // Default: 60s
	MaxTokens   int           // Default: 4096
	Temperature float64       // Default: 1.0, used when a request carries no temperature
}

// Default OpenAI configuration values.
const (
	DefaultOpenAIModel       = "gpt-4.1"
	DefaultOpenAIEndpoint    = "https://api.openai.com/v1/chat/completions"
	DefaultOpenAITimeout     = 60 * time.Second
	DefaultOpenAIMaxTokens   = 4096
	DefaultOpenAITemperature = 1.0
)

// NewClient creates a new OpenAI client.
func NewClient(config Config) *Client {
	if config.Name == "" {
		config.Name = "openai"
	}
	if config.Model == "" {
		config.Model = DefaultOpenAIModel
	}
	if config.Endpoint == "" {
		config.Endpoint = DefaultOpenAIEndpoint
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultOpenAITimeout
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultOpenAIMaxTokens
	}
	if config.Temperature == 0 {
		config.Temperature = DefaultOpenAITemperature
	}

	return &Client{
		name:        config.Name,
		apiKey:      config.APIKey,
		model:       config.Model,
		endpoint:    config.Endpoint,
		maxTokens:   config.MaxTokens,
		temperature: config.Temperature,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return c.name
}

// Model returns the model identifier.
func (c *Client) Model() string {
	return c.model
}

// Chat sends a conversation to the endpoint and returns the response.
func (c *Client) Chat(ctx context.Context, messages []types.Message, opts *types.ChatOptions) (*types.LLMResponse, error) {
	req := &ChatCompletionRequest{
		Model:       c.model,
		Messages:    ConvertMessages(messages),
		MaxTokens:   c.maxTokens,
		Temperature: ResolveTemperature(opts, c.temperature),
	}
	if opts != nil && opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}

	resp, err := c.callAPI(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("API call failed: %w", err)
	}

	return ConvertResponse(resp, c.calculateCost(resp.Usage.PromptTokens, resp.Usage.CompletionTokens))
}

// callAPI makes the HTTP request to the chat completions endpoint.
func (c *Client) callAPI(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	return ReadResponse(httpResp)
}

// ResolveTemperature picks the per-request temperature when one is given,
// otherwise the client default.
func ResolveTemperature(opts *types.ChatOptions, fallback float64) *float64 {
	if opts != nil && opts.Temperature != nil {
		t := *opts.Temperature
		return &t
	}
	return &fallback
}

// ReadResponse decodes a chat completions HTTP response, mapping error payloads
// and non-200 statuses to *types.APIError.
func ReadResponse(httpResp *http.Response) (*ChatCompletionResponse, error) {
	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp ChatCompletionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		if httpResp.StatusCode != http.StatusOK {
			return nil, &types.APIError{StatusCode: httpResp.StatusCode, Message: string(respBody)}
		}
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if resp.Error != nil {
		return nil, &types.APIError{
			StatusCode: httpResp.StatusCode,
			Type:       resp.Error.Type,
			Message:    resp.Error.Message,
		}
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, &types.APIError{StatusCode: httpResp.StatusCode, Message: string(respBody)}
	}

	return &resp, nil
}

// ConvertMessages converts conversation messages to the chat completions wire format.
func ConvertMessages(messages []types.Message) []ChatMessage {
	apiMessages := make([]ChatMessage, 0, len(messages))
	for _, msg := range messages {
		apiMessages = append(apiMessages, ChatMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return apiMessages
}

// ConvertResponse converts a chat completions response to the provider-neutral form.
func ConvertResponse(resp *ChatCompletionResponse, costUSD float64) (*types.LLMResponse, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("response contained no choices")
	}
	choice := resp.Choices[0]

	llmResp := &types.LLMResponse{
		Usage: types.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
			CostUSD:      costUSD,
		},
		Metadata: map[string]interface{}{
			"model":         resp.Model,
			"finish_reason": choice.FinishReason,
		},
	}

	// Map finish_reason to stop_reason
	switch choice.FinishReason {
	case "stop":
		llmResp.StopReason = "end_turn"
	case "length":
		llmResp.StopReason = "max_tokens"
	default:
		llmResp.StopReason = choice.FinishReason
	}

	if str, ok := choice.Message.Content.(string); ok {
		llmResp.Content = str
	}

	return llmResp, nil
}

// calculateCost estimates the cost in USD based on token usage.
func (c *Client) calculateCost(inputTokens, outputTokens int) float64 {
	return EstimateCost(c.model, inputTokens, outputTokens)
}

// EstimateCost returns an approximate USD cost for a call. Unknown models
// (including local Ollama models) cost nothing.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	// Pricing per million tokens
	var inputCostPerM, outputCostPerM float64

	switch model {
	case "gpt-4.1":
		inputCostPerM = 2.00
		outputCostPerM = 8.00
	case "gpt-4.1-mini":
		inputCostPerM = 0.40
		outputCostPerM = 1.60
	case "gpt-4o":
		inputCostPerM = 2.50
		outputCostPerM = 10.00
	case "gpt-4o-mini":
		inputCostPerM = 0.15
		outputCostPerM = 0.60
	case "gpt-35-turbo", "gpt-3.5-turbo":
		inputCostPerM = 0.50
		outputCostPerM = 1.50
	default:
		return 0
	}

	inputCost := float64(inputTokens) * inputCostPerM / 1_000_000
	outputCost := float64(outputTokens) * outputCostPerM / 1_000_000
	return inputCost + outputCost
}
