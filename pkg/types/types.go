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
package types

import (
	"context"
	"fmt"
)

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single turn in the conversation.
// Messages are values; once appended to a conversation they are never modified.
type Message struct {
	// Role is the message sender (system, user, assistant)
	Role string `json:"role"`

	// Content is the message text
	Content string `json:"content"`
}

// ValidRole reports whether role is one of the conversation roles.
func ValidRole(role string) bool {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Usage tracks LLM token usage and costs.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	CostUSD      float64
}

// LLMResponse represents a response from the LLM.
type LLMResponse struct {
	// Content is the generated text
	Content string

	// StopReason indicates why the LLM stopped
	StopReason string

	// Usage tracks token usage
	Usage Usage

	// Metadata contains provider-specific metadata
	Metadata map[string]interface{}
}

// ChatOptions carries per-request sampling settings.
// A nil Temperature means the provider's configured default; a non-nil zero is sent as 0.
type ChatOptions struct {
	Temperature *float64
	MaxTokens   int
}

// Temperature returns a ChatOptions pinned to the given sampling temperature.
func Temperature(t float64) *ChatOptions {
	return &ChatOptions{Temperature: &t}
}

// LLMProvider defines the interface for text-generation endpoints
// (OpenAI, Azure OpenAI, Ollama).
type LLMProvider interface {
	// Chat sends an ordered list of messages and returns the generated content.
	Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*LLMResponse, error)

	// Name returns the provider name
	Name() string

	// Model returns the model identifier
	Model() string
}

// APIError is returned by providers when the endpoint answers with a non-success status
// or an error payload (auth, rate limit, malformed request, service failure).
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("API error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}
