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
package azureopenai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/baylisoj/exposures/pkg/llm/openai"
	"github.com/baylisoj/exposures/pkg/types"
)

// DefaultAPIVersion is the Azure OpenAI data-plane API version used when none is configured.
const DefaultAPIVersion = "2024-08-01-preview"

// Client implements the LLMProvider interface for Azure OpenAI.
// Azure OpenAI uses deployment-based routing and supports dual authentication.
type Client struct {
	// Azure-specific configuration
	endpoint     string // https://{resource}.openai.azure.com
	deploymentID string // User's deployment name (not model name)
	apiVersion   string

	// Authentication (use one or the other)
	apiKey      string
	credentials TokenProvider

	httpClient *http.Client

	maxTokens   int
	temperature float64

	// Model name for cost calculation (inferred from deployment)
	modelName string
}

// Config holds configuration for the Azure OpenAI client.
type Config struct {
	// Required: Azure OpenAI endpoint
	// Format: https://{resource-name}.openai.azure.com
	Endpoint string

	// Required: Deployment ID (your deployment name, not the model name)
	DeploymentID string

	// API version (default: "2024-08-01-preview")
	APIVersion string

	// Authentication: Use ONE of these
	APIKey      string        // Option 1: API key (from Azure portal)
	Credentials TokenProvider // Option 2: Microsoft Entra ID bearer tokens

	// Optional: Model name for cost calculation
	// If not provided, attempts to infer from deployment ID
	ModelName string

	MaxTokens   int           // Default: 4096
	Temperature float64       // Default: 1.0, used when a request carries no temperature
	Timeout     time.Duration // Default: 60s
}

// NewClient creates a new Azure OpenAI client.
func NewClient(config Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if config.DeploymentID == "" {
		return nil, fmt.Errorf("deployment ID is required")
	}
	if config.APIKey == "" && config.Credentials == nil {
		return nil, fmt.Errorf("either APIKey or Credentials must be provided")
	}

	if config.APIVersion == "" {
		config.APIVersion = DefaultAPIVersion
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 4096
	}
	if config.Temperature == 0 {
		config.Temperature = 1.0
	}

	modelName := config.ModelName
	if modelName == "" {
		modelName = inferModelFromDeployment(config.DeploymentID)
	}

	return &Client{
		endpoint:     strings.TrimRight(config.Endpoint, "/"),
		deploymentID: config.DeploymentID,
		apiVersion:   config.APIVersion,
		apiKey:       config.APIKey,
		credentials:  config.Credentials,
		maxTokens:    config.MaxTokens,
		temperature:  config.Temperature,
		modelName:    modelName,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "azure-openai"
}

// Model returns the model identifier (deployment ID).
func (c *Client) Model() string {
	return c.deploymentID
}

// Chat sends a conversation to Azure OpenAI and returns the response.
func (c *Client) Chat(ctx context.Context, messages []types.Message, opts *types.ChatOptions) (*types.LLMResponse, error) {
	req := &openai.ChatCompletionRequest{
		Model:       c.deploymentID, // Azure ignores this but include for completeness
		Messages:    openai.ConvertMessages(messages),
		Temperature: openai.ResolveTemperature(opts, c.temperature),
	}

	maxTokens := c.maxTokens
	if opts != nil && opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}
	// Newer API versions and models require max_completion_tokens
	if c.usesMaxCompletionTokens() {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.callAPI(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("API call failed: %w", err)
	}

	llmResp, err := openai.ConvertResponse(resp, openai.EstimateCost(c.modelName, resp.Usage.PromptTokens, resp.Usage.CompletionTokens))
	if err != nil {
		return nil, err
	}
	llmResp.Metadata["deployment"] = c.deploymentID
	return llmResp, nil
}

// callAPI makes the HTTP request to Azure OpenAI's API.
func (c *Client) callAPI(ctx context.Context, req *openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	// Format: https://{endpoint}/openai/deployments/{deployment-id}/chat/completions?api-version={version}
	apiURL := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.endpoint,
		url.PathEscape(c.deploymentID),
		url.QueryEscape(c.apiVersion),
	)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	if c.apiKey != "" {
		httpReq.Header.Set("api-key", c.apiKey)
	} else {
		token, err := c.credentials.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire Entra token: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	return openai.ReadResponse(httpResp)
}

// usesMaxCompletionTokens returns true if this deployment requires max_completion_tokens
// instead of max_tokens.
//
// API version 2024-08-01-preview and later always use max_completion_tokens; older
// versions only accept it for models newer than gpt-4 / gpt-35-turbo.
func (c *Client) usesMaxCompletionTokens() bool {
	if c.apiVersion >= "2024-08-01" {
		return true
	}

	oldModels := []string{
		"gpt-4-0613",
		"gpt-4-32k",
		"gpt-35-turbo",
		"gpt-3.5-turbo",
	}

	modelLower := strings.ToLower(c.modelName)
	for _, oldModel := range oldModels {
		if strings.Contains(modelLower, oldModel) {
			return false
		}
	}
	return true
}

// inferModelFromDeployment attempts to infer the model name from deployment ID.
// Common patterns: "gpt-4o-deployment" -> "gpt-4o", "exposures-gpt-4o-mini" -> "gpt-4o-mini"
func inferModelFromDeployment(deploymentID string) string {
	models := []string{
		"gpt-4.1-mini",
		"gpt-4.1",
		"gpt-4o-mini",
		"gpt-4o",
		"gpt-35-turbo",
		"gpt-3.5-turbo",
	}

	lower := strings.ToLower(deploymentID)
	for _, model := range models {
		if strings.Contains(lower, model) {
			return model
		}
	}
	return deploymentID
}
