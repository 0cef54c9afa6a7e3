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
package factory

import (
	"fmt"
	"strings"
	"time"

	"github.com/baylisoj/exposures/pkg/llm/azureopenai"
	"github.com/baylisoj/exposures/pkg/llm/openai"
	"github.com/baylisoj/exposures/pkg/types"
)

// Supported provider names.
const (
	ProviderAzureOpenAI = "azure-openai"
	ProviderOpenAI      = "openai"
	ProviderOllama      = "ollama"
)

// Azure authentication modes.
const (
	AuthKey   = "key"
	AuthEntra = "entra"
)

// DefaultOllamaEndpoint is Ollama's OpenAI-compatible chat completions endpoint.
const DefaultOllamaEndpoint = "http://localhost:11434/v1/chat/completions"

// FactoryConfig holds configuration for creating LLM providers.
type FactoryConfig struct {
	Provider string

	// Model is the model name (openai, ollama) or the deployment name (azure-openai)
	Model string

	// Endpoint overrides the provider endpoint. Required for azure-openai.
	Endpoint   string
	APIVersion string

	// Auth selects azure-openai authentication: "key" or "entra"
	Auth string

	APIKey     string
	EntraToken string

	MaxTokens   int
	Temperature float64
	Timeout     int // seconds
}

// CredentialSource builds Entra credentials when no static token is configured.
// Replaced in tests.
type CredentialSource func() (azureopenai.TokenProvider, error)

// ProviderFactory creates LLM providers from configuration.
type ProviderFactory struct {
	config      FactoryConfig
	credentials CredentialSource
}

// NewProviderFactory creates a new provider factory.
func NewProviderFactory(config FactoryConfig) *ProviderFactory {
	if config.Provider == "" {
		config.Provider = ProviderAzureOpenAI
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 4096
	}
	if config.Timeout == 0 {
		config.Timeout = 60
	}

	return &ProviderFactory{
		config: config,
		credentials: func() (azureopenai.TokenProvider, error) {
			return azureopenai.NewDefaultCredentialProvider()
		},
	}
}

// WithCredentialSource overrides how Entra credentials are obtained.
func (f *ProviderFactory) WithCredentialSource(src CredentialSource) *ProviderFactory {
	f.credentials = src
	return f
}

// CreateProvider creates the configured LLM provider.
func (f *ProviderFactory) CreateProvider() (types.LLMProvider, error) {
	switch strings.ToLower(f.config.Provider) {
	case ProviderAzureOpenAI, "azureopenai", "azure":
		return f.createAzureOpenAIProvider()
	case ProviderOpenAI:
		return f.createOpenAIProvider()
	case ProviderOllama:
		return f.createOllamaProvider()
	default:
		return nil, fmt.Errorf("unsupported provider: %s", f.config.Provider)
	}
}

func (f *ProviderFactory) timeout() time.Duration {
	return time.Duration(f.config.Timeout) * time.Second
}

func (f *ProviderFactory) createOpenAIProvider() (types.LLMProvider, error) {
	if f.config.APIKey == "" {
		return nil, fmt.Errorf("openai API key not configured (set llm.api_key, OPENAI_API_KEY, or 'exposures config set-key openai_api_key')")
	}

	return openai.NewClient(openai.Config{
		APIKey:      f.config.APIKey,
		Model:       f.config.Model,
		Endpoint:    f.config.Endpoint,
		MaxTokens:   f.config.MaxTokens,
		Temperature: f.config.Temperature,
		Timeout:     f.timeout(),
	}), nil
}

func (f *ProviderFactory) createOllamaProvider() (types.LLMProvider, error) {
	endpoint := f.config.Endpoint
	if endpoint == "" {
		endpoint = DefaultOllamaEndpoint
	}
	if f.config.Model == "" {
		return nil, fmt.Errorf("ollama model not configured (set llm.model)")
	}

	return openai.NewClient(openai.Config{
		Name:        ProviderOllama,
		APIKey:      f.config.APIKey,
		Model:       f.config.Model,
		Endpoint:    endpoint,
		MaxTokens:   f.config.MaxTokens,
		Temperature: f.config.Temperature,
		Timeout:     f.timeout(),
	}), nil
}

func (f *ProviderFactory) createAzureOpenAIProvider() (types.LLMProvider, error) {
	if f.config.Endpoint == "" {
		return nil, fmt.Errorf("azure openai endpoint not configured (set llm.endpoint or AZURE_OPENAI_ENDPOINT)")
	}
	if f.config.Model == "" {
		return nil, fmt.Errorf("azure openai deployment not configured (set llm.model or AZURE_OPENAI_CHAT_DEPLOYMENT)")
	}

	cfg := azureopenai.Config{
		Endpoint:     f.config.Endpoint,
		DeploymentID: f.config.Model,
		APIVersion:   f.config.APIVersion,
		MaxTokens:    f.config.MaxTokens,
		Temperature:  f.config.Temperature,
		Timeout:      f.timeout(),
	}

	switch f.config.Auth {
	case AuthKey:
		if f.config.APIKey == "" {
			return nil, fmt.Errorf("azure openai API key not configured (set AZURE_OPENAI_API_KEY or 'exposures config set-key azure_openai_api_key')")
		}
		cfg.APIKey = f.config.APIKey
	case AuthEntra, "":
		if f.config.EntraToken != "" {
			cfg.Credentials = azureopenai.StaticToken(f.config.EntraToken)
		} else {
			creds, err := f.credentials()
			if err != nil {
				return nil, err
			}
			cfg.Credentials = creds
		}
	default:
		return nil, fmt.Errorf("unsupported azure auth mode: %s (want %q or %q)", f.config.Auth, AuthKey, AuthEntra)
	}

	return azureopenai.NewClient(cfg)
}
