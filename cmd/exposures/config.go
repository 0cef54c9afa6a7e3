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
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"

	exposuresconfig "github.com/baylisoj/exposures/pkg/config"
	"github.com/baylisoj/exposures/pkg/llm/factory"
)

const (
	// ServiceName for keyring storage
	ServiceName = "exposures"
	// DefaultConfigFileName is the name of the config file
	DefaultConfigFileName = "exposures"
)

// Config holds all configuration for the exposures CLI.
// Priority: CLI flags > env vars > config file > defaults
type Config struct {
	// DataDir is computed from EXPOSURES_DATA_DIR or ~/.exposures; not loaded from file.
	DataDir string `mapstructure:"-"`

	LLM     LLMConfig     `mapstructure:"llm"`
	Dataset DatasetConfig `mapstructure:"dataset"`
	RAG     RAGConfig     `mapstructure:"rag"`
	Prompts PromptsConfig `mapstructure:"prompts"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// LLMConfig configures the text-generation endpoint.
type LLMConfig struct {
	Provider   string `mapstructure:"provider"`
	Model      string `mapstructure:"model"`
	Endpoint   string `mapstructure:"endpoint"`
	APIVersion string `mapstructure:"api_version"`
	Auth       string `mapstructure:"auth"`

	OpenAIAPIKey          string `mapstructure:"openai_api_key"`
	AzureOpenAIAPIKey     string `mapstructure:"azure_openai_api_key"`
	AzureOpenAIEntraToken string `mapstructure:"azure_openai_entra_token"`

	QueryTemperature  float64 `mapstructure:"query_temperature"`
	AnswerTemperature float64 `mapstructure:"answer_temperature"`
	MaxTokens         int     `mapstructure:"max_tokens"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig paces and retries LLM calls. Zero values disable it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	MaxRetries        int     `mapstructure:"max_retries"`
}

// DatasetConfig locates the exposure files.
type DatasetConfig struct {
	Path    string `mapstructure:"path"`
	CSVPath string `mapstructure:"csv_path"`
}

// RAGConfig tunes the turn engine.
type RAGConfig struct {
	DefaultLimit  int    `mapstructure:"default_limit"`
	FallbackLimit int    `mapstructure:"fallback_limit"`
	SystemPrompt  string `mapstructure:"system_prompt"`
}

// PromptsConfig points at an optional prompt override file.
type PromptsConfig struct {
	File string `mapstructure:"file"`
}

// ServerConfig configures `exposures serve`.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// envBindings maps config keys to the environment variables the Azure and
// OpenAI tooling already uses.
var envBindings = map[string][]string{
	"llm.endpoint":             {"AZURE_OPENAI_ENDPOINT"},
	"llm.model":                {"AZURE_OPENAI_CHAT_DEPLOYMENT"},
	"llm.api_version":          {"AZURE_OPENAI_API_VERSION"},
	"llm.azure_openai_api_key": {"AZURE_OPENAI_API_KEY"},
	"llm.openai_api_key":       {"OPENAI_API_KEY"},
}

// LoadConfig loads configuration from multiple sources with priority:
// 1. CLI flags (highest priority)
// 2. Environment variables, including a .env file in the working directory
// 3. Config file
// 4. Defaults (lowest priority)
func LoadConfig(cfgFile string) (*Config, error) {
	// .env values override the process environment.
	if err := godotenv.Overload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(exposuresconfig.GetDataDir())
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/exposures/")
		viper.SetConfigName(DefaultConfigFileName)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file %s: %w", viper.ConfigFileUsed(), err)
		}
	}

	viper.SetEnvPrefix("EXPOSURES")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for key, envs := range envBindings {
		_ = viper.BindEnv(append([]string{key}, envs...)...)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.DataDir = exposuresconfig.GetDataDir()
	config.Prompts.File = expandOptional(config.Prompts.File)
	config.Logging.File = expandOptional(config.Logging.File)

	// Non-fatal: the keyring may be unavailable; secrets can come from env instead.
	_ = loadSecretsFromKeyring(&config)

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("llm.provider", factory.ProviderAzureOpenAI)
	viper.SetDefault("llm.auth", factory.AuthEntra)
	viper.SetDefault("llm.api_version", "2024-10-21")
	viper.SetDefault("llm.query_temperature", 0.0)
	viper.SetDefault("llm.answer_temperature", 0.3)
	viper.SetDefault("llm.max_tokens", 4096)
	viper.SetDefault("llm.timeout_seconds", 60)
	viper.SetDefault("llm.rate_limit.requests_per_second", 0.0)
	viper.SetDefault("llm.rate_limit.burst", 0)
	viper.SetDefault("llm.rate_limit.max_retries", 0)

	viper.SetDefault("dataset.path", "data/exposures.parquet")
	viper.SetDefault("dataset.csv_path", "data/exposures.csv")

	viper.SetDefault("rag.default_limit", 10)
	viper.SetDefault("rag.fallback_limit", 10)

	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 6061)

	viper.SetDefault("logging.level", "warn")
	viper.SetDefault("logging.format", "text")
}

// SecretMapping defines how to load a secret from keyring into the config.
type SecretMapping struct {
	KeyringKey string
	Setter     func(*Config, string)
	IsSet      func(*Config) bool // true skips the keyring lookup
}

// GetSecretMappings returns all secret mappings for the application.
func GetSecretMappings() []SecretMapping {
	return []SecretMapping{
		{
			KeyringKey: "openai_api_key",
			Setter:     func(c *Config, val string) { c.LLM.OpenAIAPIKey = val },
			IsSet:      func(c *Config) bool { return c.LLM.OpenAIAPIKey != "" },
		},
		{
			KeyringKey: "azure_openai_api_key",
			Setter:     func(c *Config, val string) { c.LLM.AzureOpenAIAPIKey = val },
			IsSet:      func(c *Config) bool { return c.LLM.AzureOpenAIAPIKey != "" },
		},
		{
			KeyringKey: "azure_openai_entra_token",
			Setter:     func(c *Config, val string) { c.LLM.AzureOpenAIEntraToken = val },
			IsSet:      func(c *Config) bool { return c.LLM.AzureOpenAIEntraToken != "" },
		},
	}
}

func loadSecretsFromKeyring(config *Config) error {
	for _, mapping := range GetSecretMappings() {
		if mapping.IsSet(config) {
			continue
		}
		value, err := GetSecretFromKeyring(mapping.KeyringKey)
		if err == nil && value != "" {
			mapping.Setter(config, value)
		}
	}
	return nil
}

// expandOptional expands ~ in a path that may be unset.
func expandOptional(path string) string {
	if path == "" {
		return ""
	}
	return exposuresconfig.ExpandPath(path)
}

// GetSecretFromKeyring retrieves a secret from the system keyring.
func GetSecretFromKeyring(key string) (string, error) {
	return keyring.Get(ServiceName, key)
}

// SaveSecretToKeyring saves a secret to the system keyring.
func SaveSecretToKeyring(key, value string) error {
	return keyring.Set(ServiceName, key, value)
}

// DeleteSecretFromKeyring removes a secret from the system keyring.
func DeleteSecretFromKeyring(key string) error {
	return keyring.Delete(ServiceName, key)
}

// ListAvailableSecretKeys returns all known secret keys that can be stored in the keyring.
func ListAvailableSecretKeys() []string {
	mappings := GetSecretMappings()
	keys := make([]string, len(mappings))
	for i, mapping := range mappings {
		keys[i] = mapping.KeyringKey
	}
	return keys
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LLM.Provider) {
	case factory.ProviderAzureOpenAI, "azureopenai", "azure":
		if c.LLM.Endpoint == "" {
			return fmt.Errorf("llm.endpoint is required for azure-openai (or set AZURE_OPENAI_ENDPOINT)")
		}
		if c.LLM.Model == "" {
			return fmt.Errorf("llm.model is required for azure-openai (or set AZURE_OPENAI_CHAT_DEPLOYMENT)")
		}
		switch c.LLM.Auth {
		case factory.AuthKey:
			if c.LLM.AzureOpenAIAPIKey == "" {
				return fmt.Errorf("azure openai API key is required for auth=key (set AZURE_OPENAI_API_KEY or 'exposures config set-key azure_openai_api_key')")
			}
		case factory.AuthEntra, "":
		default:
			return fmt.Errorf("invalid llm.auth: %s (must be %s or %s)", c.LLM.Auth, factory.AuthKey, factory.AuthEntra)
		}
	case factory.ProviderOpenAI:
		if c.LLM.OpenAIAPIKey == "" {
			return fmt.Errorf("openai API key is required (set OPENAI_API_KEY or 'exposures config set-key openai_api_key')")
		}
		if c.LLM.Model == "" {
			return fmt.Errorf("llm.model is required for openai")
		}
	case factory.ProviderOllama:
		if c.LLM.Model == "" {
			return fmt.Errorf("llm.model is required for ollama")
		}
	case "":
		return fmt.Errorf("llm.provider is required")
	default:
		return fmt.Errorf("unsupported llm.provider: %s", c.LLM.Provider)
	}

	for name, t := range map[string]float64{
		"llm.query_temperature":  c.LLM.QueryTemperature,
		"llm.answer_temperature": c.LLM.AnswerTemperature,
	} {
		if t < 0 || t > 2 {
			return fmt.Errorf("invalid %s: %g (must be 0-2)", name, t)
		}
	}

	if c.RAG.DefaultLimit < 1 {
		return fmt.Errorf("invalid rag.default_limit: %d (must be >= 1)", c.RAG.DefaultLimit)
	}
	if c.RAG.FallbackLimit < 1 {
		return fmt.Errorf("invalid rag.fallback_limit: %d (must be >= 1)", c.RAG.FallbackLimit)
	}
	if c.Dataset.Path == "" {
		return fmt.Errorf("dataset.path is required")
	}
	if c.LLM.RateLimit.RequestsPerSecond < 0 || c.LLM.RateLimit.MaxRetries < 0 {
		return fmt.Errorf("invalid llm.rate_limit: values must be >= 0")
	}
	return nil
}

// FactoryConfig returns the provider factory settings for this configuration.
func (c *Config) FactoryConfig() factory.FactoryConfig {
	apiKey := c.LLM.AzureOpenAIAPIKey
	if c.LLM.Provider == factory.ProviderOpenAI || c.LLM.Provider == factory.ProviderOllama {
		apiKey = c.LLM.OpenAIAPIKey
	}
	return factory.FactoryConfig{
		Provider:    c.LLM.Provider,
		Model:       c.LLM.Model,
		Endpoint:    c.LLM.Endpoint,
		APIVersion:  c.LLM.APIVersion,
		Auth:        c.LLM.Auth,
		APIKey:      apiKey,
		EntraToken:  c.LLM.AzureOpenAIEntraToken,
		MaxTokens:   c.LLM.MaxTokens,
		Temperature: c.LLM.AnswerTemperature,
		Timeout:     c.LLM.TimeoutSeconds,
	}
}

// ServerAddr returns host:port for `exposures serve`.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GenerateExampleConfig returns an example exposures.yaml.
func GenerateExampleConfig() string {
	return `# exposures configuration
# Priority: CLI flags > environment (EXPOSURES_*, .env) > this file > defaults
# Secrets belong in the system keyring: exposures config set-key <name>

llm:
  # azure-openai | openai | ollama
  provider: azure-openai
  # Azure: deployment name (AZURE_OPENAI_CHAT_DEPLOYMENT). OpenAI/Ollama: model name.
  model: ""
  # Azure resource endpoint (AZURE_OPENAI_ENDPOINT)
  endpoint: ""
  api_version: "2024-10-21"
  # entra (DefaultAzureCredential or azure_openai_entra_token) | key
  auth: entra
  query_temperature: 0.0
  answer_temperature: 0.3
  max_tokens: 4096
  timeout_seconds: 60
  rate_limit:
    requests_per_second: 0
    burst: 0
    max_retries: 0

dataset:
  path: data/exposures.parquet
  csv_path: data/exposures.csv

rag:
  default_limit: 10
  fallback_limit: 10

# prompts:
#   file: ~/.exposures/prompts.yaml

server:
  host: 127.0.0.1
  port: 6061

logging:
  level: warn
  format: text
  # file: ~/.exposures/exposures.log
`
}
