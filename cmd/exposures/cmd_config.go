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
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage exposures configuration",
	Long:  `Manage the configuration file and the secrets kept in the system keyring.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate example configuration file",
	Long:  `Generate an example exposures.yaml in $EXPOSURES_DATA_DIR (default ~/.exposures).`,
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key [key-name]",
	Short: "Save API key to system keyring",
	Long: heredoc.Doc(`
		Save an API key to the system keyring securely.

		The key will be stored in your system's secure credential storage
		(Keychain on macOS, Credential Manager on Windows, Secret Service on Linux).

		Run 'exposures config list-keys' to see available key names.
	`),
	Args: cobra.ExactArgs(1),
	RunE: runConfigSetKey,
}

var configGetKeyCmd = &cobra.Command{
	Use:   "get-key [key-name]",
	Short: "Show a masked API key from system keyring",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGetKey,
}

var configDeleteKeyCmd = &cobra.Command{
	Use:   "delete-key [key-name]",
	Short: "Delete API key from system keyring",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigDeleteKey,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration (merged from all sources). Secrets are masked.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configListKeysCmd = &cobra.Command{
	Use:   "list-keys",
	Short: "List available secret keys",
	Args:  cobra.NoArgs,
	RunE:  runConfigListKeys,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetKeyCmd)
	configCmd.AddCommand(configGetKeyCmd)
	configCmd.AddCommand(configDeleteKeyCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configListKeysCmd)

	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := filepath.Join(config.DataDir, DefaultConfigFileName+".yaml")

	if err := os.MkdirAll(config.DataDir, 0o750); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	if _, err := os.Stat(configPath); err == nil && !configInitForce {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
	}
	if err := os.WriteFile(configPath, []byte(GenerateExampleConfig()), 0o600); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Config file created: %s\n", configPath)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "1. Set llm.endpoint and llm.model (or AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_CHAT_DEPLOYMENT)")
	fmt.Fprintln(out, "2. Sign in with the Azure CLI, or save a key:")
	fmt.Fprintln(out, "   exposures config set-key azure_openai_api_key")
	fmt.Fprintln(out, "3. Generate sample data and ask away:")
	fmt.Fprintln(out, "   exposures generate && exposures ask")
	return nil
}

func checkSecretKey(keyName string) error {
	available := ListAvailableSecretKeys()
	if slices.Contains(available, keyName) {
		return nil
	}
	return fmt.Errorf("invalid key name: %s (available: %s)", keyName, strings.Join(available, ", "))
}

// readSecret reads a secret without echo from a terminal, or one line from in otherwise.
func readSecret(in io.Reader, out io.Writer, keyName string) (string, error) {
	fmt.Fprintf(out, "Enter %s (input hidden): ", keyName)
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secretBytes, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("error reading input: %w", err)
		}
		return string(secretBytes), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	fmt.Fprintln(out)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("error reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runConfigSetKey(cmd *cobra.Command, args []string) error {
	keyName := args[0]
	if err := checkSecretKey(keyName); err != nil {
		return err
	}

	secret, err := readSecret(cmd.InOrStdin(), cmd.OutOrStdout(), keyName)
	if err != nil {
		return err
	}
	if secret == "" {
		return fmt.Errorf("secret cannot be empty")
	}

	if err := SaveSecretToKeyring(keyName, secret); err != nil {
		return fmt.Errorf("error saving to keyring: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved %s to system keyring\n", keyName)
	return nil
}

func runConfigGetKey(cmd *cobra.Command, args []string) error {
	keyName := args[0]
	if err := checkSecretKey(keyName); err != nil {
		return err
	}

	secret, err := GetSecretFromKeyring(keyName)
	if err != nil {
		return fmt.Errorf("key not found in keyring (set it with: exposures config set-key %s): %w", keyName, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", keyName, maskSecret(secret))
	return nil
}

func runConfigDeleteKey(cmd *cobra.Command, args []string) error {
	keyName := args[0]
	if err := checkSecretKey(keyName); err != nil {
		return err
	}
	if err := DeleteSecretFromKeyring(keyName); err != nil {
		return fmt.Errorf("error deleting key: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s from system keyring\n", keyName)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	c := config

	fmt.Fprintln(out, "Current Configuration:")
	fmt.Fprintln(out, "======================")
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(out, "Config file: %s\n", used)
	} else {
		fmt.Fprintln(out, "Config file: (none)")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "LLM:")
	fmt.Fprintf(out, "  Provider: %s\n", c.LLM.Provider)
	fmt.Fprintf(out, "  Model: %s\n", orUnset(c.LLM.Model))
	fmt.Fprintf(out, "  Endpoint: %s\n", orUnset(c.LLM.Endpoint))
	fmt.Fprintf(out, "  Auth: %s\n", c.LLM.Auth)
	fmt.Fprintf(out, "  OpenAI API Key: %s\n", maskOrUnset(c.LLM.OpenAIAPIKey))
	fmt.Fprintf(out, "  Azure OpenAI API Key: %s\n", maskOrUnset(c.LLM.AzureOpenAIAPIKey))
	fmt.Fprintf(out, "  Azure Entra Token: %s\n", maskOrUnset(c.LLM.AzureOpenAIEntraToken))
	fmt.Fprintf(out, "  Query Temperature: %.1f\n", c.LLM.QueryTemperature)
	fmt.Fprintf(out, "  Answer Temperature: %.1f\n", c.LLM.AnswerTemperature)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Dataset:")
	fmt.Fprintf(out, "  Parquet: %s\n", c.Dataset.Path)
	fmt.Fprintf(out, "  CSV: %s\n", c.Dataset.CSVPath)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "RAG:")
	fmt.Fprintf(out, "  Default Limit: %d\n", c.RAG.DefaultLimit)
	fmt.Fprintf(out, "  Fallback Limit: %d\n", c.RAG.FallbackLimit)
	fmt.Fprintf(out, "  Prompt Overrides: %s\n", orUnset(c.Prompts.File))
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Server:")
	fmt.Fprintf(out, "  Address: %s\n", c.ServerAddr())
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Logging:")
	fmt.Fprintf(out, "  Level: %s\n", c.Logging.Level)
	fmt.Fprintf(out, "  Format: %s\n", c.Logging.Format)
	return nil
}

func runConfigListKeys(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Available secret keys:")
	fmt.Fprintln(out, "======================")
	for _, key := range ListAvailableSecretKeys() {
		fmt.Fprintf(out, "  - %s\n", key)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  exposures config set-key <key-name>")
	fmt.Fprintln(out, "  exposures config get-key <key-name>")
	fmt.Fprintln(out, "  exposures config delete-key <key-name>")
	return nil
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

func maskOrUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return maskSecret(s)
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
