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

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/baylisoj/exposures/internal/version"
)

var (
	cfgFile string
	config  *Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "exposures",
	Short: "Ask questions about vessel insurance exposures",
	Long: heredoc.Doc(`
		exposures answers natural-language questions about a vessel insurance
		exposure dataset. Each question is turned into a DuckDB query over the
		Parquet file, and the matching rows ground the model's answer.

		It also generates synthetic exposure data and converts between Excel,
		Parquet, CSV and JSON.
	`),
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $EXPOSURES_DATA_DIR/exposures.yaml)")

	rootCmd.PersistentFlags().String("dataset", "data/exposures.parquet", "Parquet dataset path")
	rootCmd.PersistentFlags().String("llm-provider", "azure-openai", "LLM provider (azure-openai, openai, ollama)")
	rootCmd.PersistentFlags().String("model", "", "model or Azure deployment name")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")

	_ = viper.BindPFlag("dataset.path", rootCmd.PersistentFlags().Lookup("dataset"))
	_ = viper.BindPFlag("llm.provider", rootCmd.PersistentFlags().Lookup("llm-provider"))
	_ = viper.BindPFlag("llm.model", rootCmd.PersistentFlags().Lookup("model"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	var err error
	config, err = LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
}
