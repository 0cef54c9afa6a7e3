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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/baylisoj/exposures/pkg/dataset"
	"github.com/baylisoj/exposures/pkg/rag"
	"github.com/baylisoj/exposures/pkg/types"
)

var (
	askQuestion   string
	askTranscript string
	askJSON       bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask questions about the exposure dataset",
	Long: heredoc.Doc(`
		Ask natural-language questions about the Parquet exposure dataset.

		Each question is turned into a DuckDB query. If the generated query
		fails, the question is matched as a keyword against every text column
		instead. The matching rows are shown and used to ground the answer.

		Without --question an interactive session starts; type quit, exit or q
		to leave. With --transcript the conversation is read from and saved to
		a JSON file so a later session can continue it.
	`),
	Example: heredoc.Doc(`
		exposures ask
		exposures ask --question "Which vessel has the highest tonnage?"
		exposures ask --transcript ~/.exposures/transcripts/fleet.json
	`),
	Args: cobra.NoArgs,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "answer a single question and exit")
	askCmd.Flags().StringVar(&askTranscript, "transcript", "", "JSON file to load and save the conversation")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print each turn result as JSON")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	logger, err := newLogger(config.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := newApp(config, logger)
	if err != nil {
		return err
	}

	history, err := loadTranscript(askTranscript)
	if err != nil {
		return err
	}

	session := &askSession{app: a, out: out, transcript: askTranscript, history: history, asJSON: askJSON}
	if askQuestion != "" {
		return session.turn(ctx, askQuestion)
	}

	if err := session.banner(ctx); err != nil {
		return err
	}
	return runREPL(ctx, cmd.InOrStdin(), out, session.turn)
}

// askSession carries the conversation between REPL turns.
type askSession struct {
	app        *app
	out        io.Writer
	transcript string
	history    []types.Message
	asJSON     bool
}

func (s *askSession) banner(ctx context.Context) error {
	path := s.app.config.Dataset.Path
	schema, err := s.app.engine.Schema(ctx)
	if err != nil {
		return fmt.Errorf("failed to read dataset %s: %w", path, err)
	}
	total, err := dataset.Count(ctx, s.app.store, path)
	if err != nil {
		return fmt.Errorf("failed to count records in %s: %w", path, err)
	}

	names := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		names[i] = f.Name
	}
	fmt.Fprintf(s.out, "Loaded %d exposure records from parquet file\n", total)
	fmt.Fprintf(s.out, "Columns: %s\n", strings.Join(names, ", "))
	return nil
}

func (s *askSession) turn(ctx context.Context, question string) error {
	result, err := s.app.engine.ProcessTurn(ctx, question, s.history)
	if err != nil {
		return err
	}

	s.history = result.Conversation
	if err := saveTranscript(s.transcript, s.history); err != nil {
		return err
	}

	if s.asJSON {
		enc := json.NewEncoder(s.out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printTurn(s.out, s.app.provider.Name(), result)
	return nil
}

func printTurn(out io.Writer, provider string, result *rag.TurnResult) {
	if !result.Success {
		last := result.Conversation[len(result.Conversation)-1]
		fmt.Fprintf(out, "\n%s\n", render(errorStyle, last.Content))
		return
	}

	label := "Query:"
	if result.UsedFallback {
		label = "Query (keyword fallback):"
	}
	fmt.Fprintf(out, "\n%s\n%s\n", render(headingStyle, label), render(queryStyle, result.SQLQuery))
	fmt.Fprintf(out, "\n%s\n%s\n", render(headingStyle, "Found matches:"), result.Sources)
	fmt.Fprintf(out, "\n%s\n\n%s\n", render(headingStyle, "Response from "+providerLabel(provider)+":"), result.Answer)
}
