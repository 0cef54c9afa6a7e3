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
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/baylisoj/exposures/pkg/rag"
	"github.com/baylisoj/exposures/pkg/search"
)

var (
	searchQuestion string
	searchCSV      string
	searchLimit    int
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Answer questions from a full-text search over the CSV export",
	Long: heredoc.Doc(`
		Index the CSV export of the exposure dataset and answer questions from
		the best-ranked rows. Every word of the question is a search term; rows
		are ranked with BM25 and passed to the model as sources.
	`),
	Example: heredoc.Doc(`
		exposures search
		exposures search --question "bulk carriers carrying grain"
	`),
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchQuestion, "question", "q", "", "answer a single question and exit")
	searchCmd.Flags().StringVar(&searchCSV, "csv", "", "CSV file to index (default: dataset.csv_path)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum rows passed to the model")
}

func runSearch(cmd *cobra.Command, args []string) error {
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
	answers, err := a.answerer()
	if err != nil {
		return err
	}

	path := searchCSV
	if path == "" {
		path = config.Dataset.CSVPath
	}
	index, err := search.LoadCSV(ctx, path, logger)
	if err != nil {
		return err
	}
	defer func() { _ = index.Close() }()

	logger.Info("Search index ready", zap.String("path", path), zap.Int("rows", index.Len()))

	handle := func(ctx context.Context, question string) error {
		matches, err := index.Search(ctx, question, searchLimit)
		if err != nil {
			return err
		}
		sources := rag.FormatResult(matches)
		fmt.Fprintf(out, "\n%s\n%s\n", render(headingStyle, "Found matches:"), sources)

		answer, err := answers.Answer(ctx, question, sources)
		if err != nil {
			logger.Warn("answer generation failed", zap.Error(err))
			fmt.Fprintf(out, "\n%s\n", render(errorStyle, rag.ApologyPrefix+err.Error()))
			return nil
		}
		fmt.Fprintf(out, "\n%s\n\n%s\n", render(headingStyle, "Response from "+providerLabel(a.provider.Name())+":"), answer)
		return nil
	}

	if searchQuestion != "" {
		return handle(ctx, searchQuestion)
	}
	return runREPL(ctx, cmd.InOrStdin(), out, handle)
}
