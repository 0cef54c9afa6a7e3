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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/baylisoj/exposures/pkg/backends/duckdb"
	"github.com/baylisoj/exposures/pkg/dataset"
	"github.com/baylisoj/exposures/pkg/rag"
)

var (
	inspectTopBy string
	inspectHead  int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Show sample rows, the record count and the top record of a dataset",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectTopBy, "top-by", "tonnage", "column whose highest value picks the top record")
	inspectCmd.Flags().IntVar(&inspectHead, "head", dataset.DefaultHeadRows, "number of sample rows")
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := config.Dataset.Path
	if len(args) == 1 {
		path = args[0]
	}

	store, err := duckdb.NewBackend(duckdb.Config{Path: path})
	if err != nil {
		return err
	}
	summary, err := dataset.Inspect(commandContext(cmd), store, path, inspectTopBy, inspectHead)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, render(headingStyle, "Columns and sample data:"))
	fmt.Fprintln(out, rag.FormatResult(summary.Head))
	fmt.Fprintf(out, "\nTotal records: %d\n", summary.Total)
	fmt.Fprintf(out, "\n%s\n", render(headingStyle, fmt.Sprintf("Highest %s:", summary.TopBy)))
	fmt.Fprintln(out, rag.FormatResult(summary.Top))
	return nil
}
