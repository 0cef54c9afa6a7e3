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

	"github.com/baylisoj/exposures/pkg/dataset"
)

var (
	generateRows   int
	generateOutput string
	generateSeed   uint64
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate sample vessel insurance exposures and write Parquet",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().IntVar(&generateRows, "rows", dataset.DefaultRows, "number of rows to generate")
	generateCmd.Flags().StringVar(&generateOutput, "output", "", "output Parquet file path (default: dataset.path)")
	generateCmd.Flags().Uint64Var(&generateSeed, "seed", 0, "random seed for reproducible output (0: random)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if generateRows < 1 {
		return fmt.Errorf("--rows must be at least 1")
	}
	output := generateOutput
	if output == "" {
		output = config.Dataset.Path
	}

	records := dataset.NewGenerator(generateSeed).Generate(generateRows)
	if err := dataset.WriteParquet(commandContext(cmd), output, records); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(records), output)
	return nil
}
