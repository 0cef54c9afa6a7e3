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

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/baylisoj/exposures/pkg/dataset"
)

// Conversion failures exit with this code.
const convertExitCode = 2

var (
	excelInput  string
	excelOutput string
	excelSheet  string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert exposure files between Excel, Parquet, CSV and JSON",
}

var excelToParquetCmd = &cobra.Command{
	Use:   "excel-to-parquet",
	Short: "Convert one worksheet of an Excel workbook to Parquet",
	Long: heredoc.Doc(`
		Convert one worksheet of an Excel workbook to Parquet. The first row
		is the header; column types are inferred from the cell values.
	`),
	Example: heredoc.Doc(`
		exposures convert excel-to-parquet -i exposures.xlsx -o data/exposures.parquet
		exposures convert excel-to-parquet -i exposures.xlsx -o fleet.parquet --sheet Fleet
	`),
	Args: cobra.NoArgs,
	RunE: runExcelToParquet,
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.AddCommand(excelToParquetCmd)
	convertCmd.AddCommand(newFormatCmd("parquet-to-csv", "Convert a Parquet file to CSV", dataset.FormatCSV, ".csv"))
	convertCmd.AddCommand(newFormatCmd("parquet-to-json", "Convert a Parquet file to a JSON array", dataset.FormatJSON, ".json"))
	convertCmd.AddCommand(newFormatCmd("csv-to-parquet", "Convert a CSV file to Parquet", dataset.FormatParquet, ".parquet"))

	excelToParquetCmd.Flags().StringVarP(&excelInput, "input", "i", "", "path to input Excel workbook")
	excelToParquetCmd.Flags().StringVarP(&excelOutput, "output", "o", "", "path to output Parquet file")
	excelToParquetCmd.Flags().StringVarP(&excelSheet, "sheet", "s", "", "sheet name or zero-based index (default: first sheet)")
	_ = excelToParquetCmd.MarkFlagRequired("input")
	_ = excelToParquetCmd.MarkFlagRequired("output")
}

func runExcelToParquet(cmd *cobra.Command, args []string) error {
	sheet, err := dataset.ExcelToParquet(commandContext(cmd), excelInput, excelOutput, excelSheet)
	if err != nil {
		return &exitError{code: convertExitCode, err: err}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote Parquet to %s from sheet=%s\n", excelOutput, sheet)
	return nil
}

// newFormatCmd builds a single-input conversion command whose output defaults
// to the input path with ext.
func newFormatCmd(use, short string, to dataset.Format, ext string) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   use + " <input>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args[0], output, to, ext)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: input path with "+ext+")")
	return cmd
}

func runConvert(cmd *cobra.Command, input, output string, to dataset.Format, ext string) error {
	if output == "" {
		output = dataset.ReplaceExt(input, ext)
	}
	if err := dataset.Convert(commandContext(cmd), input, output, to); err != nil {
		return &exitError{code: convertExitCode, err: err}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Converted to: %s\n", output)
	return nil
}
