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
package dataset

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/baylisoj/exposures/pkg/backends/duckdb"
)

// ErrInputNotFound is returned when a conversion input does not exist.
var ErrInputNotFound = errors.New("input file not found")

// Format is a file format DuckDB can write.
type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
)

// copyOptions are the COPY ... TO options for each output format.
var copyOptions = map[Format]string{
	FormatParquet: "(FORMAT PARQUET)",
	FormatCSV:     "(FORMAT CSV, HEADER true)",
	FormatJSON:    "(FORMAT JSON, ARRAY true)",
}

// Convert rewrites input as output in the given format. Parquet and JSON
// inputs are read natively; CSV inputs go through read_csv_auto type
// inference.
func Convert(ctx context.Context, input, output string, to Format) error {
	opts, ok := copyOptions[to]
	if !ok {
		return fmt.Errorf("unsupported output format %q", to)
	}
	if err := checkInput(input); err != nil {
		return err
	}
	if err := ensureParentDir(output); err != nil {
		return err
	}

	source := sqlString(input)
	switch filepath.Ext(input) {
	case ".csv", ".tsv":
		source = fmt.Sprintf("read_csv_auto(%s, header=true)", sqlString(input))
	case ".json":
		source = fmt.Sprintf("read_json_auto(%s)", sqlString(input))
	}

	copySQL := fmt.Sprintf("COPY (SELECT * FROM %s) TO %s %s", source, sqlString(output), opts)
	return runDuckDB(ctx, output, func(ctx context.Context, db *sql.DB) error {
		if _, err := db.ExecContext(ctx, copySQL); err != nil {
			return fmt.Errorf("failed to convert %s to %s: %w", input, to, err)
		}
		return nil
	})
}

// ExcelToParquet converts one worksheet to Parquet. sheet is a sheet name or
// a zero-based index; empty means the first sheet. Returns the sheet name used.
func ExcelToParquet(ctx context.Context, input, output, sheet string) (string, error) {
	if err := checkInput(input); err != nil {
		return "", err
	}

	wb, err := excelize.OpenFile(input)
	if err != nil {
		return "", fmt.Errorf("failed to open workbook %s: %w", input, err)
	}
	defer func() { _ = wb.Close() }()

	name, err := resolveSheet(wb, sheet)
	if err != nil {
		return "", err
	}

	rows, err := wb.GetRows(name)
	if err != nil {
		return "", fmt.Errorf("failed to read sheet %q: %w", name, err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("sheet %q is empty", name)
	}

	tmp, err := os.CreateTemp("", "exposures-*.csv")
	if err != nil {
		return "", fmt.Errorf("failed to create staging file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := writeCSV(tmp, rows); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write staging file: %w", err)
	}

	if err := Convert(ctx, tmp.Name(), output, FormatParquet); err != nil {
		return "", err
	}
	return name, nil
}

func resolveSheet(wb *excelize.File, sheet string) (string, error) {
	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}
	if sheet == "" {
		return sheets[0], nil
	}
	if idx, err := strconv.Atoi(sheet); err == nil {
		if idx < 0 || idx >= len(sheets) {
			return "", fmt.Errorf("sheet index %d out of range (workbook has %d sheets)", idx, len(sheets))
		}
		return sheets[idx], nil
	}
	for _, s := range sheets {
		if s == sheet {
			return s, nil
		}
	}
	return "", fmt.Errorf("sheet %q not found", sheet)
}

// writeCSV writes rows padded to the header width; excelize trims trailing
// empty cells.
func writeCSV(f *os.File, rows [][]string) error {
	width := len(rows[0])
	w := csv.NewWriter(f)
	for _, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		if err := w.Write(row[:width]); err != nil {
			return fmt.Errorf("failed to stage sheet rows: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func checkInput(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}

// runDuckDB runs fn in a throwaway DuckDB session.
func runDuckDB(ctx context.Context, path string, fn func(ctx context.Context, db *sql.DB) error) error {
	b, err := duckdb.NewBackend(duckdb.Config{Path: path})
	if err != nil {
		return err
	}
	return b.WithDB(ctx, fn)
}
