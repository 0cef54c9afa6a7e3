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

// Package search provides BM25-ranked full-text search over the rows of a
// CSV export, backed by an in-memory SQLite FTS5 table.
package search

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/baylisoj/exposures/internal/sqlitedriver"
	"github.com/baylisoj/exposures/pkg/fabric"
)

// Index holds every row of one table. Row i has FTS rowid i+1.
type Index struct {
	db      *sql.DB
	columns []string
	rows    [][]string
	logger  *zap.Logger
}

// LoadCSV reads a CSV file (header row first) and indexes it.
func LoadCSV(ctx context.Context, path string, logger *zap.Logger) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s has no header row", path)
		}
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		rows = append(rows, rec)
	}

	return NewIndex(ctx, header, rows, logger)
}

// NewIndex indexes rows under the given header. Each row's document is its
// cells joined by single spaces.
func NewIndex(ctx context.Context, header []string, rows [][]string, logger *zap.Logger) (*Index, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("header is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open(sqlitedriver.DriverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open search index: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	idx := &Index{db: db, columns: header, rows: rows, logger: logger}
	if err := idx.build(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return idx, nil
}

func (i *Index) build(ctx context.Context) error {
	start := time.Now()

	if _, err := i.db.ExecContext(ctx,
		"CREATE VIRTUAL TABLE rows_fts USING fts5(body, tokenize='porter unicode61')"); err != nil {
		return fmt.Errorf("failed to create search index: %w", err)
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin index transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO rows_fts (rowid, body) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare index insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for n, row := range i.rows {
		if _, err := stmt.ExecContext(ctx, n+1, strings.Join(row, " ")); err != nil {
			return fmt.Errorf("failed to index row %d: %w", n, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit search index: %w", err)
	}

	i.logger.Debug("search index built",
		zap.String("driver", sqlitedriver.Implementation),
		zap.Int("rows", len(i.rows)),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// Columns returns the header.
func (i *Index) Columns() []string {
	return append([]string(nil), i.columns...)
}

// Len returns the number of indexed rows.
func (i *Index) Len() int {
	return len(i.rows)
}

// Search returns rows matching any term of query, best match first.
// A limit of 0 or less returns every match. A query with no terms matches
// nothing.
func (i *Index) Search(ctx context.Context, query string, limit int) (*fabric.QueryResult, error) {
	start := time.Now()
	result := &fabric.QueryResult{Type: "rows", Columns: make([]fabric.Column, len(i.columns))}
	for n, c := range i.columns {
		result.Columns[n] = fabric.Column{Name: c, Type: "VARCHAR", Nullable: true}
	}

	match := BuildMatchQuery(query)
	if match == "" {
		return result, nil
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := i.db.QueryContext(ctx,
		"SELECT rowid FROM rows_fts WHERE rows_fts MATCH ? ORDER BY bm25(rows_fts) LIMIT ?",
		match, limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var rowid int64
		if err := rows.Scan(&rowid); err != nil {
			return nil, fmt.Errorf("failed to scan search hit: %w", err)
		}
		result.Rows = append(result.Rows, i.record(int(rowid-1)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search iteration error: %w", err)
	}

	result.RowCount = len(result.Rows)
	result.ExecutionStats.DurationMs = time.Since(start).Milliseconds()
	i.logger.Debug("search completed",
		zap.String("match", match),
		zap.Int("hits", result.RowCount))
	return result, nil
}

// record maps row n onto the header. Short rows leave missing cells nil.
func (i *Index) record(n int) map[string]any {
	row := i.rows[n]
	out := make(map[string]any, len(i.columns))
	for c, name := range i.columns {
		if c < len(row) {
			out[name] = row[c]
		} else {
			out[name] = nil
		}
	}
	return out
}

// Close releases the index.
func (i *Index) Close() error {
	return i.db.Close()
}

// BuildMatchQuery turns free text into an FTS5 expression that ORs every
// whitespace-separated term. Each term is a quoted string, so FTS operators
// and column filters in user text are matched literally. Terms without a
// letter or digit are dropped.
// Example: `tanker AND "x"` -> `"tanker" OR "AND" OR """x"""`
func BuildMatchQuery(query string) string {
	var terms []string
	for _, w := range strings.Fields(query) {
		if strings.IndexFunc(w, isWordRune) < 0 {
			continue
		}
		terms = append(terms, `"`+strings.ReplaceAll(w, `"`, `""`)+`"`)
	}
	return strings.Join(terms, " OR ")
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
