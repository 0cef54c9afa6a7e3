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

// Package duckdb provides an ExecutionBackend over columnar files (Parquet, CSV, JSON)
// using an embedded DuckDB engine.
//
// Every call opens its own in-memory DuckDB database and closes it before returning,
// so no connection state survives between queries.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/marcboeker/go-duckdb"

	"github.com/baylisoj/exposures/pkg/fabric"
)

// DriverName is the database/sql driver name registered by go-duckdb.
const DriverName = "duckdb"

// Config holds configuration for the DuckDB backend.
type Config struct {
	// Path is the default dataset file (used by Ping and as the schema resource
	// when GetSchema is called with an empty resource).
	Path string

	// DSN is passed to sql.Open. Empty means an in-memory database.
	DSN string
}

// Backend implements fabric.ExecutionBackend on top of DuckDB.
type Backend struct {
	path string
	dsn  string
}

// NewBackend creates a new DuckDB backend.
func NewBackend(config Config) (*Backend, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("dataset path is required")
	}
	return &Backend{path: config.Path, dsn: config.DSN}, nil
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return "duckdb"
}

// Path returns the default dataset path.
func (b *Backend) Path() string {
	return b.path
}

// WithDB opens a short-lived DuckDB database, passes it to fn and closes it
// afterwards regardless of fn's outcome.
func (b *Backend) WithDB(ctx context.Context, fn func(ctx context.Context, db *sql.DB) error) error {
	db, err := sql.Open(DriverName, b.dsn)
	if err != nil {
		return fmt.Errorf("failed to open duckdb: %w", err)
	}
	defer func() { _ = db.Close() }()

	return fn(ctx, db)
}

// ExecuteQuery runs query with bound args and returns all rows.
func (b *Backend) ExecuteQuery(ctx context.Context, query string, args ...any) (*fabric.QueryResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &fabric.ExecutionError{Query: query, Detail: "empty query"}
	}

	var result *fabric.QueryResult
	err := b.WithDB(ctx, func(ctx context.Context, db *sql.DB) error {
		var err error
		result, err = executeSelect(ctx, db, query, args)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetSchema describes the columns of resource (a file path); an empty resource
// means the configured dataset.
func (b *Backend) GetSchema(ctx context.Context, resource string) (*fabric.Schema, error) {
	if resource == "" {
		resource = b.path
	}

	result, err := b.ExecuteQuery(ctx, fmt.Sprintf("DESCRIBE SELECT * FROM '%s'", resource))
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", resource, err)
	}

	schema := &fabric.Schema{Name: resource}
	for _, row := range result.Rows {
		schema.Fields = append(schema.Fields, fabric.Field{
			Name:     fmt.Sprint(row["column_name"]),
			Type:     fmt.Sprint(row["column_type"]),
			Nullable: fmt.Sprint(row["null"]) == "YES",
		})
	}
	return schema, nil
}

// Ping checks that the dataset exists and the engine can be opened.
func (b *Backend) Ping(ctx context.Context) error {
	if _, err := os.Stat(b.path); err != nil {
		return fmt.Errorf("dataset not available: %w", err)
	}
	return b.WithDB(ctx, func(ctx context.Context, db *sql.DB) error {
		return db.PingContext(ctx)
	})
}

// Close is a no-op; the backend holds no open connections between calls.
func (b *Backend) Close() error {
	return nil
}

func executeSelect(ctx context.Context, db *sql.DB, query string, args []any) (*fabric.QueryResult, error) {
	start := time.Now()

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		// Cancellation is not a query failure.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &fabric.ExecutionError{Query: query, Detail: "query failed", Err: err}
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, &fabric.ExecutionError{Query: query, Detail: "failed to read columns", Err: err}
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, &fabric.ExecutionError{Query: query, Detail: "failed to read column types", Err: err}
	}

	cols := make([]fabric.Column, len(columns))
	for i, col := range columns {
		nullable, _ := columnTypes[i].Nullable()
		cols[i] = fabric.Column{
			Name:     col,
			Type:     columnTypes[i].DatabaseTypeName(),
			Nullable: nullable,
		}
	}

	var resultRows []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range columns {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, &fabric.ExecutionError{Query: query, Detail: "failed to scan row", Err: err}
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &fabric.ExecutionError{Query: query, Detail: "row iteration error", Err: err}
	}

	return &fabric.QueryResult{
		Type:     "rows",
		Rows:     resultRows,
		Columns:  cols,
		RowCount: len(resultRows),
		ExecutionStats: fabric.ExecutionStats{
			DurationMs: time.Since(start).Milliseconds(),
		},
	}, nil
}

// normalizeValue converts driver-specific values into plain Go values.
func normalizeValue(val interface{}) interface{} {
	switch v := val.(type) {
	case []byte:
		return string(v)
	case *big.Int:
		// HUGEINT, e.g. SUM over integer columns
		if v.IsInt64() {
			return v.Int64()
		}
		return v.String()
	case duckdb.Decimal:
		if v.Value == nil {
			return nil
		}
		f, _ := new(big.Float).Quo(
			new(big.Float).SetInt(v.Value),
			new(big.Float).SetFloat64(math.Pow10(int(v.Scale))),
		).Float64()
		return f
	default:
		return val
	}
}
