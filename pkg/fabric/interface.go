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
package fabric

import (
	"context"
)

// ExecutionBackend defines the contract for a tabular store.
// Implementations answer two query shapes: describe the schema of a resource
// and execute a query string, returning rows with column metadata.
type ExecutionBackend interface {
	// Name returns the backend identifier (e.g., "duckdb")
	Name() string

	// ExecuteQuery executes a query with optional bound parameters.
	// Failures caused by the query itself (malformed SQL, unknown column,
	// type mismatch) are reported as *ExecutionError.
	ExecuteQuery(ctx context.Context, query string, args ...any) (*QueryResult, error)

	// GetSchema retrieves column names and declared types for a resource
	// (for file-backed stores, the file path).
	GetSchema(ctx context.Context, resource string) (*Schema, error)

	// Ping checks backend availability.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// QueryResult represents the result of executing a query.
type QueryResult struct {
	// Type indicates the result type ("rows")
	Type string

	// Rows for tabular results, keyed by column name
	Rows []map[string]interface{}

	// Columns in result order
	Columns []Column

	// RowCount for tabular results
	RowCount int

	// ExecutionStats tracks execution metrics
	ExecutionStats ExecutionStats
}

// ColumnNames returns the result's column names in order.
func (r *QueryResult) ColumnNames() []string {
	if r == nil {
		return nil
	}
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}

// Column represents a column in tabular results.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// ExecutionStats tracks execution metrics.
type ExecutionStats struct {
	// Duration in milliseconds
	DurationMs int64
}

// Schema represents the schema of a resource.
type Schema struct {
	// Resource name (file path, table)
	Name string

	// Fields in declaration order
	Fields []Field
}

// Field represents a column in a schema.
type Field struct {
	Name     string
	Type     string
	Nullable bool
}
