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
	"fmt"
	"strconv"
	"strings"

	"github.com/baylisoj/exposures/pkg/fabric"
)

// DefaultHeadRows is how many leading rows Inspect returns.
const DefaultHeadRows = 10

// Summary is a quick look at a dataset file.
type Summary struct {
	Path    string
	Columns []fabric.Field
	Head    *fabric.QueryResult
	Total   int64
	TopBy   string
	Top     *fabric.QueryResult
}

// Inspect returns the first headRows rows, the row count and the record with
// the largest topBy value (with its vessel, operator and year when present).
func Inspect(ctx context.Context, store fabric.ExecutionBackend, path, topBy string, headRows int) (*Summary, error) {
	if headRows <= 0 {
		headRows = DefaultHeadRows
	}

	schema, err := store.GetSchema(ctx, path)
	if err != nil {
		return nil, err
	}
	if !hasField(schema, topBy) {
		return nil, fmt.Errorf("column %q not found in %s", topBy, path)
	}

	source := sqlString(path)
	summary := &Summary{Path: path, Columns: schema.Fields, TopBy: topBy}

	summary.Head, err = store.ExecuteQuery(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", source, headRows))
	if err != nil {
		return nil, err
	}

	summary.Total, err = Count(ctx, store, path)
	if err != nil {
		return nil, err
	}

	var cols []string
	for _, c := range []string{"vessel", "operator", "year"} {
		if c != topBy && hasField(schema, c) {
			cols = append(cols, quoteIdent(c))
		}
	}
	cols = append(cols, quoteIdent(topBy))

	summary.Top, err = store.ExecuteQuery(ctx, fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY %s DESC NULLS LAST LIMIT 1",
		strings.Join(cols, ", "), source, quoteIdent(topBy)))
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// Count returns the number of records in the file at path.
func Count(ctx context.Context, store fabric.ExecutionBackend, path string) (int64, error) {
	result, err := store.ExecuteQuery(ctx, fmt.Sprintf("SELECT count(*) AS total FROM %s", sqlString(path)))
	if err != nil {
		return 0, err
	}
	if len(result.Rows) != 1 {
		return 0, fmt.Errorf("unexpected row count result: %d rows", len(result.Rows))
	}
	total, err := toInt64(result.Rows[0]["total"])
	if err != nil {
		return 0, fmt.Errorf("unexpected row count: %w", err)
	}
	return total, nil
}

func hasField(schema *fabric.Schema, name string) bool {
	for _, f := range schema.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("%T is not a count", v)
	}
}
