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
package rag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/baylisoj/exposures/pkg/fabric"
)

// ErrNoColumns is returned when a fallback query cannot be built because the
// dataset schema has no columns.
var ErrNoColumns = errors.New("dataset schema has no columns")

// BuildFallbackQuery builds a case-insensitive substring search of the raw
// question across the dataset's text columns (or every column when none are
// textual). The question is never spliced into the SQL: it is returned as a
// bound argument, one per searched column.
func BuildFallbackQuery(sourcePath string, schema *fabric.Schema, question string, limit int) (string, []any, error) {
	if schema == nil || len(schema.Fields) == 0 {
		return "", nil, ErrNoColumns
	}

	columns := make([]string, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		if isTextType(f.Type) {
			columns = append(columns, f.Name)
		}
	}
	if len(columns) == 0 {
		for _, f := range schema.Fields {
			columns = append(columns, f.Name)
		}
	}

	conditions := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		conditions[i] = fmt.Sprintf("contains(lower(CAST(%s AS VARCHAR)), lower(?))", quoteIdent(col))
		args[i] = question
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT *\nFROM '%s'\nWHERE\n    ", sourcePath)
	b.WriteString(strings.Join(conditions, "\n    OR "))
	if limit > 0 {
		fmt.Fprintf(&b, "\nLIMIT %d", limit)
	}
	return b.String(), args, nil
}

// quoteIdent double-quotes an identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
