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
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/baylisoj/exposures/pkg/fabric"
)

// EmptyResultSentinel is the sources text used when a query matched nothing.
const EmptyResultSentinel = "No matching records found."

// minCellWidth keeps separator cells valid markdown ("---").
const minCellWidth = 3

var cellEscaper = strings.NewReplacer(
	"|", `\|`,
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
)

// FormatResult renders a query result as a markdown table, header row first,
// then one line per row in result order. Numeric columns are right-aligned.
// An empty or nil result yields EmptyResultSentinel.
func FormatResult(result *fabric.QueryResult) string {
	if result == nil || len(result.Rows) == 0 {
		return EmptyResultSentinel
	}

	names, numeric := tableColumns(result)

	cells := make([][]string, len(result.Rows))
	widths := make([]int, len(names))
	for j, name := range names {
		widths[j] = max(minCellWidth, runewidth.StringWidth(escapeCell(name)))
	}
	for i, row := range result.Rows {
		cells[i] = make([]string, len(names))
		for j, name := range names {
			c := escapeCell(formatCell(row[name]))
			cells[i][j] = c
			widths[j] = max(widths[j], runewidth.StringWidth(c))
		}
	}

	lines := make([]string, 0, len(cells)+2)

	header := make([]string, len(names))
	sep := make([]string, len(names))
	for j, name := range names {
		header[j] = runewidth.FillRight(escapeCell(name), widths[j])
		if numeric[j] {
			sep[j] = strings.Repeat("-", widths[j]-1) + ":"
		} else {
			sep[j] = strings.Repeat("-", widths[j])
		}
	}
	lines = append(lines, tableLine(header), tableLine(sep))

	for _, row := range cells {
		padded := make([]string, len(row))
		for j, c := range row {
			if numeric[j] {
				padded[j] = runewidth.FillLeft(c, widths[j])
			} else {
				padded[j] = runewidth.FillRight(c, widths[j])
			}
		}
		lines = append(lines, tableLine(padded))
	}

	return strings.Join(lines, "\n")
}

// tableColumns returns the column order and per-column numeric flags. When
// the result carries no column metadata the keys of the first row are used,
// sorted for determinism.
func tableColumns(result *fabric.QueryResult) ([]string, []bool) {
	if len(result.Columns) > 0 {
		names := make([]string, len(result.Columns))
		numeric := make([]bool, len(result.Columns))
		for i, c := range result.Columns {
			names[i] = c.Name
			numeric[i] = isNumericType(c.Type)
		}
		return names, numeric
	}

	names := make([]string, 0, len(result.Rows[0]))
	for k := range result.Rows[0] {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, make([]bool, len(names))
}

func tableLine(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}

func escapeCell(s string) string {
	return cellEscaper.Replace(s)
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format(time.DateOnly)
		}
		return val.Format(time.RFC3339)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
