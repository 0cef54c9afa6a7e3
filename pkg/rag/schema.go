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
	"strings"

	"github.com/baylisoj/exposures/pkg/fabric"
)

// DescribeSchema renders one "- name (TYPE)" line per column.
func DescribeSchema(schema *fabric.Schema) string {
	if schema == nil {
		return ""
	}
	var b strings.Builder
	for i, f := range schema.Fields {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(f.Name)
		b.WriteString(" (")
		b.WriteString(f.Type)
		b.WriteString(")")
	}
	return b.String()
}

// baseType upper-cases a declared type and drops any parameter list,
// so "DECIMAL(18,3)" becomes "DECIMAL" and "ENUM('a','b')" becomes "ENUM".
func baseType(declared string) string {
	t := strings.ToUpper(strings.TrimSpace(declared))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

// isTextType reports whether a declared column type holds text or identifiers.
func isTextType(declared string) bool {
	switch baseType(declared) {
	case "VARCHAR", "CHAR", "BPCHAR", "TEXT", "STRING", "UUID", "ENUM":
		return true
	}
	return false
}

// isNumericType reports whether a declared column type is numeric.
func isNumericType(declared string) bool {
	switch baseType(declared) {
	case "TINYINT", "SMALLINT", "INTEGER", "INT", "BIGINT", "HUGEINT",
		"UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT", "UHUGEINT",
		"FLOAT", "REAL", "DOUBLE", "DECIMAL", "NUMERIC":
		return true
	}
	return false
}
