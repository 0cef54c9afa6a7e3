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
)

const codeFence = "```"

// SanitizeQuery strips a surrounding markdown code fence (with an optional
// language tag such as ```sql) from model output and trims whitespace.
// It does not validate the query.
func SanitizeQuery(raw string) string {
	q := strings.TrimSpace(raw)

	if strings.HasPrefix(q, codeFence) {
		q = q[len(codeFence):]
		// Drop the language tag line. "```SELECT\n..." keeps its first line.
		if nl := strings.IndexByte(q, '\n'); nl >= 0 {
			if tag := strings.TrimSpace(q[:nl]); tag == "" || isLanguageTag(tag) {
				q = q[nl+1:]
			}
		} else if fields := strings.Fields(q); len(fields) > 1 && isLanguageTag(fields[0]) {
			q = strings.TrimPrefix(strings.TrimSpace(q), fields[0])
		}
	}

	q = strings.TrimSpace(q)
	q = strings.TrimSuffix(q, codeFence)
	return strings.TrimSpace(q)
}

func isLanguageTag(s string) bool {
	switch strings.ToLower(s) {
	case "sql", "duckdb", "postgresql", "postgres", "sqlite":
		return true
	}
	return false
}
