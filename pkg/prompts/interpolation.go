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
package prompts

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// placeholderPattern matches {{.slot_name}} placeholders.
var placeholderPattern = regexp.MustCompile(`\{\{\.(\w+)\}\}`)

// placeholders returns the distinct slot names referenced by text, in order of first use.
func placeholders(text string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// escapeValue converts a value to string and escapes it for its slot kind.
func escapeValue(kind SlotKind, value interface{}) string {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []string:
		s = strings.Join(v, ", ")
	default:
		s = fmt.Sprintf("%v", v)
	}

	switch kind {
	case Verbatim:
		return s
	case Block:
		return escapeBlock(s)
	default:
		return escapeInline(s)
	}
}

// escapeInline flattens s onto a single line and neutralises prompt-boundary markers.
func escapeInline(s string) string {
	s = cleanUTF8(s)

	// Newlines and tabs would let a value open a new prompt section
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(s)

	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) && r != ' ' {
			continue
		}
		result.WriteRune(r)
	}
	s = sanitizePromptInjection(result.String())

	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// escapeBlock keeps line structure but strips control characters and
// prompt-boundary markers.
func escapeBlock(s string) string {
	s = cleanUTF8(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")

	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		result.WriteRune(r)
	}
	return strings.TrimSpace(sanitizePromptInjection(result.String()))
}

func cleanUTF8(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return s
}

// sanitizePromptInjection blanks out common prompt delimiters and role markers.
func sanitizePromptInjection(s string) string {
	injectionPatterns := []string{
		"```",
		"### Instruction:",
		"### Response:",
		"System:",
		"Assistant:",
		"Human:",
		"[INST]",
		"[/INST]",
		"<|im_start|>",
		"<|im_end|>",
	}

	for _, pattern := range injectionPatterns {
		s = strings.ReplaceAll(s, pattern, strings.Repeat(" ", len(pattern)))
	}
	return s
}
