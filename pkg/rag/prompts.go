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
	"github.com/baylisoj/exposures/pkg/prompts"
)

// Template names understood by the engine. Overrides loaded from YAML use
// these keys.
const (
	SQLPromptName    = "rag.sql"
	AnswerPromptName = "rag.answer"
)

// DefaultSystemPrompt constrains the assistant to the retrieved sources.
const DefaultSystemPrompt = "You are a helpful assistant that answers questions about vessel insurance exposures based on an exposures data set.\n" +
	"You must use the data set to answer the questions, you should not provide any info that is not in the provided sources."

const defaultSQLPrompt = `You translate questions about vessel insurance exposures into a single DuckDB SQL query.

The data lives in one Parquet file. Always read it with FROM '{{.source_path}}' and never reference any other table or file.

Columns:
{{.schema}}

Rules:
- Reply with the SQL query only. Do not add explanations, comments or markdown code fences.
- Return exactly one statement.
- Unless the question asks for an aggregate (count, sum, average, minimum, maximum or a grouping), add LIMIT {{.default_limit}}.
- For "highest", "largest", "most" and similar wording, order the relevant column descending.
- For "lowest", "smallest", "least" and similar wording, order the relevant column ascending.
- Use ILIKE for case-insensitive text matching.`

const defaultAnswerPrompt = `{{.question}}
Sources: {{.sources}}`

// DefaultPrompts returns a fresh set holding the built-in templates.
func DefaultPrompts() *prompts.Set {
	return prompts.NewSet(
		prompts.MustNew(SQLPromptName, defaultSQLPrompt,
			prompts.Slot{Name: "source_path", Kind: prompts.Verbatim},
			prompts.Slot{Name: "schema", Kind: prompts.Block},
			prompts.Slot{Name: "default_limit", Kind: prompts.Inline},
		),
		prompts.MustNew(AnswerPromptName, defaultAnswerPrompt,
			prompts.Slot{Name: "question", Kind: prompts.Verbatim},
			prompts.Slot{Name: "sources", Kind: prompts.Verbatim},
		),
	)
}
