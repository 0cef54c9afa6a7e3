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
	"context"
	"fmt"

	"github.com/baylisoj/exposures/pkg/prompts"
	"github.com/baylisoj/exposures/pkg/types"
)

// QuerySynthesizer asks the LLM to translate a question into one SQL query
// against the dataset file.
type QuerySynthesizer struct {
	llm          types.LLMProvider
	template     *prompts.Template
	sourcePath   string
	defaultLimit int
	temperature  float64
}

// NewQuerySynthesizer creates a synthesizer. The template must declare the
// source_path, schema and default_limit slots.
func NewQuerySynthesizer(llm types.LLMProvider, template *prompts.Template, sourcePath string, defaultLimit int, temperature float64) *QuerySynthesizer {
	return &QuerySynthesizer{
		llm:          llm,
		template:     template,
		sourcePath:   sourcePath,
		defaultLimit: defaultLimit,
		temperature:  temperature,
	}
}

// Synthesize returns the raw model output. Callers sanitize it.
func (s *QuerySynthesizer) Synthesize(ctx context.Context, question, schema string) (string, error) {
	instructions, err := s.template.Render(prompts.Values{
		"source_path":   s.sourcePath,
		"schema":        schema,
		"default_limit": s.defaultLimit,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", s.template.Name(), err)
	}

	messages := []types.Message{
		{Role: types.RoleSystem, Content: instructions},
		{Role: types.RoleUser, Content: question},
	}

	resp, err := s.llm.Chat(ctx, messages, types.Temperature(s.temperature))
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
