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

// AnswerSynthesizer produces the final natural-language answer from a
// question and its formatted sources.
type AnswerSynthesizer struct {
	llm          types.LLMProvider
	systemPrompt string
	template     *prompts.Template
	temperature  float64
}

// NewAnswerSynthesizer creates a synthesizer. The template must declare the
// question and sources slots.
func NewAnswerSynthesizer(llm types.LLMProvider, systemPrompt string, template *prompts.Template, temperature float64) *AnswerSynthesizer {
	return &AnswerSynthesizer{
		llm:          llm,
		systemPrompt: systemPrompt,
		template:     template,
		temperature:  temperature,
	}
}

// Answer sends the grounding instruction and one user message carrying the
// question and its sources. Only the supplied sources are in scope.
func (a *AnswerSynthesizer) Answer(ctx context.Context, question, sources string) (string, error) {
	content, err := a.template.Render(prompts.Values{
		"question": question,
		"sources":  sources,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", a.template.Name(), err)
	}

	messages := []types.Message{
		{Role: types.RoleSystem, Content: a.systemPrompt},
		{Role: types.RoleUser, Content: content},
	}

	resp, err := a.llm.Chat(ctx, messages, types.Temperature(a.temperature))
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
