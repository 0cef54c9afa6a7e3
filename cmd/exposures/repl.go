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
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/baylisoj/exposures/pkg/types"
)

const questionPrompt = "\nEnter your question about vessel insurance exposures (or 'quit' to exit): "

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	queryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	// styled is true when stdout is a terminal.
	styled = term.IsTerminal(int(os.Stdout.Fd()))
)

func render(style lipgloss.Style, s string) string {
	if !styled {
		return s
	}
	return style.Render(s)
}

// providerLabels are display names for provider identifiers.
var providerLabels = map[string]string{
	"azure-openai": "Azure OpenAI",
	"openai":       "OpenAI",
	"ollama":       "Ollama",
}

func providerLabel(name string) string {
	if label, ok := providerLabels[name]; ok {
		return label
	}
	return name
}

func isQuit(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "quit", "exit", "q":
		return true
	}
	return false
}

// runREPL prompts for questions until quit or end of input. Blank lines are
// skipped. An error from handle ends the loop.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, handle func(ctx context.Context, question string) error) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, questionPrompt)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		line := scanner.Text()
		if isQuit(line) {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := handle(ctx, line); err != nil {
			return err
		}
	}
}

// loadTranscript reads a saved conversation. A missing file is an empty
// conversation.
func loadTranscript(path string) ([]types.Message, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	var messages []types.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse transcript %s: %w", path, err)
	}
	for i, m := range messages {
		if !types.ValidRole(m.Role) {
			return nil, fmt.Errorf("transcript %s: message %d has invalid role %q", path, i, m.Role)
		}
	}
	return messages, nil
}

// saveTranscript replaces the transcript file with messages.
func saveTranscript(path string, messages []types.Message) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create transcript directory: %w", err)
	}
	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}
