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

// Package prompts provides prompt templates with named, validated slots.
//
// Templates use {{.slot_name}} placeholders. Every placeholder must be declared
// as a slot when the template is built, and every declared slot must be supplied
// when it is rendered:
//
//	tmpl := prompts.MustNew("greeting", "Hello {{.name}}", prompts.Slot{Name: "name"})
//	text, err := tmpl.Render(prompts.Values{"name": "Ada"})
package prompts

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Slot validation errors.
var (
	ErrMissingSlot = errors.New("missing slot value")
	ErrUnknownSlot = errors.New("unknown slot")
	ErrUnusedSlot  = errors.New("declared slot not referenced by template")
)

// SlotKind controls how a value is escaped when it is substituted.
type SlotKind int

const (
	// Inline values are flattened to a single line.
	Inline SlotKind = iota
	// Block values keep their line structure (schema listings, tables).
	Block
	// Verbatim values are substituted unchanged. Use it for data the model
	// must see exactly as the caller holds it: file paths, result tables,
	// the user's own question.
	Verbatim
)

// Slot declares a named placeholder.
type Slot struct {
	Name string
	Kind SlotKind
}

// Values maps slot names to values.
type Values map[string]interface{}

// Template is an immutable prompt with declared slots.
type Template struct {
	name  string
	text  string
	slots map[string]Slot
}

// New builds a template and checks that its placeholders and slots agree.
func New(name, text string, slots ...Slot) (*Template, error) {
	t := &Template{name: name, text: text, slots: make(map[string]Slot, len(slots))}
	for _, s := range slots {
		if s.Name == "" {
			return nil, fmt.Errorf("template %s: slot with empty name", name)
		}
		t.slots[s.Name] = s
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// MustNew is New that panics on error, for package-level built-in templates.
func MustNew(name, text string, slots ...Slot) *Template {
	t, err := New(name, text, slots...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Template) validate() error {
	used := make(map[string]bool)
	for _, p := range placeholders(t.text) {
		if _, ok := t.slots[p]; !ok {
			return fmt.Errorf("template %s: %w: %s", t.name, ErrUnknownSlot, p)
		}
		used[p] = true
	}
	for _, name := range t.SlotNames() {
		if !used[name] {
			return fmt.Errorf("template %s: %w: %s", t.name, ErrUnusedSlot, name)
		}
	}
	return nil
}

// Name returns the template name.
func (t *Template) Name() string {
	return t.name
}

// Text returns the raw template text.
func (t *Template) Text() string {
	return t.text
}

// SlotNames returns the declared slot names, sorted.
func (t *Template) SlotNames() []string {
	names := make([]string, 0, len(t.slots))
	for name := range t.slots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithText returns a copy of t with new text and the same slots.
func (t *Template) WithText(text string) (*Template, error) {
	slots := make([]Slot, 0, len(t.slots))
	for _, s := range t.slots {
		slots = append(slots, s)
	}
	return New(t.name, text, slots...)
}

// Render substitutes values into the template. Every declared slot must have
// a value and no undeclared values may be passed.
func (t *Template) Render(values Values) (string, error) {
	for name := range values {
		if _, ok := t.slots[name]; !ok {
			return "", fmt.Errorf("template %s: %w: %s", t.name, ErrUnknownSlot, name)
		}
	}
	var missing []string
	for _, name := range t.SlotNames() {
		if _, ok := values[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("template %s: %w: %s", t.name, ErrMissingSlot, strings.Join(missing, ", "))
	}

	return placeholderPattern.ReplaceAllStringFunc(t.text, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		return escapeValue(t.slots[name].Kind, values[name])
	}), nil
}
