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
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Set is a named collection of templates whose text can be overridden from YAML.
// Overrides keep the slot declarations of the template they replace.
type Set struct {
	templates map[string]*Template
}

// overrideFile is the YAML layout of a prompt override file:
//
//	prompts:
//	  rag.sql: |
//	    You write DuckDB SQL against '{{.source_path}}' ...
type overrideFile struct {
	Prompts map[string]string `yaml:"prompts"`
}

// NewSet creates a set from built-in templates.
func NewSet(templates ...*Template) *Set {
	s := &Set{templates: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		s.templates[t.Name()] = t
	}
	return s
}

// Get returns the template registered under name.
func (s *Set) Get(name string) (*Template, bool) {
	t, ok := s.templates[name]
	return t, ok
}

// Names returns registered template names, sorted.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Override replaces the text of an existing template after validating it.
func (s *Set) Override(name, text string) error {
	t, ok := s.templates[name]
	if !ok {
		return fmt.Errorf("no built-in prompt named %q", name)
	}
	replaced, err := t.WithText(text)
	if err != nil {
		return err
	}
	s.templates[name] = replaced
	return nil
}

// LoadYAML applies overrides from a YAML file. Nothing is applied unless every
// override in the file validates.
func (s *Set) LoadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read prompt file: %w", err)
	}

	var file overrideFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse prompt file %s: %w", path, err)
	}

	staged := make(map[string]*Template, len(file.Prompts))
	for name, text := range file.Prompts {
		t, ok := s.templates[name]
		if !ok {
			return fmt.Errorf("prompt file %s: no built-in prompt named %q", path, name)
		}
		replaced, err := t.WithText(text)
		if err != nil {
			return fmt.Errorf("prompt file %s: %w", path, err)
		}
		staged[name] = replaced
	}

	for name, t := range staged {
		s.templates[name] = t
	}
	return nil
}
