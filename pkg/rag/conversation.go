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
	"github.com/baylisoj/exposures/pkg/types"
)

// Conversation is an append-only log of role-tagged messages.
// It owns a private copy of its messages; callers only ever see copies.
type Conversation struct {
	messages []types.Message
}

// NewConversation starts a conversation from a prior transcript (may be nil).
// The caller's slice is copied, never aliased.
func NewConversation(prior []types.Message) *Conversation {
	msgs := make([]types.Message, len(prior), len(prior)+3)
	copy(msgs, prior)
	return &Conversation{messages: msgs}
}

// Append adds a message at the end.
func (c *Conversation) Append(role, content string) {
	c.messages = append(c.messages, types.Message{Role: role, Content: content})
}

// EnsureSystemFirst inserts a system message at position 0 unless the first
// message already has the system role. Reports whether a message was inserted.
func (c *Conversation) EnsureSystemFirst(content string) bool {
	if len(c.messages) > 0 && c.messages[0].Role == types.RoleSystem {
		return false
	}
	c.messages = append([]types.Message{{Role: types.RoleSystem, Content: content}}, c.messages...)
	return true
}

// Messages returns a copy of the full sequence.
func (c *Conversation) Messages() []types.Message {
	out := make([]types.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}
