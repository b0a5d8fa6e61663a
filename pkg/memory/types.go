// Copyright 2025 OneVice Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package memory implements the three-tier memory subsystem: an
// append-only checkpoint store over the key-value cache, a long-term
// semantic/episodic store over the knowledge graph and vector index, and
// an ephemeral context cache, plus the background workers that extract
// and consolidate long-term items.
package memory

import "time"

// Role mirrors the conversational role of a turn. Kept package-local
// (rather than imported from pkg/llms) so the memory types carry no
// dependency on the provider layer; only the extraction worker imports
// pkg/llms, to call the router.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Turn is a single message in a conversation.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation groups turns under one thread, owned by a single
// principal.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	AgentType string    `json:"agent_type"`
	Turns     []Turn    `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
}

// ItemType is the closed enum of long-term memory kinds.
type ItemType string

const (
	ItemEpisodic   ItemType = "episodic"
	ItemSemantic   ItemType = "semantic"
	ItemPreference ItemType = "preference"
)

// Item is one long-term memory record: content plus the embedding
// written alongside it into the vector index, and enough provenance to
// support consolidation and redaction.
type Item struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Type           ItemType  `json:"type"`
	Content        string    `json:"content"`
	Summary        string    `json:"summary,omitempty"`
	Importance     float64   `json:"importance"`
	SourceTurnRefs []string  `json:"source_turn_refs"`
	Superseded     bool      `json:"superseded"`
	CreatedAt      time.Time `json:"created_at"`
}

// TaskKind is the closed enum of background task kinds dequeued from the
// sorted-set queue.
type TaskKind string

const (
	TaskExtractMemory TaskKind = "extract_memory"
)

// Task is one background-queue entry. Priority follows the "0 is most
// urgent" convention cache.TaskScore encodes.
type Task struct {
	Kind           TaskKind `json:"kind"`
	ConversationID string   `json:"conversation_id"`
	UserID         string   `json:"user_id"`
	Priority       int      `json:"priority"`
	EnqueuedAt     int64    `json:"enqueued_at"`
	Attempt        int      `json:"attempt"`
}
