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

// Package llms arbitrates between LLM providers under cost/latency/
// sensitivity constraints: provider adapters implement Provider, and
// Router (router.go) applies the selection algorithm, fallback, and
// usage accounting on top of them.
package llms

import "time"

// Role mirrors pkg/memory.Role for message turns handed to a provider;
// kept distinct so this package has no dependency on pkg/memory.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in the conversation handed to a provider.
type Message struct {
	Role    Role
	Content string
	// ToolCallID associates a RoleTool message with the assistant turn
	// that requested it.
	ToolCallID string
}

// Complexity is the deterministic classification the router derives from
// message length, an explicit hint, agent type, and tool-request
// presence, then maps onto a model tier.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// Usage is the token accounting for one completed call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// CompleteParams is the input to a single (possibly streaming)
// completion call.
type CompleteParams struct {
	Messages    []Message
	Model       string
	Temperature float64
	MaxTokens   int
}

// CompleteResponse is a non-streaming completion result.
type CompleteResponse struct {
	Content string
	Usage   Usage
}

// StreamChunk is one item in a streaming completion's lazy sequence.
// Final carries the full usage/cost/provider/model summary; it is the
// last chunk sent on a successful stream.
type StreamChunk struct {
	ContentDelta string
	Final        bool
	Usage        Usage
	CostEstimate float64
	Provider     string
	Model        string
	Err          error
}

// ProviderMetrics is the in-process per-provider counter set the router
// maintains and persists to the cache-backed performance log after every
// successful call.
type ProviderMetrics struct {
	Requests         int64
	PromptTokens     int64
	CompletionTokens int64
	CostEstimate     float64
	LastHealthy      bool
	LastHealthCheck  time.Time
}
