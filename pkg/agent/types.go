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

// Package agent implements the deterministic per-turn state machine:
// initialize, load_memory, classify, a bounded (route_tools, call_llm)
// loop, respond, and persist. SalesAgent, TalentAgent, and
// AnalyticsAgent are not separate types but Variant values plugged into
// the same Graph, so adding a fourth agent never touches this package's
// control flow.
package agent

import (
	"github.com/dirkdd/OneVice-sub002/pkg/llms"
	"github.com/dirkdd/OneVice-sub002/pkg/memory"
)

// Variant is everything that distinguishes one agent type from another:
// the rest of the graph is shared.
type Variant struct {
	AgentType         string
	SystemPrompt      string
	AllowedTools      []string
	ModelPreferences  map[llms.Complexity]string
	MemoryTypeWeights map[memory.ItemType]float64
}

// weightFor returns a memory item type's re-ranking weight, defaulting
// to 1 for any type the variant doesn't mention explicitly.
func (v Variant) weightFor(t memory.ItemType) float64 {
	if w, ok := v.MemoryTypeWeights[t]; ok {
		return w
	}
	return 1
}

func (v Variant) allows(tool string) bool {
	for _, name := range v.AllowedTools {
		if name == tool {
			return true
		}
	}
	return false
}

// Classification is classify's output: which shape the rest of the turn
// takes.
type Classification string

const (
	ClassifyDirectAnswer  Classification = "direct_answer"
	ClassifyToolAugmented Classification = "tool_augmented"
	ClassifyClarify       Classification = "clarify"
)

// ToolOutcome records one tool invocation's result for both the prompt
// fed back to the model and the caller-visible trace.
type ToolOutcome struct {
	Tool    string `json:"tool"`
	Status  string `json:"status"` // "ok" | "error"
	Summary string `json:"summary"`
}

// Response is one turn's final, caller-visible outcome.
type Response struct {
	Content    string
	AgentType  string
	Provider   string
	Usage      llms.Usage
	Cancelled  bool
	ToolTrace  []ToolOutcome
	StepsUsed  int
	Classified Classification
}

// genericFailureMessage is what respond shows the user when any node in
// the state machine fails; the real error is logged and returned to the
// caller for structured handling, never echoed into the chat transcript.
const genericFailureMessage = "I ran into a problem answering that. Please try again."
