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

package agent

import "strings"

// entityKeywords are substrings whose presence suggests the turn needs a
// knowledge-graph lookup rather than a direct answer from the model's
// own knowledge.
var entityKeywords = []string{
	"person", "people", "organization", "company", "project", "deal",
	"document", "client", "crew", "budget", "union", "sourced", "concept",
}

// minWordsForDirectAnswer is the shortest a message can be and still be
// answerable without clarification when it has no entity keyword.
const minWordsForDirectAnswer = 3

// classifyTurn decides between a direct answer, a tool-augmented turn,
// or a clarifying question, purely from the message text and whether
// this agent variant has any tools to offer at all. It is pure so the
// classify node's decision never depends on timing or backend state.
func classifyTurn(message string, hasTools bool) Classification {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return ClassifyClarify
	}

	words := strings.Fields(trimmed)
	lower := strings.ToLower(trimmed)

	if hasTools {
		for _, kw := range entityKeywords {
			if strings.Contains(lower, kw) {
				return ClassifyToolAugmented
			}
		}
	}

	if len(words) < minWordsForDirectAnswer {
		return ClassifyClarify
	}
	return ClassifyDirectAnswer
}
