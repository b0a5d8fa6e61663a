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

package orchestrator

import (
	"sort"
	"strings"
)

// ruleKeywords buckets surface keywords per agent type. A message can
// score against more than one bucket; ruleClassify normalizes by the
// total number of keyword hits across all buckets.
var ruleKeywords = map[AgentType][]string{
	AgentSales: {
		"deal", "client", "budget", "pitch", "contract", "sourced", "sourcer",
		"revenue", "proposal", "negotiat",
	},
	AgentTalent: {
		"person", "people", "actor", "actress", "crew", "union", "talent",
		"agent", "bio", "credit", "hired",
	},
	AgentAnalytics: {
		"project", "trend", "analysis", "concept", "report", "pattern",
		"dataset", "metric", "summary", "compare",
	},
}

// classifyConfidenceThreshold is the minimum rule-classifier score
// (fraction of total keyword hits captured by the top bucket) accepted
// without an LLM fallback call.
const classifyConfidenceThreshold = 0.6

// scoredType is one candidate agent type with its rule-classifier
// confidence.
type scoredType struct {
	Type  AgentType
	Score float64
}

// ruleClassify scores message against every keyword bucket and returns
// the candidates with at least one hit, ranked by score descending,
// ties broken by AgentType ascending for a fully deterministic order.
// It is pure: orchestrator.classify is its only caller.
func ruleClassify(message string) []scoredType {
	lower := strings.ToLower(message)

	counts := make(map[AgentType]int, len(ruleKeywords))
	total := 0
	for t, keywords := range ruleKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				counts[t]++
				total++
			}
		}
	}
	if total == 0 {
		return nil
	}

	scored := make([]scoredType, 0, len(counts))
	for _, t := range AllAgentTypes() {
		if c := counts[t]; c > 0 {
			scored = append(scored, scoredType{Type: t, Score: float64(c) / float64(total)})
		}
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Type < scored[j].Type
	})
	return scored
}
