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

import (
	"github.com/dirkdd/OneVice-sub002/pkg/llms"
	"github.com/dirkdd/OneVice-sub002/pkg/memory"
)

// SalesAgent answers questions about deals, clients, and sourcing,
// weighted toward preference memories, since pitch framing tracks what
// a client has previously responded to.
var SalesAgent = Variant{
	AgentType: "sales",
	SystemPrompt: "You are the sales assistant for a talent and production " +
		"agency. Answer questions about deals, clients, and organizations " +
		"using the tools available to you rather than guessing. Be concise " +
		"and cite specific people, projects, or deals by name when you have them.",
	AllowedTools: []string{
		"get_organization_profile",
		"get_deal_details",
		"get_deal_sourcer",
		"find_contributors_on_client_projects",
		"search_documents_full_text",
		"universal_vector_search",
	},
	ModelPreferences: map[llms.Complexity]string{
		llms.ComplexitySimple: "claude-haiku",
	},
	MemoryTypeWeights: map[memory.ItemType]float64{
		memory.ItemPreference: 1.5,
		memory.ItemEpisodic:   1.2,
	},
}

// TalentAgent answers questions about people, their project history,
// and the organizations they're tied to, weighted toward episodic
// memory, since prior interactions about a specific person matter more
// here than general preference.
var TalentAgent = Variant{
	AgentType: "talent",
	SystemPrompt: "You are the talent assistant for a talent and production " +
		"agency. Answer questions about people, their project history, and " +
		"their affiliations using the tools available to you. Be concise and " +
		"note when information may be incomplete rather than speculating.",
	AllowedTools: []string{
		"get_person_profile",
		"find_people_at_organization",
		"get_project_details",
		"find_projects_by_concept",
		"find_contributors_on_client_projects",
		"search_documents_full_text",
		"universal_vector_search",
	},
	ModelPreferences: map[llms.Complexity]string{
		llms.ComplexitySimple: "claude-haiku",
	},
	MemoryTypeWeights: map[memory.ItemType]float64{
		memory.ItemEpisodic: 1.5,
		memory.ItemSemantic: 1.2,
	},
}

// AnalyticsAgent answers broader questions spanning creative concepts,
// projects, and documents, weighted toward semantic memory, since this
// variant synthesizes across many records rather than recalling one
// person's or deal's history.
var AnalyticsAgent = Variant{
	AgentType: "analytics",
	SystemPrompt: "You are the analytics assistant for a talent and " +
		"production agency. Answer broader questions spanning projects, " +
		"creative concepts, and documents, synthesizing across multiple " +
		"records rather than reporting on just one. Be precise about which " +
		"records you drew a conclusion from.",
	AllowedTools: []string{
		"get_project_details",
		"find_projects_by_concept",
		"get_organization_profile",
		"search_documents_full_text",
		"universal_vector_search",
	},
	ModelPreferences: map[llms.Complexity]string{
		llms.ComplexitySimple: "claude-haiku",
	},
	MemoryTypeWeights: map[memory.ItemType]float64{
		memory.ItemSemantic: 1.5,
	},
}
