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

package graph

// NodeKind is the closed enum of entity kinds the knowledge graph stores.
type NodeKind string

const (
	NodeKindPerson          NodeKind = "Person"
	NodeKindOrganization    NodeKind = "Organization"
	NodeKindProject         NodeKind = "Project"
	NodeKindDocument        NodeKind = "Document"
	NodeKindDeal            NodeKind = "Deal"
	NodeKindCreativeConcept NodeKind = "CreativeConcept"
	NodeKindMemoryItem      NodeKind = "MemoryItem"
)

// EdgeKind is the closed enum of relationship types. The core assumes,
// but does not enforce at the store, that relationship type is drawn
// from this enum.
type EdgeKind string

const (
	EdgeAuthoredBy        EdgeKind = "AUTHORED_BY"
	EdgeWorkedOn          EdgeKind = "WORKED_ON"
	EdgeForClient         EdgeKind = "FOR_CLIENT"
	EdgeDirected          EdgeKind = "DIRECTED"
	EdgeWroteTreatmentFor EdgeKind = "WROTE_TREATMENT_FOR"
	EdgeMemberOf          EdgeKind = "MEMBER_OF"
	EdgeHasMemory         EdgeKind = "HAS_MEMORY"
	EdgeSourced           EdgeKind = "SOURCED"
)

// VectorIndex names the ANN indexes the store maintains. person_bio_vector,
// memory_content_vector, and memory_summary_vector are the three named
// indexes; project/organization/document indexes are this core's own
// extension so universal_vector_search can run a genuine per-kind vector
// query for every group it reports rather than silently degrading the
// project/organization/document groups to no results (see DESIGN.md).
type VectorIndex string

const (
	IndexPersonBio     VectorIndex = "person_bio_vector"
	IndexMemoryContent VectorIndex = "memory_content_vector"
	IndexMemorySummary VectorIndex = "memory_summary_vector"
	IndexProject       VectorIndex = "project_concept_vector"
	IndexOrganization  VectorIndex = "organization_profile_vector"
	IndexDocument      VectorIndex = "document_content_vector"
)

// EmbeddingDim is the fixed dimensionality every indexed vector must have.
const EmbeddingDim = 1536

// Node is the generic property-bag shape every query result decodes
// from; typed convenience structs below are decoded from it by
// pkg/tools, not produced directly by the store.
type Node struct {
	ID         string         `json:"id"`
	Kind       NodeKind       `json:"kind"`
	Properties map[string]any `json:"properties"`
}

// Person is a typed convenience projection of a Person node.
type Person struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	UnionStatus string   `json:"union_status"`
	ProjectIDs  []string `json:"project_ids"`
	RoleTitles  []string `json:"role_titles"`
}

// Organization is a typed convenience projection of an Organization
// node.
type Organization struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	PersonIDs  []string `json:"person_ids"`
	ProjectIDs []string `json:"project_ids"`
}

// Project is a typed convenience projection of a Project node.
type Project struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ClientName string   `json:"client_name"`
	Type       string   `json:"type"`
	BudgetBand string   `json:"budget_band"`
	CrewIDs    []string `json:"crew_ids"`
}

// Document is a typed convenience projection of a Document node.
type Document struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Deal is a typed convenience projection of a Deal node.
type Deal struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SourcerID string `json:"sourcer_id"`
	Stage     string `json:"stage"`
	ValueBand string `json:"value_band"`
}

// CreativeConcept is a typed convenience projection of a CreativeConcept
// node.
type CreativeConcept struct {
	ID         string   `json:"id"`
	Summary    string   `json:"summary"`
	ProjectIDs []string `json:"project_ids"`
}
