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

// Package tools exposes the closed set of typed, idempotent read tools
// agents may invoke against the knowledge graph: a person/organization/
// project/deal lookup family, a full-text document search, and a
// cross-kind vector search. Every tool answers with a found flag and a
// coarse confidence so a caller never has to distinguish "no result" from
// "tool failure" by string-matching an error.
package tools

import (
	"context"

	"github.com/dirkdd/OneVice-sub002/pkg/principal"
)

// Parameter describes one typed input field a tool accepts.
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Info is a tool's stable schema: name, description, parameters, policy
// annotation, and idempotence flag, handed to an LLM provider as a
// function-calling schema without a reflection layer.
type Info struct {
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Parameters   []Parameter `json:"parameters"`
	MinRole      principal.Role
	MinDataLevel principal.DataAccessLevel
	// RequiredPermission is the permission slug (from RBACConfig.RolePermissions'
	// vocabulary) a caller's resolved PermissionSet must carry, checked
	// alongside MinRole/MinDataLevel rather than instead of them. Empty
	// means the role/data-level gate alone is sufficient.
	RequiredPermission string
	Idempotent         bool `json:"idempotent"`
}

// Result is the structured outcome of one tool call.
type Result struct {
	Found      bool           `json:"found"`
	Confidence float32        `json:"confidence,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Tool is the capability every registered tool implements.
type Tool interface {
	Info() Info
	Execute(ctx context.Context, p principal.Principal, args map[string]any) (Result, error)
}
