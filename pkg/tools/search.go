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

package tools

import (
	"context"
	"fmt"

	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
	"github.com/dirkdd/OneVice-sub002/pkg/graph"
	"github.com/dirkdd/OneVice-sub002/pkg/principal"
	"github.com/dirkdd/OneVice-sub002/pkg/rbac"
)

// documentSearchTool backs search_documents_full_text: a plain Cypher
// CONTAINS predicate over already-ingested document text, not a raw-file
// parser. Document ingestion is owned by the non-goal CRM/ingest layer.
type documentSearchTool struct{ g *graph.Client }

func NewDocumentSearchTool(g *graph.Client) Tool { return &documentSearchTool{g: g} }

func (t *documentSearchTool) Info() Info {
	return Info{
		Name:        "search_documents_full_text",
		Description: "Full-text search over ingested document titles and content.",
		Parameters: []Parameter{
			{Name: "query", Type: "string", Description: "search text", Required: true},
		},
		MinRole:            principal.RoleCreativeDirector,
		MinDataLevel:       principal.MinDataAccessLevel,
		RequiredPermission: "view_projects",
		Idempotent:         true,
	}
}

func (t *documentSearchTool) Execute(ctx context.Context, p principal.Principal, args map[string]any) (Result, error) {
	query, ok := stringArg(args, "query")
	if !ok {
		return Result{}, errkind.New(errkind.Validation, "tools.search_documents_full_text", fmt.Errorf("query is required"))
	}

	qb := graph.NewQueryBuilder().
		Match("(n:Document)").
		Where("toLower(n.content) CONTAINS toLower($query) OR toLower(n.title) CONTAINS toLower($query)").
		Param("query", query).
		Return("n").
		Limit("limit", 20)
	cypher, params := qb.Build()

	res, err := t.g.Run(ctx, cypher, params, graph.RunOptions{Idempotent: true})
	if err != nil {
		return Result{}, err
	}

	var docs []map[string]any
	for _, rec := range res.Records {
		if node, ok := recordToMap(rec, "n"); ok {
			docs = append(docs, rbac.Redact(node, p, rbac.FieldLevels{}))
		}
	}
	return Result{Found: len(docs) > 0, Confidence: 1, Data: map[string]any{"documents": docs}}, nil
}
