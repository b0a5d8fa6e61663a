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
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
	"github.com/dirkdd/OneVice-sub002/pkg/graph"
	"github.com/dirkdd/OneVice-sub002/pkg/llms"
	"github.com/dirkdd/OneVice-sub002/pkg/principal"
	"github.com/dirkdd/OneVice-sub002/pkg/rbac"
)

// maxVectorFanOut bounds how many per-kind vector queries run at once.
const maxVectorFanOut = 4

// vectorGroup names one per-kind group universal_vector_search searches
// (its index, group name and field levels); searchGroup's result for it
// carries scored, redacted, capped records or a partial-failure marker, so
// one kind's backend error never fails the whole call.
type vectorGroup struct {
	index graph.VectorIndex
	name  string
	level rbac.FieldLevels
}

var vectorGroups = []vectorGroup{
	{index: graph.IndexPersonBio, name: "people", level: FieldLevelsPerson},
	{index: graph.IndexProject, name: "projects", level: FieldLevelsProject},
	{index: graph.IndexOrganization, name: "organizations", level: FieldLevelsOrganization},
	{index: graph.IndexDocument, name: "documents", level: rbac.FieldLevels{}},
}

type scoredRecord struct {
	id    string
	score float32
	data  map[string]any
}

// universalVectorSearchTool backs universal_vector_search: embed once,
// fan out per kind (bounded), redact, merge/sort/cap, deterministic
// tie-break, tolerate partial per-group failure.
type universalVectorSearchTool struct {
	g      *graph.Client
	router *llms.Router
}

func NewUniversalVectorSearchTool(g *graph.Client, router *llms.Router) Tool {
	return &universalVectorSearchTool{g: g, router: router}
}

func (t *universalVectorSearchTool) Info() Info {
	return Info{
		Name:        "universal_vector_search",
		Description: "Cross-kind semantic search over people, projects, organizations, and documents.",
		Parameters: []Parameter{
			{Name: "query_text", Type: "string", Description: "natural-language query", Required: true},
			{Name: "k", Type: "integer", Description: "max results per kind group"},
			{Name: "min_score", Type: "number", Description: "minimum similarity score"},
		},
		MinRole:      principal.RoleCreativeDirector,
		MinDataLevel: principal.MinDataAccessLevel,
		// No RequiredPermission: results span kinds, so no single slug fits.
		Idempotent: true,
	}
}

func (t *universalVectorSearchTool) Execute(ctx context.Context, p principal.Principal, args map[string]any) (Result, error) {
	query, ok := stringArg(args, "query_text")
	if !ok || len(query) < 2 {
		return Result{}, errkind.New(errkind.Validation, "tools.universal_vector_search",
			fmt.Errorf("query_text must be at least 2 characters"))
	}
	k := 5
	if v, ok := args["k"].(int); ok && v > 0 {
		k = v
	}
	var minScore float32
	if v, ok := args["min_score"].(float64); ok {
		minScore = float32(v)
	}

	vectors, _, err := t.router.Embed(ctx, []string{query}, p)
	if err != nil {
		return Result{}, err
	}
	if len(vectors) == 0 {
		return Result{}, errkind.New(errkind.DataIntegrity, "tools.universal_vector_search", fmt.Errorf("empty embedding"))
	}
	queryEmbedding := vectors[0]

	sem := semaphore.NewWeighted(maxVectorFanOut)
	var wg sync.WaitGroup
	groupResults := make([]map[string]any, len(vectorGroups))

	for i, group := range vectorGroups {
		i, group := i, group
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				groupResults[i] = map[string]any{"error": err.Error(), "records": []map[string]any{}}
				return
			}
			defer sem.Release(1)
			groupResults[i] = t.searchGroup(ctx, group, p, queryEmbedding, k, minScore)
		}()
	}
	wg.Wait()

	groups := make(map[string]any, len(vectorGroups))
	total := 0
	anySucceeded := false
	for i, group := range vectorGroups {
		gr := groupResults[i]
		if gr["error"] == nil {
			anySucceeded = true
		}
		if recs, ok := gr["records"].([]map[string]any); ok {
			total += len(recs)
		}
		groups[group.name] = gr
	}

	if !anySucceeded {
		return Result{}, errkind.New(errkind.Connection, "tools.universal_vector_search", fmt.Errorf("all kind groups failed"))
	}

	return Result{
		Found:      total > 0,
		Confidence: 1,
		Data: map[string]any{
			"groups":        groups,
			"total_results": total,
		},
	}, nil
}

func (t *universalVectorSearchTool) searchGroup(ctx context.Context, group vectorGroup, p principal.Principal, queryEmbedding []float32, k int, minScore float32) map[string]any {
	matches, err := t.g.VectorSearch(ctx, group.index, queryEmbedding, k, minScore)
	if err != nil {
		return map[string]any{"error": err.Error(), "records": []map[string]any{}}
	}

	var scored []scoredRecord
	for _, m := range matches {
		node, hydrateErr := t.hydrate(ctx, m.NodeID)
		if hydrateErr != nil {
			continue
		}
		redacted := rbac.Redact(node, p, group.level)
		scored = append(scored, scoredRecord{id: m.NodeID, score: m.Score, data: redacted})
	}

	scored = sortAndCap(scored, k)

	records := make([]map[string]any, 0, len(scored))
	for _, s := range scored {
		rec := make(map[string]any, len(s.data)+2)
		for key, v := range s.data {
			rec[key] = v
		}
		rec["id"] = s.id
		rec["score"] = s.score
		records = append(records, rec)
	}
	return map[string]any{"records": records}
}

// sortAndCap orders scored records by score descending, breaking ties by
// id ascending for a deterministic result order, then caps the result at
// k entries.
func sortAndCap(scored []scoredRecord, k int) []scoredRecord {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].id < scored[j].id
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// hydrate fetches the generic node properties backing a vector match by
// id. The query matches any node with that id; it is not scoped to the
// node label of the group's index.
func (t *universalVectorSearchTool) hydrate(ctx context.Context, nodeID string) (map[string]any, error) {
	res, err := t.g.Run(ctx, "MATCH (n {id: $id}) RETURN n", map[string]any{"id": nodeID}, graph.RunOptions{Idempotent: true})
	if err != nil {
		return nil, err
	}
	if len(res.Records) == 0 {
		return nil, errkind.New(errkind.NotFound, "tools.universal_vector_search.hydrate", fmt.Errorf("node %s not found", nodeID))
	}
	node, ok := recordToMap(res.Records[0], "n")
	if !ok {
		return nil, errkind.New(errkind.DataIntegrity, "tools.universal_vector_search.hydrate", fmt.Errorf("unexpected node shape"))
	}
	return node, nil
}
