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

package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
	"github.com/dirkdd/OneVice-sub002/pkg/graph"
)

// LongTermManager is the semantic/episodic memory tier: items live as
// MemoryItem nodes in the property graph, joined to HAS_MEMORY edges
// from their owning user, with their content embedding mirrored into the
// memory_content_vector index. No summary embedding is written, so the
// memory_summary_vector index is not populated by this manager.
type LongTermManager struct {
	graph *graph.Client
}

// NewLongTermManager builds a LongTermManager over a shared graph client
// (which itself wraps the configured vector-store backend).
func NewLongTermManager(g *graph.Client) *LongTermManager {
	return &LongTermManager{graph: g}
}

// Store writes an Item as a graph node and then its content embedding
// into the memory_content_vector index. The two writes are not atomic:
// if the vector upsert fails, the node stays written and the error is
// returned; both writes are upserts, so calling Store again completes it.
func (m *LongTermManager) Store(ctx context.Context, item Item, contentEmbedding []float32) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	qb := graph.NewQueryBuilder().
		Merge("(u:Person {id: $userID})").
		Merge("(i:MemoryItem {id: $id})").
		Param("userID", item.UserID).
		Param("id", item.ID).
		Param("type", string(item.Type)).
		Param("content", item.Content).
		Param("summary", item.Summary).
		Param("importance", item.Importance).
		Param("sourceTurnRefs", item.SourceTurnRefs).
		Param("superseded", item.Superseded).
		Param("createdAt", item.CreatedAt.Unix())

	cypher, params := qb.Build()
	cypher += "\nSET i.type = $type, i.content = $content, i.summary = $summary, i.importance = $importance," +
		" i.source_turn_refs = $sourceTurnRefs, i.superseded = $superseded, i.created_at = $createdAt, i.user_id = $userID" +
		"\nMERGE (u)-[:" + string(graph.EdgeHasMemory) + "]->(i)"

	if _, err := m.graph.Run(ctx, cypher, params, graph.RunOptions{Idempotent: true}); err != nil {
		return err
	}

	return m.graph.UpsertVector(ctx, graph.IndexMemoryContent, item.ID, contentEmbedding, map[string]any{
		"user_id": item.UserID,
		"type":    string(item.Type),
	})
}

// Search runs a similarity search over the memory_content_vector index
// scoped to one user and hydrates the matching MemoryItem nodes.
func (m *LongTermManager) Search(ctx context.Context, userID string, queryEmbedding []float32, k int, minScore float32) ([]Item, error) {
	scored, err := m.SearchScored(ctx, userID, queryEmbedding, k, minScore)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(scored))
	for _, s := range scored {
		items = append(items, s.Item)
	}
	return items, nil
}

// ScoredItem pairs an Item with its similarity score from the search
// that produced it.
type ScoredItem struct {
	Item  Item
	Score float32
}

// SearchScored is Search with the similarity score preserved, for
// callers (extraction dedup) that need the
// score itself rather than just the hydrated record.
func (m *LongTermManager) SearchScored(ctx context.Context, userID string, queryEmbedding []float32, k int, minScore float32) ([]ScoredItem, error) {
	matches, err := m.graph.VectorSearch(ctx, graph.IndexMemoryContent, queryEmbedding, k, minScore)
	if err != nil {
		return nil, err
	}

	items := make([]ScoredItem, 0, len(matches))
	for _, match := range matches {
		item, err := m.GetGraph(ctx, match.NodeID)
		if errkind.Is(err, errkind.NotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if item.UserID != userID {
			continue
		}
		items = append(items, ScoredItem{Item: item, Score: match.Score})
	}
	return items, nil
}

// GetGraph fetches one MemoryItem node by id directly from the property
// graph, bypassing the vector index.
func (m *LongTermManager) GetGraph(ctx context.Context, itemID string) (Item, error) {
	qb := graph.NewQueryBuilder().
		Match("(i:MemoryItem {id: $id})").
		Return("i").
		Param("id", itemID)
	cypher, params := qb.Build()

	result, err := m.graph.Run(ctx, cypher, params, graph.RunOptions{Idempotent: true})
	if err != nil {
		return Item{}, err
	}
	if len(result.Records) == 0 {
		return Item{}, errkind.New(errkind.NotFound, "memory.LongTermManager.GetGraph", fmt.Errorf("memory item %s not found", itemID))
	}
	return decodeItem(result.Records[0])
}

func decodeItem(rec graph.Record) (Item, error) {
	node, ok := rec["i"].(map[string]any)
	if !ok {
		return Item{}, errkind.New(errkind.DataIntegrity, "memory.decodeItem", fmt.Errorf("unexpected node shape"))
	}
	get := func(k string) string {
		v, _ := node[k].(string)
		return v
	}
	var refs []string
	if raw, ok := node["source_turn_refs"].([]any); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				refs = append(refs, s)
			}
		}
	}
	importance, _ := node["importance"].(float64)
	superseded, _ := node["superseded"].(bool)

	return Item{
		ID:             get("id"),
		UserID:         get("user_id"),
		Type:           ItemType(get("type")),
		Content:        get("content"),
		Summary:        get("summary"),
		Importance:     importance,
		SourceTurnRefs: refs,
		Superseded:     superseded,
	}, nil
}
