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

import (
	"context"

	"github.com/dirkdd/OneVice-sub002/pkg/vectorstore"
)

// VectorMatch is one scored hit from VectorSearch, joined back to the
// graph node it names.
type VectorMatch struct {
	NodeID string
	Score  float32
}

// WithVectorStore attaches the pluggable ANN backend this Client
// delegates vector queries to. Index writes made through UpsertVector
// stay in sync with the node each represents.
func WithVectorStore(vs vectorstore.Store) Option {
	return func(c *Client) { c.vectors = vs }
}

// VectorSearch runs a similarity query against one of the named
// indexes. Vectors whose dimensionality doesn't match the configured
// index are rejected by the backend before any network call.
func (c *Client) VectorSearch(ctx context.Context, index VectorIndex, queryVector []float32, k int, minScore float32) ([]VectorMatch, error) {
	searchCtx, cancel := context.WithTimeout(ctx, c.vectorTimeout)
	defer cancel()

	matches, err := c.vectors.Search(searchCtx, string(index), queryVector, k, minScore)
	if err != nil {
		return nil, classifyVectorError("graph.VectorSearch", err)
	}

	out := make([]VectorMatch, 0, len(matches))
	for _, m := range matches {
		out = append(out, VectorMatch{NodeID: m.ID, Score: m.Score})
	}
	return out, nil
}

// UpsertVector writes nodeID's embedding into the named index,
// alongside the property-graph write that creates or updates the node
// itself. Callers are expected to call this from the same write path
// that upserts the node so the two stores never silently diverge.
func (c *Client) UpsertVector(ctx context.Context, index VectorIndex, nodeID string, vector []float32, metadata map[string]any) error {
	upsertCtx, cancel := context.WithTimeout(ctx, c.vectorTimeout)
	defer cancel()
	return c.vectors.Upsert(upsertCtx, string(index), nodeID, vector, metadata)
}

func classifyVectorError(op string, err error) error {
	// vectorstore backends already return *errkind.Error; pass through
	// unchanged so callers classify uniformly.
	return err
}
