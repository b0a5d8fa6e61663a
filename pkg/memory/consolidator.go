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
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dirkdd/OneVice-sub002/pkg/cache"
	"github.com/dirkdd/OneVice-sub002/pkg/metrics"
)

// Clustering thresholds. The exact cohesion/size cutoffs are a judgment
// call recorded once here rather than re-derived at call sites.
const (
	consolidationCohesion = 0.85
	consolidationMinSize  = 3
	consolidationLockTTL  = 2 * time.Minute
)

// Consolidator periodically sweeps one user's long-term items, merging
// any cluster of at least consolidationMinSize items whose mean pairwise
// cosine similarity is at least consolidationCohesion into a single
// semantic item, marking the sources superseded rather than deleting
// them.
type Consolidator struct {
	cache    *cache.Client
	longTerm *LongTermManager
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// NewConsolidator builds a Consolidator over the shared cache (for the
// mutual-exclusion lock) and long-term manager.
func NewConsolidator(c *cache.Client, lt *LongTermManager, m *metrics.Metrics) *Consolidator {
	return &Consolidator{cache: c, longTerm: lt, metrics: m, log: slog.Default()}
}

// RunSweep performs one consolidation pass for a single user, holding a
// named lock for the duration so two sweeps for the same user never run
// concurrently. It returns immediately, without error, if another sweep
// already holds the lock.
func (c *Consolidator) RunSweep(ctx context.Context, userID string, candidates []Item, embeddings map[string][]float32) error {
	token := uuid.NewString()
	lockKey := cache.ConsolidationLockKey(userID)

	acquired, err := c.cache.AcquireLock(ctx, lockKey, token, consolidationLockTTL)
	if err != nil {
		return err
	}
	if !acquired {
		c.log.Debug("consolidation sweep already in progress, skipping", "user_id", userID)
		return nil
	}
	defer func() {
		if releaseErr := c.cache.ReleaseLock(ctx, lockKey, token); releaseErr != nil {
			c.log.Warn("failed to release consolidation lock", "user_id", userID, "error", releaseErr)
		}
	}()

	clusters := cluster(candidates, embeddings, consolidationCohesion, consolidationMinSize)
	for _, members := range clusters {
		merged := mergeCluster(userID, members)
		mergedEmbedding := meanEmbedding(members, embeddings)
		if err := c.longTerm.Store(ctx, merged, mergedEmbedding); err != nil {
			return err
		}
		for _, member := range members {
			superseded := member
			superseded.Superseded = true
			if err := c.longTerm.Store(ctx, superseded, embeddings[member.ID]); err != nil {
				return err
			}
		}
		if c.metrics != nil {
			c.metrics.RecordConsolidation(ctx)
		}
	}
	return nil
}

// cluster groups items by mutual cosine similarity using a simple
// greedy pass: each unassigned item seeds a cluster, absorbing every
// other unassigned item whose mean similarity to the cluster's current
// members is at least cohesion; the cluster is kept only if it reaches minSize. This is not
// a globally optimal clustering, but it is deterministic given stable
// input order, which is what the consolidation invariant requires.
func cluster(items []Item, embeddings map[string][]float32, cohesion float64, minSize int) [][]Item {
	assigned := make(map[string]bool, len(items))
	var clusters [][]Item

	for i, seed := range items {
		if assigned[seed.ID] || seed.Superseded {
			continue
		}
		group := []Item{seed}
		assigned[seed.ID] = true

		for j := i + 1; j < len(items); j++ {
			candidate := items[j]
			if assigned[candidate.ID] || candidate.Superseded {
				continue
			}
			if meanPairwiseSimilarity(group, candidate, embeddings) >= cohesion {
				group = append(group, candidate)
				assigned[candidate.ID] = true
			}
		}

		if len(group) >= minSize {
			clusters = append(clusters, group)
		}
	}
	return clusters
}

func meanPairwiseSimilarity(group []Item, candidate Item, embeddings map[string][]float32) float64 {
	candidateEmbedding, ok := embeddings[candidate.ID]
	if !ok {
		return 0
	}
	var total float64
	for _, member := range group {
		memberEmbedding, ok := embeddings[member.ID]
		if !ok {
			return 0
		}
		total += cosineSimilarity(memberEmbedding, candidateEmbedding)
	}
	return total / float64(len(group))
}

func meanEmbedding(items []Item, embeddings map[string][]float32) []float32 {
	if len(items) == 0 {
		return nil
	}
	dim := len(embeddings[items[0].ID])
	mean := make([]float32, dim)
	for _, item := range items {
		emb := embeddings[item.ID]
		for i := 0; i < dim && i < len(emb); i++ {
			mean[i] += emb[i]
		}
	}
	for i := range mean {
		mean[i] /= float32(len(items))
	}
	return mean
}

// mergeCluster produces the single semantic item replacing a cluster:
// importance takes the cluster max, source_turn_refs is the union of
// every member's refs.
func mergeCluster(userID string, members []Item) Item {
	var maxImportance float64
	refSeen := make(map[string]bool)
	var refs []string
	var content string

	for _, m := range members {
		if m.Importance > maxImportance {
			maxImportance = m.Importance
		}
		for _, ref := range m.SourceTurnRefs {
			if !refSeen[ref] {
				refSeen[ref] = true
				refs = append(refs, ref)
			}
		}
		if content == "" {
			content = m.Content
		}
	}

	return Item{
		ID:             uuid.NewString(),
		UserID:         userID,
		Type:           ItemSemantic,
		Content:        content,
		Importance:     maxImportance,
		SourceTurnRefs: refs,
		CreatedAt:      time.Now(),
	}
}
