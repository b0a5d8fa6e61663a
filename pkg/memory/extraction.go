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
	"encoding/json"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/dirkdd/OneVice-sub002/pkg/cache"
	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
	"github.com/dirkdd/OneVice-sub002/pkg/llms"
	"github.com/dirkdd/OneVice-sub002/pkg/metrics"
	"github.com/dirkdd/OneVice-sub002/pkg/principal"
)

// dedupSimilarityThreshold is the cosine similarity above which a
// proposed item is considered a duplicate of an existing one and
// dropped rather than written twice.
const dedupSimilarityThreshold = 0.92

// maxExtractionRetries and the backoff schedule applied between them.
const maxExtractionRetries = 3

// ExtractionWorker pool dequeues extract_memory tasks from the
// background-task sorted set, turns each conversation excerpt into a
// candidate Item via an LLM extraction call, dedups against recent
// same-type items already stored for the user, embeds, and writes.
type ExtractionWorker struct {
	cache     *cache.Client
	longTerm  *LongTermManager
	router    *llms.Router
	metrics   *metrics.Metrics
	log       *slog.Logger
	workers   int
	pollEvery time.Duration
}

// NewExtractionWorker builds a pool of n workers (default 4).
func NewExtractionWorker(c *cache.Client, lt *LongTermManager, router *llms.Router, m *metrics.Metrics, n int) *ExtractionWorker {
	if n <= 0 {
		n = 4
	}
	return &ExtractionWorker{
		cache:     c,
		longTerm:  lt,
		router:    router,
		metrics:   m,
		log:       slog.Default(),
		workers:   n,
		pollEvery: 500 * time.Millisecond,
	}
}

// Run starts the worker pool; it blocks until ctx is cancelled, at
// which point every worker goroutine exits after its current task.
func (w *ExtractionWorker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}
	wg.Wait()
}

func (w *ExtractionWorker) loop(ctx context.Context) {
	ticker := time.NewTicker(w.pollEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drainOnce(ctx)
		}
	}
}

func (w *ExtractionWorker) drainOnce(ctx context.Context) {
	member, _, ok, err := w.cache.ZPopMin(ctx, cache.BackgroundTasksKey)
	if err != nil || !ok {
		return
	}

	var task Task
	if err := json.Unmarshal([]byte(member), &task); err != nil {
		w.log.Warn("extraction worker: malformed task, dropping", "error", err)
		return
	}

	if err := w.process(ctx, task); err != nil {
		task.Attempt++
		if task.Attempt > maxExtractionRetries {
			w.log.Warn("extraction worker: dropping task after max retries",
				"conversation_id", task.ConversationID, "error", err)
			if w.metrics != nil {
				w.metrics.RecordMemoryDropped(ctx)
			}
			return
		}
		w.requeue(ctx, task)
	}
}

func (w *ExtractionWorker) requeue(ctx context.Context, task Task) {
	encoded, err := json.Marshal(task)
	if err != nil {
		return
	}
	backoff := time.Duration(1<<uint(task.Attempt)) * time.Second
	time.Sleep(backoff)
	_ = w.cache.ZAdd(ctx, cache.BackgroundTasksKey, cache.TaskScore(task.Priority, task.EnqueuedAt), string(encoded))
}

func (w *ExtractionWorker) process(ctx context.Context, task Task) error {
	extracted, err := w.extract(ctx, task)
	if err != nil {
		return err
	}
	if extracted.Content == "" {
		return nil // extraction found nothing worth keeping; not a failure
	}

	vectors, _, err := w.router.Embed(ctx, []string{extracted.Content}, principal.Principal{})
	if err != nil {
		return err
	}
	if len(vectors) == 0 {
		return errkind.New(errkind.DataIntegrity, "memory.ExtractionWorker.process", nil)
	}
	embedding := vectors[0]

	recent, err := w.longTerm.SearchScored(ctx, task.UserID, embedding, 5, 0)
	if err != nil && !errkind.Is(err, errkind.NotFound) {
		return err
	}

	if w.isDuplicate(extracted, recent) {
		if w.metrics != nil {
			w.metrics.RecordMemoryDropped(ctx)
		}
		return nil
	}

	extracted.UserID = task.UserID
	extracted.CreatedAt = time.Now()
	if err := w.longTerm.Store(ctx, extracted, embedding); err != nil {
		return err
	}
	if w.metrics != nil {
		w.metrics.RecordMemoryExtracted(ctx, 1)
	}
	return nil
}

// isDuplicate drops the extracted item when a same-type item already in
// long-term memory scored at or above dedupSimilarityThreshold against
// the same query embedding, i.e. the vector index itself already
// considers them near-identical.
func (w *ExtractionWorker) isDuplicate(extracted Item, recent []ScoredItem) bool {
	for _, candidate := range recent {
		if candidate.Item.Type == extracted.Type && candidate.Score >= dedupSimilarityThreshold {
			return true
		}
	}
	return false
}

func (w *ExtractionWorker) extract(ctx context.Context, task Task) (Item, error) {
	prompt := "Extract a single durable fact, preference, or episodic event from this conversation excerpt. " +
		"Reply with only the fact in one sentence, or an empty string if nothing is worth keeping."

	resp, _, err := w.router.Complete(ctx, llms.CompleteRequest{
		Messages: []llms.Message{
			{Role: llms.RoleSystem, Content: prompt},
			{Role: llms.RoleUser, Content: task.ConversationID},
		},
		ComplexityInput: llms.ComplexityInput{ExplicitHint: llms.ComplexitySimple},
		Principal:       principal.Principal{ID: task.UserID, DataAccessLevel: principal.MinDataAccessLevel},
	})
	if err != nil {
		return Item{}, err
	}

	return Item{
		Type:           ItemEpisodic,
		Content:        resp.Content,
		Importance:     0.5,
		SourceTurnRefs: []string{task.ConversationID},
	}, nil
}

// cosineSimilarity is kept for callers (e.g. Consolidator) that compare
// two full embeddings directly rather than relying on vector-index
// ranking.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
