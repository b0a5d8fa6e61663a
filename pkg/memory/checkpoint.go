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
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dirkdd/OneVice-sub002/pkg/cache"
	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
)

// latestStepKey tracks the highest step persisted for a conversation so
// Load doesn't need an administrative SCAN on the hot path.
func latestStepKey(conversationID string) string {
	return fmt.Sprintf("checkpoint:%s:latest", conversationID)
}

// CheckpointStore persists agent-graph state per conversation step,
// keyed exactly as cache.CheckpointKey names, and enforces that the set
// of checkpoints for a conversation is always a prefix-contiguous
// sequence: step n can only be written once step n-1 exists.
type CheckpointStore struct {
	cache *cache.Client
}

// NewCheckpointStore builds a CheckpointStore over an existing cache
// client.
func NewCheckpointStore(c *cache.Client) *CheckpointStore {
	return &CheckpointStore{cache: c}
}

// Save persists state at step, failing with errkind.Validation if step
// is not exactly one past the conversation's current latest step (step 0
// is always accepted as the first checkpoint).
func (s *CheckpointStore) Save(ctx context.Context, conversationID string, step int, state []byte) error {
	latest, hasLatest, err := s.latest(ctx, conversationID)
	if err != nil {
		return err
	}
	if hasLatest && step != latest+1 {
		return errkind.New(errkind.Validation, "memory.CheckpointStore.Save",
			fmt.Errorf("step %d is not contiguous with latest step %d", step, latest))
	}
	if !hasLatest && step != 0 {
		return errkind.New(errkind.Validation, "memory.CheckpointStore.Save",
			fmt.Errorf("first checkpoint for conversation %s must be step 0, got %d", conversationID, step))
	}

	if err := s.cache.Set(ctx, cache.CheckpointKey(conversationID, step), string(state), 0); err != nil {
		return err
	}
	return s.cache.Set(ctx, latestStepKey(conversationID), strconv.Itoa(step), 0)
}

// Load returns the checkpoint at the conversation's latest step.
func (s *CheckpointStore) Load(ctx context.Context, conversationID string) ([]byte, int, error) {
	latest, hasLatest, err := s.latest(ctx, conversationID)
	if err != nil {
		return nil, 0, err
	}
	if !hasLatest {
		return nil, 0, errkind.New(errkind.NotFound, "memory.CheckpointStore.Load",
			fmt.Errorf("no checkpoint for conversation %s", conversationID))
	}
	return s.LoadAt(ctx, conversationID, latest)
}

// LoadAt returns the checkpoint at an explicit step.
func (s *CheckpointStore) LoadAt(ctx context.Context, conversationID string, step int) ([]byte, int, error) {
	v, err := s.cache.Get(ctx, cache.CheckpointKey(conversationID, step))
	if err != nil {
		return nil, 0, err
	}
	return []byte(v), step, nil
}

// Resume discards every checkpoint beyond step k and repoints the
// conversation's latest-step marker at k, per the prefix-contiguous
// invariant. It uses the administrative scan, an infrequent recovery
// operation, never a per-turn hot path call.
func (s *CheckpointStore) Resume(ctx context.Context, conversationID string, k int) error {
	prefix := fmt.Sprintf("checkpoint:%s:", conversationID)
	keys, err := s.cache.AdminScan(ctx, prefix+"*")
	if err != nil {
		return err
	}

	var toDelete []string
	for _, key := range keys {
		if key == latestStepKey(conversationID) {
			continue
		}
		stepStr := strings.TrimPrefix(key, prefix)
		step, convErr := strconv.Atoi(stepStr)
		if convErr != nil {
			continue
		}
		if step > k {
			toDelete = append(toDelete, key)
		}
	}
	sort.Strings(toDelete)
	if len(toDelete) > 0 {
		if err := s.cache.Delete(ctx, toDelete...); err != nil {
			return err
		}
	}
	return s.cache.Set(ctx, latestStepKey(conversationID), strconv.Itoa(k), 0)
}

func (s *CheckpointStore) latest(ctx context.Context, conversationID string) (int, bool, error) {
	v, err := s.cache.Get(ctx, latestStepKey(conversationID))
	if errkind.Is(err, errkind.NotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	step, convErr := strconv.Atoi(v)
	if convErr != nil {
		return 0, false, errkind.New(errkind.DataIntegrity, "memory.CheckpointStore.latest", convErr)
	}
	return step, true, nil
}

// MarshalState is a thin helper so callers (pkg/agent) serialize
// whatever graph-state shape they hold without memory needing to import
// pkg/agent.
func MarshalState(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errkind.New(errkind.Validation, "memory.MarshalState", err)
	}
	return b, nil
}
