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
	"time"

	"github.com/dirkdd/OneVice-sub002/pkg/cache"
	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
)

// DefaultContextTTL and the bounds callers may override it within.
const (
	MinContextTTL     = 15 * time.Minute
	MaxContextTTL     = 60 * time.Minute
	DefaultContextTTL = 30 * time.Minute
)

// ContextCache is the ephemeral third tier: the assembled memory context
// (recent turns plus retrieved long-term items) a conversation's next
// turn starts from, so the agent graph doesn't re-run retrieval on every
// step within the same short window.
type ContextCache struct {
	cache *cache.Client
	ttl   time.Duration
}

// Context is what gets cached per conversation.
type Context struct {
	RecentTurns []Turn `json:"recent_turns"`
	Items       []Item `json:"items"`
}

// NewContextCache builds a ContextCache with ttl clamped to
// [MinContextTTL, MaxContextTTL]; zero selects DefaultContextTTL.
func NewContextCache(c *cache.Client, ttl time.Duration) *ContextCache {
	switch {
	case ttl == 0:
		ttl = DefaultContextTTL
	case ttl < MinContextTTL:
		ttl = MinContextTTL
	case ttl > MaxContextTTL:
		ttl = MaxContextTTL
	}
	return &ContextCache{cache: c, ttl: ttl}
}

// Put stores the assembled context for a conversation, replacing any
// cached value.
func (c *ContextCache) Put(ctx context.Context, conversationID string, mc Context) error {
	encoded, err := json.Marshal(mc)
	if err != nil {
		return errkind.New(errkind.Validation, "memory.ContextCache.Put", err)
	}
	return c.cache.Set(ctx, cache.MemoryContextKey(conversationID), string(encoded), c.ttl)
}

// Get reads the cached context, returning errkind.NotFound on a miss
// (expired or never populated) so callers fall back to retrieval.
func (c *ContextCache) Get(ctx context.Context, conversationID string) (Context, error) {
	v, err := c.cache.Get(ctx, cache.MemoryContextKey(conversationID))
	if err != nil {
		return Context{}, err
	}
	var mc Context
	if err := json.Unmarshal([]byte(v), &mc); err != nil {
		return Context{}, errkind.New(errkind.DataIntegrity, "memory.ContextCache.Get", err)
	}
	return mc, nil
}

// Invalidate removes a conversation's cached context ahead of its TTL.
func (c *ContextCache) Invalidate(ctx context.Context, conversationID string) error {
	return c.cache.Delete(ctx, cache.MemoryContextKey(conversationID))
}
