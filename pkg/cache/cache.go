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

// Package cache is the low-latency keyed store for sessions, permission
// sets, short-lived agent state, and the background-task sorted set. It
// is shared across the process; every operation is atomic per key, and
// no multi-key transaction is relied upon.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dirkdd/OneVice-sub002/pkg/config"
	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
)

// opTimeout is the default timeout applied to every cache operation,
// per the concurrency model's 0.5s cache-op budget.
const opTimeout = 500 * time.Millisecond

// Client wraps a Redis connection with the exact operation set the core
// depends on. It never exposes the full go-redis surface, so hot paths
// can't accidentally reach for an O(N) command.
type Client struct {
	rdb *redis.Client
}

// New dials Redis from the given URL (e.g. "redis://localhost:6379/0").
func New(cfg config.CacheConfig) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errkind.New(errkind.Validation, "cache.New", err)
	}
	return &Client{rdb: redis.NewClient(opts)}, nil
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errkind.New(errkind.Timeout, op, err)
	}
	if errors.Is(err, redis.Nil) {
		return errkind.New(errkind.NotFound, op, err)
	}
	return errkind.New(errkind.Connection, op, err)
}

// Ping verifies connectivity.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return classify("cache.Ping", c.rdb.Ping(ctx).Err())
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Get fetches a string value. errkind.NotFound is returned when absent.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	v, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		return "", classify("cache.Get", err)
	}
	return v, nil
}

// Set stores a string value with an optional TTL (0 means no expiry).
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return classify("cache.Set", c.rdb.Set(ctx, key, value, ttl).Err())
}

// Delete removes one or more keys.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return classify("cache.Delete", c.rdb.Del(ctx, keys...).Err())
}

// HSet sets one field in a hash.
func (c *Client) HSet(ctx context.Context, key, field, value string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return classify("cache.HSet", c.rdb.HSet(ctx, key, field, value).Err())
}

// HGet reads one field from a hash.
func (c *Client) HGet(ctx context.Context, key, field string) (string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	v, err := c.rdb.HGet(ctx, key, field).Result()
	if err != nil {
		return "", classify("cache.HGet", err)
	}
	return v, nil
}

// HGetAll reads every field from a hash.
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	v, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, classify("cache.HGetAll", err)
	}
	return v, nil
}

// LPush prepends a value onto a list.
func (c *Client) LPush(ctx context.Context, key, value string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return classify("cache.LPush", c.rdb.LPush(ctx, key, value).Err())
}

// LTrim trims a list to the inclusive range [start, stop], used to cap
// performance:metrics and performance:alerts at their documented bounds.
func (c *Client) LTrim(ctx context.Context, key string, start, stop int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return classify("cache.LTrim", c.rdb.LTrim(ctx, key, start, stop).Err())
}

// LRange reads a range of list elements.
func (c *Client) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	v, err := c.rdb.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, classify("cache.LRange", err)
	}
	return v, nil
}

// ZAdd adds a member to a sorted set with the given score. The
// background-task queue uses a composite score encoding (priority,
// enqueued_at) via TaskScore.
func (c *Client) ZAdd(ctx context.Context, key string, score float64, member string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return classify("cache.ZAdd", c.rdb.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err())
}

// ZPopMin removes and returns the lowest-scored member, used by the
// memory extraction worker pool to dequeue the highest-priority,
// earliest-enqueued task.
func (c *Client) ZPopMin(ctx context.Context, key string) (member string, score float64, ok bool, err error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	res, zerr := c.rdb.ZPopMin(ctx, key, 1).Result()
	if zerr != nil {
		return "", 0, false, classify("cache.ZPopMin", zerr)
	}
	if len(res) == 0 {
		return "", 0, false, nil
	}
	member, _ = res[0].Member.(string)
	return member, res[0].Score, true, nil
}

// AdminScan lists keys matching pattern. Named distinctly from the
// hot-path methods above so a reviewer (or a future caller) can see at
// the call site that this is an administrative, O(N) operation: it
// must never be reached from tool or agent hot paths.
func (c *Client) AdminScan(ctx context.Context, pattern string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var keys []string
	iter := c.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, classify("cache.AdminScan", err)
	}
	return keys, nil
}

// ErrLockHeld is returned by AcquireLock when another holder currently
// owns the named lock.
var ErrLockHeld = errors.New("cache: lock already held")

// AcquireLock takes a named mutual-exclusion lock with a TTL via
// `SET key value NX PX`, the standard Redis single-instance lock idiom.
// token should be unique per holder (e.g. a uuid) so ReleaseLock can
// verify it still owns the lock before deleting it.
func (c *Client) AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	ok, err := c.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, classify("cache.AcquireLock", err)
	}
	return ok, nil
}

// ReleaseLock deletes the lock only if token still matches the current
// holder, using a small Lua script so the check-then-delete is atomic.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`)

func (c *Client) ReleaseLock(ctx context.Context, key, token string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return classify("cache.ReleaseLock", releaseLockScript.Run(ctx, c.rdb, []string{key}, token).Err())
}
