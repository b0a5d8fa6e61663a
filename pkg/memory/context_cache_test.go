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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
)

func TestNewContextCacheClampsTTL(t *testing.T) {
	cases := []struct {
		name string
		in   time.Duration
		want time.Duration
	}{
		{"zero selects default", 0, DefaultContextTTL},
		{"below min clamps up", time.Minute, MinContextTTL},
		{"above max clamps down", 2 * time.Hour, MaxContextTTL},
		{"within bounds passes through", 45 * time.Minute, 45 * time.Minute},
	}
	c := newTestCache(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cc := NewContextCache(c, tc.in)
			assert.Equal(t, tc.want, cc.ttl)
		})
	}
}

func TestContextCachePutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	cc := NewContextCache(newTestCache(t), 0)

	want := Context{
		RecentTurns: []Turn{{Role: RoleUser, Content: "hello"}},
		Items:       []Item{{ID: "item-1", Content: "likes indie films"}},
	}
	require.NoError(t, cc.Put(ctx, "conv-1", want))

	got, err := cc.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestContextCacheGetMissIsNotFound(t *testing.T) {
	ctx := context.Background()
	cc := NewContextCache(newTestCache(t), 0)

	_, err := cc.Get(ctx, "conv-missing")
	require.Error(t, err)
	assert.True(t, errkind.Is(err, errkind.NotFound))
}

func TestContextCacheInvalidateRemovesEntry(t *testing.T) {
	ctx := context.Background()
	cc := NewContextCache(newTestCache(t), 0)

	require.NoError(t, cc.Put(ctx, "conv-1", Context{}))
	require.NoError(t, cc.Invalidate(ctx, "conv-1"))

	_, err := cc.Get(ctx, "conv-1")
	require.Error(t, err)
	assert.True(t, errkind.Is(err, errkind.NotFound))
}
