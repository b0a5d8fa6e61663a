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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
)

func TestCheckpointStoreFirstSaveMustBeStepZero(t *testing.T) {
	ctx := context.Background()
	store := NewCheckpointStore(newTestCache(t))

	err := store.Save(ctx, "conv-1", 1, []byte("state-1"))
	require.Error(t, err)
	assert.True(t, errkind.Is(err, errkind.Validation))

	require.NoError(t, store.Save(ctx, "conv-1", 0, []byte("state-0")))
}

func TestCheckpointStoreRejectsNonContiguousStep(t *testing.T) {
	ctx := context.Background()
	store := NewCheckpointStore(newTestCache(t))

	require.NoError(t, store.Save(ctx, "conv-1", 0, []byte("s0")))
	require.NoError(t, store.Save(ctx, "conv-1", 1, []byte("s1")))

	err := store.Save(ctx, "conv-1", 3, []byte("s3"))
	require.Error(t, err)
	assert.True(t, errkind.Is(err, errkind.Validation))
}

func TestCheckpointStoreLoadReturnsLatest(t *testing.T) {
	ctx := context.Background()
	store := NewCheckpointStore(newTestCache(t))

	require.NoError(t, store.Save(ctx, "conv-1", 0, []byte("s0")))
	require.NoError(t, store.Save(ctx, "conv-1", 1, []byte("s1")))
	require.NoError(t, store.Save(ctx, "conv-1", 2, []byte("s2")))

	state, step, err := store.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, 2, step)
	assert.Equal(t, "s2", string(state))
}

func TestCheckpointStoreLoadNoCheckpointsIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewCheckpointStore(newTestCache(t))

	_, _, err := store.Load(ctx, "conv-missing")
	require.Error(t, err)
	assert.True(t, errkind.Is(err, errkind.NotFound))
}

func TestCheckpointStoreResumeDiscardsStepsAboveK(t *testing.T) {
	ctx := context.Background()
	store := NewCheckpointStore(newTestCache(t))

	require.NoError(t, store.Save(ctx, "conv-1", 0, []byte("s0")))
	require.NoError(t, store.Save(ctx, "conv-1", 1, []byte("s1")))
	require.NoError(t, store.Save(ctx, "conv-1", 2, []byte("s2")))
	require.NoError(t, store.Save(ctx, "conv-1", 3, []byte("s3")))

	require.NoError(t, store.Resume(ctx, "conv-1", 1))

	state, step, err := store.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, 1, step)
	assert.Equal(t, "s1", string(state))

	_, _, err = store.LoadAt(ctx, "conv-1", 2)
	require.Error(t, err)
	assert.True(t, errkind.Is(err, errkind.NotFound))

	// Resuming established a new latest step, so the next write must
	// extend the truncated prefix rather than the original one.
	require.NoError(t, store.Save(ctx, "conv-1", 2, []byte("s2-redo")))
}

func TestCheckpointStoreResumeToZeroKeepsOnlyFirstStep(t *testing.T) {
	ctx := context.Background()
	store := NewCheckpointStore(newTestCache(t))

	require.NoError(t, store.Save(ctx, "conv-1", 0, []byte("s0")))
	require.NoError(t, store.Save(ctx, "conv-1", 1, []byte("s1")))

	require.NoError(t, store.Resume(ctx, "conv-1", 0))

	state, step, err := store.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, 0, step)
	assert.Equal(t, "s0", string(state))
}
