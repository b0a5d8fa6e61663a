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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirkdd/OneVice-sub002/pkg/graph"
)

func TestDecodeItemHydratesAllFields(t *testing.T) {
	rec := graph.Record{
		"i": map[string]any{
			"id":               "item-1",
			"user_id":          "user-1",
			"type":             "semantic",
			"content":          "prefers night shoots",
			"summary":          "scheduling preference",
			"importance":       0.8,
			"source_turn_refs": []any{"turn-1", "turn-2"},
			"superseded":       false,
		},
	}

	item, err := decodeItem(rec)
	require.NoError(t, err)
	assert.Equal(t, "item-1", item.ID)
	assert.Equal(t, "user-1", item.UserID)
	assert.Equal(t, ItemSemantic, item.Type)
	assert.Equal(t, "prefers night shoots", item.Content)
	assert.Equal(t, "scheduling preference", item.Summary)
	assert.Equal(t, 0.8, item.Importance)
	assert.Equal(t, []string{"turn-1", "turn-2"}, item.SourceTurnRefs)
	assert.False(t, item.Superseded)
}

func TestDecodeItemRejectsUnexpectedShape(t *testing.T) {
	_, err := decodeItem(graph.Record{"i": "not-a-node"})
	assert.Error(t, err)
}
