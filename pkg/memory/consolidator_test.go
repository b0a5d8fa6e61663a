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
)

func TestClusterRequiresMinimumCohesionAndSize(t *testing.T) {
	items := []Item{
		{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"},
	}
	embeddings := map[string][]float32{
		"a": {1, 0, 0},
		"b": {0.99, 0.01, 0},
		"c": {0.98, 0.02, 0},
		"d": {0, 1, 0}, // orthogonal, never joins the cluster
	}

	clusters := cluster(items, embeddings, 0.9, 3)
	assert.Len(t, clusters, 1)
	assert.Len(t, clusters[0], 3)
	for _, m := range clusters[0] {
		assert.NotEqual(t, "d", m.ID)
	}
}

func TestClusterBelowMinSizeIsDropped(t *testing.T) {
	items := []Item{{ID: "a"}, {ID: "b"}}
	embeddings := map[string][]float32{
		"a": {1, 0},
		"b": {0.99, 0.01},
	}
	clusters := cluster(items, embeddings, 0.9, 3)
	assert.Empty(t, clusters)
}

func TestMergeClusterUnionsRefsAndTakesMaxImportance(t *testing.T) {
	members := []Item{
		{ID: "a", Importance: 0.3, SourceTurnRefs: []string{"t1", "t2"}, Content: "first"},
		{ID: "b", Importance: 0.7, SourceTurnRefs: []string{"t2", "t3"}, Content: "second"},
	}
	merged := mergeCluster("user-1", members)
	assert.Equal(t, 0.7, merged.Importance)
	assert.ElementsMatch(t, []string{"t1", "t2", "t3"}, merged.SourceTurnRefs)
	assert.Equal(t, ItemSemantic, merged.Type)
	assert.Equal(t, "user-1", merged.UserID)
}

func TestCosineSimilarityIdenticalVectorsIsOne(t *testing.T) {
	v := []float32{1, 2, 3}
	assert.InDelta(t, 1.0, cosineSimilarity(v, v), 1e-9)
}

func TestCosineSimilarityOrthogonalIsZero(t *testing.T) {
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
}
