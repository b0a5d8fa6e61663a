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

func TestIsDuplicateAboveThresholdSameType(t *testing.T) {
	w := &ExtractionWorker{}
	extracted := Item{Type: ItemPreference}
	recent := []ScoredItem{
		{Item: Item{Type: ItemPreference}, Score: 0.95},
	}
	assert.True(t, w.isDuplicate(extracted, recent))
}

func TestIsDuplicateBelowThresholdIsNotDuplicate(t *testing.T) {
	w := &ExtractionWorker{}
	extracted := Item{Type: ItemPreference}
	recent := []ScoredItem{
		{Item: Item{Type: ItemPreference}, Score: 0.5},
	}
	assert.False(t, w.isDuplicate(extracted, recent))
}

func TestIsDuplicateDifferentTypeIsNotDuplicate(t *testing.T) {
	w := &ExtractionWorker{}
	extracted := Item{Type: ItemPreference}
	recent := []ScoredItem{
		{Item: Item{Type: ItemEpisodic}, Score: 0.99},
	}
	assert.False(t, w.isDuplicate(extracted, recent))
}

func TestIsDuplicateNoCandidatesIsNotDuplicate(t *testing.T) {
	w := &ExtractionWorker{}
	assert.False(t, w.isDuplicate(Item{Type: ItemSemantic}, nil))
}
