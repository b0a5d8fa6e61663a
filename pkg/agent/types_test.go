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

package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dirkdd/OneVice-sub002/pkg/memory"
)

func TestVariantWeightForDefaultsToOne(t *testing.T) {
	v := Variant{}
	assert.Equal(t, 1.0, v.weightFor(memory.ItemSemantic))
}

func TestVariantWeightForUsesExplicitWeight(t *testing.T) {
	v := Variant{MemoryTypeWeights: map[memory.ItemType]float64{memory.ItemPreference: 1.5}}
	assert.Equal(t, 1.5, v.weightFor(memory.ItemPreference))
	assert.Equal(t, 1.0, v.weightFor(memory.ItemEpisodic))
}

func TestVariantAllowsOnlyListedTools(t *testing.T) {
	v := Variant{AllowedTools: []string{"get_deal_details", "get_deal_sourcer"}}
	assert.True(t, v.allows("get_deal_details"))
	assert.False(t, v.allows("get_person_profile"))
}

func TestVariantAllowsNoneWhenEmpty(t *testing.T) {
	v := Variant{}
	assert.False(t, v.allows("get_deal_details"))
}
