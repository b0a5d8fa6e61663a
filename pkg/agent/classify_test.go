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
)

func TestClassifyTurnEmptyMessageIsClarify(t *testing.T) {
	assert.Equal(t, ClassifyClarify, classifyTurn("   ", true))
}

func TestClassifyTurnShortMessageWithNoKeywordIsClarify(t *testing.T) {
	assert.Equal(t, ClassifyClarify, classifyTurn("hi there", true))
}

func TestClassifyTurnEntityKeywordRoutesToToolAugmented(t *testing.T) {
	assert.Equal(t, ClassifyToolAugmented, classifyTurn("who is the sourcer on this deal?", true))
}

func TestClassifyTurnEntityKeywordIgnoredWithoutTools(t *testing.T) {
	assert.Equal(t, ClassifyDirectAnswer, classifyTurn("tell me about this deal please", false))
}

func TestClassifyTurnLongMessageWithNoKeywordIsDirectAnswer(t *testing.T) {
	assert.Equal(t, ClassifyDirectAnswer, classifyTurn("what is the best way to phrase a follow up email", true))
}
