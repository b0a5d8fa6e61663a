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

package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleClassifyNoKeywordsReturnsNil(t *testing.T) {
	assert.Nil(t, ruleClassify("what a lovely day outside today"))
}

func TestRuleClassifyUnambiguousMessage(t *testing.T) {
	ranked := ruleClassify("can you pull up the budget and contract terms on this deal?")
	require.NotEmpty(t, ranked)
	assert.Equal(t, AgentSales, ranked[0].Type)
	assert.Equal(t, 1.0, ranked[0].Score)
}

func TestRuleClassifyMixedMessageSplitsScore(t *testing.T) {
	ranked := ruleClassify("which crew members worked on this project and what's the trend in their credits?")
	require.Len(t, ranked, 2)
	assert.True(t, ranked[0].Score >= ranked[1].Score)
}

func TestRuleClassifyTieBreaksByTypeAscending(t *testing.T) {
	ranked := ruleClassify("client project") // one sales keyword, one analytics keyword
	require.Len(t, ranked, 2)
	assert.Equal(t, 0.5, ranked[0].Score)
	assert.Equal(t, 0.5, ranked[1].Score)
	assert.True(t, ranked[0].Type < ranked[1].Type)
}

func TestRuleClassifyIsDeterministic(t *testing.T) {
	msg := "the actor's union credit on this project needs a budget check"
	first := ruleClassify(msg)
	second := ruleClassify(msg)
	assert.Equal(t, first, second)
}
