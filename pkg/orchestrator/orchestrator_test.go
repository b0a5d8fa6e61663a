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
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dirkdd/OneVice-sub002/pkg/agent"
	"github.com/dirkdd/OneVice-sub002/pkg/principal"
)

func TestMergeAllUnavailableReturnsGenericMessage(t *testing.T) {
	o := &Orchestrator{}
	resp := o.merge(context.Background(), principal.Principal{}, []agentContribution{
		{Type: AgentSales, Err: errors.New("timeout")},
		{Type: AgentTalent, Err: errors.New("timeout")},
	})
	assert.Equal(t, genericUnavailableMessage, resp.Content)
}

func TestMergeSingleAvailablePassesThroughUnchanged(t *testing.T) {
	o := &Orchestrator{}
	want := agent.Response{Content: "the answer", StepsUsed: 2}
	resp := o.merge(context.Background(), principal.Principal{}, []agentContribution{
		{Type: AgentSales, Response: want},
		{Type: AgentTalent, Err: errors.New("timeout")},
	})
	assert.Equal(t, want, resp)
}

func TestMergedTraceConcatenatesInOrder(t *testing.T) {
	contributions := []agentContribution{
		{Type: AgentSales, Response: agent.Response{ToolTrace: []agent.ToolOutcome{{Tool: "a"}}}},
		{Type: AgentTalent, Response: agent.Response{ToolTrace: []agent.ToolOutcome{{Tool: "b"}, {Tool: "c"}}}},
	}
	trace := mergedTrace(contributions)
	assert.Equal(t, []agent.ToolOutcome{{Tool: "a"}, {Tool: "b"}, {Tool: "c"}}, trace)
}

func TestMaxStepsTakesLargest(t *testing.T) {
	contributions := []agentContribution{
		{Response: agent.Response{StepsUsed: 3}},
		{Response: agent.Response{StepsUsed: 5}},
		{Response: agent.Response{StepsUsed: 1}},
	}
	assert.Equal(t, 5, maxSteps(contributions))
}
