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
	"github.com/stretchr/testify/require"
)

func TestParseToolCallsNoTagReturnsNil(t *testing.T) {
	assert.Nil(t, parseToolCalls("Here is a direct answer with no tool calls."))
}

func TestParseToolCallsSingleCall(t *testing.T) {
	content := "TOOL_CALLS:\n" + `{"tool": "get_person_profile", "args": {"name": "Jane Doe"}}`
	calls := parseToolCalls(content)
	require.Len(t, calls, 1)
	assert.Equal(t, "get_person_profile", calls[0].Tool)
	assert.Equal(t, "Jane Doe", calls[0].Args["name"])
}

func TestParseToolCallsMultipleCalls(t *testing.T) {
	content := "TOOL_CALLS:\n" +
		`{"tool": "get_person_profile", "args": {"name": "Jane Doe"}}` + "\n" +
		`{"tool": "get_deal_details", "args": {"id": "deal-1"}}`
	calls := parseToolCalls(content)
	require.Len(t, calls, 2)
	assert.Equal(t, "get_person_profile", calls[0].Tool)
	assert.Equal(t, "get_deal_details", calls[1].Tool)
}

func TestParseToolCallsSkipsMalformedLines(t *testing.T) {
	content := "TOOL_CALLS:\n" +
		"not json\n" +
		`{"tool": "get_person_profile", "args": {"name": "Jane Doe"}}` + "\n" +
		`{"args": {"name": "missing tool field"}}`
	calls := parseToolCalls(content)
	require.Len(t, calls, 1)
	assert.Equal(t, "get_person_profile", calls[0].Tool)
}

func TestParseToolCallsIgnoresPrecedingProse(t *testing.T) {
	content := "Let me look that up.\nTOOL_CALLS:\n" + `{"tool": "get_deal_details", "args": {}}`
	calls := parseToolCalls(content)
	require.Len(t, calls, 1)
	assert.Equal(t, "get_deal_details", calls[0].Tool)
}
