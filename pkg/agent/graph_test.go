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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirkdd/OneVice-sub002/pkg/llms"
	"github.com/dirkdd/OneVice-sub002/pkg/memory"
)

func TestBuildMessagesWithoutMemoryOrHistory(t *testing.T) {
	messages := buildMessages("system prompt", "", nil, "hello")
	require.Len(t, messages, 2)
	assert.Equal(t, llms.RoleSystem, messages[0].Role)
	assert.Equal(t, "system prompt", messages[0].Content)
	assert.Equal(t, llms.RoleUser, messages[1].Role)
	assert.Equal(t, "hello", messages[1].Content)
}

func TestBuildMessagesIncludesMemoryAndHistoryInOrder(t *testing.T) {
	turns := []memory.Turn{
		{Role: memory.RoleUser, Content: "earlier question", CreatedAt: time.Now()},
		{Role: memory.RoleAssistant, Content: "earlier answer", CreatedAt: time.Now()},
	}
	messages := buildMessages("system prompt", "relevant memory", turns, "new question")
	require.Len(t, messages, 5)
	assert.Equal(t, llms.RoleSystem, messages[0].Role)
	assert.Equal(t, llms.RoleSystem, messages[1].Role)
	assert.Equal(t, "relevant memory", messages[1].Content)
	assert.Equal(t, llms.RoleUser, messages[2].Role)
	assert.Equal(t, "earlier question", messages[2].Content)
	assert.Equal(t, llms.RoleAssistant, messages[3].Role)
	assert.Equal(t, llms.RoleUser, messages[4].Role)
	assert.Equal(t, "new question", messages[4].Content)
}
