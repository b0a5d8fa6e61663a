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

package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
	"github.com/dirkdd/OneVice-sub002/pkg/graph"
	"github.com/dirkdd/OneVice-sub002/pkg/principal"
)

func TestStringArgMissingKeyReturnsFalse(t *testing.T) {
	_, ok := stringArg(map[string]any{}, "name")
	assert.False(t, ok)
}

func TestStringArgEmptyStringReturnsFalse(t *testing.T) {
	_, ok := stringArg(map[string]any{"name": ""}, "name")
	assert.False(t, ok)
}

func TestStringArgWrongTypeReturnsFalse(t *testing.T) {
	_, ok := stringArg(map[string]any{"name": 42}, "name")
	assert.False(t, ok)
}

func TestStringArgPresentReturnsValue(t *testing.T) {
	v, ok := stringArg(map[string]any{"name": "alice"}, "name")
	assert.True(t, ok)
	assert.Equal(t, "alice", v)
}

func TestRecordToMapExtractsAliasedNode(t *testing.T) {
	rec := graph.Record{"n": map[string]any{"id": "p1", "name": "Alice"}}
	node, ok := recordToMap(rec, "n")
	assert.True(t, ok)
	assert.Equal(t, "Alice", node["name"])
}

func TestRecordToMapWrongAliasReturnsFalse(t *testing.T) {
	rec := graph.Record{"n": map[string]any{"id": "p1"}}
	_, ok := recordToMap(rec, "other")
	assert.False(t, ok)
}

func TestPersonProfileExecuteRequiresNameOrID(t *testing.T) {
	tool := &personProfileTool{}
	_, err := tool.Execute(context.Background(), principal.Principal{}, map[string]any{})
	assert.True(t, errkind.Is(err, errkind.Validation))
}

func TestDealDetailsExecuteRequiresID(t *testing.T) {
	tool := &dealDetailsTool{}
	_, err := tool.Execute(context.Background(), principal.Principal{}, map[string]any{})
	assert.True(t, errkind.Is(err, errkind.Validation))
}

func TestFindContributorsRequiresClient(t *testing.T) {
	tool := &contributorsOnClientProjectsTool{}
	_, err := tool.Execute(context.Background(), principal.Principal{}, map[string]any{})
	assert.True(t, errkind.Is(err, errkind.Validation))
}
