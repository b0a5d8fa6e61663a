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

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkContentEmpty(t *testing.T) {
	assert.Nil(t, chunkContent("", 80))
}

func TestChunkContentShorterThanSize(t *testing.T) {
	chunks := chunkContent("hello", 80)
	assert.Equal(t, []string{"hello"}, chunks)
}

func TestChunkContentExactMultiple(t *testing.T) {
	chunks := chunkContent("aabb", 2)
	assert.Equal(t, []string{"aa", "bb"}, chunks)
}

func TestChunkContentRemainder(t *testing.T) {
	chunks := chunkContent("aaabb", 2)
	assert.Equal(t, []string{"aa", "ab", "b"}, chunks)
}

func TestChunkContentReassemblesExactly(t *testing.T) {
	content := "the quick brown fox jumps over the lazy dog, again and again and again"
	chunks := chunkContent(content, 7)
	var rebuilt string
	for _, c := range chunks {
		rebuilt += c
	}
	assert.Equal(t, content, rebuilt)
}
