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

package llms

import "context"

// Provider is the capability set every LLM backend implements: complete
// (optionally streaming), embed, and a health probe used by the
// router's health gate.
type Provider interface {
	Name() string
	// Trusted reports whether this provider may serve principals above
	// the configured sensitivity floor.
	Trusted() bool
	Complete(ctx context.Context, params CompleteParams) (CompleteResponse, error)
	CompleteStream(ctx context.Context, params CompleteParams) (<-chan StreamChunk, error)
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Health(ctx context.Context) bool
	// ModelFor returns the concrete model name for a complexity tier,
	// per this provider's model-preference table.
	ModelFor(c Complexity) string
}

// ClassifyFunc maps a provider SDK error into our retry
// taxonomy so the router can decide retry-once-then-fallback purely
// from Kind.
type ClassifyFunc func(err error) error
