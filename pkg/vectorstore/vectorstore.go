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

// Package vectorstore maintains the named ANN indexes the knowledge graph
// exposes (person_bio_vector, memory_content_vector,
// memory_summary_vector) in a dedicated pluggable vector backend keyed by
// the owning graph node's id, rather than relying on store-native vector
// index procedures the retrieved corpus never exercises. The graph write
// path keeps the two stores in sync.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
)

// Match is one scored result from a similarity search.
type Match struct {
	ID       string
	Score    float32
	Metadata map[string]any
}

// Store is the capability every backend implements: upsert, search,
// delete a vector by id within a named index, and a health probe.
// Vectors outside the configured dimensionality are rejected before
// reaching the backend (see CheckDimension).
type Store interface {
	Upsert(ctx context.Context, index string, id string, vector []float32, metadata map[string]any) error
	Search(ctx context.Context, index string, queryVector []float32, k int, minScore float32) ([]Match, error)
	Delete(ctx context.Context, index string, id string) error
	Health(ctx context.Context) bool
	Close() error
}

// Dimension is the fixed vector width every named index uses.
const Dimension = 1536

// CheckDimension rejects vectors that don't match the configured index
// dimensionality, surfacing a data-integrity error before any backend
// call is attempted.
func CheckDimension(vector []float32) error {
	if len(vector) != Dimension {
		return errkind.New(errkind.DataIntegrity, "vectorstore.CheckDimension",
			fmt.Errorf("vector has %d dimensions, want %d", len(vector), Dimension))
	}
	return nil
}

// Backend names the pluggable vector-store implementations this module
// ships. Exactly one is active per deployment, selected via BackendConfig.
type Backend string

const (
	BackendQdrant   Backend = "qdrant"
	BackendPinecone Backend = "pinecone"
	BackendChromem  Backend = "chromem"
)

// BackendConfig selects and configures one vector-store backend.
type BackendConfig struct {
	Backend Backend `yaml:"backend" json:"backend"`

	Qdrant   QdrantConfig   `yaml:"qdrant" json:"qdrant"`
	Pinecone PineconeConfig `yaml:"pinecone" json:"pinecone"`
	Chromem  ChromemConfig  `yaml:"chromem" json:"chromem"`
}

func (c *BackendConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendChromem
	}
}

// New constructs the Store named by cfg.Backend.
func New(ctx context.Context, cfg BackendConfig) (Store, error) {
	switch cfg.Backend {
	case BackendQdrant:
		return NewQdrantStore(ctx, cfg.Qdrant)
	case BackendPinecone:
		return NewPineconeStore(ctx, cfg.Pinecone)
	case BackendChromem, "":
		return NewChromemStore(cfg.Chromem)
	default:
		return nil, errkind.New(errkind.Validation, "vectorstore.New", fmt.Errorf("unknown backend %q", cfg.Backend))
	}
}
