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

package vectorstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
)

// ChromemConfig configures the embedded, in-process backend used for
// local development and tests where standing up Qdrant or Pinecone isn't
// worth it.
type ChromemConfig struct {
	PersistPath string `yaml:"persist_path" json:"persist_path"`
	Compress    bool   `yaml:"compress" json:"compress"`
}

func (c *ChromemConfig) SetDefaults() {
	if c.PersistPath == "" {
		c.PersistPath = "./data/vectorstore"
	}
}

type chromemStore struct {
	db *chromem.DB

	mu          sync.Mutex
	collections map[string]*chromem.Collection
}

// passthroughEmbedder hands back a vector already computed upstream
// (pkg/llms' embed call): chromem-go requires an EmbeddingFunc per
// collection, but this store never wants chromem to compute embeddings
// itself. It only provides ANN search over vectors it's given.
func passthroughEmbedder(_ context.Context, _ string) ([]float32, error) {
	return nil, errkind.New(errkind.Validation, "chromem.passthroughEmbedder",
		os.ErrInvalid)
}

// NewChromemStore opens (creating if absent) a persistent chromem-go
// database rooted at cfg.PersistPath.
func NewChromemStore(cfg ChromemConfig) (Store, error) {
	cfg.SetDefaults()
	if err := os.MkdirAll(filepath.Dir(cfg.PersistPath), 0o755); err != nil {
		return nil, errkind.New(errkind.Connection, "chromem.New", err)
	}

	db, err := chromem.NewPersistentDB(cfg.PersistPath, cfg.Compress)
	if err != nil {
		return nil, errkind.New(errkind.Connection, "chromem.New", err)
	}
	return &chromemStore{db: db, collections: make(map[string]*chromem.Collection)}, nil
}

func (s *chromemStore) collection(index string) (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[index]; ok {
		return c, nil
	}
	c, err := s.db.GetOrCreateCollection(index, nil, passthroughEmbedder)
	if err != nil {
		return nil, errkind.New(errkind.Connection, "chromem.collection", err)
	}
	s.collections[index] = c
	return c, nil
}

func (s *chromemStore) Upsert(ctx context.Context, index string, id string, vector []float32, metadata map[string]any) error {
	if err := CheckDimension(vector); err != nil {
		return err
	}
	c, err := s.collection(index)
	if err != nil {
		return err
	}

	strMeta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		strMeta[k] = toMetadataString(v)
	}

	doc := chromem.Document{ID: id, Embedding: vector, Metadata: strMeta}
	if err := c.AddDocument(ctx, doc); err != nil {
		return errkind.New(errkind.Connection, "chromem.Upsert", err)
	}
	return nil
}

func (s *chromemStore) Search(ctx context.Context, index string, queryVector []float32, k int, minScore float32) ([]Match, error) {
	if err := CheckDimension(queryVector); err != nil {
		return nil, err
	}
	c, err := s.collection(index)
	if err != nil {
		return nil, err
	}

	count := c.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := c.QueryEmbedding(ctx, queryVector, k, nil, nil)
	if err != nil {
		return nil, errkind.New(errkind.Connection, "chromem.Search", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		if r.Similarity < minScore {
			continue
		}
		md := make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			md[k] = v
		}
		matches = append(matches, Match{ID: r.ID, Score: r.Similarity, Metadata: md})
	}
	return matches, nil
}

func (s *chromemStore) Delete(ctx context.Context, index string, id string) error {
	c, err := s.collection(index)
	if err != nil {
		return err
	}
	if err := c.Delete(ctx, nil, nil, id); err != nil {
		return errkind.New(errkind.Connection, "chromem.Delete", err)
	}
	return nil
}

func (s *chromemStore) Health(ctx context.Context) bool {
	return s.db != nil
}

func (s *chromemStore) Close() error {
	return nil
}

func toMetadataString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	default:
		return ""
	}
}
