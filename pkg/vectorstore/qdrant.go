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
	"fmt"

	"github.com/google/uuid"
	qdrant "github.com/qdrant/go-client/qdrant"

	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
)

// QdrantConfig configures the primary vector-store backend.
type QdrantConfig struct {
	Host   string `yaml:"host" json:"host"`
	Port   int    `yaml:"port" json:"port"`
	APIKey string `yaml:"api_key" json:"api_key"`
	UseTLS bool   `yaml:"use_tls" json:"use_tls"`
}

func (c *QdrantConfig) SetDefaults() {
	if c.Port <= 0 {
		c.Port = 6334
	}
}

type qdrantStore struct {
	client *qdrant.Client
}

// NewQdrantStore dials a Qdrant instance. Collections are created
// lazily on first Upsert per index, sized to Dimension with cosine
// distance, matching the three named indexes' fixed shape.
func NewQdrantStore(ctx context.Context, cfg QdrantConfig) (Store, error) {
	cfg.SetDefaults()

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, errkind.New(errkind.Connection, "qdrant.New", err)
	}
	return &qdrantStore{client: client}, nil
}

func (s *qdrantStore) ensureCollection(ctx context.Context, index string) error {
	exists, err := s.client.CollectionExists(ctx, index)
	if err != nil {
		return errkind.New(errkind.Connection, "qdrant.ensureCollection", err)
	}
	if exists {
		return nil
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: index,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(Dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return errkind.New(errkind.Connection, "qdrant.ensureCollection.Create", err)
	}
	return nil
}

func (s *qdrantStore) Upsert(ctx context.Context, index string, id string, vector []float32, metadata map[string]any) error {
	if err := CheckDimension(vector); err != nil {
		return err
	}
	if err := s.ensureCollection(ctx, index); err != nil {
		return err
	}

	payload := make(map[string]*qdrant.Value, len(metadata))
	for k, v := range metadata {
		payload[k] = qdrant.NewValue(v)
	}
	// the node id is also stored as a payload field so results can be
	// joined back to the graph even though Qdrant's own point id is a
	// UUID derived deterministically from it.
	payload["node_id"] = qdrant.NewValueString(id)

	point := &qdrant.PointStruct{
		Id:      qdrant.NewID(pointUUID(id)),
		Vectors: qdrant.NewVectors(vector...),
		Payload: payload,
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: index,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return errkind.New(errkind.Connection, "qdrant.Upsert", err)
	}
	return nil
}

func (s *qdrantStore) Search(ctx context.Context, index string, queryVector []float32, k int, minScore float32) ([]Match, error) {
	if err := CheckDimension(queryVector); err != nil {
		return nil, err
	}

	limit := uint64(k)
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: index,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          &limit,
		ScoreThreshold: &minScore,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, errkind.New(errkind.Connection, "qdrant.Search", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		md := make(map[string]any, len(r.Payload))
		nodeID := ""
		for k, v := range r.Payload {
			val := v.AsInterface()
			md[k] = val
			if k == "node_id" {
				if s, ok := val.(string); ok {
					nodeID = s
				}
			}
		}
		if nodeID == "" {
			nodeID = r.Id.GetUuid()
		}
		matches = append(matches, Match{ID: nodeID, Score: r.Score, Metadata: md})
	}
	return matches, nil
}

func (s *qdrantStore) Delete(ctx context.Context, index string, id string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: index,
		Points:         qdrant.NewPointsSelectorIDs([]*qdrant.PointId{qdrant.NewID(pointUUID(id))}),
	})
	if err != nil {
		return errkind.New(errkind.Connection, "qdrant.Delete", err)
	}
	return nil
}

func (s *qdrantStore) Health(ctx context.Context) bool {
	_, err := s.client.HealthCheck(ctx)
	return err == nil
}

func (s *qdrantStore) Close() error {
	return s.client.Close()
}

// pointUUID derives a deterministic point id from the graph node id so
// repeated upserts of the same node overwrite rather than duplicate,
// since Qdrant point ids must be a UUID or unsigned integer, not an
// arbitrary string.
func pointUUID(nodeID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("onevice:%s", nodeID))).String()
}
