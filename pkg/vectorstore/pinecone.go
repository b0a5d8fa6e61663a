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

	"github.com/pinecone-io/go-pinecone/v2/pinecone"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
)

// PineconeConfig configures the alternate managed-service backend.
type PineconeConfig struct {
	APIKey      string `yaml:"api_key" json:"api_key"`
	Environment string `yaml:"environment" json:"environment"`
}

type pineconeStore struct {
	client *pinecone.Client
	// one index connection per named vector index, opened lazily since
	// each requires its own host lookup via DescribeIndex.
	conns map[string]*pinecone.IndexConnection
}

// NewPineconeStore authenticates against the Pinecone control plane.
// Index connections (one per named index) are established lazily on
// first use, since each index has its own dedicated host.
func NewPineconeStore(ctx context.Context, cfg PineconeConfig) (Store, error) {
	if cfg.APIKey == "" {
		return nil, errkind.New(errkind.Validation, "pinecone.New", fmt.Errorf("api_key is required"))
	}
	client, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: cfg.APIKey})
	if err != nil {
		return nil, errkind.New(errkind.Connection, "pinecone.New", err)
	}
	return &pineconeStore{client: client, conns: make(map[string]*pinecone.IndexConnection)}, nil
}

func (s *pineconeStore) conn(ctx context.Context, index string) (*pinecone.IndexConnection, error) {
	if c, ok := s.conns[index]; ok {
		return c, nil
	}
	desc, err := s.client.DescribeIndex(ctx, index)
	if err != nil {
		return nil, errkind.New(errkind.Connection, "pinecone.DescribeIndex", err)
	}
	conn, err := s.client.Index(pinecone.NewIndexConnParams{Host: desc.Host})
	if err != nil {
		return nil, errkind.New(errkind.Connection, "pinecone.Index", err)
	}
	s.conns[index] = conn
	return conn, nil
}

func (s *pineconeStore) Upsert(ctx context.Context, index string, id string, vector []float32, metadata map[string]any) error {
	if err := CheckDimension(vector); err != nil {
		return err
	}
	conn, err := s.conn(ctx, index)
	if err != nil {
		return err
	}

	meta, err := structpb.NewStruct(metadata)
	if err != nil {
		return errkind.New(errkind.Validation, "pinecone.Upsert.Metadata", err)
	}

	_, err = conn.UpsertVectors(ctx, []*pinecone.Vector{
		{Id: id, Values: &vector, Metadata: meta},
	})
	if err != nil {
		return errkind.New(errkind.Connection, "pinecone.Upsert", err)
	}
	return nil
}

func (s *pineconeStore) Search(ctx context.Context, index string, queryVector []float32, k int, minScore float32) ([]Match, error) {
	if err := CheckDimension(queryVector); err != nil {
		return nil, err
	}
	conn, err := s.conn(ctx, index)
	if err != nil {
		return nil, err
	}

	resp, err := conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          queryVector,
		TopK:            uint32(k),
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, errkind.New(errkind.Connection, "pinecone.Search", err)
	}

	matches := make([]Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m.Score < minScore {
			continue
		}
		md := map[string]any{}
		if m.Vector.Metadata != nil {
			md = m.Vector.Metadata.AsMap()
		}
		matches = append(matches, Match{ID: m.Vector.Id, Score: m.Score, Metadata: md})
	}
	return matches, nil
}

func (s *pineconeStore) Delete(ctx context.Context, index string, id string) error {
	conn, err := s.conn(ctx, index)
	if err != nil {
		return err
	}
	if err := conn.DeleteVectorsById(ctx, []string{id}); err != nil {
		return errkind.New(errkind.Connection, "pinecone.Delete", err)
	}
	return nil
}

func (s *pineconeStore) Health(ctx context.Context) bool {
	_, err := s.client.ListIndexes(ctx)
	return err == nil
}

func (s *pineconeStore) Close() error {
	return nil
}
