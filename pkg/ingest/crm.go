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

// Package ingest wires the external CRM system (a non-goal collaborator)
// into the knowledge graph. CRMSource is the only interface this
// package defines; there's no production implementation here, only the
// record shape and the upsert path cmd/crm-ingest drives.
package ingest

import (
	"context"
	"time"

	"github.com/dirkdd/OneVice-sub002/pkg/graph"
)

// DealRecord is one CRM deal as the external system represents it. Field
// names mirror the CRM's own export format rather than this core's
// internal naming, since this is the wire boundary the CRM controls.
type DealRecord struct {
	DealID         string    `json:"deal_id"`
	OrganizationID string    `json:"organization_id"`
	SourcerID      string    `json:"sourcer_id"`
	Stage          string    `json:"stage"`
	Value          float64   `json:"value"`
	ClosedAt       time.Time `json:"closed_at"`
}

// CRMSource is the narrow interface onto the external relational CRM
// (non-goal). A production deployment would reach it over whatever
// transport the CRM publishes (REST export, change-data-capture feed,
// CSV drop); cmd/crm-ingest only needs something that can list deals,
// the one record type here that has no other path into the graph.
type CRMSource interface {
	ListDeals(ctx context.Context) ([]DealRecord, error)
}

// Upsert writes one DealRecord into the property graph as a Deal node,
// linked to its Organization and sourcing Person, matching the shape
// pkg/tools.NewDealDetailsTool and NewDealSourcerTool read back.
func Upsert(ctx context.Context, g *graph.Client, rec DealRecord) error {
	cypher, params := buildUpsertQuery(rec)
	_, err := g.Run(ctx, cypher, params, graph.RunOptions{Idempotent: true})
	return err
}

func buildUpsertQuery(rec DealRecord) (string, map[string]any) {
	qb := graph.NewQueryBuilder().
		Merge("(d:Deal {id: $dealID})").
		Merge("(o:Organization {id: $orgID})").
		Merge("(s:Person {id: $sourcerID})").
		Param("dealID", rec.DealID).
		Param("orgID", rec.OrganizationID).
		Param("sourcerID", rec.SourcerID).
		Param("stage", rec.Stage).
		Param("value", rec.Value).
		Param("closedAt", rec.ClosedAt.Unix())

	cypher, params := qb.Build()
	cypher += "\nSET d.stage = $stage, d.value = $value, d.closed_at = $closedAt, d.organization_id = $orgID, d.sourcer_id = $sourcerID" +
		"\nMERGE (d)-[:FOR_ORGANIZATION]->(o)" +
		"\nMERGE (s)-[:SOURCED]->(d)"
	return cypher, params
}
