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

// Command crm-ingest demonstrates wiring CRM deal records into the
// knowledge graph. There is no production CRM client here: the CRM is
// an external, non-goal collaborator, so this reads a batch of deals
// from a local JSON file (standing in for whatever export or feed a
// real deployment would poll) and upserts each one through pkg/ingest.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/dirkdd/OneVice-sub002/pkg/config"
	"github.com/dirkdd/OneVice-sub002/pkg/graph"
	"github.com/dirkdd/OneVice-sub002/pkg/ingest"
	"github.com/dirkdd/OneVice-sub002/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var dealsPath string
	flag.StringVar(&dealsPath, "deals", "", "path to a JSON file containing an array of deal records")
	flag.Parse()
	if dealsPath == "" {
		return fmt.Errorf("-deals is required")
	}

	ctx := context.Background()

	cfg, err := config.Load(os.Getenv("ONEVICE_CONFIG"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Graph.Validate(); err != nil {
		return fmt.Errorf("invalid graph config: %w", err)
	}

	log := logger.Init(cfg.Runtime.LogLevel, cfg.Runtime.LogFormat)

	graphClient, err := graph.New(ctx, cfg.Graph, graph.WithLogger(log))
	if err != nil {
		return fmt.Errorf("connect graph: %w", err)
	}
	defer graphClient.Close(context.Background())

	f, err := os.Open(dealsPath)
	if err != nil {
		return fmt.Errorf("open deals file: %w", err)
	}
	defer f.Close()

	var deals []ingest.DealRecord
	if err := json.NewDecoder(f).Decode(&deals); err != nil {
		return fmt.Errorf("decode deals file: %w", err)
	}

	var failed int
	for _, rec := range deals {
		if err := ingest.Upsert(ctx, graphClient, rec); err != nil {
			log.Error("upsert deal failed", "deal_id", rec.DealID, "error", err)
			failed++
			continue
		}
		log.Info("upserted deal", "deal_id", rec.DealID)
	}

	log.Info("ingest complete", "total", len(deals), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d deals failed to upsert", failed, len(deals))
	}
	return nil
}
