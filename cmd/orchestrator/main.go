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

// Command orchestrator is the composition root: it loads configuration,
// wires the graph store, cache, vector store, LLM providers, memory
// subsystem, tool registry, RBAC gate, and agent graphs into an
// Orchestrator, and serves it over a websocket endpoint until signaled
// to stop.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dirkdd/OneVice-sub002/pkg/agent"
	"github.com/dirkdd/OneVice-sub002/pkg/auth"
	"github.com/dirkdd/OneVice-sub002/pkg/cache"
	"github.com/dirkdd/OneVice-sub002/pkg/config"
	"github.com/dirkdd/OneVice-sub002/pkg/graph"
	"github.com/dirkdd/OneVice-sub002/pkg/llms"
	"github.com/dirkdd/OneVice-sub002/pkg/logger"
	"github.com/dirkdd/OneVice-sub002/pkg/memory"
	"github.com/dirkdd/OneVice-sub002/pkg/metrics"
	"github.com/dirkdd/OneVice-sub002/pkg/orchestrator"
	"github.com/dirkdd/OneVice-sub002/pkg/principal"
	"github.com/dirkdd/OneVice-sub002/pkg/rbac"
	"github.com/dirkdd/OneVice-sub002/pkg/session"
	"github.com/dirkdd/OneVice-sub002/pkg/tools"
	"github.com/dirkdd/OneVice-sub002/pkg/vectorstore"

	onevice "github.com/dirkdd/OneVice-sub002"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load(os.Getenv("ONEVICE_CONFIG"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := logger.Init(cfg.Runtime.LogLevel, cfg.Runtime.LogFormat)
	log.Info("starting", "build", onevice.GetVersion().String())

	m, shutdownMetrics, err := metrics.InitProvider(ctx, metrics.ProviderConfig{ServiceName: "onevice-orchestrator"})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer shutdownMetrics(context.Background())

	vecStore, err := vectorstore.New(ctx, cfg.VectorStore)
	if err != nil {
		return fmt.Errorf("connect vector store: %w", err)
	}
	defer vecStore.Close()

	graphClient, err := graph.New(ctx, cfg.Graph, graph.WithLogger(log), graph.WithVectorStore(vecStore))
	if err != nil {
		return fmt.Errorf("connect graph: %w", err)
	}
	defer graphClient.Close(context.Background())

	cacheClient, err := cache.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("connect cache: %w", err)
	}
	defer cacheClient.Close()

	llmRegistry := llms.NewRegistry()
	registerLLMProviders(llmRegistry, cfg.LLM)
	router := llms.NewRouter(llmRegistry, cacheClient, m,
		principal.DataAccessLevel(cfg.LLM.SensitivityFloorLevel), cfg.LLM.SensitivityFloorProviderSet)

	staticSource := rbac.NewStaticPermissionSource(cfg.RBAC.RolePermissions)
	gate := rbac.New(staticSource, cacheClient, cfg.RBAC)

	toolRegistry := tools.NewRegistry(gate, m)
	registerTools(toolRegistry, graphClient, router)

	contextCache := memory.NewContextCache(cacheClient, 0)
	longTerm := memory.NewLongTermManager(graphClient)
	checkpoints := memory.NewCheckpointStore(cacheClient)
	extractionWorker := memory.NewExtractionWorker(cacheClient, longTerm, router, m, cfg.Memory.Workers)
	consolidator := memory.NewConsolidator(cacheClient, longTerm, m)

	extractionCtx, stopExtraction := context.WithCancel(ctx)
	defer stopExtraction()
	go extractionWorker.Run(extractionCtx)

	graphs := map[orchestrator.AgentType]*agent.Graph{
		orchestrator.AgentSales:     agent.NewGraph(agent.SalesAgent, toolRegistry, router, contextCache, longTerm, checkpoints, cacheClient),
		orchestrator.AgentTalent:    agent.NewGraph(agent.TalentAgent, toolRegistry, router, contextCache, longTerm, checkpoints, cacheClient),
		orchestrator.AgentAnalytics: agent.NewGraph(agent.AnalyticsAgent, toolRegistry, router, contextCache, longTerm, checkpoints, cacheClient),
	}
	orch := orchestrator.New(graphs, router, cacheClient)

	baseVerifier, err := auth.NewJWTValidator(ctx, cfg.Auth.JWKSURL, cfg.Auth.Issuer, cfg.Auth.Audience)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}
	verifier := auth.NewRegisteringVerifier(baseVerifier, staticSource)

	sessionManager := session.NewManager(verifier, orch, log, cfg.Runtime.AllowedOrigins)

	mux := http.NewServeMux()
	mux.Handle("/ws", sessionManager)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !graphClient.Health(r.Context()) {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/admin/consolidate", newConsolidationHandler(consolidator))

	addr := fmt.Sprintf("%s:%d", cfg.Runtime.Host, cfg.Runtime.Port)
	httpServer := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting orchestrator", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.Error("server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "error", err)
	}

	log.Info("orchestrator stopped")
	return nil
}

func registerLLMProviders(reg *llms.Registry, cfg config.LLMProvidersConfig) {
	providers := []llms.Provider{
		llms.NewAnthropicProvider(llms.AnthropicConfig{
			APIKey:     cfg.Secondary.APIKey,
			ModelTable: map[llms.Complexity]string{llms.ComplexityModerate: cfg.Secondary.DefaultModel},
		}),
		llms.NewOpenAIProvider(llms.OpenAIConfig{
			APIKey:     cfg.Tertiary.APIKey,
			ModelTable: map[llms.Complexity]string{llms.ComplexityModerate: cfg.Tertiary.DefaultModel},
		}),
		llms.NewOllamaProvider(llms.OllamaConfig{
			BaseURL:    cfg.Primary.BaseURL,
			ModelTable: map[llms.Complexity]string{llms.ComplexityModerate: cfg.Primary.DefaultModel},
		}),
	}
	for _, p := range providers {
		if err := reg.Register(p.Name(), p); err != nil {
			slog.Default().Warn("failed to register LLM provider", "provider", p.Name(), "error", err)
		}
	}
}

func registerTools(reg *tools.Registry, g *graph.Client, router *llms.Router) {
	toolSet := []tools.Tool{
		tools.NewPersonProfileTool(g),
		tools.NewOrganizationProfileTool(g),
		tools.NewProjectDetailsTool(g),
		tools.NewPeopleAtOrganizationTool(g),
		tools.NewProjectsByConceptTool(g),
		tools.NewContributorsOnClientProjectsTool(g),
		tools.NewDealDetailsTool(g),
		tools.NewDealSourcerTool(g),
		tools.NewDocumentSearchTool(g),
		tools.NewUniversalVectorSearchTool(g, router),
	}
	for _, t := range toolSet {
		info := t.Info()
		if err := reg.Register(info.Name, t); err != nil {
			slog.Default().Warn("failed to register tool", "tool", info.Name, "error", err)
		}
	}
}
