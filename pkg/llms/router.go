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

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dirkdd/OneVice-sub002/pkg/cache"
	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
	"github.com/dirkdd/OneVice-sub002/pkg/metrics"
	"github.com/dirkdd/OneVice-sub002/pkg/principal"
)

// healthCooldown is how long a provider is skipped after its last
// health probe failed.
const healthCooldown = 30 * time.Second

// CompleteRequest is the input to Router.Complete / Router.Stream: a
// message list, the agent's classification inputs, an optional caller
// override, and the requesting principal (for the sensitivity floor).
type CompleteRequest struct {
	Messages          []Message
	ComplexityInput   ComplexityInput
	ModelPreferences  map[Complexity]string
	PreferredProvider string
	Principal         principal.Principal
	MaxTokens         int
	Temperature       float64
}

// Router implements the provider-selection algorithm: sensitivity floor,
// complexity mapping, caller override, health gate, retry-once-then-
// fallback, exhausted.
type Router struct {
	registry *Registry
	cache    *cache.Client
	metrics  *metrics.Metrics

	sensitivityFloorLevel principal.DataAccessLevel
	trustedSet            map[string]struct{}

	mu          sync.Mutex
	providerMet map[string]*ProviderMetrics
}

// NewRouter builds a Router over the given provider registry.
func NewRouter(reg *Registry, c *cache.Client, m *metrics.Metrics, floorLevel principal.DataAccessLevel, trustedSet []string) *Router {
	trusted := make(map[string]struct{}, len(trustedSet))
	for _, name := range trustedSet {
		trusted[name] = struct{}{}
	}
	return &Router{
		registry:              reg,
		cache:                 c,
		metrics:               m,
		sensitivityFloorLevel: floorLevel,
		trustedSet:            trusted,
		providerMet:           make(map[string]*ProviderMetrics),
	}
}

func (r *Router) inCooldown(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.providerMet[name]
	if !ok {
		return false
	}
	return !m.LastHealthy && time.Since(m.LastHealthCheck) < healthCooldown
}

// selectOrder builds the ordered candidate list for one call: sensitivity
// floor first, then caller override promoted to the front if eligible,
// then the remaining registered providers in a stable order, with
// health-gated providers excluded.
func (r *Router) selectOrder(req CompleteRequest) []Provider {
	names := r.registry.Keys()

	floorApplies := req.Principal.DataAccessLevel >= r.sensitivityFloorLevel
	var candidates []string
	for _, name := range names {
		if floorApplies {
			if _, trusted := r.trustedSet[name]; !trusted {
				continue
			}
		}
		if r.inCooldown(name) {
			continue
		}
		candidates = append(candidates, name)
	}

	if req.PreferredProvider != "" {
		for i, name := range candidates {
			if name == req.PreferredProvider {
				candidates = append([]string{name}, append(candidates[:i], candidates[i+1:]...)...)
				break
			}
		}
	}

	out := make([]Provider, 0, len(candidates))
	for _, name := range candidates {
		if p, ok := r.registry.Get(name); ok {
			out = append(out, p)
		}
	}
	return out
}

// Complete runs the full selection + retry + fallback algorithm for a
// single non-streaming call.
func (r *Router) Complete(ctx context.Context, req CompleteRequest) (CompleteResponse, string, error) {
	order := r.selectOrder(req)
	if len(order) == 0 {
		return CompleteResponse{}, "", errkind.New(errkind.ProviderUnavailable, "llms.Router.Complete", nil)
	}

	complexity := ClassifyComplexity(req.ComplexityInput)
	lastErrs := make(map[string]error, len(order))

	for _, p := range order {
		model := req.ModelPreferences[complexity]
		if model == "" {
			model = p.ModelFor(complexity)
		}
		params := CompleteParams{Messages: req.Messages, Model: model, Temperature: req.Temperature, MaxTokens: req.MaxTokens}

		resp, err := r.callWithRetry(ctx, p, params)
		if err == nil {
			r.recordSuccess(ctx, p.Name(), model, resp.Usage)
			return resp, p.Name(), nil
		}
		if errkind.Is(err, errkind.Cancelled) {
			// The caller's context is already gone; trying another
			// provider would just reproduce the same cancellation.
			return CompleteResponse{}, "", err
		}
		lastErrs[p.Name()] = err
		r.recordFailure(ctx, p.Name(), model)
	}

	return CompleteResponse{}, "", errkind.New(errkind.ExhaustedProviders, "llms.Router.Complete", combineErrors(lastErrs))
}

// Embed runs the selection algorithm (sensitivity floor, health gate,
// fallback) over providers that support embeddings, skipping any
// provider whose Embed call fails validation (the adapter's way of
// saying it doesn't implement embeddings at all, e.g. Anthropic).
func (r *Router) Embed(ctx context.Context, texts []string, p principal.Principal) ([][]float32, string, error) {
	order := r.selectOrder(CompleteRequest{Principal: p})
	if len(order) == 0 {
		return nil, "", errkind.New(errkind.ProviderUnavailable, "llms.Router.Embed", nil)
	}

	lastErrs := make(map[string]error, len(order))
	for _, prov := range order {
		vectors, err := prov.Embed(ctx, texts)
		if err == nil {
			r.recordSuccess(ctx, prov.Name(), "embed", Usage{})
			return vectors, prov.Name(), nil
		}
		if errkind.Is(err, errkind.Cancelled) {
			return nil, "", err
		}
		lastErrs[prov.Name()] = err
		if !errkind.Is(err, errkind.Validation) {
			r.recordFailure(ctx, prov.Name(), "embed")
		}
	}
	return nil, "", errkind.New(errkind.ExhaustedProviders, "llms.Router.Embed", combineErrors(lastErrs))
}

// callWithRetry retries once within the same provider on a retryable
// classification, then gives up on that provider.
func (r *Router) callWithRetry(ctx context.Context, p Provider, params CompleteParams) (CompleteResponse, error) {
	resp, err := p.Complete(ctx, params)
	if err == nil {
		return resp, nil
	}
	if !errkind.Retryable(kindOf(err)) {
		return CompleteResponse{}, err
	}
	select {
	case <-time.After(200 * time.Millisecond):
	case <-ctx.Done():
		return CompleteResponse{}, errkind.New(errkind.Cancelled, "llms.Router.callWithRetry", ctx.Err())
	}
	return p.Complete(ctx, params)
}

// Stream runs the selection algorithm once and returns the winning
// provider's lazy stream; fallback on initial-connect failure follows
// the same order as Complete, but once a stream has yielded any
// content the router does not fail over mid-stream. The caller sees
// the partial content and the stream's own error/final chunk.
func (r *Router) Stream(ctx context.Context, req CompleteRequest) (<-chan StreamChunk, string, error) {
	order := r.selectOrder(req)
	if len(order) == 0 {
		return nil, "", errkind.New(errkind.ProviderUnavailable, "llms.Router.Stream", nil)
	}

	complexity := ClassifyComplexity(req.ComplexityInput)
	lastErrs := make(map[string]error, len(order))

	for _, p := range order {
		model := req.ModelPreferences[complexity]
		if model == "" {
			model = p.ModelFor(complexity)
		}
		params := CompleteParams{Messages: req.Messages, Model: model, Temperature: req.Temperature, MaxTokens: req.MaxTokens}

		stream, err := p.CompleteStream(ctx, params)
		if err == nil {
			return r.wrapStream(ctx, p.Name(), model, stream), p.Name(), nil
		}
		lastErrs[p.Name()] = err
		r.recordFailure(ctx, p.Name(), model)
	}

	return nil, "", errkind.New(errkind.ExhaustedProviders, "llms.Router.Stream", combineErrors(lastErrs))
}

func (r *Router) wrapStream(ctx context.Context, provider, model string, in <-chan StreamChunk) <-chan StreamChunk {
	out := make(chan StreamChunk, 16)
	go func() {
		defer close(out)
		for chunk := range in {
			if chunk.Final {
				r.recordSuccess(ctx, provider, model, chunk.Usage)
				chunk.Provider = provider
				chunk.Model = model
				chunk.CostEstimate = estimateCost(provider, chunk.Usage)
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
			if chunk.Final || chunk.Err != nil {
				return
			}
		}
	}()
	return out
}

func (r *Router) recordSuccess(ctx context.Context, provider, model string, usage Usage) {
	r.mu.Lock()
	m := r.ensureMetrics(provider)
	m.Requests++
	m.PromptTokens += int64(usage.PromptTokens)
	m.CompletionTokens += int64(usage.CompletionTokens)
	m.CostEstimate += estimateCost(provider, usage)
	m.LastHealthy = true
	m.LastHealthCheck = time.Now()
	snapshot := *m
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.RecordLLMCall(ctx, provider, model, true, usage.PromptTokens, usage.CompletionTokens, 0)
	}
	r.persistMetrics(ctx, provider, snapshot)
}

func (r *Router) recordFailure(ctx context.Context, provider, model string) {
	r.mu.Lock()
	m := r.ensureMetrics(provider)
	m.LastHealthy = false
	m.LastHealthCheck = time.Now()
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.RecordLLMCall(ctx, provider, model, false, 0, 0, 0)
	}
}

func (r *Router) ensureMetrics(provider string) *ProviderMetrics {
	m, ok := r.providerMet[provider]
	if !ok {
		m = &ProviderMetrics{}
		r.providerMet[provider] = m
	}
	return m
}

func (r *Router) persistMetrics(ctx context.Context, provider string, m ProviderMetrics) {
	if r.cache == nil {
		return
	}
	encoded, err := json.Marshal(m)
	if err != nil {
		return
	}
	key := cache.PerformanceMetricsKey("llm_" + provider)
	_ = r.cache.LPush(ctx, key, string(encoded))
	_ = r.cache.LTrim(ctx, key, 0, cache.MaxPerformanceMetricsEntries-1)
}

// estimateCost is a coarse, provider-specific per-million-token rate
// table; it is not billing-accurate, only good enough for the
// cost_estimate field the streaming contract requires.
func estimateCost(provider string, usage Usage) float64 {
	var promptRate, completionRate float64
	switch provider {
	case "anthropic":
		promptRate, completionRate = 3.0, 15.0
	case "openai":
		promptRate, completionRate = 2.5, 10.0
	default: // ollama: self-hosted, compute cost only, not metered here
		promptRate, completionRate = 0, 0
	}
	return (float64(usage.PromptTokens)/1_000_000)*promptRate + (float64(usage.CompletionTokens)/1_000_000)*completionRate
}

func kindOf(err error) errkind.Kind {
	if e, ok := err.(*errkind.Error); ok {
		return e.Kind
	}
	return errkind.Unknown
}

func combineErrors(errs map[string]error) error {
	if len(errs) == 0 {
		return nil
	}
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)
	wrapped := make([]error, 0, len(names))
	for _, name := range names {
		wrapped = append(wrapped, fmt.Errorf("%s: %w", name, errs[name]))
	}
	return errors.Join(wrapped...)
}
