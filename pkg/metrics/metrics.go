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

// Package metrics exposes a minimal Metrics capability injected into
// components that need to record counters and latencies, rather than a
// shared mutable object every package reaches into. Components hold a
// *Metrics handle; a pure function evaluates alert thresholds from a
// snapshot, separate from recording.
package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics wraps the process-wide OpenTelemetry meter with the handful of
// instruments the orchestration core emits: tool executions, LLM calls,
// cache operations, and memory pipeline outcomes.
type Metrics struct {
	meter metric.Meter

	toolExecutions  metric.Int64Counter
	toolDuration    metric.Float64Histogram
	llmCalls        metric.Int64Counter
	llmTokens       metric.Int64Counter
	llmDuration     metric.Float64Histogram
	cacheOps        metric.Int64Counter
	memoryExtracted metric.Int64Counter
	memoryDropped   metric.Int64Counter
	consolidations  metric.Int64Counter

	mu       sync.Mutex
	snapshot Snapshot
}

// Snapshot is a point-in-time copy of the in-process counters, used by
// pure alert-evaluation functions so threshold logic never touches the
// live instruments directly.
type Snapshot struct {
	ToolExecutions int64
	ToolErrors     int64
	LLMCalls       int64
	LLMErrors      int64
	MemoryDropped  int64
}

// New builds a Metrics handle from the given meter (typically
// otel.Meter("onevice")). Instrument creation errors are treated as fatal
// configuration mistakes rather than degrading silently.
func New(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{meter: meter}

	var err error
	if m.toolExecutions, err = meter.Int64Counter("tool.executions",
		metric.WithDescription("tool invocations by name and status")); err != nil {
		return nil, err
	}
	if m.toolDuration, err = meter.Float64Histogram("tool.duration_ms",
		metric.WithDescription("tool execution latency in milliseconds")); err != nil {
		return nil, err
	}
	if m.llmCalls, err = meter.Int64Counter("llm.calls",
		metric.WithDescription("LLM provider calls by provider and outcome")); err != nil {
		return nil, err
	}
	if m.llmTokens, err = meter.Int64Counter("llm.tokens",
		metric.WithDescription("prompt/completion tokens by provider")); err != nil {
		return nil, err
	}
	if m.llmDuration, err = meter.Float64Histogram("llm.duration_ms",
		metric.WithDescription("LLM call latency in milliseconds")); err != nil {
		return nil, err
	}
	if m.cacheOps, err = meter.Int64Counter("cache.operations",
		metric.WithDescription("cache operations by command and outcome")); err != nil {
		return nil, err
	}
	if m.memoryExtracted, err = meter.Int64Counter("memory.extracted",
		metric.WithDescription("memory items produced by the extraction worker pool")); err != nil {
		return nil, err
	}
	if m.memoryDropped, err = meter.Int64Counter("memory.dropped",
		metric.WithDescription("extraction tasks dropped after exhausting retries")); err != nil {
		return nil, err
	}
	if m.consolidations, err = meter.Int64Counter("memory.consolidations",
		metric.WithDescription("consolidation sweeps that produced a merged item")); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordToolExecution logs one tool invocation's outcome and latency.
func (m *Metrics) RecordToolExecution(ctx context.Context, toolName string, success bool, duration time.Duration) {
	status := "ok"
	if !success {
		status = "error"
	}
	attrs := metric.WithAttributes(attribute.String("tool", toolName), attribute.String("status", status))
	m.toolExecutions.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, float64(duration.Milliseconds()), attrs)

	m.mu.Lock()
	m.snapshot.ToolExecutions++
	if !success {
		m.snapshot.ToolErrors++
	}
	m.mu.Unlock()
}

// RecordLLMCall logs one completed provider call's token usage and
// latency, regardless of whether it ultimately succeeded.
func (m *Metrics) RecordLLMCall(ctx context.Context, provider, model string, success bool, promptTokens, completionTokens int, duration time.Duration) {
	status := "ok"
	if !success {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("model", model),
		attribute.String("status", status),
	)
	m.llmCalls.Add(ctx, 1, attrs)
	m.llmTokens.Add(ctx, int64(promptTokens), metric.WithAttributes(attribute.String("provider", provider), attribute.String("kind", "prompt")))
	m.llmTokens.Add(ctx, int64(completionTokens), metric.WithAttributes(attribute.String("provider", provider), attribute.String("kind", "completion")))
	m.llmDuration.Record(ctx, float64(duration.Milliseconds()), attrs)

	m.mu.Lock()
	m.snapshot.LLMCalls++
	if !success {
		m.snapshot.LLMErrors++
	}
	m.mu.Unlock()
}

// RecordCacheOp logs one cache command's outcome.
func (m *Metrics) RecordCacheOp(ctx context.Context, command string, success bool) {
	status := "ok"
	if !success {
		status = "error"
	}
	m.cacheOps.Add(ctx, 1, metric.WithAttributes(attribute.String("command", command), attribute.String("status", status)))
}

// RecordMemoryExtracted logs how many memory items one extraction task
// produced (0 is a valid, recordable outcome).
func (m *Metrics) RecordMemoryExtracted(ctx context.Context, count int) {
	m.memoryExtracted.Add(ctx, int64(count))
}

// RecordMemoryDropped logs an extraction task dropped after exhausting
// retries.
func (m *Metrics) RecordMemoryDropped(ctx context.Context) {
	m.memoryDropped.Add(ctx, 1)
	m.mu.Lock()
	m.snapshot.MemoryDropped++
	m.mu.Unlock()
}

// RecordConsolidation logs one consolidation sweep producing a merged
// item.
func (m *Metrics) RecordConsolidation(ctx context.Context) {
	m.consolidations.Add(ctx, 1)
}

// Snapshot returns a copy of the in-process counters accumulated so far.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

// Alert is a pure threshold evaluation over a Snapshot: it never touches
// the live instruments, so it is trivially testable.
type Alert struct {
	Name    string
	Message string
}

// EvaluateAlerts is the pure function consuming a snapshot the Design
// Notes call for, replacing in-process threshold checks scattered across
// a shared mutable metrics object.
func EvaluateAlerts(s Snapshot) []Alert {
	var alerts []Alert
	if s.ToolExecutions > 0 {
		rate := float64(s.ToolErrors) / float64(s.ToolExecutions)
		if rate > 0.2 {
			alerts = append(alerts, Alert{Name: "tool_error_rate", Message: "tool error rate exceeds 20%"})
		}
	}
	if s.LLMCalls > 0 {
		rate := float64(s.LLMErrors) / float64(s.LLMCalls)
		if rate > 0.3 {
			alerts = append(alerts, Alert{Name: "llm_error_rate", Message: "LLM error rate exceeds 30%"})
		}
	}
	if s.MemoryDropped > 50 {
		alerts = append(alerts, Alert{Name: "memory_drop_backlog", Message: "memory extraction drop count exceeds 50"})
	}
	return alerts
}
