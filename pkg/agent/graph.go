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

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dirkdd/OneVice-sub002/pkg/cache"
	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
	"github.com/dirkdd/OneVice-sub002/pkg/llms"
	"github.com/dirkdd/OneVice-sub002/pkg/memory"
	"github.com/dirkdd/OneVice-sub002/pkg/principal"
	"github.com/dirkdd/OneVice-sub002/pkg/tools"
)

// maxToolFanOut bounds concurrent tool invocations within one route_tools
// step. maxSteps bounds how many (route_tools, call_llm) round trips one
// turn may take before the graph forces a final answer.
const (
	maxToolFanOut = 4
	maxSteps      = 6

	memoryTopK       = 10
	memoryAttachTopN = 5
	toolTimeout      = 10 * time.Second
)

// Graph runs one agent variant's state machine over a shared tool
// registry, LLM router, and memory subsystem. Variants differ only in
// the Variant value a Graph is constructed with: SalesAgent,
// TalentAgent, and AnalyticsAgent are composition, not subtyping.
type Graph struct {
	variant     Variant
	tools       *tools.Registry
	router      *llms.Router
	context     *memory.ContextCache
	longTerm    *memory.LongTermManager
	checkpoints *memory.CheckpointStore
	cache       *cache.Client
	log         *slog.Logger
}

// NewGraph builds a Graph for one agent variant over the shared core
// components.
func NewGraph(
	variant Variant,
	toolRegistry *tools.Registry,
	router *llms.Router,
	contextCache *memory.ContextCache,
	longTerm *memory.LongTermManager,
	checkpoints *memory.CheckpointStore,
	c *cache.Client,
) *Graph {
	return &Graph{
		variant:     variant,
		tools:       toolRegistry,
		router:      router,
		context:     contextCache,
		longTerm:    longTerm,
		checkpoints: checkpoints,
		cache:       c,
		log:         slog.Default().With("agent_type", variant.AgentType),
	}
}

// Run executes one full turn: initialize, load_memory, classify, a
// bounded route_tools/call_llm loop, respond, persist. A non-nil error
// return means a node failed; Response.Content is always set to a
// generic, user-safe message in that case so a caller can surface
// something without risking a leaked internal error string.
func (g *Graph) Run(ctx context.Context, p principal.Principal, conversationID, userMessage string) (Response, error) {
	turnCtx, recentTurns, err := g.initialize(ctx, conversationID)
	if err != nil {
		return Response{Content: genericFailureMessage}, fmt.Errorf("agent.Graph.Run: initialize: %w", err)
	}

	memoryMessage, err := g.loadMemory(ctx, p, userMessage)
	if err != nil {
		if errkind.Is(err, errkind.Cancelled) {
			return g.respond("", "", llms.Usage{}, nil, 0, ClassifyDirectAnswer, true), nil
		}
		return Response{Content: genericFailureMessage}, fmt.Errorf("agent.Graph.Run: load_memory: %w", err)
	}

	classification := classifyTurn(userMessage, len(g.variant.AllowedTools) > 0)

	if classification == ClassifyClarify {
		return Response{
			Content:    "Could you say a bit more about what you're looking for?",
			Classified: classification,
		}, nil
	}

	messages := buildMessages(g.variant.SystemPrompt, memoryMessage, recentTurns, userMessage)

	var (
		finalContent string
		provider     string
		usage        llms.Usage
		trace        []ToolOutcome
		steps        int
		cancelled    bool
	)

	if classification == ClassifyDirectAnswer {
		resp, providerName, err := g.router.Complete(ctx, llms.CompleteRequest{
			Messages:         messages,
			ComplexityInput:  llms.ComplexityInput{Messages: messages, AgentType: g.variant.AgentType},
			ModelPreferences: g.variant.ModelPreferences,
			Principal:        p,
		})
		if err != nil {
			if errkind.Is(err, errkind.Cancelled) {
				cancelled = true
			} else {
				return Response{Content: genericFailureMessage}, fmt.Errorf("agent.Graph.Run: call_llm: %w", err)
			}
		} else {
			finalContent, provider, usage, steps = resp.Content, providerName, resp.Usage, 1
		}
	} else {
		finalContent, provider, usage, trace, steps, cancelled, err = g.toolLoop(ctx, p, messages)
		if err != nil {
			return Response{Content: genericFailureMessage}, fmt.Errorf("agent.Graph.Run: tool loop: %w", err)
		}
	}

	response := g.respond(finalContent, provider, usage, trace, steps, classification, cancelled)

	if err := g.persist(ctx, conversationID, p.ID, userMessage, response); err != nil {
		g.log.Warn("persist failed, response still returned to caller", "conversation_id", conversationID, "error", err)
	}

	return response, nil
}

// initialize hydrates the conversation's recently cached turns; a cache
// miss (never started, or expired) is not a failure, just an empty
// history.
func (g *Graph) initialize(ctx context.Context, conversationID string) (context.Context, []memory.Turn, error) {
	cached, err := g.context.Get(ctx, conversationID)
	if errkind.Is(err, errkind.NotFound) {
		return ctx, nil, nil
	}
	if err != nil {
		return ctx, nil, err
	}
	return ctx, cached.RecentTurns, nil
}

// loadMemory embeds the user's message once, retrieves the closest
// long-term items, re-ranks them by this variant's memory-type weights,
// and renders the top few as a synthesized system message. An empty
// result (no memories yet) is not an error.
func (g *Graph) loadMemory(ctx context.Context, p principal.Principal, userMessage string) (string, error) {
	vectors, _, err := g.router.Embed(ctx, []string{userMessage}, p)
	if err != nil {
		return "", err
	}
	if len(vectors) == 0 {
		return "", errkind.New(errkind.DataIntegrity, "agent.Graph.loadMemory", nil)
	}

	scored, err := g.longTerm.SearchScored(ctx, p.ID, vectors[0], memoryTopK, 0)
	if err != nil {
		return "", err
	}
	if len(scored) == 0 {
		return "", nil
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return float64(scored[i].Score)*g.variant.weightFor(scored[i].Item.Type) >
			float64(scored[j].Score)*g.variant.weightFor(scored[j].Item.Type)
	})
	if len(scored) > memoryAttachTopN {
		scored = scored[:memoryAttachTopN]
	}

	var b strings.Builder
	b.WriteString("Relevant memory about this user:\n")
	for _, s := range scored {
		b.WriteString("- ")
		b.WriteString(s.Item.Content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// toolLoop runs the bounded (route_tools, call_llm) loop: each iteration
// asks the model for either a final answer or a set of tool calls,
// executes requested calls (bounded fan-out, RBAC already enforced by
// tools.Registry.Execute), and feeds results back as tool messages.
func (g *Graph) toolLoop(ctx context.Context, p principal.Principal, messages []llms.Message) (string, string, llms.Usage, []ToolOutcome, int, bool, error) {
	messages = append(messages, llms.Message{Role: llms.RoleSystem, Content: g.toolInstructions()})

	var trace []ToolOutcome
	for step := 0; step < maxSteps; step++ {
		if ctx.Err() != nil {
			return "", "", llms.Usage{}, trace, step, true, nil
		}

		resp, providerName, err := g.router.Complete(ctx, llms.CompleteRequest{
			Messages:         messages,
			ComplexityInput:  llms.ComplexityInput{Messages: messages, AgentType: g.variant.AgentType, HasToolRequests: true},
			ModelPreferences: g.variant.ModelPreferences,
			Principal:        p,
		})
		if err != nil {
			if errkind.Is(err, errkind.Cancelled) {
				return "", "", llms.Usage{}, trace, step, true, nil
			}
			return "", "", llms.Usage{}, trace, step, false, err
		}

		calls := parseToolCalls(resp.Content)
		if len(calls) == 0 {
			return resp.Content, providerName, resp.Usage, trace, step + 1, false, nil
		}

		messages = append(messages, llms.Message{Role: llms.RoleAssistant, Content: resp.Content})

		outcomes := g.runTools(ctx, p, calls)
		trace = append(trace, outcomes...)
		for _, o := range outcomes {
			encoded := fmt.Sprintf(`{"tool": %q, "status": %q, "summary": %q}`, o.Tool, o.Status, o.Summary)
			messages = append(messages, llms.Message{Role: llms.RoleTool, Content: encoded})
		}
	}

	// Step budget exhausted: force one more call asking for a final
	// answer instead of more tool calls.
	messages = append(messages, llms.Message{Role: llms.RoleSystem, Content: "Tool budget exhausted. Answer now using what you have."})
	resp, providerName, err := g.router.Complete(ctx, llms.CompleteRequest{
		Messages:         messages,
		ComplexityInput:  llms.ComplexityInput{Messages: messages, AgentType: g.variant.AgentType},
		ModelPreferences: g.variant.ModelPreferences,
		Principal:        p,
	})
	if err != nil {
		if errkind.Is(err, errkind.Cancelled) {
			return "", "", llms.Usage{}, trace, maxSteps, true, nil
		}
		return "", "", llms.Usage{}, trace, maxSteps, false, err
	}
	return resp.Content, providerName, resp.Usage, trace, maxSteps, false, nil
}

// runTools executes every requested call permitted for this variant,
// bounded to maxToolFanOut concurrent calls. Tools not in the variant's
// allowed subset, or that fail, are recorded as error outcomes rather
// than aborting the turn.
func (g *Graph) runTools(ctx context.Context, p principal.Principal, calls []requestedToolCall) []ToolOutcome {
	sem := semaphore.NewWeighted(maxToolFanOut)
	outcomes := make([]ToolOutcome, len(calls))
	var wg sync.WaitGroup

	for i, call := range calls {
		i, call := i, call
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !g.variant.allows(call.Tool) {
				outcomes[i] = ToolOutcome{Tool: call.Tool, Status: "error", Summary: "tool not permitted for this agent"}
				return
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				outcomes[i] = ToolOutcome{Tool: call.Tool, Status: "error", Summary: "cancelled"}
				return
			}
			defer sem.Release(1)

			callCtx, cancel := context.WithTimeout(ctx, toolTimeout)
			defer cancel()

			result, err := g.tools.Execute(callCtx, call.Tool, p, call.Args)
			if err != nil {
				outcomes[i] = ToolOutcome{Tool: call.Tool, Status: "error", Summary: err.Error()}
				return
			}
			if !result.Found {
				outcomes[i] = ToolOutcome{Tool: call.Tool, Status: "ok", Summary: "no matching result"}
				return
			}
			outcomes[i] = ToolOutcome{Tool: call.Tool, Status: "ok", Summary: fmt.Sprintf("%v", result.Data)}
		}()
	}
	wg.Wait()
	return outcomes
}

// toolInstructions renders this variant's permitted tool subset into
// the TOOL_CALLS: convention the model is asked to follow.
func (g *Graph) toolInstructions() string {
	var b strings.Builder
	b.WriteString("You may call tools when you need information you don't already have.\n")
	b.WriteString("Available tools:\n")
	for _, name := range g.variant.AllowedTools {
		info, ok := g.tools.Describe(name)
		if !ok {
			continue
		}
		b.WriteString(fmt.Sprintf("- %s: %s\n", info.Name, info.Description))
	}
	b.WriteString("\nTo call one or more tools, respond with a line \"TOOL_CALLS:\" followed by one JSON object per line:\n")
	b.WriteString(`{"tool": "tool_name", "args": {"param": "value"}}` + "\n")
	b.WriteString("Otherwise, respond with your final answer directly.\n")
	return b.String()
}

// respond finalizes the turn's output. Entity data returned by tools was
// already redacted at tool egress by tools.Registry; this step is the
// second, defensive redaction pass the policy model requires, applied
// here by simply never echoing raw tool Data maps into the final text.
// Only the model's own prose, which only ever saw the already-redacted
// tool summaries, reaches the caller.
func (g *Graph) respond(content, provider string, usage llms.Usage, trace []ToolOutcome, steps int, classification Classification, cancelled bool) Response {
	return Response{
		Content:    strings.TrimSpace(content),
		AgentType:  g.variant.AgentType,
		Provider:   provider,
		Usage:      usage,
		Cancelled:  cancelled,
		ToolTrace:  trace,
		StepsUsed:  steps,
		Classified: classification,
	}
}

// graphState is what persist checkpoints: enough to resume a
// conversation's turn sequence, not the full message history (that
// lives in the context cache and the graph/vector stores).
type graphState struct {
	AgentType string    `json:"agent_type"`
	Response  Response  `json:"response"`
	SavedAt   time.Time `json:"saved_at"`
}

// persist writes a checkpoint for this turn, updates the ephemeral
// context cache with the new turn pair, and enqueues a background
// extraction task, in that order, so extraction is only ever enqueued
// after the turn it draws from is durably recorded.
func (g *Graph) persist(ctx context.Context, conversationID, userID, userMessage string, response Response) error {
	_, latestStep, err := g.checkpoints.Load(ctx, conversationID)
	nextStep := 0
	if err == nil {
		nextStep = latestStep + 1
	} else if !errkind.Is(err, errkind.NotFound) {
		return err
	}

	state := graphState{AgentType: g.variant.AgentType, Response: response, SavedAt: time.Now()}
	encoded, err := memory.MarshalState(state)
	if err != nil {
		return err
	}
	if err := g.checkpoints.Save(ctx, conversationID, nextStep, encoded); err != nil {
		return err
	}

	cached, err := g.context.Get(ctx, conversationID)
	if err != nil && !errkind.Is(err, errkind.NotFound) {
		return err
	}
	now := time.Now()
	cached.RecentTurns = append(cached.RecentTurns,
		memory.Turn{Role: memory.RoleUser, Content: userMessage, CreatedAt: now},
		memory.Turn{Role: memory.RoleAssistant, Content: response.Content, CreatedAt: now},
	)
	if err := g.context.Put(ctx, conversationID, cached); err != nil {
		return err
	}

	task := memory.Task{
		Kind:           memory.TaskExtractMemory,
		ConversationID: conversationID,
		UserID:         userID,
		Priority:       0,
		EnqueuedAt:     now.Unix(),
	}
	encodedTask, err := memory.MarshalState(task)
	if err != nil {
		return err
	}
	return g.cache.ZAdd(ctx, cache.BackgroundTasksKey, cache.TaskScore(task.Priority, task.EnqueuedAt), string(encodedTask))
}

// buildMessages assembles the message list a call_llm invocation starts
// from: system prompt, synthesized memory (if any), recent turns, then
// the new user message.
func buildMessages(systemPrompt, memoryMessage string, recentTurns []memory.Turn, userMessage string) []llms.Message {
	messages := []llms.Message{{Role: llms.RoleSystem, Content: systemPrompt}}
	if memoryMessage != "" {
		messages = append(messages, llms.Message{Role: llms.RoleSystem, Content: memoryMessage})
	}
	for _, t := range recentTurns {
		messages = append(messages, llms.Message{Role: llms.Role(t.Role), Content: t.Content})
	}
	messages = append(messages, llms.Message{Role: llms.RoleUser, Content: userMessage})
	return messages
}
