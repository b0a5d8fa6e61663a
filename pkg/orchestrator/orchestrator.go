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

package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dirkdd/OneVice-sub002/pkg/agent"
	"github.com/dirkdd/OneVice-sub002/pkg/cache"
	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
	"github.com/dirkdd/OneVice-sub002/pkg/llms"
	"github.com/dirkdd/OneVice-sub002/pkg/principal"
)

const (
	multiAgentMaxFanOut    = 3
	multiAgentFanOutWindow = 30 * time.Second

	dispatchLockTTL          = 2 * time.Minute
	dispatchLockPollInterval = 25 * time.Millisecond
)

// Orchestrator classifies incoming turns, dispatches to one or more
// agent graphs, merges multi-agent output, and owns per-conversation
// cancellation.
type Orchestrator struct {
	graphs map[AgentType]*agent.Graph
	router *llms.Router
	cache  *cache.Client
	log    *slog.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// New builds an Orchestrator over one agent.Graph per registered
// AgentType.
func New(graphs map[AgentType]*agent.Graph, router *llms.Router, c *cache.Client) *Orchestrator {
	return &Orchestrator{
		graphs:  graphs,
		router:  router,
		cache:   c,
		log:     slog.Default(),
		cancels: make(map[string]context.CancelFunc),
	}
}

// Handle classifies and dispatches one turn, serializing dispatch for
// conversationID against any other turn already in flight for the same
// conversation. preferredAgent, when non-nil, skips classification
// entirely and forces single-agent dispatch to that type.
func (o *Orchestrator) Handle(ctx context.Context, p principal.Principal, conversationID, userMessage string, preferredAgent *AgentType) (agent.Response, error) {
	turnCtx, cancel := context.WithCancel(ctx)
	o.registerCancel(conversationID, cancel)
	defer func() {
		o.clearCancel(conversationID)
		cancel()
	}()

	token := uuid.NewString()
	lockKey := cache.DispatchLockKey(conversationID)
	if err := o.acquireDispatchLock(turnCtx, lockKey, token); err != nil {
		return agent.Response{}, err
	}
	defer func() {
		if err := o.cache.ReleaseLock(ctx, lockKey, token); err != nil {
			o.log.Warn("failed to release dispatch lock", "conversation_id", conversationID, "error", err)
		}
	}()

	var types []AgentType
	if preferredAgent != nil {
		types = []AgentType{*preferredAgent}
	} else {
		var err error
		types, err = o.classify(turnCtx, p, userMessage)
		if err != nil {
			return agent.Response{}, fmt.Errorf("orchestrator.Orchestrator.Handle: classify: %w", err)
		}
	}
	if len(types) > multiAgentMaxFanOut {
		types = types[:multiAgentMaxFanOut]
	}

	if len(types) == 1 {
		g, ok := o.graphs[types[0]]
		if !ok {
			return agent.Response{}, errkind.New(errkind.NotFound, "orchestrator.Orchestrator.Handle",
				fmt.Errorf("agent type %q not registered", types[0]))
		}
		return g.Run(turnCtx, p, conversationID, userMessage)
	}

	return o.dispatchMulti(turnCtx, p, conversationID, userMessage, types)
}

// Cancel cascades cancellation to whatever turn is currently in flight
// for conversationID. It reports whether a turn was actually in flight.
func (o *Orchestrator) Cancel(conversationID string) bool {
	o.mu.Lock()
	cancel, ok := o.cancels[conversationID]
	o.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

func (o *Orchestrator) registerCancel(conversationID string, cancel context.CancelFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancels[conversationID] = cancel
}

func (o *Orchestrator) clearCancel(conversationID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.cancels, conversationID)
}

// acquireDispatchLock polls until it wins the named lock or ctx ends,
// rather than skipping like pkg/memory's consolidation lock does: a
// dispatch must eventually run, never be silently dropped.
func (o *Orchestrator) acquireDispatchLock(ctx context.Context, key, token string) error {
	for {
		ok, err := o.cache.AcquireLock(ctx, key, token, dispatchLockTTL)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return errkind.New(errkind.Cancelled, "orchestrator.Orchestrator.acquireDispatchLock", ctx.Err())
		case <-time.After(dispatchLockPollInterval):
		}
	}
}

// classify runs the rule classifier first; below classifyConfidenceThreshold
// it consults a small LLM call. When the two disagree, both candidates are
// returned (rule's pick first) so Handle dispatches in multi-agent mode
// rather than guessing; the rule's pick is what "preferred on tie" means
// here: it always leads the candidate list.
func (o *Orchestrator) classify(ctx context.Context, p principal.Principal, message string) ([]AgentType, error) {
	ranked := ruleClassify(message)
	if len(ranked) > 0 && ranked[0].Score >= classifyConfidenceThreshold {
		return []AgentType{ranked[0].Type}, nil
	}

	picked, err := o.llmClassify(ctx, p, message)
	if err != nil {
		if len(ranked) == 0 {
			return AllAgentTypes(), nil
		}
		return []AgentType{ranked[0].Type}, nil
	}

	if len(ranked) == 0 {
		return []AgentType{picked}, nil
	}
	if ranked[0].Type == picked {
		return []AgentType{picked}, nil
	}
	return []AgentType{ranked[0].Type, picked}, nil
}

// llmClassify asks a small model to pick exactly one agent type by name
// when the rule classifier's confidence is too low to trust alone.
func (o *Orchestrator) llmClassify(ctx context.Context, p principal.Principal, message string) (AgentType, error) {
	messages := []llms.Message{
		{Role: llms.RoleSystem, Content: "Reply with exactly one word: sales, talent, or analytics, " +
			"whichever best matches the kind of question below."},
		{Role: llms.RoleUser, Content: message},
	}
	resp, _, err := o.router.Complete(ctx, llms.CompleteRequest{
		Messages:        messages,
		ComplexityInput: llms.ComplexityInput{Messages: messages, ExplicitHint: llms.ComplexitySimple},
		Principal:       p,
	})
	if err != nil {
		return "", err
	}

	lower := strings.ToLower(resp.Content)
	switch {
	case strings.Contains(lower, string(AgentSales)):
		return AgentSales, nil
	case strings.Contains(lower, string(AgentTalent)):
		return AgentTalent, nil
	case strings.Contains(lower, string(AgentAnalytics)):
		return AgentAnalytics, nil
	default:
		return "", errkind.New(errkind.DataIntegrity, "orchestrator.Orchestrator.llmClassify",
			fmt.Errorf("model did not name a known agent type: %q", resp.Content))
	}
}

// dispatchMulti fans out to every candidate type in parallel with the
// same prompt, bounded to multiAgentFanOutWindow; any agent that hasn't
// returned by then contributes nothing and is labeled unavailable in
// the merge rather than failing the whole response.
func (o *Orchestrator) dispatchMulti(ctx context.Context, p principal.Principal, conversationID, userMessage string, types []AgentType) (agent.Response, error) {
	fanCtx, cancel := context.WithTimeout(ctx, multiAgentFanOutWindow)
	defer cancel()

	contributions := make([]agentContribution, len(types))
	var wg sync.WaitGroup
	for i, t := range types {
		g, ok := o.graphs[t]
		if !ok {
			contributions[i] = agentContribution{Type: t, Err: fmt.Errorf("agent type %q not registered", t)}
			continue
		}
		i, t, g := i, t, g
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := g.Run(fanCtx, p, conversationID, userMessage)
			contributions[i] = agentContribution{Type: t, Response: resp, Err: err}
		}()
	}
	wg.Wait()

	return o.merge(ctx, p, contributions), nil
}

// agentContribution is one fanned-out agent's result, or the reason it
// didn't produce one.
type agentContribution struct {
	Type     AgentType
	Response agent.Response
	Err      error
}

// merge combines the available contributions into one response via a
// supervisor LLM call. Contributions that errored or timed out are
// labeled unavailable in the prompt rather than dropped silently, and a
// supervisor-call failure falls back to a plain concatenation instead of
// failing the turn outright.
func (o *Orchestrator) merge(ctx context.Context, p principal.Principal, contributions []agentContribution) agent.Response {
	var available []agentContribution
	parts := make([]string, 0, len(contributions))
	for _, c := range contributions {
		if c.Err != nil {
			parts = append(parts, fmt.Sprintf("[%s]: unavailable", c.Type))
			continue
		}
		available = append(available, c)
		parts = append(parts, fmt.Sprintf("[%s]: %s", c.Type, c.Response.Content))
	}

	if len(available) == 0 {
		return agent.Response{Content: genericUnavailableMessage}
	}
	if len(available) == 1 {
		return available[0].Response
	}

	messages := []llms.Message{
		{Role: llms.RoleSystem, Content: "You merge multiple specialist assistants' answers into a single, " +
			"coherent reply for the user. Each answer below is prefixed with its assistant's stable " +
			"[agent_type] label; keep those labels attached to the material they introduced instead of " +
			"blending it into unattributed prose, and carry forward any '[agent_type]: unavailable' " +
			"line exactly as given for an assistant that didn't answer."},
		{Role: llms.RoleUser, Content: strings.Join(parts, "\n\n")},
	}
	resp, _, err := o.router.Complete(ctx, llms.CompleteRequest{
		Messages:        messages,
		ComplexityInput: llms.ComplexityInput{Messages: messages},
		Principal:       p,
	})
	if err != nil {
		o.log.Warn("supervisor merge call failed, falling back to concatenation", "error", err)
		return agent.Response{Content: strings.Join(parts, "\n\n"), ToolTrace: mergedTrace(available)}
	}

	return agent.Response{Content: resp.Content, ToolTrace: mergedTrace(available), StepsUsed: maxSteps(available)}
}

func mergedTrace(contributions []agentContribution) []agent.ToolOutcome {
	var trace []agent.ToolOutcome
	for _, c := range contributions {
		trace = append(trace, c.Response.ToolTrace...)
	}
	return trace
}

func maxSteps(contributions []agentContribution) int {
	max := 0
	for _, c := range contributions {
		if c.Response.StepsUsed > max {
			max = c.Response.StepsUsed
		}
	}
	return max
}
