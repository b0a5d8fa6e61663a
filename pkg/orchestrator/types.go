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

// Package orchestrator is the supervisor sitting in front of pkg/agent:
// it classifies an incoming message, dispatches to one agent graph or
// fans out to several and merges their answers, and owns the per-
// conversation cancellation scope the websocket layer cancels into.
package orchestrator

// AgentType names one of the registered agent graphs. Values match
// agent.Variant.AgentType exactly, so a Graph registered under one can
// be looked up by the other.
type AgentType string

const (
	AgentSales     AgentType = "sales"
	AgentTalent    AgentType = "talent"
	AgentAnalytics AgentType = "analytics"
)

// AllAgentTypes enumerates every registered agent type, in a fixed
// order, for the case where the rule classifier finds no signal at all
// and every agent must be consulted.
func AllAgentTypes() []AgentType {
	return []AgentType{AgentSales, AgentTalent, AgentAnalytics}
}

// genericUnavailableMessage is returned when every fanned-out agent
// failed or timed out, so the caller still gets a response rather than
// an error that would surface as a dead turn.
const genericUnavailableMessage = "I couldn't reach the agents needed to answer that right now. Please try again in a moment."
