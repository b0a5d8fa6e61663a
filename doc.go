// Package onevice is the AI orchestration core for OneVice's
// entertainment-industry business intelligence hub: a multi-agent
// conversational engine that routes turns across LLM providers, answers
// questions by calling tools over a property-graph knowledge base,
// carries working/episodic/semantic memory per user, enforces
// role-and-sensitivity access control on everything it returns, and
// streams responses to clients over a websocket session protocol.
//
// # Packages
//
// pkg/orchestrator dispatches an authenticated turn to one of three
// domain agents (sales, talent, analytics); pkg/agent runs each agent's
// retrieve-reason-call-tools-respond loop; pkg/tools holds the
// RBAC-gated graph and vector-search tools the agents call; pkg/llms
// routes each call across Ollama, Anthropic, and OpenAI by task
// complexity and data sensitivity; pkg/memory holds the working,
// episodic, and semantic memory tiers plus the background extraction
// and consolidation workers; pkg/rbac and pkg/principal carry the
// role/data-access model every tool and memory read is checked against;
// pkg/graph and pkg/vectorstore are the knowledge base's two storage
// faces; pkg/session is the websocket frame protocol cmd/orchestrator
// serves.
//
// cmd/orchestrator is the server binary. cmd/crm-ingest is a thin stub
// demonstrating how an external CRM feed's deal records get upserted
// into the knowledge graph.
package onevice
