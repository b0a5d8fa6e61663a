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

// Package session implements the websocket protocol in front of
// pkg/orchestrator: one long-lived, authenticated, bidirectional
// connection per user, carrying newline-delimited JSON frames.
package session

import "github.com/dirkdd/OneVice-sub002/pkg/llms"

// Inbound frame types.
const (
	FrameAuth        = "auth"
	FrameUserMessage = "user_message"
	FrameCancel      = "cancel"
	FramePing        = "ping"
)

// Outbound frame types.
const (
	FrameAuthSuccess    = "auth_success"
	FrameAuthError      = "auth_error"
	FrameAssistantDelta = "assistant_delta"
	FrameAssistantFinal = "assistant_final"
	FrameError          = "error"
	FramePong           = "pong"
	FrameStatus         = "status"
)

// inboundEnvelope is parsed once to read type and conversation_id; the
// frame-specific payload is then unmarshaled into its own struct.
type inboundEnvelope struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type authFrame struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type userMessageFrame struct {
	Type            string         `json:"type"`
	ConversationID  string         `json:"conversation_id,omitempty"`
	Content         string         `json:"content"`
	AgentPreference string         `json:"agent_preference,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

type cancelFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
}

// outboundFrame is the single wire shape every outbound message marshals
// through; data is frame-type specific and left as `any` since the
// frame types have nothing else in common.
type outboundFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
	Seq            uint64 `json:"seq,omitempty"`
	Code           string `json:"code,omitempty"`
	Message        string `json:"message,omitempty"`
	Data           any    `json:"data,omitempty"`
}

type assistantDeltaData struct {
	ContentChunk string `json:"content_chunk"`
}

type assistantFinalData struct {
	Content   string        `json:"content"`
	AgentType string        `json:"agent_type"`
	Provider  string        `json:"provider"`
	Model     string        `json:"model,omitempty"`
	Usage     llms.Usage    `json:"usage"`
	Cancelled bool          `json:"cancelled,omitempty"`
	ToolCalls []toolCallOut `json:"tool_calls,omitempty"`
}

type toolCallOut struct {
	Tool    string `json:"tool"`
	Status  string `json:"status"`
	Summary string `json:"summary"`
}

// deltaChunkSize is how many runes of the final content go into each
// assistant_delta frame. agent.Graph.Run only ever returns complete
// text (the tool-call loop needs the whole response to detect
// TOOL_CALLS: lines), so streaming here means chunking the finished
// answer rather than relaying provider-level token events.
const deltaChunkSize = 80

func chunkContent(content string, size int) []string {
	if content == "" {
		return nil
	}
	runes := []rune(content)
	chunks := make([]string, 0, (len(runes)/size)+1)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
