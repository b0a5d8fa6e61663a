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

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/dirkdd/OneVice-sub002/pkg/agent"
	"github.com/dirkdd/OneVice-sub002/pkg/auth"
	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
	"github.com/dirkdd/OneVice-sub002/pkg/orchestrator"
	"github.com/dirkdd/OneVice-sub002/pkg/principal"
)

// outboxCapacity is the fixed buffer the manager allows a slow client
// before it drops the stream.
const outboxCapacity = 256

// Dispatcher is the seam Session depends on instead of the concrete
// *orchestrator.Orchestrator, so tests can drive a session's protocol
// handling with a fake instead of standing up a live router, graph set,
// and cache. *orchestrator.Orchestrator satisfies this directly.
type Dispatcher interface {
	Handle(ctx context.Context, p principal.Principal, conversationID, userMessage string, preferredAgent *orchestrator.AgentType) (agent.Response, error)
	Cancel(conversationID string) bool
}

// Session owns one authenticated websocket connection. Reads come in on
// a dedicated goroutine; writes are all serialized through a single
// writer goroutine fed by a bounded channel, the same single-writer-
// per-connection shape used elsewhere in the pack for realtime
// sessions, here adapted to the server side instead of the client.
type Session struct {
	id       string
	conn     *websocket.Conn
	verifier auth.IdentityVerifier
	orch     Dispatcher
	log      *slog.Logger

	outbox chan outboundFrame

	mu            sync.Mutex
	principal     principal.Principal
	authenticated bool
	busy          bool

	seq atomic.Uint64

	closeOnce sync.Once
	closed    chan struct{}
}

// New wraps an already-accepted websocket connection. The caller (the
// Manager's HTTP handler) owns conn's lifetime up to this point; Serve
// takes it from here.
func New(conn *websocket.Conn, verifier auth.IdentityVerifier, orch Dispatcher, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		id:       uuid.NewString(),
		conn:     conn,
		verifier: verifier,
		orch:     orch,
		log:      log,
		outbox:   make(chan outboundFrame, outboxCapacity),
		closed:   make(chan struct{}),
	}
}

// Serve runs the session until the connection closes, ctx is cancelled,
// or a protocol violation ends it. It blocks until both the read and
// write sides have stopped.
func (s *Session) Serve(ctx context.Context) {
	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writeLoop(sessCtx)
	}()

	s.readLoop(sessCtx, cancel)
	wg.Wait()
}

// writeLoop is the connection's single writer: every outbound frame,
// regardless of which goroutine produced it, passes through here so
// writes are never interleaved.
func (s *Session) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-s.outbox:
			if !ok {
				return
			}
			data, err := json.Marshal(frame)
			if err != nil {
				s.log.Error("failed to marshal outbound frame", "type", frame.Type, "error", err)
				continue
			}
			if err := s.conn.Write(ctx, websocket.MessageText, data); err != nil {
				s.close()
				return
			}
		}
	}
}

// readLoop decodes inbound frames one at a time and dispatches each to
// its handler. user_message handling spawns its own goroutine (a turn
// can run for the length of an LLM call) but read/dispatch itself stays
// sequential, so frames are processed in the order the client sent them.
func (s *Session) readLoop(ctx context.Context, cancel context.CancelFunc) {
	defer s.close()
	defer cancel()

	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			return
		}

		var env inboundEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.sendError(ctx, "bad_frame", "could not parse frame")
			continue
		}

		switch env.Type {
		case FrameAuth:
			s.handleAuth(ctx, data)
		case FramePing:
			s.send(ctx, outboundFrame{Type: FramePong})
		case FrameUserMessage:
			if !s.requireAuthenticated(ctx) {
				continue
			}
			go s.handleUserMessage(ctx, data)
		case FrameCancel:
			if !s.requireAuthenticated(ctx) {
				continue
			}
			s.handleCancel(data)
		default:
			s.sendError(ctx, "unknown_frame_type", fmt.Sprintf("unrecognized frame type %q", env.Type))
		}
	}
}

func (s *Session) handleAuth(ctx context.Context, data []byte) {
	var frame authFrame
	if err := json.Unmarshal(data, &frame); err != nil || frame.Token == "" {
		s.send(ctx, outboundFrame{Type: FrameAuthError, Message: "missing token"})
		return
	}

	p, err := s.verifier.Verify(ctx, frame.Token)
	if err != nil {
		s.send(ctx, outboundFrame{Type: FrameAuthError, Message: "authentication failed"})
		return
	}

	s.mu.Lock()
	s.principal = p
	s.authenticated = true
	s.mu.Unlock()

	s.send(ctx, outboundFrame{Type: FrameAuthSuccess})
}

// requireAuthenticated rejects a frame that needs a principal before an
// auth frame has succeeded; an unauthenticated session may only ping.
func (s *Session) requireAuthenticated(ctx context.Context) bool {
	s.mu.Lock()
	ok := s.authenticated
	s.mu.Unlock()
	if !ok {
		s.sendError(ctx, "unauthenticated", "send an auth frame before this")
	}
	return ok
}

// handleUserMessage runs one full turn through the orchestrator. Only
// one turn may be in flight per session at a time; a second concurrent
// user_message is rejected with busy rather than queued.
func (s *Session) handleUserMessage(ctx context.Context, data []byte) {
	var frame userMessageFrame
	if err := json.Unmarshal(data, &frame); err != nil || frame.Content == "" {
		s.sendError(ctx, "bad_frame", "user_message requires content")
		return
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		s.sendError(ctx, "busy", "a turn is already in progress on this session")
		return
	}
	s.busy = true
	p := s.principal
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	conversationID := frame.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	var preferred *orchestrator.AgentType
	if frame.AgentPreference != "" {
		t := orchestrator.AgentType(frame.AgentPreference)
		preferred = &t
	}

	resp, err := s.orch.Handle(ctx, p, conversationID, frame.Content, preferred)
	if err != nil {
		if errkind.Is(err, errkind.Cancelled) {
			s.send(ctx, outboundFrame{
				Type:           FrameAssistantFinal,
				ConversationID: conversationID,
				Seq:            s.nextSeq(),
				Data:           assistantFinalData{Cancelled: true},
			})
			return
		}
		s.sendError(ctx, "turn_failed", "I ran into a problem answering that. Please try again.")
		return
	}

	for _, chunk := range chunkContent(resp.Content, deltaChunkSize) {
		s.send(ctx, outboundFrame{
			Type:           FrameAssistantDelta,
			ConversationID: conversationID,
			Seq:            s.nextSeq(),
			Data:           assistantDeltaData{ContentChunk: chunk},
		})
	}

	toolCalls := make([]toolCallOut, 0, len(resp.ToolTrace))
	for _, t := range resp.ToolTrace {
		toolCalls = append(toolCalls, toolCallOut{Tool: t.Tool, Status: t.Status, Summary: t.Summary})
	}

	s.send(ctx, outboundFrame{
		Type:           FrameAssistantFinal,
		ConversationID: conversationID,
		Seq:            s.nextSeq(),
		Data: assistantFinalData{
			Content:   resp.Content,
			AgentType: resp.AgentType,
			Provider:  resp.Provider,
			Usage:     resp.Usage,
			Cancelled: resp.Cancelled,
			ToolCalls: toolCalls,
		},
	})
}

func (s *Session) handleCancel(data []byte) {
	var frame cancelFrame
	if err := json.Unmarshal(data, &frame); err != nil || frame.ConversationID == "" {
		return
	}
	s.orch.Cancel(frame.ConversationID)
}

func (s *Session) nextSeq() uint64 {
	return s.seq.Add(1)
}

// send enqueues a frame on the bounded outbox, never blocking the
// caller on a slow client: an outbox already at capacity means the
// client isn't draining fast enough, so the stream is torn down with an
// error rather than letting one slow reader stall every other goroutine
// writing into this session.
func (s *Session) send(ctx context.Context, frame outboundFrame) {
	select {
	case <-s.closed:
		return
	default:
	}

	select {
	case s.outbox <- frame:
	case <-s.closed:
	default:
		s.log.Warn("session outbox full, dropping stream", "session_id", s.id)
		select {
		case s.outbox <- outboundFrame{Type: FrameError, Code: "backpressure", Message: "client too slow, closing"}:
		default:
		}
		s.close()
	}
}

func (s *Session) sendError(ctx context.Context, code, message string) {
	s.send(ctx, outboundFrame{Type: FrameError, Code: code, Message: message})
}

// close is idempotent; it may be called from the write loop (on a write
// failure), the read loop (on connection end), or send (on
// backpressure). It never closes outbox: a send racing with close would
// panic writing to a closed channel, so the writer side just stops
// draining it once closed fires and it's garbage collected with the
// session.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.conn.Close(websocket.StatusNormalClosure, "session closed")
	})
}
