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
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirkdd/OneVice-sub002/pkg/agent"
	"github.com/dirkdd/OneVice-sub002/pkg/auth"
	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
	"github.com/dirkdd/OneVice-sub002/pkg/orchestrator"
	"github.com/dirkdd/OneVice-sub002/pkg/principal"
)

type fakeVerifier struct {
	principal principal.Principal
	err       error
}

func (f fakeVerifier) Verify(ctx context.Context, bearerToken string) (principal.Principal, error) {
	return f.principal, f.err
}

type fakeDispatcher struct {
	response        agent.Response
	err             error
	lastConvID      string
	lastMessage     string
	lastPreferred   *orchestrator.AgentType
	cancelledConvID string
}

func (f *fakeDispatcher) Handle(ctx context.Context, p principal.Principal, conversationID, userMessage string, preferredAgent *orchestrator.AgentType) (agent.Response, error) {
	f.lastConvID = conversationID
	f.lastMessage = userMessage
	f.lastPreferred = preferredAgent
	return f.response, f.err
}

func (f *fakeDispatcher) Cancel(conversationID string) bool {
	f.cancelledConvID = conversationID
	return true
}

func newTestSession(verifier auth.IdentityVerifier, orch Dispatcher) *Session {
	return &Session{
		id:       "test-session",
		verifier: verifier,
		orch:     orch,
		log:      slog.Default(),
		outbox:   make(chan outboundFrame, outboxCapacity),
		closed:   make(chan struct{}),
	}
}

func drainOne(t *testing.T, s *Session) outboundFrame {
	t.Helper()
	select {
	case f := <-s.outbox:
		return f
	default:
		t.Fatal("expected a frame on the outbox, found none")
		return outboundFrame{}
	}
}

func TestHandleAuthSuccess(t *testing.T) {
	want := principal.Principal{ID: "user-1", Role: principal.RoleSalesperson, DataAccessLevel: 3}
	s := newTestSession(fakeVerifier{principal: want}, &fakeDispatcher{})

	data, err := json.Marshal(authFrame{Type: FrameAuth, Token: "a-token"})
	require.NoError(t, err)

	s.handleAuth(context.Background(), data)

	assert.True(t, s.authenticated)
	assert.Equal(t, want, s.principal)
	frame := drainOne(t, s)
	assert.Equal(t, FrameAuthSuccess, frame.Type)
}

func TestHandleAuthMissingToken(t *testing.T) {
	s := newTestSession(fakeVerifier{}, &fakeDispatcher{})

	data, err := json.Marshal(authFrame{Type: FrameAuth, Token: ""})
	require.NoError(t, err)

	s.handleAuth(context.Background(), data)

	assert.False(t, s.authenticated)
	frame := drainOne(t, s)
	assert.Equal(t, FrameAuthError, frame.Type)
}

func TestHandleAuthVerifierRejects(t *testing.T) {
	s := newTestSession(fakeVerifier{err: errkind.New(errkind.Unauthorized, "test", assertErr("bad token"))}, &fakeDispatcher{})

	data, err := json.Marshal(authFrame{Type: FrameAuth, Token: "bad"})
	require.NoError(t, err)

	s.handleAuth(context.Background(), data)

	assert.False(t, s.authenticated)
	frame := drainOne(t, s)
	assert.Equal(t, FrameAuthError, frame.Type)
}

func TestRequireAuthenticatedRejectsBeforeAuth(t *testing.T) {
	s := newTestSession(fakeVerifier{}, &fakeDispatcher{})

	ok := s.requireAuthenticated(context.Background())

	assert.False(t, ok)
	frame := drainOne(t, s)
	assert.Equal(t, FrameError, frame.Type)
	assert.Equal(t, "unauthenticated", frame.Code)
}

func TestHandleUserMessageRejectsWhenBusy(t *testing.T) {
	s := newTestSession(fakeVerifier{}, &fakeDispatcher{})
	s.authenticated = true
	s.busy = true

	data, err := json.Marshal(userMessageFrame{Type: FrameUserMessage, Content: "hello"})
	require.NoError(t, err)

	s.handleUserMessage(context.Background(), data)

	frame := drainOne(t, s)
	assert.Equal(t, FrameError, frame.Type)
	assert.Equal(t, "busy", frame.Code)
	assert.True(t, s.busy, "busy flag set by the caller must not be cleared by a rejected turn")
}

func TestHandleUserMessageDispatchesAndClearsBusy(t *testing.T) {
	dispatcher := &fakeDispatcher{response: agent.Response{
		Content:   "abcdefghij",
		AgentType: "sales",
		Provider:  "anthropic",
	}}
	s := newTestSession(fakeVerifier{}, dispatcher)
	s.authenticated = true
	s.principal = principal.Principal{ID: "user-1"}

	data, err := json.Marshal(userMessageFrame{Type: FrameUserMessage, ConversationID: "conv-1", Content: "hello"})
	require.NoError(t, err)

	s.handleUserMessage(context.Background(), data)

	assert.False(t, s.busy)
	assert.Equal(t, "conv-1", dispatcher.lastConvID)
	assert.Equal(t, "hello", dispatcher.lastMessage)
	assert.Nil(t, dispatcher.lastPreferred)

	var frames []outboundFrame
collect:
	for {
		select {
		case f := <-s.outbox:
			frames = append(frames, f)
		default:
			break collect
		}
	}
	require.NotEmpty(t, frames)
	final := frames[len(frames)-1]
	assert.Equal(t, FrameAssistantFinal, final.Type)
	data2, ok := final.Data.(assistantFinalData)
	require.True(t, ok)
	assert.Equal(t, "abcdefghij", data2.Content)
	assert.Equal(t, "sales", data2.AgentType)
	assert.Equal(t, "anthropic", data2.Provider)

	for _, f := range frames[:len(frames)-1] {
		assert.Equal(t, FrameAssistantDelta, f.Type)
		assert.Equal(t, "conv-1", f.ConversationID)
	}

	var seqs []uint64
	for _, f := range frames {
		seqs = append(seqs, f.Seq)
	}
	for i := 1; i < len(seqs); i++ {
		assert.Greater(t, seqs[i], seqs[i-1], "seq must be strictly increasing within one turn")
	}
}

func TestHandleUserMessageHonorsAgentPreference(t *testing.T) {
	dispatcher := &fakeDispatcher{response: agent.Response{Content: "hi"}}
	s := newTestSession(fakeVerifier{}, dispatcher)
	s.authenticated = true

	data, err := json.Marshal(userMessageFrame{Type: FrameUserMessage, ConversationID: "conv-2", Content: "hi", AgentPreference: "talent"})
	require.NoError(t, err)

	s.handleUserMessage(context.Background(), data)

	require.NotNil(t, dispatcher.lastPreferred)
	assert.Equal(t, orchestrator.AgentTalent, *dispatcher.lastPreferred)
}

func TestHandleCancelForwardsConversationID(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	s := newTestSession(fakeVerifier{}, dispatcher)

	data, err := json.Marshal(cancelFrame{Type: FrameCancel, ConversationID: "conv-3"})
	require.NoError(t, err)

	s.handleCancel(data)

	assert.Equal(t, "conv-3", dispatcher.cancelledConvID)
}

func TestNextSeqMonotonic(t *testing.T) {
	s := newTestSession(fakeVerifier{}, &fakeDispatcher{})
	first := s.nextSeq()
	second := s.nextSeq()
	assert.Greater(t, second, first)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
