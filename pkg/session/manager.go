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
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/dirkdd/OneVice-sub002/pkg/auth"
)

// Manager is the one websocket endpoint's HTTP entry point: it accepts
// the upgrade, wraps the connection in a Session, and serves it until
// the client disconnects. There is no registry of live sessions here,
// unlike a fan-out notification manager, since nothing outside a
// session's own goroutines ever needs to reach into it; cancellation
// travels through pkg/orchestrator keyed by conversation_id, not through
// this type.
type Manager struct {
	verifier     auth.IdentityVerifier
	orch         Dispatcher
	log          *slog.Logger
	allowOrigins []string
}

// NewManager builds a Manager. allowOrigins, when non-empty, is passed
// through to websocket.AcceptOptions.OriginPatterns; an empty list
// accepts same-origin requests only.
func NewManager(verifier auth.IdentityVerifier, orch Dispatcher, log *slog.Logger, allowOrigins []string) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{verifier: verifier, orch: orch, log: log, allowOrigins: allowOrigins}
}

// ServeHTTP upgrades the request to a websocket connection and blocks
// serving it for the connection's lifetime.
func (m *Manager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: m.allowOrigins,
	})
	if err != nil {
		m.log.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	sess := New(conn, m.verifier, m.orch, m.log)
	sess.Serve(r.Context())
}
