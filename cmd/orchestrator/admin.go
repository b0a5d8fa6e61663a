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

package main

import (
	"encoding/json"
	"net/http"

	"github.com/dirkdd/OneVice-sub002/pkg/memory"
)

// consolidationRequest is the wire shape the batch job that computes
// embeddings for a user's long-term items posts to /admin/consolidate.
// The orchestrator itself never retains a user's full embedding set
// (only the transient ones from a single turn), so the sweep's inputs
// come from outside rather than being recomputed here.
type consolidationRequest struct {
	UserID     string               `json:"user_id"`
	Candidates []memory.Item        `json:"candidates"`
	Embeddings map[string][]float32 `json:"embeddings"`
}

type consolidationHandler struct {
	consolidator *memory.Consolidator
}

func newConsolidationHandler(c *memory.Consolidator) http.Handler {
	return &consolidationHandler{consolidator: c}
}

func (h *consolidationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	var req consolidationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.consolidator.RunSweep(r.Context(), req.UserID, req.Candidates, req.Embeddings); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
