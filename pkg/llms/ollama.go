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

package llms

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
)

// OllamaConfig configures the primary, lower-cost, open-model provider.
// It talks to a local or self-hosted Ollama daemon over plain HTTP,
// there is no official client SDK, so this adapter is a thin REST
// client, not a standard-library fallback for a concern the ecosystem
// already covers.
type OllamaConfig struct {
	BaseURL string
	// ModelTable maps each Complexity tier to a concrete model name.
	ModelTable map[Complexity]string
}

func (c *OllamaConfig) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:11434"
	}
	if c.ModelTable == nil {
		c.ModelTable = map[Complexity]string{
			ComplexitySimple:   "llama3:8b",
			ComplexityModerate: "llama3:70b",
			ComplexityComplex:  "llama3:70b",
		}
	}
}

type ollamaProvider struct {
	cfg    OllamaConfig
	client *http.Client
}

// NewOllamaProvider builds the Ollama adapter. Ollama is treated as
// untrusted (self-hosted, not contractually bound) by the router's
// sensitivity floor unless explicitly added to the allow-list.
func NewOllamaProvider(cfg OllamaConfig) Provider {
	cfg.SetDefaults()
	return &ollamaProvider{cfg: cfg, client: &http.Client{Timeout: 120 * time.Second}}
}

func (p *ollamaProvider) Name() string  { return "ollama" }
func (p *ollamaProvider) Trusted() bool { return false }
func (p *ollamaProvider) ModelFor(c Complexity) string {
	if m, ok := p.cfg.ModelTable[c]; ok {
		return m
	}
	return p.cfg.ModelTable[ComplexityModerate]
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done            bool `json:"done"`
	PromptEvalCount int  `json:"prompt_eval_count"`
	EvalCount       int  `json:"eval_count"`
}

func toOllamaMessages(msgs []Message) []ollamaChatMessage {
	out := make([]ollamaChatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ollamaChatMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func (p *ollamaProvider) Complete(ctx context.Context, params CompleteParams) (CompleteResponse, error) {
	body, err := json.Marshal(ollamaChatRequest{
		Model:    params.Model,
		Messages: toOllamaMessages(params.Messages),
		Stream:   false,
		Options:  map[string]any{"temperature": params.Temperature},
	})
	if err != nil {
		return CompleteResponse{}, errkind.New(errkind.Validation, "ollama.Complete", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return CompleteResponse{}, errkind.New(errkind.Connection, "ollama.Complete", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return CompleteResponse{}, classifyHTTPError("ollama.Complete", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return CompleteResponse{}, errkind.New(errkind.Connection, "ollama.Complete", fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return CompleteResponse{}, errkind.New(errkind.Validation, "ollama.Complete", fmt.Errorf("status %d", resp.StatusCode))
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return CompleteResponse{}, errkind.New(errkind.Connection, "ollama.Complete.Decode", err)
	}
	return CompleteResponse{
		Content: out.Message.Content,
		Usage:   Usage{PromptTokens: out.PromptEvalCount, CompletionTokens: out.EvalCount},
	}, nil
}

func (p *ollamaProvider) CompleteStream(ctx context.Context, params CompleteParams) (<-chan StreamChunk, error) {
	body, err := json.Marshal(ollamaChatRequest{
		Model:    params.Model,
		Messages: toOllamaMessages(params.Messages),
		Stream:   true,
		Options:  map[string]any{"temperature": params.Temperature},
	})
	if err != nil {
		return nil, errkind.New(errkind.Validation, "ollama.CompleteStream", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, errkind.New(errkind.Connection, "ollama.CompleteStream", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, classifyHTTPError("ollama.CompleteStream", err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, errkind.New(errkind.Connection, "ollama.CompleteStream", fmt.Errorf("status %d", resp.StatusCode))
	}

	out := make(chan StreamChunk, 16)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		var usage Usage
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			default:
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var chunk ollamaChatResponse
			if err := json.Unmarshal([]byte(line), &chunk); err != nil {
				out <- StreamChunk{Err: errkind.New(errkind.Connection, "ollama.CompleteStream.Decode", err)}
				return
			}
			usage = Usage{PromptTokens: chunk.PromptEvalCount, CompletionTokens: chunk.EvalCount}
			if chunk.Done {
				out <- StreamChunk{Final: true, Usage: usage, Provider: p.Name(), Model: params.Model}
				return
			}
			out <- StreamChunk{ContentDelta: chunk.Message.Content}
		}
	}()
	return out, nil
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// ollamaEmbedMu serializes embed requests: Ollama's llama runner crashes
// when receiving concurrent embedding requests against the same model.
var ollamaEmbedMu sync.Mutex

func (p *ollamaProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ollamaEmbedMu.Lock()
	defer ollamaEmbedMu.Unlock()

	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		body, err := json.Marshal(ollamaEmbedRequest{Model: "nomic-embed-text", Input: text})
		if err != nil {
			return nil, errkind.New(errkind.Validation, "ollama.Embed", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/api/embeddings", bytes.NewReader(body))
		if err != nil {
			return nil, errkind.New(errkind.Connection, "ollama.Embed", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			return nil, classifyHTTPError("ollama.Embed", err)
		}
		var out ollamaEmbedResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&out)
		resp.Body.Close()
		if decodeErr != nil {
			return nil, errkind.New(errkind.Connection, "ollama.Embed.Decode", decodeErr)
		}
		vectors = append(vectors, out.Embedding)
	}
	return vectors, nil
}

func (p *ollamaProvider) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func classifyHTTPError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return errkind.New(errkind.Cancelled, op, err)
	}
	return errkind.New(errkind.Connection, op, err)
}
