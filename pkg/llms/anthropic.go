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
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
)

// AnthropicConfig configures the secondary, higher-capability,
// proprietary provider. Trusted by default for the sensitivity floor.
type AnthropicConfig struct {
	APIKey     string
	ModelTable map[Complexity]string
}

func (c *AnthropicConfig) SetDefaults() {
	if c.ModelTable == nil {
		c.ModelTable = map[Complexity]string{
			ComplexitySimple:   "claude-3-5-haiku-latest",
			ComplexityModerate: "claude-sonnet-4-20250514",
			ComplexityComplex:  "claude-opus-4-20250514",
		}
	}
}

type anthropicProvider struct {
	cfg    AnthropicConfig
	client anthropic.Client
}

func NewAnthropicProvider(cfg AnthropicConfig) Provider {
	cfg.SetDefaults()
	return &anthropicProvider{
		cfg:    cfg,
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
	}
}

func (p *anthropicProvider) Name() string  { return "anthropic" }
func (p *anthropicProvider) Trusted() bool { return true }
func (p *anthropicProvider) ModelFor(c Complexity) string {
	if m, ok := p.cfg.ModelTable[c]; ok {
		return m
	}
	return p.cfg.ModelTable[ComplexityModerate]
}

func toAnthropicMessages(msgs []Message) (system string, out []anthropic.MessageParam) {
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			system += m.Content + "\n"
		case RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		case RoleTool:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return system, out
}

func (p *anthropicProvider) Complete(ctx context.Context, params CompleteParams) (CompleteResponse, error) {
	system, messages := toAnthropicMessages(params.Messages)
	maxTokens := int64(params.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(params.Model),
		MaxTokens: maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages:  messages,
	})
	if err != nil {
		return CompleteResponse{}, classifyAnthropicError("anthropic.Complete", err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	return CompleteResponse{
		Content: content,
		Usage: Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
		},
	}, nil
}

func (p *anthropicProvider) CompleteStream(ctx context.Context, params CompleteParams) (<-chan StreamChunk, error) {
	system, messages := toAnthropicMessages(params.Messages)
	maxTokens := int64(params.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	stream := p.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(params.Model),
		MaxTokens: maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages:  messages,
	})

	out := make(chan StreamChunk, 16)
	go func() {
		defer close(out)
		var usage Usage
		for stream.Next() {
			select {
			case <-ctx.Done():
				return
			default:
			}
			event := stream.Current()
			if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
				if delta.Delta.Type == "text_delta" {
					out <- StreamChunk{ContentDelta: delta.Delta.Text}
				}
			}
			if msgDelta, ok := event.AsAny().(anthropic.MessageDeltaEvent); ok {
				usage.CompletionTokens = int(msgDelta.Usage.OutputTokens)
			}
		}
		if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
			out <- StreamChunk{Err: classifyAnthropicError("anthropic.CompleteStream", err)}
			return
		}
		out <- StreamChunk{Final: true, Usage: usage, Provider: p.Name(), Model: params.Model}
	}()
	return out, nil
}

func (p *anthropicProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	// Anthropic does not expose an embeddings endpoint; callers needing
	// embeddings route to Ollama or OpenAI instead. Surfaced as a
	// validation error rather than silently returning zero vectors.
	return nil, errkind.New(errkind.Validation, "anthropic.Embed", errors.New("anthropic provider does not support embeddings"))
}

func (p *anthropicProvider) Health(ctx context.Context) bool {
	_, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.ModelClaude3_5HaikuLatest,
		MaxTokens: 1,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("ping"))},
	})
	return err == nil
}

func classifyAnthropicError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return errkind.New(errkind.Cancelled, op, err)
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429:
			return errkind.New(errkind.Timeout, op, err)
		case 500, 502, 503, 504:
			return errkind.New(errkind.Connection, op, err)
		case 401, 403:
			return errkind.New(errkind.Unauthorized, op, err)
		default:
			return errkind.New(errkind.Validation, op, err)
		}
	}
	return errkind.New(errkind.Connection, op, err)
}
