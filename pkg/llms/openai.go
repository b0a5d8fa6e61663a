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

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
)

// OpenAIConfig configures the tertiary fallback, proprietary provider.
// Trusted by default for the sensitivity floor.
type OpenAIConfig struct {
	APIKey     string
	EmbedModel string
	ModelTable map[Complexity]string
}

func (c *OpenAIConfig) SetDefaults() {
	if c.EmbedModel == "" {
		c.EmbedModel = "text-embedding-3-small"
	}
	if c.ModelTable == nil {
		c.ModelTable = map[Complexity]string{
			ComplexitySimple:   "gpt-4o-mini",
			ComplexityModerate: "gpt-4o",
			ComplexityComplex:  "gpt-4o",
		}
	}
}

type openaiProvider struct {
	cfg    OpenAIConfig
	client openai.Client
}

func NewOpenAIProvider(cfg OpenAIConfig) Provider {
	cfg.SetDefaults()
	return &openaiProvider{
		cfg:    cfg,
		client: openai.NewClient(option.WithAPIKey(cfg.APIKey)),
	}
}

func (p *openaiProvider) Name() string  { return "openai" }
func (p *openaiProvider) Trusted() bool { return true }
func (p *openaiProvider) ModelFor(c Complexity) string {
	if m, ok := p.cfg.ModelTable[c]; ok {
		return m
	}
	return p.cfg.ModelTable[ComplexityModerate]
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		case RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		}
	}
	return out
}

func (p *openaiProvider) Complete(ctx context.Context, params CompleteParams) (CompleteResponse, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    params.Model,
		Messages: toOpenAIMessages(params.Messages),
	})
	if err != nil {
		return CompleteResponse{}, classifyOpenAIError("openai.Complete", err)
	}
	if len(resp.Choices) == 0 {
		return CompleteResponse{}, errkind.New(errkind.ProviderUnavailable, "openai.Complete", errors.New("no choices returned"))
	}
	return CompleteResponse{
		Content: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

func (p *openaiProvider) CompleteStream(ctx context.Context, params CompleteParams) (<-chan StreamChunk, error) {
	stream := p.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model:    params.Model,
		Messages: toOpenAIMessages(params.Messages),
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
			chunk := stream.Current()
			if len(chunk.Choices) > 0 {
				out <- StreamChunk{ContentDelta: chunk.Choices[0].Delta.Content}
			}
			if chunk.Usage.TotalTokens > 0 {
				usage = Usage{
					PromptTokens:     int(chunk.Usage.PromptTokens),
					CompletionTokens: int(chunk.Usage.CompletionTokens),
				}
			}
		}
		if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
			out <- StreamChunk{Err: classifyOpenAIError("openai.CompleteStream", err)}
			return
		}
		out <- StreamChunk{Final: true, Usage: usage, Provider: p.Name(), Model: params.Model}
	}()
	return out, nil
}

func (p *openaiProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: p.cfg.EmbedModel,
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, classifyOpenAIError("openai.Embed", err)
	}
	vectors := make([][]float32, 0, len(resp.Data))
	for _, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}

func (p *openaiProvider) Health(ctx context.Context) bool {
	_, err := p.client.Models.List(ctx)
	return err == nil
}

func classifyOpenAIError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return errkind.New(errkind.Cancelled, op, err)
	}
	var apiErr *openai.Error
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
