package llm

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/liliang-cn/chatrelay/internal/config"
)

// ErrNoChoices is returned when the API answers without any choice
var ErrNoChoices = errors.New("completion returned no choices")

// Client is the OpenAI-compatible Completer.
type Client struct {
	client          openai.Client
	model           string
	maxTokens       int64
	reasoningEffort string
}

// Ensure Client implements Completer.
var _ Completer = (*Client)(nil)

// NewClient creates a client for the configured model. Retries are disabled:
// every call is attempted exactly once.
func NewClient(cfg config.LLMConfig) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.RequestTimeout))
	}

	return &Client{
		client:          openai.NewClient(opts...),
		model:           cfg.Model,
		maxTokens:       cfg.MaxCompletionTokens,
		reasoningEffort: cfg.ReasoningEffort,
	}
}

// Complete sends a non-streaming chat completion.
func (c *Client) Complete(ctx context.Context, req *Request) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, c.params(req))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream sends a streaming chat completion and relays text deltas to fn.
func (c *Client) Stream(ctx context.Context, req *Request, fn DeltaFunc) error {
	stream := c.client.Chat.Completions.NewStreaming(ctx, c.params(req))
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if err := fn(delta); err != nil {
			return err
		}
	}

	return stream.Err()
}

func (c *Client) params(req *Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: toOpenAIMessages(req.Messages),
	}
	if c.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(c.maxTokens)
	}
	if c.reasoningEffort != "" {
		params.ReasoningEffort = shared.ReasoningEffort(c.reasoningEffort)
	}
	return params
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleDeveloper:
			out = append(out, openai.DeveloperMessage(m.Content))
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			if len(m.Images) == 0 {
				out = append(out, openai.UserMessage(m.Content))
				continue
			}
			parts := []openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(m.Content),
			}
			for _, url := range m.Images {
				parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: url,
				}))
			}
			out = append(out, openai.UserMessage(parts))
		}
	}
	return out
}
