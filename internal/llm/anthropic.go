package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient talks to the Anthropic messages API. The API key is read
// from ANTHROPIC_API_KEY by the SDK and never stored in config.
type AnthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

func NewAnthropicClient(model string, maxTokens int64, opts ...option.RequestOption) *AnthropicClient {
	client := anthropic.NewClient(opts...)
	return &AnthropicClient{
		client:    &client,
		model:     model,
		maxTokens: maxTokens,
	}
}

func (c *AnthropicClient) Name() string  { return "anthropic" }
func (c *AnthropicClient) Model() string { return c.model }

// Infer sends the prior turns plus the pending prompt and returns the first
// text block of the reply. History must already alternate user/assistant;
// the pending prompt travels separately and is appended last.
func (c *AnthropicClient) Infer(ctx context.Context, prompt string, history []Message) (string, error) {
	msgs := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, m := range history {
		if m.Role == RoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)))

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  msgs,
	})
	if err != nil {
		var apierr *anthropic.Error
		if errors.As(err, &apierr) {
			return "", &ClientError{
				Kind:    ErrKindAPI,
				Message: fmt.Sprintf("anthropic API error (status %d)", apierr.StatusCode),
				Cause:   err,
			}
		}
		return "", &ClientError{Kind: ErrKindNetwork, Message: "anthropic request failed", Cause: err}
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", &ClientError{Kind: ErrKindParse, Message: "no text content in response"}
}
