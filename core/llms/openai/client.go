package openai

import (
	"context"
	"fmt"
	"os"

	"github.com/chiyokera/audio-sdk/core/llms"
)

const defaultModel = "gpt-4.1"

// Client talks to the OpenAI responses API.
type Client struct {
	apiKey string
	model  string
}

type ClientOption func(*Client)

// WithAPIKey overrides the API key read from the OPENAI_API_KEY environment
// variable.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

// WithModel overrides the default model.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

func NewClient(opts ...ClientOption) (*Client, error) {
	client := &Client{model: defaultModel}
	if apiKey, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
		client.apiKey = apiKey
	}
	for _, opt := range opts {
		opt(client)
	}

	if client.apiKey == "" {
		return nil, fmt.Errorf("missing API key (is OPENAI_API_KEY set?)")
	}
	return client, nil
}

// StreamResponse prepares a streaming model response to the passed
// conversation. The request is not sent until the stream's chunks are
// iterated.
func (c *Client) StreamResponse(
	_ context.Context,
	instructions string,
	history []llms.Message,
	tools []llms.Tool,
) llms.Stream {
	var openAITools []openAITool
	if tools != nil {
		openAITools = toOpenAITools(tools)
	}

	return &Stream{
		apiKey:   c.apiKey,
		model:    c.model,
		tools:    openAITools,
		messages: toOpenAIMessages(instructions, history),
	}
}
