package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chiyokera/audio-sdk/core/llms"
	"github.com/chiyokera/audio-sdk/internal/utils"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	url = "https://api.openai.com/v1/responses"

	eventPrefix = "event:"
	chunkPrefix = "data:"
)

type Stream struct {
	apiKey string

	model    string
	tools    []openAITool
	messages []openAIMessage
}

func (s *Stream) Chunks(ctx context.Context) func(func(llms.StreamChunk, error) bool) {
	return func(yield func(llms.StreamChunk, error) bool) {
		var toolChoice *string
		if s.tools != nil {
			toolChoice = utils.Ptr("auto")
		}

		reqBody := requestBody{
			Model:      s.model,
			Input:      s.messages,
			Stream:     true,
			Tools:      s.tools,
			ToolChoice: toolChoice,
		}

		requestBodyBytes, err := json.Marshal(reqBody)
		if err != nil {
			yield(nil, fmt.Errorf("error marshalling JSON: %w", err))
			return
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(requestBodyBytes))
		if err != nil {
			yield(nil, fmt.Errorf("error creating HTTP request: %w", err))
			return
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.apiKey)

		client := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
		resp, err := client.Do(req)
		if err != nil {
			yield(nil, fmt.Errorf("error sending request: %w", err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			// TODO: Retry depending on status, send back a message to the user
			// to indicate that something is going on
			yield(nil, fmt.Errorf("non-OK HTTP status: %s", resp.Status))
			return
		}

		usage := llms.Usage{}
		lapTime := time.Now()

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			chunk := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), chunkPrefix))

			if len(chunk) == 0 {
				continue
			}

			if !strings.HasPrefix(chunk, eventPrefix) {
				continue
			}

			event := strings.TrimSpace(strings.TrimPrefix(chunk, eventPrefix))

			scanner.Scan()
			chunk = strings.TrimSpace(strings.TrimPrefix(scanner.Text(), chunkPrefix))

			switch streamingEventType(event) {
			case streamingEventResponseCreated, streamingEventResponseQueued:
				lapTime = time.Now()

			case streamingEventResponseInProgress:
				usage.QueueTime = time.Since(lapTime).Seconds()
				lapTime = time.Now()

			case streamingEventResponseOutputItemAdded:
				usage.InputProcessingTime = time.Since(lapTime).Seconds()
				lapTime = time.Now()

			case streamingEventResponseOutputTextDelta:
				var responseBody streamingBodyResponseTextDelta
				if err := json.Unmarshal([]byte(chunk), &responseBody); err != nil {
					if !yield(nil, fmt.Errorf("error unmarshalling JSON: %w", err)) {
						return
					}
					continue
				}
				if !yield(StreamContentChunk{content: responseBody.Delta}, nil) {
					return
				}

			case streamingEventResponseOutputItemDone:
				var responseBody streamingBodyOutputItemDone[streamingBodyOutputItemDoneItem]
				if err := json.Unmarshal([]byte(chunk), &responseBody); err != nil {
					if !yield(nil, fmt.Errorf("error unmarshalling JSON: %w", err)) {
						return
					}
					continue
				}
				if responseBody.Item.Type != "function_call" {
					continue
				}

				var functionCallBody streamingBodyOutputItemDone[streamingBodyOutputItemDoneItemFunctionCall]
				if err := json.Unmarshal([]byte(chunk), &functionCallBody); err != nil {
					if !yield(nil, fmt.Errorf("error unmarshalling JSON: %w", err)) {
						return
					}
					continue
				}
				if !yield(StreamToolCallChunk{
					toolCall: llms.ToolCall{
						ID:        functionCallBody.Item.CallID,
						Name:      functionCallBody.Item.Name,
						Arguments: functionCallBody.Item.Arguments,
					},
				}, nil) {
					return
				}

			case streamingEventResponseCompleted:
				usage.OutputProcessingTime = time.Since(lapTime).Seconds()
				usage.TotalTime = usage.InputProcessingTime + usage.OutputProcessingTime

				var responseBody streamingBodyResponseCompleted
				if err := json.Unmarshal([]byte(chunk), &responseBody); err != nil {
					if !yield(StreamUsageChunk{usage: usage}, nil) {
						return
					}
					if !yield(nil, fmt.Errorf("error unmarshalling JSON: %w", err)) {
						return
					}
					continue
				}

				if responseBody.Response.Usage != nil {
					usage.InputTokens = responseBody.Response.Usage.InputTokens
					usage.OutputTokens = responseBody.Response.Usage.OutputTokens
					usage.TotalTokens = responseBody.Response.Usage.TotalTokens

					if responseBody.Response.Usage.InputTokensDetails != nil {
						usage.InputTokensDetails = &llms.InputTokensDetails{
							CachedTokens: responseBody.Response.Usage.InputTokensDetails.CachedTokens,
						}
					}
					if responseBody.Response.Usage.OutputTokensDetails != nil {
						usage.OutputTokensDetails = &llms.OutputTokensDetails{
							ReasoningTokens: responseBody.Response.Usage.OutputTokensDetails.ReasoningTokens,
						}
					}
				}

				if !yield(StreamUsageChunk{usage: usage}, nil) {
					return
				}
			}
		}

		if err := scanner.Err(); err != nil {
			yield(nil, fmt.Errorf("error reading streamed response: %w", err))
			return
		}
	}
}

type requestBody struct {
	Model      string          `json:"model"`
	Input      []openAIMessage `json:"input"`
	Stream     bool            `json:"stream"`
	ToolChoice *string         `json:"tool_choice,omitempty"`
	Tools      []openAITool    `json:"tools,omitempty"`
}

type streamingEventType string

const (
	streamingEventResponseOutputTextDelta streamingEventType = "response.output_text.delta"
	streamingEventResponseOutputItemAdded streamingEventType = "response.output_item.added"
	streamingEventResponseOutputItemDone  streamingEventType = "response.output_item.done"
	streamingEventResponseCreated         streamingEventType = "response.created"
	streamingEventResponseQueued          streamingEventType = "response.queued"
	streamingEventResponseInProgress      streamingEventType = "response.in_progress"
	streamingEventResponseCompleted       streamingEventType = "response.completed"
)

type streamingBodyResponseTextDelta struct {
	Delta string `json:"delta"`
}

type streamingBodyOutputItemDone[T any] struct {
	Item T `json:"item"`
}

type streamingBodyOutputItemDoneItem struct {
	Type string `json:"type"`
}

type streamingBodyOutputItemDoneItemFunctionCall struct {
	Arguments string `json:"arguments"`
	CallID    string `json:"call_id"`
	Name      string `json:"name"`
}

// streamingBodyResponseCompleted is emitted when the model response is complete
type streamingBodyResponseCompleted struct {
	Response struct {
		// Usage represents token usage details including input tokens, output
		// tokens, a breakdown of output tokens, and the total tokens used.
		Usage *responseBodyUsage `json:"usage"`
	} `json:"response"`
}

// responseBodyUsage represents token usage details including input tokens,
// output tokens, a breakdown of output tokens, and the total tokens used.
type responseBodyUsage struct {
	// InputTokens represents the number of input tokens.
	InputTokens int `json:"input_tokens"`
	// InputTokensDetails represents a detailed breakdown of the input tokens.
	InputTokensDetails *struct {
		// CachedTokens represents the number of tokens that were retrieved
		// from the cache.
		CachedTokens int `json:"cached_tokens"`
	} `json:"input_tokens_details"`
	// OutputTokens represents the number of output tokens.
	OutputTokens int `json:"output_tokens"`
	// OutputTokensDetails represents a detailed breakdown of the output tokens.
	OutputTokensDetails *struct {
		// ReasoningTokens represents the number of reasoning tokens.
		ReasoningTokens int `json:"reasoning_tokens"`
	} `json:"output_tokens_details"`
	// TotalTokens represents the total number of tokens used.
	TotalTokens int `json:"total_tokens"`
}

type StreamContentChunk struct {
	finishReason *string
	content      string
}

func (s StreamContentChunk) FinishReason() *string {
	return s.finishReason
}

func (s StreamContentChunk) Content() string {
	return s.content
}

type StreamToolCallChunk struct {
	finishReason *string
	toolCall     llms.ToolCall
}

func (s StreamToolCallChunk) FinishReason() *string {
	return s.finishReason
}

func (s StreamToolCallChunk) ToolCall() llms.ToolCall {
	return s.toolCall
}

type StreamUsageChunk struct {
	finishReason *string
	usage        llms.Usage
}

func (s StreamUsageChunk) FinishReason() *string {
	return s.finishReason
}

func (s StreamUsageChunk) Usage() llms.Usage {
	return s.usage
}
