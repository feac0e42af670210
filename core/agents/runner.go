package agents

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/chiyokera/audio-sdk/core/conversations"
	"github.com/chiyokera/audio-sdk/core/llms"
)

const handoffToolPrefix = "transfer_to_"

// maxTurns bounds the number of model calls in a single run so a
// tool-calling loop cannot spin forever.
const maxTurns = 10

const handoffInstructionsPrefix = `You are part of a multi-agent customer support system. ` +
	`Agents pass the conversation to each other with transfer tools. When you call a ` +
	`transfer tool the receiving agent continues the conversation with the full history. ` +
	`Transfer silently, never mention other agents or the transfer itself to the customer.

`

// ResponseStreamer produces a streaming model response to a conversation.
type ResponseStreamer interface {
	StreamResponse(ctx context.Context, instructions string, history []llms.Message, tools []llms.Tool) llms.Stream
}

// Runner drives one agent run: it prompts the current agent, executes the
// tool calls it makes, follows hand-offs, and stops at the first response
// that is a plain message.
type Runner struct {
	llm    ResponseStreamer
	roster *Roster

	onContentDelta func(agent *Agent, delta string)
	onToolCall     func(agent *Agent, toolCall llms.ToolCall)
	onHandoff      func(from *Agent, to *Agent)
}

type RunnerOption func(*Runner)

// WithContentDeltaCallback streams the agent's message as it is generated.
func WithContentDeltaCallback(callback func(agent *Agent, delta string)) RunnerOption {
	return func(r *Runner) {
		r.onContentDelta = callback
	}
}

// WithToolCallCallback reports every executed tool call, response included.
func WithToolCallCallback(callback func(agent *Agent, toolCall llms.ToolCall)) RunnerOption {
	return func(r *Runner) {
		r.onToolCall = callback
	}
}

// WithHandoffCallback reports every hand-off as it happens.
func WithHandoffCallback(callback func(from *Agent, to *Agent)) RunnerOption {
	return func(r *Runner) {
		r.onHandoff = callback
	}
}

func NewRunner(llm ResponseStreamer, roster *Roster, opts ...RunnerOption) *Runner {
	runner := &Runner{llm: llm, roster: roster}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Run prompts agent with the passed conversation and loops until an agent
// answers with a plain message. The input slice is not modified.
func (r *Runner) Run(
	ctx context.Context,
	agent *Agent,
	input []llms.Message,
	conversation *conversations.Context,
) (*RunResult, error) {
	ctx, span := tracer.Start(ctx, "run agents")
	defer span.End()
	span.SetAttributes(attribute.String("agent.name", agent.Name))

	history := append([]llms.Message(nil), input...)
	result := &RunResult{FinalAgent: agent}
	current := agent

	for turn := range maxTurns {
		span.SetAttributes(attribute.Int("run.turns", turn+1))

		content, toolCalls, err := r.streamResponse(ctx, current, history, result)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		if len(toolCalls) == 0 {
			history = append(history, llms.Message{
				Role:    llms.MessageRoleAssistant,
				Content: content,
			})
			result.NewItems = append(result.NewItems, MessageItem{Agent: current, Content: content})
			result.FinalAgent = current
			result.FinalOutput = content
			result.inputList = history
			return result, nil
		}

		if content != "" {
			result.NewItems = append(result.NewItems, MessageItem{Agent: current, Content: content})
		}

		next, err := r.executeToolCalls(ctx, current, toolCalls, conversation, result)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		history = append(history, llms.Message{
			Role:      llms.MessageRoleAssistant,
			Content:   content,
			ToolCalls: toolCalls,
		})
		current = next
	}

	err := fmt.Errorf("no final response after %d model calls", maxTurns)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return nil, err
}

func (r *Runner) streamResponse(
	ctx context.Context,
	agent *Agent,
	history []llms.Message,
	result *RunResult,
) (string, []llms.ToolCall, error) {
	stream := r.llm.StreamResponse(ctx,
		handoffInstructionsPrefix+agent.Instructions,
		history,
		r.collectTools(agent),
	)

	var content strings.Builder
	var toolCalls []llms.ToolCall
	for chunk, err := range stream.Chunks(ctx) {
		if err != nil {
			return "", nil, fmt.Errorf("failed to stream response: %w", err)
		}
		switch chunk := chunk.(type) {
		case llms.StreamContentChunk:
			content.WriteString(chunk.Content())
			if r.onContentDelta != nil {
				r.onContentDelta(agent, chunk.Content())
			}
		case llms.StreamToolCallChunk:
			toolCalls = append(toolCalls, chunk.ToolCall())
		case llms.StreamUsageChunk:
			usage := chunk.Usage()
			result.Usage.InputTokens += usage.InputTokens
			result.Usage.OutputTokens += usage.OutputTokens
			result.Usage.TotalTokens += usage.TotalTokens
			result.Usage.TotalTime += usage.TotalTime
		}
	}
	return content.String(), toolCalls, nil
}

// executeToolCalls runs every call in the batch, filling in the responses in
// place, and returns the agent that owns the next model call. The first
// hand-off in a batch wins, later ones are refused.
func (r *Runner) executeToolCalls(
	ctx context.Context,
	current *Agent,
	toolCalls []llms.ToolCall,
	conversation *conversations.Context,
	result *RunResult,
) (*Agent, error) {
	next := current
	for i := range toolCalls {
		toolCall := &toolCalls[i]

		if target, isHandoff := strings.CutPrefix(toolCall.Name, handoffToolPrefix); isHandoff {
			accepted, response := r.handoff(ctx, current, next, target, conversation, result)
			toolCall.Response = response
			if accepted != nil {
				next = accepted
			}
			if r.onToolCall != nil {
				r.onToolCall(current, *toolCall)
			}
			continue
		}

		output, err := r.executeTool(ctx, current, *toolCall)
		if err != nil {
			return nil, err
		}
		toolCall.Response = output
		result.NewItems = append(result.NewItems,
			ToolCallItem{Agent: current, ToolCall: *toolCall},
			ToolOutputItem{Agent: current, Name: toolCall.Name, Output: output},
		)
		if r.onToolCall != nil {
			r.onToolCall(current, *toolCall)
		}
	}
	return next, nil
}

func (r *Runner) handoff(
	ctx context.Context,
	current *Agent,
	next *Agent,
	target string,
	conversation *conversations.Context,
	result *RunResult,
) (*Agent, string) {
	if next != current {
		return nil, "Cannot transfer: the conversation was already transferred in this response."
	}

	agent, ok := r.roster.Get(target)
	if !ok || !current.CanHandoff(target) {
		logger.Warn("refused hand-off to unavailable agent",
			"from", current.Name, "to", target)
		return nil, fmt.Sprintf("Cannot transfer to %s from %s.", target, current.Name)
	}

	result.NewItems = append(result.NewItems, HandoffItem{From: current, To: agent})
	if r.onHandoff != nil {
		r.onHandoff(current, agent)
	}
	if agent.OnHandoff != nil {
		agent.OnHandoff(ctx, conversation)
	}
	return agent, fmt.Sprintf(`{"assistant": %q}`, agent.DisplayName)
}

func (r *Runner) executeTool(ctx context.Context, agent *Agent, toolCall llms.ToolCall) (string, error) {
	ctx, span := tracer.Start(ctx, "execute tool")
	defer span.End()
	span.SetAttributes(attribute.String("tool.name", toolCall.Name))

	for _, tool := range agent.Tools {
		if tool.Name != toolCall.Name {
			continue
		}
		output, err := tool.Execute(toolCall.Arguments)
		if err != nil {
			err = fmt.Errorf("failed to execute tool %q: %w", toolCall.Name, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return "", err
		}
		return output, nil
	}

	for _, server := range agent.Servers {
		if !server.Has(toolCall.Name) {
			continue
		}
		output, err := server.CallTool(ctx, toolCall.Name, toolCall.Arguments)
		if err != nil {
			err = fmt.Errorf("failed to execute tool %q: %w", toolCall.Name, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return "", err
		}
		return output, nil
	}

	err := fmt.Errorf("tool not found: %s", toolCall.Name)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return "", err
}

func (r *Runner) collectTools(agent *Agent) []llms.Tool {
	tools := append([]llms.Tool(nil), agent.Tools...)
	for _, server := range agent.Servers {
		tools = append(tools, server.Tools()...)
	}
	for _, handoff := range agent.Handoffs {
		target, ok := r.roster.Get(handoff)
		if !ok {
			continue
		}
		tools = append(tools, llms.NewTool(
			handoffToolPrefix+target.Name,
			fmt.Sprintf("Transfer the conversation to the %s. %s",
				target.DisplayName, target.HandoffDescription),
			nil,
			func(struct{}) (string, error) {
				// Hand-offs are routed by the runner, the executor is never
				// reached.
				return "", nil
			},
		))
	}
	return tools
}
