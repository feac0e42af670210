package agents

import "github.com/chiyokera/audio-sdk/core/llms"

// Item is a single thing that happened while running the agents. Items are
// ordered oldest first.
type Item interface {
	item()
}

// MessageItem is a customer-visible message produced by an agent.
type MessageItem struct {
	Agent   *Agent
	Content string
}

// ToolCallItem records that an agent called a tool.
type ToolCallItem struct {
	Agent    *Agent
	ToolCall llms.ToolCall
}

// ToolOutputItem records what a tool call returned.
type ToolOutputItem struct {
	Agent  *Agent
	Name   string
	Output string
}

// HandoffItem records that the conversation moved from one agent to another.
type HandoffItem struct {
	From *Agent
	To   *Agent
}

func (MessageItem) item()    {}
func (ToolCallItem) item()   {}
func (ToolOutputItem) item() {}
func (HandoffItem) item()    {}

// RunResult is everything a single run produced.
type RunResult struct {
	// NewItems lists what happened during the run, oldest first.
	NewItems []Item
	// FinalAgent is the agent that produced the final message. It owns the
	// next turn.
	FinalAgent *Agent
	// FinalOutput is the text of the final message.
	FinalOutput string
	// Usage accumulates token usage across every model call in the run.
	Usage llms.Usage

	inputList []llms.Message
}

// InputList returns the conversation as the next turn's input, the run's
// input followed by everything the run generated.
func (r *RunResult) InputList() []llms.Message {
	return r.inputList
}
