package agents

import (
	"context"

	"github.com/chiyokera/audio-sdk/core/conversations"
	"github.com/chiyokera/audio-sdk/core/llms"
	"github.com/chiyokera/audio-sdk/core/mcp"
)

// Agent is a single specialist in the hand-off graph. Agents never run
// concurrently, at any moment exactly one of them owns the conversation.
type Agent struct {
	// Name identifies the agent in transfer tool names, e.g. "triage_agent".
	Name string
	// DisplayName is the label shown to people, e.g. "Triage Agent".
	DisplayName string
	// HandoffDescription tells other agents when to transfer here.
	HandoffDescription string
	// Instructions is the agent's system prompt.
	Instructions string

	// Tools are the agent's own tools.
	Tools []llms.Tool
	// Servers are external tool servers whose tools the agent may call.
	Servers []*mcp.Server
	// Handoffs names the agents this agent may transfer the conversation to.
	// Transfers to anyone else are refused.
	Handoffs []string

	// OnHandoff runs right after the conversation is handed to this agent.
	OnHandoff func(ctx context.Context, conversation *conversations.Context)
}

// CanHandoff reports whether the agent may transfer the conversation to the
// named agent.
func (a *Agent) CanHandoff(name string) bool {
	for _, handoff := range a.Handoffs {
		if handoff == name {
			return true
		}
	}
	return false
}
