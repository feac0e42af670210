package groq

import (
	"github.com/chiyokera/audio-sdk/core/llms"
)

type message struct {
	Role       messageRole `json:"role"`
	Content    string      `json:"content"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
	ToolCalls  []toolCall  `json:"tool_calls,omitempty"`
}

type messageRole string

const (
	messageRoleSystem    messageRole = "system"
	messageRoleUser      messageRole = "user"
	messageRoleAssistant messageRole = "assistant"
	messageRoleTool      messageRole = "tool"
)

type toolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function toolCallFunction `json:"function"`
}

type toolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

func toMessages(instructions string, history []llms.Message) []message {
	messages := []message{}
	if instructions != "" {
		messages = append(messages, message{
			Role:    messageRoleSystem,
			Content: instructions,
		})
	}
	for _, m := range history {
		switch m.Role {
		case llms.MessageRoleSystem:
			// Instructions are passed separately.

		case llms.MessageRoleUser:
			messages = append(messages, message{
				Role:    messageRoleUser,
				Content: m.Content,
			})

		case llms.MessageRoleAssistant:
			msg := message{Role: messageRoleAssistant, Content: m.Content}
			responseMsgs := []message{}
			for _, tCall := range m.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, toolCall{
					ID:   tCall.ID,
					Type: "function",
					Function: toolCallFunction{
						Name:      tCall.Name,
						Arguments: tCall.Arguments,
					},
				})
				// Every call gets a tool message, even with an empty
				// response, so no call is left unanswered.
				responseMsgs = append(responseMsgs, message{
					Role:       messageRoleTool,
					Content:    tCall.Response,
					ToolCallID: tCall.ID,
				})
			}
			messages = append(messages, msg)
			messages = append(messages, responseMsgs...)

		case llms.MessageRoleTool:
			messages = append(messages, message{
				Role:       messageRoleTool,
				Content:    m.Content,
				ToolCallID: m.ToolCallID,
			})
		}
	}
	return messages
}
