package openai

import (
	"encoding/json"

	"github.com/chiyokera/audio-sdk/core/llms"
)

type openAIMessage struct {
	Type messageType `json:"type"`

	Role    messageRole `json:"role,omitempty"`
	Content string      `json:"content,omitempty"`

	ToolCallID        string `json:"call_id,omitempty"`
	ToolCallName      string `json:"name,omitempty"`
	ToolCallArguments string `json:"arguments,omitempty"`
	ToolCallOutput    string `json:"output,omitempty"`
	ToolCallStatus    string `json:"status,omitempty"`
}

type messageRole string

const (
	messageRoleSystem    messageRole = "system"
	messageRoleDeveloper messageRole = "developer"
	messageRoleUser      messageRole = "user"
	messageRoleAssistant messageRole = "assistant"
	messageRoleTool      messageRole = "tool"
)

type messageType string

const (
	messageTypeMessage            messageType = "message"
	messageTypeFunctionCall       messageType = "function_call"
	messageTypeFunctionCallOutput messageType = "function_call_output"
)

func toOpenAIMessages(instructions string, history []llms.Message) []openAIMessage {
	messages := []openAIMessage{}
	if instructions != "" {
		messages = append(messages, openAIMessage{
			Role:    messageRoleDeveloper,
			Type:    messageTypeMessage,
			Content: instructions,
		})
	}

	for _, msg := range history {
		switch msg.Role {
		case llms.MessageRoleSystem:
			// Instructions are passed separately, system messages inside the
			// history would fight with them.

		case llms.MessageRoleUser:
			messages = append(messages, openAIMessage{
				Type:    messageTypeMessage,
				Role:    messageRoleUser,
				Content: msg.Content,
			})

		case llms.MessageRoleAssistant:
			for _, toolCall := range msg.ToolCalls {
				messages = append(messages, openAIMessage{
					Type:              messageTypeFunctionCall,
					ToolCallID:        toolCall.ID,
					ToolCallName:      toolCall.Name,
					ToolCallArguments: toolCall.Arguments,
					ToolCallStatus:    "completed",
				})
				// Every call needs a paired output, the API rejects
				// unpaired calls. An empty response is still an output.
				messages = append(messages, openAIMessage{
					Type:           messageTypeFunctionCallOutput,
					ToolCallID:     toolCall.ID,
					ToolCallOutput: toolCall.Response,
				})
			}
			if msg.Content != "" {
				messages = append(messages, openAIMessage{
					Type:    messageTypeMessage,
					Role:    messageRoleAssistant,
					Content: msg.Content,
				})
			}

		case llms.MessageRoleTool:
			messages = append(messages, openAIMessage{
				Type:           messageTypeFunctionCallOutput,
				ToolCallID:     msg.ToolCallID,
				ToolCallOutput: msg.Content,
			})
		}
	}
	return messages
}

type openAITool struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
	Strict      bool            `json:"strict"`
}

func toOpenAITools(tools []llms.Tool) []openAITool {
	openAITools := make([]openAITool, 0, len(tools))
	for _, tool := range tools {
		openAITools = append(openAITools, openAITool{
			Type:        "function",
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  tool.ParametersSchema(),
		})
	}
	return openAITools
}
