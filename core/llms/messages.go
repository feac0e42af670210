package llms

// Message is a single message in a model conversation, shaped the way chat
// style APIs expect it on the wire.
type Message struct {
	Role    MessageRole
	Content string

	// ToolCalls holds the calls an assistant message requested.
	ToolCalls []ToolCall
	// ToolCallID links a tool message back to the call it answers.
	ToolCallID string
}

// ToolCall is a single function call requested by the model. Response is
// filled in once the call has been executed.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
	Response  string
}

// MessageRole describes who a message is from.
type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleTool      MessageRole = "tool"
)
