package llms

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Tool is a function the model can call while generating a response.
type Tool struct {
	Name        string
	Description string

	parameters map[string]ParameterBase
	rawSchema  json.RawMessage
	execute    func(arguments string) (string, error)
}

// ParameterBase is a single property in a tool's parameters schema.
type ParameterBase struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// NewTool creates a tool whose JSON arguments are unmarshalled into T before
// being passed to execute. Every declared parameter is marked as required.
func NewTool[T any](
	name string,
	description string,
	parameters map[string]ParameterBase,
	execute func(parameters T) (string, error),
) Tool {
	return Tool{
		Name:        name,
		Description: description,
		parameters:  parameters,
		execute: func(arguments string) (string, error) {
			var args T
			if arguments != "" {
				if err := json.Unmarshal([]byte(arguments), &args); err != nil {
					return "", fmt.Errorf("failed to unmarshal tool arguments: %w", err)
				}
			}
			return execute(args)
		},
	}
}

// NewToolWithSchema creates a tool from an already serialized parameters
// schema and an executor that receives the raw arguments string. Meant for
// tools whose schema comes from an external server.
func NewToolWithSchema(
	name string,
	description string,
	schema json.RawMessage,
	execute func(arguments string) (string, error),
) Tool {
	return Tool{
		Name:        name,
		Description: description,
		rawSchema:   schema,
		execute:     execute,
	}
}

// Execute runs the tool with the arguments the model produced.
func (t Tool) Execute(arguments string) (string, error) {
	if t.execute == nil {
		return "", fmt.Errorf("tool %s has no executor", t.Name)
	}
	return t.execute(arguments)
}

// ParametersSchema returns the JSON schema object describing the tool's
// parameters.
func (t Tool) ParametersSchema() json.RawMessage {
	if t.rawSchema != nil {
		return t.rawSchema
	}

	properties := t.parameters
	if properties == nil {
		properties = map[string]ParameterBase{}
	}
	required := make([]string, 0, len(properties))
	for name := range properties {
		required = append(required, name)
	}
	slices.Sort(required)

	schema, err := json.Marshal(struct {
		Type                 string                   `json:"type"`
		Properties           map[string]ParameterBase `json:"properties"`
		Required             []string                 `json:"required"`
		AdditionalProperties bool                     `json:"additionalProperties"`
	}{
		Type:       "object",
		Properties: properties,
		Required:   required,
	})
	if err != nil {
		return json.RawMessage(`{"type":"object","properties":{}}`)
	}
	return schema
}
