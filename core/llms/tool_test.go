package llms

import (
	"strings"
	"testing"
)

func TestNewTool_UnmarshalsArgumentsBeforeExecuting(t *testing.T) {
	tool := NewTool("set_city", "Sets the city",
		map[string]ParameterBase{
			"city": {Type: "string", Description: "The city name"},
		},
		func(parameters struct {
			City string `json:"city"`
		}) (string, error) {
			return "city is " + parameters.City, nil
		},
	)

	out, err := tool.Execute(`{"city":"Prague"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "city is Prague" {
		t.Fatalf("unexpected output: %q", out)
	}

	if _, err := tool.Execute(`{"city":`); err == nil {
		t.Fatal("expected an error for malformed arguments")
	}
}

func TestNewTool_EmptyArgumentsUseZeroValue(t *testing.T) {
	tool := NewTool("ping", "Pings", nil,
		func(struct{}) (string, error) { return "pong", nil },
	)

	out, err := tool.Execute("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "pong" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestParametersSchema_RequiresAllDeclaredParameters(t *testing.T) {
	tool := NewTool("update_info", "Updates info",
		map[string]ParameterBase{
			"name":   {Type: "string"},
			"number": {Type: "string"},
		},
		func(struct{}) (string, error) { return "", nil },
	)

	schema := string(tool.ParametersSchema())
	if !strings.Contains(schema, `"required":["name","number"]`) {
		t.Fatalf("expected all parameters to be required, got: %s", schema)
	}
	if !strings.Contains(schema, `"additionalProperties":false`) {
		t.Fatalf("expected closed schema, got: %s", schema)
	}
}

func TestExecute_WithoutExecutorFails(t *testing.T) {
	var tool Tool
	if _, err := tool.Execute("{}"); err == nil {
		t.Fatal("expected an error for a tool without an executor")
	}
}
