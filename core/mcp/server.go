package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/chiyokera/audio-sdk/core/llms"
)

// Server is a tool server spawned as a subprocess and spoken to over stdio.
// It caches the tool list on start so every turn doesn't pay for a roundtrip.
type Server struct {
	name    string
	command string
	env     []string
	args    []string

	client mcpClient
	tools  []llms.Tool

	startOnce sync.Once
	closeOnce sync.Once
}

// mcpClient is the slice of the underlying client the server needs. Narrowed
// so tests can stand in for a spawned process.
type mcpClient interface {
	Initialize(ctx context.Context, request mcp.InitializeRequest) (*mcp.InitializeResult, error)
	ListTools(ctx context.Context, request mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// NewStdioServer creates a tool server that will run command with the passed
// environment (KEY=VALUE pairs, appended to the parent's) and arguments. The
// subprocess is not spawned until Start is called.
func NewStdioServer(name string, command string, env []string, args ...string) *Server {
	return &Server{
		name:    name,
		command: command,
		env:     env,
		args:    args,
	}
}

// Name returns the label the server was created with.
func (s *Server) Name() string {
	return s.name
}

// Start spawns the subprocess, performs the initialize handshake and caches
// the server's tool list. Calling it again is a no-op.
func (s *Server) Start(ctx context.Context) error {
	var startErr error
	s.startOnce.Do(func() {
		ctx, span := tracer.Start(ctx, "start mcp server")
		defer span.End()

		c := s.client
		if c == nil {
			stdioClient, err := client.NewStdioMCPClient(s.command, s.env, s.args...)
			if err != nil {
				startErr = fmt.Errorf("failed to spawn %s server: %w", s.name, err)
				span.RecordError(startErr)
				return
			}
			c = stdioClient
		}

		initRequest := mcp.InitializeRequest{}
		initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
		initRequest.Params.ClientInfo = mcp.Implementation{
			Name:    "audio-sdk",
			Version: "0.1.0",
		}
		if _, err := c.Initialize(ctx, initRequest); err != nil {
			c.Close()
			startErr = fmt.Errorf("failed to initialize %s server: %w", s.name, err)
			span.RecordError(startErr)
			return
		}

		toolsResult, err := c.ListTools(ctx, mcp.ListToolsRequest{})
		if err != nil {
			c.Close()
			startErr = fmt.Errorf("failed to list %s server tools: %w", s.name, err)
			span.RecordError(startErr)
			return
		}

		tools := make([]llms.Tool, 0, len(toolsResult.Tools))
		for _, tool := range toolsResult.Tools {
			llmsTool, err := toLLMSTool(tool)
			if err != nil {
				c.Close()
				startErr = fmt.Errorf("failed to convert %s server tool %s: %w", s.name, tool.Name, err)
				span.RecordError(startErr)
				return
			}
			tools = append(tools, llmsTool)
		}

		s.client = c
		s.tools = tools
	})
	return startErr
}

// Tools returns the tool definitions cached on start. The tools carry no
// executor, calls are routed back through CallTool.
func (s *Server) Tools() []llms.Tool {
	return s.tools
}

// Has reports whether the server advertises a tool with the passed name.
func (s *Server) Has(name string) bool {
	for _, tool := range s.tools {
		if tool.Name == name {
			return true
		}
	}
	return false
}

// CallTool executes a named tool with the model-produced JSON arguments and
// returns the textual result. Tool level failures are returned as output so
// the model can react to them, only transport failures surface as errors.
func (s *Server) CallTool(ctx context.Context, name string, arguments string) (string, error) {
	ctx, span := tracer.Start(ctx, "call mcp tool")
	defer span.End()

	if s.client == nil {
		return "", fmt.Errorf("%s server is not started", s.name)
	}

	args := map[string]any{}
	if arguments != "" {
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return "", fmt.Errorf("failed to unmarshal tool arguments: %w", err)
		}
	}

	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = args

	result, err := s.client.CallTool(ctx, request)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to call %s tool %s: %w", s.name, name, err)
	}

	var output strings.Builder
	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			output.WriteString(textContent.Text)
		}
	}
	return output.String(), nil
}

// Close shuts the subprocess down. Calling it again is a no-op.
func (s *Server) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		if s.client == nil {
			return
		}
		closeErr = s.client.Close()
	})
	return closeErr
}

func toLLMSTool(tool mcp.Tool) (llms.Tool, error) {
	schema, err := json.Marshal(tool.InputSchema)
	if err != nil {
		return llms.Tool{}, fmt.Errorf("failed to marshal input schema: %w", err)
	}
	return llms.NewToolWithSchema(tool.Name, tool.Description, schema, nil), nil
}
