package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

type stubClient struct {
	initialized bool
	closed      bool

	tools []mcp.Tool

	calledTool string
	calledArgs map[string]any
	result     *mcp.CallToolResult
	callErr    error
}

func (c *stubClient) Initialize(_ context.Context, _ mcp.InitializeRequest) (*mcp.InitializeResult, error) {
	c.initialized = true
	return &mcp.InitializeResult{}, nil
}

func (c *stubClient) ListTools(_ context.Context, _ mcp.ListToolsRequest) (*mcp.ListToolsResult, error) {
	return &mcp.ListToolsResult{Tools: c.tools}, nil
}

func (c *stubClient) CallTool(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c.calledTool = request.Params.Name
	c.calledArgs, _ = request.Params.Arguments.(map[string]any)
	return c.result, c.callErr
}

func (c *stubClient) Close() error {
	c.closed = true
	return nil
}

func TestStart_CachesAdvertisedTools(t *testing.T) {
	stub := &stubClient{tools: []mcp.Tool{
		{Name: "read_file", Description: "Reads a file"},
		{Name: "list_directory", Description: "Lists a directory"},
	}}
	server := &Server{name: "filesystem", client: stub}

	if err := server.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stub.initialized {
		t.Fatal("expected the initialize handshake to run")
	}

	tools := server.Tools()
	if len(tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(tools))
	}
	if tools[0].Name != "read_file" || tools[1].Name != "list_directory" {
		t.Fatalf("unexpected tools: %+v", tools)
	}
	if !server.Has("read_file") || server.Has("write_file") {
		t.Fatal("unexpected tool availability")
	}
}

func TestCallTool_PassesParsedArgumentsAndJoinsTextContent(t *testing.T) {
	stub := &stubClient{result: &mcp.CallToolResult{Content: []mcp.Content{
		mcp.TextContent{Type: "text", Text: "first"},
		mcp.TextContent{Type: "text", Text: " second"},
	}}}
	server := &Server{name: "filesystem", client: stub}

	out, err := server.CallTool(context.Background(), "read_file", `{"path":"manual.txt"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "first second" {
		t.Fatalf("unexpected output: %q", out)
	}
	if stub.calledTool != "read_file" {
		t.Fatalf("unexpected tool name: %q", stub.calledTool)
	}
	if path, _ := stub.calledArgs["path"].(string); path != "manual.txt" {
		t.Fatalf("unexpected arguments: %+v", stub.calledArgs)
	}
}

func TestCallTool_TransportFailureSurfacesAsError(t *testing.T) {
	stub := &stubClient{callErr: errors.New("pipe closed")}
	server := &Server{name: "slack", client: stub}

	if _, err := server.CallTool(context.Background(), "post_message", "{}"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestCallTool_WithoutStartFails(t *testing.T) {
	server := NewStdioServer("filesystem", "npx", nil, "-y", "@modelcontextprotocol/server-filesystem")

	if _, err := server.CallTool(context.Background(), "read_file", "{}"); err == nil {
		t.Fatal("expected an error for an unstarted server")
	}
}

func TestClose_IsIdempotent(t *testing.T) {
	stub := &stubClient{}
	server := &Server{name: "filesystem", client: stub}

	if err := server.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := server.Close(); err != nil {
		t.Fatalf("unexpected error on repeated close: %v", err)
	}
	if !stub.closed {
		t.Fatal("expected the client to be closed")
	}
}

func TestNewFilesystemServer_BuildsNpxInvocation(t *testing.T) {
	server := NewFilesystemServer("data")

	if server.command != "npx" {
		t.Fatalf("unexpected command: %q", server.command)
	}
	if strings.Join(server.args, " ") != "-y @modelcontextprotocol/server-filesystem data" {
		t.Fatalf("unexpected args: %+v", server.args)
	}
}
