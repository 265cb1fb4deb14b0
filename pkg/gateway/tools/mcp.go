package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/parley-ai/parley/pkg/core/types"
)

// RemoteTool is one tool discovered from a remote server, in its unprefixed
// form.
type RemoteTool struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// RemoteClient discovers and invokes tools hosted on remote MCP servers.
type RemoteClient interface {
	Discover(ctx context.Context, server types.RemoteToolServer) ([]RemoteTool, error)
	Invoke(ctx context.Context, server types.RemoteToolServer, tool string, input map[string]any) (any, error)
}

// MCPClient talks to remote servers over streamable HTTP. Sessions are opened
// per call; remote tool servers are expected to be stateless between calls.
type MCPClient struct {
	impl       *mcp.Implementation
	httpClient *http.Client
}

func NewMCPClient(httpClient *http.Client) *MCPClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &MCPClient{
		impl:       &mcp.Implementation{Name: "parley", Version: "0.1.0"},
		httpClient: httpClient,
	}
}

func (c *MCPClient) connect(ctx context.Context, server types.RemoteToolServer) (*mcp.ClientSession, error) {
	transport := &mcp.StreamableClientTransport{
		Endpoint:   server.URL,
		HTTPClient: c.clientFor(server),
	}
	session, err := mcp.NewClient(c.impl, nil).Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", server.URL, err)
	}
	return session, nil
}

// clientFor returns an http.Client that injects the server's configured
// headers on every request.
func (c *MCPClient) clientFor(server types.RemoteToolServer) *http.Client {
	if len(server.Headers) == 0 {
		return c.httpClient
	}
	clone := *c.httpClient
	base := clone.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	clone.Transport = &headerTransport{base: base, headers: server.Headers}
	return &clone
}

func (c *MCPClient) Discover(ctx context.Context, server types.RemoteToolServer) ([]RemoteTool, error) {
	session, err := c.connect(ctx, server)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	result, err := session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list tools from %s: %w", server.URL, err)
	}

	tools := make([]RemoteTool, 0, len(result.Tools))
	for _, t := range result.Tools {
		tools = append(tools, RemoteTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schemaToMap(t.InputSchema),
		})
	}
	return tools, nil
}

func (c *MCPClient) Invoke(ctx context.Context, server types.RemoteToolServer, tool string, input map[string]any) (any, error) {
	session, err := c.connect(ctx, server)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: tool, Arguments: input})
	if err != nil {
		return nil, fmt.Errorf("call tool %s: %w", tool, err)
	}
	if result.IsError {
		return nil, fmt.Errorf("tool %s returned error: %s", tool, formatContent(result.Content))
	}
	if result.StructuredContent != nil {
		return result.StructuredContent, nil
	}
	return formatContent(result.Content), nil
}

// formatContent flattens MCP content blocks to a string.
func formatContent(content []mcp.Content) string {
	var out string
	for _, c := range content {
		switch v := c.(type) {
		case *mcp.TextContent:
			out += v.Text
		default:
			if data, err := json.Marshal(c); err == nil {
				out += string(data)
			}
		}
	}
	return out
}

// schemaToMap normalizes whatever schema representation the SDK hands back
// into a plain map.
func schemaToMap(schema any) map[string]any {
	if schema == nil {
		return nil
	}
	if m, ok := schema.(map[string]any); ok {
		return m
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for k, v := range t.headers {
		clone.Header.Set(k, v)
	}
	return t.base.RoundTrip(clone)
}
