package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	pagetoll "github.com/pagetoll/pagetoll"
)

// contentPreviewLimit bounds the preview returned by get-tool-info.
const contentPreviewLimit = 500

// Proxy exposes the owning process's capability registry as MCP tools.
type Proxy struct {
	backend *BackendClient
	server  *mcpsdk.Server
	logger  *slog.Logger
}

// NewProxy builds the MCP server with the three proxy tools registered.
func NewProxy(backend *BackendClient, logger *slog.Logger) *Proxy {
	if logger == nil {
		logger = slog.Default()
	}

	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "pagetoll-mcp",
		Version: "1.0.0",
	}, nil)

	p := &Proxy{backend: backend, server: server, logger: logger}

	server.AddTool(&mcpsdk.Tool{
		Name:        "execute-dynamic-tool",
		Description: "Execute any dynamically created tool by name with optional parameters",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"toolName": {"type": "string", "description": "The name of the dynamic tool to execute"},
				"parameters": {"type": "string", "description": "Optional parameters for the tool (JSON string)"}
			},
			"required": ["toolName"]
		}`),
	}, p.handleExecute)

	server.AddTool(&mcpsdk.Tool{
		Name:        "list-available-tools",
		Description: "List all dynamically created tools and their descriptions",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, p.handleList)

	server.AddTool(&mcpsdk.Tool{
		Name:        "get-tool-info",
		Description: "Get detailed information about a specific dynamic tool",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"toolName": {"type": "string", "description": "The name of the tool to get information about"}
			},
			"required": ["toolName"]
		}`),
	}, p.handleInfo)

	return p
}

// Server returns the underlying MCP server, mainly so tests can connect it
// over an in-memory transport.
func (p *Proxy) Server() *mcpsdk.Server {
	return p.server
}

// Run serves the proxy over stdio until the context is cancelled.
func (p *Proxy) Run(ctx context.Context) error {
	p.logger.Info("MCP proxy running on stdio")
	return p.server.Run(ctx, &mcpsdk.StdioTransport{})
}

// textResult wraps a string as a tool result. Proxy failures are reported
// this way rather than as protocol errors so agents always get something
// they can act on.
func textResult(text string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
	}
}

func parseArguments(req *mcpsdk.CallToolRequest) (map[string]interface{}, error) {
	args := make(map[string]interface{})
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return nil, fmt.Errorf("failed to unmarshal arguments: %w", err)
		}
	}
	return args, nil
}

func (p *Proxy) handleExecute(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	args, err := parseArguments(req)
	if err != nil {
		return textResult(fmt.Sprintf("Error: %v", err)), nil
	}
	toolName, _ := args["toolName"].(string)
	if toolName == "" {
		return textResult("Error: toolName is required"), nil
	}

	// Always re-fetch the registry: entries can be replaced between calls.
	available, err := p.backend.ListCapabilities(ctx)
	if err != nil {
		return textResult(fmt.Sprintf("Error: %v", err)), nil
	}

	if !containsName(available, toolName) {
		return textResult(fmt.Sprintf("Tool %q not found.\n\nAvailable tools:\n%s",
			toolName, renderList(available))), nil
	}

	var params map[string]interface{}
	if raw, _ := args["parameters"].(string); raw != "" {
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			return textResult(fmt.Sprintf("Error: parameters is not valid JSON: %v", err)), nil
		}
	}

	result, err := p.backend.Execute(ctx, toolName, params)
	if err != nil {
		return textResult(fmt.Sprintf("Error executing tool %q: %v", toolName, err)), nil
	}
	return textResult(result), nil
}

func (p *Proxy) handleList(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	available, err := p.backend.ListCapabilities(ctx)
	if err != nil {
		return textResult(fmt.Sprintf("Error: %v", err)), nil
	}
	if len(available) == 0 {
		return textResult("No dynamic tools have been created yet. Monetize some content first!"), nil
	}
	return textResult(fmt.Sprintf("Available Dynamic Tools (%d):\n\n%s\n\nUse execute-dynamic-tool to run any of these tools.",
		len(available), renderList(available))), nil
}

func (p *Proxy) handleInfo(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	args, err := parseArguments(req)
	if err != nil {
		return textResult(fmt.Sprintf("Error: %v", err)), nil
	}
	toolName, _ := args["toolName"].(string)
	if toolName == "" {
		return textResult("Error: toolName is required"), nil
	}

	record, found, err := p.backend.GetCapability(ctx, toolName)
	if err != nil {
		return textResult(fmt.Sprintf("Error: %v", err)), nil
	}
	if !found {
		return textResult(fmt.Sprintf("Tool %q not found. Use list-available-tools to see all available tools.", toolName)), nil
	}

	preview := record.Content
	suffix := ""
	if len(preview) > contentPreviewLimit {
		preview = preview[:contentPreviewLimit]
		suffix = "..."
	}
	return textResult(fmt.Sprintf("**Tool:** %s\n**Description:** %s\n\n**Content Preview:**\n%s%s\n\n**Full Content Length:** %d characters",
		record.Name, record.Description, preview, suffix, len(record.Content))), nil
}

func containsName(list []pagetoll.CapabilitySummary, name string) bool {
	for _, item := range list {
		if item.Name == name {
			return true
		}
	}
	return false
}

func renderList(list []pagetoll.CapabilitySummary) string {
	if len(list) == 0 {
		return "No tools available yet."
	}
	lines := make([]string, 0, len(list))
	for _, item := range list {
		lines = append(lines, fmt.Sprintf("• %s: %s", item.Name, item.Description))
	}
	return strings.Join(lines, "\n")
}
