package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/recollect-ai/recollect/pkg/conversation"
)

func (m *MCPServer) handleConversationAdd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	content, _ := args["content"].(string)
	if content == "" {
		return mcp.NewToolResultError("content is required"), nil
	}

	role, _ := args["role"].(string)
	if role == "" {
		role = "user"
	}

	m.mu.Lock()
	m.mem.Add(role, content)
	stats := m.mem.Stats()
	m.mu.Unlock()

	out, _ := json.MarshalIndent(stats, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (m *MCPServer) handleConversationContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	input, _ := args["input"].(string)
	if input == "" {
		return mcp.NewToolResultError("input is required"), nil
	}

	m.mu.Lock()
	entries := m.mem.BuildContext(input)
	m.mu.Unlock()

	out, _ := json.MarshalIndent(struct {
		Context []conversation.ContextEntry `json:"context"`
	}{Context: entries}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (m *MCPServer) handleConversationStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m.mu.Lock()
	stats := m.mem.Stats()
	m.mu.Unlock()

	out, _ := json.MarshalIndent(stats, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (m *MCPServer) handleSessionSave(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	name, _ := args["name"].(string)

	m.mu.Lock()
	path, err := m.mem.SaveSession(name)
	m.mu.Unlock()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save error: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("saved to %s", path)), nil
}

func (m *MCPServer) handleSessionLoad(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name, _ := args["name"].(string)
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	m.mu.Lock()
	report, err := m.mem.LoadSession(name)
	m.mu.Unlock()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load error: %v", err)), nil
	}

	out, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (m *MCPServer) handleSessionList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m.mu.Lock()
	names, err := m.mem.ListSessions()
	m.mu.Unlock()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list error: %v", err)), nil
	}

	if len(names) == 0 {
		return mcp.NewToolResultText("no saved sessions"), nil
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (m *MCPServer) handleIndexSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query, _ := args["query"].(string)
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	topK := 3
	if v, ok := args["top_k"].(float64); ok && v > 0 {
		topK = int(v)
	}

	m.mu.Lock()
	results := m.mem.SearchIndex(query, topK)
	m.mu.Unlock()

	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
