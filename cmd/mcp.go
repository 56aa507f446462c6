package cmd

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/recollect-ai/recollect/pkg/archive"
	"github.com/recollect-ai/recollect/pkg/conversation"
	"github.com/recollect-ai/recollect/pkg/telemetry"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as an MCP server over stdio",
	Long: `Expose conversation memory as MCP tools over stdio, for use by MCP
clients such as coding assistants.

Tools:
  conversation_add      append a message to memory
  conversation_context  assemble a bounded request context
  conversation_stats    memory statistics
  session_save          persist the current session to JSONL
  session_load          load a saved session
  session_list          list saved sessions
  index_search          search the TF-IDF index directly`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("session", "", "session to load on startup")
	mcpCmd.Flags().String("archive-db", "", "SQLite path for pruned-message archive (empty = no archive)")
}

// MCPServer bridges MCP tool calls to a single conversation Memory. The
// mutex serializes tool handlers, which mcp-go may run concurrently.
type MCPServer struct {
	mem *conversation.Memory
	mu  sync.Mutex
}

// traced wraps a tool handler in a span named after the tool.
func traced(name string, h server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := telemetry.Tracer().Start(ctx, name)
		defer span.End()
		return h(ctx, request)
	}
}

func runMCP(cmd *cobra.Command, args []string) error {
	// Trace settings come from the config file or env; stdio is owned by
	// the MCP transport, so the stdout exporter only makes sense with
	// output redirected.
	shutdownTrace, err := telemetry.Init(cmd.Context(), telemetry.Config{
		Enabled:  viper.GetBool("trace.enabled"),
		Exporter: viper.GetString("trace.exporter"),
		Endpoint: viper.GetString("trace.endpoint"),
	})
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTrace(ctx)
	}()

	mem := conversation.New(memoryConfig())

	if dbPath, _ := cmd.Flags().GetString("archive-db"); dbPath != "" {
		store, err := archive.Open(dbPath)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		mem.SetArchiver(store)
	}

	if name, _ := cmd.Flags().GetString("session"); name != "" {
		report, err := mem.LoadSession(name)
		if err != nil {
			return err
		}
		slog.Info("session loaded", "session", name,
			"messages", report.Messages, "summaries", report.Summaries, "skipped", report.Skipped)
	}

	m := &MCPServer{mem: mem}

	s := server.NewMCPServer(
		"recollect",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool("conversation_add",
		mcp.WithDescription("Append a message to conversation memory. It is scored for importance, indexed for recall, and may trigger compression."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Message text")),
		mcp.WithString("role", mcp.Description("Message role: user, assistant, ... (default user)")),
	), traced("conversation_add", m.handleConversationAdd))

	s.AddTool(mcp.NewTool("conversation_context",
		mcp.WithDescription("Assemble a bounded request context for an upcoming user input: recent messages, summaries of older conversation, and recalled relevant content."),
		mcp.WithString("input", mcp.Required(), mcp.Description("Upcoming user input to recall against")),
	), traced("conversation_context", m.handleConversationContext))

	s.AddTool(mcp.NewTool("conversation_stats",
		mcp.WithDescription("Get conversation memory statistics: message counts, summaries, indexed chunks, estimated tokens."),
	), traced("conversation_stats", m.handleConversationStats))

	s.AddTool(mcp.NewTool("session_save",
		mcp.WithDescription("Persist the current conversation to a JSONL session file."),
		mcp.WithString("name", mcp.Description("Session name (default: current or timestamped)")),
	), traced("session_save", m.handleSessionSave))

	s.AddTool(mcp.NewTool("session_load",
		mcp.WithDescription("Load a saved session, replacing in-memory state."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Session name")),
	), traced("session_load", m.handleSessionLoad))

	s.AddTool(mcp.NewTool("session_list",
		mcp.WithDescription("List saved session names."),
	), traced("session_list", m.handleSessionList))

	s.AddTool(mcp.NewTool("index_search",
		mcp.WithDescription("Search the TF-IDF index over all messages ever added, including long-evicted ones."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithNumber("top_k", mcp.Description("Maximum results (default 3)")),
	), traced("index_search", m.handleIndexSearch))

	slog.Info("mcp server starting on stdio")
	return server.ServeStdio(s)
}
