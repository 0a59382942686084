package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/heyong4725/dora-tui/src/mapping"
	"github.com/heyong4725/dora-tui/src/patterns"
	"github.com/heyong4725/dora-tui/src/provider"
	"github.com/heyong4725/dora-tui/src/sanitize"
	"github.com/heyong4725/dora-tui/src/store"
)

const (
	// defaultLogLimit is how many events recent_logs returns without a limit.
	defaultLogLimit = 50
	// defaultSummaryEvents is how many archived events log_summary scans.
	defaultSummaryEvents = 1000
	defaultMaxGroups     = 20
)

// Server is the MCP server for dora-tui.
type Server struct {
	mcpServer *server.MCPServer
	services  provider.Services
	archive   store.Store
	now       func() time.Time
}

// NewServer creates a new MCP server backed by services. archive serves
// recent_logs and log_summary; when nil those tools are not registered.
func NewServer(services provider.Services, archive store.Store, version string) *Server {
	s := server.NewMCPServer(
		"dora-tui",
		version,
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		services:  services,
		archive:   archive,
		now:       time.Now,
	}
	srv.registerTools()

	return srv
}

// registerTools registers all available tools.
func (s *Server) registerTools() {
	listTool := mcp.NewTool("list_dataflows",
		mcp.WithDescription("List every dataflow known to the dora coordinator with its status and nodes."),
	)

	metricsTool := mcp.NewTool("system_metrics",
		mcp.WithDescription("Return the latest host metrics: CPU and memory usage, load average and how old the sample is."),
	)

	prefsTool := mcp.NewTool("get_preferences",
		mcp.WithDescription("Return the persisted dashboard preferences."),
	)

	s.mcpServer.AddTool(listTool, s.handleListDataflows)
	s.mcpServer.AddTool(metricsTool, s.handleSystemMetrics)
	s.mcpServer.AddTool(prefsTool, s.handleGetPreferences)

	if s.archive == nil {
		return
	}

	logsTool := mcp.NewTool("recent_logs",
		mcp.WithDescription("Return the newest archived log lines of a dataflow, oldest first. Lines are compacted: node-printed timestamps are dropped and deep paths shortened."),
		mcp.WithString("dataflow_id",
			mcp.Required(),
			mcp.Description("Dataflow UUID from list_dataflows"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max lines to return (default: 50)"),
		),
	)
	summaryTool := mcp.NewTool("log_summary",
		mcp.WithDescription("Group the archived log lines of a dataflow by pattern (numbers, ids, paths and timestamps masked). Warnings and errors are ranked first as signal, the rest as noise."),
		mcp.WithString("dataflow_id",
			mcp.Required(),
			mcp.Description("Dataflow UUID from list_dataflows"),
		),
		mcp.WithNumber("events",
			mcp.Description("How many of the newest archived events to scan (default: 1000)"),
		),
		mcp.WithNumber("max_groups",
			mcp.Description("Max pattern groups to return (default: 20)"),
		),
	)

	s.mcpServer.AddTool(logsTool, s.handleRecentLogs)
	s.mcpServer.AddTool(summaryTool, s.handleLogSummary)
}

// Run starts the MCP server on stdio.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handleListDataflows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	flows, err := s.services.Coordinator.ListDataflows(ctx)
	if err != nil {
		return toolError("failed to list dataflows", err), nil
	}
	return jsonResult(toDataflows(flows))
}

func (s *Server) handleSystemMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, err := s.services.Telemetry.LatestMetrics(ctx)
	if err != nil {
		return toolError("failed to read system metrics", err), nil
	}
	return jsonResult(toMetrics(m, s.now()))
}

func (s *Server) handleGetPreferences(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prefs, err := s.services.Preferences.Load(ctx)
	if err != nil {
		return toolError("failed to load preferences", err), nil
	}
	return jsonResult(Preferences{
		Theme:                   prefs.Theme,
		AutoRefreshIntervalSecs: prefs.AutoRefreshIntervalSecs,
		ShowSystemInfo:          prefs.ShowSystemInfo,
		DefaultView:             prefs.DefaultView,
	})
}

func (s *Server) handleRecentLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := dataflowID(request)
	if errResult != nil {
		return errResult, nil
	}

	limit := request.GetInt("limit", defaultLogLimit)
	if limit <= 0 {
		limit = defaultLogLimit
	}

	events, err := s.archive.Recent(ctx, id, limit)
	if err != nil {
		return toolError("failed to read archived logs", err), nil
	}

	texts := make([]string, len(events))
	for i, e := range events {
		texts[i] = sanitize.LogLine(e.Line)
	}
	texts = compactLines(texts)

	lines := make([]LogLine, len(events))
	for i, e := range events {
		lines[i] = LogLine{
			Timestamp: e.Timestamp,
			Level:     mapping.LogLevel(e.Level),
			Node:      e.Node,
			Line:      texts[i],
		}
	}
	return jsonResult(lines)
}

func (s *Server) handleLogSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := dataflowID(request)
	if errResult != nil {
		return errResult, nil
	}

	scan := request.GetInt("events", defaultSummaryEvents)
	if scan <= 0 {
		scan = defaultSummaryEvents
	}
	maxGroups := request.GetInt("max_groups", defaultMaxGroups)
	if maxGroups <= 0 {
		maxGroups = defaultMaxGroups
	}

	events, err := s.archive.Recent(ctx, id, scan)
	if err != nil {
		return toolError("failed to read archived logs", err), nil
	}

	groups := patterns.Summarize(events)
	signal, noise := patterns.Counts(groups)
	summary := LogSummary{
		DataflowID: id.String(),
		Events:     len(events),
		Signal:     signal,
		Noise:      noise,
	}
	if len(groups) > maxGroups {
		groups = groups[:maxGroups]
		summary.Truncated = true
	}
	summary.Groups = toPatternGroups(groups)
	return jsonResult(summary)
}

// dataflowID reads the required dataflow_id argument. The result is non-nil
// when the argument is missing or malformed.
func dataflowID(request mcp.CallToolRequest) (uuid.UUID, *mcp.CallToolResult) {
	raw := request.GetString("dataflow_id", "")
	if raw == "" {
		return uuid.Nil, mcp.NewToolResultError("dataflow_id parameter is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, mcp.NewToolResultError(fmt.Sprintf("invalid dataflow_id %q: %v", raw, err))
	}
	return id, nil
}

func toolError(what string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", what, provider.WrapError(err)))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
