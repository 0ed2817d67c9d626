// Package mcpadapter exposes meeting question answering as MCP tools.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
	"github.com/kirillkom/meeting-assistant/internal/core/ports"
)

type Server struct {
	queries  ports.QueryService
	meetings ports.MeetingService
	base     domain.StrategyConfig
	mcp      *server.MCPServer
}

func NewServer(queries ports.QueryService, meetings ports.MeetingService, base domain.StrategyConfig, version string) *Server {
	if base.IsZero() {
		base = domain.DefaultStrategyConfig()
	}
	s := &Server{
		queries:  queries,
		meetings: meetings,
		base:     base,
		mcp:      server.NewMCPServer("meeting-assistant", version, server.WithToolCapabilities(false)),
	}
	s.registerTools()
	return s
}

// ServeStdio blocks serving JSON-RPC over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	strategyArgs := []mcp.ToolOption{
		mcp.WithString("meeting_id", mcp.Description("Restrict the search to one meeting")),
		mcp.WithString("chunking_strategy", mcp.Description("naive or speaker_turn"), mcp.Enum("naive", "speaker_turn")),
		mcp.WithString("retrieval_strategy", mcp.Description("semantic or hybrid"), mcp.Enum("semantic", "hybrid")),
		mcp.WithNumber("top_k", mcp.Description("Number of chunks to retrieve")),
	}

	s.mcp.AddTool(mcp.NewTool("ask_meetings", append([]mcp.ToolOption{
		mcp.WithDescription("Answer a question about meeting transcripts with cited sources"),
		mcp.WithString("question", mcp.Required(), mcp.Description("Question in natural language")),
	}, strategyArgs...)...), s.handleAsk)

	s.mcp.AddTool(mcp.NewTool("search_chunks", append([]mcp.ToolOption{
		mcp.WithDescription("Return ranked transcript chunks for a query without generating an answer"),
		mcp.WithString("question", mcp.Required(), mcp.Description("Search query")),
	}, strategyArgs...)...), s.handleSearch)

	s.mcp.AddTool(mcp.NewTool("compare_strategies",
		mcp.WithDescription("Run one query under every chunking and retrieval combination"),
		mcp.WithString("question", mcp.Required(), mcp.Description("Search query")),
		mcp.WithString("meeting_id", mcp.Description("Restrict the search to one meeting")),
	), s.handleCompare)

	s.mcp.AddTool(mcp.NewTool("list_items",
		mcp.WithDescription("List extracted action items, decisions and topics"),
		mcp.WithString("meeting_id", mcp.Description("Restrict to one meeting")),
		mcp.WithString("item_type", mcp.Description("action_item, decision or topic"), mcp.Enum("action_item", "decision", "topic")),
	), s.handleListItems)
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, cfg, filter, failure := s.parseQuery(request)
	if failure != nil {
		return failure, nil
	}
	answer, err := s.queries.Ask(ctx, question, cfg, filter)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(answer)
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, cfg, filter, failure := s.parseQuery(request)
	if failure != nil {
		return failure, nil
	}
	results, err := s.queries.Search(ctx, question, cfg, filter)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"strategy": cfg, "results": results})
}

func (s *Server) handleCompare(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filter := domain.SearchFilter{MeetingID: strings.TrimSpace(request.GetString("meeting_id", ""))}
	runs, err := s.queries.Compare(ctx, question, s.base, filter)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"question": question, "runs": runs})
}

func (s *Server) handleListItems(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.meetings.ListItems(ctx, domain.ItemFilter{
		MeetingID: strings.TrimSpace(request.GetString("meeting_id", "")),
		ItemType:  domain.ItemType(strings.ToLower(strings.TrimSpace(request.GetString("item_type", "")))),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"items": items})
}

// parseQuery returns a tool error result instead of a protocol error so the
// calling model can read and correct it.
func (s *Server) parseQuery(request mcp.CallToolRequest) (string, domain.StrategyConfig, domain.SearchFilter, *mcp.CallToolResult) {
	question, err := request.RequireString("question")
	if err != nil {
		return "", domain.StrategyConfig{}, domain.SearchFilter{}, mcp.NewToolResultError(err.Error())
	}

	opts := domain.StrategyOptions{
		ChunkingStrategy:  domain.ChunkingStrategy(strings.ToLower(request.GetString("chunking_strategy", ""))),
		RetrievalStrategy: domain.RetrievalStrategy(strings.ToLower(request.GetString("retrieval_strategy", ""))),
	}
	if topK := request.GetInt("top_k", 0); topK != 0 {
		opts.TopK = &topK
	}
	cfg, err := s.base.With(opts)
	if err != nil {
		return "", domain.StrategyConfig{}, domain.SearchFilter{}, mcp.NewToolResultError(err.Error())
	}
	filter := domain.SearchFilter{MeetingID: strings.TrimSpace(request.GetString("meeting_id", ""))}
	return question, cfg, filter, nil
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
