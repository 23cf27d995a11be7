package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mfenderov/smart-organizer/internal/collection"
	"github.com/mfenderov/smart-organizer/pkg/models"
)

var errNoSession = errors.New("not signed in; run `smart-organizer login` first")

// Config holds MCP server configuration.
type Config struct {
	Name    string
	Version string
}

// Library is the part of the API client the tools read from.
type Library interface {
	Categories(ctx context.Context, token string) (models.CategoryIndex, error)
	Documents(ctx context.Context, token, category string) ([]models.Document, error)
	Summarize(ctx context.Context, token, documentID string) (models.SummaryResult, error)
	LLMStatus(ctx context.Context) (models.LLMStatus, error)
}

// Sessions supplies the signed-in session.
type Sessions interface {
	Session() (models.Session, bool)
}

// Server exposes the signed-in user's document library as MCP tools.
type Server struct {
	mcpServer *server.MCPServer
	library   Library
	sessions  Sessions
}

// NewServer creates a new MCP server with library tools.
func NewServer(config Config, library Library, sessions Sessions) (*Server, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}

	mcpServer := server.NewMCPServer(
		config.Name,
		config.Version,
		server.WithToolCapabilities(true),
	)

	s := &Server{
		mcpServer: mcpServer,
		library:   library,
		sessions:  sessions,
	}

	mcpServer.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List document categories with the number of documents in each."),
	), s.listCategoriesHandler)

	mcpServer.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List the documents in a category, optionally filtered by filename."),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("Category name, e.g. Resume or Invoice"),
		),
		mcp.WithString("query",
			mcp.Description("Case-insensitive filename filter"),
		),
	), s.listDocumentsHandler)

	mcpServer.AddTool(mcp.NewTool("summarize_document",
		mcp.WithDescription("Generate an AI summary with key points for one document."),
		mcp.WithString("document_id",
			mcp.Required(),
			mcp.Description("Document ID as returned by list_documents"),
		),
	), s.summarizeHandler)

	mcpServer.AddTool(mcp.NewTool("llm_status",
		mcp.WithDescription("Report whether document summarization is available."),
	), s.llmStatusHandler)

	return s, nil
}

func (s *Server) token() (string, error) {
	session, ok := s.sessions.Session()
	if !ok {
		return "", errNoSession
	}
	return session.Token, nil
}

func (s *Server) listCategoriesHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := s.token()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	index, err := s.library.Categories(ctx, token)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list categories failed: %v", err)), nil
	}
	return jsonResult(index)
}

func (s *Server) listDocumentsHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category, err := req.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError("category parameter is required"), nil
	}
	query := req.GetString("query", "")

	token, err := s.token()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	docs, err := s.library.Documents(ctx, token, category)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list documents failed: %v", err)), nil
	}
	return jsonResult(collection.Filter(docs, query))
}

func (s *Server) summarizeHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError("document_id parameter is required"), nil
	}

	token, err := s.token()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summary, err := s.library.Summarize(ctx, token, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("summarize failed: %v", err)), nil
	}
	return jsonResult(summary)
}

func (s *Server) llmStatusHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.library.LLMStatus(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("llm status failed: %v", err)), nil
	}
	return jsonResult(status)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(result)), nil
}

// ServeStdio starts the MCP server using stdio transport.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
