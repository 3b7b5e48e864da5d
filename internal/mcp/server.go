package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"codechunk/internal/chunker"
	"codechunk/internal/embedder"
	"codechunk/internal/indexer"
	"codechunk/internal/language"
	"codechunk/internal/searcher"
	"codechunk/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "codechunk"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDBDir is the default location for the database
	DefaultDBDir = "~/.codechunk"
	// DBFileName is the database file inside the database directory
	DBFileName = "codechunk.db"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	storage  storage.Storage
	registry *language.Registry
	chunker  *chunker.Chunker
	indexer  *indexer.Indexer
	searcher *searcher.Searcher
}

// NewServer creates an MCP server with storage under dbDir and an embedder
// picked from the environment. An empty dbDir falls back to DefaultDBDir.
func NewServer(dbDir string) (*Server, error) {
	if dbDir == "" || dbDir == DefaultDBDir {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbDir = filepath.Join(home, ".codechunk")
	}

	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(filepath.Join(dbDir, DBFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	emb, err := embedder.NewFromEnv()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	return NewServerWithDeps(store, emb), nil
}

// NewServerWithDeps creates an MCP server around existing storage and
// embedder instances. The embedder may be nil; search then runs without the
// vector leg. The server takes ownership of the storage handle.
func NewServerWithDeps(store storage.Storage, emb embedder.Embedder) *Server {
	registry := language.NewRegistry()

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		storage:  store,
		registry: registry,
		chunker:  chunker.New(),
		indexer:  indexer.New(registry, store, emb),
		searcher: searcher.NewSearcher(store, emb),
	}

	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until the client
// disconnects. Storage is closed on return.
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()
	return server.ServeStdio(s.mcp)
}

// CallTool invokes a registered tool by name without going through the
// stdio transport. Embedding programs and tests drive the server with it.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}

	switch name {
	case "index_project":
		return s.handleIndexProject(ctx, request)
	case "search_code":
		return s.handleSearchCode(ctx, request)
	case "extract_file":
		return s.handleExtractFile(ctx, request)
	case "get_status":
		return s.handleGetStatus(ctx, request)
	default:
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("unknown tool: %s", name), nil)
	}
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexProjectTool(), s.handleIndexProject)
	s.mcp.AddTool(searchCodeTool(), s.handleSearchCode)
	s.mcp.AddTool(extractFileTool(), s.handleExtractFile)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
