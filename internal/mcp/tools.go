package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"codechunk/internal/indexer"
	"codechunk/internal/parser"
	"codechunk/internal/searcher"
	"codechunk/internal/storage"
	"codechunk/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
	ErrorCodeNotIndexed         = -32003 // Project not indexed
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
)

// MCPError is a tool error carrying a JSON-RPC code and an optional
// structured payload. The framework encodes it on the wire.
type MCPError struct {
	Code    int
	Message string
	Data    interface{} // extra detail for the client, not part of Error()
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{Code: code, Message: message, Data: data}
}

// internalError reports an unexpected failure under the given action.
func internalError(action string, err error) error {
	return newMCPError(ErrorCodeInternalError, action, map[string]interface{}{
		"error": err.Error(),
	})
}

// requireStringArg returns the named string argument, or the coded error
// when it is missing or empty.
func requireStringArg(args map[string]interface{}, key string, code int) (string, error) {
	if val, ok := args[key].(string); ok && val != "" {
		return val, nil
	}
	return "", newMCPError(code, key+" parameter is required", map[string]interface{}{
		"param":  key,
		"reason": "missing or empty",
	})
}

// invalidPath reports a path argument that failed validation.
func invalidPath(param string, err error) error {
	return newMCPError(ErrorCodeInvalidParams, "invalid "+param, map[string]interface{}{
		"param":  param,
		"reason": err.Error(),
	})
}

// handleIndexProject handles the index_project tool invocation
func (s *Server) handleIndexProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	path, err := requireStringArg(args, "path", ErrorCodeInvalidParams)
	if err != nil {
		return nil, err
	}
	if err := validateDir(path); err != nil {
		return nil, invalidPath("path", err)
	}

	config := &indexer.Config{
		Workers: getIntDefault(args, "workers", 0),
		Include: getStringSlice(args, "include"),
		Exclude: getStringSlice(args, "exclude"),
		Embed:   getBoolDefault(args, "embed", false),
	}

	stats, err := s.indexer.IndexProject(ctx, path, config)
	if errors.Is(err, indexer.ErrIndexInProgress) {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "indexing already in progress", nil)
	}
	if err != nil {
		return nil, internalError("indexing failed", err)
	}

	// Stored chunks changed, cached search responses are stale
	s.searcher.InvalidateCache()

	response := map[string]interface{}{
		"indexed":            true,
		"files_scanned":      stats.FilesScanned,
		"files_indexed":      stats.FilesIndexed,
		"files_skipped":      stats.FilesSkipped,
		"files_failed":       stats.FilesFailed,
		"files_deleted":      stats.FilesDeleted,
		"chunks_created":     stats.ChunksCreated,
		"embeddings_created": stats.EmbeddingsCreated,
		"duration_ms":        stats.Duration.Milliseconds(),
	}

	if n := len(stats.ErrorMessages); n > 0 {
		response["error_count"] = n
		msgs := stats.ErrorMessages
		if n > 5 {
			msgs = msgs[:5]
		}
		response["errors"] = msgs
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchCode handles the search_code tool invocation
func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	path, err := requireStringArg(args, "path", ErrorCodeInvalidParams)
	if err != nil {
		return nil, err
	}
	query, err := requireStringArg(args, "query", ErrorCodeEmptyQuery)
	if err != nil {
		return nil, err
	}
	if err := validateDir(path); err != nil {
		return nil, invalidPath("path", err)
	}

	limit := getIntDefault(args, "limit", searcher.DefaultLimit)
	if limit < 1 || limit > searcher.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	mode := getStringDefault(args, "search_mode", string(searcher.SearchModeHybrid))
	switch searcher.SearchMode(mode) {
	case searcher.SearchModeHybrid, searcher.SearchModeVector, searcher.SearchModeFTS, searcher.SearchModeSymbol:
	default:
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid search_mode", map[string]interface{}{
			"param":   "search_mode",
			"value":   mode,
			"allowed": []string{"hybrid", "vector", "fts", "symbol"},
		})
	}

	project, err := s.storage.GetProject(ctx, mustAbs(path))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeNotIndexed, "project not indexed, run index_project first", map[string]interface{}{
			"path": path,
		})
	}
	if err != nil {
		return nil, internalError("failed to look up project", err)
	}

	req := searcher.SearchRequest{
		Query:     query,
		Limit:     limit,
		Mode:      searcher.SearchMode(mode),
		Filters:   parseFilters(args),
		ProjectID: project.ID,
		UseCache:  true,
	}

	resp, err := s.searcher.Search(ctx, req)
	if err != nil {
		return nil, internalError("search failed", err)
	}

	results := make([]map[string]interface{}, 0, len(resp.Results))
	for _, r := range resp.Results {
		entry := map[string]interface{}{
			"rank":            r.Rank,
			"relevance_score": r.RelevanceScore,
			"symbol":          r.Symbol,
			"chunk_type":      string(r.ChunkType),
			"snippet":         r.Snippet,
			"content":         r.Content,
		}
		if r.File != nil {
			entry["file"] = r.File.Path
			entry["language"] = string(r.File.Language)
			entry["start_line"] = r.File.StartLine
			entry["end_line"] = r.File.EndLine
		}
		results = append(results, entry)
	}

	response := map[string]interface{}{
		"query":         query,
		"mode":          string(resp.SearchMode),
		"total_results": resp.TotalResults,
		"duration_ms":   resp.Duration.Milliseconds(),
		"cache_hit":     resp.CacheHit,
		"results":       results,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleExtractFile handles the extract_file tool invocation. The file is
// parsed in place; nothing is written to the index.
func (s *Server) handleExtractFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	filePath, err := requireStringArg(args, "file_path", ErrorCodeInvalidParams)
	if err != nil {
		return nil, err
	}
	if err := validateFile(filePath); err != nil {
		return nil, invalidPath("file_path", err)
	}

	includeContent := getBoolDefault(args, "include_content", true)

	source, err := os.ReadFile(filePath)
	if err != nil {
		return nil, internalError("failed to read file", err)
	}

	engine := parser.New(s.registry)
	defer engine.Close()

	chunks, err := engine.ParseContent(source, filePath, 0)
	if errors.Is(err, types.ErrUnsupportedLanguage) {
		return nil, newMCPError(ErrorCodeInvalidParams, "unsupported file type", map[string]interface{}{
			"param": "file_path",
			"value": filePath,
		})
	}
	if err != nil {
		return nil, internalError("failed to parse file", err)
	}
	chunks = s.chunker.Populate(chunks, source)

	out := make([]map[string]interface{}, 0, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		entry := map[string]interface{}{
			"symbol":      c.Symbol,
			"chunk_type":  string(c.ChunkType),
			"declaration": c.IsDeclaration(),
			"start_line":  c.StartLine,
			"end_line":    c.EndLine,
			"token_count": c.TokenCount,
		}
		if len(c.Metadata) > 0 {
			entry["metadata"] = c.Metadata
		}
		if includeContent {
			entry["content"] = c.Content
		}
		out = append(out, entry)
	}

	response := map[string]interface{}{
		"file":        filePath,
		"language":    engine.Language(filePath).String(),
		"chunk_count": len(out),
		"chunks":      out,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	path, err := requireStringArg(args, "path", ErrorCodeInvalidParams)
	if err != nil {
		return nil, err
	}
	if err := validateDir(path); err != nil {
		return nil, invalidPath("path", err)
	}

	project, err := s.storage.GetProject(ctx, mustAbs(path))
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultText(formatJSON(map[string]interface{}{
			"indexed": false,
			"path":    path,
			"message": "Project not indexed. Use the index_project tool to index it.",
		})), nil
	}
	if err != nil {
		return nil, internalError("failed to get project status", err)
	}

	status, err := s.storage.GetStatus(ctx, project.ID)
	if err != nil {
		return nil, internalError("failed to get status", err)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"indexed":    true,
		"project":    projectInfo(project),
		"statistics": indexStatistics(status),
		"health":     indexHealth(status.Health),
	})), nil
}

func projectInfo(p *storage.Project) map[string]interface{} {
	return map[string]interface{}{
		"path":            p.RootPath,
		"name":            p.Name,
		"index_version":   p.IndexVersion,
		"last_indexed_at": p.LastIndexedAt.Format(time.RFC3339),
	}
}

func indexStatistics(st *storage.ProjectStatus) map[string]interface{} {
	return map[string]interface{}{
		"files_count":      st.FilesCount,
		"chunks_count":     st.ChunksCount,
		"embeddings_count": st.EmbeddingsCount,
		"language_counts":  st.LanguageCounts,
		"index_size_mb":    fmt.Sprintf("%.2f", st.IndexSizeMB),
	}
}

func indexHealth(h storage.HealthStatus) map[string]interface{} {
	return map[string]interface{}{
		"database_accessible":  h.DatabaseAccessible,
		"embeddings_available": h.EmbeddingsAvailable,
		"fts_indexes_built":    h.FTSIndexesBuilt,
	}
}

// parseFilters builds storage search filters from the tool arguments
func parseFilters(args map[string]interface{}) *storage.SearchFilters {
	raw, ok := args["filters"].(map[string]interface{})
	if !ok {
		return nil
	}

	filters := &storage.SearchFilters{
		ChunkTypes:  getStringSlice(raw, "chunk_types"),
		Languages:   getStringSlice(raw, "languages"),
		FilePattern: getStringDefault(raw, "file_pattern", ""),
		Macros:      getStringSlice(raw, "macros"),
	}
	if v, ok := raw["min_relevance"].(float64); ok {
		filters.MinRelevance = v
	}

	if len(filters.ChunkTypes) == 0 && len(filters.Languages) == 0 &&
		filters.FilePattern == "" && len(filters.Macros) == 0 && filters.MinRelevance == 0 {
		return nil
	}
	return filters
}

// validateDir checks that path is an absolute, readable directory
func validateDir(path string) error {
	info, err := statPath(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// validateFile checks that path is an absolute, regular file
func validateFile(path string) error {
	info, err := statPath(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return ErrNotFile
	}

	return nil
}

func statPath(path string) (os.FileInfo, error) {
	if path == "" {
		return nil, ErrPathRequired
	}
	if !filepath.IsAbs(path) {
		return nil, ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, ErrPathNotFound
	}
	if err != nil {
		return nil, ErrPathNotReadable
	}
	return info, nil
}

// mustAbs resolves path for project lookups. Validation has already
// required an absolute path, so the fallback only normalizes separators.
func mustAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// formatJSON renders a response map as indented JSON.
func formatJSON(data map[string]interface{}) string {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(out)
}

// getStringSlice reads a string array argument, skipping non-string
// elements. A missing key yields nil.
func getStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// getStringDefault reads a string argument, falling back when absent.
func getStringDefault(args map[string]interface{}, key string, fallback string) string {
	if s, ok := args[key].(string); ok {
		return s
	}
	return fallback
}

// getIntDefault reads an integer argument. JSON numbers arrive as float64.
func getIntDefault(args map[string]interface{}, key string, fallback int) int {
	switch n := args[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return fallback
}

// getBoolDefault reads a boolean argument, falling back when absent.
func getBoolDefault(args map[string]interface{}, key string, fallback bool) bool {
	if b, ok := args[key].(bool); ok {
		return b
	}
	return fallback
}

// Validation errors

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
	ErrNotFile         = errors.New("path is not a regular file")
)
