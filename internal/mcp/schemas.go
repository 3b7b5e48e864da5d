package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func stringProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

func boolProp(desc string, def bool) map[string]interface{} {
	return map[string]interface{}{"type": "boolean", "description": desc, "default": def}
}

func stringArrayProp(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": desc,
		"items":       map[string]interface{}{"type": "string"},
	}
}

func objectSchema(props map[string]interface{}, required ...string) mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

// indexProjectTool returns the tool definition for index_project
func indexProjectTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_project",
		Description: "Index a source tree to make it searchable. Unchanged files are skipped by content hash.",
		InputSchema: objectSchema(map[string]interface{}{
			"path":  stringProp("Absolute path to the project root"),
			"embed": boolProp("If true, generate vector embeddings for new chunks", false),
			"workers": map[string]interface{}{
				"type":        "integer",
				"description": "Number of concurrent workers (default: CPU count)",
				"minimum":     1,
			},
			"include": stringArrayProp("Include glob patterns, e.g. 'app/**/*.rb' (default: every supported language)"),
			"exclude": stringArrayProp("Extra exclude glob patterns, appended to the built-in vendor and VCS excludes"),
		}, "path"),
	}
}

// searchCodeTool returns the tool definition for search_code
func searchCodeTool() mcp.Tool {
	filters := map[string]interface{}{
		"type":        "object",
		"description": "Optional filters to narrow search",
		"properties": map[string]interface{}{
			"chunk_types": map[string]interface{}{
				"type":        "array",
				"description": "Filter by chunk kind",
				"items": map[string]interface{}{
					"type": "string",
					"enum": []string{"class", "module", "method", "function", "constant", "comment", "import", "type"},
				},
			},
			"languages":    stringArrayProp("Filter by source language (ruby, python, go, javascript, typescript)"),
			"file_pattern": stringProp("Glob pattern for file paths (e.g., 'app/models/*')"),
			"macros":       stringArrayProp("Filter by recognized framework macros (e.g., 'has_many', 'validates')"),
			"min_relevance": map[string]interface{}{
				"type":        "number",
				"description": "Minimum relevance score threshold (0.0-1.0)",
				"minimum":     0.0,
				"maximum":     1.0,
			},
		},
	}

	return mcp.Tool{
		Name:        "search_code",
		Description: "Search an indexed project with natural language, keywords, or a symbol name",
		InputSchema: objectSchema(map[string]interface{}{
			"path":  stringProp("Absolute path to the indexed project root"),
			"query": stringProp("Search query (natural language, keywords, or symbol name)"),
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of results to return (1-100)",
				"default":     10,
				"minimum":     1,
				"maximum":     100,
			},
			"search_mode": map[string]interface{}{
				"type":        "string",
				"description": "Search strategy: hybrid (vector + text), vector (semantic only), fts (BM25 only), or symbol (name lookup with fuzzy matching)",
				"enum":        []string{"hybrid", "vector", "fts", "symbol"},
				"default":     "hybrid",
			},
			"filters": filters,
		}, "path", "query"),
	}
}

// extractFileTool returns the tool definition for extract_file
func extractFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "extract_file",
		Description: "Parse a single source file and return its chunks as JSON, without touching the index",
		InputSchema: objectSchema(map[string]interface{}{
			"file_path":       stringProp("Absolute path to the source file"),
			"include_content": boolProp("If true, include the full chunk content in the output", true),
		}, "file_path"),
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query indexing status and statistics for a project",
		InputSchema: objectSchema(map[string]interface{}{
			"path": stringProp("Absolute path to the project root"),
		}, "path"),
	}
}
