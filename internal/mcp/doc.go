// Package mcp exposes indexing and search to AI coding assistants over the
// Model Context Protocol.
//
// The server speaks JSON-RPC 2.0 on stdio: requests arrive on stdin,
// responses leave on stdout, and every log line goes to stderr so the
// protocol stream stays clean. It is normally started with "codechunk
// serve".
//
// Four tools are registered:
//
// index_project walks a source tree and fills the index. Arguments: path
// (absolute, required), embed, workers, include/exclude globs. Unchanged
// files are skipped by content hash, so repeated calls only pay for what
// changed. The response reports per-file counters and duration:
//
//	{
//	  "indexed": true,
//	  "files_scanned": 336,
//	  "files_indexed": 247,
//	  "files_skipped": 89,
//	  "chunks_created": 8432,
//	  "duration_ms": 35200
//	}
//
// search_code queries an indexed tree. Arguments: path and query
// (required), limit, search_mode (hybrid, vector, fts or symbol), and an
// optional filters object narrowing by chunk_types, languages,
// file_pattern, macros and min_relevance. Results carry rank,
// relevance_score, symbol, chunk_type, file location and a snippet:
//
//	{
//	  "query": "where are validation rules declared",
//	  "mode": "hybrid",
//	  "total_results": 3,
//	  "results": [
//	    {
//	      "rank": 1,
//	      "relevance_score": 0.92,
//	      "symbol": "validate_email",
//	      "chunk_type": "method",
//	      "file": "app/models/user.rb",
//	      "start_line": 45,
//	      "end_line": 52
//	    }
//	  ]
//	}
//
// extract_file parses one file in place and returns its chunk list without
// touching the index. It takes file_path plus an include_content flag, and
// answers with the file's language and one entry per chunk (symbol, type,
// line span, token count, metadata).
//
// get_status reports whether a tree is indexed and, when it is, the
// project row, per-language file counts, chunk and embedding totals, index
// size and health probes.
//
// Failures come back as JSON-RPC errors with a structured data payload
// naming the offending parameter:
//
//	{
//	  "error": {
//	    "code": -32602,
//	    "message": "invalid path",
//	    "data": {"param": "path", "reason": "path does not exist"}
//	  }
//	}
//
// Codes follow the JSON-RPC conventions: -32602 invalid params, -32603
// internal error, plus server-specific -32002 (indexing already running),
// -32003 (project not indexed) and -32004 (empty query).
//
// A typical MCP client configuration runs the binary directly:
//
//	{
//	  "mcpServers": {
//	    "codechunk": {
//	      "command": "/usr/local/bin/codechunk",
//	      "args": ["serve"],
//	      "env": {"CODECHUNK_JINA_API_KEY": "your-api-key"}
//	    }
//	  }
//	}
//
// Without API keys the server falls back to the local embedding provider
// and stays fully offline.
package mcp
