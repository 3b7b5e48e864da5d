// Package types provides shared type definitions for codechunk.
//
// This package defines the domain types used across the extraction engine,
// the chunker, storage and search: chunks, metadata records, language tags
// and search results.
//
// # Core Types
//
// Chunk is the sole output entity of the extraction engine. It names a span
// of source lines, classifies it, and annotates it with structured metadata:
//
//	chunk := types.Chunk{
//	    Symbol:    "AdminUser",
//	    ChunkType: types.ChunkClass,
//	    StartLine: 45,
//	    EndLine:   58,
//	    Metadata:  types.Metadata{types.MetaSuperclass: "User"},
//	}
//
// Line numbers are 1-indexed and inclusive. Among chunks sharing an
// enclosing scope, line ranges never overlap; the returned sequence is
// sorted by StartLine with ties broken outer-before-inner.
//
// # Metadata
//
// Metadata is an open string-keyed map whose schema varies by chunk type.
// Declarations carry MetaKind; classes may carry MetaSuperclass and the
// framework-macro record lists:
//
//	assocs, _ := chunk.Metadata[types.MetaAssociations].([]types.Association)
//	for _, a := range assocs {
//	    fmt.Println(a.Type, a.Name) // "belongs_to author"
//	}
//
// # Errors
//
// GrammarError reports a total parse failure such as invalid encoding.
// Partial syntax errors are recovered by the grammar and never surface as
// errors; extraction returns best-effort chunks for the parseable regions.
//
//	var ge *types.GrammarError
//	if errors.As(err, &ge) {
//	    log.Printf("unparseable %s file: %v", ge.Language, ge.Err)
//	}
//
// # Search Results
//
// SearchResult combines chunk identity with relevance scoring:
//
//	result := &types.SearchResult{
//	    ChunkID:        123,
//	    Rank:           1,
//	    RelevanceScore: 0.92,
//	    Symbol:         "normalize_email",
//	    Content:        chunkContent,
//	}
//
// Relevance scores are normalized to [0, 1] range, with higher values
// indicating better matches.
package types
