// Package searcher implements code search over indexed chunks, combining
// vector similarity, full-text matching and symbol lookup.
//
// Four search modes are available:
//   - Hybrid: vector + BM25 merged with Reciprocal Rank Fusion (default)
//   - Vector: pure semantic search using embeddings
//   - FTS: BM25 full-text search only
//   - Symbol: declaration lookup by name, with fuzzy fallback
//
// # Basic Usage
//
//	s := searcher.NewSearcher(store, emb)
//
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    ProjectID: project.ID,
//	    Query:     "user authentication logic",
//	    Limit:     10,
//	    Mode:      searcher.SearchModeHybrid,
//	})
//
//	for _, result := range resp.Results {
//	    fmt.Printf("[%d] %s %s (score: %.3f)\n",
//	        result.Rank, result.ChunkType, result.Symbol, result.RelevanceScore)
//	    fmt.Printf("    %s:%d-%d\n",
//	        result.File.Path, result.File.StartLine, result.File.EndLine)
//	}
//
// # Search Modes
//
// Hybrid mode runs the vector and FTS legs concurrently and merges them
// with RRF. It is the best default: semantic recall plus exact-term
// precision. One leg may fail (provider down, no vectors indexed) as long
// as the other returns results. Without an embedder, hybrid degrades to
// FTS only.
//
// Vector mode embeds the query and ranks chunks by cosine similarity.
// Best for conceptual queries ("retry with exponential backoff"). Requires
// an embedding provider and indexed vectors.
//
// FTS mode queries the SQLite FTS5 index directly. Best for exact terms
// and identifiers; works offline with no embedder.
//
// Symbol mode looks up declaration chunks (classes, modules, methods,
// functions, constants, types) by name. Exact matches score 1.0 and
// substring matches 0.95. When substring retrieval comes up short, the
// candidate pool widens to the symbol table and normalized Levenshtein
// distance ranks the rest, so "create_gest" still finds create_guest.
//
// # Reciprocal Rank Fusion
//
// Hybrid mode combines result lists position-wise:
//
//	rrf_score[chunk] = sum over lists of 1 / (k + rank(chunk))
//
// with k = 60. Chunks found by both legs accumulate both terms, so
// agreement between semantic and lexical ranking floats to the top.
//
// # Filtering
//
//	resp, _ := s.Search(ctx, searcher.SearchRequest{
//	    ProjectID: project.ID,
//	    Query:     "validation",
//	    Filters: &storage.SearchFilters{
//	        ChunkTypes:  []string{"method", "class"},
//	        Languages:   []string{"ruby"},
//	        FilePattern: "app/models/*",
//	    },
//	})
//
// Filters are applied inside the storage queries, before ranking.
//
// # Caching
//
// Responses are cached in an LRU keyed by a hash of query, mode, project,
// limit and filters. Entries expire after the request's CacheTTL (one hour
// by default). Cached responses are deep-copied on both store and load, so
// callers may mutate results freely. Call InvalidateCache after an index
// run; ResizeCache applies a configured capacity.
package searcher
