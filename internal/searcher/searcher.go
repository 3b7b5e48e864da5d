package searcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agext/levenshtein"
	lru "github.com/hashicorp/golang-lru/v2"

	"codechunk/internal/chunker"
	"codechunk/internal/embedder"
	"codechunk/internal/storage"
	"codechunk/pkg/types"
)

// SearchMode defines how search is performed
type SearchMode string

const (
	SearchModeHybrid SearchMode = "hybrid" // Vector + FTS with RRF
	SearchModeVector SearchMode = "vector" // Vector similarity only
	SearchModeFTS    SearchMode = "fts"    // Full-text (BM25) only
	SearchModeSymbol SearchMode = "symbol" // Symbol name lookup
)

const (
	// DefaultCacheSize is the response cache capacity in entries
	DefaultCacheSize = 1000

	// DefaultRRFConstant is the k value for Reciprocal Rank Fusion
	DefaultRRFConstant = 60

	// DefaultLimit is the result count when the request does not set one
	DefaultLimit = 10

	// MaxLimit caps the result count per request
	MaxLimit = 100

	// snippetLines is the number of content lines kept in result snippets
	snippetLines = 5

	// fuzzyThreshold is the minimum similarity score for fuzzy symbol matches
	fuzzyThreshold = 0.3

	// fuzzyPoolSize bounds the candidate pool scanned when the substring
	// lookup comes up short
	fuzzyPoolSize = 500
)

// SearchRequest carries one query and its execution knobs.
type SearchRequest struct {
	ProjectID int64
	Query     string
	Mode      SearchMode
	Limit     int
	Filters   *storage.SearchFilters

	// RRFConstant is the k in 1/(k+rank); zero means DefaultRRFConstant
	RRFConstant float64

	UseCache bool
	CacheTTL time.Duration
}

// SearchResponse bundles ranked results with how they were produced.
type SearchResponse struct {
	Results      []types.SearchResult
	TotalResults int

	SearchMode SearchMode
	CacheHit   bool
	Duration   time.Duration

	// Raw hit counts per leg, before fusion and fetching
	VectorResults int
	TextResults   int
}

// cacheEntry is a cached search response with its expiration time
type cacheEntry struct {
	response  *SearchResponse
	expiresAt time.Time
}

// Searcher coordinates search across the FTS index, the vector store and
// the symbol table. The embedder may be nil: vector search then fails and
// hybrid search degrades to FTS only.
type Searcher struct {
	store storage.Storage
	emb   embedder.Embedder

	cacheMu sync.RWMutex
	cache   *lru.Cache[[32]byte, *cacheEntry]
}

// NewSearcher wires a Searcher over the given store and embedder.
func NewSearcher(store storage.Storage, emb embedder.Embedder) *Searcher {
	cache, err := lru.New[[32]byte, *cacheEntry](DefaultCacheSize)
	if err != nil {
		// Only reachable with a non-positive size
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}
	return &Searcher{store: store, emb: emb, cache: cache}
}

// ResizeCache changes the response cache capacity, evicting the least
// recently used entries if the cache shrinks.
func (s *Searcher) ResizeCache(size int) {
	if size <= 0 {
		return
	}
	s.cacheMu.Lock()
	s.cache.Resize(size)
	s.cacheMu.Unlock()
}

// Search runs one query and returns ranked results.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	start := time.Now()

	if err := s.validateRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	if req.UseCache {
		if hit := s.checkCache(req); hit != nil {
			hit.CacheHit = true
			hit.Duration = time.Since(start)
			return hit, nil
		}
	}

	resp, err := s.dispatch(ctx, req)
	if err != nil {
		return nil, err
	}

	resp.SearchMode = req.Mode
	resp.Duration = time.Since(start)

	if req.UseCache && len(resp.Results) > 0 {
		s.storeInCache(req, resp)
	}
	return resp, nil
}

func (s *Searcher) dispatch(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	switch req.Mode {
	case SearchModeHybrid:
		return s.hybridSearch(ctx, req)
	case SearchModeVector:
		return s.vectorSearch(ctx, req)
	case SearchModeFTS:
		return s.ftsSearch(ctx, req)
	case SearchModeSymbol:
		return s.symbolSearch(ctx, req)
	default:
		return nil, fmt.Errorf("unsupported search mode: %s", req.Mode)
	}
}

// assembleResponse fetches chunk rows for the ranked IDs and wraps them
// with the per-leg hit counts.
func (s *Searcher) assembleResponse(ctx context.Context, ranked []rankedResult, limit, vectorHits, textHits int) (*SearchResponse, error) {
	results, err := s.fetchResults(ctx, ranked, limit)
	if err != nil {
		return nil, err
	}

	return &SearchResponse{
		Results:       results,
		TotalResults:  len(results),
		VectorResults: vectorHits,
		TextResults:   textHits,
	}, nil
}

// hybridSearch runs the vector and FTS legs concurrently and merges them
// with Reciprocal Rank Fusion. One leg may fail as long as the other
// produces results. Without an embedder only the FTS leg runs.
func (s *Searcher) hybridSearch(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if s.emb == nil {
		return s.ftsSearch(ctx, req)
	}

	var (
		vecResults  []storage.VectorResult
		vecErr      error
		textResults []storage.TextResult
		textErr     error
	)

	// Each leg doubles the limit so fusion has enough overlap to work with
	done := make(chan struct{}, 2)
	go func() {
		defer func() { done <- struct{}{} }()
		emb, err := s.emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: req.Query})
		if err != nil {
			vecErr = fmt.Errorf("failed to generate query embedding: %w", err)
			return
		}
		vecResults, vecErr = s.store.SearchVector(ctx, req.ProjectID, emb.Vector, req.Limit*2, req.Filters)
	}()
	go func() {
		defer func() { done <- struct{}{} }()
		textResults, textErr = s.store.SearchText(ctx, req.ProjectID, req.Query, req.Limit*2, req.Filters)
	}()

	for pending := 2; pending > 0; pending-- {
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if vecErr != nil && textErr != nil {
		return nil, fmt.Errorf("both searches failed: vector=%w, text=%v", vecErr, textErr)
	}

	ranked := applyRRF(vecResults, textResults, req.RRFConstant)
	return s.assembleResponse(ctx, ranked, req.Limit, len(vecResults), len(textResults))
}

// vectorSearch performs only vector similarity search
func (s *Searcher) vectorSearch(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if s.emb == nil {
		return nil, fmt.Errorf("vector search requires an embedding provider")
	}

	emb, err := s.emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: req.Query})
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}

	hits, err := s.store.SearchVector(ctx, req.ProjectID, emb.Vector, req.Limit, req.Filters)
	if err != nil {
		return nil, err
	}

	ranked := make([]rankedResult, len(hits))
	for i, h := range hits {
		ranked[i] = rankedResult{chunkID: h.ChunkID, score: h.SimilarityScore, rank: i + 1}
	}
	return s.assembleResponse(ctx, ranked, req.Limit, len(hits), 0)
}

// ftsSearch performs only BM25 full-text search
func (s *Searcher) ftsSearch(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	hits, err := s.store.SearchText(ctx, req.ProjectID, req.Query, req.Limit, req.Filters)
	if err != nil {
		return nil, err
	}

	ranked := make([]rankedResult, len(hits))
	for i, h := range hits {
		ranked[i] = rankedResult{chunkID: h.ChunkID, score: h.BM25Score, rank: i + 1}
	}
	return s.assembleResponse(ctx, ranked, req.Limit, 0, len(hits))
}

// symbolSearch looks up declaration chunks by name. Substring matches come
// straight from storage; when those come up short the candidate pool widens
// to the whole symbol table and edit distance takes over, so a typo like
// "create_gest" still finds create_guest.
func (s *Searcher) symbolSearch(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	candidates, err := s.store.SearchSymbols(ctx, req.ProjectID, req.Query, req.Limit*4)
	if err != nil {
		return nil, err
	}

	if len(candidates) < req.Limit {
		pool, err := s.store.SearchSymbols(ctx, req.ProjectID, "", fuzzyPoolSize)
		if err != nil {
			return nil, err
		}
		seen := make(map[int64]bool, len(candidates))
		for _, c := range candidates {
			seen[c.ID] = true
		}
		for _, c := range pool {
			if !seen[c.ID] {
				candidates = append(candidates, c)
			}
		}
	}

	type scored struct {
		chunk *storage.Chunk
		score float64
	}
	matches := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		score := symbolScore(req.Query, c.Symbol)
		if score >= fuzzyThreshold {
			matches = append(matches, scored{chunk: c, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return len(matches[i].chunk.Symbol) < len(matches[j].chunk.Symbol)
	})
	if len(matches) > req.Limit {
		matches = matches[:req.Limit]
	}

	results := make([]types.SearchResult, 0, len(matches))
	for i, m := range matches {
		result, err := s.buildResult(ctx, m.chunk, i+1, m.score)
		if err != nil {
			continue
		}
		results = append(results, result)
	}

	return &SearchResponse{
		Results:      results,
		TotalResults: len(results),
	}, nil
}

// symbolScore rates how well a symbol answers a name query: 1.0 for an
// exact match, 0.95 for a substring hit, otherwise normalized edit
// distance.
func symbolScore(query, symbol string) float64 {
	q := strings.ToLower(query)
	sym := strings.ToLower(symbol)

	if q == sym {
		return 1.0
	}
	if strings.Contains(sym, q) {
		return 0.95
	}

	dist := levenshtein.Distance(q, sym, nil)
	maxLen := len(q)
	if len(sym) > maxLen {
		maxLen = len(sym)
	}
	if maxLen == 0 {
		return 0
	}
	score := 1.0 - float64(dist)/float64(maxLen)
	if score < 0 {
		return 0
	}
	return score
}

// rankedResult is a chunk with its relevance score and rank
type rankedResult struct {
	chunkID int64
	score   float64
	rank    int
}

// applyRRF merges the two result lists with Reciprocal Rank Fusion:
// RRF(d) = sum over lists of 1/(k + rank(d))
func applyRRF(vectorResults []storage.VectorResult, textResults []storage.TextResult, k float64) []rankedResult {
	if k == 0 {
		k = DefaultRRFConstant
	}

	scores := make(map[int64]float64)
	for rank, vr := range vectorResults {
		scores[vr.ChunkID] += 1.0 / (k + float64(rank+1))
	}
	for rank, tr := range textResults {
		scores[tr.ChunkID] += 1.0 / (k + float64(rank+1))
	}

	results := make([]rankedResult, 0, len(scores))
	for chunkID, score := range scores {
		results = append(results, rankedResult{chunkID: chunkID, score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].chunkID < results[j].chunkID
	})
	for i := range results {
		results[i].rank = i + 1
	}

	return results
}

// fetchResults loads chunk and file rows for the top ranked results.
// Chunks deleted since the index snapshot are skipped silently.
func (s *Searcher) fetchResults(ctx context.Context, ranked []rankedResult, limit int) ([]types.SearchResult, error) {
	if limit > len(ranked) {
		limit = len(ranked)
	}

	results := make([]types.SearchResult, 0, limit)
	for _, rr := range ranked[:limit] {
		chunk, err := s.store.GetChunk(ctx, rr.chunkID)
		if err != nil {
			continue
		}
		result, err := s.buildResult(ctx, chunk, rr.rank, rr.score)
		if err != nil {
			continue
		}
		results = append(results, result)
	}

	return results, nil
}

func (s *Searcher) buildResult(ctx context.Context, chunk *storage.Chunk, rank int, score float64) (types.SearchResult, error) {
	file, err := s.store.GetFileByID(ctx, chunk.FileID)
	if err != nil {
		return types.SearchResult{}, err
	}

	return types.SearchResult{
		ChunkID:        chunk.ID,
		Rank:           rank,
		RelevanceScore: score,
		Symbol:         chunk.Symbol,
		ChunkType:      types.ChunkType(chunk.ChunkType),
		File: &types.FileInfo{
			Path:      file.FilePath,
			Language:  types.Language(file.Language),
			StartLine: chunk.StartLine,
			EndLine:   chunk.EndLine,
		},
		Content: chunk.Content,
		Snippet: chunker.Snippet(chunk.Content, snippetLines),
	}, nil
}

// validateRequest checks the request and fills in defaults
func (s *Searcher) validateRequest(req *SearchRequest) error {
	if req.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}

	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}
	if req.Mode == "" {
		req.Mode = SearchModeHybrid
	}
	if req.RRFConstant == 0 {
		req.RRFConstant = DefaultRRFConstant
	}
	if req.CacheTTL == 0 {
		req.CacheTTL = 1 * time.Hour
	}

	return nil
}

// checkCache returns a copy of the cached response for the request, or nil
// on a miss. Expired entries are removed on access.
func (s *Searcher) checkCache(req SearchRequest) *SearchResponse {
	hash := computeQueryHash(req)
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}

	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()
		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil
	}

	// Copy while holding the read lock so the entry cannot change mid-copy
	response := copySearchResponse(entry.response)
	s.cacheMu.RUnlock()

	return response
}

// storeInCache saves a deep copy of the response under the request's hash
func (s *Searcher) storeInCache(req SearchRequest, response *SearchResponse) {
	entry := &cacheEntry{
		response:  copySearchResponse(response),
		expiresAt: time.Now().Add(req.CacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(computeQueryHash(req), entry)
	s.cacheMu.Unlock()
}

// copySearchResponse creates a deep copy of a SearchResponse. Callers may
// mutate what they get back without corrupting the cached original.
func copySearchResponse(src *SearchResponse) *SearchResponse {
	if src == nil {
		return nil
	}

	dst := *src
	dst.Results = make([]types.SearchResult, len(src.Results))
	copy(dst.Results, src.Results)
	for i := range dst.Results {
		if f := dst.Results[i].File; f != nil {
			fileCopy := *f
			dst.Results[i].File = &fileCopy
		}
	}
	return &dst
}

// computeQueryHash builds a deterministic cache key from every field that
// affects the result set
func computeQueryHash(req SearchRequest) [32]byte {
	var data strings.Builder
	data.WriteString(req.Query)
	data.WriteString("|")
	data.WriteString(string(req.Mode))
	data.WriteString("|")
	fmt.Fprintf(&data, "%d|%d", req.ProjectID, req.Limit)

	if req.Filters != nil {
		data.WriteString("|filters:")
		data.WriteString(strings.Join(req.Filters.ChunkTypes, ","))
		data.WriteString("|")
		data.WriteString(strings.Join(req.Filters.Languages, ","))
		data.WriteString("|")
		data.WriteString(req.Filters.FilePattern)
		data.WriteString("|")
		fmt.Fprintf(&data, "%.2f", req.Filters.MinRelevance)
		data.WriteString("|")
		data.WriteString(strings.Join(req.Filters.Macros, ","))
	}

	return sha256.Sum256([]byte(data.String()))
}

// InvalidateCache drops all cached responses. The per-entry project ID is
// not recoverable from the key hash, so an index run on any project clears
// everything. Re-indexing is rare next to querying.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}
