package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"codechunk/internal/chunker"
	"codechunk/internal/indexer"
	"codechunk/internal/language"
	"codechunk/internal/searcher"
	"codechunk/internal/storage"
	"codechunk/pkg/types"
)

// SearchTestSuite indexes the fixture project with mock embeddings and
// exercises every search mode end to end.
type SearchTestSuite struct {
	suite.Suite
	storage     storage.Storage
	searcher    *searcher.Searcher
	embedder    *MockEmbedder
	fixturesDir string
	projectID   int64
	ctx         context.Context
}

func (s *SearchTestSuite) SetupSuite() {
	s.ctx = context.Background()

	wd, err := os.Getwd()
	s.Require().NoError(err)
	s.fixturesDir = filepath.Join(filepath.Dir(wd), "testdata", "fixtures")
}

func (s *SearchTestSuite) SetupTest() {
	store, err := storage.NewSQLiteStorage(":memory:")
	s.Require().NoError(err)
	s.storage = store

	s.embedder = NewMockEmbedder(384)
	s.searcher = searcher.NewSearcher(store, s.embedder)

	idx := indexer.New(language.NewRegistry(), store, s.embedder)
	stats, err := idx.IndexProject(s.ctx, s.fixturesDir, &indexer.Config{Embed: true})
	s.Require().NoError(err)
	s.Require().Greater(stats.ChunksCreated, 0)
	s.Require().Equal(stats.ChunksCreated, stats.EmbeddingsCreated)

	project, err := store.GetProject(s.ctx, s.fixturesDir)
	s.Require().NoError(err)
	s.projectID = project.ID
}

func (s *SearchTestSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
}

func (s *SearchTestSuite) search(req searcher.SearchRequest) *searcher.SearchResponse {
	s.T().Helper()
	req.ProjectID = s.projectID
	resp, err := s.searcher.Search(s.ctx, req)
	s.Require().NoError(err)
	s.Require().NotNil(resp)
	return resp
}

// TestHybridSearch fuses the vector and text legs.
func (s *SearchTestSuite) TestHybridSearch() {
	resp := s.search(searcher.SearchRequest{
		Query: "process payment",
		Limit: 10,
		Mode:  searcher.SearchModeHybrid,
	})

	s.Equal(searcher.SearchModeHybrid, resp.SearchMode)
	s.NotEmpty(resp.Results)
	s.Greater(resp.TextResults, 0, "text leg should contribute")

	symbols := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		symbols = append(symbols, r.Symbol)
	}
	s.Contains(symbols, "process_payment")
}

// TestVectorSearch queries with the exact text a chunk was embedded under;
// the identical text embeds identically, so that chunk must rank first with
// a perfect similarity score.
func (s *SearchTestSuite) TestVectorSearch() {
	file, err := s.storage.GetFile(s.ctx, s.projectID, "app/services/payment_service.rb")
	s.Require().NoError(err)
	chunks, err := s.storage.ListChunksByFile(s.ctx, file.ID)
	s.Require().NoError(err)

	var target *storage.Chunk
	for _, chunk := range chunks {
		if chunk.Symbol == "refund_payment" {
			target = chunk
			break
		}
	}
	s.Require().NotNil(target, "refund_payment chunk should exist")

	query := chunker.New().EmbeddingText(&types.Chunk{
		Symbol:    target.Symbol,
		ChunkType: types.ChunkType(target.ChunkType),
		Content:   target.Content,
	}, file.FilePath)

	resp := s.search(searcher.SearchRequest{
		Query: query,
		Limit: 5,
		Mode:  searcher.SearchModeVector,
	})

	s.Equal(searcher.SearchModeVector, resp.SearchMode)
	s.Greater(resp.VectorResults, 0)
	s.Require().NotEmpty(resp.Results)
	s.Equal(target.ID, resp.Results[0].ChunkID)
	s.InDelta(1.0, resp.Results[0].RelevanceScore, 0.0001)
}

// TestFTSSearch queries the BM25 index directly.
func (s *SearchTestSuite) TestFTSSearch() {
	resp := s.search(searcher.SearchRequest{
		Query: "refund_payment",
		Limit: 10,
		Mode:  searcher.SearchModeFTS,
	})

	s.Equal(searcher.SearchModeFTS, resp.SearchMode)
	s.Greater(resp.TextResults, 0)
	s.Equal(0, resp.VectorResults, "fts mode never touches vectors")
	s.Require().NotEmpty(resp.Results)
	s.Equal("refund_payment", resp.Results[0].Symbol)
}

// TestSymbolSearch looks up declarations by name, tolerating typos.
func (s *SearchTestSuite) TestSymbolSearch() {
	s.Run("Exact", func() {
		resp := s.search(searcher.SearchRequest{
			Query: "SessionStore",
			Mode:  searcher.SearchModeSymbol,
		})
		s.Require().NotEmpty(resp.Results)
		s.Equal("SessionStore", resp.Results[0].Symbol)
		s.InDelta(1.0, resp.Results[0].RelevanceScore, 0.0001)
	})

	s.Run("Typo", func() {
		resp := s.search(searcher.SearchRequest{
			Query: "PaymentServce",
			Mode:  searcher.SearchModeSymbol,
		})
		s.Require().NotEmpty(resp.Results)
		s.Equal("PaymentService", resp.Results[0].Symbol)
	})

	s.Run("NoMatch", func() {
		resp := s.search(searcher.SearchRequest{
			Query: "qqqqqqqqqqqqqqqq",
			Mode:  searcher.SearchModeSymbol,
		})
		s.Empty(resp.Results)
	})
}

// TestSearchAcrossLanguages finds chunks from every grammar in one index.
func (s *SearchTestSuite) TestSearchAcrossLanguages() {
	resp := s.search(searcher.SearchRequest{
		Query: "Inventory",
		Limit: 10,
		Mode:  searcher.SearchModeFTS,
	})

	s.Require().NotEmpty(resp.Results)
	var foundTypescript bool
	for _, r := range resp.Results {
		if r.File != nil && r.File.Language == types.LangTypeScript {
			foundTypescript = true
		}
	}
	s.True(foundTypescript, "typescript chunks should be searchable")
}

// TestSearchFilters narrows results by chunk type, language, and path.
func (s *SearchTestSuite) TestSearchFilters() {
	s.Run("ChunkTypes", func() {
		resp := s.search(searcher.SearchRequest{
			Query:   "PaymentService",
			Limit:   10,
			Mode:    searcher.SearchModeFTS,
			Filters: &storage.SearchFilters{ChunkTypes: []string{"class"}},
		})
		s.Require().NotEmpty(resp.Results)
		for _, r := range resp.Results {
			s.Equal(types.ChunkClass, r.ChunkType)
		}
	})

	s.Run("Languages", func() {
		resp := s.search(searcher.SearchRequest{
			Query:   "report",
			Limit:   10,
			Mode:    searcher.SearchModeFTS,
			Filters: &storage.SearchFilters{Languages: []string{"python"}},
		})
		s.Require().NotEmpty(resp.Results)
		for _, r := range resp.Results {
			s.Require().NotNil(r.File)
			s.Equal(types.LangPython, r.File.Language)
		}
	})

	s.Run("FilePattern", func() {
		resp := s.search(searcher.SearchRequest{
			Query:   "payment",
			Limit:   10,
			Mode:    searcher.SearchModeFTS,
			Filters: &storage.SearchFilters{FilePattern: "app/*"},
		})
		s.Require().NotEmpty(resp.Results)
		for _, r := range resp.Results {
			s.Require().NotNil(r.File)
			s.Contains(r.File.Path, "app/")
		}
	})
}

// TestSearchResponseFields checks every field a consumer renders.
func (s *SearchTestSuite) TestSearchResponseFields() {
	resp := s.search(searcher.SearchRequest{
		Query: "session",
		Limit: 5,
		Mode:  searcher.SearchModeHybrid,
	})

	s.Require().NotEmpty(resp.Results)
	s.LessOrEqual(len(resp.Results), 5)
	s.Equal(len(resp.Results), resp.TotalResults)
	s.Greater(resp.Duration, time.Duration(0))

	for i, r := range resp.Results {
		s.Equal(i+1, r.Rank)
		s.NotZero(r.ChunkID)
		s.Greater(r.RelevanceScore, 0.0)
		s.NotEmpty(r.Content)
		s.NotEmpty(r.Snippet)
		s.Require().NotNil(r.File)
		s.NotEmpty(r.File.Path)
		s.Greater(r.File.StartLine, 0)
		s.GreaterOrEqual(r.File.EndLine, r.File.StartLine)
	}
}

// TestSearchCaching repeats a cacheable request and expects a hit.
func (s *SearchTestSuite) TestSearchCaching() {
	req := searcher.SearchRequest{
		Query:    "authenticate",
		Limit:    5,
		Mode:     searcher.SearchModeFTS,
		UseCache: true,
	}

	first := s.search(req)
	s.False(first.CacheHit)
	s.Require().NotEmpty(first.Results)

	second := s.search(req)
	s.True(second.CacheHit)
	s.Equal(first.TotalResults, second.TotalResults)
}

func TestSearchTestSuite(t *testing.T) {
	suite.Run(t, new(SearchTestSuite))
}
