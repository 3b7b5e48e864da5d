package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"codechunk/internal/embedder"
	"codechunk/internal/searcher"
	"codechunk/internal/storage"
	"codechunk/pkg/types"
)

var (
	searchQuery   string
	searchLimit   int
	searchMode    string
	searchJSON    bool
	searchTypes   []string
	searchLangs   []string
	searchPattern string
)

var searchCmd = &cobra.Command{
	Use:   "search [path]",
	Short: "Search an indexed project",
	Long: `Search the index of the given directory for relevant code chunks.

Modes: hybrid (vector + full-text, the default), vector, fts, symbol.

Examples:
  codechunk search -q "payment processing"
  codechunk search -q "User" --mode symbol
  codechunk search -q "retry logic" --chunk-type method --limit 20 --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "search query (required)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "k", 0, "number of results (default from config)")
	searchCmd.Flags().StringVar(&searchMode, "mode", "", "search mode: hybrid, vector, fts, symbol (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.Flags().StringArrayVar(&searchTypes, "chunk-type", nil, "restrict to chunk types, repeatable")
	searchCmd.Flags().StringArrayVar(&searchLangs, "language", nil, "restrict to languages, repeatable")
	searchCmd.Flags().StringVar(&searchPattern, "file-pattern", "", "restrict to files matching a glob, e.g. 'app/models/*'")
	searchCmd.MarkFlagRequired("query")
}

// searchResultJSON is the shape emitted by --json.
type searchResultJSON struct {
	Rank      int     `json:"rank"`
	Score     float64 `json:"score"`
	Symbol    string  `json:"symbol"`
	ChunkType string  `json:"chunk_type"`
	File      string  `json:"file,omitempty"`
	Language  string  `json:"language,omitempty"`
	StartLine int     `json:"start_line,omitempty"`
	EndLine   int     `json:"end_line,omitempty"`
	Snippet   string  `json:"snippet"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	path, err := resolveProjectPath(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	mode := searcher.SearchMode(cfg.Search.Mode)
	if searchMode != "" {
		mode = searcher.SearchMode(searchMode)
	}
	limit := cfg.Search.Limit
	if searchLimit > 0 {
		limit = searchLimit
	}

	store, _, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()

	project, err := store.GetProject(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("no index found for %s. Run 'codechunk index' first", path)
	}
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}

	// The fts and symbol modes never touch embeddings, so skip provider
	// construction for them. Hybrid degrades to full-text when the provider
	// cannot be built; vector mode needs it.
	var emb embedder.Embedder
	switch mode {
	case searcher.SearchModeFTS, searcher.SearchModeSymbol:
	default:
		emb, err = cfg.Embedder()
		if err != nil {
			if mode == searcher.SearchModeVector {
				return fmt.Errorf("failed to create embedder: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Warning: embedder unavailable, falling back to full-text: %v\n", err)
			emb = nil
		} else {
			defer emb.Close()
		}
	}

	srch := searcher.NewSearcher(store, emb)
	srch.ResizeCache(cfg.Search.CacheSize)

	var filters *storage.SearchFilters
	if len(searchTypes) > 0 || len(searchLangs) > 0 || searchPattern != "" {
		filters = &storage.SearchFilters{
			ChunkTypes:  searchTypes,
			Languages:   searchLangs,
			FilePattern: searchPattern,
		}
	}

	resp, err := srch.Search(ctx, searcher.SearchRequest{
		Query:     searchQuery,
		Limit:     limit,
		Mode:      mode,
		Filters:   filters,
		ProjectID: project.ID,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return printResultsJSON(resp)
	}
	printResultsText(resp, searchQuery)
	return nil
}

func printResultsJSON(resp *searcher.SearchResponse) error {
	out := make([]searchResultJSON, 0, len(resp.Results))
	for _, r := range resp.Results {
		entry := searchResultJSON{
			Rank:      r.Rank,
			Score:     r.RelevanceScore,
			Symbol:    r.Symbol,
			ChunkType: string(r.ChunkType),
			Snippet:   r.Snippet,
		}
		if r.File != nil {
			entry.File = r.File.Path
			entry.Language = string(r.File.Language)
			entry.StartLine = r.File.StartLine
			entry.EndLine = r.File.EndLine
		}
		out = append(out, entry)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printResultsText(resp *searcher.SearchResponse, query string) {
	if len(resp.Results) == 0 {
		fmt.Println("No results found.")
		return
	}

	fmt.Printf("Found %d results for: %s (%s mode, %s)\n\n",
		resp.TotalResults, query, resp.SearchMode, resp.Duration.Round(time.Millisecond))

	for _, r := range resp.Results {
		fmt.Printf("--- [%d] %s (score: %.2f) [%s] %s ---\n",
			r.Rank, resultLocation(&r), r.RelevanceScore, r.ChunkType, r.Symbol)
		if r.Snippet != "" {
			fmt.Println(r.Snippet)
		}
		fmt.Println()
	}
}

func resultLocation(r *types.SearchResult) string {
	if r.File == nil {
		return fmt.Sprintf("chunk %d", r.ChunkID)
	}
	return fmt.Sprintf("%s:L%d-%d", r.File.Path, r.File.StartLine, r.File.EndLine)
}
