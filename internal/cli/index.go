package cli

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"codechunk/internal/embedder"
	"codechunk/internal/indexer"
	"codechunk/internal/language"
)

var (
	indexEmbed    bool
	indexWorkers  int
	indexIncludes []string
	indexExcludes []string
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a project for search",
	Long: `Parse source files under the given directory into semantic chunks and
store them in the index database. Unchanged files are skipped on re-runs.

Examples:
  codechunk index .                  # Index current directory
  codechunk index /path/to/project   # Index a specific directory
  codechunk index . --embed          # Also generate embeddings`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&indexEmbed, "embed", false, "generate embeddings while indexing")
	indexCmd.Flags().IntVar(&indexWorkers, "workers", 0, "concurrent workers (default from config)")
	indexCmd.Flags().StringArrayVar(&indexIncludes, "include", nil, "include glob, repeatable (default from config)")
	indexCmd.Flags().StringArrayVar(&indexExcludes, "exclude", nil, "exclude glob, repeatable (default from config)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	path, err := resolveProjectPath(args)
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Flags override the config file when set.
	embed := cfg.Index.Embed
	if cmd.Flags().Changed("embed") {
		embed = indexEmbed
	}
	workers := cfg.Index.Workers
	if cmd.Flags().Changed("workers") {
		workers = indexWorkers
	}
	includes := cfg.Index.Includes
	if len(indexIncludes) > 0 {
		includes = indexIncludes
	}
	excludes := cfg.Index.Excludes
	if len(indexExcludes) > 0 {
		excludes = indexExcludes
	}

	store, dbPath, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var emb embedder.Embedder
	if embed {
		emb, err = cfg.Embedder()
		if err != nil {
			return fmt.Errorf("failed to create embedder: %w", err)
		}
		defer emb.Close()
	}

	idx := indexer.New(language.NewRegistry(), store, emb)

	fmt.Printf("Scanning %s...\n", path)

	// The total is only known once discovery finishes, so the bar is
	// created on the first progress callback. Workers report concurrently.
	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time
	var initialized bool

	progress := func(done, total int, currentFile string) {
		barMu.Lock()
		defer barMu.Unlock()

		if !initialized {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Indexing[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
			initialized = true
		}

		bar.Set(done)

		if done > 0 {
			elapsed := time.Since(startTime)
			rate := float64(done) / elapsed.Seconds()
			remaining := total - done
			if rate > 0 {
				eta := time.Duration(float64(remaining)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Indexing[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}

	stats, err := idx.IndexProject(cmd.Context(), path, &indexer.Config{
		Workers:    workers,
		Include:    includes,
		Exclude:    excludes,
		Embed:      embed,
		OnProgress: progress,
	})
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Files scanned:  %d\n", stats.FilesScanned)
	fmt.Printf("  Files indexed:  %d\n", stats.FilesIndexed)
	fmt.Printf("  Files skipped:  %d (unchanged)\n", stats.FilesSkipped)
	if stats.FilesFailed > 0 {
		fmt.Printf("  Files failed:   %d\n", stats.FilesFailed)
	}
	if stats.FilesDeleted > 0 {
		fmt.Printf("  Files deleted:  %d (removed)\n", stats.FilesDeleted)
	}
	fmt.Printf("  Chunks created: %d\n", stats.ChunksCreated)
	if stats.EmbeddingsCreated > 0 {
		fmt.Printf("  Embeddings:     %d\n", stats.EmbeddingsCreated)
	}
	fmt.Printf("  Duration:       %s\n", formatDuration(stats.Duration))

	if len(stats.ErrorMessages) > 0 {
		fmt.Printf("\nWarnings:\n")
		shown := stats.ErrorMessages
		if len(shown) > 10 {
			shown = shown[:10]
		}
		for _, e := range shown {
			fmt.Printf("  - %s\n", e)
		}
		if len(stats.ErrorMessages) > 10 {
			fmt.Printf("  ... and %d more\n", len(stats.ErrorMessages)-10)
		}
	}

	fmt.Printf("\nIndex stored at: %s\n", dbPath)
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
