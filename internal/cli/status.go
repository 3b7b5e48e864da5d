package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"codechunk/internal/storage"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status [path]",
	Short: "Show index status for a project",
	Long: `Show what the index knows about the given directory: file and chunk
counts, language breakdown, size, and health.

Examples:
  codechunk status
  codechunk status /path/to/project --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	path, err := resolveProjectPath(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, _, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()

	project, err := store.GetProject(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		if statusJSON {
			fmt.Printf("{\n  \"indexed\": false,\n  \"path\": %q\n}\n", path)
			return nil
		}
		fmt.Printf("Project %s is not indexed. Run 'codechunk index' first.\n", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}

	status, err := store.GetStatus(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	if statusJSON {
		return printStatusJSON(status)
	}
	printStatusText(status)
	return nil
}

func printStatusJSON(status *storage.ProjectStatus) error {
	out := map[string]interface{}{
		"indexed": true,
		"project": map[string]interface{}{
			"path":            status.Project.RootPath,
			"name":            status.Project.Name,
			"index_version":   status.Project.IndexVersion,
			"last_indexed_at": status.LastIndexedAt.Format(time.RFC3339),
		},
		"statistics": map[string]interface{}{
			"files_count":      status.FilesCount,
			"chunks_count":     status.ChunksCount,
			"embeddings_count": status.EmbeddingsCount,
			"language_counts":  status.LanguageCounts,
			"index_size_mb":    status.IndexSizeMB,
		},
		"health": map[string]interface{}{
			"database_accessible":  status.Health.DatabaseAccessible,
			"embeddings_available": status.Health.EmbeddingsAvailable,
			"fts_indexes_built":    status.Health.FTSIndexesBuilt,
		},
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printStatusText(status *storage.ProjectStatus) {
	fmt.Printf("Project: %s\n", status.Project.RootPath)
	fmt.Printf("  Name:          %s\n", status.Project.Name)
	fmt.Printf("  Index version: %s\n", status.Project.IndexVersion)
	if !status.LastIndexedAt.IsZero() {
		fmt.Printf("  Last indexed:  %s", status.LastIndexedAt.Format("2006-01-02 15:04:05"))
		if status.IndexDuration > 0 {
			fmt.Printf(" (took %s)", formatDuration(status.IndexDuration))
		}
		fmt.Println()
	}

	fmt.Printf("\nContents:\n")
	fmt.Printf("  Files:      %d\n", status.FilesCount)
	fmt.Printf("  Chunks:     %d\n", status.ChunksCount)
	fmt.Printf("  Embeddings: %d\n", status.EmbeddingsCount)
	fmt.Printf("  Size:       %.2f MB\n", status.IndexSizeMB)

	if len(status.LanguageCounts) > 0 {
		fmt.Printf("\nLanguages:\n")
		langs := make([]string, 0, len(status.LanguageCounts))
		for lang := range status.LanguageCounts {
			langs = append(langs, lang)
		}
		sort.Slice(langs, func(i, j int) bool {
			if status.LanguageCounts[langs[i]] != status.LanguageCounts[langs[j]] {
				return status.LanguageCounts[langs[i]] > status.LanguageCounts[langs[j]]
			}
			return langs[i] < langs[j]
		})
		for _, lang := range langs {
			fmt.Printf("  %-12s %d\n", lang, status.LanguageCounts[lang])
		}
	}

	fmt.Printf("\nHealth:\n")
	fmt.Printf("  Database accessible:  %s\n", yesNo(status.Health.DatabaseAccessible))
	fmt.Printf("  Embeddings available: %s\n", yesNo(status.Health.EmbeddingsAvailable))
	fmt.Printf("  FTS indexes built:    %s\n", yesNo(status.Health.FTSIndexesBuilt))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
