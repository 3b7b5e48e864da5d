package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"codechunk/internal/chunker"
	"codechunk/internal/language"
	"codechunk/internal/parser"
	"codechunk/pkg/types"
)

var (
	extractJSON    bool
	extractContent bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract chunks from a single file",
	Long: `Parse one source file and print its semantic chunks without touching
the index.

Examples:
  codechunk extract app/models/user.rb
  codechunk extract lib/auth.py --json`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "output as JSON")
	extractCmd.Flags().BoolVar(&extractContent, "content", false, "include chunk content in JSON output")
}

// extractChunkJSON is the per-chunk shape emitted by --json.
type extractChunkJSON struct {
	Symbol     string         `json:"symbol"`
	ChunkType  string         `json:"chunk_type"`
	StartLine  int            `json:"start_line"`
	EndLine    int            `json:"end_line"`
	TokenCount int            `json:"token_count"`
	Metadata   types.Metadata `json:"metadata,omitempty"`
	Content    string         `json:"content,omitempty"`
}

func runExtract(cmd *cobra.Command, args []string) error {
	filePath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("file does not exist: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	source, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	registry := language.NewRegistry()
	engine := parser.New(registry)
	defer engine.Close()

	chunks, err := engine.ParseContent(source, filePath, 0)
	if err != nil {
		if errors.Is(err, types.ErrUnsupportedLanguage) {
			return fmt.Errorf("unsupported file type: %s", filepath.Ext(filePath))
		}
		return fmt.Errorf("failed to parse file: %w", err)
	}
	chunks = chunker.New().Populate(chunks, source)

	lang := engine.Language(filePath)

	if extractJSON {
		out := struct {
			File     string             `json:"file"`
			Language string             `json:"language"`
			Chunks   []extractChunkJSON `json:"chunks"`
		}{
			File:     filePath,
			Language: string(lang),
			Chunks:   make([]extractChunkJSON, 0, len(chunks)),
		}
		for _, c := range chunks {
			entry := extractChunkJSON{
				Symbol:     c.Symbol,
				ChunkType:  string(c.ChunkType),
				StartLine:  c.StartLine,
				EndLine:    c.EndLine,
				TokenCount: c.TokenCount,
				Metadata:   c.Metadata,
			}
			if extractContent {
				entry.Content = c.Content
			}
			out.Chunks = append(out.Chunks, entry)
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("%s (%s, %d chunks)\n\n", filePath, lang, len(chunks))
	for _, c := range chunks {
		symbol := c.Symbol
		if symbol == "" {
			symbol = "(anonymous)"
		}
		fmt.Printf("  L%-4d-L%-4d %-9s %s (%d tokens)\n",
			c.StartLine, c.EndLine, c.ChunkType, symbol, c.TokenCount)
	}
	return nil
}
