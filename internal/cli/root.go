// Package cli implements the codechunk command line interface.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"codechunk/internal/config"
	"codechunk/internal/mcp"
	"codechunk/internal/storage"
)

var (
	version = "dev"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "codechunk",
	Short: "Semantic code indexing and search",
	Long: `Codechunk parses source files into semantic chunks, stores them in a
local SQLite index, and answers hybrid vector and full-text searches over
them, from the command line or as an MCP server on stdio.

Example usage:
  codechunk index .                    # Index current directory
  codechunk search -q "login handler"  # Search the index
  codechunk extract app/user.rb        # Show chunks for one file
  codechunk serve                      # Run as MCP server`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// SetVersion records the build version reported by --version.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./codechunk.yaml)")
}

// resolveProjectPath turns an optional positional argument into an absolute
// project directory, defaulting to the working directory.
func resolveProjectPath(args []string) (string, error) {
	if len(args) == 0 {
		dir, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		return dir, nil
	}

	path, err := filepath.Abs(args[0])
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	return path, nil
}

// loadConfig loads configuration for a project directory, honoring the
// --config flag.
func loadConfig(projectDir string) (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	return config.LoadFromDir(projectDir)
}

// openStorage opens the index database named by the configuration, creating
// its directory when missing. The returned path is the database file.
func openStorage(cfg *config.Config) (storage.Storage, string, error) {
	dir, err := cfg.DatabaseDir()
	if err != nil {
		return nil, "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("failed to create database directory: %w", err)
	}

	dbPath := filepath.Join(dir, mcp.DBFileName)
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open index database: %w", err)
	}
	return store, dbPath, nil
}
