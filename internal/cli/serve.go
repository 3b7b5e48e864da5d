package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"codechunk/internal/config"
	"codechunk/internal/embedder"
	"codechunk/internal/mcp"
	"codechunk/internal/storage"
)

var serveDBDir string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	Long: `Run codechunk as an MCP server speaking the Model Context Protocol on
stdio. Diagnostics go to stderr; stdout carries the protocol.

Register it with an MCP client:
  { "command": "codechunk", "args": ["serve"] }`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveDBDir, "db", "", "index database directory (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// stdout is reserved for the protocol.
	log.SetOutput(os.Stderr)
	log.Printf("codechunk MCP server v%s starting (build: %s, driver: %s, vector extension: %v)",
		version, storage.BuildMode, storage.DriverName, storage.VectorExtensionAvailable)

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := loadConfig(cwd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbDir := serveDBDir
	if dbDir == "" {
		dbDir, err = cfg.DatabaseDir()
		if err != nil {
			return err
		}
	} else if dbDir, err = config.ExpandHome(dbDir); err != nil {
		return err
	}

	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(filepath.Join(dbDir, mcp.DBFileName))
	if err != nil {
		return fmt.Errorf("failed to open index database: %w", err)
	}

	var emb embedder.Embedder
	emb, err = cfg.Embedder()
	if err != nil {
		log.Printf("Warning: embedder unavailable, search runs without the vector leg: %v", err)
		emb = nil
	}

	srv := mcp.NewServerWithDeps(store, emb)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Printf("codechunk MCP server v%s ready, listening on stdio (db: %s)", version, dbDir)
		errChan <- srv.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down", sig)
		cancel()
		return nil
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	log.Println("Server stopped")
	return nil
}
