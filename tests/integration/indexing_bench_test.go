package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"codechunk/internal/embedder"
	"codechunk/internal/indexer"
	"codechunk/internal/language"
	"codechunk/internal/storage"
)

func fixturesPath(b *testing.B) string {
	b.Helper()
	wd, err := os.Getwd()
	if err != nil {
		b.Fatal(err)
	}
	return filepath.Join(filepath.Dir(wd), "testdata", "fixtures")
}

// runFixtureIndexing indexes the fixture tree from scratch b.N times, with
// store setup and teardown counted in; the store is in-memory, so the cost
// measured is parse plus insert, not disk.
func runFixtureIndexing(b *testing.B, config *indexer.Config, emb embedder.Embedder) {
	b.Helper()
	fixturesDir := fixturesPath(b)
	registry := language.NewRegistry()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store, err := storage.NewSQLiteStorage(":memory:")
		if err != nil {
			b.Fatal(err)
		}
		idx := indexer.New(registry, store, emb)
		_, runErr := idx.IndexProject(context.Background(), fixturesDir, config)
		_ = store.Close()
		if runErr != nil {
			b.Fatal(runErr)
		}
	}
}

// BenchmarkFullIndexing runs the walk-parse-store pipeline end to end.
func BenchmarkFullIndexing(b *testing.B) {
	runFixtureIndexing(b, &indexer.Config{Workers: 4}, nil)
}

// BenchmarkIndexingWorkers sweeps the worker pool size.
func BenchmarkIndexingWorkers(b *testing.B) {
	for _, workers := range []int{1, 2, 4, 8} {
		b.Run(fmt.Sprintf("%d_workers", workers), func(b *testing.B) {
			runFixtureIndexing(b, &indexer.Config{Workers: workers}, nil)
		})
	}
}

// BenchmarkIndexingWithEmbeddings adds the embedding leg to the pipeline.
func BenchmarkIndexingWithEmbeddings(b *testing.B) {
	runFixtureIndexing(b, &indexer.Config{Workers: 4, Embed: true}, NewMockEmbedder(384))
}

// BenchmarkIncrementalIndexing re-runs over an unchanged tree, where every
// file skips by content hash.
func BenchmarkIncrementalIndexing(b *testing.B) {
	fixturesDir := fixturesPath(b)

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = store.Close() })

	idx := indexer.New(language.NewRegistry(), store, nil)
	if _, err := idx.IndexProject(context.Background(), fixturesDir, nil); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := idx.IndexProject(context.Background(), fixturesDir, nil); err != nil {
			b.Fatal(err)
		}
	}
}
