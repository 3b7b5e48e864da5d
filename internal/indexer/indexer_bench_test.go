package indexer

import (
	"context"
	"fmt"
	"testing"

	"codechunk/internal/embedder"
	"codechunk/internal/language"
	"codechunk/internal/storage"
)

// generateRubyProject writes a synthetic tree of Ruby service files under dir.
func generateRubyProject(b *testing.B, dir string, files int) {
	b.Helper()
	for i := 0; i < files; i++ {
		content := fmt.Sprintf(`require "json"

# Service object number %d.
class Service%03d < ApplicationService
  TIMEOUT = %d

  def call(payload)
    validate!(payload)
    JSON.generate(payload)
  end

  def self.build
    new
  end

  private

  def validate!(payload)
    raise ArgumentError if payload.nil?
  end
end
`, i, i, i+1)
		createTestFile(b, dir, fmt.Sprintf("app/services/service_%03d.rb", i), content)
	}
}

// freshStore opens an in-memory index, failing the benchmark on error.
func freshStore(b *testing.B) storage.Storage {
	b.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		b.Fatal(err)
	}
	return store
}

// runIndexLoop measures repeated from-scratch IndexProject runs over dir,
// paying for a fresh store outside the timer on every iteration.
func runIndexLoop(b *testing.B, dir string, config *Config, emb embedder.Embedder) {
	b.Helper()
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		b.StopTimer()
		store := freshStore(b)
		idx := New(language.NewRegistry(), store, emb)
		b.StartTimer()

		_, runErr := idx.IndexProject(context.Background(), dir, config)

		b.StopTimer()
		_ = store.Close()
		if runErr != nil {
			b.Fatal(runErr)
		}
		b.StartTimer()
	}
}

// BenchmarkIndexProject measures a full from-scratch run with embeddings on.
func BenchmarkIndexProject(b *testing.B) {
	dir := b.TempDir()
	generateRubyProject(b, dir, 50)
	runIndexLoop(b, dir, &Config{Workers: 4, Embed: true}, newMockEmbedder())
}

// BenchmarkIndexProjectNoEmbeddings measures the parse-and-store path alone.
func BenchmarkIndexProjectNoEmbeddings(b *testing.B) {
	dir := b.TempDir()
	generateRubyProject(b, dir, 50)
	runIndexLoop(b, dir, &Config{Workers: 4}, nil)
}

// BenchmarkIncrementalIndex re-runs over an unchanged tree, so the cost is
// content hashing rather than parsing.
func BenchmarkIncrementalIndex(b *testing.B) {
	dir := b.TempDir()
	generateRubyProject(b, dir, 50)

	store := freshStore(b)
	b.Cleanup(func() { _ = store.Close() })

	idx := New(language.NewRegistry(), store, nil)
	config := &Config{Workers: 4}
	if _, err := idx.IndexProject(context.Background(), dir, config); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		stats, err := idx.IndexProject(context.Background(), dir, config)
		if err != nil {
			b.Fatal(err)
		}
		if stats.FilesIndexed != 0 {
			b.Fatalf("expected all files skipped, indexed %d", stats.FilesIndexed)
		}
	}
}

// BenchmarkFileDiscovery measures the walk-and-match pass alone.
func BenchmarkFileDiscovery(b *testing.B) {
	dir := b.TempDir()
	generateRubyProject(b, dir, 200)

	w := NewWalker(language.NewRegistry(), nil, nil)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		files, err := w.Walk(dir)
		if err != nil {
			b.Fatal(err)
		}
		if len(files) != 200 {
			b.Fatalf("expected 200 files, got %d", len(files))
		}
	}
}

// BenchmarkWorkerCounts compares pool sizes on the same tree.
func BenchmarkWorkerCounts(b *testing.B) {
	dir := b.TempDir()
	generateRubyProject(b, dir, 50)

	for _, workers := range []int{1, 2, 4, 8} {
		b.Run(fmt.Sprintf("%02d_workers", workers), func(b *testing.B) {
			runIndexLoop(b, dir, &Config{Workers: workers}, nil)
		})
	}
}
