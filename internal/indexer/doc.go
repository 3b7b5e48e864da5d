// Package indexer coordinates the end-to-end indexing pipeline for source trees.
//
// The indexer walks a project root, extracts chunks from every matching
// file, and persists files, chunks, imports, and optional embeddings,
// managing concurrency and incremental updates.
//
// # Usage
//
//	registry := language.NewRegistry()
//	idx := indexer.New(registry, store, emb)
//
//	stats, err := idx.IndexProject(ctx, "/path/to/project", &indexer.Config{
//	    Workers: 8,
//	    Embed:   true,
//	})
//	log.Printf("indexed %d files in %v", stats.FilesIndexed, stats.Duration)
//
// # Pipeline Stages
//
// Each run moves through six stages:
//
//  1. Discovery: walk the root, apply include/exclude globs
//  2. Incremental decision: compare content hashes, skip unchanged files
//  3. Parse & chunk: extract chunks with a per-worker engine (parallel)
//  4. Store: replace the file's chunks and imports in one transaction
//  5. Embed: generate vector embeddings in provider batches
//  6. Sweep: drop records for indexed files no longer on disk
//
// # Change Detection
//
// A re-run touches only files whose SHA-256 content hash moved:
//
//	stats1, _ := idx.IndexProject(ctx, root, nil) // cold: 247 indexed
//	stats2, _ := idx.IndexProject(ctx, root, nil) // warm: 3 indexed, 244 skipped
//
// Files that fail to parse are recorded with their hash and error, so a
// broken file is not re-parsed until its content changes.
//
// # Worker Pool
//
// Files are processed by a bounded pool: an errgroup goroutine per file,
// capped by a weighted semaphore, with a fixed set of parse engines recycled
// between files. Engines hold non-shareable parser state, which is why each
// in-flight file borrows one exclusively. The pool defaults to
// runtime.NumCPU() workers.
//
// Cancellation is file-granular. When ctx is cancelled no new file starts;
// files already in flight finish and commit, so the index never holds a
// half-written file.
//
// # Failures
//
// A broken file never aborts the run. IndexProject returns an error only
// for fatal conditions such as storage failure or cancellation; everything
// else lands in the statistics:
//
//	if stats.FilesFailed > 0 {
//	    for _, msg := range stats.ErrorMessages {
//	        log.Println(msg)
//	    }
//	}
//
// # Progress
//
//	cfg := &indexer.Config{
//	    OnProgress: func(done, total int, path string) {
//	        bar.Set(done)
//	    },
//	}
//
// The callback fires after every file, whatever the outcome, from worker
// goroutines. Implementations must be safe for concurrent use.
//
// # Concurrent Runs
//
// A second IndexProject call while one is active returns ErrIndexInProgress
// immediately instead of queueing.
package indexer
