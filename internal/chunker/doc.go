// Package chunker fills extracted chunks with their source text for embedding
// and storage.
//
// The extraction engine emits chunks as line spans over the parsed file; the
// chunker slices the actual text out of the source, computes the content hash
// used for incremental re-indexing and estimates the token count.
//
// # Basic Usage
//
//	c := chunker.New()
//	chunks, err := engine.ParseContent(source, "user.rb", fileID)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	chunks = c.Populate(chunks, source)
//
//	for _, chunk := range chunks {
//	    fmt.Printf("%s: %d tokens, lines %d-%d\n",
//	        chunk.Symbol, chunk.TokenCount, chunk.StartLine, chunk.EndLine)
//	}
//
// # Content Hashing
//
// Each chunk gets a SHA-256 hash of its content. The hash enables incremental
// indexing by detecting unchanged chunks:
//
//	if storedHash == chunk.ContentHash {
//	    // Skip re-embedding this chunk
//	}
//
// # Embedding Text
//
// Embedding a bare chunk body loses its location, so EmbeddingText prepends
// a short header naming the file and symbol before the body:
//
//	text := c.EmbeddingText(&chunk, "app/models/user.rb")
//	vector, err := provider.Embed(ctx, text)
//
// Text longer than the token limit (MaxTokensPerChunk) is truncated rather
// than split; oversized chunks are rare and their head carries the signature.
//
// Token estimation uses a simple heuristic (chars/4). For more accuracy,
// use a proper tokenizer library.
package chunker
