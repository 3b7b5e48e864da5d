// Package embedder turns chunk text into vector embeddings.
//
// Three providers implement the Embedder interface: OpenAI
// (text-embedding-3-small, 1536 dimensions), Jina AI
// (jina-embeddings-v2-base-code, 768 dimensions, tuned for source code),
// and an offline local provider (384 dimensions). The local provider
// derives vectors from a hash chain over the text. It performs no semantic
// modeling, but identical texts always embed identically, which is enough
// for tests and air-gapped indexing.
//
// NewFromEnv picks a provider from the environment. Set
// CODECHUNK_EMBEDDING_PROVIDER to force one; otherwise the first API key
// found wins, checking CODECHUNK_OPENAI_API_KEY (or OPENAI_API_KEY) before
// CODECHUNK_JINA_API_KEY (or JINA_API_KEY), and the local provider is the
// fallback when no key is set.
//
//	emb, err := embedder.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	resp, err := emb.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{
//	    Texts: texts,
//	})
//
// Prefer GenerateBatch when embedding more than one chunk. The remote
// providers send the whole batch in one API round trip, up to MaxBatchSize
// texts per call.
//
// New builds a provider from an explicit Config instead of the
// environment:
//
//	emb, err := embedder.New(embedder.Config{
//	    Provider:  "jina",
//	    APIKey:    key,
//	    CacheSize: 10000,
//	})
//
// Generated vectors are cached in memory with LRU eviction. The cache key
// comes from ComputeHash, which hashes the model name together with the
// text, so switching models never serves vectors computed under a previous
// configuration. Constructing a provider with a nil Cache disables caching.
//
// Remote calls are retried with exponential backoff. Errors surface
// through sentinel values: errors.Is(err, embedder.ErrProviderFailed)
// reports an API that stayed down through all retries, ErrBatchTooLarge an
// oversized batch, and ErrNoProviderEnabled a remote provider constructed
// without an API key. Callers that must keep working offline can fall back
// to NewLocalProvider(nil) when NewFromEnv fails.
package embedder
