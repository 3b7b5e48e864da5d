package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Sentinel errors shared by all providers. Callers match with errors.Is;
// providers wrap them with request detail.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrEmptyText         = errors.New("text cannot be empty")
	ErrBatchTooLarge     = errors.New("batch size exceeds limit")
	ErrUnsupportedModel  = errors.New("unsupported model")
	ErrProviderFailed    = errors.New("embedding provider failed")
	ErrNoProviderEnabled = errors.New("no embedding provider configured")
)

// Embedding is one vector plus the provenance needed to persist it.
type Embedding struct {
	Vector    []float32
	Dimension int
	Provider  string
	Model     string
	Hash      string // cache key, see ComputeHash
}

// EmbeddingRequest asks for one text to be embedded. Model overrides the
// provider default when set.
type EmbeddingRequest struct {
	Text  string
	Model string
}

// BatchEmbeddingRequest asks for several texts in a single provider call.
type BatchEmbeddingRequest struct {
	Texts []string
	Model string
}

// BatchEmbeddingResponse carries embeddings in request order.
type BatchEmbeddingResponse struct {
	Embeddings []*Embedding
	Provider   string
	Model      string
}

// Embedder generates vector embeddings for text.
type Embedder interface {
	// GenerateEmbedding embeds a single text.
	GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error)

	// GenerateBatch embeds several texts in one provider round trip.
	GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error)

	// Dimension reports the vector width the active model produces.
	Dimension() int

	// Provider reports the provider name.
	Provider() string

	// Model reports the active model name.
	Model() string

	// Close releases provider resources.
	Close() error
}

// ValidateRequest rejects requests with no text.
func ValidateRequest(req EmbeddingRequest) error {
	if req.Text == "" {
		return ErrEmptyText
	}
	return nil
}

// ValidateBatchRequest rejects empty batches and batches containing an
// empty text.
func ValidateBatchRequest(req BatchEmbeddingRequest) error {
	if len(req.Texts) == 0 {
		return fmt.Errorf("%w: no texts provided", ErrInvalidInput)
	}
	for i := range req.Texts {
		if req.Texts[i] == "" {
			return fmt.Errorf("%w: text at index %d is empty", ErrInvalidInput, i)
		}
	}
	return nil
}

// ComputeHash computes the cache key for a text under a given model. The
// model participates in the key so switching models never serves stale
// vectors from a previous model.
func ComputeHash(model, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

const defaultCacheSize = 10000

// Cache keeps recently generated embeddings in memory, keyed by content
// hash with LRU eviction.
type Cache struct {
	entries *lru.Cache[string, *Embedding]
}

// NewCache creates a cache holding at most maxLen embeddings. Non-positive
// sizes fall back to the default.
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = defaultCacheSize
	}
	entries, _ := lru.New[string, *Embedding](maxLen) // errors only on size <= 0
	return &Cache{entries: entries}
}

// Get returns a copy of the cached embedding for hash. The vector is
// duplicated so callers cannot mutate the cached value.
func (c *Cache) Get(hash string) (*Embedding, bool) {
	cached, ok := c.entries.Get(hash)
	if !ok {
		return nil, false
	}
	out := *cached
	out.Vector = append([]float32(nil), cached.Vector...)
	return &out, true
}

// Set stores an embedding, evicting the least recently used entry when
// the cache is at capacity.
func (c *Cache) Set(hash string, emb *Embedding) {
	c.entries.Add(hash, emb)
}

// Size reports the number of cached embeddings.
func (c *Cache) Size() int {
	return c.entries.Len()
}

// Clear drops every cached entry.
func (c *Cache) Clear() {
	c.entries.Purge()
}
