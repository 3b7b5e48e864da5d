package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Config holds explicit embedder configuration for New. An empty APIKey
// defers to the environment; a zero CacheSize disables caching.
type Config struct {
	Provider  string
	APIKey    string
	CacheSize int
}

// newProvider dispatches on the lowercased provider name.
func newProvider(name, apiKey string, cache *Cache) (Embedder, error) {
	switch strings.ToLower(name) {
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey, cache)
	case ProviderJina:
		return NewJinaProvider(apiKey, cache)
	case ProviderLocal:
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, name)
	}
}

// New creates an embedder from explicit configuration.
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}
	return newProvider(cfg.Provider, cfg.APIKey, cache)
}

// NewFromEnv creates an embedder from the environment. An explicit
// CODECHUNK_EMBEDDING_PROVIDER wins; otherwise the first provider with an
// API key is chosen, OpenAI before Jina, and the offline local provider
// serves as the fallback.
func NewFromEnv() (Embedder, error) {
	cache := NewCache(defaultCacheSize)

	if name := os.Getenv(EnvProvider); name != "" {
		return newProvider(name, "", cache)
	}
	if lookupKey(EnvOpenAIAPIKey, "OPENAI_API_KEY") != "" {
		return NewOpenAIProvider("", cache)
	}
	if lookupKey(EnvJinaAPIKey, "JINA_API_KEY") != "" {
		return NewJinaProvider("", cache)
	}
	return NewLocalProvider(cache)
}

// DetectProvider reports which provider NewFromEnv would pick right now.
func DetectProvider() string {
	if name := os.Getenv(EnvProvider); name != "" {
		return strings.ToLower(name)
	}
	switch {
	case lookupKey(EnvOpenAIAPIKey, "OPENAI_API_KEY") != "":
		return ProviderOpenAI
	case lookupKey(EnvJinaAPIKey, "JINA_API_KEY") != "":
		return ProviderJina
	default:
		return ProviderLocal
	}
}
