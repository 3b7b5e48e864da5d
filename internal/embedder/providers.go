package embedder

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Provider names as reported by Embedder.Provider and accepted by the
// provider selection variable.
const (
	ProviderOpenAI = "openai"
	ProviderJina   = "jina"
	ProviderLocal  = "local"
)

// Per-provider defaults.
const (
	DefaultOpenAIModel = "text-embedding-3-small"
	OpenAIDimension    = 1536

	DefaultJinaModel = "jina-embeddings-v2-base-code"
	JinaDimension    = 768

	LocalDimension = 384

	jinaAPIURL = "https://api.jina.ai/v1/embeddings"
)

// Batch and retry tuning shared by the remote providers.
const (
	DefaultBatchSize = 50
	MaxBatchSize     = 100

	MaxRetries        = 3
	InitialBackoffMs  = 100
	MaxBackoffMs      = 5000
	BackoffMultiplier = 2.0
)

// Environment variables read by NewFromEnv and the provider constructors.
// The CODECHUNK_ names win; the bare names are the conventional keys other
// tools already export.
const (
	EnvProvider     = "CODECHUNK_EMBEDDING_PROVIDER"
	EnvOpenAIAPIKey = "CODECHUNK_OPENAI_API_KEY"
	EnvJinaAPIKey   = "CODECHUNK_JINA_API_KEY"
)

// lookupKey reads the prefixed env var, falling back to the bare name
func lookupKey(prefixed, bare string) string {
	if v := os.Getenv(prefixed); v != "" {
		return v
	}
	return os.Getenv(bare)
}

// resolveModel applies the provider default when the request names none.
func resolveModel(requested, fallback string) string {
	if requested != "" {
		return requested
	}
	return fallback
}

// cacheProbe is a nil-safe cache lookup keyed by model and text.
func cacheProbe(c *Cache, model, text string) (*Embedding, bool) {
	if c == nil {
		return nil, false
	}
	return c.Get(ComputeHash(model, text))
}

// cacheStore stamps each embedding with its cache key and stores it. A nil
// cache disables caching without disabling the provider.
func cacheStore(c *Cache, model string, texts []string, embs []*Embedding) {
	if c == nil {
		return
	}
	for i, emb := range embs {
		emb.Hash = ComputeHash(model, texts[i])
		c.Set(emb.Hash, emb)
	}
}

// firstOfBatch unwraps a single-text batch call.
func firstOfBatch(resp *BatchEmbeddingResponse, err error) (*Embedding, error) {
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", ErrProviderFailed)
	}
	return resp.Embeddings[0], nil
}

// remoteBatch wraps a provider API call with the size check, retry with
// backoff, and caching of the returned vectors.
func remoteBatch(ctx context.Context, c *Cache, provider, model string, texts []string, call func() ([]*Embedding, error)) (*BatchEmbeddingResponse, error) {
	if len(texts) > MaxBatchSize {
		return nil, fmt.Errorf("%w: max %d texts allowed", ErrBatchTooLarge, MaxBatchSize)
	}

	embeddings, err := retryWithBackoff(ctx, DefaultRetryConfig(), call)
	if err != nil {
		return nil, fmt.Errorf("%w after %d retries: %v", ErrProviderFailed, MaxRetries, err)
	}

	cacheStore(c, model, texts, embeddings)

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   provider,
		Model:      model,
	}, nil
}

// OpenAIProvider embeds through the OpenAI embeddings endpoint using the
// go-openai client.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	cache  *Cache
}

// NewOpenAIProvider builds an OpenAI embedder. An empty apiKey falls back
// to the environment.
func NewOpenAIProvider(apiKey string, cache *Cache) (*OpenAIProvider, error) {
	if apiKey == "" {
		apiKey = lookupKey(EnvOpenAIAPIKey, "OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvOpenAIAPIKey)
	}

	return &OpenAIProvider{
		client: openai.NewClient(apiKey),
		model:  DefaultOpenAIModel,
		cache:  cache,
	}, nil
}

func (o *OpenAIProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if emb, ok := cacheProbe(o.cache, resolveModel(req.Model, o.model), req.Text); ok {
		return emb, nil
	}
	return firstOfBatch(o.GenerateBatch(ctx, BatchEmbeddingRequest{
		Texts: []string{req.Text},
		Model: req.Model,
	}))
}

func (o *OpenAIProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}
	model := resolveModel(req.Model, o.model)
	return remoteBatch(ctx, o.cache, ProviderOpenAI, model, req.Texts, func() ([]*Embedding, error) {
		return o.requestEmbeddings(ctx, req.Texts, model)
	})
}

func (o *OpenAIProvider) requestEmbeddings(ctx context.Context, texts []string, model string) ([]*Embedding, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}

	out := make([]*Embedding, 0, len(resp.Data))
	for _, item := range resp.Data {
		out = append(out, &Embedding{
			Vector:    item.Embedding,
			Dimension: len(item.Embedding),
			Provider:  ProviderOpenAI,
			Model:     string(resp.Model),
		})
	}
	return out, nil
}

func (o *OpenAIProvider) Dimension() int { return OpenAIDimension }

func (o *OpenAIProvider) Provider() string { return ProviderOpenAI }

func (o *OpenAIProvider) Model() string { return o.model }

func (o *OpenAIProvider) Close() error { return nil }

// JinaProvider embeds through the Jina AI embeddings API over plain HTTP.
type JinaProvider struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	cache      *Cache
}

// NewJinaProvider builds a Jina embedder. An empty apiKey falls back to
// the environment.
func NewJinaProvider(apiKey string, cache *Cache) (*JinaProvider, error) {
	if apiKey == "" {
		apiKey = lookupKey(EnvJinaAPIKey, "JINA_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvJinaAPIKey)
	}

	return &JinaProvider{
		apiKey:     apiKey,
		model:      DefaultJinaModel,
		baseURL:    jinaAPIURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      cache,
	}, nil
}

func (j *JinaProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if emb, ok := cacheProbe(j.cache, resolveModel(req.Model, j.model), req.Text); ok {
		return emb, nil
	}
	return firstOfBatch(j.GenerateBatch(ctx, BatchEmbeddingRequest{
		Texts: []string{req.Text},
		Model: req.Model,
	}))
}

func (j *JinaProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}
	model := resolveModel(req.Model, j.model)
	return remoteBatch(ctx, j.cache, ProviderJina, model, req.Texts, func() ([]*Embedding, error) {
		return j.postEmbeddings(ctx, req.Texts, model)
	})
}

func (j *JinaProvider) postEmbeddings(ctx context.Context, texts []string, model string) ([]*Embedding, error) {
	payload, err := json.Marshal(struct {
		Input []string `json:"input"`
		Model string   `json:"model"`
	}{Input: texts, Model: model})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, j.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+j.apiKey)

	resp, err := j.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling embeddings API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embeddings API returned %d: %s", resp.StatusCode, detail)
	}

	var decoded struct {
		Model string `json:"model"`
		Data  []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	out := make([]*Embedding, len(decoded.Data))
	for i, item := range decoded.Data {
		out[i] = &Embedding{
			Vector:    item.Embedding,
			Dimension: len(item.Embedding),
			Provider:  ProviderJina,
			Model:     decoded.Model,
		}
	}
	return out, nil
}

func (j *JinaProvider) Dimension() int { return JinaDimension }

func (j *JinaProvider) Provider() string { return ProviderJina }

func (j *JinaProvider) Model() string { return j.model }

func (j *JinaProvider) Close() error {
	j.httpClient.CloseIdleConnections()
	return nil
}

// LocalProvider derives deterministic vectors from a sha256 hash chain
// over the text, normalized to unit length. Identical texts always embed
// identically with no network involved, which suits tests and air-gapped
// indexing.
type LocalProvider struct {
	model string
	cache *Cache
}

// NewLocalProvider builds the offline embedder.
func NewLocalProvider(cache *Cache) (*LocalProvider, error) {
	return &LocalProvider{model: "local-hash-v1", cache: cache}, nil
}

func (l *LocalProvider) GenerateEmbedding(_ context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	if emb, ok := cacheProbe(l.cache, l.model, req.Text); ok {
		return emb, nil
	}

	emb := &Embedding{
		Vector:    NormalizeVector(hashVector(req.Text, LocalDimension)),
		Dimension: LocalDimension,
		Provider:  ProviderLocal,
		Model:     l.model,
		Hash:      ComputeHash(l.model, req.Text),
	}
	if l.cache != nil {
		l.cache.Set(emb.Hash, emb)
	}
	return emb, nil
}

func (l *LocalProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	resp := &BatchEmbeddingResponse{
		Embeddings: make([]*Embedding, 0, len(req.Texts)),
		Provider:   ProviderLocal,
		Model:      l.model,
	}
	for i, text := range req.Texts {
		emb, err := l.GenerateEmbedding(ctx, EmbeddingRequest{Text: text, Model: req.Model})
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		resp.Embeddings = append(resp.Embeddings, emb)
	}
	return resp, nil
}

func (l *LocalProvider) Dimension() int { return LocalDimension }

func (l *LocalProvider) Provider() string { return ProviderLocal }

func (l *LocalProvider) Model() string { return l.model }

func (l *LocalProvider) Close() error { return nil }

// hashVector fills dim floats from a sha256 hash chain over the text.
func hashVector(text string, dim int) []float32 {
	out := make([]float32, dim)
	block := sha256.Sum256([]byte(text))
	for i := 0; i < dim; {
		for _, b := range block {
			out[i] = float32(b)/127.5 - 1.0
			i++
			if i == dim {
				break
			}
		}
		block = sha256.Sum256(block[:])
	}
	return out
}

// NormalizeVector scales v to unit length so dot products behave as
// cosine similarity. Zero vectors come back unchanged.
func NormalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return v
	}

	inv := float32(1 / math.Sqrt(sumSquares))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x * inv
	}
	return out
}
