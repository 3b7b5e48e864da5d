package embedder

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
)

func TestComputeHash(t *testing.T) {
	// Known values pin the cache key derivation: hex sha256 over
	// model || 0x00 || text.
	tests := []struct {
		name  string
		model string
		text  string
		want  string
	}{
		{
			name:  "empty text",
			model: "local-hash-v1",
			text:  "",
			want:  "97b74d2f2dd4c2140284c8c07044160a2991421886291400f8b07f5cd2b2dac0",
		},
		{
			name:  "simple text",
			model: "local-hash-v1",
			text:  "hello world",
			want:  "327ffdc8a60964b0688198af3c59404aedab9f33164825149c080c4c894aac6d",
		},
		{
			name:  "code text",
			model: "jina-embeddings-v2-base-code",
			text:  "def greet; end",
			want:  "086ffb7eaf64c815abc68939f8c7284e57ccc31ef966330d2fd90fa2f8589627",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeHash(tt.model, tt.text); got != tt.want {
				t.Errorf("ComputeHash(%q, %q) = %v, want %v", tt.model, tt.text, got, tt.want)
			}
		})
	}
}

func TestComputeHash_ModelChangesKey(t *testing.T) {
	// The same text embedded under different models must never share a
	// cache entry.
	openaiHash := ComputeHash("text-embedding-3-small", "same text")
	jinaHash := ComputeHash("jina-embeddings-v2-base-code", "same text")

	if openaiHash == jinaHash {
		t.Error("ComputeHash() collides across models")
	}
	if openaiHash != "029116bce7a87837ebe73d41951ef6f31aa8fe295a0634d65afda622436858fe" {
		t.Errorf("ComputeHash(openai model) = %v", openaiHash)
	}
	if jinaHash != "e75b9fe228fa5c6bcd3ca59f23eec0f3b924c12d3e4b917863260e6c267b6ad0" {
		t.Errorf("ComputeHash(jina model) = %v", jinaHash)
	}
}

func TestComputeHash_SeparatorPreventsAmbiguity(t *testing.T) {
	// "ab" + "c" and "a" + "bc" must hash differently
	h1 := ComputeHash("ab", "c")
	h2 := ComputeHash("a", "bc")
	if h1 == h2 {
		t.Error("ComputeHash() ambiguous across model/text boundary")
	}
}

func TestValidateRequest(t *testing.T) {
	if err := ValidateRequest(EmbeddingRequest{Text: "def greet; end"}); err != nil {
		t.Errorf("ValidateRequest(text) = %v, want nil", err)
	}
	if err := ValidateRequest(EmbeddingRequest{Text: "x", Model: "custom-model"}); err != nil {
		t.Errorf("ValidateRequest(text with model) = %v, want nil", err)
	}
	if err := ValidateRequest(EmbeddingRequest{}); err != ErrEmptyText {
		t.Errorf("ValidateRequest(empty) = %v, want ErrEmptyText", err)
	}
}

func TestValidateBatchRequest(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
		ok    bool
	}{
		{"several texts", []string{"a", "b", "c"}, true},
		{"single text", []string{"def m; end"}, true},
		{"no texts", nil, false},
		{"blank text mid-batch", []string{"a", "", "c"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBatchRequest(BatchEmbeddingRequest{Texts: tt.texts})
			if tt.ok && err != nil {
				t.Errorf("ValidateBatchRequest(%q) = %v, want nil", tt.texts, err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("ValidateBatchRequest(%q) = %v, want ErrInvalidInput", tt.texts, err)
			}
		})
	}
}

func TestCache(t *testing.T) {
	t.Run("miss then hit", func(t *testing.T) {
		cache := NewCache(3)

		if _, ok := cache.Get("absent"); ok {
			t.Error("Get() on a fresh cache reported a hit")
		}

		cache.Set("k1", &Embedding{
			Vector:    []float32{1, 2, 3},
			Dimension: 3,
			Provider:  ProviderLocal,
			Model:     "test",
			Hash:      "k1",
		})

		got, ok := cache.Get("k1")
		if !ok {
			t.Fatal("Get() missed a stored entry")
		}
		if got.Hash != "k1" || got.Dimension != 3 {
			t.Errorf("Get() = %+v, want the stored embedding", got)
		}
		if cache.Size() != 1 {
			t.Errorf("Size() = %d, want 1", cache.Size())
		}
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		cache := NewCache(2)
		cache.Set("old", &Embedding{Hash: "old"})
		cache.Set("mid", &Embedding{Hash: "mid"})
		cache.Set("new", &Embedding{Hash: "new"})

		if cache.Size() != 2 {
			t.Errorf("Size() = %d, want the capacity 2", cache.Size())
		}
		if _, ok := cache.Get("old"); ok {
			t.Error("oldest entry survived past capacity")
		}
		for _, key := range []string{"mid", "new"} {
			if _, ok := cache.Get(key); !ok {
				t.Errorf("entry %q was evicted early", key)
			}
		}
	})

	t.Run("get returns a copy", func(t *testing.T) {
		cache := NewCache(10)
		cache.Set("k1", &Embedding{
			Vector:    []float32{1.0, 2.0},
			Dimension: 2,
			Hash:      "k1",
		})

		got, ok := cache.Get("k1")
		if !ok {
			t.Fatal("Get() missed a stored entry")
		}
		got.Vector[0] = 99.0

		again, _ := cache.Get("k1")
		if again.Vector[0] != 1.0 {
			t.Error("mutating a returned embedding corrupted the cache")
		}
	})

	t.Run("clear", func(t *testing.T) {
		cache := NewCache(10)
		cache.Set("k1", &Embedding{Hash: "k1"})
		cache.Set("k2", &Embedding{Hash: "k2"})

		cache.Clear()

		if cache.Size() != 0 {
			t.Errorf("Size() after Clear() = %d, want 0", cache.Size())
		}
		if _, ok := cache.Get("k1"); ok {
			t.Error("Get() hit after Clear()")
		}
	})

	t.Run("parallel access", func(t *testing.T) {
		cache := NewCache(100)

		var wg sync.WaitGroup
		for g := 0; g < 10; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					key := ComputeHash("m", fmt.Sprintf("text-%d-%d", g, i))
					cache.Set(key, &Embedding{
						Vector:    []float32{float32(g), float32(i)},
						Dimension: 2,
						Hash:      key,
					})
					cache.Get(key)
				}
			}(g)
		}
		wg.Wait()

		if cache.Size() == 0 {
			t.Error("no entries survived concurrent writes")
		}
	})
}

func TestLocalProvider(t *testing.T) {
	provider, err := NewLocalProvider(NewCache(10))
	if err != nil {
		t.Fatalf("NewLocalProvider() error = %v", err)
	}
	defer provider.Close()
	ctx := context.Background()

	t.Run("metadata", func(t *testing.T) {
		if got := provider.Provider(); got != ProviderLocal {
			t.Errorf("Provider() = %s, want %s", got, ProviderLocal)
		}
		if got := provider.Dimension(); got != LocalDimension {
			t.Errorf("Dimension() = %d, want %d", got, LocalDimension)
		}
		if provider.Model() == "" {
			t.Error("Model() is empty")
		}
	})

	t.Run("single embedding", func(t *testing.T) {
		emb, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "def greet\n  puts 'hi'\nend"})
		if err != nil {
			t.Fatalf("GenerateEmbedding() error = %v", err)
		}
		if len(emb.Vector) != LocalDimension {
			t.Errorf("len(Vector) = %d, want %d", len(emb.Vector), LocalDimension)
		}
		if emb.Provider != ProviderLocal {
			t.Errorf("Provider = %s, want %s", emb.Provider, ProviderLocal)
		}
		if emb.Hash == "" {
			t.Error("Hash is empty")
		}
	})

	t.Run("unit length", func(t *testing.T) {
		emb, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "class User; end"})
		if err != nil {
			t.Fatalf("GenerateEmbedding() error = %v", err)
		}
		if got := normSquared(emb.Vector); math.Abs(got-1.0) > 0.001 {
			t.Errorf("norm squared = %f, want 1.0", got)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		fresh, err := NewLocalProvider(nil) // no cache, forces recompute
		if err != nil {
			t.Fatalf("NewLocalProvider() error = %v", err)
		}
		defer fresh.Close()

		emb1, err := fresh.GenerateEmbedding(ctx, EmbeddingRequest{Text: "module Api; end"})
		if err != nil {
			t.Fatalf("GenerateEmbedding() error = %v", err)
		}
		emb2, err := fresh.GenerateEmbedding(ctx, EmbeddingRequest{Text: "module Api; end"})
		if err != nil {
			t.Fatalf("GenerateEmbedding() error = %v", err)
		}
		for i := range emb1.Vector {
			if emb1.Vector[i] != emb2.Vector[i] {
				t.Fatalf("vectors differ at index %d", i)
			}
		}

		emb3, err := fresh.GenerateEmbedding(ctx, EmbeddingRequest{Text: "module Admin; end"})
		if err != nil {
			t.Fatalf("GenerateEmbedding() error = %v", err)
		}
		same := true
		for i := range emb1.Vector {
			if emb1.Vector[i] != emb3.Vector[i] {
				same = false
				break
			}
		}
		if same {
			t.Error("different texts produced identical vectors")
		}
	})

	t.Run("batch", func(t *testing.T) {
		resp, err := provider.GenerateBatch(ctx, BatchEmbeddingRequest{
			Texts: []string{"text1", "text2", "text3"},
		})
		if err != nil {
			t.Fatalf("GenerateBatch() error = %v", err)
		}
		if len(resp.Embeddings) != 3 {
			t.Fatalf("len(Embeddings) = %d, want 3", len(resp.Embeddings))
		}
		for i, emb := range resp.Embeddings {
			if len(emb.Vector) != LocalDimension {
				t.Errorf("embedding %d: len(Vector) = %d, want %d", i, len(emb.Vector), LocalDimension)
			}
		}
	})

	t.Run("cache round trip", func(t *testing.T) {
		first, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "cached text"})
		if err != nil {
			t.Fatalf("first GenerateEmbedding() error = %v", err)
		}
		second, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "cached text"})
		if err != nil {
			t.Fatalf("second GenerateEmbedding() error = %v", err)
		}

		if len(first.Vector) != len(second.Vector) {
			t.Fatal("cached embedding has a different dimension")
		}
		for i := range first.Vector {
			if first.Vector[i] != second.Vector[i] {
				t.Fatalf("cached vector differs at index %d", i)
			}
		}
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		if _, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{}); !errors.Is(err, ErrEmptyText) {
			t.Errorf("GenerateEmbedding(empty) = %v, want ErrEmptyText", err)
		}
		if _, err := provider.GenerateBatch(ctx, BatchEmbeddingRequest{}); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("GenerateBatch(no texts) = %v, want ErrInvalidInput", err)
		}
	})
}

func normSquared(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return sum
}

func TestNormalizeVector(t *testing.T) {
	for _, input := range [][]float32{
		{1.0, 0.0, 0.0},
		{3.0, 4.0},
		{0.1, 0.2, 0.3, 0.4},
	} {
		if got := normSquared(NormalizeVector(input)); math.Abs(got-1.0) > 0.0001 {
			t.Errorf("NormalizeVector(%v) norm squared = %f, want 1.0", input, got)
		}
	}

	// A zero vector has no direction to preserve; it stays zero.
	for i, x := range NormalizeVector([]float32{0, 0, 0}) {
		if x != 0 {
			t.Errorf("NormalizeVector(zero)[%d] = %f, want 0", i, x)
		}
	}
}
