package integration

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"

	"codechunk/internal/embedder"
)

const (
	mockProvider = "mock"
	mockModel    = "mock-v1"
)

// MockEmbedder is a deterministic stand-in for a real provider. Vectors
// come from the text digest, so identical texts always embed identically
// and no network is involved.
type MockEmbedder struct {
	dim int
}

// NewMockEmbedder creates a mock embedder producing unit vectors of the
// given dimension.
func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{dim: dimension}
}

// vectorFor spreads the text digest over dim components and normalizes
// the result to unit length.
func vectorFor(text string, dim int) []float32 {
	digest := sha256.Sum256([]byte(text))

	vec := make([]float32, dim)
	var norm float64
	for i := range vec {
		// Walk the digest four bytes at a time, wrapping as needed
		off := (i * 4) % 28
		w := binary.LittleEndian.Uint32(digest[off : off+4])
		v := float32(w)/float32(1<<31) - 1
		vec[i] = v
		norm += float64(v) * float64(v)
	}

	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

func (m *MockEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	if err := embedder.ValidateRequest(req); err != nil {
		return nil, err
	}

	return &embedder.Embedding{
		Vector:    vectorFor(req.Text, m.dim),
		Dimension: m.dim,
		Provider:  mockProvider,
		Model:     mockModel,
		Hash:      embedder.ComputeHash(mockModel, req.Text),
	}, nil
}

func (m *MockEmbedder) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	if err := embedder.ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	resp := &embedder.BatchEmbeddingResponse{Provider: mockProvider, Model: mockModel}
	for _, text := range req.Texts {
		emb, err := m.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: text})
		if err != nil {
			return nil, err
		}
		resp.Embeddings = append(resp.Embeddings, emb)
	}
	return resp, nil
}

func (m *MockEmbedder) Dimension() int   { return m.dim }
func (m *MockEmbedder) Provider() string { return mockProvider }
func (m *MockEmbedder) Model() string    { return mockModel }
func (m *MockEmbedder) Close() error     { return nil }
