package chunker

import (
	"crypto/sha256"
	"strings"

	"codechunk/pkg/types"
)

const (
	// MaxTokensPerChunk caps how much of a chunk is sent for embedding.
	MaxTokensPerChunk = 1000

	// TokensPerChar is the chars-per-token divisor behind the estimates.
	TokensPerChar = 4
)

// Chunker fills extracted chunks with the source text their spans cover,
// along with the derived content hash and token estimate, and renders the
// text sent to the embedding provider.
type Chunker struct{}

// New returns a ready Chunker.
func New() *Chunker { return &Chunker{} }

// Populate slices each chunk's line span out of source and fills Content,
// ContentHash and TokenCount from it. Chunks whose span is inverted or
// starts past the end of the file are dropped; a span that merely reaches
// past the end is truncated to the last line.
func (c *Chunker) Populate(chunks []types.Chunk, source []byte) []types.Chunk {
	lines := strings.Split(string(source), "\n")

	out := make([]types.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.ValidateSpan() != nil || chunk.StartLine > len(lines) {
			continue
		}
		end := min(chunk.EndLine, len(lines))
		chunk.Content = strings.Join(lines[chunk.StartLine-1:end], "\n")
		chunk.ComputeTokenCount()
		chunk.ComputeContentHash()
		out = append(out, chunk)
	}
	return out
}

// EmbeddingText renders the provider input for a chunk: a short locating
// header, then the chunk body, truncated to the token limit. The header
// keeps path and symbol in the vector so similar code in different files
// stays distinguishable.
func (c *Chunker) EmbeddingText(chunk *types.Chunk, path string) string {
	var b strings.Builder

	if path != "" {
		b.WriteString("// " + path + "\n")
	}
	if chunk.Symbol != "" {
		b.WriteString("// " + string(chunk.ChunkType) + " " + chunk.Symbol + "\n")
	}
	b.WriteString(chunk.Content)

	limit := MaxTokensPerChunk * TokensPerChar
	if b.Len() <= limit {
		return b.String()
	}
	return b.String()[:limit]
}

// Snippet truncates content to its first maxLines lines for display.
func Snippet(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	if len(lines) <= maxLines {
		return content
	}
	return strings.Join(lines[:maxLines], "\n")
}

// ComputeChunkHash hashes raw chunk content with SHA-256.
func ComputeChunkHash(content string) [32]byte {
	return sha256.Sum256([]byte(content))
}

// EstimateTokenCount approximates the token count of text as its length
// over TokensPerChar.
func EstimateTokenCount(text string) int {
	return len(text) / TokensPerChar
}
