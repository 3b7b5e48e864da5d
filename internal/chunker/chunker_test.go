package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codechunk/internal/language"
	"codechunk/internal/parser"
	"codechunk/pkg/types"
)

func TestNew(t *testing.T) {
	c := New()
	assert.NotNil(t, c)
}

func parseSource(t *testing.T, source, path string) []types.Chunk {
	t.Helper()
	engine := parser.New(language.NewRegistry())
	defer engine.Close()

	chunks, err := engine.ParseContent([]byte(source), path, 1)
	require.NoError(t, err)
	return chunks
}

func TestPopulate_FillsContent(t *testing.T) {
	source := `class User
  def greet
    "hello"
  end
end
`
	chunks := parseSource(t, source, "user.rb")

	c := New()
	chunks = c.Populate(chunks, []byte(source))
	require.NotEmpty(t, chunks)

	var greet *types.Chunk
	for i := range chunks {
		if chunks[i].Symbol == "greet" {
			greet = &chunks[i]
		}
	}
	require.NotNil(t, greet)
	assert.Contains(t, greet.Content, "def greet")
	assert.Contains(t, greet.Content, `"hello"`)
	assert.NotContains(t, greet.Content, "class User")
	assert.Greater(t, greet.TokenCount, 0)
	assert.NotEqual(t, [32]byte{}, greet.ContentHash)
}

func TestPopulate_ContentMatchesSpan(t *testing.T) {
	source := `def first
  1
end

def second
  2
end
`
	chunks := parseSource(t, source, "pair.rb")

	c := New()
	chunks = c.Populate(chunks, []byte(source))

	lines := strings.Split(source, "\n")
	for _, chunk := range chunks {
		want := strings.Join(lines[chunk.StartLine-1:chunk.EndLine], "\n")
		assert.Equal(t, want, chunk.Content, "chunk %q", chunk.Symbol)
	}
}

func TestPopulate_SpanPastEndOfFile(t *testing.T) {
	source := "line 1\nline 2\nline 3"
	chunks := []types.Chunk{
		{Symbol: "trailing", ChunkType: types.ChunkMethod, StartLine: 2, EndLine: 10},
	}

	c := New()
	out := c.Populate(chunks, []byte(source))

	require.Len(t, out, 1)
	assert.Equal(t, "line 2\nline 3", out[0].Content)
}

func TestPopulate_DropsInvalidSpans(t *testing.T) {
	source := "only line"
	chunks := []types.Chunk{
		{Symbol: "zero", ChunkType: types.ChunkMethod, StartLine: 0, EndLine: 1},
		{Symbol: "beyond", ChunkType: types.ChunkMethod, StartLine: 5, EndLine: 6},
		{Symbol: "good", ChunkType: types.ChunkMethod, StartLine: 1, EndLine: 1},
	}

	c := New()
	out := c.Populate(chunks, []byte(source))

	require.Len(t, out, 1)
	assert.Equal(t, "good", out[0].Symbol)
	assert.Equal(t, "only line", out[0].Content)
}

func TestPopulate_EmptyInput(t *testing.T) {
	c := New()
	out := c.Populate([]types.Chunk{}, []byte("source"))
	assert.Empty(t, out)
}

func TestPopulate_IdenticalContentSameHash(t *testing.T) {
	source := `def a
  1
end

def a
  1
end
`
	chunks := parseSource(t, source, "dup.rb")

	c := New()
	chunks = c.Populate(chunks, []byte(source))

	var hashes [][32]byte
	for _, chunk := range chunks {
		if chunk.Symbol == "a" {
			hashes = append(hashes, chunk.ContentHash)
		}
	}
	require.Len(t, hashes, 2)
	assert.Equal(t, hashes[0], hashes[1])
}

func TestEmbeddingText_Header(t *testing.T) {
	c := New()
	chunk := types.Chunk{
		Symbol:    "greet",
		ChunkType: types.ChunkMethod,
		Content:   "def greet\n  \"hello\"\nend",
	}

	text := c.EmbeddingText(&chunk, "app/models/user.rb")

	assert.Contains(t, text, "// app/models/user.rb")
	assert.Contains(t, text, "// method greet")
	assert.Contains(t, text, "def greet")
}

func TestEmbeddingText_NoPathNoSymbol(t *testing.T) {
	c := New()
	chunk := types.Chunk{
		ChunkType: types.ChunkComment,
		Content:   "# a comment",
	}

	text := c.EmbeddingText(&chunk, "")

	assert.Equal(t, "# a comment", text)
}

func TestEmbeddingText_TruncatesOversized(t *testing.T) {
	c := New()
	chunk := types.Chunk{
		Symbol:    "huge",
		ChunkType: types.ChunkMethod,
		Content:   strings.Repeat("x", MaxTokensPerChunk*TokensPerChar*2),
	}

	text := c.EmbeddingText(&chunk, "big.rb")

	assert.Len(t, text, MaxTokensPerChunk*TokensPerChar)
}

func TestSnippet(t *testing.T) {
	content := "one\ntwo\nthree\nfour"

	assert.Equal(t, "one\ntwo", Snippet(content, 2))
	assert.Equal(t, content, Snippet(content, 4))
	assert.Equal(t, content, Snippet(content, 10))
	assert.Equal(t, "", Snippet(content, 0))
}

func TestComputeChunkHash(t *testing.T) {
	h1 := ComputeChunkHash("content")
	h2 := ComputeChunkHash("content")
	h3 := ComputeChunkHash("different")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
}

func TestEstimateTokenCount(t *testing.T) {
	assert.Equal(t, 0, EstimateTokenCount(""))
	assert.Equal(t, 1, EstimateTokenCount("abcd"))
	assert.Equal(t, 25, EstimateTokenCount(strings.Repeat("a", 100)))
}
