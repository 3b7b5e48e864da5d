package types

import (
	"crypto/sha256"
	"fmt"
)

// ChunkType tags the kind of construct a chunk was extracted from. Grammar
// constructs outside this set produce no chunk at all.
type ChunkType string

const (
	ChunkModule   ChunkType = "module"
	ChunkClass    ChunkType = "class"
	ChunkTypeDecl ChunkType = "type"
	ChunkMethod   ChunkType = "method"
	ChunkFunction ChunkType = "function"
	ChunkConstant ChunkType = "constant"
	ChunkComment  ChunkType = "comment"
	ChunkImport   ChunkType = "import"
)

// Chunk is one extracted span of source: a declaration, comment block or
// import reference together with the line range it covers. Symbol is empty
// for constructs with no name of their own, such as free comments. The
// Metadata schema varies by ChunkType; see the Meta* key constants.
//
// The extraction engine fills everything except Content, ContentHash and
// TokenCount, which the chunker derives from the original source before the
// chunk is stored. A chunk is immutable once handed to a caller.
type Chunk struct {
	ID     int64
	FileID int64

	Symbol    string
	ChunkType ChunkType
	Metadata  Metadata

	// 1-indexed, inclusive on both ends
	StartLine int
	EndLine   int

	// Derived from source by the chunker
	Content     string
	ContentHash [32]byte
	TokenCount  int
}

// ValidateSpan checks the line range invariants: 1-indexed, end not before
// start.
func (c *Chunk) ValidateSpan() error {
	if c.StartLine < 1 {
		return fmt.Errorf("start line %d out of range", c.StartLine)
	}
	if c.EndLine < c.StartLine {
		return fmt.Errorf("end line %d precedes start line %d", c.EndLine, c.StartLine)
	}
	return nil
}

// ValidateChunkType checks that ChunkType carries one of the known tags.
func (c *Chunk) ValidateChunkType() error {
	switch c.ChunkType {
	case ChunkModule, ChunkClass, ChunkTypeDecl, ChunkMethod, ChunkFunction,
		ChunkConstant, ChunkComment, ChunkImport:
		return nil
	}
	return fmt.Errorf("unknown chunk type %q", c.ChunkType)
}

// ComputeTokenCount fills TokenCount with a characters/4 estimate of the
// content's token count.
func (c *Chunk) ComputeTokenCount() {
	c.TokenCount = len(c.Content) / 4
}

// ComputeContentHash derives ContentHash from the current Content.
func (c *Chunk) ComputeContentHash() {
	c.ContentHash = sha256.Sum256([]byte(c.Content))
}

// Validate checks that a chunk is ready for storage: a sane span, a known
// type and content populated by the chunker. FileID is not checked; the
// store assigns it when the row is written.
func (c *Chunk) Validate() error {
	if err := c.ValidateSpan(); err != nil {
		return err
	}
	if err := c.ValidateChunkType(); err != nil {
		return err
	}
	if c.ContentHash == ([32]byte{}) {
		return fmt.Errorf("chunk %q has no content hash", c.Symbol)
	}
	return nil
}

// IsDeclaration reports whether the chunk introduces a named program
// construct, as opposed to a comment or an import reference.
func (c *Chunk) IsDeclaration() bool {
	switch c.ChunkType {
	case ChunkModule, ChunkClass, ChunkTypeDecl, ChunkMethod, ChunkFunction, ChunkConstant:
		return true
	}
	return false
}
