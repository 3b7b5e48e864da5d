package types

import (
	"errors"
	"fmt"
)

// Domain errors shared across packages
var (
	// Extraction errors
	ErrInvalidEncoding     = errors.New("source is not valid UTF-8")
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// Search result errors
	ErrInvalidChunkID        = errors.New("invalid chunk ID")
	ErrInvalidRank           = errors.New("rank must be >= 1")
	ErrInvalidRelevanceScore = errors.New("relevance score must be between 0 and 1")
	ErrMissingFileInfo       = errors.New("file info is required")
	ErrEmptyContent          = errors.New("content cannot be empty")
)

// GrammarError reports that a source file could not be parsed at all, e.g.
// invalid encoding or a catastrophic tokenizer failure. Partial syntax
// errors inside an otherwise valid file never produce a GrammarError; the
// grammar recovers locally and extraction returns best-effort chunks.
type GrammarError struct {
	Language Language
	Path     string
	Err      error
}

func (e *GrammarError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("grammar error (%s) in %s: %v", e.Language, e.Path, e.Err)
	}
	return fmt.Sprintf("grammar error (%s): %v", e.Language, e.Err)
}

func (e *GrammarError) Unwrap() error {
	return e.Err
}
