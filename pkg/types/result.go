package types

// SearchResult is one ranked hit returned by a search. Rank is the 1-based
// position in the result set; RelevanceScore folds the vector, BM25 and
// fusion scores into a single value in [0, 1].
type SearchResult struct {
	ChunkID        int64
	Rank           int
	RelevanceScore float64

	Symbol    string // empty for anonymous chunks
	ChunkType ChunkType
	Content   string
	Snippet   string // leading lines of Content, for compact display
	File      *FileInfo
}

// FileInfo locates a search result in its source file. Path is relative to
// the project root.
type FileInfo struct {
	Path      string
	Language  Language
	StartLine int
	EndLine   int
}

// Validate reports the first structural problem with the result.
func (sr *SearchResult) Validate() error {
	switch {
	case sr.ChunkID == 0:
		return ErrInvalidChunkID
	case sr.Rank < 1:
		return ErrInvalidRank
	case sr.RelevanceScore < 0 || sr.RelevanceScore > 1:
		return ErrInvalidRelevanceScore
	case sr.File == nil:
		return ErrMissingFileInfo
	case sr.Content == "":
		return ErrEmptyContent
	}
	return nil
}
