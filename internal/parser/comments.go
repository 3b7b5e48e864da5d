package parser

import (
	"sort"
	"strings"

	"codechunk/pkg/types"
)

// mergeCommentRuns collapses consecutive single-line comments in the same
// scope into one comment candidate, so a multi-line doc block is a single
// chunk. A shebang never joins a run: it stays its own chunk regardless of
// what follows it.
func (x *extractor) mergeCommentRuns() {
	comments := make([]*candidate, 0)
	for _, c := range x.cands {
		if c.chunkType == types.ChunkComment {
			comments = append(comments, c)
		}
	}
	if len(comments) < 2 {
		return
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].startLine < comments[j].startLine
	})

	drop := make(map[*candidate]bool)
	run := comments[0]
	for _, c := range comments[1:] {
		adjacent := c.parent == run.parent && c.startLine == run.endLine+1
		if adjacent && !x.isShebang(run) {
			run.endLine = c.endLine
			run.text += "\n" + c.text
			drop[c] = true
			continue
		}
		run = c
	}
	if len(drop) == 0 {
		return
	}

	kept := x.cands[:0]
	for _, c := range x.cands {
		if !drop[c] {
			kept = append(kept, c)
		}
	}
	x.cands = kept
}

// classifyComments tags every comment candidate as shebang, doc or regular.
// A doc comment immediately precedes a declaration: the declaration starts
// on the line right after the comment ends, with nothing in between. A
// blank line breaks the association.
func (x *extractor) classifyComments() {
	declAt := make(map[int]bool)
	for _, c := range x.cands {
		if c.isDeclaration() {
			declAt[c.startLine] = true
		}
	}

	for _, c := range x.cands {
		if c.chunkType != types.ChunkComment {
			continue
		}
		switch {
		case x.isShebang(c):
			c.metadata[types.MetaCommentType] = types.CommentShebang
			c.metadata[types.MetaIsDocComment] = true
		case declAt[c.endLine+1]:
			c.metadata[types.MetaCommentType] = types.CommentDoc
			c.metadata[types.MetaIsDocComment] = true
		default:
			c.metadata[types.MetaCommentType] = types.CommentRegular
		}
	}
}

func (x *extractor) isShebang(c *candidate) bool {
	return c.startLine == 1 &&
		x.cap.ShebangMarker != "" &&
		strings.HasPrefix(c.text, x.cap.ShebangMarker)
}
