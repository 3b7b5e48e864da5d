package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"codechunk/pkg/types"
)

func cand(ct types.ChunkType, symbol string, start, end int, parent *candidate) *candidate {
	depth := 0
	if parent != nil {
		depth = parent.depth + 1
	}
	return &candidate{
		chunkType: ct,
		symbol:    symbol,
		startLine: start,
		endLine:   end,
		depth:     depth,
		parent:    parent,
		metadata:  types.Metadata{},
	}
}

func TestResolveBoundaries_ClampsOverExtendedEnd(t *testing.T) {
	// grammar reported a absorbing b's first lines
	a := cand(types.ChunkMethod, "a", 1, 10, nil)
	b := cand(types.ChunkMethod, "b", 8, 15, nil)

	resolveBoundaries([]*candidate{a, b})

	assert.Equal(t, 1, a.startLine)
	assert.Equal(t, 7, a.endLine)
	assert.Equal(t, 8, b.startLine)
	assert.Equal(t, 15, b.endLine)
}

func TestResolveBoundaries_FullySwallowedSibling(t *testing.T) {
	a := cand(types.ChunkMethod, "create", 30, 41, nil)
	b := cand(types.ChunkMethod, "normalize_email", 39, 41, nil)

	resolveBoundaries([]*candidate{a, b})

	assert.Equal(t, 38, a.endLine, "create must stop before normalize_email")
	assert.Equal(t, 39, b.startLine)
	assert.Equal(t, 41, b.endLine)
	assert.Less(t, a.endLine, b.startLine)
}

func TestResolveBoundaries_CascadeAcrossThreeSiblings(t *testing.T) {
	a := cand(types.ChunkMethod, "a", 1, 12, nil)
	b := cand(types.ChunkMethod, "b", 10, 22, nil)
	c := cand(types.ChunkMethod, "c", 20, 30, nil)

	resolveBoundaries([]*candidate{a, b, c})

	assert.Equal(t, 9, a.endLine)
	assert.Equal(t, 10, b.startLine)
	assert.Equal(t, 19, b.endLine)
	assert.Equal(t, 20, c.startLine)
	assert.Equal(t, 30, c.endLine)
}

func TestResolveBoundaries_GapsArePermitted(t *testing.T) {
	a := cand(types.ChunkMethod, "a", 1, 3, nil)
	b := cand(types.ChunkMethod, "b", 7, 9, nil)

	resolveBoundaries([]*candidate{a, b})

	assert.Equal(t, 3, a.endLine, "a gap between siblings is not an error")
	assert.Equal(t, 7, b.startLine)
}

func TestResolveBoundaries_OverlappingStartPushedForward(t *testing.T) {
	// same reported start: the end clamp cannot apply, the start clamp must
	a := cand(types.ChunkMethod, "a", 1, 3, nil)
	b := cand(types.ChunkMethod, "b", 1, 5, nil)

	resolveBoundaries([]*candidate{a, b})

	assert.Equal(t, 1, a.startLine)
	assert.Equal(t, 3, a.endLine)
	assert.Equal(t, 4, b.startLine)
	assert.Equal(t, 5, b.endLine)
}

func TestResolveBoundaries_ScopesAreIndependent(t *testing.T) {
	// two constructors with the same name in different classes
	userClass := cand(types.ChunkClass, "User", 1, 10, nil)
	adminClass := cand(types.ChunkClass, "AdminUser", 12, 20, nil)
	initA := cand(types.ChunkMethod, "initialize", 2, 11, userClass)
	initB := cand(types.ChunkMethod, "initialize", 13, 16, adminClass)
	other := cand(types.ChunkMethod, "admin?", 17, 19, adminClass)

	resolveBoundaries([]*candidate{userClass, adminClass, initA, initB, other})

	assert.Equal(t, 11, initA.endLine, "siblings in another scope never clamp this one")
	assert.Equal(t, 16, initB.endLine)
	assert.Equal(t, 17, other.startLine)
}

func TestResolveBoundaries_TopLevelContainersClampEachOther(t *testing.T) {
	userClass := cand(types.ChunkClass, "User", 1, 12, nil)
	utils := cand(types.ChunkModule, "Utils", 12, 18, nil)

	resolveBoundaries([]*candidate{userClass, utils})

	assert.Equal(t, 11, userClass.endLine)
	assert.Equal(t, 12, utils.startLine)
}

func TestResolveBoundaries_SiblingLinksRecorded(t *testing.T) {
	a := cand(types.ChunkMethod, "a", 1, 3, nil)
	b := cand(types.ChunkMethod, "b", 5, 7, nil)
	c := cand(types.ChunkMethod, "c", 9, 11, nil)

	resolveBoundaries([]*candidate{a, b, c})

	assert.Nil(t, a.prev)
	assert.Same(t, b, a.next)
	assert.Same(t, a, b.prev)
	assert.Same(t, c, b.next)
	assert.Same(t, b, c.prev)
	assert.Nil(t, c.next)
}

func TestResolveBoundaries_SingleCandidateUntouched(t *testing.T) {
	a := cand(types.ChunkClass, "Only", 3, 9, nil)

	resolveBoundaries([]*candidate{a})

	assert.Equal(t, 3, a.startLine)
	assert.Equal(t, 9, a.endLine)
}

func TestResolveBoundaries_CommentsParticipateAsSiblings(t *testing.T) {
	m := cand(types.ChunkMethod, "worker", 1, 6, nil)
	comment := cand(types.ChunkComment, "", 5, 5, nil)
	next := cand(types.ChunkMethod, "helper", 7, 9, nil)

	resolveBoundaries([]*candidate{m, comment, next})

	assert.Equal(t, 4, m.endLine, "a detached trailing comment is not part of the method")
	assert.Equal(t, 5, comment.startLine)
	assert.Equal(t, 7, next.startLine)
}

func TestResolveBoundaries_InvariantsHoldAfterResolution(t *testing.T) {
	parent := cand(types.ChunkClass, "C", 1, 40, nil)
	cands := []*candidate{
		parent,
		cand(types.ChunkMethod, "m1", 2, 12, parent),
		cand(types.ChunkMethod, "m2", 10, 22, parent),
		cand(types.ChunkMethod, "m3", 22, 30, parent),
		cand(types.ChunkMethod, "m4", 30, 39, parent),
	}

	resolveBoundaries(cands)

	for _, c := range cands {
		assert.LessOrEqual(t, c.startLine, c.endLine, "%s", c.symbol)
	}
	members := cands[1:]
	for i := 1; i < len(members); i++ {
		assert.Less(t, members[i-1].endLine, members[i].startLine,
			"%s and %s must not overlap", members[i-1].symbol, members[i].symbol)
	}
}
