package parser

import "sort"

// resolveBoundaries links sibling candidates and corrects overlapping
// spans. Grammar spans can over-extend into trailing blank lines, detached
// comments, or the start of the next sibling; without correction a
// declaration silently absorbs its neighbor and the neighbor is lost to
// search.
//
// Two passes over each sibling group, outer scopes first: clamp every
// end line to stop short of the next sibling, then push every start line
// past the previous sibling's end. Gaps between clamped ranges are fine;
// they hold blank lines or free comments. Identity is (symbol, start line),
// so repeated names in different scopes are never merged.
func resolveBoundaries(cands []*candidate) {
	ordered := make([]*candidate, len(cands))
	copy(ordered, cands)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].depth != ordered[j].depth {
			return ordered[i].depth < ordered[j].depth
		}
		return ordered[i].startLine < ordered[j].startLine
	})

	groups := make(map[*candidate][]*candidate)
	var scopes []*candidate
	for _, c := range ordered {
		if _, seen := groups[c.parent]; !seen {
			scopes = append(scopes, c.parent)
		}
		groups[c.parent] = append(groups[c.parent], c)
	}

	for _, scope := range scopes {
		siblings := groups[scope]

		for i, c := range siblings {
			if i > 0 {
				c.prev = siblings[i-1]
			}
			if i < len(siblings)-1 {
				c.next = siblings[i+1]
			}
		}

		for _, c := range siblings {
			if c.next == nil {
				continue
			}
			if c.endLine >= c.next.startLine && c.next.startLine > c.startLine {
				c.endLine = c.next.startLine - 1
			}
		}

		for _, c := range siblings {
			if c.prev == nil {
				continue
			}
			if c.startLine <= c.prev.endLine && c.prev.endLine+1 <= c.endLine {
				c.startLine = c.prev.endLine + 1
			}
		}
	}
}
