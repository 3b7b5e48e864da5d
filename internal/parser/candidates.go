package parser

import (
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"codechunk/internal/language"
	"codechunk/pkg/types"
)

// candidate is a chunk under construction: tentative grammar span, sibling
// links for boundary resolution, and the metadata accumulated by the
// classifier stages. Candidates never escape the producing call.
type candidate struct {
	chunkType types.ChunkType
	symbol    string
	startLine int
	endLine   int
	depth     int
	text      string // comment text, kept for classification

	parent *candidate
	prev   *candidate
	next   *candidate

	node     *sitter.Node
	metadata types.Metadata
}

func (c *candidate) isDeclaration() bool {
	switch c.chunkType {
	case types.ChunkClass, types.ChunkModule, types.ChunkMethod,
		types.ChunkFunction, types.ChunkConstant, types.ChunkTypeDecl:
		return true
	default:
		return false
	}
}

// extractor holds the working state of one extraction call.
type extractor struct {
	cap    *language.Capability
	src    []byte
	fileID int64
	cands  []*candidate
}

func (x *extractor) newCandidate(ct types.ChunkType, node *sitter.Node, scope *candidate) *candidate {
	start, end := lineSpan(node)
	depth := 0
	if scope != nil {
		depth = scope.depth + 1
	}
	return &candidate{
		chunkType: ct,
		startLine: start,
		endLine:   end,
		depth:     depth,
		parent:    scope,
		node:      node,
		metadata:  types.Metadata{},
	}
}

// collect walks the tree depth-first, emitting candidates per the
// capability's node-kind table. Unmapped kinds are traversed for children
// but produce nothing themselves. Method bodies are leaves: nothing inside
// them becomes a chunk of its own.
func (x *extractor) collect(node *sitter.Node, scope *candidate, depth int) {
	if node == nil {
		return
	}
	kind := node.Kind()

	if ct, ok := x.cap.NodeKinds[kind]; ok {
		switch ct {
		case types.ChunkClass, types.ChunkModule:
			cand := x.newCandidate(ct, node, scope)
			cand.symbol = declarationName(node, x.src)
			cand.metadata[types.MetaKind] = string(ct)
			if ct == types.ChunkClass && x.cap.Superclass != nil {
				if super := x.cap.Superclass(node, x.src); super != "" {
					cand.metadata[types.MetaSuperclass] = super
				}
			}
			x.cands = append(x.cands, cand)
			for i := uint(0); i < node.ChildCount(); i++ {
				x.collect(node.Child(i), cand, depth+1)
			}
			return

		case types.ChunkMethod, types.ChunkFunction:
			if ct == types.ChunkFunction && insideClass(scope) {
				ct = types.ChunkMethod
			}
			cand := x.newCandidate(ct, node, scope)
			cand.symbol = declarationName(node, x.src)
			cand.metadata[types.MetaKind] = string(ct)
			if x.cap.SingletonKinds[kind] {
				cand.metadata[types.MetaIsClassMethod] = true
			}
			x.cands = append(x.cands, cand)
			return

		case types.ChunkTypeDecl:
			cand := x.newCandidate(ct, node, scope)
			cand.symbol = declarationName(node, x.src)
			cand.metadata[types.MetaKind] = string(ct)
			x.cands = append(x.cands, cand)
			return

		case types.ChunkConstant:
			if name, ok := x.constantTarget(node); ok {
				cand := x.newCandidate(ct, node, scope)
				cand.symbol = name
				cand.metadata[types.MetaKind] = string(ct)
				x.cands = append(x.cands, cand)
			}
			return

		case types.ChunkComment:
			cand := x.newCandidate(ct, node, scope)
			cand.text = node.Utf8Text(x.src)
			x.cands = append(x.cands, cand)
			return
		}
	}

	if importType, ok := x.cap.ImportNodes[kind]; ok && x.cap.ImportRef != nil {
		if ref := x.cap.ImportRef(node, x.src); ref != "" {
			x.addImport(node, scope, importType, ref)
		}
		return
	}

	if len(x.cap.ImportCalls) > 0 && kind == "call" {
		if importType, ref, ok := x.importCall(node); ok {
			x.addImport(node, scope, importType, ref)
			return
		}
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		x.collect(node.Child(i), scope, depth)
	}
}

func (x *extractor) addImport(node *sitter.Node, scope *candidate, importType, ref string) {
	cand := x.newCandidate(types.ChunkImport, node, scope)
	cand.symbol = ref
	cand.metadata[types.MetaImportType] = importType
	cand.metadata[types.MetaReference] = ref
	x.cands = append(x.cands, cand)
}

// constantTarget finds the binding target of an assignment-style node and
// gates it on the language's constant-naming convention. Bindings that fail
// the gate produce no chunk at all.
func (x *extractor) constantTarget(node *sitter.Node) (string, bool) {
	var target *sitter.Node
	for _, field := range x.cap.AssignTargetFields {
		if t := node.ChildByFieldName(field); t != nil {
			target = t
			break
		}
	}
	if target == nil {
		return "", false
	}
	name := target.Utf8Text(x.src)
	if name == "" {
		return "", false
	}
	if x.cap.ConstantPattern != nil && !x.cap.ConstantPattern.MatchString(name) {
		return "", false
	}
	return name, true
}

// importCall matches require-style inclusion calls: a bare call whose
// function name is in the capability's import table and whose first
// argument is a literal.
func (x *extractor) importCall(node *sitter.Node) (string, string, bool) {
	if node.ChildByFieldName("receiver") != nil {
		return "", "", false
	}
	method := node.ChildByFieldName("method")
	if method == nil {
		return "", "", false
	}
	importType, ok := x.cap.ImportCalls[method.Utf8Text(x.src)]
	if !ok {
		return "", "", false
	}
	args := node.ChildByFieldName("arguments")
	if args == nil {
		return "", "", false
	}
	ref := literalText(args.NamedChild(0), x.src)
	if ref == "" {
		return "", "", false
	}
	return importType, ref, true
}

// assemble sorts candidates into the final order and materializes chunks:
// start line ascending, ties broken outer before inner.
func (x *extractor) assemble() []types.Chunk {
	sort.SliceStable(x.cands, func(i, j int) bool {
		if x.cands[i].startLine != x.cands[j].startLine {
			return x.cands[i].startLine < x.cands[j].startLine
		}
		return x.cands[i].depth < x.cands[j].depth
	})

	chunks := make([]types.Chunk, 0, len(x.cands))
	for _, c := range x.cands {
		chunks = append(chunks, types.Chunk{
			FileID:    x.fileID,
			Symbol:    c.symbol,
			ChunkType: c.chunkType,
			StartLine: c.startLine,
			EndLine:   c.endLine,
			Metadata:  c.metadata,
		})
	}
	return chunks
}

func insideClass(scope *candidate) bool {
	for s := scope; s != nil; s = s.parent {
		if s.chunkType == types.ChunkClass {
			return true
		}
	}
	return false
}

// lineSpan converts a node's grammar positions to 1-indexed inclusive
// lines. A span ending at column 0 stops at the preceding line break, so
// its last line is the previous one.
func lineSpan(n *sitter.Node) (int, int) {
	start := n.StartPosition()
	end := n.EndPosition()
	startLine := int(start.Row) + 1
	endLine := int(end.Row) + 1
	if end.Column == 0 && endLine > startLine {
		endLine--
	}
	return startLine, endLine
}

// declarationName extracts the declared name of a definition node, trying
// the name field first and falling back to the first name-like child.
func declarationName(n *sitter.Node, src []byte) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return name.Utf8Text(src)
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		if c == nil {
			continue
		}
		switch c.Kind() {
		case "constant", "identifier", "type_identifier", "property_identifier":
			return c.Utf8Text(src)
		}
	}
	return ""
}

// literalText resolves a literal argument node to its bare text: strings
// lose their quotes, symbols lose their leading colon.
func literalText(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	switch n.Kind() {
	case "string":
		var b strings.Builder
		for i := uint(0); i < n.NamedChildCount(); i++ {
			c := n.NamedChild(i)
			if c != nil && c.Kind() == "string_content" {
				b.WriteString(c.Utf8Text(src))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
		return strings.Trim(n.Utf8Text(src), `'"`)
	case "simple_symbol":
		return strings.TrimPrefix(n.Utf8Text(src), ":")
	case "string_content", "identifier", "constant":
		return n.Utf8Text(src)
	default:
		return ""
	}
}
