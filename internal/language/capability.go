package language

import (
	"regexp"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"codechunk/pkg/types"
)

// Capability describes everything the extraction engine needs to know about
// one language: the grammar, the node-kind tables driving the walk, the
// constant-naming predicate, the macro vocabulary, and a small set of hooks
// for grammar shapes the tables cannot express. Records are built once by
// NewRegistry and never mutated afterwards.
type Capability struct {
	Language      types.Language
	Extensions    []string // with leading dot, e.g. ".rb"
	Filenames     []string // exact basenames, e.g. "Gemfile"
	ShebangMarker string   // interpreter-directive prefix; empty disables

	// NodeKinds maps grammar node kinds to chunk kinds. Unmapped kinds are
	// traversed for children but produce no chunk. Kinds mapped to
	// ChunkConstant are additionally gated by ConstantPattern.
	NodeKinds map[string]types.ChunkType

	// SingletonKinds marks method node kinds declared on the singleton/self
	// receiver rather than on instances.
	SingletonKinds map[string]bool

	// AssignTargetFields lists the field names tried, in order, to find the
	// binding target of a ChunkConstant-mapped node.
	AssignTargetFields []string

	// ConstantPattern gates constant emission by target name. A nil pattern
	// accepts every target (languages with an explicit const keyword).
	ConstantPattern *regexp.Regexp

	// ImportCalls maps call-expression function names to import types for
	// languages whose inclusion statements are ordinary calls.
	ImportCalls map[string]string

	// ImportNodes maps dedicated import node kinds to import types.
	ImportNodes map[string]string

	// Macros is the declarative-macro vocabulary scanned in class bodies.
	Macros Vocabulary

	// Superclass extracts the inheritance-clause text from a class node,
	// verbatim, or "" when no clause is present. Nil when the language has
	// no inheritance syntax.
	Superclass func(n *sitter.Node, src []byte) string

	// ImportRef extracts the unresolved reference string from a node whose
	// kind appears in ImportNodes.
	ImportRef func(n *sitter.Node, src []byte) string

	grammar *sitter.Language
}

// Grammar returns the compiled tree-sitter grammar for this language.
func (c *Capability) Grammar() *sitter.Language {
	return c.grammar
}

// Vocabulary groups recognized declarative macro names by category. Names
// absent from every category are silently ignored by the recognizer; the
// vocabulary is not assumed exhaustive.
type Vocabulary struct {
	Associations map[string]bool
	Validations  map[string]bool
	Callbacks    map[string]bool
	Scopes       map[string]bool
}

// Empty reports whether no category has any entries.
func (v Vocabulary) Empty() bool {
	return len(v.Associations) == 0 && len(v.Validations) == 0 &&
		len(v.Callbacks) == 0 && len(v.Scopes) == 0
}

// Contains reports whether name belongs to any category.
func (v Vocabulary) Contains(name string) bool {
	return v.Associations[name] || v.Validations[name] || v.Callbacks[name] || v.Scopes[name]
}

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}
