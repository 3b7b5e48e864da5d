package language

import (
	"regexp"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"

	"codechunk/pkg/types"
)

var rubyConstantPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

func rubyCapability() *Capability {
	return &Capability{
		Language:      types.LangRuby,
		Extensions:    []string{".rb", ".rake", ".gemspec", ".jbuilder"},
		Filenames:     []string{"Gemfile", "Rakefile", "Capfile"},
		ShebangMarker: "#!",
		NodeKinds: map[string]types.ChunkType{
			"class":            types.ChunkClass,
			"module":           types.ChunkModule,
			"method":           types.ChunkMethod,
			"singleton_method": types.ChunkMethod,
			"comment":          types.ChunkComment,
			"assignment":       types.ChunkConstant,
		},
		SingletonKinds:     set("singleton_method"),
		AssignTargetFields: []string{"left"},
		ConstantPattern:    rubyConstantPattern,
		ImportCalls: map[string]string{
			"require":          "require",
			"require_relative": "require_relative",
		},
		Macros: Vocabulary{
			Associations: set(
				"belongs_to",
				"has_many",
				"has_one",
				"has_and_belongs_to_many",
			),
			Validations: set(
				"validates",
				"validates_presence_of",
				"validates_uniqueness_of",
				"validates_format_of",
				"validates_length_of",
				"validates_numericality_of",
			),
			Callbacks: set(
				"before_validation", "after_validation",
				"before_save", "after_save",
				"before_create", "after_create",
				"before_update", "after_update",
				"before_destroy", "after_destroy",
				"after_commit", "after_rollback",
			),
			Scopes: set("scope"),
		},
		Superclass: rubySuperclass,
		grammar:    sitter.NewLanguage(ruby.Language()),
	}
}

// rubySuperclass returns the constant named in the inheritance clause. The
// superclass node spans the whole "< User" clause; the named child is the
// constant itself.
func rubySuperclass(n *sitter.Node, src []byte) string {
	clause := n.ChildByFieldName("superclass")
	if clause == nil {
		return ""
	}
	if c := clause.NamedChild(0); c != nil {
		return c.Utf8Text(src)
	}
	return strings.TrimSpace(strings.TrimPrefix(clause.Utf8Text(src), "<"))
}
