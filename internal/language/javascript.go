package language

import (
	"regexp"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"

	"codechunk/pkg/types"
)

var jsConstantPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

func javascriptCapability() *Capability {
	return &Capability{
		Language:      types.LangJavaScript,
		Extensions:    []string{".js", ".mjs", ".cjs", ".jsx"},
		ShebangMarker: "#!",
		NodeKinds: map[string]types.ChunkType{
			"class_declaration":              types.ChunkClass,
			"function_declaration":           types.ChunkFunction,
			"generator_function_declaration": types.ChunkFunction,
			"method_definition":              types.ChunkMethod,
			"comment":                        types.ChunkComment,
			"variable_declarator":            types.ChunkConstant,
		},
		AssignTargetFields: []string{"name"},
		ConstantPattern:    jsConstantPattern,
		ImportNodes: map[string]string{
			"import_statement": "import",
		},
		Superclass: jsSuperclass,
		ImportRef:  jsImportRef,
		grammar:    sitter.NewLanguage(javascript.Language()),
	}
}

// jsSuperclass returns the extends-clause expression of a class declaration.
func jsSuperclass(n *sitter.Node, src []byte) string {
	for i := uint(0); i < uint(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || child.Kind() != "class_heritage" {
			continue
		}
		c := child.NamedChild(0)
		if c == nil {
			return strings.TrimSpace(strings.TrimPrefix(child.Utf8Text(src), "extends"))
		}
		// TypeScript wraps the expression in an extends_clause
		if c.Kind() == "extends_clause" {
			if v := c.NamedChild(0); v != nil {
				return v.Utf8Text(src)
			}
		}
		return c.Utf8Text(src)
	}
	return ""
}

// jsImportRef returns the unquoted module source of an import statement.
func jsImportRef(n *sitter.Node, src []byte) string {
	source := n.ChildByFieldName("source")
	if source == nil {
		return ""
	}
	return strings.Trim(source.Utf8Text(src), `'"`)
}
