package language

import (
	"regexp"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"codechunk/pkg/types"
)

var pythonConstantPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

func pythonCapability() *Capability {
	return &Capability{
		Language:      types.LangPython,
		Extensions:    []string{".py", ".pyi"},
		ShebangMarker: "#!",
		NodeKinds: map[string]types.ChunkType{
			"class_definition":    types.ChunkClass,
			"function_definition": types.ChunkFunction,
			"comment":             types.ChunkComment,
			"assignment":          types.ChunkConstant,
		},
		AssignTargetFields: []string{"left"},
		ConstantPattern:    pythonConstantPattern,
		ImportNodes: map[string]string{
			"import_statement":      "import",
			"import_from_statement": "from",
		},
		Superclass: pythonSuperclass,
		ImportRef:  pythonImportRef,
		grammar:    sitter.NewLanguage(python.Language()),
	}
}

// pythonSuperclass returns the first base class from the argument list of a
// class definition.
func pythonSuperclass(n *sitter.Node, src []byte) string {
	args := n.ChildByFieldName("superclasses")
	if args == nil {
		return ""
	}
	if c := args.NamedChild(0); c != nil {
		return c.Utf8Text(src)
	}
	return ""
}

// pythonImportRef returns the module path of an import statement. For
// from-imports the module name alone is the reference.
func pythonImportRef(n *sitter.Node, src []byte) string {
	if mod := n.ChildByFieldName("module_name"); mod != nil {
		return mod.Utf8Text(src)
	}
	if c := n.NamedChild(0); c != nil {
		return strings.TrimSpace(c.Utf8Text(src))
	}
	return ""
}
