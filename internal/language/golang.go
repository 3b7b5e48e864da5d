package language

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	golang "github.com/tree-sitter/tree-sitter-go/bindings/go"

	"codechunk/pkg/types"
)

func goCapability() *Capability {
	return &Capability{
		Language:   types.LangGo,
		Extensions: []string{".go"},
		NodeKinds: map[string]types.ChunkType{
			"function_declaration": types.ChunkFunction,
			"method_declaration":   types.ChunkMethod,
			"type_spec":            types.ChunkTypeDecl,
			"const_spec":           types.ChunkConstant,
			"comment":              types.ChunkComment,
		},
		AssignTargetFields: []string{"name"},
		ImportNodes: map[string]string{
			"import_spec": "import",
		},
		ImportRef: goImportRef,
		grammar:   sitter.NewLanguage(golang.Language()),
	}
}

// goImportRef returns the unquoted import path of an import spec.
func goImportRef(n *sitter.Node, src []byte) string {
	path := n.ChildByFieldName("path")
	if path == nil {
		return ""
	}
	return strings.Trim(path.Utf8Text(src), `"`)
}
