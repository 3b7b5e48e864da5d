package language

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"codechunk/pkg/types"
)

func typescriptCapability() *Capability {
	return &Capability{
		Language:      types.LangTypeScript,
		Extensions:    []string{".ts", ".tsx", ".mts", ".cts"},
		ShebangMarker: "#!",
		NodeKinds: map[string]types.ChunkType{
			"class_declaration":              types.ChunkClass,
			"abstract_class_declaration":     types.ChunkClass,
			"interface_declaration":          types.ChunkTypeDecl,
			"enum_declaration":               types.ChunkTypeDecl,
			"type_alias_declaration":         types.ChunkTypeDecl,
			"module":                         types.ChunkModule,
			"internal_module":                types.ChunkModule,
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
		grammar:    sitter.NewLanguage(typescript.LanguageTypescript()),
	}
}
