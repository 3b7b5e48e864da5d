package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"codechunk/pkg/types"
)

// recognizeMacros scans class bodies for declarative framework macros
// (associations, validations, lifecycle callbacks, named scopes) and
// attaches the matched records to the enclosing class chunk. Matching is
// purely syntactic: bare call name against the capability vocabulary plus a
// literal first argument. Unknown calls are skipped, never an error.
func (x *extractor) recognizeMacros() {
	if x.cap.Macros.Empty() {
		return
	}
	for _, c := range x.cands {
		if c.chunkType == types.ChunkClass {
			x.scanClassBody(c)
		}
	}
}

// scanClassBody inspects the direct statements of a class body. Calls
// nested inside method bodies or blocks are skipped; a macro only counts
// when it is declared at class level.
func (x *extractor) scanClassBody(class *candidate) {
	body := classBody(class.node)
	if body == nil {
		return
	}

	var (
		associations []types.Association
		validations  []types.Validation
		callbacks    []types.Callback
		scopes       []types.Scope
	)

	for i := uint(0); i < body.NamedChildCount(); i++ {
		call := body.NamedChild(i)
		if call == nil || call.Kind() != "call" {
			continue
		}
		if call.ChildByFieldName("receiver") != nil {
			continue
		}
		method := call.ChildByFieldName("method")
		if method == nil {
			continue
		}
		name := method.Utf8Text(x.src)
		if !x.cap.Macros.Contains(name) {
			continue
		}
		args := call.ChildByFieldName("arguments")
		if args == nil {
			continue
		}
		arg := literalText(args.NamedChild(0), x.src)
		if arg == "" {
			continue
		}

		switch {
		case x.cap.Macros.Associations[name]:
			associations = append(associations, types.Association{Type: name, Name: arg})
		case x.cap.Macros.Validations[name]:
			validations = append(validations, types.Validation{Field: arg})
		case x.cap.Macros.Callbacks[name]:
			callbacks = append(callbacks, types.Callback{Type: name})
		case x.cap.Macros.Scopes[name]:
			scopes = append(scopes, types.Scope{Name: arg})
		}
	}

	if len(associations) == 0 && len(validations) == 0 && len(callbacks) == 0 && len(scopes) == 0 {
		return
	}

	class.metadata[types.MetaRailsModel] = true
	if len(associations) > 0 {
		class.metadata[types.MetaAssociations] = associations
	}
	if len(validations) > 0 {
		class.metadata[types.MetaValidations] = validations
	}
	if len(callbacks) > 0 {
		class.metadata[types.MetaCallbacks] = callbacks
	}
	if len(scopes) > 0 {
		class.metadata[types.MetaScopes] = scopes
	}
}

// classBody finds the statement list of a class node, tolerating grammars
// that expose it as a field, a bare child, or not at all.
func classBody(class *sitter.Node) *sitter.Node {
	if body := class.ChildByFieldName("body"); body != nil {
		return body
	}
	for i := uint(0); i < class.ChildCount(); i++ {
		c := class.Child(i)
		if c != nil && c.Kind() == "body_statement" {
			return c
		}
	}
	return nil
}
