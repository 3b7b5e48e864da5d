package types

// Metadata is the open, chunk-type-specific annotation map carried by every
// chunk. Values are JSON-serializable; list-valued keys hold slices of the
// record types below.
type Metadata map[string]any

// Metadata keys written by the extraction engine.
const (
	MetaKind          = "kind"            // declaration kind, mirrors the chunk type
	MetaSuperclass    = "superclass"      // class chunks: inheritance-clause text, verbatim
	MetaIsClassMethod = "is_class_method" // method chunks: declared on the singleton/self receiver
	MetaCommentType   = "comment_type"    // comment chunks: shebang, doc or regular
	MetaIsDocComment  = "is_doc_comment"  // comment chunks: shebang or doc
	MetaImportType    = "import_type"     // import chunks: require, require_relative, ...
	MetaReference     = "reference"       // import chunks: unresolved target, verbatim
	MetaAssociations  = "associations"    // class chunks: []Association
	MetaValidations   = "validations"     // class chunks: []Validation
	MetaCallbacks     = "callbacks"       // class chunks: []Callback
	MetaScopes        = "scopes"          // class chunks: []Scope
	MetaRailsModel    = "rails_model"     // class chunks: at least one macro recognized
)

// Comment classifications.
const (
	CommentShebang = "shebang"
	CommentDoc     = "doc"
	CommentRegular = "regular"
)

// Association records an ORM association macro found in a class body,
// e.g. {Type: "belongs_to", Name: "author"}.
type Association struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// Validation records a validation macro by the field it validates.
type Validation struct {
	Field string `json:"field"`
}

// Callback records a lifecycle-callback macro by its hook name,
// e.g. {Type: "before_save"}.
type Callback struct {
	Type string `json:"type"`
}

// Scope records a named query scope, e.g. {Name: "published"}.
type Scope struct {
	Name string `json:"name"`
}

// GetString returns the string value for key, or "" when absent or not a
// string.
func (m Metadata) GetString(key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// GetBool returns the bool value for key, or false when absent or not a
// bool.
func (m Metadata) GetBool(key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

// Has reports whether key is present.
func (m Metadata) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// Clone returns a shallow copy. Record slices are copied one level deep so
// appending to a clone never mutates the original.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		switch vv := v.(type) {
		case []Association:
			out[k] = append([]Association(nil), vv...)
		case []Validation:
			out[k] = append([]Validation(nil), vv...)
		case []Callback:
			out[k] = append([]Callback(nil), vv...)
		case []Scope:
			out[k] = append([]Scope(nil), vv...)
		default:
			out[k] = v
		}
	}
	return out
}
