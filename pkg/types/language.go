package types

// Language tags a supported source language. The extraction engine
// dispatches on this tag to the matching grammar and node-kind tables.
type Language string

const (
	LangRuby       Language = "ruby"
	LangPython     Language = "python"
	LangGo         Language = "go"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangUnknown    Language = ""
)

// Valid reports whether the tag names a known language.
func (l Language) Valid() bool {
	switch l {
	case LangRuby, LangPython, LangGo, LangJavaScript, LangTypeScript:
		return true
	default:
		return false
	}
}

func (l Language) String() string {
	if l == LangUnknown {
		return "unknown"
	}
	return string(l)
}
