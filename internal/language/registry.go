package language

import (
	"path/filepath"
	"sort"
	"strings"

	"codechunk/pkg/types"
)

// Registry is the immutable set of language-capability records. Build one
// with NewRegistry at startup and pass it by reference into every caller;
// there is no process-wide instance.
type Registry struct {
	byLang map[types.Language]*Capability
	byExt  map[string]types.Language
	byName map[string]types.Language
}

// NewRegistry builds the capability records for every supported language.
func NewRegistry() *Registry {
	r := &Registry{
		byLang: make(map[types.Language]*Capability),
		byExt:  make(map[string]types.Language),
		byName: make(map[string]types.Language),
	}

	for _, cap := range []*Capability{
		rubyCapability(),
		pythonCapability(),
		goCapability(),
		javascriptCapability(),
		typescriptCapability(),
	} {
		r.byLang[cap.Language] = cap
		for _, ext := range cap.Extensions {
			r.byExt[ext] = cap.Language
		}
		for _, name := range cap.Filenames {
			r.byName[name] = cap.Language
		}
	}

	return r
}

// Get returns the capability record for lang.
func (r *Registry) Get(lang types.Language) (*Capability, bool) {
	cap, ok := r.byLang[lang]
	return cap, ok
}

// Detect maps a filename or path hint to a language tag. Exact basenames
// (Gemfile, Rakefile) win over extensions. Returns LangUnknown when the
// file matches no supported language.
func (r *Registry) Detect(path string) types.Language {
	base := filepath.Base(path)
	if lang, ok := r.byName[base]; ok {
		return lang
	}
	if lang, ok := r.byExt[strings.ToLower(filepath.Ext(base))]; ok {
		return lang
	}
	return types.LangUnknown
}

// Languages returns the supported language tags in sorted order.
func (r *Registry) Languages() []types.Language {
	langs := make([]types.Language, 0, len(r.byLang))
	for lang := range r.byLang {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}
