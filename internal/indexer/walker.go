package indexer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"codechunk/internal/language"
)

// DefaultExcludes are glob patterns pruned on every walk. Hidden
// directories are always skipped regardless of these.
var DefaultExcludes = []string{
	"**/vendor/**",
	"**/node_modules/**",
	"tmp/**",
	"log/**",
	"coverage/**",
}

// Walker discovers indexable source files under a project root. Include and
// exclude patterns are doublestar globs matched against the slash-separated
// path relative to the root.
type Walker struct {
	includes []string
	excludes []string
}

// NewWalker creates a walker. Empty includes default to every extension and
// well-known filename the registry supports; excludes are appended to
// DefaultExcludes.
func NewWalker(registry *language.Registry, includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = registryIncludes(registry)
	}
	return &Walker{
		includes: includes,
		excludes: append(append([]string{}, DefaultExcludes...), excludes...),
	}
}

// registryIncludes builds include globs from the registry's extensions and
// exact filenames.
func registryIncludes(registry *language.Registry) []string {
	var patterns []string
	for _, lang := range registry.Languages() {
		cap, ok := registry.Get(lang)
		if !ok {
			continue
		}
		for _, ext := range cap.Extensions {
			patterns = append(patterns, "**/*"+ext)
		}
		for _, name := range cap.Filenames {
			patterns = append(patterns, "**/"+name)
		}
	}
	return patterns
}

// Walk returns the absolute paths of files matching the include patterns,
// sorted by the walk order of filepath.WalkDir.
func (w *Walker) Walk(root string) ([]string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if w.matchesExclude(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if w.matchesInclude(rel) && !w.matchesExclude(rel) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

func (w *Walker) matchesInclude(rel string) bool {
	for _, pattern := range w.includes {
		matched, err := doublestar.Match(pattern, rel)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) matchesExclude(rel string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, rel)
		if err == nil && matched {
			return true
		}
	}
	return false
}
