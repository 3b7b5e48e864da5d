package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"codechunk/internal/language"
	"codechunk/pkg/types"
)

// Engine extracts chunks from source files. The underlying tree-sitter
// parser holds non-shareable state, so each concurrent extraction needs its
// own Engine; the registry itself is immutable and shared.
type Engine struct {
	registry *language.Registry
	parser   *sitter.Parser
}

// New creates a new Engine backed by the given registry.
func New(registry *language.Registry) *Engine {
	return &Engine{
		registry: registry,
		parser:   sitter.NewParser(),
	}
}

// Close releases the underlying parser.
func (e *Engine) Close() {
	if e.parser != nil {
		e.parser.Close()
		e.parser = nil
	}
}

// ParseContent extracts the ordered chunk sequence from source. The language
// is inferred from pathHint; fileID is attached to every chunk unchanged.
//
// Extraction is synchronous and side-effect-free. Empty or whitespace-only
// source yields an empty sequence. A GrammarError is returned only when the
// source cannot be parsed at all; files with local syntax errors still
// produce best-effort chunks for the parseable regions.
func (e *Engine) ParseContent(source []byte, pathHint string, fileID int64) ([]types.Chunk, error) {
	lang := e.registry.Detect(pathHint)
	cap, ok := e.registry.Get(lang)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedLanguage, pathHint)
	}

	if strings.TrimSpace(string(source)) == "" {
		return []types.Chunk{}, nil
	}

	if !utf8.Valid(source) {
		return nil, &types.GrammarError{Language: lang, Path: pathHint, Err: types.ErrInvalidEncoding}
	}

	if err := e.parser.SetLanguage(cap.Grammar()); err != nil {
		return nil, &types.GrammarError{Language: lang, Path: pathHint, Err: err}
	}

	tree := e.parser.Parse(source, nil)
	if tree == nil {
		return nil, &types.GrammarError{Language: lang, Path: pathHint, Err: fmt.Errorf("parse returned no tree")}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, &types.GrammarError{Language: lang, Path: pathHint, Err: fmt.Errorf("parse returned no root node")}
	}

	x := &extractor{
		cap:    cap,
		src:    source,
		fileID: fileID,
	}

	x.collect(root, nil, 0)
	x.mergeCommentRuns()
	resolveBoundaries(x.cands)
	x.classifyComments()
	x.recognizeMacros()

	return x.assemble(), nil
}

// Language reports the language tag ParseContent would use for pathHint.
func (e *Engine) Language(pathHint string) types.Language {
	return e.registry.Detect(pathHint)
}
