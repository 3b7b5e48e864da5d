// Package parser extracts semantic chunks from source files using
// tree-sitter grammars.
//
// The engine walks a parsed syntax tree and emits non-overlapping chunks
// (classes, modules, methods, constants, comments, imports) annotated with
// structured metadata, ready for indexing and search.
//
// # Basic Usage
//
//	reg := language.NewRegistry()
//	engine := parser.New(reg)
//	defer engine.Close()
//
//	chunks, err := engine.ParseContent(source, "app/models/user.rb", fileID)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, c := range chunks {
//	    fmt.Printf("%s %s L%d-%d\n", c.ChunkType, c.Symbol, c.StartLine, c.EndLine)
//	}
//
// # Pipeline
//
// Extraction runs as sequential passes over one candidate list:
//
//   - collect: depth-first walk mapping node kinds to chunk kinds via the
//     language capability table
//   - merge comment runs: consecutive single-line comments become one chunk
//   - resolve boundaries: sibling spans are clamped so no declaration
//     absorbs its neighbor
//   - classify comments: shebang, doc or regular
//   - recognize macros: class-body framework declarations (associations,
//     validations, callbacks, scopes) become metadata records on the class
//
// # Boundary Resolution
//
// Grammar spans can over-extend into trailing blank lines, detached
// comments or the start of the next declaration. The boundary pass clamps
// every sibling's end line to stop short of the next sibling and pushes
// overlapping start lines forward, so sibling ranges never overlap and no
// declaration is swallowed. This pass is the correctness core of the
// package and is tested on its own against adversarial inputs.
//
// # Error Handling
//
// Only a total parse failure (invalid UTF-8, no tree) returns an error, as
// a *types.GrammarError. Files with local syntax errors still produce
// best-effort chunks for the regions the grammar recovered:
//
//	chunks, err := engine.ParseContent(broken, "broken.rb", fileID)
//	// err is nil; chunks covers the parseable declarations
//
// Empty or whitespace-only input yields an empty sequence, not an error.
//
// # Concurrency
//
// An Engine owns a tree-sitter parser, which is not shareable. Create one
// Engine per goroutine; the registry passed to New is immutable and safe to
// share. Extraction itself holds no state beyond the current call.
package parser
