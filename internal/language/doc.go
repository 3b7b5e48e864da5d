// Package language defines the capability registry driving per-language
// extraction.
//
// A Capability record bundles a compiled tree-sitter grammar with the data
// tables the engine consults during a walk: node-kind to chunk-kind mapping,
// singleton-method kinds, the constant-naming predicate, import recognition
// tables and the declarative-macro vocabulary. Grammar shapes too irregular
// for tables (inheritance clauses, import references) are covered by small
// per-language hook functions on the record.
//
// Build the registry once at startup and inject it:
//
//	reg := language.NewRegistry()
//	cap, ok := reg.Get(reg.Detect("app/models/post.rb"))
//
// Records are immutable after construction, so a single registry is safe to
// share across concurrent extractions. The tree-sitter parser itself is not
// shareable; each extraction owns its parser and only borrows the grammar
// pointer from the capability.
package language
