//go:build purego || !sqlite_vec
// +build purego !sqlite_vec

package storage

// Default build. modernc.org/sqlite needs no C toolchain and cross
// compiles cleanly; the price is that similarity search ranks embeddings
// in Go instead of in SQL. Fine for development and smaller codebases.
//
//	CGO_ENABLED=0 go build ./...

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName selects the registered database/sql driver
	DriverName = "sqlite"

	// VectorExtensionAvailable reports whether vec_distance_cosine can be
	// used in SQL
	VectorExtensionAvailable = false

	// BuildMode tags logs and status output with the driver flavor
	BuildMode = "purego"
)
