//go:build sqlite_vec
// +build sqlite_vec

package storage

// CGO build. github.com/mattn/go-sqlite3 loads the sqlite-vec extension,
// so similarity queries run inside SQLite (vec_distance_cosine) instead
// of scanning embedding blobs in Go. Preferred for large indexes.
//
//	CGO_ENABLED=1 go build -tags "sqlite_vec,fts5" ./...

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName selects the registered database/sql driver
	DriverName = "sqlite3"

	// VectorExtensionAvailable reports whether vec_distance_cosine can be
	// used in SQL
	VectorExtensionAvailable = true

	// BuildMode tags logs and status output with the driver flavor
	BuildMode = "cgo"
)
