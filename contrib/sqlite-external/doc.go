// Package sqliteexternal links the CGO SQLite driver.
//
// The score order store uses the pure Go modernc.org/sqlite driver by
// default. Building with the cgo_sqlite tag switches core/sqlite to
// github.com/mattn/go-sqlite3 through this package:
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite ./cmd/scoreorder
//
// Use it when a system SQLite build is preferred or cross-compilation is
// not needed.
package sqliteexternal
