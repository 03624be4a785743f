//go:build cgo_sqlite

// The CGO driver lives in contrib/sqlite-external so the default build
// carries no C dependency.
package sqlite

import (
	sqliteexternal "github.com/FocuswithJustin/ScoreOrder/contrib/sqlite-external"
)

const (
	driverName     = sqliteexternal.DriverName
	driverType     = sqliteexternal.DriverType
	driverPackage  = sqliteexternal.DriverPackage + " (via contrib/sqlite-external)"
	busyTimeoutDSN = "?_busy_timeout=5000"
)
