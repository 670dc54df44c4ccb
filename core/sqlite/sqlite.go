// Package sqlite opens SQLite databases with the driver selected at build
// time.
//
// Build modes:
//   - Default: pure Go modernc.org/sqlite, driver name "sqlite"
//   - -tags cgo_sqlite (CGO_ENABLED=1): mattn/go-sqlite3, driver name "sqlite3"
//
// Use Open instead of sql.Open so the matching driver name is used.
package sqlite

import (
	"database/sql"

	"github.com/FocuswithJustin/opusread/core/errors"
)

// DriverName returns the registered database/sql driver name.
func DriverName() string {
	return driverName
}

// DriverType returns "cgo" for mattn/go-sqlite3 and "purego" for
// modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// IsCGO reports whether the CGO driver is compiled in.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens the database at path and checks that it is reachable.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.NewIO("open", path, err)
	}
	return db, nil
}

// Info describes the compiled-in driver.
type Info struct {
	DriverName string
	DriverType string
	IsCGO      bool
	Package    string
}

// GetInfo returns information about the compiled-in driver.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
