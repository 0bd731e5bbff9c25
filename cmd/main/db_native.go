//go:build !cgo_sqlite

package main

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteDriver = "sqlite"

func initDB(dataSource string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriver, dataSource)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not open %s database: %w", sqliteDriver, err)
	}
	return db, nil
}
