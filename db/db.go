package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS region (
	id INTEGER PRIMARY KEY CHECK(id=1),
	data BLOB NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS readings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	taken_at TEXT NOT NULL,
	lux REAL NOT NULL,
	ev REAL,
	output REAL,
	mode TEXT NOT NULL,
	metering TEXT NOT NULL,
	iso_index INTEGER NOT NULL,
	nd_filter_index INTEGER NOT NULL,
	valid BOOLEAN NOT NULL
);

CREATE INDEX IF NOT EXISTS readings_taken_at ON readings (taken_at);
`

// Open opens the SQLite database at path and applies the schema.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// the region row and reading log are written from two goroutines
	conn.SetMaxOpenConns(1)

	if err := Migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func Migrate(conn *sql.DB) error {
	if _, err := conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
