package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// StartTransaction starts a new database transaction.
func StartTransaction(db *sql.DB) (*sql.Tx, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	return tx, nil
}

// CommitTransaction commits the given transaction.
func CommitTransaction(tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RollbackTransaction rolls back the given transaction.
func RollbackTransaction(tx *sql.Tx) {
	tx.Rollback()
}

// Region stores the settings region image as a single blob row.
type Region struct {
	db   *sql.DB
	size int
}

func NewRegion(db *sql.DB, size int) *Region {
	return &Region{db: db, size: size}
}

// Read returns an erased region until the first write.
func (r *Region) Read() ([]byte, error) {
	var data []byte
	err := r.db.QueryRow(`SELECT data FROM region WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return make([]byte, r.size), nil
	}
	if err != nil {
		return nil, fmt.Errorf("query region: %w", err)
	}
	return data, nil
}

func (r *Region) Write(b []byte) error {
	tx, err := StartTransaction(r.db)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`INSERT OR REPLACE INTO region (id, data, updated_at) VALUES (1, ?, ?)`,
		b, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		RollbackTransaction(tx)
		return fmt.Errorf("write region: %w", err)
	}
	return CommitTransaction(tx)
}
