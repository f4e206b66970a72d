package db

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/thatsimonsguy/light-meter/internal/exposure"
	"github.com/thatsimonsguy/light-meter/internal/model"
)

// LoggedReading is one row of the reading log.
type LoggedReading struct {
	ID            int64
	TakenAt       time.Time
	Lux           float64
	EV            sql.NullFloat64
	Output        sql.NullFloat64
	Mode          string
	Metering      string
	ISOIndex      int8
	NDFilterIndex int8
	Valid         bool
}

func nullable(v float64, ok bool) sql.NullFloat64 {
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// InsertReading appends a sampled reading together with the settings it was computed under.
func InsertReading(db *sql.DB, r exposure.Reading, s model.Settings) error {
	lux := r.Lux
	if math.IsNaN(lux) || math.IsInf(lux, 0) {
		lux = 0
	}
	_, err := db.Exec(`INSERT INTO readings (taken_at, lux, ev, output, mode, metering, iso_index, nd_filter_index, valid) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.At.UTC().Format(time.RFC3339Nano),
		lux,
		nullable(r.EV, r.Valid),
		nullable(r.Output, r.OutputValid),
		r.Mode.String(),
		s.Metering.String(),
		s.ISOIndex,
		s.NDFilterIndex,
		r.Valid)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

// RecentReadings returns up to limit readings, newest first.
func RecentReadings(db *sql.DB, limit int) ([]LoggedReading, error) {
	rows, err := db.Query(`SELECT id, taken_at, lux, ev, output, mode, metering, iso_index, nd_filter_index, valid FROM readings ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	var readings []LoggedReading
	for rows.Next() {
		var r LoggedReading
		var takenAt string
		err = rows.Scan(&r.ID, &takenAt, &r.Lux, &r.EV, &r.Output, &r.Mode, &r.Metering, &r.ISOIndex, &r.NDFilterIndex, &r.Valid)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		r.TakenAt, _ = time.Parse(time.RFC3339Nano, takenAt)
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// PruneReadings keeps only the newest keep rows.
func PruneReadings(db *sql.DB, keep int) (int64, error) {
	res, err := db.Exec(`DELETE FROM readings WHERE id NOT IN (SELECT id FROM readings ORDER BY id DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune readings: %w", err)
	}
	return res.RowsAffected()
}
