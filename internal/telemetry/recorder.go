package telemetry

import (
	"database/sql"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/light-meter/db"
	"github.com/thatsimonsguy/light-meter/internal/exposure"
	"github.com/thatsimonsguy/light-meter/internal/model"
)

const pruneEvery = 100

// Recorder appends readings to the SQLite reading log and keeps it bounded.
type Recorder struct {
	conn    *sql.DB
	keep    int
	inserts int
}

func NewRecorder(conn *sql.DB, keep int) *Recorder {
	return &Recorder{conn: conn, keep: keep}
}

func (r *Recorder) Publish(reading exposure.Reading, s model.Settings) error {
	if err := db.InsertReading(r.conn, reading, s); err != nil {
		return err
	}

	r.inserts++
	if r.keep > 0 && r.inserts%pruneEvery == 0 {
		removed, err := db.PruneReadings(r.conn, r.keep)
		if err != nil {
			return err
		}
		if removed > 0 {
			log.Debug().Int64("removed", removed).Msg("Pruned reading log")
		}
	}
	return nil
}
