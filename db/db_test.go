package db

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/light-meter/internal/exposure"
	"github.com/thatsimonsguy/light-meter/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestMigrateIsIdempotent(t *testing.T) {
	conn := openTestDB(t)
	require.NoError(t, Migrate(conn))
}

func TestRegionReadsErasedUntilWritten(t *testing.T) {
	region := NewRegion(openTestDB(t), 64)

	blank, err := region.Read()
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 64), blank)

	image := make([]byte, 64)
	image[0] = 0x69
	image[3] = 6
	require.NoError(t, region.Write(image))

	got, err := region.Read()
	require.NoError(t, err)
	assert.Equal(t, image, got)

	image[3] = 9
	require.NoError(t, region.Write(image))
	got, err = region.Read()
	require.NoError(t, err)
	assert.Equal(t, byte(9), got[3])
}

func TestReadingLog(t *testing.T) {
	conn := openTestDB(t)
	settings := model.DefaultSettings()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	r, err := exposure.Compute(320, settings)
	require.NoError(t, err)
	r.At = at
	require.NoError(t, InsertReading(conn, r, settings))

	dark := exposure.Invalid(0, settings.Mode)
	dark.At = at.Add(time.Second)
	require.NoError(t, InsertReading(conn, dark, settings))

	rows, err := RecentReadings(conn, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.False(t, rows[0].Valid)
	assert.False(t, rows[0].EV.Valid)
	assert.False(t, rows[0].Output.Valid)

	assert.True(t, rows[1].Valid)
	assert.Equal(t, 320.0, rows[1].Lux)
	assert.InDelta(t, 7.0, rows[1].EV.Float64, 1e-9)
	assert.InDelta(t, 1.4142, rows[1].Output.Float64, 1e-3)
	assert.Equal(t, "aperture", rows[1].Mode)
	assert.Equal(t, "incident", rows[1].Metering)
	assert.True(t, rows[1].TakenAt.Equal(at))
}

func TestPruneReadings(t *testing.T) {
	conn := openTestDB(t)
	settings := model.DefaultSettings()
	for i := 0; i < 5; i++ {
		r, err := exposure.Compute(float64(100+i), settings)
		require.NoError(t, err)
		r.At = time.Now()
		require.NoError(t, InsertReading(conn, r, settings))
	}

	removed, err := PruneReadings(conn, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	rows, err := RecentReadings(conn, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 104.0, rows[0].Lux)
}
