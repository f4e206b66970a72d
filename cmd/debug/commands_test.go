package main

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/light-meter/db"
	"github.com/thatsimonsguy/light-meter/internal/model"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.json")
	contents := `{"region_file": "` + filepath.Join(dir, "settings.bin") + `"}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestDescribeComputeAperture(t *testing.T) {
	var out bytes.Buffer
	// EV 7 incident at 1/60s
	require.NoError(t, describeCompute(&out, 320, model.DefaultSettings()))

	assert.Regexp(t, `aperture:\s+f/1\.4`, out.String())
	assert.Contains(t, out.String(), "Shutter")
}

func TestDescribeComputeDark(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, describeCompute(&out, 0, model.DefaultSettings()))

	assert.Regexp(t, `aperture:\s+--`, out.String())
	assert.Contains(t, out.String(), "note:")
}

func TestDescribeComputeRejectsOutOfRange(t *testing.T) {
	s := model.DefaultSettings()
	s.ShutterIndex = 100
	assert.ErrorContains(t, describeCompute(&bytes.Buffer{}, 320, s), "settings out of range")
}

func TestComputeCommandFlags(t *testing.T) {
	out, err := runRoot(t, "compute", "--lux", "320", "--mode", "shutter", "--aperture-index", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "shutter:")

	_, err = runRoot(t, "compute", "--lux", "320", "--mode", "bogus")
	assert.ErrorContains(t, err, "unknown compute mode")
}

func TestResetThenShow(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	out, err := runRoot(t, "--config-file", cfgPath, "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "settings reset to defaults")

	info, err := os.Stat(filepath.Join(dir, "settings.bin"))
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	out, err = runRoot(t, "--config-file", cfgPath, "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"mode": "aperture"`)
	assert.Contains(t, out, `"adjust": "iso"`)
}

func TestShowMissingConfig(t *testing.T) {
	_, err := runRoot(t, "--config-file", filepath.Join(t.TempDir(), "nope.json"), "show")
	assert.ErrorContains(t, err, "failed to load config file")
}

func TestPrintReadings(t *testing.T) {
	readings := []db.LoggedReading{
		{
			TakenAt:  time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local),
			Lux:      320,
			EV:       sql.NullFloat64{Float64: 7, Valid: true},
			Output:   sql.NullFloat64{Float64: 1.4142, Valid: true},
			Mode:     "aperture",
			Metering: "incident",
			Valid:    true,
		},
		{
			TakenAt:  time.Date(2024, 6, 1, 12, 0, 1, 0, time.Local),
			Mode:     "aperture",
			Metering: "incident",
		},
	}

	var out bytes.Buffer
	require.NoError(t, printReadings(&out, readings))

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[1]), "7.00")
	assert.Contains(t, string(lines[1]), "1.4142")
	assert.Contains(t, string(lines[2]), "--")
}
