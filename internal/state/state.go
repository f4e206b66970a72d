package state

import (
	"sync"

	"github.com/thatsimonsguy/light-meter/internal/exposure"
	"github.com/thatsimonsguy/light-meter/internal/model"
)

// Snapshot is an immutable copy of the meter state taken under one lock.
type Snapshot struct {
	Settings model.Settings   `json:"settings"`
	Reading  exposure.Reading `json:"reading"`
}

// Meter owns the settings record and the latest derived reading. The sampler
// writes only the reading; the adjustment machine writes only the settings.
type Meter struct {
	mutex    sync.RWMutex
	settings model.Settings
	reading  exposure.Reading
}

func NewMeter(settings model.Settings) *Meter {
	return &Meter{
		settings: settings,
		reading:  exposure.Invalid(0, settings.Mode),
	}
}

func (m *Meter) Settings() model.Settings {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.settings
}

func (m *Meter) Reading() exposure.Reading {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.reading
}

func (m *Meter) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return Snapshot{Settings: m.settings, Reading: m.reading}
}

// Update applies fn to a working copy of the settings and publishes it in one
// step. fn reports whether anything changed; an unchanged copy is discarded.
func (m *Meter) Update(fn func(s *model.Settings) bool) (model.Settings, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	next := m.settings
	if !fn(&next) {
		return m.settings, false
	}
	m.settings = next
	return next, true
}

// Derive computes a reading from the current settings and stores it in one
// step, so a stored reading always matches the settings it was solved under.
func (m *Meter) Derive(fn func(s model.Settings) exposure.Reading) (exposure.Reading, model.Settings) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.reading = fn(m.settings)
	return m.reading, m.settings
}

func (m *Meter) SetReading(r exposure.Reading) {
	m.mutex.Lock()
	m.reading = r
	m.mutex.Unlock()
}
