package sim

import (
	"math"
	"sync"

	"github.com/thatsimonsguy/light-meter/internal/display"
)

// Sensor is a light sensor whose illuminance is set from the keyboard.
type Sensor struct {
	mutex    sync.Mutex
	lux      float64
	BeginErr error
}

func NewSensor(lux float64) *Sensor {
	return &Sensor{lux: lux}
}

func (s *Sensor) Begin() error {
	return s.BeginErr
}

func (s *Sensor) ReadLux() (float64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.lux, nil
}

func (s *Sensor) Lux() float64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.lux
}

func (s *Sensor) SetLux(lux float64) {
	s.mutex.Lock()
	s.lux = math.Max(lux, 0)
	s.mutex.Unlock()
}

// Stops moves the light level by n stops; from darkness it restarts at 1 lx.
func (s *Sensor) Stops(n int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.lux <= 0 {
		s.lux = 1
		return
	}
	s.lux *= math.Exp2(float64(n))
}

// Screen is a display renderer that keeps the latest frame for the terminal UI.
type Screen struct {
	mutex  sync.Mutex
	view   display.View
	frames int
}

func (s *Screen) Render(v display.View) error {
	s.mutex.Lock()
	s.view = v
	s.frames++
	s.mutex.Unlock()
	return nil
}

// Latest returns the last rendered view and how many frames have been drawn.
func (s *Screen) Latest() (display.View, int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.view, s.frames
}
