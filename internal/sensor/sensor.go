package sensor

import "errors"

// ErrWrongDevice is returned when the device on the bus does not identify as the expected part.
var ErrWrongDevice = errors.New("unexpected device id")

// LuxReader returns the current illuminance in lux.
type LuxReader interface {
	ReadLux() (float64, error)
}

// Starter brings a sensor up; it runs once at boot.
type Starter interface {
	Begin() error
}

// Sensor is a light sensor with an explicit start-up step.
type Sensor interface {
	LuxReader
	Starter
}
