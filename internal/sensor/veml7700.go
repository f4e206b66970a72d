package sensor

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/i2c"
)

const (
	// VEML7700Addr is the fixed I2C address of the part.
	VEML7700Addr = 0x10

	regConf = 0x00
	regALS  = 0x04
	regID   = 0x07

	vemlID = 0x81

	shutdownBit = 1 << 0
)

// Bus is the transaction primitive the driver needs; *i2c.Dev provides it.
type Bus interface {
	Tx(w, r []byte) error
}

type alsRange struct {
	conf       uint16  // gain and integration time bits of ALS_CONF
	resolution float64 // lux per count
	integrate  time.Duration
}

// Ranges from least to most sensitive. Gain sits in bits 12:11, integration time in bits 9:6.
var alsRanges = []alsRange{
	{conf: 0b10<<11 | 0b0000<<6, resolution: 0.4608, integrate: 100 * time.Millisecond}, // gain 1/8, 100 ms
	{conf: 0b00<<11 | 0b0000<<6, resolution: 0.0576, integrate: 100 * time.Millisecond}, // gain 1, 100 ms
	{conf: 0b01<<11 | 0b0000<<6, resolution: 0.0288, integrate: 100 * time.Millisecond}, // gain 2, 100 ms
	{conf: 0b01<<11 | 0b0011<<6, resolution: 0.0036, integrate: 800 * time.Millisecond}, // gain 2, 800 ms
}

const (
	countsTooLow  = 100
	countsTooHigh = 10000
)

// VEML7700 drives a Vishay VEML7700 ambient light sensor. With auto ranging it
// steps sensitivity up in the dark and back down in bright light.
type VEML7700 struct {
	bus  Bus
	auto bool
	now  func() time.Time

	mutex       sync.Mutex
	rng         int
	settleUntil time.Time
	last        float64
}

func NewVEML7700(bus Bus, auto bool) *VEML7700 {
	return &VEML7700{bus: bus, auto: auto, now: time.Now}
}

// OpenVEML7700 addresses the sensor on an already opened bus.
func OpenVEML7700(bus i2c.Bus, auto bool) *VEML7700 {
	return NewVEML7700(&i2c.Dev{Bus: bus, Addr: VEML7700Addr}, auto)
}

// Begin checks the device id and powers the sensor up in its least sensitive range.
func (v *VEML7700) Begin() error {
	id, err := v.read(regID)
	if err != nil {
		return fmt.Errorf("veml7700: read id: %w", err)
	}
	if id&0xff != vemlID {
		return fmt.Errorf("veml7700: %w 0x%02x", ErrWrongDevice, id&0xff)
	}

	v.mutex.Lock()
	defer v.mutex.Unlock()
	return v.setRange(0)
}

func (v *VEML7700) ReadLux() (float64, error) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	if v.now().Before(v.settleUntil) {
		return v.last, nil
	}

	counts, err := v.read(regALS)
	if err != nil {
		return 0, fmt.Errorf("veml7700: read als: %w", err)
	}

	r := alsRanges[v.rng]
	lux := float64(counts) * r.resolution
	if v.rng == 0 {
		lux = correct(lux)
	}
	v.last = lux

	if v.auto {
		switch {
		case counts < countsTooLow && v.rng < len(alsRanges)-1:
			err = v.setRange(v.rng + 1)
		case counts > countsTooHigh && v.rng > 0:
			err = v.setRange(v.rng - 1)
		}
		if err != nil {
			return lux, err
		}
	}
	return lux, nil
}

// correct compensates the non-linearity of the low gain range above roughly 1000 lx.
func correct(lux float64) float64 {
	return 6.0135e-13*math.Pow(lux, 4) -
		9.3924e-9*math.Pow(lux, 3) +
		8.1488e-5*math.Pow(lux, 2) +
		1.0023*lux
}

func (v *VEML7700) setRange(i int) error {
	r := alsRanges[i]
	if err := v.write(regConf, r.conf&^shutdownBit); err != nil {
		return fmt.Errorf("veml7700: configure: %w", err)
	}
	if i != v.rng {
		log.Debug().Int("range", i).Float64("resolution", r.resolution).Msg("VEML7700 range changed")
	}
	v.rng = i
	// one full integration with the new settings before counts are trusted
	v.settleUntil = v.now().Add(2 * r.integrate)
	return nil
}

func (v *VEML7700) read(reg byte) (uint16, error) {
	buf := make([]byte, 2)
	if err := v.bus.Tx([]byte{reg}, buf); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

func (v *VEML7700) write(reg byte, value uint16) error {
	w := []byte{reg, 0, 0}
	binary.LittleEndian.PutUint16(w[1:], value)
	return v.bus.Tx(w, nil)
}
