package sensor

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBus struct {
	regs   map[byte]uint16
	writes [][]byte
	fail   error
}

func newFakeBus() *fakeBus {
	return &fakeBus{regs: map[byte]uint16{regID: 0xc481}}
}

func (b *fakeBus) Tx(w, r []byte) error {
	if b.fail != nil {
		return b.fail
	}
	if len(r) == 0 {
		b.writes = append(b.writes, append([]byte(nil), w...))
		b.regs[w[0]] = binary.LittleEndian.Uint16(w[1:])
		return nil
	}
	binary.LittleEndian.PutUint16(r, b.regs[w[0]])
	return nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestSensor(bus *fakeBus, auto bool) (*VEML7700, *fakeClock) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	v := NewVEML7700(bus, auto)
	v.now = clock.now
	return v, clock
}

func TestBeginConfiguresLowGain(t *testing.T) {
	bus := newFakeBus()
	v, _ := newTestSensor(bus, false)

	require.NoError(t, v.Begin())
	require.Len(t, bus.writes, 1)
	assert.Equal(t, []byte{regConf, 0x00, 0x10}, bus.writes[0], "gain 1/8, 100 ms, powered on")
}

func TestBeginRejectsOtherDevice(t *testing.T) {
	bus := newFakeBus()
	bus.regs[regID] = 0x0042
	v, _ := newTestSensor(bus, false)

	assert.ErrorIs(t, v.Begin(), ErrWrongDevice)
}

func TestBeginReportsBusFault(t *testing.T) {
	bus := newFakeBus()
	bus.fail = errors.New("nack")
	v, _ := newTestSensor(bus, false)

	assert.ErrorContains(t, v.Begin(), "nack")
}

func TestReadLuxScalesCounts(t *testing.T) {
	bus := newFakeBus()
	v, clock := newTestSensor(bus, false)
	require.NoError(t, v.Begin())
	clock.t = clock.t.Add(time.Second)

	bus.regs[regALS] = 1000
	lux, err := v.ReadLux()
	require.NoError(t, err)
	assert.InDelta(t, correct(460.8), lux, 1e-9)
	assert.InDelta(t, 478.27, lux, 0.05)
}

func TestAutoRangeStepsUpInTheDark(t *testing.T) {
	bus := newFakeBus()
	v, clock := newTestSensor(bus, true)
	require.NoError(t, v.Begin())
	clock.t = clock.t.Add(time.Second)

	bus.regs[regALS] = 20
	first, err := v.ReadLux()
	require.NoError(t, err)
	assert.Equal(t, 1, v.rng)

	bus.regs[regALS] = 160
	settling, err := v.ReadLux()
	require.NoError(t, err)
	assert.Equal(t, first, settling, "previous value is held while the new range integrates")

	clock.t = clock.t.Add(time.Second)
	lux, err := v.ReadLux()
	require.NoError(t, err)
	assert.InDelta(t, 160*0.0576, lux, 1e-9)
}

func TestCorrectionIsNearlyLinearInDimLight(t *testing.T) {
	assert.InDelta(t, 10.0, correct(10), 0.05)
	assert.Greater(t, correct(10000), 10000.0)
}
