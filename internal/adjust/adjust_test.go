package adjust

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/light-meter/internal/model"
	"github.com/thatsimonsguy/light-meter/internal/state"
	"github.com/thatsimonsguy/light-meter/internal/tables"
)

type fakeStore struct {
	saved []model.Settings
	err   error
}

func (f *fakeStore) Save(s model.Settings) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, s)
	return nil
}

type fakeRedrawer struct{ count int }

func (f *fakeRedrawer) ForceRedraw() { f.count++ }

func newTestMachine(t *testing.T, s model.Settings) (*Machine, *state.Meter, *fakeStore, *fakeRedrawer) {
	t.Helper()
	meter := state.NewMeter(s)
	store := &fakeStore{}
	redraw := &fakeRedrawer{}
	m, err := NewMachine(meter, store, redraw, DefaultMatrix)
	require.NoError(t, err)
	return m, meter, store, redraw
}

func TestDefaultMatrixIsValid(t *testing.T) {
	require.NoError(t, DefaultMatrix.Validate())

	for mode := model.ComputeMode(0); mode < model.ComputeModeCount; mode++ {
		for slot := uint8(0); slot < SlotCount; slot++ {
			field := DefaultMatrix.Field(mode, slot)
			assert.True(t, field.Stop(), "mode %s slot %d", mode, slot)
			_, ok := tables.ForSetting(field)
			assert.True(t, ok)
		}
	}
}

func TestMatrixValidateRejectsMistakes(t *testing.T) {
	bad := DefaultMatrix
	bad[model.ModeShutter][2] = model.AdjustType
	assert.ErrorContains(t, bad.Validate(), "not an adjustable stop field")

	bad = DefaultMatrix
	bad[model.ModeND][1] = model.AdjustISO
	assert.ErrorContains(t, bad.Validate(), "listed twice")

	_, err := NewMachine(state.NewMeter(model.DefaultSettings()), &fakeStore{}, &fakeRedrawer{}, bad)
	assert.Error(t, err)
}

func TestSelectionWrapsBothDirections(t *testing.T) {
	s := model.DefaultSettings()

	var slots []uint8
	for i := 0; i < 3; i++ {
		s, _ = Apply(s, EventSelectPrevious, DefaultMatrix)
		slots = append(slots, s.Slot)
	}
	assert.Equal(t, []uint8{2, 1, 0}, slots)

	slots = nil
	for i := 0; i < 3; i++ {
		s, _ = Apply(s, EventSelectNext, DefaultMatrix)
		slots = append(slots, s.Slot)
	}
	assert.Equal(t, []uint8{1, 2, 0}, slots)
}

func TestSelectionFollowsMatrix(t *testing.T) {
	s := model.DefaultSettings()
	s, out := Apply(s, EventSelectNext, DefaultMatrix)
	assert.Equal(t, model.AdjustShutter, s.Adjust)
	assert.True(t, out.Changed)
	assert.False(t, out.Commit)

	s, _ = Apply(s, EventSelectNext, DefaultMatrix)
	assert.Equal(t, model.AdjustNDFilter, s.Adjust)
}

func TestIncreaseSaturatesAtMax(t *testing.T) {
	s := model.DefaultSettings()
	s.ISOIndex = 9

	s, out := Apply(s, EventIncrease, DefaultMatrix)
	assert.True(t, out.Commit)
	for i := 0; i < 10; i++ {
		s, out = Apply(s, EventIncrease, DefaultMatrix)
		assert.False(t, out.Changed)
		assert.LessOrEqual(t, s.ISOIndex, int8(10))
	}
	assert.Equal(t, int8(10), s.ISOIndex)
}

func TestDecreaseSaturatesAtMin(t *testing.T) {
	s := model.DefaultSettings()
	s.Adjust = model.AdjustShutter
	s.Slot = 1

	for i := 0; i < 40; i++ {
		s, _ = Apply(s, EventDecrease, DefaultMatrix)
		assert.GreaterOrEqual(t, s.ShutterIndex, int8(-6))
	}
	assert.Equal(t, int8(-6), s.ShutterIndex)
}

func TestEveryStopFieldStaysInRange(t *testing.T) {
	for _, field := range []model.AdjustSetting{model.AdjustISO, model.AdjustAperture, model.AdjustShutter, model.AdjustNDFilter} {
		t.Run(field.String(), func(t *testing.T) {
			s := model.DefaultSettings()
			s.Adjust = field
			for i := 0; i < 30; i++ {
				s, _ = Apply(s, EventIncrease, DefaultMatrix)
				require.NoError(t, tables.CheckSettings(s))
			}
			for i := 0; i < 60; i++ {
				s, _ = Apply(s, EventDecrease, DefaultMatrix)
				require.NoError(t, tables.CheckSettings(s))
			}
		})
	}
}

func TestTypeToggleIsAnInvolution(t *testing.T) {
	s := model.DefaultSettings()
	s, _ = Apply(s, EventSelectType, DefaultMatrix)
	require.Equal(t, model.AdjustType, s.Adjust)

	for _, ev := range []Event{EventIncrease, EventDecrease} {
		start := s.Metering
		s, out := Apply(s, ev, DefaultMatrix)
		assert.True(t, out.Commit)
		assert.NotEqual(t, start, s.Metering)
		s, _ = Apply(s, ev, DefaultMatrix)
		assert.Equal(t, start, s.Metering)
	}
}

func TestLeavingTypeSelectionReturnsToSlot(t *testing.T) {
	s := model.DefaultSettings()
	s, _ = Apply(s, EventSelectNext, DefaultMatrix) // slot 1: shutter
	s, _ = Apply(s, EventSelectType, DefaultMatrix)
	assert.Equal(t, uint8(1), s.Slot)

	s, _ = Apply(s, EventSelectPrevious, DefaultMatrix)
	assert.Equal(t, model.AdjustShutter, s.Adjust)
	assert.Equal(t, uint8(1), s.Slot)
}

func TestModeAdjustIsReserved(t *testing.T) {
	s := model.DefaultSettings()
	s.Adjust = model.AdjustMode

	next, out := Apply(s, EventIncrease, DefaultMatrix)
	assert.Equal(t, s, next)
	assert.Equal(t, Outcome{}, out)
}

func TestModeCycle(t *testing.T) {
	s := model.DefaultSettings()
	s.Slot = 2
	s.Adjust = model.AdjustNDFilter

	expected := []model.ComputeMode{model.ModeShutter, model.ModeISO, model.ModeND, model.ModeAperture}
	for _, mode := range expected {
		var out Outcome
		s, out = Apply(s, EventModeCycle, DefaultMatrix)
		assert.True(t, out.Commit)
		assert.Equal(t, mode, s.Mode)
		assert.Equal(t, uint8(0), s.Slot)
		assert.Equal(t, DefaultMatrix[mode][0], s.Adjust)
	}
}

func TestNormalize(t *testing.T) {
	s := model.DefaultSettings()
	s.Mode = model.ModeShutter
	s.Adjust = model.AdjustShutter // solved parameter, not selectable in shutter mode
	s.Slot = 1

	n := Normalize(s, DefaultMatrix)
	assert.Equal(t, model.AdjustAperture, n.Adjust)

	s.Adjust = model.AdjustNDFilter
	s.Slot = 0
	n = Normalize(s, DefaultMatrix)
	assert.Equal(t, uint8(2), n.Slot)

	s.Adjust = model.AdjustType
	assert.Equal(t, s, Normalize(s, DefaultMatrix))
}

func TestParseEvent(t *testing.T) {
	for e := EventSelectNext; e < eventCount; e++ {
		parsed, err := ParseEvent(e.String())
		require.NoError(t, err)
		assert.Equal(t, e, parsed)
	}
	_, err := ParseEvent("explode")
	assert.Error(t, err)
}

func TestMachineCommitsOnlyChanges(t *testing.T) {
	m, meter, store, redraw := newTestMachine(t, model.DefaultSettings())

	require.NoError(t, m.Handle(EventSelectNext))
	assert.Empty(t, store.saved, "selection is not persisted")
	assert.Equal(t, 1, redraw.count)

	require.NoError(t, m.Handle(EventIncrease))
	require.Len(t, store.saved, 1)
	assert.Equal(t, int8(7), store.saved[0].ShutterIndex)
	assert.Equal(t, meter.Settings(), store.saved[0])
	assert.Equal(t, 2, redraw.count)
}

func TestMachineSkipsWriteWhenSaturated(t *testing.T) {
	s := model.DefaultSettings()
	s.ISOIndex = 10
	m, _, store, redraw := newTestMachine(t, s)

	require.NoError(t, m.Handle(EventIncrease))
	assert.Empty(t, store.saved)
	assert.Equal(t, 1, redraw.count)
}

func TestMachineKeepsStateWhenCommitFails(t *testing.T) {
	m, meter, store, _ := newTestMachine(t, model.DefaultSettings())
	store.err = errors.New("flash worn out")

	err := m.Handle(EventIncrease)
	assert.ErrorContains(t, err, "flash worn out")
	assert.Equal(t, int8(1), meter.Settings().ISOIndex)
}

func TestNewMachineNormalizesLoadedSettings(t *testing.T) {
	s := model.DefaultSettings()
	s.Mode = model.ModeShutter
	s.Adjust = model.AdjustShutter

	_, meter, store, _ := newTestMachine(t, s)
	assert.Equal(t, model.AdjustISO, meter.Settings().Adjust)
	assert.Empty(t, store.saved)
}
