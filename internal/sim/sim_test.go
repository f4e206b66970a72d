package sim

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/light-meter/internal/adjust"
	"github.com/thatsimonsguy/light-meter/internal/display"
	"github.com/thatsimonsguy/light-meter/internal/input"
)

type recordingSubmitter struct {
	mutex  sync.Mutex
	events []adjust.Event
	err    error
}

func (r *recordingSubmitter) Submit(_ context.Context, ev adjust.Event) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func newTestModel(variant input.Variant) (Model, *Sensor, *Screen, *recordingSubmitter) {
	sensor := NewSensor(100)
	screen := &Screen{}
	sub := &recordingSubmitter{}
	return NewModel(context.Background(), sensor, screen, sub, variant), sensor, screen, sub
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestKeyPress(t *testing.T) {
	tests := []struct {
		key  string
		want input.Press
		ok   bool
	}{
		{"m", input.Press{Button: input.ButtonMode, Kind: input.Short}, true},
		{"M", input.Press{Button: input.ButtonMode, Kind: input.Long}, true},
		{"left", input.Press{Button: input.ButtonLeft}, true},
		{"l", input.Press{Button: input.ButtonRight}, true},
		{"up", input.Press{Button: input.ButtonUp}, true},
		{"j", input.Press{Button: input.ButtonDown}, true},
		{" ", input.Press{Button: input.ButtonHold}, true},
		{"x", input.Press{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := KeyPress(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeySubmitsMappedEvent(t *testing.T) {
	m, _, _, sub := newTestModel(input.FiveButton)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRight})
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, SubmittedMsg{Event: adjust.EventIncrease}, msg)

	_, cmd = next.Update(runes("M"))
	require.NotNil(t, cmd)
	cmd()

	assert.Equal(t, []adjust.Event{adjust.EventIncrease, adjust.EventSelectType}, sub.events)
	assert.Equal(t, "right/short", next.(Model).last)
}

func TestThreeButtonIgnoresUpDown(t *testing.T) {
	m, _, _, sub := newTestModel(input.ThreeButton)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Nil(t, cmd)
	assert.Empty(t, sub.events)
}

func TestSubmitErrorShownInStatusBar(t *testing.T) {
	m, _, _, _ := newTestModel(input.ThreeButton)

	next, _ := m.Update(SubmittedMsg{Event: adjust.EventIncrease, Err: errors.New("queue full")})
	assert.Contains(t, next.View(), "queue full")
}

func TestLightKeys(t *testing.T) {
	m, sensor, _, sub := newTestModel(input.ThreeButton)

	m.Update(runes("+"))
	assert.InDelta(t, 200, sensor.Lux(), 1e-9)
	m.Update(runes("-"))
	m.Update(runes("-"))
	assert.InDelta(t, 50, sensor.Lux(), 1e-9)

	m.Update(runes("0"))
	lux, err := sensor.ReadLux()
	require.NoError(t, err)
	assert.Zero(t, lux)

	m.Update(runes("+"))
	assert.InDelta(t, 1, sensor.Lux(), 1e-9)
	assert.Empty(t, sub.events)
}

func TestQuit(t *testing.T) {
	m, _, _, _ := newTestModel(input.ThreeButton)

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestTickPullsLatestFrame(t *testing.T) {
	m, _, screen, _ := newTestModel(input.FiveButton)

	v := display.View{
		Page:     display.PageAperture,
		Headline: "f/2.8",
		EV:       "10.3",
		Metering: "Incident",
		Selected: 1,
	}
	v.Fields[0] = display.Field{Title: "ISO", Value: "100"}
	v.Fields[1] = display.Field{Title: "Shutter", Value: "1/125s"}
	v.Fields[2] = display.Field{Title: "ND Filter", Value: "0"}
	require.NoError(t, screen.Render(v))

	next, cmd := m.Update(TickMsg{})
	assert.NotNil(t, cmd)

	out := next.View()
	for _, want := range []string{"f/2.8", "10.3 EV", "Incident", "1/125s", "ND Filter", "100.0 lx"} {
		assert.Contains(t, out, want)
	}
	_, frames := screen.Latest()
	assert.Equal(t, 1, frames)
}

func TestErrorPage(t *testing.T) {
	m, _, screen, _ := newTestModel(input.ThreeButton)
	require.NoError(t, screen.Render(display.ErrorView(errors.New("sensor not found"))))

	next, _ := m.Update(TickMsg{})
	assert.Contains(t, next.View(), "sensor not found")
}

func TestSensorBeginError(t *testing.T) {
	s := NewSensor(10)
	assert.NoError(t, s.Begin())
	s.BeginErr = errors.New("no ack")
	assert.EqualError(t, s.Begin(), "no ack")

	s.SetLux(-5)
	assert.Zero(t, s.Lux())
}
