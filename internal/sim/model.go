package sim

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/thatsimonsguy/light-meter/internal/adjust"
	"github.com/thatsimonsguy/light-meter/internal/display"
	"github.com/thatsimonsguy/light-meter/internal/input"
)

// Submitter queues an event for the control loop.
type Submitter interface {
	Submit(ctx context.Context, ev adjust.Event) error
}

// TickMsg pulls the latest frame from the screen.
type TickMsg time.Time

// SubmittedMsg reports the outcome of a queued button press.
type SubmittedMsg struct {
	Event adjust.Event
	Err   error
}

const frameInterval = 50 * time.Millisecond

// Model is the Bubble Tea model of the simulated meter. Its pointer fields are
// shared by every copy Bubble Tea makes.
type Model struct {
	ctx       context.Context
	sensor    *Sensor
	screen    *Screen
	submitter Submitter
	variant   input.Variant

	view    display.View
	last    string // last press, for the status bar
	lastErr error
}

func NewModel(ctx context.Context, sensor *Sensor, screen *Screen, submitter Submitter, variant input.Variant) Model {
	return Model{
		ctx:       ctx,
		sensor:    sensor,
		screen:    screen,
		submitter: submitter,
		variant:   variant,
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case TickMsg:
		m.view, _ = m.screen.Latest()
		return m, tickCmd()

	case SubmittedMsg:
		m.lastErr = msg.Err
		return m, nil
	}

	return m, nil
}

// KeyPress maps a terminal key to a button gesture. Capital M is a long press on Mode.
func KeyPress(key string) (input.Press, bool) {
	switch key {
	case "m":
		return input.Press{Button: input.ButtonMode, Kind: input.Short}, true
	case "M":
		return input.Press{Button: input.ButtonMode, Kind: input.Long}, true
	case "left", "h":
		return input.Press{Button: input.ButtonLeft}, true
	case "right", "l":
		return input.Press{Button: input.ButtonRight}, true
	case "up", "k":
		return input.Press{Button: input.ButtonUp}, true
	case "down", "j":
		return input.Press{Button: input.ButtonDown}, true
	case " ", "t":
		return input.Press{Button: input.ButtonHold}, true
	}
	return input.Press{}, false
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "+", "=":
		m.sensor.Stops(1)
		return m, nil
	case "-", "_":
		m.sensor.Stops(-1)
		return m, nil
	case "0":
		m.sensor.SetLux(0)
		return m, nil
	}

	press, ok := KeyPress(key)
	if !ok {
		return m, nil
	}
	m.last = press.String()

	ev, ok := m.variant.Map(press)
	if !ok {
		return m, nil
	}
	submitter, ctx := m.submitter, m.ctx
	return m, func() tea.Msg {
		return SubmittedMsg{Event: ev, Err: submitter.Submit(ctx, ev)}
	}
}

func (m Model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, StyleScreen.Render(renderScreen(m.view)), m.statusBar())
}

func marker(selected bool) string {
	if selected {
		return StyleSelected.Render("●")
	}
	return " "
}

func renderScreen(v display.View) string {
	if v.Page == display.PageError {
		return StyleError.Render(v.Headline) + "\n\n" + v.Error
	}

	left := []string{
		StyleHeadline.Render(v.Headline),
		"",
		marker(v.MeteringSelected) + " " + v.Metering,
		"",
		v.EV + " EV",
	}

	var right []string
	for slot, f := range v.Fields {
		right = append(right,
			"  "+StyleTitle.Render(f.Title),
			marker(slot == v.Selected)+" "+f.Value)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(20).Render(strings.Join(left, "\n")),
		strings.Join(right, "\n"))
}

func (m Model) statusBar() string {
	keys := "m/M mode  ←/→ adjust  space type  +/- light  0 dark  q quit"
	if m.variant == input.FiveButton {
		keys = "m/M mode  ↑/↓ select  ←/→ adjust  space type  +/- light  0 dark  q quit"
	}

	status := fmt.Sprintf("%.1f lx  %s buttons", m.sensor.Lux(), m.variant)
	if m.last != "" {
		status += "  last " + m.last
	}
	if m.lastErr != nil {
		status += "  " + StyleError.Render(m.lastErr.Error())
	}
	return StyleStatusBar.Render(status) + "\n" + StyleStatusBar.Render(StyleKey.Render(keys))
}
