package input

import (
	"fmt"
	"time"
)

type Button uint8

const (
	ButtonMode Button = iota
	ButtonLeft
	ButtonRight
	ButtonUp
	ButtonDown
	ButtonHold
	buttonCount
)

var buttonNames = [buttonCount]string{"mode", "left", "right", "up", "down", "hold"}

func (b Button) String() string {
	if b < buttonCount {
		return buttonNames[b]
	}
	return fmt.Sprintf("button(%d)", uint8(b))
}

type Kind uint8

const (
	Short Kind = iota
	Long
)

func (k Kind) String() string {
	if k == Long {
		return "long"
	}
	return "short"
}

// Press is a completed gesture on one button.
type Press struct {
	Button Button
	Kind   Kind
}

func (p Press) String() string {
	return p.Button.String() + "/" + p.Kind.String()
}

const (
	DefaultDebounce  = 30 * time.Millisecond
	DefaultLongPress = 600 * time.Millisecond
)

// Tactile turns sampled button levels into presses. A long press fires once
// while the button is still held and suppresses the short press on release.
type Tactile struct {
	debounce time.Duration
	long     time.Duration

	down     bool
	since    time.Time
	longSent bool
}

func NewTactile(debounce, long time.Duration) *Tactile {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if long <= debounce {
		long = DefaultLongPress
	}
	return &Tactile{debounce: debounce, long: long}
}

// Sample feeds the current level and reports a completed press, if any.
func (t *Tactile) Sample(pressed bool, now time.Time) (Kind, bool) {
	switch {
	case pressed && !t.down:
		t.down = true
		t.since = now
		t.longSent = false
	case pressed && t.down:
		if !t.longSent && now.Sub(t.since) >= t.long {
			t.longSent = true
			return Long, true
		}
	case !pressed && t.down:
		t.down = false
		if !t.longSent && now.Sub(t.since) >= t.debounce {
			return Short, true
		}
	}
	return Short, false
}
