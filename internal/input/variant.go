package input

import (
	"fmt"

	"github.com/thatsimonsguy/light-meter/internal/adjust"
)

// Variant is a hardware revision's button layout.
type Variant uint8

const (
	// ThreeButton is Mode, Left and Right plus the Hold button.
	ThreeButton Variant = iota
	// FiveButton adds Up and Down for moving the selection both ways.
	FiveButton
)

func (v Variant) String() string {
	if v == FiveButton {
		return "five"
	}
	return "three"
}

func ParseVariant(s string) (Variant, error) {
	switch s {
	case "three", "":
		return ThreeButton, nil
	case "five":
		return FiveButton, nil
	}
	return ThreeButton, fmt.Errorf("unknown button variant %q", s)
}

// Buttons lists the buttons the variant wires up.
func (v Variant) Buttons() []Button {
	if v == FiveButton {
		return []Button{ButtonMode, ButtonLeft, ButtonRight, ButtonUp, ButtonDown, ButtonHold}
	}
	return []Button{ButtonMode, ButtonLeft, ButtonRight, ButtonHold}
}

// Map translates a press into a state machine event. Unbound presses return false.
func (v Variant) Map(p Press) (adjust.Event, bool) {
	switch p.Button {
	case ButtonLeft:
		return adjust.EventDecrease, true
	case ButtonRight:
		return adjust.EventIncrease, true
	case ButtonHold:
		return adjust.EventSelectType, true
	}

	if v == FiveButton {
		switch p.Button {
		case ButtonUp:
			return adjust.EventSelectPrevious, true
		case ButtonDown:
			return adjust.EventSelectNext, true
		case ButtonMode:
			if p.Kind == Long {
				return adjust.EventSelectType, true
			}
			return adjust.EventModeCycle, true
		}
		return 0, false
	}

	if p.Button == ButtonMode {
		if p.Kind == Long {
			return adjust.EventModeCycle, true
		}
		return adjust.EventSelectNext, true
	}
	return 0, false
}
