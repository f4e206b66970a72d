package adjust

import (
	"fmt"

	"github.com/thatsimonsguy/light-meter/internal/model"
	"github.com/thatsimonsguy/light-meter/internal/tables"
)

type Event uint8

const (
	EventSelectNext Event = iota
	EventSelectPrevious
	EventIncrease
	EventDecrease
	EventModeCycle
	EventSelectType
	eventCount
)

var eventNames = [eventCount]string{
	EventSelectNext:     "select_next",
	EventSelectPrevious: "select_previous",
	EventIncrease:       "increase",
	EventDecrease:       "decrease",
	EventModeCycle:      "mode_cycle",
	EventSelectType:     "select_type",
}

func (e Event) String() string {
	if e < eventCount {
		return eventNames[e]
	}
	return fmt.Sprintf("event(%d)", uint8(e))
}

func ParseEvent(s string) (Event, error) {
	for e, name := range eventNames {
		if name == s {
			return Event(e), nil
		}
	}
	return 0, fmt.Errorf("unknown event %q", s)
}

// Outcome describes what an event did to the settings.
type Outcome struct {
	Changed bool // the record differs and must be published
	Commit  bool // the change is persistent and must be written to storage
}

// Apply runs one event against s and returns the next settings. It is pure:
// storage and redraw side effects are left to the caller.
func Apply(s model.Settings, ev Event, matrix Matrix) (model.Settings, Outcome) {
	switch ev {
	case EventSelectNext:
		return selectStep(s, matrix, 1)
	case EventSelectPrevious:
		return selectStep(s, matrix, SlotCount-1)
	case EventIncrease:
		return step(s, true)
	case EventDecrease:
		return step(s, false)
	case EventModeCycle:
		s.Mode = s.Mode.Next()
		s.Slot = 0
		s.Adjust = matrix.Field(s.Mode, 0)
		return s, Outcome{Changed: true, Commit: true}
	case EventSelectType:
		if s.Adjust == model.AdjustType {
			return s, Outcome{}
		}
		s.Adjust = model.AdjustType
		return s, Outcome{Changed: true}
	default:
		return s, Outcome{}
	}
}

func selectStep(s model.Settings, matrix Matrix, delta uint8) (model.Settings, Outcome) {
	// leaving the metering selection returns to the field that was left, without moving
	if s.Adjust != model.AdjustType {
		s.Slot = (s.Slot + delta) % SlotCount
	}
	s.Adjust = matrix.Field(s.Mode, s.Slot)
	return s, Outcome{Changed: true}
}

func step(s model.Settings, up bool) (model.Settings, Outcome) {
	var field *int8
	switch s.Adjust {
	case model.AdjustISO:
		field = &s.ISOIndex
	case model.AdjustAperture:
		field = &s.ApertureIndex
	case model.AdjustShutter:
		field = &s.ShutterIndex
	case model.AdjustNDFilter:
		field = &s.NDFilterIndex
	case model.AdjustType:
		s.Metering = s.Metering.Toggle()
		return s, Outcome{Changed: true, Commit: true}
	default:
		// AdjustMode is reserved
		return s, Outcome{}
	}

	table, _ := tables.ForSetting(s.Adjust)
	c := table.Counter(*field)
	var moved bool
	if up {
		moved = c.Inc()
	} else {
		moved = c.Dec()
	}
	if !moved {
		return s, Outcome{}
	}
	*field = c.Value()
	return s, Outcome{Changed: true, Commit: true}
}

// Normalize makes Adjust and Slot agree with the matrix for the current mode.
func Normalize(s model.Settings, matrix Matrix) model.Settings {
	if s.Slot >= SlotCount {
		s.Slot = 0
	}
	if s.Adjust == model.AdjustType {
		return s
	}
	if slot := matrix.SlotOf(s.Mode, s.Adjust); slot >= 0 {
		s.Slot = uint8(slot)
		return s
	}
	s.Adjust = matrix.Field(s.Mode, s.Slot)
	return s
}
