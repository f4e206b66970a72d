package adjust

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/light-meter/internal/model"
	"github.com/thatsimonsguy/light-meter/internal/state"
)

// Store persists the full settings record.
type Store interface {
	Save(s model.Settings) error
}

// Redrawer requests a display refresh on the next control loop pass.
type Redrawer interface {
	ForceRedraw()
}

// Machine is the only writer of the meter settings. Handle is not safe for
// concurrent use; the control loop feeds it one event at a time.
type Machine struct {
	meter  *state.Meter
	matrix Matrix
	store  Store
	redraw Redrawer
}

func NewMachine(meter *state.Meter, store Store, redraw Redrawer, matrix Matrix) (*Machine, error) {
	if err := matrix.Validate(); err != nil {
		return nil, fmt.Errorf("invalid selection matrix: %w", err)
	}

	meter.Update(func(s *model.Settings) bool {
		normalized := Normalize(*s, matrix)
		if normalized == *s {
			return false
		}
		*s = normalized
		return true
	})

	return &Machine{meter: meter, matrix: matrix, store: store, redraw: redraw}, nil
}

// Handle applies ev to completion, including the storage write for committed
// changes. A failed write is returned but the in-memory settings keep the change.
func (m *Machine) Handle(ev Event) error {
	var outcome Outcome
	next, _ := m.meter.Update(func(s *model.Settings) bool {
		*s, outcome = Apply(*s, ev, m.matrix)
		return outcome.Changed
	})

	m.redraw.ForceRedraw()

	log.Debug().
		Str("event", ev.String()).
		Str("adjust", next.Adjust.String()).
		Str("mode", next.Mode.String()).
		Bool("changed", outcome.Changed).
		Bool("commit", outcome.Commit).
		Msg("Handled input event")

	if !outcome.Commit {
		return nil
	}
	if err := m.store.Save(next); err != nil {
		return fmt.Errorf("commit settings after %s: %w", ev, err)
	}
	return nil
}
