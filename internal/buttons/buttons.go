package buttons

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/thatsimonsguy/light-meter/internal/adjust"
	"github.com/thatsimonsguy/light-meter/internal/input"
	"github.com/thatsimonsguy/light-meter/internal/pinctrl"
)

// DefaultPollInterval is fast enough for the debounce window.
const DefaultPollInterval = 5 * time.Millisecond

// Level is the read side of a GPIO input.
type Level interface {
	Read() gpio.Level
}

type button struct {
	id      input.Button
	pin     Level
	tactile *input.Tactile
}

// Poller samples the button pins and turns presses into machine events.
// Buttons pull the line low when pressed.
type Poller struct {
	variant  input.Variant
	buttons  []button
	interval time.Duration
}

func NewPoller(variant input.Variant, pins map[input.Button]Level, debounce, long, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	p := &Poller{variant: variant, interval: interval}
	for _, id := range variant.Buttons() {
		pin, ok := pins[id]
		if !ok {
			continue
		}
		p.buttons = append(p.buttons, button{id: id, pin: pin, tactile: input.NewTactile(debounce, long)})
	}
	return p
}

// Open claims the numbered GPIO lines through periph and configures them as pulled-up inputs.
func Open(pins map[input.Button]int) (map[input.Button]Level, error) {
	levels := make(map[input.Button]Level, len(pins))
	for id, number := range pins {
		pin := gpioreg.ByName(strconv.Itoa(number))
		if pin == nil {
			return nil, fmt.Errorf("gpio %d for %s button not found", number, id)
		}
		if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("configure gpio %d for %s button: %w", number, id, err)
		}
		levels[id] = pin
	}
	return levels, nil
}

// Poll samples every button once and returns the events of completed presses.
func (p *Poller) Poll(now time.Time) []adjust.Event {
	var events []adjust.Event
	for _, b := range p.buttons {
		kind, ok := b.tactile.Sample(b.pin.Read() == gpio.Low, now)
		if !ok {
			continue
		}
		press := input.Press{Button: b.id, Kind: kind}
		ev, mapped := p.variant.Map(press)
		if !mapped {
			log.Debug().Str("press", press.String()).Msg("Unbound button press")
			continue
		}
		log.Debug().Str("press", press.String()).Str("event", ev.String()).Msg("Button press")
		events = append(events, ev)
	}
	return events
}

// Run polls until ctx is done. Sends block, so a busy controller slows polling
// instead of dropping presses.
func (p *Poller) Run(ctx context.Context, out chan<- adjust.Event) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, ev := range p.Poll(now) {
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

var (
	readPins = pinctrl.ReadAllPins
	setPin   = pinctrl.SetPin
)

// AuditPins checks with pinctrl that every button line is a pulled-up input
// and fixes the ones that are not.
func AuditPins(pins map[input.Button]int) error {
	states, err := readPins()
	if err != nil {
		return err
	}

	ids := make([]input.Button, 0, len(pins))
	for id := range pins {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var errs []error
	for _, id := range ids {
		number := pins[id]
		state, ok := states[number]
		if ok && state.PulledUpInput() {
			continue
		}
		log.Warn().
			Str("button", id.String()).
			Int("gpio", number).
			Str("mode", state.Mode).
			Str("pull", state.Pull).
			Msg("Button pin is not a pulled-up input, reconfiguring")
		if err := setPin(number, "ip", "pu"); err != nil {
			errs = append(errs, fmt.Errorf("%s button: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
