package display

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/thatsimonsguy/light-meter/internal/adjust"
	"github.com/thatsimonsguy/light-meter/internal/state"
)

// DefaultInterval is the minimum gap between unforced refreshes.
const DefaultInterval = 100 * time.Millisecond

type Snapshotter interface {
	Snapshot() state.Snapshot
}

// Refresher decides when the display is redrawn. Forced requests from any
// goroutine collapse into a single redraw on the next Refresh.
type Refresher struct {
	meter      Snapshotter
	matrix     adjust.Matrix
	renderer   Renderer
	interval   time.Duration
	onlyForced bool

	forced atomic.Bool

	mutex sync.Mutex
	last  time.Time
	drawn bool
	fault error
}

func NewRefresher(meter Snapshotter, matrix adjust.Matrix, renderer Renderer, interval time.Duration, onlyForced bool) *Refresher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Refresher{
		meter:      meter,
		matrix:     matrix,
		renderer:   renderer,
		interval:   interval,
		onlyForced: onlyForced,
	}
}

func (r *Refresher) ForceRedraw() {
	r.forced.Store(true)
}

// Fail pins the error page; it stays up until the process restarts.
func (r *Refresher) Fail(err error) {
	r.mutex.Lock()
	r.fault = err
	r.mutex.Unlock()
	r.ForceRedraw()
}

// Refresh draws a frame if one is due and reports whether it drew.
func (r *Refresher) Refresh(now time.Time) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	elapsed := !r.onlyForced && now.Sub(r.last) >= r.interval
	forced := r.forced.Swap(false)
	if !forced && !elapsed && r.drawn {
		return false, nil
	}

	var v View
	if r.fault != nil {
		v = ErrorView(r.fault)
	} else {
		v = Build(r.meter.Snapshot(), r.matrix)
	}

	r.last = now
	r.drawn = true
	return true, r.renderer.Render(v)
}
