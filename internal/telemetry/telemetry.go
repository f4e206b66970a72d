package telemetry

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/thatsimonsguy/light-meter/internal/exposure"
	"github.com/thatsimonsguy/light-meter/internal/model"
)

// Sink receives every completed sampling cycle.
type Sink interface {
	Publish(r exposure.Reading, s model.Settings) error
}

// Payload is the JSON form of a reading. Unusable values are null.
type Payload struct {
	At          time.Time `json:"at"`
	Lux         *float64  `json:"lux"`
	ReflectedEV *float64  `json:"reflected_ev"`
	IncidentEV  *float64  `json:"incident_ev"`
	EV          *float64  `json:"ev"`
	Output      *float64  `json:"output"`
	Mode        string    `json:"mode"`
	Metering    string    `json:"metering"`
	ISOIndex    int8      `json:"iso_index"`
	NDIndex     int8      `json:"nd_filter_index"`
	Valid       bool      `json:"valid"`
}

func finite(v float64, ok bool) *float64 {
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func NewPayload(r exposure.Reading, s model.Settings) Payload {
	return Payload{
		At:          r.At,
		Lux:         finite(r.Lux, true),
		ReflectedEV: finite(r.ReflectedEV, r.Valid),
		IncidentEV:  finite(r.IncidentEV, r.Valid),
		EV:          finite(r.EV, r.Valid),
		Output:      finite(r.Output, r.OutputValid),
		Mode:        r.Mode.String(),
		Metering:    s.Metering.String(),
		ISOIndex:    s.ISOIndex,
		NDIndex:     s.NDFilterIndex,
		Valid:       r.Valid,
	}
}

// Throttled forwards at most one reading per interval, judged by reading time.
type Throttled struct {
	sink  Sink
	every time.Duration

	mutex sync.Mutex
	last  time.Time
}

func Throttle(sink Sink, every time.Duration) *Throttled {
	return &Throttled{sink: sink, every: every}
}

func (t *Throttled) Publish(r exposure.Reading, s model.Settings) error {
	t.mutex.Lock()
	if !t.last.IsZero() && r.At.Sub(t.last) < t.every {
		t.mutex.Unlock()
		return nil
	}
	t.last = r.At
	t.mutex.Unlock()

	return t.sink.Publish(r, s)
}

// Fanout publishes to every sink and joins the failures.
type Fanout []Sink

func (f Fanout) Publish(r exposure.Reading, s model.Settings) error {
	var errs []error
	for _, sink := range f {
		if err := sink.Publish(r, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
