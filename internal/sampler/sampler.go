package sampler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/light-meter/internal/adjust"
	"github.com/thatsimonsguy/light-meter/internal/datadog"
	"github.com/thatsimonsguy/light-meter/internal/exposure"
	"github.com/thatsimonsguy/light-meter/internal/model"
	"github.com/thatsimonsguy/light-meter/internal/sensor"
	"github.com/thatsimonsguy/light-meter/internal/state"
	"github.com/thatsimonsguy/light-meter/internal/telemetry"
)

// DefaultInterval is the sampling period.
const DefaultInterval = 250 * time.Millisecond

type sample struct {
	reading  exposure.Reading
	settings model.Settings
}

// Service periodically reads the sensor and publishes the derived reading.
// Sinks run on their own goroutine and only ever see the newest reading, so a
// slow broker or disk never holds up sampling.
type Service struct {
	meter    *state.Meter
	sensor   sensor.LuxReader
	redraw   adjust.Redrawer
	sink     telemetry.Sink
	interval time.Duration

	failures int // consecutive read faults, only touched by the sampling goroutine

	mutex   sync.Mutex
	lastLux float64
	lastOK  bool
	lastAt  time.Time

	pending chan sample
}

func NewService(meter *state.Meter, lux sensor.LuxReader, redraw adjust.Redrawer, sink telemetry.Sink, interval time.Duration) *Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Service{
		meter:    meter,
		sensor:   lux,
		redraw:   redraw,
		sink:     sink,
		interval: interval,
		pending:  make(chan sample, 1),
	}
}

// Start runs the sampling loop and the sink publisher until ctx is done.
func (s *Service) Start(ctx context.Context) {
	if s.sink != nil {
		go s.publishLoop(ctx)
	}

	go func() {
		log.Info().Dur("interval", s.interval).Msg("Starting light sampling service")

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("Light sampling service stopped")
				return
			case now := <-ticker.C:
				s.Cycle(now)
			}
		}
	}()
}

// Cycle performs one sample: read, compute under the current settings, queue
// for the sinks. A read fault makes this cycle's reading invalid; the next
// tick retries.
func (s *Service) Cycle(now time.Time) exposure.Reading {
	started := time.Now()

	lux, err := s.sensor.ReadLux()
	if err != nil {
		s.failures++
		datadog.Incr("sensor.read_error")
		// one line per run of failures, not per tick
		if s.failures == 1 {
			log.Warn().Err(err).Msg("Light sensor read failed")
		}
	} else if s.failures > 0 {
		log.Info().Int("failed_cycles", s.failures).Msg("Light sensor recovered")
		s.failures = 0
	}

	s.mutex.Lock()
	s.lastLux, s.lastOK, s.lastAt = lux, err == nil, now
	s.mutex.Unlock()

	reading, settings := s.derive(lux, err == nil, now)
	s.redraw.ForceRedraw()
	s.offer(sample{reading: reading, settings: settings})

	datadog.Timing("sample.cycle", time.Since(started))
	log.Debug().
		Float64("lux", reading.Lux).
		Float64("ev", reading.EV).
		Float64("output", reading.Output).
		Str("mode", reading.Mode.String()).
		Bool("valid", reading.Valid).
		Msg("Sampled light")
	return reading
}

// Recompute solves the last sampled lux again under the current settings. The
// adjustment machine calls it so the frame drawn after a change is already
// consistent with the new settings.
func (s *Service) Recompute() exposure.Reading {
	s.mutex.Lock()
	lux, ok, at := s.lastLux, s.lastOK, s.lastAt
	s.mutex.Unlock()

	reading, _ := s.derive(lux, ok, at)
	return reading
}

func (s *Service) derive(lux float64, ok bool, at time.Time) (exposure.Reading, model.Settings) {
	return s.meter.Derive(func(settings model.Settings) exposure.Reading {
		var r exposure.Reading
		if ok {
			var err error
			r, err = exposure.Compute(lux, settings)
			if err != nil && !errors.Is(err, exposure.ErrModeUnsupported) {
				log.Debug().Err(err).Float64("lux", lux).Msg("Reading unusable")
			}
		} else {
			r = exposure.Invalid(lux, settings.Mode)
		}
		r.At = at
		return r
	})
}

// offer queues smp for the sinks, replacing a reading they have not taken yet.
func (s *Service) offer(smp sample) {
	if s.sink == nil {
		return
	}
	for {
		select {
		case s.pending <- smp:
			return
		default:
		}
		select {
		case <-s.pending:
			datadog.Incr("telemetry.dropped")
		default:
		}
	}
}

func (s *Service) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case smp := <-s.pending:
			s.publish(smp)
		}
	}
}

// publishPending hands a queued reading to the sinks, if there is one.
func (s *Service) publishPending() bool {
	select {
	case smp := <-s.pending:
		s.publish(smp)
		return true
	default:
		return false
	}
}

func (s *Service) publish(smp sample) {
	if err := s.sink.Publish(smp.reading, smp.settings); err != nil {
		log.Warn().Err(err).Msg("Failed to publish reading")
	}
}
