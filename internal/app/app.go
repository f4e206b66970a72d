package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/light-meter/internal/adjust"
	"github.com/thatsimonsguy/light-meter/internal/controller"
	"github.com/thatsimonsguy/light-meter/internal/display"
	"github.com/thatsimonsguy/light-meter/internal/sampler"
	"github.com/thatsimonsguy/light-meter/internal/sensor"
	"github.com/thatsimonsguy/light-meter/internal/state"
	"github.com/thatsimonsguy/light-meter/internal/store"
	"github.com/thatsimonsguy/light-meter/internal/telemetry"
)

// ErrSensorInit means the light sensor did not come up; the meter cannot run.
var ErrSensorInit = errors.New("light sensor failed to start")

// Hardware is everything the meter talks to. Sink may be nil.
type Hardware struct {
	Sensor   sensor.Sensor
	Renderer display.Renderer
	Region   store.Region
	Sink     telemetry.Sink
}

type Options struct {
	SampleInterval  time.Duration
	RefreshInterval time.Duration
	OnlyForced      bool
	Matrix          adjust.Matrix
}

func DefaultOptions() Options {
	return Options{
		SampleInterval:  sampler.DefaultInterval,
		RefreshInterval: display.DefaultInterval,
		OnlyForced:      true,
		Matrix:          adjust.DefaultMatrix,
	}
}

// App is a booted meter ready to run.
type App struct {
	Meter      *state.Meter
	Machine    *adjust.Machine
	Refresher  *display.Refresher
	Sampler    *sampler.Service
	Controller *controller.Controller
}

// New loads the settings, brings the sensor up and wires the activities. When
// the sensor fails the error page is drawn and an ErrSensorInit is returned.
func New(hw Hardware, opts Options) (*App, error) {
	settingsStore := store.New(hw.Region)
	settings, err := settingsStore.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	meter := state.NewMeter(settings)
	refresher := display.NewRefresher(meter, opts.Matrix, hw.Renderer, opts.RefreshInterval, opts.OnlyForced)

	if err := hw.Sensor.Begin(); err != nil {
		refresher.Fail(err)
		if _, rerr := refresher.Refresh(time.Now()); rerr != nil {
			log.Error().Err(rerr).Msg("Failed to draw error page")
		}
		return nil, fmt.Errorf("%w: %w", ErrSensorInit, err)
	}

	sampling := sampler.NewService(meter, hw.Sensor, refresher, hw.Sink, opts.SampleInterval)
	machine, err := adjust.NewMachine(meter, settingsStore, resolveThenRedraw{sampling, refresher}, opts.Matrix)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("mode", settings.Mode.String()).
		Str("metering", settings.Metering.String()).
		Str("adjust", settings.Adjust.String()).
		Msg("Light meter ready")

	return &App{
		Meter:      meter,
		Machine:    machine,
		Refresher:  refresher,
		Sampler:    sampling,
		Controller: controller.New(machine, refresher),
	}, nil
}

// resolveThenRedraw solves the last sample again under the settings the machine
// just published, so the forced frame never pairs new settings with an old result.
type resolveThenRedraw struct {
	sampler   *sampler.Service
	refresher *display.Refresher
}

func (r resolveThenRedraw) ForceRedraw() {
	r.sampler.Recompute()
	r.refresher.ForceRedraw()
}

// Run starts sampling and blocks in the control loop until ctx is done.
func (a *App) Run(ctx context.Context) {
	a.Sampler.Start(ctx)
	a.Controller.Run(ctx)
}
