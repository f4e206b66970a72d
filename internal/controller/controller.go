package controller

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/light-meter/internal/adjust"
	"github.com/thatsimonsguy/light-meter/internal/datadog"
)

// TickInterval is how often the loop offers the display a refresh.
const TickInterval = 10 * time.Millisecond

// EventBuffer bounds queued input; producers block when it is full.
const EventBuffer = 16

// Handler applies one event to completion.
type Handler interface {
	Handle(ev adjust.Event) error
}

// Refresher redraws the display when a frame is due.
type Refresher interface {
	Refresh(now time.Time) (bool, error)
}

// Controller is the single control activity: it owns event handling and
// display refresh, so the state machine never runs concurrently with itself.
type Controller struct {
	events    chan adjust.Event
	handler   Handler
	refresher Refresher
	tick      time.Duration

	renderFailing bool
}

func New(handler Handler, refresher Refresher) *Controller {
	return &Controller{
		events:    make(chan adjust.Event, EventBuffer),
		handler:   handler,
		refresher: refresher,
		tick:      TickInterval,
	}
}

// Events is where buttons, the simulator and the API deliver input.
func (c *Controller) Events() chan<- adjust.Event {
	return c.events
}

// Submit queues ev, waiting for room unless ctx ends first.
func (c *Controller) Submit(ctx context.Context, ev adjust.Event) error {
	select {
	case c.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes events and refreshes until ctx is done.
func (c *Controller) Run(ctx context.Context) {
	log.Info().Msg("Starting control loop")

	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	c.refresh(time.Now())
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Control loop stopped")
			return
		case ev := <-c.events:
			c.handle(ev)
			c.refresh(time.Now())
		case now := <-ticker.C:
			c.refresh(now)
		}
	}
}

func (c *Controller) handle(ev adjust.Event) {
	datadog.Incr("input.event", "event:"+ev.String())
	if err := c.handler.Handle(ev); err != nil {
		datadog.Incr("settings.commit_error")
		log.Error().Err(err).Str("event", ev.String()).Msg("Failed to persist settings")
	}
}

func (c *Controller) refresh(now time.Time) {
	_, err := c.refresher.Refresh(now)
	switch {
	case err != nil && !c.renderFailing:
		c.renderFailing = true
		log.Error().Err(err).Msg("Display refresh failed")
	case err == nil && c.renderFailing:
		c.renderFailing = false
		log.Info().Msg("Display refresh recovered")
	}
}
