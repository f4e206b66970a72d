package telemetry

import (
	"github.com/thatsimonsguy/light-meter/internal/datadog"
	"github.com/thatsimonsguy/light-meter/internal/exposure"
	"github.com/thatsimonsguy/light-meter/internal/model"
)

// Metrics reports readings as DogStatsD gauges. It never fails; the client
// logs its own send errors.
type Metrics struct{}

func (Metrics) Publish(r exposure.Reading, s model.Settings) error {
	tags := []string{"mode:" + r.Mode.String(), "metering:" + s.Metering.String()}

	if !r.Valid {
		datadog.Incr("reading.invalid", tags...)
		return nil
	}
	datadog.Gauge("reading.lux", r.Lux, tags...)
	datadog.Gauge("reading.ev", r.EV, tags...)
	if r.OutputValid {
		datadog.Gauge("reading.output", r.Output, tags...)
	}
	return nil
}
