package exposure

import (
	"errors"
	"math"
	"time"

	"github.com/thatsimonsguy/light-meter/internal/model"
)

var (
	// ErrNoLight marks a reading with no usable light (lux <= 0, NaN or Inf).
	ErrNoLight = errors.New("no usable light reading")
	// ErrModeUnsupported is returned for the ISO and ND solve modes, which have no formula yet.
	ErrModeUnsupported = errors.New("compute mode not implemented")
)

// Incident meters are calibrated with C = 250 on a lux scale, which puts EV 0 at 2.5 lux.
const incidentLuxAtEV0 = 2.5

type Reading struct {
	Lux         float64           `json:"lux"`
	ReflectedEV float64           `json:"reflected_ev"`
	IncidentEV  float64           `json:"incident_ev"`
	EV          float64           `json:"ev"`
	Output      float64           `json:"output"`
	Mode        model.ComputeMode `json:"mode"`
	Valid       bool              `json:"valid"`
	OutputValid bool              `json:"output_valid"`
	At          time.Time         `json:"at"`
}

// Invalid returns a reading carrying no usable EV or output.
func Invalid(lux float64, mode model.ComputeMode) Reading {
	nan := math.NaN()
	return Reading{
		Lux:         lux,
		ReflectedEV: nan,
		IncidentEV:  nan,
		EV:          nan,
		Output:      nan,
		Mode:        mode,
	}
}

func ReflectedEV(lux float64) float64 {
	return math.Log2(lux) + 3
}

func IncidentEV(lux float64) float64 {
	return math.Log2(lux / incidentLuxAtEV0)
}

// Compute converts a lux sample into EV and solves the compute mode's output:
// an f-number in aperture mode, seconds in shutter mode.
func Compute(lux float64, s model.Settings) (Reading, error) {
	if !(lux > 0) || math.IsInf(lux, 0) {
		return Invalid(lux, s.Mode), ErrNoLight
	}

	r := Reading{
		Lux:         lux,
		ReflectedEV: ReflectedEV(lux),
		IncidentEV:  IncidentEV(lux),
		Mode:        s.Mode,
		Valid:       true,
	}

	if s.Metering == model.MeteringReflected {
		r.EV = r.ReflectedEV
	} else {
		r.EV = r.IncidentEV
	}

	// each ISO stop doubles sensitivity; each ND stop costs one stop of light
	r.EV += float64(s.ISOIndex)
	r.EV -= float64(s.NDFilterIndex)

	switch s.Mode {
	case model.ModeAperture:
		r.Output = ApertureFor(r.EV, s.ShutterIndex)
	case model.ModeShutter:
		r.Output = ShutterFor(r.EV, s.ApertureIndex)
	default:
		r.Output = math.NaN()
		return r, ErrModeUnsupported
	}
	r.OutputValid = true
	return r, nil
}

// ApertureFor solves EV = log2(N²/t) for N with t = 2^-shutterIndex.
func ApertureFor(ev float64, shutterIndex int8) float64 {
	seconds := math.Exp2(-float64(shutterIndex))
	return math.Sqrt(seconds * math.Exp2(ev))
}

// ShutterFor solves EV = log2(N²/t) for t with N² = 2^apertureIndex.
func ShutterFor(ev float64, apertureIndex int8) float64 {
	apertureSquared := math.Exp2(float64(apertureIndex))
	return apertureSquared / math.Exp2(ev)
}

// EVForAperture is the inverse of ApertureFor.
func EVForAperture(fNumber float64, shutterIndex int8) float64 {
	seconds := math.Exp2(-float64(shutterIndex))
	return math.Log2(fNumber * fNumber / seconds)
}

// EVForShutter is the inverse of ShutterFor.
func EVForShutter(seconds float64, apertureIndex int8) float64 {
	return math.Log2(math.Exp2(float64(apertureIndex)) / seconds)
}
