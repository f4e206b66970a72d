package display

import (
	"github.com/thatsimonsguy/light-meter/internal/adjust"
	"github.com/thatsimonsguy/light-meter/internal/model"
	"github.com/thatsimonsguy/light-meter/internal/state"
	"github.com/thatsimonsguy/light-meter/internal/tables"
)

type Page uint8

const (
	PageAperture Page = iota
	PageShutter
	PageISO
	PageND
	PageError
)

func (p Page) String() string {
	switch p {
	case PageAperture:
		return "aperture"
	case PageShutter:
		return "shutter"
	case PageISO:
		return "iso"
	case PageND:
		return "nd"
	default:
		return "error"
	}
}

// Field is one of the three summary lines next to the headline.
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// View is everything a renderer needs to draw one frame.
type View struct {
	Page             Page                    `json:"page"`
	Headline         string                  `json:"headline"`
	EV               string                  `json:"ev"`
	Metering         string                  `json:"metering"`
	Fields           [adjust.SlotCount]Field `json:"fields"`
	Selected         int                     `json:"selected"` // slot of the highlighted field, or -1
	MeteringSelected bool                    `json:"metering_selected"`
	Error            string                  `json:"error,omitempty"`
}

// Renderer draws a view on some output device.
type Renderer interface {
	Render(v View) error
}

func pageFor(mode model.ComputeMode) Page {
	switch mode {
	case model.ModeAperture:
		return PageAperture
	case model.ModeShutter:
		return PageShutter
	case model.ModeISO:
		return PageISO
	default:
		return PageND
	}
}

// Build selects the page for the snapshot's compute mode and fills it in.
func Build(snap state.Snapshot, matrix adjust.Matrix) View {
	s := snap.Settings
	r := snap.Reading

	v := View{
		Page:             pageFor(s.Mode),
		EV:               FormatEV(r.EV, r.Valid),
		Metering:         tables.MeteringLabel(s.Metering),
		Selected:         matrix.SlotOf(s.Mode, s.Adjust),
		MeteringSelected: s.Adjust == model.AdjustType,
	}

	// a reading solved under another mode has an output in the wrong unit
	switch {
	case !r.Valid || r.Mode != s.Mode:
		v.Headline = noReading
	case s.Mode == model.ModeAperture:
		v.Headline = FormatAperture(r.Output, r.OutputValid)
	case s.Mode == model.ModeShutter:
		v.Headline = FormatShutter(r.Output, r.OutputValid)
	default:
		v.Headline = notSolved
	}

	for slot, field := range matrix[s.Mode] {
		v.Fields[slot] = Field{Title: fieldTitle(field), Value: fieldValue(field, s)}
	}
	return v
}

// ErrorView is the page shown when the meter cannot run at all.
func ErrorView(err error) View {
	v := View{Page: PageError, Headline: "Error", Selected: -1}
	if err != nil {
		v.Error = err.Error()
	}
	return v
}

func fieldTitle(a model.AdjustSetting) string {
	switch a {
	case model.AdjustISO:
		return "ISO"
	case model.AdjustAperture:
		return "Aperture"
	case model.AdjustShutter:
		return "Shutter"
	case model.AdjustNDFilter:
		return "ND Filter"
	default:
		return a.String()
	}
}

func fieldValue(a model.AdjustSetting, s model.Settings) string {
	switch a {
	case model.AdjustISO:
		return tables.ISO.Label(s.ISOIndex)
	case model.AdjustAperture:
		return "f/" + tables.Aperture.Label(s.ApertureIndex)
	case model.AdjustShutter:
		return tables.Shutter.Label(s.ShutterIndex)
	case model.AdjustNDFilter:
		return tables.NDFilter.Label(s.NDFilterIndex)
	default:
		return ""
	}
}
