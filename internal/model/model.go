package model

import "fmt"

type MeteringType uint8

const (
	MeteringIncident MeteringType = iota
	MeteringReflected
	MeteringTypeCount
)

func (t MeteringType) String() string {
	switch t {
	case MeteringIncident:
		return "incident"
	case MeteringReflected:
		return "reflected"
	default:
		return fmt.Sprintf("metering(%d)", uint8(t))
	}
}

// Toggle flips between incident and reflected metering.
func (t MeteringType) Toggle() MeteringType {
	if t == MeteringIncident {
		return MeteringReflected
	}
	return MeteringIncident
}

// ComputeMode is the exposure parameter the meter solves for.
type ComputeMode uint8

const (
	ModeAperture ComputeMode = iota
	ModeShutter
	ModeISO
	ModeND
	ComputeModeCount
)

func (m ComputeMode) String() string {
	switch m {
	case ModeAperture:
		return "aperture"
	case ModeShutter:
		return "shutter"
	case ModeISO:
		return "iso"
	case ModeND:
		return "nd"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// Next returns the following mode, wrapping from ND back to Aperture.
func (m ComputeMode) Next() ComputeMode {
	return (m + 1) % ComputeModeCount
}

func ParseComputeMode(s string) (ComputeMode, error) {
	for m := ModeAperture; m < ComputeModeCount; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return ModeAperture, fmt.Errorf("unknown compute mode %q", s)
}

func ParseMeteringType(s string) (MeteringType, error) {
	for t := MeteringIncident; t < MeteringTypeCount; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return MeteringIncident, fmt.Errorf("unknown metering type %q", s)
}

// AdjustSetting names the field the next increase/decrease will modify.
type AdjustSetting uint8

const (
	AdjustISO AdjustSetting = iota
	AdjustAperture
	AdjustShutter
	AdjustNDFilter
	AdjustType
	AdjustMode
	AdjustSettingCount
)

func (a AdjustSetting) String() string {
	switch a {
	case AdjustISO:
		return "iso"
	case AdjustAperture:
		return "aperture"
	case AdjustShutter:
		return "shutter"
	case AdjustNDFilter:
		return "nd_filter"
	case AdjustType:
		return "type"
	case AdjustMode:
		return "mode"
	default:
		return fmt.Sprintf("adjust(%d)", uint8(a))
	}
}

// Stop reports whether the setting is one of the stop-indexed numeric fields.
func (a AdjustSetting) Stop() bool {
	return a <= AdjustNDFilter
}

type Settings struct {
	ISOIndex      int8          `json:"iso_index"`
	ApertureIndex int8          `json:"aperture_index"`
	ShutterIndex  int8          `json:"shutter_index"`
	NDFilterIndex int8          `json:"nd_filter_index"`
	Metering      MeteringType  `json:"metering"`
	Mode          ComputeMode   `json:"mode"`
	Adjust        AdjustSetting `json:"adjust"`
	Slot          uint8         `json:"slot"` // selection slot into the mode's adjustable fields
}

// DefaultSettings matches a freshly initialised meter: ISO 100, f/1.0, 1/60s, no filter.
func DefaultSettings() Settings {
	return Settings{
		ISOIndex:      0,
		ApertureIndex: 0,
		ShutterIndex:  6,
		NDFilterIndex: 0,
		Metering:      MeteringIncident,
		Mode:          ModeAperture,
		Adjust:        AdjustISO,
		Slot:          0,
	}
}
