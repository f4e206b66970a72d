package adjust

import (
	"fmt"

	"github.com/thatsimonsguy/light-meter/internal/model"
)

// SlotCount is the number of adjustable stop fields each compute mode exposes.
const SlotCount = 3

// Matrix lists, per compute mode, the fields reachable by the selection buttons.
type Matrix [model.ComputeModeCount][SlotCount]model.AdjustSetting

// DefaultMatrix excludes the solved parameter from each mode's selection.
var DefaultMatrix = Matrix{
	model.ModeAperture: {model.AdjustISO, model.AdjustShutter, model.AdjustNDFilter},
	model.ModeShutter:  {model.AdjustISO, model.AdjustAperture, model.AdjustNDFilter},
	model.ModeISO:      {model.AdjustAperture, model.AdjustShutter, model.AdjustNDFilter},
	model.ModeND:       {model.AdjustISO, model.AdjustAperture, model.AdjustShutter},
}

// Validate checks that every mode exposes exactly SlotCount distinct stop fields.
func (m Matrix) Validate() error {
	for mode := model.ComputeMode(0); mode < model.ComputeModeCount; mode++ {
		seen := make(map[model.AdjustSetting]bool, SlotCount)
		for slot, field := range m[mode] {
			if !field.Stop() {
				return fmt.Errorf("mode %s slot %d: %s is not an adjustable stop field", mode, slot, field)
			}
			if seen[field] {
				return fmt.Errorf("mode %s slot %d: %s listed twice", mode, slot, field)
			}
			seen[field] = true
		}
	}
	return nil
}

// Field returns the setting at (mode, slot).
func (m Matrix) Field(mode model.ComputeMode, slot uint8) model.AdjustSetting {
	return m[mode][slot%SlotCount]
}

// SlotOf returns the slot holding field in mode, or -1.
func (m Matrix) SlotOf(mode model.ComputeMode, field model.AdjustSetting) int {
	for slot, f := range m[mode] {
		if f == field {
			return slot
		}
	}
	return -1
}
