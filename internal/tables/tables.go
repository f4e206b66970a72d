package tables

import (
	"fmt"

	"github.com/thatsimonsguy/light-meter/internal/model"
)

// Table maps a signed stop index to a display label via a fixed offset.
type Table struct {
	name   string
	labels []string
	offset int
	min    int8
	max    int8
}

func newTable(name string, min, max int8, offset int, labels ...string) Table {
	t := Table{name: name, labels: labels, offset: offset, min: min, max: max}
	if n := int(max) - int(min) + 1; n != len(labels) {
		panic(fmt.Sprintf("table %s: range [%d, %d] needs %d labels, got %d", name, min, max, n, len(labels)))
	}
	if int(min)+offset != 0 {
		panic(fmt.Sprintf("table %s: offset %d does not map min %d to slot 0", name, offset, min))
	}
	return t
}

var (
	ISO = newTable("iso", -2, 10, 2,
		"25", "50", "100", "200", "400", "800", "1600", "3200", "6400", "12800", "25600", "51200", "102400")

	Aperture = newTable("aperture", 0, 10, 0,
		"1.0", "1.4", "2", "2.8", "4", "5.6", "8", "11", "16", "22", "32")

	Shutter = newTable("shutter", -6, 15, 6,
		"60s", "30s", "15s", "8s", "4s", "2s", "1s", "1/2s", "1/4s", "1/8s", "1/15s",
		"1/30s", "1/60s", "1/125s", "1/250s", "1/500s", "1/1000s", "1/2000s", "1/4000s",
		"1/8000s", "1/16k", "1/32k")

	NDFilter = newTable("nd_filter", 0, 10, 0,
		"None", "ND2", "ND4", "ND8", "ND16", "ND32", "ND64", "ND128", "ND256", "ND512", "ND1024")

	Metering = newTable("metering", 0, 1, 0, "Incident", "Reflected")
)

func (t Table) Name() string { return t.name }
func (t Table) Min() int8     { return t.min }
func (t Table) Max() int8     { return t.max }
func (t Table) Len() int      { return len(t.labels) }

// Contains reports whether stop is inside the table's range.
func (t Table) Contains(stop int8) bool {
	return stop >= t.min && stop <= t.max
}

// Label panics on an out-of-range stop: the adjustment logic keeps every index
// in range, so a miss here is a bug that must not render garbage.
func (t Table) Label(stop int8) string {
	if !t.Contains(stop) {
		panic(fmt.Sprintf("table %s: stop %d outside [%d, %d]", t.name, stop, t.min, t.max))
	}
	return t.labels[int(stop)+t.offset]
}

// Counter returns a saturating counter over this table's range starting at stop.
func (t Table) Counter(stop int8) Counter {
	return NewCounter(stop, t.min, t.max)
}

// ForSetting returns the table backing a stop-indexed adjust setting.
func ForSetting(a model.AdjustSetting) (Table, bool) {
	switch a {
	case model.AdjustISO:
		return ISO, true
	case model.AdjustAperture:
		return Aperture, true
	case model.AdjustShutter:
		return Shutter, true
	case model.AdjustNDFilter:
		return NDFilter, true
	default:
		return Table{}, false
	}
}

// MeteringLabel returns the display name for a metering type.
func MeteringLabel(t model.MeteringType) string {
	return Metering.Label(int8(t))
}

// CheckSettings reports the first field of s that is out of range.
func CheckSettings(s model.Settings) error {
	stops := []struct {
		table Table
		value int8
	}{
		{ISO, s.ISOIndex},
		{Aperture, s.ApertureIndex},
		{Shutter, s.ShutterIndex},
		{NDFilter, s.NDFilterIndex},
	}
	for _, st := range stops {
		if !st.table.Contains(st.value) {
			return fmt.Errorf("%s index %d outside [%d, %d]", st.table.name, st.value, st.table.min, st.table.max)
		}
	}
	if s.Metering >= model.MeteringTypeCount {
		return fmt.Errorf("unknown metering type %d", s.Metering)
	}
	if s.Mode >= model.ComputeModeCount {
		return fmt.Errorf("unknown compute mode %d", s.Mode)
	}
	if s.Adjust >= model.AdjustSettingCount {
		return fmt.Errorf("unknown adjust setting %d", s.Adjust)
	}
	if s.Slot > 2 {
		return fmt.Errorf("selection slot %d outside [0, 2]", s.Slot)
	}
	return nil
}
