package tables

// Counter is a bounded stop index. Its value never leaves [min, max].
type Counter struct {
	value int8
	min   int8
	max   int8
}

// NewCounter clamps v into [min, max].
func NewCounter(v, min, max int8) Counter {
	c := Counter{min: min, max: max}
	c.Set(v)
	return c
}

func (c Counter) Value() int8 { return c.value }

func (c *Counter) Set(v int8) {
	switch {
	case v < c.min:
		c.value = c.min
	case v > c.max:
		c.value = c.max
	default:
		c.value = v
	}
}

// Inc steps up one stop and reports whether the value changed.
func (c *Counter) Inc() bool {
	if c.value >= c.max {
		return false
	}
	c.value++
	return true
}

// Dec steps down one stop and reports whether the value changed.
func (c *Counter) Dec() bool {
	if c.value <= c.min {
		return false
	}
	c.value--
	return true
}
