package dispatch

// Cycle is an ordered list of joint names that the operator can rotate to
// choose which joints the sticks drive. It is owned by the dispatch
// goroutine; actions and labels read it there.
type Cycle struct {
	names []string
}

// NewCycle copies names into a new Cycle.
func NewCycle(names ...string) *Cycle {
	return &Cycle{names: append([]string(nil), names...)}
}

// Rotate moves the first name to the end.
func (c *Cycle) Rotate() {
	if len(c.names) < 2 {
		return
	}
	first := c.names[0]
	copy(c.names, c.names[1:])
	c.names[len(c.names)-1] = first
}

// At returns the name at position i, or "" if out of range.
func (c *Cycle) At(i int) string {
	if i < 0 || i >= len(c.names) {
		return ""
	}
	return c.names[i]
}

// Len returns the number of names.
func (c *Cycle) Len() int {
	return len(c.names)
}

// Names returns a copy of the current order.
func (c *Cycle) Names() []string {
	return append([]string(nil), c.names...)
}
