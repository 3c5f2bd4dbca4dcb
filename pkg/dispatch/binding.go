package dispatch

import "context"

// Predicate decides whether a binding fires this tick. It typically reads
// an input device captured by the closure.
type Predicate func() bool

// Action runs when its predicate holds. It may stage joint writes in b
// and/or perform an immediate side effect such as closing a gripper.
type Action func(b *Batches) error

// Label describes a binding for the operator. It is resolved only when
// the binding fires, so it can reflect state changed by earlier ticks.
type Label func() string

// Text returns a constant label.
func Text(s string) Label {
	return func() string { return s }
}

// Binding ties a predicate to an action and a label.
// Fixed arguments (which joint, which delta) are captured when the
// binding is built, never looked up later.
type Binding struct {
	When  Predicate
	Do    Action
	Label Label
}

// BatchWriter applies several joint writes in one call.
type BatchWriter interface {
	ApplyBatch(ctx context.Context, batch map[string]float64) error
}

// StopSource reports an out-of-band request to end the session, such as
// a key press on the operator console.
type StopSource interface {
	StopRequested() bool
}

// Poller is implemented by input devices that latch edge events once per
// tick.
type Poller interface {
	Poll()
}

// LabelSink receives the labels of fired bindings.
type LabelSink interface {
	Emit(label string)
}

// LabelSinkFunc adapts a function to LabelSink.
type LabelSinkFunc func(label string)

// Emit calls f.
func (f LabelSinkFunc) Emit(label string) { f(label) }

// MultiSink fans labels out to several sinks.
type MultiSink []LabelSink

// Emit forwards label to every sink.
func (m MultiSink) Emit(label string) {
	for _, s := range m {
		s.Emit(label)
	}
}
