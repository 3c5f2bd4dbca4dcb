package dispatch

import (
	"errors"
	"fmt"
)

// ErrUnknownTarget is returned when an action writes to a target that was
// never registered with the engine.
var ErrUnknownTarget = errors.New("dispatch: unknown target")

// Batches holds the pending joint writes of one tick, per target.
// Writes to the same (target, joint) within a tick overwrite each other:
// the binding registered last wins.
//
// An action that fails leaves no trace: the writes it staged before
// returning its error are undone.
type Batches struct {
	pending map[string]map[string]float64
	undo    []undo
}

// undo restores one (target, joint) slot to its value before an action ran.
type undo struct {
	target, joint string
	prev          float64
	had           bool
}

func newBatches(targets []string) *Batches {
	b := &Batches{pending: make(map[string]map[string]float64, len(targets))}
	for _, t := range targets {
		b.pending[t] = make(map[string]float64)
	}
	return b
}

// Set stages value for joint on target.
func (b *Batches) Set(target, joint string, value float64) error {
	m, ok := b.pending[target]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownTarget, target)
	}
	prev, had := m[joint]
	b.undo = append(b.undo, undo{target: target, joint: joint, prev: prev, had: had})
	m[joint] = value
	return nil
}

// commit forgets the undo log of the action that just succeeded.
func (b *Batches) commit() {
	b.undo = b.undo[:0]
}

// rollback undoes the writes of the action that just failed, newest first.
func (b *Batches) rollback() {
	for i := len(b.undo) - 1; i >= 0; i-- {
		u := b.undo[i]
		if u.had {
			b.pending[u.target][u.joint] = u.prev
		} else {
			delete(b.pending[u.target], u.joint)
		}
	}
	b.undo = b.undo[:0]
}

// Get returns the staged value, if any.
func (b *Batches) Get(target, joint string) (float64, bool) {
	v, ok := b.pending[target][joint]
	return v, ok
}

// Len returns the number of joints staged for target.
func (b *Batches) Len(target string) int {
	return len(b.pending[target])
}

// take hands out target's batch and leaves a fresh empty one behind, so a
// writer that keeps the map never sees it change.
func (b *Batches) take(target string) map[string]float64 {
	m := b.pending[target]
	b.pending[target] = make(map[string]float64)
	return m
}
