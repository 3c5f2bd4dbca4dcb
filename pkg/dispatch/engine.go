// Package dispatch runs a table of input bindings at a fixed rate and
// coalesces the resulting joint writes into one batch per target per tick.
//
// A tick is strictly sequential:
//  1. poll the stop source; stop requested ends the run with UserStopped
//  2. latch input edges (Poller)
//  3. evaluate bindings in registration order, running matching actions
//  4. flush every non-empty target batch exactly once, then clear it
//  5. wait for the next tick
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/teslashibe/go-rsdk/internal/log"
	"github.com/teslashibe/go-rsdk/pkg/metrics"
	"github.com/teslashibe/go-rsdk/pkg/ticker"
)

// Termination is why Run returned.
type Termination int

const (
	// UserStopped means the stop source fired.
	UserStopped Termination = iota + 1
	// Shutdown means the context ended.
	Shutdown
)

func (t Termination) String() string {
	switch t {
	case UserStopped:
		return "user_stopped"
	case Shutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Config configures an Engine.
type Config struct {
	// RateHz is the tick rate. Required unless Ticker is set.
	RateHz float64
	Ticker ticker.Waiter

	// Stop is polled at the start of every tick. Optional.
	Stop StopSource
	// Input, when set, is polled once per tick before bindings run.
	Input Poller
	// Sink receives fired labels. Optional.
	Sink LabelSink

	Logger *slog.Logger
}

type target struct {
	name   string
	writer BatchWriter
}

// Engine evaluates bindings and flushes batches. It is not safe for
// concurrent use; configure it fully before calling Run.
type Engine struct {
	cfg      Config
	logger   *slog.Logger
	targets  []target
	bindings []Binding
	batches  *Batches

	ticks      uint64
	flushes    uint64
	errWarn    rate.Sometimes
	flushCount map[string]uint64
}

// New creates an engine.
func New(cfg Config) *Engine {
	return &Engine{
		cfg:        cfg,
		logger:     log.Or(cfg.Logger, "dispatch"),
		batches:    newBatches(nil),
		errWarn:    rate.Sometimes{First: 3, Interval: 5 * time.Second},
		flushCount: make(map[string]uint64),
	}
}

// AddTarget registers a batch writer under name. Targets are flushed in
// registration order.
func (e *Engine) AddTarget(name string, w BatchWriter) error {
	if w == nil {
		return fmt.Errorf("dispatch: nil writer for target %q", name)
	}
	for _, t := range e.targets {
		if t.name == name {
			return fmt.Errorf("dispatch: target %q already registered", name)
		}
	}
	e.targets = append(e.targets, target{name: name, writer: w})
	e.batches.pending[name] = make(map[string]float64)
	return nil
}

// Bind appends bindings to the table.
func (e *Engine) Bind(bindings ...Binding) error {
	for i, b := range bindings {
		if b.When == nil || b.Do == nil {
			return fmt.Errorf("dispatch: binding %d needs both When and Do", len(e.bindings)+i)
		}
	}
	e.bindings = append(e.bindings, bindings...)
	return nil
}

// Bindings returns the number of registered bindings.
func (e *Engine) Bindings() int {
	return len(e.bindings)
}

// Stats returns tick and flush counters.
func (e *Engine) Stats() Stats {
	per := make(map[string]uint64, len(e.flushCount))
	for k, v := range e.flushCount {
		per[k] = v
	}
	return Stats{Ticks: e.ticks, Flushes: e.flushes, FlushesByTarget: per}
}

// Stats contains engine counters.
type Stats struct {
	Ticks           uint64            `json:"ticks"`
	Flushes         uint64            `json:"flushes"`
	FlushesByTarget map[string]uint64 `json:"flushes_by_target"`
}

// Run ticks until the stop source fires or ctx ends. Neither is an error.
func (e *Engine) Run(ctx context.Context) (Termination, error) {
	if len(e.bindings) == 0 {
		return 0, errors.New("dispatch: no bindings registered")
	}
	if e.cfg.Ticker == nil && e.cfg.RateHz <= 0 {
		return 0, fmt.Errorf("dispatch: rate must be positive, got %v Hz", e.cfg.RateHz)
	}

	tk := e.cfg.Ticker
	if tk == nil {
		t := ticker.New(e.cfg.RateHz)
		defer t.Stop()
		tk = t
	}

	e.logger.Info("dispatch started",
		"bindings", len(e.bindings),
		"targets", len(e.targets),
		"rate_hz", e.cfg.RateHz,
	)

	for {
		if ctx.Err() != nil {
			return e.finish(Shutdown), nil
		}
		if e.cfg.Stop != nil && e.cfg.Stop.StopRequested() {
			return e.finish(UserStopped), nil
		}

		e.tick(ctx)

		if err := tk.Wait(ctx); err != nil {
			return e.finish(Shutdown), nil
		}
	}
}

func (e *Engine) finish(t Termination) Termination {
	e.logger.Info("dispatch stopped", "reason", t.String(), "ticks", e.ticks, "flushes", e.flushes)
	return t
}

// tick runs one evaluate-and-flush cycle.
func (e *Engine) tick(ctx context.Context) {
	e.ticks++
	metrics.DispatchTicks.Inc()

	if e.cfg.Input != nil {
		e.cfg.Input.Poll()
	}

	for i, b := range e.bindings {
		if !b.When() {
			continue
		}
		if err := b.Do(e.batches); err != nil {
			e.batches.rollback()
			metrics.DispatchErrors.WithLabelValues("action").Inc()
			e.errWarn.Do(func() {
				e.logger.Warn("binding action failed", "binding", i, "error", err)
			})
			continue
		}
		e.batches.commit()
		if b.Label != nil && e.cfg.Sink != nil {
			e.cfg.Sink.Emit(b.Label())
			metrics.DispatchLabels.Inc()
		}
	}

	e.flush(ctx)
}

// flush applies every non-empty batch once. Empty batches cause no write.
func (e *Engine) flush(ctx context.Context) {
	for _, t := range e.targets {
		if e.batches.Len(t.name) == 0 {
			continue
		}
		batch := e.batches.take(t.name)

		e.flushes++
		e.flushCount[t.name]++
		metrics.DispatchFlushes.WithLabelValues(t.name).Inc()

		if err := t.writer.ApplyBatch(ctx, batch); err != nil {
			metrics.DispatchErrors.WithLabelValues("flush").Inc()
			e.errWarn.Do(func() {
				e.logger.Warn("batch flush failed", "target", t.name, "joints", len(batch), "error", err)
			})
		}
	}
}
