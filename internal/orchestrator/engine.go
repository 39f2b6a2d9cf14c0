package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"greensim/internal/logging"
	"greensim/internal/photosynthesis"
	"greensim/internal/sim"
	"greensim/internal/types"
)

// ErrStopped is returned by Engine methods once its Run loop has exited.
var ErrStopped = errors.New("session stopped")

// Options configure a single Engine.
type Options struct {
	Interval time.Duration
	Inputs   photosynthesis.Inputs
	Emit     func(v any)
	OnTick   func()
	Logger   *slog.Logger
}

// Engine owns one session. All reads and writes of its inputs and state
// happen on the Run goroutine; the exported methods submit closures to it.
type Engine struct {
	id       string
	interval time.Duration
	emit     func(v any)
	onTick   func()
	logger   *slog.Logger

	cmds    chan func()
	stopped chan struct{}

	inputs photosynthesis.Inputs
	state  sim.State
}

func NewEngine(id string, opts Options) *Engine {
	if opts.Interval <= 0 {
		opts.Interval = 450 * time.Millisecond
	}
	if opts.Emit == nil {
		opts.Emit = func(v any) {}
	}
	if opts.OnTick == nil {
		opts.OnTick = func() {}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Engine{
		id:       id,
		interval: opts.Interval,
		emit:     opts.Emit,
		onTick:   opts.OnTick,
		logger:   opts.Logger.With("session", id),
		cmds:     make(chan func()),
		stopped:  make(chan struct{}),
		inputs:   opts.Inputs.Clamped(),
		state:    sim.New(),
	}
}

func (e *Engine) ID() string { return e.id }

// Done is closed when Run returns.
func (e *Engine) Done() <-chan struct{} { return e.stopped }

// Run drives the session until ctx is cancelled. The next tick is scheduled
// a fixed interval after the previous one finishes, and only while the
// session is running. A tick in progress is never interrupted.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.stopped)

	timer := time.NewTimer(e.interval)
	defer timer.Stop()
	armed := true
	if !e.state.Running {
		timer.Stop()
		armed = false
	}

	e.logger.Info("session started", "interval", e.interval, "inputs", e.inputs)
	e.publish(photosynthesis.Compute(e.inputs))

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("session stopped", "ticks", e.state.NextTick)
			return ctx.Err()

		case cmd := <-e.cmds:
			cmd()
			switch {
			case e.state.Running && !armed:
				timer.Reset(e.interval)
				armed = true
			case !e.state.Running && armed:
				timer.Stop()
				armed = false
			}
			e.publish(photosynthesis.Compute(e.inputs))

		case <-timer.C:
			armed = false
			e.tick()
			if e.state.Running {
				timer.Reset(e.interval)
				armed = true
			}
		}
	}
}

func (e *Engine) tick() {
	out := photosynthesis.Compute(e.inputs)
	e.state = sim.Advance(e.state, out, e.inputs)
	e.onTick()
	e.logger.Log(context.Background(), logging.LevelTrace, "tick",
		"tick", e.state.NextTick-1, "efficiency", out.Efficiency, "growth", e.state.Growth, "health", e.state.Health)
	e.publish(out)
}

func (e *Engine) publish(out photosynthesis.Outputs) {
	e.emit(types.WSEvent{Type: "snapshot", Payload: e.snapshot(out), Timestamp: nowISO()})
}

// History slices are replaced, never written in place, by sim transitions,
// so a snapshot can share them with the loop.
func (e *Engine) snapshot(out photosynthesis.Outputs) types.Snapshot {
	return types.Snapshot{
		SessionID:         e.id,
		Inputs:            e.inputs,
		Outputs:           out,
		StatusDescription: out.Status.Description(),
		Impact:            photosynthesis.AtmosphereImpact(out, e.inputs),
		State:             e.state,
		Stage:             e.state.Stage(),
		Vitality:          e.state.Vitality(),
	}
}

// do runs fn on the Run goroutine and waits for it.
func (e *Engine) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	cmd := func() {
		fn()
		close(done)
	}

	select {
	case e.cmds <- cmd:
	case <-e.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-e.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the current frame without advancing the session.
func (e *Engine) Snapshot(ctx context.Context) (types.Snapshot, error) {
	var snap types.Snapshot
	err := e.do(ctx, func() {
		snap = e.snapshot(photosynthesis.Compute(e.inputs))
	})
	return snap, err
}

// UpdateInputs overlays the fields set in req. Values are clamped.
func (e *Engine) UpdateInputs(ctx context.Context, req types.EnvUpdateRequest) (types.Snapshot, error) {
	var snap types.Snapshot
	err := e.do(ctx, func() {
		e.inputs = req.Apply(e.inputs).Clamped()
		e.logger.Debug("inputs updated", "inputs", e.inputs)
		snap = e.snapshot(photosynthesis.Compute(e.inputs))
	})
	return snap, err
}

// ApplyPreset replaces the inputs with a named preset.
func (e *Engine) ApplyPreset(ctx context.Context, name string) (types.Snapshot, error) {
	in, err := photosynthesis.LookupPreset(name)
	if err != nil {
		return types.Snapshot{}, err
	}
	var snap types.Snapshot
	err = e.do(ctx, func() {
		e.inputs = in
		e.logger.Debug("preset applied", "preset", name)
		snap = e.snapshot(photosynthesis.Compute(e.inputs))
	})
	return snap, err
}

// Reset clears growth, health and history; the running flag is kept.
func (e *Engine) Reset(ctx context.Context) (types.Snapshot, error) {
	var snap types.Snapshot
	err := e.do(ctx, func() {
		e.state = sim.Reset(e.state)
		e.logger.Debug("session reset")
		snap = e.snapshot(photosynthesis.Compute(e.inputs))
	})
	return snap, err
}

// Toggle pauses a running session or resumes a paused one.
func (e *Engine) Toggle(ctx context.Context) (types.Snapshot, error) {
	var snap types.Snapshot
	err := e.do(ctx, func() {
		e.state = sim.ToggleRunning(e.state)
		e.logger.Debug("running toggled", "running", e.state.Running)
		snap = e.snapshot(photosynthesis.Compute(e.inputs))
	})
	return snap, err
}

// Utility for timestamps in events
func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
