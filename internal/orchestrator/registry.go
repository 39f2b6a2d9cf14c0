package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"greensim/internal/logging"
	"greensim/internal/photosynthesis"
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrExists          = errors.New("session already exists")
	ErrTooManySessions = errors.New("too many sessions")
)

// RegistryOptions configure every engine the registry starts.
type RegistryOptions struct {
	Interval    time.Duration
	MaxSessions int
	Initial     photosynthesis.Inputs

	// Publish receives every event emitted by a session.
	Publish func(sessionID string, v any)
	Logger  *slog.Logger
}

type entry struct {
	engine *Engine
	cancel context.CancelFunc
}

// Registry owns the live sessions. Each session runs on its own goroutine
// and shares nothing with the others.
type Registry struct {
	opts RegistryOptions
	ctx  context.Context
	wg   sync.WaitGroup

	mu       sync.Mutex
	sessions map[string]entry
	seq      int

	ticks atomic.Int64
}

// NewRegistry returns a registry whose sessions live until ctx is done or
// Close is called.
func NewRegistry(ctx context.Context, opts RegistryOptions) *Registry {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 64
	}
	if opts.Publish == nil {
		opts.Publish = func(string, any) {}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Registry{
		opts:     opts,
		ctx:      ctx,
		sessions: make(map[string]entry),
	}
}

// Create starts a new session. An empty id is replaced by a generated one;
// nil inputs use the registry's initial inputs.
func (r *Registry) Create(id string, in *photosynthesis.Inputs) (*Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sessions) >= r.opts.MaxSessions {
		return nil, fmt.Errorf("%w (max %d)", ErrTooManySessions, r.opts.MaxSessions)
	}
	if id == "" {
		for {
			r.seq++
			id = fmt.Sprintf("session-%d", r.seq)
			if _, taken := r.sessions[id]; !taken {
				break
			}
		}
	} else if _, taken := r.sessions[id]; taken {
		return nil, fmt.Errorf("%w: %s", ErrExists, id)
	}

	inputs := r.opts.Initial
	if in != nil {
		inputs = *in
	}
	sessionID := id
	eng := NewEngine(sessionID, Options{
		Interval: r.opts.Interval,
		Inputs:   inputs,
		Emit:     func(v any) { r.opts.Publish(sessionID, v) },
		OnTick:   func() { r.ticks.Add(1) },
		Logger:   r.opts.Logger,
	})

	ctx, cancel := context.WithCancel(r.ctx)
	r.sessions[id] = entry{engine: eng, cancel: cancel}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.opts.Logger.Error("session run error", "session", sessionID, "error", err)
		}
	}()
	return eng, nil
}

func (r *Registry) Get(id string) (*Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.engine, nil
}

// Delete stops a session and forgets it.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.cancel()
	<-e.engine.Done()
	return nil
}

// IDs returns the live session ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// TicksTotal counts ticks across all sessions since start.
func (r *Registry) TicksTotal() int64 {
	return r.ticks.Load()
}

// Close stops every session and waits for their loops to exit.
func (r *Registry) Close() {
	r.mu.Lock()
	for id, e := range r.sessions {
		e.cancel()
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	r.wg.Wait()
}
