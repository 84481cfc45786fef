// Package effects runs post-commit side effects
// each effect is isolated: a failure, timeout or panic in one never
// reaches the caller or the other effects
package effects

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"bemanning/internal/platform/logger"
)

// Outcome labels reported to the Observer
const (
	OK      = "ok"
	Failed  = "failed"
	Panic   = "panic"
	Skipped = "skipped"
)

// ErrClosed is reported for effects scheduled after Close
var ErrClosed = errors.New("effects: supervisor closed")

// Effect is one named best effort operation
// Run logs its own failures, the supervisor only counts them
type Effect struct {
	Name string
	Run  func(ctx context.Context) error
}

// Observer counts effect outcomes
type Observer interface {
	Effect(name, outcome string)
}

// Options configures a Supervisor
type Options struct {
	// Async detaches effects from the request, Close waits for them
	Async bool
	// Timeout bounds each effect, zero means 15s
	Timeout time.Duration
	// Limit caps concurrent effects within one Run, zero means unbounded
	Limit    int
	Observer Observer
}

// Supervisor schedules effects inline or in the background
type Supervisor struct {
	opt      Options
	inflight sync.WaitGroup
	closed   atomic.Bool
}

// New returns a Supervisor
func New(opt Options) *Supervisor {
	if opt.Timeout <= 0 {
		opt.Timeout = 15 * time.Second
	}
	return &Supervisor{opt: opt}
}

// Async reports whether effects outlive the request
func (s *Supervisor) Async() bool { return s.opt.Async }

// Run executes effects concurrently
// inline mode returns once all have finished; async mode returns at once.
// Either way effects keep the context values but not its cancellation,
// only the per effect Timeout bounds them
func (s *Supervisor) Run(ctx context.Context, effects ...Effect) {
	if len(effects) == 0 {
		return
	}
	if s.closed.Load() {
		for _, e := range effects {
			s.report(ctx, e.Name, Skipped, ErrClosed)
		}
		return
	}
	detached := context.WithoutCancel(ctx)
	if !s.opt.Async {
		s.runAll(detached, effects)
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.runAll(detached, effects)
	}()
}

func (s *Supervisor) runAll(ctx context.Context, effects []Effect) {
	var g errgroup.Group
	if s.opt.Limit > 0 {
		g.SetLimit(s.opt.Limit)
	}
	for _, e := range effects {
		g.Go(func() error {
			s.runOne(ctx, e)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Supervisor) runOne(ctx context.Context, e Effect) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.C(ctx).Error().
				Str("effect", e.Name).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("effect panicked")
			s.observe(e.Name, Panic)
		}
	}()

	if e.Run == nil {
		s.report(ctx, e.Name, Skipped, nil)
		return
	}

	ectx, cancel := context.WithTimeout(ctx, s.opt.Timeout)
	defer cancel()

	if err := e.Run(ectx); err != nil {
		s.report(ctx, e.Name, Failed, fmt.Errorf("%s: %w", e.Name, err))
		return
	}
	logger.C(ctx).Debug().Str("effect", e.Name).Dur("took", time.Since(start)).Msg("effect done")
	s.observe(e.Name, OK)
}

func (s *Supervisor) report(ctx context.Context, name, outcome string, err error) {
	if err != nil {
		ev := logger.C(ctx).Warn()
		if outcome == Failed {
			// Run already logged it with its own context
			ev = logger.C(ctx).Debug()
		}
		ev.Err(err).Str("effect", name).Str("outcome", outcome).Msg("effect not completed")
	}
	s.observe(name, outcome)
}

func (s *Supervisor) observe(name, outcome string) {
	if s.opt.Observer != nil {
		s.opt.Observer.Effect(name, outcome)
	}
}

// Close stops accepting effects and waits for in-flight ones or ctx
func (s *Supervisor) Close(ctx context.Context) error {
	s.closed.Store(true)
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("effects: close: %w", ctx.Err())
	}
}
