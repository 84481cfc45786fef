// Package ratelimit admits or rejects work per key with a sliding window log
// store failures fail open
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"bemanning/internal/platform/logger"

	"github.com/google/uuid"
)

// Header names carried on admitted and rejected responses
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// Decision results reported to the metrics observer
const (
	ResultAdmitted = "admitted"
	ResultRejected = "rejected"
	ResultFailOpen = "fail_open"
)

// Decision is the outcome of one check
type Decision struct {
	Admitted  bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// FailOpen marks a decision made without the store
	FailOpen bool
}

// Headers renders the decision as X-RateLimit-* headers, reset in unix seconds
func (d Decision) Headers() http.Header {
	h := http.Header{}
	h.Set(HeaderLimit, strconv.Itoa(d.Limit))
	h.Set(HeaderRemaining, strconv.Itoa(d.Remaining))
	h.Set(HeaderReset, strconv.FormatInt(d.ResetAt.Unix(), 10))
	return h
}

// Window is what the store saw for one key after purging expired events
type Window struct {
	// Count is the number of events in the window before this call
	Count int
	// Admitted reports whether the store recorded this call
	Admitted bool
	// Oldest is the oldest counted event, zero when the window was empty
	Oldest time.Time
}

// Store runs the purge, count and conditional add for a key atomically
// member is unique per call so events in the same millisecond do not collide
type Store interface {
	SlidingWindow(ctx context.Context, key string, now time.Time, window time.Duration, limit int, member string) (Window, error)
}

// Observer receives one call per decision
type Observer interface {
	RateLimit(policy, result string)
}

// ErrUnknownPolicy is returned by Apply for names the registry does not hold
var ErrUnknownPolicy = errors.New("ratelimit: unknown policy")

// Limiter checks keys against a Store
type Limiter struct {
	store    Store
	policies *Registry
	timeout  time.Duration
	observer Observer
	now      func() time.Time
	member   func() string
}

// Option configures a Limiter
type Option func(*Limiter)

// WithTimeout bounds each store call, a timeout fails open
func WithTimeout(d time.Duration) Option { return func(l *Limiter) { l.timeout = d } }

// WithObserver reports decisions, usually to metrics
func WithObserver(o Observer) Option { return func(l *Limiter) { l.observer = o } }

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option { return func(l *Limiter) { l.now = now } }

// New returns a Limiter, a nil store fails open on every call
func New(store Store, policies *Registry, opts ...Option) *Limiter {
	l := &Limiter{
		store:    store,
		policies: policies,
		timeout:  500 * time.Millisecond,
		now:      time.Now,
		member:   uuid.NewString,
	}
	if l.policies == nil {
		l.policies = DefaultRegistry()
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Policy returns the named policy
func (l *Limiter) Policy(name string) (Policy, bool) { return l.policies.Get(name) }

// Apply checks client against the named policy
func (l *Limiter) Apply(ctx context.Context, policy, client string) (Decision, error) {
	p, ok := l.policies.Get(policy)
	if !ok {
		return Decision{}, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
	}
	d := l.Check(ctx, p.Key(client), p.Limit, p.Window)
	l.observe(policy, d)
	return d, nil
}

// Check admits or rejects one event for key under limit per window
func (l *Limiter) Check(ctx context.Context, key string, limit int, window time.Duration) Decision {
	now := l.now()
	if l.store == nil {
		return l.failOpen(ctx, key, limit, now, window, errors.New("no store configured"))
	}

	sctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	nowMs := time.UnixMilli(now.UnixMilli())
	member := strconv.FormatInt(nowMs.UnixMilli(), 10) + "-" + l.member()
	w, err := l.store.SlidingWindow(sctx, key, nowMs, window, limit, member)
	if err != nil {
		return l.failOpen(ctx, key, limit, now, window, err)
	}

	used := w.Count
	if w.Admitted {
		used++
	}
	reset := now.Add(window)
	if !w.Oldest.IsZero() {
		reset = w.Oldest.Add(window)
	}
	return Decision{
		Admitted:  w.Admitted,
		Limit:     limit,
		Remaining: max(0, limit-used),
		ResetAt:   reset,
	}
}

func (l *Limiter) failOpen(ctx context.Context, key string, limit int, now time.Time, window time.Duration, err error) Decision {
	logger.C(ctx).Warn().Err(err).Str("key", key).Msg("rate limit store failed, admitting")
	return Decision{
		Admitted:  true,
		Limit:     limit,
		Remaining: limit,
		ResetAt:   now.Add(window),
		FailOpen:  true,
	}
}

func (l *Limiter) observe(policy string, d Decision) {
	if l.observer == nil {
		return
	}
	switch {
	case d.FailOpen:
		l.observer.RateLimit(policy, ResultFailOpen)
	case d.Admitted:
		l.observer.RateLimit(policy, ResultAdmitted)
	default:
		l.observer.RateLimit(policy, ResultRejected)
	}
}
