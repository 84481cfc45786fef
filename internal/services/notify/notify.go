// Package notify delivers templated email and reports the outcome
// a failed delivery never surfaces as an error to the caller
package notify

import (
	"context"
	"fmt"
	"time"

	"bemanning/internal/platform/logger"
)

// Recipient classes
const (
	Applicant = "applicant"
	Operator  = "operator"
)

// Outcome labels
const (
	Sent   = "sent"
	Failed = "failed"
)

// Message is one rendered email
type Message struct {
	Recipient string
	To        []string
	ReplyTo   string
	Subject   string
	HTML      string
	Text      string
}

// Sink hands a message to a mail provider
type Sink interface {
	Deliver(ctx context.Context, m Message) error
}

// Observer counts delivery attempts
type Observer interface {
	Notification(recipient, outcome string)
}

// Outcome reports a single delivery attempt
type Outcome struct {
	Recipient string
	Success   bool
	Err       error
}

// Dispatcher sends messages through a Sink
type Dispatcher struct {
	sink      Sink
	operators []string
	timeout   time.Duration
	observer  Observer
}

// Config is the immutable recipient configuration
type Config struct {
	// Operators receive every new application and contact lead
	Operators []string
	// Timeout bounds one delivery, zero means 10s
	Timeout time.Duration
}

// New returns a Dispatcher, a nil sink fails every send
func New(sink Sink, cfg Config, obs Observer) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Dispatcher{
		sink:      sink,
		operators: append([]string(nil), cfg.Operators...),
		timeout:   cfg.Timeout,
		observer:  obs,
	}
}

// Operators returns a copy of the operator recipient list
func (d *Dispatcher) Operators() []string { return append([]string(nil), d.operators...) }

// Send delivers m and reports the outcome
// errors and panics from the sink are counted and returned in Outcome only
func (d *Dispatcher) Send(ctx context.Context, m Message) (out Outcome) {
	out = Outcome{Recipient: m.Recipient}
	defer func() {
		if r := recover(); r != nil {
			out.Success, out.Err = false, fmt.Errorf("notify: sink panic: %v", r)
		}
		d.report(ctx, m, out)
	}()

	switch {
	case d.sink == nil:
		out.Err = fmt.Errorf("notify: no mail sink configured")
		return out
	case len(m.To) == 0:
		out.Err = fmt.Errorf("notify: message has no recipients")
		return out
	}

	sctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.sink.Deliver(sctx, m); err != nil {
		out.Err = err
		return out
	}
	out.Success = true
	return out
}

func (d *Dispatcher) report(ctx context.Context, m Message, out Outcome) {
	label := Sent
	if !out.Success {
		label = Failed
		// callers own the error log, they know what the message was for
		logger.C(ctx).Debug().Err(out.Err).
			Str("recipient", m.Recipient).
			Strs("to", m.To).
			Str("subject", m.Subject).
			Msg("notification not delivered")
	}
	if d.observer != nil {
		d.observer.Notification(m.Recipient, label)
	}
}
