// Package resendmail delivers notify messages through the Resend API
package resendmail

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
	"golang.org/x/time/rate"

	"bemanning/internal/platform/config"
	"bemanning/internal/platform/logger"
	"bemanning/internal/services/notify"
)

// ErrNoKey is returned by New without an API key
var ErrNoKey = errors.New("resendmail: api key not configured")

// Sender is the subset of resend.EmailsSvc used here
type Sender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Config holds provider credentials and pacing
type Config struct {
	APIKey    string
	From      string
	Operators []string
	// RatePerSec caps outbound requests, Resend allows 2/s by default
	RatePerSec float64
}

// ConfigFromEnv reads SERVICE_MAIL_*
func ConfigFromEnv(root config.Conf) Config {
	c := root.Prefix("SERVICE_MAIL_")
	return Config{
		APIKey:     c.MayString("RESEND_KEY", ""),
		From:       c.MayString("FROM", "Bemanning <noreply@bemanning.no>"),
		Operators:  c.MayCSV("OPERATORS", nil),
		RatePerSec: c.MayFloat64("RATE_PER_SEC", 2),
	}
}

// Mailer implements notify.Sink
type Mailer struct {
	send    Sender
	from    string
	limiter *rate.Limiter
}

var _ notify.Sink = (*Mailer)(nil)

// New builds a Mailer on the Resend HTTP client
func New(cfg Config) (*Mailer, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoKey
	}
	return NewWithSender(resend.NewClient(cfg.APIKey).Emails, cfg), nil
}

// NewWithSender wraps an existing sender
func NewWithSender(s Sender, cfg Config) *Mailer {
	lim := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerSec > 0 {
		lim = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}
	return &Mailer{send: s, from: cfg.From, limiter: lim}
}

// Deliver waits for a pacing token and sends m
func (m *Mailer) Deliver(ctx context.Context, msg notify.Message) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("resendmail: pacing: %w", err)
	}
	req := &resend.SendEmailRequest{
		From:    m.from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: msg.ReplyTo,
		Tags:    []resend.Tag{{Name: "recipient", Value: msg.Recipient}},
	}
	resp, err := m.send.SendWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("resendmail: send %q: %w", msg.Subject, err)
	}
	if resp != nil {
		logger.C(ctx).Debug().Str("email_id", resp.Id).Str("recipient", msg.Recipient).Msg("email accepted")
	}
	return nil
}
