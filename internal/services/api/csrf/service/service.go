// Package service issues and verifies stateless anti forgery tokens
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"bemanning/internal/core/ratelimit"
	perr "bemanning/internal/platform/errors"
	"bemanning/internal/platform/logger"
	"bemanning/internal/platform/token"
	"bemanning/internal/services/api/csrf/domain"
)

// Result carries the issuance rate decision alongside the token
type Result struct {
	Decision ratelimit.Decision
	Checked  bool
	Output   domain.Token
}

// Service is the anti forgery port
type Service interface {
	Issue(ctx context.Context, clientIP string) (Result, error)
	Verify(ctx context.Context, tok string) error
}

// Options configure the service
type Options struct {
	Secret string
	// TTL defaults to two hours
	TTL     time.Duration
	Limiter *ratelimit.Limiter
}

// Svc implements Service
type Svc struct {
	signer  token.Signer
	ttl     time.Duration
	limiter *ratelimit.Limiter
	now     func() time.Time
}

// New constructs the service
func New(opt Options) *Svc {
	ttl := opt.TTL
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Svc{signer: token.New(opt.Secret), ttl: ttl, limiter: opt.Limiter, now: time.Now}
}

// Issue mints "<expiryUnix>.<nonce>.<hmac>" after the csrf-issue rate check
func (s *Svc) Issue(ctx context.Context, clientIP string) (res Result, err error) {
	if !s.signer.Enabled() {
		logger.C(ctx).Error().Msg("csrf secret not configured")
		return res, perr.New(perr.ErrorCodeUnavailable, domain.MsgDisabled)
	}

	if s.limiter != nil {
		res.Decision, err = s.limiter.Apply(ctx, ratelimit.PolicyCSRFIssue, clientIP)
		if err != nil {
			return res, perr.Wrap(err, perr.ErrorCodeConfiguration, domain.MsgDisabled)
		}
		res.Checked = true
		if !res.Decision.Admitted {
			return res, perr.New(perr.ErrorCodeTooManyRequests, domain.MsgThrottled)
		}
	}

	exp := s.now().Add(s.ttl).Truncate(time.Second)
	nonce := strings.ReplaceAll(uuid.NewString(), "-", "")
	tok, err := s.signer.Sign(token.Expiry(exp), nonce)
	if err != nil {
		return res, perr.Wrap(err, perr.ErrorCodeUnknown, domain.MsgDisabled)
	}
	res.Output = domain.Token{Token: tok, Header: domain.HeaderToken, ExpiresAt: exp.UTC()}
	return res, nil
}

// Verify rejects missing, malformed, badly signed and expired tokens as Forbidden
func (s *Svc) Verify(ctx context.Context, tok string) error {
	fields, err := s.signer.Verify(tok, 2)
	if err == nil {
		_, err = token.CheckExpiry(fields[0], s.now())
	}
	if err != nil {
		logger.C(ctx).Debug().Err(err).Msg("csrf token rejected")
		return perr.Wrap(err, perr.ErrorCodeForbidden, domain.MsgForbidden)
	}
	return nil
}
