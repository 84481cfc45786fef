// Package service records contact form leads and notifies operators
package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"bemanning/internal/adapters/audit/chsink"
	"bemanning/internal/core/ratelimit"
	"bemanning/internal/modkit/repokit"
	perr "bemanning/internal/platform/errors"
	"bemanning/internal/platform/logger"
	"bemanning/internal/services/api/contact/domain"
	"bemanning/internal/services/api/contact/repo"
	"bemanning/internal/services/effects"
	"bemanning/internal/services/notify"
)

// Outcome labels for metrics and audit
const (
	OutcomeCreated       = "created"
	OutcomeNotConfigured = "not_configured"
	OutcomeRateLimited   = "rate_limited"
	OutcomeInvalid       = "invalid"
	OutcomeFailed        = "failed"
)

// Effect names
const (
	EffectNotifyOperator = "notify_operator"
	EffectAudit          = "audit"
)

// PayloadFunc decodes and validates the request body
type PayloadFunc func() (domain.SubmitInput, error)

// Result carries the rate decision alongside the payload
type Result struct {
	Decision ratelimit.Decision
	Checked  bool
	Output   domain.SubmitOutput
}

// Service is the contact port
type Service interface {
	Submit(ctx context.Context, meta domain.Meta, payload PayloadFunc) (Result, error)
}

// Options wires collaborators, only Limiter is required
type Options struct {
	Limiter   *ratelimit.Limiter
	Notify    domain.Notifier
	Audit     domain.AuditSink
	Effects   *effects.Supervisor
	Metrics   domain.Observer
	Preflight func() []string

	Production   bool
	StoreTimeout time.Duration
}

// Svc implements Service
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[repo.Repo]
	opt    Options
	now    func() time.Time
}

// New constructs the service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], opt Options) *Svc {
	if binder == nil {
		panic("contact.Service requires a non nil Repo binder")
	}
	if opt.Effects == nil {
		opt.Effects = effects.New(effects.Options{})
	}
	if opt.StoreTimeout <= 0 {
		opt.StoreTimeout = 5 * time.Second
	}
	return &Svc{db: db, binder: binder, opt: opt, now: time.Now}
}

// Submit stores one lead
func (s *Svc) Submit(ctx context.Context, meta domain.Meta, payload PayloadFunc) (res Result, err error) {
	start := s.now()
	var lead domain.Lead
	defer func() {
		outcome := outcomeOf(err)
		if s.opt.Metrics != nil {
			s.opt.Metrics.ObserveLead(outcome)
		}
		if s.opt.Audit != nil {
			s.opt.Effects.Run(ctx, s.auditEffect(meta, lead, res, outcome, err, s.now().Sub(start)))
		}
	}()

	if err = s.preflight(ctx); err != nil {
		return res, err
	}

	res.Decision, err = s.opt.Limiter.Apply(ctx, ratelimit.PolicyContact, meta.ClientIP)
	if err != nil {
		return res, perr.Wrap(err, perr.ErrorCodeConfiguration, domain.MsgNotConfigured)
	}
	res.Checked = true
	if !res.Decision.Admitted {
		return res, perr.New(perr.ErrorCodeTooManyRequests, domain.MsgThrottled)
	}

	in, err := payload()
	if err != nil {
		return res, err
	}
	if !in.Consent {
		return res, perr.WithDetails(
			perr.WithField(perr.New(perr.ErrorCodeValidation, domain.MsgConsent), "consent"),
			map[string]string{"consent": domain.MsgConsent},
		)
	}

	row := domain.NewLead{
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:     strings.TrimSpace(in.Phone),
		Company:   strings.TrimSpace(in.Company),
		Message:   norm.NFC.String(strings.TrimSpace(in.Message)),
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
	}

	ictx, cancel := context.WithTimeout(ctx, s.opt.StoreTimeout)
	lead, err = s.binder.Bind(s.db).InsertLead(ictx, row)
	cancel()
	if err != nil {
		logger.C(ctx).Error().Err(err).Msg("lead insert failed")
		msg := domain.MsgSaveFailed
		if !s.opt.Production {
			msg += " (" + err.Error() + ")"
		}
		return res, perr.FromPostgres(err, msg)
	}

	logger.C(ctx).Info().Str("lead_id", lead.ID).Int("rate_remaining", res.Decision.Remaining).Msg("contact lead stored")

	if s.opt.Notify != nil {
		s.opt.Effects.Run(ctx, s.notifyEffect(lead, row))
	}

	res.Output = domain.SubmitOutput{LeadID: lead.ID, Message: domain.MsgReceived}
	return res, nil
}

func (s *Svc) preflight(ctx context.Context) error {
	var missing []string
	if s.opt.Preflight != nil {
		missing = s.opt.Preflight()
	}
	if s.db == nil {
		missing = append(missing, "postgres")
	}
	if s.opt.Limiter == nil {
		missing = append(missing, "ratelimit")
	}
	if len(missing) == 0 {
		return nil
	}
	logger.C(ctx).Error().Strs("missing", missing).Msg("contact preflight failed")
	return perr.New(perr.ErrorCodeConfiguration, domain.MsgNotConfigured)
}

func (s *Svc) notifyEffect(lead domain.Lead, row domain.NewLead) effects.Effect {
	return effects.Effect{Name: EffectNotifyOperator, Run: func(ctx context.Context) error {
		m, err := notify.OperatorLead(s.opt.Notify.Operators(), notify.LeadData{
			LeadID:  lead.ID,
			Name:    row.Name,
			Email:   row.Email,
			Phone:   row.Phone,
			Company: row.Company,
			Message: row.Message,
		})
		if err != nil {
			logger.C(ctx).Error().Err(err).Str("lead_id", lead.ID).Msg("lead notification not rendered")
			return err
		}
		out := s.opt.Notify.Send(ctx, m)
		if out.Success {
			return nil
		}
		logger.C(ctx).Error().Err(out.Err).Str("lead_id", lead.ID).Str("recipient", out.Recipient).Msg("lead notification failed")
		return out.Err
	}}
}

func (s *Svc) auditEffect(meta domain.Meta, lead domain.Lead, res Result, outcome string, err error, took time.Duration) effects.Effect {
	ev := chsink.Event{
		Time:          s.now(),
		Kind:          "lead",
		Outcome:       outcome,
		Status:        perr.HTTPStatus(err),
		Policy:        ratelimit.PolicyContact,
		RateRemaining: res.Decision.Remaining,
		FailOpen:      res.Decision.FailOpen,
		Duration:      took,
		SubjectID:     lead.ID,
		RequestID:     meta.RequestID,
	}
	if err == nil {
		ev.Status = http.StatusCreated
	}
	return effects.Effect{Name: EffectAudit, Run: func(ctx context.Context) error {
		err := s.opt.Audit.Record(ctx, ev)
		if err != nil {
			logger.C(ctx).Error().Err(err).Str("lead_id", lead.ID).Str("outcome", outcome).Msg("audit event not recorded")
		}
		return err
	}}
}

func outcomeOf(err error) string {
	if err == nil {
		return OutcomeCreated
	}
	switch perr.CodeOf(err) {
	case perr.ErrorCodeConfiguration:
		return OutcomeNotConfigured
	case perr.ErrorCodeTooManyRequests:
		return OutcomeRateLimited
	case perr.ErrorCodeValidation, perr.ErrorCodeJSON, perr.ErrorCodeInvalidArgument:
		return OutcomeInvalid
	default:
		return OutcomeFailed
	}
}
