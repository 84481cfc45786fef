// Package service runs the application submission pipeline
//
// Steps up to and including the insert are hard fail and decide the response.
// Everything after the insert is best effort and handed to the effects supervisor.
package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"bemanning/internal/core/ratelimit"
	"bemanning/internal/modkit/repokit"
	perr "bemanning/internal/platform/errors"
	"bemanning/internal/platform/logger"
	"bemanning/internal/services/api/applications/domain"
	"bemanning/internal/services/api/applications/repo"
	"bemanning/internal/services/effects"
)

// Outcome labels for metrics and audit
const (
	OutcomeCreated        = "created"
	OutcomeNotConfigured  = "not_configured"
	OutcomeRateLimited    = "rate_limited"
	OutcomeInvalid        = "invalid"
	OutcomeUnauthorized   = "unauthorized"
	OutcomeJobUnavailable = "job_unavailable"
	OutcomeDuplicate      = "duplicate"
	OutcomeFailed         = "failed"
)

// PayloadFunc decodes and validates the request body
// it runs after the rate check so throttled callers never cost a decode
type PayloadFunc func() (domain.SubmitInput, error)

// Result carries the rate decision alongside the payload
// Decision is set whenever the rate check ran, including on rejection
type Result struct {
	Decision ratelimit.Decision
	Checked  bool
	Output   domain.SubmitOutput
}

// Service is the submission port
type Service interface {
	Submit(ctx context.Context, meta domain.Meta, payload PayloadFunc) (Result, error)
}

// Options wires collaborators, every field except Limiter may be nil
type Options struct {
	Limiter *ratelimit.Limiter
	Signer  domain.LinkSigner
	Notify  domain.Notifier
	Events  domain.EventPublisher
	Audit   domain.AuditSink
	Effects *effects.Supervisor
	Metrics domain.Observer

	// Preflight lists missing configuration keys, empty means ready
	Preflight func() []string

	// Production hides persistence causes from callers
	Production bool

	// LinkTTL is the requested document link lifetime, default one year
	LinkTTL time.Duration

	// StoreTimeout bounds each gateway call, default 5s
	StoreTimeout time.Duration
}

// Svc implements Service
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[repo.Repo]
	opt    Options
	now    func() time.Time
}

// New constructs the service, a nil db is reported per request by the preflight
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], opt Options) *Svc {
	if binder == nil {
		panic("applications.Service requires a non nil Repo binder")
	}
	if opt.Effects == nil {
		opt.Effects = effects.New(effects.Options{})
	}
	if opt.LinkTTL <= 0 {
		opt.LinkTTL = 365 * 24 * time.Hour
	}
	if opt.StoreTimeout <= 0 {
		opt.StoreTimeout = 5 * time.Second
	}
	return &Svc{db: db, binder: binder, opt: opt, now: time.Now}
}

// Submit runs the pipeline for one request
func (s *Svc) Submit(ctx context.Context, meta domain.Meta, payload PayloadFunc) (res Result, err error) {
	start := s.now()
	var (
		in  domain.SubmitInput
		app domain.Application
	)
	defer func() {
		outcome := outcomeOf(err)
		if s.opt.Metrics != nil {
			s.opt.Metrics.ObserveSubmission(outcome, s.now().Sub(start))
		}
		if s.opt.Audit != nil {
			s.opt.Effects.Run(ctx, s.auditEffect(meta, in, app, res, outcome, err, s.now().Sub(start)))
		}
	}()

	// 1 preflight
	if err = s.preflight(ctx); err != nil {
		return res, err
	}

	// 2 rate check
	res.Decision, err = s.opt.Limiter.Apply(ctx, ratelimit.PolicyApply, meta.ClientIP)
	if err != nil {
		logger.C(ctx).Error().Err(err).Msg("apply policy missing")
		return res, perr.Wrap(err, perr.ErrorCodeConfiguration, domain.MsgNotConfigured)
	}
	res.Checked = true
	if !res.Decision.Admitted {
		return res, perr.New(perr.ErrorCodeTooManyRequests, domain.MsgThrottled)
	}

	// 3 payload
	if in, err = payload(); err != nil {
		return res, err
	}
	if in.CoverLetter, err = checkPayload(in); err != nil {
		return res, err
	}

	r := s.binder.Bind(s.db)

	// 4 candidate
	if meta.SessionCandidate != "" && meta.SessionCandidate != in.CandidateID {
		return res, perr.New(perr.ErrorCodeUnauthorized, domain.MsgNotLoggedIn)
	}
	var cand domain.Candidate
	err = s.bounded(ctx, func(ctx context.Context) (e error) {
		cand, e = r.CandidateByID(ctx, in.CandidateID)
		return e
	})
	switch {
	case perr.IsCode(err, perr.ErrorCodeNotFound):
		return res, perr.New(perr.ErrorCodeUnauthorized, domain.MsgNotLoggedIn)
	case err != nil:
		return res, s.lookupFailure(ctx, "candidate", err)
	}

	// 5 job
	var job domain.Job
	err = s.bounded(ctx, func(ctx context.Context) (e error) {
		job, e = r.ActiveJob(ctx, in.JobID)
		return e
	})
	switch {
	case perr.IsCode(err, perr.ErrorCodeNotFound):
		return res, perr.New(perr.ErrorCodeNotFound, domain.MsgJobUnavailable)
	case err != nil:
		return res, s.lookupFailure(ctx, "job", err)
	}

	// 6 duplicate pre-check, advisory only
	var exists bool
	err = s.bounded(ctx, func(ctx context.Context) (e error) {
		exists, e = r.ApplicationExists(ctx, job.ID, cand.ID)
		return e
	})
	if err != nil {
		return res, s.lookupFailure(ctx, "duplicate", err)
	}
	if exists {
		return res, perr.New(perr.ErrorCodeDuplicateKey, domain.MsgDuplicate)
	}

	// 7 insert, the unique constraint is authoritative
	certKey := cand.CertificateKey
	if k := strings.TrimSpace(in.CertificatesKey); k != "" {
		if cand.OwnsKey(k) {
			certKey = k
		} else {
			logger.C(ctx).Warn().Str("candidate_id", cand.ID).Str("storage_key", k).Msg("foreign certificate key ignored")
		}
	}
	row := domain.NewApplication{
		JobID:          job.ID,
		CandidateID:    cand.ID,
		FullName:       cand.FullName,
		Email:          cand.Email,
		Phone:          cand.Phone,
		CoverLetter:    in.CoverLetter,
		CVKey:          cand.CVKey,
		CertificateKey: certKey,
		Status:         domain.StatusPending,
		Source:         domain.SourceWebsite,
		ClientIP:       meta.ClientIP,
		UserAgent:      meta.UserAgent,
		EmailVerified:  cand.EmailVerified,
		PhoneVerified:  cand.PhoneVerified,
		ConsentAt:      start.UTC(),
	}
	err = s.bounded(ctx, func(ctx context.Context) (e error) {
		app, e = r.InsertApplication(ctx, row)
		return e
	})
	if err != nil {
		return res, s.insertFailure(ctx, err)
	}

	logger.C(ctx).Info().
		Str("application_id", app.ID).
		Str("job_id", job.ID).
		Str("candidate_id", cand.ID).
		Int("rate_remaining", res.Decision.Remaining).
		Msg("application submitted")

	// 8 and 9 never change the outcome from here on
	s.opt.Effects.Run(ctx, s.postCommit(app, job, cand, row)...)

	res.Output = domain.SubmitOutput{ApplicationID: app.ID, Message: domain.MsgSubmitted}
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
	logger.C(ctx).Error().Strs("missing", missing).Msg("submission preflight failed")
	return perr.New(perr.ErrorCodeConfiguration, domain.MsgNotConfigured)
}

// checkPayload enforces consent and the cover letter bounds
// it returns the NFC normalized, trimmed letter
func checkPayload(in domain.SubmitInput) (string, error) {
	if !in.Consent {
		return "", perr.WithDetails(
			perr.WithField(perr.New(perr.ErrorCodeValidation, domain.MsgConsent), "consent"),
			map[string]string{"consent": domain.MsgConsent},
		)
	}
	letter := norm.NFC.String(strings.TrimSpace(in.CoverLetter))
	var msg string
	switch n := utf8.RuneCountInString(letter); {
	case n < domain.CoverLetterMin:
		msg = "coverLetter must be at least 50 characters"
	case n > domain.CoverLetterMax:
		msg = "coverLetter must be at most 2000 characters"
	default:
		return letter, nil
	}
	return "", perr.WithDetails(
		perr.WithField(perr.New(perr.ErrorCodeValidation, "Ett eller flere felt er ugyldige."), "coverLetter"),
		map[string]string{"coverLetter": msg},
	)
}

func (s *Svc) bounded(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.opt.StoreTimeout)
	defer cancel()
	return fn(ctx)
}

func (s *Svc) lookupFailure(ctx context.Context, step string, err error) error {
	logger.C(ctx).Error().Err(err).Str("step", step).Msg("submission lookup failed")
	return perr.Wrap(err, perr.ErrorCodeDB, s.withCause(domain.MsgLookupFailed, err))
}

func (s *Svc) insertFailure(ctx context.Context, err error) error {
	switch {
	case perr.IsDuplicateKey(err):
		return perr.Wrap(err, perr.ErrorCodeDuplicateKey, domain.MsgDuplicate)
	case perr.IsForeignKeyViolation(err):
		return perr.Wrap(err, perr.ErrorCodeValidation, domain.MsgBadReference)
	}
	logger.C(ctx).Error().Err(err).Str("constraint", perr.ConstraintName(err)).Msg("application insert failed")
	return perr.Wrap(err, perr.ErrorCodeDB, s.withCause(domain.MsgSaveFailed, err))
}

// withCause appends the underlying error outside production
func (s *Svc) withCause(msg string, err error) string {
	if s.opt.Production || err == nil {
		return msg
	}
	return msg + " (" + err.Error() + ")"
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
	case perr.ErrorCodeUnauthorized:
		return OutcomeUnauthorized
	case perr.ErrorCodeNotFound:
		return OutcomeJobUnavailable
	case perr.ErrorCodeDuplicateKey, perr.ErrorCodeConflict:
		return OutcomeDuplicate
	default:
		return OutcomeFailed
	}
}
