package service

import (
	"context"
	"net/http"
	"time"

	"bemanning/internal/adapters/audit/chsink"
	"bemanning/internal/adapters/events/kafkapub"
	"bemanning/internal/core/ratelimit"
	perr "bemanning/internal/platform/errors"
	"bemanning/internal/platform/logger"
	"bemanning/internal/services/api/applications/domain"
	"bemanning/internal/services/effects"
	"bemanning/internal/services/notify"
)

// Effect names
const (
	EffectNotifyApplicant = "notify_applicant"
	EffectNotifyOperator  = "notify_operator"
	EffectPublish         = "publish_event"
	EffectAudit           = "audit"
)

func (s *Svc) postCommit(app domain.Application, job domain.Job, cand domain.Candidate, row domain.NewApplication) []effects.Effect {
	data := notify.ApplicationData{
		ApplicationID:  app.ID,
		JobTitle:       job.Title,
		CandidateName:  cand.FullName,
		CandidateEmail: cand.Email,
		CandidatePhone: cand.Phone,
		CoverLetter:    row.CoverLetter,
		SubmittedAt:    app.SubmittedAt,
	}

	var out []effects.Effect
	if s.opt.Notify != nil {
		out = append(out,
			effects.Effect{Name: EffectNotifyApplicant, Run: func(ctx context.Context) error {
				m, err := notify.ApplicantReceipt(data)
				if err != nil {
					return s.renderFailed(ctx, app.ID, err)
				}
				return s.send(ctx, app.ID, m)
			}},
			effects.Effect{Name: EffectNotifyOperator, Run: func(ctx context.Context) error {
				d := data
				d.CVURL = s.signLink(ctx, app.ID, row.CVKey)
				d.CertificateURL = s.signLink(ctx, app.ID, row.CertificateKey)
				m, err := notify.OperatorApplication(s.opt.Notify.Operators(), d)
				if err != nil {
					return s.renderFailed(ctx, app.ID, err)
				}
				return s.send(ctx, app.ID, m)
			}},
		)
	}
	if s.opt.Events != nil {
		out = append(out, effects.Effect{Name: EffectPublish, Run: func(ctx context.Context) error {
			err := s.opt.Events.ApplicationSubmitted(ctx, kafkapub.ApplicationSubmitted{
				ApplicationID: app.ID,
				JobID:         job.ID,
				CandidateID:   cand.ID,
				Source:        row.Source,
				SubmittedAt:   app.SubmittedAt,
			})
			if err != nil {
				logger.C(ctx).Error().Err(err).
					Str("application_id", app.ID).
					Str("job_id", job.ID).
					Msg("application event not published")
			}
			return err
		}})
	}
	return out
}

func (s *Svc) renderFailed(ctx context.Context, applicationID string, err error) error {
	logger.C(ctx).Error().Err(err).Str("application_id", applicationID).Msg("application notification not rendered")
	return err
}

// send logs the one error line a failed delivery gets
func (s *Svc) send(ctx context.Context, applicationID string, m notify.Message) error {
	out := s.opt.Notify.Send(ctx, m)
	if out.Success {
		return nil
	}
	logger.C(ctx).Error().Err(out.Err).
		Str("application_id", applicationID).
		Str("recipient", out.Recipient).
		Msg("application notification failed")
	return out.Err
}

// signLink returns "" when the key is blank or signing fails
func (s *Svc) signLink(ctx context.Context, applicationID, key string) (url string) {
	if key == "" || s.opt.Signer == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			logger.C(ctx).Error().Interface("panic", r).
				Str("application_id", applicationID).
				Str("storage_key", key).
				Msg("document link signer panicked")
			url = ""
		}
	}()
	url, err := s.opt.Signer.Sign(ctx, key, s.opt.LinkTTL)
	if err != nil {
		logger.C(ctx).Error().Err(err).
			Str("application_id", applicationID).
			Str("storage_key", key).
			Msg("document link not signed")
		return ""
	}
	return url
}

func (s *Svc) auditEffect(meta domain.Meta, in domain.SubmitInput, app domain.Application, res Result, outcome string, err error, took time.Duration) effects.Effect {
	ev := chsink.Event{
		Time:          s.now(),
		Kind:          "application",
		Outcome:       outcome,
		Status:        perr.HTTPStatus(err),
		Policy:        ratelimit.PolicyApply,
		RateRemaining: res.Decision.Remaining,
		FailOpen:      res.Decision.FailOpen,
		Duration:      took,
		JobID:         in.JobID,
		CandidateID:   in.CandidateID,
		SubjectID:     app.ID,
		RequestID:     meta.RequestID,
	}
	if err == nil {
		ev.Status = http.StatusCreated
	}
	return effects.Effect{Name: EffectAudit, Run: func(ctx context.Context) error {
		err := s.opt.Audit.Record(ctx, ev)
		if err != nil {
			logger.C(ctx).Error().Err(err).Str("application_id", app.ID).Str("outcome", outcome).Msg("audit event not recorded")
		}
		return err
	}}
}
