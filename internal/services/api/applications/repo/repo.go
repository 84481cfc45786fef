// Package repo provides the application persistence gateway
package repo

import (
	"context"

	"bemanning/internal/modkit/repokit"
	"bemanning/internal/platform/store"
	pstrings "bemanning/internal/platform/strings"
	"bemanning/internal/services/api/applications/domain"
)

// Repo is the persistence surface the submission service uses
// lookups return perr.ErrNotFound when nothing matches
type Repo interface {
	CandidateByID(ctx context.Context, id string) (domain.Candidate, error)
	ActiveJob(ctx context.Context, id string) (domain.Job, error)
	ApplicationExists(ctx context.Context, jobID, candidateID string) (bool, error)
	InsertApplication(ctx context.Context, a domain.NewApplication) (domain.Application, error)
}

type (
	// PG is the Postgres implementation
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) CandidateByID(ctx context.Context, id string) (domain.Candidate, error) {
	const sql = `
		SELECT id::text, full_name, email,
		       COALESCE(phone, ''), COALESCE(cv_key, ''), COALESCE(certificate_key, ''),
		       email_verified, phone_verified
		  FROM candidates
		 WHERE id = $1::uuid
	`
	return store.One(ctx, r.q, func(row store.Row) (domain.Candidate, error) {
		var c domain.Candidate
		err := row.Scan(&c.ID, &c.FullName, &c.Email, &c.Phone, &c.CVKey, &c.CertificateKey, &c.EmailVerified, &c.PhoneVerified)
		return c, err
	}, sql, id)
}

// ActiveJob only matches jobs whose status is active
func (r *queries) ActiveJob(ctx context.Context, id string) (domain.Job, error) {
	const sql = `
		SELECT id::text, title, status
		  FROM jobs
		 WHERE id = $1::uuid AND status = $2
	`
	return store.One(ctx, r.q, func(row store.Row) (domain.Job, error) {
		var j domain.Job
		err := row.Scan(&j.ID, &j.Title, &j.Status)
		return j, err
	}, sql, id, domain.JobActive)
}

func (r *queries) ApplicationExists(ctx context.Context, jobID, candidateID string) (bool, error) {
	const sql = `
		SELECT 1
		  FROM applications
		 WHERE job_id = $1::uuid AND candidate_id = $2::uuid
		 LIMIT 1
	`
	return store.Exists(ctx, r.q, sql, jobID, candidateID)
}

// InsertApplication relies on applications_job_candidate_key for duplicates
// callers classify 23505 and 23503 from the returned error
func (r *queries) InsertApplication(ctx context.Context, a domain.NewApplication) (domain.Application, error) {
	const sql = `
		INSERT INTO applications (
			job_id, candidate_id, full_name, email, phone,
			cover_letter, cv_key, certificate_key, status, source,
			ip_address, user_agent, email_verified, phone_verified, consent_given_at
		) VALUES (
			$1::uuid, $2::uuid, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15
		)
		RETURNING id::text, submitted_at
	`
	var out domain.Application
	err := r.q.QueryRow(ctx, sql,
		a.JobID, a.CandidateID, a.FullName, a.Email, pstrings.SQLNull(a.Phone),
		a.CoverLetter, pstrings.SQLNull(a.CVKey), pstrings.SQLNull(a.CertificateKey), a.Status, a.Source,
		pstrings.SQLNull(a.ClientIP), pstrings.SQLNull(a.UserAgent), a.EmailVerified, a.PhoneVerified, a.ConsentAt,
	).Scan(&out.ID, &out.SubmittedAt)
	return out, err
}
