// Package repo provides the contact lead persistence gateway
package repo

import (
	"context"

	"bemanning/internal/modkit/repokit"
	pstrings "bemanning/internal/platform/strings"
	"bemanning/internal/services/api/contact/domain"
)

// Repo is the persistence surface for leads
type Repo interface {
	InsertLead(ctx context.Context, l domain.NewLead) (domain.Lead, error)
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

func (r *queries) InsertLead(ctx context.Context, l domain.NewLead) (domain.Lead, error) {
	const sql = `
		INSERT INTO contact_leads (name, email, phone, company, message, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id::text, created_at
	`
	var out domain.Lead
	err := r.q.QueryRow(ctx, sql,
		l.Name, l.Email, pstrings.SQLNull(l.Phone), pstrings.SQLNull(l.Company), l.Message,
		pstrings.SQLNull(l.ClientIP), pstrings.SQLNull(l.UserAgent),
	).Scan(&out.ID, &out.CreatedAt)
	return out, err
}
