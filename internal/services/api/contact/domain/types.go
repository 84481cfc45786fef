// Package domain holds contact form types and ports
package domain

import (
	"context"
	"time"

	"bemanning/internal/adapters/audit/chsink"
	"bemanning/internal/services/notify"
)

// Caller facing messages
const (
	MsgReceived      = "Takk! Vi tar kontakt med deg så snart som mulig."
	MsgNotConfigured = "Tjenesten er midlertidig utilgjengelig. Prøv igjen senere."
	MsgThrottled     = "For mange forespørsler. Prøv igjen senere."
	MsgConsent       = "Du må samtykke til at vi lagrer henvendelsen din."
	MsgSaveFailed    = "Kunne ikke sende henvendelsen. Prøv igjen senere."
)

// SubmitInput is the contact request body
type SubmitInput struct {
	Name    string `json:"name" validate:"required,min=2,max=120"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Phone   string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Company string `json:"company,omitempty" validate:"omitempty,max=160"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
	Consent bool   `json:"consent"`
}

// Meta is the request metadata stored with a lead
type Meta struct {
	ClientIP  string
	UserAgent string
	RequestID string
}

// NewLead is the row the gateway inserts
type NewLead struct {
	Name      string
	Email     string
	Phone     string
	Company   string
	Message   string
	ClientIP  string
	UserAgent string
}

// Lead is what the gateway returns after insert
type Lead struct {
	ID        string
	CreatedAt time.Time
}

// SubmitOutput is the success payload
type SubmitOutput struct {
	LeadID  string `json:"leadId"`
	Message string `json:"message"`
}

// Notifier delivers the operator notice
type Notifier interface {
	Send(ctx context.Context, m notify.Message) notify.Outcome
	Operators() []string
}

// AuditSink records terminal outcomes
type AuditSink interface {
	Record(ctx context.Context, e chsink.Event) error
}

// Observer receives lead outcomes for metrics
type Observer interface {
	ObserveLead(outcome string)
}
