package domain

import (
	"context"
	"time"

	"bemanning/internal/adapters/audit/chsink"
	"bemanning/internal/adapters/events/kafkapub"
	"bemanning/internal/services/notify"
)

// LinkSigner produces download links for stored documents
type LinkSigner interface {
	Sign(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Notifier delivers rendered messages and never fails the caller
type Notifier interface {
	Send(ctx context.Context, m notify.Message) notify.Outcome
	Operators() []string
}

// EventPublisher announces accepted applications
type EventPublisher interface {
	ApplicationSubmitted(ctx context.Context, e kafkapub.ApplicationSubmitted) error
}

// AuditSink records terminal outcomes
type AuditSink interface {
	Record(ctx context.Context, e chsink.Event) error
}

// Observer receives submission outcomes for metrics
type Observer interface {
	ObserveSubmission(outcome string, elapsed time.Duration)
}
