// Package kafkapub publishes domain events to Kafka as JSON
package kafkapub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"bemanning/internal/platform/config"
	"bemanning/internal/platform/logger"
)

// TypeApplicationSubmitted is the event type for accepted applications
const TypeApplicationSubmitted = "application.submitted"

// ErrNoBrokers is returned by New without brokers
var ErrNoBrokers = errors.New("kafkapub: no brokers configured")

// Config selects brokers and topic
type Config struct {
	Brokers []string
	Topic   string
}

// ConfigFromEnv reads SERVICE_KAFKA_*
func ConfigFromEnv(root config.Conf) Config {
	c := root.Prefix("SERVICE_KAFKA_")
	return Config{
		Brokers: c.MayCSV("BROKERS", nil),
		Topic:   c.MayString("TOPIC", "bemanning.applications"),
	}
}

// Writer is the subset of *kafka.Writer used here
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ApplicationSubmitted is the payload of TypeApplicationSubmitted
type ApplicationSubmitted struct {
	ApplicationID string    `json:"applicationId"`
	JobID         string    `json:"jobId"`
	CandidateID   string    `json:"candidateId"`
	Source        string    `json:"source"`
	SubmittedAt   time.Time `json:"submittedAt"`
}

type envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

// Publisher writes events synchronously
type Publisher struct {
	w     Writer
	topic string
	now   func() time.Time
}

// New builds a Publisher on a hash balanced kafka.Writer
func New(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireAll,
	}
	return NewWithWriter(w, cfg.Topic), nil
}

// NewWithWriter wraps an existing writer
func NewWithWriter(w Writer, topic string) *Publisher {
	return &Publisher{w: w, topic: topic, now: time.Now}
}

// Publish marshals data under typ and writes it keyed by key
// events sharing a key land on one partition and keep their order
func (p *Publisher) Publish(ctx context.Context, typ, key string, data any) error {
	value, err := json.Marshal(envelope{Type: typ, OccurredAt: p.now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("kafkapub: marshal %s: %w", typ, err)
	}
	msg := kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: []kafka.Header{{Key: "type", Value: []byte(typ)}},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafkapub: publish %s to %s: %w", typ, p.topic, err)
	}
	logger.C(ctx).Debug().Str("topic", p.topic).Str("type", typ).Str("key", key).Int("bytes", len(value)).Msg("event published")
	return nil
}

// ApplicationSubmitted publishes e keyed by job id
func (p *Publisher) ApplicationSubmitted(ctx context.Context, e ApplicationSubmitted) error {
	return p.Publish(ctx, TypeApplicationSubmitted, e.JobID, e)
}

// Topic returns the destination topic
func (p *Publisher) Topic() string { return p.topic }

// Close flushes pending writes
func (p *Publisher) Close() error { return p.w.Close() }
