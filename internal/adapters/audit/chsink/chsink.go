// Package chsink records submission outcomes in ClickHouse
package chsink

import (
	"context"
	"fmt"
	"time"

	"bemanning/internal/platform/store"
)

// DefaultTable receives one row per terminal submission outcome
const DefaultTable = "submission_events"

const ddl = `CREATE TABLE IF NOT EXISTS %s (
	event_time      DateTime64(3, 'UTC'),
	kind            LowCardinality(String),
	outcome         LowCardinality(String),
	status          UInt16,
	policy          LowCardinality(String),
	rate_remaining  Int32,
	fail_open       UInt8,
	duration_ms     UInt32,
	job_id          String,
	candidate_id    String,
	subject_id      String,
	request_id      String
) ENGINE = MergeTree
PARTITION BY toYYYYMM(event_time)
ORDER BY (kind, event_time)
TTL toDateTime(event_time) + INTERVAL 1 YEAR`

// Event is one audit row
// SubjectID is the application or lead id when one was created
type Event struct {
	Time          time.Time
	Kind          string
	Outcome       string
	Status        int
	Policy        string
	RateRemaining int
	FailOpen      bool
	Duration      time.Duration
	JobID         string
	CandidateID   string
	SubjectID     string
	RequestID     string
}

// Sink writes events through the store clickhouse seam
type Sink struct {
	ch    store.Clickhouse
	table string
}

// New returns a Sink writing to table, DefaultTable when blank
func New(ch store.Clickhouse, table string) *Sink {
	if table == "" {
		table = DefaultTable
	}
	return &Sink{ch: ch, table: table}
}

// Table returns the destination table
func (s *Sink) Table() string { return s.table }

// Ensure creates the table when missing
func (s *Sink) Ensure(ctx context.Context) error {
	if err := s.ch.Exec(ctx, fmt.Sprintf(ddl, s.table)); err != nil {
		return fmt.Errorf("chsink: ensure %s: %w", s.table, err)
	}
	return nil
}

// Record inserts e
func (s *Sink) Record(ctx context.Context, e Event) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	var failOpen uint8
	if e.FailOpen {
		failOpen = 1
	}
	row := []any{
		e.Time.UTC(),
		e.Kind,
		e.Outcome,
		uint16(e.Status),
		e.Policy,
		int32(e.RateRemaining),
		failOpen,
		uint32(e.Duration.Milliseconds()),
		e.JobID,
		e.CandidateID,
		e.SubjectID,
		e.RequestID,
	}
	if err := s.ch.Insert(ctx, s.table, [][]any{row}); err != nil {
		return fmt.Errorf("chsink: insert %s: %w", s.table, err)
	}
	return nil
}
