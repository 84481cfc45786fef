package chsink

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeCH struct {
	table string
	rows  [][]any
	execs []string
	err   error
}

func (f *fakeCH) Insert(_ context.Context, table string, rows [][]any) error {
	f.table, f.rows = table, rows
	return f.err
}

func (f *fakeCH) Exec(_ context.Context, q string, _ ...any) error {
	f.execs = append(f.execs, q)
	return f.err
}

func (f *fakeCH) Ping(context.Context) error { return nil }
func (f *fakeCH) Close() error               { return nil }

func TestRecordRow(t *testing.T) {
	ch := &fakeCH{}
	s := New(ch, "")
	at := time.Date(2026, 4, 2, 10, 0, 0, 0, time.FixedZone("CEST", 2*3600))

	err := s.Record(context.Background(), Event{
		Time: at, Kind: "application", Outcome: "created", Status: 201,
		Policy: "apply", RateRemaining: 9, Duration: 42 * time.Millisecond,
		JobID: "job-1", CandidateID: "cand-1", SubjectID: "app-1", RequestID: "req-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if ch.table != DefaultTable || len(ch.rows) != 1 {
		t.Fatalf("table=%q rows=%v", ch.table, ch.rows)
	}
	row := ch.rows[0]
	if len(row) != 12 {
		t.Fatalf("row has %d columns", len(row))
	}
	if ts := row[0].(time.Time); ts.Location() != time.UTC || !ts.Equal(at) {
		t.Fatalf("event_time = %v", ts)
	}
	if row[3].(uint16) != 201 || row[5].(int32) != 9 || row[6].(uint8) != 0 || row[7].(uint32) != 42 {
		t.Fatalf("numeric columns = %v", row)
	}
}

func TestRecordDefaultsTimeAndWrapsError(t *testing.T) {
	boom := errors.New("code: 60, table does not exist")
	ch := &fakeCH{err: boom}
	err := New(ch, "audit").Record(context.Background(), Event{Kind: "contact", FailOpen: true})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if ch.rows[0][0].(time.Time).IsZero() || ch.rows[0][6].(uint8) != 1 {
		t.Fatalf("row = %v", ch.rows[0])
	}
}

func TestEnsure(t *testing.T) {
	ch := &fakeCH{}
	if err := New(ch, "audit_events").Ensure(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(ch.execs) != 1 || !strings.Contains(ch.execs[0], "CREATE TABLE IF NOT EXISTS audit_events") {
		t.Fatalf("execs = %v", ch.execs)
	}
}
