package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"bemanning/internal/adapters/audit/chsink"
	"bemanning/internal/core/ratelimit"
	"bemanning/internal/modkit/repokit"
	perr "bemanning/internal/platform/errors"
	"bemanning/internal/platform/logger"
	"bemanning/internal/services/api/contact/domain"
	"bemanning/internal/services/api/contact/repo"
	"bemanning/internal/services/notify"
)

func init() { logger.Init(logger.Options{Level: "panic"}) }

type fakeDB struct{ repokit.TxRunner }

type fakeRepo struct {
	rows []domain.NewLead
	err  error
}

func (f *fakeRepo) InsertLead(_ context.Context, l domain.NewLead) (domain.Lead, error) {
	if f.err != nil {
		return domain.Lead{}, f.err
	}
	f.rows = append(f.rows, l)
	return domain.Lead{ID: "lead-1", CreatedAt: time.Now()}, nil
}

func (f *fakeRepo) binder() repokit.Binder[repo.Repo] {
	return repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return f })
}

type fakeNotifier struct {
	mu   sync.Mutex
	fail bool
	sent []notify.Message
}

func (n *fakeNotifier) Send(_ context.Context, m notify.Message) notify.Outcome {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, m)
	if n.fail {
		return notify.Outcome{Recipient: m.Recipient, Err: errors.New("provider down")}
	}
	return notify.Outcome{Recipient: m.Recipient, Success: true}
}

func (n *fakeNotifier) Operators() []string { return []string{"salg@example.no"} }

type fakeAudit struct{ got []chsink.Event }

func (a *fakeAudit) Record(_ context.Context, e chsink.Event) error {
	a.got = append(a.got, e)
	return nil
}

type counter map[string]int

func (c counter) ObserveLead(outcome string) { c[outcome]++ }

func validLead() domain.SubmitInput {
	return domain.SubmitInput{
		Name:    "  Per Hansen ",
		Email:   "Per@Bedrift.NO",
		Company: "Bedrift AS",
		Message: "Vi trenger fem lagermedarbeidere fra mars.",
		Consent: true,
	}
}

type fixture struct {
	svc    *Svc
	repo   *fakeRepo
	notify *fakeNotifier
	audit  *fakeAudit
	obs    counter
}

func newFixture(mutate ...func(*Options)) *fixture {
	f := &fixture{repo: &fakeRepo{}, notify: &fakeNotifier{}, audit: &fakeAudit{}, obs: counter{}}
	opt := Options{
		Limiter: ratelimit.New(ratelimit.NewMemoryStore(), nil),
		Notify:  f.notify,
		Audit:   f.audit,
		Metrics: f.obs,
	}
	for _, m := range mutate {
		m(&opt)
	}
	f.svc = New(fakeDB{}, f.repo.binder(), opt)
	return f
}

func (f *fixture) submit(in domain.SubmitInput) (Result, error) {
	return f.svc.Submit(context.Background(), domain.Meta{ClientIP: "203.0.113.7", RequestID: "rid"}, func() (domain.SubmitInput, error) {
		return in, nil
	})
}

func TestLeadCreated(t *testing.T) {
	f := newFixture()
	res, err := f.submit(validLead())
	if err != nil {
		t.Fatal(err)
	}
	if res.Output.LeadID != "lead-1" || res.Output.Message != domain.MsgReceived {
		t.Fatalf("output = %+v", res.Output)
	}
	if res.Decision.Limit != 5 || res.Decision.Remaining != 4 {
		t.Fatalf("decision = %+v", res.Decision)
	}
	row := f.repo.rows[0]
	if row.Name != "Per Hansen" || row.Email != "per@bedrift.no" || row.ClientIP != "203.0.113.7" {
		t.Fatalf("row = %+v", row)
	}
	if len(f.notify.sent) != 1 || f.notify.sent[0].ReplyTo != "per@bedrift.no" {
		t.Fatalf("sent = %+v", f.notify.sent)
	}
	if !strings.Contains(f.notify.sent[0].Subject, "Bedrift AS") {
		t.Fatalf("subject = %q", f.notify.sent[0].Subject)
	}
	if len(f.audit.got) != 1 || f.audit.got[0].Kind != "lead" || f.audit.got[0].Status != 201 {
		t.Fatalf("audit = %+v", f.audit.got)
	}
	if f.obs[OutcomeCreated] != 1 {
		t.Fatalf("metrics = %v", f.obs)
	}
}

func TestLeadThrottledAfterFive(t *testing.T) {
	f := newFixture()
	for range 5 {
		if _, err := f.submit(validLead()); err != nil {
			t.Fatal(err)
		}
	}
	res, err := f.submit(validLead())
	if !perr.IsCode(err, perr.ErrorCodeTooManyRequests) || res.Decision.Remaining != 0 || !res.Checked {
		t.Fatalf("res=%+v err=%v", res, err)
	}
	if len(f.repo.rows) != 5 {
		t.Fatalf("rows = %d", len(f.repo.rows))
	}
}

func TestLeadConsent(t *testing.T) {
	f := newFixture()
	in := validLead()
	in.Consent = false
	_, err := f.submit(in)
	if !perr.IsCode(err, perr.ErrorCodeValidation) || len(f.repo.rows) != 0 {
		t.Fatalf("err=%v rows=%d", err, len(f.repo.rows))
	}
	if f.obs[OutcomeInvalid] != 1 {
		t.Fatalf("metrics = %v", f.obs)
	}
}

func TestLeadNotifyFailureStillCreated(t *testing.T) {
	f := newFixture()
	f.notify.fail = true
	if _, err := f.submit(validLead()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
}

func TestLeadInsertFailure(t *testing.T) {
	for _, prod := range []bool{true, false} {
		f := newFixture(func(o *Options) { o.Production = prod })
		f.repo.err = errors.New("relation does not exist")
		_, err := f.submit(validLead())
		e, ok := perr.As(err)
		if !ok || e.Code() != perr.ErrorCodeDB {
			t.Fatalf("err = %v", err)
		}
		if leaked := strings.Contains(e.Message(), "relation"); leaked == prod {
			t.Fatalf("production=%v message=%q", prod, e.Message())
		}
		if len(f.notify.sent) != 0 {
			t.Fatalf("notified after failed insert")
		}
	}
}

func TestLeadInsertClassifiedBySQLState(t *testing.T) {
	cases := []struct {
		state  string
		status int
	}{
		{"23514", 400},
		{"23502", 400},
		{"57P03", 503},
		{"42P01", 500},
	}
	for _, tc := range cases {
		t.Run(tc.state, func(t *testing.T) {
			f := newFixture(func(o *Options) { o.Production = true })
			f.repo.err = &pgconn.PgError{Code: tc.state}
			_, err := f.submit(validLead())
			if got := perr.HTTPStatus(err); got != tc.status {
				t.Fatalf("status = %d, want %d (%v)", got, tc.status, err)
			}
			if e, _ := perr.As(err); e.Message() != domain.MsgSaveFailed {
				t.Fatalf("message = %q", e.Message())
			}
		})
	}
}

func TestLeadPreflight(t *testing.T) {
	f := newFixture(func(o *Options) { o.Preflight = func() []string { return []string{"SERVICE_PGSQL_DBURL"} } })
	res, err := f.submit(validLead())
	if !perr.IsCode(err, perr.ErrorCodeConfiguration) || res.Checked {
		t.Fatalf("res=%+v err=%v", res, err)
	}
}
