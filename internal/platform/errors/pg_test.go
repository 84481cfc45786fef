package errors

import (
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func pgErr(code, constraint string) *pgconn.PgError {
	return &pgconn.PgError{Code: code, ConstraintName: constraint}
}

func TestDBErrorCodeMappings(t *testing.T) {
	cases := []struct {
		code string
		want ErrorCode
	}{
		{"23505", ErrorCodeDuplicateKey},
		{"23503", ErrorCodeInvalidArgument},
		{"23502", ErrorCodeValidation},
		{"23514", ErrorCodeValidation},
		{"22001", ErrorCodeInvalidArgument},
		{"22P02", ErrorCodeInvalidArgument},
		{"25006", ErrorCodeUnavailable},
		{"57P03", ErrorCodeUnavailable},
		{"XXXXX", ErrorCodeDB},
	}
	for _, c := range cases {
		got, ok := DBErrorCode(pgErr(c.code, ""))
		if !ok {
			t.Fatalf("expected ok for PgError code %s", c.code)
		}
		if got != c.want {
			t.Fatalf("DBErrorCode(%s) = %v, want %v", c.code, got, c.want)
		}
	}
	if _, ok := DBErrorCode(stderrs.New("nope")); ok {
		t.Fatalf("DBErrorCode should return ok=false for non-pg error")
	}
}

func TestConstraintPredicatesSeeThroughWrapping(t *testing.T) {
	dup := fmt.Errorf("insert: %w", pgErr("23505", "applications_job_candidate_key"))
	if !IsDuplicateKey(dup) {
		t.Fatalf("IsDuplicateKey missed wrapped unique violation")
	}
	if IsForeignKeyViolation(dup) {
		t.Fatalf("IsForeignKeyViolation matched a unique violation")
	}
	if got := ConstraintName(dup); got != "applications_job_candidate_key" {
		t.Fatalf("ConstraintName = %q", got)
	}

	fk := Wrap(pgErr("23503", "applications_job_id_fkey"), ErrorCodeDB, "insert failed")
	if !IsForeignKeyViolation(fk) {
		t.Fatalf("IsForeignKeyViolation missed *Error wrapped fk violation")
	}
	if ConstraintName(stderrs.New("x")) != "" {
		t.Fatalf("ConstraintName on foreign error should be empty")
	}
}

func TestFromPostgres(t *testing.T) {
	if FromPostgres(nil, "x") != nil {
		t.Fatalf("FromPostgres(nil) should be nil")
	}
	if got := CodeOf(FromPostgres(pgErr("23505", ""), "dup")); got != ErrorCodeDuplicateKey {
		t.Fatalf("FromPostgres(23505) code = %v", got)
	}
	if got := CodeOf(FromPostgres(stderrs.New("io"), "io")); got != ErrorCodeDB {
		t.Fatalf("FromPostgres(foreign) code = %v", got)
	}
	wrapped := FromPostgres(fmt.Errorf("insert: %w", pgErr("23514", "contact_leads_email_check")), "save failed")
	if e, _ := As(wrapped); e.Code() != ErrorCodeValidation || e.Message() != "save failed" {
		t.Fatalf("FromPostgres(wrapped 23514) = %v", wrapped)
	}
	if ConstraintName(wrapped) != "contact_leads_email_check" {
		t.Fatalf("cause lost: %v", wrapped)
	}
}
