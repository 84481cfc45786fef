package token

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSignVerify(t *testing.T) {
	s := New("s3cret")
	tok, err := s.Sign("1767225600", "abc")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(tok, "1767225600.abc.") {
		t.Fatalf("token = %q", tok)
	}
	got, err := s.Verify(tok, 2)
	if err != nil || got[0] != "1767225600" || got[1] != "abc" {
		t.Fatalf("Verify = %v, %v", got, err)
	}
}

func TestVerifyRejects(t *testing.T) {
	s := New("s3cret")
	good, _ := s.Sign("a", "b")
	other, _ := New("other").Sign("a", "b")

	cases := []struct {
		name string
		tok  string
		want error
	}{
		{"empty", "", ErrMalformed},
		{"too few parts", "a.b", ErrMalformed},
		{"too many parts", good + ".x", ErrMalformed},
		{"blank field", "a..deadbeef", ErrMalformed},
		{"tampered field", "a.c" + good[3:], ErrSignature},
		{"foreign secret", other, ErrSignature},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Verify(tc.tok, 2); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestNoSecret(t *testing.T) {
	s := New("")
	if s.Enabled() {
		t.Fatalf("empty secret enabled")
	}
	if _, err := s.Sign("a"); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("Sign err = %v", err)
	}
	if _, err := s.Verify("a.b", 1); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("Verify err = %v", err)
	}
}

func TestSignRejectsDots(t *testing.T) {
	if _, err := New("k").Sign("a.b"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v", err)
	}
}

func TestCheckExpiry(t *testing.T) {
	now := time.Unix(1000, 0)
	if _, err := CheckExpiry(Expiry(now.Add(time.Second)), now); err != nil {
		t.Fatalf("future: %v", err)
	}
	if _, err := CheckExpiry(Expiry(now), now); !errors.Is(err, ErrExpired) {
		t.Fatalf("now: %v", err)
	}
	if _, err := CheckExpiry("soon", now); !errors.Is(err, ErrMalformed) {
		t.Fatalf("garbage: %v", err)
	}
}
