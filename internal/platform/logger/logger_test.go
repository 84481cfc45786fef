package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	kit "bemanning/internal/platform/testkit"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"trace", "trace"},
		{"debug", "debug"},
		{"info", "info"},
		{"warning", "warn"},
		{"error", "error"},
		{"fatal", "fatal"},
		{"panic", "panic"},
		{"", "info"},
		{"  nonsense  ", "info"},
	}
	for _, c := range cases {
		if got := parseLevel(c.in).String(); got != c.want {
			t.Fatalf("parseLevel(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestInitNamedAndRequestFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{
		Level:        "debug",
		Format:       "json",
		Service:      "bemanning-test",
		Writer:       &buf,
		StaticFields: map[string]string{"build": "test"},
	})

	Get().Info().Msg("root-msg")
	Named("ratelimit").Warn().Msg("named-msg")

	ctx := WithRequest(context.Background(), "req-123", "203.0.113.7")
	C(ctx).Info().Msg("ctx-msg")
	C(context.Background()).Info().Msg("bare-msg")

	out := buf.String()
	kit.MustContain(t, out, `"service":"bemanning-test"`)
	kit.MustContain(t, out, `"build":"test"`)
	kit.MustContain(t, out, `"component":"ratelimit"`)
	kit.MustContain(t, out, `"request_id":"req-123"`)
	kit.MustContain(t, out, `"client_ip":"203.0.113.7"`)
	kit.MustContain(t, out, "bare-msg")
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("LOG_SERVICE", "svc-b")
	t.Setenv("LOG_CALLER", "yes")
	t.Setenv("LOG_SAMPLE_EVERY", "5")

	opt := FromEnv()
	if opt.Level != "warn" || opt.Format != "console" || opt.Service != "svc-b" {
		t.Fatalf("FromEnv fields mismatch: %+v", opt)
	}
	if !opt.WithCaller || opt.SampleEvery != 5 {
		t.Fatalf("FromEnv caller/sample mismatch: %+v", opt)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_SERVICE", "")
	opt := FromEnv()
	if opt.Level != "info" || !strings.HasPrefix(opt.Service, "bemanning") {
		t.Fatalf("defaults mismatch: %+v", opt)
	}
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	l.Error().Msg("never written")
}
