package version

import (
	"testing"

	kit "bemanning/internal/platform/testkit"
)

func TestInfoPrefersLinkerStamp(t *testing.T) {
	kit.Swap(t, &version, "v0.3.1")
	kit.Swap(t, &commit, "abc123")
	kit.Swap(t, &date, "2026-10-01")

	got := Info()
	want := BuildInfo{Service: "bemanning-api", Version: "v0.3.1", Commit: "abc123", Date: "2026-10-01"}
	if got != want {
		t.Fatalf("Info() = %+v, want %+v", got, want)
	}
}

func TestInfoNeverBlank(t *testing.T) {
	kit.Swap(t, &commit, "")
	kit.Swap(t, &date, "")

	got := Info()
	if got.Commit == "" || got.Date == "" {
		t.Fatalf("Info() left blanks: %+v", got)
	}
}
