// Package version reports what build is serving requests
package version

import (
	"runtime/debug"
	"sync"
)

// BuildInfo is the payload of GET /meta/version
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// set with -ldflags "-X bemanning/internal/core/version.version=v0.3.1 -X ...commit=abc123 -X ...date=2026-10-01"
var (
	version = "dev"
	commit  = ""
	date    = ""
)

var fromVCS = sync.OnceValues(func() (string, string) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	var rev, at string
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.time":
			at = s.Value
		}
	}
	return rev, at
})

// Info returns the build stamp, falling back to the toolchain's vcs stamp
// when ldflags did not set commit or date
func Info() BuildInfo {
	c, d := commit, date
	if c == "" || d == "" {
		rev, at := fromVCS()
		c = firstSet(c, rev, "none")
		d = firstSet(d, at, "unknown")
	}
	return BuildInfo{Service: "bemanning-api", Version: version, Commit: c, Date: d}
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
