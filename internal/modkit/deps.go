// Package modkit provides module wiring and core deps
package modkit

import (
	"slices"

	"bemanning/internal/adapters/audit/chsink"
	"bemanning/internal/adapters/events/kafkapub"
	"bemanning/internal/adapters/storage/s3sign"
	"bemanning/internal/core/ratelimit"
	"bemanning/internal/modkit/repokit"
	"bemanning/internal/platform/config"
	"bemanning/internal/platform/logger"
	"bemanning/internal/platform/metrics"
	"bemanning/internal/platform/store"
	"bemanning/internal/services/effects"
	"bemanning/internal/services/notify"
)

// Deps holds core dependencies passed to modules
// optional collaborators are nil when their backend is not configured
type Deps struct {
	Log   logger.Logger
	Cfg   config.Conf
	Store *store.Store
	PG    repokit.TxRunner

	Limiter *ratelimit.Limiter
	Metrics *metrics.Metrics
	Effects *effects.Supervisor
	Notify  *notify.Dispatcher
	Signer  *s3sign.Signer
	Events  *kafkapub.Publisher
	Audit   *chsink.Sink

	// Production hides internal causes from callers
	Production bool

	// Unconfigured is the boot time snapshot of required backends that
	// were not opened, see MissingBackends
	Unconfigured []string
}

// MissingBackends names the configuration keys of required backends
// that st did not open
func MissingBackends(st *store.Store) []string {
	var out []string
	if st == nil || st.PG == nil {
		out = append(out, "SERVICE_PGSQL_DBURL")
	}
	if st == nil || st.RDS == nil {
		out = append(out, "SERVICE_REDIS_ADDR")
	}
	return out
}

// Missing reports the boot snapshot
// modules report these per request instead of refusing to boot
func (d Deps) Missing() []string {
	return slices.Clone(d.Unconfigured)
}
