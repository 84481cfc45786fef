// @title         Bemanning API
// @version       0.1.0
// @description   Job applications and contact leads for the staffing site

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bemanning/internal/adapters/audit/chsink"
	"bemanning/internal/adapters/events/kafkapub"
	"bemanning/internal/adapters/mail/resendmail"
	"bemanning/internal/adapters/storage/s3sign"
	"bemanning/internal/core/ratelimit"
	"bemanning/internal/modkit"
	"bemanning/internal/modkit/httpkit"
	"bemanning/internal/platform/config"
	"bemanning/internal/platform/logger"
	"bemanning/internal/platform/metrics"
	phttp "bemanning/internal/platform/net/http"
	"bemanning/internal/platform/net/middleware"
	"bemanning/internal/platform/store"
	"bemanning/internal/platform/store/schema"
	"bemanning/internal/services/effects"
	"bemanning/internal/services/notify"

	"bemanning/internal/services/api"
	"bemanning/internal/services/api/session"
)

func main() {
	logger.Init(logger.FromEnv())
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	production := apiCfg.MayEnum("ENV", "development", "development", "staging", "production") == "production"

	// a missing DBURL or ADDR leaves that backend nil, requests then answer with a configuration error
	st, err := store.Open(ctx, store.ConfigFromEnv(root, "bemanning-api"), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}

	auditTable := root.Prefix("SERVICE_CLICKHOUSE_").MayString("TABLE", chsink.DefaultTable)
	if apiCfg.MayBool("AUTO_MIGRATE", false) {
		migrate(ctx, st, auditTable)
	}

	m := metrics.New()
	deps := modkit.Deps{
		Log:        *l,
		Cfg:        root,
		Store:      st,
		PG:         st.PG,
		Metrics:    m,
		Limiter:    newLimiter(root, st, m),
		Production: production,
		Effects: effects.New(effects.Options{
			Async:    apiCfg.MayBool("ASYNC_EFFECTS", false),
			Timeout:  apiCfg.MayDuration("EFFECTS_TIMEOUT", 15*time.Second),
			Observer: m,
		}),

		// snapshot once, requests never re-read the environment
		Unconfigured: modkit.MissingBackends(st),
	}
	wireAdapters(ctx, root, st, auditTable, &deps)

	// http server (reads CORE_API_API_PORT, READ_TIMEOUT, WRITE_TIMEOUT, DRAIN)
	srv := phttp.NewServer(apiCfg)
	api.Mount(srv.Router(), api.Options{
		Deps:    deps,
		Session: session.FromConfig(root),
		Stack: httpkit.StackOptions{
			TrustForwarded: root.Prefix("RATELIMIT_").MayBool("TRUST_FORWARDED", true),
			CORS:           middleware.CORSOptions{AllowedOrigins: apiCfg.MayCSV("CORS_ORIGINS", []string{"*"})},
			AccessLog: middleware.AccessLogOptions{
				Slow: apiCfg.MayDuration("SLOW_REQUEST", time.Second),
				Skip: []string{"/health", "/metrics", "/api/v1/meta/health"},
			},
		},
		EnableSwagger:  apiCfg.MayBool("SWAGGER", !production),
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
	})

	// hooks run in order once the listener has drained
	srv.OnShutdown(deps.Effects.Close)
	if deps.Events != nil {
		srv.OnShutdown(func(context.Context) error { return deps.Events.Close() })
	}
	srv.OnShutdown(st.Close)

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}

// newLimiter backs the limiter with redis when configured
// without redis every decision fails open until the preflight reports the missing store
func newLimiter(root config.Conf, st *store.Store, m *metrics.Metrics) *ratelimit.Limiter {
	rc := root.Prefix("RATELIMIT_")
	log := logger.Named("ratelimit")

	reg := ratelimit.DefaultRegistry()
	if path := rc.MayString("POLICY_FILE", ""); path != "" {
		r, err := ratelimit.LoadRegistryFile(path)
		if err != nil {
			log.Panic().Err(err).Str("path", path).Msg("load rate limit policies")
		}
		reg = r
	}

	var backing ratelimit.Store = ratelimit.NewMemoryStore()
	if st.RDS != nil {
		backing = ratelimit.NewRedisStore(st.RDS, "bemanning:rl:")
	} else {
		log.Warn().Msg("SERVICE_REDIS_ADDR unset; limits are process local")
	}
	return ratelimit.New(backing, reg,
		ratelimit.WithTimeout(rc.MayDuration("TIMEOUT", 500*time.Millisecond)),
		ratelimit.WithObserver(m),
	)
}

// wireAdapters attaches the optional collaborators whose backends are configured
func wireAdapters(ctx context.Context, root config.Conf, st *store.Store, auditTable string, deps *modkit.Deps) {
	log := logger.Named("wiring")

	mc := resendmail.ConfigFromEnv(root)
	var sink notify.Sink
	if mailer, err := resendmail.New(mc); err == nil {
		sink = mailer
	} else {
		log.Warn().Err(err).Msg("mail disabled; notifications will be logged as failed")
	}
	deps.Notify = notify.New(sink, notify.Config{Operators: mc.Operators}, deps.Metrics)

	if sg, err := s3sign.New(ctx, s3sign.ConfigFromEnv(root)); err == nil {
		deps.Signer = sg
	} else {
		log.Warn().Err(err).Msg("document links disabled")
	}

	if pub, err := kafkapub.New(kafkapub.ConfigFromEnv(root)); err == nil {
		deps.Events = pub
	} else {
		log.Warn().Err(err).Msg("event publishing disabled")
	}

	if st.CH != nil {
		deps.Audit = chsink.New(st.CH, auditTable)
	}
}

// migrate applies the relational schema and the audit table
func migrate(ctx context.Context, st *store.Store, auditTable string) {
	log := logger.Named("migrate")
	if st.PG != nil {
		if err := schema.Apply(ctx, st.PG); err != nil {
			log.Panic().Err(err).Msg("apply schema")
		}
		log.Info().Msg("schema applied")
	}
	if st.CH != nil {
		if err := chsink.New(st.CH, auditTable).Ensure(ctx); err != nil {
			log.Panic().Err(err).Msg("ensure audit table")
		}
	}
}
