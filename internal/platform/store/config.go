package store

import (
	"time"

	"bemanning/internal/platform/config"
)

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG  PGConfig
	CH  CHConfig
	RDS RedisConfig
}

// PGConfig configures postgres
type PGConfig struct {
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	ConnectRetries int           // default 20
	PingTimeout    time.Duration // default 3s
}

// CHConfig configures clickhouse
type CHConfig struct {
	URL  string
	Role string
}

// RedisConfig configures redis
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TLS      bool
}

// ConfigFromEnv reads SERVICE_PGSQL_*, SERVICE_CLICKHOUSE_* and SERVICE_REDIS_* below root
func ConfigFromEnv(root config.Conf, appName string) Config {
	pgc := root.Prefix("SERVICE_PGSQL_")
	chc := root.Prefix("SERVICE_CLICKHOUSE_")
	rdc := root.Prefix("SERVICE_REDIS_")
	return Config{
		AppName: appName,
		PG: PGConfig{
			URL:         pgc.MayString("DBURL", ""),
			MaxConns:    int32(pgc.MayInt("MAX_CONNS", 8)),
			LogSQL:      pgc.MayBool("LOG_SQL", false),
			SlowQueryMs: pgc.MayInt("SLOW_MS", 200),
		},
		CH: CHConfig{
			URL:  chc.MayString("DBURL", ""),
			Role: "api",
		},
		RDS: RedisConfig{
			Addr:     rdc.MayString("ADDR", ""),
			Password: rdc.MayString("PASSWORD", ""),
			DB:       rdc.MayInt("DB", 0),
			TLS:      rdc.MayBool("TLS", false),
		},
	}
}
