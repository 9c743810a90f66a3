package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Host        string
	Port        int
	MetricsPort int `toml:"metrics_port"`
	Environment string
	// logging
	LogLevel    string `toml:"log_level"`
	LogsPath    string `toml:"logs_path"`
	LogToStdout bool   `toml:"log_to_stdout"`
	// sentry
	SentryEnabled bool `toml:"sentry_enabled"`
	// upstream workspace API
	UpstreamBaseURL string `toml:"upstream_base_url"`
	BookingsDBID    string `toml:"bookings_db_id"`
	MaintenanceDBID string `toml:"maintenance_db_id"`
	// response cache
	CacheTTLMinutes int `toml:"cache_ttl_minutes"`
	// daily sync job
	SyncEnabled       bool `toml:"sync_enabled"`
	SyncIntervalHours int  `toml:"sync_interval_hours"`
	// redis, used for login rate limiting
	RedisHost              string `toml:"redis_host"`
	RedisPort              int    `toml:"redis_port"`
	LoginRequestsPerMinute int    `toml:"login_requests_per_minute"`
	// accounts backend [memory | postgres]
	AccountsBackend string `toml:"accounts_backend"`
	PostgresHost    string `toml:"postgres_host"`
	PostgresPort    string `toml:"postgres_port"`
	PostgresDBName  string `toml:"postgres_db_name"`
}

func (c *Config) CacheTTL() time.Duration {
	if c.CacheTTLMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

func (c *Config) SyncInterval() time.Duration {
	if c.SyncIntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.SyncIntervalHours) * time.Hour
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

func Load(env, path string) (*Config, error) {
	var tomlConfig Toml
	if _, err := toml.DecodeFile(path, &tomlConfig); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	cfg, err := tomlConfig.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config section for env [%s] not found in %s", env, path)
	}

	cfg.Environment = env
	return cfg, nil
}
