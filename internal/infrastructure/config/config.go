// Package config loads service configuration from TOML and environment
// variables. Shard connection descriptors are deployment-supplied only;
// credentials never live in source.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Log      LogConfig
	Sharding ShardingConfig
	Redis    RedisConfig
	HTTP     HTTPConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// ShardingConfig holds the shard topology and per-shard pool settings.
// Count is fixed for the lifetime of the deployment: changing it remaps
// every tenant and is not supported without a full re-shard.
type ShardingConfig struct {
	Count           int
	DSNs            []string // one connection descriptor per shard index
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	CheckoutTimeout time.Duration
}

// RedisConfig holds the license cache settings. An empty host disables Redis
// and the service falls back to an in-process cache.
type RedisConfig struct {
	Host            string
	Port            int
	Password        string
	DB              int
	LicenseCacheTTL time.Duration
}

// Addr returns the host:port address for the Redis client
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	MaxHeaderBytes int
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
//  1. Environment variables with INVTRACK_ prefix (e.g. INVTRACK_SHARDING_DSNS)
//  2. config.toml
//  3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, defaults and env vars apply
	}

	v.SetEnvPrefix("INVTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Sharding: ShardingConfig{
			Count:           v.GetInt("sharding.count"),
			DSNs:            shardDSNs(v),
			MaxOpenConns:    v.GetInt("sharding.max_open_conns"),
			MaxIdleConns:    v.GetInt("sharding.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("sharding.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("sharding.conn_max_idle_time"),
			CheckoutTimeout: v.GetDuration("sharding.checkout_timeout"),
		},
		Redis: RedisConfig{
			Host:            v.GetString("redis.host"),
			Port:            v.GetInt("redis.port"),
			Password:        v.GetString("redis.password"),
			DB:              v.GetInt("redis.db"),
			LicenseCacheTTL: v.GetDuration("redis.license_cache_ttl"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			RequestTimeout: v.GetDuration("http.request_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// shardDSNs reads the per-shard connection descriptors. A TOML array maps
// directly; an environment override is a single whitespace- or
// comma-separated string and is split here.
func shardDSNs(v *viper.Viper) []string {
	dsns := v.GetStringSlice("sharding.dsns")
	if len(dsns) == 1 && (strings.ContainsAny(dsns[0], " ,")) {
		split := strings.FieldsFunc(dsns[0], func(r rune) bool {
			return r == ' ' || r == ','
		})
		out := make([]string, 0, len(split))
		for _, s := range split {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return dsns
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "invtrack-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Sharding.Count == 0 {
		cfg.Sharding.Count = len(cfg.Sharding.DSNs)
	}
	if cfg.Sharding.MaxOpenConns == 0 {
		cfg.Sharding.MaxOpenConns = 25
	}
	if cfg.Sharding.MaxIdleConns == 0 {
		cfg.Sharding.MaxIdleConns = 5
	}
	if cfg.Sharding.ConnMaxLifetime == 0 {
		cfg.Sharding.ConnMaxLifetime = 60
	}
	if cfg.Sharding.ConnMaxIdleTime == 0 {
		cfg.Sharding.ConnMaxIdleTime = 30
	}
	if cfg.Sharding.CheckoutTimeout == 0 {
		cfg.Sharding.CheckoutTimeout = 5 * time.Second
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.LicenseCacheTTL == 0 {
		cfg.Redis.LicenseCacheTTL = 30 * time.Second
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.RequestTimeout == 0 {
		cfg.HTTP.RequestTimeout = 30 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
}

func (c *Config) validate() error {
	if c.Sharding.Count < 1 {
		return fmt.Errorf("sharding.count must be at least 1")
	}
	if len(c.Sharding.DSNs) != c.Sharding.Count {
		return fmt.Errorf("sharding.dsns must list exactly %d connection descriptors, got %d",
			c.Sharding.Count, len(c.Sharding.DSNs))
	}
	for i, dsn := range c.Sharding.DSNs {
		if strings.TrimSpace(dsn) == "" {
			return fmt.Errorf("sharding.dsns[%d] is empty", i)
		}
	}
	if c.Sharding.MaxIdleConns > c.Sharding.MaxOpenConns {
		return fmt.Errorf("sharding.max_idle_conns (%d) cannot exceed sharding.max_open_conns (%d)",
			c.Sharding.MaxIdleConns, c.Sharding.MaxOpenConns)
	}
	if c.Sharding.CheckoutTimeout < 0 {
		return fmt.Errorf("sharding.checkout_timeout cannot be negative")
	}

	if c.App.Env == "production" {
		for i, dsn := range c.Sharding.DSNs {
			if strings.Contains(dsn, "sslmode=disable") {
				return fmt.Errorf("sharding.dsns[%d] cannot disable TLS in production", i)
			}
		}
	}

	return nil
}
