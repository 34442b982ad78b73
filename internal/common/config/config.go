// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Backend  BackendConfig  `mapstructure:"backend"`
	CDN      CDNConfig      `mapstructure:"cdn"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Redis    RedisConfig    `mapstructure:"redis"`
	SaveLock SaveLockConfig `mapstructure:"save_lock"`
}

// --- Core App Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// BackendConfig points the client at the canteen API.
type BackendConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	ClientType string `mapstructure:"client_type"`
}

// TimeoutDuration returns the request timeout as a time.Duration.
func (b BackendConfig) TimeoutDuration() time.Duration {
	return GetDuration(b.Timeout)
}

// CDNConfig locates food pictures: https://cdn-canteen.<host>/food/{id}/{picture}.webp
type CDNConfig struct {
	Host string `mapstructure:"host"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SaveLockConfig selects how concurrent saves of the same week are prevented.
// "local" guards a single process; "redis" guards every workstation sharing
// the Redis instance.
type SaveLockConfig struct {
	Backend string `mapstructure:"backend"`
	TTL     int    `mapstructure:"ttl"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
