// internal/common/config/loader.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	SaveLockLocal = "local"
	SaveLockRedis = "redis"
)

// Load reads config.yaml (plus config.<env>.yaml) from the usual locations,
// with environment overrides such as BACKEND_BASE_URL.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "production"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Keys must be known to viper for AutomaticEnv to reach them on Unmarshal.
	for _, key := range []string{
		"app.name", "app.version", "app.environment",
		"backend.base_url", "backend.timeout", "backend.client_type",
		"cdn.host",
		"logging.level", "logging.format",
		"metrics.enabled", "metrics.address",
		"redis.address", "redis.password", "redis.db",
		"save_lock.backend", "save_lock.ttl",
	} {
		_ = v.BindEnv(key)
	}
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "menza-admin"
	}

	cfg.Backend.BaseURL = strings.TrimSpace(cfg.Backend.BaseURL)
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 30000
	}
	if cfg.Backend.ClientType == "" {
		cfg.Backend.ClientType = "desktop"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9464"
	}

	if cfg.SaveLock.Backend == "" {
		cfg.SaveLock.Backend = SaveLockLocal
	}
	if cfg.SaveLock.TTL == 0 {
		cfg.SaveLock.TTL = 60000
	}
}

// validateConfig rejects configurations the client cannot start with. A
// missing or relative base URL is fatal.
func validateConfig(cfg *Config) error {
	if cfg.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	u, err := url.Parse(cfg.Backend.BaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an absolute URL (e.g. http://localhost:3001), got %q", cfg.Backend.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend.base_url scheme must be http or https, got %q", u.Scheme)
	}

	if cfg.Backend.Timeout < 0 {
		return fmt.Errorf("backend.timeout must be positive")
	}

	switch cfg.SaveLock.Backend {
	case SaveLockLocal:
	case SaveLockRedis:
		if cfg.Redis.Address == "" {
			return fmt.Errorf("redis.address is required when save_lock.backend is redis")
		}
	default:
		return fmt.Errorf("save_lock.backend must be %q or %q, got %q", SaveLockLocal, SaveLockRedis, cfg.SaveLock.Backend)
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
