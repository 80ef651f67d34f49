package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the searchc configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Cache   CacheConfig   `yaml:"cache"`
	Engine  EngineConfig  `yaml:"engine"`
	Search  SearchConfig  `yaml:"search"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Cache drivers.
const (
	CacheRedis  = "redis"
	CacheBadger = "badger"
)

// CacheConfig holds the rule cache backend settings.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // redis, badger (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	Path             string   `yaml:"path"` // badger directory, empty for in-memory
	KeyPrefix        string   `yaml:"key_prefix"`
	TTLSec           int      `yaml:"ttl_sec"`
	LockTTLSec       int      `yaml:"lock_ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EngineConfig holds the search engine connection settings.
type EngineConfig struct {
	Addrs              []string `yaml:"addrs"`
	Username           string   `yaml:"username"`
	Password           string   `yaml:"password"`
	MaxRetries         int      `yaml:"max_retries"`
	RetryOnStatus      []int    `yaml:"retry_on_status"`
	InsecureSkipVerify bool     `yaml:"insecure_skip_verify"`
}

// SearchConfig holds request compilation defaults and the container source.
type SearchConfig struct {
	DefaultPageSize int    `yaml:"default_page_size"`
	MaxPageSize     int    `yaml:"max_page_size"`
	TrackTotalHits  any    `yaml:"track_total_hits"` // true, false or a limit (default: 10000)
	ContainersDir   string `yaml:"containers_dir"`
	WatchContainers bool   `yaml:"watch_containers"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheRedis
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "searchc:"
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 86400
	}
	if c.Cache.LockTTLSec <= 0 {
		c.Cache.LockTTLSec = 10
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Engine.MaxRetries <= 0 {
		c.Engine.MaxRetries = 3
	}
	if len(c.Engine.RetryOnStatus) == 0 {
		c.Engine.RetryOnStatus = []int{502, 503, 504}
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 20
	}
	if c.Search.MaxPageSize <= 0 {
		c.Search.MaxPageSize = 1000
	}
	if c.Search.TrackTotalHits == nil {
		c.Search.TrackTotalHits = 10000
	}
	if c.Search.ContainersDir == "" {
		c.Search.ContainersDir = "config/containers"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Cache.Driver {
	case CacheRedis:
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for the redis driver")
		}
	case CacheBadger:
	default:
		return fmt.Errorf("cache.driver must be %q or %q, got %q", CacheRedis, CacheBadger, c.Cache.Driver)
	}
	if len(c.Engine.Addrs) == 0 {
		return fmt.Errorf("engine.addrs is required")
	}
	if c.Search.DefaultPageSize > c.Search.MaxPageSize {
		return fmt.Errorf("search.default_page_size (%d) exceeds search.max_page_size (%d)",
			c.Search.DefaultPageSize, c.Search.MaxPageSize)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
