package searchc

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	engineAddrs    []string
	engineUsername string
	enginePassword string

	cacheDriver   string // "redis" or "badger"
	cacheAddrs    []string
	cachePassword string
	cachePath     string
	cacheTTL      time.Duration

	containersDir   string
	watchContainers bool

	defaultPageSize int
	maxPageSize     int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithEngine sets the search engine node URLs.
func WithEngine(addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.engineAddrs = addrs
	})
}

// WithEngineAuth sets basic auth credentials for the engine.
func WithEngineAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.engineUsername = username
		c.enginePassword = password
	})
}

// WithRedis keeps the rule cache in Redis, shared by every process pointing at it.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = "redis"
		c.cacheAddrs = []string{addr}
		c.cachePassword = password
	})
}

// WithBadger keeps the rule cache in a Badger database at path.
// An empty path keeps it in memory, which is the default.
func WithBadger(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = "badger"
		c.cachePath = path
	})
}

// WithCacheTTL sets how long compiled rules stay cached. Default: 24h.
func WithCacheTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = ttl
	})
}

// WithContainersDir sets the directory holding container YAML files. Required.
func WithContainersDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.containersDir = dir
	})
}

// WithWatch reloads containers when their files change.
func WithWatch() Option {
	return optionFunc(func(c *clientConfig) {
		c.watchContainers = true
	})
}

// WithPageSize sets the default and maximum page sizes. Defaults: 20 and 1000.
func WithPageSize(def, maxSize int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultPageSize = def
		c.maxPageSize = maxSize
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
