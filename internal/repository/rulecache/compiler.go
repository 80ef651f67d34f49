// Package rulecache caches compiled rule filters in the cache backend, tagged for
// invalidation when the catalog schema changes.
package rulecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/searchc/internal/db"
	"github.com/kailas-cloud/searchc/internal/domain/container"
	domrule "github.com/kailas-cloud/searchc/internal/domain/rule"
	"github.com/kailas-cloud/searchc/internal/domain/search/query"
)

const (
	entryPrefix = "rule_cache:"
	tagPrefix   = "rule_tag:"
	lockSuffix  = ":lock"
)

// store is the consumer interface for the rule cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
}

// ruleEngine compiles validated rule trees.
type ruleEngine interface {
	Compile(root domrule.Combination, cfg container.Configuration) (query.Node, error)
}

// Options tune the cache.
type Options struct {
	KeyPrefix string
	TTL       time.Duration
	// LockTTL bounds how long a crashed filler blocks others.
	LockTTL time.Duration
	// PollInterval and PollAttempts control how long a caller waits for another process
	// filling the same entry before compiling itself.
	PollInterval time.Duration
	PollAttempts int
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		KeyPrefix:    "searchc:",
		TTL:          24 * time.Hour,
		LockTTL:      10 * time.Second,
		PollInterval: 50 * time.Millisecond,
		PollAttempts: 10,
	}
}

// Compiler compiles rule trees through the cache.
type Compiler struct {
	engine     ruleEngine
	store      store
	opts       Options
	group      singleflight.Group
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching rule compiler.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"/"error"), passed explicitly.
func New(
	engine ruleEngine,
	s store,
	opts Options,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Compiler {
	def := DefaultOptions()
	if opts.TTL <= 0 {
		opts.TTL = def.TTL
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = def.LockTTL
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = def.PollInterval
	}
	if opts.PollAttempts < 0 {
		opts.PollAttempts = 0
	}
	return &Compiler{
		engine:     engine,
		store:      s,
		opts:       opts,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// TransformRuleToFilters parses a serialized rule tree and compiles it for cfg.
func (c *Compiler) TransformRuleToFilters(
	ctx context.Context, raw map[string]any, cfg container.Configuration,
) (query.Node, error) {
	root, err := domrule.Parse(raw)
	if err != nil {
		return nil, err
	}
	return c.Compile(ctx, root, cfg)
}

// Compile returns the cached filter of root in cfg's catalog, compiling and storing it on a
// miss. Cache failures never fail a compile; invalid rules are never cached.
func (c *Compiler) Compile(ctx context.Context, root domrule.Combination, cfg container.Configuration) (query.Node, error) {
	canonical, err := domrule.Canonical(root)
	if err != nil {
		return nil, fmt.Errorf("canonical rule: %w", err)
	}
	key := c.cacheKey(canonical, cfg.Catalog())

	if n, ok := c.lookup(ctx, key); ok {
		c.incCache("hit")
		return n, nil
	}
	c.incCache("miss")

	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.fill(ctx, key, root, cfg)
	})
	if err != nil {
		return nil, err
	}
	n, _ := v.(query.Node)
	return n, nil
}

// Invalidate drops every entry carrying one of tags.
func (c *Compiler) Invalidate(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		tagKey := c.opts.KeyPrefix + tagPrefix + tag
		keys, err := c.store.SMembers(ctx, tagKey)
		if err != nil {
			return fmt.Errorf("read tag %q: %w", tag, err)
		}
		if err := c.store.Del(ctx, append(keys, tagKey)...); err != nil {
			return fmt.Errorf("delete tag %q: %w", tag, err)
		}
		c.logger.Info("Rule cache invalidated", zap.String("tag", tag), zap.Int("entries", len(keys)))
	}
	return nil
}

// InvalidateFieldChange drops the entries a change of the catalog schema makes stale.
func (c *Compiler) InvalidateFieldChange(ctx context.Context, change domrule.FieldChange) error {
	tags := domrule.InvalidationTags(change)
	if len(tags) == 0 {
		return nil
	}
	return c.Invalidate(ctx, tags...)
}

func (c *Compiler) cacheKey(canonical []byte, catalog string) string {
	h := sha256.New()
	h.Write(canonical)
	h.Write([]byte{0})
	h.Write([]byte(catalog))
	return c.opts.KeyPrefix + entryPrefix + hex.EncodeToString(h.Sum(nil))
}

func (c *Compiler) fill(
	ctx context.Context, key string, root domrule.Combination, cfg container.Configuration,
) (query.Node, error) {
	lockKey := key + lockSuffix
	acquired, err := c.store.SetNX(ctx, lockKey, []byte("1"), c.opts.LockTTL)
	if err != nil {
		c.incCache("error")
		c.logger.Warn("Failed to lock rule cache entry, compiling uncached",
			zap.String("key", key), zap.Error(err))
		return c.engine.Compile(root, cfg)
	}

	if !acquired {
		if n, ok := c.wait(ctx, key); ok {
			return n, nil
		}
		return c.engine.Compile(root, cfg)
	}
	defer func() {
		if err := c.store.Del(ctx, lockKey); err != nil {
			c.logger.Warn("Failed to release rule cache lock", zap.String("key", lockKey), zap.Error(err))
		}
	}()

	n, err := c.engine.Compile(root, cfg)
	if err != nil {
		return nil, err
	}
	c.put(ctx, key, n, cfg.Catalog())
	return n, nil
}

// wait polls the entry another process is filling.
func (c *Compiler) wait(ctx context.Context, key string) (query.Node, bool) {
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()
	for range c.opts.PollAttempts {
		select {
		case <-ctx.Done():
			return nil, false
		case <-ticker.C:
		}
		if n, ok := c.lookup(ctx, key); ok {
			return n, true
		}
	}
	return nil, false
}

func (c *Compiler) lookup(ctx context.Context, key string) (query.Node, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.incCache("error")
			c.logger.Warn("Failed to get cached rule", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	n, err := query.Decode(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached rule", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return n, true
}

func (c *Compiler) put(ctx context.Context, key string, n query.Node, catalog string) {
	data, err := query.Encode(n)
	if err != nil {
		c.logger.Warn("Failed to encode rule filter", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.opts.TTL); err != nil {
		c.incCache("error")
		c.logger.Warn("Failed to cache rule", zap.String("key", key), zap.Error(err))
		return
	}
	for _, tag := range domrule.Tags(catalog) {
		tagKey := c.opts.KeyPrefix + tagPrefix + tag
		if err := c.store.SAdd(ctx, tagKey, key); err != nil {
			c.incCache("error")
			c.logger.Warn("Failed to tag cached rule", zap.String("key", key), zap.String("tag", tag), zap.Error(err))
			continue
		}
		// Tag sets outlive their entries by one TTL at most.
		if err := c.store.Expire(ctx, tagKey, 2*c.opts.TTL); err != nil {
			c.logger.Warn("Failed to expire rule tag", zap.String("tag", tag), zap.Error(err))
		}
	}
}

func (c *Compiler) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}
