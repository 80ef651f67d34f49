package searchc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchc/internal/db"
	dbBadger "github.com/kailas-cloud/searchc/internal/db/badger"
	dbRedis "github.com/kailas-cloud/searchc/internal/db/redis"
	domcontainer "github.com/kailas-cloud/searchc/internal/domain/container"
	domrule "github.com/kailas-cloud/searchc/internal/domain/rule"
	"github.com/kailas-cloud/searchc/internal/domain/search/query"
	"github.com/kailas-cloud/searchc/internal/domain/search/request"
	"github.com/kailas-cloud/searchc/internal/domain/search/response"
	containerrepo "github.com/kailas-cloud/searchc/internal/repository/container"
	"github.com/kailas-cloud/searchc/internal/repository/rulecache"
	searchrepo "github.com/kailas-cloud/searchc/internal/repository/search"
	"github.com/kailas-cloud/searchc/internal/transport/opensearch"
	healthuc "github.com/kailas-cloud/searchc/internal/usecase/health"
	ruleuc "github.com/kailas-cloud/searchc/internal/usecase/rule"
	searchuc "github.com/kailas-cloud/searchc/internal/usecase/search"
	"github.com/kailas-cloud/searchc/internal/usecase/spellcheck"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped in tests.
type containerSource interface {
	Get(name, catalog string) (domcontainer.Configuration, error)
	Names() []string
}

type searchUseCase interface {
	Build(ctx context.Context, cfg domcontainer.Configuration, p searchuc.Params) (request.Request, error)
	Run(ctx context.Context, req *request.Request) (response.Response, error)
}

type ruleUseCase interface {
	TransformRuleToFilters(ctx context.Context, raw map[string]any, cfg domcontainer.Configuration) (query.Node, error)
	Invalidate(ctx context.Context, tags ...string) error
	InvalidateFieldChange(ctx context.Context, change domrule.FieldChange) error
}

// Client is the searchc SDK entry point.
type Client struct {
	store      db.Store
	stop       context.CancelFunc
	containers containerSource
	searchSvc  searchUseCase
	rules      ruleUseCase
	healthSvc  healthUseCase
	obs        *observer
}

// New loads the containers, opens the rule cache and connects to the engine.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{cacheDriver: "badger"}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.engineAddrs) == 0 {
		return nil, errors.New("searchc: engine address required (use WithEngine)")
	}
	if cfg.containersDir == "" {
		return nil, errors.New("searchc: containers directory required (use WithContainersDir)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("searchc: cache not ready: %w", err)
	}

	c, err := wireClient(store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.cacheDriver {
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.cacheAddrs,
			Password: cfg.cachePassword,
		})
		if err != nil {
			return nil, fmt.Errorf("searchc: create redis store: %w", err)
		}
		return s, nil
	case "badger":
		s, err := dbBadger.NewStore(dbBadger.Config{Path: cfg.cachePath})
		if err != nil {
			return nil, fmt.Errorf("searchc: open badger store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("searchc: unknown cache driver %q", cfg.cacheDriver)
	}
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	// Internal components log through zap; the SDK reports through its own observer.
	logger := zap.NewNop()

	engine, err := opensearch.NewClient(opensearch.Config{
		Addrs:    cfg.engineAddrs,
		Username: cfg.engineUsername,
		Password: cfg.enginePassword,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("searchc: create engine client: %w", err)
	}

	cacheOpts := rulecache.DefaultOptions()
	if cfg.cacheTTL > 0 {
		cacheOpts.TTL = cfg.cacheTTL
	}
	rules := rulecache.New(ruleuc.NewEngine(), store, cacheOpts, nil, logger)

	containers := containerrepo.New(cfg.containersDir, logger)
	if err := containers.Load(context.Background()); err != nil {
		return nil, fmt.Errorf("searchc: load containers: %w", err)
	}
	containers.OnReload(func(ctx context.Context) {
		err := rules.Invalidate(ctx, domrule.GlobalTag)
		obs.observe("reload", "", time.Now(), err)
	})

	watchCtx, stop := context.WithCancel(context.Background())
	if cfg.watchContainers {
		if err := containers.Watch(watchCtx, containerrepo.DefaultSettleDelay); err != nil {
			stop()
			return nil, fmt.Errorf("searchc: watch containers: %w", err)
		}
	}

	searchSvc := searchuc.New(searchrepo.New(engine), spellcheck.New(engine, nil, logger), rules, searchuc.Options{
		DefaultPageSize: cfg.defaultPageSize,
		MaxPageSize:     cfg.maxPageSize,
		TrackTotalHits:  request.DefaultTrackTotalHits(),
	})

	return &Client{
		store:      store,
		stop:       stop,
		containers: containers,
		searchSvc:  searchSvc,
		rules:      rules,
		healthSvc:  healthuc.New(store, engine),
		obs:        obs,
	}, nil
}

// Close stops watching containers and releases the cache.
func (c *Client) Close() {
	if c.stop != nil {
		c.stop()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks cache connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", "", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Containers returns the loaded container names, sorted.
func (c *Client) Containers() []string {
	return c.containers.Names()
}

// Compile compiles q into an engine request without running it. Only spellchecking the
// text reaches the engine.
func (c *Client) Compile(ctx context.Context, name, catalog string, q Query) (out Compiled, err error) {
	start := time.Now()
	defer func() { c.obs.observe("compile", name, start, err) }()

	req, err := c.build(ctx, name, catalog, q)
	if err != nil {
		return Compiled{}, err
	}
	return fromRequest(name, &req), nil
}

// Search compiles q and runs it.
func (c *Client) Search(ctx context.Context, name, catalog string, q Query) (out Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", name, start, err) }()

	req, err := c.build(ctx, name, catalog, q)
	if err != nil {
		return Result{}, err
	}
	resp, err := c.searchSvc.Run(ctx, &req)
	if err != nil {
		return Result{}, err
	}
	return fromResponse(resp), nil
}

func (c *Client) build(ctx context.Context, name, catalog string, q Query) (request.Request, error) {
	cfg, err := c.containers.Get(name, catalog)
	if err != nil {
		return request.Request{}, err
	}
	p, err := toParams(q)
	if err != nil {
		return request.Request{}, err
	}
	return c.searchSvc.Build(ctx, cfg, p)
}

// CompileRule compiles a serialized rule tree into an engine filter for the container.
// An empty tree compiles to nil.
func (c *Client) CompileRule(ctx context.Context, name, catalog string, rule map[string]any) (out map[string]any, err error) {
	start := time.Now()
	defer func() { c.obs.observe("compile_rule", name, start, err) }()

	cfg, err := c.containers.Get(name, catalog)
	if err != nil {
		return nil, err
	}
	n, err := c.rules.TransformRuleToFilters(ctx, rule, cfg)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, nil
	}
	return n.Source(), nil
}

// Invalidate drops the cached rule compilations carrying any of tags.
func (c *Client) Invalidate(ctx context.Context, tags ...string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("invalidate", "", start, err) }()

	return c.rules.Invalidate(ctx, tags...)
}

// InvalidateFieldChange drops the cached rule compilations a source field change makes stale.
func (c *Client) InvalidateFieldChange(ctx context.Context, change FieldChange) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("invalidate", "", start, err) }()

	return c.rules.InvalidateFieldChange(ctx, toFieldChange(change))
}
