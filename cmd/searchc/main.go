package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchc/internal/config"
	"github.com/kailas-cloud/searchc/internal/db"
	dbBadger "github.com/kailas-cloud/searchc/internal/db/badger"
	dbRedis "github.com/kailas-cloud/searchc/internal/db/redis"
	domrule "github.com/kailas-cloud/searchc/internal/domain/rule"
	"github.com/kailas-cloud/searchc/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/searchc/internal/logger"
	"github.com/kailas-cloud/searchc/internal/metrics"
	containerrepo "github.com/kailas-cloud/searchc/internal/repository/container"
	"github.com/kailas-cloud/searchc/internal/repository/rulecache"
	searchrepo "github.com/kailas-cloud/searchc/internal/repository/search"
	chiTransport "github.com/kailas-cloud/searchc/internal/transport/chi"
	"github.com/kailas-cloud/searchc/internal/transport/opensearch"
	healthuc "github.com/kailas-cloud/searchc/internal/usecase/health"
	ruleuc "github.com/kailas-cloud/searchc/internal/usecase/rule"
	searchuc "github.com/kailas-cloud/searchc/internal/usecase/search"
	"github.com/kailas-cloud/searchc/internal/usecase/spellcheck"
	"github.com/kailas-cloud/searchc/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting searchc API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.Strings("engine_addrs", cfg.Engine.Addrs),
	)

	metrics.RegisterCompilerMetrics()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store := openCache(ctx, cfg.Cache, logger)
	defer store.Close()

	engine, err := opensearch.NewClient(opensearch.Config{
		Addrs:              cfg.Engine.Addrs,
		Username:           cfg.Engine.Username,
		Password:           cfg.Engine.Password,
		MaxRetries:         cfg.Engine.MaxRetries,
		RetryOnStatus:      cfg.Engine.RetryOnStatus,
		InsecureSkipVerify: cfg.Engine.InsecureSkipVerify,
		Logger:             logger,
	})
	if err != nil {
		logger.Fatal("Failed to create engine client", zap.Error(err))
	}

	// Rule compiler: engine behind the tag-invalidated cache.
	cacheOpts := rulecache.DefaultOptions()
	cacheOpts.KeyPrefix = cfg.Cache.KeyPrefix
	cacheOpts.TTL = time.Duration(cfg.Cache.TTLSec) * time.Second
	cacheOpts.LockTTL = time.Duration(cfg.Cache.LockTTLSec) * time.Second
	rules := rulecache.New(ruleuc.NewEngine(), store, cacheOpts, metrics.RuleCacheTotal, logger)

	containers := containerrepo.New(cfg.Search.ContainersDir, logger)
	if err := containers.Load(ctx); err != nil {
		logger.Fatal("Failed to load containers", zap.Error(err), zap.String("dir", cfg.Search.ContainersDir))
	}
	// Mappings may have changed, so every cached rule compilation is stale.
	containers.OnReload(func(ctx context.Context) {
		if err := rules.Invalidate(ctx, domrule.GlobalTag); err != nil {
			logger.Error("Failed to invalidate rule cache after reload", zap.Error(err))
		}
	})
	if cfg.Search.WatchContainers {
		if err := containers.Watch(ctx, containerrepo.DefaultSettleDelay); err != nil {
			logger.Fatal("Failed to watch containers", zap.Error(err))
		}
	}
	logger.Info("Containers loaded", zap.Strings("names", containers.Names()))

	tth, err := request.ParseTrackTotalHits(cfg.Search.TrackTotalHits)
	if err != nil {
		logger.Fatal("Invalid search.track_total_hits", zap.Error(err))
	}
	spell := spellcheck.New(engine, metrics.SpellingTypeTotal, logger)
	searchSvc := searchuc.New(searchrepo.New(engine), spell, rules, searchuc.Options{
		DefaultPageSize: cfg.Search.DefaultPageSize,
		MaxPageSize:     cfg.Search.MaxPageSize,
		TrackTotalHits:  tth,
	})

	healthSvc := healthuc.New(store, engine)

	server := chiTransport.NewServer(containers, searchSvc, rules, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openCache creates the rule cache backend and waits until it answers.
func openCache(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) db.Store {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case config.CacheRedis:
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
	case config.CacheBadger:
		store, err = dbBadger.NewStore(dbBadger.Config{Path: cfg.Path})
	default:
		logger.Fatal("Unknown cache driver", zap.String("driver", cfg.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Cache not ready", zap.Error(err))
	}
	logger.Info("Connected to cache", zap.String("driver", cfg.Driver))
	return store
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
