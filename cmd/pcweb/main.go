package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/chchsunny/PcWeb/internal/cache"
	"github.com/chchsunny/PcWeb/internal/catalog"
	"github.com/chchsunny/PcWeb/internal/config"
	"github.com/chchsunny/PcWeb/internal/search"
	"github.com/chchsunny/PcWeb/pkg/kit"
)

const (
	service       = "pcweb"
	startupBudget = 15 * time.Second
	sweepEvery    = time.Minute
)

// index is what main needs from a search driver: the runtime port plus the
// startup bootstrap.
type index interface {
	catalog.SearchIndex
	search.Bootstrapper
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("pcweb stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer closeStore()

	snapshots, closeCache, err := openCache(cfg.Cache, log)
	if err != nil {
		return err
	}
	defer closeCache()

	idx, err := openIndex(cfg.Search)
	if err != nil {
		return err
	}

	syncCtx, syncCancel := context.WithTimeout(ctx, startupBudget)
	if err := search.Sync(syncCtx, idx, store, log); err != nil {
		log.Warn("search index sync failed; search will fall back to the database", zap.Error(err))
	}
	syncCancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc := &catalog.Service{
		Store: store,
		Cache: snapshots,
		Index: search.NewBreaker(idx, search.BreakerConfig{
			MaxRequests:      cfg.Search.BreakerMaxRequests,
			Interval:         cfg.Search.BreakerInterval,
			Timeout:          cfg.Search.BreakerTimeout,
			FailureThreshold: cfg.Search.BreakerFailureThreshold,
			MinRequests:      cfg.Search.BreakerMinRequests,
		}, log),
		Log:      log,
		Metrics:  catalog.NewMetrics(reg),
		CacheTTL: cfg.Cache.TTL,
	}

	s := &catalog.Server{Catalog: svc, Log: log}
	if cfg.Search.RateLimitPerMin > 0 {
		s.SearchLimiter = kit.NewIPRateLimiter(cfg.Search.RateLimitPerMin, time.Minute)
		go sweep(ctx, s.SearchLimiter)
	}

	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.HTTP.MetricsEnabled,
		MetricsToken:   cfg.HTTP.MetricsToken,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	})

	return kit.RunHTTPServer(ctx, cfg.Addr(), h, log, cfg.ShutdownTimeout)
}

func openStore(ctx context.Context, cfg config.Database, log *zap.Logger) (catalog.Store, func(), error) {
	if cfg.Driver == "memory" {
		log.Info("using in-memory store")
		return catalog.NewMemStore(), func() {}, nil
	}

	db, err := catalog.OpenDB(cfg.Driver, cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	store := catalog.NewSQLStore(db, cfg.Driver)
	if err := store.Migrate(ctx); err != nil {
		log.Error("schema bootstrap failed", zap.String("driver", cfg.Driver), zap.Error(err))
	}
	return store, func() { _ = db.Close() }, nil
}

func openCache(cfg config.Cache, log *zap.Logger) (catalog.SnapshotCache, func(), error) {
	if cfg.Driver == "memory" {
		mc := cache.DefaultMemoryConfig()
		mc.TTL = max(mc.TTL, cfg.TTL)

		c, err := cache.NewMemory(mc)
		if err != nil {
			return nil, nil, fmt.Errorf("memory cache: %w", err)
		}
		return c, func() {}, nil
	}

	c := cache.NewRedis(cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   cfg.Prefix,
	})

	pctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Ping(pctx); err != nil {
		log.Warn("redis not reachable; snapshot reads will go to the database", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	return c, func() { _ = c.Close() }, nil
}

func openIndex(cfg config.Search) (index, error) {
	if cfg.Driver == "memory" {
		return search.NewMemory(), nil
	}

	es, err := search.NewElastic(search.ElasticConfig{URL: cfg.URL, Index: cfg.Index})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return es, nil
}

func sweep(ctx context.Context, l *kit.IPRateLimiter) {
	t := time.NewTicker(sweepEvery)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Sweep()
		}
	}
}
