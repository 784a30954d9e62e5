package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/livescore/internal/api/websocket"
	"github.com/fortuna/livescore/internal/cache"
	"github.com/fortuna/livescore/internal/config"
	"github.com/fortuna/livescore/internal/fetch"
	"github.com/fortuna/livescore/internal/ingest"
	"github.com/fortuna/livescore/internal/ingest/adapter"
	"github.com/fortuna/livescore/internal/ingest/teams"
	"github.com/fortuna/livescore/internal/logging"
	"github.com/fortuna/livescore/internal/publisher"
	"github.com/fortuna/livescore/internal/reconciliation"
	"github.com/fortuna/livescore/internal/scheduler"
	"github.com/fortuna/livescore/internal/store"
	"github.com/fortuna/livescore/internal/store/repository"
)

const (
	redisAttempts   = 5
	redisRetryDelay = 2 * time.Second
)

// app holds the wired components shared by every command.
type app struct {
	cfg    config.Config
	logger *slog.Logger

	db      *store.Database
	store   *repository.Store
	redis   *redis.Client
	cache   cache.Cache
	fetcher *fetch.HTTPFetcher
	browser *fetch.BrowserFetcher
	factory *adapter.Factory
	merger  *reconciliation.Engine
	amqp    *publisher.AMQPPublisher
	hub     *websocket.Hub
	agent   *ingest.Agent
	users   *ingest.UserAgent
}

type appOptions struct {
	// withHub adds the WebSocket hub to the broadcasters.
	withHub bool
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	db, err := store.NewDatabase(cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}
	a.db = db
	logger.Info("connected to database")

	if err := db.RunMigrations(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	a.store = repository.New(db)

	a.cache = cache.Disabled{}
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL empty; cache and scheduler disabled")
	} else if client, err := connectRedis(ctx, cfg.RedisURL, logger); err != nil {
		logger.Warn("redis unavailable; cache and scheduler disabled", logging.FieldError, err)
	} else {
		a.redis = client
		a.cache = cache.NewRedisCache(client)
		logger.Info("connected to redis")
	}

	fetchOpts := cfg.Fetch()
	fetchOpts.Logger = logger
	a.fetcher = fetch.NewHTTP(fetchOpts)
	var renderer fetch.Fetcher
	if cfg.RenderSecondary {
		a.browser = fetch.NewBrowser(a.fetcher.Guard(), cfg.ScraperUserAgent, 2*cfg.HTTPTimeout, logger)
		renderer = a.browser
	}

	a.factory = adapter.NewDefaultFactory(adapter.SourceConfig{
		Leagues:     cfg.Leagues,
		ESPNBaseURL: cfg.ESPNAPIBase,
		CBSBaseURL:  cfg.CBSBaseURL,
		Fetcher:     a.fetcher,
		Renderer:    renderer,
		Teams:       teams.Default(),
		Logger:      logger,
	})
	logger.Info("adapters ready", "leagues", a.factory.Known())

	var broadcasters publisher.Multi
	if a.redis != nil {
		broadcasters = append(broadcasters, publisher.NewRedisStreamPublisher(a.redis))
	}
	if cfg.AMQPURL != "" {
		amqpPub, err := publisher.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Warn("amqp unavailable; broadcasting without it", logging.FieldError, err)
		} else {
			a.amqp = amqpPub
			broadcasters = append(broadcasters, amqpPub)
		}
	}
	if opts.withHub {
		a.hub = websocket.NewHub(logger)
		broadcasters = append(broadcasters, a.hub)
	}

	a.merger = reconciliation.NewEngine()
	a.agent = ingest.NewAgent(ingest.Options{
		Resolver:      a.factory,
		Merger:        a.merger,
		Store:         a.store,
		Cache:         a.cache,
		Broadcaster:   broadcasters,
		Logger:        logger,
		FeaturedLimit: cfg.FeaturedLimit,
	})
	a.users = ingest.NewUserAgent(a.agent, a.store)
	return a, nil
}

// connectRedis retries the initial connection while Redis starts up.
func connectRedis(ctx context.Context, url string, logger *slog.Logger) (*redis.Client, error) {
	var err error
	for i := 1; i <= redisAttempts; i++ {
		var client *redis.Client
		client, err = cache.Connect(ctx, url)
		if err == nil {
			return client, nil
		}
		if i == redisAttempts {
			break
		}
		logger.Warn("redis connection failed", "attempt", i, "max", redisAttempts, logging.FieldError, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(redisRetryDelay):
		}
	}
	return nil, err
}

// seedTeams loads the built-in team tables. Existing rows keep their
// tracked flag.
func (a *app) seedTeams(ctx context.Context) error {
	dir := teams.Default()
	n := 0
	for _, league := range dir.Leagues() {
		for _, t := range dir.Teams(league) {
			err := a.store.Upsert(ctx, store.Team{
				TeamID: t.ID(league),
				League: league,
				Code:   t.Code,
				Name:   t.Name,
			})
			if err != nil {
				return err
			}
			n++
		}
	}
	a.logger.Info("teams seeded", logging.FieldCount, n)
	return nil
}

func (a *app) orchestrator(ctx context.Context) *scheduler.Orchestrator {
	schedCfg := a.cfg.Scheduler()
	if len(schedCfg.Leagues) == 0 {
		schedCfg.Leagues = a.factory.Known()
	}
	return scheduler.NewOrchestrator(ctx, scheduler.Options{
		Client: a.redis,
		Runner: a.agent,
		Teams:  a.store,
		Cache:  a.cache,
		Merger: a.merger,
		Config: schedCfg,
		Logger: a.logger,
	})
}

func (a *app) healthChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{
		"postgres": a.db.HealthCheck,
	}
	if a.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	}
	return checks
}

// Close releases every connection the app opened.
func (a *app) Close() {
	if a.browser != nil {
		a.browser.Close()
	}
	if a.amqp != nil {
		if err := a.amqp.Close(); err != nil {
			a.logger.Warn("closing amqp", logging.FieldError, err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("closing redis", logging.FieldError, err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("closing database", logging.FieldError, err)
		}
	}
}
