package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/wonny/rollstitch/backend/internal/adjusted"
	"github.com/wonny/rollstitch/backend/internal/contracts"
	"github.com/wonny/rollstitch/backend/internal/metrics"
	"github.com/wonny/rollstitch/backend/internal/multiple"
	"github.com/wonny/rollstitch/backend/internal/pipeline"
	"github.com/wonny/rollstitch/backend/internal/rollcal"
	"github.com/wonny/rollstitch/backend/internal/rollconfig"
	"github.com/wonny/rollstitch/backend/internal/source"
	"github.com/wonny/rollstitch/backend/internal/store"
	"github.com/wonny/rollstitch/backend/pkg/config"
	"github.com/wonny/rollstitch/backend/pkg/database"
	"github.com/wonny/rollstitch/backend/pkg/httputil"
	"github.com/wonny/rollstitch/backend/pkg/logger"
	"github.com/wonny/rollstitch/backend/pkg/redis"
)

// keyPrefix namespaces every Redis key of this service
const keyPrefix = "rollstitch"

// app holds the dependencies shared by the commands
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	roll    *rollconfig.Config
	source  contracts.ContractPriceSource
	list    func(ctx context.Context) ([]string, error)
	store   contracts.SeriesStore
	locker  *redis.Locker
	metrics *metrics.Registry

	db    *database.DB  // nil without DATABASE_URL
	redis *redis.Client // disabled unless REDIS_ENABLED
}

// loadConfig reads the environment and applies global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if rollConfigFile != "" {
		cfg.Pipeline.RollConfigPath = rollConfigFile
	}
	return cfg, nil
}

// newApp wires config, logger, price source and series store.
//
// Price source: PRICE_SOURCE=csv reads PRICE_DIR, PRICE_SOURCE=http reads
// PRICE_URL, PRICE_SOURCE=db reads futures.contract_prices. Series store:
// PostgreSQL whenever DATABASE_URL is set, otherwise in-memory. Redis (cache + write lock) wraps the store when
// REDIS_ENABLED.
func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Load roll config
	roll, _, err := rollconfig.Load(cfg.Pipeline.RollConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load roll config %s: %w", cfg.Pipeline.RollConfigPath, err)
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		roll:    roll,
		metrics: metrics.NewRegistry(),
	}

	// 4. Connect to database
	var base contracts.SeriesStore
	if cfg.Database.URL != "" {
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		if err := store.EnsureSchema(ctx, db.Pool); err != nil {
			a.close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		pg := store.NewPostgresStore(db)
		base = pg
		if cfg.Pipeline.Source == config.SourceDB {
			a.source = pg
			a.list = pg.ListInstruments
		}
	} else {
		log.Warn("DATABASE_URL not set, series are kept in memory only")
		base = store.NewMemoryStore()
	}

	// 5. Price source
	switch {
	case a.source != nil:
		// db source already set
	case cfg.Pipeline.Source == config.SourceHTTP:
		mirror := source.NewHTTPSource(cfg.Pipeline.PriceURL, httputil.New(cfg, log), log)
		a.source = mirror
		a.list = mirror.ListInstruments
	case cfg.Pipeline.Source == config.SourceDB:
		a.close()
		return nil, fmt.Errorf("PRICE_SOURCE=db requires DATABASE_URL")
	default:
		csv := source.NewCSVSource(cfg.Pipeline.PriceDir, log)
		a.source = csv
		a.list = csv.ListInstruments
	}

	// 6. Store layers: breaker → cache
	a.store = store.NewBreakerStore(base, store.DefaultBreakerConfig(), log)

	rc, err := redis.New(cfg)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rc
	if rc.Enabled() {
		a.store = store.NewCachedStore(a.store, redis.NewCache(rc, keyPrefix), log)
		a.locker = redis.NewLocker(rc, keyPrefix)
		log.Info("Redis cache and write lock enabled")
	}

	log.WithFields(map[string]interface{}{
		"source":      cfg.Pipeline.Source,
		"instruments": len(roll.Instruments),
		"persistent":  a.db != nil,
	}).Debug("Application initialized")

	return a, nil
}

// close releases connections
func (a *app) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

// instruments returns args when given, otherwise the configured instruments
// that have data in the price source
func (a *app) instruments(ctx context.Context, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	available, err := a.list(ctx)
	if err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}
	have := make(map[string]bool, len(available))
	for _, code := range available {
		have[code] = true
	}

	out := make([]string, 0, len(available))
	for _, code := range a.roll.Codes() {
		if have[code] {
			out = append(out, code)
			continue
		}
		a.log.WithInstrument(code).Debug("Configured instrument has no price data")
	}
	sort.Strings(out)
	return out, nil
}

// listAll returns every processable instrument
func (a *app) listAll(ctx context.Context) ([]string, error) {
	return a.instruments(ctx, nil)
}

// method resolves the global stitch method
func (a *app) method() (contracts.StitchMethod, error) {
	return contracts.ParseStitchMethod(a.cfg.Pipeline.StitchMethod)
}

// pipeline builds the S0-S4 pipeline
func (a *app) pipeline(rebuild bool) (*pipeline.Pipeline, error) {
	method, err := a.method()
	if err != nil {
		return nil, err
	}
	return pipeline.New(
		pipeline.Config{Method: method, Rebuild: rebuild},
		pipeline.Deps{
			Source:    a.source,
			Store:     a.store,
			Params:    a.roll,
			Generator: rollcal.NewGenerator(rollcal.DefaultConfig(), a.log),
			Builder:   multiple.NewBuilder(multiple.DefaultConfig(), a.log),
			Adjuster:  adjusted.NewStitcher(a.log),
			Locker:    a.locker,
			Metrics:   a.metrics,
		},
		a.log,
	), nil
}

// runner builds the multi-instrument batch runner
func (a *app) runner(rebuild bool) (*pipeline.Runner, error) {
	p, err := a.pipeline(rebuild)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(p, pipeline.RunnerConfig{
		Workers:       a.cfg.Pipeline.Workers,
		RatePerSecond: a.cfg.Pipeline.RatePerSecond,
	}, a.metrics, a.log), nil
}

// health pings the database and Redis when configured
func (a *app) health(ctx context.Context) error {
	if a.db != nil {
		if err := a.db.Ping(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}
