package appcontext

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/RoyceAzure/lab/cartstore/internal/catalog"
	"github.com/RoyceAzure/lab/cartstore/internal/config"
	"github.com/RoyceAzure/lab/cartstore/internal/infra/producer"
	"github.com/RoyceAzure/lab/cartstore/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/cartstore/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/cartstore/internal/ratelimit"
	"github.com/RoyceAzure/lab/cartstore/internal/session"
	"github.com/RoyceAzure/lab/cartstore/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ApplicationContext wires every dependency of the server. Optional backends
// (redis, kafka, postgres) stay nil when they are not configured.
type ApplicationContext struct {
	Cf           *config.Config
	Logger       zerolog.Logger
	RedisClient  *redis.Client
	CartRepo     *redis_repo.CartRepo
	Producer     *producer.CartEventProducer
	DbDao        *db.DbDao
	ProductRepo  *db.ProductRepo
	Catalog      *catalog.Catalog
	Sessions     *session.Manager
	Limiter      ratelimit.Limiter
	localLimiter *ratelimit.LocalLimiter
}

func NewApplicationContext(ctx context.Context, cf *config.Config, logger zerolog.Logger) (*ApplicationContext, error) {
	app := &ApplicationContext{
		Cf:     cf,
		Logger: logger,
	}
	if err := app.Init(ctx); err != nil {
		app.Shutdown(context.Background())
		return nil, err
	}
	return app, nil
}

func (app *ApplicationContext) Init(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"redis", app.setUpRedis},
		{"event producer", app.setUpProducer},
		{"database", app.setUpDb},
		{"catalog", app.setUpCatalog},
		{"session manager", app.setUpSessions},
		{"rate limiter", app.setUpLimiter},
	}
	for _, step := range steps {
		app.Logger.Info().Msgf("Start setup %s", step.name)
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("setup %s: %w", step.name, err)
		}
		app.Logger.Info().Msgf("Finish setup %s", step.name)
	}
	return nil
}

func (app *ApplicationContext) setUpRedis(ctx context.Context) error {
	if !app.Cf.RedisEnabled() {
		app.Logger.Warn().Msg("REDIS_ADDR not set, cart snapshots stay in memory")
		return nil
	}
	client, err := redis_repo.NewClient(ctx, app.Cf.RedisAddr,
		redis_repo.WithPassword(app.Cf.RedisPassword),
		redis_repo.WithDB(app.Cf.RedisDB),
	)
	if err != nil {
		return err
	}
	app.RedisClient = client
	app.CartRepo = redis_repo.NewCartRepo(client)
	return nil
}

func (app *ApplicationContext) setUpProducer(context.Context) error {
	if !app.Cf.KafkaEnabled() {
		app.Logger.Warn().Msg("KAFKA_BROKERS or KAFKA_TOPIC not set, cart events are not published")
		return nil
	}
	app.Producer = producer.NewCartEventProducer(producer.Config{
		Brokers:    app.Cf.KafkaBrokers,
		Topic:      app.Cf.KafkaTopic,
		Partitions: app.Cf.KafkaPartitions,
	}, app.Logger)
	return nil
}

func (app *ApplicationContext) setUpDb(context.Context) error {
	if !app.Cf.DbEnabled() {
		app.Logger.Warn().Msg("POSTGRES_HOST not set, catalog served from seed file")
		return nil
	}
	conn, err := db.GetDbConn(app.Cf.DbName, app.Cf.DbHost, app.Cf.DbPort, app.Cf.DbUser, app.Cf.DbPas)
	if err != nil {
		return err
	}
	app.DbDao = db.NewDbDao(conn)
	if err := app.DbDao.InitMigrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	app.ProductRepo = db.NewProductRepo(app.DbDao)
	return nil
}

func (app *ApplicationContext) setUpCatalog(ctx context.Context) error {
	if app.ProductRepo != nil {
		if _, err := os.Stat(app.Cf.CatalogSeedFile); err == nil {
			n, err := catalog.SeedFromFile(ctx, app.ProductRepo, app.Cf.CatalogSeedFile)
			if err != nil {
				return err
			}
			app.Logger.Info().Int64("inserted", n).Msg("catalog seeded")
		}
		app.Catalog = catalog.New(app.ProductRepo)
		return nil
	}

	products, err := catalog.LoadSeed(app.Cf.CatalogSeedFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		app.Logger.Warn().Str("file", app.Cf.CatalogSeedFile).Msg("catalog seed file missing, catalog is empty")
	}
	app.Catalog = catalog.New(catalog.NewMemorySource(products))
	return nil
}

func (app *ApplicationContext) setUpSessions(context.Context) error {
	storeOpts := []store.Option{}
	if app.Cf.CartStrictValidation {
		storeOpts = append(storeOpts, store.WithStrictValidation())
	}
	if app.Producer != nil {
		storeOpts = append(storeOpts, store.WithPublisher(app.Producer))
	}

	opts := []session.Option{
		session.WithTTL(app.Cf.SessionTTL),
		session.WithLogger(app.Logger),
		session.WithStoreOptions(storeOpts...),
	}
	if app.CartRepo != nil {
		opts = append(opts, session.WithSnapshotRepo(app.CartRepo))
	}
	app.Sessions = session.NewManager(opts...)
	return nil
}

func (app *ApplicationContext) setUpLimiter(context.Context) error {
	cfg := ratelimit.Config{
		Key:      "cart",
		Capacity: app.Cf.RateLimitCapacity,
		RatePS:   app.Cf.RateLimitRate,
		IdleTTL:  app.Cf.SessionTTL,
	}
	if app.RedisClient != nil {
		app.Limiter = ratelimit.NewRedisLimiter(ratelimit.NewRedisBucket(app.RedisClient, cfg), app.Logger)
		return nil
	}
	app.localLimiter = ratelimit.NewLocalLimiter(cfg)
	app.Limiter = app.localLimiter
	return nil
}

// Shutdown closes what Init opened; errors are logged and do not stop the sequence.
func (app *ApplicationContext) Shutdown(ctx context.Context) {
	app.Logger.Info().Msg("Start application shutdown")

	if app.localLimiter != nil {
		app.localLimiter.Stop()
	}
	if app.Producer != nil {
		if err := app.Producer.Close(); err != nil {
			app.Logger.Error().Err(err).Msg("failed to close event producer")
		}
	}
	if app.RedisClient != nil {
		if err := app.RedisClient.Close(); err != nil {
			app.Logger.Error().Err(err).Msg("failed to close redis")
		}
	}
	if app.DbDao != nil {
		if err := app.DbDao.Close(); err != nil {
			app.Logger.Error().Err(err).Msg("failed to close database")
		}
	}

	select {
	case <-ctx.Done():
		app.Logger.Warn().Err(ctx.Err()).Msg("application shutdown timeout")
	default:
		app.Logger.Info().Msg("Finish application shutdown")
	}
}
