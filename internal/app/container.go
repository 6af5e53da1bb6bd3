package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/stationbook/internal/booking/application/commands"
	"github.com/felixgeelhaar/stationbook/internal/booking/application/queries"
	bookingServices "github.com/felixgeelhaar/stationbook/internal/booking/application/services"
	bookingDomain "github.com/felixgeelhaar/stationbook/internal/booking/domain"
	catalogCommands "github.com/felixgeelhaar/stationbook/internal/catalog/application/commands"
	catalogQueries "github.com/felixgeelhaar/stationbook/internal/catalog/application/queries"
	catalogDomain "github.com/felixgeelhaar/stationbook/internal/catalog/domain"
	scheduleCommands "github.com/felixgeelhaar/stationbook/internal/scheduling/application/commands"
	scheduleQueries "github.com/felixgeelhaar/stationbook/internal/scheduling/application/queries"
	schedulingServices "github.com/felixgeelhaar/stationbook/internal/scheduling/application/services"
	schedulingDomain "github.com/felixgeelhaar/stationbook/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/stationbook/internal/shared/application"
	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/cache"
	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/distlock"
	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/stationbook/pkg/config"
	"github.com/felixgeelhaar/stationbook/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis. Nil when locks and cache stay in process.
	RedisClient *redis.Client

	// Observability
	MetricsRegistry *prometheus.Registry
	Metrics         observability.Metrics
	Health          *observability.HealthRegistry

	// Repositories
	StationRepo     catalogDomain.StationRepository
	ServiceRepo     catalogDomain.ServiceRepository
	RuleRepo        schedulingDomain.RuleRepository
	ReservationRepo bookingDomain.ReservationRepository
	OutboxRepo      outbox.Repository

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Publishers
	EventPublisher eventbus.Publisher

	// Concurrency control
	Locker            *distlock.Locker
	CacheStore        cache.Store
	SlotLocks         *bookingServices.SlotLockManager
	AvailabilityCache *bookingServices.AvailabilityCache
	CodeIssuer        *bookingServices.CodeIssuer

	// Booking engine
	ScheduleResolver *schedulingServices.ScheduleResolver
	SlotGenerator    *bookingServices.SlotGenerator
	Coordinator      *commands.Coordinator

	// Catalog handlers
	CreateStationHandler *catalogCommands.CreateStationHandler
	CreateServiceHandler *catalogCommands.CreateServiceHandler
	ListStationsHandler  *catalogQueries.ListStationsHandler
	ListServicesHandler  *catalogQueries.ListServicesHandler

	// Schedule handlers
	AddRuleHandler         *scheduleCommands.AddRuleHandler
	ResolveScheduleHandler *scheduleQueries.ResolveScheduleHandler

	// Booking query handlers
	GenerateSlotsHandler        *queries.GenerateSlotsHandler
	GetReservationHandler       *queries.GetReservationHandler
	GetReservationByCodeHandler *queries.GetReservationByCodeHandler

	// Outbox Processor
	OutboxProcessor *outbox.Processor
}

// NewContainer creates and wires all dependencies. An empty DATABASE_URL
// selects the local SQLite file, which is migrated on open; Postgres
// schemas are applied with the migrate command. Redis and RabbitMQ are
// optional: without them locks and cache stay in process and events wait
// in the outbox.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config: cfg,
		Logger: logger,
	}
	policy := cfg.BookingPolicy()

	conn, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c.DBConn = conn
	c.DBDriver = conn.Driver()

	if c.DBDriver == database.DriverSQLite {
		applied, err := migrations.Run(ctx, conn)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to migrate SQLite database: %w", err)
		}
		if len(applied) > 0 {
			logger.Info("applied migrations", "versions", applied)
		}
	}

	if err := c.connectRedis(ctx); err != nil {
		c.Close()
		return nil, err
	}

	// Metrics
	c.MetricsRegistry = prometheus.NewRegistry()
	c.MetricsRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.Metrics = observability.NewPrometheusMetrics(c.MetricsRegistry)

	// Create repositories using factory
	factory := NewRepositoryFactory(conn)
	repos, err := factory.Repositories()
	if err != nil {
		c.Close()
		return nil, err
	}
	c.StationRepo = repos.Stations
	c.ServiceRepo = repos.Services
	c.RuleRepo = repos.Rules
	c.ReservationRepo = repos.Reservations
	c.OutboxRepo = repos.Outbox
	c.UnitOfWork = factory.UnitOfWork()

	// Create event publisher
	c.EventPublisher, err = newPublisher(cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	// Create lock and cache backends
	var (
		backend distlock.Backend
		store   cache.Store
	)
	if c.RedisClient != nil {
		backend = distlock.NewRedisBackend(c.RedisClient)
		store = cache.NewRedisStore(c.RedisClient, cache.BreakerConfig{
			FailureThreshold: uint32(max(cfg.CacheBreakerFailures, 0)),
			Timeout:          cfg.CacheBreakerTimeout,
			MaxRequests:      1,
		}, logger)
	} else {
		backend = distlock.NewMemoryBackend()
		store = cache.NewMemoryStore()
	}
	c.Locker = distlock.NewLocker(backend, policy.LockRetryInterval, logger)
	c.CacheStore = store

	// Create booking services
	window := bookingServices.BookingWindow{
		MinAdvance: policy.MinAdvance,
		MaxAdvance: policy.MaxAdvance,
	}
	c.ScheduleResolver = schedulingServices.NewScheduleResolver(c.StationRepo, c.RuleRepo, policy.Location, logger)
	c.SlotLocks = bookingServices.NewSlotLockManager(c.Locker, policy.LockWaitTimeout, policy.LockLease, c.Metrics, logger)
	c.AvailabilityCache = bookingServices.NewAvailabilityCache(store, policy.CacheTTL, c.Metrics, logger)
	c.CodeIssuer = bookingServices.NewCodeIssuer(bookingDomain.RandomCodeGenerator{}, c.ReservationRepo, logger)
	c.SlotGenerator = bookingServices.NewSlotGenerator(
		c.ScheduleResolver,
		c.ServiceRepo,
		c.ReservationRepo,
		c.AvailabilityCache,
		window,
		policy.SlotStep,
		logger,
	)
	c.Coordinator = commands.NewCoordinator(commands.Dependencies{
		UnitOfWork:   c.UnitOfWork,
		Stations:     c.StationRepo,
		Services:     c.ServiceRepo,
		Reservations: c.ReservationRepo,
		Outbox:       c.OutboxRepo,
		Schedules:    c.ScheduleResolver,
		Locks:        c.SlotLocks,
		Cache:        c.AvailabilityCache,
		Codes:        c.CodeIssuer,
		Metrics:      c.Metrics,
	}, window, logger)

	// Create catalog handlers
	c.CreateStationHandler = catalogCommands.NewCreateStationHandler(c.StationRepo)
	c.CreateServiceHandler = catalogCommands.NewCreateServiceHandler(c.ServiceRepo)
	c.ListStationsHandler = catalogQueries.NewListStationsHandler(c.StationRepo)
	c.ListServicesHandler = catalogQueries.NewListServicesHandler(c.ServiceRepo)

	// Create schedule handlers
	c.AddRuleHandler = scheduleCommands.NewAddRuleHandler(c.StationRepo, c.RuleRepo, c.AvailabilityCache, logger)
	c.ResolveScheduleHandler = scheduleQueries.NewResolveScheduleHandler(c.ScheduleResolver)

	// Create booking query handlers
	c.GenerateSlotsHandler = queries.NewGenerateSlotsHandler(c.SlotGenerator, policy.Location)
	c.GetReservationHandler = queries.NewGetReservationHandler(c.ReservationRepo)
	c.GetReservationByCodeHandler = queries.NewGetReservationByCodeHandler(c.ReservationRepo)

	// Create outbox processor
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, processorConfig(cfg), logger).
		WithMetrics(c.Metrics)

	c.Health = c.newHealthRegistry()

	logger.Info("container initialized",
		"driver", c.DBDriver.String(),
		"redis", c.RedisClient != nil,
		"timezone", policy.Location.String(),
	)
	return c, nil
}

// processorConfig overlays the configured outbox settings on the defaults.
func processorConfig(cfg *config.Config) outbox.ProcessorConfig {
	pc := outbox.DefaultProcessorConfig()
	if cfg.OutboxPollInterval > 0 {
		pc.PollInterval = cfg.OutboxPollInterval
	}
	if cfg.OutboxBatchSize > 0 {
		pc.BatchSize = cfg.OutboxBatchSize
	}
	if cfg.OutboxMaxRetries > 0 {
		pc.MaxRetries = cfg.OutboxMaxRetries
	}
	return pc
}

func openDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (database.Connection, error) {
	dbCfg := database.Config{
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	}
	conn, err := database.NewConnection(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("connected to database", "driver", conn.Driver().String())
	return conn, nil
}

// connectRedis connects to REDIS_URL when set. In development an unreachable
// Redis falls back to the in-process backends.
func (c *Container) connectRedis(ctx context.Context) error {
	if c.Config.RedisURL == "" {
		c.Logger.Info("Redis not configured, using in-process locks and cache")
		return nil
	}

	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		c.Logger.Warn("invalid Redis URL, using in-process locks and cache", "error", err)
		return nil
	}

	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, using in-process locks and cache", "error", err)
		return nil
	}

	c.RedisClient = client
	c.Logger.Info("connected to Redis")
	return nil
}

// newPublisher connects to RABBITMQ_URL when set. Without a broker events
// stay in the outbox until a worker with a broker relays them.
func newPublisher(cfg *config.Config, logger *slog.Logger) (eventbus.Publisher, error) {
	if cfg.RabbitMQURL == "" {
		return eventbus.NewNoopPublisher(logger), nil
	}
	publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
	if err != nil {
		if cfg.IsDevelopment() {
			logger.Warn("RabbitMQ not available, using noop publisher", "error", err)
			return eventbus.NewNoopPublisher(logger), nil
		}
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return publisher, nil
}

func (c *Container) newHealthRegistry() *observability.HealthRegistry {
	health := observability.NewHealthRegistry()
	health.Register("database", observability.DatabaseHealthChecker(c.DBConn.Ping))
	if c.RedisClient != nil {
		health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
			return c.RedisClient.Ping(ctx).Err()
		}))
	}
	if rabbit, ok := c.EventPublisher.(*eventbus.RabbitMQPublisher); ok {
		health.Register("rabbitmq", observability.RabbitMQHealthChecker(rabbit.Ping))
	}
	return health
}

// Migrate applies pending schema migrations and returns their versions.
func (c *Container) Migrate(ctx context.Context) ([]string, error) {
	return migrations.Run(ctx, c.DBConn)
}

// Close releases all resources held by the container.
func (c *Container) Close() {
	if c.OutboxProcessor != nil && c.OutboxProcessor.IsRunning() {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err, "driver", c.DBDriver.String())
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBDriver.String())
		}
	}
}
