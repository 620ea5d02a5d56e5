package cmd

import (
	"context"
	"time"

	httpadapter "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/inventory"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/postgres/outboxrepo"
	redisadapter "dispatch/internal/adapters/out/redis"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/ports"
	"dispatch/internal/jobs"
	"dispatch/internal/pkg/logger"
	"dispatch/internal/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	backend "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CompositionRoot wires adapters into use cases. Redis is optional: a nil
// client disables the vehicle locker and the outbox relay.
type CompositionRoot struct {
	cfg       Config
	db        *gorm.DB
	redis     backend.UniversalClient
	log       *logger.Logger
	clock     commands.Clock
	factories commands.Factories

	registry        *prometheus.Registry
	dispatchMetrics *metrics.Dispatch
	jobMetrics      *metrics.Jobs
	httpMetrics     *metrics.HTTP

	fulfillment ports.ExternalFulfillment
	auth        *httpadapter.Authenticator
}

type Option func(*CompositionRoot)

// WithExternalFulfillment replaces the HTTP inventory client.
func WithExternalFulfillment(f ports.ExternalFulfillment) Option {
	return func(c *CompositionRoot) {
		c.fulfillment = f
	}
}

func NewCompositionRoot(
	cfg Config,
	db *gorm.DB,
	redisClient backend.UniversalClient,
	log *logger.Logger,
	opts ...Option,
) (*CompositionRoot, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c := &CompositionRoot{
		cfg:             cfg,
		db:              db,
		redis:           redisClient,
		log:             log,
		clock:           commands.SystemClock(loc),
		factories:       commands.FactoriesFrom(postgres.NewGormUnitOfWorkFactory(db)),
		registry:        registry,
		dispatchMetrics: metrics.NewDispatch(registry),
		jobMetrics:      metrics.NewJobs(registry),
		httpMetrics:     metrics.NewHTTP(registry),
		auth:            httpadapter.NewAuthenticator(cfg.JWTSecret),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fulfillment == nil {
		c.fulfillment = inventory.NewClient(cfg.InventoryBaseURL, cfg.InventoryTimeout,
			inventory.WithToken(cfg.InventoryToken))
	}
	return c, nil
}

func (c *CompositionRoot) Registry() *prometheus.Registry {
	return c.registry
}

// vehicleLocker returns an untyped nil without Redis so the checkout gate
// sees no locker at all.
func (c *CompositionRoot) vehicleLocker() ports.VehicleLocker {
	if c.redis == nil {
		return nil
	}
	return redisadapter.NewVehicleLocker(redisadapter.NewLocker(c.redis, c.cfg.RedisPrefix))
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.factories.Orders, c.clock)
}

func (c *CompositionRoot) CreateUpsertOrderSnapshotCommandHandler() commands.UpsertOrderSnapshotCommandHandler {
	return commands.NewUpsertOrderSnapshotCommandHandler(c.factories.Orders, c.clock)
}

func (c *CompositionRoot) CreateTransitionOrderCommandHandler() commands.TransitionOrderCommandHandler {
	return commands.NewTransitionOrderCommandHandler(c.factories.Orders, c.clock)
}

func (c *CompositionRoot) CreateBulkTransitionOrdersCommandHandler() commands.BulkTransitionOrdersCommandHandler {
	return commands.NewBulkTransitionOrdersCommandHandler(c.factories.Orders, c.clock)
}

func (c *CompositionRoot) CreateProcessRemaindersCommandHandler() commands.ProcessRemaindersCommandHandler {
	return commands.NewProcessRemaindersCommandHandler(c.factories.Orders, c.clock)
}

func (c *CompositionRoot) CreateCheckoutVehicleCommandHandler() commands.CheckoutVehicleCommandHandler {
	return commands.NewCheckoutVehicleCommandHandler(c.factories.Vehicles, c.vehicleLocker(), c.clock, c.dispatchMetrics)
}

func (c *CompositionRoot) CreateCheckinVehicleCommandHandler() commands.CheckinVehicleCommandHandler {
	return commands.NewCheckinVehicleCommandHandler(c.factories.Vehicles, c.vehicleLocker(), c.clock, c.dispatchMetrics)
}

func (c *CompositionRoot) CreateCreateRunCommandHandler() commands.CreateRunCommandHandler {
	return commands.NewCreateRunCommandHandler(c.factories.All, c.clock, c.log.Component("runs"), c.dispatchMetrics)
}

func (c *CompositionRoot) CreateFinishRunCommandHandler() commands.FinishRunCommandHandler {
	return commands.NewFinishRunCommandHandler(c.factories.All, c.fulfillment, c.clock, commands.FinishRunOptions{
		Concurrency: c.cfg.FulfillmentConcurrency,
		CallTimeout: c.cfg.FulfillmentTimeout,
	}, c.log.Component("runs"), c.dispatchMetrics)
}

func (c *CompositionRoot) CreateCancelRunCommandHandler() commands.CancelRunCommandHandler {
	return commands.NewCancelRunCommandHandler(c.factories.All, c.clock, c.log.Component("runs"), c.dispatchMetrics)
}

func (c *CompositionRoot) CreateGetVehicleStatusQueryHandler() queries.GetVehicleStatusQueryHandler {
	return queries.NewGetVehicleStatusQueryHandler(c.db)
}

func (c *CompositionRoot) CreateGetActiveRunsQueryHandler() queries.GetActiveRunsQueryHandler {
	return queries.NewGetActiveRunsQueryHandler(c.db)
}

// CreateEcho builds the HTTP server with every route registered.
func (c *CompositionRoot) CreateEcho() *echo.Echo {
	e := httpadapter.NewEcho(c.log.Component("http"), c.httpMetrics)
	httpadapter.RegisterOps(e, c.registry)

	server := httpadapter.NewServer(httpadapter.Handlers{
		CreateOrder:         c.CreateCreateOrderCommandHandler(),
		UpsertOrderSnapshot: c.CreateUpsertOrderSnapshotCommandHandler(),
		TransitionOrder:     c.CreateTransitionOrderCommandHandler(),
		BulkTransition:      c.CreateBulkTransitionOrdersCommandHandler(),
		ProcessRemainders:   c.CreateProcessRemaindersCommandHandler(),
		CheckoutVehicle:     c.CreateCheckoutVehicleCommandHandler(),
		CheckinVehicle:      c.CreateCheckinVehicleCommandHandler(),
		CreateRun:           c.CreateCreateRunCommandHandler(),
		FinishRun:           c.CreateFinishRunCommandHandler(),
		CancelRun:           c.CreateCancelRunCommandHandler(),
		VehicleStatus:       c.CreateGetVehicleStatusQueryHandler(),
		ActiveRuns:          c.CreateGetActiveRunsQueryHandler(),
	}, c.auth, c.clock)
	server.Register(e)
	return e
}

// CreateJobManager returns the background jobs. Without Redis there is no
// publisher and the manager holds no jobs.
func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	if c.redis == nil {
		c.log.Warn(context.Background(), "redis not configured, outbox relay disabled")
		return jobs.NewJobManager(c.log)
	}
	relay := jobs.NewOutboxRelayJob(
		outboxrepo.NewGormOutboxRepository(c.db),
		redisadapter.NewEventPublisher(c.redis, c.cfg.EventChannelPrefix),
		redisadapter.NewLocker(c.redis, c.cfg.RedisPrefix),
		jobs.OutboxRelayOptions{
			Schedule:    c.cfg.OutboxSchedule,
			BatchSize:   c.cfg.OutboxBatchSize,
			MaxAttempts: c.cfg.OutboxMaxAttempts,
			Timeout:     30 * time.Second,
		},
		c.log,
		c.jobMetrics,
	)
	return jobs.NewJobManager(c.log, relay)
}
