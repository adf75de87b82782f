// Package app assembles the service graph from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"event-ticketing-manager/internal/clock"
	"event-ticketing-manager/internal/config"
	"event-ticketing-manager/internal/database"
	"event-ticketing-manager/internal/handlers"
	"event-ticketing-manager/internal/middleware"
	"event-ticketing-manager/internal/models"
	"event-ticketing-manager/internal/monitoring"
	"event-ticketing-manager/internal/repositories/filestore"
	"event-ticketing-manager/internal/repositories/sqlstore"
	"event-ticketing-manager/internal/services"
)

// App holds the wired services and the resources they own.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *monitoring.Metrics

	Events  *services.EventService
	Users   *services.UserService
	Tickets *services.TicketService
	Sweep   *services.SweepService

	closers []func() error
}

// Option adjusts how the graph is built.
type Option func(*buildOptions)

type buildOptions struct {
	clock clock.Clock
}

// WithClock replaces the real clock.
func WithClock(c clock.Clock) Option {
	return func(o *buildOptions) { o.clock = c }
}

type repositories struct {
	events  services.EventRepository
	users   services.UserRepository
	tickets services.TicketRepository
}

// New opens the configured repository backend and builds every service on
// top of it. Call Close when done.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	bo := buildOptions{clock: clock.Real(cfg.Lifecycle.BusinessZone)}
	for _, opt := range opts {
		opt(&bo)
	}

	a := &App{Config: cfg, Logger: logger}

	repos, err := a.openRepositories(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	locker, err := a.newLocker(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Metrics = monitoring.NewMetrics()
	serviceOpts := []services.Option{
		services.WithPolicy(Policy(cfg.Lifecycle)),
		services.WithLocker(locker),
		services.WithMetrics(a.Metrics),
		services.WithLogger(logger),
	}

	a.Events = services.NewEventService(repos.events, repos.tickets, bo.clock, serviceOpts...)
	a.Users = services.NewUserService(repos.users, bo.clock, serviceOpts...)
	a.Tickets = services.NewTicketService(repos.tickets, repos.events, repos.users, bo.clock, serviceOpts...)
	a.Sweep = services.NewSweepService(repos.tickets, repos.events, bo.clock, serviceOpts...)

	if err := a.registerMockUsers(ctx); err != nil {
		a.Close()
		return nil, err
	}

	logger.Info("service graph ready",
		"repository", cfg.Database.Type,
		"distributed_lock", cfg.Redis.Addr != "",
	)
	return a, nil
}

// registerMockUsers stores the fixed session callers so that reservations
// made on their behalf pass the user check.
func (a *App) registerMockUsers(ctx context.Context) error {
	for _, user := range middleware.MockUsers() {
		_, err := a.Users.EnsureUser(ctx, &user)
		switch {
		case err == nil:
		case errors.Is(err, models.ErrEmailInUse):
			a.Logger.Warn("mock user email taken by another user; caller reservations will be rejected",
				"user_id", user.ID, "email", user.Email)
		default:
			return fmt.Errorf("failed to register mock user %s: %w", user.Code, err)
		}
	}
	return nil
}

// Policy converts the lifecycle settings into the service policy.
func Policy(cfg config.LifecycleConfig) services.LifecyclePolicy {
	return services.LifecyclePolicy{
		EnforceReservationWindow: cfg.EnforceReservationWindow,
		EnforcePaymentWindow:     cfg.EnforcePaymentWindow,
		EnforceValidationWindow:  cfg.EnforceValidationWindow,
		CertificationLead:        cfg.CertificationLead,
		ReservationTTL:           cfg.ReservationTTL,
		EventDuration:            cfg.EventDuration,
	}
}

// Handler builds the HTTP surface over the services.
func (a *App) Handler() http.Handler {
	secure := a.Config.Server.Env == "production"
	auth := middleware.NewAuthMiddleware(middleware.NewCookieStore(a.Config.Server.SessionSecret, secure), a.Logger)

	return handlers.NewRouter(handlers.RouterConfig{
		Events:  handlers.NewEventHandler(a.Events, a.Tickets, a.Logger),
		Users:   handlers.NewUserHandler(a.Users, a.Logger),
		Tickets: handlers.NewTicketHandler(a.Tickets, a.Sweep, a.Logger),
		Auth:    auth,
		Metrics: a.Metrics.Handler(),
		Logger:  a.Logger,
	})
}

// Close releases the backend and Redis connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) openRepositories(ctx context.Context) (*repositories, error) {
	cfg := a.Config.Database

	if cfg.Type == config.RepositoryFile {
		store, err := filestore.Open(a.Config.Storage.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open file store: %w", err)
		}
		a.Logger.Info("using file repositories", "dir", a.Config.Storage.DataDir)
		return &repositories{events: store.Events(), users: store.Users(), tickets: store.Tickets()}, nil
	}

	dialect, err := database.ParseDialect(cfg.Type)
	if err != nil {
		return nil, err
	}

	db, err := database.NewConnection(DatabaseConfig(cfg, dialect))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)

	if cfg.AutoMigrate {
		if err := database.NewMigrator(db.DB, dialect, a.Logger).RunMigrations(ctx); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	store, err := sqlstore.New(db.DB, dialect)
	if err != nil {
		return nil, err
	}
	if err := store.VerifyLookupTables(ctx); err != nil {
		return nil, fmt.Errorf("lookup tables do not match the enums: %w", err)
	}

	a.Logger.Info("using SQL repositories", "dialect", dialect)
	return &repositories{events: store.Events(), users: store.Users(), tickets: store.Tickets()}, nil
}

// DatabaseConfig converts the database settings for dialect.
func DatabaseConfig(cfg config.DatabaseConfig, dialect database.Dialect) database.Config {
	return database.Config{
		Dialect:         dialect,
		URL:             cfg.URL,
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		DBName:          cfg.DBName,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}
}

func (a *App) newLocker(ctx context.Context) (services.Locker, error) {
	cfg := a.Config.Redis
	if cfg.Addr == "" {
		if a.Config.Database.Type != config.RepositoryFile {
			a.Logger.Warn("REDIS_ADDR is not set; reservations are serialized in this process only. " +
				"Run a single instance against this database or configure Redis.")
		}
		return services.NewLocalLocker(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	a.closers = append(a.closers, client.Close)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return services.NewRedisLocker(client, services.RedisLockerConfig{
		Prefix:  "ticketing:lock:",
		TTL:     cfg.LockTTL,
		MaxWait: cfg.LockMaxWait,
	}, a.Logger), nil
}
