// Package app builds the service graph shared by the binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"helpinvest/internal/cache"
	"helpinvest/internal/codec"
	"helpinvest/internal/config"
	"helpinvest/internal/database"
	"helpinvest/internal/events"
	"helpinvest/internal/logger"
	"helpinvest/internal/services"
)

// App holds the opened resources and the services built on them.
type App struct {
	Config   *config.Config
	Database *database.Manager

	Users      services.UserServicer
	Categories services.CategoryServicer
	Ledger     services.LedgerServicer
	Advisor    services.AdvisorServicer
	Snapshots  services.PortfolioSnapshotServicer
	Audit      services.AuditServicer

	redis *cache.Redis
	amqp  *events.AMQPClient
}

// New connects to the database and the optional Redis and AMQP backends and
// wires the services. Migrations are not run here.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.Get()

	amounts, err := codec.New(cfg.MonetaryEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build amount codec: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}

	a := &App{Config: cfg, Database: dbManager}

	var summaries cache.Cache = cache.Nop{}
	if cfg.RedisAddr != "" {
		r := cache.NewRedis(cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB))
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := r.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Warnw("redis unreachable, summary cache disabled", "addr", cfg.RedisAddr, "error", err)
			_ = r.Close()
		} else {
			a.redis = r
			summaries = r
			log.Infow("summary cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.SummaryCacheTTL)
		}
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		client, err := events.NewAMQPClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			log.Warnw("amqp unreachable, ledger events disabled", "error", err)
		} else {
			a.amqp = client
			publisher = client
			log.Infow("ledger events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	db := dbManager.DB()
	a.Categories = services.NewCategoryService(db)
	a.Users = services.NewUserService(db, summaries)
	a.Ledger = services.NewLedgerService(db, amounts, a.Categories,
		services.WithSummaryCache(summaries, cfg.SummaryCacheTTL),
		services.WithPublisher(publisher),
	)
	a.Advisor = services.NewAdvisorService(a.Ledger, a.Users)
	a.Snapshots = services.NewPortfolioSnapshotService(db, a.Ledger, amounts, cfg.SnapshotConcurrency)
	a.Audit = services.NewAuditService(db)

	return a, nil
}

// Migrate brings the schema up to date and seeds the category taxonomy.
func (a *App) Migrate(ctx context.Context) error {
	if err := a.Database.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	if _, err := a.Categories.Seed(ctx); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	return nil
}

// Events returns the AMQP client, or nil when AMQP is not configured.
func (a *App) Events() *events.AMQPClient {
	return a.amqp
}

// Close releases every opened backend.
func (a *App) Close() error {
	var errs []error
	if a.amqp != nil {
		errs = append(errs, a.amqp.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	errs = append(errs, a.Database.Close())
	return errors.Join(errs...)
}
