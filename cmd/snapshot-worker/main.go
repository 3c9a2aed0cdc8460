// Command snapshot-worker records a fresh portfolio snapshot whenever a ledger
// event arrives on the AMQP queue.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"helpinvest/internal/app"
	"helpinvest/internal/config"
	apperrors "helpinvest/internal/errors"
	"helpinvest/internal/events"
	"helpinvest/internal/logger"
	"helpinvest/internal/services"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Named("snapshot-worker")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warnw("error closing resources", "error", err)
		}
	}()

	client := a.Events()
	if client == nil {
		return errors.New("AMQP broker unreachable")
	}

	err = client.Consume(ctx, snapshotHandler(a.Users, a.Snapshots))
	if errors.Is(err, context.Canceled) {
		log.Info("Shutting down")
		return nil
	}
	return err
}

// snapshotHandler records a snapshot for the user behind each event, stamped
// with the event time. Events for deleted users are acknowledged and skipped.
func snapshotHandler(users services.UserServicer, snapshots services.PortfolioSnapshotServicer) events.Handler {
	log := logger.Named("snapshot-worker")
	return func(ctx context.Context, event events.LedgerEvent) error {
		if _, err := users.GetUserByID(event.UserID); err != nil {
			if errors.Is(err, apperrors.ErrUserNotFound) {
				log.Infow("skipping event for unknown user", "user_id", event.UserID, "event", event.Type)
				return nil
			}
			return err
		}
		snap, err := snapshots.RecordUserSnapshot(ctx, event.UserID, event.OccurredAt)
		if err != nil {
			return err
		}
		log.Infow("snapshot recorded",
			"user_id", event.UserID,
			"event", event.Type,
			"recorded_at", snap.RecordedAt,
		)
		return nil
	}
}
