package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadbot_backend/internal/audit"
	"leadbot_backend/internal/config"
	"leadbot_backend/internal/events"
	"leadbot_backend/internal/lifecycle/repository"
	"leadbot_backend/internal/scheduler"
	"leadbot_backend/internal/slack"
	"leadbot_backend/internal/sweep"
	"leadbot_backend/platform/db"
	"leadbot_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	audit.New(log).RegisterHandlers(eventBus)
	gateway := slack.NewClient(cfg.SlackAPIBaseURL, cfg.SlackBotToken, log)

	sweeper := sweep.New(repository.New(pool), gateway, eventBus, sweep.Config{
		IdleThreshold:   cfg.IdleThreshold,
		RepeatReminders: cfg.ReminderRepeat,
		TeamID:          cfg.SlackTeamID,
	}, log)

	dispatcher, err := scheduler.NewSweepDispatcher(cfg, log)
	if err != nil {
		log.Error("failed to initialize sweep dispatcher", "error", err)
		panic("failed to initialize sweep dispatcher: " + err.Error())
	}
	defer func() { _ = dispatcher.Close() }()

	worker, err := scheduler.NewWorker(cfg, sweeper, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dispatcher.Run(gctx)
		return nil
	})
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("scheduler stopped", "error", err)
	}
	log.Info("scheduler shut down")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
