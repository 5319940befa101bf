package scheduler

import (
	"context"
	"fmt"
	"time"

	"leadbot_backend/internal/config"
	"leadbot_backend/internal/sweep"
	"leadbot_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	sweeper *sweep.Sweeper
	log     *logger.Logger
}

func NewWorker(cfg *config.Config, sweeper *sweep.Sweeper, log *logger.Logger) (*Worker, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(cfg.RedisURL, cfg.RedisTLSInsecure)
	if err != nil {
		return nil, err
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 1,
		Queues: map[string]int{
			cfg.AsynqQueue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		sweeper: sweeper,
		log:     log,
	}

	mux.HandleFunc(TaskIdleSweep, w.handleIdleSweep)

	return w, nil
}

func (w *Worker) handleIdleSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseIdleSweepPayload(task)
	if err != nil {
		return err
	}

	now := payload.ScheduledAt
	if now.IsZero() {
		now = time.Now()
	}

	w.log.Info("running idle lead sweep", "scheduled_at", now)
	return w.sweeper.Sweep(ctx, now)
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
