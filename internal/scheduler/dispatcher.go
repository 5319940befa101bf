package scheduler

import (
	"context"
	"time"

	"leadbot_backend/internal/config"
	"leadbot_backend/platform/logger"
)

// SweepDispatcher enqueues an idle sweep task on every interval tick. It is
// kept separate from the worker so either can run in its own process.
type SweepDispatcher struct {
	client   *Client
	interval time.Duration
	log      *logger.Logger
}

func NewSweepDispatcher(cfg *config.Config, log *logger.Logger) (*SweepDispatcher, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	return &SweepDispatcher{
		client:   client,
		interval: cfg.SweepInterval,
		log:      log,
	}, nil
}

func (d *SweepDispatcher) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	return d.client.Close()
}

func (d *SweepDispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil {
		return
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := d.client.EnqueueIdleSweep(ctx, time.Now()); err != nil {
			d.log.Warn("failed to enqueue idle sweep", "error", err)
			continue
		}
		d.log.Info("idle sweep enqueued")
	}
}
