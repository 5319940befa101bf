package scheduler

import (
	"context"
	"testing"
	"time"

	"leadbot_backend/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	mr := miniredis.RunT(t)
	return &config.Config{
		RedisURL:      "redis://" + mr.Addr(),
		AsynqQueue:    "default",
		SweepInterval: time.Hour,
	}
}

func TestEnqueueIdleSweep(t *testing.T) {
	cfg := testConfig(t)

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	scheduledAt := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	if err := client.EnqueueIdleSweep(context.Background(), scheduledAt); err != nil {
		t.Fatalf("EnqueueIdleSweep: %v", err)
	}

	opt, err := redisClientOpt(cfg.RedisURL, false)
	if err != nil {
		t.Fatalf("redisClientOpt: %v", err)
	}
	inspector := asynq.NewInspector(opt)
	defer inspector.Close()

	pending, err := inspector.ListPendingTasks("default")
	if err != nil {
		t.Fatalf("ListPendingTasks: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending tasks = %d, want 1", len(pending))
	}

	task := pending[0]
	if task.Type != TaskIdleSweep {
		t.Errorf("task type = %q, want %q", task.Type, TaskIdleSweep)
	}
	if task.MaxRetry != 0 {
		t.Errorf("max retry = %d, want 0", task.MaxRetry)
	}

	payload, err := ParseIdleSweepPayload(asynq.NewTask(task.Type, task.Payload))
	if err != nil {
		t.Fatalf("ParseIdleSweepPayload: %v", err)
	}
	if !payload.ScheduledAt.Equal(scheduledAt) {
		t.Errorf("scheduled at = %v, want %v", payload.ScheduledAt, scheduledAt)
	}
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(&config.Config{}); err == nil {
		t.Fatal("expected an error without a redis url")
	}
}

func TestRedisClientOpt(t *testing.T) {
	opt, err := redisClientOpt("redis://:secret@localhost:6379/2", false)
	if err != nil {
		t.Fatalf("redisClientOpt: %v", err)
	}
	if opt.Addr != "localhost:6379" {
		t.Errorf("addr = %q", opt.Addr)
	}
	if opt.Password != "secret" {
		t.Errorf("password = %q", opt.Password)
	}
	if opt.DB != 2 {
		t.Errorf("db = %d, want 2", opt.DB)
	}
	if opt.TLSConfig != nil {
		t.Error("plain redis url must not carry TLS config")
	}

	insecure, err := redisClientOpt("rediss://localhost:6380", true)
	if err != nil {
		t.Fatalf("redisClientOpt tls: %v", err)
	}
	if insecure.TLSConfig == nil || !insecure.TLSConfig.InsecureSkipVerify {
		t.Error("expected InsecureSkipVerify TLS config")
	}
}
