package audit

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"leadbot_backend/internal/events"
	"leadbot_backend/platform/logger"
)

func newCapturedTrail() (*Trail, *bytes.Buffer) {
	var buf bytes.Buffer
	log := &logger.Logger{Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	return New(log), &buf
}

func TestTrailLogsSubscribedEvents(t *testing.T) {
	trail, buf := newCapturedTrail()
	log := &logger.Logger{Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))}
	bus := events.NewInMemoryBus(log)
	trail.RegisterHandlers(bus)

	evt := events.LeadClaimed{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    "abc-1234",
		Owner:     "U-ALICE",
		OwnerName: "Alice",
	}
	if err := bus.PublishSync(context.Background(), evt); err != nil {
		t.Fatalf("PublishSync: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "lead claimed") {
		t.Errorf("log output missing claim entry: %q", out)
	}
	if !strings.Contains(out, "abc-1234") || !strings.Contains(out, "U-ALICE") {
		t.Errorf("log output missing lead fields: %q", out)
	}
}

func TestTrailCoversAllLifecycleEvents(t *testing.T) {
	trail, buf := newCapturedTrail()

	lifecycle := []events.Event{
		events.LeadIngested{BaseEvent: events.NewBaseEvent(), LeadID: "abc-1", Name: "Jane Doe", ChannelID: "C-LEADS", ThreadTS: "1700000000.000100"},
		events.LeadClaimed{BaseEvent: events.NewBaseEvent(), LeadID: "abc-1", Owner: "U-ALICE"},
		events.LeadStageChanged{BaseEvent: events.NewBaseEvent(), LeadID: "abc-1", FromStage: "Claimed", ToStage: "Contacted", ChangedBy: "U-ALICE"},
		events.LeadEscalated{BaseEvent: events.NewBaseEvent(), LeadID: "abc-1", EscalatedBy: "U-ALICE", ChannelID: "C-DEAL"},
		events.IdleReminderSent{BaseEvent: events.NewBaseEvent(), LeadID: "abc-1", Owner: "U-ALICE"},
	}
	for _, evt := range lifecycle {
		if err := trail.Handle(context.Background(), evt); err != nil {
			t.Fatalf("Handle(%s): %v", evt.EventName(), err)
		}
	}

	out := buf.String()
	for _, entry := range []string{
		"lead ingested",
		"lead claimed",
		"lead stage changed",
		"lead escalated",
		"idle reminder sent",
	} {
		if !strings.Contains(out, entry) {
			t.Errorf("log output missing %q entry", entry)
		}
	}
	if strings.Contains(out, "unhandled event type") {
		t.Errorf("lifecycle event fell through to the default branch: %q", out)
	}
}
