// Package audit records the lead lifecycle as a structured activity log.
// It subscribes to the domain events published by the lifecycle service and
// the idle sweep, giving operators a single stream to trace what happened to
// a lead and when.
package audit

import (
	"context"

	"leadbot_backend/internal/events"
	"leadbot_backend/platform/logger"
)

// Trail writes an audit log entry for every lead lifecycle event.
type Trail struct {
	log *logger.Logger
}

func New(log *logger.Logger) *Trail {
	return &Trail{log: log}
}

// RegisterHandlers subscribes to all lead lifecycle events on the event bus.
func (t *Trail) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.LeadIngested{}.EventName(), t)
	bus.Subscribe(events.LeadClaimed{}.EventName(), t)
	bus.Subscribe(events.LeadStageChanged{}.EventName(), t)
	bus.Subscribe(events.LeadEscalated{}.EventName(), t)
	bus.Subscribe(events.IdleReminderSent{}.EventName(), t)

	t.log.Info("audit trail registered event handlers")
}

// Handle routes events to the appropriate log entry.
func (t *Trail) Handle(ctx context.Context, event events.Event) error {
	log := t.log.WithContext(ctx)

	switch e := event.(type) {
	case events.LeadIngested:
		log.Info("lead ingested",
			"lead_id", e.LeadID,
			"name", e.Name,
			"source", e.Source,
			"channel", e.ChannelID,
			"thread_ts", e.ThreadTS,
		)
	case events.LeadClaimed:
		log.Info("lead claimed",
			"lead_id", e.LeadID,
			"owner", e.Owner,
			"owner_name", e.OwnerName,
		)
	case events.LeadStageChanged:
		log.Info("lead stage changed",
			"lead_id", e.LeadID,
			"from", e.FromStage,
			"to", e.ToStage,
			"changed_by", e.ChangedBy,
		)
	case events.LeadEscalated:
		log.Info("lead escalated",
			"lead_id", e.LeadID,
			"escalated_by", e.EscalatedBy,
			"channel", e.ChannelID,
		)
	case events.IdleReminderSent:
		log.Info("idle reminder sent",
			"lead_id", e.LeadID,
			"owner", e.Owner,
			"idle_for", e.IdleFor.String(),
			"remind_at", e.RemindAt,
		)
	default:
		log.Warn("unhandled event type", "event", event.EventName())
	}

	return nil
}
