// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"leadbot_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// LeadIngested is published when a lead message has been parsed and upserted.
type LeadIngested struct {
	BaseEvent
	LeadID    string `json:"leadId"`
	Name      string `json:"name"`
	Source    string `json:"source,omitempty"`
	ChannelID string `json:"channelId"`
	ThreadTS  string `json:"threadTs"`
}

func (e LeadIngested) EventName() string { return "leads.lead.ingested" }

// LeadClaimed is published when a user takes ownership of a lead.
type LeadClaimed struct {
	BaseEvent
	LeadID    string `json:"leadId"`
	Owner     string `json:"owner"`
	OwnerName string `json:"ownerName"`
}

func (e LeadClaimed) EventName() string { return "leads.lead.claimed" }

// LeadStageChanged is published after a stage transition has been persisted.
type LeadStageChanged struct {
	BaseEvent
	LeadID    string `json:"leadId"`
	FromStage string `json:"fromStage"`
	ToStage   string `json:"toStage"`
	ChangedBy string `json:"changedBy"`
}

func (e LeadStageChanged) EventName() string { return "leads.lead.stage_changed" }

// LeadEscalated is published when a lead has been promoted to a private channel.
type LeadEscalated struct {
	BaseEvent
	LeadID      string `json:"leadId"`
	EscalatedBy string `json:"escalatedBy"`
	ChannelID   string `json:"channelId"`
}

func (e LeadEscalated) EventName() string { return "leads.lead.escalated" }

// IdleReminderSent is published for each reminder issued by the idle sweep.
type IdleReminderSent struct {
	BaseEvent
	LeadID   string        `json:"leadId"`
	Owner    string        `json:"owner"`
	IdleFor  time.Duration `json:"idleFor"`
	RemindAt time.Time     `json:"remindAt"`
}

func (e IdleReminderSent) EventName() string { return "leads.lead.idle_reminder_sent" }
