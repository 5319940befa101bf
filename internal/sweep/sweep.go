// Package sweep implements the idle lead reminder job. It queries for
// owned, non-terminal leads with no recent activity and nudges each owner
// over a direct message.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadbot_backend/internal/events"
	"leadbot_backend/internal/lifecycle/repository"
	"leadbot_backend/internal/slack"
	"leadbot_backend/platform/logger"
)

// Config carries the sweep tunables.
type Config struct {
	// IdleThreshold is how long a lead may sit without activity before its
	// owner is reminded.
	IdleThreshold time.Duration
	// RepeatReminders re-notifies owners on every sweep while the lead
	// stays idle. When false, a lead is reminded at most once per idle
	// period.
	RepeatReminders bool
	// TeamID is used to build deep links into lead threads.
	TeamID string
}

// Sweeper runs the idle lead check.
type Sweeper struct {
	store repository.LeadStore
	msgr  slack.Gateway
	bus   events.Bus
	cfg   Config
	log   *logger.Logger
}

func New(store repository.LeadStore, msgr slack.Gateway, bus events.Bus, cfg Config, log *logger.Logger) *Sweeper {
	return &Sweeper{
		store: store,
		msgr:  msgr,
		bus:   bus,
		cfg:   cfg,
		log:   log,
	}
}

// Sweep performs one pass over the idle leads. Failures on individual leads
// are collected so one broken record cannot stall the rest of the batch.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) error {
	leads, err := s.store.QueryIdle(ctx, now, s.cfg.IdleThreshold, !s.cfg.RepeatReminders)
	if err != nil {
		return fmt.Errorf("query idle leads: %w", err)
	}

	if len(leads) == 0 {
		s.log.Info("no idle leads found")
		return nil
	}
	s.log.Info("idle leads found", "count", len(leads))

	var errs []error
	for _, lead := range leads {
		if err := s.remind(ctx, lead, now); err != nil {
			s.log.Error("failed to remind lead owner", "lead_id", lead.LeadID, "error", err)
			errs = append(errs, fmt.Errorf("lead %s: %w", lead.LeadID, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Sweeper) remind(ctx context.Context, lead repository.Lead, now time.Time) error {
	if lead.Owner == nil || *lead.Owner == "" {
		return nil
	}
	owner := *lead.Owner

	idleFor := now.Sub(lead.LastActivity)

	if err := s.msgr.SendDirectMessage(ctx, owner, s.reminderText(lead, idleFor)); err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}

	if err := s.store.MarkReminded(ctx, lead.LeadID, now); err != nil {
		return fmt.Errorf("mark reminded: %w", err)
	}

	s.bus.Publish(ctx, events.IdleReminderSent{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.LeadID,
		Owner:     owner,
		IdleFor:   idleFor,
		RemindAt:  now,
	})

	s.log.Info("idle reminder sent", "lead_id", lead.LeadID, "owner", owner)
	return nil
}

func (s *Sweeper) reminderText(lead repository.Lead, idleFor time.Duration) string {
	name := lead.Name
	if name == "" {
		name = "Unknown Lead"
	}

	threadLink := fmt.Sprintf("https://app.slack.com/client/%s/%s/thread/%s",
		s.cfg.TeamID, lead.ChannelID, lead.ThreadTS)

	return fmt.Sprintf(
		"🔔 *Reminder:* Lead *%s* (Status: %s) has been inactive for %s.\n"+
			"Please follow up or update the status.\n"+
			"<%s|View Lead Thread>",
		name, lead.Status, idleText(idleFor), threadLink)
}

// idleText renders a duration as whole days and hours.
func idleText(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24

	if days > 0 {
		return fmt.Sprintf("%d days, %d hours", days, hours)
	}
	return fmt.Sprintf("%d hours", hours)
}
