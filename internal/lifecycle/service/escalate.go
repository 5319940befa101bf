package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"leadbot_backend/internal/events"
	"leadbot_backend/internal/lifecycle/domain"
	"leadbot_backend/internal/lifecycle/repository"
	"leadbot_backend/internal/slack"
	"leadbot_backend/platform/apperr"
	"leadbot_backend/platform/sanitize"
)

// escalationChannelMaxLen bounds the generated channel name well below the
// platform's 80-char limit, for readability.
const escalationChannelMaxLen = 21

// HandleEscalate promotes the lead anchoring the thread into a dedicated
// private channel with the full thread transcript. Space creation and the
// store update are critical; invites and the transcript post degrade to a
// logged warning.
func (s *Service) HandleEscalate(ctx context.Context, ref slack.ThreadRef, actingUser string) error {
	leadID, _, err := s.resolveLeadThread(ctx, ref)
	if err != nil {
		return err
	}

	lead, err := s.store.GetByID(ctx, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("could not find lead data in the database")
	}
	if err != nil {
		return apperr.Upstream("failed to load the lead", err)
	}

	if err := domain.CanEscalate(lead.Status); err != nil {
		return err
	}
	if lead.EscalatedChannel != nil && *lead.EscalatedChannel != "" {
		return apperr.Conflict(fmt.Sprintf("this lead is already escalated to <#%s>", *lead.EscalatedChannel))
	}

	channelID, err := s.msgr.CreatePrivateSpace(ctx, escalationChannelName(lead))
	if err != nil {
		return apperr.Upstream("could not create the escalation channel", err)
	}

	if _, err := s.msgr.PostMessage(ctx, channelID,
		fmt.Sprintf("🔔 *Escalated Lead: %s* (ID: %s)\n\nEscalated by <@%s>", lead.Name, leadID, actingUser)); err != nil {
		s.log.Warn("could not post escalation intro", "lead_id", leadID, "error", err)
	}

	s.invite(ctx, channelID, actingUser, leadID)
	if s.cfg.SalesManagerGroup != "" {
		s.invite(ctx, channelID, s.cfg.SalesManagerGroup, leadID)
	}

	if summary, err := s.threadTranscript(ctx, ref); err != nil {
		s.log.Warn("could not build thread transcript", "lead_id", leadID, "error", err)
	} else if _, err := s.msgr.PostMessage(ctx, channelID, summary); err != nil {
		s.log.Warn("could not post thread transcript", "lead_id", leadID, "error", err)
	}

	now := time.Now()
	status := domain.StageEscalated

	err = s.store.Update(ctx, leadID, repository.UpdateParams{
		Status:           &status,
		EscalatedBy:      &actingUser,
		EscalatedAt:      &now,
		EscalatedChannel: &channelID,
		LastActivity:     &now,
	})
	if err != nil {
		return apperr.Upstream("failed to record the escalation", err)
	}

	s.postInThread(ctx, ref, fmt.Sprintf("🔔 This lead has been escalated by <@%s> to a private channel <#%s>", actingUser, channelID))

	s.bus.Publish(ctx, events.LeadEscalated{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      leadID,
		EscalatedBy: actingUser,
		ChannelID:   channelID,
	})

	s.log.Info("lead escalated", "lead_id", leadID, "by", actingUser, "channel", channelID)
	return nil
}

// invite adds a party to the escalation channel, degrading to a
// manual-follow-up note when the invite fails.
func (s *Service) invite(ctx context.Context, channelID, userID, leadID string) {
	if err := s.msgr.Invite(ctx, channelID, userID); err != nil {
		s.log.Warn("escalation invite failed", "lead_id", leadID, "user", userID, "error", err)
		if _, err := s.msgr.PostMessage(ctx, channelID,
			fmt.Sprintf("ℹ️ Could not invite %s automatically. Please add them to this channel.", userID)); err != nil {
			s.log.Warn("could not post invite fallback note", "lead_id", leadID, "error", err)
		}
	}
}

// escalationChannelName derives the private channel name from the lead's
// sanitized surname and the identifier tail.
func escalationChannelName(lead repository.Lead) string {
	lastname := lead.LastName
	if lastname == "" {
		parts := strings.Fields(lead.Name)
		if len(parts) > 0 {
			lastname = parts[len(parts)-1]
		} else {
			lastname = "unknown"
		}
	}
	lastname = sanitize.ChannelName(lastname)
	if lastname == "" {
		lastname = "unknown"
	}

	tail := lead.LeadID
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}

	name := fmt.Sprintf("deal-%s-%s", lastname, tail)
	if len(name) > escalationChannelMaxLen {
		name = name[:escalationChannelMaxLen]
	}
	return name
}

// threadTranscript renders the full thread as a readable summary: speaker
// display name, formatted time, message text. Display names are cached per
// call so a long thread does not re-resolve the same author.
func (s *Service) threadTranscript(ctx context.Context, ref slack.ThreadRef) (string, error) {
	messages, err := s.msgr.GetThreadMessages(ctx, ref)
	if err != nil {
		return "", err
	}

	names := make(map[string]string)

	var b strings.Builder
	b.WriteString("*Lead Thread Summary*\n\n")

	for _, msg := range messages {
		name, ok := names[msg.User]
		if !ok {
			name = s.displayName(ctx, msg.User)
			names[msg.User] = name
		}

		fmt.Fprintf(&b, "*%s* (%s):\n%s\n\n", name, formatMessageTime(msg.TS), msg.Text)
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

// formatMessageTime renders a Slack message timestamp ("seconds.fraction")
// as a human-readable time, falling back to the raw value.
func formatMessageTime(ts string) string {
	seconds, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return ts
	}
	return time.Unix(int64(seconds), 0).UTC().Format("2006-01-02 15:04:05")
}
