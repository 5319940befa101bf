// Package service implements the lead lifecycle orchestrator. Each handler
// corresponds to one inbound event kind: ingestion, claim, stage command,
// stage reaction, escalation. Handlers validate thread context, consult the
// stage rules in the domain package and issue commands to the store and
// messaging gateways.
package service

import (
	"context"
	"errors"
	"fmt"

	"leadbot_backend/internal/events"
	"leadbot_backend/internal/leadid"
	"leadbot_backend/internal/lifecycle/repository"
	"leadbot_backend/internal/slack"
	"leadbot_backend/platform/apperr"
	"leadbot_backend/platform/logger"
)

// Config carries the orchestrator's tunables.
type Config struct {
	// SalesManagerGroup is the secondary party invited into escalation
	// channels. Empty disables the secondary invite.
	SalesManagerGroup string
}

// Service coordinates the lead lifecycle across the store and the
// messaging transport.
type Service struct {
	store repository.LeadStore
	msgr  slack.Gateway
	bus   events.Bus
	log   *logger.Logger
	cfg   Config
}

func New(store repository.LeadStore, msgr slack.Gateway, bus events.Bus, cfg Config, log *logger.Logger) *Service {
	return &Service{
		store: store,
		msgr:  msgr,
		bus:   bus,
		log:   log,
		cfg:   cfg,
	}
}

// resolveLeadThread validates that ref anchors a lead thread and returns the
// lead identifier together with the parent message. All failures map to
// user-facing rejections; nothing is mutated.
func (s *Service) resolveLeadThread(ctx context.Context, ref slack.ThreadRef) (string, slack.Message, error) {
	if ref.ThreadTS == "" {
		return "", slack.Message{}, apperr.InvalidContext("this command can only be used in a thread of a lead message")
	}

	parent, err := s.msgr.GetParentMessage(ctx, ref)
	if errors.Is(err, slack.ErrNotFound) {
		return "", slack.Message{}, apperr.InvalidContext("this command can only be used in a thread of a lead message")
	}
	if err != nil {
		return "", slack.Message{}, apperr.Upstream("could not fetch the thread's parent message", err)
	}

	if !leadid.Contains(parent.Text) {
		return "", slack.Message{}, apperr.InvalidContext("this does not appear to be a lead thread")
	}

	id, ok := leadid.Extract(parent.Text)
	if !ok {
		return "", slack.Message{}, apperr.InvalidContext("could not extract a lead ID from the parent message")
	}

	return id, parent, nil
}

// displayName resolves a user's display name, falling back to the mention
// form when the lookup fails. The cached name is presentation-only.
func (s *Service) displayName(ctx context.Context, userID string) string {
	name, err := s.msgr.ResolveUserDisplayName(ctx, userID)
	if err != nil {
		s.log.Warn("could not resolve user display name", "user", userID, "error", err)
		return fmt.Sprintf("<@%s>", userID)
	}
	return name
}
