package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadbot_backend/internal/events"
	"leadbot_backend/internal/lifecycle/domain"
	"leadbot_backend/internal/lifecycle/repository"
	"leadbot_backend/internal/slack"
	"leadbot_backend/platform/apperr"
)

// HandleClaim takes ownership of the lead anchoring the thread. Re-claiming
// is allowed: the last claimer wins and the previous owner is overwritten.
func (s *Service) HandleClaim(ctx context.Context, ref slack.ThreadRef, actingUser string) error {
	leadID, _, err := s.resolveLeadThread(ctx, ref)
	if err != nil {
		return err
	}

	lead, err := s.store.GetByID(ctx, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("this lead has not been ingested yet")
	}
	if err != nil {
		return apperr.Upstream("failed to load the lead", err)
	}

	if err := domain.CanClaim(lead.Status); err != nil {
		return err
	}

	ownerName := s.displayName(ctx, actingUser)
	now := time.Now()
	status := domain.StageClaimed

	err = s.store.Update(ctx, leadID, repository.UpdateParams{
		Status:       &status,
		Owner:        &actingUser,
		OwnerName:    &ownerName,
		LastActivity: &now,
	})
	if err != nil {
		return apperr.Upstream("failed to record the claim", err)
	}

	if err := s.msgr.AddMarker(ctx, ref, domain.MarkerClaimed); err != nil {
		s.log.Warn("could not add claim marker", "lead_id", leadID, "error", err)
	}

	s.postInThread(ctx, ref, fmt.Sprintf("🤝 <@%s> has claimed this lead! They are now responsible for follow-up.", actingUser))

	s.bus.Publish(ctx, events.LeadClaimed{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		Owner:     actingUser,
		OwnerName: ownerName,
	})

	s.log.Info("lead claimed", "lead_id", leadID, "owner", actingUser)
	return nil
}
