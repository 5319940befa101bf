package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadbot_backend/internal/events"
	"leadbot_backend/internal/leadid"
	"leadbot_backend/internal/lifecycle/domain"
	"leadbot_backend/internal/lifecycle/repository"
	"leadbot_backend/internal/slack"
	"leadbot_backend/platform/apperr"
)

// HandleStageCommand moves the lead anchoring the thread to the requested
// stage. Stage text matches case-insensitively; unrecognized stages are
// rejected with the list of valid options.
func (s *Service) HandleStageCommand(ctx context.Context, ref slack.ThreadRef, actingUser, requestedStage string) error {
	if requestedStage == "" {
		return apperr.Validation(fmt.Sprintf("please specify a stage, valid options are:\n%s\n\nExample: `/stage Contacted`", domain.StageOptions()))
	}

	leadID, parent, err := s.resolveLeadThread(ctx, ref)
	if err != nil {
		return err
	}

	stage, err := domain.ParseStage(requestedStage)
	if err != nil {
		return err
	}

	return s.applyStage(ctx, ref, parent, leadID, stage, actingUser)
}

// HandleReaction processes a reaction_added event. Reactions that do not map
// to a stage marker, or that land on non-lead messages, are ignored
// silently. A matching reaction converges on the same stage-update path as
// the slash command.
func (s *Service) HandleReaction(ctx context.Context, ref slack.ThreadRef, reactor, marker string) error {
	stage, ok := domain.StageForMarker(marker)
	if !ok {
		return nil
	}

	message, err := s.msgr.GetParentMessage(ctx, ref)
	if errors.Is(err, slack.ErrNotFound) {
		s.log.Warn("could not fetch reacted-to message", "channel", ref.ChannelID, "ts", ref.ThreadTS)
		return nil
	}
	if err != nil {
		return apperr.Upstream("could not fetch the reacted-to message", err)
	}

	if !leadid.Contains(message.Text) {
		return nil
	}

	leadID, ok := leadid.Extract(message.Text)
	if !ok {
		s.log.Warn("lead marker present but no extractable lead ID", "channel", ref.ChannelID, "ts", ref.ThreadTS)
		return nil
	}

	return s.applyStage(ctx, ref, message, leadID, stage, reactor)
}

// applyStage is the converged stage-update path shared by the slash command
// and the reaction entry points.
func (s *Service) applyStage(ctx context.Context, ref slack.ThreadRef, parent slack.Message, leadID, stage, actingUser string) error {
	lead, err := s.store.GetByID(ctx, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("this lead has not been ingested yet")
	}
	if err != nil {
		return apperr.Upstream("failed to load the lead", err)
	}

	now := time.Now()

	err = s.store.Update(ctx, leadID, repository.UpdateParams{
		Status:       &stage,
		UpdatedBy:    &actingUser,
		LastActivity: &now,
	})
	if err != nil {
		return apperr.Upstream("failed to update the lead stage", err)
	}

	if err := s.store.AppendStageChange(ctx, repository.StageChange{
		LeadID:    leadID,
		FromStage: lead.Status,
		ToStage:   stage,
		ChangedAt: now,
		ChangedBy: actingUser,
	}); err != nil {
		s.log.Error("could not append stage change audit record", "lead_id", leadID, "error", err)
	}

	marker, _ := domain.Marker(stage)
	if !parent.HasReaction(marker) {
		if err := s.msgr.AddMarker(ctx, ref, marker); err != nil {
			s.log.Warn("could not add stage marker", "lead_id", leadID, "marker", marker, "error", err)
		}
	}

	s.postInThread(ctx, ref, fmt.Sprintf("*Status Updated:* %s :%s: by <@%s>", stage, marker, actingUser))

	s.bus.Publish(ctx, events.LeadStageChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		FromStage: lead.Status,
		ToStage:   stage,
		ChangedBy: actingUser,
	})

	s.log.Info("lead stage updated", "lead_id", leadID, "from", lead.Status, "to", stage, "by", actingUser)
	return nil
}
