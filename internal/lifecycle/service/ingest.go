package service

import (
	"context"
	"encoding/json"
	"strings"

	"leadbot_backend/internal/events"
	"leadbot_backend/internal/leadid"
	"leadbot_backend/internal/lifecycle/domain"
	"leadbot_backend/internal/lifecycle/repository"
	"leadbot_backend/internal/slack"
	"leadbot_backend/platform/apperr"
	"leadbot_backend/platform/phone"
)

// LeadPayload is the machine-generated lead record posted into the leads
// channel by the webhook.
type LeadPayload struct {
	LeadID    string `json:"lead_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	City      string `json:"city"`
	Owner     string `json:"owner"`
	Product   string `json:"product"`
	Source    string `json:"source"`
}

const (
	defaultProduct = "Hot Tub"
	defaultSource  = "SharpSpring"
)

// HandleIngest processes a message posted in the leads channel. Messages
// without the ingestion marker are silently ignored; unparseable lead
// payloads are reported in-thread and dropped.
func (s *Service) HandleIngest(ctx context.Context, rawText string, ref slack.ThreadRef) error {
	if !leadid.Contains(rawText) {
		return nil
	}

	var payload LeadPayload
	if err := json.Unmarshal([]byte(rawText), &payload); err != nil {
		s.log.Error("failed to parse lead payload", "error", err)
		s.postInThread(ctx, ref, "⚠️ Failed to parse lead data. Please check the message format.")
		return apperr.Validation("lead payload is not valid JSON")
	}

	// The payload is expected well-formed, so the strict extraction layer
	// normally resolves the identifier here.
	id, ok := leadid.Extract(rawText)
	if !ok {
		s.postInThread(ctx, ref, "⚠️ Lead message is missing a usable lead_id.")
		return apperr.Validation("lead payload has no usable lead_id")
	}

	fullName := strings.TrimSpace(payload.FirstName + " " + payload.LastName)
	if fullName == "" {
		fullName = payload.Name
	}
	if fullName == "" {
		fullName = "Unknown Lead"
	}

	product := payload.Product
	if product == "" {
		product = defaultProduct
	}
	source := payload.Source
	if source == "" {
		source = defaultSource
	}

	lead, err := s.store.Upsert(ctx, repository.UpsertParams{
		LeadID:    id,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Name:      fullName,
		Email:     payload.Email,
		Phone:     phone.NormalizeE164(payload.Phone),
		City:      payload.City,
		Product:   product,
		Source:    source,
		Owner:     payload.Owner,
		ChannelID: ref.ChannelID,
		ThreadTS:  ref.ThreadTS,
	})
	if err != nil {
		return apperr.Upstream("failed to store the lead", err)
	}

	s.postInThread(ctx, ref, ingestSummary(lead))

	if err := s.msgr.AddMarker(ctx, ref, domain.MarkerNew); err != nil {
		s.log.Warn("could not add new-lead marker", "lead_id", id, "error", err)
	}

	s.bus.Publish(ctx, events.LeadIngested{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.LeadID,
		Name:      lead.Name,
		Source:    lead.Source,
		ChannelID: ref.ChannelID,
		ThreadTS:  ref.ThreadTS,
	})

	s.log.Info("lead ingested", "lead_id", id, "source", source)
	return nil
}

func ingestSummary(lead repository.Lead) string {
	var b strings.Builder

	b.WriteString("*New Lead*: " + lead.Name)
	if lead.City != "" {
		b.WriteString(" from *" + lead.City + "* 🏙️")
	}
	b.WriteString("\n📞 " + lead.Phone + "\n📧 " + lead.Email)

	if lead.Owner != nil && *lead.Owner != "" {
		b.WriteString("\nAssigned to: " + *lead.Owner)
	} else {
		b.WriteString("\nAssigned to: Unclaimed")
	}

	b.WriteString("\n\nUse `/claim` to take ownership of this lead.")
	return b.String()
}

// postInThread posts a reply, logging delivery failures instead of
// propagating them.
func (s *Service) postInThread(ctx context.Context, ref slack.ThreadRef, text string) {
	if _, err := s.msgr.PostInThread(ctx, ref, text); err != nil {
		s.log.Warn("could not post thread reply", "channel", ref.ChannelID, "error", err)
	}
}
