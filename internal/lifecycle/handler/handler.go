// Package handler exposes the lead lifecycle over Slack's callback
// transports: the Events API and slash commands.
package handler

import (
	"errors"
	"net/http"

	"leadbot_backend/internal/lifecycle/service"
	"leadbot_backend/internal/slack"
	"leadbot_backend/platform/apperr"
	"leadbot_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// Handler handles Slack callbacks for the lead lifecycle.
type Handler struct {
	svc          *service.Service
	leadsChannel string
	log          *logger.Logger
}

// New creates the handler. leadsChannelID is the channel ID whose messages
// are treated as lead ingestions; messages elsewhere are ignored.
func New(svc *service.Service, leadsChannelID string, log *logger.Logger) *Handler {
	return &Handler{svc: svc, leadsChannel: leadsChannelID, log: log}
}

// RegisterRoutes registers the Slack callback routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/events", h.Events)
	rg.POST("/commands", h.Command)
}

// eventEnvelope is the Events API callback body. Only the fields the
// lifecycle consumes are mapped.
type eventEnvelope struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	Event     struct {
		Type     string `json:"type"`
		Subtype  string `json:"subtype"`
		User     string `json:"user"`
		Text     string `json:"text"`
		Channel  string `json:"channel"`
		TS       string `json:"ts"`
		Reaction string `json:"reaction"`
		Item     struct {
			Channel string `json:"channel"`
			TS      string `json:"ts"`
		} `json:"item"`
	} `json:"event"`
}

// Events receives Events API callbacks: the URL verification handshake,
// channel messages and reactions. The endpoint always acknowledges with
// 200; processing failures are logged, as Slack would otherwise redeliver
// the same event.
func (h *Handler) Events(c *gin.Context) {
	var envelope eventEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event payload"})
		return
	}

	if envelope.Type == "url_verification" {
		c.JSON(http.StatusOK, gin.H{"challenge": envelope.Challenge})
		return
	}

	ctx := c.Request.Context()

	switch envelope.Event.Type {
	case "message":
		// Only the leads channel is an ingestion source; lead-shaped text
		// pasted elsewhere must not create a lead anchored there.
		if envelope.Event.Channel != h.leadsChannel {
			break
		}
		// Edits and deletions carry a subtype and are not new leads.
		if envelope.Event.Subtype != "" && envelope.Event.Subtype != "bot_message" {
			break
		}
		ref := slack.ThreadRef{ChannelID: envelope.Event.Channel, ThreadTS: envelope.Event.TS}
		if err := h.svc.HandleIngest(ctx, envelope.Event.Text, ref); err != nil {
			h.log.Error("message event processing failed", "channel", ref.ChannelID, "error", err)
		}

	case "reaction_added":
		ref := slack.ThreadRef{ChannelID: envelope.Event.Item.Channel, ThreadTS: envelope.Event.Item.TS}
		if err := h.svc.HandleReaction(ctx, ref, envelope.Event.User, envelope.Event.Reaction); err != nil {
			h.log.Error("reaction event processing failed", "channel", ref.ChannelID, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// commandRequest is the form-encoded slash command payload.
type commandRequest struct {
	Command   string `form:"command" binding:"required"`
	Text      string `form:"text"`
	UserID    string `form:"user_id" binding:"required"`
	ChannelID string `form:"channel_id" binding:"required"`
	ThreadTS  string `form:"thread_ts"`
}

// Command dispatches /claim, /stage and /escalate. Rejections are returned
// as ephemeral messages with a 200 status, which is how Slack surfaces
// command feedback to the invoking user.
func (h *Handler) Command(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid command payload"})
		return
	}

	ctx := c.Request.Context()
	ref := slack.ThreadRef{ChannelID: req.ChannelID, ThreadTS: req.ThreadTS}

	var err error
	switch req.Command {
	case "/claim":
		err = h.svc.HandleClaim(ctx, ref, req.UserID)
	case "/stage":
		err = h.svc.HandleStageCommand(ctx, ref, req.UserID, req.Text)
	case "/escalate":
		err = h.svc.HandleEscalate(ctx, ref, req.UserID)
	default:
		ephemeral(c, "Unknown command: "+req.Command)
		return
	}

	if err != nil {
		h.log.Warn("command rejected", "command", req.Command, "user", req.UserID, "error", err)
		ephemeral(c, rejectionText(err))
		return
	}

	c.Status(http.StatusOK)
}

// ephemeral responds with a message only the invoking user sees.
func ephemeral(c *gin.Context, text string) {
	c.JSON(http.StatusOK, gin.H{
		"response_type": "ephemeral",
		"text":          text,
	})
}

// rejectionText renders an error as user-facing command feedback. Expected
// rejections carry their own wording; anything else gets a generic reply.
func rejectionText(err error) string {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case apperr.KindValidation, apperr.KindInvalidContext, apperr.KindConflict, apperr.KindNotFound:
			return "⚠️ " + appErr.Message
		}
	}
	return "⚠️ Something went wrong. Please try again."
}
