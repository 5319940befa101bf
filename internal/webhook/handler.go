// Package webhook receives lead notifications from external sources and
// publishes them into the leads channel, where the lifecycle module picks
// them up.
package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"leadbot_backend/internal/slack"
	"leadbot_backend/platform/apperr"
	"leadbot_backend/platform/httpkit"
	"leadbot_backend/platform/logger"
	"leadbot_backend/platform/sanitize"
	"leadbot_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles inbound lead webhooks.
type Handler struct {
	msgr         slack.Gateway
	val          *validator.Validator
	leadsChannel string
	log          *logger.Logger
}

func New(msgr slack.Gateway, val *validator.Validator, leadsChannel string, log *logger.Logger) *Handler {
	return &Handler{msgr: msgr, val: val, leadsChannel: leadsChannel, log: log}
}

// RegisterRoutes registers the webhook routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sharpspring", h.SharpSpring)
}

// sharpSpringRequest is the lead payload sent by the SharpSpring webhook.
type sharpSpringRequest struct {
	ID              string `json:"id" binding:"required"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email" validate:"omitempty,email"`
	Phone           string `json:"phone"`
	City            string `json:"city"`
	ProductInterest string `json:"product_interest"`
	LeadSource      string `json:"lead_source"`
}

// channelMessage is the machine-readable record posted into the leads
// channel. The field names are the ingestion contract and must not change.
type channelMessage struct {
	LeadID    string `json:"lead_id"`
	Name      string `json:"name,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	City      string `json:"city,omitempty"`
	Product   string `json:"product,omitempty"`
	Source    string `json:"source,omitempty"`
}

// SharpSpring accepts a lead notification and posts it to the leads channel.
func (h *Handler) SharpSpring(c *gin.Context) {
	var req sharpSpringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead payload")
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "lead payload failed validation")
		return
	}

	ref, err := h.publish(c.Request.Context(), req)
	if err != nil {
		h.log.Error("failed to post lead to channel", "lead_id", req.ID, "error", err)
		httpkit.HandleError(c, apperr.Upstream("could not deliver the lead", err))
		return
	}

	h.log.Info("lead webhook accepted", "lead_id", req.ID, "source", req.LeadSource)
	httpkit.JSON(c, http.StatusAccepted, gin.H{
		"lead_id": req.ID,
		"ts":      ref.TS,
	})
}

func (h *Handler) publish(ctx context.Context, req sharpSpringRequest) (slack.MessageRef, error) {
	msg := channelMessage{
		LeadID:    sanitize.Text(req.ID),
		Name:      strings.TrimSpace(sanitize.Text(req.FirstName) + " " + sanitize.Text(req.LastName)),
		FirstName: sanitize.Text(req.FirstName),
		LastName:  sanitize.Text(req.LastName),
		Email:     sanitize.Text(req.Email),
		Phone:     sanitize.Text(req.Phone),
		City:      sanitize.Text(req.City),
		Product:   sanitize.Text(req.ProductInterest),
		Source:    sanitize.Text(req.LeadSource),
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return slack.MessageRef{}, err
	}
	return h.msgr.PostMessage(ctx, h.leadsChannel, string(raw))
}
