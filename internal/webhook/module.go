package webhook

import (
	"leadbot_backend/internal/config"
	apphttp "leadbot_backend/internal/http"
	"leadbot_backend/internal/slack"
	"leadbot_backend/platform/logger"
	"leadbot_backend/platform/validator"
)

// Module represents the inbound lead webhook module.
type Module struct {
	handler *Handler
}

// NewModule creates the webhook module.
func NewModule(msgr slack.Gateway, val *validator.Validator, cfg *config.Config, log *logger.Logger) *Module {
	return &Module{
		handler: New(msgr, val, cfg.LeadsChannel, log),
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Webhooks)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
