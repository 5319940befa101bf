// Package lifecycle provides the lead lifecycle domain module: ingestion,
// claiming, stage tracking and escalation of sales leads arriving in the
// leads channel.
package lifecycle

import (
	"leadbot_backend/internal/config"
	"leadbot_backend/internal/events"
	apphttp "leadbot_backend/internal/http"
	"leadbot_backend/internal/lifecycle/handler"
	"leadbot_backend/internal/lifecycle/repository"
	"leadbot_backend/internal/lifecycle/service"
	"leadbot_backend/internal/slack"
	"leadbot_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the lead lifecycle domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	store   repository.LeadStore
}

// NewModule creates the lifecycle module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, gateway slack.Gateway, eventBus events.Bus, cfg *config.Config, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, gateway, eventBus, service.Config{
		SalesManagerGroup: cfg.SalesManagerGroup,
	}, log)
	h := handler.New(svc, cfg.LeadsChannelID, log)

	return &Module{
		handler: h,
		service: svc,
		store:   repo,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "lifecycle"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Store returns the lead store for components outside the HTTP path,
// such as the idle sweep.
func (m *Module) Store() repository.LeadStore {
	return m.store
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Slack)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
