package container

import (
	"log/slog"

	"github.com/joshua-takyi/eventease/internal/config"
	"github.com/joshua-takyi/eventease/internal/metrics"
	"github.com/joshua-takyi/eventease/internal/middleware"
	"github.com/joshua-takyi/eventease/internal/models"
	"github.com/joshua-takyi/eventease/internal/services"
)

// Container holds all application dependencies
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	Store          models.Store
	TokenValidator middleware.TokenVerifier

	UserService   *services.UserService
	EventService  *services.EventService
	RsvpService   *services.RsvpService
	LedgerService *services.LedgerService
}

// NewContainer creates a new dependency injection container
func NewContainer(
	cfg *config.Config,
	logger *slog.Logger,
	users models.UserRepo,
	store models.Store,
	verifier middleware.TokenVerifier,
	m *metrics.Metrics,
) *Container {
	return &Container{
		Config:         cfg,
		Logger:         logger,
		Metrics:        m,
		Store:          store,
		TokenValidator: verifier,
		UserService:    services.NewUserService(users, logger),
		EventService:   services.NewEventService(store, logger),
		RsvpService:    services.NewRsvpService(store, m, logger),
		LedgerService:  services.NewLedgerService(store),
	}
}

// SecureCookies reports whether auth cookies should carry the Secure flag.
func (c *Container) SecureCookies() bool {
	return c.Config != nil && c.Config.IsProduction()
}
