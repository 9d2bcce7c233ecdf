package container

import (
	"context"
	"fmt"

	"gatepass/internal/config"
	"gatepass/internal/events"
	"gatepass/internal/repository"
	"gatepass/internal/service"
	"gatepass/pkg/auth"
	"gatepass/pkg/database"
	"gatepass/pkg/logger"
	"gatepass/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           *database.PostgresDB
	RedisClient  *redis.Client
	Issuer       *auth.Issuer
	Hub          *events.Hub
	Repositories *repository.Repositories
	Services     *service.Services
}

// New creates a new dependency injection container
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	redisClient, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	issuer := auth.NewIssuer(cfg.JWTSecret, 0)
	hub := events.NewHub(log)

	repos := &repository.Repositories{
		Visit: repository.NewVisitRepository(db),
		User:  repository.NewUserRepository(db),
	}

	services := &service.Services{
		Visit: service.NewVisitService(repos.Visit, hub, issuer, log),
		Auth:  service.NewAuthService(repos.User, redisClient, issuer, log),
	}

	return &Container{
		Config:       cfg,
		Logger:       log,
		DB:           db,
		RedisClient:  redisClient,
		Issuer:       issuer,
		Hub:          hub,
		Repositories: repos,
		Services:     services,
	}, nil
}

// Close releases the container's connections.
func (c *Container) Close() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.WithError(err).Warn("failed to close redis client")
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}

// GetVisitService returns the visit service
func (c *Container) GetVisitService() service.VisitService {
	return c.Services.Visit
}

// GetAuthService returns the auth service
func (c *Container) GetAuthService() service.AuthService {
	return c.Services.Auth
}

// GetHub returns the event hub
func (c *Container) GetHub() *events.Hub {
	return c.Hub
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}
