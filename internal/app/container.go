package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fardapack/fardapack-crm/domain"
	"github.com/fardapack/fardapack-crm/internal/config"
	httpx "github.com/fardapack/fardapack-crm/internal/http"
	"github.com/fardapack/fardapack-crm/internal/http/handlers"
	"github.com/fardapack/fardapack-crm/internal/http/middleware"
	"github.com/fardapack/fardapack-crm/internal/infrastructure/auth"
	"github.com/fardapack/fardapack-crm/internal/infrastructure/database"
	"github.com/fardapack/fardapack-crm/internal/infrastructure/repositories"
	"github.com/fardapack/fardapack-crm/internal/observability"
	"github.com/fardapack/fardapack-crm/internal/reliability/retry"
	"github.com/fardapack/fardapack-crm/internal/services"
)

// Container holds all dependencies
type Container struct {
	// Config
	Config *config.Config
	Log    *zap.Logger

	// Observability
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	// Infrastructure
	DB          *gorm.DB
	RedisClient *redis.Client
	Enforcer    *casbin.Enforcer

	// Repositories
	Repos       services.CRMRepositories
	SessionRepo domain.SessionRepository

	// Services
	PasswordSvc domain.PasswordService
	TokenSvc    domain.TokenGenerator
	PolicySvc   domain.PolicyService
	AuthSvc     domain.AuthService
	CRMSvc      domain.CRMService
}

// NewContainer creates and initializes all dependencies
func NewContainer(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Container, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Container{Config: cfg, Log: log}
	c.initMetrics()

	if err := c.initDatabase(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initSessions(ctx); err != nil {
		c.Close()
		return nil, err
	}
	c.initRepositories()
	if err := c.initServices(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) initMetrics() {
	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.Metrics = observability.NewMetrics(c.Registry)
}

func (c *Container) initDatabase() error {
	db, err := database.Open(database.Config{
		Driver:        c.Config.DBDriver,
		DSN:           c.Config.DSN,
		BusyTimeout:   c.Config.DBBusyTimeout,
		MaxOpenConns:  c.Config.DBMaxOpenConns,
		SlowThreshold: c.Config.DBSlowThreshold,
	}, c.Log)
	if err != nil {
		return err
	}
	c.DB = db

	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	c.Enforcer, err = auth.NewEnforcer(db)
	return err
}

func (c *Container) initSessions(ctx context.Context) error {
	switch c.Config.SessionBackend {
	case config.SessionBackendRedis:
		client, err := database.NewRedis(ctx, database.RedisConfig{
			Addr:     c.Config.RedisAddr,
			Password: c.Config.RedisPassword,
			DB:       c.Config.RedisDB,
		})
		if err != nil {
			return err
		}
		c.RedisClient = client
		c.SessionRepo = repositories.NewRedisSessionRepository(client)
	case config.SessionBackendSQL, "":
		c.SessionRepo = repositories.NewSessionRepository(c.DB)
	default:
		return fmt.Errorf("unsupported session backend %q", c.Config.SessionBackend)
	}
	c.Log.Info("session store ready", zap.String("backend", c.Config.SessionBackend))
	return nil
}

func (c *Container) initRepositories() {
	c.Repos = services.CRMRepositories{
		Companies: repositories.NewCompanyRepository(c.DB),
		Contacts:  repositories.NewContactRepository(c.DB),
		Calls:     repositories.NewCallRepository(c.DB),
		Followups: repositories.NewFollowupRepository(c.DB),
		Stats:     repositories.NewStatsRepository(c.DB),
		Accounts:  repositories.NewAccountRepository(c.DB),
	}
}

func (c *Container) initServices() error {
	c.PasswordSvc = auth.NewPasswordService(c.Config.BcryptCost)
	c.TokenSvc = auth.NewTokenService()
	c.PolicySvc = services.NewPolicyService(c.Enforcer)

	retrier := retry.New(retry.Config{
		MaxAttempts:       c.Config.RetryMaxAttempts,
		InitialBackoff:    c.Config.RetryInitialBackoff,
		MaxBackoff:        c.Config.RetryMaxBackoff,
		BackoffMultiplier: c.Config.RetryMultiplier,
	}, c.Log, c.Metrics.StoreBusyRetries)

	opts := []services.Option{
		services.WithLogger(c.Log),
		services.WithRetrier(retrier),
		services.WithMetrics(c.Metrics),
	}

	c.AuthSvc = services.NewAuthService(
		c.Repos.Accounts,
		c.SessionRepo,
		c.PasswordSvc,
		c.TokenSvc,
		c.PolicySvc,
		services.AuthConfig{SessionTTL: c.Config.SessionTTL},
		opts...,
	)
	c.CRMSvc = services.NewCRMService(c.Repos, c.PolicySvc, opts...)
	return nil
}

// Router builds the HTTP handler tree over the container's services
func (c *Container) Router() *gin.Engine {
	return httpx.BuildRouter(httpx.RouterDeps{
		Auth:     handlers.NewAuthHandlers(c.AuthSvc),
		CRM:      handlers.NewCRMHandlers(c.CRMSvc),
		Policies: handlers.NewPolicyHandlers(c.PolicySvc),
		AuthMW:   middleware.NewAuthMW(c.AuthSvc),
		CasbinMW: middleware.NewCasbinMW(c.PolicySvc),
		Logger:   c.Log.Named("http"),
		Metrics:  c.Metrics,
		Gatherer: c.Registry,
	})
}

// Close closes all connections
func (c *Container) Close() error {
	var errs []error
	if c.RedisClient != nil {
		errs = append(errs, c.RedisClient.Close())
	}
	if c.DB != nil {
		errs = append(errs, database.Close(c.DB))
	}
	return errors.Join(errs...)
}
