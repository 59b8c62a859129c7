// Package app wires configuration, storage and handlers into the auth and
// catalog services.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"inventory/internal/auth"
	"inventory/internal/config"
	"inventory/internal/database"
	"inventory/internal/handlers"
	"inventory/internal/metrics"
	"inventory/internal/middleware"
	"inventory/internal/models"
	"inventory/internal/repositories"
	"inventory/internal/services"
	"inventory/pkg/logger"
	"inventory/pkg/rabbitmq"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

const (
	ServiceAuth    = "auth"
	ServiceCatalog = "catalog"

	shutdownTimeout = 10 * time.Second
)

// newFiberApp builds a Fiber app with the middleware shared by both services.
func newFiberApp(cfg *config.Config, service string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "inventory-" + service,
		ErrorHandler:          handlers.ErrorHandler(cfg.IsDevelopment()),
		DisableStartupMessage: true,
	})

	m := metrics.New(service)

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} " + service + " ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(m.Middleware())

	app.Get("/metrics", m.Handler())
	return app
}

// NewAuthApp builds the auth service. Tokens presented to it are checked
// against its own user store.
func NewAuthApp(cfg *config.Config, db *gorm.DB) (*fiber.App, error) {
	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, err
	}

	userRepo := repositories.NewGORMUserRepository(db)
	authService := services.NewAuthService(userRepo, issuer)
	authRequired := middleware.AuthRequired(auth.NewLocalVerifier(issuer, userRepo))

	app := newFiberApp(cfg, ServiceAuth)
	handlers.NewHealthHandler(ServiceAuth, database.Pinger(db)).RegisterRoutes(app)

	api := app.Group("/api")
	if cfg.LoginRateLimit > 0 {
		throttle := limiter.New(limiter.Config{
			Max:        cfg.LoginRateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return fiber.NewError(fiber.StatusTooManyRequests, "Too many attempts, please try again later")
			},
		})
		api.Use("/auth/login", throttle)
		api.Use("/auth/register", throttle)
	}
	handlers.NewAuthHandler(authService).RegisterRoutes(api, authRequired)

	return app, nil
}

// NewCatalogApp builds the catalog service. verifier resolves every bearer
// token; publisher may be nil.
func NewCatalogApp(cfg *config.Config, db *gorm.DB, verifier auth.TokenVerifier, publisher services.EventPublisher) *fiber.App {
	productService := services.NewProductService(repositories.NewGORMProductRepository(db), publisher)

	app := newFiberApp(cfg, ServiceCatalog)
	handlers.NewHealthHandler(ServiceCatalog, database.Pinger(db)).RegisterRoutes(app)

	api := app.Group("/api")
	handlers.NewProductHandler(productService).RegisterRoutes(api, middleware.AuthRequired(verifier))

	return app
}

// ServeAuth runs the auth service until ctx is cancelled.
func ServeAuth(ctx context.Context, cfg *config.Config) error {
	if err := cfg.ValidateAuth(); err != nil {
		return err
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeDB(db)

	if err := database.MigrateUsers(db); err != nil {
		return err
	}

	app, err := NewAuthApp(cfg, db)
	if err != nil {
		return err
	}
	return serve(ctx, app, cfg.AuthAddr, ServiceAuth)
}

// ServeCatalog runs the catalog service until ctx is cancelled. Product
// events are published only when a broker is configured and reachable.
func ServeCatalog(ctx context.Context, cfg *config.Config) error {
	if err := cfg.ValidateCatalog(); err != nil {
		return err
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeDB(db)

	if err := database.MigrateProducts(db); err != nil {
		return err
	}

	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			logger.Warn("product events disabled", "err", err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	verifier := auth.NewRemoteVerifier(cfg.AuthServiceURL, cfg.AuthVerifyTimeout)
	app := NewCatalogApp(cfg, db, verifier, publisher)
	return serve(ctx, app, cfg.CatalogAddr, ServiceCatalog)
}

// serve listens on addr and shuts the app down once ctx is done.
func serve(ctx context.Context, app *fiber.App, addr, service string) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("service listening", "service", service, "addr", addr)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("%s service stopped: %w", service, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", "service", service)
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("failed to shut down %s service: %w", service, err)
	}
	logger.Info("service stopped", "service", service)
	return nil
}

func closeDB(db *gorm.DB) {
	if err := database.Close(db); err != nil {
		logger.Error("failed to close database", "err", err)
	}
}

// TailEvents logs every catalog event until ctx is cancelled.
func TailEvents(ctx context.Context, cfg *config.Config) error {
	if cfg.RabbitMQURL == "" {
		return errors.New("RABBITMQ_URL is required")
	}

	client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
	if err != nil {
		return err
	}
	defer client.Close()

	logger.Info("waiting for product events")
	return client.Consume(ctx, LogProductEvent)
}

// LogProductEvent decodes one catalog event and logs it.
func LogProductEvent(routingKey string, body []byte) error {
	var event services.ProductEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to decode %s event: %w", routingKey, err)
	}
	logger.Info("product event",
		"type", event.Type,
		"product_id", event.ProductID,
		"actor_id", event.ActorID,
		"occurred_at", event.OccurredAt.Format(time.RFC3339),
	)
	return nil
}

// SeedAdmin creates an admin account, or promotes the existing account with
// the same email.
func SeedAdmin(ctx context.Context, cfg *config.Config, in services.RegisterInput) (*models.User, error) {
	if err := cfg.ValidateAuth(); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(in); err != nil {
		return nil, fmt.Errorf("invalid admin account: %w", err)
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	defer closeDB(db)

	if err := database.MigrateUsers(db); err != nil {
		return nil, err
	}

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, err
	}
	return services.NewAuthService(repositories.NewGORMUserRepository(db), issuer).EnsureAdmin(ctx, in)
}
