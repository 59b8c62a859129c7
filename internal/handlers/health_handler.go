package handlers

import (
	"context"
	"time"

	"inventory/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

const healthPingTimeout = 2 * time.Second

// HealthHandler reports whether a service can reach its database.
type HealthHandler struct {
	service string
	ping    func(context.Context) error
}

// NewHealthHandler creates a HealthHandler for service using ping as the
// database probe.
func NewHealthHandler(service string, ping func(context.Context) error) *HealthHandler {
	return &HealthHandler{service: service, ping: ping}
}

// RegisterRoutes registers GET /health.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
}

// HandleHealth answers 200 when the database responds and 503 otherwise.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthPingTimeout)
	defer cancel()

	status, database, code := "UP", "connected", fiber.StatusOK
	if err := h.ping(ctx); err != nil {
		logger.Warn("health check failed", "service", h.service, "err", err)
		status, database, code = "DOWN", "disconnected", fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    status,
		"service":   h.service,
		"database":  database,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
