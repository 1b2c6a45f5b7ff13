package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const healthTimeout = 3 * time.Second

// Pinger is an interface for health check ping operations.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the process can reach the dependency it serves from:
// PostgreSQL for the offers backend, the backend API for the dashboard proxy.
type HealthHandler struct {
	dependency Pinger
	name       string
}

// NewHealthHandler creates a new HealthHandler. name appears in the failure message.
func NewHealthHandler(dependency Pinger, name string) *HealthHandler {
	return &HealthHandler{dependency: dependency, name: name}
}

// Check pings the dependency.
// Returns 200 OK with {"status": "healthy"} when it answers.
// Returns 503 Service Unavailable with {"status": "unhealthy", "error": "..."} otherwise.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	if err := h.dependency.Ping(ctx); err != nil {
		log.Error().Err(err).Str("dependency", h.name).Msg("health check failed")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  h.name + " connection failed",
		})
	}
	return c.JSON(fiber.Map{
		"status": "healthy",
	})
}
