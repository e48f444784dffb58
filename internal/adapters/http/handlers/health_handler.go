package handlers

import (
	"tontinepro/internal/config"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check endpoints
type HealthHandler struct{}

// NewHealthHandler creates a new health handler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Root handles the root endpoint
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "running",
		"message": "TontinePro API v1.0 is running",
		"mode":    config.AppConfig.AppMode,
	})
}

// HealthCheck checks API and database health
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := config.HealthCheck(); err != nil {
		dbStatus = "down"
	}

	status := fiber.StatusOK
	if dbStatus != "ok" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status":   "ok",
		"database": dbStatus,
	})
}
