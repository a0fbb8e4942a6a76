package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"inkwell/internal/services"
)

// HealthHandler reports engine liveness to the editor.
type HealthHandler struct {
	catalog *services.CatalogService
	started time.Time
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(catalog *services.CatalogService) *HealthHandler {
	return &HealthHandler{catalog: catalog, started: time.Now()}
}

// Health returns engine status and catalog size.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"models":         len(h.catalog.GetAll()),
	})
}
