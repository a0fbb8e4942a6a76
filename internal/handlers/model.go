package handlers

import (
	"github.com/gofiber/fiber/v2"

	"inkwell/internal/models"
	"inkwell/internal/services"
)

// ModelHandler exposes the catalog to the editor.
type ModelHandler struct {
	catalog *services.CatalogService
}

// NewModelHandler creates the model handler.
func NewModelHandler(catalog *services.CatalogService) *ModelHandler {
	return &ModelHandler{catalog: catalog}
}

// List returns the cataloged models, optionally filtered by provider.
func (h *ModelHandler) List(c *fiber.Ctx) error {
	provider := c.Query("provider")

	var list []models.ModelInfo
	if provider != "" {
		list = h.catalog.GetByProvider(models.Provider(provider))
	} else {
		list = h.catalog.GetAll()
	}

	return c.JSON(fiber.Map{
		"models":   list,
		"warnings": h.catalog.Warnings(),
	})
}

// Refresh triggers a registry refresh. Fallbacks are silent; the response
// carries any recorded warnings.
func (h *ModelHandler) Refresh(c *fiber.Ctx) error {
	if err := h.catalog.Refresh(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to refresh catalog",
		})
	}
	return c.JSON(fiber.Map{
		"models":   len(h.catalog.GetAll()),
		"warnings": h.catalog.Warnings(),
	})
}

// MergeSnapshot accepts a live-provider model listing and overlays its
// availability onto the catalog.
func (h *ModelHandler) MergeSnapshot(c *fiber.Ctx) error {
	var snapshot models.ProviderSnapshot
	if err := c.BodyParser(&snapshot); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid snapshot payload",
		})
	}
	if snapshot.Provider == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "snapshot provider is required",
		})
	}

	h.catalog.MergeSnapshot(&snapshot)
	return c.JSON(fiber.Map{"merged": len(snapshot.Models)})
}
