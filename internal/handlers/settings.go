package handlers

import (
	"github.com/gofiber/fiber/v2"

	"inkwell/internal/models"
	"inkwell/internal/services"
)

// SettingsHandler exposes the persisted engine settings. Responses never
// include raw key material: legacy plaintext keys are masked on the way out.
type SettingsHandler struct {
	settings *services.SettingsService
}

// NewSettingsHandler creates the settings handler.
func NewSettingsHandler(settings *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Get returns the current settings with credentials masked.
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	settings := h.settings.Get()
	maskCredentials(settings)
	return c.JSON(fiber.Map{
		"settings": settings,
		"warnings": h.settings.Warnings(),
	})
}

// Update replaces the mutable settings fields and persists. Credentials are
// managed through the credentials endpoints, not here.
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	var incoming models.AiSettings
	if err := c.BodyParser(&incoming); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid settings payload",
		})
	}

	err := h.settings.Update(func(current *models.AiSettings) {
		current.Provider = incoming.Provider
		current.Policy = incoming.Policy
		current.FeatureOverrides = incoming.FeatureOverrides
		current.AccessTiers = incoming.AccessTiers
		current.Privacy = incoming.Privacy
		current.Connection = incoming.Connection
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to save settings",
		})
	}

	settings := h.settings.Get()
	maskCredentials(settings)
	return c.JSON(fiber.Map{
		"settings": settings,
		"warnings": h.settings.Warnings(),
	})
}

func maskCredentials(settings *models.AiSettings) {
	for p, ref := range settings.Credentials {
		if ref.LegacyKey != "" {
			ref.LegacyKey = "••••"
		}
		settings.Credentials[p] = ref
	}
}
