package handlers

import (
	"github.com/gofiber/fiber/v2"

	"inkwell/internal/models"
	"inkwell/internal/services"
)

// CredentialHandler manages provider API keys.
type CredentialHandler struct {
	settings    *services.SettingsService
	credentials *services.CredentialService
	store       services.SecretStore // may be nil
}

// NewCredentialHandler creates the credential handler.
func NewCredentialHandler(settings *services.SettingsService, credentials *services.CredentialService, store services.SecretStore) *CredentialHandler {
	return &CredentialHandler{settings: settings, credentials: credentials, store: store}
}

// Set stores an API key for a provider in secure storage.
func (h *CredentialHandler) Set(c *fiber.Ctx) error {
	provider := models.Provider(c.Params("provider"))
	if !provider.IsKnown() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown provider",
		})
	}

	var payload struct {
		APIKey string `json:"api_key"`
	}
	if err := c.BodyParser(&payload); err != nil || payload.APIKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "api_key is required",
		})
	}

	mutable, ok := h.store.(services.MutableSecretStore)
	if !ok {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "secure storage is unavailable or read-only",
		})
	}

	id := "credential/" + string(provider)
	if err := mutable.Set(id, payload.APIKey); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to store credential",
		})
	}

	err := h.settings.Update(func(settings *models.AiSettings) {
		ref := settings.Credentials[provider]
		ref.SecretID = id
		ref.LegacyKey = ""
		settings.Credentials[provider] = ref
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to save settings",
		})
	}

	return c.JSON(fiber.Map{"stored": provider})
}

// Delete removes a provider's stored key.
func (h *CredentialHandler) Delete(c *fiber.Ctx) error {
	provider := models.Provider(c.Params("provider"))

	if mutable, ok := h.store.(services.MutableSecretStore); ok {
		_ = mutable.Delete("credential/" + string(provider))
	}
	err := h.settings.Update(func(settings *models.AiSettings) {
		delete(settings.Credentials, provider)
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to save settings",
		})
	}
	return c.JSON(fiber.Map{"deleted": provider})
}

// Migrate moves legacy plaintext keys into secure storage.
func (h *CredentialHandler) Migrate(c *fiber.Ctx) error {
	report := h.credentials.MigrateLegacyKeys()
	return c.JSON(report)
}
