package handlers

import (
	"github.com/gofiber/fiber/v2"

	"inkwell/internal/models"
	"inkwell/internal/services"
)

// RunHandler exposes orchestrated generation and the run history trail.
type RunHandler struct {
	orchestrator *services.Orchestrator
	runLog       *services.RunLogService
}

// NewRunHandler creates the run handler. runLog may be nil.
func NewRunHandler(orchestrator *services.Orchestrator, runLog *services.RunLogService) *RunHandler {
	return &RunHandler{orchestrator: orchestrator, runLog: runLog}
}

// Run executes one generation request. The response is always a classified
// result; HTTP status stays 200 for run-level failures so the editor can
// branch on the taxonomy, not on transport codes.
func (h *RunHandler) Run(c *fiber.Ctx) error {
	var req models.RunRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid run payload",
		})
	}
	if req.Feature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "feature is required",
		})
	}
	if req.ReturnType == "" {
		req.ReturnType = models.ReturnText
	}

	result := h.orchestrator.Run(c.Context(), &req)
	return c.JSON(result)
}

// Recent returns the most recent runs for a feature, newest first.
func (h *RunHandler) Recent(c *fiber.Ctx) error {
	if h.runLog == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "run history is disabled",
		})
	}

	feature := c.Query("feature")
	if feature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "feature query parameter is required",
		})
	}

	records, err := h.runLog.RecentByFeature(feature, c.QueryInt("limit", 20))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load run history",
		})
	}
	return c.JSON(fiber.Map{"runs": records})
}
