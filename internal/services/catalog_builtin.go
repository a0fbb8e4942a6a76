package services

import (
	"time"

	"inkwell/internal/models"
)

// builtinModels is the curated catalog shipped with the engine. It is the
// authority for capability, tier and personality data; a remote refresh can
// replace it, and provider snapshots only overlay availability.
func builtinModels() []models.ModelInfo {
	return []models.ModelInfo{
		// Anthropic
		{
			Provider:      models.ProviderAnthropic,
			ID:            "claude-opus-4-6",
			Alias:         "claude-opus-4.6",
			Label:         "Claude Opus 4.6",
			Line:          "claude-opus",
			Tier:          models.TierDeep,
			Capabilities:  models.Caps(models.CapLongContext, models.CapJSONStrict, models.CapStrongReasoning, models.CapHighOutput, models.CapToolCalling, models.CapStreaming, models.CapVision),
			Scores:        models.PersonalityScores{Reasoning: 10, Writing: 9, Determinism: 7},
			ContextWindow: 200000,
			MaxOutput:     32000,
			Status:        models.StatusStable,
			ReleasedAt:    time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			Provider:      models.ProviderAnthropic,
			ID:            "claude-sonnet-4-5",
			Alias:         "claude-sonnet-4.5",
			Label:         "Claude Sonnet 4.5",
			Line:          "claude-sonnet",
			Tier:          models.TierBalanced,
			Capabilities:  models.Caps(models.CapLongContext, models.CapJSONStrict, models.CapStrongReasoning, models.CapToolCalling, models.CapStreaming, models.CapVision),
			Scores:        models.PersonalityScores{Reasoning: 9, Writing: 9, Determinism: 8},
			ContextWindow: 200000,
			MaxOutput:     16000,
			Status:        models.StatusStable,
			ReleasedAt:    time.Date(2025, 9, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			Provider:      models.ProviderAnthropic,
			ID:            "claude-haiku-4-5",
			Alias:         "claude-haiku-4.5",
			Label:         "Claude Haiku 4.5",
			Line:          "claude-haiku",
			Tier:          models.TierFast,
			Capabilities:  models.Caps(models.CapJSONStrict, models.CapToolCalling, models.CapStreaming),
			Scores:        models.PersonalityScores{Reasoning: 7, Writing: 7, Determinism: 8},
			ContextWindow: 200000,
			MaxOutput:     8192,
			Status:        models.StatusStable,
			ReleasedAt:    time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			Provider:      models.ProviderAnthropic,
			ID:            "claude-3-5-sonnet-20241022",
			Alias:         "claude-3.5-sonnet",
			Label:         "Claude 3.5 Sonnet",
			Line:          "claude-sonnet",
			Tier:          models.TierBalanced,
			Capabilities:  models.Caps(models.CapToolCalling, models.CapStreaming, models.CapVision),
			Scores:        models.PersonalityScores{Reasoning: 7, Writing: 8, Determinism: 7},
			ContextWindow: 200000,
			MaxOutput:     8192,
			Status:        models.StatusLegacy,
			ReleasedAt:    time.Date(2024, 10, 22, 0, 0, 0, 0, time.UTC),
		},

		// OpenAI
		{
			Provider:      models.ProviderOpenAI,
			ID:            "gpt-5.2",
			Alias:         "gpt-5.2",
			Label:         "GPT-5.2",
			Line:          "gpt-5",
			Tier:          models.TierDeep,
			Capabilities:  models.Caps(models.CapLongContext, models.CapJSONStrict, models.CapStrongReasoning, models.CapHighOutput, models.CapToolCalling, models.CapStreaming, models.CapVision),
			Scores:        models.PersonalityScores{Reasoning: 10, Writing: 8, Determinism: 7},
			ContextWindow: 400000,
			MaxOutput:     128000,
			Status:        models.StatusStable,
			ReleasedAt:    time.Date(2025, 12, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			Provider:      models.ProviderOpenAI,
			ID:            "gpt-5.2-mini",
			Alias:         "gpt-5.2-mini",
			Label:         "GPT-5.2 Mini",
			Line:          "gpt-5-mini",
			Tier:          models.TierFast,
			Capabilities:  models.Caps(models.CapLongContext, models.CapJSONStrict, models.CapToolCalling, models.CapStreaming, models.CapVision),
			Scores:        models.PersonalityScores{Reasoning: 8, Writing: 7, Determinism: 8},
			ContextWindow: 400000,
			MaxOutput:     64000,
			Status:        models.StatusStable,
			ReleasedAt:    time.Date(2025, 12, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			Provider:      models.ProviderOpenAI,
			ID:            "gpt-4.1",
			Alias:         "gpt-4.1",
			Label:         "GPT-4.1",
			Line:          "gpt-4",
			Tier:          models.TierBalanced,
			Capabilities:  models.Caps(models.CapLongContext, models.CapJSONStrict, models.CapToolCalling, models.CapStreaming, models.CapVision),
			Scores:        models.PersonalityScores{Reasoning: 7, Writing: 7, Determinism: 8},
			ContextWindow: 1047576,
			MaxOutput:     32768,
			Status:        models.StatusLegacy,
			ReleasedAt:    time.Date(2025, 4, 14, 0, 0, 0, 0, time.UTC),
		},

		// Gemini
		{
			Provider:      models.ProviderGemini,
			ID:            "gemini-3-pro",
			Alias:         "gemini-3-pro",
			Label:         "Gemini 3 Pro",
			Line:          "gemini-pro",
			Tier:          models.TierDeep,
			Capabilities:  models.Caps(models.CapLongContext, models.CapJSONStrict, models.CapStrongReasoning, models.CapHighOutput, models.CapToolCalling, models.CapStreaming, models.CapVision),
			Scores:        models.PersonalityScores{Reasoning: 9, Writing: 8, Determinism: 7},
			ContextWindow: 1000000,
			MaxOutput:     65536,
			Status:        models.StatusStable,
			ReleasedAt:    time.Date(2025, 11, 18, 0, 0, 0, 0, time.UTC),
		},
		{
			Provider:      models.ProviderGemini,
			ID:            "gemini-3-flash",
			Alias:         "gemini-3-flash",
			Label:         "Gemini 3 Flash",
			Line:          "gemini-flash",
			Tier:          models.TierFast,
			Capabilities:  models.Caps(models.CapLongContext, models.CapJSONStrict, models.CapToolCalling, models.CapStreaming, models.CapVision),
			Scores:        models.PersonalityScores{Reasoning: 8, Writing: 7, Determinism: 8},
			ContextWindow: 1000000,
			MaxOutput:     65536,
			Status:        models.StatusStable,
			ReleasedAt:    time.Date(2025, 12, 17, 0, 0, 0, 0, time.UTC),
		},

		// Local (OpenAI-compatible endpoint). No line tags; each forms its
		// own synthetic product line.
		{
			Provider:      models.ProviderLocal,
			ID:            "llama3.3:70b",
			Alias:         "llama-3.3-70b",
			Label:         "Llama 3.3 70B",
			Tier:          models.TierLocal,
			Capabilities:  models.Caps(models.CapToolCalling, models.CapStreaming),
			Scores:        models.PersonalityScores{Reasoning: 6, Writing: 6, Determinism: 6},
			ContextWindow: 131072,
			MaxOutput:     8192,
			Status:        models.StatusStable,
			ReleasedAt:    time.Date(2024, 12, 6, 0, 0, 0, 0, time.UTC),
		},
		{
			Provider:      models.ProviderLocal,
			ID:            "qwen3:32b",
			Alias:         "qwen-3-32b",
			Label:         "Qwen 3 32B",
			Tier:          models.TierLocal,
			Capabilities:  models.Caps(models.CapJSONStrict, models.CapToolCalling, models.CapStreaming),
			Scores:        models.PersonalityScores{Reasoning: 6, Writing: 5, Determinism: 7},
			ContextWindow: 32768,
			MaxOutput:     8192,
			Status:        models.StatusStable,
			ReleasedAt:    time.Date(2025, 4, 29, 0, 0, 0, 0, time.UTC),
		},
	}
}
