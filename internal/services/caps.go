package services

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"inkwell/internal/models"
)

// TierCaps are the raw per-provider, per-access-tier limits the compiler
// works from.
type TierCaps struct {
	MaxOutputTokens   int     `yaml:"max_output_tokens"`
	RequestsPerMinute float64 `yaml:"requests_per_minute"`
	RetryAttempts     int     `yaml:"retry_attempts"`
	SafeUtilization   float64 `yaml:"safe_utilization"`
}

// CapsTable maps provider and access tier to raw limits.
type CapsTable map[models.Provider]map[models.AccessTier]TierCaps

// defaultCapsTable is the shipped limits table. Values are nondecreasing
// across the tier order free < standard < pro < max.
func defaultCapsTable() CapsTable {
	return CapsTable{
		models.ProviderOpenAI: {
			models.AccessFree:     {MaxOutputTokens: 2048, RequestsPerMinute: 3, RetryAttempts: 1, SafeUtilization: 0.50},
			models.AccessStandard: {MaxOutputTokens: 4096, RequestsPerMinute: 10, RetryAttempts: 1, SafeUtilization: 0.60},
			models.AccessPro:      {MaxOutputTokens: 8192, RequestsPerMinute: 30, RetryAttempts: 2, SafeUtilization: 0.75},
			models.AccessMax:      {MaxOutputTokens: 16384, RequestsPerMinute: 60, RetryAttempts: 2, SafeUtilization: 0.80},
		},
		models.ProviderAnthropic: {
			models.AccessFree:     {MaxOutputTokens: 2048, RequestsPerMinute: 5, RetryAttempts: 1, SafeUtilization: 0.50},
			models.AccessStandard: {MaxOutputTokens: 4096, RequestsPerMinute: 20, RetryAttempts: 1, SafeUtilization: 0.60},
			models.AccessPro:      {MaxOutputTokens: 8192, RequestsPerMinute: 50, RetryAttempts: 2, SafeUtilization: 0.75},
			models.AccessMax:      {MaxOutputTokens: 16384, RequestsPerMinute: 100, RetryAttempts: 2, SafeUtilization: 0.80},
		},
		models.ProviderGemini: {
			models.AccessFree:     {MaxOutputTokens: 2048, RequestsPerMinute: 10, RetryAttempts: 1, SafeUtilization: 0.50},
			models.AccessStandard: {MaxOutputTokens: 4096, RequestsPerMinute: 30, RetryAttempts: 1, SafeUtilization: 0.60},
			models.AccessPro:      {MaxOutputTokens: 8192, RequestsPerMinute: 60, RetryAttempts: 2, SafeUtilization: 0.75},
			models.AccessMax:      {MaxOutputTokens: 16384, RequestsPerMinute: 120, RetryAttempts: 2, SafeUtilization: 0.80},
		},
		// Local endpoints are unmetered; zero rpm disables rate limiting.
		models.ProviderLocal: {
			models.AccessFree:     {MaxOutputTokens: 4096, RequestsPerMinute: 0, RetryAttempts: 1, SafeUtilization: 0.90},
			models.AccessStandard: {MaxOutputTokens: 4096, RequestsPerMinute: 0, RetryAttempts: 1, SafeUtilization: 0.90},
			models.AccessPro:      {MaxOutputTokens: 4096, RequestsPerMinute: 0, RetryAttempts: 1, SafeUtilization: 0.90},
			models.AccessMax:      {MaxOutputTokens: 4096, RequestsPerMinute: 0, RetryAttempts: 1, SafeUtilization: 0.90},
		},
	}
}

// featureOutputMultipliers scale the output budget by feature name
// substring. Longest-form features keep the full budget.
var featureOutputMultipliers = []struct {
	substr string
	mult   float64
}{
	{"inquiry", 1.00},
	{"draft", 1.00},
	{"synopsis", 0.60},
	{"outline", 0.60},
	{"summar", 0.50},
	{"title", 0.35},
}

const defaultFeatureMultiplier = 0.75

func featureOutputMultiplier(feature string) float64 {
	lower := strings.ToLower(feature)
	for _, entry := range featureOutputMultipliers {
		if strings.Contains(lower, entry.substr) {
			return entry.mult
		}
	}
	return defaultFeatureMultiplier
}

func modeMultiplier(mode models.OutputMode) float64 {
	switch mode {
	case models.ModeMax:
		return 1.0
	case models.ModeHigh:
		return 0.9
	default:
		return 0.75
	}
}

// deepReasoningFeature reports whether the feature warrants a colder,
// more deterministic temperature.
func deepReasoningFeature(feature string) bool {
	lower := strings.ToLower(feature)
	return strings.Contains(lower, "inquiry") || strings.Contains(lower, "analysis")
}

// CapsCompiler turns raw tier limits into concrete request budgets.
type CapsCompiler struct {
	table CapsTable
}

// NewCapsCompiler creates a compiler with the shipped limits table.
func NewCapsCompiler() *CapsCompiler {
	return &CapsCompiler{table: defaultCapsTable()}
}

// LoadTierCaps overlays limits from a YAML file onto the shipped table.
// Only providers and tiers present in the file are replaced.
func (c *CapsCompiler) LoadTierCaps(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read tier caps file: %w", err)
	}

	var override CapsTable
	if err := yaml.Unmarshal(data, &override); err != nil {
		return fmt.Errorf("failed to parse tier caps file: %w", err)
	}

	for provider, tiers := range override {
		if c.table[provider] == nil {
			c.table[provider] = map[models.AccessTier]TierCaps{}
		}
		for tier, caps := range tiers {
			c.table[provider][tier] = caps
		}
	}
	log.Printf("✅ [CAPS] Loaded tier caps overrides from %s", path)
	return nil
}

const (
	minOutputTokens = 512
	minInputTokens  = 1024
	retryBaseDelay  = 500 * time.Millisecond
)

// ComputeCaps compiles the request budget for one run. Pure with respect to
// its inputs; the disabled provider yields all-zero caps.
func (c *CapsCompiler) ComputeCaps(provider models.Provider, model *models.ModelInfo, accessTier models.AccessTier, feature string, overrides models.CapsOverrides) models.ComputedCaps {
	if provider == models.ProviderNone || model == nil {
		return models.ComputedCaps{}
	}

	tiers, ok := c.table[provider]
	if !ok {
		tiers = map[models.AccessTier]TierCaps{
			models.AccessFree: {MaxOutputTokens: 2048, RequestsPerMinute: 3, RetryAttempts: 1, SafeUtilization: 0.50},
		}
	}
	tc, ok := tiers[accessTier]
	if !ok {
		tc = tiers[models.AccessFree]
	}

	target := int(float64(tc.MaxOutputTokens) * modeMultiplier(overrides.OutputMode) * featureOutputMultiplier(feature))
	if overrides.MaxOutputTokens > 0 {
		target = overrides.MaxOutputTokens
	}
	if target < minOutputTokens {
		target = minOutputTokens
	}
	if target > tc.MaxOutputTokens {
		target = tc.MaxOutputTokens
	}
	if model.MaxOutput > 0 && target > model.MaxOutput {
		target = model.MaxOutput
	}

	maxInput := int(float64(model.ContextWindow) * tc.SafeUtilization)
	if maxInput < minInputTokens {
		maxInput = minInputTokens
	}

	temperature := 0.7
	if deepReasoningFeature(feature) {
		temperature = 0.2
	}
	if overrides.Temperature != nil {
		temperature = *overrides.Temperature
	}

	return models.ComputedCaps{
		MaxInputTokens:    maxInput,
		MaxOutputTokens:   target,
		SafeUtilization:   tc.SafeUtilization,
		Temperature:       temperature,
		TopP:              1.0,
		RequestsPerMinute: tc.RequestsPerMinute,
		Retry: models.RetryPolicy{
			MaxAttempts:        tc.RetryAttempts,
			BaseDelay:          retryBaseDelay,
			RetryMalformedJSON: tc.RetryAttempts >= 1,
		},
	}
}
