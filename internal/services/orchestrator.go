package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/models"
	"inkwell/internal/providers"
)

// budgetGuardRatio is the share of the input budget a prompt may use before
// it is rejected without a network call.
const budgetGuardRatio = 0.8

// Orchestrator runs one generation request end to end: compose, select,
// compute caps, guard the budget, consult the cache, pace the provider,
// execute, validate, and record.
type Orchestrator struct {
	catalog  *CatalogService
	settings *SettingsService
	compiler *CapsCompiler
	adapters *providers.Registry
	limiter  *RateLimiter
	cache    *RunCache
	runLog   *RunLogService // optional

	sleep func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator wires the orchestrator. runLog may be nil.
func NewOrchestrator(catalog *CatalogService, settings *SettingsService, compiler *CapsCompiler,
	adapters *providers.Registry, limiter *RateLimiter, cache *RunCache, runLog *RunLogService) *Orchestrator {
	return &Orchestrator{
		catalog:  catalog,
		settings: settings,
		compiler: compiler,
		adapters: adapters,
		limiter:  limiter,
		cache:    cache,
		runLog:   runLog,
		sleep:    sleepCtx,
	}
}

// Run executes one request. It always returns a classified result; no raw
// provider or transport error ever escapes.
func (o *Orchestrator) Run(ctx context.Context, req *models.RunRequest) *models.RunResult {
	start := time.Now()
	settings := o.settings.Get()

	provider, policy, override := resolveRouting(settings, req)
	if provider == models.ProviderNone {
		return o.finish(req, start, &models.RunResult{
			Status:  models.RunUnavailable,
			Message: "AI is disabled in settings",
		})
	}

	required := models.Caps(req.Capabilities...)
	for _, c := range override.Capabilities {
		required[c] = true
	}
	if req.ReturnType == models.ReturnJSON {
		required[models.CapJSONStrict] = true
	}

	envelope := ComposeEnvelope(req)
	estimated := EstimateEnvelopeTokens(envelope)

	selection, err := Select(o.catalog.GetAll(), models.SelectionRequest{
		Provider:    provider,
		Policy:      policy,
		Required:    required,
		InputTokens: estimated,
	})
	if err != nil {
		var floor *models.CapabilityFloorError
		if errors.As(err, &floor) {
			return o.finish(req, start, &models.RunResult{
				Status:  models.RunRejected,
				Message: floor.Error(),
			})
		}
		return o.finish(req, start, &models.RunResult{
			Status:  models.RunUnavailable,
			Message: "model selection failed",
		})
	}
	model := selection.Model

	caps := o.compiler.ComputeCaps(provider, &model, settings.AccessTierFor(provider), req.Feature, models.CapsOverrides{
		Temperature: override.Temperature,
		OutputMode:  override.OutputMode,
	})

	debug := &models.RunDebugContext{
		RunID:           uuid.NewString(),
		Provider:        provider,
		ModelAlias:      model.Alias,
		ModelID:         model.ID,
		SelectionReason: selection.Reason,
		Caps:            caps,
		SystemPrompt:    envelope.System,
		UserPrompt:      envelope.User,
		EstimatedInput:  estimated,
		StartedAt:       start,
	}

	budget := int(float64(caps.MaxInputTokens) * budgetGuardRatio)
	if estimated > budget {
		budgetRejections.Inc()
		budgetErr := &models.BudgetExceededError{EstimatedTokens: estimated, BudgetTokens: budget}
		return o.finish(req, start, &models.RunResult{
			Status:   models.RunRejected,
			Reason:   models.ReasonTruncated,
			Message:  budgetErr.Error(),
			Warnings: selection.Warnings,
			Debug:    debug,
		})
	}

	cacheKey := o.cache.Key(provider, model.Alias, req.ReturnType, req.Feature, req.Task, envelope.CacheText())
	if cached, ok := o.cache.Get(cacheKey); ok {
		cacheHitsTotal.Inc()
		log.Printf("⚡ [RUN] %s served from cache", req.Feature)
		return o.finish(req, start, cached)
	}

	waited, err := o.limiter.WaitForSlot(ctx, RateKey(req.Feature, provider), caps.RequestsPerMinute)
	if err != nil {
		return o.finish(req, start, &models.RunResult{
			Status:   models.RunTimeout,
			Message:  "canceled while waiting for a rate-limit slot",
			Warnings: selection.Warnings,
			Debug:    debug,
		})
	}
	if waited > 0 {
		rateLimitWaits.Inc()
	}

	adapter, ok := o.adapters.Get(provider)
	if !ok {
		// A selected model with no registered adapter is a wiring defect,
		// not something a retry can fix.
		return o.finish(req, start, &models.RunResult{
			Status:   models.RunUnavailable,
			Message:  fmt.Sprintf("no adapter registered for provider %s", provider),
			Warnings: selection.Warnings,
			Debug:    debug,
		})
	}

	params := providers.GenerateParams{
		ModelID:         model.ID,
		SystemPrompt:    envelope.System,
		UserPrompt:      envelope.User,
		MaxOutputTokens: caps.MaxOutputTokens,
		Temperature:     caps.Temperature,
		TopP:            caps.TopP,
	}

	result := o.execute(ctx, adapter, req, params, caps)
	result.Warnings = append(selection.Warnings, result.Warnings...)
	result.Debug = debug

	if result.Status == models.RunSuccess {
		o.cache.Put(cacheKey, result)
	}
	return o.finish(req, start, result)
}

// execute performs the provider call, including JSON validation with at most
// one identical retry when the retry policy allows it.
func (o *Orchestrator) execute(ctx context.Context, adapter providers.Adapter, req *models.RunRequest,
	params providers.GenerateParams, caps models.ComputedCaps) *models.RunResult {

	if req.ReturnType != models.ReturnJSON {
		exec := adapter.GenerateText(ctx, params)
		return fromExecution(exec, 0)
	}

	spec := models.JSONSpec{}
	if req.JSON != nil {
		spec = *req.JSON
	}
	jsonParams := providers.JSONParams{GenerateParams: params, Spec: spec}

	retries := 0
	for {
		exec := adapter.GenerateJSON(ctx, jsonParams)
		if !exec.Success {
			return fromExecution(exec, retries)
		}

		content, err := validateJSON(exec.Content, spec)
		if err == nil {
			result := fromExecution(exec, retries)
			result.Content = &content
			if retries > 0 {
				result.Warnings = append(result.Warnings, "response repaired after retry")
			}
			return result
		}

		if retries == 0 && caps.Retry.RetryMalformedJSON {
			retries++
			retriesTotal.Inc()
			log.Printf("🔁 [RUN] %s returned malformed JSON, retrying once", req.Feature)
			if sleepErr := o.sleep(ctx, caps.Retry.BaseDelay); sleepErr != nil {
				return &models.RunResult{
					Status:     models.RunTimeout,
					Message:    "canceled during retry backoff",
					RetryCount: retries,
				}
			}
			continue
		}

		return &models.RunResult{
			Status:     models.RunRejected,
			Reason:     models.ReasonInvalidResponse,
			Message:    providers.HumanMessage(models.RunRejected, models.ReasonInvalidResponse),
			RetryCount: retries,
		}
	}
}

func fromExecution(exec *models.ExecutionResult, retries int) *models.RunResult {
	result := &models.RunResult{
		Status:     exec.Status,
		Reason:     exec.Reason,
		Message:    exec.Message,
		RetryCount: retries,
	}
	if exec.Success {
		content := exec.Content
		result.Content = &content
	}
	return result
}

// finish stamps the duration, records metrics and history, and returns the
// result.
func (o *Orchestrator) finish(req *models.RunRequest, start time.Time, result *models.RunResult) *models.RunResult {
	elapsed := time.Since(start)
	if result.Debug != nil {
		result.Debug.DurationMs = elapsed.Milliseconds()
	}

	providerLabel := "none"
	if result.Debug != nil {
		providerLabel = string(result.Debug.Provider)
	}
	recordRun(req.Feature, providerLabel, string(result.Status), elapsed.Seconds())

	if o.runLog != nil {
		o.runLog.Record(req.Feature, req.Task, result)
	}
	return result
}

// resolveRouting folds settings, feature override and request override into
// the effective provider and policy.
func resolveRouting(settings *models.AiSettings, req *models.RunRequest) (models.Provider, models.ModelPolicy, models.FeatureOverride) {
	provider := settings.Provider
	policy := settings.Policy
	override := settings.FeatureOverrides[req.Feature]

	if override.Provider != "" {
		provider = override.Provider
	}
	if override.Policy != nil {
		policy = *override.Policy
	}
	if req.Provider != "" {
		provider = req.Provider
	}
	if req.Policy != nil {
		policy = *req.Policy
	}
	return provider, policy, override
}

// validateJSON checks that content parses as a JSON object carrying every
// required key, tolerating markdown fences around the object. It returns the
// bare object text.
func validateJSON(content string, spec models.JSONSpec) (string, error) {
	trimmed := stripFences(content)

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}
	for _, key := range spec.RequiredKeys {
		if _, ok := parsed[key]; !ok {
			return "", fmt.Errorf("missing required key %q", key)
		}
	}
	return trimmed, nil
}

func stripFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		if idx := strings.Index(trimmed, "\n"); idx >= 0 {
			trimmed = trimmed[idx+1:]
		}
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
		trimmed = strings.TrimSpace(trimmed)
	}
	// Fall back to the outermost object if the model added prose around it.
	if !strings.HasPrefix(trimmed, "{") {
		first := strings.Index(trimmed, "{")
		last := strings.LastIndex(trimmed, "}")
		if first >= 0 && last > first {
			trimmed = trimmed[first : last+1]
		}
	}
	return trimmed
}
