package services

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/providers"
)

// scriptedAdapter returns canned execution results in order and records the
// parameters of every call.
type scriptedAdapter struct {
	results  []*models.ExecutionResult
	calls    int
	lastTxt  providers.GenerateParams
	lastJSON providers.JSONParams
}

func (a *scriptedAdapter) next() *models.ExecutionResult {
	i := a.calls
	a.calls++
	if i >= len(a.results) {
		return a.results[len(a.results)-1]
	}
	return a.results[i]
}

func (a *scriptedAdapter) GenerateText(_ context.Context, p providers.GenerateParams) *models.ExecutionResult {
	a.lastTxt = p
	return a.next()
}

func (a *scriptedAdapter) GenerateJSON(_ context.Context, p providers.JSONParams) *models.ExecutionResult {
	a.lastJSON = p
	return a.next()
}

func ok(content string) *models.ExecutionResult {
	return &models.ExecutionResult{Success: true, Content: content, Status: models.RunSuccess}
}

func newTestOrchestrator(t *testing.T, adapter providers.Adapter) *Orchestrator {
	t.Helper()

	settings := NewSettingsService(filepath.Join(t.TempDir(), "ai_settings.json"))
	if err := settings.Load(); err != nil {
		t.Fatal(err)
	}
	if err := settings.Update(func(s *models.AiSettings) {
		s.Provider = models.ProviderAnthropic
		s.Policy = models.PinnedPolicy("claude-sonnet-4.5")
		s.AccessTiers = map[models.Provider]models.AccessTier{
			models.ProviderAnthropic: models.AccessPro,
		}
	}); err != nil {
		t.Fatal(err)
	}

	registry := providers.NewRegistry()
	if adapter != nil {
		registry.Register(models.ProviderAnthropic, adapter)
	}

	o := NewOrchestrator(
		NewCatalogService("", "", 7*24*time.Hour),
		settings,
		NewCapsCompiler(),
		registry,
		NewRateLimiter(),
		NewRunCache(time.Minute),
		nil,
	)
	o.sleep = func(context.Context, time.Duration) error { return nil }
	return o
}

func TestRunTextSuccess(t *testing.T) {
	adapter := &scriptedAdapter{results: []*models.ExecutionResult{ok("Once upon a time.")}}
	o := newTestOrchestrator(t, adapter)

	result := o.Run(context.Background(), &models.RunRequest{
		Feature:    "draft",
		Task:       "continue",
		ReturnType: models.ReturnText,
		Material:   "The story so far.",
	})

	if result.Status != models.RunSuccess {
		t.Fatalf("expected success, got %s (%s)", result.Status, result.Message)
	}
	if result.Content == nil || *result.Content != "Once upon a time." {
		t.Error("content mismatch")
	}
	if result.Debug == nil || result.Debug.ModelAlias != "claude-sonnet-4.5" {
		t.Error("debug context must carry the selected model")
	}
	if result.Debug.RunID == "" {
		t.Error("debug context must carry a run id")
	}
	if adapter.lastTxt.ModelID != "claude-sonnet-4-5" {
		t.Errorf("adapter must receive the wire id, got %q", adapter.lastTxt.ModelID)
	}
	if adapter.lastTxt.MaxOutputTokens <= 0 {
		t.Error("adapter must receive a computed output budget")
	}
}

func TestRunDisabledProvider(t *testing.T) {
	o := newTestOrchestrator(t, &scriptedAdapter{results: []*models.ExecutionResult{ok("x")}})
	if err := o.settings.Update(func(s *models.AiSettings) {
		s.Provider = models.ProviderNone
	}); err != nil {
		t.Fatal(err)
	}

	result := o.Run(context.Background(), &models.RunRequest{Feature: "draft", ReturnType: models.ReturnText})
	if result.Status != models.RunUnavailable {
		t.Errorf("disabled provider must be unavailable, got %s", result.Status)
	}
	if result.Content != nil {
		t.Error("failures must carry nil content")
	}
}

func TestRunBudgetGuardRejectsBeforeNetwork(t *testing.T) {
	adapter := &scriptedAdapter{results: []*models.ExecutionResult{ok("never")}}
	o := newTestOrchestrator(t, adapter)

	// Pro tier: 200000 * 0.75 = 150000 input budget, guard at 120000 tokens.
	huge := strings.Repeat("word ", 130000) // ~162k tokens
	result := o.Run(context.Background(), &models.RunRequest{
		Feature:    "draft",
		ReturnType: models.ReturnText,
		Material:   huge,
	})

	if result.Status != models.RunRejected || result.Reason != models.ReasonTruncated {
		t.Fatalf("expected rejected/truncated, got %s/%s", result.Status, result.Reason)
	}
	if adapter.calls != 0 {
		t.Error("the budget guard must fire before any provider call")
	}
}

func TestRunJSONRetryOnce(t *testing.T) {
	adapter := &scriptedAdapter{results: []*models.ExecutionResult{
		ok("not json at all"),
		ok(`{"title": "The Hollow Coast"}`),
	}}
	o := newTestOrchestrator(t, adapter)

	result := o.Run(context.Background(), &models.RunRequest{
		Feature:    "title_generator",
		ReturnType: models.ReturnJSON,
		JSON:       &models.JSONSpec{RequiredKeys: []string{"title"}},
		Material:   "A novel about a drowned village.",
	})

	if result.Status != models.RunSuccess {
		t.Fatalf("expected success after retry, got %s (%s)", result.Status, result.Message)
	}
	if result.RetryCount != 1 {
		t.Errorf("expected retryCount 1, got %d", result.RetryCount)
	}
	if adapter.calls != 2 {
		t.Errorf("expected exactly 2 provider calls, got %d", adapter.calls)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "repaired") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a repair warning, got %v", result.Warnings)
	}
}

func TestRunJSONFailsAfterSingleRetry(t *testing.T) {
	adapter := &scriptedAdapter{results: []*models.ExecutionResult{
		ok("still not json"),
		ok("and again not json"),
	}}
	o := newTestOrchestrator(t, adapter)

	result := o.Run(context.Background(), &models.RunRequest{
		Feature:    "title_generator",
		ReturnType: models.ReturnJSON,
		JSON:       &models.JSONSpec{RequiredKeys: []string{"title"}},
		Material:   "Material.",
	})

	if result.Status != models.RunRejected || result.Reason != models.ReasonInvalidResponse {
		t.Fatalf("expected rejected/invalid_response, got %s/%s", result.Status, result.Reason)
	}
	if adapter.calls != 2 {
		t.Errorf("at most one retry is allowed, got %d calls", adapter.calls)
	}
}

func TestRunJSONMissingRequiredKey(t *testing.T) {
	adapter := &scriptedAdapter{results: []*models.ExecutionResult{
		ok(`{"headline": "x"}`),
		ok(`{"headline": "y"}`),
	}}
	o := newTestOrchestrator(t, adapter)

	result := o.Run(context.Background(), &models.RunRequest{
		Feature:    "title_generator",
		ReturnType: models.ReturnJSON,
		JSON:       &models.JSONSpec{RequiredKeys: []string{"title"}},
		Material:   "Material.",
	})

	if result.Status != models.RunRejected || result.Reason != models.ReasonInvalidResponse {
		t.Fatalf("expected rejected/invalid_response, got %s/%s", result.Status, result.Reason)
	}
}

func TestRunJSONStripsFences(t *testing.T) {
	adapter := &scriptedAdapter{results: []*models.ExecutionResult{
		ok("```json\n{\"title\": \"Fenced\"}\n```"),
	}}
	o := newTestOrchestrator(t, adapter)

	result := o.Run(context.Background(), &models.RunRequest{
		Feature:    "title_generator",
		ReturnType: models.ReturnJSON,
		JSON:       &models.JSONSpec{RequiredKeys: []string{"title"}},
		Material:   "Material.",
	})

	if result.Status != models.RunSuccess {
		t.Fatalf("fenced JSON must validate, got %s", result.Status)
	}
	if result.RetryCount != 0 {
		t.Errorf("no retry needed, got %d", result.RetryCount)
	}
	if !strings.HasPrefix(*result.Content, "{") {
		t.Errorf("content must be the bare object, got %q", *result.Content)
	}
}

func TestRunJSONRequiresStrictCapability(t *testing.T) {
	adapter := &scriptedAdapter{results: []*models.ExecutionResult{ok(`{"k":1}`)}}
	o := newTestOrchestrator(t, adapter)
	o.adapters.Register(models.ProviderLocal, adapter)

	if err := o.settings.Update(func(s *models.AiSettings) {
		s.Provider = models.ProviderLocal
		s.Policy = models.PinnedPolicy("llama-3.3-70b")
	}); err != nil {
		t.Fatal(err)
	}

	result := o.Run(context.Background(), &models.RunRequest{
		Feature:    "outline",
		ReturnType: models.ReturnJSON,
		Material:   "Material.",
	})

	// llama-3.3-70b has no jsonStrict; qwen-3-32b does, so latest-stable
	// fallback lands there with a warning about the pin.
	if result.Status != models.RunSuccess {
		t.Fatalf("unexpected status %s (%s)", result.Status, result.Message)
	}
	if result.Debug.ModelAlias != "qwen-3-32b" {
		t.Errorf("expected fallback to a jsonStrict model, got %s", result.Debug.ModelAlias)
	}
	if len(result.Warnings) == 0 {
		t.Error("unhonored pin must produce a warning")
	}
}

func TestRunCacheHit(t *testing.T) {
	adapter := &scriptedAdapter{results: []*models.ExecutionResult{ok("cached answer")}}
	o := newTestOrchestrator(t, adapter)

	req := &models.RunRequest{
		Feature:    "draft",
		Task:       "continue",
		ReturnType: models.ReturnText,
		Material:   "Same material.",
	}

	first := o.Run(context.Background(), req)
	if first.Status != models.RunSuccess || first.FromCache {
		t.Fatalf("first run must hit the provider: %+v", first)
	}

	second := o.Run(context.Background(), req)
	if second.Status != models.RunSuccess {
		t.Fatalf("second run failed: %s", second.Status)
	}
	if !second.FromCache {
		t.Error("identical request must be served from cache")
	}
	if adapter.calls != 1 {
		t.Errorf("cache hit must not call the provider again, got %d calls", adapter.calls)
	}
}

func TestRunFailuresAreNotCached(t *testing.T) {
	adapter := &scriptedAdapter{results: []*models.ExecutionResult{
		{Success: false, Status: models.RunUnavailable, Message: "down"},
		ok("recovered"),
	}}
	o := newTestOrchestrator(t, adapter)

	req := &models.RunRequest{Feature: "draft", ReturnType: models.ReturnText, Material: "M."}

	first := o.Run(context.Background(), req)
	if first.Status != models.RunUnavailable {
		t.Fatalf("expected unavailable, got %s", first.Status)
	}

	second := o.Run(context.Background(), req)
	if second.Status != models.RunSuccess || second.FromCache {
		t.Error("a failure must not poison the cache")
	}
	if adapter.calls != 2 {
		t.Errorf("expected 2 provider calls, got %d", adapter.calls)
	}
}

func TestRunMissingAdapterIsFatal(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	result := o.Run(context.Background(), &models.RunRequest{
		Feature:    "draft",
		ReturnType: models.ReturnText,
		Material:   "M.",
	})
	if result.Status != models.RunUnavailable {
		t.Errorf("missing adapter must be unavailable, got %s", result.Status)
	}
	if !strings.Contains(result.Message, "adapter") {
		t.Errorf("message should explain the wiring failure, got %q", result.Message)
	}
}

func TestRunCapabilityFloorNamesProvider(t *testing.T) {
	o := newTestOrchestrator(t, &scriptedAdapter{results: []*models.ExecutionResult{ok("x")}})

	result := o.Run(context.Background(), &models.RunRequest{
		Feature:      "draft",
		ReturnType:   models.ReturnText,
		Capabilities: []models.Capability{models.CapVision, models.CapHighOutput, models.CapLongContext, models.CapStrongReasoning, models.CapJSONStrict, models.CapToolCalling, models.CapStreaming},
		Provider:     models.ProviderLocal,
		Material:     "M.",
	})

	if result.Status != models.RunRejected {
		t.Fatalf("expected rejected, got %s", result.Status)
	}
	if !strings.Contains(result.Message, "local") {
		t.Errorf("capability floor must name the provider, got %q", result.Message)
	}
}

func TestRunRequestOverridesSettings(t *testing.T) {
	adapter := &scriptedAdapter{results: []*models.ExecutionResult{ok("from openai")}}
	o := newTestOrchestrator(t, adapter)
	o.adapters.Register(models.ProviderOpenAI, adapter)

	result := o.Run(context.Background(), &models.RunRequest{
		Feature:    "draft",
		ReturnType: models.ReturnText,
		Material:   "M.",
		Provider:   models.ProviderOpenAI,
	})

	if result.Status != models.RunSuccess {
		t.Fatalf("unexpected status %s", result.Status)
	}
	if result.Debug.Provider != models.ProviderOpenAI {
		t.Errorf("request provider override must win, got %s", result.Debug.Provider)
	}
}
