package services

import (
	"os"
	"path/filepath"
	"testing"

	"inkwell/internal/models"
)

func TestSettingsLoadMissingFileYieldsDefaults(t *testing.T) {
	svc := NewSettingsService(filepath.Join(t.TempDir(), "ai_settings.json"))
	if err := svc.Load(); err != nil {
		t.Fatalf("missing file must not fail: %v", err)
	}

	settings := svc.Get()
	if settings.Provider != models.ProviderNone {
		t.Errorf("default provider must be none, got %s", settings.Provider)
	}
	if settings.Policy.Kind != models.PolicyLatestStable {
		t.Errorf("default policy must be latest stable, got %s", settings.Policy.Kind)
	}
}

func TestSettingsLoadRepairsInvalidFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ai_settings.json")
	raw := `{
		"provider": "skynet",
		"policy": {"kind": "pinned"},
		"access_tiers": {"openai": "platinum"},
		"feature_overrides": {"draft": {"output_mode": "turbo"}}
	}`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	svc := NewSettingsService(path)
	if err := svc.Load(); err != nil {
		t.Fatalf("repairable settings must not fail the load: %v", err)
	}

	settings := svc.Get()
	if settings.Provider != models.ProviderNone {
		t.Errorf("unknown provider must be disabled, got %s", settings.Provider)
	}
	if settings.Policy.Kind != models.PolicyLatestStable {
		t.Errorf("alias-less pin must fall back to latest stable, got %s", settings.Policy.Kind)
	}
	if settings.AccessTiers[models.ProviderOpenAI] != models.AccessFree {
		t.Errorf("unknown access tier must fall back to free, got %s", settings.AccessTiers[models.ProviderOpenAI])
	}
	if settings.FeatureOverrides["draft"].OutputMode != models.ModeAuto {
		t.Errorf("unknown output mode must fall back to auto")
	}

	if len(svc.Warnings()) < 4 {
		t.Errorf("each repair must record a warning, got %v", svc.Warnings())
	}
}

func TestSettingsUpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ai_settings.json")
	svc := NewSettingsService(path)
	if err := svc.Load(); err != nil {
		t.Fatal(err)
	}

	err := svc.Update(func(s *models.AiSettings) {
		s.Provider = models.ProviderAnthropic
		s.Policy = models.PinnedPolicy("claude-sonnet-4.5")
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	reloaded := NewSettingsService(path)
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}
	settings := reloaded.Get()
	if settings.Provider != models.ProviderAnthropic {
		t.Errorf("persisted provider lost, got %s", settings.Provider)
	}
	if settings.Policy.PinnedAlias != "claude-sonnet-4.5" {
		t.Errorf("persisted policy lost, got %+v", settings.Policy)
	}
}

func TestSettingsGetReturnsCopy(t *testing.T) {
	svc := NewSettingsService(filepath.Join(t.TempDir(), "ai_settings.json"))
	if err := svc.Load(); err != nil {
		t.Fatal(err)
	}

	first := svc.Get()
	first.AccessTiers[models.ProviderOpenAI] = models.AccessMax

	second := svc.Get()
	if _, ok := second.AccessTiers[models.ProviderOpenAI]; ok {
		t.Error("mutating a returned copy must not affect the service")
	}
}

func TestSettingsOnChangeFires(t *testing.T) {
	svc := NewSettingsService(filepath.Join(t.TempDir(), "ai_settings.json"))
	if err := svc.Load(); err != nil {
		t.Fatal(err)
	}

	var seen models.Provider
	svc.OnChange(func(s *models.AiSettings) { seen = s.Provider })

	if err := svc.Update(func(s *models.AiSettings) {
		s.Provider = models.ProviderLocal
	}); err != nil {
		t.Fatal(err)
	}
	if seen != models.ProviderLocal {
		t.Errorf("callback saw %q", seen)
	}
}
