package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"inkwell/internal/models"
)

func TestCatalogBuiltin(t *testing.T) {
	svc := NewCatalogService("", "", 7*24*time.Hour)

	all := svc.GetAll()
	if len(all) == 0 {
		t.Fatal("built-in catalog must not be empty")
	}

	if _, ok := svc.FindByAlias("claude-sonnet-4.5"); !ok {
		t.Error("expected claude-sonnet-4.5 in the built-in catalog")
	}
	if _, ok := svc.FindByAlias("nonexistent"); ok {
		t.Error("unknown alias must not resolve")
	}

	anthropic := svc.GetByProvider(models.ProviderAnthropic)
	for _, m := range anthropic {
		if m.Provider != models.ProviderAnthropic {
			t.Errorf("GetByProvider leaked %s model %s", m.Provider, m.Alias)
		}
	}
}

func TestCatalogRefreshFromRegistry(t *testing.T) {
	remote := models.RemoteCatalog{Models: []models.ModelInfo{
		{Provider: models.ProviderOpenAI, ID: "gpt-6", Alias: "gpt-6", ContextWindow: 500000, MaxOutput: 64000,
			Status: models.StatusStable, ReleasedAt: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)},
		{Provider: models.ProviderAnthropic, ID: "claude-sonnet-4-5", Alias: "claude-sonnet-4.5",
			ContextWindow: 300000, MaxOutput: 64000, Status: models.StatusStable},
		{Provider: "", ID: "broken", Alias: "broken", ContextWindow: 1000},   // missing provider
		{Provider: models.ProviderOpenAI, ID: "bad", Alias: "bad-window"},    // no context window
		{Provider: models.ProviderOpenAI, ID: "no-alias", ContextWindow: 10}, // missing alias
	}}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(remote)
	}))
	defer server.Close()

	cachePath := filepath.Join(t.TempDir(), "catalog_cache.json")
	svc := NewCatalogService(server.URL, cachePath, 7*24*time.Hour)

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	// New remote aliases join the catalog.
	if _, ok := svc.FindByAlias("gpt-6"); !ok {
		t.Error("expected the new remote model in the catalog")
	}

	// A remote entry with a known alias overrides the built-in one.
	sonnet, ok := svc.FindByAlias("claude-sonnet-4.5")
	if !ok {
		t.Fatal("built-in model must survive a refresh")
	}
	if sonnet.ContextWindow != 300000 {
		t.Errorf("remote entry must override the built-in alias, got window %d", sonnet.ContextWindow)
	}

	// Built-ins absent from the registry response stay resolvable.
	if _, ok := svc.FindByAlias("claude-opus-4.6"); !ok {
		t.Error("built-in models absent from the registry must survive")
	}
	for _, alias := range []string{"broken", "bad-window"} {
		if _, ok := svc.FindByAlias(alias); ok {
			t.Errorf("malformed entry %s must be discarded", alias)
		}
	}
	if len(svc.Warnings()) != 0 {
		t.Errorf("successful refresh must not warn, got %v", svc.Warnings())
	}

	// The fetch must be cached with a timestamp, holding only the valid
	// remote entries.
	data, err := os.ReadFile(cachePath)
	if err != nil {
		t.Fatalf("cache file missing: %v", err)
	}
	var cached models.CatalogCache
	if err := json.Unmarshal(data, &cached); err != nil {
		t.Fatalf("cache file invalid: %v", err)
	}
	if cached.FetchedAt.IsZero() || len(cached.Models) != 2 {
		t.Errorf("cache content wrong: %+v", cached)
	}
}

func TestCatalogRefreshFallsBackToFreshCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cachePath := filepath.Join(t.TempDir(), "catalog_cache.json")
	cached := models.CatalogCache{
		FetchedAt: time.Now().Add(-24 * time.Hour),
		Models: []models.ModelInfo{
			{Provider: models.ProviderOpenAI, ID: "cached-model", Alias: "cached-model",
				ContextWindow: 100000, MaxOutput: 8192, Status: models.StatusStable},
		},
	}
	data, _ := json.Marshal(cached)
	if err := os.WriteFile(cachePath, data, 0o644); err != nil {
		t.Fatal(err)
	}

	svc := NewCatalogService(server.URL, cachePath, 7*24*time.Hour)
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("fallback must not fail: %v", err)
	}

	if _, ok := svc.FindByAlias("cached-model"); !ok {
		t.Error("expected the cached catalog to be installed")
	}
	if _, ok := svc.FindByAlias("claude-sonnet-4.5"); !ok {
		t.Error("built-in models must survive the cached fallback")
	}
	warnings := strings.Join(svc.Warnings(), "; ")
	if !strings.Contains(warnings, "cached") {
		t.Errorf("fallback must record a warning, got %q", warnings)
	}
}

func TestCatalogRefreshFallsBackToBuiltinWhenCacheStale(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cachePath := filepath.Join(t.TempDir(), "catalog_cache.json")
	stale := models.CatalogCache{
		FetchedAt: time.Now().Add(-8 * 24 * time.Hour),
		Models: []models.ModelInfo{
			{Provider: models.ProviderOpenAI, ID: "stale", Alias: "stale", ContextWindow: 1000},
		},
	}
	data, _ := json.Marshal(stale)
	if err := os.WriteFile(cachePath, data, 0o644); err != nil {
		t.Fatal(err)
	}

	svc := NewCatalogService(server.URL, cachePath, 7*24*time.Hour)
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("fallback must not fail: %v", err)
	}

	if _, ok := svc.FindByAlias("stale"); ok {
		t.Error("stale cache must not be used")
	}
	if _, ok := svc.FindByAlias("claude-sonnet-4.5"); !ok {
		t.Error("expected the built-in catalog after a stale cache")
	}
	warnings := strings.Join(svc.Warnings(), "; ")
	if !strings.Contains(warnings, "built-in") {
		t.Errorf("builtin fallback must record a warning, got %q", warnings)
	}
}

func TestCatalogMergeSnapshot(t *testing.T) {
	svc := NewCatalogService("", "", 7*24*time.Hour)

	before, _ := svc.FindByAlias("claude-sonnet-4.5")
	snapshot := &models.ProviderSnapshot{
		Provider:    models.ProviderAnthropic,
		GeneratedAt: time.Now(),
		Models: []models.CanonicalModelRecord{
			{Provider: models.ProviderAnthropic, ID: before.ID},
		},
	}
	svc.MergeSnapshot(snapshot)

	after, _ := svc.FindByAlias("claude-sonnet-4.5")
	if after.Availability != models.AvailabilityVisible {
		t.Errorf("listed model must be visible, got %s", after.Availability)
	}
	if after.Tier != before.Tier || !after.Capabilities.HasAll(before.Capabilities) {
		t.Error("snapshot merge must not touch capability or tier data")
	}

	opus, _ := svc.FindByAlias("claude-opus-4.6")
	if opus.Availability != models.AvailabilityNotVisible {
		t.Errorf("unlisted model of the snapshot provider must be not_visible, got %s", opus.Availability)
	}

	gpt, _ := svc.FindByAlias("gpt-5.2")
	if gpt.Availability != models.AvailabilityUnknown && gpt.Availability != "" {
		t.Errorf("other providers must be untouched, got %s", gpt.Availability)
	}
}
