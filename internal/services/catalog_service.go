package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"inkwell/internal/models"
)

// CatalogService owns the model catalog. It starts from the built-in curated
// list, can refresh from a remote registry with an on-disk cache, and accepts
// live-provider snapshots as advisory availability overlays.
type CatalogService struct {
	mu       sync.RWMutex
	models   []models.ModelInfo
	warnings []string

	registryURL string
	cachePath   string
	cacheTTL    time.Duration
	httpClient  *http.Client
	now         func() time.Time
}

// NewCatalogService creates a catalog seeded with the built-in model list.
// registryURL may be empty, in which case Refresh only consults the cache.
func NewCatalogService(registryURL, cachePath string, cacheTTL time.Duration) *CatalogService {
	return &CatalogService{
		models:      builtinModels(),
		registryURL: registryURL,
		cachePath:   cachePath,
		cacheTTL:    cacheTTL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		now:         time.Now,
	}
}

// GetAll returns a copy of every cataloged model.
func (s *CatalogService) GetAll() []models.ModelInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ModelInfo, len(s.models))
	copy(out, s.models)
	return out
}

// GetByProvider returns the cataloged models of one provider.
func (s *CatalogService) GetByProvider(p models.Provider) []models.ModelInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ModelInfo
	for _, m := range s.models {
		if m.Provider == p {
			out = append(out, m)
		}
	}
	return out
}

// FindByAlias looks up a model by its stable alias.
func (s *CatalogService) FindByAlias(alias string) (*models.ModelInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.models {
		if s.models[i].Alias == alias {
			m := s.models[i]
			return &m, true
		}
	}
	return nil, false
}

// Warnings returns the warnings recorded by the most recent Refresh.
func (s *CatalogService) Warnings() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.warnings))
	copy(out, s.warnings)
	return out
}

// Refresh updates the catalog from the remote registry. Remote entries are
// merged over the built-in list (same alias wins), so a sparse registry
// response never shrinks the catalog. Failures never propagate: the catalog
// falls back to the on-disk cache while it is fresh, then to the built-in
// list, recording a warning either way.
func (s *CatalogService) Refresh(ctx context.Context) error {
	var warnings []string

	if s.registryURL != "" {
		fetched, err := s.fetchRemote(ctx)
		if err == nil {
			s.writeCache(fetched)
			s.install(mergeOverBuiltin(fetched), warnings)
			log.Printf("✅ [CATALOG] Merged %d registry models over the built-in list", len(fetched))
			return nil
		}
		warnings = append(warnings, fmt.Sprintf("registry fetch failed: %v", err))
		log.Printf("⚠️ [CATALOG] Registry fetch failed: %v", err)
	}

	if cached, ok := s.readCache(); ok {
		warnings = append(warnings, "using cached catalog")
		s.install(mergeOverBuiltin(cached.Models), warnings)
		log.Printf("📦 [CATALOG] Using cached catalog (%d models, fetched %s)", len(cached.Models), cached.FetchedAt.Format(time.RFC3339))
		return nil
	}

	warnings = append(warnings, "using built-in catalog")
	s.install(builtinModels(), warnings)
	log.Printf("📦 [CATALOG] Using built-in catalog")
	return nil
}

// mergeOverBuiltin overlays remote entries onto the built-in list. A remote
// entry with a built-in alias replaces that model in place; new aliases are
// appended in their remote order.
func mergeOverBuiltin(remote []models.ModelInfo) []models.ModelInfo {
	merged := builtinModels()
	index := make(map[string]int, len(merged))
	for i, m := range merged {
		index[m.Alias] = i
	}

	for _, m := range remote {
		if i, ok := index[m.Alias]; ok {
			merged[i] = m
			continue
		}
		index[m.Alias] = len(merged)
		merged = append(merged, m)
	}
	return merged
}

func (s *CatalogService) install(list []models.ModelInfo, warnings []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models = list
	s.warnings = warnings
}

func (s *CatalogService) fetchRemote(ctx context.Context) ([]models.ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.registryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach registry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry response: %w", err)
	}

	var remote models.RemoteCatalog
	if err := json.Unmarshal(body, &remote); err != nil {
		return nil, fmt.Errorf("failed to parse registry response: %w", err)
	}

	valid := make([]models.ModelInfo, 0, len(remote.Models))
	dropped := 0
	for _, m := range remote.Models {
		if m.Provider == "" || m.Alias == "" || m.ContextWindow <= 0 {
			dropped++
			continue
		}
		if m.Status == "" {
			m.Status = models.StatusStable
		}
		valid = append(valid, m)
	}
	if dropped > 0 {
		log.Printf("⚠️ [CATALOG] Discarded %d malformed registry entries", dropped)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("registry returned no valid models")
	}
	return valid, nil
}

func (s *CatalogService) readCache() (*models.CatalogCache, bool) {
	if s.cachePath == "" {
		return nil, false
	}
	data, err := os.ReadFile(s.cachePath)
	if err != nil {
		return nil, false
	}
	var cached models.CatalogCache
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}
	if !cached.Fresh(s.now(), s.cacheTTL) || len(cached.Models) == 0 {
		return nil, false
	}
	return &cached, true
}

func (s *CatalogService) writeCache(list []models.ModelInfo) {
	if s.cachePath == "" {
		return
	}
	cached := models.CatalogCache{FetchedAt: s.now(), Models: list}
	data, err := json.Marshal(cached)
	if err != nil {
		return
	}
	if dir := filepath.Dir(s.cachePath); dir != "" && dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	if err := os.WriteFile(s.cachePath, data, 0o644); err != nil {
		log.Printf("⚠️ [CATALOG] Failed to write cache: %v", err)
	}
}

// MergeSnapshot overlays live-provider availability onto the catalog.
// Capability, tier and lifecycle data are never touched, and models absent
// from the snapshot are marked not visible rather than removed.
func (s *CatalogService) MergeSnapshot(snap *models.ProviderSnapshot) {
	if snap == nil {
		return
	}

	live := make(map[string]bool, len(snap.Models))
	for _, rec := range snap.Models {
		live[rec.ID] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	updated := 0
	for i := range s.models {
		if s.models[i].Provider != snap.Provider {
			continue
		}
		if live[s.models[i].ID] {
			s.models[i].Availability = models.AvailabilityVisible
		} else {
			s.models[i].Availability = models.AvailabilityNotVisible
		}
		updated++
	}
	log.Printf("🔄 [CATALOG] Merged %s snapshot: %d models annotated", snap.Provider, updated)
}
