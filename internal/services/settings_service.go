package services

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"inkwell/internal/models"
)

// SettingsService owns the persisted engine settings. Every load validates
// and repairs the document, so the rest of the engine always sees a
// well-formed configuration.
type SettingsService struct {
	mu       sync.RWMutex
	path     string
	settings *models.AiSettings
	warnings []string
	onChange []func(*models.AiSettings)

	watcher *fsnotify.Watcher
}

// NewSettingsService creates the service for the settings file at path.
// Call Load before first use.
func NewSettingsService(path string) *SettingsService {
	return &SettingsService{
		path:     path,
		settings: models.DefaultSettings(),
	}
}

// Load reads the settings file, repairing invalid fields in place. A
// missing file yields defaults without error.
func (s *SettingsService) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.mu.Lock()
			s.settings = models.DefaultSettings()
			s.warnings = nil
			s.mu.Unlock()
			log.Printf("📝 [SETTINGS] No settings file at %s, using defaults", s.path)
			return nil
		}
		return fmt.Errorf("failed to read settings: %w", err)
	}

	loaded := models.DefaultSettings()
	if err := json.Unmarshal(data, loaded); err != nil {
		return fmt.Errorf("failed to parse settings: %w", err)
	}

	warnings := loaded.Normalize()
	for _, w := range warnings {
		log.Printf("⚠️ [SETTINGS] %s", w)
	}

	s.mu.Lock()
	s.settings = loaded
	s.warnings = warnings
	callbacks := append([]func(*models.AiSettings){}, s.onChange...)
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb(s.Get())
	}
	return nil
}

// Get returns a deep copy of the current settings.
func (s *SettingsService) Get() *models.AiSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSettings(s.settings)
}

// Warnings returns the repairs recorded by the most recent load.
func (s *SettingsService) Warnings() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.warnings))
	copy(out, s.warnings)
	return out
}

// Update applies mutate to a copy of the settings, re-validates, persists,
// and installs the result.
func (s *SettingsService) Update(mutate func(*models.AiSettings)) error {
	s.mu.Lock()
	updated := cloneSettings(s.settings)
	mutate(updated)
	warnings := updated.Normalize()

	if err := s.persist(updated); err != nil {
		s.mu.Unlock()
		return err
	}
	s.settings = updated
	s.warnings = warnings
	callbacks := append([]func(*models.AiSettings){}, s.onChange...)
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb(cloneSettings(updated))
	}
	return nil
}

// OnChange registers a callback invoked after every load or update.
func (s *SettingsService) OnChange(cb func(*models.AiSettings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, cb)
}

// persist writes atomically via temp file + rename. Caller holds the lock.
func (s *SettingsService) persist(settings *models.AiSettings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}

// Watch reloads the settings whenever the editor rewrites the file. Returns
// after installing the watcher; stop with Close.
func (s *SettingsService) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create settings watcher: %w", err)
	}

	// Watch the directory: editors typically replace the file by rename,
	// which drops a watch placed on the file itself.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch settings directory: %w", err)
	}
	s.watcher = watcher

	go func() {
		target := filepath.Base(s.path)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := s.Load(); err != nil {
					log.Printf("⚠️ [SETTINGS] Reload failed: %v", err)
				} else {
					log.Printf("🔄 [SETTINGS] Reloaded after external change")
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("⚠️ [SETTINGS] Watcher error: %v", err)
			}
		}
	}()

	log.Printf("👀 [SETTINGS] Watching %s for changes", s.path)
	return nil
}

// Close stops the settings watcher if one is running.
func (s *SettingsService) Close() {
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
}

func cloneSettings(in *models.AiSettings) *models.AiSettings {
	out := *in
	out.FeatureOverrides = make(map[string]models.FeatureOverride, len(in.FeatureOverrides))
	for k, v := range in.FeatureOverrides {
		if v.Policy != nil {
			p := *v.Policy
			v.Policy = &p
		}
		if v.Temperature != nil {
			t := *v.Temperature
			v.Temperature = &t
		}
		v.Capabilities = append([]models.Capability(nil), v.Capabilities...)
		out.FeatureOverrides[k] = v
	}
	out.AccessTiers = make(map[models.Provider]models.AccessTier, len(in.AccessTiers))
	for k, v := range in.AccessTiers {
		out.AccessTiers[k] = v
	}
	out.Credentials = make(map[models.Provider]models.CredentialRef, len(in.Credentials))
	for k, v := range in.Credentials {
		out.Credentials[k] = v
	}
	return &out
}
