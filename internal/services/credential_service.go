package services

import (
	"errors"
	"fmt"
	"log"

	"inkwell/internal/models"
)

// ErrNoCredential is returned when a provider has no stored key at all.
// Local endpoints run keyless, so callers treat this as empty, not fatal.
var ErrNoCredential = errors.New("no credential configured")

// CredentialService resolves provider API keys: secure storage first, then
// the legacy plaintext field carried by older settings files.
type CredentialService struct {
	settings *SettingsService
	store    SecretStore // may be nil when no master key is configured
}

// NewCredentialService creates the resolver. store may be nil.
func NewCredentialService(settings *SettingsService, store SecretStore) *CredentialService {
	return &CredentialService{settings: settings, store: store}
}

func secretID(p models.Provider) string {
	return "credential/" + string(p)
}

// GetCredential returns the API key for a provider. Secure storage wins over
// the legacy plaintext field; ErrNoCredential means neither is set.
func (s *CredentialService) GetCredential(p models.Provider) (string, error) {
	ref, ok := s.settings.Get().Credentials[p]
	if !ok {
		return "", ErrNoCredential
	}

	if ref.SecretID != "" && s.store != nil && s.store.Has(ref.SecretID) {
		key, err := s.store.Get(ref.SecretID)
		if err != nil {
			return "", fmt.Errorf("failed to read credential for %s: %w", p, err)
		}
		return key, nil
	}

	if ref.LegacyKey != "" {
		log.Printf("⚠️ [CREDENTIALS] Using legacy plaintext key for %s, run migration", p)
		return ref.LegacyKey, nil
	}

	return "", ErrNoCredential
}

// MigrationReport summarizes one MigrateLegacyKeys pass.
type MigrationReport struct {
	Migrated []models.Provider          `json:"migrated"`
	Skipped  map[models.Provider]string `json:"skipped,omitempty"`
}

// MigrateLegacyKeys moves every legacy plaintext key into secure storage and
// clears the plaintext field. Providers that cannot be migrated are reported
// and left untouched; the pass itself never fails. After a full migration
// the serialized settings contain no raw key material.
func (s *CredentialService) MigrateLegacyKeys() MigrationReport {
	report := MigrationReport{Skipped: map[models.Provider]string{}}

	mutable, writable := s.store.(MutableSecretStore)
	current := s.settings.Get()

	for p, ref := range current.Credentials {
		if ref.LegacyKey == "" {
			report.Skipped[p] = "no legacy key"
			continue
		}
		if s.store == nil || !writable {
			report.Skipped[p] = "secure storage is unavailable or read-only"
			continue
		}

		id := secretID(p)
		if err := mutable.Set(id, ref.LegacyKey); err != nil {
			report.Skipped[p] = fmt.Sprintf("failed to store key: %v", err)
			log.Printf("⚠️ [CREDENTIALS] Migration of %s failed: %v", p, err)
			continue
		}
		report.Migrated = append(report.Migrated, p)
	}

	if len(report.Migrated) > 0 {
		migrated := report.Migrated
		if err := s.settings.Update(func(settings *models.AiSettings) {
			for _, p := range migrated {
				ref := settings.Credentials[p]
				ref.SecretID = secretID(p)
				ref.LegacyKey = ""
				settings.Credentials[p] = ref
			}
		}); err != nil {
			log.Printf("⚠️ [CREDENTIALS] Failed to persist migrated settings: %v", err)
		}
		log.Printf("🔐 [CREDENTIALS] Migrated %d legacy keys to secure storage", len(report.Migrated))
	}

	return report
}
