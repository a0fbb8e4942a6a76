package models

import "fmt"

// CredentialRef is the stored credential state for one provider. SecretID
// points into secure storage; LegacyKey is a plaintext key carried over from
// older settings files and is cleared by migration.
type CredentialRef struct {
	SecretID  string `json:"secret_id,omitempty"`
	LegacyKey string `json:"legacy_api_key,omitempty"`
}

// FeatureOverride customizes routing for a single feature.
type FeatureOverride struct {
	Provider     Provider     `json:"provider,omitempty"`
	Policy       *ModelPolicy `json:"policy,omitempty"`
	Capabilities []Capability `json:"capabilities,omitempty"`
	OutputMode   OutputMode   `json:"output_mode,omitempty"`
	Temperature  *float64     `json:"temperature,omitempty"`
}

// PrivacySettings are user consent flags.
type PrivacySettings struct {
	TelemetryOptIn       bool `json:"telemetry_opt_in"`
	RemoteRegistryOptIn  bool `json:"remote_registry_opt_in"`
	RetainRunDebugTraces bool `json:"retain_run_debug_traces"`
}

// ConnectionSettings configure provider endpoints.
type ConnectionSettings struct {
	LocalEndpoint  string `json:"local_endpoint,omitempty"`
	OpenAIBaseURL  string `json:"openai_base_url,omitempty"`
	RequestTimeout int    `json:"request_timeout_seconds,omitempty"`
}

// AiSettings is the persisted engine configuration. It is validated and
// repaired on every load; Normalize records a warning for each repair.
type AiSettings struct {
	Provider         Provider                   `json:"provider"`
	Policy           ModelPolicy                `json:"policy"`
	FeatureOverrides map[string]FeatureOverride `json:"feature_overrides,omitempty"`
	AccessTiers      map[Provider]AccessTier    `json:"access_tiers,omitempty"`
	Credentials      map[Provider]CredentialRef `json:"credentials,omitempty"`
	Privacy          PrivacySettings            `json:"privacy"`
	Connection       ConnectionSettings         `json:"connection"`
}

// DefaultSettings returns the configuration used when no settings file exists.
func DefaultSettings() *AiSettings {
	return &AiSettings{
		Provider:         ProviderNone,
		Policy:           LatestStablePolicy(),
		FeatureOverrides: map[string]FeatureOverride{},
		AccessTiers:      map[Provider]AccessTier{},
		Credentials:      map[Provider]CredentialRef{},
		Connection: ConnectionSettings{
			LocalEndpoint:  "http://localhost:11434/v1",
			RequestTimeout: 120,
		},
	}
}

// Normalize validates and repairs the settings in place, returning one
// warning per repaired field. Unknown values fall back to safe defaults
// rather than failing the load.
func (s *AiSettings) Normalize() []string {
	var warnings []string

	if s.Provider != ProviderNone && !s.Provider.IsKnown() {
		warnings = append(warnings, fmt.Sprintf("unknown provider %q, AI disabled", s.Provider))
		s.Provider = ProviderNone
	}
	warnings = append(warnings, normalizePolicy(&s.Policy, "settings")...)

	if s.FeatureOverrides == nil {
		s.FeatureOverrides = map[string]FeatureOverride{}
	}
	for feature, ov := range s.FeatureOverrides {
		if ov.Provider != "" && ov.Provider != ProviderNone && !ov.Provider.IsKnown() {
			warnings = append(warnings, fmt.Sprintf("feature %q: unknown provider %q, override cleared", feature, ov.Provider))
			ov.Provider = ""
		}
		if ov.Policy != nil {
			warnings = append(warnings, normalizePolicy(ov.Policy, "feature "+feature)...)
		}
		if ov.OutputMode != "" && ov.OutputMode != ModeAuto && ov.OutputMode != ModeHigh && ov.OutputMode != ModeMax {
			warnings = append(warnings, fmt.Sprintf("feature %q: unknown output mode %q, using auto", feature, ov.OutputMode))
			ov.OutputMode = ModeAuto
		}
		s.FeatureOverrides[feature] = ov
	}

	if s.AccessTiers == nil {
		s.AccessTiers = map[Provider]AccessTier{}
	}
	for p, tier := range s.AccessTiers {
		if !tier.IsValid() {
			warnings = append(warnings, fmt.Sprintf("provider %s: unknown access tier %q, using free", p, tier))
			s.AccessTiers[p] = AccessFree
		}
	}

	if s.Credentials == nil {
		s.Credentials = map[Provider]CredentialRef{}
	}
	if s.Connection.RequestTimeout <= 0 {
		s.Connection.RequestTimeout = 120
	}
	if s.Connection.LocalEndpoint == "" {
		s.Connection.LocalEndpoint = "http://localhost:11434/v1"
	}
	return warnings
}

func normalizePolicy(p *ModelPolicy, scope string) []string {
	switch p.Kind {
	case PolicyPinned:
		if p.PinnedAlias == "" {
			*p = LatestStablePolicy()
			return []string{fmt.Sprintf("%s: pinned policy without an alias, using latest stable", scope)}
		}
	case PolicyLatestStable:
		p.PinnedAlias = ""
	default:
		*p = LatestStablePolicy()
		return []string{fmt.Sprintf("%s: unknown policy kind, using latest stable", scope)}
	}
	return nil
}

// AccessTierFor returns the configured tier for a provider, defaulting to free.
func (s *AiSettings) AccessTierFor(p Provider) AccessTier {
	if tier, ok := s.AccessTiers[p]; ok && tier.IsValid() {
		return tier
	}
	return AccessFree
}

// HasLegacyKeys reports whether any provider still carries a plaintext key.
func (s *AiSettings) HasLegacyKeys() bool {
	for _, ref := range s.Credentials {
		if ref.LegacyKey != "" {
			return true
		}
	}
	return false
}
