package models

import "time"

// Provider identifies an AI backend.
type Provider string

const (
	ProviderNone      Provider = "none" // AI disabled
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
	ProviderLocal     Provider = "local" // OpenAI-compatible local endpoint (Ollama, LM Studio)
)

// KnownProviders lists every provider the engine can route to.
var KnownProviders = []Provider{ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderLocal}

// IsKnown reports whether p is a routable provider. ProviderNone is a valid
// configuration value but is never routable.
func (p Provider) IsKnown() bool {
	for _, known := range KnownProviders {
		if p == known {
			return true
		}
	}
	return false
}

// ModelTier is the ordered quality/cost class of a model.
type ModelTier int

const (
	TierLocal ModelTier = iota
	TierFast
	TierBalanced
	TierDeep
)

func (t ModelTier) String() string {
	switch t {
	case TierLocal:
		return "local"
	case TierFast:
		return "fast"
	case TierBalanced:
		return "balanced"
	case TierDeep:
		return "deep"
	default:
		return "unknown"
	}
}

// Capability is a named feature flag a model may support.
type Capability string

const (
	CapLongContext     Capability = "longContext"
	CapJSONStrict      Capability = "jsonStrict"
	CapStrongReasoning Capability = "strongReasoning"
	CapHighOutput      Capability = "highOutputCap"
	CapToolCalling     Capability = "toolCalling"
	CapStreaming       Capability = "streaming"
	CapVision          Capability = "vision"
)

// CapabilitySet is the set of capabilities a model supports or a request requires.
type CapabilitySet map[Capability]bool

// Caps builds a capability set from a list of flags.
func Caps(caps ...Capability) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		set[c] = true
	}
	return set
}

// Has reports whether the set contains c.
func (s CapabilitySet) Has(c Capability) bool {
	return s[c]
}

// HasAll reports whether the set is a superset of required.
func (s CapabilitySet) HasAll(required CapabilitySet) bool {
	for c, want := range required {
		if want && !s[c] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the set.
func (s CapabilitySet) Clone() CapabilitySet {
	out := make(CapabilitySet, len(s))
	for c, v := range s {
		out[c] = v
	}
	return out
}

// List returns the enabled capabilities in unspecified order.
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, 0, len(s))
	for c, v := range s {
		if v {
			out = append(out, c)
		}
	}
	return out
}

// PersonalityScores are curated 0-10 scores describing a model's disposition.
type PersonalityScores struct {
	Reasoning   int `json:"reasoning"`
	Writing     int `json:"writing"`
	Determinism int `json:"determinism"`
}

// LifecycleStatus describes where a model sits in its provider's lifecycle.
type LifecycleStatus string

const (
	StatusStable     LifecycleStatus = "stable"
	StatusLegacy     LifecycleStatus = "legacy"
	StatusDeprecated LifecycleStatus = "deprecated"
)

// Availability is advisory visibility metadata merged from a provider
// snapshot. It never affects selection eligibility.
type Availability string

const (
	AvailabilityUnknown    Availability = "unknown"
	AvailabilityVisible    Availability = "visible"
	AvailabilityNotVisible Availability = "not_visible"
)

// ModelInfo describes a single cataloged model. Treated as immutable once
// handed out; the catalog service is the sole owner of the backing slice.
type ModelInfo struct {
	Provider      Provider          `json:"provider"`
	ID            string            `json:"id"`    // stable wire identifier sent to the provider
	Alias         string            `json:"alias"` // stable human-facing alias, unique within the catalog
	Label         string            `json:"label"`
	Line          string            `json:"line,omitempty"` // product line tag, e.g. "claude-sonnet"
	Tier          ModelTier         `json:"tier"`
	Capabilities  CapabilitySet     `json:"capabilities"`
	Scores        PersonalityScores `json:"scores"`
	ContextWindow int               `json:"context_window"`
	MaxOutput     int               `json:"max_output"`
	Status        LifecycleStatus   `json:"status"`
	ReleasedAt    time.Time         `json:"released_at,omitempty"`
	Availability  Availability      `json:"availability,omitempty"`
}

// ProductLine returns the explicit line tag, or a synthetic provider+alias
// line when the model is untagged. Untagged models therefore form singleton
// lines during latest-stable selection.
func (m *ModelInfo) ProductLine() string {
	if m.Line != "" {
		return m.Line
	}
	return string(m.Provider) + "/" + m.Alias
}
