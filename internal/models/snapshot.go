package models

import (
	"encoding/json"
	"time"
)

// RemoteCatalog is the wire format of the remote model registry:
// {"models": [...]}. Entries missing a provider, alias, or a positive
// context window are discarded during refresh.
type RemoteCatalog struct {
	Models []ModelInfo `json:"models"`
}

// CatalogCache is the on-disk cache of the last successful registry fetch.
type CatalogCache struct {
	FetchedAt time.Time   `json:"fetched_at"`
	Models    []ModelInfo `json:"models"`
}

// Fresh reports whether the cached fetch is within the freshness window.
func (c *CatalogCache) Fresh(now time.Time, ttl time.Duration) bool {
	return !c.FetchedAt.IsZero() && now.Sub(c.FetchedAt) < ttl
}

// CanonicalModelRecord is one live model listed by a provider's /models
// endpoint, normalized into a provider-neutral shape.
type CanonicalModelRecord struct {
	Provider         Provider        `json:"provider"`
	ID               string          `json:"id"`
	Label            string          `json:"label,omitempty"`
	CreatedAt        *time.Time      `json:"created_at,omitempty"`
	InputTokenLimit  int             `json:"input_token_limit,omitempty"`
	OutputTokenLimit int             `json:"output_token_limit,omitempty"`
	Raw              json.RawMessage `json:"raw,omitempty"`
}

// ProviderSnapshot is a point-in-time listing of the models a provider
// actually serves. Merging a snapshot only updates advisory availability.
type ProviderSnapshot struct {
	Provider    Provider               `json:"provider"`
	GeneratedAt time.Time              `json:"generated_at"`
	Models      []CanonicalModelRecord `json:"models"`
}
