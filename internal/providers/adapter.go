package providers

import (
	"context"
	"sync"

	"inkwell/internal/models"
)

// GenerateParams are the normalized parameters for one provider call. They
// are fully resolved by the orchestrator; adapters never apply defaults.
type GenerateParams struct {
	ModelID         string
	SystemPrompt    string
	UserPrompt      string
	MaxOutputTokens int
	Temperature     float64
	TopP            float64
}

// JSONParams extend GenerateParams with the expected output contract.
type JSONParams struct {
	GenerateParams
	Spec models.JSONSpec
}

// Adapter is the uniform surface every provider backend implements.
// Transport and provider errors are classified into the ExecutionResult,
// never returned raw.
type Adapter interface {
	GenerateText(ctx context.Context, p GenerateParams) *models.ExecutionResult
	GenerateJSON(ctx context.Context, p JSONParams) *models.ExecutionResult
}

// Registry is the runtime lookup table from provider id to adapter.
// Registering a provider twice replaces the previous adapter.
type Registry struct {
	mu       sync.RWMutex
	adapters map[models.Provider]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[models.Provider]Adapter)}
}

// Register installs an adapter for a provider.
func (r *Registry) Register(p models.Provider, a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[p] = a
}

// Get returns the adapter for a provider, if one is registered.
func (r *Registry) Get(p models.Provider) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[p]
	return a, ok
}

// Providers lists the registered provider ids.
func (r *Registry) Providers() []models.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Provider, 0, len(r.adapters))
	for p := range r.adapters {
		out = append(out, p)
	}
	return out
}
