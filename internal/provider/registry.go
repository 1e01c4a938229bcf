package provider

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mwistrand/commitwise/internal/config"
)

// Factory creates a Generator from an API key and model.
type Factory func(apiKey, model string) (Generator, error)

// Registry maps provider ids to generator factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[config.ProviderID]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[config.ProviderID]Factory)}
}

// Register adds a factory, replacing any previous one for id.
func (r *Registry) Register(id config.ProviderID, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[id] = f
}

// New creates the generator for a resolved configuration.
func (r *Registry) New(cfg *config.ResolvedConfig) (Generator, error) {
	r.mu.RLock()
	f, ok := r.factories[cfg.Provider]
	available := r.availableNames()
	r.mu.RUnlock()

	if !ok {
		if len(available) == 0 {
			return nil, fmt.Errorf("no providers registered")
		}
		return nil, fmt.Errorf("unknown provider %q; available: %v", cfg.Provider, available)
	}

	g, err := f(cfg.APIKey, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("creating %s provider: %w", cfg.Provider, err)
	}
	return g, nil
}

// Has returns true if a factory is registered for id.
func (r *Registry) Has(id config.ProviderID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[id]
	return ok
}

// List returns the registered provider ids.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.availableNames()
}

// availableNames returns sorted provider ids (must hold read lock).
func (r *Registry) availableNames() []string {
	names := make([]string, 0, len(r.factories))
	for id := range r.factories {
		names = append(names, string(id))
	}
	sort.Strings(names)
	return names
}
