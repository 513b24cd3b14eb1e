package platform

import (
	"fmt"
	"sync"
)

// Registry manages platform adapter registration and retrieval
type Registry struct {
	mu       sync.RWMutex
	adapters map[ID]Adapter
}

// DefaultRegistry is the global registry instance
var DefaultRegistry = NewRegistry()

// NewRegistry creates a new platform registry
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[ID]Adapter),
	}
}

// Register registers an adapter for a given platform ID
func (r *Registry) Register(id ID, adapter Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[id] = adapter
}

// Get retrieves an adapter by platform ID
func (r *Registry) Get(id ID) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[id]
	return adapter, ok
}

// GetOrInit retrieves or initializes an adapter by platform ID
func (r *Registry) GetOrInit(id ID) (Adapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if adapter, ok := r.adapters[id]; ok {
		return adapter, nil
	}

	var adapter Adapter
	switch id {
	case SamsClub:
		adapter = newSamsClubAdapter()
	case JDDaojia:
		adapter = newJDDaojiaAdapter()
	case Freshippo:
		adapter = newFreshippoAdapter()
	case Meituan:
		adapter = newMeituanAdapter()
	default:
		return nil, fmt.Errorf("no adapter implementation for platform: %s", id)
	}

	r.adapters[id] = adapter
	return adapter, nil
}

// List returns all registered platform IDs
func (r *Registry) List() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]ID, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	return ids
}

// IsRegistered checks if a platform is registered
func (r *Registry) IsRegistered(id ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.adapters[id]
	return ok
}

// Unregister removes an adapter from the registry
func (r *Registry) Unregister(id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.adapters, id)
}

// AdapterFor is a convenience function resolving an adapter from the default registry
func AdapterFor(id ID) (Adapter, error) {
	return DefaultRegistry.GetOrInit(id)
}

// InitializeDefaultAdapters initializes adapters for every known platform
func InitializeDefaultAdapters() error {
	for _, id := range All() {
		if _, err := DefaultRegistry.GetOrInit(id); err != nil {
			return fmt.Errorf("failed to initialize %s adapter: %w", id, err)
		}
	}
	return nil
}
