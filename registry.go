// Package pgmap turns raw SQL text plus a declared parameter order into
// reusable named callables executed against a pooled PostgreSQL connection.
// A pool provider must be imported with _ pgmap/... before Open is used.
package pgmap

import (
	"fmt"
	"sync"
)

type ProviderFactory func(cfg Config) (Pool, error)

var (
	mu        sync.RWMutex
	factories = map[string]ProviderFactory{}
)

// Register makes a pool provider available by name.
// It panics if factory is nil or the name is taken.
func Register(name string, factory ProviderFactory) {
	if factory == nil {
		panic("pgmap: provider factory is nil")
	}
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[name]; exists {
		panic("pgmap: provider already registered: " + name)
	}
	factories[name] = factory
}

func NewProvider(name string, cfg Config) (Pool, error) {
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("pgmap: unknown provider %q (forgotten import?)", name)
	}
	return factory(cfg)
}
