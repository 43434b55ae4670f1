package profile

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]*Profile)
	registryMu sync.RWMutex
)

// Register adds a profile to the registry. Registering a duplicate key or an
// invalid profile is a configuration error.
func Register(p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[p.Key]; exists {
		return fmt.Errorf("profile already registered: %s", p.Key)
	}
	registry[p.Key] = p
	return nil
}

// Get returns a profile by key. Returns false if not found.
func Get(key string) (*Profile, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	p, ok := registry[key]
	return p, ok
}

// All returns all registered profiles sorted by key.
func All() []*Profile {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]*Profile, 0, len(registry))
	for _, p := range registry {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result
}

// Count returns the number of registered profiles.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// reset clears the registry. Test use only.
func reset() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]*Profile)
}
