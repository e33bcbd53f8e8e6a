package gym

import (
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownEnv is wrapped by Make when no environment is registered under
// the requested name.
var ErrUnknownEnv = fmt.Errorf("unknown environment")

var (
	registryMu sync.RWMutex
	registry   = map[string]func() Env{}
)

// Register makes an environment constructor available to Make. Registering
// the same name twice overwrites the earlier constructor.
func Register(name string, constructor func() Env) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = constructor
}

// Make creates a fresh instance of the named environment.
func Make(name string) (Env, error) {
	registryMu.RLock()
	constructor, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEnv, name)
	}
	return constructor(), nil
}

// List returns the registered environment names in sorted order.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("CartPole-v1", func() Env { return NewCartPole() })
	Register("Pendulum-v1", func() Env { return NewPendulum() })
}
