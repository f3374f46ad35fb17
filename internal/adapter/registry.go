package adapter

import (
	"fmt"
	"sort"
)

// Constructor is a function that creates a new Adapter instance.
type Constructor func() Adapter

var registry = map[string]Constructor{}

// Register adds an adapter constructor under the given name.
func Register(name string, ctor Constructor) {
	registry[name] = ctor
}

// Get returns the adapter constructor for the given name.
func Get(name string) (Constructor, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown adapter: %s", name)
	}
	return ctor, nil
}

// Names returns the registered adapter names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
