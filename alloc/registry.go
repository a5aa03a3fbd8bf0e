package alloc

import (
	"fmt"
	"slices"
)

var backends = map[string]Allocator{
	"heap":   Heap,
	"mmap":   Mmap,
	"malloc": Malloc,
}

// ByName returns the shared backend registered under name.
func ByName(name string) (Allocator, error) {
	a, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAllocator, name)
	}
	return a, nil
}

// Names returns the registered backend names in sorted order.
func Names() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
