// SPDX-License-Identifier: Apache-2.0

package definition

import (
	"slices"
	"sync"

	"github.com/sam-fredrickson/process"
)

// Registry maps names to the operations that `use` steps refer to.
//
// It is safe for concurrent use.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]process.Operation
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]process.Operation)}
}

// Register adds an operation under name, replacing any previous one.
func (r *Registry) Register(name string, op process.Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[name] = op
}

// Get returns the operation registered under name.
func (r *Registry) Get(name string) (process.Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[name]
	return op, ok
}

// List returns the sorted names of all registered operations.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
