// Package modulemanager defines the ModuleManager external collaborator
// (spec §6) and an in-memory reference implementation used by tests and
// by cmd/tenantd when no standalone module registry is configured.
package modulemanager

import (
	"fmt"

	"github.com/moduleplatform/tenantd/pkg/lifecycleerr"
	"github.com/moduleplatform/tenantd/pkg/resolver"
	"github.com/moduleplatform/tenantd/pkg/types"
)

// ModuleManager resolves module ids to their descriptors. It is owned
// and populated externally; this core never mutates a ModuleDescriptor.
type ModuleManager interface {
	Get(id string) (*types.ModuleDescriptor, error)
	GetLatest(nameOrID string) (*types.ModuleDescriptor, error)
	GetModulesWithFilter(preRelease, npmSnapshot bool, filterID string) ([]*types.ModuleDescriptor, error)
}

// InMemory is a reference ModuleManager backed by a plain map, keyed by
// module id. It is not safe for concurrent Register calls racing
// lookups in production, but that matches its role: a fixture loaded
// once at startup or in a test, not a live registry.
type InMemory struct {
	modules map[string]*types.ModuleDescriptor
}

// NewInMemory creates an empty in-memory module registry.
func NewInMemory() *InMemory {
	return &InMemory{modules: make(map[string]*types.ModuleDescriptor)}
}

// Register adds or replaces a module descriptor.
func (m *InMemory) Register(md *types.ModuleDescriptor) {
	m.modules[md.ID] = md
}

// Get returns the module by exact id, or a NOT_FOUND error.
func (m *InMemory) Get(id string) (*types.ModuleDescriptor, error) {
	md, ok := m.modules[id]
	if !ok {
		return nil, lifecycleerr.NotFoundf("module %s not found", id)
	}
	return md, nil
}

// GetLatest resolves nameOrID to the highest-versioned module sharing
// that name, or treats it as an exact id if no name match exists.
func (m *InMemory) GetLatest(nameOrID string) (*types.ModuleDescriptor, error) {
	var best *types.ModuleDescriptor
	for _, md := range m.modules {
		if md.Name != nameOrID {
			continue
		}
		if best == nil {
			best = md
			continue
		}
		code, err := resolver.Compare(md.Version, best.Version)
		if err != nil {
			return nil, fmt.Errorf("modulemanager: comparing versions of %s: %w", md.Name, err)
		}
		if code >= resolver.Greater {
			best = md
		}
	}
	if best != nil {
		return best, nil
	}
	return m.Get(nameOrID)
}

// GetModulesWithFilter returns every registered module, optionally
// restricted to a single providing interface id. preRelease and
// npmSnapshot are accepted for interface parity with the external
// collaborator's contract; this reference implementation carries no
// prerelease/npm-snapshot metadata of its own, so every registered
// module is assumed eligible under any combination of those flags.
func (m *InMemory) GetModulesWithFilter(preRelease, npmSnapshot bool, filterID string) ([]*types.ModuleDescriptor, error) {
	result := make([]*types.ModuleDescriptor, 0, len(m.modules))
	for _, md := range m.modules {
		if filterID != "" {
			if _, ok := md.Provide(filterID); !ok {
				continue
			}
		}
		result = append(result, md)
	}
	return result, nil
}

var _ ModuleManager = (*InMemory)(nil)
