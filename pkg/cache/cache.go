// Package cache maintains EnabledModuleCache: the process-local
// materialization of each tenant's enabled ModuleDescriptor set, read
// under a shared read lock (reads are not lock-free), rebuilt on every module enable/disable commit and evicted on
// tenant deletion. It never talks to the store or the ReplicatedMap
// directly — callers resolve descriptors via the external ModuleManager
// and hand the resolved list to Rebuild.
package cache

import (
	"sync"

	"github.com/moduleplatform/tenantd/pkg/resolver"
	"github.com/moduleplatform/tenantd/pkg/types"
)

// TenantPermissionsInterface is the well-known system interface id that
// announces which module currently receives permission sets.
const TenantPermissionsInterface = "_tenantPermissions"

// Entry is one tenant's materialized enabled-module view.
type Entry struct {
	Modules           []*types.ModuleDescriptor
	ExpandPermissions types.ExpandPermissions
}

// Cache holds one Entry per tenant, guarded by a single RWMutex. Reads
// take the read lock and return a snapshot value, never a pointer into
// the live map, so callers can't observe a partially rebuilt entry.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

// Get returns the cached entry for tenantID, if present.
func (c *Cache) Get(tenantID string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[tenantID]
	return e, ok
}

// Rebuild recomputes and stores tenantID's entry from a freshly resolved
// module list. expandPermissions is derived here: True if any module
// provides _tenantPermissions at version >= 1.1, False if only 1.0 is
// present, Unknown if no module provides it at all.
func (c *Cache) Rebuild(tenantID string, modules []*types.ModuleDescriptor) Entry {
	entry := Entry{Modules: modules, ExpandPermissions: types.ExpandUnknown}

	for _, m := range modules {
		iface, ok := m.Provide(TenantPermissionsInterface)
		if !ok {
			continue
		}
		if resolver.SatisfiesMin(iface.Version, "1.1") {
			entry.ExpandPermissions = types.ExpandTrue
			break
		}
		entry.ExpandPermissions = types.ExpandFalse
	}

	c.mu.Lock()
	c.entries[tenantID] = entry
	c.mu.Unlock()

	return entry
}

// Evict removes tenantID's entry, e.g. on tenant deletion.
func (c *Cache) Evict(tenantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, tenantID)
}
