package storage

import (
	"sync"
	"time"

	"github.com/moduleplatform/tenantd/pkg/types"
)

// Fake is an in-memory TenantStore, for tests that exercise the
// lifecycle façade without standing up a BoltStore on disk.
type Fake struct {
	mu      sync.Mutex
	tenants map[string]*types.Tenant
}

// NewFake creates an empty in-memory TenantStore.
func NewFake() *Fake {
	return &Fake{tenants: make(map[string]*types.Tenant)}
}

func (f *Fake) ListTenants() ([]*types.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*types.Tenant, 0, len(f.tenants))
	for _, t := range f.tenants {
		out = append(out, t.Clone())
	}
	return out, nil
}

func (f *Fake) Insert(tenant *types.Tenant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tenants[tenant.ID] = tenant.Clone()
	return nil
}

func (f *Fake) UpdateDescriptor(td types.TenantDescriptor) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tenants[td.ID]
	if !ok {
		return false, nil
	}
	t.Descriptor = td
	return true, nil
}

func (f *Fake) UpdateModules(id string, enabled map[string]time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tenants[id]
	if !ok {
		return false, nil
	}
	t.EnabledModules = enabled
	return true, nil
}

func (f *Fake) Delete(id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.tenants[id]
	delete(f.tenants, id)
	return ok, nil
}

func (f *Fake) GetTenant(id string) (*types.Tenant, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tenants[id]
	if !ok {
		return nil, false, nil
	}
	return t.Clone(), true, nil
}

func (f *Fake) Close() error {
	return nil
}

var _ TenantStore = (*Fake)(nil)
