package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/moduleplatform/tenantd/pkg/cache"
	"github.com/moduleplatform/tenantd/pkg/events"
	"github.com/moduleplatform/tenantd/pkg/jobstore"
	"github.com/moduleplatform/tenantd/pkg/lifecycleerr"
	"github.com/moduleplatform/tenantd/pkg/modulemanager"
	"github.com/moduleplatform/tenantd/pkg/proxyclient"
	manager "github.com/moduleplatform/tenantd/pkg/replicatedmap"
	storage "github.com/moduleplatform/tenantd/pkg/store"
	"github.com/moduleplatform/tenantd/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRig struct {
	facade  *Facade
	tenants manager.Map1[*types.Tenant]
	store   *storage.Fake
	modules *modulemanager.InMemory
	proxy   *proxyclient.Fake
}

func newTestFacade(t *testing.T) *testRig {
	t.Helper()
	tenants := manager.NewLocalMap[*types.Tenant]()
	jobs := jobstore.New(manager.NewLocalMap2[*types.InstallJob]())
	store := storage.NewFake()
	modules := modulemanager.NewInMemory()
	proxy := proxyclient.NewFake()
	broker := events.NewBroker()

	f := New(tenants, store, modules, jobs, proxy, cache.New(), nil, broker)
	return &testRig{facade: f, tenants: tenants, store: store, modules: modules, proxy: proxy}
}

func moduleWithInterface(id, name, ifaceID, ifaceType string) *types.ModuleDescriptor {
	return &types.ModuleDescriptor{
		ID:   id,
		Name: name,
		Provides: []types.InterfaceDescriptor{
			{ID: ifaceID, Version: "1.0", InterfaceType: types.InterfaceType(ifaceType)},
		},
	}
}

func TestFacadeInsertAndGet(t *testing.T) {
	r := newTestFacade(t)
	id, err := r.facade.Insert(&types.Tenant{ID: "t1", Descriptor: types.TenantDescriptor{Name: "Tenant One"}})
	require.NoError(t, err)
	assert.Equal(t, "t1", id)

	tenant, err := r.facade.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, "Tenant One", tenant.Descriptor.Name)
	assert.NotNil(t, tenant.EnabledModules)
}

func TestFacadeInsertDuplicateFails(t *testing.T) {
	r := newTestFacade(t)
	_, err := r.facade.Insert(&types.Tenant{ID: "t1"})
	require.NoError(t, err)

	_, err = r.facade.Insert(&types.Tenant{ID: "t1"})
	require.Error(t, err)
	typ, ok := lifecycleerr.TypeOf(err)
	require.True(t, ok)
	assert.Equal(t, lifecycleerr.TypeUser, typ)
}

func TestFacadeGetMissingFails(t *testing.T) {
	r := newTestFacade(t)
	_, err := r.facade.Get("missing")
	require.Error(t, err)
	typ, _ := lifecycleerr.TypeOf(err)
	assert.Equal(t, lifecycleerr.TypeNotFound, typ)
}

func TestFacadeDeleteNotFound(t *testing.T) {
	r := newTestFacade(t)
	err := r.facade.Delete("missing")
	require.Error(t, err)
	typ, _ := lifecycleerr.TypeOf(err)
	assert.Equal(t, lifecycleerr.TypeNotFound, typ)
}

func TestFacadeDeleteEvictsTenant(t *testing.T) {
	r := newTestFacade(t)
	_, err := r.facade.Insert(&types.Tenant{ID: "t1"})
	require.NoError(t, err)

	require.NoError(t, r.facade.Delete("t1"))
	_, err = r.facade.Get("t1")
	require.Error(t, err)

	_, found, err := r.store.GetTenant("t1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFacadeUpdateDescriptorPreservesEnabledModules(t *testing.T) {
	r := newTestFacade(t)
	md := moduleWithInterface("mod-a-1.0.0", "mod-a", "_tenant", "proxy")
	r.modules.Register(md)
	_, err := r.facade.Insert(&types.Tenant{ID: "t1", EnabledModules: map[string]time.Time{"mod-a-1.0.0": time.Now()}})
	require.NoError(t, err)

	err = r.facade.UpdateDescriptor(types.TenantDescriptor{ID: "t1", Name: "Renamed"})
	require.NoError(t, err)

	tenant, err := r.facade.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", tenant.Descriptor.Name)
	_, enabled := tenant.EnabledModules["mod-a-1.0.0"]
	assert.True(t, enabled)
}

func TestFacadeUpdateDescriptorCreatesWhenAbsent(t *testing.T) {
	r := newTestFacade(t)
	err := r.facade.UpdateDescriptor(types.TenantDescriptor{ID: "t1", Name: "New Tenant"})
	require.NoError(t, err)

	tenant, err := r.facade.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, "New Tenant", tenant.Descriptor.Name)
	assert.Empty(t, tenant.EnabledModules)
}

func TestFacadeEnableAndDisableModuleEnables(t *testing.T) {
	r := newTestFacade(t)
	md := &types.ModuleDescriptor{
		ID:   "mod-a-1.0.0",
		Name: "mod-a",
		Provides: []types.InterfaceDescriptor{
			{ID: "_tenant", Version: "1.1", RoutingEntries: []types.RoutingEntry{{Methods: []string{"POST"}, StaticPath: "/install"}}},
		},
	}
	r.modules.Register(md)
	_, err := r.facade.Insert(&types.Tenant{ID: "t1"})
	require.NoError(t, err)

	id, err := r.facade.EnableAndDisableModule(context.Background(), "t1", types.InstallOptions{}, "", &types.TenantModuleDescriptor{ID: md.ID})
	require.NoError(t, err)
	assert.Equal(t, md.ID, id)

	tenant, err := r.facade.Get("t1")
	require.NoError(t, err)
	_, enabled := tenant.EnabledModules[md.ID]
	assert.True(t, enabled)

	entry, ok := r.facade.cache.Get("t1")
	require.True(t, ok)
	require.Len(t, entry.Modules, 1)

	assert.Len(t, r.proxy.Calls(), 1)
}

func TestFacadeEnableAndDisableModuleBothNilIsNoop(t *testing.T) {
	r := newTestFacade(t)
	_, err := r.facade.Insert(&types.Tenant{ID: "t1"})
	require.NoError(t, err)

	id, err := r.facade.EnableAndDisableModule(context.Background(), "t1", types.InstallOptions{}, "", nil)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestFacadeEnableAndDisableModuleUnmetDependencyFails(t *testing.T) {
	r := newTestFacade(t)
	md := &types.ModuleDescriptor{
		ID:       "mod-a-1.0.0",
		Name:     "mod-a",
		Requires: []types.InterfaceRequirement{{ID: "_needed", MinVersion: "1.0"}},
	}
	r.modules.Register(md)
	_, err := r.facade.Insert(&types.Tenant{ID: "t1"})
	require.NoError(t, err)

	_, err = r.facade.EnableAndDisableModule(context.Background(), "t1", types.InstallOptions{}, "", &types.TenantModuleDescriptor{ID: md.ID})
	require.Error(t, err)
	typ, _ := lifecycleerr.TypeOf(err)
	assert.Equal(t, lifecycleerr.TypeUser, typ)
	assert.Empty(t, r.proxy.Calls())
}

func TestFacadeEnableAndDisableModuleConflictFails(t *testing.T) {
	r := newTestFacade(t)
	existing := moduleWithInterface("mod-x-1.0.0", "mod-x", "_shared", "proxy")
	incoming := moduleWithInterface("mod-y-1.0.0", "mod-y", "_shared", "proxy")
	r.modules.Register(existing)
	r.modules.Register(incoming)
	_, err := r.facade.Insert(&types.Tenant{ID: "t1", EnabledModules: map[string]time.Time{"mod-x-1.0.0": time.Now()}})
	require.NoError(t, err)

	_, err = r.facade.EnableAndDisableModule(context.Background(), "t1", types.InstallOptions{}, "", &types.TenantModuleDescriptor{ID: incoming.ID})
	require.Error(t, err)
	typ, _ := lifecycleerr.TypeOf(err)
	assert.Equal(t, lifecycleerr.TypeUser, typ)
}

func TestFacadeListInterfacesDedup(t *testing.T) {
	r := newTestFacade(t)
	mdA := &types.ModuleDescriptor{
		ID:   "mod-a-1.0.0",
		Name: "mod-a",
		Provides: []types.InterfaceDescriptor{
			{ID: "_shared", Version: "1.0", InterfaceType: types.InterfaceTypeMultiple},
		},
	}
	mdB := &types.ModuleDescriptor{
		ID:   "mod-b-1.0.0",
		Name: "mod-b",
		Provides: []types.InterfaceDescriptor{
			{ID: "_shared", Version: "1.0", InterfaceType: types.InterfaceTypeMultiple},
		},
	}
	r.modules.Register(mdA)
	r.modules.Register(mdB)
	_, err := r.facade.Insert(&types.Tenant{ID: "t1", EnabledModules: map[string]time.Time{mdA.ID: time.Now(), mdB.ID: time.Now()}})
	require.NoError(t, err)

	deduped, err := r.facade.ListInterfaces("t1", false, "")
	require.NoError(t, err)
	assert.Len(t, deduped, 1)

	full, err := r.facade.ListInterfaces("t1", true, "")
	require.NoError(t, err)
	assert.Len(t, full, 2)
}

func TestFacadeGetModuleUser(t *testing.T) {
	r := newTestFacade(t)
	md := moduleWithInterface("mod-a-1.0.0", "mod-a", "_tenant", "proxy")
	r.modules.Register(md)
	_, err := r.facade.Insert(&types.Tenant{ID: "t1", EnabledModules: map[string]time.Time{md.ID: time.Now()}})
	require.NoError(t, err)
	_, err = r.facade.Insert(&types.Tenant{ID: "t2"})
	require.NoError(t, err)

	users := r.facade.GetModuleUser(md.ID)
	assert.Equal(t, []string{"t1"}, users)
}

func TestFacadeUpgradeOkapiModulePromotesWhenNewer(t *testing.T) {
	r := newTestFacade(t)
	_, err := r.facade.Insert(&types.Tenant{ID: "t1", EnabledModules: map[string]time.Time{"okapi-1.0.0": time.Now()}})
	require.NoError(t, err)

	require.NoError(t, r.facade.UpgradeOkapiModule("okapi-2.0.0", "2.0.0"))

	tenant, err := r.facade.Get("t1")
	require.NoError(t, err)
	_, hasOld := tenant.EnabledModules["okapi-1.0.0"]
	_, hasNew := tenant.EnabledModules["okapi-2.0.0"]
	assert.False(t, hasOld)
	assert.True(t, hasNew)
}

func TestFacadeUpgradeOkapiModuleNeverDowngrades(t *testing.T) {
	r := newTestFacade(t)
	_, err := r.facade.Insert(&types.Tenant{ID: "t1", EnabledModules: map[string]time.Time{"okapi-2.0.0": time.Now()}})
	require.NoError(t, err)

	require.NoError(t, r.facade.UpgradeOkapiModule("okapi-1.0.0", "1.0.0"))

	tenant, err := r.facade.Get("t1")
	require.NoError(t, err)
	_, stillNew := tenant.EnabledModules["okapi-2.0.0"]
	assert.True(t, stillNew)
}

func TestFacadeInitLoadsFromStoreOnce(t *testing.T) {
	r := newTestFacade(t)
	require.NoError(t, r.store.Insert(&types.Tenant{ID: "t1", EnabledModules: map[string]time.Time{}}))

	require.NoError(t, r.facade.Init())
	_, err := r.facade.Get("t1")
	require.NoError(t, err)

	// A second Init call must not error even though the map is now populated.
	require.NoError(t, r.facade.Init())
}
