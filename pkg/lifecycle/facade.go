// Package lifecycle implements TenantLifecycleManager (spec §4.8): the
// façade that wires the ReplicatedMap, TenantStore, EnabledModuleCache,
// TimerScheduler, HookInvoker and InstallEngine together behind the
// small set of operations a CLI or HTTP surface actually calls.
package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/moduleplatform/tenantd/pkg/cache"
	"github.com/moduleplatform/tenantd/pkg/events"
	"github.com/moduleplatform/tenantd/pkg/hooks"
	"github.com/moduleplatform/tenantd/pkg/install"
	"github.com/moduleplatform/tenantd/pkg/jobstore"
	"github.com/moduleplatform/tenantd/pkg/lifecycleerr"
	"github.com/moduleplatform/tenantd/pkg/log"
	"github.com/moduleplatform/tenantd/pkg/metrics"
	"github.com/moduleplatform/tenantd/pkg/modulemanager"
	"github.com/moduleplatform/tenantd/pkg/proxyclient"
	manager "github.com/moduleplatform/tenantd/pkg/replicatedmap"
	"github.com/moduleplatform/tenantd/pkg/resolver"
	storage "github.com/moduleplatform/tenantd/pkg/store"
	"github.com/moduleplatform/tenantd/pkg/timer"
	"github.com/moduleplatform/tenantd/pkg/types"
	"github.com/rs/zerolog"
)

// Facade is the TenantLifecycleManager. It owns no goroutines of its
// own beyond what Install/Timer/Broker already run; every method here
// is safe to call concurrently because the collaborators it delegates
// to are.
type Facade struct {
	tenants manager.Map1[*types.Tenant]
	store   storage.TenantStore
	modules modulemanager.ModuleManager
	jobs    *jobstore.JobStore
	cache   *cache.Cache
	timer   *timer.Scheduler
	broker  *events.Broker
	hooks   *hooks.Invoker
	install *install.Engine
	logger  zerolog.Logger
}

// New wires a Facade over its collaborators. jobs/proxy are needed to
// build the embedded InstallEngine; timerScheduler and broker may be
// nil in tests that don't exercise timer rearming.
func New(
	tenants manager.Map1[*types.Tenant],
	store storage.TenantStore,
	modules modulemanager.ModuleManager,
	jobs *jobstore.JobStore,
	proxy proxyclient.Proxy,
	c *cache.Cache,
	timerScheduler *timer.Scheduler,
	broker *events.Broker,
) *Facade {
	f := &Facade{
		tenants: tenants,
		store:   store,
		modules: modules,
		jobs:    jobs,
		cache:   c,
		timer:   timerScheduler,
		broker:  broker,
		hooks:   hooks.New(proxy),
		logger:  log.WithComponent(log.Logger, "lifecycle"),
	}
	f.install = install.New(tenants, modules, jobs, f.hooks, proxy, broker, f.rebuildCache)
	return f
}

// Start begins the broker's distribution loop and the timer
// scheduler's topic subscription. Call once after Init.
func (f *Facade) Start() {
	if f.broker != nil {
		f.broker.Start()
	}
	if f.timer != nil {
		f.timer.Start()
	}
}

// Shutdown stops the timer scheduler's armed loops and the broker's
// distribution goroutine, in that order so no in-flight timer rebuild
// is left waiting on a broker that already exited.
func (f *Facade) Shutdown() {
	if f.timer != nil {
		f.timer.Stop()
	}
	if f.broker != nil {
		f.broker.Stop()
	}
}

// Install returns the embedded InstallEngine for installUpgradeCreate
// callers (httpapi.go, cmd/tenantd).
func (f *Facade) Install() *install.Engine {
	return f.install
}

// GetJob fetches a single install/upgrade job by tenant and job id.
func (f *Facade) GetJob(tenantID, jobID string) (*types.InstallJob, error) {
	job, err := f.jobs.Get(tenantID, jobID)
	if err != nil {
		return nil, lifecycleerr.NotFoundf("job %s not found for tenant %s", jobID, tenantID)
	}
	return job, nil
}

// Init populates the tenants map from the Store the first time any
// process in the cluster observes an empty map; later instances see a
// populated map through the ReplicatedMap and skip the load.
func (f *Facade) Init() error {
	if len(f.tenants.Keys()) > 0 {
		return nil
	}

	tenants, err := f.store.ListTenants()
	if err != nil {
		return lifecycleerr.Internalf(err, "listing tenants from store")
	}

	for _, t := range tenants {
		if err := f.tenants.Add(t.ID, t); err != nil && !errors.Is(err, manager.ErrExists) {
			return lifecycleerr.Internalf(err, "loading tenant %s", t.ID)
		}
		f.rebuildCache(t.ID)
	}

	metrics.TenantsTotal.Set(float64(len(f.tenants.Keys())))
	return nil
}

// Insert creates a brand-new tenant, failing USER if one with this id
// already exists.
func (f *Facade) Insert(tenant *types.Tenant) (string, error) {
	if tenant.EnabledModules == nil {
		tenant.EnabledModules = make(map[string]time.Time)
	}
	if _, err := f.tenants.Get(tenant.ID); err == nil {
		return "", lifecycleerr.Userf("tenant %s already exists", tenant.ID)
	}

	if err := f.store.Insert(tenant); err != nil {
		return "", lifecycleerr.Internalf(err, "persisting tenant %s", tenant.ID)
	}
	if err := f.tenants.Add(tenant.ID, tenant); err != nil {
		return "", lifecycleerr.Userf("tenant %s already exists", tenant.ID)
	}

	metrics.TenantsTotal.Inc()
	f.rebuildCache(tenant.ID)
	return tenant.ID, nil
}

// UpdateDescriptor rewrites a tenant's display descriptor, preserving
// its enabled-module set if it already exists, else creating it with an
// empty one.
func (f *Facade) UpdateDescriptor(td types.TenantDescriptor) error {
	existing, err := f.tenants.Get(td.ID)
	if err != nil {
		created := &types.Tenant{ID: td.ID, Descriptor: td, EnabledModules: make(map[string]time.Time)}
		if err := f.store.Insert(created); err != nil {
			return lifecycleerr.Internalf(err, "persisting new tenant %s", td.ID)
		}
		if err := f.tenants.Add(td.ID, created); err != nil {
			return lifecycleerr.Internalf(err, "committing new tenant %s", td.ID)
		}
		metrics.TenantsTotal.Inc()
		f.rebuildCache(td.ID)
		return nil
	}

	updated := existing.Clone()
	updated.Descriptor = td
	if _, err := f.store.UpdateDescriptor(td); err != nil {
		return lifecycleerr.Internalf(err, "updating descriptor for tenant %s", td.ID)
	}
	if err := f.tenants.Put(td.ID, updated); err != nil {
		return lifecycleerr.Internalf(err, "committing descriptor for tenant %s", td.ID)
	}
	return nil
}

// Get returns a single tenant by id, or NOT_FOUND.
func (f *Facade) Get(id string) (*types.Tenant, error) {
	t, err := f.tenants.Get(id)
	if err != nil {
		return nil, lifecycleerr.NotFoundf("tenant %s not found", id)
	}
	return t, nil
}

// List returns every known tenant, unordered.
func (f *Facade) List() []*types.Tenant {
	ids := f.tenants.Keys()
	out := make([]*types.Tenant, 0, len(ids))
	for _, id := range ids {
		if t, err := f.tenants.Get(id); err == nil {
			out = append(out, t)
		}
	}
	return out
}

// Delete removes a tenant, cascading through the Store first so a
// crash between the two writes never leaves the map pointing at a
// tenant the Store has forgotten.
func (f *Facade) Delete(id string) error {
	found, err := f.store.Delete(id)
	if err != nil {
		return lifecycleerr.Internalf(err, "deleting tenant %s", id)
	}
	if !found {
		return lifecycleerr.NotFoundf("tenant %s not found", id)
	}

	if err := f.tenants.Remove(id); err != nil && !errors.Is(err, manager.ErrNotFound) {
		return lifecycleerr.Internalf(err, "evicting tenant %s", id)
	}

	f.cache.Evict(id)
	metrics.TenantsTotal.Dec()
	metrics.EnabledModulesTotal.DeleteLabelValues(id)
	return nil
}

// EnableAndDisableModule is the single-module convenience path: it
// resolves mdFrom/mdTo from moduleFromID/td.ID, runs a dependency and
// conflict check against the tenant's enabled set with the change
// applied, then drives the §4.6 module-change sequence directly
// (bypassing the job machinery InstallEngine uses for multi-module
// plans). It returns the target module id, or "" when both mdFrom and
// mdTo are absent.
func (f *Facade) EnableAndDisableModule(ctx context.Context, tenantID string, options types.InstallOptions, moduleFromID string, td *types.TenantModuleDescriptor) (string, error) {
	tenant, err := f.tenants.Get(tenantID)
	if err != nil {
		return "", lifecycleerr.NotFoundf("tenant %s not found", tenantID)
	}

	available, err := f.availableModules(options)
	if err != nil {
		return "", lifecycleerr.Internalf(err, "listing available modules")
	}

	var mdFrom, mdTo *types.ModuleDescriptor
	if moduleFromID != "" {
		md, ok := available[moduleFromID]
		if !ok {
			return "", lifecycleerr.NotFoundf("module %s not found", moduleFromID)
		}
		mdFrom = md
	}
	if td != nil && td.ID != "" {
		md, ok := available[td.ID]
		if !ok {
			return "", lifecycleerr.NotFoundf("module %s not found", td.ID)
		}
		mdTo = md
	}
	if mdFrom == nil && mdTo == nil {
		return "", nil
	}

	proposed := f.enabledDescriptors(tenant, available, mdFrom)
	if mdTo != nil {
		proposed = append(proposed, mdTo)
	}

	checkTimer := metrics.NewTimer()
	depMsg := resolver.CheckAllDependencies(proposed)
	conflictMsg := resolver.CheckAllConflicts(proposed)
	checkTimer.ObserveDurationVec(metrics.ResolverDuration, "enableAndDisableModule")
	if depMsg != "" || conflictMsg != "" {
		var parts []string
		if depMsg != "" {
			parts = append(parts, depMsg)
		}
		if conflictMsg != "" {
			parts = append(parts, conflictMsg)
		}
		return "", lifecycleerr.Userf("%s", strings.Join(parts, "; "))
	}

	previouslyEnabled := f.enabledDescriptors(tenant, available, nil)
	purge := mdTo == nil
	if err := f.hooks.InvokeModuleChange(ctx, tenant, previouslyEnabled, mdTo, mdFrom, purge, ""); err != nil {
		return "", err
	}

	updated := tenant.Clone()
	if mdFrom != nil {
		delete(updated.EnabledModules, mdFrom.ID)
	}
	if mdTo != nil {
		updated.EnabledModules[mdTo.ID] = time.Now()
	}
	if _, err := f.store.UpdateModules(tenantID, updated.EnabledModules); err != nil {
		return "", lifecycleerr.Internalf(err, "persisting enabled modules for tenant %s", tenantID)
	}
	if err := f.tenants.Put(tenantID, updated); err != nil {
		return "", lifecycleerr.Internalf(err, "committing module change for tenant %s", tenantID)
	}

	f.rebuildCache(tenantID)
	if f.broker != nil {
		f.broker.Publish(events.TopicTimer, tenantID)
	}

	if mdTo != nil {
		return mdTo.ID, nil
	}
	return "", nil
}

// ListInterfaces enumerates the interfaces provided by tenantID's
// enabled modules, optionally restricted to interfaceType and
// deduplicated by (id,version) unless full is set.
func (f *Facade) ListInterfaces(tenantID string, full bool, interfaceType types.InterfaceType) ([]types.InterfaceDescriptor, error) {
	if _, err := f.tenants.Get(tenantID); err != nil {
		return nil, lifecycleerr.NotFoundf("tenant %s not found", tenantID)
	}

	entry, _ := f.cache.Get(tenantID)
	seen := make(map[string]bool)
	var out []types.InterfaceDescriptor
	for _, md := range entry.Modules {
		for _, iface := range md.Provides {
			if interfaceType != "" && iface.InterfaceType != interfaceType {
				continue
			}
			if !full {
				key := iface.ID + "@" + iface.Version
				if seen[key] {
					continue
				}
				seen[key] = true
			}
			out = append(out, iface)
		}
	}
	return out, nil
}

// ListModulesFromInterface returns tenantID's enabled modules that
// provide interfaceName, optionally restricted to interfaceType.
func (f *Facade) ListModulesFromInterface(tenantID, interfaceName string, interfaceType types.InterfaceType) ([]*types.ModuleDescriptor, error) {
	if _, err := f.tenants.Get(tenantID); err != nil {
		return nil, lifecycleerr.NotFoundf("tenant %s not found", tenantID)
	}

	entry, _ := f.cache.Get(tenantID)
	var out []*types.ModuleDescriptor
	for _, md := range entry.Modules {
		iface, ok := md.Provide(interfaceName)
		if !ok {
			continue
		}
		if interfaceType != "" && iface.InterfaceType != interfaceType {
			continue
		}
		out = append(out, md)
	}
	return out, nil
}

// GetModuleUser returns the ids of every tenant currently enabling
// moduleID.
func (f *Facade) GetModuleUser(moduleID string) []string {
	var out []string
	for _, id := range f.tenants.Keys() {
		tenant, err := f.tenants.Get(id)
		if err != nil {
			continue
		}
		if _, ok := tenant.EnabledModules[moduleID]; ok {
			out = append(out, id)
		}
	}
	return out
}

// UpgradeOkapiModule promotes every tenant's okapi-* enabled module to
// this gateway's own module id, never downgrading: the swap only
// commits when selfVersion compares strictly newer than the tenant's
// current okapi module version.
func (f *Facade) UpgradeOkapiModule(selfModuleID, selfVersion string) error {
	const okapiPrefix = "okapi-"

	for _, id := range f.tenants.Keys() {
		tenant, err := f.tenants.Get(id)
		if err != nil {
			continue
		}

		var current string
		for enabledID := range tenant.EnabledModules {
			if strings.HasPrefix(enabledID, okapiPrefix) {
				current = enabledID
				break
			}
		}
		if current == "" || current == selfModuleID {
			continue
		}

		code, err := resolver.Compare(selfVersion, strings.TrimPrefix(current, okapiPrefix))
		if err != nil {
			f.logger.Warn().Err(err).Str("tenant_id", id).Str("module_id", current).Msg("cannot compare okapi module versions, skipping promotion")
			continue
		}
		if code != resolver.Greater && code != resolver.GreaterMajor {
			continue
		}

		updated := tenant.Clone()
		delete(updated.EnabledModules, current)
		updated.EnabledModules[selfModuleID] = time.Now()
		if _, err := f.store.UpdateModules(id, updated.EnabledModules); err != nil {
			return lifecycleerr.Internalf(err, "persisting okapi promotion for tenant %s", id)
		}
		if err := f.tenants.Put(id, updated); err != nil {
			return lifecycleerr.Internalf(err, "promoting okapi module for tenant %s", id)
		}
		f.rebuildCache(id)
	}
	return nil
}

// rebuildCache resolves tenantID's enabled module ids to descriptors
// and rebuilds its cache entry. It is the InstallEngine's onCommit
// callback and is also called directly by every façade method that
// mutates a tenant's enabled set outside a job.
func (f *Facade) rebuildCache(tenantID string) {
	tenant, err := f.tenants.Get(tenantID)
	if err != nil {
		f.cache.Evict(tenantID)
		return
	}

	modules := f.enabledDescriptors(tenant, nil, nil)
	f.cache.Rebuild(tenantID, modules)
	metrics.EnabledModulesTotal.WithLabelValues(tenantID).Set(float64(len(tenant.EnabledModules)))
}

// availableModules resolves every module ModuleManager currently
// offers, keyed by id.
func (f *Facade) availableModules(options types.InstallOptions) (map[string]*types.ModuleDescriptor, error) {
	mods, err := f.modules.GetModulesWithFilter(options.PreRelease, options.NpmSnapshot, "")
	if err != nil {
		return nil, err
	}
	out := make(map[string]*types.ModuleDescriptor, len(mods))
	for _, md := range mods {
		out[md.ID] = md
	}
	return out, nil
}

// enabledDescriptors resolves tenant's enabled module ids to
// descriptors, via available when given or else ModuleManager.Get
// directly, excluding exclude's id when non-nil.
func (f *Facade) enabledDescriptors(tenant *types.Tenant, available map[string]*types.ModuleDescriptor, exclude *types.ModuleDescriptor) []*types.ModuleDescriptor {
	out := make([]*types.ModuleDescriptor, 0, len(tenant.EnabledModules))
	for id := range tenant.EnabledModules {
		if exclude != nil && id == exclude.ID {
			continue
		}
		var md *types.ModuleDescriptor
		if available != nil {
			md, _ = available[id]
		} else {
			md, _ = f.modules.Get(id)
		}
		if md != nil {
			out = append(out, md)
		}
	}
	return out
}
