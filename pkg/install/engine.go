// Package install implements InstallEngine (spec §4.7): the
// multi-stage install/upgrade job that drives a tenant's module plan
// through deploy, hook-invoke and undeploy, persisting progress to the
// JobStore as it goes.
package install

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/moduleplatform/tenantd/pkg/events"
	"github.com/moduleplatform/tenantd/pkg/hooks"
	"github.com/moduleplatform/tenantd/pkg/jobstore"
	"github.com/moduleplatform/tenantd/pkg/lifecycleerr"
	"github.com/moduleplatform/tenantd/pkg/log"
	"github.com/moduleplatform/tenantd/pkg/metrics"
	"github.com/moduleplatform/tenantd/pkg/modulemanager"
	"github.com/moduleplatform/tenantd/pkg/proxyclient"
	manager "github.com/moduleplatform/tenantd/pkg/replicatedmap"
	"github.com/moduleplatform/tenantd/pkg/resolver"
	"github.com/moduleplatform/tenantd/pkg/types"
	"github.com/rs/zerolog"
)

// Engine runs installUpgradeCreate against a tenant's enabled module
// set, resolving dependencies, persisting job progress and invoking
// module hooks through the collaborators it is built over.
type Engine struct {
	tenants  manager.Map1[*types.Tenant]
	modules  modulemanager.ModuleManager
	jobs     *jobstore.JobStore
	hooks    *hooks.Invoker
	proxy    proxyclient.Proxy
	broker   *events.Broker
	onCommit func(tenantID string)
	logger   zerolog.Logger
}

// New creates an Engine. onCommit is called after every module change
// that mutates the tenant's enabled set commits, so the façade's
// cache/timer invalidation can run without this package importing it
// back.
func New(
	tenants manager.Map1[*types.Tenant],
	modules modulemanager.ModuleManager,
	jobs *jobstore.JobStore,
	hookInvoker *hooks.Invoker,
	proxy proxyclient.Proxy,
	broker *events.Broker,
	onCommit func(tenantID string),
) *Engine {
	return &Engine{
		tenants:  tenants,
		modules:  modules,
		jobs:     jobs,
		hooks:    hookInvoker,
		proxy:    proxy,
		broker:   broker,
		onCommit: onCommit,
		logger:   log.WithComponent(log.Logger, "install"),
	}
}

// InstallUpgradeCreate runs the spec §4.7 algorithm. An empty jobID is
// replaced by a fresh uuid.NewString() when the job is persisted; a
// simulate-only result keeps the jobID it was given.
func (e *Engine) InstallUpgradeCreate(ctx context.Context, tenantID, jobID string, options types.InstallOptions, plan []*types.TenantModuleDescriptor) (*types.InstallJob, error) {
	tenant, err := e.tenants.Get(tenantID)
	if err != nil {
		return nil, lifecycleerr.NotFoundf("tenant %s not found", tenantID)
	}
	for _, item := range plan {
		if item.Action == "" {
			return nil, lifecycleerr.Userf("plan item %s has no action", item.ID)
		}
	}

	available, err := e.availableModules(options)
	if err != nil {
		return nil, lifecycleerr.Internalf(err, "listing available modules")
	}
	enabled := e.enabledModules(tenant, available)

	if plan == nil {
		plan = e.synthesizeUpgradeAll(enabled, available)
	}

	resolverTimer := metrics.NewTimer()
	simulated := resolver.InstallSimulate(available, enabled, plan)
	resolverTimer.ObserveDurationVec(metrics.ResolverDuration, "installSimulate")

	if options.Simulate {
		return &types.InstallJob{
			ID:       jobID,
			TenantID: tenantID,
			Modules:  simulated,
		}, nil
	}

	if jobID == "" {
		jobID = uuid.NewString()
	}

	job := &types.InstallJob{
		ID:        jobID,
		TenantID:  tenantID,
		StartDate: time.Now(),
		Modules:   simulated,
	}
	if err := e.jobs.Put(job); err != nil {
		return nil, lifecycleerr.Internalf(err, "persisting job %s", jobID)
	}

	metrics.JobsInFlight.Inc()
	jobLogger := log.WithJobID(log.WithTenantID(e.logger, tenantID), job.ID)

	if options.Async {
		// Spec §4.7 step 5: the async caller gets a copy of this pending
		// snapshot back immediately; finishJob keeps running on a context
		// detached from the caller's request so it isn't cut short once
		// this function returns.
		snapshot := *job
		snapshot.Modules = make([]*types.TenantModuleDescriptor, len(job.Modules))
		for i, m := range job.Modules {
			item := *m
			snapshot.Modules[i] = &item
		}
		go func() {
			if _, err := e.finishJob(context.Background(), tenant, job, available, options, jobLogger); err != nil {
				jobLogger.Warn().Err(err).Msg("failed to persist completed job")
			}
		}()
		return &snapshot, nil
	}

	return e.finishJob(ctx, tenant, job, available, options, jobLogger)
}

// finishJob runs the plan to completion and records the job's terminal
// state. Called synchronously for a normal install/upgrade, or from a
// detached goroutine when options.Async is set.
func (e *Engine) finishJob(ctx context.Context, tenant *types.Tenant, job *types.InstallJob, available map[string]*types.ModuleDescriptor, options types.InstallOptions, logger zerolog.Logger) (*types.InstallJob, error) {
	jobTimer := metrics.NewTimer()
	defer func() {
		metrics.JobsInFlight.Dec()
		jobTimer.ObserveDuration(metrics.JobDuration)
	}()

	e.runPlan(ctx, tenant, job, available, options, logger)

	job.EndDate = time.Now()
	job.Complete = true
	var finishErr error
	if err := e.jobs.Put(job); err != nil {
		finishErr = lifecycleerr.Internalf(err, "persisting completed job %s", job.ID)
	}

	outcome := "success"
	for _, item := range job.Modules {
		if item.Failed() {
			outcome = "failure"
			break
		}
	}
	metrics.JobsTotal.WithLabelValues(outcome).Inc()

	if options.Deploy {
		e.undeployUnreferenced(ctx, job, available)
	}

	return job, finishErr
}

// runPlan executes each plan item in order, mutating item.Stage/Message
// in place and committing the tenant's enabled set on every module
// change that does not conflict.
func (e *Engine) runPlan(ctx context.Context, tenant *types.Tenant, job *types.InstallJob, available map[string]*types.ModuleDescriptor, options types.InstallOptions, logger zerolog.Logger) {
	for _, item := range job.Modules {
		if item.Action == types.ActionConflict {
			continue
		}
		itemLogger := log.WithModuleID(logger, item.ID)

		if options.Deploy && (item.Action == types.ActionEnable || item.Action == types.ActionUpToDate) {
			item.Stage = types.StageDeploy
			metrics.ModuleStageTransitions.WithLabelValues(string(types.StageDeploy)).Inc()
			if md, ok := available[item.ID]; ok {
				if err := e.proxy.AutoDeploy(ctx, md); err != nil {
					item.Message = err.Error()
				}
			}
		}

		if item.Message == "" {
			item.Stage = types.StageInvoke
			metrics.ModuleStageTransitions.WithLabelValues(string(types.StageInvoke)).Inc()
			if err := e.invoke(ctx, tenant, item, available); err != nil {
				item.Message = err.Error()
			}
		}

		if item.Message == "" {
			item.Stage = types.StageDone
			metrics.ModuleStageTransitions.WithLabelValues(string(types.StageDone)).Inc()
		}

		if err := e.jobs.Put(job); err != nil {
			itemLogger.Warn().Err(err).Msg("failed to persist job progress")
		}

		if item.Failed() && !options.IgnoreErrors {
			return
		}
	}
}

// invoke calls the HookInvoker for a single plan item and, on success,
// commits the module change to the tenant's enabled set.
func (e *Engine) invoke(ctx context.Context, tenant *types.Tenant, item *types.TenantModuleDescriptor, available map[string]*types.ModuleDescriptor) error {
	previouslyEnabled := e.enabledDescriptors(tenant, available)

	var toModule, fromModule *types.ModuleDescriptor
	purge := item.Action == types.ActionDisable
	switch item.Action {
	case types.ActionEnable, types.ActionUpToDate:
		toModule = available[item.ID]
		if item.From != "" {
			fromModule = available[item.From]
		}
	case types.ActionDisable:
		fromModule = available[item.ID]
	}

	if item.Action == types.ActionUpToDate {
		// Nothing changes in the enabled set; no hook call is needed.
		return nil
	}

	if err := e.hooks.InvokeModuleChange(ctx, tenant, previouslyEnabled, toModule, fromModule, purge, ""); err != nil {
		return err
	}

	return e.commit(tenant, item, toModule, fromModule)
}

// commit updates the tenant's enabled map and pushes the replicated
// write, then notifies the caller so cache/timers can rebuild.
func (e *Engine) commit(tenant *types.Tenant, item *types.TenantModuleDescriptor, toModule, fromModule *types.ModuleDescriptor) error {
	updated := tenant.Clone()
	if fromModule != nil {
		delete(updated.EnabledModules, fromModule.ID)
	}
	if toModule != nil {
		updated.EnabledModules[toModule.ID] = time.Now()
	}

	if err := e.tenants.Put(tenant.ID, updated); err != nil {
		return lifecycleerr.Internalf(err, "committing module change for tenant %s", tenant.ID)
	}
	*tenant = *updated

	if e.broker != nil {
		e.broker.Publish(events.TopicTimer, tenant.ID)
	}
	if e.onCommit != nil {
		e.onCommit(tenant.ID)
	}
	return nil
}

func (e *Engine) availableModules(options types.InstallOptions) (map[string]*types.ModuleDescriptor, error) {
	mods, err := e.modules.GetModulesWithFilter(options.PreRelease, options.NpmSnapshot, "")
	if err != nil {
		return nil, err
	}
	out := make(map[string]*types.ModuleDescriptor, len(mods))
	for _, md := range mods {
		out[md.ID] = md
	}
	return out, nil
}

func (e *Engine) enabledModules(tenant *types.Tenant, available map[string]*types.ModuleDescriptor) map[string]*types.ModuleDescriptor {
	out := make(map[string]*types.ModuleDescriptor)
	for id := range tenant.EnabledModules {
		if md, ok := available[id]; ok {
			out[id] = md
		}
	}
	return out
}

func (e *Engine) enabledDescriptors(tenant *types.Tenant, available map[string]*types.ModuleDescriptor) []*types.ModuleDescriptor {
	out := make([]*types.ModuleDescriptor, 0, len(tenant.EnabledModules))
	for id := range tenant.EnabledModules {
		if md, ok := available[id]; ok {
			out = append(out, md)
		}
	}
	return out
}

// synthesizeUpgradeAll builds an "upgrade all" plan: for each enabled
// module whose latest-by-name in available differs, enable the latest
// with from set to the current id.
func (e *Engine) synthesizeUpgradeAll(enabled, available map[string]*types.ModuleDescriptor) []*types.TenantModuleDescriptor {
	var plan []*types.TenantModuleDescriptor
	for id, current := range enabled {
		latest, err := e.modules.GetLatest(current.Name)
		if err != nil {
			continue
		}
		if latest.ID == id {
			continue
		}
		if _, ok := available[latest.ID]; !ok {
			continue
		}
		plan = append(plan, &types.TenantModuleDescriptor{
			ID:     latest.ID,
			From:   id,
			Action: types.ActionEnable,
			Stage:  types.StagePending,
		})
	}
	return plan
}

// undeployUnreferenced asks the Proxy to auto-undeploy every available
// module this job disabled or replaced by an upgrade that is no longer
// enabled by any tenant after this job committed. A disable item's
// stage moves to undeploy; an upgrade item keeps its own stage.
func (e *Engine) undeployUnreferenced(ctx context.Context, job *types.InstallJob, available map[string]*types.ModuleDescriptor) {
	for _, item := range job.Modules {
		if item.Failed() {
			continue
		}
		var moduleID string
		switch {
		case item.Action == types.ActionDisable:
			moduleID = item.ID
		case item.Action == types.ActionEnable && item.From != "":
			moduleID = item.From
		default:
			continue
		}
		md, ok := available[moduleID]
		if !ok {
			continue
		}
		if e.isReferencedByAnyTenant(md.ID) {
			continue
		}
		if item.Action == types.ActionDisable {
			item.Stage = types.StageUndeploy
			metrics.ModuleStageTransitions.WithLabelValues(string(types.StageUndeploy)).Inc()
		}
		if err := e.proxy.AutoUndeploy(ctx, md); err != nil {
			log.WithModuleID(e.logger, md.ID).Warn().Err(err).Msg("auto-undeploy failed")
		}
	}
}

func (e *Engine) isReferencedByAnyTenant(moduleID string) bool {
	for _, id := range e.tenants.Keys() {
		tenant, err := e.tenants.Get(id)
		if err != nil {
			continue
		}
		if _, ok := tenant.EnabledModules[moduleID]; ok {
			return true
		}
	}
	return false
}
