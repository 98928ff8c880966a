/*
Package install implements InstallEngine (spec §4.7): the driver behind
installUpgradeCreate. Given a tenant and an optional user-supplied plan,
it computes the available and currently-enabled module sets via the
external ModuleManager, expands the plan to a self-consistent closure
via pkg/resolver.InstallSimulate, and then walks the resulting plan item
by item: deploy (when requested), invoke the tenant/permissions hooks
via pkg/hooks, commit the enabled-set change to the replicated tenant
map, and mark the item done.

Progress is persisted to the JobStore after every item so any gateway
instance polling the job sees live stage transitions. A plan item
failure short-circuits the remaining items unless options.IgnoreErrors
is set. After the loop, when options.Deploy is set, modules no longer
referenced by any tenant are auto-undeployed through the Proxy.

	engine := install.New(tenants, modules, jobs, hookInvoker, proxy, broker, onCommit)
	job, err := engine.InstallUpgradeCreate(ctx, tenantID, "", types.InstallOptions{Deploy: true}, nil)
*/
package install
