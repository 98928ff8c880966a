/*
Package types defines the core data structures shared by the tenant
lifecycle manager: tenants, module descriptors, interfaces, routing
entries, and install jobs.

These types are read and written by pkg/store, pkg/replicatedmap,
pkg/resolver, pkg/cache, pkg/timer, pkg/hooks, pkg/install, and
pkg/lifecycle. None of them own synchronization; callers holding a
*Tenant or *InstallJob across a suspension point should Clone it first
if they intend to keep using the old value after a concurrent mutation.

# Enabled modules

A Tenant's EnabledModules map is keyed by moduleId
("name-semver[-prerelease][+build]") with at most one id per module
name — the uniqueness invariant is enforced by pkg/lifecycle, not by
this package.

# Plan items

An InstallJob's Modules slice is a topologically-ordered plan produced
by pkg/resolver.InstallSimulate and driven through Stage transitions by
pkg/install.Engine. A TenantModuleDescriptor's terminal state is either
Stage == StageDone, or a non-done stage with a non-empty Message.
*/
package types
