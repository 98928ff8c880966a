/*
Package cache implements EnabledModuleCache.

Enabled-module resolution walks a tenant's enabled-module-id set through
the external ModuleManager to get full ModuleDescriptors, then derives
the ternary expandPermissions flag. That walk is cheap but not free, and
it runs on every proxied request, so this package memoizes the result
per tenant and serves it with a bare RLock.

	cache := cache.New()

	modules := resolveDescriptors(tenant.EnabledModuleIDs()) // via ModuleManager
	entry := cache.Rebuild(tenant.ID, modules)

	entry, ok := cache.Get(tenant.ID)

# Invalidation

Callers are responsible for calling Rebuild after any committed
enable/disable change and Evict after tenant deletion; the cache itself
has no subscription to the ReplicatedMap or the store. This keeps the
package pure data, with no lifecycle of its own to manage.

# expandPermissions

True if any enabled module provides _tenantPermissions at version >=
1.1, False if only a 1.0 provider is enabled, Unknown if none is. The
flag is recorded on each Entry only; the _tenantPermissions request body
is chosen by pkg/hooks from the receiving permissions module's own
interface version, not from this flag.
*/
package cache
