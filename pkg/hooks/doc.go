/*
Package hooks implements HookInvoker: the three module hooks the
lifecycle façade and install engine invoke through the external Proxy.

_tenant dispatches on interface version (1.0 fallback-with-retry, 1.1
requires a routing entry, 1.2 adds comma-separated parameters).
_tenantPermissions resolves the currently-enabled permissions module by
search order and POSTs {moduleId, perms}, picking permissionSets or
expandedPermissionSets by the receiving module's own interface version.

InvokeModuleChange composes both into the four-phase ordering spec §4.6
requires per module change: announce-then-hook for an ordinary module,
hook-then-bootstrap for a module that is itself becoming the
permissions provider. Committing the enabled-set change itself is left
to the caller.
*/
package hooks
