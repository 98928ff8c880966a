package hooks

import (
	"context"
	"encoding/json"

	"github.com/moduleplatform/tenantd/pkg/lifecycleerr"
	"github.com/moduleplatform/tenantd/pkg/metrics"
	"github.com/moduleplatform/tenantd/pkg/proxyclient"
	"github.com/moduleplatform/tenantd/pkg/resolver"
	"github.com/moduleplatform/tenantd/pkg/types"
)

// permissionsHookBody is the _tenantPermissions wire body (spec §6).
type permissionsHookBody struct {
	ModuleID string                `json:"moduleId"`
	Perms    []types.PermissionSet `json:"perms"`
}

// FindPermissionsModule returns the first module in enabled (search
// order = iteration order of the tenant's enabled set) that provides
// _tenantPermissions.
func FindPermissionsModule(enabled []*types.ModuleDescriptor) (*types.ModuleDescriptor, bool) {
	for _, md := range enabled {
		if _, ok := md.Provide(PermissionsInterface); ok {
			return md, true
		}
	}
	return nil, false
}

// selectPerms picks sourceModule's permissionSets or
// expandedPermissionSets depending on the receiving permissions
// module's interface version.
func selectPerms(sourceModule *types.ModuleDescriptor, permInterfaceVersion string) []types.PermissionSet {
	if resolver.SatisfiesMin(permInterfaceVersion, "1.1") {
		return sourceModule.ExpandedPermissionSets
	}
	return sourceModule.PermissionSets
}

// AnnounceModulePermissions POSTs sourceModule's permission sets to
// permModule's _tenantPermissions routing entry.
func (h *Invoker) AnnounceModulePermissions(ctx context.Context, tenant *types.Tenant, permModule, sourceModule *types.ModuleDescriptor) error {
	iface, ok := permModule.Provide(PermissionsInterface)
	if !ok {
		return lifecycleerr.Userf("_tenantPermissions: module %s does not provide the interface", permModule.ID)
	}
	re, ok := selectEntryByMethod(iface.RoutingEntries, "POST")
	if !ok {
		return lifecycleerr.Userf("_tenantPermissions: module %s has no POST routing entry", permModule.ID)
	}

	body, err := json.Marshal(permissionsHookBody{
		ModuleID: sourceModule.ID,
		Perms:    selectPerms(sourceModule, iface.Version),
	})
	if err != nil {
		return lifecycleerr.Internalf(err, "_tenantPermissions: encoding body for module %s", sourceModule.ID)
	}

	instance := proxyclient.ModuleInstance{
		Module:       permModule,
		RoutingEntry: re,
		Path:         re.StaticPath,
		Method:       "POST",
		SystemCall:   true,
	}

	timer := metrics.NewTimer()
	_, callErr := h.proxy.CallSystemInterface(ctx, tenant, instance, body, proxyclient.ProxyContext{})
	timer.ObserveDurationVec(metrics.HookCallDuration, "permissions")

	outcome := "success"
	if callErr != nil {
		outcome = "failure"
	}
	metrics.HookCallsTotal.WithLabelValues("permissions", outcome).Inc()

	if callErr != nil {
		h.logger.Warn().Err(callErr).Str("module_id", permModule.ID).Str("source_module_id", sourceModule.ID).Msg("_tenantPermissions call failed")
		return lifecycleerr.Internalf(callErr, "_tenantPermissions call to module %s failed", permModule.ID)
	}
	return nil
}

// BootstrapPermissions announces every previously-enabled module's
// permissions to permModule (which is itself being enabled), in
// iteration order, then announces permModule's own permissions last.
func (h *Invoker) BootstrapPermissions(ctx context.Context, tenant *types.Tenant, permModule *types.ModuleDescriptor, previouslyEnabled []*types.ModuleDescriptor) error {
	for _, md := range previouslyEnabled {
		if md.ID == permModule.ID {
			continue
		}
		if err := h.AnnounceModulePermissions(ctx, tenant, permModule, md); err != nil {
			return err
		}
	}
	return h.AnnounceModulePermissions(ctx, tenant, permModule, permModule)
}
