package hooks

import (
	"context"

	"github.com/moduleplatform/tenantd/pkg/types"
)

// InvokeModuleChange runs the four-phase call ordering from spec §4.6
// for a single module change. previouslyEnabled is the tenant's
// enabled-module list before this change commits. toModule is nil for
// a pure disable; fromModule is nil unless purging or upgrading.
//
// For a module that itself provides _tenantPermissions: tenant hook
// first, then bootstrap permissions for every previously-enabled
// module plus itself. For any other module: announce its permissions
// to the already-enabled permissions module first (if one exists and
// isn't the module being changed), then the tenant hook.
//
// Committing the enabled-set change is the caller's responsibility,
// once this returns nil.
func (h *Invoker) InvokeModuleChange(ctx context.Context, tenant *types.Tenant, previouslyEnabled []*types.ModuleDescriptor, toModule, fromModule *types.ModuleDescriptor, purge bool, parameters string) error {
	hookModule := toModule
	if hookModule == nil {
		hookModule = fromModule
	}

	moduleTo, moduleFrom := "", ""
	if toModule != nil {
		moduleTo = toModule.ID
	}
	if fromModule != nil {
		moduleFrom = fromModule.ID
	}

	if toModule != nil {
		if _, providesPerms := toModule.Provide(PermissionsInterface); providesPerms {
			if err := h.InvokeTenantHook(ctx, tenant, hookModule, moduleTo, moduleFrom, purge, parameters); err != nil {
				return err
			}
			return h.BootstrapPermissions(ctx, tenant, toModule, previouslyEnabled)
		}
	}

	if permModule, ok := FindPermissionsModule(previouslyEnabled); ok {
		if hookModule == nil || hookModule.ID != permModule.ID {
			source := toModule
			if source == nil {
				source = fromModule
			}
			if source != nil {
				if err := h.AnnounceModulePermissions(ctx, tenant, permModule, source); err != nil {
					return err
				}
			}
		}
	}

	return h.InvokeTenantHook(ctx, tenant, hookModule, moduleTo, moduleFrom, purge, parameters)
}
