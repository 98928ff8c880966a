package hooks

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/moduleplatform/tenantd/pkg/proxyclient"
	"github.com/moduleplatform/tenantd/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func permsModule(version string) *types.ModuleDescriptor {
	return &types.ModuleDescriptor{
		ID:   "mod-perms-1.0.0",
		Name: "mod-perms",
		Provides: []types.InterfaceDescriptor{
			{ID: PermissionsInterface, Version: version, RoutingEntries: []types.RoutingEntry{
				{Methods: []string{"POST"}, StaticPath: "/_/tenantPermissions"},
			}},
		},
	}
}

func TestAnnounceModulePermissionsUsesExpandedWhenV11(t *testing.T) {
	proxy := proxyclient.NewFake()
	h := New(proxy)
	perms := permsModule("1.1")
	source := &types.ModuleDescriptor{
		ID:                     "mod-x-1.0.0",
		PermissionSets:         []types.PermissionSet{{PermissionName: "basic"}},
		ExpandedPermissionSets: []types.PermissionSet{{PermissionName: "expanded"}},
	}

	require.NoError(t, h.AnnounceModulePermissions(context.Background(), tenant(), perms, source))

	calls := proxy.Calls()
	require.Len(t, calls, 1)
	var body permissionsHookBody
	require.NoError(t, json.Unmarshal(calls[0].Body, &body))
	assert.Equal(t, "mod-x-1.0.0", body.ModuleID)
	require.Len(t, body.Perms, 1)
	assert.Equal(t, "expanded", body.Perms[0].PermissionName)
}

func TestAnnounceModulePermissionsUsesBasicWhenV10(t *testing.T) {
	proxy := proxyclient.NewFake()
	h := New(proxy)
	perms := permsModule("1.0")
	source := &types.ModuleDescriptor{
		ID:                     "mod-x-1.0.0",
		PermissionSets:         []types.PermissionSet{{PermissionName: "basic"}},
		ExpandedPermissionSets: []types.PermissionSet{{PermissionName: "expanded"}},
	}

	require.NoError(t, h.AnnounceModulePermissions(context.Background(), tenant(), perms, source))

	var body permissionsHookBody
	require.NoError(t, json.Unmarshal(proxy.Calls()[0].Body, &body))
	require.Len(t, body.Perms, 1)
	assert.Equal(t, "basic", body.Perms[0].PermissionName)
}

func TestBootstrapPermissionsOrdersPreviousThenSelf(t *testing.T) {
	proxy := proxyclient.NewFake()
	h := New(proxy)
	perms := permsModule("1.1")
	modX := &types.ModuleDescriptor{ID: "mod-x-1.0.0", ExpandedPermissionSets: []types.PermissionSet{{PermissionName: "x"}}}
	modY := &types.ModuleDescriptor{ID: "mod-y-1.0.0", ExpandedPermissionSets: []types.PermissionSet{{PermissionName: "y"}}}

	require.NoError(t, h.BootstrapPermissions(context.Background(), tenant(), perms, []*types.ModuleDescriptor{modX, modY, perms}))

	calls := proxy.Calls()
	require.Len(t, calls, 3)
	var first, second, third permissionsHookBody
	require.NoError(t, json.Unmarshal(calls[0].Body, &first))
	require.NoError(t, json.Unmarshal(calls[1].Body, &second))
	require.NoError(t, json.Unmarshal(calls[2].Body, &third))
	assert.Equal(t, "mod-x-1.0.0", first.ModuleID)
	assert.Equal(t, "mod-y-1.0.0", second.ModuleID)
	assert.Equal(t, "mod-perms-1.0.0", third.ModuleID)
}

func TestFindPermissionsModuleFirstMatch(t *testing.T) {
	modX := &types.ModuleDescriptor{ID: "mod-x-1.0.0"}
	perms := permsModule("1.0")
	found, ok := FindPermissionsModule([]*types.ModuleDescriptor{modX, perms})
	require.True(t, ok)
	assert.Equal(t, "mod-perms-1.0.0", found.ID)
}

func TestFindPermissionsModuleNone(t *testing.T) {
	modX := &types.ModuleDescriptor{ID: "mod-x-1.0.0"}
	_, ok := FindPermissionsModule([]*types.ModuleDescriptor{modX})
	assert.False(t, ok)
}
