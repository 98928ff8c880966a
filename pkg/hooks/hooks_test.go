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

func tenant() *types.Tenant {
	return &types.Tenant{ID: "tenant-1"}
}

func moduleWithTenantHook(version string, entries []types.RoutingEntry) *types.ModuleDescriptor {
	return &types.ModuleDescriptor{
		ID:   "mod-a-1.0.0",
		Name: "mod-a",
		Provides: []types.InterfaceDescriptor{
			{ID: TenantInterface, Version: version, RoutingEntries: entries},
		},
	}
}

func TestInvokeTenantHookNoInterfaceIsNoop(t *testing.T) {
	proxy := proxyclient.NewFake()
	h := New(proxy)
	md := &types.ModuleDescriptor{ID: "mod-a-1.0.0"}

	err := h.InvokeTenantHook(context.Background(), tenant(), md, "mod-a-1.0.0", "", false, "")
	require.NoError(t, err)
	assert.Empty(t, proxy.Calls())
}

func TestInvokeTenantHookV10UsesRoutingEntry(t *testing.T) {
	proxy := proxyclient.NewFake()
	h := New(proxy)
	md := moduleWithTenantHook("1.0", []types.RoutingEntry{{Methods: []string{"POST"}, StaticPath: "/install"}})

	require.NoError(t, h.InvokeTenantHook(context.Background(), tenant(), md, "mod-a-1.0.0", "", false, ""))

	calls := proxy.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/install", calls[0].Path)
}

func TestInvokeTenantHookV10FallsBackOnInstall(t *testing.T) {
	proxy := proxyclient.NewFake()
	h := New(proxy)
	md := moduleWithTenantHook("1.0", nil)

	require.NoError(t, h.InvokeTenantHook(context.Background(), tenant(), md, "mod-a-1.0.0", "", false, ""))

	calls := proxy.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, fallbackTenantPath, calls[0].Path)
}

func TestInvokeTenantHookV10NoFallbackOnPureDisable(t *testing.T) {
	proxy := proxyclient.NewFake()
	h := New(proxy)
	md := moduleWithTenantHook("1.0", nil)

	// moduleTo == "" and not purging: per Design Notes §9, no call at all.
	require.NoError(t, h.InvokeTenantHook(context.Background(), tenant(), md, "", "", false, ""))
	assert.Empty(t, proxy.Calls())
}

func TestInvokeTenantHookV11RequiresRoutingEntry(t *testing.T) {
	proxy := proxyclient.NewFake()
	h := New(proxy)
	md := moduleWithTenantHook("1.1", nil)

	err := h.InvokeTenantHook(context.Background(), tenant(), md, "", "", false, "")
	assert.Error(t, err)
	assert.Empty(t, proxy.Calls())
}

func TestInvokeTenantHookV11SelectsDisableEntry(t *testing.T) {
	proxy := proxyclient.NewFake()
	h := New(proxy)
	md := moduleWithTenantHook("1.1", []types.RoutingEntry{
		{Methods: []string{"POST"}, StaticPath: disableTenantPath},
		{Methods: []string{"POST"}, StaticPath: "/install"},
	})

	require.NoError(t, h.InvokeTenantHook(context.Background(), tenant(), md, "", "from-mod", false, ""))

	calls := proxy.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, disableTenantPath, calls[0].Path)
}

func TestInvokeTenantHookV12IncludesParameters(t *testing.T) {
	proxy := proxyclient.NewFake()
	h := New(proxy)
	md := moduleWithTenantHook("1.2", []types.RoutingEntry{{Methods: []string{"POST"}, StaticPath: "/install"}})

	require.NoError(t, h.InvokeTenantHook(context.Background(), tenant(), md, "mod-a-1.0.0", "", false, "k=v,flag"))

	calls := proxy.Calls()
	require.Len(t, calls, 1)
	var body tenantHookBody
	require.NoError(t, json.Unmarshal(calls[0].Body, &body))
	require.Len(t, body.Parameters, 2)
	assert.Equal(t, "k", body.Parameters[0].Key)
	require.NotNil(t, body.Parameters[0].Value)
	assert.Equal(t, "v", *body.Parameters[0].Value)
	assert.Equal(t, "flag", body.Parameters[1].Key)
	assert.Nil(t, body.Parameters[1].Value)
}

func TestInvokeTenantHookUnsupportedVersionFails(t *testing.T) {
	proxy := proxyclient.NewFake()
	h := New(proxy)
	md := moduleWithTenantHook("2.0", []types.RoutingEntry{{Methods: []string{"POST"}, StaticPath: "/install"}})

	err := h.InvokeTenantHook(context.Background(), tenant(), md, "mod-a-1.0.0", "", false, "")
	assert.Error(t, err)
}

func TestInvokeTenantHookPurgeUsesDelete(t *testing.T) {
	proxy := proxyclient.NewFake()
	h := New(proxy)
	md := moduleWithTenantHook("1.1", []types.RoutingEntry{{Methods: []string{"DELETE"}, StaticPath: "/purge"}})

	require.NoError(t, h.InvokeTenantHook(context.Background(), tenant(), md, "", "mod-a-1.0.0", true, ""))

	calls := proxy.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/purge", calls[0].Path)
}
