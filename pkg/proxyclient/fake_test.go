package proxyclient

import (
	"context"
	"testing"

	"github.com/moduleplatform/tenantd/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeCallSystemInterfaceRecords(t *testing.T) {
	f := NewFake()
	tenant := &types.Tenant{ID: "tenant-1"}
	md := &types.ModuleDescriptor{ID: "mod-users-1.0.0"}

	resp, err := f.CallSystemInterface(context.Background(), tenant, ModuleInstance{Module: md, Path: "/_/tenant", Method: "POST"}, nil, ProxyContext{})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	calls := f.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "tenant-1", calls[0].TenantID)
	assert.Equal(t, "mod-users-1.0.0", calls[0].ModuleID)
}

func TestFakeAutoDeployUndeploy(t *testing.T) {
	f := NewFake()
	md := &types.ModuleDescriptor{ID: "mod-users-1.0.0"}

	require.NoError(t, f.AutoDeploy(context.Background(), md))
	assert.True(t, f.IsDeployed(md.ID))

	require.NoError(t, f.AutoUndeploy(context.Background(), md))
	assert.False(t, f.IsDeployed(md.ID))
}

func TestFakeFailWith(t *testing.T) {
	f := NewFake()
	md := &types.ModuleDescriptor{ID: "mod-users-1.0.0"}
	sentinel := assert.AnError
	f.FailWith(md.ID, sentinel)

	err := f.AutoDeploy(context.Background(), md)
	assert.ErrorIs(t, err, sentinel)
}
