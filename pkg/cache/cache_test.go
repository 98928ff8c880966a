package cache

import (
	"testing"

	"github.com/moduleplatform/tenantd/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func permMod(version string) *types.ModuleDescriptor {
	return &types.ModuleDescriptor{
		ID:   "mod-perms-" + version,
		Name: "mod-perms",
		Provides: []types.InterfaceDescriptor{
			{ID: TenantPermissionsInterface, Version: version, InterfaceType: types.InterfaceTypeSystem},
		},
	}
}

func TestCacheRebuildExpandTrue(t *testing.T) {
	c := New()
	entry := c.Rebuild("tenant-1", []*types.ModuleDescriptor{permMod("1.1")})
	assert.Equal(t, types.ExpandTrue, entry.ExpandPermissions)
}

func TestCacheRebuildExpandFalse(t *testing.T) {
	c := New()
	entry := c.Rebuild("tenant-1", []*types.ModuleDescriptor{permMod("1.0")})
	assert.Equal(t, types.ExpandFalse, entry.ExpandPermissions)
}

func TestCacheRebuildExpandUnknown(t *testing.T) {
	c := New()
	entry := c.Rebuild("tenant-1", []*types.ModuleDescriptor{
		{ID: "mod-users-1.0.0", Name: "mod-users"},
	})
	assert.Equal(t, types.ExpandUnknown, entry.ExpandPermissions)
}

func TestCacheGetAfterRebuild(t *testing.T) {
	c := New()
	c.Rebuild("tenant-1", []*types.ModuleDescriptor{permMod("1.2")})

	entry, ok := c.Get("tenant-1")
	require.True(t, ok)
	assert.Equal(t, types.ExpandTrue, entry.ExpandPermissions)
	assert.Len(t, entry.Modules, 1)
}

func TestCacheGetMissing(t *testing.T) {
	c := New()
	_, ok := c.Get("unknown-tenant")
	assert.False(t, ok)
}

func TestCacheEvict(t *testing.T) {
	c := New()
	c.Rebuild("tenant-1", []*types.ModuleDescriptor{permMod("1.0")})
	c.Evict("tenant-1")

	_, ok := c.Get("tenant-1")
	assert.False(t, ok)
}
