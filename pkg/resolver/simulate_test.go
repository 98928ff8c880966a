package resolver

import (
	"testing"

	"github.com/moduleplatform/tenantd/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func moduleSet() (available map[string]*types.ModuleDescriptor, users, orders, notifications *types.ModuleDescriptor) {
	users = &types.ModuleDescriptor{
		ID: "mod-users-1.0.0", Name: "mod-users", Version: "1.0.0",
		Provides: []types.InterfaceDescriptor{iface("users", "1.0", types.InterfaceTypeProxy)},
	}
	orders = &types.ModuleDescriptor{
		ID: "mod-orders-1.0.0", Name: "mod-orders", Version: "1.0.0",
		Provides: []types.InterfaceDescriptor{iface("orders", "1.0", types.InterfaceTypeProxy)},
		Requires: []types.InterfaceRequirement{{ID: "users", MinVersion: "1.0"}},
	}
	notifications = &types.ModuleDescriptor{
		ID: "mod-notifications-1.0.0", Name: "mod-notifications", Version: "1.0.0",
		Provides: []types.InterfaceDescriptor{iface("notifications", "1.0", types.InterfaceTypeProxy)},
		Requires: []types.InterfaceRequirement{{ID: "orders", MinVersion: "1.0"}},
	}

	available = map[string]*types.ModuleDescriptor{
		users.ID:         users,
		orders.ID:        orders,
		notifications.ID: notifications,
	}
	return
}

func findItem(plan []*types.TenantModuleDescriptor, id string) *types.TenantModuleDescriptor {
	for _, item := range plan {
		if item.ID == id {
			return item
		}
	}
	return nil
}

func indexOf(plan []*types.TenantModuleDescriptor, id string) int {
	for i, item := range plan {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func TestInstallSimulateAddsMissingDependency(t *testing.T) {
	available, users, orders, _ := moduleSet()
	enabled := map[string]*types.ModuleDescriptor{}

	plan := []*types.TenantModuleDescriptor{{ID: orders.ID, Action: types.ActionEnable}}
	result := InstallSimulate(available, enabled, plan)

	ordersItem := findItem(result, orders.ID)
	usersItem := findItem(result, users.ID)
	require.NotNil(t, ordersItem)
	require.NotNil(t, usersItem)
	assert.Equal(t, types.ActionEnable, ordersItem.Action)
	assert.Equal(t, types.ActionEnable, usersItem.Action)

	// users must appear before orders: orders depends on users.
	assert.Less(t, indexOf(result, users.ID), indexOf(result, orders.ID))
}

func TestInstallSimulateCascadeDisable(t *testing.T) {
	available, users, orders, notifications := moduleSet()
	enabled := map[string]*types.ModuleDescriptor{
		users.ID:         users,
		orders.ID:        orders,
		notifications.ID: notifications,
	}

	plan := []*types.TenantModuleDescriptor{{ID: users.ID, Action: types.ActionDisable}}
	result := InstallSimulate(available, enabled, plan)

	ordersItem := findItem(result, orders.ID)
	notifItem := findItem(result, notifications.ID)
	require.NotNil(t, ordersItem)
	require.NotNil(t, notifItem)
	assert.Equal(t, types.ActionDisable, ordersItem.Action)
	assert.Equal(t, types.ActionDisable, notifItem.Action)
}

func TestInstallSimulateConflictWhenDependencyMissing(t *testing.T) {
	orders := &types.ModuleDescriptor{
		ID: "mod-orders-1.0.0", Name: "mod-orders", Version: "1.0.0",
		Requires: []types.InterfaceRequirement{{ID: "users", MinVersion: "1.0"}},
	}
	available := map[string]*types.ModuleDescriptor{orders.ID: orders}
	enabled := map[string]*types.ModuleDescriptor{}

	plan := []*types.TenantModuleDescriptor{{ID: orders.ID, Action: types.ActionEnable}}
	result := InstallSimulate(available, enabled, plan)

	item := findItem(result, orders.ID)
	require.NotNil(t, item)
	assert.Equal(t, types.ActionConflict, item.Action)
	assert.NotEmpty(t, item.Message)
}

func TestInstallSimulateIdempotent(t *testing.T) {
	available, _, orders, _ := moduleSet()
	enabled := map[string]*types.ModuleDescriptor{}

	plan := []*types.TenantModuleDescriptor{{ID: orders.ID, Action: types.ActionEnable}}
	first := InstallSimulate(available, enabled, plan)
	second := InstallSimulate(available, enabled, first)

	require.Len(t, second, len(first))
	for _, item := range first {
		other := findItem(second, item.ID)
		require.NotNil(t, other)
		assert.Equal(t, item.Action, other.Action)
	}
}

func TestInstallSimulateUpgradeConflictingWithDependantIsReportedNotReverted(t *testing.T) {
	usersOld := &types.ModuleDescriptor{
		ID: "users-1.0.0", Name: "users", Version: "1.0.0",
		Provides: []types.InterfaceDescriptor{iface("users", "1.0", types.InterfaceTypeProxy)},
	}
	usersNew := &types.ModuleDescriptor{
		ID: "users-1.1.0", Name: "users", Version: "1.1.0",
		Provides: []types.InterfaceDescriptor{iface("users", "2.0", types.InterfaceTypeProxy)},
	}
	modA := &types.ModuleDescriptor{
		ID: "mod-a-1.0.0", Name: "mod-a", Version: "1.0.0",
		Requires: []types.InterfaceRequirement{{ID: "users", MinVersion: "1.0"}},
	}

	available := map[string]*types.ModuleDescriptor{
		usersOld.ID: usersOld,
		usersNew.ID: usersNew,
		modA.ID:     modA,
	}
	enabled := map[string]*types.ModuleDescriptor{
		usersOld.ID: usersOld,
		modA.ID:     modA,
	}

	plan := []*types.TenantModuleDescriptor{{ID: usersNew.ID, Action: types.ActionEnable, From: usersOld.ID}}
	result := InstallSimulate(available, enabled, plan)

	upgradeItem := findItem(result, usersNew.ID)
	require.NotNil(t, upgradeItem)
	assert.Equal(t, types.ActionConflict, upgradeItem.Action)
	assert.NotEmpty(t, upgradeItem.Message)

	oldItem := findItem(result, usersOld.ID)
	require.NotNil(t, oldItem)
	assert.Equal(t, types.ActionUpToDate, oldItem.Action)

	modAItem := findItem(result, modA.ID)
	require.NotNil(t, modAItem)
	assert.Equal(t, types.ActionUpToDate, modAItem.Action)
}

func TestInstallSimulateUpToDate(t *testing.T) {
	available, users, _, _ := moduleSet()
	enabled := map[string]*types.ModuleDescriptor{users.ID: users}

	plan := []*types.TenantModuleDescriptor{{ID: users.ID, Action: types.ActionEnable}}
	result := InstallSimulate(available, enabled, plan)

	item := findItem(result, users.ID)
	require.NotNil(t, item)
	assert.Equal(t, types.ActionUpToDate, item.Action)
}
