package resolver

import (
	"testing"

	"github.com/moduleplatform/tenantd/pkg/types"
	"github.com/stretchr/testify/assert"
)

func iface(id, version string, t types.InterfaceType) types.InterfaceDescriptor {
	return types.InterfaceDescriptor{ID: id, Version: version, InterfaceType: t}
}

func TestCheckAllDependencies(t *testing.T) {
	users := &types.ModuleDescriptor{
		ID: "mod-users-1.0.0", Name: "mod-users", Version: "1.0.0",
		Provides: []types.InterfaceDescriptor{iface("users", "1.0", types.InterfaceTypeProxy)},
	}
	orders := &types.ModuleDescriptor{
		ID: "mod-orders-1.0.0", Name: "mod-orders", Version: "1.0.0",
		Requires: []types.InterfaceRequirement{{ID: "users", MinVersion: "1.0"}},
	}
	ordersUnmet := &types.ModuleDescriptor{
		ID: "mod-orders-1.0.0", Name: "mod-orders", Version: "1.0.0",
		Requires: []types.InterfaceRequirement{{ID: "users", MinVersion: "2.0"}},
	}

	tests := []struct {
		name string
		mods []*types.ModuleDescriptor
		ok   bool
	}{
		{"satisfied", []*types.ModuleDescriptor{users, orders}, true},
		{"missing provider", []*types.ModuleDescriptor{orders}, false},
		{"version too low", []*types.ModuleDescriptor{users, ordersUnmet}, false},
		{"no requirements", []*types.ModuleDescriptor{users}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckAllDependencies(tt.mods)
			if tt.ok {
				assert.Empty(t, got)
			} else {
				assert.NotEmpty(t, got)
			}
		})
	}
}

func TestCheckAllConflicts(t *testing.T) {
	a := &types.ModuleDescriptor{
		ID: "mod-a-1.0.0", Name: "mod-a",
		Provides: []types.InterfaceDescriptor{iface("users", "1.0", types.InterfaceTypeProxy)},
	}
	b := &types.ModuleDescriptor{
		ID: "mod-b-1.0.0", Name: "mod-b",
		Provides: []types.InterfaceDescriptor{iface("users", "1.0", types.InterfaceTypeProxy)},
	}
	multi := &types.ModuleDescriptor{
		ID: "mod-c-1.0.0", Name: "mod-c",
		Provides: []types.InterfaceDescriptor{iface("shared", "1.0", types.InterfaceTypeMultiple)},
	}
	multi2 := &types.ModuleDescriptor{
		ID: "mod-d-1.0.0", Name: "mod-d",
		Provides: []types.InterfaceDescriptor{iface("shared", "1.0", types.InterfaceTypeMultiple)},
	}

	tests := []struct {
		name string
		mods []*types.ModuleDescriptor
		ok   bool
	}{
		{"no conflict", []*types.ModuleDescriptor{a}, true},
		{"conflicting providers", []*types.ModuleDescriptor{a, b}, false},
		{"multiple interface type never conflicts", []*types.ModuleDescriptor{multi, multi2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckAllConflicts(tt.mods)
			if tt.ok {
				assert.Empty(t, got)
			} else {
				assert.NotEmpty(t, got)
			}
		})
	}
}
