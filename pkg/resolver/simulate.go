package resolver

import (
	"fmt"
	"sort"

	"github.com/moduleplatform/tenantd/pkg/types"
)

// InstallSimulate expands a user-supplied enable/disable plan so the
// resulting enabled set is self-consistent: every enabled module's
// dependencies are also enabled, and disabling a module cascades to its
// dependants. available and enabled are keyed by module id.
//
// The function is pure and idempotent: calling it again with its own
// output as plan reproduces the same result, because the algorithm
// always recomputes the full closure from available+enabled+plan rather
// than diffing against prior output.
func InstallSimulate(
	available map[string]*types.ModuleDescriptor,
	enabled map[string]*types.ModuleDescriptor,
	plan []*types.TenantModuleDescriptor,
) []*types.TenantModuleDescriptor {
	byName := indexByName(available)

	desired := make(map[string]*types.ModuleDescriptor, len(enabled))
	for id, m := range enabled {
		desired[id] = m
	}

	conflicts := make(map[string]string)
	explicitDisable := make(map[string]bool)
	explicitEnable := make(map[string]bool)

	// Apply explicit actions first: enable replaces any existing module
	// of the same name, disable removes by name.
	for _, item := range plan {
		switch item.Action {
		case types.ActionEnable:
			target, ok := available[item.ID]
			if !ok {
				conflicts[item.ID] = fmt.Sprintf("module %s not found in available set", item.ID)
				continue
			}
			removeByName(desired, target.Name)
			desired[target.ID] = target
			explicitEnable[target.ID] = true

		case types.ActionDisable:
			target, ok := available[item.ID]
			if !ok {
				// Disabling something already absent is a no-op target;
				// still record the literal id for cascade purposes.
				explicitDisable[item.ID] = true
				delete(desired, item.ID)
				continue
			}
			explicitDisable[target.ID] = true
			delete(desired, target.ID)
		}
	}

	// Expand missing dependency providers to a fixpoint.
	for {
		added := false
		for _, m := range snapshotValues(desired) {
			for _, req := range m.Requires {
				if satisfiedBy(providersFrom(desired), req) {
					continue
				}
				best := bestProvider(byName, available, req)
				if best == nil {
					conflicts[m.ID] = fmt.Sprintf(
						"%s requires %s >= %s, which no available module provides", m.ID, req.ID, req.MinVersion)
					continue
				}
				if _, already := desired[best.ID]; already {
					continue
				}
				if explicitDisable[best.ID] {
					// The plan disabled this provider: leave the requirement
					// unmet so the cascade below disables m as well.
					continue
				}
				if blockedID, ok := explicitEnableWithName(desired, explicitEnable, best.Name); ok && blockedID != best.ID {
					conflicts[blockedID] = fmt.Sprintf(
						"%s requires %s >= %s, which %s does not satisfy; keeping %s enabled instead",
						m.ID, req.ID, req.MinVersion, blockedID, best.ID)
				}
				removeByName(desired, best.Name)
				desired[best.ID] = best
				added = true
			}
		}
		if !added {
			break
		}
	}

	// Cascade-disable dependants of explicitly disabled modules, to a
	// fixpoint: disabling one module may strand another.
	for {
		removed := false
		for _, m := range snapshotValues(desired) {
			for _, req := range m.Requires {
				if satisfiedBy(providersFrom(desired), req) {
					continue
				}
				delete(desired, m.ID)
				explicitDisable[m.ID] = true
				removed = true
				break
			}
		}
		if !removed {
			break
		}
	}

	return buildPlan(enabled, desired, explicitDisable, conflicts)
}

func indexByName(available map[string]*types.ModuleDescriptor) map[string][]*types.ModuleDescriptor {
	byName := make(map[string][]*types.ModuleDescriptor)
	for _, m := range available {
		byName[m.Name] = append(byName[m.Name], m)
	}
	return byName
}

func removeByName(desired map[string]*types.ModuleDescriptor, name string) {
	for id, m := range desired {
		if m.Name == name {
			delete(desired, id)
		}
	}
}

// explicitEnableWithName reports the id of name's incumbent in desired,
// if the plan explicitly enabled it — the case where satisfying some
// other module's requirement would otherwise silently revert a
// caller-requested upgrade.
func explicitEnableWithName(desired map[string]*types.ModuleDescriptor, explicitEnable map[string]bool, name string) (string, bool) {
	for id, m := range desired {
		if m.Name == name && explicitEnable[id] {
			return id, true
		}
	}
	return "", false
}

func snapshotValues(desired map[string]*types.ModuleDescriptor) []*types.ModuleDescriptor {
	out := make([]*types.ModuleDescriptor, 0, len(desired))
	for _, m := range desired {
		out = append(out, m)
	}
	return out
}

func providersFrom(desired map[string]*types.ModuleDescriptor) map[string][]*types.ModuleDescriptor {
	idx := make(map[string][]*types.ModuleDescriptor)
	for _, m := range desired {
		for _, p := range m.Provides {
			idx[p.ID] = append(idx[p.ID], m)
		}
	}
	return idx
}

// bestProvider picks the latest acceptable version satisfying req among
// available modules, breaking ties by semver then by full id.
func bestProvider(byName map[string][]*types.ModuleDescriptor, available map[string]*types.ModuleDescriptor, req types.InterfaceRequirement) *types.ModuleDescriptor {
	var candidates []*types.ModuleDescriptor
	for _, m := range available {
		iface, ok := m.Provide(req.ID)
		if !ok {
			continue
		}
		if SatisfiesMin(iface.Version, req.MinVersion) {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		code, err := Compare(candidates[i].Version, candidates[j].Version)
		if err != nil {
			return candidates[i].ID < candidates[j].ID
		}
		if code == Equal {
			return candidates[i].ID < candidates[j].ID
		}
		return code == Greater || code == GreaterMajor
	})
	return candidates[0]
}

// buildPlan renders the final desired/disabled/conflict state into
// TenantModuleDescriptors, topologically ordered so every module appears
// after every module it requires.
func buildPlan(
	enabled map[string]*types.ModuleDescriptor,
	desired map[string]*types.ModuleDescriptor,
	explicitDisable map[string]bool,
	conflicts map[string]string,
) []*types.TenantModuleDescriptor {
	items := make(map[string]*types.TenantModuleDescriptor)
	enabledByName := make(map[string]string, len(enabled))
	for id, m := range enabled {
		enabledByName[m.Name] = id
	}

	for id, m := range desired {
		if _, wasEnabled := enabled[id]; wasEnabled {
			items[id] = &types.TenantModuleDescriptor{ID: id, Action: types.ActionUpToDate, Stage: types.StagePending}
			continue
		}
		from := ""
		if prevID, ok := enabledByName[m.Name]; ok && prevID != id {
			from = prevID
		}
		items[id] = &types.TenantModuleDescriptor{ID: id, From: from, Action: types.ActionEnable, Stage: types.StagePending}
	}

	for id := range explicitDisable {
		if _, stillDesired := desired[id]; stillDesired {
			continue
		}
		items[id] = &types.TenantModuleDescriptor{ID: id, Action: types.ActionDisable, Stage: types.StagePending}
	}

	for id, msg := range conflicts {
		items[id] = &types.TenantModuleDescriptor{ID: id, Action: types.ActionConflict, Stage: types.StagePending, Message: msg}
	}

	return topoSort(items, desired)
}

// topoSort orders plan items so every item appears after every module it
// Requires, via a dependency-first depth-first traversal.
func topoSort(items map[string]*types.TenantModuleDescriptor, desired map[string]*types.ModuleDescriptor) []*types.TenantModuleDescriptor {
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	providers := providersFrom(desired)

	visited := make(map[string]bool)
	inProgress := make(map[string]bool)
	var order []*types.TenantModuleDescriptor

	var visit func(id string)
	visit = func(id string) {
		if visited[id] || inProgress[id] {
			return
		}
		inProgress[id] = true

		if m, ok := desired[id]; ok {
			for _, req := range m.Requires {
				for _, provider := range providers[req.ID] {
					if _, inPlan := items[provider.ID]; inPlan {
						visit(provider.ID)
					}
				}
			}
		}

		inProgress[id] = false
		visited[id] = true
		order = append(order, items[id])
	}

	for _, id := range ids {
		visit(id)
	}
	return order
}
