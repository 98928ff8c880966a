package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/moduleplatform/tenantd/pkg/types"
)

// DependencyFailure is the structured form of a dependency/conflict
// check's result; Redesign Flags §9 keeps the "" means OK contract at
// the package boundary but builds it from this struct internally so
// failure reasons don't leak as ad-hoc string concatenation.
type DependencyFailure struct {
	Unmet       []string
	Conflicting []string
}

// Empty reports whether the failure carries no problems.
func (f DependencyFailure) Empty() bool {
	return len(f.Unmet) == 0 && len(f.Conflicting) == 0
}

// String renders the failure as the human-readable summary the public
// functions return; empty when Empty().
func (f DependencyFailure) String() string {
	var parts []string
	parts = append(parts, f.Unmet...)
	parts = append(parts, f.Conflicting...)
	return strings.Join(parts, "; ")
}

// CheckAllDependencies returns "" when every required interface declared
// by any module in mods is provided (same major, version >= min) by some
// module in mods; otherwise a summary naming the first unsatisfied
// requirement per module.
func CheckAllDependencies(mods []*types.ModuleDescriptor) string {
	providers := indexProviders(mods)

	var f DependencyFailure
	for _, m := range mods {
		for _, req := range m.Requires {
			if !satisfiedBy(providers, req) {
				f.Unmet = append(f.Unmet, fmt.Sprintf(
					"%s requires %s >= %s, which is not provided", m.ID, req.ID, req.MinVersion))
				break
			}
		}
	}
	return f.String()
}

// CheckAllConflicts returns "" when no two modules in mods provide the
// same non-multiple interface id; otherwise a summary.
func CheckAllConflicts(mods []*types.ModuleDescriptor) string {
	byInterface := make(map[string][]string)
	for _, m := range mods {
		for _, p := range m.Provides {
			if p.InterfaceType == types.InterfaceTypeMultiple {
				continue
			}
			byInterface[p.ID] = append(byInterface[p.ID], m.ID)
		}
	}

	ids := make([]string, 0, len(byInterface))
	for id := range byInterface {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var f DependencyFailure
	for _, id := range ids {
		providers := byInterface[id]
		if len(providers) > 1 {
			sort.Strings(providers)
			f.Conflicting = append(f.Conflicting, fmt.Sprintf(
				"interface %s is provided by more than one module: %s", id, strings.Join(providers, ", ")))
		}
	}
	return f.String()
}

// indexProviders maps interface id -> modules in mods providing it.
func indexProviders(mods []*types.ModuleDescriptor) map[string][]*types.ModuleDescriptor {
	idx := make(map[string][]*types.ModuleDescriptor)
	for _, m := range mods {
		for _, p := range m.Provides {
			idx[p.ID] = append(idx[p.ID], m)
		}
	}
	return idx
}

// satisfiedBy reports whether some module in providers[req.ID] meets
// req.MinVersion via its provided interface version.
func satisfiedBy(providers map[string][]*types.ModuleDescriptor, req types.InterfaceRequirement) bool {
	for _, m := range providers[req.ID] {
		iface, ok := m.Provide(req.ID)
		if !ok {
			continue
		}
		if SatisfiesMin(iface.Version, req.MinVersion) {
			return true
		}
	}
	return false
}
