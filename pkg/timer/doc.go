/*
Package timer implements TimerScheduler: periodic firing of the routing
entries a module declares on its _timer system interface, gated by
cluster leadership.

# Architecture

One goroutine per armed (tenant, module, routingEntrySeq) key, each
running its own sleep/fire/re-arm loop:

	RebuildTenant(tenantId)                  "timer" event bus message
	        │                                          │
	        ▼                                          ▼
	  cache.Get(tenantId) ──► for each module's _timer routing entry
	        │
	        ▼
	  arm(key, delay) ──► go loop(key, delay)
	                             │
	                       sleep(delay)
	                             │
	                             ▼
	                       fire(key) ──► re-fetch tenant, re-resolve
	                             │        enabled modules; if either is
	                             │        gone, stop re-arming
	                             ▼
	                    IsLeader()? ──► dispatch via Proxy
	                             │
	                       re-arm regardless of leader status

# Usage

	sched := timer.New(tenantsMap, enabledModuleCache, discoveryMgr, proxy, broker)
	sched.Start()
	defer sched.Stop()

	sched.RebuildTenant(tenant.ID) // called after init() and after every module change

# Design notes

The armed-keys set is process-local, matching spec §4.5: correctness
across the cluster comes from the IsLeader() check inside fire(), not
from any cross-process coordination of which keys are armed. A stale
process that has not yet observed a disable may fire at most once more
after the fact — the de-registration invariant is eventually
consistent by design, not exactly-once.
*/
package timer
