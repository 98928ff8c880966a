/*
Package manager implements ReplicatedMap: the cluster-wide, Raft-backed
key→value (Map1) and key→key→value (Map2) maps every other component in
the tenant lifecycle core is built on top of.

# Architecture

A deployment runs 1-N lifecycle-manager processes sharing one Raft
quorum. Every process holds the same FSM state; writes go through Raft
regardless of which process receives the call, reads are served locally:

	┌─────────────────────── LIFECYCLE MANAGER NODE ─────────────┐
	│                                                              │
	│  ┌──────────────────────────────────────────────┐          │
	│  │              Manager                          │          │
	│  │  - Owns the single *raft.Raft instance        │          │
	│  │  - Exposes IsLeader() for TimerScheduler      │          │
	│  └──────────────────┬───────────────────────────┘          │
	│                     │                                        │
	│  ┌──────────────────▼───────────────────────────┐          │
	│  │              clusterFSM                       │          │
	│  │  - Namespaced map1/map2 state                 │          │
	│  │  - Apply(): add/put/remove per namespace      │          │
	│  │  - Snapshot/Restore for log compaction        │          │
	│  └────────────────────────────────────────────────┘        │
	└──────────────────────────────────────────────────────────┘

# Usage

	m, err := manager.NewManager(&manager.Config{NodeID: "node-1", BindAddr: ":7000", DataDir: "/var/lib/tenantd"})
	if err != nil { ... }
	if err := m.Bootstrap(); err != nil { ... }

	tenants := manager.NewMap1[*types.Tenant](m, "tenants")
	if err := tenants.Add(tenant.ID, tenant); err != nil { ... }

	jobs := manager.NewMap2[*types.InstallJob](m, "installJobs")
	if err := jobs.Put(job.TenantID, job.ID, job); err != nil { ... }

# Design Notes

add/put/remove map directly onto the spec's ReplicatedMap contract:
add rejects a duplicate key (ErrExists), put always succeeds, remove on
an absent key returns ErrNotFound. The core relies on add's exclusivity
for insert's duplicate-id rejection.

For tests and single-process deployments that don't need replication,
LocalMap/LocalMap2 implement the same Map1/Map2 interfaces without Raft.
*/
package manager
