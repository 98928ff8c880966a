/*
Package storage provides BoltDB-backed persistence for the tenant
lifecycle manager's two durable collections: tenants and install jobs.

This is the reference implementation of the external TenantStore/JobStore
collaborators the lifecycle core consumes (see pkg/store.TenantStore,
pkg/store.JobStore); a production deployment may swap in any store that
satisfies those interfaces.

# Architecture

	┌──────────────────── BOLTDB STORAGE ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            BoltStore                        │          │
	│  │  - File: <dataDir>/tenantd.db                │          │
	│  │  - Format: B+tree with MVCC                 │          │
	│  │  - Transactions: ACID with fsync            │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │              Bucket Structure                │          │
	│  │  ┌────────────────────────────┐             │          │
	│  │  │ tenants      (tenant id)   │             │          │
	│  │  │ installJobs  (tenantId/jobId) │          │          │
	│  │  └────────────────────────────┘             │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Usage

	store, err := storage.NewBoltStore("/var/lib/tenantd")
	if err != nil { ... }
	defer store.Close()

	tenants, err := store.ListTenants()

# Design Notes

Every value is JSON-encoded, matching the spec's "JSON is the
serialization at the store boundary" note. Install jobs use a composite
"tenantId/jobId" key so ListJobsByTenant can do a lexicographic prefix
scan with a bbolt cursor instead of a full-bucket walk.

Not found is reported as a bool return, never a sentinel error — callers
(pkg/lifecycle) translate a false into a lifecycleerr.NotFound at the
façade boundary.
*/
package storage
