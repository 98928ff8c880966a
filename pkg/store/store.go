package storage

import (
	"time"

	"github.com/moduleplatform/tenantd/pkg/types"
)

// TenantStore is the external persistence collaborator the lifecycle core
// consumes for durable tenant state. It never hands back a "not found"
// error; callers test the bool return instead.
type TenantStore interface {
	// ListTenants returns every tenant known to the store.
	ListTenants() ([]*types.Tenant, error)

	// Insert persists a brand-new tenant. Callers must have already
	// rejected duplicate ids; Insert overwrites silently if called twice.
	Insert(tenant *types.Tenant) error

	// UpdateDescriptor rewrites a tenant's display descriptor only.
	UpdateDescriptor(td types.TenantDescriptor) (found bool, err error)

	// UpdateModules replaces a tenant's enabled-module map. found reports
	// whether the tenant existed.
	UpdateModules(id string, enabled map[string]time.Time) (found bool, err error)

	// Delete removes a tenant. found reports whether it existed.
	Delete(id string) (found bool, err error)

	// GetTenant fetches a single tenant by id. found reports existence.
	GetTenant(id string) (tenant *types.Tenant, found bool, err error)

	// Close releases underlying resources.
	Close() error
}

// JobStore is the external persistence collaborator for install/upgrade
// jobs, keyed by (tenantId, jobId).
type JobStore interface {
	// PutJob upserts a job under its tenant and job id.
	PutJob(job *types.InstallJob) error

	// GetJob fetches a single job. found reports existence.
	GetJob(tenantID, jobID string) (job *types.InstallJob, found bool, err error)

	// ListJobsByTenant returns every job recorded for a tenant.
	ListJobsByTenant(tenantID string) ([]*types.InstallJob, error)

	// DeleteJob removes a job. found reports whether it existed.
	DeleteJob(tenantID, jobID string) (found bool, err error)

	// Close releases underlying resources.
	Close() error
}
