// Package jobstore is a thin wrapper over a ReplicatedMap Map2, keyed by
// (tenantId, jobId), adding the list-by-tenant operation the spec calls
// out explicitly. All writes go straight through to the underlying map,
// so progress on an install job is visible to any other process polling
// it as soon as the Raft apply commits.
package jobstore

import (
	manager "github.com/moduleplatform/tenantd/pkg/replicatedmap"
	"github.com/moduleplatform/tenantd/pkg/types"
)

// JobStore is the cluster-replicated view of install/upgrade jobs.
type JobStore struct {
	jobs manager.Map2[*types.InstallJob]
}

// New wraps an existing Map2 handle scoped to the install-jobs namespace.
func New(jobs manager.Map2[*types.InstallJob]) *JobStore {
	return &JobStore{jobs: jobs}
}

// Put upserts a job under its tenant and job id.
func (s *JobStore) Put(job *types.InstallJob) error {
	return s.jobs.Put(job.TenantID, job.ID, job)
}

// Get fetches a single job, reporting (nil, manager.ErrNotFound) if absent.
func (s *JobStore) Get(tenantID, jobID string) (*types.InstallJob, error) {
	return s.jobs.Get(tenantID, jobID)
}

// ListByTenant returns every job recorded for a tenant, unordered.
func (s *JobStore) ListByTenant(tenantID string) ([]*types.InstallJob, error) {
	ids := s.jobs.KeysUnder(tenantID)
	jobs := make([]*types.InstallJob, 0, len(ids))
	for _, id := range ids {
		job, err := s.jobs.Get(tenantID, id)
		if err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Delete removes a job, reporting manager.ErrNotFound if absent.
func (s *JobStore) Delete(tenantID, jobID string) error {
	return s.jobs.Remove(tenantID, jobID)
}
