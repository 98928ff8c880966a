package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/moduleplatform/tenantd/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketTenants    = []byte("tenants")
	bucketInstallJob = []byte("installJobs")
)

// BoltStore implements both TenantStore and JobStore over a single bbolt
// file. The store layout matches the spec's persisted-state model: tenants
// keyed by tenant id, install jobs keyed by "tenantId/jobId".
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if absent) a BoltDB-backed store under
// dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "tenantd.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketTenants, bucketInstallJob} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// boltTenant is the JSON wire shape for a Tenant: EnabledModules uses
// RFC3339 string values so the persisted layout is plain JSON, matching
// the spec's "JSON is the serialization at the store boundary" note.
type boltTenant struct {
	ID             string            `json:"id"`
	Descriptor     types.TenantDescriptor `json:"descriptor"`
	EnabledModules map[string]time.Time   `json:"enabledModules"`
}

func toBoltTenant(t *types.Tenant) boltTenant {
	return boltTenant{ID: t.ID, Descriptor: t.Descriptor, EnabledModules: t.EnabledModules}
}

func fromBoltTenant(b boltTenant) *types.Tenant {
	return &types.Tenant{ID: b.ID, Descriptor: b.Descriptor, EnabledModules: b.EnabledModules}
}

// ListTenants returns every tenant in the store.
func (s *BoltStore) ListTenants() ([]*types.Tenant, error) {
	var tenants []*types.Tenant
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTenants)
		return b.ForEach(func(k, v []byte) error {
			var bt boltTenant
			if err := json.Unmarshal(v, &bt); err != nil {
				return err
			}
			tenants = append(tenants, fromBoltTenant(bt))
			return nil
		})
	})
	return tenants, err
}

// Insert persists a brand-new tenant.
func (s *BoltStore) Insert(tenant *types.Tenant) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTenants)
		data, err := json.Marshal(toBoltTenant(tenant))
		if err != nil {
			return err
		}
		return b.Put([]byte(tenant.ID), data)
	})
}

// UpdateDescriptor rewrites a tenant's display descriptor, leaving its
// enabled-module map untouched.
func (s *BoltStore) UpdateDescriptor(td types.TenantDescriptor) (bool, error) {
	found := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTenants)
		data := b.Get([]byte(td.ID))
		if data == nil {
			return nil
		}
		found = true

		var bt boltTenant
		if err := json.Unmarshal(data, &bt); err != nil {
			return err
		}
		bt.Descriptor = td

		out, err := json.Marshal(bt)
		if err != nil {
			return err
		}
		return b.Put([]byte(td.ID), out)
	})
	return found, err
}

// UpdateModules replaces a tenant's enabled-module map wholesale.
func (s *BoltStore) UpdateModules(id string, enabled map[string]time.Time) (bool, error) {
	found := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTenants)
		data := b.Get([]byte(id))
		if data == nil {
			return nil
		}
		found = true

		var bt boltTenant
		if err := json.Unmarshal(data, &bt); err != nil {
			return err
		}
		bt.EnabledModules = enabled

		out, err := json.Marshal(bt)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), out)
	})
	return found, err
}

// Delete removes a tenant, reporting whether it existed.
func (s *BoltStore) Delete(id string) (bool, error) {
	found := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTenants)
		if b.Get([]byte(id)) != nil {
			found = true
		}
		return b.Delete([]byte(id))
	})
	return found, err
}

// GetTenant fetches a single tenant by id.
func (s *BoltStore) GetTenant(id string) (*types.Tenant, bool, error) {
	var tenant *types.Tenant
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTenants)
		data := b.Get([]byte(id))
		if data == nil {
			return nil
		}
		found = true
		var bt boltTenant
		if err := json.Unmarshal(data, &bt); err != nil {
			return err
		}
		tenant = fromBoltTenant(bt)
		return nil
	})
	return tenant, found, err
}

// jobKey composes the bucket key for an install job, matching the spec's
// "(tenantId, jobId)" compound key.
func jobKey(tenantID, jobID string) []byte {
	return []byte(tenantID + "/" + jobID)
}

// PutJob upserts a job under its tenant and job id.
func (s *BoltStore) PutJob(job *types.InstallJob) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketInstallJob)
		data, err := json.Marshal(job)
		if err != nil {
			return err
		}
		return b.Put(jobKey(job.TenantID, job.ID), data)
	})
}

// GetJob fetches a single job by its compound key.
func (s *BoltStore) GetJob(tenantID, jobID string) (*types.InstallJob, bool, error) {
	var job types.InstallJob
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketInstallJob)
		data := b.Get(jobKey(tenantID, jobID))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &job)
	})
	if !found {
		return nil, false, err
	}
	return &job, true, err
}

// ListJobsByTenant returns every job recorded for a tenant, relying on
// bbolt's lexicographic key ordering to scope the prefix scan.
func (s *BoltStore) ListJobsByTenant(tenantID string) ([]*types.InstallJob, error) {
	prefix := []byte(tenantID + "/")
	var jobs []*types.InstallJob
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketInstallJob).Cursor()
		for k, v := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, v = c.Next() {
			var job types.InstallJob
			if err := json.Unmarshal(v, &job); err != nil {
				return err
			}
			jobs = append(jobs, &job)
		}
		return nil
	})
	return jobs, err
}

// DeleteJob removes a job, reporting whether it existed.
func (s *BoltStore) DeleteJob(tenantID, jobID string) (bool, error) {
	found := false
	key := jobKey(tenantID, jobID)
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketInstallJob)
		if b.Get(key) != nil {
			found = true
		}
		return b.Delete(key)
	})
	return found, err
}

var _ TenantStore = (*BoltStore)(nil)
var _ JobStore = (*BoltStore)(nil)
