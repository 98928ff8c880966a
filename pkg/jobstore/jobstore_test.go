package jobstore

import (
	"testing"

	manager "github.com/moduleplatform/tenantd/pkg/replicatedmap"
	"github.com/moduleplatform/tenantd/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStorePutGet(t *testing.T) {
	store := New(manager.NewLocalMap2[*types.InstallJob]())

	job := &types.InstallJob{ID: "job-1", TenantID: "tenant-1"}
	require.NoError(t, store.Put(job))

	got, err := store.Get("tenant-1", "job-1")
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
}

func TestJobStoreListByTenant(t *testing.T) {
	store := New(manager.NewLocalMap2[*types.InstallJob]())

	require.NoError(t, store.Put(&types.InstallJob{ID: "job-1", TenantID: "tenant-1"}))
	require.NoError(t, store.Put(&types.InstallJob{ID: "job-2", TenantID: "tenant-1"}))
	require.NoError(t, store.Put(&types.InstallJob{ID: "job-3", TenantID: "tenant-2"}))

	jobs, err := store.ListByTenant("tenant-1")
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestJobStoreDelete(t *testing.T) {
	store := New(manager.NewLocalMap2[*types.InstallJob]())
	require.NoError(t, store.Put(&types.InstallJob{ID: "job-1", TenantID: "tenant-1"}))

	require.NoError(t, store.Delete("tenant-1", "job-1"))
	_, err := store.Get("tenant-1", "job-1")
	assert.ErrorIs(t, err, manager.ErrNotFound)
}
