package manager

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalMapAddRejectsDuplicate(t *testing.T) {
	m := NewLocalMap[string]()

	assert.NoError(t, m.Add("tenant-1", "acme"))
	err := m.Add("tenant-1", "other")
	assert.ErrorIs(t, err, ErrExists)
}

func TestLocalMapPutOverwrites(t *testing.T) {
	m := NewLocalMap[string]()

	assert.NoError(t, m.Put("tenant-1", "acme"))
	assert.NoError(t, m.Put("tenant-1", "acme-renamed"))

	v, err := m.Get("tenant-1")
	assert.NoError(t, err)
	assert.Equal(t, "acme-renamed", v)
}

func TestLocalMapRemoveNotFound(t *testing.T) {
	m := NewLocalMap[string]()
	err := m.Remove("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalMapGetNotFound(t *testing.T) {
	m := NewLocalMap[string]()
	_, err := m.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalMapKeys(t *testing.T) {
	m := NewLocalMap[int]()
	assert.NoError(t, m.Add("a", 1))
	assert.NoError(t, m.Add("b", 2))

	keys := m.Keys()
	assert.ElementsMatch(t, []string{"a", "b"}, keys)
}

func TestLocalMap2AddAndGet(t *testing.T) {
	m := NewLocalMap2[string]()

	assert.NoError(t, m.Add("tenant-1", "job-1", "pending"))
	err := m.Add("tenant-1", "job-1", "other")
	assert.ErrorIs(t, err, ErrExists)

	v, err := m.Get("tenant-1", "job-1")
	assert.NoError(t, err)
	assert.Equal(t, "pending", v)
}

func TestLocalMap2RemoveNotFound(t *testing.T) {
	m := NewLocalMap2[string]()
	err := m.Remove("tenant-1", "job-1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, m.Put("tenant-1", "job-1", "pending"))
	assert.NoError(t, m.Remove("tenant-1", "job-1"))

	_, err = m.Get("tenant-1", "job-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalMap2KeysUnder(t *testing.T) {
	m := NewLocalMap2[string]()
	assert.NoError(t, m.Put("tenant-1", "job-1", "pending"))
	assert.NoError(t, m.Put("tenant-1", "job-2", "done"))
	assert.NoError(t, m.Put("tenant-2", "job-3", "pending"))

	keys := m.KeysUnder("tenant-1")
	assert.ElementsMatch(t, []string{"job-1", "job-2"}, keys)
	assert.Empty(t, m.KeysUnder("unknown-tenant"))
}
