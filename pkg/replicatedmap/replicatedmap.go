// Package manager implements ReplicatedMap: the cluster-wide key→value
// and key→key→value maps the lifecycle core builds every other component
// on top of. Mutations are Raft log entries; reads are served from an
// in-memory index kept current by the FSM's Apply.
package manager

import "errors"

// ErrNotFound is returned by get/remove when the key is absent.
var ErrNotFound = errors.New("replicatedmap: not found")

// ErrExists is returned by add when the key is already present.
var ErrExists = errors.New("replicatedmap: already exists")

// Map1 is a cluster-wide key→value map with add/put/remove semantics:
// add rejects a duplicate key, put always succeeds, remove requires the
// key to exist. The lifecycle core uses this shape for the `tenants` map.
type Map1[V any] interface {
	// Get returns the value for key, or ErrNotFound.
	Get(key string) (V, error)

	// Add inserts key if absent, or returns ErrExists.
	Add(key string, value V) error

	// Put inserts or overwrites key unconditionally.
	Put(key string, value V) error

	// Remove deletes key, or returns ErrNotFound.
	Remove(key string) error

	// Keys returns every key currently present, unordered.
	Keys() []string
}

// Map2 is a cluster-wide key→key→value map, used for the `installJobs`
// map keyed by (tenantId, jobId).
type Map2[V any] interface {
	// Get returns the value for (outer, inner), or ErrNotFound.
	Get(outer, inner string) (V, error)

	// Add inserts (outer, inner) if absent, or returns ErrExists.
	Add(outer, inner string, value V) error

	// Put inserts or overwrites (outer, inner) unconditionally.
	Put(outer, inner string, value V) error

	// Remove deletes (outer, inner), or returns ErrNotFound.
	Remove(outer, inner string) error

	// KeysUnder returns every inner key present for outer, unordered.
	KeysUnder(outer string) []string
}
