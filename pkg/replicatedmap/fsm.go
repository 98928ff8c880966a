package manager

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/raft"
)

// command is a single state-change operation replicated through the Raft
// log. Namespace distinguishes logical maps (e.g. "tenants",
// "installJobs") within one shared FSM; Key2 is unused for Map1
// namespaces.
type command struct {
	Op        string          `json:"op"`
	Namespace string          `json:"namespace"`
	Key       string          `json:"key"`
	Key2      string          `json:"key2,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

const (
	opAdd1    = "add1"
	opPut1    = "put1"
	opRemove1 = "remove1"
	opAdd2    = "add2"
	opPut2    = "put2"
	opRemove2 = "remove2"
)

// clusterFSM is the Raft finite state machine backing every ReplicatedMap
// in the process: one shared log, partitioned into namespaces so Map1 and
// Map2 handles over the same FSM never collide on keys.
type clusterFSM struct {
	mu   sync.RWMutex
	map1 map[string]map[string]json.RawMessage
	map2 map[string]map[string]map[string]json.RawMessage
}

func newClusterFSM() *clusterFSM {
	return &clusterFSM{
		map1: make(map[string]map[string]json.RawMessage),
		map2: make(map[string]map[string]map[string]json.RawMessage),
	}
}

func (f *clusterFSM) ns1(namespace string) map[string]json.RawMessage {
	ns, ok := f.map1[namespace]
	if !ok {
		ns = make(map[string]json.RawMessage)
		f.map1[namespace] = ns
	}
	return ns
}

func (f *clusterFSM) ns2(namespace string) map[string]map[string]json.RawMessage {
	ns, ok := f.map2[namespace]
	if !ok {
		ns = make(map[string]map[string]json.RawMessage)
		f.map2[namespace] = ns
	}
	return ns
}

// Apply applies one committed Raft log entry. The returned value becomes
// the ApplyFuture's Response(): nil on success, or the sentinel error
// (ErrExists/ErrNotFound) the caller's Map1/Map2 handle surfaces.
func (f *clusterFSM) Apply(log *raft.Log) interface{} {
	var cmd command
	if err := json.Unmarshal(log.Data, &cmd); err != nil {
		return fmt.Errorf("replicatedmap: unmarshal command: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch cmd.Op {
	case opAdd1:
		ns := f.ns1(cmd.Namespace)
		if _, exists := ns[cmd.Key]; exists {
			return ErrExists
		}
		ns[cmd.Key] = cmd.Data
		return nil

	case opPut1:
		f.ns1(cmd.Namespace)[cmd.Key] = cmd.Data
		return nil

	case opRemove1:
		ns := f.ns1(cmd.Namespace)
		if _, exists := ns[cmd.Key]; !exists {
			return ErrNotFound
		}
		delete(ns, cmd.Key)
		return nil

	case opAdd2:
		outer := f.ns2(cmd.Namespace)
		inner, ok := outer[cmd.Key]
		if !ok {
			inner = make(map[string]json.RawMessage)
			outer[cmd.Key] = inner
		}
		if _, exists := inner[cmd.Key2]; exists {
			return ErrExists
		}
		inner[cmd.Key2] = cmd.Data
		return nil

	case opPut2:
		outer := f.ns2(cmd.Namespace)
		inner, ok := outer[cmd.Key]
		if !ok {
			inner = make(map[string]json.RawMessage)
			outer[cmd.Key] = inner
		}
		inner[cmd.Key2] = cmd.Data
		return nil

	case opRemove2:
		outer := f.ns2(cmd.Namespace)
		inner, ok := outer[cmd.Key]
		if !ok {
			return ErrNotFound
		}
		if _, exists := inner[cmd.Key2]; !exists {
			return ErrNotFound
		}
		delete(inner, cmd.Key2)
		return nil

	default:
		return fmt.Errorf("replicatedmap: unknown op %q", cmd.Op)
	}
}

// get1 reads a value from this node's FSM state without going through
// Raft; raftMap1.Get serves every read from here, on leader and
// followers alike.
func (f *clusterFSM) get1(namespace, key string) (json.RawMessage, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	ns, ok := f.map1[namespace]
	if !ok {
		return nil, false
	}
	v, ok := ns[key]
	return v, ok
}

func (f *clusterFSM) keys1(namespace string) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	ns := f.map1[namespace]
	keys := make([]string, 0, len(ns))
	for k := range ns {
		keys = append(keys, k)
	}
	return keys
}

func (f *clusterFSM) get2(namespace, outer, inner string) (json.RawMessage, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	outerMap, ok := f.map2[namespace][outer]
	if !ok {
		return nil, false
	}
	v, ok := outerMap[inner]
	return v, ok
}

func (f *clusterFSM) keys2(namespace, outer string) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	outerMap := f.map2[namespace][outer]
	keys := make([]string, 0, len(outerMap))
	for k := range outerMap {
		keys = append(keys, k)
	}
	return keys
}

// Snapshot captures the FSM's full state for Raft log compaction.
func (f *clusterFSM) Snapshot() (raft.FSMSnapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	snap := &clusterSnapshot{
		Map1: deepCopyMap1(f.map1),
		Map2: deepCopyMap2(f.map2),
	}
	return snap, nil
}

// Restore replaces the FSM's state wholesale from a snapshot, called
// when a node restarts or joins the cluster.
func (f *clusterFSM) Restore(rc io.ReadCloser) error {
	defer rc.Close()

	var snap clusterSnapshot
	if err := json.NewDecoder(rc).Decode(&snap); err != nil {
		return fmt.Errorf("replicatedmap: decode snapshot: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.map1 = snap.Map1
	f.map2 = snap.Map2
	if f.map1 == nil {
		f.map1 = make(map[string]map[string]json.RawMessage)
	}
	if f.map2 == nil {
		f.map2 = make(map[string]map[string]map[string]json.RawMessage)
	}
	return nil
}

func deepCopyMap1(in map[string]map[string]json.RawMessage) map[string]map[string]json.RawMessage {
	out := make(map[string]map[string]json.RawMessage, len(in))
	for ns, kv := range in {
		nsCopy := make(map[string]json.RawMessage, len(kv))
		for k, v := range kv {
			nsCopy[k] = v
		}
		out[ns] = nsCopy
	}
	return out
}

func deepCopyMap2(in map[string]map[string]map[string]json.RawMessage) map[string]map[string]map[string]json.RawMessage {
	out := make(map[string]map[string]map[string]json.RawMessage, len(in))
	for ns, outer := range in {
		outerCopy := make(map[string]map[string]json.RawMessage, len(outer))
		for ok, inner := range outer {
			innerCopy := make(map[string]json.RawMessage, len(inner))
			for ik, v := range inner {
				innerCopy[ik] = v
			}
			outerCopy[ok] = innerCopy
		}
		out[ns] = outerCopy
	}
	return out
}

// clusterSnapshot is the JSON-serialized point-in-time FSM state.
type clusterSnapshot struct {
	Map1 map[string]map[string]json.RawMessage
	Map2 map[string]map[string]map[string]json.RawMessage
}

// Persist writes the snapshot to the given SnapshotSink.
func (s *clusterSnapshot) Persist(sink raft.SnapshotSink) error {
	err := func() error {
		if err := json.NewEncoder(sink).Encode(s); err != nil {
			return err
		}
		return sink.Close()
	}()
	if err != nil {
		sink.Cancel()
	}
	return err
}

// Release releases the snapshot resources.
func (s *clusterSnapshot) Release() {}
