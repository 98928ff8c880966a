package manager

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"
	"github.com/moduleplatform/tenantd/pkg/metrics"
)

// Manager owns the single Raft instance a process uses to replicate every
// ReplicatedMap it creates. Raft leadership here is also what the
// lifecycle core's DiscoveryManager.isLeader() exposes to TimerScheduler.
type Manager struct {
	nodeID   string
	bindAddr string
	dataDir  string

	raft *raft.Raft
	fsm  *clusterFSM
}

// Config holds configuration for creating a Manager.
type Config struct {
	NodeID   string
	BindAddr string
	DataDir  string
}

// NewManager creates a Manager and its backing FSM, but does not start
// Raft; call Bootstrap or Join next.
func NewManager(cfg *Config) (*Manager, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &Manager{
		nodeID:   cfg.NodeID,
		bindAddr: cfg.BindAddr,
		dataDir:  cfg.DataDir,
		fsm:      newClusterFSM(),
	}, nil
}

// Bootstrap initializes a new single-node Raft cluster rooted at this
// process. Timeouts are tuned for LAN/edge failover rather than Raft's
// WAN-oriented defaults.
func (m *Manager) Bootstrap() error {
	config := raft.DefaultConfig()
	config.LocalID = raft.ServerID(m.nodeID)
	config.HeartbeatTimeout = 500 * time.Millisecond
	config.ElectionTimeout = 500 * time.Millisecond
	config.CommitTimeout = 50 * time.Millisecond
	config.LeaderLeaseTimeout = 250 * time.Millisecond

	addr, err := net.ResolveTCPAddr("tcp", m.bindAddr)
	if err != nil {
		return fmt.Errorf("failed to resolve bind address: %w", err)
	}

	transport, err := raft.NewTCPTransport(m.bindAddr, addr, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create transport: %w", err)
	}

	snapshotStore, err := raft.NewFileSnapshotStore(m.dataDir, 2, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create snapshot store: %w", err)
	}

	logStorePath := filepath.Join(m.dataDir, "raft-log.db")
	logStore, err := raftboltdb.NewBoltStore(logStorePath)
	if err != nil {
		return fmt.Errorf("failed to create log store: %w", err)
	}

	stableStorePath := filepath.Join(m.dataDir, "raft-stable.db")
	stableStore, err := raftboltdb.NewBoltStore(stableStorePath)
	if err != nil {
		return fmt.Errorf("failed to create stable store: %w", err)
	}

	r, err := raft.NewRaft(config, m.fsm, logStore, stableStore, snapshotStore, transport)
	if err != nil {
		return fmt.Errorf("failed to create raft: %w", err)
	}
	m.raft = r

	configuration := raft.Configuration{
		Servers: []raft.Server{
			{ID: config.LocalID, Address: transport.LocalAddr()},
		},
	}

	future := m.raft.BootstrapCluster(configuration)
	if err := future.Error(); err != nil {
		return fmt.Errorf("failed to bootstrap cluster: %w", err)
	}
	return nil
}

// Join starts this node's Raft instance without bootstrapping a new
// cluster; leaderAddr is not contacted or otherwise used by Join. The
// caller is responsible for issuing the AddVoter call on the leader side
// (see AddVoter) — Join only brings this node's own Raft instance up.
func (m *Manager) Join(leaderAddr string) error {
	config := raft.DefaultConfig()
	config.LocalID = raft.ServerID(m.nodeID)

	addr, err := net.ResolveTCPAddr("tcp", m.bindAddr)
	if err != nil {
		return fmt.Errorf("failed to resolve bind address: %w", err)
	}

	transport, err := raft.NewTCPTransport(m.bindAddr, addr, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create transport: %w", err)
	}

	snapshotStore, err := raft.NewFileSnapshotStore(m.dataDir, 2, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create snapshot store: %w", err)
	}

	logStorePath := filepath.Join(m.dataDir, "raft-log.db")
	logStore, err := raftboltdb.NewBoltStore(logStorePath)
	if err != nil {
		return fmt.Errorf("failed to create log store: %w", err)
	}

	stableStorePath := filepath.Join(m.dataDir, "raft-stable.db")
	stableStore, err := raftboltdb.NewBoltStore(stableStorePath)
	if err != nil {
		return fmt.Errorf("failed to create stable store: %w", err)
	}

	r, err := raft.NewRaft(config, m.fsm, logStore, stableStore, snapshotStore, transport)
	if err != nil {
		return fmt.Errorf("failed to create raft: %w", err)
	}
	m.raft = r
	return nil
}

// AddVoter adds nodeID/address as a voting member. Must be called on the
// current leader.
func (m *Manager) AddVoter(nodeID, address string) error {
	if !m.IsLeader() {
		return fmt.Errorf("not leader")
	}
	future := m.raft.AddVoter(raft.ServerID(nodeID), raft.ServerAddress(address), 0, 10*time.Second)
	return future.Error()
}

// RemoveServer removes nodeID from the cluster. Must be called on the
// current leader.
func (m *Manager) RemoveServer(nodeID string) error {
	if !m.IsLeader() {
		return fmt.Errorf("not leader")
	}
	future := m.raft.RemoveServer(raft.ServerID(nodeID), 0, 10*time.Second)
	return future.Error()
}

// IsLeader reports whether this process currently holds Raft leadership —
// the boolean the spec's DiscoveryManager.isLeader() exposes.
func (m *Manager) IsLeader() bool {
	if m.raft == nil {
		return false
	}
	leader := m.raft.State() == raft.Leader
	if leader {
		metrics.RaftLeader.Set(1)
	} else {
		metrics.RaftLeader.Set(0)
	}
	return leader
}

// LeaderAddr returns the bind address of the current Raft leader.
func (m *Manager) LeaderAddr() string {
	if m.raft == nil {
		return ""
	}
	return string(m.raft.Leader())
}

// Shutdown stops the Raft instance.
func (m *Manager) Shutdown() error {
	if m.raft == nil {
		return nil
	}
	return m.raft.Shutdown().Error()
}

// apply marshals and commits a command through Raft, translating its FSM
// response into a Go error (nil, ErrExists, or ErrNotFound).
func (m *Manager) apply(cmd command) error {
	if m.raft == nil {
		return fmt.Errorf("raft not initialized")
	}

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.RaftApplyDuration)

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("failed to marshal command: %w", err)
	}

	future := m.raft.Apply(data, 5*time.Second)
	if err := future.Error(); err != nil {
		return fmt.Errorf("failed to apply command: %w", err)
	}

	resp := future.Response()
	if resp == nil {
		return nil
	}
	if respErr, ok := resp.(error); ok {
		return respErr
	}
	return nil
}

// NewMap1 returns a Raft-replicated Map1 scoped to namespace (e.g.
// "tenants"). Reads are served locally from the FSM on every node;
// writes are committed through Raft regardless of which node calls them.
func NewMap1[V any](m *Manager, namespace string) Map1[V] {
	return &raftMap1[V]{m: m, namespace: namespace}
}

// NewMap2 returns a Raft-replicated Map2 scoped to namespace (e.g.
// "installJobs").
func NewMap2[V any](m *Manager, namespace string) Map2[V] {
	return &raftMap2[V]{m: m, namespace: namespace}
}

type raftMap1[V any] struct {
	m         *Manager
	namespace string
}

func (r *raftMap1[V]) Get(key string) (V, error) {
	var zero V
	raw, ok := r.m.fsm.get1(r.namespace, key)
	if !ok {
		return zero, ErrNotFound
	}
	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, fmt.Errorf("replicatedmap: unmarshal value: %w", err)
	}
	return v, nil
}

func (r *raftMap1[V]) Add(key string, value V) error {
	return r.mutate(opAdd1, key, value)
}

func (r *raftMap1[V]) Put(key string, value V) error {
	return r.mutate(opPut1, key, value)
}

func (r *raftMap1[V]) Remove(key string) error {
	return r.m.apply(command{Op: opRemove1, Namespace: r.namespace, Key: key})
}

func (r *raftMap1[V]) Keys() []string {
	return r.m.fsm.keys1(r.namespace)
}

func (r *raftMap1[V]) mutate(op, key string, value V) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("replicatedmap: marshal value: %w", err)
	}
	return r.m.apply(command{Op: op, Namespace: r.namespace, Key: key, Data: data})
}

type raftMap2[V any] struct {
	m         *Manager
	namespace string
}

func (r *raftMap2[V]) Get(outer, inner string) (V, error) {
	var zero V
	raw, ok := r.m.fsm.get2(r.namespace, outer, inner)
	if !ok {
		return zero, ErrNotFound
	}
	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, fmt.Errorf("replicatedmap: unmarshal value: %w", err)
	}
	return v, nil
}

func (r *raftMap2[V]) Add(outer, inner string, value V) error {
	return r.mutate(opAdd2, outer, inner, value)
}

func (r *raftMap2[V]) Put(outer, inner string, value V) error {
	return r.mutate(opPut2, outer, inner, value)
}

func (r *raftMap2[V]) Remove(outer, inner string) error {
	return r.m.apply(command{Op: opRemove2, Namespace: r.namespace, Key: outer, Key2: inner})
}

func (r *raftMap2[V]) KeysUnder(outer string) []string {
	return r.m.fsm.keys2(r.namespace, outer)
}

func (r *raftMap2[V]) mutate(op, outer, inner string, value V) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("replicatedmap: marshal value: %w", err)
	}
	return r.m.apply(command{Op: op, Namespace: r.namespace, Key: outer, Key2: inner, Data: data})
}
