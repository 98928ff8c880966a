// Package discovery defines the DiscoveryManager external collaborator
// (spec §6: isLeader() -> bool) and a Raft-backed reference
// implementation over pkg/replicatedmap's own leader state.
package discovery

// DiscoveryManager answers whether the current process is the cluster's
// singleton executor, consulted only by the timer scheduler at fire
// time.
type DiscoveryManager interface {
	IsLeader() bool
}

// leaderChecker is the subset of *replicatedmap.Manager this package
// depends on, kept narrow so tests can fake it without a live cluster.
type leaderChecker interface {
	IsLeader() bool
}

// RaftDiscovery backs DiscoveryManager with the ReplicatedMap cluster's
// own Raft leader state, reusing Manager.IsLeader()'s
// raft.State() == raft.Leader check rather than running a second
// election.
type RaftDiscovery struct {
	cluster leaderChecker
}

// NewRaftDiscovery wraps a replicatedmap.Manager as a DiscoveryManager.
func NewRaftDiscovery(cluster leaderChecker) *RaftDiscovery {
	return &RaftDiscovery{cluster: cluster}
}

// IsLeader reports whether this process holds Raft leadership.
func (d *RaftDiscovery) IsLeader() bool {
	return d.cluster.IsLeader()
}

var _ DiscoveryManager = (*RaftDiscovery)(nil)
