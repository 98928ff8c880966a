package discovery

import "sync/atomic"

// Fake is a test double for DiscoveryManager whose leadership can be
// flipped at runtime without standing up a Raft cluster.
type Fake struct {
	leader atomic.Bool
}

// NewFake creates a Fake starting in the given leadership state.
func NewFake(leader bool) *Fake {
	f := &Fake{}
	f.leader.Store(leader)
	return f
}

// SetLeader flips this fake's leadership state.
func (f *Fake) SetLeader(leader bool) {
	f.leader.Store(leader)
}

// IsLeader implements DiscoveryManager.
func (f *Fake) IsLeader() bool {
	return f.leader.Load()
}

var _ DiscoveryManager = (*Fake)(nil)
