/*
Package discovery implements the DiscoveryManager external collaborator
named in spec §6: a single boolean, isLeader(), consulted by the timer
scheduler before firing any routing entry.

RaftDiscovery answers it from the same Raft handle the ReplicatedMap
cluster already maintains, so leadership for timer-firing purposes
tracks cluster leadership exactly — no second election protocol.
Fake exists purely for tests that need to flip leadership without a
running Raft cluster.
*/
package discovery
