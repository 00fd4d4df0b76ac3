// Package replica implements the Replica Planner (component G), the
// ReplicaSet it produces, the per-replica Fetcher (component H), and the
// Multi-Replica Coordinator that drives fetches with failover (component I).
package replica

import "github.com/cassandra-analytics/bulk-reader/internal/data"

// Set is the planner's output for one engine partition: the replicas to
// contact first, the replicas to hold in reserve, and (conditionally) the
// one replica whose repaired data is authoritative.
//
// Invariants: primary and backup are disjoint; len(primary) <= minReplicas
// (primaries fill to minReplicas, the rest go to backup); repairPrimary, if
// set, is a member of primary and only a single ring sub-range was
// observed while planning.
type Set struct {
	Primary       []data.Instance
	Backup        []data.Instance
	RepairPrimary *data.Instance
	MinReplicas   int
	PartitionID   int

	// promoted tracks instances that entered Primary via PromoteBackup,
	// keyed by NodeName. A promoted backup is always treated as a repair
	// primary by IsRepairPrimary, since it was never part of the original
	// repair-primary designation and the "only one replica carries repaired
	// data" optimization does not apply to it.
	promoted map[string]bool
}

// Contains reports whether inst is currently a primary or backup member.
func (s *Set) Contains(inst data.Instance) bool {
	for _, p := range s.Primary {
		if p.Equal(inst) {
			return true
		}
	}
	for _, b := range s.Backup {
		if b.Equal(inst) {
			return true
		}
	}
	return false
}

// PromoteBackup removes the first backup (in availability order, since
// Backup is already sorted that way by the planner) and appends it to
// Primary, returning the promoted instance and whether one was available.
// The promoted instance is recorded so IsRepairPrimary always treats it as
// a repair primary from this point on.
func (s *Set) PromoteBackup() (data.Instance, bool) {
	if len(s.Backup) == 0 {
		return data.Instance{}, false
	}
	next := s.Backup[0]
	s.Backup = s.Backup[1:]
	s.Primary = append(s.Primary, next)
	if s.promoted == nil {
		s.promoted = map[string]bool{}
	}
	s.promoted[next.NodeName] = true
	return next, true
}

// IsRepairPrimary reports whether inst's fetch should include repaired
// tables, not just unrepaired ones. This is true when: no repairPrimary was
// designated at all (the multi-sub-range case, where the "only one replica
// carries repaired data" optimization is unsafe and every replica must be
// treated as authoritative); inst is the designated repairPrimary itself;
// or inst was promoted into Primary via PromoteBackup, since a failed-over
// backup was never part of the original designation and must not silently
// drop repaired data on failover.
func (s *Set) IsRepairPrimary(inst data.Instance) bool {
	if s.RepairPrimary == nil {
		return true
	}
	if s.RepairPrimary.Equal(inst) {
		return true
	}
	return s.promoted[inst.NodeName]
}
