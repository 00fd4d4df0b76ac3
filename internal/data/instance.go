// Package data holds the cluster-shape model the reader plans reads
// against: instances, the replication factor, consistency levels, and the
// token-range-to-replica-list ring built from them.
package data

import "strings"

// AvailabilityHint is a health guess about an instance, used only to order
// fetch attempts, never to make them fail outright. The numeric ordering is
// load-bearing: sorting instances by hint tries healthy ones first.
type AvailabilityHint int

const (
	Up AvailabilityHint = iota
	Unknown
	Down
)

func (h AvailabilityHint) String() string {
	switch h {
	case Up:
		return "UP"
	case Down:
		return "DOWN"
	default:
		return "UNKNOWN"
	}
}

// Instance is a single cluster member that owns replicas of data. Identity
// and equality are by NodeName alone, matching the upstream model where two
// CassandraInstance values with the same node name are the same instance
// regardless of what else changed about it (e.g. a reported token update).
type Instance struct {
	NodeName   string
	Token      string // opaque ring position as reported by the instance, for display/debugging only
	DataCenter string
}

func NewInstance(nodeName, token, dataCenter string) Instance {
	return Instance{NodeName: nodeName, Token: token, DataCenter: dataCenter}
}

func (i Instance) Equal(other Instance) bool {
	return i.NodeName == other.NodeName
}

// SameDC reports whether i is in dc, case-insensitively, matching the
// planner's DC-local replica filtering.
func (i Instance) SameDC(dc string) bool {
	return strings.EqualFold(i.DataCenter, dc)
}

func (i Instance) String() string {
	return i.NodeName + "@" + i.DataCenter
}
