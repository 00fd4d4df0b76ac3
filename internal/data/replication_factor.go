package data

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// Strategy is the replica-placement strategy a keyspace was created with.
type Strategy int

const (
	SimpleStrategy Strategy = iota
	NetworkTopologyStrategy
)

func (s Strategy) String() string {
	if s == NetworkTopologyStrategy {
		return "NetworkTopologyStrategy"
	}
	return "SimpleStrategy"
}

// simpleStrategyKey is the synthetic options key SimpleStrategy stores its
// single replica count under, matching Cassandra's own keyspace metadata
// representation.
const simpleStrategyKey = "replication_factor"

// shadedStrategyClassPrefix is the fully-shaded class-name prefix schema
// serialization emits, matching the package rewrite SchemaBuilder performs
// on table DDL (internal/schema).
const shadedStrategyClassPrefix = "org.apache.cassandra.spark.shaded.fourzero.cassandra.locator."

// ReplicationFactor describes how many replicas a keyspace places, either
// uniformly (SimpleStrategy) or per datacenter (NetworkTopologyStrategy).
type ReplicationFactor struct {
	Strategy Strategy
	Options  map[string]int // DC name -> positive replica count, or {"replication_factor": N} for SimpleStrategy
}

// NewSimpleReplicationFactor builds a SimpleStrategy RF with the given
// uniform replica count.
func NewSimpleReplicationFactor(n int) ReplicationFactor {
	return ReplicationFactor{Strategy: SimpleStrategy, Options: map[string]int{simpleStrategyKey: n}}
}

// NewNetworkTopologyReplicationFactor builds a NetworkTopologyStrategy RF
// from a DC -> replica-count map.
func NewNetworkTopologyReplicationFactor(dcCounts map[string]int) ReplicationFactor {
	opts := make(map[string]int, len(dcCounts))
	for dc, n := range dcCounts {
		opts[dc] = n
	}
	return ReplicationFactor{Strategy: NetworkTopologyStrategy, Options: opts}
}

// Total is the sum of replicas placed across all datacenters (or the single
// uniform count for SimpleStrategy).
func (rf ReplicationFactor) Total() int {
	total := 0
	for _, n := range rf.Options {
		total += n
	}
	return total
}

// DC returns the replica count configured for dc, and whether it was
// present at all.
func (rf ReplicationFactor) DC(dc string) (int, bool) {
	n, ok := rf.Options[dc]
	return n, ok
}

// SingleDC returns the lone DC name when the RF places replicas in exactly
// one datacenter, used by the planner to allow an omitted `dc` argument
// under NetworkTopologyStrategy when there is no ambiguity.
func (rf ReplicationFactor) SingleDC() (string, bool) {
	if rf.Strategy != NetworkTopologyStrategy || len(rf.Options) != 1 {
		return "", false
	}
	for dc := range rf.Options {
		return dc, true
	}
	return "", false
}

// RFToMap serializes the replication factor the way keyspace metadata is
// stored, with the shaded strategy class name as the "class" entry.
func (rf ReplicationFactor) RFToMap() map[string]string {
	m := make(map[string]string, len(rf.Options)+1)
	switch rf.Strategy {
	case NetworkTopologyStrategy:
		m["class"] = shadedStrategyClassPrefix + "NetworkTopologyStrategy"
		for dc, n := range rf.Options {
			m[dc] = fmt.Sprintf("%d", n)
		}
	default:
		m["class"] = shadedStrategyClassPrefix + "SimpleStrategy"
		m[simpleStrategyKey] = fmt.Sprintf("%d", rf.Options[simpleStrategyKey])
	}
	return m
}

// RFFromMap parses a serialized options map back into a ReplicationFactor,
// the inverse of RFToMap (§8 invariant 6: the round trip is lossless up to
// equivalence).
func RFFromMap(m map[string]string) (ReplicationFactor, error) {
	class, ok := m["class"]
	if !ok {
		return ReplicationFactor{}, errors.New("replication factor map missing class")
	}
	opts := make(map[string]int, len(m)-1)
	for k, v := range m {
		if k == "class" {
			continue
		}
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
			return ReplicationFactor{}, errors.Wrapf(err, "invalid replica count for %q", k)
		}
		if n <= 0 {
			return ReplicationFactor{}, errors.Errorf("replica count for %q must be positive, got %d", k, n)
		}
		opts[k] = n
	}
	strategy := SimpleStrategy
	if hasSuffix(class, "NetworkTopologyStrategy") {
		strategy = NetworkTopologyStrategy
	}
	return ReplicationFactor{Strategy: strategy, Options: opts}, nil
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

// Equal reports deep equality between two replication factors, ignoring map
// iteration order.
func (rf ReplicationFactor) Equal(other ReplicationFactor) bool {
	if rf.Strategy != other.Strategy || len(rf.Options) != len(other.Options) {
		return false
	}
	for dc, n := range rf.Options {
		if other.Options[dc] != n {
			return false
		}
	}
	return true
}

// DCNames returns the configured DC names in sorted order, convenience for
// deterministic iteration in logs and tests.
func (rf ReplicationFactor) DCNames() []string {
	names := make([]string, 0, len(rf.Options))
	for dc := range rf.Options {
		if dc == simpleStrategyKey {
			continue
		}
		names = append(names, dc)
	}
	sort.Strings(names)
	return names
}
