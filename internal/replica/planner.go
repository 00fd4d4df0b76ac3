package replica

import (
	"sort"

	"go.uber.org/zap"

	"github.com/cassandra-analytics/bulk-reader/internal/availability"
	"github.com/cassandra-analytics/bulk-reader/internal/data"
	bulkerrors "github.com/cassandra-analytics/bulk-reader/internal/errors"
	"github.com/cassandra-analytics/bulk-reader/internal/filter"
	"github.com/cassandra-analytics/bulk-reader/internal/token"
)

// PlanInput bundles the planner's inputs per §4.G.
type PlanInput struct {
	ConsistencyLevel data.ConsistencyLevel
	DC               string // empty means "no DC specified"
	Ring             *data.Ring
	RF               data.ReplicationFactor
	EngineRange      token.Range
	Filters          []filter.Filter
	Availability     availability.Oracle
	PartitionID      int
}

// Planner implements the Replica Planner's pre-validation, sub-range
// intersection, candidate flattening, blockFor computation, primary/backup
// split, and per-sub-range consistency validation.
type Planner struct {
	log *zap.Logger
}

func NewPlanner(log *zap.Logger) *Planner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Planner{log: log}
}

// ValidateConsistency runs the pre-validation step from §4.G, independent
// of any concrete ring or engine range: RF x CL x DC combinations that can
// never be satisfiable are rejected up front, at planner construction time
// in the original source.
func ValidateConsistency(cl data.ConsistencyLevel, dc string, rf data.ReplicationFactor) error {
	switch cl {
	case data.Serial, data.LocalSerial:
		return bulkerrors.InvalidConsistency("serial consistency levels are not supported by the bulk reader")
	case data.EachQuorum:
		return bulkerrors.NotImplemented(cl.String())
	}

	if rf.Strategy != data.NetworkTopologyStrategy {
		return nil
	}
	if dc == "" {
		if _, ok := rf.SingleDC(); ok {
			return nil
		}
		if cl.IsDCLocal() {
			return bulkerrors.DCRequired(cl.String())
		}
		return nil
	}
	n, ok := rf.DC(dc)
	if !ok || n <= 0 {
		return bulkerrors.InvalidConsistency("dc " + dc + " has no positive replica count in the replication factor")
	}
	return nil
}

// Plan runs the full algorithm and returns the ReplicaSet for one engine
// partition, or a fatal error.
func (p *Planner) Plan(in PlanInput) (*Set, error) {
	dc := in.DC
	if dc == "" {
		if single, ok := in.RF.SingleDC(); ok {
			dc = single
		}
	}
	if err := ValidateConsistency(in.ConsistencyLevel, dc, in.RF); err != nil {
		return nil, err
	}

	// Sub-range intersection: ask the ring for sub-ranges overlapping the
	// engine range, then, if any filter can filter by key, retain only the
	// sub-ranges a key-filter overlaps.
	subRanges := in.Ring.SubRangesIn(in.EngineRange)
	if hasKeyFilter(in.Filters) {
		subRanges = filterSubRangesByKey(subRanges, in.Filters)
	}

	// Replica candidate set: flatten all retained sub-ranges' instance
	// lists into one de-duplicated set before DC filtering, exactly as
	// rangesToReplicas does it upstream.
	candidates := flattenCandidates(subRanges)
	if in.ConsistencyLevel.IsDCLocal() && dc != "" {
		candidates = filterByDC(candidates, dc)
	}

	minReplicas := in.ConsistencyLevel.BlockFor(in.RF, dc)

	primary, backup, repairPrimary := splitReplicas(candidates, in.Availability, minReplicas, len(subRanges))
	if len(subRanges) > 1 {
		p.log.Warn("engine partition spans more than one sub-range; repair-primary segregation disabled",
			zap.Int("partition_id", in.PartitionID), zap.Int("sub_ranges", len(subRanges)))
	}

	set := &Set{
		Primary:       primary,
		Backup:        backup,
		RepairPrimary: repairPrimary,
		MinReplicas:   minReplicas,
		PartitionID:   in.PartitionID,
	}

	if len(primary) < minReplicas {
		return nil, bulkerrors.NotEnoughReplicas(in.EngineRange.String(), minReplicas, len(primary), dc)
	}

	if err := validatePerSubRange(subRanges, primary, minReplicas, dc); err != nil {
		return nil, err
	}

	return set, nil
}

func hasKeyFilter(filters []filter.Filter) bool {
	for _, f := range filters {
		if f.CanFilterByKey() {
			return true
		}
	}
	return false
}

func filterSubRangesByKey(subRanges []data.SubRangeSpec, filters []filter.Filter) []data.SubRangeSpec {
	var out []data.SubRangeSpec
	for _, sr := range subRanges {
		for _, f := range filters {
			if !f.CanFilterByKey() {
				continue
			}
			if f.Overlaps(sr.Range) {
				out = append(out, sr)
				break
			}
		}
	}
	return out
}

func flattenCandidates(subRanges []data.SubRangeSpec) []data.Instance {
	seen := map[string]bool{}
	var out []data.Instance
	for _, sr := range subRanges {
		for _, inst := range sr.Replicas {
			if seen[inst.NodeName] {
				continue
			}
			seen[inst.NodeName] = true
			out = append(out, inst)
		}
	}
	return out
}

func filterByDC(instances []data.Instance, dc string) []data.Instance {
	var out []data.Instance
	for _, inst := range instances {
		if inst.SameDC(dc) {
			out = append(out, inst)
		}
	}
	return out
}

// splitReplicas sorts candidates by availability hint (UP < UNKNOWN < DOWN,
// stable) and fills primary up to minReplicas, the rest going to backup.
// The first instance ever added to primary becomes repairPrimary, but only
// if exactly one sub-range was observed; with more than one, repair-primary
// segregation is disabled (not failed) — preserved verbatim per §9's
// second open question.
func splitReplicas(candidates []data.Instance, oracle availability.Oracle, minReplicas, subRangeCount int) (primary, backup []data.Instance, repairPrimary *data.Instance) {
	sorted := make([]data.Instance, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return hintOf(oracle, sorted[i]) < hintOf(oracle, sorted[j])
	})

	for i, inst := range sorted {
		if i < minReplicas {
			primary = append(primary, inst)
			if i == 0 && subRangeCount == 1 {
				rp := inst
				repairPrimary = &rp
			}
		} else {
			backup = append(backup, inst)
		}
	}
	return primary, backup, repairPrimary
}

func hintOf(oracle availability.Oracle, inst data.Instance) data.AvailabilityHint {
	if oracle == nil {
		return data.Unknown
	}
	return oracle.Availability(inst.NodeName)
}

// validatePerSubRange checks, for each retained sub-range, how many of its
// replicas are in primary; a count below minReplicas fails NotEnoughReplicas
// for that specific sub-range. The check is per sub-range, never in
// aggregate, even though splitReplicas chose primary globally — preserved
// verbatim per §9's second open question. A multi-sub-range engine
// partition is already warned about in Plan (repairPrimary disabled); this
// function does no logging of its own and reports a per-range shortfall
// only through the returned NotEnoughReplicas error.
func validatePerSubRange(subRanges []data.SubRangeSpec, primary []data.Instance, minReplicas int, dc string) error {
	primarySet := make(map[string]bool, len(primary))
	for _, p := range primary {
		primarySet[p.NodeName] = true
	}
	for _, sr := range subRanges {
		count := 0
		for _, r := range sr.Replicas {
			if primarySet[r.NodeName] {
				count++
			}
		}
		if count < minReplicas {
			return bulkerrors.NotEnoughReplicas(sr.Range.String(), minReplicas, count, dc)
		}
	}
	return nil
}
