package data

import (
	"sort"

	"github.com/google/btree"
	"github.com/pkg/errors"

	"github.com/cassandra-analytics/bulk-reader/internal/token"
)

// subRange is a single sub-range entry in the ring's btree index: a
// contiguous token interval with a fixed, ordered replica list.
type subRange struct {
	r        token.Range
	replicas []Instance
}

// Less orders sub-ranges by lower bound, giving the btree a total order to
// index on; mirrors the dbItem.Less pattern used for byte-key ordering in
// the pack's own btree-backed store.
func (s *subRange) Less(other btree.Item) bool {
	return s.r.Lower.Less(other.(*subRange).r.Lower)
}

// Ring is the immutable mapping from contiguous token sub-ranges to ordered
// replica lists, plus the partitioner and replication factor that produced
// it. Built once per job and never mutated afterward.
type Ring struct {
	partitioner token.Partitioner
	rf          ReplicationFactor
	tree        *btree.BTree
	subRanges   []subRange // retained in sorted order for fast full scans
}

// SubRangeSpec is one entry supplied to NewRing: a contiguous token range
// and its ordered replica list.
type SubRangeSpec struct {
	Range    token.Range
	Replicas []Instance
}

// NewRing builds an immutable Ring from a complete set of sub-range specs.
// It verifies the ring invariant: the sub-ranges, sorted by lower bound,
// must tile [MinToken, MaxToken] exactly once with no gap or overlap, and
// every replica list must have length equal to the replication factor's
// total.
func NewRing(partitioner token.Partitioner, rf ReplicationFactor, specs []SubRangeSpec) (*Ring, error) {
	if len(specs) == 0 {
		return nil, errors.New("ring requires at least one sub-range")
	}
	sorted := make([]SubRangeSpec, len(specs))
	copy(sorted, specs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Range.Lower.Less(sorted[j].Range.Lower) })

	total := rf.Total()
	tree := btree.New(32)
	subRanges := make([]subRange, 0, len(sorted))

	expectedLower := partitioner.MinToken()
	for i, spec := range sorted {
		if len(spec.Replicas) != total {
			return nil, errors.Errorf("sub-range %s has %d replicas, want %d (total RF)", spec.Range, len(spec.Replicas), total)
		}
		if !spec.Range.Lower.Equal(expectedLower) {
			return nil, errors.Errorf("ring has a gap or overlap before %s: expected lower bound %s, got %s", spec.Range, expectedLower, spec.Range.Lower)
		}
		entry := subRange{r: spec.Range, replicas: append([]Instance(nil), spec.Replicas...)}
		subRanges = append(subRanges, entry)
		tree.ReplaceOrInsert(&entry)
		if i == len(sorted)-1 {
			if !spec.Range.Upper.Equal(partitioner.MaxToken()) || !spec.Range.UpperInclusive {
				return nil, errors.Errorf("ring does not cover the full token space: last sub-range %s does not reach %s", spec.Range, partitioner.MaxToken())
			}
		}
		expectedLower = spec.Range.Upper
	}

	return &Ring{partitioner: partitioner, rf: rf, tree: tree, subRanges: subRanges}, nil
}

func (r *Ring) Partitioner() token.Partitioner { return r.partitioner }

func (r *Ring) ReplicationFactor() ReplicationFactor { return r.rf }

// SubRangesIn restricts the ring to the sub-ranges that intersect engineRange,
// returning each intersected sub-range alongside its full replica list. This
// is the ring-side half of the planner's sub-range intersection step (§4.G).
//
// It locates the first candidate sub-range with a single DescendLessOrEqual
// probe and then walks forward with AscendGreaterOrEqual, the same
// search-once-then-walk idiom ConsistentHasher.GetNodes uses on its sorted
// ring slice, rather than testing every sub-range in the tree against the
// query.
func (r *Ring) SubRangesIn(engineRange token.Range) []SubRangeSpec {
	seedLower := r.partitioner.MinToken()
	probe := &subRange{r: token.Range{Lower: engineRange.Lower, Upper: engineRange.Lower, LowerInclusive: true, UpperInclusive: true}}
	r.tree.DescendLessOrEqual(probe, func(item btree.Item) bool {
		seedLower = item.(*subRange).r.Lower
		return false
	})

	var out []SubRangeSpec
	seed := &subRange{r: token.Range{Lower: seedLower, Upper: seedLower, LowerInclusive: true, UpperInclusive: true}}
	r.tree.AscendGreaterOrEqual(seed, func(item btree.Item) bool {
		sr := item.(*subRange)
		if sr.r.Lower.Cmp(engineRange.Upper) > 0 {
			return false // sub-ranges are contiguous and sorted; nothing further intersects
		}
		if inter, ok := sr.r.Intersection(engineRange); ok {
			out = append(out, SubRangeSpec{Range: inter, Replicas: sr.replicas})
		}
		return true
	})
	return out
}

// AllSubRanges returns every sub-range in ascending order, primarily for
// tests and diagnostics.
func (r *Ring) AllSubRanges() []SubRangeSpec {
	out := make([]SubRangeSpec, len(r.subRanges))
	for i, sr := range r.subRanges {
		out[i] = SubRangeSpec{Range: sr.r, Replicas: sr.replicas}
	}
	return out
}
