// Package filter implements the custom filter contract engine callers use
// to scope a read to specific keys or token ranges, and the automatic
// range filter the data layer attaches to every partition.
package filter

import (
	"github.com/cassandra-analytics/bulk-reader/internal/token"
)

// Filter is the custom filter contract from the external interfaces: a
// predicate over token ranges, partition keys, and (opaquely, to this
// package) SSTable readers.
type Filter interface {
	Overlaps(r token.Range) bool
	SkipPartition(key []byte, t token.Token) bool
	CanFilterByKey() bool
	FilterKey(key []byte) bool
	IsSpecificRange() bool
}

// RangeFilter is a Filter scoped to a single token range. Both bounds are
// required at construction — an unbounded range filter is not a meaningful
// concept here, matching SparkRangeFilter.create's precondition on the
// original Java source.
type RangeFilter struct {
	tokenRange token.Range
}

// NewRangeFilter builds a RangeFilter over r. r must have both a lower and
// an upper bound; callers construct both ends explicitly since token.Range
// has no notion of an unbounded side.
func NewRangeFilter(r token.Range) RangeFilter {
	return RangeFilter{tokenRange: r}
}

func (f RangeFilter) TokenRange() token.Range { return f.tokenRange }

func (f RangeFilter) Overlaps(r token.Range) bool { return f.tokenRange.Overlaps(r) }

func (f RangeFilter) SkipPartition(_ []byte, t token.Token) bool {
	return !f.tokenRange.Contains(t)
}

func (f RangeFilter) CanFilterByKey() bool { return false }

func (f RangeFilter) FilterKey(_ []byte) bool { return true }

func (f RangeFilter) IsSpecificRange() bool { return false }

var _ Filter = RangeFilter{}

// KeyFilter is a Filter scoped to an explicit set of partition keys,
// identified by their pre-hashed tokens. Used for point lookups that should
// skip everything outside a small key set regardless of range overlap.
type KeyFilter struct {
	keys map[string]token.Token
}

// NewKeyFilter builds a KeyFilter over the given partition keys, hashed
// with p.
func NewKeyFilter(p token.Partitioner, keys [][]byte) KeyFilter {
	m := make(map[string]token.Token, len(keys))
	for _, k := range keys {
		m[string(k)] = p.HashToken(k)
	}
	return KeyFilter{keys: m}
}

func (f KeyFilter) Overlaps(r token.Range) bool {
	for _, t := range f.keys {
		if r.Contains(t) {
			return true
		}
	}
	return false
}

func (f KeyFilter) SkipPartition(key []byte, _ token.Token) bool {
	_, ok := f.keys[string(key)]
	return !ok
}

func (f KeyFilter) CanFilterByKey() bool { return true }

func (f KeyFilter) FilterKey(key []byte) bool {
	_, ok := f.keys[string(key)]
	return ok
}

func (f KeyFilter) IsSpecificRange() bool { return true }

var _ Filter = KeyFilter{}

// ErrNoMatchFound is raised by FiltersInRange when the caller supplied at
// least one filter and none of them overlap the partition's token range. An
// empty filter list is never a NoMatchFound: it is a legitimate
// full-partition-scan request, per the upstream `!filters.isEmpty() &&
// filtersInRange.isEmpty()` guard.
type ErrNoMatchFound struct {
	PartitionRange token.Range
}

func (e *ErrNoMatchFound) Error() string {
	return "no caller filter overlaps partition range " + e.PartitionRange.String()
}

// FiltersInRange raises ErrNoMatchFound if filters is non-empty but none of
// its members overlap partitionRange. Otherwise, when addRangeFilter is
// true, it returns the overlapping subset of filters plus an automatic
// RangeFilter for partitionRange; when addRangeFilter is false, it returns
// the original filters slice completely untouched, matching the upstream
// `filterNonIntersectingSSTables() ? filtersInRange : filters` ternary: the
// narrowing and the auto range filter are both conditioned on that one
// flag, not applied unconditionally.
func FiltersInRange(filters []Filter, partitionRange token.Range, addRangeFilter bool) ([]Filter, error) {
	inRange := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if f.Overlaps(partitionRange) {
			inRange = append(inRange, f)
		}
	}
	if len(filters) > 0 && len(inRange) == 0 {
		return nil, &ErrNoMatchFound{PartitionRange: partitionRange}
	}
	if !addRangeFilter {
		return filters, nil
	}
	return append(inRange, NewRangeFilter(partitionRange)), nil
}
