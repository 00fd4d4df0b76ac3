package schema

import "sort"

// Field is a single column in a table, tagged with its role in the primary
// key so fields can be sorted into the selection order the schema builder's
// field-construction step walks.
type Field struct {
	Name               string
	Type               CqlType
	Position           int
	IsPartitionKey     bool
	IsClusteringColumn bool
	IsStatic           bool
}

// SortFields orders fields the way CqlField ordering is defined: partition
// key columns (by definition order), then clustering columns (by definition
// order), then everything else (by name).
func SortFields(fields []Field) []Field {
	sorted := make([]Field, len(fields))
	copy(sorted, fields)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		rankA, rankB := fieldRank(a), fieldRank(b)
		if rankA != rankB {
			return rankA < rankB
		}
		if rankA == rankOther {
			return a.Name < b.Name
		}
		return a.Position < b.Position
	})
	return sorted
}

const (
	rankPartitionKey = 0
	rankClustering   = 1
	rankOther        = 2
)

func fieldRank(f Field) int {
	switch {
	case f.IsPartitionKey:
		return rankPartitionKey
	case f.IsClusteringColumn:
		return rankClustering
	default:
		return rankOther
	}
}
