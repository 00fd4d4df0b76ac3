package schema

import "github.com/cassandra-analytics/bulk-reader/internal/data"

// CqlSchema is the built, immutable schema for one table: its fields in
// selection order and the set of UDTs it (transitively) depends on.
type CqlSchema struct {
	Keyspace          string
	Table             string
	CreateStmt        string
	ReplicationFactor data.ReplicationFactor
	Fields            []Field
	UDTs              map[string]UDTType // keyed by "keyspace.name"
}

// TableMetadata is the internal, keyspace-scoped intermediate the builder
// produces before CqlSchema: columns in raw parse order, not yet sorted
// into selection order.
type TableMetadata struct {
	Keyspace string
	Table    string
	Columns  []Field
}

func udtKey(keyspace, name string) string { return keyspace + "." + name }
