package schema

import (
	"go.uber.org/zap"

	"github.com/cassandra-analytics/bulk-reader/internal/data"
	"github.com/cassandra-analytics/bulk-reader/internal/token"
)

// Builder runs the seven-step schema build algorithm: package rewriting,
// UDT parsing, table parsing, type validation, global registration, UDT
// resolution, and field construction.
type Builder struct {
	parser   Parser
	registry *Registry
	log      *zap.Logger
}

// NewBuilder constructs a Builder against the given parser collaborator and
// registry. Pass DefaultRegistry() to preserve process-wide registration
// semantics, or a fresh NewRegistry() for an isolated per-job registry.
func NewBuilder(parser Parser, registry *Registry, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{parser: parser, registry: registry, log: log}
}

// Build runs the full algorithm and returns the immutable CqlSchema for
// tableDDL, registering it (and the keyspace, if new) in the builder's
// registry.
func (b *Builder) Build(tableDDL, keyspace string, rf data.ReplicationFactor, partitioner token.Partitioner, udtDDLs []string) (*CqlSchema, error) {
	// Step 1: package rewriting, applied before parsing.
	shadedTableDDL := ConvertToShadedPackages(tableDDL)

	// Step 2: UDT parsing into a raw type-registry builder keyed by keyspace.
	rawUDTs := make([]RawTypeStatement, 0, len(udtDDLs))
	for _, ddl := range udtDDLs {
		shadedDDL := ConvertToShadedPackages(ddl)
		stmt, err := b.parser.ParseType(shadedDDL, keyspace)
		if err != nil {
			return nil, err
		}
		rawUDTs = append(rawUDTs, stmt)
	}

	// Step 6 runs ahead of field construction so step 7's per-column type
	// resolution can look UDTs up by name; the fixpoint algorithm itself is
	// unaffected by running before or after table parsing.
	udts, err := ResolveUDTs(rawUDTs)
	if err != nil {
		return nil, err
	}

	// Step 3: table parsing, bound to the keyspace.
	table, err := b.parser.ParseTable(shadedTableDDL, keyspace)
	if err != nil {
		return nil, err
	}

	lookup := func(ks, name string) (UDTType, bool) {
		u, ok := udts[udtKey(ks, name)]
		return u, ok
	}

	// Steps 4 and 7: resolve and validate each column's type, wrapping in
	// Frozen where the type is freezable but already single-cell by default
	// (tuples) and not already explicitly frozen. Bare collections and UDTs
	// are multi-cell and are left unwrapped.
	fields := make([]Field, 0, len(table.Columns))
	for _, col := range table.Columns {
		t, err := parseTypeString(col.TypeString, table.Keyspace, lookup)
		if err != nil {
			return nil, err
		}
		if err := Validate(t); err != nil {
			return nil, err
		}
		if singleCellFreezable(t) && !IsFrozen(t) {
			t = FrozenType{Inner: t}
		}
		fields = append(fields, Field{
			Name:               col.Name,
			Type:               t,
			IsPartitionKey:     col.IsPartitionKey,
			IsClusteringColumn: col.IsClusteringColumn,
			IsStatic:           col.IsStatic,
		})
	}
	for i := range fields {
		fields[i].Position = i
	}
	fields = SortFields(fields)

	usedUDTs := map[string]UDTType{}
	for _, f := range fields {
		collectUDTs(f.Type, usedUDTs)
	}

	cqlSchema := &CqlSchema{
		Keyspace:          table.Keyspace,
		Table:             table.Table,
		CreateStmt:        shadedTableDDL,
		ReplicationFactor: rf,
		Fields:            fields,
		UDTs:              usedUDTs,
	}

	// Step 5: global registration, serialized across concurrent builds.
	if err := b.registry.Install(rf, cqlSchema); err != nil {
		return nil, err
	}

	b.log.Debug("built schema",
		zap.String("keyspace", cqlSchema.Keyspace),
		zap.String("table", cqlSchema.Table),
		zap.Int("fields", len(cqlSchema.Fields)),
		zap.Int("udts", len(cqlSchema.UDTs)),
	)

	return cqlSchema, nil
}

// collectUDTs walks t, recording every UDT reachable from it (directly or
// through a collection/tuple/frozen wrapper) into out.
func collectUDTs(t CqlType, out map[string]UDTType) {
	switch v := t.(type) {
	case UDTType:
		if _, seen := out[udtKey(v.Keyspace, v.Name)]; seen {
			return
		}
		out[udtKey(v.Keyspace, v.Name)] = v
		for _, f := range v.Fields {
			collectUDTs(f.Type, out)
		}
	case ListType:
		collectUDTs(v.Elem, out)
	case SetType:
		collectUDTs(v.Elem, out)
	case MapType:
		collectUDTs(v.Key, out)
		collectUDTs(v.Value, out)
	case TupleType:
		for _, f := range v.Fields {
			collectUDTs(f, out)
		}
	case FrozenType:
		collectUDTs(v.Inner, out)
	}
}
