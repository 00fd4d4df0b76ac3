package schema

import (
	"sort"
	"sync"

	"github.com/scylladb/go-set/strset"

	"github.com/cassandra-analytics/bulk-reader/internal/data"
	bulkerrors "github.com/cassandra-analytics/bulk-reader/internal/errors"
)

// keyspaceEntry is a process-wide registry record for one keyspace: its
// replication factor and the set of tables installed into it so far.
// Installation is always serialized, and reads take the same registry mutex.
// tableNames mirrors tables' key set in a strset.Set so membership checks
// and name listings don't walk the map.
type keyspaceEntry struct {
	rf         data.ReplicationFactor
	tables     map[string]*CqlSchema
	tableNames *strset.Set
}

// Registry is the process-wide mutable schema registry the source relies
// on from the embedded database engine, wrapped behind an installation
// mutex with idempotent installers (§9's redesign note). Exposes only
// immutable *CqlSchema values to the rest of the system.
type Registry struct {
	mu         sync.Mutex
	keyspaces  map[string]*keyspaceEntry
}

// NewRegistry builds an empty per-job registry. A shared process-wide
// instance is used by DefaultRegistry; tests and multi-tenant callers that
// want isolation construct their own.
func NewRegistry() *Registry {
	return &Registry{keyspaces: map[string]*keyspaceEntry{}}
}

// defaultRegistry is the process-wide singleton schema registration
// operations are serialized against, per §5: "schema registration
// operations are serialized process-wide."
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry instance.
func DefaultRegistry() *Registry { return defaultRegistry }

// Install atomically installs schema into the registry: if the keyspace is
// not yet registered, installs a new keyspace with rf and the table; if the
// keyspace exists but the table does not, installs the table into the
// existing keyspace. Idempotent: installing the same (keyspace, table)
// again is a no-op. Post-conditions are verified before returning; a
// missing keyspace or table afterward is a fatal SchemaRegistrationError.
func (r *Registry) Install(rf data.ReplicationFactor, schema *CqlSchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ks, ok := r.keyspaces[schema.Keyspace]
	if !ok {
		ks = &keyspaceEntry{rf: rf, tables: map[string]*CqlSchema{}, tableNames: strset.New()}
		r.keyspaces[schema.Keyspace] = ks
	}
	if !ks.tableNames.Has(schema.Table) {
		ks.tables[schema.Table] = schema
		ks.tableNames.Add(schema.Table)
	}

	installedKs, ok := r.keyspaces[schema.Keyspace]
	if !ok {
		return bulkerrors.SchemaRegistrationError(schema.Keyspace, schema.Table)
	}
	if _, ok := installedKs.tables[schema.Table]; !ok {
		return bulkerrors.SchemaRegistrationError(schema.Keyspace, schema.Table)
	}
	return nil
}

// Lookup returns the installed schema for (keyspace, table), if any.
func (r *Registry) Lookup(keyspace, table string) (*CqlSchema, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ks, ok := r.keyspaces[keyspace]
	if !ok {
		return nil, false
	}
	schema, ok := ks.tables[table]
	return schema, ok
}

// KeyspaceRF returns the replication factor a keyspace was registered with.
func (r *Registry) KeyspaceRF(keyspace string) (data.ReplicationFactor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ks, ok := r.keyspaces[keyspace]
	if !ok {
		return data.ReplicationFactor{}, false
	}
	return ks.rf, true
}

// HasTable reports whether table is installed in keyspace, without the
// caller needing the full *CqlSchema Lookup returns.
func (r *Registry) HasTable(keyspace, table string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ks, ok := r.keyspaces[keyspace]
	if !ok {
		return false
	}
	return ks.tableNames.Has(table)
}

// TableNames returns every table installed in keyspace, sorted.
func (r *Registry) TableNames(keyspace string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ks, ok := r.keyspaces[keyspace]
	if !ok {
		return nil
	}
	names := ks.tableNames.List()
	sort.Strings(names)
	return names
}
