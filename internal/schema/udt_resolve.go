package schema

import bulkerrors "github.com/cassandra-analytics/bulk-reader/internal/errors"

// ResolveUDTs resolves a set of raw UDT statements into CqlType-backed
// UDTType values, following step 6's iterative fixpoint: repeatedly take a
// UDT off the work queue if every UDT it transitively references is
// already resolved, otherwise re-enqueue it. CQL UDT graphs are acyclic by
// construction, so termination is guaranteed; a pass that makes no
// progress while work remains means a cycle, which is a fatal
// SchemaCycleError (detected exactly that way, never by building an
// explicit dependency graph up front).
func ResolveUDTs(raw []RawTypeStatement) (map[string]UDTType, error) {
	resolved := map[string]UDTType{}
	pending := append([]RawTypeStatement(nil), raw...)

	lookup := func(keyspace, name string) (UDTType, bool) {
		u, ok := resolved[udtKey(keyspace, name)]
		return u, ok
	}

	for len(pending) > 0 {
		var next []RawTypeStatement
		progressed := false

		for _, stmt := range pending {
			fields := make([]UDTField, 0, len(stmt.Fields))
			ok := true
			for _, rawField := range stmt.Fields {
				t, err := parseTypeString(rawField.TypeString, stmt.Keyspace, lookup)
				if err != nil {
					ok = false
					break
				}
				fields = append(fields, UDTField{Name: rawField.Name, Type: t})
			}
			if !ok {
				next = append(next, stmt)
				continue
			}
			resolved[udtKey(stmt.Keyspace, stmt.Name)] = UDTType{
				Keyspace: stmt.Keyspace,
				Name:     stmt.Name,
				Fields:   fields,
			}
			progressed = true
		}

		if !progressed {
			names := make([]string, 0, len(next))
			for _, s := range next {
				names = append(names, udtKey(s.Keyspace, s.Name))
			}
			return nil, bulkerrors.SchemaCycleError(names)
		}
		pending = next
	}
	return resolved, nil
}
