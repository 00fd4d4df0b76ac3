package schema

import (
	"strings"

	bulkerrors "github.com/cassandra-analytics/bulk-reader/internal/errors"
)

// udtLookup resolves a UDT by keyspace-qualified or bare name during type
// string parsing, used to thread already-resolved UDTs (per the fixpoint in
// ResolveUDTs) into field types that reference them.
type udtLookup func(keyspace, name string) (UDTType, bool)

// parseTypeString parses a CQL type string (e.g. "frozen<map<text, int>>")
// into a CqlType, resolving UDT references via lookup.
func parseTypeString(s, keyspace string, lookup udtLookup) (CqlType, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)

	if inner, ok := unwrap(lower, s, "frozen<"); ok {
		elem, err := parseTypeString(inner, keyspace, lookup)
		if err != nil {
			return nil, err
		}
		return FrozenType{Inner: elem}, nil
	}
	if inner, ok := unwrap(lower, s, "list<"); ok {
		elem, err := parseTypeString(inner, keyspace, lookup)
		if err != nil {
			return nil, err
		}
		return ListType{Elem: elem}, nil
	}
	if inner, ok := unwrap(lower, s, "set<"); ok {
		elem, err := parseTypeString(inner, keyspace, lookup)
		if err != nil {
			return nil, err
		}
		return SetType{Elem: elem}, nil
	}
	if inner, ok := unwrap(lower, s, "map<"); ok {
		parts := splitTopLevel(inner)
		if len(parts) != 2 {
			return nil, bulkerrors.SchemaParseError(s, nil)
		}
		key, err := parseTypeString(parts[0], keyspace, lookup)
		if err != nil {
			return nil, err
		}
		val, err := parseTypeString(parts[1], keyspace, lookup)
		if err != nil {
			return nil, err
		}
		return MapType{Key: key, Value: val}, nil
	}
	if inner, ok := unwrap(lower, s, "tuple<"); ok {
		parts := splitTopLevel(inner)
		fields := make([]CqlType, 0, len(parts))
		for _, p := range parts {
			f, err := parseTypeString(p, keyspace, lookup)
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
		return TupleType{Fields: fields}, nil
	}

	if kind := NativeKind(lower); kind.IsSupported() {
		return NativeType{Kind: kind}, nil
	}

	ks, name := keyspace, s
	if idx := strings.Index(s, "."); idx >= 0 {
		ks, name = s[:idx], s[idx+1:]
	}
	if udt, ok := lookup(ks, name); ok {
		return udt, nil
	}
	return nil, bulkerrors.UnsupportedType(s)
}

func unwrap(lower, original, prefix string) (string, bool) {
	if !strings.HasPrefix(lower, prefix) || !strings.HasSuffix(original, ">") {
		return "", false
	}
	return original[len(prefix) : len(original)-1], true
}
