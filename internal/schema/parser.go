package schema

import (
	"regexp"
	"strings"

	bulkerrors "github.com/cassandra-analytics/bulk-reader/internal/errors"
)

// ossPackagePrefix is the unshaded vendor package prefix rewritten by
// ConvertToShadedPackages, mirroring FourZeroSchemaBuilder.OSS_PACKAGE_NAME.
const ossPackagePrefix = "org.apache.cassandra."

// shadedSuffix is the marker that indicates a match is already shaded, so it
// must be left alone.
const shadedSuffix = "spark.shaded."

const shadedPackageName = "org.apache.cassandra.spark.shaded.fourzero.cassandra."

// isWordByte reports whether b is a `\w` character in RE2/PCRE terms.
func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z')
}

// ConvertToShadedPackages rewrites every unshaded vendor package reference
// in s to the shaded prefix. Idempotent: a string already fully shaded is
// returned unchanged, since an occurrence already followed by the shaded
// path is never rewritten. Equivalent to matching the regex
// `\borg\.apache\.cassandra\.(?!spark\.shaded\.)`, reimplemented by hand
// because RE2 (used by Go's regexp package) does not support negative
// lookahead.
func ConvertToShadedPackages(s string) string {
	var out strings.Builder
	i := 0
	for {
		idx := strings.Index(s[i:], ossPackagePrefix)
		if idx == -1 {
			out.WriteString(s[i:])
			break
		}
		start := i + idx
		out.WriteString(s[i:start])

		atWordBoundary := start == 0 || !isWordByte(s[start-1])
		rest := s[start+len(ossPackagePrefix):]
		alreadyShaded := strings.HasPrefix(rest, shadedSuffix)

		if atWordBoundary && !alreadyShaded {
			out.WriteString(shadedPackageName)
			i = start + len(ossPackagePrefix)
		} else {
			out.WriteString(ossPackagePrefix)
			i = start + len(ossPackagePrefix)
		}
	}
	return out.String()
}

// RawTableStatement is the embedded parser collaborator's output for a
// CREATE TABLE fragment: enough structure for the builder to bind a
// keyspace, finalize against a UDT registry, and walk columns.
type RawTableStatement struct {
	Keyspace string
	Table    string
	Columns  []RawColumn
}

// RawColumn is one column as lexed from DDL, before type resolution against
// the UDT registry.
type RawColumn struct {
	Name               string
	TypeString         string
	IsPartitionKey     bool
	IsClusteringColumn bool
	IsStatic           bool
}

// RawTypeStatement is the embedded parser collaborator's output for a
// CREATE TYPE fragment.
type RawTypeStatement struct {
	Keyspace string
	Name     string
	Fields   []RawColumn // only Name and TypeString are meaningful here
}

// Parser is the embedded parser collaborator contract (§6): it lexes CQL
// DDL fragments into raw statements, or fails with a structured
// SchemaParseError. Real CQL lexing is out of scope for this package; the
// default implementation below is a minimal regexp/tokenizer stand-in, the
// only implementation of this interface anywhere in the retrieved corpus.
type Parser interface {
	ParseTable(ddl, keyspace string) (RawTableStatement, error)
	ParseType(ddl, keyspace string) (RawTypeStatement, error)
}

// RegexParser is the default Parser: a small regexp-based recognizer for
// the subset of CREATE TABLE / CREATE TYPE syntax this reader needs to
// bootstrap a schema. It is deliberately not a general CQL grammar — no
// such library was found anywhere in the retrieval pack, and the spec
// scopes real CQL lexing out as an external collaborator's job.
type RegexParser struct{}

var (
	createTableRe = regexp.MustCompile(`(?is)CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?(?:([a-zA-Z_][\w]*)\.)?([a-zA-Z_][\w]*)\s*\(\s*(.*)\)\s*(?:WITH\b.*)?;?\s*$`)
	createTypeRe  = regexp.MustCompile(`(?is)CREATE\s+TYPE\s+(?:IF\s+NOT\s+EXISTS\s+)?(?:([a-zA-Z_][\w]*)\.)?([a-zA-Z_][\w]*)\s*\(\s*(.*)\)\s*;?\s*$`)
	primaryKeyRe  = regexp.MustCompile(`(?is)PRIMARY\s+KEY\s*\(\s*\(([^)]*)\)\s*(?:,\s*(.*))?\)`)
)

func (RegexParser) ParseTable(ddl, keyspace string) (RawTableStatement, error) {
	m := createTableRe.FindStringSubmatch(strings.TrimSpace(ddl))
	if m == nil {
		return RawTableStatement{}, bulkerrors.SchemaParseError(ddl, nil)
	}
	ks := keyspace
	if m[1] != "" {
		ks = m[1]
	}
	body := m[3]

	defsPart, pkPart := splitPrimaryKey(body)
	partitionKeys, clusteringKeys := parsePrimaryKeyClause(pkPart)

	columnDefs, inlinePK := splitColumnDefs(defsPart)
	if inlinePK != "" && len(partitionKeys) == 0 {
		partitionKeys = []string{inlinePK}
	}

	columns := make([]RawColumn, 0, len(columnDefs))
	for _, def := range columnDefs {
		col, err := parseColumnDef(def)
		if err != nil {
			return RawTableStatement{}, bulkerrors.SchemaParseError(ddl, err)
		}
		col.IsPartitionKey = contains(partitionKeys, col.Name)
		col.IsClusteringColumn = contains(clusteringKeys, col.Name)
		columns = append(columns, col)
	}
	if len(columns) == 0 {
		return RawTableStatement{}, bulkerrors.SchemaParseError(ddl, nil)
	}
	return RawTableStatement{Keyspace: ks, Table: m[2], Columns: columns}, nil
}

func (RegexParser) ParseType(ddl, keyspace string) (RawTypeStatement, error) {
	m := createTypeRe.FindStringSubmatch(strings.TrimSpace(ddl))
	if m == nil {
		return RawTypeStatement{}, bulkerrors.SchemaParseError(ddl, nil)
	}
	ks := keyspace
	if m[1] != "" {
		ks = m[1]
	}
	defs := splitTopLevel(m[3])
	fields := make([]RawColumn, 0, len(defs))
	for _, def := range defs {
		col, err := parseColumnDef(def)
		if err != nil {
			return RawTypeStatement{}, bulkerrors.SchemaParseError(ddl, err)
		}
		fields = append(fields, col)
	}
	return RawTypeStatement{Keyspace: ks, Name: m[2], Fields: fields}, nil
}

// splitPrimaryKey separates a trailing `PRIMARY KEY (...)` clause, found as
// its own top-level comma-separated entry, from the column definitions that
// precede it.
func splitPrimaryKey(body string) (defsPart, pkClause string) {
	entries := splitTopLevel(body)
	var defs []string
	for _, e := range entries {
		trimmed := strings.TrimSpace(e)
		if strings.HasPrefix(strings.ToUpper(trimmed), "PRIMARY KEY") {
			pkClause = trimmed
			continue
		}
		defs = append(defs, e)
	}
	return strings.Join(defs, ","), pkClause
}

func parsePrimaryKeyClause(pkClause string) (partitionKeys, clusteringKeys []string) {
	if pkClause == "" {
		return nil, nil
	}
	m := primaryKeyRe.FindStringSubmatch(pkClause)
	if m == nil {
		return nil, nil
	}
	for _, name := range strings.Split(m[1], ",") {
		if n := strings.TrimSpace(name); n != "" {
			partitionKeys = append(partitionKeys, n)
		}
	}
	if m[2] != "" {
		for _, name := range strings.Split(m[2], ",") {
			if n := strings.TrimSpace(name); n != "" {
				clusteringKeys = append(clusteringKeys, n)
			}
		}
	}
	return partitionKeys, clusteringKeys
}

// splitColumnDefs splits the non-PRIMARY-KEY column definitions, also
// recognizing an inline `col type PRIMARY KEY` single-column shorthand.
func splitColumnDefs(defsPart string) (defs []string, inlinePK string) {
	for _, e := range splitTopLevel(defsPart) {
		trimmed := strings.TrimSpace(e)
		if trimmed == "" {
			continue
		}
		upper := strings.ToUpper(trimmed)
		if idx := strings.Index(upper, " PRIMARY KEY"); idx >= 0 {
			name := strings.TrimSpace(strings.Fields(trimmed)[0])
			inlinePK = name
			trimmed = strings.TrimSpace(trimmed[:idx])
		}
		defs = append(defs, trimmed)
	}
	return defs, inlinePK
}

func parseColumnDef(def string) (RawColumn, error) {
	def = strings.TrimSpace(def)
	fields := strings.Fields(def)
	if len(fields) < 2 {
		return RawColumn{}, bulkerrors.SchemaParseError(def, nil)
	}
	name := fields[0]
	rest := strings.TrimSpace(def[len(name):])
	static := false
	upper := strings.ToUpper(rest)
	if strings.HasSuffix(upper, " STATIC") {
		rest = strings.TrimSpace(rest[:len(rest)-len(" STATIC")])
		static = true
	}
	return RawColumn{Name: name, TypeString: strings.TrimSpace(rest), IsStatic: static}, nil
}

// splitTopLevel splits s on commas that are not nested inside parentheses
// or angle brackets, so collection/tuple type strings like
// "map<text, frozen<list<int>>>" are not split internally.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(', '<':
			depth++
		case ')', '>':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if start < len(s) {
		parts = append(parts, s[start:])
	}
	return parts
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
