// Package schema builds and validates the typed column/UDT graph rows are
// decoded against: CqlType, CqlField, CqlSchema, and the SchemaBuilder that
// parses DDL into them.
package schema

import (
	"fmt"
	"strings"

	bulkerrors "github.com/cassandra-analytics/bulk-reader/internal/errors"
)

// NativeKind enumerates the fixed set of CQL native types.
type NativeKind string

const (
	Ascii     NativeKind = "ascii"
	BigInt    NativeKind = "bigint"
	Blob      NativeKind = "blob"
	Boolean   NativeKind = "boolean"
	Date      NativeKind = "date"
	Decimal   NativeKind = "decimal"
	Double    NativeKind = "double"
	Duration  NativeKind = "duration"
	Empty     NativeKind = "empty"
	Float     NativeKind = "float"
	Inet      NativeKind = "inet"
	Int       NativeKind = "int"
	SmallInt  NativeKind = "smallint"
	Text      NativeKind = "text"
	Time      NativeKind = "time"
	Timestamp NativeKind = "timestamp"
	TimeUUID  NativeKind = "timeuuid"
	TinyInt   NativeKind = "tinyint"
	UUID      NativeKind = "uuid"
	VarChar   NativeKind = "varchar"
	VarInt    NativeKind = "varint"
)

var supportedNativeKinds = map[NativeKind]bool{
	Ascii: true, BigInt: true, Blob: true, Boolean: true, Date: true,
	Decimal: true, Double: true, Duration: true, Empty: true, Float: true,
	Inet: true, Int: true, SmallInt: true, Text: true, Time: true,
	Timestamp: true, TimeUUID: true, TinyInt: true, UUID: true,
	VarChar: true, VarInt: true,
}

// IsSupported reports whether kind is one of the accepted native types.
// Types outside this fixed set (e.g. "counter") are rejected by the schema
// builder's type validation step.
func (k NativeKind) IsSupported() bool {
	return supportedNativeKinds[k]
}

// variant tags the closed set of CqlType shapes. CqlType is a sealed sum
// type realized as an unexported interface with a fixed set of
// implementations, following the spec's "tagged variant + structural
// recursion" redesign note rather than a class hierarchy.
type variant int

const (
	variantNative variant = iota
	variantList
	variantSet
	variantMap
	variantTuple
	variantUDT
	variantFrozen
)

// CqlType is a CQL column type, recursively defined over collections,
// tuples, and user-defined types.
type CqlType interface {
	variant() variant
	String() string
}

type NativeType struct{ Kind NativeKind }

func (NativeType) variant() variant   { return variantNative }
func (t NativeType) String() string   { return string(t.Kind) }

type ListType struct{ Elem CqlType }

func (ListType) variant() variant { return variantList }
func (t ListType) String() string { return fmt.Sprintf("list<%s>", t.Elem) }

type SetType struct{ Elem CqlType }

func (SetType) variant() variant { return variantSet }
func (t SetType) String() string { return fmt.Sprintf("set<%s>", t.Elem) }

type MapType struct{ Key, Value CqlType }

func (MapType) variant() variant { return variantMap }
func (t MapType) String() string { return fmt.Sprintf("map<%s, %s>", t.Key, t.Value) }

type TupleType struct{ Fields []CqlType }

func (TupleType) variant() variant { return variantTuple }
func (t TupleType) String() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("tuple<%s>", strings.Join(parts, ", "))
}

// UDTField is a single (name, type) member of a user-defined type.
type UDTField struct {
	Name string
	Type CqlType
}

// UDTType is a user-defined composite type scoped to a keyspace: a named
// ordered tuple of (field-name, CqlType) pairs.
type UDTType struct {
	Keyspace string
	Name     string
	Fields   []UDTField
}

func (UDTType) variant() variant { return variantUDT }
func (t UDTType) String() string { return fmt.Sprintf("%s.%s", t.Keyspace, t.Name) }

// FrozenType marks its inner type as immutable, single-cell-encoded.
type FrozenType struct{ Inner CqlType }

func (FrozenType) variant() variant { return variantFrozen }
func (t FrozenType) String() string { return fmt.Sprintf("frozen<%s>", t.Inner) }

// IsFrozen reports whether t is already wrapped in Frozen, used by field
// construction (step 7) to avoid double-wrapping.
func IsFrozen(t CqlType) bool {
	_, ok := t.(FrozenType)
	return ok
}

// singleCellFreezable reports whether a type variant is freezable but
// already single-cell by default, and therefore picks up the Frozen
// marker implicitly during field construction even without an explicit
// frozen<...> declaration. Only tuples fall into this category: they are
// always single-cell in Cassandra. Bare (non-frozen<...>) collections and
// UDTs are multi-cell and must not be auto-wrapped; only an explicit
// frozen<...> declaration, which already parses straight into a
// FrozenType, makes them single-cell.
func singleCellFreezable(t CqlType) bool {
	return t.variant() == variantTuple
}

// Validate walks t by structural recursion, enforcing the accepted variant
// set (§8 invariant 2). Native types must be in the supported set; every
// other variant recurses into its members.
func Validate(t CqlType) error {
	switch v := t.(type) {
	case NativeType:
		if !v.Kind.IsSupported() {
			return bulkerrors.UnsupportedType(string(v.Kind))
		}
		return nil
	case ListType:
		return Validate(v.Elem)
	case SetType:
		return Validate(v.Elem)
	case MapType:
		if err := Validate(v.Key); err != nil {
			return err
		}
		return Validate(v.Value)
	case TupleType:
		for _, f := range v.Fields {
			if err := Validate(f); err != nil {
				return err
			}
		}
		return nil
	case UDTType:
		for _, f := range v.Fields {
			if err := Validate(f.Type); err != nil {
				return err
			}
		}
		return nil
	case FrozenType:
		return Validate(v.Inner)
	default:
		return bulkerrors.UnsupportedType(fmt.Sprintf("%T", t))
	}
}
