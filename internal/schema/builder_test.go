package schema_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cassandra-analytics/bulk-reader/internal/data"
	"github.com/cassandra-analytics/bulk-reader/internal/schema"
	"github.com/cassandra-analytics/bulk-reader/internal/token"
)

func TestConvertToShadedPackagesRewritesAndIsIdempotent(t *testing.T) {
	in := "CREATE TABLE org.apache.cassandra.foo (k int PRIMARY KEY)"
	out := schema.ConvertToShadedPackages(in)
	assert.Contains(t, out, "org.apache.cassandra.spark.shaded.fourzero.cassandra.foo")
	assert.NotContains(t, strings.Replace(out, "org.apache.cassandra.spark.shaded.fourzero.cassandra.", "", 1), "org.apache.cassandra.")

	assert.Equal(t, out, schema.ConvertToShadedPackages(out), "already-shaded input must be returned unchanged")
}

func TestBuildRejectsUnsupportedType(t *testing.T) {
	b := schema.NewBuilder(schema.RegexParser{}, schema.NewRegistry(), nil)
	rf := data.NewSimpleReplicationFactor(3)
	_, err := b.Build(`CREATE TABLE t (k int PRIMARY KEY, c counter)`, "ks", rf, token.Murmur3Partitioner{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UnsupportedType")
}

func TestBuildEmptyUDTSetSucceeds(t *testing.T) {
	b := schema.NewBuilder(schema.RegexParser{}, schema.NewRegistry(), nil)
	rf := data.NewSimpleReplicationFactor(3)
	sch, err := b.Build(`CREATE TABLE t (k int PRIMARY KEY, v text)`, "ks", rf, token.Murmur3Partitioner{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ks", sch.Keyspace)
	assert.Equal(t, "t", sch.Table)
	assert.Empty(t, sch.UDTs)
}

func TestBuildFieldOrderingPartitionKeyThenClusteringThenOthersByName(t *testing.T) {
	b := schema.NewBuilder(schema.RegexParser{}, schema.NewRegistry(), nil)
	rf := data.NewSimpleReplicationFactor(3)
	sch, err := b.Build(
		`CREATE TABLE t (pk1 int, pk2 int, cc1 int, zzz text, aaa text, PRIMARY KEY ((pk1, pk2), cc1))`,
		"ks", rf, token.Murmur3Partitioner{}, nil,
	)
	require.NoError(t, err)
	names := make([]string, len(sch.Fields))
	for i, f := range sch.Fields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"pk1", "pk2", "cc1", "aaa", "zzz"}, names)
	assert.True(t, sch.Fields[0].IsPartitionKey)
	assert.True(t, sch.Fields[1].IsPartitionKey)
	assert.True(t, sch.Fields[2].IsClusteringColumn)
}

func TestBuildUDTNestingResolvesOutOfOrderDeclarations(t *testing.T) {
	b := schema.NewBuilder(schema.RegexParser{}, schema.NewRegistry(), nil)
	rf := data.NewSimpleReplicationFactor(3)
	sch, err := b.Build(
		`CREATE TABLE t (k int PRIMARY KEY, v frozen<a>)`,
		"ks", rf, token.Murmur3Partitioner{},
		// Declared in reverse dependency order: a references B before B is parsed.
		[]string{
			`CREATE TYPE a (b_field frozen<b>)`,
			`CREATE TYPE b (i int)`,
		},
	)
	require.NoError(t, err)
	require.Len(t, sch.Fields, 2)

	var vField schema.Field
	for _, f := range sch.Fields {
		if f.Name == "v" {
			vField = f
		}
	}
	frozen, ok := vField.Type.(schema.FrozenType)
	require.True(t, ok)
	udt, ok := frozen.Inner.(schema.UDTType)
	require.True(t, ok)
	assert.Equal(t, "a", udt.Name)
	require.Len(t, udt.Fields, 1)
	bFrozen, ok := udt.Fields[0].Type.(schema.FrozenType)
	require.True(t, ok)
	bUDT, ok := bFrozen.Inner.(schema.UDTType)
	require.True(t, ok)
	assert.Equal(t, "b", bUDT.Name)
}

func TestBuildLeavesABareCollectionColumnMultiCell(t *testing.T) {
	b := schema.NewBuilder(schema.RegexParser{}, schema.NewRegistry(), nil)
	rf := data.NewSimpleReplicationFactor(3)
	sch, err := b.Build(`CREATE TABLE t (k int PRIMARY KEY, tags set<text>)`, "ks", rf, token.Murmur3Partitioner{}, nil)
	require.NoError(t, err)
	var tagsField schema.Field
	for _, f := range sch.Fields {
		if f.Name == "tags" {
			tagsField = f
		}
	}
	_, ok := tagsField.Type.(schema.FrozenType)
	assert.False(t, ok, "a bare (non-frozen<...>) collection column is multi-cell and must not be auto-wrapped in Frozen")
	_, ok = tagsField.Type.(schema.SetType)
	assert.True(t, ok)
}

func TestBuildWrapsExplicitFrozenCollectionUnchanged(t *testing.T) {
	b := schema.NewBuilder(schema.RegexParser{}, schema.NewRegistry(), nil)
	rf := data.NewSimpleReplicationFactor(3)
	sch, err := b.Build(`CREATE TABLE t (k int PRIMARY KEY, tags frozen<set<text>>)`, "ks", rf, token.Murmur3Partitioner{}, nil)
	require.NoError(t, err)
	var tagsField schema.Field
	for _, f := range sch.Fields {
		if f.Name == "tags" {
			tagsField = f
		}
	}
	frozen, ok := tagsField.Type.(schema.FrozenType)
	require.True(t, ok, "an explicit frozen<...> column must stay Frozen")
	_, ok = frozen.Inner.(schema.SetType)
	assert.True(t, ok)
}

func TestBuildWrapsABareTupleColumnInFrozenAutomatically(t *testing.T) {
	b := schema.NewBuilder(schema.RegexParser{}, schema.NewRegistry(), nil)
	rf := data.NewSimpleReplicationFactor(3)
	sch, err := b.Build(`CREATE TABLE t (k int PRIMARY KEY, coords tuple<int, int>)`, "ks", rf, token.Murmur3Partitioner{}, nil)
	require.NoError(t, err)
	var coordsField schema.Field
	for _, f := range sch.Fields {
		if f.Name == "coords" {
			coordsField = f
		}
	}
	frozen, ok := coordsField.Type.(schema.FrozenType)
	require.True(t, ok, "a tuple column is always single-cell and must be auto-wrapped in Frozen")
	_, ok = frozen.Inner.(schema.TupleType)
	assert.True(t, ok)
}

func TestBuildIsIdempotentAgainstTheSameRegistry(t *testing.T) {
	registry := schema.NewRegistry()
	b := schema.NewBuilder(schema.RegexParser{}, registry, nil)
	rf := data.NewSimpleReplicationFactor(3)

	_, err := b.Build(`CREATE TABLE t (k int PRIMARY KEY)`, "ks", rf, token.Murmur3Partitioner{}, nil)
	require.NoError(t, err)
	_, err = b.Build(`CREATE TABLE t (k int PRIMARY KEY)`, "ks", rf, token.Murmur3Partitioner{}, nil)
	require.NoError(t, err, "building the same schema twice must be a no-op, not a conflict")

	gotRF, ok := registry.KeyspaceRF("ks")
	require.True(t, ok)
	assert.True(t, gotRF.Equal(rf))

	assert.True(t, registry.HasTable("ks", "t"))
	assert.False(t, registry.HasTable("ks", "nonexistent"))
	assert.Equal(t, []string{"t"}, registry.TableNames("ks"))
}

func TestRegistryTableNamesAreSortedAcrossMultipleInstalls(t *testing.T) {
	registry := schema.NewRegistry()
	b := schema.NewBuilder(schema.RegexParser{}, registry, nil)
	rf := data.NewSimpleReplicationFactor(3)

	_, err := b.Build(`CREATE TABLE zebra (k int PRIMARY KEY)`, "ks", rf, token.Murmur3Partitioner{}, nil)
	require.NoError(t, err)
	_, err = b.Build(`CREATE TABLE apple (k int PRIMARY KEY)`, "ks", rf, token.Murmur3Partitioner{}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"apple", "zebra"}, registry.TableNames("ks"))
	assert.Nil(t, registry.TableNames("no-such-keyspace"))
}
