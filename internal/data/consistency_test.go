package data_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cassandra-analytics/bulk-reader/internal/data"
)

func TestBlockForTable(t *testing.T) {
	rf3 := data.NewSimpleReplicationFactor(3)
	rf5 := data.NewSimpleReplicationFactor(5)
	ntsRF := data.NewNetworkTopologyReplicationFactor(map[string]int{"dc1": 3, "dc2": 2})

	cases := []struct {
		level data.ConsistencyLevel
		rf    data.ReplicationFactor
		dc    string
		want  int
	}{
		{data.Any, rf3, "", 1},
		{data.One, rf3, "", 1},
		{data.LocalOne, rf3, "", 1},
		{data.Two, rf3, "", 2},
		{data.Three, rf3, "", 3},
		{data.Quorum, rf3, "", 2},
		{data.Quorum, rf5, "", 3},
		{data.All, rf3, "", 3},
		{data.LocalQuorum, ntsRF, "dc1", 2},
		{data.LocalQuorum, ntsRF, "dc2", 2},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.level.BlockFor(c.rf, c.dc), "%s blockFor(%v, %q)", c.level, c.rf, c.dc)
	}
}

func TestIsDCLocal(t *testing.T) {
	assert.True(t, data.LocalQuorum.IsDCLocal())
	assert.True(t, data.LocalOne.IsDCLocal())
	assert.True(t, data.LocalSerial.IsDCLocal())
	assert.False(t, data.Quorum.IsDCLocal())
	assert.False(t, data.All.IsDCLocal())
}

func TestParseConsistencyLevelRoundTrip(t *testing.T) {
	for _, lvl := range []data.ConsistencyLevel{data.Any, data.One, data.Quorum, data.LocalQuorum, data.EachQuorum} {
		parsed, ok := data.ParseConsistencyLevel(lvl.String())
		assert.True(t, ok)
		assert.Equal(t, lvl, parsed)
	}
}
