package data_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cassandra-analytics/bulk-reader/internal/data"
)

func TestRFToMapRoundTripSimple(t *testing.T) {
	rf := data.NewSimpleReplicationFactor(3)
	m := rf.RFToMap()
	parsed, err := data.RFFromMap(m)
	require.NoError(t, err)
	assert.True(t, rf.Equal(parsed))
	assert.Equal(t, data.SimpleStrategy, parsed.Strategy)
}

func TestRFToMapRoundTripNetworkTopology(t *testing.T) {
	rf := data.NewNetworkTopologyReplicationFactor(map[string]int{"dc1": 3, "dc2": 2})
	m := rf.RFToMap()
	assert.Contains(t, m["class"], "NetworkTopologyStrategy")
	parsed, err := data.RFFromMap(m)
	require.NoError(t, err)
	assert.True(t, rf.Equal(parsed))
}

func TestRFFromMapRejectsNonPositiveCount(t *testing.T) {
	_, err := data.RFFromMap(map[string]string{
		"class": "org.apache.cassandra.spark.shaded.fourzero.cassandra.locator.NetworkTopologyStrategy",
		"dc1":   "0",
	})
	assert.Error(t, err)
}

func TestSingleDC(t *testing.T) {
	single := data.NewNetworkTopologyReplicationFactor(map[string]int{"dc1": 3})
	dc, ok := single.SingleDC()
	assert.True(t, ok)
	assert.Equal(t, "dc1", dc)

	multi := data.NewNetworkTopologyReplicationFactor(map[string]int{"dc1": 3, "dc2": 2})
	_, ok = multi.SingleDC()
	assert.False(t, ok)

	simple := data.NewSimpleReplicationFactor(3)
	_, ok = simple.SingleDC()
	assert.False(t, ok, "SimpleStrategy never has a SingleDC shortcut")
}

func TestTotal(t *testing.T) {
	assert.Equal(t, 3, data.NewSimpleReplicationFactor(3).Total())
	assert.Equal(t, 5, data.NewNetworkTopologyReplicationFactor(map[string]int{"dc1": 3, "dc2": 2}).Total())
}
