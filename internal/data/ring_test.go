package data_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cassandra-analytics/bulk-reader/internal/data"
	"github.com/cassandra-analytics/bulk-reader/internal/token"
)

func tok(v int64) token.Token { return token.FromInt64(v) }

func threeNodes() []data.Instance {
	return []data.Instance{
		data.NewInstance("n1", "", "dc1"),
		data.NewInstance("n2", "", "dc1"),
		data.NewInstance("n3", "", "dc1"),
	}
}

func TestNewRingRejectsGapOrMismatchedRF(t *testing.T) {
	p := token.Murmur3Partitioner{}
	rf := data.NewSimpleReplicationFactor(3)

	_, err := data.NewRing(p, rf, []data.SubRangeSpec{
		{Range: token.Closed(p.MinToken(), p.MaxToken()), Replicas: threeNodes()[:2]},
	})
	assert.Error(t, err, "a sub-range with fewer replicas than the RF total must be rejected")

	mid := p.MinToken().Midpoint(p.MaxToken())
	_, err = data.NewRing(p, rf, []data.SubRangeSpec{
		{Range: token.ClosedOpen(tok(1), mid), Replicas: threeNodes()}, // gap before tok(1)
		{Range: token.Closed(mid, p.MaxToken()), Replicas: threeNodes()},
	})
	assert.Error(t, err, "a ring that does not start at MinToken must be rejected")
}

func TestNewRingBuildsAndSubRangesInFindsAPointLookup(t *testing.T) {
	p := token.Murmur3Partitioner{}
	rf := data.NewSimpleReplicationFactor(3)
	mid := p.MinToken().Midpoint(p.MaxToken())
	nodes := threeNodes()

	ring, err := data.NewRing(p, rf, []data.SubRangeSpec{
		{Range: token.ClosedOpen(p.MinToken(), mid), Replicas: nodes},
		{Range: token.Closed(mid, p.MaxToken()), Replicas: nodes},
	})
	require.NoError(t, err)

	got := ring.SubRangesIn(token.Closed(p.MinToken(), p.MinToken()))
	require.Len(t, got, 1)
	require.Len(t, got[0].Replicas, 3)
	assert.Equal(t, "n1", got[0].Replicas[0].NodeName)

	got = ring.SubRangesIn(token.Closed(p.MaxToken(), p.MaxToken()))
	require.Len(t, got, 1)
	require.Len(t, got[0].Replicas, 3)
}

func TestSubRangesInRestrictsToEngineRange(t *testing.T) {
	p := token.Murmur3Partitioner{}
	rf := data.NewSimpleReplicationFactor(3)
	nodes := threeNodes()

	third := new(bigThird).value(p)
	ring, err := data.NewRing(p, rf, []data.SubRangeSpec{
		{Range: token.ClosedOpen(p.MinToken(), third[0]), Replicas: nodes},
		{Range: token.ClosedOpen(third[0], third[1]), Replicas: nodes},
		{Range: token.Closed(third[1], p.MaxToken()), Replicas: nodes},
	})
	require.NoError(t, err)

	engineRange := token.Closed(p.MinToken(), third[0])
	subRanges := ring.SubRangesIn(engineRange)
	// engineRange overlaps the first sub-range fully and touches the second
	// at a single point only if that point is inclusive on both sides; the
	// first sub-range is half-open at third[0] so only one sub-range should
	// intersect with more than a point.
	require.NotEmpty(t, subRanges)
	for _, sr := range subRanges {
		assert.True(t, sr.Range.Lower.Cmp(engineRange.Upper) <= 0)
	}
}

type bigThird struct{}

func (bigThird) value(p token.Partitioner) [2]token.Token {
	mid := p.MinToken().Midpoint(p.MaxToken())
	q1 := p.MinToken().Midpoint(mid)
	q3 := mid.Midpoint(p.MaxToken())
	return [2]token.Token{q1, q3}
}
