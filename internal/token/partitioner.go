package token

import "math/big"

// Partitioner computes a ring Token for a partition key and bounds the
// token space it hashes into. Cassandra ships several partitioners;
// Murmur3Partitioner is the only one in production use and the only one
// implemented here, but the interface keeps the rest of the reader
// partitioner-agnostic.
type Partitioner interface {
	Name() string
	HashToken(partitionKey []byte) Token
	MinToken() Token
	MaxToken() Token
}

// Murmur3Partitioner is Cassandra's default partitioner: tokens are the
// signed 64-bit low word of the Murmur3 128-bit hash of the partition key.
type Murmur3Partitioner struct{}

var _ Partitioner = Murmur3Partitioner{}

func (Murmur3Partitioner) Name() string { return "Murmur3Partitioner" }

func (Murmur3Partitioner) HashToken(partitionKey []byte) Token {
	return HashMurmur3(partitionKey)
}

func (Murmur3Partitioner) MinToken() Token { return Murmur3MinToken }

func (Murmur3Partitioner) MaxToken() Token { return Murmur3MaxToken }

// Split divides the partitioner's full token space into n contiguous,
// non-overlapping Ranges covering [MinToken, MaxToken] exactly once, used
// by the Token Partitioner (component E) to map compute-engine partition
// ids to token sub-ranges.
func Split(p Partitioner, n int) []Range {
	if n <= 0 {
		return nil
	}
	min, max := p.MinToken(), p.MaxToken()
	if n == 1 {
		return []Range{Closed(min, max)}
	}

	span := new(big.Int).Sub(max.BigInt(), min.BigInt())
	step := new(big.Int).Quo(span, big.NewInt(int64(n)))

	ranges := make([]Range, n)
	lower := min
	for i := 0; i < n; i++ {
		var upper Token
		if i == n-1 {
			upper = max
		} else {
			offset := new(big.Int).Mul(step, big.NewInt(int64(i+1)))
			upper = FromBigInt(new(big.Int).Add(min.BigInt(), offset))
		}
		if i == n-1 {
			ranges[i] = Closed(lower, upper)
		} else {
			ranges[i] = ClosedOpen(lower, upper)
		}
		lower = upper
	}
	return ranges
}
