// Package token implements the ring token space: a signed big-integer hash
// value placing a partition key on the cluster's consistent-hash ring, and
// the half-open/closed ranges used to describe ownership over that ring.
package token

import (
	"math/big"

	"github.com/spaolacci/murmur3"
)

// Token is a position on the ring. It is backed by math/big so that
// arithmetic (midpoints, splits) never overflows regardless of the
// partitioner's native width — the Murmur3 partitioner produces signed
// 64-bit values, but comparisons and range splitting must not clip them.
type Token struct {
	v *big.Int
}

// FromInt64 builds a Token from a signed 64-bit value, as produced by the
// Murmur3 partitioner.
func FromInt64(v int64) Token {
	return Token{v: big.NewInt(v)}
}

// FromBigInt builds a Token from an arbitrary-width big integer, as used by
// partitioners with a wider native range (e.g. RandomPartitioner's 127-bit
// MD5 space, not implemented here but representable).
func FromBigInt(v *big.Int) Token {
	return Token{v: new(big.Int).Set(v)}
}

// BigInt returns the underlying big-integer value.
func (t Token) BigInt() *big.Int {
	if t.v == nil {
		return big.NewInt(0)
	}
	return t.v
}

// Cmp compares two tokens: -1 if t < other, 0 if equal, 1 if t > other.
func (t Token) Cmp(other Token) int {
	return t.BigInt().Cmp(other.BigInt())
}

func (t Token) Equal(other Token) bool {
	return t.Cmp(other) == 0
}

func (t Token) Less(other Token) bool {
	return t.Cmp(other) < 0
}

func (t Token) String() string {
	return t.BigInt().String()
}

// Midpoint returns the token halfway between t and other, used by the
// Token Partitioner (component E) to split the ring into equal shares.
func (t Token) Midpoint(other Token) Token {
	sum := new(big.Int).Add(t.BigInt(), other.BigInt())
	return FromBigInt(sum.Rsh(sum, 1))
}

// Murmur3MinToken and Murmur3MaxToken bound the signed 64-bit space produced
// by the Murmur3 partitioner, matching Cassandra's Murmur3Partitioner.
var (
	Murmur3MinToken = FromInt64(-1 << 63)
	Murmur3MaxToken = FromInt64((1 << 63) - 1)
)

// HashMurmur3 computes the signed 64-bit Murmur3 hash of a partition key the
// way Cassandra's Murmur3Partitioner does: the low 64 bits of the 128-bit
// Murmur3 hash, reinterpreted as signed.
func HashMurmur3(partitionKey []byte) Token {
	h1, _ := murmur3.Sum128(partitionKey)
	return FromInt64(int64(h1))
}
