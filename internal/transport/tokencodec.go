package transport

import (
	"math/big"

	"github.com/cassandra-analytics/bulk-reader/internal/token"
)

// bigIntString parses the decimal token strings the wire messages carry,
// since JSON has no big-integer type and token.Token is arbitrary-width.
type bigIntString struct{}

func (bigIntString) parse(s string) (token.Token, bool) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return token.Token{}, false
	}
	return token.FromBigInt(v), true
}

func tokenToString(t token.Token) string {
	return t.String()
}
