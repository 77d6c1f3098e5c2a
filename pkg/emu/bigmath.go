package emu

import (
	"math/big"

	"github.com/oisee/barfgo/pkg/ir"
)

// toSigned interprets v (assumed already in [0, 2^w)) as a two's
// complement signed integer of width w.
func toSigned(v *big.Int, w ir.Width) *big.Int {
	if w == 0 {
		return new(big.Int).Set(v)
	}
	signBit := new(big.Int).Lsh(big.NewInt(1), uint(w-1))
	if v.Cmp(signBit) >= 0 {
		full := new(big.Int).Lsh(big.NewInt(1), uint(w))
		return new(big.Int).Sub(v, full)
	}
	return new(big.Int).Set(v)
}

// fromSigned encodes a (possibly negative) signed value back into its
// two's complement representation at width w. math/big's bitwise ops
// treat negative values as having an infinite two's-complement
// representation, so masking with the width-w bit mask is sufficient.
func fromSigned(v *big.Int, w ir.Width) *big.Int {
	return ir.Truncate(v, w)
}

func bigOne() *big.Int { return big.NewInt(1) }
