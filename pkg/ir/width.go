package ir

import "math/big"

// Width is the bit width of an operand or IR value. Arithmetic on a
// value of width w is implicitly modulo 2^w.
type Width uint16

// Admissible architectural widths (spec §3).
const (
	Width1   Width = 1
	Width8   Width = 8
	Width16  Width = 16
	Width32  Width = 32
	Width40  Width = 40
	Width64  Width = 64
	Width72  Width = 72
	Width128 Width = 128
	Width256 Width = 256
)

var admissibleWidths = map[Width]bool{
	Width1: true, Width8: true, Width16: true, Width32: true, Width40: true,
	Width64: true, Width72: true, Width128: true, Width256: true,
}

// Valid reports whether w is one of the admissible architectural widths.
func (w Width) Valid() bool {
	return admissibleWidths[w]
}

// mask returns (1<<w)-1 as a big.Int, used to truncate values to width w.
func mask(w Width) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), uint(w))
	return m.Sub(m, big.NewInt(1))
}

// Truncate returns v masked down to w bits. v is never mutated.
func Truncate(v *big.Int, w Width) *big.Int {
	out := new(big.Int).And(v, mask(w))
	return out
}
