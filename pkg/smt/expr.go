// Package smt translates concrete IR sequences into SMT-LIB v2
// assertions and supervises an external solver subprocess that
// decides them (spec §4.5). Grounded on
// _examples/original_source/barf/core/smt/smtlibv2.py's Symbol/BitVec
// classes, which build each expression as an already-rendered
// S-expression string rather than a generic AST — adopted here
// because the translator only ever needs to print expressions, never
// to inspect or rewrite their structure.
package smt

import (
	"fmt"
	"math/big"
)

// Expr is a rendered SMT-LIB v2 expression (bitvector or boolean).
// Unlike a structured AST, an Expr is opaque once built: named
// constructors are the only way to produce one, mirroring
// smtlibv2.py's Symbol, whose value is assembled once at
// construction time and never decomposed again.
type Expr string

func (e Expr) String() string { return string(e) }

// Sym references a previously declared symbol by name.
func Sym(name string) Expr { return Expr(name) }

// BV renders an unsigned bitvector literal of the given width.
func BV(width uint, value *big.Int) Expr {
	v := new(big.Int).Set(value)
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), width), big.NewInt(1))
	v.And(v, mask)
	return Expr(fmt.Sprintf("(_ bv%s %d)", v.String(), width))
}

// BVU renders an unsigned bitvector literal from a uint64.
func BVU(width uint, value uint64) Expr {
	return BV(width, new(big.Int).SetUint64(value))
}

// BoolConst renders a boolean literal.
func BoolConst(b bool) Expr {
	if b {
		return Expr("true")
	}
	return Expr("false")
}

func binop(op string, a, b Expr) Expr {
	return Expr(fmt.Sprintf("(%s %s %s)", op, a, b))
}

func unop(op string, a Expr) Expr {
	return Expr(fmt.Sprintf("(%s %s)", op, a))
}

// Bitvector arithmetic and bitwise operators (spec §4.5's expression
// algebra, one constructor per IR mnemonic family).
func BVAdd(a, b Expr) Expr  { return binop("bvadd", a, b) }
func BVSub(a, b Expr) Expr  { return binop("bvsub", a, b) }
func BVMul(a, b Expr) Expr  { return binop("bvmul", a, b) }
func BVUDiv(a, b Expr) Expr { return binop("bvudiv", a, b) }
func BVURem(a, b Expr) Expr { return binop("bvurem", a, b) }
func BVSDiv(a, b Expr) Expr { return binop("bvsdiv", a, b) }
func BVSRem(a, b Expr) Expr { return binop("bvsrem", a, b) }
func BVAnd(a, b Expr) Expr  { return binop("bvand", a, b) }
func BVOr(a, b Expr) Expr   { return binop("bvor", a, b) }
func BVXor(a, b Expr) Expr  { return binop("bvxor", a, b) }
func BVShl(a, b Expr) Expr  { return binop("bvshl", a, b) }
func BVLShr(a, b Expr) Expr { return binop("bvlshr", a, b) }
func BVAShr(a, b Expr) Expr { return binop("bvashr", a, b) }
func BVNeg(a Expr) Expr     { return unop("bvneg", a) }
func BVNot(a Expr) Expr     { return unop("bvnot", a) }

// Eq renders a width-agnostic equality (used both for bitvector and
// boolean operands).
func Eq(a, b Expr) Expr { return binop("=", a, b) }

// Ite renders a ternary if-then-else over any sort.
func Ite(c, t, e Expr) Expr {
	return Expr(fmt.Sprintf("(ite %s %s %s)", c, t, e))
}

// Extract renders a bit-slice [hi:lo] (inclusive), SMT-LIB's
// "(_ extract hi lo)" indexed operator.
func Extract(hi, lo uint, a Expr) Expr {
	return Expr(fmt.Sprintf("((_ extract %d %d) %s)", hi, lo, a))
}

// ZeroExtend widens a by n additional zero bits.
func ZeroExtend(n uint, a Expr) Expr {
	return Expr(fmt.Sprintf("((_ zero_extend %d) %s)", n, a))
}

// SignExtend widens a by n additional sign bits.
func SignExtend(n uint, a Expr) Expr {
	return Expr(fmt.Sprintf("((_ sign_extend %d) %s)", n, a))
}

// Concat renders bitvector concatenation (hi . lo), used to compose a
// masked sub-register write back into its base register.
func Concat(hi, lo Expr) Expr { return binop("concat", hi, lo) }

// Select/Store render SMT-LIB array theory operations, used to model
// byte-addressable memory as an (Array (_ BitVec addrWidth) (_ BitVec 8)).
func Select(array, index Expr) Expr      { return binop("select", array, index) }
func Store(array, index, value Expr) Expr { return Expr(fmt.Sprintf("(store %s %s %s)", array, index, value)) }

// Boolean connectives.
func BoolAnd(a, b Expr) Expr { return binop("and", a, b) }
func BoolOr(a, b Expr) Expr  { return binop("or", a, b) }
func BoolNot(a Expr) Expr    { return unop("not", a) }
func BVUlt(a, b Expr) Expr   { return binop("bvult", a, b) }
func BVUle(a, b Expr) Expr   { return binop("bvule", a, b) }
func BVSlt(a, b Expr) Expr   { return binop("bvslt", a, b) }
func BVSle(a, b Expr) Expr   { return binop("bvsle", a, b) }

// IsZero renders "the value equals the zero bitvector of width w",
// the SMT counterpart of IR's BISZ.
func IsZero(a Expr, w uint) Expr { return Eq(a, BVU(w, 0)) }
