package x86

import "github.com/oisee/barfgo/pkg/ir"

// extractBit returns a fresh width-1 IR temporary holding bit index of
// src (an operand of width srcW), via a logical right shift by index
// followed by a truncating STR (spec §4.2 step 3's boolean-width flag
// temporaries). The shift must land at srcW, not width 1: BSH reduces
// its shift magnitude modulo the *destination* width (the Open
// Question resolution in SPEC_FULL.md §9), so shifting straight into
// a width-1 destination would corrupt any index other than 0.
func (t *Translator) extractBit(src ir.Operand, srcW ir.Width, index int) ir.Operand {
	shifted := t.b.Temporal(srcW)
	shiftAmt := t.b.Immediate(negImm(index, srcW), srcW)
	t.b.Add(ir.BSH, src, shiftAmt, shifted)

	bit := t.b.Temporal(ir.Width1)
	t.b.Add(ir.STR, shifted, ir.EmptyOperand{}, bit)
	return bit
}

// negImm encodes -n as a two's complement value of width w, for use
// as a BSH shift-amount operand (negative = logical right shift).
func negImm(n int, w ir.Width) uint64 {
	if w >= 64 {
		return -uint64(n)
	}
	full := uint64(1) << uint(w)
	return (full - uint64(n)) % full
}

func (t *Translator) xor1(a, b ir.Operand) ir.Operand {
	out := t.b.Temporal(ir.Width1)
	t.b.Add(ir.XOR, a, b, out)
	return out
}

func (t *Translator) and1(a, b ir.Operand) ir.Operand {
	out := t.b.Temporal(ir.Width1)
	t.b.Add(ir.AND, a, b, out)
	return out
}

func (t *Translator) bisz1(a ir.Operand) ir.Operand {
	out := t.b.Temporal(ir.Width1)
	t.b.Add(ir.BISZ, a, ir.EmptyOperand{}, out)
	return out
}

// parity8 computes the PF recipe: XOR-reduction of the low byte,
// complemented by BISZ (even parity => PF=1), per spec §4.2 step 3.
func (t *Translator) parity8(result ir.Operand, w ir.Width) ir.Operand {
	lowByte := t.b.Temporal(ir.Width8)
	t.b.Add(ir.STR, result, ir.EmptyOperand{}, lowByte)

	acc := t.extractBit(lowByte, ir.Width8, 0)
	for i := 1; i < 8; i++ {
		acc = t.xor1(acc, t.extractBit(lowByte, ir.Width8, i))
	}
	return t.bisz1(acc)
}

// writeFlag stores a width-1 IR value into a persistent x86 flag
// register (ZF/CF/SF/OF/PF — see regs.go's doc comment on why flags
// are modeled as their own base registers).
func (t *Translator) writeFlag(name string, value ir.Operand) {
	t.b.Add(ir.STR, value, ir.EmptyOperand{}, ir.RegisterOperand{Name: name, W: ir.Width1})
}

// addSubFlags computes and persists ZF/CF/SF/OF/PF for an ADD or SUB
// at width w, given the already-materialized operands a, b and the
// width-(w+1) "wide" result computed by the caller (spec §4.2 step 2:
// "widths large enough to preserve carry/overflow, typically
// destination width +1 for additive ops").
func (t *Translator) addSubFlags(isSub bool, a, b, wide ir.Operand, w ir.Width) {
	narrow := t.b.Temporal(w)
	t.b.Add(ir.STR, wide, ir.EmptyOperand{}, narrow)

	cf := t.extractBit(wide, w+1, int(w))
	zf := t.bisz1(narrow)
	sf := t.extractBit(narrow, w, int(w)-1)
	pf := t.parity8(narrow, w)

	signA := t.extractBit(a, w, int(w)-1)
	signB := t.extractBit(b, w, int(w)-1)

	var of ir.Operand
	if isSub {
		of = t.and1(t.xor1(signA, signB), t.xor1(sf, signA))
	} else {
		of = t.and1(t.bisz1(t.xor1(signA, signB)), t.xor1(sf, signA))
	}

	t.writeFlag("CF", cf)
	t.writeFlag("ZF", zf)
	t.writeFlag("SF", sf)
	t.writeFlag("OF", of)
	t.writeFlag("PF", pf)
}

// logicFlags computes and persists flags for AND/OR/XOR/TEST: CF and
// OF are cleared, SF/ZF/PF follow the result (spec-standard x86
// behavior for logical instructions; not separately itemized in
// spec §4.2 because it's a restatement of the same ZF/SF/PF recipes
// with CF/OF pinned to 0).
func (t *Translator) logicFlags(result ir.Operand, w ir.Width) {
	zero := t.b.Immediate(0, ir.Width1)
	zf := t.bisz1(result)
	sf := t.extractBit(result, w, int(w)-1)
	pf := t.parity8(result, w)

	t.writeFlag("CF", zero)
	t.writeFlag("OF", zero)
	t.writeFlag("ZF", zf)
	t.writeFlag("SF", sf)
	t.writeFlag("PF", pf)
}
