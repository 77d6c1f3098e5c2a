package x86

import "github.com/oisee/barfgo/pkg/ir"

// liftAdd lifts ADD dst, src (spec §4.2): compute at dst width + 1 to
// capture carry, truncate to the real result, persist flags, write back.
func (t *Translator) liftAdd(dst, src Operand) {
	w := dst.Width()
	a := t.readOperand(dst)
	b := t.readOperand(src)

	wide := t.b.Temporal(w + 1)
	t.b.Add(ir.ADD, a, b, wide)
	t.addSubFlags(false, a, b, wide, w)

	result := t.b.Temporal(w)
	t.b.Add(ir.STR, wide, ir.EmptyOperand{}, result)
	t.writeOperand(dst, result)
}

// liftSub lifts SUB dst, src, and liftCmp reuses it without the write-back.
func (t *Translator) liftSub(dst, src Operand, writeBack bool) {
	w := dst.Width()
	a := t.readOperand(dst)
	b := t.readOperand(src)

	wide := t.b.Temporal(w + 1)
	t.b.Add(ir.SUB, a, b, wide)
	t.addSubFlags(true, a, b, wide, w)

	if writeBack {
		result := t.b.Temporal(w)
		t.b.Add(ir.STR, wide, ir.EmptyOperand{}, result)
		t.writeOperand(dst, result)
	}
}

// liftLogic lifts AND/OR/XOR dst, src and (via writeBack=false) TEST.
func (t *Translator) liftLogic(mnemonic ir.Mnemonic, dst, src Operand, writeBack bool) {
	w := dst.Width()
	a := t.readOperand(dst)
	b := t.readOperand(src)

	result := t.b.Temporal(w)
	t.b.Add(mnemonic, a, b, result)
	t.logicFlags(result, w)

	if writeBack {
		t.writeOperand(dst, result)
	}
}

// liftNot lifts NOT dst as XOR dst, -1 (no architectural flags).
func (t *Translator) liftNot(dst Operand) {
	w := dst.Width()
	a := t.readOperand(dst)
	allOnes := t.b.Immediate((uint64(1)<<uint(w))-1, w)
	result := t.b.Temporal(w)
	t.b.Add(ir.XOR, a, allOnes, result)
	t.writeOperand(dst, result)
}

// liftNeg lifts NEG dst as SUB 0, dst with flags, writing the result
// back to dst. CF is the borrow of the (w+1)-bit 0 - dst, so it is 1
// unless the operand was zero.
func (t *Translator) liftNeg(dst Operand) {
	w := dst.Width()
	zero := t.b.Immediate(0, w)
	a := t.readOperand(dst)

	wide := t.b.Temporal(w + 1)
	t.b.Add(ir.SUB, zero, a, wide)
	t.addSubFlags(true, zero, a, wide, w)

	result := t.b.Temporal(w)
	t.b.Add(ir.STR, wide, ir.EmptyOperand{}, result)
	t.writeOperand(dst, result)
}

// liftIncDec lifts INC/DEC dst as ADD/SUB dst, 1 but leaves CF
// untouched, per x86 semantics; ZF/SF/OF/PF still follow the result.
func (t *Translator) liftIncDec(dst Operand, isDec bool) {
	w := dst.Width()
	a := t.readOperand(dst)
	one := t.b.Immediate(1, w)

	wide := t.b.Temporal(w + 1)
	if isDec {
		t.b.Add(ir.SUB, a, one, wide)
	} else {
		t.b.Add(ir.ADD, a, one, wide)
	}

	result := t.b.Temporal(w)
	t.b.Add(ir.STR, wide, ir.EmptyOperand{}, result)

	zf := t.bisz1(result)
	sf := t.extractBit(result, w, int(w)-1)
	pf := t.parity8(result, w)
	signA := t.extractBit(a, w, int(w)-1)
	var of ir.Operand
	if isDec {
		of = t.and1(t.xor1(signA, t.extractBit(one, w, int(w)-1)), t.xor1(sf, signA))
	} else {
		of = t.and1(t.bisz1(t.xor1(signA, t.extractBit(one, w, int(w)-1))), t.xor1(sf, signA))
	}
	t.writeFlag("ZF", zf)
	t.writeFlag("SF", sf)
	t.writeFlag("OF", of)
	t.writeFlag("PF", pf)

	t.writeOperand(dst, result)
}

// liftMul lifts the two-operand IMUL/MUL dst, src form, computing the
// product at double width and truncating to dst's width on write-back
// (spec §4.2 step 2's "doubled for multiplicative" sizing rule).
func (t *Translator) liftMul(dst, src Operand) {
	w := dst.Width()
	a := t.readOperand(dst)
	b := t.readOperand(src)

	wide := t.b.Temporal(w * 2)
	t.b.Add(ir.MUL, a, b, wide)

	result := t.b.Temporal(w)
	t.b.Add(ir.STR, wide, ir.EmptyOperand{}, result)
	t.writeOperand(dst, result)

	// CF/OF set iff the upper half is not the sign extension of the
	// low half; approximated here as "upper half is nonzero". The
	// shift must land at width w*2 before truncating to w: BSH reduces
	// its magnitude modulo the destination width, so shifting straight
	// into a w-wide destination (mod w) would corrupt the shift by w.
	upperWide := t.b.Temporal(w * 2)
	shiftAmt := t.b.Immediate(negImm(int(w), w*2), w*2)
	t.b.Add(ir.BSH, wide, shiftAmt, upperWide)
	upper := t.b.Temporal(w)
	t.b.Add(ir.STR, upperWide, ir.EmptyOperand{}, upper)
	nz := t.xor1(t.bisz1(upper), t.b.Immediate(1, ir.Width1))
	t.writeFlag("CF", nz)
	t.writeFlag("OF", nz)
}

// liftDiv lifts DIV/IDIV src, dividing dst (the accumulator, e.g. EAX)
// by src and writing the quotient to dst and the remainder to rem
// (EDX), faulting on division by zero via the emulator's own
// FaultZeroDivision (spec §4.3): the lifter just emits the DIV/MOD (or
// SDIV/SMOD) IR op and lets the emulator's divide-by-zero check fire
// at run time.
func (t *Translator) liftDiv(dst, src, rem Operand, signed bool) {
	w := dst.Width()
	a := t.readOperand(dst)
	b := t.readOperand(src)

	quot := t.b.Temporal(w)
	remainder := t.b.Temporal(w)
	if signed {
		t.b.Add(ir.SDIV, a, b, quot)
		t.b.Add(ir.SMOD, a, b, remainder)
	} else {
		t.b.Add(ir.DIV, a, b, quot)
		t.b.Add(ir.MOD, a, b, remainder)
	}
	t.writeOperand(dst, quot)
	t.writeOperand(rem, remainder)
}

// liftShift lifts SHL/SHR/SAR dst, count via BSH: SHL is a positive
// shift amount, SHR/SAR a negative one (magnitude = count); SAR
// additionally sign-extends dst to double width before shifting so the
// logical right shift BSH performs fills in copies of the sign bit.
func (t *Translator) liftShift(dst, count Operand, kind string) {
	w := dst.Width()
	a := t.readOperand(dst)
	c := t.readOperand(count)

	var result ir.Operand
	switch kind {
	case "shl":
		result = t.b.Temporal(w)
		t.b.Add(ir.BSH, a, c, result)
	case "shr":
		negC := t.negateShift(c, count.Width())
		result = t.b.Temporal(w)
		t.b.Add(ir.BSH, a, negC, result)
	case "sar":
		wide := t.b.Temporal(w * 2)
		t.b.Add(ir.SEXT, a, ir.EmptyOperand{}, wide)
		negC := t.negateShift(c, count.Width())
		shifted := t.b.Temporal(w * 2)
		t.b.Add(ir.BSH, wide, negC, shifted)
		result = t.b.Temporal(w)
		t.b.Add(ir.STR, shifted, ir.EmptyOperand{}, result)
	}

	zf := t.bisz1(result)
	sf := t.extractBit(result, w, int(w)-1)
	pf := t.parity8(result, w)
	t.writeFlag("ZF", zf)
	t.writeFlag("SF", sf)
	t.writeFlag("PF", pf)

	t.writeOperand(dst, result)
}

// negateShift computes the two's-complement negation of a shift-amount
// operand, so a BSH sees it as a right shift.
func (t *Translator) negateShift(c ir.Operand, w ir.Width) ir.Operand {
	zero := t.b.Immediate(0, w)
	neg := t.b.Temporal(w)
	t.b.Add(ir.SUB, zero, c, neg)
	return neg
}

// liftLea computes a memory operand's effective address and stores it
// directly into dst, without touching memory.
func (t *Translator) liftLea(dst Operand, mem Memory) {
	addr := t.effectiveAddress(mem)
	t.writeOperand(dst, addr)
}
