package smt

import (
	"fmt"

	"github.com/oisee/barfgo/pkg/ir"
)

// ssaState tracks the SSA version counter for every base register and
// for memory (spec §3's "SSA name state": get_init/get_curr/get_next).
type ssaState struct {
	versions   map[string]int
	declared   map[string]bool
	memVersion int
	anonCount  int
}

func newSSAState() *ssaState {
	return &ssaState{versions: make(map[string]int), declared: make(map[string]bool)}
}

func (s *ssaState) name(base string, version int) string {
	return fmt.Sprintf("%s_%d", base, version)
}

// curr returns name_k for the current version of base (name_0 the
// first time it's seen).
func (s *ssaState) curr(base string) string {
	return s.name(base, s.versions[base])
}

// next increments base's version counter and returns the new name.
func (s *ssaState) next(base string) string {
	s.versions[base]++
	return s.name(base, s.versions[base])
}

func (s *ssaState) memCurr() string { return fmt.Sprintf("MEM_%d", s.memVersion) }
func (s *ssaState) memNext() string {
	s.memVersion++
	return s.memCurr()
}

func (s *ssaState) anon() string {
	s.anonCount++
	return fmt.Sprintf("anon_%d", s.anonCount)
}

// Translator converts a lifted IR sequence into SMT-LIB v2 assertions
// pushed to a Supervisor, using SSA naming (spec §4.5). Grounded on
// the architecture-neutral register file model shared with
// pkg/emu.RegisterFile: both translate sub-register reads/writes
// through the same ir.AliasMap, one by concrete masked-OR, the other
// by symbolic Extract/Concat.
type Translator struct {
	sup        *Supervisor
	aliases    ir.AliasMap
	baseWidths map[string]ir.Width
	addrWidth  ir.Width
	ssa        *ssaState
}

// NewTranslator returns a Translator that declares symbols and asserts
// constraints on sup as it walks IR sequences.
func NewTranslator(sup *Supervisor, aliases ir.AliasMap, baseWidths map[string]ir.Width, addrWidth ir.Width) *Translator {
	return &Translator{
		sup:        sup,
		aliases:    aliases,
		baseWidths: baseWidths,
		addrWidth:  addrWidth,
		ssa:        newSSAState(),
	}
}

// resolveBase maps a register name to its owning base register, bit
// offset, and width — the identical decomposition
// pkg/emu.RegisterFile.baseOf performs for concrete execution.
func (t *Translator) resolveBase(name string, fallback ir.Width) (base string, offset, width ir.Width) {
	if a, ok := t.aliases.Resolve(name); ok {
		return a.Base, a.Offset, a.Width
	}
	return name, 0, fallback
}

func (t *Translator) baseWidth(base string, fallback ir.Width) ir.Width {
	if w, ok := t.baseWidths[base]; ok {
		return w
	}
	return fallback
}

func adjustWidth(e Expr, from, to ir.Width) Expr {
	if to == from {
		return e
	}
	if to > from {
		return ZeroExtend(uint(to-from), e)
	}
	return Extract(uint(to)-1, 0, e)
}

// exprOf reads a source operand's current SMT value, materializing a
// sub-register read as an Extract over its base's current SSA symbol.
func (t *Translator) exprOf(op ir.Operand) (Expr, ir.Width, error) {
	switch o := op.(type) {
	case ir.ImmediateOperand:
		return BV(uint(o.W), o.Value), o.W, nil
	case ir.RegisterOperand:
		base, offset, width := t.resolveBase(o.Name, o.W)
		baseW := t.baseWidth(base, width)
		if err := t.declareBase(base, baseW); err != nil {
			return "", 0, err
		}
		curr := Sym(t.ssa.curr(base))
		if offset == 0 && width == baseW {
			return curr, width, nil
		}
		hi := uint(offset) + uint(width) - 1
		return Extract(hi, uint(offset), curr), width, nil
	case ir.EmptyOperand:
		return "", 0, nil
	default:
		return "", 0, fmt.Errorf("smt: unsupported operand kind %T", op)
	}
}

func (t *Translator) declareBase(base string, width ir.Width) error {
	if t.ssa.declared[base] {
		return nil
	}
	name := t.ssa.name(base, 0)
	if _, err := t.sup.MkBitVec(uint(width), name); err != nil {
		return err
	}
	t.ssa.declared[base] = true
	return nil
}

// writeBase asserts a new SSA version of dst's base register equal to
// value (width-matched to dst's own width), preserving the untouched
// bit ranges of the base for a sub-register destination (spec §4.5:
// "two-range constraint when 0 < offset < width − sub_width,
// single-range constraint at either end").
func (t *Translator) writeBase(dst ir.Operand, value Expr, valueWidth ir.Width) error {
	reg, ok := dst.(ir.RegisterOperand)
	if !ok {
		return fmt.Errorf("smt: destination operand is not a register")
	}
	base, offset, width := t.resolveBase(reg.Name, reg.W)
	baseW := t.baseWidth(base, width)
	if err := t.declareBase(base, baseW); err != nil {
		return err
	}

	var newBase Expr
	switch {
	case offset == 0 && width == baseW:
		newBase = value
	case offset == 0:
		hi := uint(width)
		top := Extract(uint(baseW)-1, hi, Sym(t.ssa.curr(base)))
		newBase = Concat(top, value)
	case uint(offset)+uint(width) == uint(baseW):
		bottom := Extract(uint(offset)-1, 0, Sym(t.ssa.curr(base)))
		newBase = Concat(value, bottom)
	default:
		old := Sym(t.ssa.curr(base))
		top := Extract(uint(baseW)-1, uint(offset)+uint(width), old)
		bottom := Extract(uint(offset)-1, 0, old)
		newBase = Concat(Concat(top, value), bottom)
	}

	nextName := t.ssa.next(base)
	if _, err := t.sup.MkBitVec(uint(baseW), nextName); err != nil {
		return err
	}
	return t.sup.Assert(Eq(Sym(nextName), newBase), "")
}

// Translate walks seq in order, asserting each instruction's
// semantics (spec §4.5). JCC, RET, NOP emit no assertions.
func (t *Translator) Translate(seq []ir.Instruction) error {
	for _, instr := range seq {
		if err := t.translateOne(instr); err != nil {
			return err
		}
	}
	return nil
}

func (t *Translator) translateOne(instr ir.Instruction) error {
	w0, w1, w2 := instr.Op0.Width(), instr.Op1.Width(), instr.Op2.Width()

	switch instr.Mnemonic {
	case ir.JCC, ir.RET, ir.NOP:
		return nil

	case ir.UNKN:
		return fmt.Errorf("smt: UNKN instruction at %#x is untranslatable", instr.Address)

	case ir.UNDEF:
		name := t.ssa.anon()
		if _, err := t.sup.MkBitVec(uint(w2), name); err != nil {
			return err
		}
		return t.writeBase(instr.Op2, Sym(name), w2)

	case ir.STR:
		a, _, err := t.exprOf(instr.Op0)
		if err != nil {
			return err
		}
		return t.writeBase(instr.Op2, adjustWidth(a, w0, w2), w2)

	case ir.BISZ:
		a, _, err := t.exprOf(instr.Op0)
		if err != nil {
			return err
		}
		result := Ite(IsZero(a, uint(w0)), BVU(uint(w2), 1), BVU(uint(w2), 0))
		return t.writeBase(instr.Op2, result, w2)

	case ir.SEXT:
		if w0 > w2 {
			return fmt.Errorf("smt: SEXT at %#x: source wider than destination", instr.Address)
		}
		a, _, err := t.exprOf(instr.Op0)
		if err != nil {
			return err
		}
		return t.writeBase(instr.Op2, SignExtend(uint(w2-w0), a), w2)

	case ir.ADD, ir.SUB, ir.MUL, ir.AND, ir.OR, ir.XOR:
		a, _, err := t.exprOf(instr.Op0)
		if err != nil {
			return err
		}
		b, _, err := t.exprOf(instr.Op1)
		if err != nil {
			return err
		}
		a = adjustWidth(a, w0, w2)
		b = adjustWidth(b, w1, w2)

		var result Expr
		switch instr.Mnemonic {
		case ir.ADD:
			result = BVAdd(a, b)
		case ir.SUB:
			result = BVSub(a, b)
		case ir.MUL:
			result = BVMul(a, b)
		case ir.AND:
			result = BVAnd(a, b)
		case ir.OR:
			result = BVOr(a, b)
		case ir.XOR:
			result = BVXor(a, b)
		}
		return t.writeBase(instr.Op2, result, w2)

	case ir.DIV, ir.MOD, ir.SDIV, ir.SMOD:
		a, _, err := t.exprOf(instr.Op0)
		if err != nil {
			return err
		}
		b, _, err := t.exprOf(instr.Op1)
		if err != nil {
			return err
		}
		var result Expr
		switch instr.Mnemonic {
		case ir.DIV:
			result = BVUDiv(a, b)
		case ir.MOD:
			result = BVURem(a, b)
		case ir.SDIV:
			result = BVSDiv(a, b)
		case ir.SMOD:
			result = BVSRem(a, b)
		}
		return t.writeBase(instr.Op2, result, w2)

	case ir.BSH:
		a, _, err := t.exprOf(instr.Op0)
		if err != nil {
			return err
		}
		amt, _, err := t.exprOf(instr.Op1)
		if err != nil {
			return err
		}
		// The shift runs at the widest of the three widths, with op1
		// sign-extended, so the amount keeps the signed reading
		// opcodes.go's bsh gives it; the result is then cut to w2.
		ww := w2
		if w0 > ww {
			ww = w0
		}
		if w1 > ww {
			ww = w1
		}
		a = adjustWidth(a, w0, ww)
		if w1 < ww {
			amt = SignExtend(uint(ww-w1), amt)
		}

		// Shift magnitude reduces modulo the destination width, the
		// same rule opcodes.go's bsh applies, so bvshl/bvlshr (which
		// zero out for a shift amount >= bitwidth) stay consistent
		// with the concrete emulator for any magnitude >= w2.
		isNeg := BVSlt(amt, BVU(uint(ww), 0))
		magnitude := Ite(isNeg, BVSub(BVU(uint(ww), 0), amt), amt)
		reduced := BVURem(magnitude, BVU(uint(ww), uint64(w2)))
		result := Ite(isNeg, BVLShr(a, reduced), BVShl(a, reduced))
		return t.writeBase(instr.Op2, adjustWidth(result, ww, w2), w2)

	case ir.LDM:
		return t.translateLDM(instr, w2)

	case ir.STM:
		return t.translateSTM(instr, w0)

	default:
		return fmt.Errorf("smt: unrecognized mnemonic %s at %#x", instr.Mnemonic, instr.Address)
	}
}

// translateLDM builds dst by concatenating per-byte selects from the
// current memory array (spec §4.5: "dst[8·i+7:8·i] = select(MEM_k,
// addr+i)"); concatenating the per-byte reads top-to-bottom is
// equivalent to asserting each byte range individually but needs only
// one assertion on the destination.
func (t *Translator) translateLDM(instr ir.Instruction, w2 ir.Width) error {
	addr, _, err := t.exprOf(instr.Op0)
	if err != nil {
		return err
	}
	if err := t.declareMemory(); err != nil {
		return err
	}
	mem := Sym(t.ssa.memCurr())

	nbytes := (int(w2) + 7) / 8
	var value Expr
	for i := nbytes - 1; i >= 0; i-- {
		byteAddr := BVAdd(adjustWidth(addr, instr.Op0.Width(), t.addrWidth), BVU(uint(t.addrWidth), uint64(i)))
		byteVal := Select(mem, byteAddr)
		if value == "" {
			value = byteVal
		} else {
			value = Concat(value, byteVal)
		}
	}
	fullWidth := ir.Width(nbytes * 8)
	return t.writeBase(instr.Op2, adjustWidth(value, fullWidth, w2), w2)
}

// translateSTM bumps the memory version and asserts
// MEM_{k+1} = store(store(...store(MEM_k, addr+0, src[7:0])...),
// addr+n, src[top:]) (spec §4.5).
func (t *Translator) translateSTM(instr ir.Instruction, w0 ir.Width) error {
	src, _, err := t.exprOf(instr.Op0)
	if err != nil {
		return err
	}
	addr, _, err := t.exprOf(instr.Op2)
	if err != nil {
		return err
	}
	if err := t.declareMemory(); err != nil {
		return err
	}

	addrAdj := adjustWidth(addr, instr.Op2.Width(), t.addrWidth)
	mem := Sym(t.ssa.memCurr())
	nbytes := (int(w0) + 7) / 8
	for i := 0; i < nbytes; i++ {
		byteAddr := BVAdd(addrAdj, BVU(uint(t.addrWidth), uint64(i)))
		byteVal := Extract(uint(i)*8+7, uint(i)*8, src)
		mem = Store(mem, byteAddr, byteVal)
	}

	next := t.ssa.memNext()
	if _, err := t.sup.MkArray(uint(t.addrWidth), next); err != nil {
		return err
	}
	return t.sup.Assert(Eq(Sym(next), mem), "")
}

func (t *Translator) declareMemory() error {
	if t.ssa.memVersion != 0 {
		return nil
	}
	if t.ssa.declared["MEM"] {
		return nil
	}
	if _, err := t.sup.MkArray(uint(t.addrWidth), t.ssa.memCurr()); err != nil {
		return err
	}
	t.ssa.declared["MEM"] = true
	return nil
}
