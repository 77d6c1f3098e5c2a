package emu

import (
	"math/big"

	"github.com/oisee/barfgo/pkg/ir"
)

func (e *Emulator) readOperand(op ir.Operand) *big.Int {
	switch o := op.(type) {
	case ir.RegisterOperand:
		return e.Regs.Read(o.Name)
	case ir.ImmediateOperand:
		return new(big.Int).Set(o.Value)
	default:
		return new(big.Int)
	}
}

func (e *Emulator) writeOperand(op ir.Operand, value *big.Int, w ir.Width) {
	if reg, ok := op.(ir.RegisterOperand); ok {
		e.Regs.Write(reg.Name, value, w)
	}
	// Writes to any other operand kind are a lift-time invariant
	// violation (destinations are always registers); nothing to do at
	// runtime.
}

// dispatch executes one IR instruction. It returns (target, true, nil)
// when a JCC took its branch, or (_, false, nil) for every other
// instruction (including a not-taken JCC), signalling the caller to
// advance sequentially via the Container.
func (e *Emulator) dispatch(instr ir.Instruction) (target uint64, jumped bool, err error) {
	w0, w2 := instr.Op0.Width(), instr.Op2.Width()

	switch instr.Mnemonic {
	case ir.ADD:
		return 0, false, e.arith(instr, func(a, b *big.Int) *big.Int { return new(big.Int).Add(a, b) })
	case ir.SUB:
		return 0, false, e.arith(instr, func(a, b *big.Int) *big.Int { return new(big.Int).Sub(a, b) })
	case ir.MUL:
		return 0, false, e.arith(instr, func(a, b *big.Int) *big.Int { return new(big.Int).Mul(a, b) })
	case ir.AND:
		return 0, false, e.arith(instr, func(a, b *big.Int) *big.Int { return new(big.Int).And(a, b) })
	case ir.OR:
		return 0, false, e.arith(instr, func(a, b *big.Int) *big.Int { return new(big.Int).Or(a, b) })
	case ir.XOR:
		return 0, false, e.arith(instr, func(a, b *big.Int) *big.Int { return new(big.Int).Xor(a, b) })

	case ir.DIV:
		return 0, false, e.divmod(instr, false, false)
	case ir.MOD:
		return 0, false, e.divmod(instr, false, true)
	case ir.SDIV:
		return 0, false, e.divmod(instr, true, false)
	case ir.SMOD:
		return 0, false, e.divmod(instr, true, true)

	case ir.BSH:
		return 0, false, e.bsh(instr)

	case ir.LDM:
		return 0, false, e.ldm(instr)
	case ir.STM:
		return 0, false, e.stm(instr)
	case ir.STR:
		a := e.readOperand(instr.Op0)
		e.writeOperand(instr.Op2, ir.Truncate(a, w2), w2)
		return 0, false, nil

	case ir.BISZ:
		a := e.readOperand(instr.Op0)
		var result *big.Int
		if a.Sign() == 0 {
			result = big.NewInt(1)
		} else {
			result = big.NewInt(0)
		}
		e.writeOperand(instr.Op2, result, w2)
		return 0, false, nil

	case ir.SEXT:
		if w0 > w2 {
			return 0, false, &Fault{Kind: FaultUnknown, Addr: instr.Address, Detail: "SEXT: source wider than destination"}
		}
		a := e.readOperand(instr.Op0)
		signed := toSigned(a, w0)
		e.writeOperand(instr.Op2, fromSigned(signed, w2), w2)
		return 0, false, nil

	case ir.JCC:
		cond := e.readOperand(instr.Op0)
		if cond.Sign() != 0 {
			tgt := e.readOperand(instr.Op2)
			return tgt.Uint64(), true, nil
		}
		return 0, false, nil

	case ir.UNDEF:
		e.writeOperand(instr.Op2, new(big.Int), w2)
		return 0, false, nil

	case ir.UNKN:
		return 0, false, &Fault{Kind: FaultUnknown, Addr: instr.Address, Detail: "UNKN executed"}

	case ir.NOP, ir.RET:
		return 0, false, nil

	default:
		return 0, false, &Fault{Kind: FaultUnknown, Addr: instr.Address, Detail: "unrecognized mnemonic"}
	}
}

// arith implements the ADD/SUB/MUL/AND/OR/XOR width-adjustment rule
// of spec §4.3: compute at full precision (big.Int never overflows)
// and truncate to the destination width. This single formula covers
// all three width-adjustment cases (w3>w1, w3<w1, w3==w1) because
// truncation to w3 is equivalent to "zero-extend then compute" and to
// "compute then truncate" alike when the operator is computed at
// unbounded precision first.
func (e *Emulator) arith(instr ir.Instruction, op func(a, b *big.Int) *big.Int) error {
	a := e.readOperand(instr.Op0)
	b := e.readOperand(instr.Op1)
	w2 := instr.Op2.Width()
	e.writeOperand(instr.Op2, ir.Truncate(op(a, b), w2), w2)
	return nil
}

func (e *Emulator) divmod(instr ir.Instruction, signed, mod bool) error {
	a := e.readOperand(instr.Op0)
	b := e.readOperand(instr.Op1)
	w0 := instr.Op0.Width()
	w2 := instr.Op2.Width()

	if b.Sign() == 0 {
		return &Fault{Kind: FaultZeroDivision, Addr: instr.Address}
	}

	var result *big.Int
	if signed {
		as, bs := toSigned(a, w0), toSigned(b, w0)
		if mod {
			result = fromSigned(new(big.Int).Rem(as, bs), w2)
		} else {
			result = fromSigned(new(big.Int).Quo(as, bs), w2)
		}
	} else {
		if mod {
			result = ir.Truncate(new(big.Int).Rem(a, b), w2)
		} else {
			result = ir.Truncate(new(big.Int).Quo(a, b), w2)
		}
	}
	e.writeOperand(instr.Op2, result, w2)
	return nil
}

// bsh implements the arithmetic barrel shift of spec §4.3: op1's value
// is interpreted as a signed shift amount (positive = left, negative =
// logical right by the magnitude); per the Open Question resolution in
// spec §9, a magnitude equal to or exceeding the destination width is
// reduced modulo that width to match bvshl/bvlshr semantics.
func (e *Emulator) bsh(instr ir.Instruction) error {
	a := e.readOperand(instr.Op0)
	w0 := instr.Op0.Width()
	w2 := instr.Op2.Width()
	shiftRaw := toSigned(e.readOperand(instr.Op1), instr.Op1.Width())

	magnitude := new(big.Int).Abs(shiftRaw)
	if w2 > 0 {
		magnitude.Mod(magnitude, big.NewInt(int64(w2)))
	}
	n := uint(magnitude.Uint64())

	var result *big.Int
	if shiftRaw.Sign() >= 0 {
		result = new(big.Int).Lsh(a, n)
	} else {
		result = new(big.Int).Rsh(ir.Truncate(a, w0), n)
	}
	e.writeOperand(instr.Op2, ir.Truncate(result, w2), w2)
	return nil
}

func (e *Emulator) ldm(instr ir.Instruction) error {
	addr := e.readOperand(instr.Op0).Uint64()
	w2 := instr.Op2.Width()
	nbytes := int((w2 + 7) / 8)
	value := e.Mem.ReadN(addr, nbytes)
	e.writeOperand(instr.Op2, ir.Truncate(value, w2), w2)
	return nil
}

func (e *Emulator) stm(instr ir.Instruction) error {
	src := e.readOperand(instr.Op0)
	w0 := instr.Op0.Width()
	addr := e.readOperand(instr.Op2).Uint64()
	nbytes := int((w0 + 7) / 8)
	e.Mem.WriteN(addr, src, nbytes)
	return nil
}
