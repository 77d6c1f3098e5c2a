package arm

import (
	"fmt"
	"strings"

	"github.com/oisee/barfgo/pkg/ir"
)

// Translator lifts one native ARM instruction at a time into an IR
// sequence. Reduced subset (spec §6, SPEC_FULL.md §5.2): data
// processing (mov/add/sub/and/orr/eor/mul/cmp), load/store (ldr/str),
// and control transfer (b/bl/bx) — the instruction families
// _examples/original_source/barf/arch/arm/armdisassembler.py
// recognizes most often in compiled ARM output.
type Translator struct {
	b *ir.Builder
}

func NewTranslator() *Translator { return &Translator{} }

// Translate lifts a single native instruction and returns its linked
// IR sequence.
func (t *Translator) Translate(instr Instruction) ([]ir.Instruction, error) {
	t.b = ir.NewBuilder(instr.Address)
	if err := t.lift(instr); err != nil {
		return nil, err
	}
	return t.b.Finish()
}

// resolve materializes a native operand's value into an IR operand
// (spec §4.2 step 1). A Shifter operand is resolved via BSH before its
// base register's value is used, matching ARM's "shifted register"
// second-source-operand semantics.
func (t *Translator) resolve(op Operand) ir.Operand {
	switch o := op.(type) {
	case Register:
		return ir.RegisterOperand{Name: o.Name, W: 32}
	case Immediate:
		return ir.ImmU(o.Value, 32)
	case Memory:
		return t.effectiveAddress(o)
	case Shifter:
		return t.resolveShifter(o)
	default:
		return ir.EmptyOperand{}
	}
}

func (t *Translator) effectiveAddress(m Memory) ir.Operand {
	base := ir.Operand(ir.RegisterOperand{Name: m.Base, W: AddressWidth})
	if m.Offset == 0 {
		return base
	}
	full := int64(1) << uint(AddressWidth)
	u := m.Offset % full
	if u < 0 {
		u += full
	}
	sum := t.b.Temporal(AddressWidth)
	t.b.Add(ir.ADD, base, t.b.Immediate(uint64(u), AddressWidth), sum)
	return sum
}

func (t *Translator) resolveShifter(s Shifter) ir.Operand {
	base := ir.Operand(ir.RegisterOperand{Name: s.Base, W: 32})
	var amount ir.Operand
	if s.AmountReg != "" {
		amount = ir.RegisterOperand{Name: s.AmountReg, W: 32}
	} else {
		amount = t.b.Immediate(uint64(s.Amount), 32)
	}

	result := t.b.Temporal(32)
	switch s.ShiftType {
	case "lsl":
		t.b.Add(ir.BSH, base, amount, result)
	case "lsr":
		neg := t.b.Temporal(32)
		t.b.Add(ir.SUB, t.b.Immediate(0, 32), amount, neg)
		t.b.Add(ir.BSH, base, neg, result)
	case "asr":
		wide := t.b.Temporal(64)
		t.b.Add(ir.SEXT, base, ir.EmptyOperand{}, wide)
		neg := t.b.Temporal(32)
		t.b.Add(ir.SUB, t.b.Immediate(0, 32), amount, neg)
		shifted := t.b.Temporal(64)
		t.b.Add(ir.BSH, wide, neg, shifted)
		t.b.Add(ir.STR, shifted, ir.EmptyOperand{}, result)
	case "ror":
		// rotate-right via (x >> n) | (x << (32-n)), both halves
		// truncated/composed at width 32.
		neg := t.b.Temporal(32)
		t.b.Add(ir.SUB, t.b.Immediate(0, 32), amount, neg)
		right := t.b.Temporal(32)
		t.b.Add(ir.BSH, base, neg, right)
		complement := t.b.Temporal(32)
		t.b.Add(ir.SUB, t.b.Immediate(32, 32), amount, complement)
		left := t.b.Temporal(32)
		t.b.Add(ir.BSH, base, complement, left)
		t.b.Add(ir.OR, left, right, result)
	default:
		t.b.Add(ir.STR, base, ir.EmptyOperand{}, result)
	}
	return result
}

func (t *Translator) write(dst Operand, value ir.Operand) {
	switch o := dst.(type) {
	case Register:
		t.b.Add(ir.STR, value, ir.EmptyOperand{}, ir.RegisterOperand{Name: o.Name, W: 32})
	case Memory:
		addr := t.effectiveAddress(o)
		t.b.Add(ir.STM, value, ir.EmptyOperand{}, addr)
	}
}

func (t *Translator) setFlags(result ir.Operand) {
	zero := t.b.Immediate(0, ir.Width1)
	bit := t.b.Temporal(ir.Width1)
	t.b.Add(ir.BISZ, result, ir.EmptyOperand{}, bit)
	t.b.Add(ir.STR, bit, ir.EmptyOperand{}, ir.RegisterOperand{Name: "ZF", W: ir.Width1})

	shifted := t.b.Temporal(32)
	t.b.Add(ir.BSH, result, t.b.Immediate(negShift(31, 32), 32), shifted)
	nf := t.b.Temporal(ir.Width1)
	t.b.Add(ir.STR, shifted, ir.EmptyOperand{}, nf)
	t.b.Add(ir.STR, nf, ir.EmptyOperand{}, ir.RegisterOperand{Name: "NF", W: ir.Width1})

	_ = zero // CF/VF require the pre-truncation wide result; liftAddSub
	// computes CF itself, and VF is not computed by any lifter.
}

func negShift(n int, w uint) uint64 { return (uint64(1) << w) - uint64(n) }

// liftAddSub lifts ADD/ADDS/SUB/SUBS dst, src1, src2, computing at
// width 33 to capture carry the same way pkg/arch/x86's addSubFlags
// does.
func (t *Translator) liftAddSub(isSub bool, dst Operand, src1, src2 ir.Operand, setFlags bool) {
	wide := t.b.Temporal(33)
	if isSub {
		t.b.Add(ir.SUB, src1, src2, wide)
	} else {
		t.b.Add(ir.ADD, src1, src2, wide)
	}
	result := t.b.Temporal(32)
	t.b.Add(ir.STR, wide, ir.EmptyOperand{}, result)

	if setFlags {
		cfShift := t.b.Temporal(33)
		t.b.Add(ir.BSH, wide, t.b.Immediate(negShift(32, 33), 33), cfShift)
		cf := t.b.Temporal(ir.Width1)
		t.b.Add(ir.STR, cfShift, ir.EmptyOperand{}, cf)
		t.b.Add(ir.STR, cf, ir.EmptyOperand{}, ir.RegisterOperand{Name: "CF", W: ir.Width1})
		t.setFlags(result)
	}

	t.write(dst, result)
}

func (t *Translator) lift(instr Instruction) error {
	ops := instr.Operands
	mnemonic := strings.ToLower(instr.Mnemonic)
	nextNative := instr.Address + instr.Size

	switch mnemonic {
	case "nop":
		t.b.Add(ir.NOP, ir.EmptyOperand{}, ir.EmptyOperand{}, ir.EmptyOperand{})

	case "mov", "movs":
		if err := need(ops, 2); err != nil {
			return err
		}
		val := t.resolve(ops[1])
		t.write(ops[0], val)
		if strings.HasSuffix(mnemonic, "s") || instr.SetFlags {
			t.setFlags(val)
		}

	case "add", "adds":
		if err := need(ops, 3); err != nil {
			return err
		}
		t.liftAddSub(false, ops[0], t.resolve(ops[1]), t.resolve(ops[2]), strings.HasSuffix(mnemonic, "s") || instr.SetFlags)

	case "sub", "subs":
		if err := need(ops, 3); err != nil {
			return err
		}
		t.liftAddSub(true, ops[0], t.resolve(ops[1]), t.resolve(ops[2]), strings.HasSuffix(mnemonic, "s") || instr.SetFlags)

	case "cmp":
		if err := need(ops, 2); err != nil {
			return err
		}
		t.liftAddSub(true, Register{Name: "_cmp_scratch"}, t.resolve(ops[0]), t.resolve(ops[1]), true)

	case "and", "ands":
		if err := need(ops, 3); err != nil {
			return err
		}
		t.liftLogic(ir.AND, ops[0], ops[1], ops[2], strings.HasSuffix(mnemonic, "s") || instr.SetFlags)

	case "orr", "orrs":
		if err := need(ops, 3); err != nil {
			return err
		}
		t.liftLogic(ir.OR, ops[0], ops[1], ops[2], strings.HasSuffix(mnemonic, "s") || instr.SetFlags)

	case "eor", "eors":
		if err := need(ops, 3); err != nil {
			return err
		}
		t.liftLogic(ir.XOR, ops[0], ops[1], ops[2], strings.HasSuffix(mnemonic, "s") || instr.SetFlags)

	case "mul", "muls":
		if err := need(ops, 3); err != nil {
			return err
		}
		wide := t.b.Temporal(64)
		t.b.Add(ir.MUL, t.resolve(ops[1]), t.resolve(ops[2]), wide)
		result := t.b.Temporal(32)
		t.b.Add(ir.STR, wide, ir.EmptyOperand{}, result)
		if strings.HasSuffix(mnemonic, "s") || instr.SetFlags {
			t.setFlags(result)
		}
		t.write(ops[0], result)

	case "ldr":
		if err := need(ops, 2); err != nil {
			return err
		}
		mem, ok := ops[1].(Memory)
		if !ok {
			return &ir.TranslationError{Reason: "ldr: source operand is not memory"}
		}
		addr := t.effectiveAddress(mem)
		val := t.b.Temporal(32)
		t.b.Add(ir.LDM, addr, ir.EmptyOperand{}, val)
		t.write(ops[0], val)

	case "str":
		if err := need(ops, 2); err != nil {
			return err
		}
		mem, ok := ops[1].(Memory)
		if !ok {
			return &ir.TranslationError{Reason: "str: destination operand is not memory"}
		}
		addr := t.effectiveAddress(mem)
		t.b.Add(ir.STM, t.resolve(ops[0]), ir.EmptyOperand{}, addr)

	case "b":
		if err := need(ops, 1); err != nil {
			return err
		}
		t.liftB(targetOf(ops[0]))

	case "bx":
		if err := need(ops, 1); err != nil {
			return err
		}
		t.liftBxIndirect(ops[0])

	case "bl":
		if err := need(ops, 1); err != nil {
			return err
		}
		t.liftBl(targetOf(ops[0]), nextNative)

	default:
		t.b.Add(ir.UNKN, ir.EmptyOperand{}, ir.EmptyOperand{}, ir.EmptyOperand{})
	}
	return nil
}

func (t *Translator) liftLogic(m ir.Mnemonic, dst, a, b Operand, setFlags bool) {
	result := t.b.Temporal(32)
	t.b.Add(m, t.resolve(a), t.resolve(b), result)
	if setFlags {
		t.setFlags(result)
	}
	t.write(dst, result)
}

// liftB lifts an unconditional branch to an external native address.
func (t *Translator) liftB(targetNative uint64) {
	always := t.b.Immediate(1, ir.Width1)
	t.b.Add(ir.JCC, always, ir.EmptyOperand{}, t.b.Immediate(ir.JumpTarget(targetNative), ir.Width40))
}

// liftBxIndirect lifts BX through a register holding the target: the
// register carries an unshifted native address, so the composite JCC
// target shift happens here, at use time.
func (t *Translator) liftBxIndirect(target Operand) {
	always := t.b.Immediate(1, ir.Width1)
	tgt := t.resolve(target)
	wide := t.b.Temporal(ir.Width40)
	t.b.Add(ir.BSH, tgt, t.b.Immediate(8, AddressWidth), wide)
	t.b.Add(ir.JCC, always, ir.EmptyOperand{}, wide)
}

// liftBl lifts BL: store the unshifted return address in LR, then
// branch. LR is read back through liftBxIndirect (BX LR), which
// applies the composite-address shift, matching liftCall/liftRet's
// push/store-unshifted, shift-at-use convention.
func (t *Translator) liftBl(targetNative, returnNative uint64) {
	t.b.Add(ir.STR, t.b.Immediate(returnNative, AddressWidth), ir.EmptyOperand{}, ir.RegisterOperand{Name: "LR", W: AddressWidth})
	t.liftB(targetNative)
}

func need(ops []Operand, n int) error {
	if len(ops) < n {
		return &ir.TranslationError{Reason: fmt.Sprintf("expected %d operands, got %d", n, len(ops))}
	}
	return nil
}

func targetOf(op Operand) uint64 {
	if imm, ok := op.(Immediate); ok {
		return imm.Value
	}
	return 0
}
