package x86

import (
	"fmt"
	"strings"

	"github.com/oisee/barfgo/pkg/ir"
)

// lift dispatches instr to its mnemonic-specific lift* method (spec
// §4.2, §6), grounded on the teacher's pkg/cpu/exec.go giant switch.
// Unrecognized mnemonics lift to a single UNKN instruction (spec §7)
// rather than failing the whole translation, so a caller lifting a
// full function body can still emulate past an unmodeled opcode.
func (t *Translator) lift(instr Instruction) error {
	ops := instr.Operands
	mnemonic := strings.ToLower(instr.Mnemonic)
	nextNative := instr.Address + instr.Size

	switch mnemonic {
	case "nop":
		t.b.Add(ir.NOP, ir.EmptyOperand{}, ir.EmptyOperand{}, ir.EmptyOperand{})

	case "mov":
		if err := need(ops, 2); err != nil {
			return err
		}
		t.writeOperand(ops[0], t.readOperand(ops[1]))

	case "lea":
		if err := need(ops, 2); err != nil {
			return err
		}
		mem, ok := ops[1].(Memory)
		if !ok {
			return &ir.TranslationError{Reason: "lea: source operand is not memory"}
		}
		t.liftLea(ops[0], mem)

	case "add":
		if err := need(ops, 2); err != nil {
			return err
		}
		t.liftAdd(ops[0], ops[1])

	case "sub":
		if err := need(ops, 2); err != nil {
			return err
		}
		t.liftSub(ops[0], ops[1], true)

	case "cmp":
		if err := need(ops, 2); err != nil {
			return err
		}
		t.liftSub(ops[0], ops[1], false)

	case "and":
		if err := need(ops, 2); err != nil {
			return err
		}
		t.liftLogic(ir.AND, ops[0], ops[1], true)

	case "or":
		if err := need(ops, 2); err != nil {
			return err
		}
		t.liftLogic(ir.OR, ops[0], ops[1], true)

	case "xor":
		if err := need(ops, 2); err != nil {
			return err
		}
		t.liftLogic(ir.XOR, ops[0], ops[1], true)

	case "test":
		if err := need(ops, 2); err != nil {
			return err
		}
		t.liftLogic(ir.AND, ops[0], ops[1], false)

	case "not":
		if err := need(ops, 1); err != nil {
			return err
		}
		t.liftNot(ops[0])

	case "neg":
		if err := need(ops, 1); err != nil {
			return err
		}
		t.liftNeg(ops[0])

	case "inc":
		if err := need(ops, 1); err != nil {
			return err
		}
		t.liftIncDec(ops[0], false)

	case "dec":
		if err := need(ops, 1); err != nil {
			return err
		}
		t.liftIncDec(ops[0], true)

	case "mul", "imul":
		if err := need(ops, 2); err != nil {
			return err
		}
		t.liftMul(ops[0], ops[1])

	case "div":
		if err := need(ops, 3); err != nil {
			return err
		}
		t.liftDiv(ops[0], ops[1], ops[2], false)

	case "idiv":
		if err := need(ops, 3); err != nil {
			return err
		}
		t.liftDiv(ops[0], ops[1], ops[2], true)

	case "shl", "sal":
		if err := need(ops, 2); err != nil {
			return err
		}
		t.liftShift(ops[0], ops[1], "shl")

	case "shr":
		if err := need(ops, 2); err != nil {
			return err
		}
		t.liftShift(ops[0], ops[1], "shr")

	case "sar":
		if err := need(ops, 2); err != nil {
			return err
		}
		t.liftShift(ops[0], ops[1], "sar")

	case "push":
		if err := need(ops, 1); err != nil {
			return err
		}
		t.liftPush(ops[0])

	case "pop":
		if err := need(ops, 1); err != nil {
			return err
		}
		t.liftPop(ops[0])

	case "jmp":
		if err := need(ops, 1); err != nil {
			return err
		}
		if reg, ok := ops[0].(Register); ok {
			t.liftJmpIndirect(reg)
		} else if mem, ok := ops[0].(Memory); ok {
			t.liftJmpIndirect(mem)
		} else if imm, ok := ops[0].(Immediate); ok {
			t.liftJmp(imm.Value)
		} else {
			return &ir.TranslationError{Reason: "jmp: unsupported operand kind"}
		}

	case "jcxz":
		if err := need(ops, 1); err != nil {
			return err
		}
		t.liftJcxz("CX", targetOf(ops[0]))

	case "jecxz":
		if err := need(ops, 1); err != nil {
			return err
		}
		t.liftJcxz("ECX", targetOf(ops[0]))

	case "call":
		if err := need(ops, 1); err != nil {
			return err
		}
		imm, ok := ops[0].(Immediate)
		if !ok {
			return &ir.TranslationError{Reason: "call: only direct targets are modeled"}
		}
		t.liftCall(imm.Value, nextNative)

	case "ret", "retn":
		pop := uint64(0)
		if len(ops) == 1 {
			if imm, ok := ops[0].(Immediate); ok {
				pop = imm.Value
			}
		}
		t.liftRet(pop)

	case "loop":
		if err := need(ops, 1); err != nil {
			return err
		}
		t.liftLoop("loop", targetOf(ops[0]), nextNative)

	case "loope", "loopz":
		if err := need(ops, 1); err != nil {
			return err
		}
		t.liftLoop("loope", targetOf(ops[0]), nextNative)

	case "loopne", "loopnz":
		if err := need(ops, 1); err != nil {
			return err
		}
		t.liftLoop("loopne", targetOf(ops[0]), nextNative)

	default:
		if _, ok := condNames[mnemonic]; ok {
			if err := need(ops, 1); err != nil {
				return err
			}
			t.liftJcc(mnemonic, targetOf(ops[0]))
			return nil
		}
		t.b.Add(ir.UNKN, ir.EmptyOperand{}, ir.EmptyOperand{}, ir.EmptyOperand{})
	}
	return nil
}

func need(ops []Operand, n int) error {
	if len(ops) < n {
		return &ir.TranslationError{Reason: fmt.Sprintf("expected %d operands, got %d", n, len(ops))}
	}
	return nil
}

// targetOf extracts a direct branch target's native address from an
// Immediate operand (the only branch-target representation this
// lifter models; indirect conditional branches don't exist on x86).
func targetOf(op Operand) uint64 {
	if imm, ok := op.(Immediate); ok {
		return imm.Value
	}
	return 0
}
