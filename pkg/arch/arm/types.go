package arm

import "github.com/oisee/barfgo/pkg/ir"

// Instruction is the native ARM instruction boundary the lifter
// consumes, grounded on original_source/barf/arch/arm/armbase.py's
// ArmInstruction fields (mnemonic, operands, address, size) — the
// same shape as pkg/arch/x86.Instruction, since spec §6 requires one
// architecture-neutral native-instruction contract.
type Instruction struct {
	Mnemonic string
	Operands []Operand
	Address  uint64
	Size     uint64
	SetFlags bool // ARM's optional "S" suffix (e.g. ADDS, SUBS)
}

// Operand is the native ARM operand variant interface (spec §6:
// register, immediate, memory, and ARM's shifter variant — grounded on
// armbase.py's ArmRegisterOperand, ArmImmediateOperand,
// ArmMemoryOperand, ArmShifterOperand). There is no register-list
// variant.
type Operand interface {
	isArmOperand()
	Width() ir.Width
}

// Register is a native register reference, e.g. R0, SP, LR.
type Register struct {
	Name string
}

func (Register) isArmOperand() {}
func (Register) Width() ir.Width { return 32 }

// Immediate is a native immediate operand.
type Immediate struct {
	Value uint64
}

func (Immediate) isArmOperand()    {}
func (Immediate) Width() ir.Width { return 32 }

// Memory is a native memory operand: value = [Base + Offset], used by
// LDR/STR (spec §6's memory operand variant).
type Memory struct {
	Base   string
	Offset int64
}

func (Memory) isArmOperand()    {}
func (Memory) Width() ir.Width { return 32 }

// Shifter is ARM's "register shifted by amount" third operand, e.g.
// "R1, LSL #2" (armbase.py's ArmShifterOperand). ShiftType is one of
// "lsl", "lsr", "asr", "ror".
type Shifter struct {
	Base      string
	ShiftType string
	Amount    int64 // immediate shift amount; AmountReg used if non-empty
	AmountReg string
}

func (Shifter) isArmOperand()    {}
func (Shifter) Width() ir.Width { return 32 }
