package x86

import "github.com/oisee/barfgo/pkg/ir"

// Instruction is the native-instruction boundary the lifter consumes
// (spec §6): "fields {mnemonic, operands, address, size}". It is
// deliberately decoupled from any concrete disassembler — the
// disassembler front end is an external collaborator out of scope
// (spec §1).
type Instruction struct {
	Mnemonic string
	Operands []Operand
	Address  uint64
	Size     uint64
}

// Operand is the native x86 operand variant interface (spec §6:
// "operand variants for register, immediate, memory, and (for ARM)
// register list / shifter"). Every variant reports its own bit width
// so the lifter can size IR temporaries without a type switch.
type Operand interface {
	isX86Operand()
	Width() ir.Width
}

// Register is a native register reference, e.g. EAX, AL, AH.
type Register struct {
	Name string
}

func (Register) isX86Operand() {}

// Width looks up the operand's bit width from the alias map.
func (r Register) Width() ir.Width {
	if a, ok := Aliases.Resolve(r.Name); ok {
		return a.Width
	}
	return 32
}

// Immediate is a native immediate operand.
type Immediate struct {
	Value uint64
	Bits  ir.Width
}

func (Immediate) isX86Operand()    {}
func (i Immediate) Width() ir.Width { return i.Bits }

// Memory is a native memory operand: value = [Base + Index*Scale + Disp].
// An empty Base/Index name means that term is absent.
type Memory struct {
	Base  string
	Index string
	Scale int64
	Disp  int64
	Bits  ir.Width
}

func (Memory) isX86Operand()    {}
func (m Memory) Width() ir.Width { return m.Bits }
