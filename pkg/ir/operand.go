package ir

import (
	"fmt"
	"math/big"
)

// Operand is the tagged-variant interface implemented by the three
// operand kinds of spec §3: register, immediate, and empty.
type Operand interface {
	isOperand()
	// Width returns the operand's bit width (0 for EmptyOperand).
	Width() Width
	String() string
}

// RegisterOperand names an architectural register, a sub-register
// alias, or a fresh IR temporary.
type RegisterOperand struct {
	Name string
	W    Width
}

func (RegisterOperand) isOperand()      {}
func (r RegisterOperand) Width() Width  { return r.W }
func (r RegisterOperand) String() string {
	return fmt.Sprintf("%s (%d)", r.Name, r.W)
}

// ImmediateOperand is an unsigned integer truncated to W bits.
// Value is stored as a big.Int so widths up to 256 bits (spec §3)
// round-trip exactly; arithmetic elsewhere always re-truncates after
// combining operands, so Value is kept already-masked to W.
type ImmediateOperand struct {
	Value *big.Int
	W     Width
}

// Imm constructs an ImmediateOperand, masking value to width w.
func Imm(value *big.Int, w Width) ImmediateOperand {
	return ImmediateOperand{Value: Truncate(value, w), W: w}
}

// ImmU constructs an ImmediateOperand from a uint64 convenience value.
func ImmU(value uint64, w Width) ImmediateOperand {
	return Imm(new(big.Int).SetUint64(value), w)
}

func (ImmediateOperand) isOperand()       {}
func (i ImmediateOperand) Width() Width   { return i.W }
func (i ImmediateOperand) String() string {
	return fmt.Sprintf("%s (%d)", i.Value.String(), i.W)
}

// EmptyOperand is the absent third-operand slot.
type EmptyOperand struct{}

func (EmptyOperand) isOperand()       {}
func (EmptyOperand) Width() Width     { return 0 }
func (EmptyOperand) String() string   { return "EMPTY" }

// IsEmpty reports whether op is the empty operand (nil counts as empty
// too, for callers that haven't filled a slot).
func IsEmpty(op Operand) bool {
	if op == nil {
		return true
	}
	_, ok := op.(EmptyOperand)
	return ok
}
