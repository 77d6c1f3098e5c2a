package x86

import "github.com/oisee/barfgo/pkg/ir"

// Translator lifts one native x86 instruction at a time into an IR
// sequence, grounded on the teacher's pkg/cpu/exec.go giant-switch
// dispatch — here the switch emits IR instructions into a *ir.Builder
// instead of mutating CPU state directly.
type Translator struct {
	b *ir.Builder
}

// NewTranslator returns a reusable Translator. Each Translate call
// resets it against a fresh builder.
func NewTranslator() *Translator {
	return &Translator{}
}

// Translate lifts a single native instruction (spec §4.2, §6) and
// returns its IR sequence with labels linked to composite addresses.
func (t *Translator) Translate(instr Instruction) ([]ir.Instruction, error) {
	t.b = ir.NewBuilder(instr.Address)
	if err := t.lift(instr); err != nil {
		return nil, err
	}
	return t.b.Finish()
}

// readOperand materializes a native operand's value into an IR
// operand (spec §4.2 step 1). Register operands — including
// sub-registers like AH — reference their name directly: the IR
// register file's alias-map-driven read (pkg/emu/registers.go)
// already performs the "shift right then extract" spec describes for
// reading a sub-register, so the lifter need not emit that shift
// itself. Immediate operands need no materialization. Memory operands
// compute an effective address and emit an LDM into a fresh temporary.
func (t *Translator) readOperand(op Operand) ir.Operand {
	switch o := op.(type) {
	case Register:
		return ir.RegisterOperand{Name: o.Name, W: o.Width()}
	case Immediate:
		return ir.ImmU(o.Value, o.Width())
	case Memory:
		addr := t.effectiveAddress(o)
		tmp := t.b.Temporal(o.Width())
		t.b.Add(ir.LDM, addr, ir.EmptyOperand{}, tmp)
		return tmp
	default:
		return ir.EmptyOperand{}
	}
}

// writeOperand stores value back to a native destination (spec §4.2
// step 4). A register destination — including a sub-register —
// references its name directly: the register file's alias-map write
// performs the base-preserving mask/OR composition automatically.
// Memory destinations emit an STM.
func (t *Translator) writeOperand(op Operand, value ir.Operand) {
	switch o := op.(type) {
	case Register:
		t.b.Add(ir.STR, value, ir.EmptyOperand{}, ir.RegisterOperand{Name: o.Name, W: o.Width()})
	case Memory:
		addr := t.effectiveAddress(o)
		t.b.Add(ir.STM, value, ir.EmptyOperand{}, addr)
	}
}

// effectiveAddress computes [Base + Index*Scale + Disp] into a fresh
// address-width IR temporary.
func (t *Translator) effectiveAddress(m Memory) ir.Operand {
	addr := t.b.Temporal(AddressWidth)
	if m.Base != "" {
		t.b.Add(ir.STR, ir.RegisterOperand{Name: m.Base, W: AddressWidth}, ir.EmptyOperand{}, addr)
	} else {
		t.b.Add(ir.STR, t.b.Immediate(0, AddressWidth), ir.EmptyOperand{}, addr)
	}

	if m.Index != "" {
		scaled := ir.Operand(ir.RegisterOperand{Name: m.Index, W: AddressWidth})
		if m.Scale > 1 {
			shifted := t.b.Temporal(AddressWidth)
			t.b.Add(ir.BSH, scaled, t.b.Immediate(uint64(log2Scale(m.Scale)), AddressWidth), shifted)
			scaled = shifted
		}
		sum := t.b.Temporal(AddressWidth)
		t.b.Add(ir.ADD, addr, scaled, sum)
		addr = sum
	}

	if m.Disp != 0 {
		sum := t.b.Temporal(AddressWidth)
		t.b.Add(ir.ADD, addr, t.signedImmediate(m.Disp, AddressWidth), sum)
		addr = sum
	}
	return addr
}

// signedImmediate encodes a signed Go int64 into an ImmediateOperand
// of width w via two's complement reduction.
func (t *Translator) signedImmediate(v int64, w ir.Width) ir.Operand {
	full := int64(1) << uint(w)
	u := v % full
	if u < 0 {
		u += full
	}
	return t.b.Immediate(uint64(u), w)
}

func log2Scale(scale int64) int {
	n := 0
	for s := scale; s > 1; s >>= 1 {
		n++
	}
	return n
}
