package ir

import "fmt"

// labelOperand is a symbolic forward reference to "the address of the
// next instruction appended after Label() was called with this name".
// It is resolved away by the linking pass in Finish and
// must never escape a finished sequence.
type labelOperand struct {
	Name string
}

func (labelOperand) isOperand()       {}
func (labelOperand) Width() Width     { return Width40 }
func (l labelOperand) String() string { return "@" + l.Name }

// Builder constructs a well-formed IR sequence for one native
// instruction: fresh temporaries, symbolic labels, and the linking
// pass that resolves them. Grounded structurally on
// pkg/search/worker.go's small-mutable-struct-with-explicit-entry-
// point shape (WorkerPool.RunTasks), adapted from concurrent task
// dispatch to single-threaded sequence construction.
type Builder struct {
	nativeAddr uint64
	tempCount  int
	labels     map[string]uint64 // name -> resolved IR address (once defined)
	pending    []pendingLabel     // label operand positions to patch
	seq        []Instruction
}

type pendingLabel struct {
	instrIdx int
	slot     int // 0, 1, or 2
	name     string
}

// NewBuilder creates a Builder for lifting the native instruction at
// nativeAddr. Temporaries and IR sub-addresses are scoped to this one
// builder instance / one native instruction.
func NewBuilder(nativeAddr uint64) *Builder {
	return &Builder{
		nativeAddr: nativeAddr,
		labels:     make(map[string]uint64),
	}
}

// Temporal allocates a fresh monotonically numbered IR temporary
// (t0, t1, …) of the given width.
func (b *Builder) Temporal(w Width) RegisterOperand {
	name := fmt.Sprintf("t%d", b.tempCount)
	b.tempCount++
	return RegisterOperand{Name: name, W: w}
}

// Immediate returns an ImmediateOperand, masked to width w.
func (b *Builder) Immediate(value uint64, w Width) ImmediateOperand {
	return ImmU(value, w)
}

// Label returns a symbolic label operand naming "the IR address of the
// next instruction Add()-ed after this point". The address is recorded
// when Label is called; a label with no instruction added after it
// resolves to the sub-address one past the last instruction, without
// an error.
func (b *Builder) Label(name string) Operand {
	b.labels[name] = MakeAddress(b.nativeAddr, uint8(len(b.seq)))
	return labelOperand{Name: name}
}

// Add appends an instruction to the sequence, assigning it the next IR
// sub-address. Operands that are labelOperand values referring to a
// not-yet-defined label are recorded for the linking pass.
func (b *Builder) Add(m Mnemonic, op0, op1, op2 Operand) Instruction {
	idx := len(b.seq)
	addr := MakeAddress(b.nativeAddr, uint8(idx))

	if op0 == nil {
		op0 = EmptyOperand{}
	}
	if op1 == nil {
		op1 = EmptyOperand{}
	}
	if op2 == nil {
		op2 = EmptyOperand{}
	}

	instr := Instruction{Mnemonic: m, Op0: op0, Op1: op1, Op2: op2, Address: addr}
	b.seq = append(b.seq, instr)

	for slot, op := range []Operand{op0, op1, op2} {
		if lbl, ok := op.(labelOperand); ok {
			b.pending = append(b.pending, pendingLabel{instrIdx: idx, slot: slot, name: lbl.Name})
		}
	}

	return instr
}

// Finish runs the linking pass, substituting every pending label
// operand with the concrete IR address of the instruction it names.
// Label addresses are already in the composite (native<<8|subindex)
// form JCC targets use (spec §4.2's "target address left-shifted by
// 8" describes exactly this composite form for external, subindex-0
// transfers — see JumpTarget in instruction.go for the general rule),
// so no further shift is applied here. Per DESIGN NOTES, an unresolved
// label is rejected as a translation error.
func (b *Builder) Finish() ([]Instruction, error) {
	for _, p := range b.pending {
		addr, ok := b.labels[p.name]
		if !ok {
			return nil, &TranslationError{Reason: fmt.Sprintf("unresolved label %q", p.name)}
		}
		target := ImmU(addr, Width40)
		switch p.slot {
		case 0:
			b.seq[p.instrIdx].Op0 = target
		case 1:
			b.seq[p.instrIdx].Op1 = target
		case 2:
			b.seq[p.instrIdx].Op2 = target
		}
	}
	out := b.seq
	b.seq = nil
	b.pending = nil
	return out, nil
}

// TranslationError reports a lift-time failure (spec §7): unknown
// native mnemonic, invalid operand widths, or an unresolved label.
// Fatal to the current instruction only.
type TranslationError struct {
	Reason string
}

func (e *TranslationError) Error() string {
	return "ir: translation error: " + e.Reason
}
