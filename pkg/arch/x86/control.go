package x86

import "github.com/oisee/barfgo/pkg/ir"

// condNames maps each x86 condition code to the flag
// comparison that decides it, grounded on
// _examples/original_source/barf/arch/x86/translators/control.py's
// condition table.
var condNames = map[string]func(t *Translator) ir.Operand{
	"jz":  func(t *Translator) ir.Operand { return ir.RegisterOperand{Name: "ZF", W: ir.Width1} },
	"je":  func(t *Translator) ir.Operand { return ir.RegisterOperand{Name: "ZF", W: ir.Width1} },
	"jnz": func(t *Translator) ir.Operand { return t.notFlag("ZF") },
	"jne": func(t *Translator) ir.Operand { return t.notFlag("ZF") },
	"js":  func(t *Translator) ir.Operand { return ir.RegisterOperand{Name: "SF", W: ir.Width1} },
	"jns": func(t *Translator) ir.Operand { return t.notFlag("SF") },
	"jc":  func(t *Translator) ir.Operand { return ir.RegisterOperand{Name: "CF", W: ir.Width1} },
	"jb":  func(t *Translator) ir.Operand { return ir.RegisterOperand{Name: "CF", W: ir.Width1} },
	"jnc": func(t *Translator) ir.Operand { return t.notFlag("CF") },
	"jae": func(t *Translator) ir.Operand { return t.notFlag("CF") },
	"jo":  func(t *Translator) ir.Operand { return ir.RegisterOperand{Name: "OF", W: ir.Width1} },
	"jno": func(t *Translator) ir.Operand { return t.notFlag("OF") },
	"jp":  func(t *Translator) ir.Operand { return ir.RegisterOperand{Name: "PF", W: ir.Width1} },
	"jnp": func(t *Translator) ir.Operand { return t.notFlag("PF") },
	"jg":  func(t *Translator) ir.Operand { return t.jg() },
	"jge": func(t *Translator) ir.Operand { return t.jge() },
	"jl":  func(t *Translator) ir.Operand { return t.jl() },
	"jle": func(t *Translator) ir.Operand { return t.jle() },
	"ja":  func(t *Translator) ir.Operand { return t.ja() },
	"jbe": func(t *Translator) ir.Operand { return t.jbe() },
}

func (t *Translator) notFlag(name string) ir.Operand {
	return t.bisz1(ir.RegisterOperand{Name: name, W: ir.Width1})
}

// jl: SF != OF
func (t *Translator) jl() ir.Operand {
	sf := ir.Operand(ir.RegisterOperand{Name: "SF", W: ir.Width1})
	of := ir.Operand(ir.RegisterOperand{Name: "OF", W: ir.Width1})
	return t.xor1(sf, of)
}

// jge: SF == OF
func (t *Translator) jge() ir.Operand { return t.bisz1(t.jl()) }

// jle: ZF || (SF != OF)
func (t *Translator) jle() ir.Operand {
	zf := ir.Operand(ir.RegisterOperand{Name: "ZF", W: ir.Width1})
	out := t.b.Temporal(ir.Width1)
	t.b.Add(ir.OR, zf, t.jl(), out)
	return out
}

// jg: !ZF && (SF == OF)
func (t *Translator) jg() ir.Operand { return t.bisz1(t.jle()) }

// jbe: CF || ZF
func (t *Translator) jbe() ir.Operand {
	cf := ir.Operand(ir.RegisterOperand{Name: "CF", W: ir.Width1})
	zf := ir.Operand(ir.RegisterOperand{Name: "ZF", W: ir.Width1})
	out := t.b.Temporal(ir.Width1)
	t.b.Add(ir.OR, cf, zf, out)
	return out
}

// ja: !CF && !ZF
func (t *Translator) ja() ir.Operand { return t.bisz1(t.jbe()) }

// liftJmp lifts an unconditional jump to an external native address,
// using the canonical subindex-0 composite target (spec §4.2's
// "target address left-shifted by 8").
func (t *Translator) liftJmp(targetNative uint64) {
	always := t.b.Immediate(1, ir.Width1)
	t.b.Add(ir.JCC, always, ir.EmptyOperand{}, t.b.Immediate(ir.JumpTarget(targetNative), ir.Width40))
}

// liftJmpIndirect lifts an indirect jump through a register/memory
// operand holding the (unshifted) target address, shifting it left by
// 8 at use time like liftRet does.
func (t *Translator) liftJmpIndirect(target Operand) {
	always := t.b.Immediate(1, ir.Width1)
	tgt := t.readOperand(target)
	tgtWide := t.b.Temporal(ir.Width40)
	t.b.Add(ir.BSH, tgt, t.b.Immediate(8, AddressWidth), tgtWide)
	t.b.Add(ir.JCC, always, ir.EmptyOperand{}, tgtWide)
}

// liftJcc lifts a conditional branch: cond decides whether control
// transfers to targetNative; the fall-through path needs no explicit
// IR since a not-taken JCC simply advances sequentially (spec §4.2).
func (t *Translator) liftJcc(mnemonic string, targetNative uint64) {
	condFn, ok := condNames[mnemonic]
	if !ok {
		t.b.Add(ir.UNKN, ir.EmptyOperand{}, ir.EmptyOperand{}, ir.EmptyOperand{})
		return
	}
	cond := condFn(t)
	t.b.Add(ir.JCC, cond, ir.EmptyOperand{}, t.b.Immediate(ir.JumpTarget(targetNative), ir.Width40))
}

// liftJcxz lifts JCXZ/JECXZ: branch taken iff the counter register is
// zero.
func (t *Translator) liftJcxz(counter string, targetNative uint64) {
	w := ir.Width(32)
	if a, ok := Aliases.Resolve(counter); ok {
		w = a.Width
	}
	cond := t.bisz1(ir.RegisterOperand{Name: counter, W: w})
	t.b.Add(ir.JCC, cond, ir.EmptyOperand{}, t.b.Immediate(ir.JumpTarget(targetNative), ir.Width40))
}

// liftCall lifts CALL target: push the unshifted return address onto
// the stack (ESP -= WordSize; [ESP] = returnAddr) then transfer
// control. The composite-address shift only applies at the point a
// value is used as a JCC target, not while it sits in memory.
func (t *Translator) liftCall(targetNative, returnNative uint64) {
	t.pushValue(t.b.Immediate(returnNative, AddressWidth))
	t.liftJmp(targetNative)
}

// liftRet lifts RET [imm16]: pop the return address off the stack,
// advancing ESP by WordSize plus imm16 further bytes of arguments,
// shift it left by 8 to form a composite JCC target (spec §4.2), and
// transfer control to it.
func (t *Translator) liftRet(popBytes uint64) {
	esp := ir.Operand(ir.RegisterOperand{Name: "ESP", W: AddressWidth})
	retAddr := t.b.Temporal(AddressWidth)
	t.b.Add(ir.LDM, esp, ir.EmptyOperand{}, retAddr)

	newEsp := t.b.Temporal(AddressWidth)
	t.b.Add(ir.ADD, esp, t.b.Immediate(WordSize+popBytes, AddressWidth), newEsp)
	t.b.Add(ir.STR, newEsp, ir.EmptyOperand{}, ir.RegisterOperand{Name: "ESP", W: AddressWidth})

	target := t.b.Temporal(ir.Width40)
	t.b.Add(ir.BSH, retAddr, t.b.Immediate(8, AddressWidth), target)

	always := t.b.Immediate(1, ir.Width1)
	t.b.Add(ir.JCC, always, ir.EmptyOperand{}, target)
}

// pushValue decrements ESP by WordSize and stores value at [ESP].
func (t *Translator) pushValue(value ir.Operand) {
	esp := ir.Operand(ir.RegisterOperand{Name: "ESP", W: AddressWidth})
	newEsp := t.b.Temporal(AddressWidth)
	t.b.Add(ir.SUB, esp, t.b.Immediate(WordSize, AddressWidth), newEsp)
	t.b.Add(ir.STR, newEsp, ir.EmptyOperand{}, ir.RegisterOperand{Name: "ESP", W: AddressWidth})
	t.b.Add(ir.STM, value, ir.EmptyOperand{}, newEsp)
}

// liftPush lifts PUSH src.
func (t *Translator) liftPush(src Operand) {
	t.pushValue(t.readOperand(src))
}

// liftPop lifts POP dst: load [ESP] then increment ESP by WordSize.
func (t *Translator) liftPop(dst Operand) {
	esp := ir.Operand(ir.RegisterOperand{Name: "ESP", W: AddressWidth})
	value := t.b.Temporal(dst.Width())
	t.b.Add(ir.LDM, esp, ir.EmptyOperand{}, value)

	newEsp := t.b.Temporal(AddressWidth)
	t.b.Add(ir.ADD, esp, t.b.Immediate(WordSize, AddressWidth), newEsp)
	t.b.Add(ir.STR, newEsp, ir.EmptyOperand{}, ir.RegisterOperand{Name: "ESP", W: AddressWidth})

	t.writeOperand(dst, value)
}

// liftLoop lifts LOOP/LOOPE/LOOPNE: decrement ECX, then branch to
// targetNative iff ECX != 0 and (for LOOPE/LOOPNE) the extra ZF
// condition holds. The two conditions are ANDed into a single JCC,
// followed by an unconditional jump to fallthroughNative for the
// not-taken path; no IR label is used.
func (t *Translator) liftLoop(kind string, targetNative, fallthroughNative uint64) {
	ecx := ir.Operand(ir.RegisterOperand{Name: "ECX", W: AddressWidth})
	newEcx := t.b.Temporal(AddressWidth)
	t.b.Add(ir.SUB, ecx, t.b.Immediate(1, AddressWidth), newEcx)
	t.b.Add(ir.STR, newEcx, ir.EmptyOperand{}, ir.RegisterOperand{Name: "ECX", W: AddressWidth})

	ecxNonZero := t.bisz1(t.bisz1(newEcx)) // BISZ(BISZ(x)) == (x != 0)

	switch kind {
	case "loop":
		t.b.Add(ir.JCC, ecxNonZero, ir.EmptyOperand{}, t.b.Immediate(ir.JumpTarget(targetNative), ir.Width40))
	case "loope": // loopz: branch iff ECX!=0 && ZF
		zf := ir.Operand(ir.RegisterOperand{Name: "ZF", W: ir.Width1})
		both := t.and1(ecxNonZero, zf)
		t.b.Add(ir.JCC, both, ir.EmptyOperand{}, t.b.Immediate(ir.JumpTarget(targetNative), ir.Width40))
	case "loopne": // loopnz: branch iff ECX!=0 && !ZF
		nzf := t.notFlag("ZF")
		both := t.and1(ecxNonZero, nzf)
		t.b.Add(ir.JCC, both, ir.EmptyOperand{}, t.b.Immediate(ir.JumpTarget(targetNative), ir.Width40))
	}
	t.liftJmp(fallthroughNative)
}
