package emu

import (
	"fmt"
	"math/big"

	"github.com/oisee/barfgo/pkg/ir"
)

// Hook is a pre/post instruction-boundary callback (spec §4.4). It
// receives the owning Emulator, the IR instruction at the boundary,
// and the opaque caller-supplied param passed to SetPreHook/
// SetPostHook. A hook that returns an error (or panics — panics are
// recovered at the boundary, per DESIGN.md's ambient-stack decision)
// aborts execution with that error surfaced as the emulation fault.
type Hook func(e *Emulator, instr ir.Instruction, param any) error

// Options configures a single Execute/ExecuteLite run (spec §4.4:
// "optional initial register context, optional initial memory map").
type Options struct {
	Aliases      ir.AliasMap
	BaseWidths   map[string]ir.Width
	Registers    map[string]*big.Int
	Memory       map[uint64]byte
	FillByte     byte
	AddressWidth ir.Width
}

// Result is the final register/memory state returned by a run.
type Result struct {
	Registers map[string]*big.Int
	Memory    map[uint64]byte
}

// Emulator executes IR sequences over a register file and byte
// memory (spec §4.4). Grounded structurally on the teacher's single
// dispatch point (cpu.Exec(s *State, op, imm) int), generalized to a
// stateful fetch/dispatch/advance loop since an IR program, unlike
// one Z80 opcode, spans multiple instructions and control transfers.
type Emulator struct {
	Regs *RegisterFile
	Mem  *Memory

	container *Container
	pc        uint64
	viaJump   bool

	haveLastNative bool
	lastNative     uint64

	pre      Hook
	preParam any
	post     Hook
	postParam any
}

// SetPreHook registers the (at most one) pre-handler, invoked with
// param before the first IR instruction of each native instruction
// boundary executes.
func (e *Emulator) SetPreHook(h Hook, param any) {
	e.pre = h
	e.preParam = param
}

// SetPostHook registers the (at most one) post-handler, invoked with
// param after the last IR instruction of each native instruction
// boundary has executed.
func (e *Emulator) SetPostHook(h Hook, param any) {
	e.post = h
	e.postParam = param
}

func newEmulator(opts Options) *Emulator {
	aliases := opts.Aliases
	if aliases == nil {
		aliases = ir.AliasMap{}
	}
	widths := opts.BaseWidths
	if widths == nil {
		widths = map[string]ir.Width{}
	}
	regs := NewRegisterFile(aliases, widths)
	if opts.Registers != nil {
		regs.SetSnapshot(opts.Registers)
	}
	mem := NewMemory(opts.FillByte)
	if opts.Memory != nil {
		mem.SetSnapshot(opts.Memory)
	}
	return &Emulator{Regs: regs, Mem: mem}
}

// Execute runs container starting at startAddr until either a branch
// or fall-through runs the program counter off the end of the loaded
// container (clean completion) or a fault occurs. A fault is raised
// for InvalidAddress only when the program counter left the container
// via a *taken jump* to an address that was never loaded — falling
// off the end of a sequentially-advancing program is a normal stop
// (spec §8 scenario 2's "executed to completion").
func Execute(container *Container, startAddr uint64, opts Options) (*Result, error) {
	e := newEmulator(opts)
	e.container = container
	e.pc = startAddr
	e.viaJump = true // the caller-supplied entry point is jump-like
	if err := e.run(); err != nil {
		return nil, err
	}
	return &Result{Registers: e.Regs.Snapshot(), Memory: e.Mem.Snapshot()}, nil
}

// ExecuteLite runs a flat instruction list without building a
// caller-visible Container (spec §6).
func ExecuteLite(seq []ir.Instruction, opts Options) (*Result, error) {
	if len(seq) == 0 {
		return &Result{Registers: map[string]*big.Int{}, Memory: map[uint64]byte{}}, nil
	}
	c := NewContainer(seq)
	return Execute(c, seq[0].Address, opts)
}

func (e *Emulator) run() error {
	for {
		instr, ok := e.container.At(e.pc)
		if !ok {
			if e.viaJump {
				return &Fault{Kind: FaultInvalidAddress, Addr: e.pc}
			}
			return nil
		}

		native := ir.NativeAddress(instr.Address)
		if !e.haveLastNative || native != e.lastNative {
			e.haveLastNative = true
			e.lastNative = native
			if err := e.callHook(e.pre, e.preParam, instr); err != nil {
				return err
			}
		}

		target, jumped, err := e.safeDispatch(instr)
		if err != nil {
			return err
		}

		var nextPC uint64
		var nextOK bool
		if jumped {
			nextPC, nextOK = target, true
		} else {
			nextPC, nextOK = e.container.Next(instr.Address)
		}

		crossesBoundary := true
		if nextOK {
			if nInstr, ok2 := e.container.At(nextPC); ok2 {
				crossesBoundary = ir.NativeAddress(nInstr.Address) != native
			}
		}
		if crossesBoundary {
			if err := e.callHook(e.post, e.postParam, instr); err != nil {
				return err
			}
		}

		e.pc = nextPC
		e.viaJump = jumped
		if !nextOK {
			// viaJump is already set correctly: a taken jump to a
			// missing address faults next iteration; a fall-through
			// off the end completes cleanly next iteration.
		}
	}
}

// safeDispatch recovers a panicking opcode implementation and turns it
// into an Unknown fault. Hooks do not run inside it; callHook recovers
// hook panics the same way.
func (e *Emulator) safeDispatch(instr ir.Instruction) (target uint64, jumped bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Fault{Kind: FaultUnknown, Addr: instr.Address, Detail: fmt.Sprintf("panic: %v", r)}
		}
	}()
	return e.dispatch(instr)
}

func (e *Emulator) callHook(h Hook, param any, instr ir.Instruction) (err error) {
	if h == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = &Fault{Kind: FaultUnknown, Addr: instr.Address, Detail: fmt.Sprintf("hook panic: %v", r)}
		}
	}()
	return h(e, instr, param)
}
