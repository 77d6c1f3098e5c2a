package emu

import "github.com/oisee/barfgo/pkg/ir"

// Container indexes one or more lifted IR sequences by address so the
// emulator can fetch arbitrary instructions (including jump targets)
// in O(1), and knows each instruction's successor in program order
// (spec §4.4: "advance IR program counter to the next sequential IR
// sub-index"). Sequences are appended in the order given; within a
// single Container, program order is append order.
type Container struct {
	instrs []ir.Instruction
	index  map[uint64]int
}

// NewContainer builds a Container from one or more lifted sequences,
// concatenated in program order.
func NewContainer(seqs ...[]ir.Instruction) *Container {
	c := &Container{index: make(map[uint64]int)}
	for _, seq := range seqs {
		for _, instr := range seq {
			c.index[instr.Address] = len(c.instrs)
			c.instrs = append(c.instrs, instr)
		}
	}
	return c
}

// At returns the instruction at addr, if loaded.
func (c *Container) At(addr uint64) (ir.Instruction, bool) {
	i, ok := c.index[addr]
	if !ok {
		return ir.Instruction{}, false
	}
	return c.instrs[i], true
}

// Next returns the address of the instruction immediately following
// addr in program order, if any.
func (c *Container) Next(addr uint64) (uint64, bool) {
	i, ok := c.index[addr]
	if !ok || i+1 >= len(c.instrs) {
		return 0, false
	}
	return c.instrs[i+1].Address, true
}
