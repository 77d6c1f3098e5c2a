package emu

import (
	"math/big"

	"github.com/oisee/barfgo/pkg/ir"
)

// RegisterFile maps canonical base-register names to width-bit
// values; sub-register reads and writes go through the owning
// ir.AliasMap (spec §3/§4.4). Generalized from the teacher's fixed
// struct fields (cpu.State: A, F, B, C, D, E, H, L, SP) to a dynamic
// map, since the IR is architecture-neutral and doesn't know a fixed
// register set at compile time.
type RegisterFile struct {
	aliases ir.AliasMap
	widths  map[string]ir.Width // base register name -> its native width
	values  map[string]*big.Int // base register name -> current value
}

// NewRegisterFile creates an empty register file for the given
// architecture's alias map and base-register widths.
func NewRegisterFile(aliases ir.AliasMap, baseWidths map[string]ir.Width) *RegisterFile {
	return &RegisterFile{
		aliases: aliases,
		widths:  baseWidths,
		values:  make(map[string]*big.Int),
	}
}

func (r *RegisterFile) baseOf(name string) (base string, offset, width ir.Width) {
	if a, ok := r.aliases.Resolve(name); ok {
		return a.Base, a.Offset, a.Width
	}
	return name, 0, r.widths[name]
}

func (r *RegisterFile) get(base string) *big.Int {
	if v, ok := r.values[base]; ok {
		return v
	}
	return new(big.Int)
}

// Read returns the current value of name (architectural register,
// sub-register alias, or IR temporary), truncated to its own width.
func (r *RegisterFile) Read(name string) *big.Int {
	base, offset, width := r.baseOf(name)
	baseVal := r.get(base)
	if offset == 0 && width == r.widths[base] {
		return ir.Truncate(baseVal, width)
	}
	shifted := new(big.Int).Rsh(baseVal, uint(offset))
	return ir.Truncate(shifted, width)
}

// Write stores value (truncated to width) into name. When name
// aliases into a wider base register, the untouched bits of the base
// are preserved exactly (spec §3's preservation invariant): the base
// is masked clear over [offset, offset+width) and the new value is
// OR'd in at that offset.
func (r *RegisterFile) Write(name string, value *big.Int, width ir.Width) {
	base, offset, subWidth := r.baseOf(name)
	v := ir.Truncate(value, width)
	if _, aliased := r.aliases.Resolve(name); !aliased {
		// Names outside the alias map (IR temporaries) are sized by
		// the write itself, so a later Read sees the full value.
		subWidth = width
		r.widths[base] = width
	}

	baseWidth, known := r.widths[base]
	if !known {
		baseWidth = subWidth
		r.widths[base] = baseWidth
	}

	if offset == 0 && subWidth == baseWidth {
		r.values[base] = v
		return
	}

	rangeMask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(subWidth)), big.NewInt(1))
	rangeMask.Lsh(rangeMask, uint(offset))

	cleared := new(big.Int).AndNot(r.get(base), rangeMask)
	shiftedVal := new(big.Int).Lsh(v, uint(offset))
	shiftedVal.And(shiftedVal, rangeMask)

	newBase := new(big.Int).Or(cleared, shiftedVal)
	r.values[base] = ir.Truncate(newBase, baseWidth)
}

// Snapshot returns a copy of every base register's current value,
// keyed by base register name (for callers inspecting final state).
func (r *RegisterFile) Snapshot() map[string]*big.Int {
	out := make(map[string]*big.Int, len(r.values))
	for k, v := range r.values {
		out[k] = new(big.Int).Set(v)
	}
	return out
}

// SetSnapshot seeds the register file from a caller-supplied initial
// context (spec §4.4: Execute accepts an optional initial register
// context).
func (r *RegisterFile) SetSnapshot(init map[string]*big.Int) {
	for k, v := range init {
		r.values[k] = new(big.Int).Set(v)
	}
}
