package x86

import "github.com/oisee/barfgo/pkg/ir"

// Aliases is the x86 sub-register alias map (spec §3's "alias
// map... a value table, not a runtime reflection mechanism", per
// DESIGN NOTES). Every name the lifter ever reads or writes —
// including base registers, which alias to themselves at offset 0 —
// has an entry here.
//
// Flag bits (ZF, CF, SF, OF, PF) are modeled as their own 1-bit base
// registers rather than packed into a composite EFLAGS value: spec
// §4.2 step 3 has the lifter "set flags explicitly using
// boolean-width (1) IR temporaries with a canonical recipe per
// flag", and persisting each flag as its own canonical register is
// the natural generalization of the teacher's approach in
// pkg/cpu/flags.go (table-driven per-bit flag computation) to an
// architecture-neutral IR that has no fixed-layout flags register.
var Aliases = ir.AliasMap{
	"EAX": {Base: "EAX", Offset: 0, Width: 32},
	"AX":  {Base: "EAX", Offset: 0, Width: 16},
	"AL":  {Base: "EAX", Offset: 0, Width: 8},
	"AH":  {Base: "EAX", Offset: 8, Width: 8},

	"EBX": {Base: "EBX", Offset: 0, Width: 32},
	"BX":  {Base: "EBX", Offset: 0, Width: 16},
	"BL":  {Base: "EBX", Offset: 0, Width: 8},
	"BH":  {Base: "EBX", Offset: 8, Width: 8},

	"ECX": {Base: "ECX", Offset: 0, Width: 32},
	"CX":  {Base: "ECX", Offset: 0, Width: 16},
	"CL":  {Base: "ECX", Offset: 0, Width: 8},
	"CH":  {Base: "ECX", Offset: 8, Width: 8},

	"EDX": {Base: "EDX", Offset: 0, Width: 32},
	"DX":  {Base: "EDX", Offset: 0, Width: 16},
	"DL":  {Base: "EDX", Offset: 0, Width: 8},
	"DH":  {Base: "EDX", Offset: 8, Width: 8},

	"ESI": {Base: "ESI", Offset: 0, Width: 32},
	"SI":  {Base: "ESI", Offset: 0, Width: 16},

	"EDI": {Base: "EDI", Offset: 0, Width: 32},
	"DI":  {Base: "EDI", Offset: 0, Width: 16},

	"EBP": {Base: "EBP", Offset: 0, Width: 32},
	"BP":  {Base: "EBP", Offset: 0, Width: 16},

	"ESP": {Base: "ESP", Offset: 0, Width: 32},
	"SP":  {Base: "ESP", Offset: 0, Width: 16},

	"EIP": {Base: "EIP", Offset: 0, Width: 32},

	"ZF": {Base: "ZF", Offset: 0, Width: 1},
	"CF": {Base: "CF", Offset: 0, Width: 1},
	"SF": {Base: "SF", Offset: 0, Width: 1},
	"OF": {Base: "OF", Offset: 0, Width: 1},
	"PF": {Base: "PF", Offset: 0, Width: 1},
}

// BaseWidths gives the native width of every canonical base register,
// used to seed emu.RegisterFile so masked sub-register writes know
// the full extent of their owning base.
var BaseWidths = map[string]ir.Width{
	"EAX": 32, "EBX": 32, "ECX": 32, "EDX": 32,
	"ESI": 32, "EDI": 32, "EBP": 32, "ESP": 32, "EIP": 32,
	"ZF": 1, "CF": 1, "SF": 1, "OF": 1, "PF": 1,
}

// WordSize is the x86 (32-bit) stack/address width in bytes, used by
// CALL/RET/PUSH/POP to adjust ESP.
const WordSize = 4

// AddressWidth is the architectural address width (spec §4.3's
// "w1 = architecture address size" requirement for LDM/STM).
const AddressWidth ir.Width = 32
