package arm

import "github.com/oisee/barfgo/pkg/ir"

// Aliases is the ARM (32-bit, reduced A32 subset) register alias map.
// ARM has no byte/half sub-registers in general-purpose use, so every
// entry aliases to itself at offset 0 — the alias map still exists
// (rather than being skipped) so emu.RegisterFile's generic
// base/offset/width model works identically across architectures
// (spec §3's architecture-neutral register file).
var Aliases = ir.AliasMap{
	"R0": {Base: "R0", Offset: 0, Width: 32}, "R1": {Base: "R1", Offset: 0, Width: 32},
	"R2": {Base: "R2", Offset: 0, Width: 32}, "R3": {Base: "R3", Offset: 0, Width: 32},
	"R4": {Base: "R4", Offset: 0, Width: 32}, "R5": {Base: "R5", Offset: 0, Width: 32},
	"R6": {Base: "R6", Offset: 0, Width: 32}, "R7": {Base: "R7", Offset: 0, Width: 32},
	"R8": {Base: "R8", Offset: 0, Width: 32}, "R9": {Base: "R9", Offset: 0, Width: 32},
	"R10": {Base: "R10", Offset: 0, Width: 32}, "R11": {Base: "R11", Offset: 0, Width: 32},
	"R12": {Base: "R12", Offset: 0, Width: 32},
	"SP":  {Base: "SP", Offset: 0, Width: 32},
	"LR":  {Base: "LR", Offset: 0, Width: 32},
	"PC":  {Base: "PC", Offset: 0, Width: 32},

	"ZF": {Base: "ZF", Offset: 0, Width: 1},
	"CF": {Base: "CF", Offset: 0, Width: 1},
	"NF": {Base: "NF", Offset: 0, Width: 1},
	"VF": {Base: "VF", Offset: 0, Width: 1},
}

// BaseWidths gives the native width of every canonical base register.
var BaseWidths = map[string]ir.Width{
	"R0": 32, "R1": 32, "R2": 32, "R3": 32, "R4": 32, "R5": 32,
	"R6": 32, "R7": 32, "R8": 32, "R9": 32, "R10": 32, "R11": 32,
	"R12": 32, "SP": 32, "LR": 32, "PC": 32,
	"ZF": 1, "CF": 1, "NF": 1, "VF": 1,
}

// WordSize is the ARM (32-bit) stack/address width in bytes.
const WordSize = 4

// AddressWidth is the architectural address width.
const AddressWidth ir.Width = 32
