package x86

import (
	"errors"
	"math/big"
	"testing"

	"github.com/oisee/barfgo/pkg/emu"
	"github.com/oisee/barfgo/pkg/ir"
)

func lift(t *testing.T, instr Instruction) []ir.Instruction {
	t.Helper()
	tr := NewTranslator()
	seq, err := tr.Translate(instr)
	if err != nil {
		t.Fatalf("Translate(%+v) failed: %v", instr, err)
	}
	return seq
}

func run(t *testing.T, seq []ir.Instruction, initial map[string]*big.Int) *emu.Result {
	t.Helper()
	result, err := emu.ExecuteLite(seq, emu.Options{
		Aliases:      Aliases,
		BaseWidths:   BaseWidths,
		Registers:    initial,
		AddressWidth: AddressWidth,
	})
	if err != nil {
		t.Fatalf("ExecuteLite failed: %v", err)
	}
	return result
}

// TestLiftAddExecutesCorrectly covers spec §8 scenario "add eax, ebx".
func TestLiftAddExecutesCorrectly(t *testing.T) {
	instr := Instruction{
		Mnemonic: "add",
		Operands: []Operand{Register{Name: "EAX"}, Register{Name: "EBX"}},
		Address:  0x400000,
	}
	seq := lift(t, instr)
	result := run(t, seq, map[string]*big.Int{
		"EAX": big.NewInt(10),
		"EBX": big.NewInt(32),
	})
	if got := result.Registers["EAX"].Uint64(); got != 42 {
		t.Errorf("EAX after add = %d, want 42", got)
	}
	if zf := result.Registers["ZF"]; zf == nil || zf.Sign() != 0 {
		t.Errorf("ZF after add with nonzero result should be 0, got %v", zf)
	}
}

func TestLiftAddSetsZeroFlag(t *testing.T) {
	instr := Instruction{
		Mnemonic: "add",
		Operands: []Operand{Register{Name: "EAX"}, Register{Name: "EBX"}},
		Address:  0x400000,
	}
	seq := lift(t, instr)
	result := run(t, seq, map[string]*big.Int{
		"EAX": big.NewInt(0),
		"EBX": big.NewInt(0),
	})
	if zf := result.Registers["ZF"]; zf == nil || zf.Sign() == 0 {
		t.Errorf("ZF after 0+0 should be 1, got %v", zf)
	}
}

// TestLiftSubRegisterPreservesSiblingBits covers spec §8's sub-register
// preservation scenario: writing AL/AH must not disturb the other half
// of EAX.
func TestLiftSubRegisterPreservesSiblingBits(t *testing.T) {
	seq := lift(t, Instruction{
		Mnemonic: "mov",
		Operands: []Operand{Register{Name: "AL"}, Immediate{Value: 0xFF, Bits: 8}},
		Address:  0x400010,
	})
	result := run(t, seq, map[string]*big.Int{"EAX": big.NewInt(0x12345678)})
	if got := result.Registers["EAX"].Uint64(); got != 0x123456FF {
		t.Errorf("EAX after mov al,0xff = %#x, want 0x123456ff", got)
	}
}

func TestLiftMovAhPreservesLowByte(t *testing.T) {
	seq := lift(t, Instruction{
		Mnemonic: "mov",
		Operands: []Operand{Register{Name: "AH"}, Immediate{Value: 0xAB, Bits: 8}},
		Address:  0x400020,
	})
	result := run(t, seq, map[string]*big.Int{"EAX": big.NewInt(0x12345678)})
	if got := result.Registers["EAX"].Uint64(); got != 0x1234AB78 {
		t.Errorf("EAX after mov ah,0xab = %#x, want 0x1234ab78", got)
	}
}

// TestLiftDivWritesRemainder locks in the fix for a lifting bug where
// the remainder was computed but never written back.
func TestLiftDivWritesRemainder(t *testing.T) {
	seq := lift(t, Instruction{
		Mnemonic: "div",
		Operands: []Operand{Register{Name: "EAX"}, Register{Name: "EBX"}, Register{Name: "EDX"}},
		Address:  0x400030,
	})
	result := run(t, seq, map[string]*big.Int{
		"EAX": big.NewInt(17),
		"EBX": big.NewInt(5),
	})
	if got := result.Registers["EAX"].Uint64(); got != 3 {
		t.Errorf("quotient = %d, want 3", got)
	}
	if got := result.Registers["EDX"].Uint64(); got != 2 {
		t.Errorf("remainder = %d, want 2", got)
	}
}

func TestLiftDivByZeroFaults(t *testing.T) {
	seq := lift(t, Instruction{
		Mnemonic: "div",
		Operands: []Operand{Register{Name: "EAX"}, Register{Name: "EBX"}, Register{Name: "EDX"}},
		Address:  0x400040,
	})
	_, err := emu.ExecuteLite(seq, emu.Options{
		Aliases:    Aliases,
		BaseWidths: BaseWidths,
		Registers: map[string]*big.Int{
			"EAX": big.NewInt(17),
			"EBX": big.NewInt(0),
		},
	})
	if !errors.Is(err, emu.ErrZeroDivision) {
		t.Errorf("error = %v, want ErrZeroDivision", err)
	}
}

// TestLiftMulUpperHalf locks in the fix for a BSH-modulo-width bug:
// extracting MUL's upper half must shift at the doubled width before
// truncating, not shift directly into the narrow destination.
func TestLiftMulUpperHalf(t *testing.T) {
	seq := lift(t, Instruction{
		Mnemonic: "mul",
		Operands: []Operand{Register{Name: "EAX"}, Register{Name: "EBX"}},
		Address:  0x400050,
	})
	result := run(t, seq, map[string]*big.Int{
		"EAX": big.NewInt(0x10000),
		"EBX": big.NewInt(0x10000),
	})
	// 0x10000 * 0x10000 = 0x100000000, truncated to 32 bits = 0.
	if got := result.Registers["EAX"].Uint64(); got != 0 {
		t.Errorf("EAX (low half) = %#x, want 0", got)
	}
	// The upper half of 0x100000000 is 1 (nonzero), so CF must be set.
	if result.Registers["CF"].Sign() == 0 {
		t.Error("CF should be set: the upper half of the product is nonzero")
	}
}

// TestLiftCmpSetsZeroFlagOnEqual covers the ZF side of cmp, the
// condition jcc lifting reads from.
func TestLiftCmpSetsZeroFlagOnEqual(t *testing.T) {
	seq := lift(t, Instruction{
		Mnemonic: "cmp",
		Operands: []Operand{Register{Name: "EAX"}, Register{Name: "EBX"}},
		Address:  0x400060,
	})
	result := run(t, seq, map[string]*big.Int{
		"EAX": big.NewInt(5),
		"EBX": big.NewInt(5),
	})
	if result.Registers["ZF"].Sign() == 0 {
		t.Error("ZF should be set after cmp of equal operands")
	}
	// cmp must not write back to the destination.
	if got := result.Registers["EAX"].Uint64(); got != 5 {
		t.Errorf("cmp wrote back to EAX: got %d, want unchanged 5", got)
	}
}

// TestLiftCallRetRoundTrip covers a CALL/RET pair whose return address
// is >= 2^24, the threshold at which a push/pop path that shifts the
// composite JCC address before storing it (rather than at use time)
// would silently truncate the top byte.
func TestLiftCallRetRoundTrip(t *testing.T) {
	const callAddr = 0x08048065
	const funcAddr = 0x08049000
	const retAddr = callAddr + 5 // nextNative after a 5-byte call rel32

	callSeq := lift(t, Instruction{
		Mnemonic: "call",
		Operands: []Operand{Immediate{Value: funcAddr, Bits: 32}},
		Address:  callAddr,
		Size:     5,
	})
	retSeq := lift(t, Instruction{Mnemonic: "ret", Address: funcAddr})
	landingSeq := lift(t, Instruction{
		Mnemonic: "mov",
		Operands: []Operand{Register{Name: "EAX"}, Immediate{Value: 123, Bits: 32}},
		Address:  retAddr,
	})

	full := append(append(append([]ir.Instruction{}, callSeq...), retSeq...), landingSeq...)
	result := run(t, full, map[string]*big.Int{"ESP": big.NewInt(0x7ffffffc)})
	if got := result.Registers["EAX"].Uint64(); got != 123 {
		t.Errorf("EAX after call/ret round trip = %d, want 123 (return address %#x must survive the round trip intact)", got, uint64(retAddr))
	}
}

// TestLiftJmpTakenReachesTarget executes an unconditional jmp into a
// second native block loaded in the same container.
func TestLiftJmpTakenReachesTarget(t *testing.T) {
	jmpSeq := lift(t, Instruction{
		Mnemonic: "jmp",
		Operands: []Operand{Immediate{Value: 0x400070, Bits: 32}},
		Address:  0x400060,
	})
	targetSeq := lift(t, Instruction{
		Mnemonic: "mov",
		Operands: []Operand{Register{Name: "EAX"}, Immediate{Value: 99, Bits: 32}},
		Address:  0x400070,
	})
	full := append(append([]ir.Instruction{}, jmpSeq...), targetSeq...)
	result := run(t, full, nil)
	if got := result.Registers["EAX"].Uint64(); got != 99 {
		t.Errorf("EAX after jmp = %d, want 99", got)
	}
}
