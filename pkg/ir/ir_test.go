package ir

import (
	"math/big"
	"testing"
)

// TestWidthTruncate verifies value masking at several widths.
func TestWidthTruncate(t *testing.T) {
	tests := []struct {
		v    uint64
		w    Width
		want uint64
	}{
		{0xFF, Width8, 0xFF},
		{0x1FF, Width8, 0xFF},
		{0x100, Width8, 0},
		{0xFFFFFFFF, Width16, 0xFFFF},
		{1, Width1, 1},
		{2, Width1, 0},
	}
	for _, tc := range tests {
		got := Truncate(new(big.Int).SetUint64(tc.v), tc.w)
		if got.Uint64() != tc.want {
			t.Errorf("Truncate(%#x, %d) = %#x, want %#x", tc.v, tc.w, got.Uint64(), tc.want)
		}
	}
}

func TestWidthValid(t *testing.T) {
	if !Width32.Valid() {
		t.Error("Width32 should be valid")
	}
	if Width(33).Valid() {
		t.Error("Width(33) should not be a listed admissible width")
	}
}

func TestMakeAddressRoundTrip(t *testing.T) {
	addr := MakeAddress(0x1000, 3)
	if NativeAddress(addr) != 0x1000 {
		t.Errorf("NativeAddress = %#x, want 0x1000", NativeAddress(addr))
	}
	if SubIndex(addr) != 3 {
		t.Errorf("SubIndex = %d, want 3", SubIndex(addr))
	}
}

func TestJumpTargetIsSubIndexZero(t *testing.T) {
	target := JumpTarget(0x2000)
	if SubIndex(target) != 0 {
		t.Errorf("JumpTarget sub-index = %d, want 0", SubIndex(target))
	}
	if NativeAddress(target) != 0x2000 {
		t.Errorf("JumpTarget native address = %#x, want 0x2000", NativeAddress(target))
	}
}

func TestMnemonicRoundTrip(t *testing.T) {
	for m := Mnemonic(0); m < MnemonicCount; m++ {
		name := m.String()
		if name == "INVALID" {
			t.Errorf("mnemonic %d has no catalog entry", m)
			continue
		}
		got, ok := ParseMnemonic(name)
		if !ok || got != m {
			t.Errorf("ParseMnemonic(%q) = %v, %v; want %v, true", name, got, ok, m)
		}
	}
}

func TestParseMnemonicUnknown(t *testing.T) {
	if _, ok := ParseMnemonic("NOT_A_MNEMONIC"); ok {
		t.Error("ParseMnemonic should fail for an unknown name")
	}
}

// TestInstructionTextRoundTrip exercises spec §6's textual encoding in
// both directions for each operand kind.
func TestInstructionTextRoundTrip(t *testing.T) {
	tests := []Instruction{
		{
			Mnemonic: ADD,
			Op0:      RegisterOperand{Name: "EAX", W: Width32},
			Op1:      RegisterOperand{Name: "EAX", W: Width32},
			Op2:      RegisterOperand{Name: "EBX", W: Width32},
			Address:  MakeAddress(0x400000, 0),
		},
		{
			Mnemonic: STR,
			Op0:      RegisterOperand{Name: "t0", W: Width8},
			Op1:      ImmU(42, Width8),
			Op2:      EmptyOperand{},
			Address:  MakeAddress(0x400000, 1),
		},
		{
			Mnemonic: NOP,
			Op0:      EmptyOperand{},
			Op1:      EmptyOperand{},
			Op2:      EmptyOperand{},
			Address:  MakeAddress(0x400001, 0),
		},
	}

	for _, want := range tests {
		text := want.String()
		got, err := ParseInstruction(text)
		if err != nil {
			t.Fatalf("ParseInstruction(%q) failed: %v", text, err)
		}
		if got.Mnemonic != want.Mnemonic || got.Address != want.Address {
			t.Errorf("round trip %q: mnemonic/address mismatch: got %+v, want %+v", text, got, want)
		}
		if got.String() != text {
			t.Errorf("round trip not stable: %q -> %q", text, got.String())
		}
	}
}

func TestParseInstructionErrors(t *testing.T) {
	tests := []string{
		"",
		"not a valid line",
		"0x0 : BOGUS [EMPTY, EMPTY, EMPTY]",
		"0x0 : ADD [EMPTY, EMPTY]",
	}
	for _, line := range tests {
		if _, err := ParseInstruction(line); err == nil {
			t.Errorf("ParseInstruction(%q) should have failed", line)
		}
	}
}

// TestBuilderLabelLinking verifies that a forward label resolves to
// the address of the instruction appended right after it.
func TestBuilderLabelLinking(t *testing.T) {
	b := NewBuilder(0x1000)
	target := b.Label("skip")
	b.Add(BISZ, RegisterOperand{Name: "t0", W: Width1}, ImmU(0, Width32), nil)
	b.Add(JCC, RegisterOperand{Name: "t0", W: Width1}, target, nil)
	b.Add(NOP, nil, nil, nil)

	seq, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	jcc := seq[1]
	resolved, ok := jcc.Op1.(ImmediateOperand)
	if !ok {
		t.Fatalf("JCC target operand is %T, want ImmediateOperand", jcc.Op1)
	}
	wantAddr := MakeAddress(0x1000, 0)
	if resolved.Value.Uint64() != wantAddr {
		t.Errorf("resolved label = %#x, want %#x", resolved.Value.Uint64(), wantAddr)
	}
}

func TestBuilderUnresolvedLabelFails(t *testing.T) {
	b := NewBuilder(0x1000)
	b.Add(JCC, ImmU(1, Width1), labelOperand{Name: "dangling"}, nil)
	if _, err := b.Finish(); err == nil {
		t.Error("Finish should fail for an unresolved label")
	}
}

func TestAliasMapResolve(t *testing.T) {
	aliases := AliasMap{
		"EAX": {Base: "EAX", Offset: 0, Width: Width32},
		"AX":  {Base: "EAX", Offset: 0, Width: Width16},
		"AL":  {Base: "EAX", Offset: 0, Width: Width8},
		"AH":  {Base: "EAX", Offset: 8, Width: Width8},
	}
	a, ok := aliases.Resolve("AH")
	if !ok || a.Base != "EAX" || a.Offset != 8 || a.Width != Width8 {
		t.Errorf("Resolve(AH) = %+v, %v; want Base=EAX Offset=8 Width=8", a, ok)
	}
	if aliases.Base("AL") != "EAX" {
		t.Errorf("Base(AL) = %q, want EAX", aliases.Base("AL"))
	}
	if aliases.Base("UNKNOWN") != "UNKNOWN" {
		t.Errorf("Base(UNKNOWN) = %q, want UNKNOWN (fallback to name itself)", aliases.Base("UNKNOWN"))
	}
}

func TestIsEmpty(t *testing.T) {
	if !IsEmpty(nil) {
		t.Error("nil should be empty")
	}
	if !IsEmpty(EmptyOperand{}) {
		t.Error("EmptyOperand{} should be empty")
	}
	if IsEmpty(ImmU(0, Width8)) {
		t.Error("a zero-valued immediate is not the empty operand")
	}
}
