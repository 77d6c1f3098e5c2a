package smt

import (
	"bufio"
	"bytes"
	"math/big"
	"strings"
	"testing"

	"github.com/oisee/barfgo/pkg/ir"
)

// --- Expr / sexpr rendering ---

func TestExprRendering(t *testing.T) {
	tests := []struct {
		name string
		got  Expr
		want string
	}{
		{"BVAdd", BVAdd(Sym("a"), Sym("b")), "(bvadd a b)"},
		{"BVUlt", BVUlt(Sym("a"), Sym("b")), "(bvult a b)"},
		{"Extract", Extract(15, 8, Sym("x")), "((_ extract 15 8) x)"},
		{"ZeroExtend", ZeroExtend(16, Sym("x")), "((_ zero_extend 16) x)"},
		{"Concat", Concat(Sym("hi"), Sym("lo")), "(concat hi lo)"},
		{"Ite", Ite(Sym("c"), Sym("t"), Sym("e")), "(ite c t e)"},
		{"Select", Select(Sym("MEM"), Sym("addr")), "(select MEM addr)"},
		{"Store", Store(Sym("MEM"), Sym("addr"), Sym("v")), "(store MEM addr v)"},
		{"BVU", BVU(8, 255), "(_ bv255 8)"},
		{"BoolConst true", BoolConst(true), "true"},
	}
	for _, tc := range tests {
		if string(tc.got) != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, tc.got, tc.want)
		}
	}
}

func TestBVMasksToWidth(t *testing.T) {
	got := BV(8, big.NewInt(0x1FF))
	want := Expr("(_ bv255 8)")
	if got != want {
		t.Errorf("BV(8, 0x1ff) = %q, want %q (masked to 8 bits)", got, want)
	}
}

func TestIsZero(t *testing.T) {
	got := IsZero(Sym("x"), 32)
	want := Expr("(= x (_ bv0 32))")
	if got != want {
		t.Errorf("IsZero = %q, want %q", got, want)
	}
}

func TestSexprCommands(t *testing.T) {
	if got := DeclareBitVec("EAX_0", 32); got != "(declare-fun EAX_0 () (_ BitVec 32))" {
		t.Errorf("DeclareBitVec = %q", got)
	}
	if got := DeclareArray("MEM_0", 32, 8); got != "(declare-fun MEM_0 () (Array (_ BitVec 32) (_ BitVec 8)))" {
		t.Errorf("DeclareArray = %q", got)
	}
	if got := Assert(Sym("x")); got != "(assert x)" {
		t.Errorf("Assert = %q", got)
	}
	if got := GetValue("EAX_3"); got != "(get-value (EAX_3))" {
		t.Errorf("GetValue = %q", got)
	}
}

// --- parseGetValueResponse ---

func TestParseGetValueResponse(t *testing.T) {
	tests := []struct {
		resp string
		want int64
	}{
		{"((EAX_0 #x0000002a))", 42},
		{"((x_1 #b00101010))", 42},
		{"((flag 1))", 1},
	}
	for _, tc := range tests {
		got, err := parseGetValueResponse(tc.resp)
		if err != nil {
			t.Fatalf("parseGetValueResponse(%q) failed: %v", tc.resp, err)
		}
		if got.Int64() != tc.want {
			t.Errorf("parseGetValueResponse(%q) = %d, want %d", tc.resp, got.Int64(), tc.want)
		}
	}
}

func TestParseGetValueResponseMalformed(t *testing.T) {
	if _, err := parseGetValueResponse("not a response"); err == nil {
		t.Error("expected an error for a response with no literal")
	}
}

// --- recvBalanced ---

func newFakeSupervisor(responses string) (*Supervisor, *bytes.Buffer) {
	var sent bytes.Buffer
	return &Supervisor{
		stdin:  nopWriteCloser{&sent},
		stdout: bufio.NewReader(strings.NewReader(responses)),
		decls:  make(map[string]declEntry),
	}, &sent
}

type nopWriteCloser struct{ *bytes.Buffer }

func (nopWriteCloser) Close() error { return nil }

func TestRecvBalancedBareStatus(t *testing.T) {
	s, _ := newFakeSupervisor("sat\n")
	got, err := s.recvBalanced()
	if err != nil {
		t.Fatalf("recvBalanced failed: %v", err)
	}
	if got != "sat" {
		t.Errorf("recvBalanced = %q, want sat", got)
	}
}

// TestRecvBalancedMultiLine verifies parens are balanced across
// several physical lines before the response is considered complete,
// grounded on spec §4.5's multi-line solver reply handling.
func TestRecvBalancedMultiLine(t *testing.T) {
	s, _ := newFakeSupervisor("((EAX_0\n  #x0000002a))\n")
	got, err := s.recvBalanced()
	if err != nil {
		t.Fatalf("recvBalanced failed: %v", err)
	}
	want := "((EAX_0\n  #x0000002a))"
	if got != want {
		t.Errorf("recvBalanced = %q, want %q", got, want)
	}
}

func TestRecvBalancedErrorResponse(t *testing.T) {
	s, _ := newFakeSupervisor("(error \"line 3: unexpected token\")\n")
	if _, err := s.recvBalanced(); err == nil {
		t.Error("expected an error for a solver (error ...) response")
	}
}

// --- declaration caching ---

func TestMkBitVecCachesDeclaration(t *testing.T) {
	s, sent := newFakeSupervisor("")
	if _, err := s.MkBitVec(32, "EAX_0"); err != nil {
		t.Fatalf("MkBitVec failed: %v", err)
	}
	if _, err := s.MkBitVec(32, "EAX_0"); err != nil {
		t.Fatalf("second MkBitVec failed: %v", err)
	}
	n := strings.Count(sent.String(), "declare-fun")
	if n != 1 {
		t.Errorf("declare-fun sent %d times, want 1 (second call should hit the cache)", n)
	}
}

// --- Translator ---

func testAliases() ir.AliasMap {
	return ir.AliasMap{
		"EAX": {Base: "EAX", Offset: 0, Width: ir.Width32},
		"AL":  {Base: "EAX", Offset: 0, Width: ir.Width8},
		"AH":  {Base: "EAX", Offset: 8, Width: ir.Width8},
		"EBX": {Base: "EBX", Offset: 0, Width: ir.Width32},
	}
}

func testBaseWidths() map[string]ir.Width {
	return map[string]ir.Width{"EAX": ir.Width32, "EBX": ir.Width32}
}

func reg(name string, w ir.Width) ir.RegisterOperand { return ir.RegisterOperand{Name: name, W: w} }

func TestTranslateAddAssertsSSAStep(t *testing.T) {
	s, sent := newFakeSupervisor("")
	tr := NewTranslator(s, testAliases(), testBaseWidths(), ir.Width32)

	instr := ir.Instruction{Mnemonic: ir.ADD, Op0: reg("EAX", ir.Width32), Op1: reg("EBX", ir.Width32), Op2: reg("EAX", ir.Width32)}
	if err := tr.Translate([]ir.Instruction{instr}); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	out := sent.String()
	if !strings.Contains(out, "(declare-fun EAX_0 ()") {
		t.Errorf("expected declaration of EAX_0, got:\n%s", out)
	}
	if !strings.Contains(out, "(declare-fun EBX_0 ()") {
		t.Errorf("expected declaration of EBX_0, got:\n%s", out)
	}
	if !strings.Contains(out, "(declare-fun EAX_1 ()") {
		t.Errorf("expected a new SSA version EAX_1, got:\n%s", out)
	}
	if !strings.Contains(out, "(assert (= EAX_1 (bvadd EAX_0 EBX_0)))") {
		t.Errorf("expected the ADD assertion over EAX_0/EBX_0, got:\n%s", out)
	}
}

// TestTranslateSubRegisterWriteTwoRange locks in spec §4.5's two-range
// bit-preservation constraint: writing AH (offset 8, width 8) inside a
// 32-bit EAX must preserve both the low 8 bits and the top 16 bits.
func TestTranslateSubRegisterWriteTwoRange(t *testing.T) {
	s, sent := newFakeSupervisor("")
	tr := NewTranslator(s, testAliases(), testBaseWidths(), ir.Width32)

	instr := ir.Instruction{Mnemonic: ir.STR, Op0: ir.ImmU(0xAB, ir.Width8), Op1: ir.EmptyOperand{}, Op2: reg("AH", ir.Width8)}
	if err := tr.Translate([]ir.Instruction{instr}); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	out := sent.String()
	want := "(assert (= EAX_1 (concat (concat ((_ extract 31 16) EAX_0) (_ bv171 8)) ((_ extract 7 0) EAX_0))))"
	if !strings.Contains(out, want) {
		t.Errorf("expected two-range concat assertion, got:\n%s\nwant substring:\n%s", out, want)
	}
}

// TestTranslateLowSubRegisterWriteSingleRange checks the offset==0
// single-range case (AL inside EAX): only the top bits need preserving.
func TestTranslateLowSubRegisterWriteSingleRange(t *testing.T) {
	s, sent := newFakeSupervisor("")
	tr := NewTranslator(s, testAliases(), testBaseWidths(), ir.Width32)

	instr := ir.Instruction{Mnemonic: ir.STR, Op0: ir.ImmU(0xFF, ir.Width8), Op1: ir.EmptyOperand{}, Op2: reg("AL", ir.Width8)}
	if err := tr.Translate([]ir.Instruction{instr}); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	out := sent.String()
	want := "(assert (= EAX_1 (concat ((_ extract 31 8) EAX_0) (_ bv255 8))))"
	if !strings.Contains(out, want) {
		t.Errorf("expected single-range concat assertion, got:\n%s\nwant substring:\n%s", out, want)
	}
}

// TestTranslateBshModuloDestinationWidth mirrors
// pkg/emu/emu_test.go's TestBshModuloDestinationWidth: a shift amount
// that reaches the destination width must reduce modulo that width
// rather than translate straight into bvshl/bvlshr, which would
// zero the result instead of wrapping.
func TestTranslateBshModuloDestinationWidth(t *testing.T) {
	s, sent := newFakeSupervisor("")
	tr := NewTranslator(s, testAliases(), testBaseWidths(), ir.Width32)

	// AL is an 8-bit destination; a shift amount of 8 must reduce to
	// 8 mod 8 == 0 rather than translate straight into bvshl, which
	// would zero the result for a shift amount equal to the width.
	instr := ir.Instruction{
		Mnemonic: ir.BSH,
		Op0:      reg("AL", ir.Width8),
		Op1:      ir.ImmU(8, ir.Width8),
		Op2:      reg("AL", ir.Width8),
	}
	if err := tr.Translate([]ir.Instruction{instr}); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	out := sent.String()
	if !strings.Contains(out, "bvurem") {
		t.Errorf("expected the shift amount to be reduced via bvurem before bvshl/bvlshr, got:\n%s", out)
	}
	rawShift := "(bvshl ((_ extract 7 0) EAX_0) (_ bv8 8))"
	if strings.Contains(out, rawShift) {
		t.Errorf("shift amount 8 reached bvshl unreduced, got:\n%s\n(contains %q)", out, rawShift)
	}
}

func emptyOps(m ir.Mnemonic) ir.Instruction {
	return ir.Instruction{Mnemonic: m, Op0: ir.EmptyOperand{}, Op1: ir.EmptyOperand{}, Op2: ir.EmptyOperand{}}
}

func TestTranslateUnknownFails(t *testing.T) {
	s, _ := newFakeSupervisor("")
	tr := NewTranslator(s, testAliases(), testBaseWidths(), ir.Width32)
	err := tr.Translate([]ir.Instruction{emptyOps(ir.UNKN)})
	if err == nil {
		t.Error("translating UNKN should fail")
	}
}

func TestTranslateJccNopRetAreSkipped(t *testing.T) {
	s, sent := newFakeSupervisor("")
	tr := NewTranslator(s, testAliases(), testBaseWidths(), ir.Width32)
	jcc := emptyOps(ir.JCC)
	jcc.Op0 = ir.ImmU(1, ir.Width1)
	jcc.Op2 = ir.ImmU(0x1000, ir.Width40)
	seq := []ir.Instruction{emptyOps(ir.NOP), emptyOps(ir.RET), jcc}
	if err := tr.Translate(seq); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if sent.Len() != 0 {
		t.Errorf("NOP/RET/JCC should emit no SMT commands, got:\n%s", sent.String())
	}
}
