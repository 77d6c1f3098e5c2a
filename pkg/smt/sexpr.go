package smt

import "fmt"

// DeclareBitVec renders a bitvector symbol declaration.
func DeclareBitVec(name string, width uint) string {
	return fmt.Sprintf("(declare-fun %s () (_ BitVec %d))", name, width)
}

// DeclareBool renders a boolean symbol declaration.
func DeclareBool(name string) string {
	return fmt.Sprintf("(declare-fun %s () Bool)", name)
}

// DeclareArray renders an (Array (_ BitVec idxWidth) (_ BitVec valWidth))
// symbol declaration, used for the SSA-versioned memory array (spec
// §4.5's "MEM_k" versioning).
func DeclareArray(name string, idxWidth, valWidth uint) string {
	return fmt.Sprintf("(declare-fun %s () (Array (_ BitVec %d) (_ BitVec %d)))", name, idxWidth, valWidth)
}

// Assert renders an (assert expr) command.
func Assert(e Expr) string { return fmt.Sprintf("(assert %s)", e) }

// Push/Pop/CheckSat/Reset render the solver's incremental-stack and
// satisfiability commands, grounded on smtlibv2.py's _send wrapping
// of raw SMT-LIB command strings.
func Push() string     { return "(push 1)" }
func Pop() string      { return "(pop 1)" }
func CheckSat() string { return "(check-sat)" }
func Reset() string    { return "(reset)" }

// GetValue renders a (get-value (name)) query for a single symbol.
func GetValue(name string) string {
	return fmt.Sprintf("(get-value (%s))", name)
}

// SetLogic renders a (set-logic ...) command. QF_ABV (quantifier-free
// array + bitvector theory) covers everything the translator emits:
// bitvector arithmetic plus the memory array.
func SetLogic(logic string) string {
	return fmt.Sprintf("(set-logic %s)", logic)
}
