package emu

import (
	"errors"
	"fmt"
)

// FaultKind distinguishes the three emulation fault kinds callers must
// be able to tell apart (spec §4.4/§7).
type FaultKind int

const (
	FaultInvalidAddress FaultKind = iota
	FaultZeroDivision
	FaultUnknown
)

// Sentinel errors for errors.Is checks, following the teacher's plain
// error-value idiom (no error-taxonomy library appears anywhere in the
// retrieval pack to ground a third-party choice on — see DESIGN.md).
var (
	ErrInvalidAddress = errors.New("emu: invalid address")
	ErrZeroDivision    = errors.New("emu: zero division")
	ErrUnknown         = errors.New("emu: unknown instruction")
)

// Fault is the error type surfaced by Execute/ExecuteLite for any of
// the three fault kinds, carrying the IR address where the fault
// occurred.
type Fault struct {
	Kind   FaultKind
	Addr   uint64
	Detail string
}

func (f *Fault) sentinel() error {
	switch f.Kind {
	case FaultInvalidAddress:
		return ErrInvalidAddress
	case FaultZeroDivision:
		return ErrZeroDivision
	case FaultUnknown:
		return ErrUnknown
	default:
		return errors.New("emu: fault")
	}
}

func (f *Fault) Error() string {
	if f.Detail != "" {
		return fmt.Sprintf("%s at %#x: %s", f.sentinel(), f.Addr, f.Detail)
	}
	return fmt.Sprintf("%s at %#x", f.sentinel(), f.Addr)
}

// Unwrap allows errors.Is(err, emu.ErrZeroDivision) etc. to work.
func (f *Fault) Unwrap() error {
	return f.sentinel()
}
