package emu

import "math/big"

// Memory is a sparse, byte-addressed address space. Reads of
// never-written bytes return a deterministic fill value (spec §4.4;
// the default, per spec §9's Open Question resolution, is zero).
// Generalized from the teacher's single virtual-memory byte
// (cpu.State.M, the "Wave 5" indirect-addressing cell) to a full
// sparse map, since the IR is byte-addressed rather than
// single-cell.
type Memory struct {
	bytes map[uint64]byte
	fill  byte
}

// NewMemory creates an empty memory with the given fill byte for
// never-written addresses.
func NewMemory(fill byte) *Memory {
	return &Memory{bytes: make(map[uint64]byte), fill: fill}
}

// ReadByte returns the byte at addr, or the configured fill value if
// never written.
func (m *Memory) ReadByte(addr uint64) byte {
	if b, ok := m.bytes[addr]; ok {
		return b
	}
	return m.fill
}

// WriteByte stores a single byte at addr.
func (m *Memory) WriteByte(addr uint64, v byte) {
	m.bytes[addr] = v
}

// ReadN reads n bytes starting at addr, little-endian, and returns
// them as an unsigned big.Int (spec §4.3: LDM loads little-endian).
func (m *Memory) ReadN(addr uint64, n int) *big.Int {
	out := new(big.Int)
	tmp := new(big.Int)
	for i := n - 1; i >= 0; i-- {
		out.Lsh(out, 8)
		tmp.SetUint64(uint64(m.ReadByte(addr + uint64(i))))
		out.Or(out, tmp)
	}
	return out
}

// WriteN stores the low n bytes of v at addr, little-endian (spec
// §4.3: STM stores little-endian).
func (m *Memory) WriteN(addr uint64, v *big.Int, n int) {
	tmp := new(big.Int).Set(v)
	mask := big.NewInt(0xff)
	byteVal := new(big.Int)
	for i := 0; i < n; i++ {
		byteVal.And(tmp, mask)
		m.WriteByte(addr+uint64(i), byte(byteVal.Uint64()))
		tmp.Rsh(tmp, 8)
	}
}

// Snapshot returns a copy of the sparse byte map (for callers
// inspecting final memory state).
func (m *Memory) Snapshot() map[uint64]byte {
	out := make(map[uint64]byte, len(m.bytes))
	for k, v := range m.bytes {
		out[k] = v
	}
	return out
}

// SetSnapshot seeds memory from a caller-supplied initial map (spec
// §4.4: Execute accepts an optional initial memory map).
func (m *Memory) SetSnapshot(init map[uint64]byte) {
	for k, v := range init {
		m.bytes[k] = v
	}
}
