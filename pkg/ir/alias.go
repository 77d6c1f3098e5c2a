package ir

// Alias describes one entry of an architecture's sub-register alias
// map: a sub-register name maps to a canonical base register and the
// bit offset at which it lives within that base.
//
// Per DESIGN NOTES, alias maps are static, per-architecture value
// tables — never a runtime reflection mechanism.
type Alias struct {
	Base   string
	Offset Width
	Width  Width
}

// AliasMap maps a sub-register (or base-register, which aliases to
// itself at offset 0) name to its Alias entry.
type AliasMap map[string]Alias

// Resolve looks up name in the alias map. Callers that pass a name
// with no entry get ok=false; architecture translators are expected
// to populate every register name they ever emit, including base
// registers (aliased to themselves).
func (m AliasMap) Resolve(name string) (Alias, bool) {
	a, ok := m[name]
	return a, ok
}

// Base returns the canonical base register name for a given
// sub-register/base name, or name itself if there is no entry.
func (m AliasMap) Base(name string) string {
	if a, ok := m[name]; ok {
		return a.Base
	}
	return name
}
