package wasm

import (
	"github.com/seanpm2001/threads/internal/wasmruntime"
	"github.com/seanpm2001/threads/internal/wasmval"
)

// GlobalInstance is a cell with a declared value type and mutability
// flag, per §3. Val holds the 64-bit (or low 64 bits, for reference
// types stored alongside Ref) representation, mirroring wazero's own
// GlobalInstance.Val convention.
type GlobalInstance struct {
	Type wasmval.Type
	Mut  bool
	Val  wasmval.Value
}

func NewGlobal(t GlobalType, init wasmval.Value) *GlobalInstance {
	return &GlobalInstance{Type: t.ValType, Mut: t.Mutable, Val: init}
}

func (g *GlobalInstance) Get() wasmval.Value { return g.Val }

// Set stores v into the global. Storing to an immutable global, or a
// value whose type disagrees with the global's declared type, can never
// happen for a validated module and is therefore a crash, not a trap.
func (g *GlobalInstance) Set(v wasmval.Value) {
	if !g.Mut {
		wasmruntime.Crash("store to immutable global")
	}
	if v.Type != g.Type {
		wasmruntime.Crash("global.set type mismatch: declared %s, got %s", g.Type, v.Type)
	}
	g.Val = v
}
