package wasm

import "github.com/seanpm2001/threads/internal/wasmval"

// HostFunc is the opaque callback an embedder supplies for a host
// function instance. It observes and returns guest values in program
// order (Invariant 4, §3).
type HostFunc func(args []wasmval.Value) ([]wasmval.Value, error)

// FunctionInstance is either an ast function (Kind == FunctionKindWasm,
// carrying its body as a list of administrative instructions and its
// declared locals) or a host function (Kind == FunctionKindHost,
// carrying GoFunc). Module is the back-reference to the owning module
// instance; it is intentionally left unset by NewASTFunction and patched
// by Init (init.go) once the instance exists, resolving the cyclic
// function<->instance reference described in §9.
type FunctionInstance struct {
	Kind FunctionKind
	Type *FunctionType

	// LocalTypes declares the additional (non-parameter) locals of an
	// ast function, default-initialized at each Invoke.
	LocalTypes []wasmval.Type
	Body       []Instr

	GoFunc HostFunc

	Module *ModuleInstance
	Idx    Index

	DebugName string
}

type FunctionKind byte

const (
	FunctionKindWasm FunctionKind = iota
	FunctionKindHost
)

func NewASTFunction(t *FunctionType, locals []wasmval.Type, body []Instr, name string) *FunctionInstance {
	return &FunctionInstance{Kind: FunctionKindWasm, Type: t, LocalTypes: locals, Body: body, DebugName: name}
}

func NewHostFunction(t *FunctionType, fn HostFunc, name string) *FunctionInstance {
	return &FunctionInstance{Kind: FunctionKindHost, Type: t, GoFunc: fn, DebugName: name}
}
