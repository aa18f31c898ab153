package wasm

import "github.com/seanpm2001/threads/internal/wasmval"

// Module is the already-validated module description an external
// collaborator (a binary/text decoder, out of scope per §1) hands to
// Init. It mirrors wazero's own wasm.Module shape (TypeSection,
// FunctionSection, ImportSection, ExportSection, ...) but at the level of
// decoded structures rather than raw binary sections, since decoding
// itself is not this core's job.
type Module struct {
	Types []*FunctionType

	// Funcs describes the module's own (non-imported) functions, in
	// module-local order.
	Funcs []*FunctionDecl

	Tables  []TableType
	Mems    []MemoryType
	Globals []*GlobalDecl

	Imports []*Import
	Exports []*ExportDecl

	Elems []*ElementSegmentDecl
	Datas []*DataSegmentDecl

	// Start, if non-nil, names a function (in the combined imports-first
	// index space) to call once instantiation's initializers have run.
	Start *Index

	Name string
}

// FunctionDecl is a locally-defined function prior to instantiation: a
// signature (by type index), its declared locals, and its body.
type FunctionDecl struct {
	TypeIdx    Index
	LocalTypes []wasmval.Type
	Body       []Instr
	Name       string
}

// GlobalDecl is a locally-defined global: its type/mutability and a
// constant-expression initializer, evaluated with EvalConst during Init.
type GlobalDecl struct {
	Type GlobalType
	Init []Instr
}

// ExportDecl names one export; Idx is in the combined (imports-first)
// index space of its Type's sequence.
type ExportDecl struct {
	Name string
	Type ExternType
	Idx  Index
}

// ElementMode classifies how an element segment is applied at
// instantiation time, per §4.3/§4.4.
type ElementMode byte

const (
	ElementModeActive ElementMode = iota
	ElementModePassive
	ElementModeDeclarative
)

// ElementSegmentDecl describes one element segment prior to lowering.
// For ElementModeActive, TableIdx/Offset name where it is written; Init
// is one constant expression per element (each reducing to a reference).
type ElementSegmentDecl struct {
	Mode     ElementMode
	ElemType wasmval.Type
	TableIdx Index
	Offset   []Instr
	Init     [][]Instr
}

// DataSegmentDecl describes one data segment prior to lowering. For
// ElementModeActive-equivalent "active" data segments, MemIdx/Offset name
// where the bytes are written.
type DataSegmentDecl struct {
	Active bool
	MemIdx Index
	Offset []Instr
	Init   []byte
}
