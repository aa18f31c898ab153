package interpreter

import (
	"github.com/seanpm2001/threads/internal/wasm"
	"github.com/seanpm2001/threads/internal/wasmval"
)

// Immediate payload shapes carried by wasm.Opcode.Imm, one per plain
// instruction family. Keeping these as small structs (rather than a
// single named Go type per opcode) lets the reducer stay a short
// name-keyed switch instead of several hundred near-identical cases.

// BlockImm is the immediate of "block"/"loop": the block type (params and
// results) and its instruction body.
type BlockImm struct {
	Params, Results []wasmval.Type
	Body            []wasm.Instr
}

// IfImm is the immediate of "if": block type plus the then/else bodies.
type IfImm struct {
	Params, Results []wasmval.Type
	Then, Else      []wasm.Instr
}

// BrTableImm is the immediate of "br_table".
type BrTableImm struct {
	Targets []uint32
	Default uint32
}

// CallIndirectImm is the immediate of "call_indirect".
type CallIndirectImm struct {
	TableIdx, TypeIdx uint32
}

// MemArg is the immediate of every load/store/atomic memory instruction:
// the static offset added to the i32 base address, and which memory it
// addresses (always 0 in this core; multi-memory is a later proposal
// than threads and out of scope).
type MemArg struct {
	Offset uint32
	MemIdx uint32
}

// AtomicRMWImm pairs a MemArg with the RMW operator name ("add", "sub",
// "and", "or", "xor", "xchg").
type AtomicRMWImm struct {
	Mem MemArg
	Op  string
}
