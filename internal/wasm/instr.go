package wasm

import "github.com/seanpm2001/threads/internal/wasmval"

// Instr is the administrative-instruction sum type described in §3: a
// superset of source instructions that additionally carries pending
// control transfers (Trapping/Returning/Breaking) and the Label/Frame/
// Suspend wrappers the small-step reducer (internal/engine/interpreter)
// operates on. Modeled as a tagged variant (one struct per case) rather
// than an inheritance hierarchy, per the design notes in §9: control
// transfer is encoded as data the reducer can inspect and serialize, not
// as a host exception.
type Instr interface {
	isInstr()
}

// Opcode identifies a plain source instruction. The operator vocabulary
// (control/local/global/table/memory/numeric/vector/atomic mnemonics) is
// carried as a string tag plus an Imm payload rather than several hundred
// named Go types, which is idiomatic for a reducer that dispatches on
// opcode family, and avoids a thousand near-identical single-field structs for
// what the numeric evaluators already key off of.
type Opcode struct {
	Name string      // e.g. "i32.add", "br", "block", "memory.atomic.wait32"
	Imm  interface{} // immediate operand(s), shape depends on Name
}

func (Opcode) isInstr() {}

// Plain wraps a source instruction to be executed, as named in §3.
type Plain struct{ Op Opcode }

func (Plain) isInstr() {}

// Refer pushes an already-computed value (used for exported-call
// arguments, host-function results and a woken wait's result).
type Refer struct{ Value wasmval.Value }

func (Refer) isInstr() {}

// Invoke calls the given function instance.
type Invoke struct{ Func *FunctionInstance }

func (Invoke) isInstr() {}

// Trapping is a pending trap with a message; it bubbles through labels
// and frames without popping their stacks (Invariant 2).
type Trapping struct {
	Message string
	At      Position
}

func (Trapping) isInstr() {}

// Returning carries the result stack of a pending function return,
// consumed by the nearest Frame.
type Returning struct{ Values []wasmval.Value }

func (Returning) isInstr() {}

// Breaking carries a pending branch to label depth K with operands,
// consumed (at K==0) or decremented and re-propagated by the enclosing
// Label.
type Breaking struct {
	K      int
	Values []wasmval.Value
}

func (Breaking) isInstr() {}

// Label is a block/loop activation: Arity is the number of values a Br to
// this label carries (the block's results; the loop's params), Continuation
// is what a Br to this label resumes with (empty for block, the loop
// instruction itself for loop so branches re-enter), and Code is the
// label's inner code being reduced.
type Label struct {
	Arity        int
	Continuation []Instr
	Code         Code
}

func (*Label) isInstr() {}

// Frame is a call activation: Arity result values, F is the callee's
// locals/module back-reference, and Code is the callee body being
// reduced.
type Frame struct {
	Arity int
	F     *CallFrame
	Code  Code
}

func (*Frame) isInstr() {}

// Suspend marks a thread blocked at a memory.atomic.wait site. Timestamp
// is recorded as 0 (Open Question 1, §9/DESIGN.md); a real embedding
// supplies its own monotonic-clock policy outside this core.
type Suspend struct {
	Mem       *MemoryInstance
	Addr      uint64
	Timeout   int64
	Timestamp int64
}

func (*Suspend) isInstr() {}

// CallFrame is the Frame of §3: the owning module instance and the
// ordered sequence of mutable local cells.
type CallFrame struct {
	Module *ModuleInstance
	Locals []wasmval.Value
}
