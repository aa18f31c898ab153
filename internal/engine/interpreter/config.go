// Package interpreter implements the small-step administrative code
// machine of §4.5: StepThread performs one reduction of a thread's code,
// dispatching on the head instruction and the top of the value stack,
// exactly as wazero's own interpreter (internal/engine/interpreter) steps
// its call engine, generalized here from a flattened-IR stack machine to
// an explicit Label/Frame admin-instruction tree, since wait/
// notify rendezvous (§4.6) needs to inspect and mutate a *suspended*
// thread's instruction stream from outside that thread's own step.
package interpreter

import "github.com/seanpm2001/threads/internal/wasm"

// TimeoutEpsilon is the threshold below which memory.atomic.wait returns
// the timed-out sentinel immediately rather than suspending, per §5.
const TimeoutEpsilon = 1_000_000

// Flags is the budget collaborator of §6: it supplies the initial
// per-thread call-stack budget, modeled on wazero's functional-option
// RuntimeConfig (wazero's own config.go) rather than a raw struct
// literal, so an embedder can extend it without breaking callers.
type Flags struct {
	callStackBudget int
}

type Option func(*Flags)

// WithCallStackBudget overrides the default per-thread budget (decremented
// at every call-frame entry and given back when the frame is left;
// reaching zero at an Invoke is an Exhaustion failure, §3/§4.6).
func WithCallStackBudget(n int) Option {
	return func(f *Flags) { f.callStackBudget = n }
}

// defaultCallStackBudget mirrors wazero's callStackCeiling default: deep
// enough for realistic recursive guest code, shallow enough to bound the
// host stack consumed by StepThread's own (bounded) recursion through
// nested Label/Frame wrappers.
const defaultCallStackBudget = 2000

func NewFlags(opts ...Option) *Flags {
	f := &Flags{callStackBudget: defaultCallStackBudget}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *Flags) NewThread() *wasm.Thread {
	return &wasm.Thread{Budget: f.callStackBudget}
}
