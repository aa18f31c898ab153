package wasm

import (
	"github.com/seanpm2001/threads/internal/wasmruntime"
	"github.com/seanpm2001/threads/internal/wasmval"
)

// Code is a pair (value-stack, admin-instruction-list), per §3. Stack is
// stored head-first: Stack[0] is the logical top of stack, which is why
// Push/Pop prepend/remove at index 0 rather than appending, matching the
// spec's literal "top of stack = head" framing even though that costs an
// O(n) shift per push/pop. Wasm operand stacks are shallow in practice
// (bounded by validation), so this trades a little throughput for a
// reducer that reads exactly like the rules in §4.5.
type Code struct {
	Stack []wasmval.Value
	Instr []Instr
}

func (c *Code) Push(v wasmval.Value) {
	c.Stack = append([]wasmval.Value{v}, c.Stack...)
}

func (c *Code) PushN(vs []wasmval.Value) {
	c.Stack = append(append([]wasmval.Value{}, vs...), c.Stack...)
}

func (c *Code) Pop() wasmval.Value {
	v := c.Stack[0]
	c.Stack = c.Stack[1:]
	return v
}

// PopN pops n values and returns them in stack order (index 0 was the
// deepest of the n), i.e. the order they were originally pushed in.
func (c *Code) PopN(n int) []wasmval.Value {
	out := make([]wasmval.Value, n)
	copy(out, c.Stack[:n])
	c.Stack = c.Stack[n:]
	// reverse so out[0] is the deepest (first-pushed) of the n
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// HeadInstr returns the first instruction of Code.Instr, or nil if empty.
func (c *Code) HeadInstr() Instr {
	if len(c.Instr) == 0 {
		return nil
	}
	return c.Instr[0]
}

// Position is the (module, function, instruction-index) location of the
// thread's current step, attributed to a Trap or Exhaustion error.
type Position = wasmruntime.Position

// Thread is {frame, code, budget} per §3: the frame of the function
// currently executing at the root of Code (nil until the first Invoke),
// the code being reduced, and the remaining call-stack budget.
type Thread struct {
	Frame  *CallFrame
	Code   Code
	Budget int

	// finished/trapped are derived from Code by Status; kept here only
	// as a cache is unnecessary since Code is cheap to inspect directly.
}

// Status classifies a thread's current state, per §4.6.
type Status int

const (
	StatusRunning Status = iota
	StatusResult
	StatusTrap
)

// StatusOf inspects t.Code the way the scheduler's status operation does:
// Running while instructions remain (and the head is not Trapping),
// Result when the instruction list is empty, Trap when the head is a
// bubbled-up Trapping.
func (t *Thread) StatusOf() (Status, []wasmval.Value, *Trapping) {
	if len(t.Code.Instr) == 0 {
		return StatusResult, t.Code.Stack, nil
	}
	if tr, ok := t.Code.Instr[0].(Trapping); ok {
		return StatusTrap, nil, &tr
	}
	return StatusRunning, nil, nil
}

// Runnable reports whether the thread can be stepped: Running and not
// currently suspended at a wait site (§5).
func (t *Thread) Runnable() bool {
	status, _, _ := t.StatusOf()
	if status != StatusRunning {
		return false
	}
	code := &t.Code
	for {
		switch w := code.HeadInstr().(type) {
		case *Suspend:
			return false
		case *Label:
			code = &w.Code
		case *Frame:
			code = &w.Code
		default:
			return true
		}
	}
}

// Configuration is the ordered sequence of threads, per §3. New threads
// are appended by Spawn; threads are never removed.
type Configuration struct {
	Threads []*Thread
}

func NewConfiguration() *Configuration { return &Configuration{} }
