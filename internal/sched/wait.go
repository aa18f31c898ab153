package sched

import (
	"github.com/seanpm2001/threads/internal/wasm"
	"github.com/seanpm2001/threads/internal/wasmval"
)

// notify implements memory.atomic.notify's actual effect (§4.6): it scans
// every sibling thread for one suspended on mem at addr, in Configuration
// order, waking up to count of them by replacing their Suspend admin
// instruction with the "woken" result. It returns the number actually
// woken, which the caller plugs back into the notifying thread's result.
func (s *Scheduler) notify(mem *wasm.MemoryInstance, addr uint64, count uint32) uint32 {
	var woken uint32
	for _, t := range s.Config.Threads {
		if woken >= count {
			break
		}
		if tryUnsuspend(&t.Code, mem, addr) {
			woken++
		}
	}
	return woken
}

// tryUnsuspend descends through nested Label/Frame wrappers looking for
// the innermost pending instruction; if it is a *Suspend matching mem/
// addr, it is replaced with an instruction that pushes the "woken" result
// (0), per the Wasm threads spec's wait result codes. Returns whether a
// match was found and woken.
func tryUnsuspend(code *wasm.Code, mem *wasm.MemoryInstance, addr uint64) bool {
	if len(code.Instr) == 0 {
		return false
	}
	switch head := code.Instr[0].(type) {
	case *wasm.Suspend:
		if head.Mem != mem || head.Addr != addr {
			return false
		}
		code.Instr[0] = wasm.Refer{Value: wasmval.I32Val(0)} // "woken"
		return true
	case *wasm.Label:
		return tryUnsuspend(&head.Code, mem, addr)
	case *wasm.Frame:
		return tryUnsuspend(&head.Code, mem, addr)
	}
	return false
}

// overwriteNotifyResult replaces the placeholder value memory.atomic.
// notify pushed with the real wake count. The placeholder is the stack
// top of the innermost code reached by descending through the thread's
// Label/Frame wrappers (nothing can run between the notify reduction and
// the scheduler resolving its action).
func overwriteNotifyResult(t *wasm.Thread, woken uint32) {
	code := &t.Code
	for descended := true; descended; {
		switch w := code.HeadInstr().(type) {
		case *wasm.Label:
			code = &w.Code
		case *wasm.Frame:
			code = &w.Code
		default:
			descended = false
		}
	}
	code.Stack[0] = wasmval.I32Val(woken)
}
