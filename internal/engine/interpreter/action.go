package interpreter

import "github.com/seanpm2001/threads/internal/wasm"

// Action is the side-channel result of one StepThread call, consumed by
// the scheduler (internal/sched), per §4.5/§4.6.
type Action interface{ isAction() }

// NoAction is the common case: the reduction needed no cross-thread
// coordination.
type NoAction struct{}

func (NoAction) isAction() {}

// NotifyAction is emitted by memory.atomic.notify; the scheduler walks
// sibling threads to resolve it (§4.6) and plugs the actual wake count
// back into the notifying thread.
type NotifyAction struct {
	Mem   *wasm.MemoryInstance
	Addr  uint64
	Count uint32
}

func (NotifyAction) isAction() {}
