package interpreter

import (
	"strings"

	"github.com/seanpm2001/threads/internal/wasm"
	"github.com/seanpm2001/threads/internal/wasmruntime"
	"github.com/seanpm2001/threads/internal/wasmval"
)

func isAtomicOp(name string) bool {
	return strings.Contains(name, "atomic") || name == "atomic.fence"
}

// reduceAtomic handles the threads-proposal instruction family: atomic
// loads/stores, the RMW and compare-exchange operators, atomic.fence
// (a no-op under single-thread-at-a-time stepping, §5), and the
// wait/notify rendezvous pair. memory.atomic.wait produces a *Suspend
// administrative instruction instead of a value when it actually blocks;
// memory.atomic.notify produces a NotifyAction for the scheduler to
// resolve against sibling threads (§4.6).
func reduceAtomic(code *wasm.Code, frame *wasm.CallFrame, p wasm.Plain, rest []wasm.Instr) (Action, error) {
	name := p.Op.Name

	if name == "atomic.fence" {
		code.Instr = rest
		return NoAction{}, nil
	}

	if strings.HasPrefix(name, "memory.atomic.notify") {
		return reduceNotify(code, frame, p, rest)
	}
	if strings.HasPrefix(name, "memory.atomic.wait") {
		return reduceWait(code, frame, p, rest)
	}

	if rmw, ok := p.Op.Imm.(AtomicRMWImm); ok {
		return reduceAtomicRMW(code, frame, name, rmw, rest)
	}

	// Plain atomic load/store (i32.atomic.load, i64.atomic.store8, etc.)
	// share MemArg with their non-atomic counterparts.
	imm := p.Op.Imm.(MemArg)
	mem := frame.Module.Mem(imm.MemIdx)

	if strings.Contains(name, "store") {
		v := code.Pop()
		base := code.Pop().I32()
		addr := wasm.EffectiveAddress(base, imm.Offset)
		if err := atomicStoreValue(mem, name, addr, v); err != nil {
			return trapInstr(code, rest, err.Error())
		}
		code.Instr = rest
		return NoAction{}, nil
	}

	base := code.Pop().I32()
	addr := wasm.EffectiveAddress(base, imm.Offset)
	v, err := atomicLoadValue(mem, name, addr)
	if err != nil {
		return trapInstr(code, rest, err.Error())
	}
	code.Push(v)
	code.Instr = rest
	return NoAction{}, nil
}

func atomicLoadValue(mem *wasm.MemoryInstance, name string, addr uint64) (wasmval.Value, error) {
	switch name {
	case "i32.atomic.load":
		x, err := mem.AtomicLoad32(addr)
		return wasmval.I32Val(x), err
	case "i32.atomic.load8_u":
		x, err := mem.ReadUint8(addr)
		return wasmval.I32Val(uint32(x)), err
	case "i32.atomic.load16_u":
		x, err := mem.ReadUint16(addr)
		return wasmval.I32Val(uint32(x)), err
	case "i64.atomic.load":
		x, err := mem.AtomicLoad64(addr)
		return wasmval.I64Val(x), err
	case "i64.atomic.load8_u":
		x, err := mem.ReadUint8(addr)
		return wasmval.I64Val(uint64(x)), err
	case "i64.atomic.load16_u":
		x, err := mem.ReadUint16(addr)
		return wasmval.I64Val(uint64(x)), err
	case "i64.atomic.load32_u":
		x, err := mem.ReadUint32(addr)
		return wasmval.I64Val(uint64(x)), err
	}
	wasmruntime.Crash("unknown atomic load operator %q", name)
	return wasmval.Value{}, nil
}

func atomicStoreValue(mem *wasm.MemoryInstance, name string, addr uint64, v wasmval.Value) error {
	switch name {
	case "i32.atomic.store":
		return mem.AtomicStore32(addr, v.I32())
	case "i32.atomic.store8":
		return mem.WriteUint8(addr, byte(v.I32()))
	case "i32.atomic.store16":
		return mem.WriteUint16(addr, uint16(v.I32()))
	case "i64.atomic.store":
		return mem.AtomicStore64(addr, v.I64())
	case "i64.atomic.store8":
		return mem.WriteUint8(addr, byte(v.I64()))
	case "i64.atomic.store16":
		return mem.WriteUint16(addr, uint16(v.I64()))
	case "i64.atomic.store32":
		return mem.WriteUint32(addr, uint32(v.I64()))
	}
	wasmruntime.Crash("unknown atomic store operator %q", name)
	return nil
}

func reduceAtomicRMW(code *wasm.Code, frame *wasm.CallFrame, name string, rmw AtomicRMWImm, rest []wasm.Instr) (Action, error) {
	mem := frame.Module.Mem(rmw.Mem.MemIdx)

	if strings.HasSuffix(name, "cmpxchg") || strings.Contains(name, "cmpxchg") {
		replacement := code.Pop()
		expected := code.Pop()
		base := code.Pop().I32()
		addr := wasm.EffectiveAddress(base, rmw.Mem.Offset)
		v, err := atomicCmpxchg(mem, name, addr, expected, replacement)
		if err != nil {
			return trapInstr(code, rest, err.Error())
		}
		code.Push(v)
		code.Instr = rest
		return NoAction{}, nil
	}

	operand := code.Pop()
	base := code.Pop().I32()
	addr := wasm.EffectiveAddress(base, rmw.Mem.Offset)
	v, err := atomicRMW(mem, name, rmw.Op, addr, operand)
	if err != nil {
		return trapInstr(code, rest, err.Error())
	}
	code.Push(v)
	code.Instr = rest
	return NoAction{}, nil
}

func is64Atomic(name string) bool { return strings.HasPrefix(name, "i64.") }

func atomicRMW(mem *wasm.MemoryInstance, name, op string, addr uint64, operand wasmval.Value) (wasmval.Value, error) {
	if is64Atomic(name) {
		prior, err := mem.AtomicRMW64(op, addr, operand.I64())
		return wasmval.I64Val(prior), err
	}
	prior, err := mem.AtomicRMW32(op, addr, operand.I32())
	return wasmval.I32Val(prior), err
}

func atomicCmpxchg(mem *wasm.MemoryInstance, name string, addr uint64, expected, replacement wasmval.Value) (wasmval.Value, error) {
	if is64Atomic(name) {
		prior, err := mem.AtomicCompareExchange64(addr, expected.I64(), replacement.I64())
		return wasmval.I64Val(prior), err
	}
	prior, err := mem.AtomicCompareExchange32(addr, expected.I32(), replacement.I32())
	return wasmval.I32Val(prior), err
}

// reduceWait implements memory.atomic.wait32/64, §5. It checks sharedness
// and alignment, reads the expected-value address, and either resolves
// immediately (value mismatch: return 1, or a timeout in
// [0, TimeoutEpsilon): return 2, per the Wasm threads spec's "not-equal"/
// "timed-out" result codes) or installs a *Suspend ahead of rest for the
// scheduler to resume later with the actual wake outcome. A negative
// timeout (no limit) always suspends.
func reduceWait(code *wasm.Code, frame *wasm.CallFrame, p wasm.Plain, rest []wasm.Instr) (Action, error) {
	imm := p.Op.Imm.(MemArg)
	mem := frame.Module.Mem(imm.MemIdx)
	if !mem.Shared {
		return trapInstr(code, rest, wasmruntime.MsgExpectedSharedMemory)
	}

	timeout := int64(code.Pop().I64())
	expected := code.Pop()
	base := code.Pop().I32()
	addr := wasm.EffectiveAddress(base, imm.Offset)

	is64 := p.Op.Name == "memory.atomic.wait64"
	var actual wasmval.Value
	var err error
	if is64 {
		v, e := mem.AtomicLoad64(addr)
		actual, err = wasmval.I64Val(v), e
	} else {
		v, e := mem.AtomicLoad32(addr)
		actual, err = wasmval.I32Val(v), e
	}
	if err != nil {
		return trapInstr(code, rest, err.Error())
	}
	if !actual.Equal(expected) {
		code.Push(wasmval.I32Val(1)) // "not-equal"
		code.Instr = rest
		return NoAction{}, nil
	}
	if timeout >= 0 && timeout < TimeoutEpsilon {
		code.Push(wasmval.I32Val(2)) // "timed-out"
		code.Instr = rest
		return NoAction{}, nil
	}

	suspend := &wasm.Suspend{Mem: mem, Addr: addr, Timeout: timeout}
	code.Instr = append([]wasm.Instr{suspend}, rest...)
	return NoAction{}, nil
}

// reduceNotify implements memory.atomic.notify: it does not resolve the
// wake count itself (that requires inspecting sibling threads, which this
// package's single-thread StepThread cannot see); instead it reads and
// validates the address, pushes a placeholder the scheduler overwrites,
// and emits a NotifyAction describing the request.
func reduceNotify(code *wasm.Code, frame *wasm.CallFrame, p wasm.Plain, rest []wasm.Instr) (Action, error) {
	imm := p.Op.Imm.(MemArg)
	mem := frame.Module.Mem(imm.MemIdx)
	count := code.Pop().I32()
	base := code.Pop().I32()
	addr := wasm.EffectiveAddress(base, imm.Offset)

	// Bounds-probe the address even though the read result is discarded:
	// notify on an out-of-bounds address still traps (Open Question 2,
	// §9/DESIGN.md).
	if _, err := mem.AtomicLoad32(addr); err != nil {
		return trapInstr(code, rest, err.Error())
	}

	code.Push(wasmval.I32Val(0))
	code.Instr = rest
	return NotifyAction{Mem: mem, Addr: addr, Count: count}, nil
}
