package sched

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seanpm2001/threads/internal/engine/interpreter"
	"github.com/seanpm2001/threads/internal/wasm"
	"github.com/seanpm2001/threads/internal/wasmruntime"
	"github.com/seanpm2001/threads/internal/wasmval"
)

func plain(name string, imm interface{}) wasm.Instr {
	return wasm.Plain{Op: wasm.Opcode{Name: name, Imm: imm}}
}

func TestSpawnAndInvokeSimpleFunction(t *testing.T) {
	s := New(nil)
	idx := s.Spawn()

	mod := &wasm.Module{
		Name:  "m",
		Types: []*wasm.FunctionType{{Params: []wasmval.Type{wasmval.I32, wasmval.I32}, Results: []wasmval.Type{wasmval.I32}}},
		Funcs: []*wasm.FunctionDecl{
			{TypeIdx: 0, Body: []wasm.Instr{
				plain("local.get", uint32(0)),
				plain("local.get", uint32(1)),
				plain("i32.add", nil),
			}},
		},
		Exports: []*wasm.ExportDecl{{Name: "add", Type: wasm.ExternTypeFunc, Idx: 0}},
	}

	inst, err := s.Instantiate(idx, mod, nil)
	require.NoError(t, err)

	require.NoError(t, s.Invoke(idx, inst, "add", []wasmval.Value{wasmval.I32Val(2), wasmval.I32Val(40)}))
	require.NoError(t, s.Eval(idx))

	st, vals, _ := s.Status(idx)
	require.Equal(t, wasm.StatusResult, st)
	require.Equal(t, []wasmval.Value{wasmval.I32Val(42)}, vals)
}

func TestInvokeArgumentMismatchIsLinkError(t *testing.T) {
	s := New(nil)
	idx := s.Spawn()
	mod := &wasm.Module{
		Name:  "m",
		Types: []*wasm.FunctionType{{Params: []wasmval.Type{wasmval.I32}}},
		Funcs: []*wasm.FunctionDecl{{TypeIdx: 0}},
		Exports: []*wasm.ExportDecl{{Name: "f", Type: wasm.ExternTypeFunc, Idx: 0}},
	}
	inst, err := s.Instantiate(idx, mod, nil)
	require.NoError(t, err)

	err = s.Invoke(idx, inst, "f", []wasmval.Value{wasmval.F32Val(0)})
	require.Error(t, err)
	require.IsType(t, &wasmruntime.LinkError{}, err)
}

// TestWaitNotifyRendezvous spawns two threads sharing one memory: thread 0
// waits on address 0 until thread 1 stores 100 there and notifies it; the
// waiter's wait then returns 0 ("woken") and the memory holds 100.
func TestWaitNotifyRendezvous(t *testing.T) {
	flags := interpreter.NewFlags()
	s := New(flags)
	waiter := s.Spawn()
	notifier := s.Spawn()

	mem := wasm.NewMemory(wasm.MemoryType{Limits: wasm.Limits{Min: 1}, Shared: true})
	mod := &wasm.ModuleInstance{Name: "m", Mems: []*wasm.MemoryInstance{mem}}

	waiterThread := s.Thread(waiter)
	waiterThread.Frame = &wasm.CallFrame{Module: mod}
	waiterThread.Code.Instr = []wasm.Instr{
		plain("i32.const", int32(0)),          // addr
		plain("i32.const", int32(0)),          // expected
		plain("i64.const", int64(-1)),         // infinite timeout
		plain("memory.atomic.wait32", interpreter.MemArg{}),
	}

	notifierThread := s.Thread(notifier)
	notifierThread.Frame = &wasm.CallFrame{Module: mod}
	notifierThread.Code.Instr = []wasm.Instr{
		plain("i32.const", int32(0)),
		plain("i32.const", int32(100)),
		plain("i32.atomic.store", interpreter.MemArg{}),
		plain("i32.const", int32(0)),
		plain("i32.const", int32(1)),
		plain("memory.atomic.notify", interpreter.MemArg{}),
	}

	require.NoError(t, s.Step(notifier)) // push addr
	require.NoError(t, s.Step(waiter))   // push addr
	require.NoError(t, s.Step(waiter))   // push expected
	require.NoError(t, s.Step(waiter))   // push timeout
	require.NoError(t, s.Step(waiter))   // suspend

	st, _, _ := s.Status(waiter)
	require.Equal(t, wasm.StatusRunning, st)
	require.False(t, waiterThread.Runnable())

	// Drive the notifier to completion; its last step wakes the waiter.
	for i := 0; i < 10 && notifierThread.Runnable(); i++ {
		require.NoError(t, s.Step(notifier))
	}

	require.True(t, waiterThread.Runnable())
	require.NoError(t, s.Step(waiter))

	st, vals, _ := s.Status(waiter)
	require.Equal(t, wasm.StatusResult, st)
	require.Equal(t, []wasmval.Value{wasmval.I32Val(0)}, vals)

	v, err := mem.ReadUint32(0)
	require.NoError(t, err)
	require.Equal(t, uint32(100), v)
}
