package interpreter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seanpm2001/threads/internal/wasm"
	"github.com/seanpm2001/threads/internal/wasmval"
)

func runToCompletion(t *testing.T, th *wasm.Thread) (wasm.Status, []wasmval.Value, *wasm.Trapping) {
	t.Helper()
	for i := 0; i < 10000; i++ {
		st, vals, tr := th.StatusOf()
		if st != wasm.StatusRunning {
			return st, vals, tr
		}
		_, err := StepThread(th)
		require.NoError(t, err)
	}
	t.Fatal("did not terminate")
	return 0, nil, nil
}

func constInstr(name string, imm interface{}) wasm.Instr {
	return wasm.Plain{Op: wasm.Opcode{Name: name, Imm: imm}}
}

func TestAddTwoConstants(t *testing.T) {
	th := &wasm.Thread{Budget: 10, Code: wasm.Code{Instr: []wasm.Instr{
		constInstr("i32.const", int32(2)),
		constInstr("i32.const", int32(3)),
		constInstr("i32.add", nil),
	}}}

	st, vals, _ := runToCompletion(t, th)
	require.Equal(t, wasm.StatusResult, st)
	require.Equal(t, []wasmval.Value{wasmval.I32Val(5)}, vals)
}

func TestUnreachableTraps(t *testing.T) {
	th := &wasm.Thread{Budget: 10, Code: wasm.Code{Instr: []wasm.Instr{
		wasm.Plain{Op: wasm.Opcode{Name: "unreachable"}},
	}}}
	st, _, tr := runToCompletion(t, th)
	require.Equal(t, wasm.StatusTrap, st)
	require.Equal(t, "unreachable executed", tr.Message)
}

func TestBlockBranchSkipsRest(t *testing.T) {
	// (block (result i32) (i32.const 1) (br 0) (i32.const 99))
	block := BlockImm{
		Results: []wasmval.Type{wasmval.I32},
		Body: []wasm.Instr{
			constInstr("i32.const", int32(1)),
			constInstr("br", uint32(0)),
			constInstr("i32.const", int32(99)),
		},
	}
	th := &wasm.Thread{Budget: 10, Code: wasm.Code{Instr: []wasm.Instr{
		constInstr("block", block),
	}}}
	st, vals, _ := runToCompletion(t, th)
	require.Equal(t, wasm.StatusResult, st)
	require.Equal(t, []wasmval.Value{wasmval.I32Val(1)}, vals)
}

func TestLoopBranchReenters(t *testing.T) {
	// Counts a scratch local down from 3 to 0 using loop+br_if, leaving 0
	// on the stack.
	loop := BlockImm{Body: []wasm.Instr{
		constInstr("local.get", uint32(0)),
		constInstr("i32.const", int32(1)),
		constInstr("i32.sub", nil),
		constInstr("local.tee", uint32(0)),
		constInstr("i32.const", int32(0)),
		constInstr("i32.ne", nil),
		constInstr("br_if", uint32(0)),
	}}

	fnType := &wasm.FunctionType{Results: []wasmval.Type{wasmval.I32}}
	mod := &wasm.ModuleInstance{Name: "m"}
	fn := wasm.NewASTFunction(fnType, []wasmval.Type{wasmval.I32}, []wasm.Instr{
		constInstr("i32.const", int32(3)),
		constInstr("local.set", uint32(0)),
		constInstr("loop", loop),
		constInstr("local.get", uint32(0)),
	}, "count")
	fn.Module = mod
	mod.Funcs = []*wasm.FunctionInstance{fn}

	th := &wasm.Thread{Budget: 100, Code: wasm.Code{Instr: []wasm.Instr{
		wasm.Invoke{Func: fn},
	}}}
	st, vals, _ := runToCompletion(t, th)
	require.Equal(t, wasm.StatusResult, st)
	require.Equal(t, []wasmval.Value{wasmval.I32Val(0)}, vals)
}

func TestTableInitCopiesSegmentThenDrop(t *testing.T) {
	mod := &wasm.ModuleInstance{Name: "m"}
	table := wasm.NewTable(wasm.TableType{ElemType: wasmval.ExternRef, Limits: wasm.Limits{Min: 4}})
	mod.Tables = []*wasm.TableInstance{table}
	seg := wasm.NewElementSegment(wasmval.ExternRef, []wasmval.Ref{
		{Extern: "a"}, {Extern: "b"}, {Extern: "c"},
	})
	mod.Elems = []*wasm.ElementSegment{seg}

	frame := &wasm.CallFrame{Module: mod}
	th := &wasm.Thread{Budget: 10, Frame: frame, Code: wasm.Code{Instr: []wasm.Instr{
		constInstr("i32.const", int32(1)), // dst
		constInstr("i32.const", int32(0)), // src
		constInstr("i32.const", int32(2)), // n
		wasm.Plain{Op: wasm.Opcode{Name: "table.init", Imm: [2]wasm.Index{0, 0}}},
		wasm.Plain{Op: wasm.Opcode{Name: "elem.drop", Imm: wasm.Index(0)}},
	}}}
	st, _, _ := runToCompletion(t, th)
	require.Equal(t, wasm.StatusResult, st)

	v0, err := table.Load(1)
	require.NoError(t, err)
	require.Equal(t, "a", v0.Extern)
	v1, err := table.Load(2)
	require.NoError(t, err)
	require.Equal(t, "b", v1.Extern)
	require.True(t, seg.Dropped())

	// table.init from an already-dropped segment with n > 0 traps.
	th2 := &wasm.Thread{Budget: 10, Frame: frame, Code: wasm.Code{Instr: []wasm.Instr{
		constInstr("i32.const", int32(0)),
		constInstr("i32.const", int32(0)),
		constInstr("i32.const", int32(1)),
		wasm.Plain{Op: wasm.Opcode{Name: "table.init", Imm: [2]wasm.Index{0, 0}}},
	}}}
	st2, _, tr2 := runToCompletion(t, th2)
	require.Equal(t, wasm.StatusTrap, st2)
	require.Equal(t, "out of bounds table access", tr2.Message)
}

func TestTableInitOutOfBoundsTrapsBeforeAnyWrite(t *testing.T) {
	mod := &wasm.ModuleInstance{Name: "m"}
	table := wasm.NewTable(wasm.TableType{ElemType: wasmval.ExternRef, Limits: wasm.Limits{Min: 2}})
	mod.Tables = []*wasm.TableInstance{table}
	seg := wasm.NewElementSegment(wasmval.ExternRef, []wasmval.Ref{{Extern: "a"}, {Extern: "b"}})
	mod.Elems = []*wasm.ElementSegment{seg}

	frame := &wasm.CallFrame{Module: mod}
	// dst=1, n=2 would write table[1] and table[2], but the table only has
	// 2 elements: must trap before writing table[1] at all.
	th := &wasm.Thread{Budget: 10, Frame: frame, Code: wasm.Code{Instr: []wasm.Instr{
		constInstr("i32.const", int32(1)),
		constInstr("i32.const", int32(0)),
		constInstr("i32.const", int32(2)),
		wasm.Plain{Op: wasm.Opcode{Name: "table.init", Imm: [2]wasm.Index{0, 0}}},
	}}}
	st, _, tr := runToCompletion(t, th)
	require.Equal(t, wasm.StatusTrap, st)
	require.Equal(t, "out of bounds table access", tr.Message)

	v, err := table.Load(1)
	require.NoError(t, err)
	require.True(t, v.Null, "table.init must not have written table[1] before trapping")
}

func TestTableCopyAcrossTablesOutOfBoundsTrapsBeforeAnyWrite(t *testing.T) {
	mod := &wasm.ModuleInstance{Name: "m"}
	src := wasm.NewTable(wasm.TableType{ElemType: wasmval.ExternRef, Limits: wasm.Limits{Min: 3}})
	require.NoError(t, src.Store(0, wasmval.Ref{Extern: "x"}))
	require.NoError(t, src.Store(1, wasmval.Ref{Extern: "y"}))
	require.NoError(t, src.Store(2, wasmval.Ref{Extern: "z"}))
	dst := wasm.NewTable(wasm.TableType{ElemType: wasmval.ExternRef, Limits: wasm.Limits{Min: 2}})
	mod.Tables = []*wasm.TableInstance{dst, src}

	frame := &wasm.CallFrame{Module: mod}
	// dst table only has 2 slots; copying n=2 starting at dst=1 would need
	// dst[1] and dst[2], the latter out of bounds, so dst[1] must stay null.
	th := &wasm.Thread{Budget: 10, Frame: frame, Code: wasm.Code{Instr: []wasm.Instr{
		constInstr("i32.const", int32(1)), // dst offset
		constInstr("i32.const", int32(0)), // src offset
		constInstr("i32.const", int32(2)), // n
		wasm.Plain{Op: wasm.Opcode{Name: "table.copy", Imm: [2]wasm.Index{0, 1}}},
	}}}
	st, _, tr := runToCompletion(t, th)
	require.Equal(t, wasm.StatusTrap, st)
	require.Equal(t, "out of bounds table access", tr.Message)

	v, err := dst.Load(1)
	require.NoError(t, err)
	require.True(t, v.Null, "table.copy must not have written dst[1] before trapping")
}

func TestCallIndirectTypeMismatchTraps(t *testing.T) {
	mod := &wasm.ModuleInstance{Name: "m"}
	wantType := &wasm.FunctionType{Results: []wasmval.Type{wasmval.I32}}
	actualType := &wasm.FunctionType{Params: []wasmval.Type{wasmval.I32}}
	mod.Types = []*wasm.FunctionType{wantType, actualType}

	callee := wasm.NewASTFunction(actualType, nil, nil, "callee")
	callee.Module = mod
	mod.Funcs = []*wasm.FunctionInstance{callee}

	table := wasm.NewTable(wasm.TableType{ElemType: wasmval.FuncRef, Limits: wasm.Limits{Min: 1}})
	require.NoError(t, table.Store(0, wasmval.RefFunc(callee).Reference))
	mod.Tables = []*wasm.TableInstance{table}

	callerFrame := &wasm.CallFrame{Module: mod}
	th := &wasm.Thread{Budget: 10, Frame: callerFrame, Code: wasm.Code{Instr: []wasm.Instr{
		constInstr("i32.const", int32(0)),
		wasm.Plain{Op: wasm.Opcode{Name: "call_indirect", Imm: CallIndirectImm{TableIdx: 0, TypeIdx: 0}}},
	}}}
	st, _, tr := runToCompletion(t, th)
	require.Equal(t, wasm.StatusTrap, st)
	require.Equal(t, "indirect call type mismatch", tr.Message)
}
