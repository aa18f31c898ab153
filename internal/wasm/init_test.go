package wasm

import (
	"testing"

	"github.com/seanpm2001/threads/internal/wasmval"
	"github.com/stretchr/testify/require"
)

func TestInitAllocatesGlobalsAndExports(t *testing.T) {
	mod := &Module{
		Name: "m",
		Globals: []*GlobalDecl{
			{Type: GlobalType{ValType: wasmval.I32, Mutable: false},
				Init: []Instr{Plain{Op: Opcode{Name: "i32.const", Imm: int32(7)}}}},
		},
		Exports: []*ExportDecl{
			{Name: "g", Type: ExternTypeGlobal, Idx: 0},
		},
	}

	inst, bootstrap, err := Init(mod, nil)
	require.NoError(t, err)
	require.Empty(t, bootstrap)
	require.Len(t, inst.Globals, 1)
	require.Equal(t, uint32(7), inst.Globals[0].Get().I32())

	ex, ok := inst.GetExport("g", ExternTypeGlobal)
	require.True(t, ok)
	require.Equal(t, Index(0), ex.Idx)
}

func TestInitRejectsMismatchedImportCount(t *testing.T) {
	mod := &Module{
		Name: "m",
		Imports: []*Import{
			{Module: "env", Name: "f", Type: ExternTypeFunc},
		},
	}
	_, _, err := Init(mod, nil)
	require.Error(t, err)
}

func TestInitFunctionBackReferenceIsPatched(t *testing.T) {
	fnType := &FunctionType{Results: []wasmval.Type{wasmval.I32}}
	mod := &Module{
		Name:  "m",
		Types: []*FunctionType{fnType},
		Funcs: []*FunctionDecl{
			{TypeIdx: 0, Body: []Instr{Plain{Op: Opcode{Name: "i32.const", Imm: int32(1)}}}},
		},
	}
	inst, _, err := Init(mod, nil)
	require.NoError(t, err)
	require.Same(t, inst, inst.Funcs[0].Module)
}

func TestLowerBootstrapOrdersActiveElementThenStart(t *testing.T) {
	fnType := &FunctionType{}
	mod := &Module{
		Name:  "m",
		Types: []*FunctionType{fnType},
		Funcs: []*FunctionDecl{{TypeIdx: 0, Body: nil}},
		Tables: []TableType{
			{ElemType: wasmval.FuncRef, Limits: Limits{Min: 1}},
		},
		Elems: []*ElementSegmentDecl{
			{Mode: ElementModeActive, ElemType: wasmval.FuncRef, TableIdx: 0,
				Offset: []Instr{Plain{Op: Opcode{Name: "i32.const", Imm: int32(0)}}},
				Init:   [][]Instr{{Plain{Op: Opcode{Name: "ref.func", Imm: Index(0)}}}}},
		},
		Start: func() *Index { i := Index(0); return &i }(),
	}
	_, bootstrap, err := Init(mod, nil)
	require.NoError(t, err)
	require.NotEmpty(t, bootstrap)
	_, isInvoke := bootstrap[len(bootstrap)-1].(Invoke)
	require.True(t, isInvoke)
}
