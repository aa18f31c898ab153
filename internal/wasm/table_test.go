package wasm

import (
	"testing"

	"github.com/seanpm2001/threads/internal/wasmval"
	"github.com/stretchr/testify/require"
)

func TestTableGrowAndFill(t *testing.T) {
	tbl := NewTable(TableType{ElemType: wasmval.FuncRef, Limits: Limits{Min: 2, Max: u32(4)}})
	require.Equal(t, uint32(2), tbl.Size())

	prev, ok := tbl.Grow(2, wasmval.NullRef)
	require.True(t, ok)
	require.Equal(t, uint32(2), prev)

	ref := wasmval.Ref{Extern: "x"}
	require.NoError(t, tbl.Fill(0, ref, 4))
	for i := uint32(0); i < 4; i++ {
		v, err := tbl.Load(i)
		require.NoError(t, err)
		require.True(t, v.Equal(ref))
	}
}

func TestTableCopyOverlapDirection(t *testing.T) {
	tbl := NewTable(TableType{ElemType: wasmval.FuncRef, Limits: Limits{Min: 5}})
	for i := uint32(0); i < 5; i++ {
		require.NoError(t, tbl.Store(i, wasmval.Ref{Extern: i}))
	}
	// Overlapping forward copy: dst > src, must use descending order.
	require.NoError(t, tbl.Copy(1, 0, 4))
	want := []uint32{0, 0, 1, 2, 3}
	for i, w := range want {
		v, _ := tbl.Load(uint32(i))
		require.Equal(t, w, v.Extern)
	}
}

func TestTableOutOfBoundsTraps(t *testing.T) {
	tbl := NewTable(TableType{ElemType: wasmval.FuncRef, Limits: Limits{Min: 1}})
	_, err := tbl.Load(5)
	require.Error(t, err)
}
