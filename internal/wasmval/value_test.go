package wasmval

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueEqual(t *testing.T) {
	require.True(t, I32Val(42).Equal(I32Val(42)))
	require.False(t, I32Val(42).Equal(I32Val(43)))
	require.False(t, I32Val(0).Equal(I64Val(0)))
	require.True(t, V128Val(1, 2).Equal(V128Val(1, 2)))
	require.False(t, V128Val(1, 2).Equal(V128Val(1, 3)))
}

func TestRefEquality(t *testing.T) {
	require.True(t, NullRef.Equal(RefNull(FuncRef).Reference))

	fn := new(int)
	a := RefFunc(fn)
	b := RefFunc(fn)
	other := RefFunc(new(int))
	require.True(t, a.Reference.Equal(b.Reference))
	require.False(t, a.Reference.Equal(other.Reference))
}

func TestIsRefType(t *testing.T) {
	require.True(t, FuncRef.IsRefType())
	require.True(t, ExternRef.IsRefType())
	require.False(t, I32.IsRefType())
}
