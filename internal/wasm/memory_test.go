package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func u32(v uint32) *uint32 { return &v }

func TestMemoryGrowRespectsMax(t *testing.T) {
	m := NewMemory(MemoryType{Limits: Limits{Min: 1, Max: u32(2)}})
	require.Equal(t, uint32(1), m.Size())

	prev, ok := m.Grow(1)
	require.True(t, ok)
	require.Equal(t, uint32(1), prev)
	require.Equal(t, uint32(2), m.Size())

	_, ok = m.Grow(1)
	require.False(t, ok)
}

func TestMemoryFillAndCopy(t *testing.T) {
	m := NewMemory(MemoryType{Limits: Limits{Min: 1}})
	require.NoError(t, m.Fill(0, 0xff, 8))
	b, err := m.Bytes(0, 8)
	require.NoError(t, err)
	for _, x := range b {
		require.Equal(t, byte(0xff), x)
	}

	require.NoError(t, m.Copy(100, 0, 8))
	b2, err := m.Bytes(100, 8)
	require.NoError(t, err)
	require.Equal(t, b, b2)
}

func TestMemoryOutOfBoundsTraps(t *testing.T) {
	m := NewMemory(MemoryType{Limits: Limits{Min: 1}})
	_, err := m.ReadUint32(PageSize - 1)
	require.Error(t, err)
}

func TestAtomicUnalignedTraps(t *testing.T) {
	m := NewMemory(MemoryType{Limits: Limits{Min: 1}, Shared: true})
	_, err := m.AtomicLoad32(1)
	require.Error(t, err)
}

func TestAtomicRMWReturnsPriorValue(t *testing.T) {
	m := NewMemory(MemoryType{Limits: Limits{Min: 1}, Shared: true})
	require.NoError(t, m.AtomicStore32(0, 5))
	prior, err := m.AtomicRMW32("add", 0, 3)
	require.NoError(t, err)
	require.Equal(t, uint32(5), prior)
	cur, err := m.AtomicLoad32(0)
	require.NoError(t, err)
	require.Equal(t, uint32(8), cur)
}

func TestAtomicCompareExchange(t *testing.T) {
	m := NewMemory(MemoryType{Limits: Limits{Min: 1}, Shared: true})
	require.NoError(t, m.AtomicStore32(0, 5))

	prior, err := m.AtomicCompareExchange32(0, 4, 9)
	require.NoError(t, err)
	require.Equal(t, uint32(5), prior)
	cur, _ := m.AtomicLoad32(0)
	require.Equal(t, uint32(5), cur) // mismatch: no write

	prior, err = m.AtomicCompareExchange32(0, 5, 9)
	require.NoError(t, err)
	require.Equal(t, uint32(5), prior)
	cur, _ = m.AtomicLoad32(0)
	require.Equal(t, uint32(9), cur)
}
