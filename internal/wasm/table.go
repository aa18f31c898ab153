package wasm

import (
	"github.com/seanpm2001/threads/internal/wasmruntime"
	"github.com/seanpm2001/threads/internal/wasmval"
)

// TableInstance is a bounded, growable array of references of uniform
// element type, per §3/§4.2.
type TableInstance struct {
	Elements []wasmval.Ref
	ElemType wasmval.Type
	Max      *uint32
}

// NewTable allocates a table instance with Min elements, all null.
func NewTable(t TableType) *TableInstance {
	elems := make([]wasmval.Ref, t.Limits.Min)
	for i := range elems {
		elems[i] = wasmval.NullRef
	}
	return &TableInstance{Elements: elems, ElemType: t.ElemType, Max: t.Limits.Max}
}

func (t *TableInstance) Size() uint32 { return uint32(len(t.Elements)) }

const maxTableSize = 1 << 32 / 8 // conservative ceiling well under the 32-bit index space

// Grow appends delta copies of initial, returning the previous size and
// ok=true, or ok=false if the grow would exceed the declared max or
// overflow the index space (table.grow then pushes -1).
func (t *TableInstance) Grow(delta uint32, initial wasmval.Ref) (previous uint32, ok bool) {
	cur := t.Size()
	if delta == 0 {
		return cur, true
	}
	next := uint64(cur) + uint64(delta)
	if next > maxTableSize {
		return 0, false
	}
	if t.Max != nil && next > uint64(*t.Max) {
		return 0, false
	}
	grown := make([]wasmval.Ref, delta)
	for i := range grown {
		grown[i] = initial
	}
	t.Elements = append(t.Elements, grown...)
	return cur, true
}

func (t *TableInstance) checkBounds(i, n uint64) error {
	if i+n > uint64(len(t.Elements)) {
		return wasmruntime.NewTrap(wasmruntime.MsgOutOfBoundsTableAccess, wasmruntime.Position{})
	}
	return nil
}

func (t *TableInstance) Load(i uint32) (wasmval.Ref, error) {
	if err := t.checkBounds(uint64(i), 1); err != nil {
		return wasmval.Ref{}, err
	}
	return t.Elements[i], nil
}

func (t *TableInstance) Store(i uint32, v wasmval.Ref) error {
	if err := t.checkBounds(uint64(i), 1); err != nil {
		return err
	}
	t.Elements[i] = v
	return nil
}

// Fill writes n copies of v starting at dst. Zero-length fills never trap.
func (t *TableInstance) Fill(dst uint32, v wasmval.Ref, n uint32) error {
	if n == 0 {
		return nil
	}
	if err := t.checkBounds(uint64(dst), uint64(n)); err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		t.Elements[dst+i] = v
	}
	return nil
}

// Copy moves n elements from src to dst, both endpoints pre-checked.
// Descending order is used when dst > src to preserve overlap semantics,
// matching memory.copy's direction (see Open Question 3 / DESIGN.md).
func (t *TableInstance) Copy(dst, src, n uint32) error {
	if n == 0 {
		return nil
	}
	if err := t.checkBounds(uint64(dst), uint64(n)); err != nil {
		return err
	}
	if err := t.checkBounds(uint64(src), uint64(n)); err != nil {
		return err
	}
	if dst <= src {
		for i := uint32(0); i < n; i++ {
			t.Elements[dst+i] = t.Elements[src+i]
		}
	} else {
		for i := n; i > 0; i-- {
			t.Elements[dst+i-1] = t.Elements[src+i-1]
		}
	}
	return nil
}
