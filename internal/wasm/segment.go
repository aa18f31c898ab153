package wasm

import (
	"github.com/seanpm2001/threads/internal/wasmruntime"
	"github.com/seanpm2001/threads/internal/wasmval"
)

// ElementSegment is a passive (or, prior to instantiation-time lowering,
// active/declarative) list of references, per §3/§4.3.
type ElementSegment struct {
	ElemType wasmval.Type
	Init     []wasmval.Ref
	dropped  bool
}

func NewElementSegment(elemType wasmval.Type, init []wasmval.Ref) *ElementSegment {
	return &ElementSegment{ElemType: elemType, Init: init}
}

// Load returns the i-th reference, failing with a bounds error if the
// segment has been dropped or i is out of range.
func (e *ElementSegment) Load(i uint32) (wasmval.Ref, error) {
	if e.dropped || uint64(i) >= uint64(len(e.Init)) {
		return wasmval.Ref{}, wasmruntime.NewTrap(wasmruntime.MsgOutOfBoundsTableAccess, wasmruntime.Position{})
	}
	return e.Init[i], nil
}

func (e *ElementSegment) Len() uint32 {
	if e.dropped {
		return 0
	}
	return uint32(len(e.Init))
}

// Drop is idempotent: dropping an already-drained segment is a no-op.
func (e *ElementSegment) Drop() { e.dropped = true }

func (e *ElementSegment) Dropped() bool { return e.dropped }

// DataSegment is a passive (or lowered active) byte string, per §3/§4.3.
type DataSegment struct {
	Init    []byte
	dropped bool
}

func NewDataSegment(init []byte) *DataSegment { return &DataSegment{Init: init} }

func (d *DataSegment) Bytes() []byte {
	if d.dropped {
		return nil
	}
	return d.Init
}

func (d *DataSegment) Len() uint32 {
	if d.dropped {
		return 0
	}
	return uint32(len(d.Init))
}

func (d *DataSegment) Drop() { d.dropped = true }

func (d *DataSegment) Dropped() bool { return d.dropped }
