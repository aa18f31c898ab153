package interpreter

import (
	"strings"

	"github.com/seanpm2001/threads/internal/wasm"
	"github.com/seanpm2001/threads/internal/wasmruntime"
	"github.com/seanpm2001/threads/internal/wasmval"
)

func isLocalGlobalTableOp(name string) bool {
	return strings.HasPrefix(name, "local.") ||
		strings.HasPrefix(name, "global.") ||
		strings.HasPrefix(name, "table.") ||
		name == "elem.drop"
}

// reduceLocalGlobalTable handles local/global cell access and the table
// instructions other than call_indirect (which control.go handles since
// it also constructs an Invoke).
func reduceLocalGlobalTable(code *wasm.Code, frame *wasm.CallFrame, p wasm.Plain, rest []wasm.Instr) (Action, error) {
	switch p.Op.Name {
	case "local.get":
		idx := p.Op.Imm.(uint32)
		code.Push(frame.Locals[idx])
		code.Instr = rest
		return NoAction{}, nil

	case "local.set":
		idx := p.Op.Imm.(uint32)
		frame.Locals[idx] = code.Pop()
		code.Instr = rest
		return NoAction{}, nil

	case "local.tee":
		idx := p.Op.Imm.(uint32)
		v := code.Pop()
		frame.Locals[idx] = v
		code.Push(v)
		code.Instr = rest
		return NoAction{}, nil

	case "global.get":
		idx := p.Op.Imm.(wasm.Index)
		code.Push(frame.Module.Global(idx).Get())
		code.Instr = rest
		return NoAction{}, nil

	case "global.set":
		idx := p.Op.Imm.(wasm.Index)
		frame.Module.Global(idx).Set(code.Pop())
		code.Instr = rest
		return NoAction{}, nil

	case "table.get":
		idx := p.Op.Imm.(wasm.Index)
		table := frame.Module.Table(idx)
		i := code.Pop().I32()
		ref, err := table.Load(i)
		if err != nil {
			return trapInstr(code, rest, err.Error())
		}
		code.Push(wasmval.RefVal(table.ElemType, ref))
		code.Instr = rest
		return NoAction{}, nil

	case "table.set":
		idx := p.Op.Imm.(wasm.Index)
		v := code.Pop()
		i := code.Pop().I32()
		if err := frame.Module.Table(idx).Store(i, v.Reference); err != nil {
			return trapInstr(code, rest, err.Error())
		}
		code.Instr = rest
		return NoAction{}, nil

	case "table.size":
		idx := p.Op.Imm.(wasm.Index)
		code.Push(wasmval.I32Val(frame.Module.Table(idx).Size()))
		code.Instr = rest
		return NoAction{}, nil

	case "table.grow":
		idx := p.Op.Imm.(wasm.Index)
		n := code.Pop().I32()
		v := code.Pop()
		table := frame.Module.Table(idx)
		prev, ok := table.Grow(n, v.Reference)
		if !ok {
			code.Push(wasmval.I32Val(0xffffffff))
		} else {
			code.Push(wasmval.I32Val(prev))
		}
		code.Instr = rest
		return NoAction{}, nil

	case "table.fill":
		idx := p.Op.Imm.(wasm.Index)
		n := code.Pop().I32()
		v := code.Pop()
		dst := code.Pop().I32()
		if err := frame.Module.Table(idx).Fill(dst, v.Reference, n); err != nil {
			return trapInstr(code, rest, err.Error())
		}
		code.Instr = rest
		return NoAction{}, nil

	case "table.copy":
		idxs := p.Op.Imm.([2]wasm.Index)
		n := code.Pop().I32()
		src := code.Pop().I32()
		dst := code.Pop().I32()
		dstTable, srcTable := frame.Module.Table(idxs[0]), frame.Module.Table(idxs[1])
		if dstTable == srcTable {
			if err := dstTable.Copy(dst, src, n); err != nil {
				return trapInstr(code, rest, err.Error())
			}
		} else if err := copyAcrossTables(dstTable, srcTable, dst, src, n); err != nil {
			return trapInstr(code, rest, err.Error())
		}
		code.Instr = rest
		return NoAction{}, nil

	case "table.init":
		idxs := p.Op.Imm.([2]wasm.Index)
		n := code.Pop().I32()
		src := code.Pop().I32()
		dst := code.Pop().I32()
		table := frame.Module.Table(idxs[0])
		seg := frame.Module.Elem(idxs[1])
		if err := initTable(table, seg, dst, src, n); err != nil {
			return trapInstr(code, rest, err.Error())
		}
		code.Instr = rest
		return NoAction{}, nil

	case "elem.drop":
		idx := p.Op.Imm.(wasm.Index)
		frame.Module.Elem(idx).Drop()
		code.Instr = rest
		return NoAction{}, nil
	}

	wasmruntime.Crash("unhandled local/global/table instruction %q", p.Op.Name)
	return NoAction{}, nil
}

// copyAcrossTables implements table.copy between distinct tables: unlike
// the same-table case there is no overlap to worry about, but both the
// full source and destination ranges must still be checked against their
// respective bounds before any element moves (§4.5: "out-of-bounds on
// either endpoint traps before any side effect"), so a check against one
// endpoint can't leave a partial write committed to the other.
func copyAcrossTables(dst, src *wasm.TableInstance, d, s, n uint32) error {
	if n == 0 {
		return nil
	}
	if err := checkTableRange(src, s, n); err != nil {
		return err
	}
	if err := checkTableRange(dst, d, n); err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		v, _ := src.Load(s + i)
		_ = dst.Store(d+i, v)
	}
	return nil
}

// checkTableRange reports an out-of-bounds table access error when
// [i, i+n) is not entirely within t, without reading or writing anything.
func checkTableRange(t *wasm.TableInstance, i, n uint32) error {
	if uint64(i)+uint64(n) > uint64(t.Size()) {
		return wasmruntime.NewTrap(wasmruntime.MsgOutOfBoundsTableAccess, wasmruntime.Position{})
	}
	return nil
}

// checkSegmentRange reports an out-of-bounds table access error when
// [i, i+n) is not entirely within seg, without reading anything.
func checkSegmentRange(seg *wasm.ElementSegment, i, n uint32) error {
	if uint64(i)+uint64(n) > uint64(seg.Len()) {
		return wasmruntime.NewTrap(wasmruntime.MsgOutOfBoundsTableAccess, wasmruntime.Position{})
	}
	return nil
}

// initTable implements table.init: n elements from the segment starting
// at src are written into the table starting at dst. Both the segment
// and table ranges are checked in full before any element moves, per
// §4.5's bulk-op precheck rule; a dropped segment (zero-length once
// drained) naturally fails this check for any n > 0.
func initTable(table *wasm.TableInstance, seg *wasm.ElementSegment, dst, src, n uint32) error {
	if n == 0 {
		return nil
	}
	if err := checkSegmentRange(seg, src, n); err != nil {
		return err
	}
	if err := checkTableRange(table, dst, n); err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		v, _ := seg.Load(src + i)
		_ = table.Store(dst+i, v)
	}
	return nil
}
