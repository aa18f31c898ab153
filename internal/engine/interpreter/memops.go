package interpreter

import (
	"strings"

	"github.com/seanpm2001/threads/internal/wasm"
	"github.com/seanpm2001/threads/internal/wasmruntime"
	"github.com/seanpm2001/threads/internal/wasmval"
)

func isMemoryOp(name string) bool {
	if strings.HasPrefix(name, "memory.") || name == "data.drop" {
		return true
	}
	for _, ty := range []string{"i32.", "i64.", "f32.", "f64.", "v128."} {
		if strings.HasPrefix(name, ty) {
			rest := name[len(ty):]
			if strings.HasPrefix(rest, "load") || strings.HasPrefix(rest, "store") {
				return true
			}
		}
	}
	return false
}

// reduceMemory handles scalar loads/stores (with the packed 8/16/32-bit
// variants), memory.size/grow, and the bulk memory.fill/copy/init/
// data.drop instructions of §4.3/§4.5. Bulk operations bounds-check up
// front exactly like MemoryInstance.Fill/Copy (a mid-copy trap is
// impossible once validation has passed, so there is no observable
// difference from reducing element by element).
func reduceMemory(code *wasm.Code, frame *wasm.CallFrame, p wasm.Plain, rest []wasm.Instr) (Action, error) {
	name := p.Op.Name

	if strings.Contains(name, "load") {
		return reduceLoad(code, frame, p, rest)
	}
	if strings.Contains(name, "store") {
		return reduceStore(code, frame, p, rest)
	}

	mem := frame.Module.Mem(0)

	switch name {
	case "memory.size":
		code.Push(wasmval.I32Val(mem.Size()))
		code.Instr = rest
		return NoAction{}, nil

	case "memory.grow":
		delta := code.Pop().I32()
		prev, ok := mem.Grow(delta)
		if !ok {
			code.Push(wasmval.I32Val(0xffffffff))
		} else {
			code.Push(wasmval.I32Val(prev))
		}
		code.Instr = rest
		return NoAction{}, nil

	case "memory.fill":
		n := code.Pop().I32()
		val := byte(code.Pop().I32())
		dst := code.Pop().I32()
		if err := mem.Fill(uint64(dst), val, uint64(n)); err != nil {
			return trapInstr(code, rest, err.Error())
		}
		code.Instr = rest
		return NoAction{}, nil

	case "memory.copy":
		n := code.Pop().I32()
		src := code.Pop().I32()
		dst := code.Pop().I32()
		if err := mem.Copy(uint64(dst), uint64(src), uint64(n)); err != nil {
			return trapInstr(code, rest, err.Error())
		}
		code.Instr = rest
		return NoAction{}, nil

	case "memory.init":
		idxs := p.Op.Imm.([2]wasm.Index)
		n := code.Pop().I32()
		src := code.Pop().I32()
		dst := code.Pop().I32()
		seg := frame.Module.Data(idxs[1])
		if err := initMemory(frame.Module.Mem(idxs[0]), seg, uint64(dst), uint64(src), uint64(n)); err != nil {
			return trapInstr(code, rest, err.Error())
		}
		code.Instr = rest
		return NoAction{}, nil

	case "data.drop":
		idx := p.Op.Imm.(wasm.Index)
		frame.Module.Data(idx).Drop()
		code.Instr = rest
		return NoAction{}, nil
	}

	wasmruntime.Crash("unhandled memory instruction %q", name)
	return NoAction{}, nil
}

// initMemory copies n bytes from seg starting at src into mem starting at
// dst, bounds-checking both the segment and the memory before writing.
func initMemory(mem *wasm.MemoryInstance, seg *wasm.DataSegment, dst, src, n uint64) error {
	if n == 0 {
		return nil
	}
	data := seg.Bytes()
	if src+n > uint64(len(data)) {
		return wasmruntime.NewTrap(wasmruntime.MsgOutOfBoundsMemoryAccess, wasmruntime.Position{})
	}
	b, err := mem.Bytes(dst, n)
	if err != nil {
		return err
	}
	copy(b, data[src:src+n])
	return nil
}

func reduceLoad(code *wasm.Code, frame *wasm.CallFrame, p wasm.Plain, rest []wasm.Instr) (Action, error) {
	imm := p.Op.Imm.(MemArg)
	mem := frame.Module.Mem(imm.MemIdx)
	base := code.Pop().I32()
	addr := wasm.EffectiveAddress(base, imm.Offset)

	v, err := loadValue(mem, p.Op.Name, addr)
	if err != nil {
		return trapInstr(code, rest, err.Error())
	}
	code.Push(v)
	code.Instr = rest
	return NoAction{}, nil
}

func loadValue(mem *wasm.MemoryInstance, name string, addr uint64) (wasmval.Value, error) {
	switch name {
	case "i32.load":
		x, err := mem.ReadUint32(addr)
		return wasmval.I32Val(x), err
	case "i32.load8_s":
		x, err := mem.ReadUint8(addr)
		return wasmval.I32Val(uint32(int32(int8(x)))), err
	case "i32.load8_u":
		x, err := mem.ReadUint8(addr)
		return wasmval.I32Val(uint32(x)), err
	case "i32.load16_s":
		x, err := mem.ReadUint16(addr)
		return wasmval.I32Val(uint32(int32(int16(x)))), err
	case "i32.load16_u":
		x, err := mem.ReadUint16(addr)
		return wasmval.I32Val(uint32(x)), err
	case "i64.load":
		x, err := mem.ReadUint64(addr)
		return wasmval.I64Val(x), err
	case "i64.load8_s":
		x, err := mem.ReadUint8(addr)
		return wasmval.I64Val(uint64(int64(int8(x)))), err
	case "i64.load8_u":
		x, err := mem.ReadUint8(addr)
		return wasmval.I64Val(uint64(x)), err
	case "i64.load16_s":
		x, err := mem.ReadUint16(addr)
		return wasmval.I64Val(uint64(int64(int16(x)))), err
	case "i64.load16_u":
		x, err := mem.ReadUint16(addr)
		return wasmval.I64Val(uint64(x)), err
	case "i64.load32_s":
		x, err := mem.ReadUint32(addr)
		return wasmval.I64Val(uint64(int64(int32(x)))), err
	case "i64.load32_u":
		x, err := mem.ReadUint32(addr)
		return wasmval.I64Val(uint64(x)), err
	case "f32.load":
		x, err := mem.ReadUint32(addr)
		return wasmval.F32Val(x), err
	case "f64.load":
		x, err := mem.ReadUint64(addr)
		return wasmval.F64Val(x), err
	case "v128.load":
		lo, hi, err := mem.ReadV128(addr)
		return wasmval.V128Val(lo, hi), err
	}
	wasmruntime.Crash("unknown load operator %q", name)
	return wasmval.Value{}, nil
}

func reduceStore(code *wasm.Code, frame *wasm.CallFrame, p wasm.Plain, rest []wasm.Instr) (Action, error) {
	imm := p.Op.Imm.(MemArg)
	mem := frame.Module.Mem(imm.MemIdx)
	v := code.Pop()
	base := code.Pop().I32()
	addr := wasm.EffectiveAddress(base, imm.Offset)

	if err := storeValue(mem, p.Op.Name, addr, v); err != nil {
		return trapInstr(code, rest, err.Error())
	}
	code.Instr = rest
	return NoAction{}, nil
}

func storeValue(mem *wasm.MemoryInstance, name string, addr uint64, v wasmval.Value) error {
	switch name {
	case "i32.store":
		return mem.WriteUint32(addr, v.I32())
	case "i32.store8":
		return mem.WriteUint8(addr, byte(v.I32()))
	case "i32.store16":
		return mem.WriteUint16(addr, uint16(v.I32()))
	case "i64.store":
		return mem.WriteUint64(addr, v.I64())
	case "i64.store8":
		return mem.WriteUint8(addr, byte(v.I64()))
	case "i64.store16":
		return mem.WriteUint16(addr, uint16(v.I64()))
	case "i64.store32":
		return mem.WriteUint32(addr, uint32(v.I64()))
	case "f32.store":
		return mem.WriteUint32(addr, uint32(v.Lo))
	case "f64.store":
		return mem.WriteUint64(addr, v.Lo)
	case "v128.store":
		return mem.WriteV128(addr, v.Lo, v.Hi)
	}
	wasmruntime.Crash("unknown store operator %q", name)
	return nil
}
