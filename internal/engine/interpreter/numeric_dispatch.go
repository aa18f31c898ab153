package interpreter

import (
	"strings"

	"github.com/seanpm2001/threads/internal/wasm"
	"github.com/seanpm2001/threads/internal/wasmruntime"
	"github.com/seanpm2001/threads/internal/wasmval"
)

// reduceNumeric dispatches the numeric, vector and remaining reference
// opcodes (everything control.go and the family-specific reducers don't
// claim) to the pure evaluators in internal/wasmval, per §4.1.
func reduceNumeric(code *wasm.Code, p wasm.Plain, rest []wasm.Instr) (Action, error) {
	name := p.Op.Name

	switch name {
	case "i32.const":
		code.Push(wasmval.I32Val(uint32(p.Op.Imm.(int32))))
		code.Instr = rest
		return NoAction{}, nil
	case "i64.const":
		code.Push(wasmval.I64Val(uint64(p.Op.Imm.(int64))))
		code.Instr = rest
		return NoAction{}, nil
	case "f32.const":
		code.Push(wasmval.F32Val(p.Op.Imm.(uint32)))
		code.Instr = rest
		return NoAction{}, nil
	case "f64.const":
		code.Push(wasmval.F64Val(p.Op.Imm.(uint64)))
		code.Instr = rest
		return NoAction{}, nil
	case "v128.const":
		lohi := p.Op.Imm.([2]uint64)
		code.Push(wasmval.V128Val(lohi[0], lohi[1]))
		code.Instr = rest
		return NoAction{}, nil
	}

	tp, op, ok := splitOpcode(name)
	if !ok {
		wasmruntime.Crash("unrecognized numeric opcode %q", name)
	}

	switch tp {
	case "i32", "i64":
		return reduceIntOp(code, tp, op, name, p, rest)
	case "f32", "f64":
		return reduceFloatOp(code, tp, op, name, rest)
	default:
		return reduceVectorOp(code, tp, op, p, rest)
	}
}

func splitOpcode(name string) (tp, op string, ok bool) {
	i := strings.IndexByte(name, '.')
	if i < 0 {
		return "", "", false
	}
	return name[:i], name[i+1:], true
}

var intUnaryOps = map[string]bool{"clz": true, "ctz": true, "popcnt": true}
var intCompareOps = map[string]bool{
	"eqz": true, "eq": true, "ne": true,
	"lt_s": true, "lt_u": true, "gt_s": true, "gt_u": true,
	"le_s": true, "le_u": true, "ge_s": true, "ge_u": true,
}

func reduceIntOp(code *wasm.Code, tp, op, name string, p wasm.Plain, rest []wasm.Instr) (Action, error) {
	is64 := tp == "i64"

	if intUnaryOps[op] {
		v := code.Pop()
		code.Push(wasmval.IntUnary(op, is64, v))
		code.Instr = rest
		return NoAction{}, nil
	}
	if op == "eqz" {
		v := code.Pop()
		code.Push(wasmval.IntCompare(op, is64, v, v))
		code.Instr = rest
		return NoAction{}, nil
	}
	if intCompareOps[op] {
		vs := code.PopN(2)
		code.Push(wasmval.IntCompare(op, is64, vs[0], vs[1]))
		code.Instr = rest
		return NoAction{}, nil
	}
	if isConversionOp(name) {
		return reduceConversion(code, name, rest)
	}

	vs := code.PopN(2)
	v, err := wasmval.IntBinary(op, is64, vs[0], vs[1])
	if err != nil {
		return trapInstr(code, rest, err.Error())
	}
	code.Push(v)
	code.Instr = rest
	return NoAction{}, nil
}

var floatUnaryOps = map[string]bool{
	"abs": true, "neg": true, "ceil": true, "floor": true,
	"trunc": true, "nearest": true, "sqrt": true,
}
var floatCompareOps = map[string]bool{"eq": true, "ne": true, "lt": true, "gt": true, "le": true, "ge": true}

func reduceFloatOp(code *wasm.Code, tp, op, name string, rest []wasm.Instr) (Action, error) {
	is64 := tp == "f64"

	if isConversionOp(name) {
		return reduceConversion(code, name, rest)
	}
	if floatUnaryOps[op] {
		v := code.Pop()
		code.Push(wasmval.FloatUnary(op, is64, v))
		code.Instr = rest
		return NoAction{}, nil
	}
	if floatCompareOps[op] {
		vs := code.PopN(2)
		code.Push(wasmval.FloatCompare(op, is64, vs[0], vs[1]))
		code.Instr = rest
		return NoAction{}, nil
	}

	vs := code.PopN(2)
	code.Push(wasmval.FloatBinary(op, is64, vs[0], vs[1]))
	code.Instr = rest
	return NoAction{}, nil
}

// isConversionOp recognizes the integer<->float and reinterpret family,
// which is keyed on the full opcode name rather than a bare operator
// suffix since it names both its source and destination types.
func isConversionOp(name string) bool {
	switch {
	case strings.Contains(name, "wrap_"),
		strings.Contains(name, "extend_"),
		strings.Contains(name, "extend8_s"),
		strings.Contains(name, "extend16_s"),
		strings.Contains(name, "extend32_s"),
		strings.Contains(name, "convert_"),
		strings.Contains(name, "demote_"),
		strings.Contains(name, "promote_"),
		strings.Contains(name, "reinterpret_"),
		strings.Contains(name, "trunc_"):
		return true
	}
	return false
}

func reduceConversion(code *wasm.Code, name string, rest []wasm.Instr) (Action, error) {
	if strings.Contains(name, "trunc_") {
		sat := strings.Contains(name, "trunc_sat_")
		destIs64 := strings.HasPrefix(name, "i64.")
		srcIs64 := strings.Contains(name, "_f64_")
		signed := strings.HasSuffix(name, "_s")
		v := code.Pop()
		out, err := wasmval.TruncToInt(destIs64, srcIs64, signed, sat, v)
		if err != nil {
			return trapInstr(code, rest, err.Error())
		}
		code.Push(out)
		code.Instr = rest
		return NoAction{}, nil
	}
	v := code.Pop()
	code.Push(wasmval.ExtendConvert(name, v))
	code.Instr = rest
	return NoAction{}, nil
}

func lanesOf(prefix string) wasmval.Lanes {
	switch prefix {
	case "i8x16":
		return wasmval.Lanes8x16
	case "i16x8":
		return wasmval.Lanes16x8
	case "i32x4":
		return wasmval.Lanes4x32
	case "i64x2":
		return wasmval.Lanes2x64
	case "f32x4":
		return wasmval.LanesF32x4
	case "f64x2":
		return wasmval.LanesF64x2
	}
	wasmruntime.Crash("unknown vector lane prefix %q", prefix)
	return 0
}

var vecIntBinaryOps = map[string]bool{
	"add": true, "sub": true, "mul": true, "and": true, "or": true, "xor": true,
	"min_s": true, "max_s": true,
}
var vecShiftOps = map[string]bool{"shl": true, "shr_s": true, "shr_u": true}
var vecFloatBinaryOps = map[string]bool{
	"add": true, "sub": true, "mul": true, "div": true, "min": true, "max": true,
}

// reduceVectorOp dispatches the representative SIMD subset described in
// internal/wasmval/vector.go.
func reduceVectorOp(code *wasm.Code, prefix, op string, p wasm.Plain, rest []wasm.Instr) (Action, error) {
	lanes := lanesOf(prefix)
	isFloat := prefix == "f32x4" || prefix == "f64x2"

	switch {
	case op == "splat":
		v := code.Pop()
		code.Push(wasmval.Splat(lanes, v))
		code.Instr = rest
		return NoAction{}, nil

	case strings.HasPrefix(op, "extract_lane"):
		idx := p.Op.Imm.(int)
		signed := strings.HasSuffix(op, "_s")
		v := code.Pop()
		code.Push(wasmval.ExtractLane(lanes, signed, v, idx))
		code.Instr = rest
		return NoAction{}, nil

	case op == "replace_lane":
		idx := p.Op.Imm.(int)
		vs := code.PopN(2)
		code.Push(wasmval.ReplaceLane(lanes, vs[0], vs[1], idx))
		code.Instr = rest
		return NoAction{}, nil

	case op == "bitmask":
		v := code.Pop()
		code.Push(wasmval.Bitmask(lanes, v))
		code.Instr = rest
		return NoAction{}, nil

	case vecShiftOps[op]:
		vs := code.PopN(2)
		code.Push(wasmval.VecShift(op, lanes, vs[0], vs[1]))
		code.Instr = rest
		return NoAction{}, nil

	case isFloat && vecFloatBinaryOps[op]:
		vs := code.PopN(2)
		code.Push(wasmval.VecFloatBinary(op, lanes, vs[0], vs[1]))
		code.Instr = rest
		return NoAction{}, nil

	case !isFloat && vecIntBinaryOps[op]:
		vs := code.PopN(2)
		code.Push(wasmval.VecIntBinary(op, lanes, vs[0], vs[1]))
		code.Instr = rest
		return NoAction{}, nil
	}

	wasmruntime.Crash("unhandled vector opcode %s.%s", prefix, op)
	return NoAction{}, nil
}
