package wasmval

import (
	"math"

	"github.com/seanpm2001/threads/internal/moremath"
	"github.com/seanpm2001/threads/internal/wasmruntime"
)

// FloatUnary implements abs/neg/ceil/floor/trunc/nearest/sqrt for f32/f64.
// None of these can trap: IEEE-754 NaN propagation handles every
// exceptional input.
func FloatUnary(op string, is64 bool, v Value) Value {
	if is64 {
		f := math.Float64frombits(v.Lo)
		return F64Val(math.Float64bits(floatUnaryOp(op, f)))
	}
	f := float64(math.Float32frombits(uint32(v.Lo)))
	return F32Val(math.Float32bits(float32(floatUnaryOp(op, f))))
}

func floatUnaryOp(op string, f float64) float64 {
	switch op {
	case "abs":
		return math.Abs(f)
	case "neg":
		return -f
	case "ceil":
		return math.Ceil(f)
	case "floor":
		return math.Floor(f)
	case "trunc":
		return math.Trunc(f)
	case "nearest":
		return math.RoundToEven(f)
	case "sqrt":
		return math.Sqrt(f)
	}
	wasmruntime.Crash("unknown float unary operator %q", op)
	return 0
}

// FloatBinary implements add/sub/mul/div/min/max/copysign for f32/f64.
// min/max use the Wasm-specific (not IEEE) NaN/zero-sign rules from
// internal/moremath, matching wazero's own moremath package.
func FloatBinary(op string, is64 bool, a, b Value) Value {
	if is64 {
		x, y := math.Float64frombits(a.Lo), math.Float64frombits(b.Lo)
		return F64Val(math.Float64bits(floatBinaryOp(op, x, y)))
	}
	x := float64(math.Float32frombits(uint32(a.Lo)))
	y := float64(math.Float32frombits(uint32(b.Lo)))
	return F32Val(math.Float32bits(float32(floatBinaryOp(op, x, y))))
}

func floatBinaryOp(op string, x, y float64) float64 {
	switch op {
	case "add":
		return x + y
	case "sub":
		return x - y
	case "mul":
		return x * y
	case "div":
		return x / y
	case "min":
		return moremath.WasmCompatMin(x, y)
	case "max":
		return moremath.WasmCompatMax(x, y)
	case "copysign":
		return math.Copysign(x, y)
	}
	wasmruntime.Crash("unknown float binary operator %q", op)
	return 0
}

// FloatCompare implements eq/ne/lt/gt/le/ge, returning an i32 0/1. Any
// comparison against NaN is false except ne.
func FloatCompare(op string, is64 bool, a, b Value) Value {
	var x, y float64
	if is64 {
		x, y = math.Float64frombits(a.Lo), math.Float64frombits(b.Lo)
	} else {
		x = float64(math.Float32frombits(uint32(a.Lo)))
		y = float64(math.Float32frombits(uint32(b.Lo)))
	}
	toBool := func(v bool) Value {
		if v {
			return I32Val(1)
		}
		return I32Val(0)
	}
	switch op {
	case "eq":
		return toBool(x == y)
	case "ne":
		return toBool(x != y)
	case "lt":
		return toBool(x < y)
	case "gt":
		return toBool(x > y)
	case "le":
		return toBool(x <= y)
	case "ge":
		return toBool(x >= y)
	}
	wasmruntime.Crash("unknown float compare operator %q", op)
	return Value{}
}
