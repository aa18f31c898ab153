package wasmval

import (
	"math"
	"math/bits"

	"github.com/seanpm2001/threads/internal/wasmruntime"
)

// IntUnary implements the integer unary operators (clz/ctz/popcnt) for
// both i32 and i64, keeping the result zero-extended in Lo the way the
// rest of the value stack expects.
func IntUnary(op string, is64 bool, v Value) Value {
	if is64 {
		x := v.Lo
		switch op {
		case "clz":
			return I64Val(uint64(bits.LeadingZeros64(x)))
		case "ctz":
			return I64Val(uint64(bits.TrailingZeros64(x)))
		case "popcnt":
			return I64Val(uint64(bits.OnesCount64(x)))
		}
	} else {
		x := uint32(v.Lo)
		switch op {
		case "clz":
			return I32Val(uint32(bits.LeadingZeros32(x)))
		case "ctz":
			return I32Val(uint32(bits.TrailingZeros32(x)))
		case "popcnt":
			return I32Val(uint32(bits.OnesCount32(x)))
		}
	}
	wasmruntime.Crash("unknown integer unary operator %q", op)
	return Value{}
}

// IntBinary implements add/sub/mul/div_s/div_u/rem_s/rem_u/and/or/xor/
// shl/shr_s/shr_u/rotl/rotr for i32 and i64. Divide-by-zero and signed
// overflow (MinInt / -1) surface as the canonical numeric traps; any other
// condition is arithmetic, never a trap.
func IntBinary(op string, is64 bool, a, b Value) (Value, error) {
	if is64 {
		x, y := a.Lo, b.Lo
		switch op {
		case "add":
			return I64Val(x + y), nil
		case "sub":
			return I64Val(x - y), nil
		case "mul":
			return I64Val(x * y), nil
		case "div_s":
			sx, sy := int64(x), int64(y)
			if sy == 0 {
				return Value{}, trapDivZero()
			}
			if sx == math.MinInt64 && sy == -1 {
				return Value{}, trapOverflow()
			}
			return I64Val(uint64(sx / sy)), nil
		case "div_u":
			if y == 0 {
				return Value{}, trapDivZero()
			}
			return I64Val(x / y), nil
		case "rem_s":
			sx, sy := int64(x), int64(y)
			if sy == 0 {
				return Value{}, trapDivZero()
			}
			if sx == math.MinInt64 && sy == -1 {
				return I64Val(0), nil
			}
			return I64Val(uint64(sx % sy)), nil
		case "rem_u":
			if y == 0 {
				return Value{}, trapDivZero()
			}
			return I64Val(x % y), nil
		case "and":
			return I64Val(x & y), nil
		case "or":
			return I64Val(x | y), nil
		case "xor":
			return I64Val(x ^ y), nil
		case "shl":
			return I64Val(x << (y % 64)), nil
		case "shr_s":
			return I64Val(uint64(int64(x) >> (y % 64))), nil
		case "shr_u":
			return I64Val(x >> (y % 64)), nil
		case "rotl":
			return I64Val(bits.RotateLeft64(x, int(y%64))), nil
		case "rotr":
			return I64Val(bits.RotateLeft64(x, -int(y%64))), nil
		}
	} else {
		x, y := uint32(a.Lo), uint32(b.Lo)
		switch op {
		case "add":
			return I32Val(x + y), nil
		case "sub":
			return I32Val(x - y), nil
		case "mul":
			return I32Val(x * y), nil
		case "div_s":
			sx, sy := int32(x), int32(y)
			if sy == 0 {
				return Value{}, trapDivZero()
			}
			if sx == math.MinInt32 && sy == -1 {
				return Value{}, trapOverflow()
			}
			return I32Val(uint32(sx / sy)), nil
		case "div_u":
			if y == 0 {
				return Value{}, trapDivZero()
			}
			return I32Val(x / y), nil
		case "rem_s":
			sx, sy := int32(x), int32(y)
			if sy == 0 {
				return Value{}, trapDivZero()
			}
			if sx == math.MinInt32 && sy == -1 {
				return I32Val(0), nil
			}
			return I32Val(uint32(sx % sy)), nil
		case "rem_u":
			if y == 0 {
				return Value{}, trapDivZero()
			}
			return I32Val(x % y), nil
		case "and":
			return I32Val(x & y), nil
		case "or":
			return I32Val(x | y), nil
		case "xor":
			return I32Val(x ^ y), nil
		case "shl":
			return I32Val(x << (y % 32)), nil
		case "shr_s":
			return I32Val(uint32(int32(x) >> (y % 32))), nil
		case "shr_u":
			return I32Val(x >> (y % 32)), nil
		case "rotl":
			return I32Val(bits.RotateLeft32(x, int(y%32))), nil
		case "rotr":
			return I32Val(bits.RotateLeft32(x, -int(y%32))), nil
		}
	}
	wasmruntime.Crash("unknown integer binary operator %q", op)
	return Value{}, nil
}

// IntCompare implements eqz/eq/ne/lt_s/lt_u/gt_s/gt_u/le_s/le_u/ge_s/ge_u,
// always returning an i32 of 0 or 1.
func IntCompare(op string, is64 bool, a, b Value) Value {
	toBool := func(v bool) Value {
		if v {
			return I32Val(1)
		}
		return I32Val(0)
	}
	if is64 {
		x, y := a.Lo, b.Lo
		switch op {
		case "eqz":
			return toBool(x == 0)
		case "eq":
			return toBool(x == y)
		case "ne":
			return toBool(x != y)
		case "lt_s":
			return toBool(int64(x) < int64(y))
		case "lt_u":
			return toBool(x < y)
		case "gt_s":
			return toBool(int64(x) > int64(y))
		case "gt_u":
			return toBool(x > y)
		case "le_s":
			return toBool(int64(x) <= int64(y))
		case "le_u":
			return toBool(x <= y)
		case "ge_s":
			return toBool(int64(x) >= int64(y))
		case "ge_u":
			return toBool(x >= y)
		}
	} else {
		x, y := uint32(a.Lo), uint32(b.Lo)
		switch op {
		case "eqz":
			return toBool(x == 0)
		case "eq":
			return toBool(x == y)
		case "ne":
			return toBool(x != y)
		case "lt_s":
			return toBool(int32(x) < int32(y))
		case "lt_u":
			return toBool(x < y)
		case "gt_s":
			return toBool(int32(x) > int32(y))
		case "gt_u":
			return toBool(x > y)
		case "le_s":
			return toBool(int32(x) <= int32(y))
		case "le_u":
			return toBool(x <= y)
		case "ge_s":
			return toBool(int32(x) >= int32(y))
		case "ge_u":
			return toBool(x >= y)
		}
	}
	wasmruntime.Crash("unknown integer compare operator %q", op)
	return Value{}
}

func trapDivZero() error {
	return wasmruntime.NewTrap(wasmruntime.MsgIntegerDivideByZero, wasmruntime.Position{})
}

func trapOverflow() error {
	return wasmruntime.NewTrap(wasmruntime.MsgIntegerOverflow, wasmruntime.Position{})
}

func trapInvalidConversion() error {
	return wasmruntime.NewTrap(wasmruntime.MsgInvalidConversionToInt, wasmruntime.Position{})
}

// TruncToInt implements the *.trunc_* float-to-integer conversions
// (i32.trunc_f32_s and friends, plus the trunc_sat_* non-trapping variants
// when sat is true). NaN and out-of-range inputs trap unless sat is set,
// in which case they saturate per the Wasm non-trapping conversions
// proposal.
func TruncToInt(destIs64, srcIs64, signed, sat bool, v Value) (Value, error) {
	var f float64
	if srcIs64 {
		f = math.Float64frombits(v.Lo)
	} else {
		f = float64(math.Float32frombits(uint32(v.Lo)))
	}

	if math.IsNaN(f) {
		if sat {
			return zeroInt(destIs64), nil
		}
		return Value{}, trapInvalidConversion()
	}

	trunc := math.Trunc(f)

	clamp := func(lo, hi float64, toU func(float64) uint64) (Value, error) {
		if sat {
			switch {
			case trunc < lo:
				return toUint(destIs64, toU(lo)), nil
			case trunc > hi:
				return toUint(destIs64, toU(hi)), nil
			case math.IsInf(trunc, 0):
				if trunc > 0 {
					return toUint(destIs64, toU(hi)), nil
				}
				return toUint(destIs64, toU(lo)), nil
			}
		} else if trunc < lo || trunc > hi || math.IsInf(trunc, 0) {
			return Value{}, trapOverflow()
		}
		return toUint(destIs64, toU(trunc)), nil
	}

	switch {
	case destIs64 && signed:
		return clamp(-9223372036854775808.0, 9223372036854775807.0, func(x float64) uint64 { return uint64(int64(x)) })
	case destIs64 && !signed:
		return clamp(0, 18446744073709551615.0, func(x float64) uint64 { return uint64(x) })
	case !destIs64 && signed:
		return clamp(-2147483648.0, 2147483647.0, func(x float64) uint64 { return uint64(uint32(int32(x))) })
	default:
		return clamp(0, 4294967295.0, func(x float64) uint64 { return uint64(uint32(x)) })
	}
}

func zeroInt(is64 bool) Value {
	if is64 {
		return I64Val(0)
	}
	return I32Val(0)
}

func toUint(is64 bool, x uint64) Value {
	if is64 {
		return I64Val(x)
	}
	return I32Val(uint32(x))
}

// ExtendConvert implements the integer<->integer (sign/zero extend,
// wrap) and integer->float conversions.
func ExtendConvert(op string, v Value) Value {
	switch op {
	case "i32.wrap_i64":
		return I32Val(uint32(v.Lo))
	case "i64.extend_i32_s":
		return I64Val(uint64(int64(int32(v.Lo))))
	case "i64.extend_i32_u":
		return I64Val(uint64(uint32(v.Lo)))
	case "i32.extend8_s":
		return I32Val(uint32(int32(int8(v.Lo))))
	case "i32.extend16_s":
		return I32Val(uint32(int32(int16(v.Lo))))
	case "i64.extend8_s":
		return I64Val(uint64(int64(int8(v.Lo))))
	case "i64.extend16_s":
		return I64Val(uint64(int64(int16(v.Lo))))
	case "i64.extend32_s":
		return I64Val(uint64(int64(int32(v.Lo))))
	case "f32.convert_i32_s":
		return F32Val(math.Float32bits(float32(int32(v.Lo))))
	case "f32.convert_i32_u":
		return F32Val(math.Float32bits(float32(uint32(v.Lo))))
	case "f32.convert_i64_s":
		return F32Val(math.Float32bits(float32(int64(v.Lo))))
	case "f32.convert_i64_u":
		return F32Val(math.Float32bits(float32(v.Lo)))
	case "f64.convert_i32_s":
		return F64Val(math.Float64bits(float64(int32(v.Lo))))
	case "f64.convert_i32_u":
		return F64Val(math.Float64bits(float64(uint32(v.Lo))))
	case "f64.convert_i64_s":
		return F64Val(math.Float64bits(float64(int64(v.Lo))))
	case "f64.convert_i64_u":
		return F64Val(math.Float64bits(float64(v.Lo)))
	case "f32.demote_f64":
		return F32Val(math.Float32bits(float32(math.Float64frombits(v.Lo))))
	case "f64.promote_f32":
		return F64Val(math.Float64bits(float64(math.Float32frombits(uint32(v.Lo)))))
	case "i32.reinterpret_f32":
		return I32Val(uint32(v.Lo))
	case "f32.reinterpret_i32":
		return F32Val(uint32(v.Lo))
	case "i64.reinterpret_f64":
		return I64Val(v.Lo)
	case "f64.reinterpret_i64":
		return F64Val(v.Lo)
	}
	wasmruntime.Crash("unknown conversion operator %q", op)
	return Value{}
}
