package wasmval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/seanpm2001/threads/internal/wasmruntime"
)

func TestIntBinaryDivByZeroTraps(t *testing.T) {
	_, err := IntBinary("div_s", false, I32Val(10), I32Val(0))
	require.Error(t, err)
	require.Equal(t, wasmruntime.MsgIntegerDivideByZero, err.Error())
}

func TestIntBinaryOverflowTraps(t *testing.T) {
	minInt64, negOne := int64(math.MinInt64), int64(-1)
	_, err := IntBinary("div_s", true, I64Val(uint64(minInt64)), I64Val(uint64(negOne)))
	require.Error(t, err)
	require.Equal(t, wasmruntime.MsgIntegerOverflow, err.Error())
}

func TestIntBinaryRemSMinIntByNegOneIsZero(t *testing.T) {
	minInt32, negOne := int32(math.MinInt32), int32(-1)
	v, err := IntBinary("rem_s", false, I32Val(uint32(minInt32)), I32Val(uint32(negOne)))
	require.NoError(t, err)
	require.Equal(t, uint32(0), v.I32())
}

func TestIntCompare(t *testing.T) {
	negOne := int32(-1)
	require.Equal(t, uint32(1), IntCompare("lt_s", false, I32Val(uint32(negOne)), I32Val(1)).I32())
	require.Equal(t, uint32(0), IntCompare("lt_u", false, I32Val(uint32(negOne)), I32Val(1)).I32())
}

func TestReinterpretTagsCorrectType(t *testing.T) {
	bits := math.Float32bits(3.5)
	f := ExtendConvert("f32.reinterpret_i32", I32Val(bits))
	require.Equal(t, F32, f.Type)
	require.Equal(t, uint64(bits), f.Lo)

	back := ExtendConvert("i32.reinterpret_f32", f)
	require.Equal(t, I32, back.Type)
	require.Equal(t, bits, back.I32())
}

func TestTruncSatSaturatesOnNaN(t *testing.T) {
	v, err := TruncToInt(false, false, true, true, F32Val(math.Float32bits(float32(math.NaN()))))
	require.NoError(t, err)
	require.Equal(t, uint32(0), v.I32())
}

func TestTruncTrapsOnNaNWithoutSat(t *testing.T) {
	_, err := TruncToInt(false, false, true, false, F32Val(math.Float32bits(float32(math.NaN()))))
	require.Error(t, err)
	require.Equal(t, wasmruntime.MsgInvalidConversionToInt, err.Error())
}
