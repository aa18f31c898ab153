package wasmval

// RefIsNull implements ref.is_null: 1 if the reference is null, else 0.
func RefIsNull(v Value) Value {
	if v.Reference.Null {
		return I32Val(1)
	}
	return I32Val(0)
}

// RefNull constructs the null reference of the given reference type.
func RefNull(t Type) Value { return Value{Type: t, Reference: NullRef} }

// RefFunc constructs a non-null function reference wrapping a function
// instance address. The address is kept opaque (interface{}) to avoid an
// import cycle between wasmval and the wasm package that defines
// FunctionInstance.
func RefFunc(addr interface{}) Value {
	return Value{Type: FuncRef, Reference: Ref{FuncAddr: addr}}
}

// RefExtern constructs a non-null extern reference around an
// embedder-supplied opaque value.
func RefExtern(v interface{}) Value {
	return Value{Type: ExternRef, Reference: Ref{Extern: v}}
}
