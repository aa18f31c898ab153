// Package wasm implements the store-level types of the core's data model:
// module instances, function/table/memory/global instances, and the
// passive segment stores, together with instantiation (init) and import
// linking (§3, §4.2-§4.4 of the core design). It deliberately does not
// decode or validate Wasm binaries/text; modules arrive already
// validated from an external collaborator (§1).
package wasm

import (
	"fmt"
	"strings"

	"github.com/seanpm2001/threads/internal/wasmval"
)

// Index is a 32-bit index into one of a module instance's ordered
// sequences (functions, tables, memories, globals, types, segments).
type Index = uint32

// FunctionType is a function signature: ordered parameter and result
// value types.
type FunctionType struct {
	Params, Results []wasmval.Type
}

func (t *FunctionType) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range t.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.String())
	}
	b.WriteString(")->(")
	for i, r := range t.Results {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(r.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Equals reports structural signature equality, used for indirect-call
// type checks and import matching.
func (t *FunctionType) Equals(o *FunctionType) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil {
		return false
	}
	return sliceEq(t.Params, o.Params) && sliceEq(t.Results, o.Results)
}

func sliceEq(a, b []wasmval.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Limits bound a table's or memory's size, in elements or 64KiB pages
// respectively. Max is nil when unbounded.
type Limits struct {
	Min uint32
	Max *uint32
}

func (l Limits) String() string {
	if l.Max == nil {
		return fmt.Sprintf("{min:%d}", l.Min)
	}
	return fmt.Sprintf("{min:%d,max:%d}", l.Min, *l.Max)
}

// ExternType classifies an import/export.
type ExternType byte

const (
	ExternTypeFunc ExternType = iota
	ExternTypeTable
	ExternTypeMemory
	ExternTypeGlobal
)

func (e ExternType) String() string {
	switch e {
	case ExternTypeFunc:
		return "func"
	case ExternTypeTable:
		return "table"
	case ExternTypeMemory:
		return "memory"
	case ExternTypeGlobal:
		return "global"
	}
	return "unknown"
}

// GlobalType is a declared global's value type and mutability.
type GlobalType struct {
	ValType wasmval.Type
	Mutable bool
}

// Import describes one entry of a module's import order, used during
// init's import-binding substep to validate the externals an embedder
// supplies.
type Import struct {
	Module, Name string
	Type         ExternType

	DescFunc   Index // index into the module's type section
	DescTable  TableType
	DescMemory MemoryType
	DescGlobal GlobalType
}

// TableType declares a table's element type and limits.
type TableType struct {
	ElemType wasmval.Type
	Limits   Limits
}

// MemoryType declares a memory's limits and sharedness.
type MemoryType struct {
	Limits Limits
	Shared bool
}
