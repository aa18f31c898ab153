package wasm

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/seanpm2001/threads/internal/wasmruntime"
)

// External is one externally supplied import value, matching the
// ExternType tag of the Import it binds to. Exactly one of Func/Table/
// Mem/Global is set.
type External struct {
	Type   ExternType
	Func   *FunctionInstance
	Table  *TableInstance
	Mem    *MemoryInstance
	Global *GlobalInstance
}

// bindImports validates externals (in import order) against m.Imports,
// the first substep of Init (§4.4). It collects every mismatch rather
// than failing on the first one, composing them with multierr so an
// embedder sees every broken import in one call instead of fixing them
// one at a time.
func bindImports(mod *Module, externals []External) (
	funcs []*FunctionInstance, tables []*TableInstance, mems []*MemoryInstance, globals []*GlobalInstance,
	err error,
) {
	if len(externals) != len(mod.Imports) {
		return nil, nil, nil, nil, &wasmruntime.LinkError{
			Module: mod.Name, Item: "imports",
			Reason: fmt.Sprintf("import count mismatch: module declares %d, got %d externals", len(mod.Imports), len(externals)),
		}
	}

	var errs error
	for i, imp := range mod.Imports {
		ext := externals[i]
		if ext.Type != imp.Type {
			errs = multierr.Append(errs, &wasmruntime.LinkError{
				Module: imp.Module, Item: imp.Name,
				ExpectedType: imp.Type.String(), ActualType: ext.Type.String(),
			})
			continue
		}

		switch imp.Type {
		case ExternTypeFunc:
			want := mod.Types[imp.DescFunc]
			if !want.Equals(ext.Func.Type) {
				errs = multierr.Append(errs, &wasmruntime.LinkError{
					Module: imp.Module, Item: imp.Name,
					ExpectedType: want.String(), ActualType: ext.Func.Type.String(),
				})
				continue
			}
			funcs = append(funcs, ext.Func)

		case ExternTypeTable:
			want := imp.DescTable
			if mismatch := limitsIncompatible(want.Limits, tableLimits(ext.Table)); mismatch != "" {
				errs = multierr.Append(errs, &wasmruntime.LinkError{Module: imp.Module, Item: imp.Name, Reason: mismatch})
				continue
			}
			if want.ElemType != ext.Table.ElemType {
				errs = multierr.Append(errs, &wasmruntime.LinkError{
					Module: imp.Module, Item: imp.Name,
					ExpectedType: want.ElemType.String(), ActualType: ext.Table.ElemType.String(),
				})
				continue
			}
			tables = append(tables, ext.Table)

		case ExternTypeMemory:
			want := imp.DescMemory
			if mismatch := limitsIncompatible(want.Limits, memLimits(ext.Mem)); mismatch != "" {
				errs = multierr.Append(errs, &wasmruntime.LinkError{Module: imp.Module, Item: imp.Name, Reason: mismatch})
				continue
			}
			if want.Shared != ext.Mem.Shared {
				errs = multierr.Append(errs, &wasmruntime.LinkError{
					Module: imp.Module, Item: imp.Name,
					Reason: fmt.Sprintf("sharedness mismatch: expected %t, got %t", want.Shared, ext.Mem.Shared),
				})
				continue
			}
			mems = append(mems, ext.Mem)

		case ExternTypeGlobal:
			want := imp.DescGlobal
			if want.Mutable != ext.Global.Mut || want.ValType != ext.Global.Type {
				errs = multierr.Append(errs, &wasmruntime.LinkError{
					Module: imp.Module, Item: imp.Name,
					Reason: fmt.Sprintf("global type mismatch: expected %s mutable=%t, got %s mutable=%t",
						want.ValType, want.Mutable, ext.Global.Type, ext.Global.Mut),
				})
				continue
			}
			globals = append(globals, ext.Global)
		}
	}
	return funcs, tables, mems, globals, errs
}

func tableLimits(t *TableInstance) Limits {
	return Limits{Min: t.Size(), Max: t.Max}
}

func memLimits(m *MemoryInstance) Limits {
	return Limits{Min: m.Size(), Max: m.Max}
}

// limitsIncompatible reports a human-readable reason when the actual
// limits do not satisfy the expected (declared) ones: actual.Min must be
// at least expected.Min, and actual.Max (if the import declares a max at
// all) must be at least as tight as expected.Max.
func limitsIncompatible(expected, actual Limits) string {
	if expected.Min > actual.Min {
		return fmt.Sprintf("minimum size mismatch: %d > %d", expected.Min, actual.Min)
	}
	if expected.Max != nil {
		if actual.Max == nil {
			return fmt.Sprintf("maximum size mismatch: %d, but actual has no max", *expected.Max)
		}
		if *expected.Max < *actual.Max {
			return fmt.Sprintf("maximum size mismatch: %d < %d", *expected.Max, *actual.Max)
		}
	}
	return ""
}
