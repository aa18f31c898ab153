package wasm

import (
	"github.com/seanpm2001/threads/internal/wasmruntime"
	"github.com/seanpm2001/threads/internal/wasmval"
)

// Init instantiates mod against externals (already resolved by the
// embedder, in import order) per §4.4's four substeps, returning the new
// instance plus the bootstrap instruction stream (element/data
// initializers, then an optional start call) that the caller (the
// interpreter package's entry points, §4.7) splices ahead of a chosen
// thread's existing code.
func Init(mod *Module, externals []External) (*ModuleInstance, []Instr, error) {
	// Substep 1: import binding.
	importedFuncs, importedTables, importedMems, importedGlobals, err := bindImports(mod, externals)
	if err != nil {
		return nil, nil, err
	}

	inst := &ModuleInstance{Name: mod.Name}

	// Substep 2: function allocation (back-reference left unset).
	localFuncs := make([]*FunctionInstance, len(mod.Funcs))
	for i, fd := range mod.Funcs {
		localFuncs[i] = NewASTFunction(mod.Types[fd.TypeIdx], fd.LocalTypes, fd.Body, fd.Name)
		localFuncs[i].Idx = Index(len(importedFuncs) + i)
	}
	inst.Funcs = append(append([]*FunctionInstance{}, importedFuncs...), localFuncs...)
	inst.Types = mod.Types

	// Substep 3: store allocation. Tables and memories first (globals'
	// initializers may reference only previously allocated *imported*
	// globals, per the constant-expression restriction), then globals
	// evaluated against the partial instance, then the export map.
	inst.Tables = append(append([]*TableInstance{}, importedTables...), allocTables(mod.Tables)...)
	inst.Mems = append(append([]*MemoryInstance{}, importedMems...), allocMems(mod.Mems)...)

	inst.Globals = append([]*GlobalInstance{}, importedGlobals...)
	for _, gd := range mod.Globals {
		v, err := EvalConst(gd.Init, inst)
		if err != nil {
			return nil, nil, err
		}
		inst.Globals = append(inst.Globals, NewGlobal(gd.Type, v))
	}

	inst.Elems = make([]*ElementSegment, len(mod.Elems))
	for i, ed := range mod.Elems {
		refs := make([]wasmval.Ref, len(ed.Init))
		for j, expr := range ed.Init {
			v, err := EvalConst(expr, inst)
			if err != nil {
				return nil, nil, err
			}
			refs[j] = v.Reference
		}
		inst.Elems[i] = NewElementSegment(ed.ElemType, refs)
	}

	inst.Datas = make([]*DataSegment, len(mod.Datas))
	for i, dd := range mod.Datas {
		inst.Datas[i] = NewDataSegment(dd.Init)
	}

	inst.Exports = make(map[string]*Export, len(mod.Exports))
	for _, ex := range mod.Exports {
		inst.Exports[ex.Name] = &Export{Type: ex.Type, Idx: ex.Idx}
	}

	// Substep 4: back-reference patch, resolving the cyclic
	// function<->instance reference (§9) now that inst is fully built.
	for _, f := range localFuncs {
		f.Module = inst
	}

	bootstrap := lowerBootstrap(mod, inst)
	return inst, bootstrap, nil
}

func allocTables(ts []TableType) []*TableInstance {
	out := make([]*TableInstance, len(ts))
	for i, t := range ts {
		out[i] = NewTable(t)
	}
	return out
}

func allocMems(ms []MemoryType) []*MemoryInstance {
	out := make([]*MemoryInstance, len(ms))
	for i, t := range ms {
		out[i] = NewMemory(t)
	}
	return out
}

// lowerBootstrap implements §4.4 substep 4's lowering: each active
// element/data segment becomes push-offset, push-0, push-length,
// table.init/memory.init, elem.drop/data.drop; each declarative element
// segment becomes a bare elem.drop; passive segments contribute nothing.
// An optional start call is appended last.
func lowerBootstrap(mod *Module, inst *ModuleInstance) []Instr {
	var out []Instr
	for i, ed := range mod.Elems {
		switch ed.Mode {
		case ElementModeActive:
			out = append(out, ed.Offset...)
			out = append(out, Plain{Op: Opcode{Name: "i32.const", Imm: int32(0)}})
			out = append(out, Plain{Op: Opcode{Name: "i32.const", Imm: int32(len(ed.Init))}})
			out = append(out, Plain{Op: Opcode{Name: "table.init", Imm: [2]Index{ed.TableIdx, Index(i)}}})
			out = append(out, Plain{Op: Opcode{Name: "elem.drop", Imm: Index(i)}})
		case ElementModeDeclarative:
			out = append(out, Plain{Op: Opcode{Name: "elem.drop", Imm: Index(i)}})
		case ElementModePassive:
			// contributes nothing at instantiation
		}
	}
	for i, dd := range mod.Datas {
		if !dd.Active {
			continue
		}
		out = append(out, dd.Offset...)
		out = append(out, Plain{Op: Opcode{Name: "i32.const", Imm: int32(0)}})
		out = append(out, Plain{Op: Opcode{Name: "i32.const", Imm: int32(len(dd.Init))}})
		out = append(out, Plain{Op: Opcode{Name: "memory.init", Imm: [2]Index{dd.MemIdx, Index(i)}}})
		out = append(out, Plain{Op: Opcode{Name: "data.drop", Imm: Index(i)}})
	}
	if mod.Start != nil {
		out = append(out, Invoke{Func: inst.Funcs[*mod.Start]})
	}
	return out
}

// EvalConst reduces a constant-expression instruction list to a single
// value, per §4.7. Constant expressions may only reference i32/i64/f32/
// f64/v128 consts, ref.null/ref.func, and global.get of a previously
// allocated (necessarily imported, at global-initializer time) global,
// the restriction noted in §4.4. This is a small dedicated evaluator
// rather than a full step_thread/Configuration round trip, mirroring
// wazero's own executeConstExpression (internal/wasm/store.go): constant
// expressions are a tiny fixed grammar, not general code.
func EvalConst(instrs []Instr, inst *ModuleInstance) (wasmval.Value, error) {
	var stack []wasmval.Value
	push := func(v wasmval.Value) { stack = append(stack, v) }

	for _, ins := range instrs {
		p, ok := ins.(Plain)
		if !ok {
			wasmruntime.Crash("non-plain instruction in constant expression: %T", ins)
		}
		switch p.Op.Name {
		case "i32.const":
			push(wasmval.I32Val(uint32(p.Op.Imm.(int32))))
		case "i64.const":
			push(wasmval.I64Val(uint64(p.Op.Imm.(int64))))
		case "f32.const":
			push(wasmval.F32Val(p.Op.Imm.(uint32)))
		case "f64.const":
			push(wasmval.F64Val(p.Op.Imm.(uint64)))
		case "v128.const":
			lohi := p.Op.Imm.([2]uint64)
			push(wasmval.V128Val(lohi[0], lohi[1]))
		case "ref.null":
			push(wasmval.RefNull(p.Op.Imm.(wasmval.Type)))
		case "ref.func":
			idx := p.Op.Imm.(Index)
			push(wasmval.RefFunc(inst.Funcs[idx]))
		case "global.get":
			idx := p.Op.Imm.(Index)
			push(inst.Globals[idx].Get())
		default:
			wasmruntime.Crash("non-constant instruction in constant expression: %s", p.Op.Name)
		}
	}
	if len(stack) != 1 {
		wasmruntime.Crash("constant expression did not produce exactly one value")
	}
	return stack[0], nil
}
