package interpreter

import (
	"github.com/seanpm2001/threads/internal/wasm"
	"github.com/seanpm2001/threads/internal/wasmruntime"
	"github.com/seanpm2001/threads/internal/wasmval"
)

// Instantiate wires wasm.Init's substeps to a fresh thread: it builds the
// module instance, then splices the returned bootstrap instruction stream
// (element/data initializers, optional start call) onto t so the next
// Eval/Step loop runs it, per §4.4/§4.7.
func Instantiate(t *wasm.Thread, mod *wasm.Module, externals []wasm.External) (*wasm.ModuleInstance, error) {
	inst, bootstrap, err := wasm.Init(mod, externals)
	if err != nil {
		return nil, err
	}
	t.Code.Instr = append(bootstrap, t.Code.Instr...)
	return inst, nil
}

// InvokeExported installs a call to a named, exported function ahead of
// t's existing code, after pushing args in call order. The caller
// (internal/sched) is responsible for then driving t to completion.
func InvokeExported(t *wasm.Thread, inst *wasm.ModuleInstance, name string, args []wasmval.Value) error {
	ex, ok := inst.GetExport(name, wasm.ExternTypeFunc)
	if !ok {
		wasmruntime.Crash("no such exported function %q", name)
	}
	fn := inst.Func(ex.Idx)

	instrs := make([]wasm.Instr, 0, len(args)+1)
	for _, a := range args {
		instrs = append(instrs, wasm.Refer{Value: a})
	}
	instrs = append(instrs, wasm.Invoke{Func: fn})
	t.Code.Instr = append(instrs, t.Code.Instr...)
	return nil
}
