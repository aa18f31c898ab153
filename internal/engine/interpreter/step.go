package interpreter

import (
	"github.com/seanpm2001/threads/internal/wasm"
	"github.com/seanpm2001/threads/internal/wasmruntime"
	"github.com/seanpm2001/threads/internal/wasmval"
)

// StepThread performs one reduction of t, per §4.5. It is the only entry
// point the scheduler (internal/sched) calls per micro-step. A panic
// carrying stackOverflowSentinel is recovered and returned as an
// ExhaustionError at the thread's current position; any other panic is
// re-raised. A Go runtime stack overflow is a fatal error and is not
// recovered here.
func StepThread(t *wasm.Thread) (action Action, err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(stackOverflowSentinel); ok {
				err = wasmruntime.NewExhaustion(currentPosition(t.Frame))
				return
			}
			panic(r)
		}
	}()
	return stepInner(&t.Code, t.Frame, &t.Budget)
}

// stackOverflowSentinel is the panic value StepThread converts into an
// ExhaustionError. No code in this package panics with it; call depth is
// bounded by the thread's budget, which reduceInvoke checks.
type stackOverflowSentinel struct{}

func currentPosition(f *wasm.CallFrame) wasmruntime.Position {
	if f == nil || f.Module == nil {
		return wasmruntime.Position{}
	}
	return wasmruntime.Position{ModuleName: f.Module.Name}
}

// stepInner advances code by one reduction under the given frame context
// (nil at the outermost bootstrap code before any call). budget is the
// thread's remaining call-stack budget, threaded through so nested
// Frame/Invoke reductions can decrement and check it.
func stepInner(code *wasm.Code, frame *wasm.CallFrame, budget *int) (Action, error) {
	if len(code.Instr) == 0 {
		return NoAction{}, nil
	}
	head := code.Instr[0]
	rest := code.Instr[1:]

	switch ins := head.(type) {
	case wasm.Refer:
		code.Push(ins.Value)
		code.Instr = rest
		return NoAction{}, nil

	case wasm.Invoke:
		instrs, err := reduceInvoke(code, ins.Func, budget)
		if err != nil {
			code.Instr = append([]wasm.Instr{wasm.Trapping{Message: err.Error()}}, rest...)
			return NoAction{}, nil
		}
		code.Instr = append(instrs, rest...)
		return NoAction{}, nil

	case wasm.Plain:
		return reducePlain(code, frame, ins, rest)

	case *wasm.Label:
		return stepWrapped(code, frame, budget, ins, rest, true)

	case *wasm.Frame:
		return stepWrapped(code, frame, budget, ins, rest, false)

	case *wasm.Suspend:
		// A runnable check in the scheduler prevents stepping a
		// suspended thread; defensively treat it as a no-op.
		return NoAction{}, nil

	case wasm.Trapping, wasm.Returning, wasm.Breaking:
		// Only ever transient inside an enclosing Label/Frame
		// (Invariant 2); at the root they are the terminal status and
		// are never stepped.
		return NoAction{}, nil
	}

	wasmruntime.Crash("unhandled administrative instruction %T", head)
	return NoAction{}, nil
}

// stepWrapped implements the Label/Frame bubbling rules of §4.5: step the
// wrapper's inner code by one; if the inner code is now empty, splice its
// value stack into the parent and discard the wrapper; if its head is
// Trapping, propagate the trap; if it's Returning, either propagate
// (Label) or consume it (Frame, delivering exactly Arity values); if it's
// Breaking(0,_) a Label consumes it (continuing with its stored
// continuation), otherwise the depth is decremented and it propagates.
func stepWrapped(code *wasm.Code, outerFrame *wasm.CallFrame, budget *int, head wasm.Instr, rest []wasm.Instr, isLabel bool) (Action, error) {
	var inner *wasm.Code
	var arity int
	var innerFrame *wasm.CallFrame
	var continuation []wasm.Instr

	switch w := head.(type) {
	case *wasm.Label:
		inner = &w.Code
		arity = w.Arity
		innerFrame = outerFrame
		continuation = w.Continuation
	case *wasm.Frame:
		inner = &w.Code
		arity = w.Arity
		innerFrame = w.F
	}

	// A Frame is discarded below when its code is empty or its head is a
	// pending trap/return/break; the call-stack budget unit reduceInvoke
	// took for it is given back then.
	if !isLabel {
		if len(inner.Instr) == 0 {
			*budget++
		} else {
			switch inner.Instr[0].(type) {
			case wasm.Trapping, wasm.Returning, wasm.Breaking:
				*budget++
			}
		}
	}

	if len(inner.Instr) == 0 {
		// Bubbling: splice the wrapper's stack into the parent.
		code.PushN(inner.Stack)
		code.Instr = rest
		return NoAction{}, nil
	}

	switch h := inner.Instr[0].(type) {
	case wasm.Trapping:
		code.Instr = append([]wasm.Instr{h}, rest...)
		return NoAction{}, nil

	case wasm.Returning:
		if isLabel {
			code.Instr = append([]wasm.Instr{h}, rest...)
			return NoAction{}, nil
		}
		code.PushN(h.Values[:minInt(len(h.Values), arity)])
		code.Instr = rest
		return NoAction{}, nil

	case wasm.Breaking:
		if !isLabel {
			// Breaking never escapes a Frame in a well-formed program
			// (validation ensures br depths stay within the enclosing
			// function); propagate unchanged as a defensive measure.
			code.Instr = append([]wasm.Instr{h}, rest...)
			return NoAction{}, nil
		}
		if h.K == 0 {
			code.PushN(h.Values[:minInt(len(h.Values), arity)])
			code.Instr = append(continuation, rest...)
			return NoAction{}, nil
		}
		code.Instr = append([]wasm.Instr{wasm.Breaking{K: h.K - 1, Values: h.Values}}, rest...)
		return NoAction{}, nil
	}

	action, err := stepInner(inner, innerFrame, budget)
	if err != nil {
		return nil, err
	}
	code.Instr = append([]wasm.Instr{head}, rest...)
	return action, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// reduceInvoke implements §4.5's Invoke rule: check budget, then either
// start a new ast-function Frame/Label, or synchronously call a host
// function (args already in call order from PopN), splicing its results
// back in as Refer instructions so the ordinary value-push reduction
// applies uniformly to host and wasm calls alike.
func reduceInvoke(code *wasm.Code, f *wasm.FunctionInstance, budget *int) ([]wasm.Instr, error) {
	if *budget <= 0 {
		return nil, wasmruntime.NewExhaustion(wasmruntime.Position{})
	}

	args := code.PopN(len(f.Type.Params))

	switch f.Kind {
	case wasm.FunctionKindHost:
		results, err := f.GoFunc(args)
		if err != nil {
			return nil, err
		}
		instrs := make([]wasm.Instr, len(results))
		for i, v := range results {
			instrs[i] = wasm.Refer{Value: v}
		}
		return instrs, nil

	case wasm.FunctionKindWasm:
		*budget--
		locals := make([]wasmval.Value, 0, len(args)+len(f.LocalTypes))
		locals = append(locals, args...)
		for _, t := range f.LocalTypes {
			locals = append(locals, zeroValue(t))
		}
		callFrame := &wasm.CallFrame{Module: f.Module, Locals: locals}
		label := &wasm.Label{
			Arity:        len(f.Type.Results),
			Continuation: nil,
			Code:         wasm.Code{Instr: f.Body},
		}
		frame := &wasm.Frame{
			Arity: len(f.Type.Results),
			F:     callFrame,
			Code:  wasm.Code{Instr: []wasm.Instr{label}},
		}
		return []wasm.Instr{frame}, nil
	}
	wasmruntime.Crash("unknown function kind %v", f.Kind)
	return nil, nil
}

func zeroValue(t wasmval.Type) wasmval.Value {
	switch t {
	case wasmval.FuncRef, wasmval.ExternRef:
		return wasmval.RefNull(t)
	default:
		return wasmval.Value{Type: t}
	}
}
