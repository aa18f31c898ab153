package interpreter

import (
	"github.com/seanpm2001/threads/internal/wasm"
	"github.com/seanpm2001/threads/internal/wasmruntime"
	"github.com/seanpm2001/threads/internal/wasmval"
)

// reducePlain dispatches a single Plain administrative instruction,
// implementing one step of §4.5. It mutates code in place and returns the
// action (if any) the scheduler must act on.
func reducePlain(code *wasm.Code, frame *wasm.CallFrame, p wasm.Plain, rest []wasm.Instr) (Action, error) {
	name := p.Op.Name

	switch name {
	case "nop":
		code.Instr = rest
		return NoAction{}, nil

	case "unreachable":
		return trapInstr(code, rest, wasmruntime.MsgUnreachable)

	case "drop":
		code.Pop()
		code.Instr = rest
		return NoAction{}, nil

	case "select", "select_t":
		c := code.Pop()
		vals := code.PopN(2)
		if c.I32() != 0 {
			code.Push(vals[0])
		} else {
			code.Push(vals[1])
		}
		code.Instr = rest
		return NoAction{}, nil

	case "block":
		imm := p.Op.Imm.(BlockImm)
		params := code.PopN(len(imm.Params))
		label := &wasm.Label{
			Arity:        len(imm.Results),
			Continuation: nil,
			Code:         wasm.Code{Stack: append([]wasmval.Value{}, params...), Instr: imm.Body},
		}
		code.Instr = append([]wasm.Instr{label}, rest...)
		return NoAction{}, nil

	case "loop":
		imm := p.Op.Imm.(BlockImm)
		params := code.PopN(len(imm.Params))
		label := &wasm.Label{
			Arity: len(imm.Params),
			// A branch to a loop label re-enters the loop body itself,
			// not what follows it.
			Continuation: []wasm.Instr{p},
			Code:         wasm.Code{Stack: append([]wasmval.Value{}, params...), Instr: imm.Body},
		}
		code.Instr = append([]wasm.Instr{label}, rest...)
		return NoAction{}, nil

	case "if":
		imm := p.Op.Imm.(IfImm)
		c := code.Pop()
		params := code.PopN(len(imm.Params))
		body := imm.Else
		if c.I32() != 0 {
			body = imm.Then
		}
		label := &wasm.Label{
			Arity:        len(imm.Results),
			Continuation: nil,
			Code:         wasm.Code{Stack: append([]wasmval.Value{}, params...), Instr: body},
		}
		code.Instr = append([]wasm.Instr{label}, rest...)
		return NoAction{}, nil

	case "br":
		k := int(p.Op.Imm.(uint32))
		code.Instr = append([]wasm.Instr{wasm.Breaking{K: k, Values: code.Stack}}, rest...)
		code.Stack = nil
		return NoAction{}, nil

	case "br_if":
		k := int(p.Op.Imm.(uint32))
		c := code.Pop()
		if c.I32() == 0 {
			code.Instr = rest
			return NoAction{}, nil
		}
		code.Instr = append([]wasm.Instr{wasm.Breaking{K: k, Values: code.Stack}}, rest...)
		code.Stack = nil
		return NoAction{}, nil

	case "br_table":
		imm := p.Op.Imm.(BrTableImm)
		i := code.Pop().I32()
		k := imm.Default
		if int(i) < len(imm.Targets) {
			k = imm.Targets[i]
		}
		code.Instr = append([]wasm.Instr{wasm.Breaking{K: int(k), Values: code.Stack}}, rest...)
		code.Stack = nil
		return NoAction{}, nil

	case "return":
		code.Instr = append([]wasm.Instr{wasm.Returning{Values: code.Stack}}, rest...)
		code.Stack = nil
		return NoAction{}, nil

	case "call":
		idx := p.Op.Imm.(wasm.Index)
		code.Instr = append([]wasm.Instr{wasm.Invoke{Func: frame.Module.Func(idx)}}, rest...)
		return NoAction{}, nil

	case "call_indirect":
		imm := p.Op.Imm.(CallIndirectImm)
		i := code.Pop().I32()
		table := frame.Module.Table(imm.TableIdx)
		ref, err := table.Load(i)
		if err != nil {
			return trapInstr(code, rest, wasmruntime.UndefinedElement(i))
		}
		if ref.Null {
			return trapInstr(code, rest, wasmruntime.UninitializedElement(i))
		}
		fn, ok := ref.FuncAddr.(*wasm.FunctionInstance)
		if !ok {
			wasmruntime.Crash("call_indirect table slot does not hold a function reference")
		}
		wantType := frame.Module.Types[imm.TypeIdx]
		if !fn.Type.Equals(wantType) {
			return trapInstr(code, rest, wasmruntime.MsgIndirectCallTypeMismatch)
		}
		code.Instr = append([]wasm.Instr{wasm.Invoke{Func: fn}}, rest...)
		return NoAction{}, nil

	case "ref.null":
		code.Push(wasmval.RefNull(p.Op.Imm.(wasmval.Type)))
		code.Instr = rest
		return NoAction{}, nil

	case "ref.func":
		idx := p.Op.Imm.(wasm.Index)
		code.Push(wasmval.RefFunc(frame.Module.Func(idx)))
		code.Instr = rest
		return NoAction{}, nil

	case "ref.is_null":
		code.Push(wasmval.RefIsNull(code.Pop()))
		code.Instr = rest
		return NoAction{}, nil
	}

	if isLocalGlobalTableOp(name) {
		return reduceLocalGlobalTable(code, frame, p, rest)
	}
	if isAtomicOp(name) {
		return reduceAtomic(code, frame, p, rest)
	}
	if isMemoryOp(name) {
		return reduceMemory(code, frame, p, rest)
	}
	return reduceNumeric(code, p, rest)
}

// trapInstr installs a Trapping instruction with the given message ahead
// of rest. The pending value stack is left as it is (Invariant 2: the
// trap bubbles without popping it); it is discarded together with its
// wrapper as the trap propagates outward.
func trapInstr(code *wasm.Code, rest []wasm.Instr, msg string) (Action, error) {
	code.Instr = append([]wasm.Instr{wasm.Trapping{Message: msg}}, rest...)
	return NoAction{}, nil
}
