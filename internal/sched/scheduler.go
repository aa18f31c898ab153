// Package sched implements the cooperative multi-thread scheduler of §4.6:
// an ordered Configuration of threads, each independently spawned, invoked,
// and stepped, with memory.atomic.wait/notify rendezvous resolved by
// inspecting sibling threads' suspended administrative instructions. The
// scheduler itself never runs two threads concurrently; it interleaves
// single StepThread calls exactly as wazero's callEngine drives one
// function invocation at a time, generalized to many independently
// steppable threads.
package sched

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/seanpm2001/threads/internal/engine/interpreter"
	"github.com/seanpm2001/threads/internal/wasm"
	"github.com/seanpm2001/threads/internal/wasmruntime"
	"github.com/seanpm2001/threads/internal/wasmval"
)

// Scheduler owns the Configuration of §3/§4.6 plus the flags used to size
// every thread it spawns.
type Scheduler struct {
	Config *wasm.Configuration
	Flags  *interpreter.Flags
}

func New(flags *interpreter.Flags) *Scheduler {
	if flags == nil {
		flags = interpreter.NewFlags()
	}
	return &Scheduler{Config: wasm.NewConfiguration(), Flags: flags}
}

// Spawn allocates a new thread and returns its index in Config.Threads.
func (s *Scheduler) Spawn() wasm.Index {
	t := s.Flags.NewThread()
	s.Config.Threads = append(s.Config.Threads, t)
	idx := wasm.Index(len(s.Config.Threads) - 1)
	Logger().Debug("thread spawned", zap.Uint32("thread", idx))
	return idx
}

// Thread returns the thread at idx, crashing on an out-of-range index
// since the scheduler is the sole owner of Config.Threads and an embedder
// can only observe indices Spawn returned.
func (s *Scheduler) Thread(idx wasm.Index) *wasm.Thread {
	if int(idx) >= len(s.Config.Threads) {
		wasmruntime.Crash("no such thread %d", idx)
	}
	return s.Config.Threads[idx]
}

// Status reports idx's current state, per §4.6.
func (s *Scheduler) Status(idx wasm.Index) (wasm.Status, []wasmval.Value, *wasmruntime.TrapError) {
	st, vals, tr := s.Thread(idx).StatusOf()
	if tr == nil {
		return st, vals, nil
	}
	return st, vals, &wasmruntime.TrapError{Message: tr.Message, At: tr.At}
}

// Instantiate wires a module into idx's thread via the interpreter
// package's entry point, splicing the instantiation bootstrap ahead of
// the thread's existing code.
func (s *Scheduler) Instantiate(idx wasm.Index, mod *wasm.Module, externals []wasm.External) (*wasm.ModuleInstance, error) {
	return interpreter.Instantiate(s.Thread(idx), mod, externals)
}

// Invoke installs a call to name ahead of idx's existing code, type-
// checking args against the exported function's declared signature and
// composing every mismatch into one Link error via multierr (mirroring
// bindImports' composition style, §4.4), rather than failing on the
// first bad argument.
func (s *Scheduler) Invoke(idx wasm.Index, inst *wasm.ModuleInstance, name string, args []wasmval.Value) error {
	ex, ok := inst.GetExport(name, wasm.ExternTypeFunc)
	if !ok {
		return &wasmruntime.LinkError{Module: inst.Name, Item: name, Reason: "no such exported function"}
	}
	fn := inst.Func(ex.Idx)

	var errs error
	if len(args) != len(fn.Type.Params) {
		errs = multierr.Append(errs, fmt.Errorf("%s: expected %d arguments, got %d", name, len(fn.Type.Params), len(args)))
	} else {
		for i, want := range fn.Type.Params {
			if args[i].Type != want {
				errs = multierr.Append(errs, fmt.Errorf("%s: argument %d: expected %s, got %s", name, i, want, args[i].Type))
			}
		}
	}
	if errs != nil {
		return &wasmruntime.LinkError{Module: inst.Name, Item: name, Reason: errs.Error()}
	}

	return interpreter.InvokeExported(s.Thread(idx), inst, name, args)
}

// Step performs one reduction of idx's thread, resolving any Action the
// reduction produced (currently only NotifyAction) against the rest of
// Config, per §4.6.
func (s *Scheduler) Step(idx wasm.Index) error {
	t := s.Thread(idx)
	if !t.Runnable() {
		return nil
	}
	action, err := interpreter.StepThread(t)
	if err != nil {
		Logger().Debug("thread trapped", zap.Uint32("thread", idx), zap.Error(err))
		return err
	}
	switch a := action.(type) {
	case interpreter.NotifyAction:
		woken := s.notify(a.Mem, a.Addr, a.Count)
		overwriteNotifyResult(t, woken)
		Logger().Debug("notify", zap.Uint32("thread", idx), zap.Uint64("addr", a.Addr), zap.Uint32("woken", woken))
	}
	return nil
}

// Eval drives idx's thread to completion (Result or Trap), stepping every
// other runnable thread once per round so a notify the thread is waiting
// on can actually be delivered; it is a simple round-robin fixed point,
// not a fairness-scheduled runtime.
func (s *Scheduler) Eval(idx wasm.Index) error {
	for {
		st, _, tr := s.Status(idx)
		if st != wasm.StatusRunning {
			if tr != nil {
				return tr
			}
			return nil
		}
		progressed := false
		for i := range s.Config.Threads {
			if !s.Config.Threads[i].Runnable() {
				continue
			}
			if err := s.Step(wasm.Index(i)); err != nil && wasm.Index(i) == idx {
				return err
			}
			progressed = true
		}
		if !progressed {
			// Every thread is either finished, trapped, or suspended with
			// no notifier left to run: a genuine deadlock for idx.
			return wasmruntime.NewTrap("all threads suspended", wasmruntime.Position{})
		}
	}
}
