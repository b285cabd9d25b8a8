// SPDX-License-Identifier: Apache-2.0

package process

import (
	"context"
)

// An Operation is one element of a [Process].
//
// The set of operations is closed: a [Func], a [*Future], a [*Process] and
// [Exit]. Decorators such as [Named] and [When] return a Func.
type Operation interface {
	run(ctx context.Context, in State) (*Result, error)
}

// A Func is a function step.
//
// It receives the current state (the run input overlaid with everything
// produced so far) and returns its update: nil for no update, a [State] or
// map[string]any, a [*Result], or an exit signal ([Exit] or the result of
// [ExitWith]). Any other value fails the run with a [KindExecution] error.
//
// The input state is a copy owned by the call; mutating it has no effect on
// the run.
type Func func(ctx context.Context, in State) (any, error)

func (f Func) run(ctx context.Context, in State) (*Result, error) {
	raw, err := f(ctx, in)
	if err != nil {
		return nil, err
	}
	return outcome(raw)
}

// operation normalizes one raw argument of [New] into an Operation.
func operation(arg any, opts Options) (Operation, error) {
	switch op := arg.(type) {
	case []any:
		return NewWith(opts, op...)
	case []Operation:
		return sequence(opts, op)
	case []Func:
		return sequence(opts, op)
	case []*Process:
		return sequence(opts, op)
	case []*Future:
		return sequence(opts, op)
	case Operation:
		if isNilOperation(op) {
			return nil, newError(KindInitialization, `invalid "operation" type: nil`)
		}
		return op, nil
	case func(context.Context, State) (any, error):
		if op == nil {
			break
		}
		return Func(op), nil
	case func(context.Context, State) (State, error):
		if op == nil {
			break
		}
		return Func(func(ctx context.Context, in State) (any, error) {
			return op(ctx, in)
		}), nil
	case func(context.Context, State) (*Result, error):
		if op == nil {
			break
		}
		return Func(func(ctx context.Context, in State) (any, error) {
			return op(ctx, in)
		}), nil
	case func(context.Context, State) error:
		if op == nil {
			break
		}
		return Func(func(ctx context.Context, in State) (any, error) {
			return nil, op(ctx, in)
		}), nil
	case func(State) State:
		if op == nil {
			break
		}
		return Func(func(_ context.Context, in State) (any, error) {
			return op(in), nil
		}), nil
	case func(State):
		if op == nil {
			break
		}
		return Func(func(_ context.Context, in State) (any, error) {
			op(in)
			return nil, nil
		}), nil
	}
	if arg == nil || isNilFunc(arg) {
		return nil, newError(KindInitialization, `invalid "operation" type: nil`)
	}
	return nil, newError(KindInitialization, `invalid "operation" type: %s`, typeName(arg))
}

// sequence builds a nested Process from a typed inline sequence.
func sequence[T Operation](opts Options, ops []T) (*Process, error) {
	args := make([]any, len(ops))
	for i, o := range ops {
		args[i] = o
	}
	return NewWith(opts, args...)
}

func isNilOperation(op Operation) bool {
	switch v := op.(type) {
	case Func:
		return v == nil
	case *Process:
		return v == nil
	case *Future:
		return v == nil
	}
	return false
}

// isNilFunc reports whether arg is a nil value of one of the accepted
// function shapes.
func isNilFunc(arg any) bool {
	switch f := arg.(type) {
	case func(context.Context, State) (any, error):
		return f == nil
	case func(context.Context, State) (State, error):
		return f == nil
	case func(context.Context, State) (*Result, error):
		return f == nil
	case func(context.Context, State) error:
		return f == nil
	case func(State) State:
		return f == nil
	case func(State):
		return f == nil
	}
	return false
}
