// SPDX-License-Identifier: Apache-2.0

package process

import (
	"context"
)

// Options configures how a [Process] runs.
type Options struct {
	// DiscardInput controls what executing a Process with no operations
	// returns.
	//
	// By default, when false, an empty Process returns a copy of its input.
	//
	// If enabled, it returns an empty State instead. Either way, an empty
	// Process nested inside another produces no update.
	DiscardInput bool
}

// A Process is an immutable, ordered sequence of operations executed as a
// unit.
//
// A Process is itself an [Operation], so processes nest. It holds no run
// state, so one Process may be executed any number of times, concurrently, as
// long as its operations are themselves safe to share.
type Process struct {
	ops  []Operation
	opts Options
}

// New builds a Process from operations.
//
// New is the same as [NewWith] with the default [Options].
func New(ops ...any) (*Process, error) {
	return NewWith(Options{}, ops...)
}

// NewWith builds a Process from operations, with custom options.
//
// Each argument must be an [Operation], one of the function shapes listed
// below, or an inline sequence which becomes a nested Process with the same
// options. Inline sequences are []any, []Operation, []Func, []*Process and
// []*Future. Anything else fails construction with a
// [KindInitialization] error naming the offending type; no partial Process is
// ever returned and nothing runs at construction time.
//
// Accepted function shapes:
//
//	func(context.Context, State) (any, error)
//	func(context.Context, State) (State, error)
//	func(context.Context, State) (*Result, error)
//	func(context.Context, State) error
//	func(State) State
//	func(State)
func NewWith(opts Options, ops ...any) (*Process, error) {
	normalized := make([]Operation, 0, len(ops))
	for _, arg := range ops {
		op, err := operation(arg, opts)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, op)
	}
	return &Process{ops: normalized, opts: opts}, nil
}

// MustNew is like [New] but panics if the operations are invalid.
//
// It simplifies declaring processes as package-level variables:
//
//	var PublishItem = process.MustNew(FetchItem, CheckNeedsUpdate, Publish)
func MustNew(ops ...any) *Process {
	p, err := New(ops...)
	if err != nil {
		panic(err)
	}
	return p
}

// Len returns the number of top-level operations.
func (p *Process) Len() int {
	return len(p.ops)
}

// Execute runs the process and returns the accumulated output.
//
// The input must be nil, a [State] or a map[string]any; anything else fails
// with a [KindExecution] error. Operations run one after another in
// declaration order. Each receives the input overlaid with everything
// produced so far, and its output is merged into the accumulated output.
//
// Execution stops at the first error, which is returned as is, or after the
// first operation that produces an exit signal, in which case the returned
// Result has Exited set. The input itself is not part of the result, except
// for a Process with no operations which returns a copy of its input (see
// [Options.DiscardInput]).
func (p *Process) Execute(ctx context.Context, input any) (*Result, error) {
	in, err := inputState(input)
	if err != nil {
		return nil, err
	}
	return p.execute(ctx, in)
}

// Start is an alias of [Process.Execute].
func (p *Process) Start(ctx context.Context, input any) (*Result, error) {
	return p.Execute(ctx, input)
}

// execute runs p as the outermost operation of a run.
func (p *Process) execute(ctx context.Context, in State) (*Result, error) {
	if len(p.ops) == 0 {
		if p.opts.DiscardInput {
			return &Result{State: State{}}, nil
		}
		return &Result{State: in.clone()}, nil
	}
	return p.run(ctx, in)
}

func (p *Process) run(ctx context.Context, in State) (*Result, error) {
	if len(p.ops) == 0 {
		// Nested empty sequence: no update.
		return nil, nil
	}

	var acc *Result
	for _, op := range p.ops {
		if acc != nil && acc.Exited {
			break
		}
		out, err := op.run(ctx, overlay(in, acc))
		if err != nil {
			return nil, err
		}
		if acc, err = merge(acc, out); err != nil {
			return nil, err
		}
	}

	if acc == nil {
		acc = &Result{State: State{}}
	}
	return acc, nil
}
