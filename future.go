// SPDX-License-Identifier: Apache-2.0

package process

import (
	"context"
)

// A Future is a deferred value: the eventual output of work that was started
// independently of any pipeline.
//
// Used as an operation, a Future ignores the state it is given and yields its
// settled value, validated like any other output. Every await observes the
// same settled value, so one Future may be shared between runs and processes.
type Future struct {
	done chan struct{}
	val  any
	err  error
}

// Async starts fn in a new goroutine and returns a Future for its result.
//
// The work begins immediately, not when a pipeline reaches the Future.
//
// Example:
//
//	defaults := process.Async(ctx, func(ctx context.Context) (any, error) {
//	    cfg, err := loadDefaults(ctx)
//	    return process.State{"defaults": cfg}, err
//	})
//	p, err := process.New(defaults, applyDefaults)
func Async(ctx context.Context, fn func(context.Context) (any, error)) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = fn(ctx)
	}()
	return f
}

// Resolve returns a Future already settled with v.
func Resolve(v any) *Future {
	f := &Future{done: make(chan struct{}), val: v}
	close(f.done)
	return f
}

// Reject returns a Future already settled with err.
func Reject(err error) *Future {
	f := &Future{done: make(chan struct{}), err: err}
	close(f.done)
	return f
}

// Await blocks until the Future settles or ctx is done.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.val, f.err
	default:
	}
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *Future) run(ctx context.Context, _ State) (*Result, error) {
	raw, err := f.Await(ctx)
	if err != nil {
		return nil, err
	}
	return outcome(raw)
}
