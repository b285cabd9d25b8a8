// SPDX-License-Identifier: Apache-2.0

package process

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// IndexedError wraps an error with the index of the input whose run failed.
//
// Example:
//
//	_, err := p.ExecuteAll(ctx, inputs, process.BatchOptions{})
//	var ie *process.IndexedError
//	if errors.As(err, &ie) {
//	    fmt.Printf("input %d failed: %v\n", ie.Index, ie.Err)
//	}
type IndexedError struct {
	Index int
	Err   error
}

// Error implements the error interface.
func (e *IndexedError) Error() string {
	return fmt.Sprintf("input %d: %v", e.Index, e.Err)
}

// Unwrap returns the underlying error for errors.Is and errors.As.
func (e *IndexedError) Unwrap() error {
	return e.Err
}

// BatchOptions specifies how [Process.ExecuteAll] runs its inputs.
type BatchOptions struct {
	// Limit controls how many runs may be in flight at once.
	//
	// Numbers less than or equal to zero indicate no limit.
	Limit int

	// JoinErrors controls error handling.
	//
	// By default, when false, the first failing run cancels the context of
	// the others and its error is returned. (This is the behavior of the
	// `errgroup` package.)
	//
	// If enabled, every run completes regardless of failures, and a combined
	// `errors.Join` of all failures, ordered by index, is returned.
	JoinErrors bool
}

// ExecuteAll runs the process once per input, concurrently.
//
// Each run is an independent [Process.Execute]: runs share nothing, and the
// operations inside each run still execute strictly in order. Results are
// aligned with inputs; the result of a failed or cancelled run is nil.
// Failures are wrapped in an [IndexedError].
//
// Example:
//
//	results, err := publish.ExecuteAll(ctx, []process.State{
//	    {"id": "a", "newState": "published"},
//	    {"id": "b", "newState": "deleted"},
//	}, process.BatchOptions{Limit: 4})
func (p *Process) ExecuteAll(ctx context.Context, inputs []State, opts BatchOptions) ([]*Result, error) {
	results := make([]*Result, len(inputs))

	group, subCtx := errgroup.WithContext(ctx)
	if opts.Limit > 0 {
		group.SetLimit(opts.Limit)
	}

	var mu sync.Mutex
	var errs []*IndexedError
	for i, input := range inputs {
		group.Go(func() error {
			res, err := p.execute(subCtx, input)
			if err != nil {
				ie := &IndexedError{Index: i, Err: err}
				if !opts.JoinErrors {
					return ie
				}
				mu.Lock()
				errs = append(errs, ie)
				mu.Unlock()
				return nil
			}
			results[i] = res
			return nil
		})
	}

	err := group.Wait()
	if opts.JoinErrors {
		slices.SortFunc(errs, func(a, b *IndexedError) int { return a.Index - b.Index })
		joined := make([]error, len(errs))
		for i, ie := range errs {
			joined[i] = ie
		}
		err = errors.Join(joined...)
	}
	return results, err
}
