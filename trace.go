// SPDX-License-Identifier: Apache-2.0

package process

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"
)

// TraceEvent represents the execution of a single named operation.
//
// Each event captures the full path of names, start time, duration, the keys
// the operation produced, whether it exited, and any error.
type TraceEvent struct {
	// Names is the full hierarchical path of operation names.
	// For example: ["publish", "notify"]
	Names []string `json:"step_names"`

	// Start is when the operation began execution.
	Start time.Time `json:"start"`

	// Duration is how long the operation took to execute.
	Duration time.Duration `json:"duration"`

	// Keys lists, sorted, the state keys the operation produced.
	Keys []string `json:"keys,omitempty"`

	// Exited reports whether the operation produced an exit signal.
	Exited bool `json:"exited,omitempty"`

	// Error is the error message if the operation failed, empty otherwise.
	Error string `json:"error,omitempty"`
}

// TraceOption configures trace behavior.
type TraceOption func(*traceOptions)

type traceOptions struct {
	// streamTo receives events as JSON Lines as they complete.
	// If nil, events are only stored in memory.
	streamTo io.Writer
}

// WithStreamTo configures the trace to stream events as JSON Lines to the
// given writer.
//
// Events are written one per line as they complete, so a trace survives a
// crash mid-run. This differs from [Trace.WriteTo], which writes a single
// pretty-printed JSON array after execution. All events are still retained in
// memory.
//
// Write failures to the stream are ignored and never fail the run.
//
// Example:
//
//	f, _ := os.Create("trace.jsonl")
//	defer f.Close()
//	res, tr, err := process.Traced(p, process.WithStreamTo(f))(ctx, input)
func WithStreamTo(w io.Writer) TraceOption {
	return func(opts *traceOptions) {
		opts.streamTo = w
	}
}

// trace is the collector stored in the runCtx during a traced run.
type trace struct {
	mu       sync.Mutex
	streamTo io.Writer
	encoder  *json.Encoder
	result   *Trace
}

// Trace holds the events recorded during a traced run.
type Trace struct {
	// Events is the list of all recorded trace events, in start order.
	Events []TraceEvent

	// Start is when the traced run began.
	Start time.Time

	// Duration is the total execution time of the run.
	// For filtered traces (from Filter), this is the sum of event durations.
	Duration time.Duration

	// TotalSteps is the number of named operations executed. Operations not
	// wrapped with Named or AutoNamed are not counted.
	// For filtered traces (from Filter), this equals len(Events).
	TotalSteps int

	// TotalErrors is the number of named operations that failed.
	TotalErrors int

	// Exited reports whether the traced run ended with an exit signal.
	Exited bool
}

// eventIdx is a type-safe index into the trace's event array.
type eventIdx int

// A TracedFunc runs an operation and returns its result together with the
// trace of the run.
type TracedFunc func(ctx context.Context, input any) (*Result, *Trace, error)

// Traced wraps an operation so that running it records a [Trace].
//
// Every [Named] operation inside op, at any depth, records a [TraceEvent].
// The input is validated like [Process.Execute] input. The trace is returned
// even when the run fails.
//
// Example:
//
//	p := process.MustNew(
//	    process.Named("fetch", fetchItem),
//	    process.Named("publish", publishItem),
//	)
//	res, tr, err := process.Traced(p)(ctx, process.State{"id": "item-id"})
//	_, _ = tr.WriteText(os.Stdout)
//
// Tracing is opt-in and has no cost when not used.
func Traced(op Operation, opts ...TraceOption) TracedFunc {
	options := traceOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	return func(ctx context.Context, input any) (res *Result, result *Trace, err error) {
		result = &Trace{
			Start:  time.Now(),
			Events: make([]TraceEvent, 0),
		}
		defer func() {
			result.Duration = time.Since(result.Start)
		}()

		in, err := inputState(input)
		if err != nil {
			return nil, result, err
		}

		tr := &trace{
			streamTo: options.streamTo,
			result:   result,
		}
		if tr.streamTo != nil {
			tr.encoder = json.NewEncoder(tr.streamTo)
			defer func() {
				if flusher, ok := tr.streamTo.(interface{ Flush() error }); ok {
					_ = flusher.Flush() // Best-effort
				}
			}()
		}

		r := newRunCtx(ctx)
		r.trace = tr
		if p, ok := op.(*Process); ok {
			res, err = p.execute(r, in)
		} else {
			res, err = op.run(r, in)
		}
		if err != nil {
			return nil, result, err
		}
		result.Exited = res != nil && res.Exited
		return res, result, nil
	}
}

// newEvent creates a new trace event and returns its index.
//
// This should be called when a named operation starts. The returned index
// must be passed to recordFinish when it completes.
func (t *trace) newEvent(names []string) eventIdx {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := len(t.result.Events)
	t.result.Events = append(t.result.Events, TraceEvent{
		Names: names,
		Start: time.Now(),
	})
	t.result.TotalSteps++

	return eventIdx(idx)
}

// recordFinish completes an event with its duration, output and error.
func (t *trace) recordFinish(idx eventIdx, res *Result, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	event := &t.result.Events[idx]
	event.Duration = time.Since(event.Start)
	if err != nil {
		// Unwrap only through NamedErrors so nested names are not repeated,
		// while wrappers from other libraries are preserved.
		recordErr := err
		for {
			var namedErr NamedError
			if errors.As(recordErr, &namedErr) && namedErr.Err != nil {
				recordErr = namedErr.Err
			} else {
				break
			}
		}
		event.Error = recordErr.Error()
		t.result.TotalErrors++
	} else if res != nil {
		if len(res.State) > 0 {
			event.Keys = resultKeys(res)
		}
		event.Exited = res.Exited
	}

	if t.streamTo != nil {
		_ = t.encoder.Encode(event)
	}
}
