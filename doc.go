// SPDX-License-Identifier: Apache-2.0

// Package process runs composable, sequential pipelines of operations over an
// accumulating key-value state, with an explicit exit signal that can halt
// execution early at any nesting depth.
//
// # The Problem
//
// Business workflows are usually a handful of ordered steps: load something,
// decide whether anything needs doing, branch on a field, do the work, record
// the result. Written by hand, each step has to thread its outputs to the next,
// guard against clobbering an earlier step's data, and bail out early through
// every level of nesting. Process handles that plumbing so a workflow reads as
// the list of steps it is.
//
// # Core Concepts
//
// A [Process] is an immutable, ordered list of operations built with [New]:
//
//	p, err := process.New(
//	    fetchItem,                  // a Func
//	    process.Resolve(defaults),  // a deferred value
//	    []any{publish, notify},     // an inline sequence (nested Process)
//	    other,                      // another *Process
//	)
//
// Every operation receives the [State] accumulated so far, overlaid on the
// caller's input, and may return an update (a State), nothing (nil) or an exit
// signal. Updates from operations at the same level are merged; two operations
// producing the same key is a program error reported as a [KindExecution]
// [Error], never resolved by overwriting.
//
// A [Func] is the usual operation:
//
//	type Func func(ctx context.Context, in State) (any, error)
//
// [New] also accepts a few plain function shapes and converts them for you,
// such as func(context.Context, State) (State, error) and
// func(context.Context, State) error.
//
// # Exiting Early
//
// Returning [Exit] (or the result of [ExitWith]) from an operation stops the
// run. The signal travels outward through every enclosing Process, so nothing
// after the exiting operation runs at any level:
//
//	checkNeedsUpdate := process.Func(func(_ context.Context, in process.State) (any, error) {
//	    if in["state"] == in["newState"] {
//	        return process.Exit, nil
//	    }
//	    return nil, nil
//	})
//
// The marker is the [Result.Exited] field, so no input key can fake or hide it.
//
// # Branching
//
// [Switch] selects one branch per run from a key in the state; [Steps] wraps a
// list of operations into a reusable Func; [Noop] does nothing:
//
//	route, err := process.Switch("newState", map[string]any{
//	    "draft":     process.Noop,
//	    "published": []any{publishItem, notifySubscribers},
//	    "deleted":   []any{deleteItem, process.Exit},
//	})
//
// # Errors
//
// Contract violations are reported as [*Error] values of two kinds:
// [KindInitialization] when a Process or Switch is built from invalid
// arguments, and [KindExecution] when a run sees an invalid input, an invalid
// output or conflicting keys. Errors returned by operations themselves are
// passed through untouched.
//
// # Observability
//
// [Named] labels an operation; names nest and are available through
// [StepNames]. [WithLogging], [WithSlogging] and [WithZerologging] log around
// an operation, and [Traced] records an event for every named operation.
//
// For declarative pipelines loaded from YAML, see the definition sub-package.
package process
