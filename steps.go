// SPDX-License-Identifier: Apache-2.0

package process

import (
	"context"
	"fmt"
	"maps"
)

// Noop is an operation that does nothing; it is the default [Switch] fallback.
var Noop Operation = Resolve(nil)

// Steps wraps operations into a reusable [Func].
//
// Every call builds a new Process from ops and executes it against the
// Func's input, so nothing is shared between calls. Because the Process is
// built per call, invalid operations are reported when the Func runs.
//
// Example:
//
//	publish := process.Steps(publishItem, notifySubscribers)
func Steps(ops ...any) Func {
	return func(ctx context.Context, in State) (any, error) {
		p, err := New(ops...)
		if err != nil {
			return nil, err
		}
		return p.run(ctx, in)
	}
}

// Switch returns a [Func] that runs one branch chosen by the value of key in
// its input.
//
// options maps values of in[key] to an operation or inline sequence. A
// string value is looked up as is; other values are formatted with
// [fmt.Sprint]. When the key is missing, nil, or matches no option, the
// fallback runs instead; it defaults to [Noop], as does a nil fallback, and
// at most one may be given.
//
// Arguments are checked immediately: nil options, extra fallbacks, or any
// branch that is not a valid operation fail with a [KindInitialization]
// error. An empty branch ([]any{}) is valid and produces no update. Each call of the returned Func builds a fresh
// one-operation Process from the selected branch and executes it with the
// Func's input.
//
// Example:
//
//	route, err := process.Switch("newState", map[string]any{
//	    "draft":     process.Noop,
//	    "published": []any{publishItem, notifySubscribers},
//	    "deleted":   []any{deleteItem, process.Exit},
//	})
func Switch(key string, options map[string]any, fallback ...any) (Func, error) {
	if options == nil {
		return nil, newError(KindInitialization, `invalid "switch options" type: nil`)
	}
	if len(fallback) > 1 {
		return nil, newError(KindInitialization, `invalid "switch fallback": expected at most one, got %d`, len(fallback))
	}
	var otherwise any = Noop
	if len(fallback) == 1 && fallback[0] != nil {
		otherwise = fallback[0]
	}

	branches := maps.Clone(options)
	for _, branch := range branches {
		if _, err := New(branch); err != nil {
			return nil, err
		}
	}
	if _, err := New(otherwise); err != nil {
		return nil, err
	}

	return func(ctx context.Context, in State) (any, error) {
		selected := otherwise
		if name, ok := branchName(in, key); ok {
			if branch, ok := branches[name]; ok {
				selected = branch
			}
		}
		p, err := New(selected)
		if err != nil {
			return nil, err
		}
		return p.run(ctx, in)
	}, nil
}

// MustSwitch is like [Switch] but panics if the arguments are invalid.
func MustSwitch(key string, options map[string]any, fallback ...any) Func {
	f, err := Switch(key, options, fallback...)
	if err != nil {
		panic(err)
	}
	return f
}

func branchName(in State, key string) (string, bool) {
	v, ok := in[key]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}
