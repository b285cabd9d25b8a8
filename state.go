// SPDX-License-Identifier: Apache-2.0

package process

import (
	"maps"
	"slices"
)

// State is the key-value mapping passed into and accumulated across a run.
//
// A nil State is the absent state and behaves like an empty one.
type State map[string]any

// clone returns a shallow copy; the copy of a nil State is empty, not nil.
func (s State) clone() State {
	out := make(State, len(s))
	maps.Copy(out, s)
	return out
}

// Result is what an operation or a whole run produces.
//
// Exited is the exit marker. It lives beside the State rather than in it, so
// no key supplied by a caller or an operation can set or mask it.
type Result struct {
	// State holds the keys produced.
	State State
	// Exited reports whether an exit signal was produced.
	Exited bool
}

// Get returns the value stored under key.
func (r *Result) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.State[key]
	return v, ok
}

func exited(s State) *Result {
	return &Result{State: s.clone(), Exited: true}
}

// outcome validates a raw operation output and normalizes it into a Result.
// A nil Result means the operation produced no update.
func outcome(raw any) (*Result, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case exitOperation:
		return exited(nil), nil
	case State:
		if v == nil {
			return nil, nil
		}
		return &Result{State: v}, nil
	case map[string]any:
		if v == nil {
			return nil, nil
		}
		return &Result{State: State(v)}, nil
	case *Result:
		return v, nil
	case Result:
		return &v, nil
	}
	return nil, newError(KindExecution, `invalid "output" type: %s`, typeName(raw))
}

// inputState validates the input of a run.
func inputState(input any) (State, error) {
	switch v := input.(type) {
	case nil:
		return nil, nil
	case State:
		return v, nil
	case map[string]any:
		return State(v), nil
	}
	return nil, newError(KindExecution, `invalid "input" type: %s`, typeName(input))
}

// overlay builds an operation's input: the run input with the accumulated
// output on top.
func overlay(in State, acc *Result) State {
	if acc == nil {
		return in.clone()
	}
	out := make(State, len(in)+len(acc.State))
	maps.Copy(out, in)
	maps.Copy(out, acc.State)
	return out
}

// merge combines the accumulated output with an operation's output.
//
// No key may be produced twice at the same level; the merged Result is always
// a fresh value, so neither argument is ever modified.
func merge(prev, cur *Result) (*Result, error) {
	if cur == nil {
		return prev, nil
	}
	if prev == nil {
		return &Result{State: cur.State.clone(), Exited: cur.Exited}, nil
	}

	var conflicts []string
	for key := range prev.State {
		if _, ok := cur.State[key]; ok {
			conflicts = append(conflicts, key)
		}
	}
	if len(conflicts) > 0 {
		slices.Sort(conflicts)
		return nil, newError(KindExecution, "conflicting step results for: %s", quoteKeys(conflicts))
	}

	out := make(State, len(prev.State)+len(cur.State))
	maps.Copy(out, cur.State)
	maps.Copy(out, prev.State)
	return &Result{State: out, Exited: prev.Exited || cur.Exited}, nil
}
