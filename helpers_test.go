// SPDX-License-Identifier: Apache-2.0

package process

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// ==== Test Helpers: Error Variables ====

var error1 = errors.New("error 1")
var error2 = errors.New("error 2")
var error3 = errors.New("error 3")

// ==== Test Helpers: Operations ====

// produce returns a Func that produces a single key.
func produce(key string, value any) Func {
	return func(_ context.Context, _ State) (any, error) {
		return State{key: value}, nil
	}
}

// returning returns a Func that returns raw as its output.
func returning(raw any) Func {
	return func(_ context.Context, _ State) (any, error) {
		return raw, nil
	}
}

// failWith returns a Func that fails with err.
func failWith(err error) Func {
	return func(_ context.Context, _ State) (any, error) {
		return nil, err
	}
}

// recorder remembers every input its operations observed.
type recorder struct {
	mu     sync.Mutex
	inputs []State
}

// step returns a Func that records its input and returns out.
func (r *recorder) step(out any) Func {
	return func(_ context.Context, in State) (any, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.inputs = append(r.inputs, in)
		return out, nil
	}
}

func (r *recorder) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inputs)
}

func (r *recorder) input(i int) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inputs[i]
}

// ==== Test Helpers: Assertions ====

// requireKind asserts that err is a process Error of the given kind with the
// given message.
func requireKind(t *testing.T, err error, kind Kind, message string) {
	t.Helper()
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, kind, perr.Kind)
	require.Equal(t, message, perr.Message)
	switch kind {
	case KindInitialization:
		require.ErrorIs(t, err, ErrInitialization)
	case KindExecution:
		require.ErrorIs(t, err, ErrExecution)
	}
}

// mustRun builds a Process from ops, executes it with input and requires
// success.
func mustRun(t *testing.T, input any, ops ...any) *Result {
	t.Helper()
	p, err := New(ops...)
	require.NoError(t, err)
	res, err := p.Execute(t.Context(), input)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}
