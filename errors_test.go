// SPDX-License-Identifier: Apache-2.0

package process

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "InitializationError", KindInitialization.String())
	assert.Equal(t, "ExecutionError", KindExecution.String())
	assert.Equal(t, "Kind(0)", Kind(0).String())
}

func TestError(t *testing.T) {
	t.Parallel()
	t.Run("Message", func(t *testing.T) {
		t.Parallel()
		_, err := New(42)
		require.EqualError(t, err, `InitializationError: invalid "operation" type: int`)

		_, err = MustNew().Execute(t.Context(), 42)
		require.EqualError(t, err, `ExecutionError: invalid "input" type: int`)
	})

	t.Run("KindsAreDistinct", func(t *testing.T) {
		t.Parallel()
		_, err := New(42)
		assert.ErrorIs(t, err, ErrInitialization)
		assert.NotErrorIs(t, err, ErrExecution)

		_, err = MustNew(returning(42)).Execute(t.Context(), nil)
		assert.ErrorIs(t, err, ErrExecution)
		assert.NotErrorIs(t, err, ErrInitialization)
	})

	t.Run("SurvivesWrapping", func(t *testing.T) {
		t.Parallel()
		_, err := New("nope")
		wrapped := fmt.Errorf("loading pipeline: %w", err)
		requireKind(t, wrapped, KindInitialization, `invalid "operation" type: string`)
	})

	t.Run("UnknownKindUnwrapsToNil", func(t *testing.T) {
		t.Parallel()
		err := &Error{Message: "x"}
		assert.NoError(t, err.Unwrap())
		assert.Equal(t, "Kind(0): x", err.Error())
	})
}

func TestQuoteKeys(t *testing.T) {
	t.Parallel()
	assert.Equal(t, `"a"`, quoteKeys([]string{"a"}))
	assert.Equal(t, `"a", "b", "c"`, quoteKeys([]string{"a", "b", "c"}))
}

func TestRecoverPanics(t *testing.T) {
	t.Parallel()
	t.Run("Panic", func(t *testing.T) {
		t.Parallel()
		var r recorder
		p := MustNew(
			RecoverPanics(Func(func(context.Context, State) (any, error) {
				panic("boom")
			})),
			r.step(nil),
		)
		res, err := p.Execute(t.Context(), nil)
		assert.Nil(t, res)
		var rp *RecoveredPanic
		require.ErrorAs(t, err, &rp)
		assert.Equal(t, "boom", rp.Value)
		assert.EqualError(t, err, "panic recovered: boom")
		assert.Zero(t, r.calls())
	})

	t.Run("NoPanic", func(t *testing.T) {
		t.Parallel()
		res := mustRun(t, nil, RecoverPanics(produce("a", 1)))
		assert.Equal(t, State{"a": 1}, res.State)
	})

	t.Run("ErrorPassesThrough", func(t *testing.T) {
		t.Parallel()
		_, err := MustNew(RecoverPanics(failWith(error1))).Execute(t.Context(), nil)
		assert.Same(t, error1, err)
	})

	t.Run("PanicWithError", func(t *testing.T) {
		t.Parallel()
		_, err := MustNew(RecoverPanics(Func(func(context.Context, State) (any, error) {
			panic(error2)
		}))).Execute(t.Context(), nil)
		var rp *RecoveredPanic
		require.True(t, errors.As(err, &rp))
		assert.Same(t, error2, rp.Value)
	})
}
