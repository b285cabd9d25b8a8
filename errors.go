// SPDX-License-Identifier: Apache-2.0

package process

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind identifies which contract a failure violated.
type Kind int

const (
	// KindInitialization marks a build-time failure: an invalid operation
	// passed to [New], or invalid arguments passed to [Switch].
	KindInitialization Kind = iota + 1
	// KindExecution marks a run-time failure: an invalid input, an invalid
	// operation output, or conflicting keys between operations.
	KindExecution
)

// String returns the stable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInitialization:
		return "InitializationError"
	case KindExecution:
		return "ExecutionError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

var (
	// ErrInitialization is matched by every [KindInitialization] error.
	ErrInitialization = errors.New("process: initialization error")
	// ErrExecution is matched by every [KindExecution] error.
	ErrExecution = errors.New("process: execution error")
)

// Error is a contract violation detected by the package itself.
//
// Use [errors.Is] with [ErrInitialization] or [ErrExecution] to discriminate
// the kind, or [errors.As] to inspect the message:
//
//	var perr *process.Error
//	if errors.As(err, &perr) && perr.Kind == process.KindExecution {
//	    log.Printf("pipeline misuse: %s", perr.Message)
//	}
type Error struct {
	Kind    Kind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Message
}

// Unwrap returns the sentinel matching the error's kind.
func (e *Error) Unwrap() error {
	switch e.Kind {
	case KindInitialization:
		return ErrInitialization
	case KindExecution:
		return ErrExecution
	default:
		return nil
	}
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// typeName describes a value's runtime type for error messages.
func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}

// quoteKeys renders keys as "a", "b".
func quoteKeys(keys []string) string {
	return `"` + strings.Join(keys, `", "`) + `"`
}

// RecoveredPanic is an error type that wraps a panic value.
type RecoveredPanic struct {
	Value any
}

func (p *RecoveredPanic) Error() string {
	return fmt.Sprintf("panic recovered: %v", p.Value)
}

// RecoverPanics wraps an operation to recover from panics and convert them to
// errors.
//
// If the operation panics, the panic value is wrapped in a [RecoveredPanic]
// error, which then aborts the run like any other failure.
func RecoverPanics(op Operation) Operation {
	return Func(func(ctx context.Context, in State) (res any, err error) {
		defer func() {
			if r := recover(); r != nil {
				res, err = nil, &RecoveredPanic{Value: r}
			}
		}()
		return op.run(ctx, in)
	})
}
