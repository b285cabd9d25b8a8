// SPDX-License-Identifier: Apache-2.0

package process

import (
	"context"
	"fmt"
	"runtime"
	"strings"
)

// NamedError is an error returned by [Named] and [AutoNamed].
// It wraps the underlying error with the name of the operation that failed.
// Use [errors.As] to detect and inspect NamedErrors.
type NamedError struct {
	// Name is the name of the operation that failed.
	Name string
	// Err is the underlying error from the operation.
	Err error
}

// Error returns the formatted error message.
func (e NamedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e NamedError) Unwrap() error {
	return e.Err
}

// StepNames returns a copy of the operation name stack from the context.
// Returns nil if no names are present in the context.
//
// This is useful for custom logging decorators or other functionality
// that needs to inspect the current operation hierarchy.
func StepNames(ctx context.Context) []string {
	r := getRunCtx(ctx)
	if r == nil || len(r.names) == 0 {
		return nil
	}
	return append([]string{}, r.names...)
}

// Named wraps an [Operation] with a name.
//
// If the operation fails, its error is wrapped in a [NamedError], so the name
// is prepended to the message: "fetch-item: not found". Unnamed operations
// return their errors untouched.
//
// Named also maintains a stack of names in the context, retrievable with
// [StepNames]. Nested Named decorators build a hierarchical path
// (e.g., "publish.notify"), used by the logging decorators and recorded by
// [Traced].
func Named(name string, op Operation) Operation {
	return Func(func(ctx context.Context, in State) (any, error) {
		r := newRunCtx(ctx)
		r.names = append(append([]string{}, r.names...), name)

		var idx eventIdx
		if r.trace != nil {
			idx = r.trace.newEvent(r.names)
		}
		res, err := op.run(r, in)
		if r.trace != nil {
			r.trace.recordFinish(idx, res, err)
		}

		if err != nil {
			return nil, NamedError{Name: name, Err: err}
		}
		return res, nil
	})
}

type autoNamedOptions struct {
	callerSkip int
}

// An AutoNamedOption is a function option for [AutoNamed].
type AutoNamedOption func(*autoNamedOptions)

// SkipCaller adds a delta to the number of skipped stack frames.
//
// This is useful when wrapping AutoNamed inside helper functions, allowing
// it to skip intermediate layers and identify the original caller.
//
// Example:
//
//	func FetchItem() process.Operation {
//	    return ItemStep(fetchItem)
//	}
//
//	func ItemStep(f process.Func) process.Operation {
//	    // Skip ItemStep so AutoNamed picks FetchItem instead
//	    return process.AutoNamed(process.RecoverPanics(f), process.SkipCaller(1))
//	}
func SkipCaller(delta int) AutoNamedOption {
	return func(o *autoNamedOptions) {
		o.callerSkip += delta
	}
}

// AutoNamed wraps an [Operation] with a name derived from the calling
// function.
//
// Example:
//
//	func FetchItem() process.Operation {
//	    return process.AutoNamed(process.Func(func(ctx context.Context, in process.State) (any, error) {
//	        // Implementation
//	        return nil, nil
//	    }))
//	}
//	// If this operation fails, the error will be prefixed with "FetchItem: ..."
//
// Note: AutoNamed only works when called directly from a named function.
// It will not work correctly when called from anonymous functions or closures.
func AutoNamed(op Operation, opts ...AutoNamedOption) Operation {
	const minimumCallerSkip = 1
	config := autoNamedOptions{callerSkip: minimumCallerSkip}
	for _, opt := range opts {
		opt(&config)
	}

	pc, _, _, ok := runtime.Caller(config.callerSkip)
	if !ok {
		// This branch cannot easily be tested, so ignore it in coverage reports.
		return op
	}

	fn := runtime.FuncForPC(pc)
	if fn == nil {
		// This branch cannot easily be tested, so ignore it in coverage reports.
		return op
	}

	return Named(extractFunctionName(fn.Name()), op)
}

// extractFunctionName extracts the simple function name from a full Go function path.
//
// Examples:
//   - "github.com/sam-fredrickson/process.FetchItem" -> "FetchItem"
//   - "main.(*Server).HandleRequest" -> "HandleRequest"
//   - "github.com/user/pkg.init.0" -> "0"
func extractFunctionName(fullName string) string {
	parts := strings.Split(fullName, "/")
	lastPart := parts[len(parts)-1]

	if idx := strings.LastIndex(lastPart, "."); idx != -1 {
		lastPart = lastPart[idx+1:]
	}

	return lastPart
}
