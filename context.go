// SPDX-License-Identifier: Apache-2.0

package process

import (
	"context"
	"log"
	"log/slog"
	"time"
)

// runCtxKey is the context key for retrieving the runCtx.
type runCtxKey struct{}

// runCtx consolidates all process-specific context values into a single
// lookup.
//
// Instead of storing the trace, names and loggers as separate context values
// (each requiring O(n) chain traversal), runCtx stores them together behind
// runCtxKey.
//
// The runCtx embeds the parent context.Context to delegate cancellation,
// deadlines, and all other values.
type runCtx struct {
	context.Context

	// trace is the active trace, or nil if tracing is disabled.
	trace *trace

	// names is the operation name stack, oldest first.
	names []string

	// logger is used by WithLogging; log.Default() unless set.
	logger *log.Logger

	// slogger is used by WithSlogging; slog.Default() unless set.
	slogger *slog.Logger
}

// Value intercepts runCtxKey lookups and delegates every other key to the
// embedded parent context.
func (r *runCtx) Value(key any) any {
	if _, ok := key.(runCtxKey); ok {
		return r
	}
	return r.Context.Value(key)
}

func getRunCtx(ctx context.Context) *runCtx {
	r, _ := ctx.Value(runCtxKey{}).(*runCtx)
	return r
}

// newRunCtx creates a runCtx wrapping parent that inherits the values of the
// nearest runCtx in parent, or defaults if there is none.
func newRunCtx(parent context.Context) *runCtx {
	origin := getRunCtx(parent)
	if origin == nil {
		return &runCtx{
			Context: parent,
			logger:  log.Default(),
			slogger: slog.Default(),
		}
	}
	return &runCtx{
		Context: parent,
		trace:   origin.trace,
		names:   origin.names,
		logger:  origin.logger,
		slogger: origin.slogger,
	}
}

// Sleep returns an operation that pauses for the given duration and produces
// no update.
//
// The sleep respects context cancellation, failing with [context.Canceled]
// if the context is cancelled before the duration elapses.
//
// Example:
//
//	process.New(
//	    requestExport,
//	    process.Sleep(500*time.Millisecond),
//	    downloadExport,
//	)
func Sleep(duration time.Duration) Operation {
	return Func(func(ctx context.Context, _ State) (any, error) {
		timer := time.NewTimer(duration)
		defer timer.Stop()

		select {
		case <-timer.C:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
}
