// SPDX-License-Identifier: Apache-2.0

package process

import (
	"context"
	"log"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger returns the [log.Logger] from the context, or [log.Default] if none is set.
//
// This is useful for custom logging decorators that need the configured logger.
func Logger(ctx context.Context) *log.Logger {
	r := getRunCtx(ctx)
	if r == nil || r.logger == nil {
		return log.Default()
	}
	return r.logger
}

// WithLogger configures an [Operation] to use a specific [log.Logger].
//
// The logger is stored in the context and used by [WithLogging] anywhere
// inside op. It is typically applied once, around the outermost Process:
//
//	logger := log.New(os.Stdout, "orders: ", log.LstdFlags)
//	op := process.WithLogger(logger,
//	    process.Named("publish",
//	        process.WithLogging(publishItem)))
func WithLogger(logger *log.Logger, op Operation) Operation {
	return Func(func(ctx context.Context, in State) (any, error) {
		r := newRunCtx(ctx)
		r.logger = logger
		return op.run(r, in)
	})
}

// WithLogging wraps an [Operation] with log messages printed when it starts
// and finishes, including the duration.
//
// Messages carry the dotted path of names from the context
// (e.g., "publish.notify"), or "<unknown>" outside any [Named] operation.
// Log format:
//
//	[publish] starting step
//	[publish] finished step (took 12ms)
//	[check] finished step (took 1ms, exited)
func WithLogging(op Operation) Operation {
	return Func(func(ctx context.Context, in State) (any, error) {
		fullName := stepPath(ctx)
		logger := Logger(ctx)

		logger.Printf("[%s] starting step\n", fullName)
		start := time.Now()
		res, err := op.run(ctx, in)
		duration := time.Since(start)
		switch {
		case err != nil:
			logger.Printf("[%s] failed step (took %v): %v\n", fullName, duration, err)
		case res != nil && res.Exited:
			logger.Printf("[%s] finished step (took %v, exited)\n", fullName, duration)
		default:
			logger.Printf("[%s] finished step (took %v)\n", fullName, duration)
		}
		return res, err
	})
}

// Slogger returns the [slog.Logger] from the context, or [slog.Default] if none is set.
func Slogger(ctx context.Context) *slog.Logger {
	r := getRunCtx(ctx)
	if r == nil || r.slogger == nil {
		return slog.Default()
	}
	return r.slogger
}

// WithSlogger configures an [Operation] to use a specific [slog.Logger] for
// structured logging by [WithSlogging].
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	op := process.WithSlogger(logger,
//	    process.Named("publish",
//	        process.WithSlogging(slog.LevelInfo, publishItem)))
func WithSlogger(logger *slog.Logger, op Operation) Operation {
	return Func(func(ctx context.Context, in State) (any, error) {
		r := newRunCtx(ctx)
		r.slogger = logger
		return op.run(r, in)
	})
}

// WithSlogging wraps an [Operation] with structured log records emitted when
// it starts and finishes.
//
// Records carry a "name" attribute with the dotted path of names. The finish
// record adds "duration_ms", the sorted output "keys", and "exited"; on
// failure it carries "error" instead and is logged at [slog.LevelError] or
// level, whichever is higher.
//
//	{"level":"INFO","msg":"starting step","name":"publish"}
//	{"level":"INFO","msg":"finished step","name":"publish","duration_ms":5,"keys":["published"],"exited":false}
func WithSlogging(level slog.Level, op Operation) Operation {
	return Func(func(ctx context.Context, in State) (any, error) {
		fullName := stepPath(ctx)
		logger := Slogger(ctx)

		logger.Log(ctx, level, "starting step", "name", fullName)
		start := time.Now()
		res, err := op.run(ctx, in)
		duration := time.Since(start)
		if err != nil {
			logger.Log(ctx, max(level, slog.LevelError), "failed step",
				"name", fullName, "duration_ms", duration.Milliseconds(), "error", err)
			return nil, err
		}
		logger.Log(ctx, level, "finished step",
			"name", fullName, "duration_ms", duration.Milliseconds(),
			"keys", resultKeys(res), "exited", res != nil && res.Exited)
		return res, nil
	})
}

// WithZerologger attaches a [zerolog.Logger] to the context for
// [WithZerologging].
//
// It is equivalent to running op with logger.WithContext(ctx), so a context
// that already carries a zerolog logger needs no wrapping.
func WithZerologger(logger zerolog.Logger, op Operation) Operation {
	return Func(func(ctx context.Context, in State) (any, error) {
		return op.run(logger.WithContext(ctx), in)
	})
}

// WithZerologging wraps an [Operation] with zerolog events emitted when it
// starts and finishes.
//
// The logger is taken from the context with [zerolog.Ctx]; see
// [WithZerologger]. Events carry the same fields as [WithSlogging].
func WithZerologging(level zerolog.Level, op Operation) Operation {
	return Func(func(ctx context.Context, in State) (any, error) {
		fullName := stepPath(ctx)
		logger := zerolog.Ctx(ctx)

		logger.WithLevel(level).Str("name", fullName).Msg("starting step")
		start := time.Now()
		res, err := op.run(ctx, in)
		duration := time.Since(start)
		if err != nil {
			logger.WithLevel(max(level, zerolog.ErrorLevel)).
				Str("name", fullName).
				Int64("duration_ms", duration.Milliseconds()).
				Err(err).
				Msg("failed step")
			return nil, err
		}
		logger.WithLevel(level).
			Str("name", fullName).
			Int64("duration_ms", duration.Milliseconds()).
			Strs("keys", resultKeys(res)).
			Bool("exited", res != nil && res.Exited).
			Msg("finished step")
		return res, nil
	})
}

func stepPath(ctx context.Context) string {
	names := StepNames(ctx)
	if len(names) == 0 {
		return "<unknown>"
	}
	return strings.Join(names, ".")
}

func resultKeys(res *Result) []string {
	if res == nil {
		return []string{}
	}
	keys := make([]string, 0, len(res.State))
	for key := range res.State {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
