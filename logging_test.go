// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithLogging(t *testing.T) {
	t.Parallel()
	t.Run("Success", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := log.New(&buf, "", 0)
		mustRun(t, nil, WithLogger(logger,
			Named("publish", WithLogging(produce("published", true)))))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "[publish] starting step", lines[0])
		assert.True(t, strings.HasPrefix(lines[1], "[publish] finished step (took "), lines[1])
	})

	t.Run("Exited", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := log.New(&buf, "", 0)
		mustRun(t, nil, WithLogger(logger, Named("check", WithLogging(Exit))))
		assert.Contains(t, buf.String(), ", exited)")
	})

	t.Run("Failure", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := log.New(&buf, "", 0)
		_, err := MustNew(WithLogger(logger,
			Named("outer", MustNew(Named("inner", WithLogging(failWith(error1))))))).
			Execute(t.Context(), nil)
		require.Error(t, err)
		assert.Contains(t, buf.String(), "[outer.inner] starting step")
		assert.Contains(t, buf.String(), "[outer.inner] failed step (took ")
		assert.Contains(t, buf.String(), "): error 1")
	})

	t.Run("Unnamed", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := log.New(&buf, "", 0)
		mustRun(t, nil, WithLogger(logger, WithLogging(Noop)))
		assert.Contains(t, buf.String(), "[<unknown>] starting step")
	})
}

func TestLogger(t *testing.T) {
	t.Parallel()
	assert.Same(t, log.Default(), Logger(t.Context()))
	assert.Same(t, slog.Default(), Slogger(t.Context()))

	logger := log.New(&bytes.Buffer{}, "", 0)
	mustRun(t, nil, WithLogger(logger, Func(func(ctx context.Context, _ State) (any, error) {
		assert.Same(t, logger, Logger(ctx))
		return nil, nil
	})))
}

func decodeJSONLines(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(data), []byte("\n")) {
		var record map[string]any
		require.NoError(t, json.Unmarshal(line, &record))
		records = append(records, record)
	}
	return records
}

func TestWithSlogging(t *testing.T) {
	t.Parallel()
	t.Run("Success", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		mustRun(t, nil, WithSlogger(logger,
			Named("publish", WithSlogging(slog.LevelInfo, MustNew(
				produce("published", true),
				produce("notified", true),
			)))))

		records := decodeJSONLines(t, buf.Bytes())
		require.Len(t, records, 2)
		assert.Equal(t, "starting step", records[0]["msg"])
		assert.Equal(t, "publish", records[0]["name"])
		assert.Equal(t, "INFO", records[1]["level"])
		assert.Equal(t, "finished step", records[1]["msg"])
		assert.Equal(t, []any{"notified", "published"}, records[1]["keys"])
		assert.Equal(t, false, records[1]["exited"])
		assert.Contains(t, records[1], "duration_ms")
	})

	t.Run("FailureRaisesLevel", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		_, err := MustNew(WithSlogger(logger,
			Named("publish", WithSlogging(slog.LevelInfo, failWith(error1))))).
			Execute(t.Context(), nil)
		require.Error(t, err)

		records := decodeJSONLines(t, buf.Bytes())
		require.Len(t, records, 2)
		assert.Equal(t, "ERROR", records[1]["level"])
		assert.Equal(t, "failed step", records[1]["msg"])
		assert.Equal(t, "error 1", records[1]["error"])
	})

	t.Run("LevelFiltered", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
		mustRun(t, nil, WithSlogger(logger, WithSlogging(slog.LevelDebug, Noop)))
		assert.Empty(t, buf.String())
	})

	t.Run("Exited", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		mustRun(t, nil, WithSlogger(logger, WithSlogging(slog.LevelInfo, Exit)))
		records := decodeJSONLines(t, buf.Bytes())
		require.Len(t, records, 2)
		assert.Equal(t, true, records[1]["exited"])
		assert.Equal(t, "<unknown>", records[1]["name"])
	})
}

func TestWithZerologging(t *testing.T) {
	t.Parallel()
	t.Run("Success", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := zerolog.New(&buf)
		mustRun(t, nil, WithZerologger(logger,
			Named("fetch", WithZerologging(zerolog.InfoLevel, produce("item", 1)))))

		records := decodeJSONLines(t, buf.Bytes())
		require.Len(t, records, 2)
		assert.Equal(t, "info", records[0]["level"])
		assert.Equal(t, "starting step", records[0]["message"])
		assert.Equal(t, "fetch", records[0]["name"])
		assert.Equal(t, "finished step", records[1]["message"])
		assert.Equal(t, []any{"item"}, records[1]["keys"])
		assert.Equal(t, false, records[1]["exited"])
	})

	t.Run("Failure", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := zerolog.New(&buf)
		_, err := MustNew(WithZerologger(logger,
			Named("fetch", WithZerologging(zerolog.InfoLevel, failWith(error1))))).
			Execute(t.Context(), nil)
		require.Error(t, err)

		records := decodeJSONLines(t, buf.Bytes())
		require.Len(t, records, 2)
		assert.Equal(t, "error", records[1]["level"])
		assert.Equal(t, "failed step", records[1]["message"])
		assert.Equal(t, "error 1", records[1]["error"])
	})

	t.Run("LoggerFromContext", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		ctx := zerolog.New(&buf).WithContext(t.Context())
		_, err := MustNew(WithZerologging(zerolog.WarnLevel, Noop)).Execute(ctx, nil)
		require.NoError(t, err)
		records := decodeJSONLines(t, buf.Bytes())
		require.Len(t, records, 2)
		assert.Equal(t, "warn", records[0]["level"])
	})
}

func TestResultKeys(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{}, resultKeys(nil))
	assert.Equal(t, []string{"a", "b", "c"}, resultKeys(&Result{State: State{"c": 1, "a": 2, "b": 3}}))
}
