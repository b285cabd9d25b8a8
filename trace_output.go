// SPDX-License-Identifier: Apache-2.0

package process

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// WriteTo serializes the trace events as a pretty-printed JSON array.
//
// Returns the number of bytes written and any error. Unlike streaming with
// [WithStreamTo], this writes once, after the run completes.
func (t *Trace) WriteTo(w io.Writer) (int64, error) {
	data, err := json.MarshalIndent(t.Events, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to marshal trace: %w", err)
	}

	n, err := w.Write(data)
	if err != nil {
		return int64(n), fmt.Errorf("failed to write trace: %w", err)
	}

	nn, err := w.Write([]byte("\n"))
	n += nn
	if err != nil {
		return int64(n), fmt.Errorf("failed to write newline: %w", err)
	}

	return int64(n), nil
}

// WriteText outputs a human-readable tree view of the trace.
//
// Indentation reflects nesting depth and the displayed name is the last
// element of the name path. Produced keys follow the duration, and an exiting
// operation is marked:
//
//	fetch (45ms) {item}
//	check (1ms)
//	route (120ms)
//	  publish (80ms)
//	  notify (40ms) [EXIT]
//
// Events from concurrent runs recorded into one trace interleave, which makes
// the tree misleading; use [Trace.WriteFlatText] for those.
func (t *Trace) WriteText(w io.Writer) (int64, error) {
	return t.writeLines(w, func(event TraceEvent) string {
		if len(event.Names) == 0 {
			return "<unknown>"
		}
		last := len(event.Names) - 1
		return strings.Repeat("  ", last) + event.Names[last]
	})
}

// WriteFlatText outputs a human-readable flat list of events.
//
// Unlike [Trace.WriteText], every line shows the full path
// (e.g., "route > publish") with no indentation:
//
//	fetch (45ms) {item}
//	route (120ms)
//	route > publish (80ms)
//
// Events appear in the order they were recorded (start order).
func (t *Trace) WriteFlatText(w io.Writer) (int64, error) {
	return t.writeLines(w, func(event TraceEvent) string {
		if len(event.Names) == 0 {
			return "<unknown>"
		}
		return strings.Join(event.Names, " > ")
	})
}

// writeLines writes one line per event: its label followed by the suffix.
func (t *Trace) writeLines(w io.Writer, label func(TraceEvent) string) (int64, error) {
	var written int64
	for _, event := range t.Events {
		n, err := io.WriteString(w, label(event)+eventSuffix(event)+"\n")
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("failed to write trace text: %w", err)
		}
	}
	return written, nil
}

func eventSuffix(event TraceEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, " (%s)", event.Duration)
	if len(event.Keys) > 0 {
		fmt.Fprintf(&b, " {%s}", strings.Join(event.Keys, ", "))
	}
	if event.Exited {
		b.WriteString(" [EXIT]")
	}
	if event.Error != "" {
		fmt.Fprintf(&b, " [ERROR: %s]", event.Error)
	}
	return b.String()
}
