// SPDX-License-Identifier: Apache-2.0

package process

import (
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// TraceFilter is a predicate function for filtering trace events.
type TraceFilter func(TraceEvent) bool

func matchAll(event TraceEvent, filters []TraceFilter) bool {
	for _, filter := range filters {
		if !filter(event) {
			return false
		}
	}
	return true
}

// FindEvent returns the first event matching all provided filters, or nil if
// none match.
//
// Example:
//
//	// Find the first slow operation under "route"
//	event := tr.FindEvent(
//	    process.PathMatches("route.*"),
//	    process.MinDuration(time.Second),
//	)
//	if event != nil {
//	    log.Printf("slow branch: %s took %v", event.Names, event.Duration)
//	}
func (t *Trace) FindEvent(filters ...TraceFilter) *TraceEvent {
	for i := range t.Events {
		if matchAll(t.Events[i], filters) {
			return &t.Events[i]
		}
	}
	return nil
}

// Filter returns a new Trace containing only events matching all provided
// filters. The original trace is not modified.
//
// In the returned trace, TotalSteps is the number of matching events,
// TotalErrors the number of those that failed, and Exited whether any of them
// exited. Duration is the sum of the matching durations and Start the
// earliest matching start, or the original Start if nothing matched.
//
// Example:
//
//	// Find slow operations with errors
//	filtered := tr.Filter(
//	    process.MinDuration(time.Second),
//	    process.HasError(),
//	)
func (t *Trace) Filter(filters ...TraceFilter) *Trace {
	out := &Trace{
		Events: make([]TraceEvent, 0, len(t.Events)),
		Start:  t.Start,
	}
	var earliest time.Time
	for _, event := range t.Events {
		if !matchAll(event, filters) {
			continue
		}
		out.Events = append(out.Events, event)
		out.Duration += event.Duration
		if event.Error != "" {
			out.TotalErrors++
		}
		out.Exited = out.Exited || event.Exited
		if earliest.IsZero() || event.Start.Before(earliest) {
			earliest = event.Start
		}
	}
	if !earliest.IsZero() {
		out.Start = earliest
	}
	out.TotalSteps = len(out.Events)
	return out
}

// MinDuration matches events that took at least d.
func MinDuration(d time.Duration) TraceFilter {
	return func(event TraceEvent) bool {
		return event.Duration >= d
	}
}

// MaxDuration matches events that took at most d.
func MaxDuration(d time.Duration) TraceFilter {
	return func(event TraceEvent) bool {
		return event.Duration <= d
	}
}

// HasError matches events of failed operations.
func HasError() TraceFilter {
	return func(event TraceEvent) bool {
		return event.Error != ""
	}
}

// NoError matches events of operations that did not fail.
func NoError() TraceFilter {
	return func(event TraceEvent) bool {
		return event.Error == ""
	}
}

// Exited matches events of operations that produced an exit signal.
func Exited() TraceFilter {
	return func(event TraceEvent) bool {
		return event.Exited
	}
}

// ProducedKey matches events of operations that produced the given key.
func ProducedKey(key string) TraceFilter {
	return func(event TraceEvent) bool {
		return slices.Contains(event.Keys, key)
	}
}

// NameMatches matches events whose operation name (the last element of
// Names) matches the glob pattern.
//
// Patterns use [filepath.Match] semantics. A malformed pattern matches
// nothing.
func NameMatches(pattern string) TraceFilter {
	return func(event TraceEvent) bool {
		if len(event.Names) == 0 {
			return false
		}
		return globMatch(pattern, event.Names[len(event.Names)-1])
	}
}

// NamePrefix matches events whose operation name has the given prefix.
func NamePrefix(prefix string) TraceFilter {
	return func(event TraceEvent) bool {
		if len(event.Names) == 0 {
			return false
		}
		return strings.HasPrefix(event.Names[len(event.Names)-1], prefix)
	}
}

// PathMatches matches events whose dotted path ("route.publish") matches the
// glob pattern. A malformed pattern matches nothing.
func PathMatches(pattern string) TraceFilter {
	return func(event TraceEvent) bool {
		if len(event.Names) == 0 {
			return false
		}
		return globMatch(pattern, strings.Join(event.Names, "."))
	}
}

// HasPathPrefix matches events whose Names start with prefix.
//
// Example:
//
//	// Match all operations under ["route", "published"]
//	filter := process.HasPathPrefix([]string{"route", "published"})
func HasPathPrefix(prefix []string) TraceFilter {
	return func(event TraceEvent) bool {
		return len(event.Names) >= len(prefix) && slices.Equal(event.Names[:len(prefix)], prefix)
	}
}

// DepthEquals matches events at the given depth, where depth is len(Names):
// 1 for top-level named operations, 2 for the first level of nesting.
func DepthEquals(depth int) TraceFilter {
	return func(event TraceEvent) bool {
		return len(event.Names) == depth
	}
}

// DepthAtMost matches events at or above the given depth.
func DepthAtMost(depth int) TraceFilter {
	return func(event TraceEvent) bool {
		return len(event.Names) <= depth
	}
}

// TimeRange matches events that started between start and end, inclusive.
func TimeRange(start, end time.Time) TraceFilter {
	return func(event TraceEvent) bool {
		return !event.Start.Before(start) && !event.Start.After(end)
	}
}

// ErrorMatches matches events whose error message matches the glob pattern.
//
// Example patterns:
//   - "*conflicting*" matches errors containing "conflicting"
//   - "ExecutionError: *" matches execution contract errors
func ErrorMatches(pattern string) TraceFilter {
	return func(event TraceEvent) bool {
		return event.Error != "" && globMatch(pattern, event.Error)
	}
}

func globMatch(pattern, s string) bool {
	matched, err := filepath.Match(pattern, s)
	return err == nil && matched
}
