// SPDX-License-Identifier: Apache-2.0

package process

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventPaths(tr *Trace) []string {
	paths := make([]string, len(tr.Events))
	for i, event := range tr.Events {
		paths[i] = strings.Join(event.Names, ".")
	}
	return paths
}

func TestTraceFilters(t *testing.T) {
	t.Parallel()
	base := sampleTrace().Start
	testCases := []struct {
		name    string
		filters []TraceFilter
		want    []string
	}{
		{name: "NoFilters", filters: nil, want: []string{"fetch", "route", "route.publish", "route.notify", "audit"}},
		{name: "MinDuration", filters: []TraceFilter{MinDuration(80 * time.Millisecond)}, want: []string{"route", "route.publish"}},
		{name: "MaxDuration", filters: []TraceFilter{MaxDuration(30 * time.Millisecond)}, want: []string{"route.notify", "audit"}},
		{name: "HasError", filters: []TraceFilter{HasError()}, want: []string{"audit"}},
		{name: "NoError", filters: []TraceFilter{NoError(), DepthEquals(1)}, want: []string{"fetch", "route"}},
		{name: "Exited", filters: []TraceFilter{Exited()}, want: []string{"route", "route.notify"}},
		{name: "ProducedKey", filters: []TraceFilter{ProducedKey("published")}, want: []string{"route", "route.publish"}},
		{name: "NameMatches", filters: []TraceFilter{NameMatches("p*")}, want: []string{"route.publish"}},
		{name: "NameMatchesMalformed", filters: []TraceFilter{NameMatches("[")}, want: []string{}},
		{name: "NamePrefix", filters: []TraceFilter{NamePrefix("no")}, want: []string{"route.notify"}},
		{name: "PathMatches", filters: []TraceFilter{PathMatches("route.*")}, want: []string{"route.publish", "route.notify"}},
		{name: "HasPathPrefix", filters: []TraceFilter{HasPathPrefix([]string{"route"})}, want: []string{"route", "route.publish", "route.notify"}},
		{name: "HasPathPrefixTooLong", filters: []TraceFilter{HasPathPrefix([]string{"route", "publish", "x"})}, want: []string{}},
		{name: "DepthEquals", filters: []TraceFilter{DepthEquals(2)}, want: []string{"route.publish", "route.notify"}},
		{name: "DepthAtMost", filters: []TraceFilter{DepthAtMost(1)}, want: []string{"fetch", "route", "audit"}},
		{
			name:    "TimeRange",
			filters: []TraceFilter{TimeRange(base.Add(50*time.Millisecond), base.Add(140*time.Millisecond))},
			want:    []string{"route", "route.publish", "route.notify"},
		},
		{name: "ErrorMatches", filters: []TraceFilter{ErrorMatches("*unavailable")}, want: []string{"audit"}},
		{name: "ErrorMatchesNoError", filters: []TraceFilter{ErrorMatches("*")}, want: []string{"audit"}},
		{name: "Combined", filters: []TraceFilter{DepthEquals(2), Exited()}, want: []string{"route.notify"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			filtered := sampleTrace().Filter(tc.filters...)
			assert.Equal(t, tc.want, eventPaths(filtered))
			assert.Equal(t, len(tc.want), filtered.TotalSteps)
		})
	}
}

func TestFilterAggregates(t *testing.T) {
	t.Parallel()
	tr := sampleTrace()
	t.Run("Matching", func(t *testing.T) {
		t.Parallel()
		filtered := tr.Filter(DepthEquals(2))
		assert.Equal(t, 110*time.Millisecond, filtered.Duration)
		assert.Equal(t, tr.Events[2].Start, filtered.Start)
		assert.True(t, filtered.Exited)
		assert.Zero(t, filtered.TotalErrors)
	})

	t.Run("Errors", func(t *testing.T) {
		t.Parallel()
		filtered := tr.Filter(DepthEquals(1))
		assert.Equal(t, 1, filtered.TotalErrors)
		assert.Equal(t, 170*time.Millisecond, filtered.Duration)
	})

	t.Run("NothingMatches", func(t *testing.T) {
		t.Parallel()
		filtered := tr.Filter(NameMatches("missing"))
		assert.Empty(t, filtered.Events)
		assert.Equal(t, tr.Start, filtered.Start)
		assert.Zero(t, filtered.Duration)
		assert.False(t, filtered.Exited)
	})

	t.Run("OriginalUnchanged", func(t *testing.T) {
		t.Parallel()
		tr := sampleTrace()
		tr.Filter(HasError())
		assert.Len(t, tr.Events, 5)
		assert.Equal(t, 5, tr.TotalSteps)
	})
}

func TestFindEvent(t *testing.T) {
	t.Parallel()
	tr := sampleTrace()

	event := tr.FindEvent(PathMatches("route.*"), MinDuration(50*time.Millisecond))
	require.NotNil(t, event)
	assert.Equal(t, []string{"route", "publish"}, event.Names)
	assert.Same(t, &tr.Events[2], event)

	assert.Nil(t, tr.FindEvent(HasError(), DepthEquals(2)))

	first := tr.FindEvent()
	require.NotNil(t, first)
	assert.Equal(t, []string{"fetch"}, first.Names)

	assert.Nil(t, (&Trace{}).FindEvent())
}

func TestGlobMatch(t *testing.T) {
	t.Parallel()
	assert.True(t, globMatch("fetch*", "fetch-item"))
	assert.True(t, globMatch("?oute", "route"))
	assert.False(t, globMatch("fetch", "fetch-item"))
	assert.False(t, globMatch("[", "["))
}
