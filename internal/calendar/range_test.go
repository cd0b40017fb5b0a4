package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRangeWeekStartsMonday(t *testing.T) {
	ref := time.Date(2024, 3, 14, 15, 30, 0, 0, time.UTC)

	r := ResolveRange(ref, GranularityWeek)

	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2024, 3, 17, 23, 59, 59, 999_000_000, time.UTC), r.End)
	assert.Equal(t, "2024-03-11T00:00:00.000Z", FormatBoundary(r.Start))
	assert.Equal(t, "2024-03-17T23:59:59.999Z", FormatBoundary(r.End))
}

func TestResolveRangeSundayBelongsToPreviousWeek(t *testing.T) {
	ref := time.Date(2024, 3, 17, 8, 0, 0, 0, time.UTC)

	r := ResolveRange(ref, GranularityWeek)

	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), r.Start)
}

func TestResolveRangeDayAndMonth(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	ref := time.Date(2024, 2, 10, 12, 0, 0, 0, loc)

	day := ResolveRange(ref, GranularityDay)
	assert.Equal(t, time.Date(2024, 2, 10, 0, 0, 0, 0, loc), day.Start)
	assert.Equal(t, time.Date(2024, 2, 10, 23, 59, 59, 999_000_000, loc), day.End)
	assert.Equal(t, "2024-02-10T00:00:00.000+01:00", FormatBoundary(day.Start))

	month := ResolveRange(ref, GranularityMonth)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, loc), month.Start)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 999_000_000, loc), month.End)
}

func TestResolveRangeContainsReference(t *testing.T) {
	refs := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2024, 3, 14, 15, 30, 0, 0, time.UTC),
	}
	for _, ref := range refs {
		for _, g := range []Granularity{GranularityDay, GranularityWeek, GranularityMonth} {
			r := ResolveRange(ref, g)
			assert.True(t, r.Contains(ref), "%s %s", g, ref)
			assert.False(t, r.End.Before(r.Start))
		}
	}
}

func TestResolveRangePanicsOnInvalidGranularity(t *testing.T) {
	assert.Panics(t, func() { ResolveRange(time.Now(), Granularity("year")) })
}

func TestStepMonthLandsOnFirst(t *testing.T) {
	ref := time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC)

	next := Step(ref, GranularityMonth, 1)

	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), next)
	assert.Equal(t, time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC), Step(ref, GranularityWeek, 7))
	assert.Equal(t, time.Date(2024, 1, 30, 10, 0, 0, 0, time.UTC), Step(ref, GranularityDay, -1))
}

func TestParseBoundary(t *testing.T) {
	got, err := ParseBoundary("2024-03-11T00:00:00.000Z", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseBoundary("2024-03-11", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseBoundary("11/03/2024", time.UTC)
	assert.Error(t, err)
	_, err = ParseBoundary("", time.UTC)
	assert.Error(t, err)
}

func TestParseGranularity(t *testing.T) {
	g, err := ParseGranularity(" Month ")
	require.NoError(t, err)
	assert.Equal(t, GranularityMonth, g)

	_, err = ParseGranularity("year")
	assert.Error(t, err)
}
